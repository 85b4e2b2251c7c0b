package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/casetrack/internal/config"
	"github.com/turtacn/casetrack/internal/domain/casefile"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/errors"
	"github.com/turtacn/casetrack/pkg/types/common"
)

var (
	ErrIndexCreationFailed = errors.New(errors.ErrCodeSearchError, "index creation failed")
	ErrDocumentNotFound    = errors.New(errors.ErrCodeNotFound, "document not found")
)

const dateLayout = "2006-01-02"

// CaseDocument is the indexed form of a case and its last derivation.
type CaseDocument struct {
	CaseID                 string `json:"case_id"`
	CaseType               string `json:"case_type"`
	Title                  string `json:"title,omitempty"`
	Department             string `json:"department,omitempty"`
	AssignedTo             string `json:"assigned_to,omitempty"`
	Remarks                string `json:"remarks,omitempty"`
	Priority               string `json:"priority"`
	OverallStatus          string `json:"overall_status"`
	Terminal               bool   `json:"terminal"`
	SLAStatus              string `json:"sla_status,omitempty"`
	DaysInProcess          int    `json:"days_in_process"`
	OverallSLADays         int    `json:"overall_sla_days"`
	FirstQueryPendingDays  int    `json:"first_query_pending_days"`
	SecondQueryPendingDays int    `json:"second_query_pending_days"`
	DeadlineBucket         string `json:"deadline_bucket,omitempty"`
	SubmittedDate          string `json:"submitted_date,omitempty"`
	Deadline               string `json:"deadline,omitempty"`
	ComputedOn             string `json:"computed_on,omitempty"`
	DeriveError            string `json:"derive_error,omitempty"`
}

// NewCaseDocument flattens v. A view that failed to derive is still indexed
// with the failure in DeriveError.
func NewCaseDocument(v casefile.View) CaseDocument {
	c := v.Case
	doc := CaseDocument{
		CaseID:        c.ID,
		CaseType:      c.CaseType,
		Title:         c.Title,
		Department:    c.Department,
		AssignedTo:    c.AssignedTo,
		Remarks:       c.Remarks,
		Priority:      string(c.Priority),
		OverallStatus: string(c.Status),
		Terminal:      c.IsTerminal(),
		SubmittedDate: formatDate(c.SubmittedDate),
		Deadline:      formatDate(c.Deadline),
	}
	if v.Err != nil {
		doc.DeriveError = v.Err.Error()
		return doc
	}
	if d := v.Derived; d != nil {
		doc.SLAStatus = string(d.SLAStatus)
		doc.DaysInProcess = d.DaysInProcess
		doc.OverallSLADays = d.OverallSLADays
		doc.FirstQueryPendingDays = d.FirstQueryPendingDays
		doc.SecondQueryPendingDays = d.SecondQueryPendingDays
		doc.DeadlineBucket = string(d.DeadlineBucket)
		doc.ComputedOn = formatDate(&d.ComputedOn)
	}
	return doc
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// CaseIndexMapping is the mapping of the case index. Enumerations are
// keywords so dashboards can aggregate on them.
func CaseIndexMapping() common.IndexMapping {
	keyword := map[string]interface{}{"type": "keyword"}
	integer := map[string]interface{}{"type": "integer"}
	date := map[string]interface{}{"type": "date", "format": "yyyy-MM-dd"}
	text := map[string]interface{}{"type": "text", "fields": map[string]interface{}{"raw": keyword}}

	return common.IndexMapping{
		Settings: map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 1,
		},
		Mappings: map[string]interface{}{
			"dynamic": "strict",
			"properties": map[string]interface{}{
				"case_id":                   keyword,
				"case_type":                 keyword,
				"title":                     text,
				"department":                keyword,
				"assigned_to":               keyword,
				"remarks":                   map[string]interface{}{"type": "text"},
				"priority":                  keyword,
				"overall_status":            keyword,
				"terminal":                  map[string]interface{}{"type": "boolean"},
				"sla_status":                keyword,
				"days_in_process":           integer,
				"overall_sla_days":          integer,
				"first_query_pending_days":  integer,
				"second_query_pending_days": integer,
				"deadline_bucket":           keyword,
				"submitted_date":            date,
				"deadline":                  date,
				"computed_on":               date,
				"derive_error":              map[string]interface{}{"type": "text"},
			},
		},
	}
}

// Indexer writes case documents into one index.
type Indexer struct {
	client    *Client
	index     string
	batchSize int
	refresh   string
	logger    logging.Logger
}

// NewIndexer targets cfg.IndexName with bulk batches of cfg.BulkBatchSize.
func NewIndexer(client *Client, cfg config.OpenSearchConfig, logger logging.Logger) *Indexer {
	idx := &Indexer{
		client:    client,
		index:     cfg.IndexName,
		batchSize: cfg.BulkBatchSize,
		refresh:   "false",
		logger:    logger,
	}
	if idx.index == "" {
		idx.index = config.DefaultOpenSearchIndexName
	}
	if idx.batchSize <= 0 {
		idx.batchSize = config.DefaultOpenSearchBulkBatch
	}
	return idx
}

// Index returns the target index name.
func (i *Indexer) Index() string {
	return i.index
}

// EnsureIndex creates the case index when it is missing.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	exists, err := i.IndexExists(ctx)
	if err != nil || exists {
		return err
	}

	body, err := json.Marshal(CaseIndexMapping())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal index mapping")
	}
	resp, err := opensearchapi.IndicesCreateRequest{Index: i.index, Body: bytes.NewReader(body)}.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "create index request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return handleErrorResponse(resp, ErrIndexCreationFailed)
	}
	i.logger.Info("Index created", logging.String("index", i.index))
	return nil
}

func (i *Indexer) IndexExists(ctx context.Context) (bool, error) {
	resp, err := opensearchapi.IndicesExistsRequest{Index: []string{i.index}}.Do(ctx, i.client.GetClient())
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeSearchError, "failed to check index existence")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, handleErrorResponse(resp, errors.New(errors.ErrCodeSearchError, "check index existence failed"))
}

// IndexViews bulk-indexes views keyed by case id, in batches. A batch the
// cluster rejects as a whole is counted as failed and the next batch still runs.
func (i *Indexer) IndexViews(ctx context.Context, views []casefile.View) (*common.BulkResult, error) {
	result := &common.BulkResult{}
	for start := 0; start < len(views); start += i.batchSize {
		end := min(start+i.batchSize, len(views))
		if err := i.bulk(ctx, views[start:end], result); err != nil {
			return result, err
		}
	}
	i.logger.Info("Bulk index completed",
		logging.String("index", i.index),
		logging.Int("total", len(views)),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed))
	return result, nil
}

type bulkAction struct {
	Index struct {
		Index string `json:"_index"`
		ID    string `json:"_id"`
	} `json:"index"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

func (i *Indexer) bulk(ctx context.Context, views []casefile.View, result *common.BulkResult) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, v := range views {
		var action bulkAction
		action.Index.Index = i.index
		action.Index.ID = v.Case.ID
		if err := enc.Encode(action); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode bulk action")
		}
		if err := enc.Encode(NewCaseDocument(v)); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode case document")
		}
	}

	resp, err := opensearchapi.BulkRequest{Body: &buf, Refresh: i.refresh}.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "bulk request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		err := handleErrorResponse(resp, errors.New(errors.ErrCodeSearchError, "bulk batch failed"))
		result.Failed += len(views)
		result.Errors = append(result.Errors, common.BulkItemError{DocID: "batch", ErrorType: "http_error", Reason: err.Error()})
		return nil
	}

	var br bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode bulk response")
	}
	for _, item := range br.Items {
		for _, info := range item {
			if info.Status >= 200 && info.Status < 300 {
				result.Succeeded++
				continue
			}
			result.Failed++
			result.Errors = append(result.Errors, common.BulkItemError{
				DocID:     info.ID,
				ErrorType: info.Error.Type,
				Reason:    info.Error.Reason,
			})
		}
	}
	return nil
}

// DeleteCase removes one document.
func (i *Indexer) DeleteCase(ctx context.Context, caseID string) error {
	resp, err := opensearchapi.DeleteRequest{Index: i.index, DocumentID: caseID, Refresh: i.refresh}.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "delete document request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrDocumentNotFound.WithDetail("case_id=" + caseID)
	}
	if resp.IsError() {
		return handleErrorResponse(resp, errors.New(errors.ErrCodeSearchError, "delete document failed"))
	}
	return nil
}

func handleErrorResponse(resp *opensearchapi.Response, defaultErr error) error {
	var errResp struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Reason != "" {
		return errors.Wrapf(defaultErr, errors.ErrCodeSearchError, "opensearch error: %s - %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return errors.Wrapf(defaultErr, errors.ErrCodeSearchError, "opensearch error status: %d", resp.StatusCode)
}

//Personal.AI order the ending
