package opensearch

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/errors"
	"github.com/turtacn/casetrack/pkg/types/common"
)

// CaseQuery is a free-text search over indexed cases with keyword filters.
type CaseQuery struct {
	Text        string
	SLAStatuses []string
	Priorities  []string
	Department  string
	ActiveOnly  bool
	Pagination  common.Pagination
}

// CaseHits is one page of search results.
type CaseHits struct {
	Total int            `json:"total"`
	Hits  []CaseDocument `json:"hits"`
}

// Searcher queries the case index.
type Searcher struct {
	client *Client
	index  string
	logger logging.Logger
}

func NewSearcher(client *Client, index string, logger logging.Logger) *Searcher {
	return &Searcher{client: client, index: index, logger: logger}
}

// SearchCases runs q. Results are ordered by relevance, then by days in
// process descending, then by case id.
func (s *Searcher) SearchCases(ctx context.Context, q CaseQuery) (*CaseHits, error) {
	p := q.Pagination.Normalize()
	body, err := json.Marshal(map[string]interface{}{
		"query": buildCaseQuery(q),
		"from":  p.Offset(),
		"size":  p.PageSize,
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"days_in_process": "desc"},
			map[string]interface{}{"case_id": "asc"},
		},
		"track_total_hits": true,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal search body")
	}

	resp, err := opensearchapi.SearchRequest{Index: []string{s.index}, Body: bytes.NewReader(body)}.Do(ctx, s.client.GetClient())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchError, "search request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, handleErrorResponse(resp, errors.New(errors.ErrCodeSearchError, "search failed"))
	}

	var sr struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source CaseDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search response")
	}

	out := &CaseHits{Total: sr.Hits.Total.Value, Hits: make([]CaseDocument, 0, len(sr.Hits.Hits))}
	for _, h := range sr.Hits.Hits {
		out.Hits = append(out.Hits, h.Source)
	}
	s.logger.Debug("Case search", logging.String("text", q.Text), logging.Int("total", out.Total))
	return out, nil
}

func buildCaseQuery(q CaseQuery) map[string]interface{} {
	var must []interface{}
	if q.Text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"case_id^3", "title^2", "remarks", "case_type", "assigned_to"},
			},
		})
	}

	var filter []interface{}
	if len(q.SLAStatuses) > 0 {
		filter = append(filter, map[string]interface{}{"terms": map[string]interface{}{"sla_status": q.SLAStatuses}})
	}
	if len(q.Priorities) > 0 {
		filter = append(filter, map[string]interface{}{"terms": map[string]interface{}{"priority": q.Priorities}})
	}
	if q.Department != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"department": q.Department}})
	}
	if q.ActiveOnly {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"terminal": false}})
	}

	if len(must) == 0 && len(filter) == 0 {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}
	boolQ := map[string]interface{}{}
	if len(must) > 0 {
		boolQ["must"] = must
	}
	if len(filter) > 0 {
		boolQ["filter"] = filter
	}
	return map[string]interface{}{"bool": boolQ}
}

//Personal.AI order the ending
