package casetracking

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/turtacn/casetrack/internal/domain/casefile"
	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	storageminio "github.com/turtacn/casetrack/internal/infrastructure/storage/minio"
	"github.com/turtacn/casetrack/pkg/errors"
)

// ObjectStore is the export sink. storageminio.ObjectStorageRepository
// satisfies it.
type ObjectStore interface {
	Upload(ctx context.Context, req *storageminio.UploadRequest) (*storageminio.UploadResult, error)
	GetPresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

// ExportResult locates an uploaded export.
type ExportResult struct {
	ObjectKey   string    `json:"object_key"`
	URL         string    `json:"url"`
	Rows        int       `json:"rows"`
	Size        int64     `json:"size"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ExportService writes the case table to object storage.
type ExportService interface {
	ExportCases(ctx context.Context, in ListInput) (*ExportResult, error)
}

type exportServiceImpl struct {
	cases  *caseServiceImpl
	store  ObjectStore
	logger logging.Logger
}

func NewExportService(repo casefile.Repository, clock sla.Clock, store ObjectStore, logger logging.Logger) ExportService {
	return &exportServiceImpl{
		cases:  &caseServiceImpl{repo: repo, clock: clock, ports: newPorts(nil), logger: logger},
		store:  store,
		logger: logger.Named("export_service"),
	}
}

// ExportCases renders every case matching in (pagination ignored) as CSV,
// uploads it and returns a presigned download URL.
func (s *exportServiceImpl) ExportCases(ctx context.Context, in ListInput) (*ExportResult, error) {
	views, err := s.cases.listViews(ctx, in)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WriteCasesCSV(&buf, views); err != nil {
		return nil, errors.Wrap(err, errors.CodeExportFailed, "failed to render csv")
	}

	now := s.cases.clock.Now()
	key := storageminio.ExportKey("cases", "csv", now)
	size := int64(buf.Len())
	res, err := s.store.Upload(ctx, &storageminio.UploadRequest{
		ObjectKey:   key,
		Reader:      &buf,
		Size:        size,
		ContentType: "text/csv",
		Metadata:    map[string]string{"rows": strconv.Itoa(len(views))},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExportFailed, "failed to upload export")
	}
	url, err := s.store.GetPresignedDownloadURL(ctx, res.ObjectKey, 0)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExportFailed, "failed to sign export url")
	}
	s.logger.Info("Cases exported", logging.String("key", res.ObjectKey), logging.Int("rows", len(views)))
	return &ExportResult{
		ObjectKey:   res.ObjectKey,
		URL:         url,
		Rows:        len(views),
		Size:        size,
		GeneratedAt: now,
	}, nil
}

// CaseCSVHeader is the column order of WriteCasesCSV.
var CaseCSVHeader = []string{
	"case_id", "case_type", "title", "department", "assigned_to", "priority", "overall_status",
	"submitted_date", "received_date",
	"first_query_issued_date", "first_query_response_date",
	"second_query_issued_date", "second_query_response_date",
	"submitted_to_higher_date", "signed_date", "deadline",
	"days_in_process", "sla_status", "overall_sla_days",
	"first_query_pending_days", "second_query_pending_days",
	"days_received_to_submitted_to_higher", "deadline_bucket", "error",
}

// WriteCasesCSV writes one row per view. Derived columns are empty for views
// that failed to derive; the error column carries the reason instead.
func WriteCasesCSV(w io.Writer, views []casefile.View) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CaseCSVHeader); err != nil {
		return err
	}
	for _, v := range views {
		c := v.Case
		row := []string{
			c.ID, c.CaseType, c.Title, c.Department, c.AssignedTo, string(c.Priority), string(c.Status),
			sla.FormatDate(c.SubmittedDate), sla.FormatDate(c.ReceivedDate),
			sla.FormatDate(c.FirstQueryIssuedDate), sla.FormatDate(c.FirstQueryResponseDate),
			sla.FormatDate(c.SecondQueryIssuedDate), sla.FormatDate(c.SecondQueryResponseDate),
			sla.FormatDate(c.SubmittedToHigherDate), sla.FormatDate(c.SignedDate), sla.FormatDate(c.Deadline),
		}
		if d := v.Derived; d != nil {
			row = append(row,
				strconv.Itoa(d.DaysInProcess), string(d.SLAStatus), strconv.Itoa(d.OverallSLADays),
				strconv.Itoa(d.FirstQueryPendingDays), strconv.Itoa(d.SecondQueryPendingDays),
				optionalInt(d.DaysReceivedToSubmittedToHigher), string(d.DeadlineBucket), "")
		} else {
			msg := ""
			if v.Err != nil {
				msg = v.Err.Error()
			}
			row = append(row, "", "", "", "", "", "", "", msg)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

//Personal.AI order the ending
