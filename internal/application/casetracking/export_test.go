package casetracking

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/casetrack/internal/domain/casefile"
	storageminio "github.com/turtacn/casetrack/internal/infrastructure/storage/minio"
	"github.com/turtacn/casetrack/internal/testutil"
	"github.com/turtacn/casetrack/pkg/errors"
)

type mockObjectStore struct {
	mock.Mock
	body []byte
}

func (m *mockObjectStore) Upload(ctx context.Context, req *storageminio.UploadRequest) (*storageminio.UploadResult, error) {
	args := m.Called(ctx, req)
	if req.Reader != nil {
		m.body, _ = io.ReadAll(req.Reader)
	}
	res, _ := args.Get(0).(*storageminio.UploadResult)
	return res, args.Error(1)
}

func (m *mockObjectStore) GetPresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectKey, expiry)
	return args.String(0), args.Error(1)
}

func exportRepo() *memCaseRepo {
	broken := testutil.NewCase("C-BAD", 4)
	broken.FirstQueryIssuedDate = testutil.Date(2024, 6, 9)
	broken.FirstQueryResponseDate = testutil.Date(2024, 6, 7)
	return newMemCaseRepo(append(seedCases(), broken)...)
}

func TestExportService_ExportCases(t *testing.T) {
	store := new(mockObjectStore)
	isCSV := mock.MatchedBy(func(req *storageminio.UploadRequest) bool {
		return strings.HasPrefix(req.ObjectKey, "exports/cases/2024/06/10/") &&
			strings.HasSuffix(req.ObjectKey, ".csv") &&
			req.ContentType == "text/csv" &&
			req.Metadata["rows"] == "6"
	})
	store.On("Upload", mock.Anything, isCSV).Return(&storageminio.UploadResult{ObjectKey: "exports/cases/2024/06/10/x.csv"}, nil)
	store.On("GetPresignedDownloadURL", mock.Anything, "exports/cases/2024/06/10/x.csv", time.Duration(0)).Return("https://minio.local/x.csv", nil)

	svc := NewExportService(exportRepo(), testutil.Clock(), store, testutil.NewMockLogger())
	res, err := svc.ExportCases(context.Background(), ListInput{SortBy: "case_id"})
	require.NoError(t, err)

	assert.Equal(t, "exports/cases/2024/06/10/x.csv", res.ObjectKey)
	assert.Equal(t, "https://minio.local/x.csv", res.URL)
	assert.Equal(t, 6, res.Rows)
	assert.Equal(t, int64(len(store.body)), res.Size)
	assert.Equal(t, testutil.FixedNow, res.GeneratedAt)

	records, err := csv.NewReader(bytes.NewReader(store.body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 7)
	assert.Equal(t, CaseCSVHeader, records[0])

	byID := map[string][]string{}
	for _, r := range records[1:] {
		require.Len(t, r, len(CaseCSVHeader))
		byID[r[0]] = r
	}
	col := func(name string) int {
		for i, h := range CaseCSVHeader {
			if h == name {
				return i
			}
		}
		t.Fatalf("no column %s", name)
		return -1
	}
	assert.Equal(t, "12", byID["C-002"][col("days_in_process")])
	assert.Equal(t, "AtRisk", byID["C-002"][col("sla_status")])
	assert.Equal(t, "2024-05-29", byID["C-002"][col("submitted_date")])
	assert.Equal(t, "", byID["C-002"][col("error")])
	assert.Equal(t, "", byID["C-BAD"][col("sla_status")])
	assert.NotEmpty(t, byID["C-BAD"][col("error")])
	store.AssertExpectations(t)
}

func TestExportService_Failures(t *testing.T) {
	t.Run("upload", func(t *testing.T) {
		store := new(mockObjectStore)
		store.On("Upload", mock.Anything, mock.Anything).Return(nil, storageminio.ErrUploadFailed)
		svc := NewExportService(exportRepo(), testutil.Clock(), store, testutil.NewMockLogger())

		_, err := svc.ExportCases(context.Background(), ListInput{})
		assert.True(t, errors.IsCode(err, errors.CodeExportFailed))
		store.AssertNotCalled(t, "GetPresignedDownloadURL", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("presign", func(t *testing.T) {
		store := new(mockObjectStore)
		store.On("Upload", mock.Anything, mock.Anything).Return(&storageminio.UploadResult{ObjectKey: "k"}, nil)
		store.On("GetPresignedDownloadURL", mock.Anything, "k", mock.Anything).Return("", assert.AnError)
		svc := NewExportService(exportRepo(), testutil.Clock(), store, testutil.NewMockLogger())

		_, err := svc.ExportCases(context.Background(), ListInput{})
		assert.True(t, errors.IsCode(err, errors.CodeExportFailed))
	})

	t.Run("bad filter", func(t *testing.T) {
		store := new(mockObjectStore)
		svc := NewExportService(exportRepo(), testutil.Clock(), store, testutil.NewMockLogger())

		_, err := svc.ExportCases(context.Background(), ListInput{SLAStatuses: []string{"Late"}})
		assert.True(t, errors.IsCode(err, errors.CodeUnknownEnumValue))
		store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})
}

func TestWriteCasesCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCasesCSV(&buf, []casefile.View{}))
	assert.Equal(t, strings.Join(CaseCSVHeader, ",")+"\n", buf.String())
}

//Personal.AI order the ending
