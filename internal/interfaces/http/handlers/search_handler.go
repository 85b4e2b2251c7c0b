package handlers

import (
	"context"
	"net/http"

	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/internal/infrastructure/search/opensearch"
	"github.com/turtacn/casetrack/pkg/types/common"
)

// CaseSearcher runs free-text queries against the case index.
type CaseSearcher interface {
	SearchCases(ctx context.Context, q opensearch.CaseQuery) (*opensearch.CaseHits, error)
}

type SearchHandler struct {
	searcher CaseSearcher
	logger   logging.Logger
}

func NewSearchHandler(searcher CaseSearcher, logger logging.Logger) *SearchHandler {
	return &SearchHandler{searcher: searcher, logger: logger}
}

// Cases handles GET /api/v1/search/cases?q=...
func (h *SearchHandler) Cases(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	hits, err := h.searcher.SearchCases(r.Context(), opensearch.CaseQuery{
		Text:        r.URL.Query().Get("q"),
		SLAStatuses: queryList(r, "sla_status"),
		Priorities:  queryList(r, "priority"),
		Department:  r.URL.Query().Get("department"),
		ActiveOnly:  queryBool(r, "in_process_only"),
		Pagination:  common.Pagination{Page: page, PageSize: pageSize},
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

//Personal.AI order the ending
