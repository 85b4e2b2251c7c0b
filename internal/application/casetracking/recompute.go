package casetracking

import (
	"context"
	"time"

	"github.com/turtacn/casetrack/internal/domain/casefile"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/errors"
)

// Recompute triggers.
const (
	TriggerSchedule = "schedule"
	TriggerEvent    = "event"
	TriggerManual   = "manual"
)

// RecomputeReport summarizes one batch recompute.
type RecomputeReport struct {
	Trigger     string        `json:"trigger"`
	ComputedOn  time.Time     `json:"computed_on"`
	Processed   int           `json:"processed"`
	Failed      int           `json:"failed"`
	Escalated   int           `json:"escalated"`
	Indexed     int           `json:"indexed"`
	IndexFailed int           `json:"index_failed"`
	Duration    time.Duration `json:"duration"`
	Errors      []CaseError   `json:"errors,omitempty"`
}

// Recompute derives every case, publishes tier escalations against the last
// persisted snapshots and then stores the new snapshots. Snapshots are only
// saved after the escalations were published, so a failed publish is retried
// by the next run. Indexing failures are reported but do not fail the run.
func (s *caseServiceImpl) Recompute(ctx context.Context, trigger string) (report *RecomputeReport, err error) {
	start := time.Now()
	if trigger == "" {
		trigger = TriggerManual
	}
	defer func() {
		s.ports.metrics.ObserveRecompute(trigger, time.Since(start), err)
	}()

	cases, err := s.repo.List(ctx, casefile.Filter{})
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	views := make([]casefile.View, len(cases))
	report = &RecomputeReport{Trigger: trigger, ComputedOn: now, Processed: len(cases)}
	for i, c := range cases {
		views[i] = casefile.NewView(c, now)
		if views[i].Err != nil {
			report.Failed++
			report.Errors = append(report.Errors, caseError(c.ID, views[i].Err))
			s.ports.metrics.ObserveCaseFailure(string(errors.GetCode(views[i].Err)))
			s.logger.Warn("Case derivation failed", logging.CaseID(c.ID), logging.Err(views[i].Err))
		}
	}

	prev, err := s.repo.LoadSnapshots(ctx)
	if err != nil {
		return report, err
	}
	escalations := casefile.DetectEscalations(prev, views)
	report.Escalated = len(escalations)
	if len(escalations) > 0 && s.ports.publisher != nil {
		if err := s.ports.publisher.PublishEscalations(ctx, escalations); err != nil {
			s.logger.Error("Failed to publish escalations", logging.Int("count", len(escalations)), logging.Err(err))
			return report, err
		}
	}
	s.ports.metrics.ObserveEscalations(escalations)

	if err := s.repo.SaveSnapshots(ctx, casefile.Snapshots(views)); err != nil {
		return report, err
	}

	if s.ports.indexer != nil {
		res, err := s.ports.indexer.IndexViews(ctx, views)
		switch {
		case err != nil:
			report.IndexFailed = len(views)
			s.logger.Warn("Search indexing failed", logging.Err(err))
		case res != nil:
			report.Indexed = res.Succeeded
			report.IndexFailed = res.Failed
		}
	}

	s.ports.metrics.ObserveSummary(casefile.Summarize(views))
	invalidateDashboard(ctx, s.ports, s.logger)

	report.Duration = time.Since(start)
	s.logger.Info("Recompute finished",
		logging.String("trigger", trigger),
		logging.Int("processed", report.Processed),
		logging.Int("failed", report.Failed),
		logging.Int("escalated", report.Escalated),
		logging.Duration("took", report.Duration))
	return report, nil
}

//Personal.AI order the ending
