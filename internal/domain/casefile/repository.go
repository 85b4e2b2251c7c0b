package casefile

import (
	"context"
	"time"

	"github.com/turtacn/casetrack/internal/domain/sla"
)

// Filter restricts a case listing at the store. Empty slices match everything.
type Filter struct {
	Statuses   []sla.Status
	Priorities []sla.Priority
	CaseType   string
	Department string
}

// Snapshot is the last persisted derivation of a case. The worker compares it
// with a fresh derivation to detect tier escalations.
type Snapshot struct {
	CaseID        string
	SLAStatus     sla.SLAStatus
	DaysInProcess int
	ComputedOn    time.Time
}

// Repository is the case store.
type Repository interface {
	Create(ctx context.Context, c *Case) error
	Update(ctx context.Context, c *Case) error
	GetByID(ctx context.Context, id string) (*Case, error)
	List(ctx context.Context, filter Filter) ([]*Case, error)
	LoadSnapshots(ctx context.Context) (map[string]Snapshot, error)
	SaveSnapshots(ctx context.Context, snapshots []Snapshot) error
}

//Personal.AI order the ending
