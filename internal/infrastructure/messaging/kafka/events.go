package kafka

import (
	"context"

	"github.com/turtacn/casetrack/internal/config"
	"github.com/turtacn/casetrack/internal/domain/casefile"
	"github.com/turtacn/casetrack/internal/domain/workflow"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/errors"
	"github.com/turtacn/casetrack/pkg/types/common"
)

// BatchPublisher is the producer surface EventPublisher needs.
type BatchPublisher interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
	PublishBatch(ctx context.Context, msgs []*common.ProducerMessage) (*common.BatchPublishResult, error)
}

// EventPublisher turns domain changes into envelopes on the configured topics.
type EventPublisher struct {
	producer        BatchPublisher
	escalationTopic string
	workflowTopic   string
	recomputeTopic  string
	source          string
	logger          logging.Logger
}

// NewEventPublisher binds producer to the topics in cfg.
func NewEventPublisher(producer BatchPublisher, cfg config.KafkaConfig, logger logging.Logger) *EventPublisher {
	return &EventPublisher{
		producer:        producer,
		escalationTopic: cfg.EscalationTopic,
		workflowTopic:   cfg.WorkflowTopic,
		recomputeTopic:  cfg.RecomputeTopic,
		source:          DefaultSource,
		logger:          logger,
	}
}

// PublishEscalations sends one event per escalation keyed by case id. Partial
// failures are reported as a single messaging error.
func (p *EventPublisher) PublishEscalations(ctx context.Context, escalations []casefile.Escalation) error {
	if len(escalations) == 0 {
		return nil
	}
	msgs := make([]*common.ProducerMessage, 0, len(escalations))
	for _, e := range escalations {
		env, err := NewEventEnvelope(EventSLAEscalated, p.source, SLAEscalatedPayload{
			CaseID:        e.CaseID,
			Priority:      string(e.Priority),
			Previous:      string(e.Previous),
			Current:       string(e.Current),
			DaysInProcess: e.DaysInProcess,
			AllowedDays:   e.AllowedDays,
			ComputedOn:    e.ComputedOn,
		})
		if err != nil {
			return err
		}
		msg, err := env.ToMessage(p.escalationTopic, e.CaseID)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	res, err := p.producer.PublishBatch(ctx, msgs)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		p.logger.Warn("Some escalation events failed",
			logging.Int("failed", res.Failed),
			logging.Int("succeeded", res.Succeeded))
		return errors.New(errors.ErrCodeMessagingError, "escalation publish partially failed").
			WithDetail(res.Errors[0].Error)
	}
	return nil
}

// PublishWorkflowChange sends a project status change keyed by project id.
func (p *EventPublisher) PublishWorkflowChange(ctx context.Context, change workflow.StatusChange) error {
	env, err := NewEventEnvelope(EventWorkflowStatusChanged, p.source, WorkflowStatusChangedPayload{
		ProjectID: change.ProjectID,
		Previous:  string(change.Previous),
		Current:   string(change.Current),
		Done:      change.Done,
		Total:     change.Total,
		ChangedAt: change.ChangedAt,
	})
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(p.workflowTopic, change.ProjectID)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

// RequestRecompute asks the workers for an out-of-cycle recompute.
func (p *EventPublisher) RequestRecompute(ctx context.Context, req RecomputeRequestedPayload) error {
	env, err := NewEventEnvelope(EventRecomputeRequested, p.source, req)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(p.recomputeTopic, "")
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

// RecomputeHandler adapts fn into a consumer handler for the recompute topic.
// Envelopes of any other type are ignored.
func RecomputeHandler(fn func(ctx context.Context, req RecomputeRequestedPayload) error) common.MessageHandler {
	return func(ctx context.Context, msg *common.Message) error {
		env, err := MessageToEventEnvelope(msg)
		if err != nil {
			return err
		}
		if env.EventType != EventRecomputeRequested {
			return nil
		}
		var req RecomputeRequestedPayload
		if err := env.DecodePayload(&req); err != nil {
			return err
		}
		return fn(ctx, req)
	}
}

//Personal.AI order the ending
