// Package notify delivers milestone, reward and workflow events to the
// presentation layer. Delivery is fire-and-forget: a failing sink never
// affects ledger state.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/progression/id"
)

// ErrSinkFull is returned by ChannelSink when its buffer is full.
var ErrSinkFull = errors.New("notify: sink buffer full")

// Type identifies an event.
type Type string

const (
	TypeMilestoneAchieved    Type = "milestoneAchieved"
	TypeRewardIssued         Type = "rewardIssued"
	TypeWorkflowStageChanged Type = "workflowStageChanged"
)

// Event is a single notification.
type Event struct {
	ID        id.EventID  `json:"id"`
	Type      Type        `json:"type"`
	LearnerID string      `json:"learner_id,omitempty"`
	Payload   interface{} `json:"payload"`
	At        time.Time   `json:"at"`
}

// Sink receives events.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event) error

// Emit implements Sink.
func (f SinkFunc) Emit(ctx context.Context, e Event) error { return f(ctx, e) }

// ChannelSink hands events to an in-process consumer without blocking.
type ChannelSink struct {
	ch chan Event
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, size)}
}

// Emit implements Sink.
func (s *ChannelSink) Emit(_ context.Context, e Event) error {
	select {
	case s.ch <- e:
		return nil
	default:
		return ErrSinkFull
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event { return s.ch }

// Fanout emits each event to every sink and joins their errors.
func Fanout(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, e Event) error {
		var errs []error
		for _, s := range sinks {
			if err := s.Emit(ctx, e); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
