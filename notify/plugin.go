package notify

import (
	"context"
	"time"

	"github.com/xraph/progression/id"
	"github.com/xraph/progression/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Plugin)(nil)
	_ plugin.OnInit                 = (*Plugin)(nil)
	_ plugin.OnMilestoneAchieved    = (*Plugin)(nil)
	_ plugin.OnRewardIssued         = (*Plugin)(nil)
	_ plugin.OnWorkflowStageChanged = (*Plugin)(nil)
)

// Plugin turns ledger hooks into events on a Sink.
type Plugin struct {
	name      string
	sink      Sink
	learnerID string
	now       func() time.Time
}

// PluginOption configures a Plugin.
type PluginOption func(*Plugin)

// WithName overrides the plugin name, needed when registering several sinks.
func WithName(name string) PluginOption {
	return func(p *Plugin) { p.name = name }
}

// WithLearner sets the learner id stamped on events. It is normally taken
// from the ledger on init.
func WithLearner(learnerID string) PluginOption {
	return func(p *Plugin) { p.learnerID = learnerID }
}

// NewPlugin creates a plugin forwarding to sink.
func NewPlugin(sink Sink, opts ...PluginOption) *Plugin {
	p := &Plugin{
		name: "notify",
		sink: sink,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return p.name }

// OnInit picks up the learner id from the ledger.
func (p *Plugin) OnInit(_ context.Context, l interface{}) error {
	if v, ok := l.(interface{ LearnerID() string }); ok && p.learnerID == "" {
		p.learnerID = v.LearnerID()
	}
	return nil
}

// OnMilestoneAchieved implements plugin.OnMilestoneAchieved.
func (p *Plugin) OnMilestoneAchieved(ctx context.Context, m interface{}) error {
	return p.emit(ctx, TypeMilestoneAchieved, m)
}

// OnRewardIssued implements plugin.OnRewardIssued.
func (p *Plugin) OnRewardIssued(ctx context.Context, b interface{}) error {
	return p.emit(ctx, TypeRewardIssued, b)
}

// OnWorkflowStageChanged implements plugin.OnWorkflowStageChanged.
func (p *Plugin) OnWorkflowStageChanged(ctx context.Context, t interface{}) error {
	return p.emit(ctx, TypeWorkflowStageChanged, t)
}

func (p *Plugin) emit(ctx context.Context, typ Type, payload interface{}) error {
	return p.sink.Emit(ctx, Event{
		ID:        id.NewEventID(),
		Type:      typ,
		LearnerID: p.learnerID,
		Payload:   payload,
		At:        p.now(),
	})
}
