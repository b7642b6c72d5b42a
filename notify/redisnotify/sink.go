// Package redisnotify publishes ledger notifications over Redis pub/sub.
package redisnotify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/progression/notify"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "progression:events"

// Publisher is the subset of *redis.Client the sink needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

var _ notify.Sink = (*Sink)(nil)

// Sink publishes JSON-encoded events.
type Sink struct {
	client     Publisher
	channel    string
	perLearner bool
}

// Option configures a Sink.
type Option func(*Sink)

// WithChannel sets the pub/sub channel.
func WithChannel(channel string) Option {
	return func(s *Sink) { s.channel = channel }
}

// WithLearnerChannels suffixes the channel with ":<learner id>" so that
// subscribers can listen to one learner.
func WithLearnerChannels() Option {
	return func(s *Sink) { s.perLearner = true }
}

// New creates a sink over a go-redis client.
func New(client Publisher, opts ...Option) *Sink {
	s := &Sink{client: client, channel: DefaultChannel}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromURL connects to the Redis server at url.
func NewFromURL(url string, opts ...Option) (*Sink, *redis.Client, error) {
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("redisnotify: parse url: %w", err)
	}
	client := redis.NewClient(o)
	return New(client, opts...), client, nil
}

// Channel returns the channel an event is published on.
func (s *Sink) Channel(e notify.Event) string {
	if s.perLearner && e.LearnerID != "" {
		return s.channel + ":" + e.LearnerID
	}
	return s.channel
}

// Emit implements notify.Sink.
func (s *Sink) Emit(ctx context.Context, e notify.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redisnotify: encode %s: %w", e.Type, err)
	}
	if err := s.client.Publish(ctx, s.Channel(e), data).Err(); err != nil {
		return fmt.Errorf("redisnotify: publish %s: %w", e.Type, err)
	}
	return nil
}
