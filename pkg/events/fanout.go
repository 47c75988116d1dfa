package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/logger"
)

// Fanout dispatches events to every configured sink.
type Fanout struct {
	sinks []Sink
	log   logger.Logger
}

// NewFanout builds a dispatcher over sinks, skipping nil entries.
func NewFanout(sinks []Sink, log logger.Logger) *Fanout {
	cp := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s == nil {
			continue
		}
		cp = append(cp, s)
	}
	return &Fanout{sinks: cp, log: logger.Ensure(log)}
}

// Publish forwards the event to every sink and returns how many accepted it.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.sinks) == 0 {
		return 0, nil
	}

	var errs []error
	successful := 0
	for _, s := range f.sinks {
		if err := s.Publish(ctx, evt); err != nil {
			f.log.WarnObj("event sink failed", "event_sink_error", map[string]any{
				"sink_id":   s.ID(),
				"sink_type": s.Type(),
				"error":     err.Error(),
			})
			errs = append(errs, fmt.Errorf("%s sink[%s]: %w", s.Type(), s.ID(), err))
			continue
		}
		successful++
	}
	return successful, errors.Join(errs...)
}

// Size returns the number of active sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.sinks)
}

// Close releases sinks that hold client connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, s := range f.sinks {
		if c, ok := s.(closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close sink %s: %w", s.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
