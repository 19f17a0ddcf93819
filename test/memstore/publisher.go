package memstore

import (
	"context"
	"sync"

	"detailbook/internal/events"
)

// Recorder is an events.Publisher that keeps everything it was given.
type Recorder struct {
	mu     sync.Mutex
	events []*events.Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, evts ...*events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, evts...)
	return nil
}

func (r *Recorder) Events() []*events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*events.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
