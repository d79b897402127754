// Copyright 2025 checkport Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package output

import "sync"

// OutputSubscriber renders or records output events.
//
// Handle must not block for long and cannot report errors; a subscriber that
// fails to write drops the event.
type OutputSubscriber interface {
	// Name identifies the subscriber in logs and tests.
	Name() string

	// ShouldHandle reports whether Handle wants this event.
	ShouldHandle(event OutputEvent) bool

	// Handle processes one event.
	Handle(event OutputEvent)
}

// OutputEventStream fans events out to subscribers in subscription order.
// Emit is safe for concurrent use; events are delivered one at a time.
type OutputEventStream struct {
	mu          sync.Mutex
	subscribers []OutputSubscriber
}

// NewOutputEventStream creates an empty stream.
func NewOutputEventStream() *OutputEventStream {
	return &OutputEventStream{}
}

// Subscribe registers a subscriber. Subscribers added later see events after
// the earlier ones.
func (s *OutputEventStream) Subscribe(sub OutputSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, sub)
}

// Emit delivers the event to every interested subscriber.
func (s *OutputEventStream) Emit(event OutputEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subscribers {
		if sub.ShouldHandle(event) {
			sub.Handle(event)
		}
	}
}

// SubscriberCount returns the number of registered subscribers.
func (s *OutputEventStream) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}
