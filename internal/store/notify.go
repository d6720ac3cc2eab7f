package store

// EventKind names the slice of store state a change touched.
type EventKind string

const (
	EventHydrated    EventKind = "hydrated"
	EventNodes       EventKind = "nodes"
	EventEdges       EventKind = "edges"
	EventSelection   EventKind = "selection"
	EventDirty       EventKind = "dirty"
	EventDiagnostics EventKind = "diagnostics"
	EventMetadata    EventKind = "metadata"
)

// Event is broadcast to subscribers after a mutation commits. It carries
// no payload; subscribers read fresh snapshots from the store.
type Event struct {
	Kind EventKind
}

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe registers a listener for store events and returns its
// unsubscribe function. Listeners run synchronously after the mutation's
// lock is released, in registration order, so they may read from the
// store but must not block.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	s.nextSubscriber++
	id := s.nextSubscriber
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// publish fans events out to the current subscriber set. Callers must not
// hold the store lock.
func (s *Store) publish(kinds ...EventKind) {
	if len(kinds) == 0 {
		return
	}
	s.mu.RLock()
	listeners := make([]func(Event), len(s.subscribers))
	for i, sub := range s.subscribers {
		listeners[i] = sub.fn
	}
	s.mu.RUnlock()

	for _, kind := range kinds {
		for _, fn := range listeners {
			fn(Event{Kind: kind})
		}
	}
}
