package driver

import "sync"

// SharedState is a process-wide slot store used to publish initialized
// resource instances so that independently-constructed containers (for
// example one per worker replica sharing a process) can reuse them without
// re-initializing.
//
// Slots are write-once-then-stable per name: after the first Publish the
// value never changes, so readers only need an atomic reference load. Reads
// vastly outnumber writes.
type SharedState struct {
	slots sync.Map // slot key -> instance
}

// NewSharedState creates an empty shared state.
func NewSharedState() *SharedState {
	return &SharedState{}
}

// SlotKey maps a resource name to its well-known slot key. The mapping is
// static and exhaustively testable: every resource publishes under exactly
// one key, and lookups never probe synthesized name variants.
func SlotKey(name string) string {
	return name + "_driver"
}

// Lookup returns the instance published under the given slot key, if any.
func (s *SharedState) Lookup(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return s.slots.Load(key)
}

// Publish stores an instance under the given slot key. The first publish
// wins; a concurrent duplicate publish of the same resource is harmless
// because both callers hold the same reference by construction.
func (s *SharedState) Publish(key string, instance any) {
	if s == nil || instance == nil {
		return
	}
	s.slots.LoadOrStore(key, instance)
}

// Drop removes a slot. Used by tests and by explicit shutdown paths that
// want subsequent lookups to miss.
func (s *SharedState) Drop(key string) {
	if s == nil {
		return
	}
	s.slots.Delete(key)
}
