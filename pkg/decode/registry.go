package decode

import "sort"

// registryEntry pairs a registered Decoder with its dispatch priority and
// registration order, the latter used only to break priority ties
// deterministically (first-registered wins).
type registryEntry struct {
	priority int
	order    int
	decoder  Decoder
}

// Registry maps an Identifier to its ordered candidate decoders. Multiple
// decoders may register for the same Identifier (e.g. two heuristic TCP
// payload decoders both claiming port 80). The Driver dispatches only to
// the highest-priority one (Get); an ErrNotApplicable from it ends the
// chain, and lower-priority candidates are not tried.
type Registry struct {
	entries map[Identifier][]registryEntry
	next    int
}

// NewRegistry returns an empty Registry ready for Register calls.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Identifier][]registryEntry)}
}

// Register adds d as a candidate decoder for id at the given priority.
// Lower priority values are tried first; among equal priorities, earlier
// Register calls win.
func (r *Registry) Register(id Identifier, priority int, d Decoder) {
	entry := registryEntry{priority: priority, order: r.next, decoder: d}
	r.next++
	list := append(r.entries[id], entry)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority < list[j].priority
		}
		return list[i].order < list[j].order
	})
	r.entries[id] = list
}

// Lookup returns the ordered candidate decoders for id, or nil if none are
// registered. Most callers want Get; Lookup exists for introspection and
// tests that need to see the full priority ordering.
func (r *Registry) Lookup(id Identifier) []Decoder {
	list, ok := r.entries[id]
	if !ok {
		return nil
	}
	decoders := make([]Decoder, len(list))
	for i, e := range list {
		decoders[i] = e.decoder
	}
	return decoders
}

// Get returns the head of id's priority-ordered decoder list — the single
// decoder the Driver dispatches to for this identifier — or false if
// nothing is registered for it.
func (r *Registry) Get(id Identifier) (Decoder, bool) {
	list, ok := r.entries[id]
	if !ok || len(list) == 0 {
		return nil, false
	}
	return list[0].decoder, true
}
