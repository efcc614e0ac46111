package session

import "sync"

// Hub hands out one orchestrator per visitor. Orchestrators are created
// lazily and live for the life of the process; a finished session inside one
// is cheap to keep around and gets replaced by the next submit.
type Hub struct {
	mu      sync.Mutex
	build   func(visitorID string) *Orchestrator
	byVisit map[string]*Orchestrator
}

func NewHub(build func(visitorID string) *Orchestrator) *Hub {
	return &Hub{
		build:   build,
		byVisit: make(map[string]*Orchestrator),
	}
}

// Get returns the visitor's orchestrator, creating it on first use.
func (h *Hub) Get(visitorID string) *Orchestrator {
	h.mu.Lock()
	defer h.mu.Unlock()
	o, ok := h.byVisit[visitorID]
	if !ok {
		o = h.build(visitorID)
		h.byVisit[visitorID] = o
	}
	return o
}

// Len reports how many visitors currently have an orchestrator.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byVisit)
}
