package agents

import (
	"context"
	"errors"
	"sync"
)

var ErrAgentNotFound = errors.New("agents: agent not found")

// Catalog abstracts agent-tier lookup.
// Implementation can be in-memory, Postgres-backed, etc.
type Catalog interface {
	List(ctx context.Context) ([]Agent, error)
	Get(ctx context.Context, id string) (Agent, error)
}

// MemoryCatalog is a simple in-memory catalog. The tier line-up changes with
// releases, not at runtime, so an in-memory catalog is the production default.
type MemoryCatalog struct {
	mu     sync.RWMutex
	agents []Agent
}

// NewDefaultCatalog returns the current production tier line-up.
func NewDefaultCatalog() *MemoryCatalog {
	return &MemoryCatalog{agents: []Agent{
		{
			ID:                 "rookie",
			Name:               "AGENT DEMO",
			Codename:           "ROOKIE",
			PriceMinor:         0,
			Currency:           "USD",
			MaxDurationSeconds: 30,
			RoastLevel:         "Basic",
			Description:        "Perfect for test missions",
			Recording:          false,
		},
		{
			ID:                 "hitman",
			Name:               "AGENT SMITH",
			Codename:           "HITMAN",
			PriceMinor:         99,
			Currency:           "USD",
			MaxDurationSeconds: 90,
			RoastLevel:         "Spicy",
			Description:        "Professional roasting specialist",
			Recording:          true,
		},
		{
			ID:                 "assassin",
			Name:               "AGENT ELI",
			Codename:           "ASSASSIN",
			PriceMinor:         299,
			Currency:           "USD",
			MaxDurationSeconds: 180,
			RoastLevel:         "Extra Hot",
			Description:        "Elite-tier destruction",
			Recording:          true,
			Popular:            true,
		},
		{
			ID:                 "terminator",
			Name:               "AGENT 007",
			Codename:           "TERMINATOR",
			PriceMinor:         499,
			Currency:           "USD",
			MaxDurationSeconds: 300,
			RoastLevel:         "Inferno",
			Description:        "Maximum carnage",
			Recording:          true,
		},
	}}
}

func (c *MemoryCatalog) List(ctx context.Context) ([]Agent, error) {
	_ = ctx
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Agent, len(c.agents))
	copy(out, c.agents)
	return out, nil
}

func (c *MemoryCatalog) Get(ctx context.Context, id string) (Agent, error) {
	_ = ctx
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.agents {
		if a.ID == id {
			return a, nil
		}
	}
	return Agent{}, ErrAgentNotFound
}
