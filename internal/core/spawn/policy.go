// Package spawn decides what a player-initiated drop produces and drives the
// press-and-hold launcher.
package spawn

import (
	"math/rand/v2"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/suika/internal/core/kinds"
)

// IntNSource is the part of *rand.Rand the policy needs.
type IntNSource interface {
	IntN(n int) int
}

// Policy picks kinds uniformly from the table's spawnable set.
type Policy struct {
	mu        sync.Mutex
	src       IntNSource
	spawnable []kinds.Kind
}

func NewPolicy(table *kinds.Table, src IntNSource) *Policy {
	if src == nil {
		src = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Policy{src: src, spawnable: table.Spawnable()}
}

// NewSeededPolicy derives a deterministic source from seed, so two sessions
// with the same seed drop the same sequence of kinds.
func NewSeededPolicy(table *kinds.Table, seed string) *Policy {
	h := xxhash.Sum64String(seed)
	return NewPolicy(table, rand.New(rand.NewPCG(h, h^0x9E3779B97F4A7C15)))
}

// Pick returns one spawnable kind, each with equal probability.
func (p *Policy) Pick() kinds.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.spawnable[p.src.IntN(len(p.spawnable))]
}

func (p *Policy) Candidates() []kinds.Kind {
	out := make([]kinds.Kind, len(p.spawnable))
	copy(out, p.spawnable)
	return out
}
