// Package selector picks tracks at random, favouring the least played ones.
package selector

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/samber/lo"
	"github.com/xlthimolx/djpult/cmd/board/catalog"
)

// ErrEmptyPool is returned when Pick is called without candidates.
// Callers should check the pool first and tell the user nothing is available.
var ErrEmptyPool = errors.New("nothing available")

// MinWeight keeps every track selectable no matter how often it played.
const MinWeight = 0.01

// Weight is the inverse-cube weight of a play count.
func Weight(count int) float64 {
	if count < 0 {
		count = 0
	}
	return math.Max(MinWeight, 1/math.Pow(float64(1+count), 3))
}

// Candidate is an item together with its current play count.
type Candidate struct {
	Item  catalog.Item
	Plays int
}

// Counts is the read side of the play-count store.
type Counts interface {
	Get(identity string) int
}

// Candidates pairs items with their counts as of now.
func Candidates(items []catalog.Item, counts Counts) []Candidate {
	return lo.Map(items, func(item catalog.Item, _ int) Candidate {
		return Candidate{Item: item, Plays: counts.Get(item.Identity)}
	})
}

// AttackPool returns the primary attack, block and misc items.
func AttackPool(c *catalog.Catalog) []catalog.Item {
	cats := append([]catalog.Category{catalog.PrimaryAttack, catalog.Block}, c.MiscCategories()...)
	return lo.FlatMap(cats, func(cat catalog.Category, _ int) []catalog.Item {
		return c.Items(cat)
	})
}

// OpponentPool returns the opponent items.
func OpponentPool(c *catalog.Catalog) []catalog.Item {
	return c.Items(catalog.Opponent)
}

// Selector performs roulette-wheel selection over candidate weights.
type Selector struct {
	float64 func() float64
}

// New creates a selector drawing from r. A nil r uses the global source.
func New(r *rand.Rand) *Selector {
	if r == nil {
		return &Selector{float64: rand.Float64}
	}
	return &Selector{float64: r.Float64}
}

// Pick draws one item from pool with probability proportional to Weight.
func (s *Selector) Pick(pool []Candidate) (catalog.Item, error) {
	if len(pool) == 0 {
		return catalog.Item{}, ErrEmptyPool
	}

	weights := lo.Map(pool, func(c Candidate, _ int) float64 { return Weight(c.Plays) })
	total := lo.Sum(weights)
	draw := s.float64() * total

	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if cumulative >= draw {
			return pool[i].Item, nil
		}
	}
	// rounding left the draw unmatched
	return pool[len(pool)-1].Item, nil
}

// PickFrom builds candidates from items and counts and picks one.
func (s *Selector) PickFrom(items []catalog.Item, counts Counts) (catalog.Item, error) {
	return s.Pick(Candidates(items, counts))
}
