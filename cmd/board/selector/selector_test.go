package selector

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/xlthimolx/djpult/cmd/board/catalog"
)

type mapCounts map[string]int

func (m mapCounts) Get(id string) int { return m[id] }

func item(id string) catalog.Item {
	return catalog.Item{Identity: id, DisplayName: id, Category: catalog.PrimaryAttack}
}

func fixed(v float64) *Selector {
	return &Selector{float64: func() float64 { return v }}
}

func TestWeight_StrictlyDecreasingToFloor(t *testing.T) {
	prev := Weight(0)
	if prev != 1 {
		t.Errorf("Weight(0) = %v, want 1", prev)
	}
	for n := 1; n < 4; n++ {
		w := Weight(n)
		if !(w < prev) {
			t.Errorf("Weight(%d) = %v not below Weight(%d) = %v", n, w, n-1, prev)
		}
		prev = w
	}
	for n := 0; n < 1000; n++ {
		if Weight(n) < MinWeight {
			t.Fatalf("Weight(%d) = %v below floor", n, Weight(n))
		}
	}
	if Weight(100) != MinWeight {
		t.Errorf("Weight(100) = %v, want floor %v", Weight(100), MinWeight)
	}
	if Weight(-3) != Weight(0) {
		t.Error("negative counts should weigh like zero")
	}
}

func TestPick_SingleItemAlwaysReturned(t *testing.T) {
	pool := []Candidate{{Item: item("only"), Plays: 40}}
	for _, draw := range []float64{0, 0.25, 0.5, 0.999999, 1} {
		got, err := fixed(draw).Pick(pool)
		if err != nil || got.Identity != "only" {
			t.Errorf("draw %v: got %q, %v", draw, got.Identity, err)
		}
	}
}

func TestPick_EmptyPool(t *testing.T) {
	got, err := New(nil).Pick(nil)
	if !errors.Is(err, ErrEmptyPool) {
		t.Errorf("err = %v, want ErrEmptyPool", err)
	}
	if got.Identity != "" {
		t.Errorf("got item %q from empty pool", got.Identity)
	}
}

func TestPick_Roulette(t *testing.T) {
	// weights: fresh=1, once=0.125, many=0.01 -> total 1.135
	pool := []Candidate{
		{Item: item("fresh"), Plays: 0},
		{Item: item("once"), Plays: 1},
		{Item: item("many"), Plays: 50},
	}
	tests := []struct {
		draw float64
		want string
	}{
		{0, "fresh"},
		{0.5, "fresh"},
		{0.88, "fresh"},
		{0.89, "once"},
		{0.99, "once"},
		{0.9999, "many"},
	}
	for _, tt := range tests {
		got, _ := fixed(tt.draw).Pick(pool)
		if got.Identity != tt.want {
			t.Errorf("draw %v: got %s, want %s", tt.draw, got.Identity, tt.want)
		}
	}
}

func TestPick_FallsBackToLastOnOverflow(t *testing.T) {
	pool := []Candidate{{Item: item("a")}, {Item: item("b")}}
	got, err := fixed(1.5).Pick(pool)
	if err != nil || got.Identity != "b" {
		t.Errorf("got %q, %v, want fallback to last", got.Identity, err)
	}
}

func TestPick_FavoursLeastPlayed(t *testing.T) {
	s := New(rand.New(rand.NewPCG(1, 2)))
	counts := mapCounts{"worn": 5}
	items := []catalog.Item{item("fresh"), item("worn")}

	fresh := 0
	for i := 0; i < 2000; i++ {
		got, err := s.PickFrom(items, counts)
		if err != nil {
			t.Fatal(err)
		}
		if got.Identity == "fresh" {
			fresh++
		}
	}
	if fresh < 1800 {
		t.Errorf("fresh picked %d/2000 times, expected a strong bias", fresh)
	}
}

func TestCandidates_ReadCountsEachCall(t *testing.T) {
	counts := mapCounts{}
	items := []catalog.Item{item("a")}
	if c := Candidates(items, counts); c[0].Plays != 0 {
		t.Fatalf("plays = %d", c[0].Plays)
	}
	counts["a"] = 7
	if c := Candidates(items, counts); c[0].Plays != 7 {
		t.Errorf("plays = %d, want fresh value 7", c[0].Plays)
	}
}

func TestPools(t *testing.T) {
	b := catalog.NewBuilder(catalog.NewRegistry(), catalog.BuilderOptions{})
	c := b.Classify([]catalog.RawFile{
		{Name: "a_HIT.mp3"}, {Name: "b_BLOCK.mp3"}, {Name: "c_OPP.mp3"},
		{Name: "d_FUN.mp3"}, {Name: "e.mp3"}, {Name: "f.mp3"},
	})
	if got := len(AttackPool(c)); got != 4 {
		t.Errorf("attack pool size = %d, want 4", got)
	}
	opp := OpponentPool(c)
	if len(opp) != 1 || opp[0].Identity != "c_OPP.mp3" {
		t.Errorf("opponent pool = %v", opp)
	}
}
