// Package catalog sorts a folder of audio files into soundboard categories
// and special slots based on filename tags.
package catalog

import "slices"

// Category is one of the fixed soundboard columns.
type Category int

const (
	NoCategory Category = iota - 1
	PrimaryAttack
	Block
	Opponent
	MiscA
	MiscB
	MiscC
	Comedic
)

// Categories lists every category in declaration order.
var Categories = []Category{PrimaryAttack, Block, Opponent, MiscA, MiscB, MiscC, Comedic}

// miscCategories are the round-robin buckets for untagged files.
var miscCategories = []Category{MiscA, MiscB, MiscC}

// CategoryInfo holds the presentation attributes of a category.
type CategoryInfo struct {
	Key     string
	Title   string
	Color   string  // fixed color tag used when no hue is set
	Icon    string
	BaseHue float64 // heatmap hue in degrees, valid when HasHue
	HasHue  bool
}

var categoryInfo = map[Category]CategoryInfo{
	PrimaryAttack: {Key: "ass_angriff", Title: "Ass/Angriff", Color: "#2563eb", Icon: "🔥", BaseHue: 221, HasHue: true},
	Block:         {Key: "block", Title: "Block", Color: "#db2777", Icon: "🧱", BaseHue: 330, HasHue: true},
	Opponent:      {Key: "gegner", Title: "Gegner", Color: "#dc2626", Icon: "⚔️", BaseHue: 0, HasHue: true},
	MiscA:         {Key: "sonstiges", Title: "_", Color: "#16a34a", Icon: "🎵", BaseHue: 142, HasHue: true},
	MiscB:         {Key: "noch_mehr", Title: "_", Color: "#16a34a", Icon: "🎵", BaseHue: 142, HasHue: true},
	MiscC:         {Key: "extra", Title: "_", Color: "#16a34a", Icon: "🎵", BaseHue: 142, HasHue: true},
	Comedic:       {Key: "spass", Title: "Lustig", Color: "#9333ea", Icon: "🎉"},
}

// Info returns the presentation attributes of c.
func (c Category) Info() CategoryInfo {
	return categoryInfo[c]
}

func (c Category) String() string {
	if info, ok := categoryInfo[c]; ok {
		return info.Key
	}
	return "none"
}

// Special identifies a special-track slot.
type Special int

const (
	SpecialNone Special = iota
	Timeout
	WalkOn
	Pause
)

func (s Special) String() string {
	switch s {
	case Timeout:
		return "Timeout"
	case WalkOn:
		return "Walk-On"
	case Pause:
		return "Pause"
	default:
		return "none"
	}
}

// Item is a single playable track.
//
// Exactly one of Category and Special is set: category items carry
// Special == SpecialNone, special items carry Category == NoCategory.
type Item struct {
	Identity    string // raw filename, stable across reloads
	DisplayName string
	Category    Category
	Special     Special
	Ordinal     int // pause slots only
	Handle      Handle
	Path        string
}

// IsSpecial reports whether the item lives in a special slot.
func (i Item) IsSpecial() bool {
	return i.Special != SpecialNone
}

// Counted reports whether plays of this item go into the play-count map.
// Comedic tracks are never counted.
func (i Item) Counted() bool {
	return i.IsSpecial() || i.Category != Comedic
}

// Catalog is the result of one classification pass.
type Catalog struct {
	Generation  uint64
	MiscBuckets int

	items   map[Category][]Item
	Timeout *Item
	WalkOn  *Item
	Pauses  []Item
}

func newCatalog(generation uint64, miscBuckets int) *Catalog {
	return &Catalog{
		Generation:  generation,
		MiscBuckets: miscBuckets,
		items:       make(map[Category][]Item),
	}
}

// Items returns the items of a category in insertion order.
func (c *Catalog) Items(cat Category) []Item {
	return slices.Clone(c.items[cat])
}

// ActiveCategories returns the categories in use, in declaration order.
func (c *Catalog) ActiveCategories() []Category {
	active := make([]Category, 0, len(Categories))
	for _, cat := range Categories {
		if c.isMisc(cat) && !slices.Contains(c.activeMisc(), cat) {
			continue
		}
		active = append(active, cat)
	}
	return active
}

func (c *Catalog) isMisc(cat Category) bool {
	return slices.Contains(miscCategories, cat)
}

func (c *Catalog) activeMisc() []Category {
	return miscCategories[:c.MiscBuckets]
}

// MiscCategories returns the misc buckets in use.
func (c *Catalog) MiscCategories() []Category {
	return slices.Clone(c.activeMisc())
}

// PauseTrack returns the first pause item with the given ordinal.
func (c *Catalog) PauseTrack(ordinal int) (Item, bool) {
	for _, item := range c.Pauses {
		if item.Ordinal == ordinal {
			return item, true
		}
	}
	return Item{}, false
}

// All returns every item, categories first, then special slots.
func (c *Catalog) All() []Item {
	var all []Item
	for _, cat := range Categories {
		all = append(all, c.items[cat]...)
	}
	if c.Timeout != nil {
		all = append(all, *c.Timeout)
	}
	if c.WalkOn != nil {
		all = append(all, *c.WalkOn)
	}
	return append(all, c.Pauses...)
}

// Find looks up an item by identity.
func (c *Catalog) Find(identity string) (Item, bool) {
	for _, item := range c.All() {
		if item.Identity == identity {
			return item, true
		}
	}
	return Item{}, false
}

// Len returns the number of classified items.
func (c *Catalog) Len() int {
	return len(c.All())
}
