package catalog

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// RawFile is one entry of an incoming file set.
type RawFile struct {
	Name      string // base filename, used as identity
	RelPath   string // path relative to the loaded folder
	MediaType string // declared media type, may be empty
	Path      string // absolute path used for playback
}

var (
	audioExt      = regexp.MustCompile(`(?i)\.(mp3|flac|wav|ogg)$`)
	specialDir    = regexp.MustCompile(`(?i)(^|[\\/])special_music[\\/]`)
	pausePattern  = regexp.MustCompile(`(?i)_PAUSE(\d*)`)
	recognizedTag = regexp.MustCompile(`(?i)_(BLOCK|HIT|ACE|OPP|FUN|TIMEOUT|WALKON|PAUSE\d*)`)
)

// IsAudio reports whether f looks like an audio file, either by declared
// media type or by extension.
func IsAudio(f RawFile) bool {
	return strings.HasPrefix(f.MediaType, "audio/") || audioExt.MatchString(f.Name)
}

// IsSpecialPath reports whether relPath lies inside a special_music folder,
// in any letter case.
func IsSpecialPath(relPath string) bool {
	return specialDir.MatchString(relPath)
}

// CleanName strips every recognized tag and the audio extension.
func CleanName(filename string) string {
	name := recognizedTag.ReplaceAllString(filename, "")
	name = audioExt.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// MiscBuckets is the number of round-robin buckets for untagged
	// files, 2 or 3. Anything else means 2.
	MiscBuckets int
	// KeepPrevious disables releasing the previous generation's handles
	// on rebuild, which is how the browser version behaved.
	KeepPrevious bool
}

// Builder classifies file sets into catalogs and owns the handles it
// allocated for them.
type Builder struct {
	mu         sync.Mutex
	registry   *Registry
	opts       BuilderOptions
	generation uint64
	previous   []Handle
}

// NewBuilder creates a builder allocating handles from registry.
func NewBuilder(registry *Registry, opts BuilderOptions) *Builder {
	if opts.MiscBuckets != 3 {
		opts.MiscBuckets = 2
	}
	return &Builder{registry: registry, opts: opts}
}

// Classify builds a new catalog from files. It never fails: non-audio
// files and files that match no rule are dropped.
func (b *Builder) Classify(files []RawFile) *Catalog {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.opts.KeepPrevious && len(b.previous) > 0 {
		b.registry.Release(b.previous)
	}
	b.generation++
	c := newCatalog(b.generation, b.opts.MiscBuckets)
	var allocated []Handle

	toggle := 0
	for _, f := range lo.Filter(files, func(f RawFile, _ int) bool { return IsAudio(f) }) {
		relPath := f.RelPath
		if relPath == "" {
			relPath = f.Name
		}
		upper := strings.ToUpper(f.Name)

		if IsSpecialPath(relPath) {
			item, ok := classifySpecial(f, upper, len(c.Pauses))
			if !ok {
				continue
			}
			item.Handle = b.registry.Allocate(f.Path)
			allocated = append(allocated, item.Handle)
			switch item.Special {
			case Timeout:
				c.Timeout = &item
			case WalkOn:
				c.WalkOn = &item
			case Pause:
				c.Pauses = append(c.Pauses, item)
			}
			continue
		}

		cat, tagged := categoryFor(upper)
		if !tagged {
			misc := c.activeMisc()
			cat = misc[toggle%len(misc)]
			toggle++
		}
		item := Item{
			Identity:    f.Name,
			DisplayName: CleanName(f.Name),
			Category:    cat,
			Path:        f.Path,
			Handle:      b.registry.Allocate(f.Path),
		}
		allocated = append(allocated, item.Handle)
		c.items[cat] = append(c.items[cat], item)
	}

	b.previous = allocated
	return c
}

// Generation returns the generation number of the last built catalog.
func (b *Builder) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

func categoryFor(upper string) (Category, bool) {
	switch {
	case strings.Contains(upper, "_HIT"), strings.Contains(upper, "_ACE"):
		return PrimaryAttack, true
	case strings.Contains(upper, "_BLOCK"):
		return Block, true
	case strings.Contains(upper, "_OPP"):
		return Opponent, true
	case strings.Contains(upper, "_FUN"):
		return Comedic, true
	}
	return NoCategory, false
}

// classifySpecial maps a file from the special folder to its slot.
// pauseCount is the number of pause items seen so far; it provides the
// ordinal when the _PAUSE tag carries no digits.
func classifySpecial(f RawFile, upper string, pauseCount int) (Item, bool) {
	item := Item{
		Identity:    f.Name,
		DisplayName: CleanName(f.Name),
		Category:    NoCategory,
		Path:        f.Path,
	}
	switch {
	case strings.Contains(upper, "_TIMEOUT"):
		item.Special = Timeout
	case strings.Contains(upper, "_WALKON"):
		item.Special = WalkOn
	default:
		m := pausePattern.FindStringSubmatch(f.Name)
		if m == nil {
			return Item{}, false
		}
		item.Special = Pause
		item.Ordinal = pauseCount + 1
		if n, err := strconv.Atoi(m[1]); err == nil {
			item.Ordinal = n
		}
	}
	return item, true
}
