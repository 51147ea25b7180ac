package skillcloud

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"resume-analyzer-web/internal/shared/util"
)

const (
	// HalfExtent bounds every coordinate to [-HalfExtent, HalfExtent).
	HalfExtent = 10.0
	// GlyphFontSize is the text size of each skill.
	GlyphFontSize = 1.0

	maxCachedLayouts = 256
)

// Vec3 is a point in scene units.
type Vec3 [3]float64

// Glyph is one skill placed in the cloud.
type Glyph struct {
	Text     string  `json:"text"`
	Position Vec3    `json:"position"`
	FontSize float64 `json:"fontSize"`
}

// Layout is the placement of one skill list and the cloud around it.
type Layout struct {
	Key    string  `json:"key"`
	Glyphs []Glyph `json:"glyphs"`
	Puffs  []Puff  `json:"puffs"`
}

// Layouter places skills at random positions and remembers the placement per
// list, so the same list always gets the same layout.
type Layouter struct {
	group singleflight.Group

	mu    sync.Mutex
	rnd   *rand.Rand
	style CloudStyle
	cache map[string]*Layout
}

// NewLayouter uses src for positions. A nil src is seeded from the clock.
func NewLayouter(src rand.Source) *Layouter {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>32|now<<32)
	}
	return &Layouter{
		rnd:   rand.New(src),
		style: DefaultCloudStyle(),
		cache: make(map[string]*Layout),
	}
}

// Layout returns the placement for skills, computing it on first use.
func (l *Layouter) Layout(skills []string) *Layout {
	key := util.HashList(skills)

	l.mu.Lock()
	if cached, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return cached
	}
	l.mu.Unlock()

	v, _, _ := l.group.Do(key, func() (any, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cached, ok := l.cache[key]; ok {
			return cached, nil
		}
		layout := &Layout{Key: key, Glyphs: make([]Glyph, 0, len(skills))}
		for _, skill := range skills {
			layout.Glyphs = append(layout.Glyphs, Glyph{
				Text:     skill,
				Position: Vec3{l.coord(), l.coord(), l.coord()},
				FontSize: GlyphFontSize,
			})
		}
		layout.Puffs = l.style.puffs(l.rnd)
		if len(l.cache) >= maxCachedLayouts {
			for k := range l.cache {
				delete(l.cache, k)
				break
			}
		}
		l.cache[key] = layout
		return layout, nil
	})
	return v.(*Layout)
}

// coord draws uniformly from [-HalfExtent, HalfExtent). Caller holds l.mu.
func (l *Layouter) coord() float64 {
	v := l.rnd.Float64()*2*HalfExtent - HalfExtent
	if v >= HalfExtent {
		v = math.Nextafter(HalfExtent, -HalfExtent)
	}
	return v
}
