// Package heatmap turns play counts into button shades. Hotter tracks get
// darker, more saturated colours of their category hue.
package heatmap

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/xlthimolx/djpult/cmd/board/catalog"
)

const (
	coldLightness = 0.62
	hotLightness  = 0.30
	coldSat       = 0.45
	hotSat        = 0.90
)

// Level maps count to [0,1] relative to the hottest track.
func Level(count, highest int) float64 {
	if highest <= 0 || count <= 0 {
		return 0
	}
	if count >= highest {
		return 1
	}
	return float64(count) / float64(highest)
}

// Shade returns the hex colour for a hue in degrees at the given level.
func Shade(hue, level float64) string {
	level = min(max(level, 0), 1)
	s := coldSat + (hotSat-coldSat)*level
	l := coldLightness + (hotLightness-coldLightness)*level
	return colorful.Hsl(hue, s, l).Hex()
}

// Color returns the shade for an item of category cat played count times.
// Categories without a base hue keep their fixed colour.
func Color(cat catalog.Category, count, highest int) string {
	info := cat.Info()
	if !info.HasHue {
		return info.Color
	}
	return Shade(info.BaseHue, Level(count, highest))
}

// Max returns the highest count among identities.
func Max(counts map[string]int) int {
	highest := 0
	for _, n := range counts {
		highest = max(highest, n)
	}
	return highest
}
