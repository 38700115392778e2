package config

import (
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// parseSteps turns "10,20,50" into an ascending slice of positive radii.
// Entries that do not parse are skipped.
func parseSteps(s string) []float64 {
	out := []float64{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := cast.ToFloat64E(p)
		if err != nil || v <= 0 {
			continue
		}
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}
