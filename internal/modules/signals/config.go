// Package signals contains the signal detectors. Every detector is a pure
// function from a trade collection and explicit thresholds to a list of
// alerts; detectors never mutate their inputs and never touch storage.
package signals

import "github.com/aristath/conviction/internal/config"

// Config is the full set of recognized detector thresholds.
type Config struct {
	LegislatorMinClusterSize int
	InsiderMinClusterSize    int
	MinClusterValue          float64
	SellMinClusterSize       int
	SellMinClusterValue      float64
	ExecutiveBuyMinValue     float64
	LargeSingleBuyMinValue   float64
	FirstBuyMinValue         float64

	// HighConvictionActorIDs holds canonical actor IDs. Matching is exact,
	// never substring-based against display names.
	HighConvictionActorIDs map[string]struct{}
}

// NewConfig builds a detector configuration from application settings.
func NewConfig(t config.DetectorThresholds, allowList []string) Config {
	ids := make(map[string]struct{}, len(allowList))
	for _, id := range allowList {
		ids[id] = struct{}{}
	}

	return Config{
		LegislatorMinClusterSize: t.LegislatorMinClusterSize,
		InsiderMinClusterSize:    t.InsiderMinClusterSize,
		MinClusterValue:          t.MinClusterValue,
		SellMinClusterSize:       t.SellMinClusterSize,
		SellMinClusterValue:      t.SellMinClusterValue,
		ExecutiveBuyMinValue:     t.ExecutiveBuyMinValue,
		LargeSingleBuyMinValue:   t.LargeSingleBuyMinValue,
		FirstBuyMinValue:         t.FirstBuyMinValue,
		HighConvictionActorIDs:   ids,
	}
}

// IsHighConviction reports whether the actor ID is on the allow-list.
func (c Config) IsHighConviction(actorID string) bool {
	_, ok := c.HighConvictionActorIDs[actorID]
	return ok
}
