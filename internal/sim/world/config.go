package world

import (
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/layout"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/tuning"
)

type WorldConfig struct {
	ID   string
	Seed int64

	Tuning tuning.Tuning
	Layout layout.Layout
}

func (c WorldConfig) withDefaults() WorldConfig {
	if c.ID == "" {
		c.ID = "world"
	}
	c.Tuning.ApplyDefaults()
	if c.Layout.Bounds.Min == c.Layout.Bounds.Max {
		c.Layout = layout.Default()
	}
	return c
}
