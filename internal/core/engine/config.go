package engine

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/navgrid/navgrid/internal/core/geometry"
)

// Config is the engine's full tuning surface. Durations are seconds of
// host-tick time except TickBudgetMS, which is wall-clock milliseconds
// spent draining the request queue per tick.
type Config struct {
	// Bounds is the arena polygon. Everything outside it is unwalkable.
	Bounds geometry.Polygon `json:"bounds" yaml:"bounds"`

	// GridSize is the clearance-lattice spacing in world units.
	GridSize float64 `json:"grid_size" yaml:"grid_size"`
	// SectorSize is the spatial-partition sector edge length.
	SectorSize float64 `json:"sector_size" yaml:"sector_size"`

	QuadtreeMaxObjects int `json:"quadtree_max_objects" yaml:"quadtree_max_objects"`
	QuadtreeMaxDepth   int `json:"quadtree_max_depth" yaml:"quadtree_max_depth"`

	SearchIterationCap int     `json:"search_iteration_cap" yaml:"search_iteration_cap"`
	SafetyMargin       float64 `json:"safety_margin" yaml:"safety_margin"`
	// ClearanceMultiplier scales GridSize into the margin added around a
	// changed obstacle's bounds when refreshing the lattice.
	ClearanceMultiplier float64 `json:"clearance_multiplier" yaml:"clearance_multiplier"`

	MaxRequestsPerTick int     `json:"max_requests_per_tick" yaml:"max_requests_per_tick"`
	TickBudgetMS       float64 `json:"tick_budget_ms" yaml:"tick_budget_ms"`

	ValidationInterval        float64 `json:"validation_interval" yaml:"validation_interval"`
	DynamicValidationInterval float64 `json:"dynamic_validation_interval" yaml:"dynamic_validation_interval"`
	ValidationLookahead       int     `json:"validation_lookahead" yaml:"validation_lookahead"`

	ObstaclePollInterval float64 `json:"obstacle_poll_interval" yaml:"obstacle_poll_interval"`
	// ObstacleCacheInterval is the liveness-cache refresh period and
	// therefore the staleness window: a vanished host can be reported
	// alive for at most this long.
	ObstacleCacheInterval   float64 `json:"obstacle_cache_interval" yaml:"obstacle_cache_interval"`
	TransitionFlushInterval float64 `json:"transition_flush_interval" yaml:"transition_flush_interval"`
	TransitionQueueCap      int     `json:"transition_queue_cap" yaml:"transition_queue_cap"`

	// Drift thresholds: dynamic obstacles tolerate less before the engine
	// treats them as moved.
	StaticMoveThreshold  float64 `json:"static_move_threshold" yaml:"static_move_threshold"`
	DynamicMoveThreshold float64 `json:"dynamic_move_threshold" yaml:"dynamic_move_threshold"`
	RotationThreshold    float64 `json:"rotation_threshold" yaml:"rotation_threshold"`

	RetryCooldown    float64 `json:"retry_cooldown" yaml:"retry_cooldown"`
	MaxRecalcRetries int     `json:"max_recalc_retries" yaml:"max_recalc_retries"`

	StuckCheckInterval float64 `json:"stuck_check_interval" yaml:"stuck_check_interval"`
	StuckEpsilon       float64 `json:"stuck_epsilon" yaml:"stuck_epsilon"`

	ArriveTolerance float64 `json:"arrive_tolerance" yaml:"arrive_tolerance"`
}

// DefaultConfig returns a config tuned for a mid-sized arena. The bounds
// polygon is left empty and must be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		GridSize:                  16,
		SectorSize:                128,
		QuadtreeMaxObjects:        8,
		QuadtreeMaxDepth:          4,
		SearchIterationCap:        4000,
		SafetyMargin:              0.25,
		ClearanceMultiplier:       2,
		MaxRequestsPerTick:        16,
		TickBudgetMS:              4,
		ValidationInterval:        0.5,
		DynamicValidationInterval: 0.15,
		ValidationLookahead:       3,
		ObstaclePollInterval:      0.2,
		ObstacleCacheInterval:     2,
		TransitionFlushInterval:   0.5,
		TransitionQueueCap:        32,
		StaticMoveThreshold:       1,
		DynamicMoveThreshold:      0.25,
		RotationThreshold:         0.05,
		RetryCooldown:             2,
		MaxRecalcRetries:          3,
		StuckCheckInterval:        0.75,
		StuckEpsilon:              1,
		ArriveTolerance:           8,
	}
}

// withDefaults replaces zero fields with the defaults, leaving Bounds as
// given.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.GridSize <= 0 {
		c.GridSize = d.GridSize
	}
	if c.SectorSize <= 0 {
		c.SectorSize = d.SectorSize
	}
	if c.QuadtreeMaxObjects <= 0 {
		c.QuadtreeMaxObjects = d.QuadtreeMaxObjects
	}
	if c.QuadtreeMaxDepth <= 0 {
		c.QuadtreeMaxDepth = d.QuadtreeMaxDepth
	}
	if c.SearchIterationCap <= 0 {
		c.SearchIterationCap = d.SearchIterationCap
	}
	if c.ClearanceMultiplier <= 0 {
		c.ClearanceMultiplier = d.ClearanceMultiplier
	}
	if c.MaxRequestsPerTick <= 0 {
		c.MaxRequestsPerTick = d.MaxRequestsPerTick
	}
	if c.TickBudgetMS <= 0 {
		c.TickBudgetMS = d.TickBudgetMS
	}
	if c.ValidationInterval <= 0 {
		c.ValidationInterval = d.ValidationInterval
	}
	if c.DynamicValidationInterval <= 0 {
		c.DynamicValidationInterval = d.DynamicValidationInterval
	}
	if c.ValidationLookahead <= 0 {
		c.ValidationLookahead = d.ValidationLookahead
	}
	if c.ObstaclePollInterval <= 0 {
		c.ObstaclePollInterval = d.ObstaclePollInterval
	}
	if c.ObstacleCacheInterval <= 0 {
		c.ObstacleCacheInterval = d.ObstacleCacheInterval
	}
	if c.TransitionFlushInterval <= 0 {
		c.TransitionFlushInterval = d.TransitionFlushInterval
	}
	if c.TransitionQueueCap <= 0 {
		c.TransitionQueueCap = d.TransitionQueueCap
	}
	if c.StaticMoveThreshold <= 0 {
		c.StaticMoveThreshold = d.StaticMoveThreshold
	}
	if c.DynamicMoveThreshold <= 0 {
		c.DynamicMoveThreshold = d.DynamicMoveThreshold
	}
	if c.RotationThreshold <= 0 {
		c.RotationThreshold = d.RotationThreshold
	}
	if c.RetryCooldown <= 0 {
		c.RetryCooldown = d.RetryCooldown
	}
	if c.MaxRecalcRetries <= 0 {
		c.MaxRecalcRetries = d.MaxRecalcRetries
	}
	if c.StuckCheckInterval <= 0 {
		c.StuckCheckInterval = d.StuckCheckInterval
	}
	if c.StuckEpsilon <= 0 {
		c.StuckEpsilon = d.StuckEpsilon
	}
	if c.ArriveTolerance <= 0 {
		c.ArriveTolerance = c.GridSize * 0.5
	}
	return c
}

func (c Config) Validate() error {
	if !c.Bounds.Valid() {
		return fmt.Errorf("%w: bounds polygon needs at least 3 vertices", ErrInvalidConfig)
	}
	if c.GridSize <= 0 {
		return fmt.Errorf("%w: grid_size must be positive", ErrInvalidConfig)
	}
	if c.SectorSize < c.GridSize {
		return fmt.Errorf("%w: sector_size must be at least grid_size", ErrInvalidConfig)
	}
	return nil
}

// LoadConfigYAML decodes a Config from YAML.
func LoadConfigYAML(r io.Reader) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// LoadConfigJSON decodes a Config from JSON.
func LoadConfigJSON(r io.Reader) (Config, error) {
	var c Config
	dec := json.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}
