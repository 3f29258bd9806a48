package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/navgrid/navgrid/internal/core/engine"
	"github.com/navgrid/navgrid/internal/core/geometry"
)

// Scenario describes one simulation run: the engine tuning plus the
// obstacles and agents to populate it with.
type Scenario struct {
	Engine    engine.Config  `yaml:"engine"`
	Duration  float64        `yaml:"duration"`
	TickRate  float64        `yaml:"tick_rate"`
	Obstacles []ObstacleSpec `yaml:"obstacles"`
	Agents    []AgentSpec    `yaml:"agents"`
}

// ObstacleSpec places one obstacle. Shape is local, centered on Position;
// dynamic obstacles patrol Waypoints at Speed.
type ObstacleSpec struct {
	Shape     []geometry.Point `yaml:"shape"`
	Position  geometry.Point   `yaml:"position"`
	Static    bool             `yaml:"static"`
	Layer     uint32           `yaml:"layer"`
	Speed     float64          `yaml:"speed"`
	Waypoints []geometry.Point `yaml:"waypoints"`
}

// AgentSpec places one agent heading for Destination at Speed.
type AgentSpec struct {
	Start       geometry.Point `yaml:"start"`
	Destination geometry.Point `yaml:"destination"`
	Radius      float64        `yaml:"radius"`
	Buffer      float64        `yaml:"buffer"`
	Speed       float64        `yaml:"speed"`
	Mask        uint32         `yaml:"mask"`
}

func loadScenario(path string) (Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("open scenario: %w", err)
	}
	defer func() { _ = f.Close() }()
	return decodeScenario(f)
}

func decodeScenario(r io.Reader) (Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}
	return s.withDefaults(), nil
}

func (s Scenario) withDefaults() Scenario {
	if s.Duration <= 0 {
		s.Duration = 30
	}
	if s.TickRate <= 0 {
		s.TickRate = 60
	}
	return s
}

// defaultScenario is used when no file is given: two agents crossing an
// arena with a static wall and one patrolling obstacle.
func defaultScenario() Scenario {
	square := func(half float64) []geometry.Point {
		return []geometry.Point{
			{X: -half, Y: -half}, {X: half, Y: -half},
			{X: half, Y: half}, {X: -half, Y: half},
		}
	}
	cfg := engine.DefaultConfig()
	cfg.Bounds = geometry.Polygon{
		{X: -250, Y: -250}, {X: 250, Y: -250}, {X: 250, Y: 250}, {X: -250, Y: 250},
	}
	cfg.GridSize = 10
	return Scenario{
		Engine:   cfg,
		Duration: 30,
		TickRate: 60,
		Obstacles: []ObstacleSpec{
			{Shape: square(30), Position: geometry.Point{X: 0, Y: 40}, Static: true, Layer: 1},
			{
				Shape:    square(15),
				Position: geometry.Point{X: -100, Y: -60},
				Layer:    1,
				Speed:    25,
				Waypoints: []geometry.Point{
					{X: -100, Y: -60}, {X: 100, Y: -60},
				},
			},
		},
		Agents: []AgentSpec{
			{Start: geometry.Point{X: -200, Y: 0}, Destination: geometry.Point{X: 200, Y: 0}, Radius: 6, Speed: 40},
			{Start: geometry.Point{X: 200, Y: -120}, Destination: geometry.Point{X: -200, Y: 120}, Radius: 4, Speed: 55},
		},
	}
}
