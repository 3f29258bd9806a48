package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navgrid/navgrid/internal/core/engine"
	"github.com/navgrid/navgrid/internal/core/geometry"
)

func TestDecodeScenario(t *testing.T) {
	src := `
engine:
  bounds:
    - {x: -100, y: -100}
    - {x: 100, y: -100}
    - {x: 100, y: 100}
    - {x: -100, y: 100}
  grid_size: 5
duration: 10
tick_rate: 30
obstacles:
  - shape:
      - {x: -10, y: -10}
      - {x: 10, y: -10}
      - {x: 10, y: 10}
      - {x: -10, y: 10}
    position: {x: 20, y: 0}
    static: true
agents:
  - start: {x: -80, y: 0}
    destination: {x: 80, y: 0}
    radius: 3
    speed: 20
`
	s, err := decodeScenario(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 10.0, s.Duration)
	assert.Equal(t, 30.0, s.TickRate)
	require.Len(t, s.Obstacles, 1)
	require.Len(t, s.Agents, 1)
	assert.Equal(t, geometry.Point{X: 20, Y: 0}, s.Obstacles[0].Position)

	_, err = engine.New(s.Engine)
	require.NoError(t, err)
}

func TestDecodeScenarioDefaults(t *testing.T) {
	s, err := decodeScenario(strings.NewReader("agents: []"))
	require.NoError(t, err)
	assert.Equal(t, 30.0, s.Duration)
	assert.Equal(t, 60.0, s.TickRate)
}

func TestSimObstaclePatrol(t *testing.T) {
	o := newSimObstacle(ObstacleSpec{
		Shape:    []geometry.Point{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}},
		Position: geometry.Point{X: 0, Y: 0},
		Speed:    10,
		Waypoints: []geometry.Point{
			{X: 0, Y: 0}, {X: 100, Y: 0},
		},
	})

	// The first waypoint is the start itself; one step snaps to it and
	// retargets the second.
	o.advance(0.1)
	o.advance(1)
	assert.InDelta(t, 10, o.pos.X, 1e-9)

	poly := o.WorldPolygon()
	assert.InDelta(t, 9, poly[0].X, 1e-9)
}

func TestSimAgentFollowsPath(t *testing.T) {
	a := &simAgent{pos: geometry.Point{X: 0, Y: 0}, speed: 10}
	a.path = engine.Path{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}}
	a.next = 1

	a.advance(1) // 10 units of travel covers both segments
	assert.Equal(t, geometry.Point{X: 5, Y: 5}, a.pos)
	assert.Equal(t, 3, a.next)
}
