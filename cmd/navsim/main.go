package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/navgrid/navgrid/internal/core/engine"
	"github.com/navgrid/navgrid/internal/core/geometry"
	"github.com/navgrid/navgrid/internal/core/observability/log"
)

// simObstacle hosts one obstacle: a local outline translated by a position
// that optionally patrols a waypoint loop.
type simObstacle struct {
	shape     []geometry.Point
	pos       geometry.Point
	static    bool
	layer     uint32
	speed     float64
	waypoints []geometry.Point
	target    int
}

func newSimObstacle(spec ObstacleSpec) *simObstacle {
	layer := spec.Layer
	if layer == 0 {
		layer = 1
	}
	return &simObstacle{
		shape:     spec.Shape,
		pos:       spec.Position,
		static:    spec.Static,
		layer:     layer,
		speed:     spec.Speed,
		waypoints: spec.Waypoints,
	}
}

func (o *simObstacle) WorldPolygon() geometry.Polygon {
	out := make(geometry.Polygon, len(o.shape))
	for i, v := range o.shape {
		out[i] = v.Add(o.pos)
	}
	return out
}

func (o *simObstacle) Position() geometry.Point { return o.pos }
func (o *simObstacle) Rotation() float64        { return 0 }
func (o *simObstacle) Static() bool             { return o.static }
func (o *simObstacle) Layer() uint32            { return o.layer }
func (o *simObstacle) Enabled() bool            { return true }
func (o *simObstacle) Alive() bool              { return true }

func (o *simObstacle) advance(dt float64) {
	if o.static || o.speed <= 0 || len(o.waypoints) == 0 {
		return
	}
	goal := o.waypoints[o.target]
	step := o.speed * dt
	if o.pos.Distance(goal) <= step {
		o.pos = goal
		o.target = (o.target + 1) % len(o.waypoints)
		return
	}
	dir := goal.Sub(o.pos)
	o.pos = o.pos.Add(dir.Scale(step / o.pos.Distance(goal)))
}

// simAgent hosts one agent and walks it along whatever path the engine
// last delivered.
type simAgent struct {
	name  string
	pos   geometry.Point
	speed float64
	path  engine.Path
	next  int
	done  bool
}

func (a *simAgent) Position() geometry.Point { return a.pos }
func (a *simAgent) Alive() bool              { return true }

func (a *simAgent) follow(s engine.Signal, logger log.Log) {
	switch s.Type {
	case engine.SignalPathFound, engine.SignalRecalculated:
		a.path = s.Path
		a.next = 1
		logger.Info("path delivered",
			log.String("agent", a.name),
			log.String("signal", s.Type.String()),
			log.Int("waypoints", len(s.Path)),
			log.Float64("length", s.Path.Length()),
		)
	case engine.SignalDestinationReached:
		a.done = true
		a.path = nil
		logger.Info("destination reached", log.String("agent", a.name))
	case engine.SignalBlocked, engine.SignalInvalidated,
		engine.SignalStuck, engine.SignalUnstuck:
		logger.Warn("agent signal",
			log.String("agent", a.name),
			log.String("signal", s.Type.String()),
		)
	}
}

func (a *simAgent) advance(dt float64) {
	if a.done || a.next >= len(a.path) {
		return
	}
	budget := a.speed * dt
	for budget > 0 && a.next < len(a.path) {
		goal := a.path[a.next]
		d := a.pos.Distance(goal)
		if d <= budget {
			a.pos = goal
			a.next++
			budget -= d
			continue
		}
		a.pos = a.pos.Add(goal.Sub(a.pos).Scale(budget / d))
		budget = 0
	}
}

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "YAML scenario file (built-in demo when empty)")
		logLevel     = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()

	logger := log.New(log.ParseLevel(*logLevel))

	scenario := defaultScenario()
	if *scenarioPath != "" {
		var err error
		scenario, err = loadScenario(*scenarioPath)
		if err != nil {
			logger.Error("load scenario", log.Err(err))
			os.Exit(1)
		}
	}

	if err := run(scenario, logger); err != nil {
		logger.Error("simulation failed", log.Err(err))
		os.Exit(1)
	}
}

func run(scenario Scenario, logger log.Log) error {
	eng, err := engine.New(scenario.Engine, engine.WithLogger(logger))
	if err != nil {
		return err
	}

	obstacles := make([]*simObstacle, 0, len(scenario.Obstacles))
	for _, spec := range scenario.Obstacles {
		o := newSimObstacle(spec)
		if _, err := eng.RegisterObstacle(o); err != nil {
			return fmt.Errorf("register obstacle: %w", err)
		}
		obstacles = append(obstacles, o)
	}

	agents := make([]*simAgent, 0, len(scenario.Agents))
	for i, spec := range scenario.Agents {
		a := &simAgent{
			name:  fmt.Sprintf("agent-%d", i),
			pos:   spec.Start,
			speed: spec.Speed,
		}
		handle, err := eng.RegisterAgent(a, engine.AgentOptions{
			Radius:  spec.Radius,
			Buffer:  spec.Buffer,
			Mask:    spec.Mask,
			Handler: func(s engine.Signal) { a.follow(s, logger) },
		})
		if err != nil {
			return fmt.Errorf("register agent: %w", err)
		}
		if _, err := eng.RequestPath(handle, spec.Destination); err != nil {
			return fmt.Errorf("request path: %w", err)
		}
		agents = append(agents, a)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	dt := 1.0 / scenario.TickRate
	elapsed := 0.0
	for elapsed < scenario.Duration {
		select {
		case <-stop:
			logger.Info("interrupted", log.Float64("elapsed", elapsed))
			return nil
		default:
		}

		for _, o := range obstacles {
			o.advance(dt)
		}
		for _, a := range agents {
			a.advance(dt)
		}
		eng.Tick(dt)
		elapsed += dt

		if allDone(agents) {
			break
		}
	}

	stats := eng.Stats()
	logger.Info("simulation finished",
		log.Float64("elapsed", elapsed),
		log.Uint64("searches", stats.Searches),
		log.Uint64("direct_paths", stats.DirectPaths),
		log.Uint64("paths_found", stats.PathsFound),
		log.Uint64("recalculations", stats.Recalculations),
		log.Uint64("invalidations", stats.Invalidations),
		log.Uint64("arrivals", stats.Arrivals),
		log.Int("grid_points", stats.GridPoints),
		log.Int("sectors", stats.Sectors),
	)
	return nil
}

func allDone(agents []*simAgent) bool {
	for _, a := range agents {
		if !a.done {
			return false
		}
	}
	return true
}
