package engine

// Stats is a point-in-time snapshot of engine counters. Counters are
// cumulative since construction; gauges reflect the last completed tick.
type Stats struct {
	Requests        uint64 `json:"requests"`
	PathsFound      uint64 `json:"paths_found"`
	Blocked         uint64 `json:"blocked"`
	DroppedResults  uint64 `json:"dropped_results"`
	Invalidations   uint64 `json:"invalidations"`
	Recalculations  uint64 `json:"recalculations"`
	Arrivals        uint64 `json:"arrivals"`
	StuckEvents     uint64 `json:"stuck_events"`
	ObstacleChanges uint64 `json:"obstacle_changes"`
	GridRefreshes   uint64 `json:"grid_refreshes"`
	BudgetExhausted uint64 `json:"budget_exhausted"`
	EventsDropped   uint64 `json:"events_dropped"`

	Searches    uint64 `json:"searches"`
	DirectPaths uint64 `json:"direct_paths"`

	QueueDepth int `json:"queue_depth"`
	Obstacles  int `json:"obstacles"`
	Agents     int `json:"agents"`
	Sectors    int `json:"sectors"`
	GridPoints int `json:"grid_points"`
}

// Stats returns the current counters.
func (e *Engine) Stats() Stats {
	s := e.stats
	s.Searches = e.planner.Searches()
	s.DirectPaths = e.planner.DirectHits()
	s.QueueDepth = e.requests.Len()
	s.Obstacles = e.obstacles.len()
	s.Agents = e.agents.len()
	s.Sectors = e.partition.SectorCount()
	s.GridPoints = e.clearance.Len()
	return s
}
