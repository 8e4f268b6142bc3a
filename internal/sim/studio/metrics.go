package studio

// Metrics is a thread-safe read-only view of the studio, updated from the
// loop goroutine and read by HTTP handlers and the prometheus collector.
type Metrics struct {
	Ticks      uint64  `json:"ticks"`
	PlayedTime int64   `json:"played_time"`
	StepMS     float64 `json:"step_ms"`

	Money       float64 `json:"money"`
	Reputation  float64 `json:"reputation"`
	Experience  float64 `json:"experience"`
	TattoosDone int     `json:"tattoos_done"`
	Staff       int     `json:"staff"`
	Candidates  int     `json:"candidates"`

	ActionActive bool   `json:"action_active"`
	ActionKind   string `json:"action_kind,omitempty"`
	EventOffered string `json:"event_offered,omitempty"`

	SavesQueued  uint64 `json:"saves_queued"`
	SavesDropped uint64 `json:"saves_dropped"`
	InboxDepth   int    `json:"inbox_depth"`
}

func (s *Studio) Metrics() Metrics {
	if s == nil {
		return Metrics{}
	}
	m, _ := s.metrics.Load().(Metrics)
	return m
}

func (s *Studio) publishMetrics(stepMS float64) {
	st := &s.state
	m := Metrics{
		Ticks:        s.ticks.Load(),
		PlayedTime:   st.Stats.PlayedTime,
		StepMS:       stepMS,
		Money:        st.Resources.Money,
		Reputation:   st.Resources.Reputation,
		Experience:   st.Resources.Experience,
		TattoosDone:  st.Stats.TattoosDone,
		Staff:        len(st.Staff),
		Candidates:   len(st.Candidates),
		SavesQueued:  s.savesQueued.Load(),
		SavesDropped: s.savesDropped.Load(),
		InboxDepth:   len(s.inbox),
	}
	if st.CurrentAction != nil {
		m.ActionActive = true
		m.ActionKind = string(st.CurrentAction.Kind)
	}
	if st.ActiveEvent != nil {
		m.EventOffered = st.ActiveEvent.ID
	}
	s.metrics.Store(m)
}
