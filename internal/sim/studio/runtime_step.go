package studio

import (
	"fmt"
	"time"

	"inktycoon.dev/internal/sim/catalogs"
)

// TickLogEntry is the per-tick audit record.
type TickLogEntry struct {
	PlayedTime   int64    `json:"played_time"`
	Completed    string   `json:"completed,omitempty"`
	Quality      int      `json:"quality,omitempty"`
	Income       float64  `json:"income,omitempty"`
	IncomeEvents int      `json:"income_events,omitempty"`
	Payroll      float64  `json:"payroll,omitempty"`
	Recruited    []string `json:"recruited,omitempty"`
	EventOffered string   `json:"event_offered,omitempty"`
	Saved        bool     `json:"saved,omitempty"`
	Money        float64  `json:"money"`
	Reputation   float64  `json:"reputation"`
	StepMS       float64  `json:"step_ms"`
}

// crossings counts how many multiples of period lie in (prev, now].
func crossings(prev, now, period int64) int64 {
	if period <= 0 || now <= prev {
		return 0
	}
	return floorDiv(now, period) - floorDiv(prev, period)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Tick advances the simulation by one tick and runs the post-commit work
// (metrics, tick log, subscriber fan-out). Run calls it from the ticker;
// tests call it directly.
func (s *Studio) Tick() TickLogEntry {
	start := time.Now()
	e := s.step()
	e.StepMS = float64(time.Since(start).Microseconds()) / 1000
	s.ticks.Add(1)
	s.publishMetrics(e.StepMS)
	if s.cfg.Ticks != nil {
		if err := s.cfg.Ticks.WriteTick(e); err != nil {
			s.log.Printf("tick log: %v", err)
		}
	}
	s.broadcast()
	return e
}

// step computes the next state for one tick and commits it.
func (s *Studio) step() TickLogEntry {
	prev := s.state.Stats.PlayedTime
	next := s.state.Clone()
	next.Stats.PlayedTime += int64(s.tune.TickSeconds)
	now := next.Stats.PlayedTime
	nowMs := now * 1000
	e := TickLogEntry{PlayedTime: now}

	if next.CurrentAction.Expired(nowMs) {
		e.Completed, e.Quality = s.completeAction(&next)
	}

	saveDue := now-s.lastSaveAt >= int64(s.tune.AutosaveSeconds)
	if saveDue {
		s.lastSaveAt = now
	}

	incomePasses := int(crossings(prev, now, int64(s.tune.Staff.IncomeEverySeconds)))
	for pass := 0; pass < incomePasses; pass++ {
		earned, events := s.passiveIncome(&next, nowMs, pass)
		e.Income += earned
		e.IncomeEvents += events
	}
	for n := crossings(prev, now, int64(s.tune.DaySeconds)); n > 0; n-- {
		e.Payroll += s.payroll(&next)
	}
	for n := crossings(prev, now, int64(s.tune.Staff.RecruitEverySeconds)); n > 0; n-- {
		if len(next.Candidates) >= s.tune.Staff.MaxCandidates {
			break
		}
		e.Recruited = append(e.Recruited, s.recruit(&next).ID)
	}
	if crossings(prev, now, int64(s.tune.Events.CheckEverySeconds)) > 0 &&
		next.CurrentAction == nil && next.ActiveEvent == nil && now > s.tune.Events.MinPlayedSeconds {
		e.EventOffered = s.rollEvent(&next)
	}

	s.commit(next)
	// The save sees the fully committed tick, never a half-applied one.
	if saveDue {
		e.Saved = s.enqueueSave(s.state)
	}
	e.Money = s.state.Resources.Money
	e.Reputation = s.state.Resources.Reputation
	return e
}

// completeAction resolves the finished job into rewards, history and the
// result banner, then frees the slot.
func (s *Studio) completeAction(next *State) (kind string, quality int) {
	a := next.CurrentAction
	kind = string(a.Kind)
	switch p := a.Payload.(type) {
	case TattooPayload:
		tt := s.tune.Tattoo
		quality = tt.MinQuality + s.rng.IntN(tt.MaxQuality-tt.MinQuality+1)
		reward := tt.BaseReward * float64(quality) / 100
		xp := tt.BaseXP + float64(quality)/tt.XPPerPoints
		next.Resources.Money += reward
		next.Resources.Reputation++
		next.Resources.Experience += xp
		next.Stats.TattoosDone++
		s.addHistory(next, LogSuccess, fmt.Sprintf("Completed tattoo! Quality: %d%%. Earned $%.0f.", quality, reward))
		next.LastResult = &Result{
			Title:   "Tattoo Complete",
			Message: fmt.Sprintf("You completed a %s %s.", s.styleName(p.Design.StyleID), s.topicName(p.Design.TopicID)),
			Rewards: fmt.Sprintf("$%.0f | %.0f XP", reward, xp),
			Quality: quality,
		}
	case ResearchPayload:
		quality = 100
		next.Unlocks.Research = addUnique(next.Unlocks.Research, p.Item.ID)
		if p.Item.Type == catalogs.ResearchStyle && p.Item.UnlockID != "" {
			next.Unlocks.Styles = addUnique(next.Unlocks.Styles, p.Item.UnlockID)
		}
		s.addHistory(next, LogSuccess, "Research Complete: "+p.Item.Name)
		next.LastResult = &Result{
			Title:   "Research Complete",
			Message: fmt.Sprintf("You have mastered %s!", p.Item.Name),
			Rewards: "New Style Unlocked",
			Quality: 100,
		}
	}
	next.CurrentAction = nil
	s.moveActor(next, catalogs.PosIdle, CharIdle)
	return kind, quality
}

func (s *Studio) styleName(id string) string {
	if st, ok := s.cats.Styles.ByID[id]; ok {
		return st.Name
	}
	return id
}

func (s *Studio) topicName(id string) string {
	if t, ok := s.cats.Topics.ByID[id]; ok {
		return t.Name
	}
	return id
}
