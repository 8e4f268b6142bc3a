package studio

import "fmt"

// rollEvent offers a random catalog event with the configured chance. Events
// above the studio's reputation are skipped for this roll.
func (s *Studio) rollEvent(next *State) string {
	evs := s.cats.Events.List
	if len(evs) == 0 || s.rng.Float64() >= s.tune.Events.Chance {
		return ""
	}
	ev := evs[s.rng.IntN(len(evs))]
	if next.Resources.Reputation < ev.MinReputation {
		return ""
	}
	next.ActiveEvent = &ev
	return ev.ID
}

// ResolveEvent accepts or declines the offered event. Either way the offer
// is cleared.
func (s *Studio) ResolveEvent(accepted bool) { s.resolveEvent(accepted) }

func (s *Studio) resolveEvent(accepted bool) bool {
	cur := &s.state
	if cur.ActiveEvent == nil {
		return false
	}
	ev := *cur.ActiveEvent
	next := cur.Clone()
	next.ActiveEvent = nil
	switch {
	case !accepted:
		s.commit(next)
		return true
	case ev.Cost > 0 && ev.Cost > next.Resources.Money:
		s.addHistory(&next, LogWarning, fmt.Sprintf("Could not afford %s", ev.Name))
		s.commit(next)
		return false
	}
	next.Resources.Money -= ev.Cost
	next.Resources.Reputation += ev.Rewards.Reputation
	next.Resources.Money += ev.Rewards.Money
	next.Resources.Experience += ev.Rewards.XP
	s.addHistory(&next, LogSuccess, fmt.Sprintf("Participated in %s!", ev.Name))
	s.commit(next)
	return true
}
