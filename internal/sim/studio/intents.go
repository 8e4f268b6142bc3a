package studio

import (
	"fmt"

	"inktycoon.dev/internal/sim/catalogs"
)

// Every intent validates against the committed state, then applies its
// effects to a clone and commits the clone. A rejected intent leaves the
// state untouched.

func (s *Studio) commit(next State) { s.state = next }

func (s *Studio) addHistory(st *State, typ LogType, msg string) {
	st.History = pushHistory(st.History, newLogEntry(s.newID(), s.clk.Now(), typ, msg), s.tune.History.Cap)
}

func (s *Studio) moveActor(st *State, pos, charState string) {
	p := s.cats.Position(pos)
	st.Visuals.Character = Character{X: p.X, Y: p.Y, Facing: p.Facing, State: charState}
}

func (s *Studio) nowMs() int64 { return s.state.Stats.PlayedTime * 1000 }

// StartTattoo begins a tattoo job for design. It reports whether the job started.
func (s *Studio) StartTattoo(design TattooDesign) bool {
	cur := &s.state
	if cur.CurrentAction != nil {
		return false
	}
	if cur.Resources.Money < s.tune.Tattoo.SupplyCost {
		return false
	}
	topic, ok := s.cats.Topics.ByID[design.TopicID]
	if !ok {
		return false
	}
	if !contains(cur.Unlocks.Styles, design.StyleID) || !topic.Compatible(design.StyleID) {
		return false
	}

	next := cur.Clone()
	next.Resources.Money -= s.tune.Tattoo.SupplyCost
	next.Stats.DesignsCreated++
	next.CurrentAction = newAction(s.newID(), "Tattooing", s.nowMs(), s.tune.Tattoo.DurationMs,
		TattooPayload{Design: design})
	s.moveActor(&next, catalogs.PosChair, CharWorking)
	s.commit(next)
	return true
}

// StartResearch spends the research cost up front and starts the job. The
// cost is not refunded.
func (s *Studio) StartResearch(researchID string) bool {
	cur := &s.state
	if cur.CurrentAction != nil {
		return false
	}
	item, ok := s.cats.Research.ByID[researchID]
	if !ok || contains(cur.Unlocks.Research, researchID) {
		return false
	}
	for _, pre := range item.Prereq {
		if !contains(cur.Unlocks.Research, pre) {
			return false
		}
	}
	if cur.Resources.Money < item.Cost.Money || cur.Resources.Experience < item.Cost.XP {
		return false
	}

	next := cur.Clone()
	next.Resources.Money -= item.Cost.Money
	next.Resources.Experience -= item.Cost.XP
	item.Prereq = cloneSlice(item.Prereq)
	next.CurrentAction = newAction(s.newID(), "Researching "+item.Name, s.nowMs(), item.DurationMs,
		ResearchPayload{Item: item})
	s.moveActor(&next, catalogs.PosDesk, CharWorking)
	s.commit(next)
	return true
}

func (s *Studio) BuyItem(itemID string) bool {
	cur := &s.state
	item, ok := s.cats.Shop.ByID[itemID]
	if !ok || contains(cur.Unlocks.Equipment, itemID) || cur.Resources.Money < item.Cost {
		return false
	}
	next := cur.Clone()
	next.Resources.Money -= item.Cost
	next.Unlocks.Equipment = addUnique(next.Unlocks.Equipment, itemID)
	s.addHistory(&next, LogInfo, "Purchased "+item.Name)
	s.commit(next)
	return true
}

func (s *Studio) UpgradeLocation(locationID string) bool {
	cur := &s.state
	loc, ok := s.cats.Locations.ByID[locationID]
	if !ok || cur.Location == locationID {
		return false
	}
	if cur.Resources.Money < loc.Cost || cur.Resources.Reputation < loc.RepReq {
		return false
	}
	next := cur.Clone()
	next.Resources.Money -= loc.Cost
	next.Location = locationID
	s.addHistory(&next, LogSuccess, fmt.Sprintf("Moved to %s!", loc.Name))
	s.commit(next)
	return true
}

// capacity is the current location's capacity; the player holds one slot.
func (s *Studio) capacity() int {
	if loc, ok := s.cats.Locations.ByID[s.state.Location]; ok {
		return loc.Capacity
	}
	return 1
}

// HireStaff moves a candidate onto the staff roster when a slot is free.
func (s *Studio) HireStaff(candidateID string) { s.hire(candidateID) }

func (s *Studio) hire(candidateID string) bool {
	cur := &s.state
	idx := -1
	for i, c := range cur.Candidates {
		if c.ID == candidateID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	next := cur.Clone()
	if len(cur.Staff) >= s.capacity()-1 {
		s.addHistory(&next, LogWarning, "Studio is full! Upgrade location to hire more.")
		s.commit(next)
		return false
	}
	emp := next.Candidates[idx]
	emp.HiredAt = s.clk.Now().UnixMilli()
	next.Candidates = append(next.Candidates[:idx], next.Candidates[idx+1:]...)
	next.Staff = append(next.Staff, emp)
	s.addHistory(&next, LogSuccess, fmt.Sprintf("You hired %s!", emp.Name))
	s.commit(next)
	return true
}

func (s *Studio) FireStaff(staffID string) { s.fire(staffID) }

func (s *Studio) fire(staffID string) bool {
	cur := &s.state
	for i, e := range cur.Staff {
		if e.ID != staffID {
			continue
		}
		next := cur.Clone()
		next.Staff = append(next.Staff[:i], next.Staff[i+1:]...)
		s.addHistory(&next, LogInfo, "You fired an employee.")
		s.commit(next)
		return true
	}
	return false
}

// DismissResult clears the last result banner. Idempotent.
func (s *Studio) DismissResult() {
	if s.state.LastResult == nil {
		return
	}
	next := s.state.Clone()
	next.LastResult = nil
	s.commit(next)
}

// ManualSave hands the current state to the save sink and restarts the
// autosave countdown.
func (s *Studio) ManualSave() bool {
	s.lastSaveAt = s.state.Stats.PlayedTime
	return s.enqueueSave(s.state)
}

// ResetGame replaces the state with a fresh game and deletes the save.
// Without confirmation nothing happens.
func (s *Studio) ResetGame(confirmed bool) bool {
	if !confirmed {
		s.log.Printf("reset rejected: not confirmed")
		return false
	}
	s.state = InitialState(s.cats, s.clk.Now())
	s.lastSaveAt = 0
	if s.cfg.Saves != nil && !s.cfg.Saves.Delete() {
		s.log.Printf("reset: save delete not queued")
	}
	s.log.Printf("game reset")
	return true
}

// UpdateSettings stores audio volumes clamped to [0,1].
func (s *Studio) UpdateSettings(sound, music float64) {
	next := s.state.Clone()
	next.Settings = Settings{SoundVolume: clamp01(sound), MusicVolume: clamp01(music)}
	s.commit(next)
}

func (s *Studio) enqueueSave(st State) bool {
	if s.cfg.Saves == nil {
		return false
	}
	if s.cfg.Saves.Enqueue(st.Clone()) {
		s.savesQueued.Add(1)
		return true
	}
	s.savesDropped.Add(1)
	return false
}

func clamp01(v float64) float64 {
	switch {
	case v != v, v < 0: // NaN too
		return 0
	case v > 1:
		return 1
	}
	return v
}
