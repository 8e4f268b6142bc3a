package save

import (
	"encoding/json"
	"fmt"

	"inktycoon.dev/internal/sim/studio"
)

// Merge overlays a saved JSON document onto base. Grouped sections
// (resources, stats, unlocks, settings, visuals) merge field by field;
// every other top-level field present in the document replaces base's.
func Merge(base studio.State, doc []byte) (studio.State, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(doc, &top); err != nil {
		return base, fmt.Errorf("decode save: %w", err)
	}
	st := base.Clone()

	// Decoding into a populated struct leaves absent fields untouched.
	merged := map[string]any{
		"resources": &st.Resources,
		"stats":     &st.Stats,
		"unlocks":   &st.Unlocks,
		"settings":  &st.Settings,
		"visuals":   &st.Visuals,
	}
	replaced := map[string]func() any{
		"current_action": func() any { st.CurrentAction = nil; return &st.CurrentAction },
		"history":        func() any { st.History = nil; return &st.History },
		"last_result":    func() any { st.LastResult = nil; return &st.LastResult },
		"location":       func() any { return &st.Location },
		"staff":          func() any { st.Staff = nil; return &st.Staff },
		"candidates":     func() any { st.Candidates = nil; return &st.Candidates },
		"active_event":   func() any { st.ActiveEvent = nil; return &st.ActiveEvent },
	}
	for k, raw := range top {
		var dst any
		if p, ok := merged[k]; ok {
			dst = p
		} else if f, ok := replaced[k]; ok {
			dst = f()
		} else {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return base, fmt.Errorf("decode save field %s: %w", k, err)
		}
	}
	normalize(&st, base)
	return st, nil
}

// normalize restores empty collections that a save left null.
func normalize(st *studio.State, base studio.State) {
	if st.Unlocks.Styles == nil {
		st.Unlocks.Styles = base.Clone().Unlocks.Styles
	}
	if st.Unlocks.Equipment == nil {
		st.Unlocks.Equipment = base.Clone().Unlocks.Equipment
	}
	if st.Unlocks.Research == nil {
		st.Unlocks.Research = []string{}
	}
	if st.History == nil {
		st.History = []studio.LogEntry{}
	}
	if st.Staff == nil {
		st.Staff = []studio.Employee{}
	}
	if st.Candidates == nil {
		st.Candidates = []studio.Employee{}
	}
	if st.Visuals.Effects == nil {
		st.Visuals.Effects = []studio.VisualEffect{}
	}
	if st.Location == "" {
		st.Location = base.Location
	}
}
