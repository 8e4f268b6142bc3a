package studio

import (
	"encoding/json"
	"fmt"

	"inktycoon.dev/internal/sim/catalogs"
)

type ActionKind string

const (
	ActionTattoo   ActionKind = "tattoo"
	ActionResearch ActionKind = "research"
	ActionRest     ActionKind = "rest"
)

type TargetStats struct {
	Line    int `json:"line"`
	Shading int `json:"shading"`
	Color   int `json:"color"`
}

type TattooDesign struct {
	TopicID     string      `json:"topic_id"`
	StyleID     string      `json:"style_id"`
	Complexity  int         `json:"complexity"`
	TargetStats TargetStats `json:"target_stats"`
}

// Payload is the kind-specific part of an Action.
type Payload interface {
	Kind() ActionKind
}

type TattooPayload struct {
	Design TattooDesign `json:"design"`
}

type ResearchPayload struct {
	Item catalogs.ResearchItem `json:"item"`
}

type RestPayload struct{}

func (TattooPayload) Kind() ActionKind   { return ActionTattoo }
func (ResearchPayload) Kind() ActionKind { return ActionResearch }
func (RestPayload) Kind() ActionKind     { return ActionRest }

// Action is the single in-progress job. StartMs and DurationMs are simulated
// milliseconds (played_time * 1000 at start).
type Action struct {
	ID         string
	Kind       ActionKind
	StartMs    int64
	DurationMs int64
	Name       string
	Payload    Payload
}

func newAction(id, name string, startMs, durationMs int64, p Payload) *Action {
	return &Action{
		ID:         id,
		Kind:       p.Kind(),
		StartMs:    startMs,
		DurationMs: durationMs,
		Name:       name,
		Payload:    p,
	}
}

// Expired reports whether the action has run its full duration at nowMs.
func (a *Action) Expired(nowMs int64) bool {
	return a != nil && nowMs-a.StartMs >= a.DurationMs
}

func (a Action) clone() Action {
	out := a
	switch p := a.Payload.(type) {
	case ResearchPayload:
		p.Item.Prereq = cloneSlice(p.Item.Prereq)
		out.Payload = p
	}
	return out
}

type actionJSON struct {
	ID         string          `json:"id"`
	Kind       ActionKind      `json:"type"`
	StartMs    int64           `json:"start_time"`
	DurationMs int64           `json:"duration"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	out := actionJSON{
		ID:         a.ID,
		Kind:       a.Kind,
		StartMs:    a.StartMs,
		DurationMs: a.DurationMs,
		Name:       a.Name,
	}
	if a.Payload != nil {
		if out.Kind == "" {
			out.Kind = a.Payload.Kind()
		}
		b, err := json.Marshal(a.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", a.Kind, err)
		}
		out.Payload = b
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the payload by the type discriminator. Unknown kinds
// keep a nil payload; completion clears them without reward.
func (a *Action) UnmarshalJSON(b []byte) error {
	var in actionJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*a = Action{
		ID:         in.ID,
		Kind:       in.Kind,
		StartMs:    in.StartMs,
		DurationMs: in.DurationMs,
		Name:       in.Name,
	}
	var p Payload
	switch in.Kind {
	case ActionTattoo:
		var tp TattooPayload
		if err := decodePayload(in.Payload, &tp); err != nil {
			return err
		}
		p = tp
	case ActionResearch:
		var rp ResearchPayload
		if err := decodePayload(in.Payload, &rp); err != nil {
			return err
		}
		p = rp
	case ActionRest:
		p = RestPayload{}
	}
	a.Payload = p
	return nil
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode action payload: %w", err)
	}
	return nil
}
