package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"inktycoon.dev/internal/protocol"
)

// botState is the slice of the STATE document the bot reads.
type botState struct {
	Resources struct {
		Money float64 `json:"money"`
	} `json:"resources"`
	Unlocks struct {
		Styles []string `json:"styles"`
	} `json:"unlocks"`
	CurrentAction *struct {
		Type string `json:"type"`
	} `json:"current_action"`
	LastResult  *json.RawMessage `json:"last_result"`
	ActiveEvent *struct {
		ID   string  `json:"id"`
		Cost float64 `json:"cost"`
	} `json:"active_event"`
}

type botTopic struct {
	ID               string   `json:"id"`
	CompatibleStyles []string `json:"compatible_styles"`
}

type botStyle struct {
	ID         string `json:"id"`
	IdealStats struct {
		Line    int `json:"line"`
		Shading int `json:"shading"`
		Color   int `json:"color"`
	} `json:"ideal_stats"`
}

// bot keeps at most one intent in flight and plays greedily: clear the
// result card, take affordable events, keep the chair busy.
type bot struct {
	rnd     *rand.Rand
	topics  []botTopic
	styles  map[string]botStyle
	seq     int
	pending string
}

func newBot(rnd *rand.Rand) *bot {
	return &bot{rnd: rnd, styles: map[string]botStyle{}}
}

func (b *bot) catalog(c protocol.CatalogMsg) error {
	switch c.Name {
	case "topics":
		return json.Unmarshal(c.Data, &b.topics)
	case "styles":
		var list []botStyle
		if err := json.Unmarshal(c.Data, &list); err != nil {
			return err
		}
		for _, s := range list {
			b.styles[s.ID] = s
		}
	}
	return nil
}

func (b *bot) result(r protocol.ResultMsg) {
	if r.ID == b.pending {
		b.pending = ""
	}
}

func (b *bot) next(st botState) *protocol.IntentMsg {
	if b.pending != "" {
		return nil
	}
	var in *protocol.IntentMsg
	switch {
	case st.LastResult != nil:
		in = b.intent("DISMISS_RESULT")
	case st.ActiveEvent != nil:
		in = b.intent("RESOLVE_EVENT")
		in.TargetID = st.ActiveEvent.ID
		in.Accepted = st.Resources.Money >= 2*st.ActiveEvent.Cost
	case st.CurrentAction == nil:
		d := b.design(st.Unlocks.Styles)
		if d == nil {
			return nil
		}
		in = b.intent("START_TATTOO")
		in.Design = d
	default:
		return nil
	}
	b.pending = in.ID
	return in
}

func (b *bot) intent(kind string) *protocol.IntentMsg {
	b.seq++
	return &protocol.IntentMsg{
		Type:            protocol.TypeIntent,
		ProtocolVersion: protocol.Version,
		ID:              fmt.Sprintf("bot_%d", b.seq),
		Kind:            kind,
	}
}

// design picks a random topic compatible with an unlocked style and aims
// straight at the style's ideal stats.
func (b *bot) design(unlocked []string) *protocol.DesignMsg {
	type pair struct{ topic, style string }
	var options []pair
	for _, t := range b.topics {
		for _, s := range t.CompatibleStyles {
			for _, u := range unlocked {
				if s == u {
					options = append(options, pair{t.ID, s})
				}
			}
		}
	}
	if len(options) == 0 {
		return nil
	}
	p := options[b.rnd.IntN(len(options))]
	ideal := b.styles[p.style].IdealStats
	return &protocol.DesignMsg{
		TopicID:    p.topic,
		StyleID:    p.style,
		Complexity: 1 + b.rnd.IntN(5),
		TargetStats: protocol.TargetStatsMsg{
			Line:    ideal.Line,
			Shading: ideal.Shading,
			Color:   ideal.Color,
		},
	}
}
