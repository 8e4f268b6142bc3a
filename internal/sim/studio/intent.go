package studio

import "fmt"

type IntentKind string

const (
	IntentStartTattoo     IntentKind = "START_TATTOO"
	IntentStartResearch   IntentKind = "START_RESEARCH"
	IntentBuyItem         IntentKind = "BUY_ITEM"
	IntentUpgradeLocation IntentKind = "UPGRADE_LOCATION"
	IntentHireStaff       IntentKind = "HIRE_STAFF"
	IntentFireStaff       IntentKind = "FIRE_STAFF"
	IntentResolveEvent    IntentKind = "RESOLVE_EVENT"
	IntentDismissResult   IntentKind = "DISMISS_RESULT"
	IntentManualSave      IntentKind = "MANUAL_SAVE"
	IntentResetGame       IntentKind = "RESET_GAME"
	IntentUpdateSettings  IntentKind = "UPDATE_SETTINGS"
)

// Intent is the cross-goroutine form of a player command. Only the fields
// used by Kind are read.
type Intent struct {
	Kind IntentKind

	Design      *TattooDesign
	ID          string // research, item, location, candidate or staff id
	Accepted    bool
	Confirmed   bool
	SoundVolume float64
	MusicVolume float64
}

// IntentResult reports whether the intent changed anything meaningful.
// Void intents report true.
type IntentResult struct {
	OK         bool
	PlayedTime int64
}

// BadIntentError is returned for malformed intents (unknown kind, missing fields).
type BadIntentError struct {
	Kind   IntentKind
	Reason string
}

func (e *BadIntentError) Error() string {
	return fmt.Sprintf("bad intent %s: %s", e.Kind, e.Reason)
}

// Apply dispatches an intent on the calling goroutine. Only the loop (or a
// caller that owns the Studio before Run) may call it.
func (s *Studio) Apply(in Intent) (IntentResult, error) {
	var ok bool
	switch in.Kind {
	case IntentStartTattoo:
		if in.Design == nil {
			return IntentResult{}, &BadIntentError{Kind: in.Kind, Reason: "missing design"}
		}
		ok = s.StartTattoo(*in.Design)
	case IntentStartResearch:
		ok = s.StartResearch(in.ID)
	case IntentBuyItem:
		ok = s.BuyItem(in.ID)
	case IntentUpgradeLocation:
		ok = s.UpgradeLocation(in.ID)
	case IntentHireStaff:
		ok = s.hire(in.ID)
	case IntentFireStaff:
		ok = s.fire(in.ID)
	case IntentResolveEvent:
		ok = s.resolveEvent(in.Accepted)
	case IntentDismissResult:
		s.DismissResult()
		ok = true
	case IntentManualSave:
		ok = s.ManualSave()
	case IntentResetGame:
		ok = s.ResetGame(in.Confirmed)
	case IntentUpdateSettings:
		s.UpdateSettings(in.SoundVolume, in.MusicVolume)
		ok = true
	default:
		return IntentResult{}, &BadIntentError{Kind: in.Kind, Reason: "unknown intent"}
	}
	res := IntentResult{OK: ok, PlayedTime: s.state.Stats.PlayedTime}
	if s.cfg.Intents != nil {
		e := IntentLogEntry{
			PlayedTime:  res.PlayedTime,
			At:          s.clk.Now().UnixMilli(),
			Kind:        in.Kind,
			ID:          in.ID,
			Design:      in.Design,
			Accepted:    in.Accepted,
			Confirmed:   in.Confirmed,
			SoundVolume: in.SoundVolume,
			MusicVolume: in.MusicVolume,
			OK:          ok,
			Money:       s.state.Resources.Money,
		}
		if err := s.cfg.Intents.WriteIntent(e); err != nil {
			s.log.Printf("intent log: %v", err)
		}
	}
	return res, nil
}

// IntentLogEntry is the audit record of one applied intent. It carries
// the full intent so a seeded studio can replay the log.
type IntentLogEntry struct {
	PlayedTime int64         `json:"played_time"`
	At         int64         `json:"at"` // unix ms
	Kind       IntentKind    `json:"kind"`
	ID         string        `json:"id,omitempty"`
	Design     *TattooDesign `json:"design,omitempty"`
	Accepted   bool          `json:"accepted,omitempty"`
	Confirmed  bool          `json:"confirmed,omitempty"`

	SoundVolume float64 `json:"sound_volume,omitempty"`
	MusicVolume float64 `json:"music_volume,omitempty"`

	OK    bool    `json:"ok"`
	Money float64 `json:"money"`
}

// Intent rebuilds the intent the entry recorded.
func (e IntentLogEntry) Intent() Intent {
	return Intent{
		Kind:        e.Kind,
		Design:      e.Design,
		ID:          e.ID,
		Accepted:    e.Accepted,
		Confirmed:   e.Confirmed,
		SoundVolume: e.SoundVolume,
		MusicVolume: e.MusicVolume,
	}
}
