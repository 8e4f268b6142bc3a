package studio

import (
	"time"

	"inktycoon.dev/internal/sim/catalogs"
)

type Resources struct {
	Money      float64 `json:"money"`
	Reputation float64 `json:"reputation"`
	Experience float64 `json:"experience"`
}

type Stats struct {
	TattoosDone    int   `json:"tattoos_done"`
	DesignsCreated int   `json:"designs_created"`
	PlayedTime     int64 `json:"played_time"` // simulated seconds
}

// Unlocks are append-only sets kept as ordered slices.
type Unlocks struct {
	Styles    []string `json:"styles"`
	Equipment []string `json:"equipment"`
	Research  []string `json:"research"`
}

type LogType string

const (
	LogInfo    LogType = "info"
	LogSuccess LogType = "success"
	LogWarning LogType = "warning"
	LogError   LogType = "error"
)

type LogEntry struct {
	ID        string  `json:"id"`
	Timestamp int64   `json:"timestamp"` // unix ms, wall clock
	Message   string  `json:"message"`
	Type      LogType `json:"type"`
}

// Result summarizes the most recently completed action.
type Result struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Rewards string `json:"rewards"`
	Quality int    `json:"quality"`
}

type EmployeeStats struct {
	Speed     float64 `json:"speed"`
	Technical float64 `json:"technical"`
	Artistic  float64 `json:"artistic"`
}

type Employee struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Level   int           `json:"level"`
	Stats   EmployeeStats `json:"stats"`
	Salary  float64       `json:"salary"`
	HiredAt int64         `json:"hired_at"` // unix ms, 0 for candidates
}

type Settings struct {
	SoundVolume float64 `json:"sound_volume"`
	MusicVolume float64 `json:"music_volume"`
}

const (
	CharIdle    = "idle"
	CharWalking = "walking"
	CharWorking = "working"
)

type Character struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Facing string  `json:"facing"`
	State  string  `json:"state"`
}

const (
	EffectMoney = "money"
	EffectTech  = "tech"
	EffectBug   = "bug"
)

// VisualEffect is a transient marker emitted by a staff work roll.
type VisualEffect struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Type      string  `json:"type"`
	Value     string  `json:"value"`
	Color     string  `json:"color"`
	CreatedAt int64   `json:"created_at"` // simulated ms
}

type Visuals struct {
	Character Character      `json:"character"`
	Effects   []VisualEffect `json:"effects"`
}

// State is the single authoritative snapshot of a studio.
type State struct {
	Resources     Resources           `json:"resources"`
	Stats         Stats               `json:"stats"`
	Unlocks       Unlocks             `json:"unlocks"`
	CurrentAction *Action             `json:"current_action"`
	History       []LogEntry          `json:"history"`
	LastResult    *Result             `json:"last_result"`
	Settings      Settings            `json:"settings"`
	Visuals       Visuals             `json:"visuals"`
	Location      string              `json:"location"`
	Staff         []Employee          `json:"staff"`
	Candidates    []Employee          `json:"candidates"`
	ActiveEvent   *catalogs.GameEvent `json:"active_event"`
}

const (
	StartingMoney   = 50
	StarterStyle    = "Traditional"
	StarterMachine  = "Starter Machine"
	welcomeMessage  = "Welcome to your garage studio. Time to make a mark."
	defaultLocation = "loc_garage"
)

// InitialState is the canonical fresh-game state. It is also the base that
// loaded saves are merged onto.
func InitialState(cats *catalogs.Catalogs, now time.Time) State {
	loc := defaultLocation
	if _, ok := cats.Locations.ByID[loc]; !ok && len(cats.Locations.List) > 0 {
		loc = cats.Locations.List[0].ID
	}
	idle := cats.Position(catalogs.PosIdle)
	return State{
		Resources: Resources{Money: StartingMoney},
		Unlocks: Unlocks{
			Styles:    []string{StarterStyle},
			Equipment: []string{StarterMachine},
			Research:  []string{},
		},
		History: []LogEntry{{
			ID:        "init",
			Timestamp: now.UnixMilli(),
			Message:   welcomeMessage,
			Type:      LogInfo,
		}},
		Settings: Settings{SoundVolume: 0.5, MusicVolume: 0.5},
		Visuals: Visuals{
			Character: Character{X: idle.X, Y: idle.Y, Facing: idle.Facing, State: CharIdle},
			Effects:   []VisualEffect{},
		},
		Location:   loc,
		Staff:      []Employee{},
		Candidates: []Employee{},
	}
}

// Clone returns a deep copy; nothing in the result aliases s.
func (s State) Clone() State {
	out := s
	out.Unlocks = Unlocks{
		Styles:    cloneSlice(s.Unlocks.Styles),
		Equipment: cloneSlice(s.Unlocks.Equipment),
		Research:  cloneSlice(s.Unlocks.Research),
	}
	if s.CurrentAction != nil {
		a := s.CurrentAction.clone()
		out.CurrentAction = &a
	}
	out.History = cloneSlice(s.History)
	if s.LastResult != nil {
		r := *s.LastResult
		out.LastResult = &r
	}
	out.Visuals.Effects = cloneSlice(s.Visuals.Effects)
	out.Staff = cloneSlice(s.Staff)
	out.Candidates = cloneSlice(s.Candidates)
	if s.ActiveEvent != nil {
		ev := *s.ActiveEvent
		out.ActiveEvent = &ev
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func contains(set []string, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

// addUnique appends id unless already present.
func addUnique(set []string, id string) []string {
	if contains(set, id) {
		return set
	}
	return append(set, id)
}

// pushHistory prepends an entry and trims to limit, dropping the oldest.
func pushHistory(h []LogEntry, e LogEntry, limit int) []LogEntry {
	out := make([]LogEntry, 0, min(len(h)+1, limit))
	out = append(out, e)
	for _, old := range h {
		if len(out) >= limit {
			break
		}
		out = append(out, old)
	}
	return out
}

func newLogEntry(id string, now time.Time, typ LogType, msg string) LogEntry {
	return LogEntry{
		ID:        id,
		Timestamp: now.UnixMilli(),
		Message:   msg,
		Type:      typ,
	}
}
