package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the simulation constants. All durations on the sim side are in
// simulated seconds or milliseconds; only TickIntervalMs is wall time.
type Tuning struct {
	TickIntervalMs int `yaml:"tick_interval_ms"`
	TickSeconds    int `yaml:"tick_seconds"`

	DaySeconds      int `yaml:"day_seconds"`
	AutosaveSeconds int `yaml:"autosave_seconds"`

	Tattoo  TattooTuning  `yaml:"tattoo"`
	Staff   StaffTuning   `yaml:"staff"`
	Events  EventTuning   `yaml:"events"`
	History HistoryTuning `yaml:"history"`
	Visuals VisualsTuning `yaml:"visuals"`
}

type TattooTuning struct {
	SupplyCost  float64 `yaml:"supply_cost"`
	DurationMs  int64   `yaml:"duration_ms"`
	BaseReward  float64 `yaml:"base_reward"`
	MinQuality  int     `yaml:"min_quality"`
	MaxQuality  int     `yaml:"max_quality"`
	BaseXP      float64 `yaml:"base_xp"`
	XPPerPoints float64 `yaml:"xp_quality_divisor"`
}

type StaffTuning struct {
	IncomeEverySeconds  int     `yaml:"income_every_seconds"`
	RecruitEverySeconds int     `yaml:"recruit_every_seconds"`
	MaxCandidates       int     `yaml:"max_candidates"`
	RepPerLevel         float64 `yaml:"rep_per_level"`
	SalaryPerLevel      float64 `yaml:"salary_per_level"`
}

type EventTuning struct {
	CheckEverySeconds int     `yaml:"check_every_seconds"`
	MinPlayedSeconds  int64   `yaml:"min_played_seconds"`
	Chance            float64 `yaml:"chance"`
}

type HistoryTuning struct {
	Cap int `yaml:"cap"`
}

type VisualsTuning struct {
	EffectTTLMs int64 `yaml:"effect_ttl_ms"`
}

func Defaults() Tuning {
	t := Tuning{}
	t.ApplyDefaults()
	return t
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.ApplyDefaults()
	return t, nil
}

// Parse decodes tuning yaml from memory (embedded defaults).
func Parse(raw []byte) (Tuning, error) {
	var t Tuning
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.ApplyDefaults()
	return t, nil
}

func (t *Tuning) ApplyDefaults() {
	if t.TickIntervalMs <= 0 {
		t.TickIntervalMs = 1000
	}
	if t.TickSeconds <= 0 {
		t.TickSeconds = 1
	}
	if t.DaySeconds <= 0 {
		t.DaySeconds = 300
	}
	if t.AutosaveSeconds <= 0 {
		t.AutosaveSeconds = 30
	}
	if t.Tattoo.SupplyCost <= 0 {
		t.Tattoo.SupplyCost = 10
	}
	if t.Tattoo.DurationMs <= 0 {
		t.Tattoo.DurationMs = 5000
	}
	if t.Tattoo.BaseReward <= 0 {
		t.Tattoo.BaseReward = 100
	}
	if t.Tattoo.MinQuality <= 0 {
		t.Tattoo.MinQuality = 50
	}
	if t.Tattoo.MaxQuality < t.Tattoo.MinQuality {
		t.Tattoo.MaxQuality = 100
	}
	if t.Tattoo.BaseXP <= 0 {
		t.Tattoo.BaseXP = 10
	}
	if t.Tattoo.XPPerPoints <= 0 {
		t.Tattoo.XPPerPoints = 5
	}
	if t.Staff.IncomeEverySeconds <= 0 {
		t.Staff.IncomeEverySeconds = 1
	}
	if t.Staff.RecruitEverySeconds <= 0 {
		t.Staff.RecruitEverySeconds = 120
	}
	if t.Staff.MaxCandidates <= 0 {
		t.Staff.MaxCandidates = 3
	}
	if t.Staff.RepPerLevel <= 0 {
		t.Staff.RepPerLevel = 200
	}
	if t.Staff.SalaryPerLevel <= 0 {
		t.Staff.SalaryPerLevel = 50
	}
	if t.Events.CheckEverySeconds <= 0 {
		t.Events.CheckEverySeconds = 60
	}
	if t.Events.MinPlayedSeconds <= 0 {
		t.Events.MinPlayedSeconds = 60
	}
	if t.Events.Chance <= 0 {
		t.Events.Chance = 0.2
	}
	if t.History.Cap <= 0 {
		t.History.Cap = 50
	}
	if t.Visuals.EffectTTLMs <= 0 {
		t.Visuals.EffectTTLMs = 2000
	}
}
