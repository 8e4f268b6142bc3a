package studio

import (
	"fmt"
	"math"
)

const (
	colorMoney = "orange"
	colorTech  = "#4ade80"
	colorBug   = "red"

	failRollBelow = 4
	critRollAbove = 12
)

// passiveIncome runs one work roll per staff member and credits the total.
// pass numbers the income boundaries crossed within one tick.
func (s *Studio) passiveIncome(next *State, nowMs int64, pass int) (earned float64, events int) {
	slots := s.cats.Scene.StaffSlots
	var fresh []VisualEffect
	for i, emp := range next.Staff {
		chance := math.Min(math.Max(emp.Stats.Speed*0.1, 0), 1)
		if s.rng.Float64() >= chance {
			continue
		}
		events++
		roll := s.rng.Float64()*10 + emp.Stats.Technical*0.5
		earnings := math.Floor(emp.Stats.Technical * 5)

		fx := VisualEffect{
			ID:        fmt.Sprintf("%d-%d-%d", nowMs, pass, i),
			Type:      EffectMoney,
			Color:     colorMoney,
			CreatedAt: nowMs,
		}
		if len(slots) > 0 {
			slot := slots[i%len(slots)]
			fx.X, fx.Y = slot.X, slot.Y
		}
		switch {
		case roll < failRollBelow:
			earnings = 0
			fx.Type, fx.Color, fx.Value = EffectBug, colorBug, "Oops"
		case roll > critRollAbove:
			earnings *= 2
			fx.Type, fx.Color = EffectTech, colorTech
			fx.Value = fmt.Sprintf("+$%.0f", earnings)
		default:
			fx.Value = fmt.Sprintf("+$%.0f", earnings)
		}
		earned += earnings
		fresh = append(fresh, fx)
	}
	next.Resources.Money += earned
	next.Visuals.Effects = append(s.liveEffects(next.Visuals.Effects, nowMs), fresh...)
	return earned, events
}

// liveEffects drops markers older than the effect TTL.
func (s *Studio) liveEffects(fx []VisualEffect, nowMs int64) []VisualEffect {
	out := fx[:0:0]
	for _, e := range fx {
		if nowMs-e.CreatedAt < s.tune.Visuals.EffectTTLMs {
			out = append(out, e)
		}
	}
	return out
}

// payroll debits all salaries regardless of balance.
func (s *Studio) payroll(next *State) float64 {
	if len(next.Staff) == 0 {
		return 0
	}
	total := 0.0
	for _, e := range next.Staff {
		total += e.Salary
	}
	if next.Resources.Money < total {
		s.addHistory(next, LogWarning, fmt.Sprintf("Wages paid (Overdraft): -$%.0f", total))
	} else {
		s.addHistory(next, LogInfo, fmt.Sprintf("Paid staff salaries: $%.0f", total))
	}
	next.Resources.Money -= total
	return total
}

// recruit appends one generated candidate scaled to reputation.
func (s *Studio) recruit(next *State) Employee {
	level := int(math.Floor(next.Resources.Reputation / s.tune.Staff.RepPerLevel))
	if level < 1 {
		level = 1
	}
	stat := func() float64 { return float64(20 + level*10 + s.rng.IntN(20)) }
	emp := Employee{
		ID:    s.newID(),
		Level: level,
		Stats: EmployeeStats{
			Speed:     stat(),
			Technical: stat(),
			Artistic:  stat(),
		},
		Salary: s.tune.Staff.SalaryPerLevel * float64(level),
	}
	emp.Name = fmt.Sprintf("Artist %d", s.rng.IntN(1000))
	next.Candidates = append(next.Candidates, emp)
	return emp
}
