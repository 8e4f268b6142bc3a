package studio

import (
	"testing"
	"time"

	"inktycoon.dev/internal/sim/catalogs"
	"inktycoon.dev/internal/sim/clock"
	"inktycoon.dev/internal/sim/tuning"
)

// scriptRand replays fixed draws. Exhausted queues return "no luck" values:
// 0.99 for Float64 and 0 for IntN.
type scriptRand struct {
	floats []float64
	ints   []int
}

func (r *scriptRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}

type memSink struct {
	saved   []State
	deleted int
	full    bool
}

func (m *memSink) Enqueue(st State) bool {
	if m.full {
		return false
	}
	m.saved = append(m.saved, st)
	return true
}

func (m *memSink) Delete() bool {
	m.deleted++
	return true
}

type fixture struct {
	s    *Studio
	rng  *scriptRand
	sink *memSink
	clk  *clock.Fixed
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cats, err := catalogs.Default()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	f := &fixture{
		rng:  &scriptRand{},
		sink: &memSink{},
		clk:  &clock.Fixed{T: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	s, err := New(Config{
		Tuning: tuning.Defaults(),
		Clock:  f.clk,
		Rand:   f.rng,
		Saves:  f.sink,
	}, cats)
	if err != nil {
		t.Fatalf("new studio: %v", err)
	}
	f.s = s
	return f
}

// with mutates the committed state directly for test setup.
func (f *fixture) with(mut func(st *State)) {
	st := f.s.State()
	mut(&st)
	f.s.Restore(st)
}

func (f *fixture) ticks(n int) {
	for i := 0; i < n; i++ {
		f.s.Tick()
	}
}

func skullTraditional() TattooDesign {
	return TattooDesign{
		TopicID:     "skull",
		StyleID:     "Traditional",
		Complexity:  3,
		TargetStats: TargetStats{Line: 90, Shading: 70, Color: 40},
	}
}

func employee(id string, speed, technical, salary float64) Employee {
	return Employee{
		ID:     id,
		Name:   "Artist " + id,
		Level:  1,
		Stats:  EmployeeStats{Speed: speed, Technical: technical, Artistic: 30},
		Salary: salary,
	}
}
