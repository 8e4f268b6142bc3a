package studio

import "testing"

func TestPayroll_OncePerDayBoundary(t *testing.T) {
	f := newFixture(t)
	f.with(func(st *State) {
		st.Stats.PlayedTime = 298
		st.Resources.Money = 100
		st.Staff = []Employee{employee("a", 0, 0, 50)}
	})
	f.ticks(1)
	if got := f.s.State().Resources.Money; got != 100 {
		t.Fatalf("paid early: money %v", got)
	}
	e := f.s.Tick() // played_time 300
	if e.Payroll != 50 {
		t.Fatalf("payroll: got %v want 50", e.Payroll)
	}
	f.ticks(5)
	st := f.s.State()
	if st.Resources.Money != 50 {
		t.Fatalf("money: got %v want 50", st.Resources.Money)
	}
	n := 0
	for _, h := range st.History {
		if h.Message == "Paid staff salaries: $50" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("payroll entries: got %d want 1", n)
	}
}

func TestPayroll_OverdraftGoesNegative(t *testing.T) {
	f := newFixture(t)
	f.with(func(st *State) {
		st.Stats.PlayedTime = 299
		st.Resources.Money = 10
		st.Staff = []Employee{employee("a", 0, 0, 30), employee("b", 0, 0, 20)}
	})
	f.ticks(1)
	st := f.s.State()
	if st.Resources.Money != -40 {
		t.Fatalf("money: got %v want -40", st.Resources.Money)
	}
	if h := st.History[0]; h.Type != LogWarning || h.Message != "Wages paid (Overdraft): -$50" {
		t.Fatalf("history: %+v", h)
	}
}

func TestPayroll_NoStaffNoEntry(t *testing.T) {
	f := newFixture(t)
	f.with(func(st *State) { st.Stats.PlayedTime = 299 })
	f.ticks(1)
	if got := len(f.s.State().History); got != 1 {
		t.Fatalf("history: got %d entries want 1", got)
	}
}

func TestPassiveIncome_Outcomes(t *testing.T) {
	cases := []struct {
		name  string
		roll  float64 // quality roll draw; technical 10 adds 5
		money float64
		fx    string
	}{
		{"normal", 0.5, 50, EffectMoney},   // 5 + 5 = 10
		{"critical", 0.8, 100, EffectTech}, // 8 + 5 = 13
		{"failure", -0.2, 0, EffectBug},    // -2 + 5 = 3
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.with(func(st *State) {
				st.Resources.Money = 0
				st.Staff = []Employee{employee("a", 5, 10, 50)}
			})
			f.rng.floats = []float64{0.1, tc.roll}
			e := f.s.Tick()
			st := f.s.State()
			if st.Resources.Money != tc.money || e.Income != tc.money {
				t.Fatalf("money: got %v want %v", st.Resources.Money, tc.money)
			}
			if len(st.Visuals.Effects) != 1 || st.Visuals.Effects[0].Type != tc.fx {
				t.Fatalf("effects: %+v", st.Visuals.Effects)
			}
			fx := st.Visuals.Effects[0]
			if fx.X != 30 || fx.Y != 55 {
				t.Fatalf("effect not at staff slot: %+v", fx)
			}
		})
	}
}

func TestPassiveIncome_ChanceMissAndEffectExpiry(t *testing.T) {
	f := newFixture(t)
	f.with(func(st *State) {
		st.Resources.Money = 0
		st.Staff = []Employee{employee("a", 5, 10, 50)}
	})
	f.rng.floats = []float64{0.1, 0.5}
	f.ticks(1)
	f.rng.floats = []float64{0.6} // chance 0.5 missed
	f.ticks(1)
	st := f.s.State()
	if st.Resources.Money != 50 {
		t.Fatalf("money: got %v want 50", st.Resources.Money)
	}
	if len(st.Visuals.Effects) != 1 {
		t.Fatalf("effect should survive 1s: %+v", st.Visuals.Effects)
	}
	f.rng.floats = []float64{0.9}
	f.ticks(1)
	if got := len(f.s.State().Visuals.Effects); got != 0 {
		t.Fatalf("effect should expire after 2s: %d left", got)
	}
}

func TestRecruitment_EveryTwoMinutesUpToThree(t *testing.T) {
	f := newFixture(t)
	f.ticks(119)
	if got := len(f.s.State().Candidates); got != 0 {
		t.Fatalf("recruited early: %d", got)
	}
	f.rng.ints = []int{5, 6, 7, 42}
	e := f.s.Tick()
	st := f.s.State()
	if len(st.Candidates) != 1 || len(e.Recruited) != 1 {
		t.Fatalf("candidates: got %d want 1", len(st.Candidates))
	}
	c := st.Candidates[0]
	if c.Level != 1 || c.Salary != 50 || c.Name != "Artist 42" {
		t.Fatalf("candidate: %+v", c)
	}
	if c.Stats.Speed != 35 || c.Stats.Technical != 36 || c.Stats.Artistic != 37 {
		t.Fatalf("candidate stats: %+v", c.Stats)
	}
	f.ticks(480)
	if got := len(f.s.State().Candidates); got != 3 {
		t.Fatalf("candidate cap: got %d want 3", got)
	}
}

func TestRecruitment_LevelScalesWithReputation(t *testing.T) {
	f := newFixture(t)
	f.with(func(st *State) {
		st.Stats.PlayedTime = 119
		st.Resources.Reputation = 450
	})
	f.ticks(1)
	c := f.s.State().Candidates[0]
	if c.Level != 2 || c.Salary != 100 || c.Stats.Speed != 40 {
		t.Fatalf("candidate: %+v", c)
	}
}

func TestHireStaff_AtCapacityWarnsOnce(t *testing.T) {
	f := newFixture(t)
	f.with(func(st *State) { st.Candidates = []Employee{employee("c1", 30, 30, 50)} })
	before := f.s.State()
	f.s.HireStaff("c1")
	after := f.s.State()
	if len(after.Staff) != 0 || len(after.Candidates) != 1 {
		t.Fatalf("hire at capacity changed roster: staff %d candidates %d", len(after.Staff), len(after.Candidates))
	}
	if len(after.History) != len(before.History)+1 {
		t.Fatalf("history: got %d entries want %d", len(after.History), len(before.History)+1)
	}
	if h := after.History[0]; h.Type != LogWarning || h.Message != "Studio is full! Upgrade location to hire more." {
		t.Fatalf("warning: %+v", h)
	}
	if after.Resources != before.Resources {
		t.Fatalf("resources changed")
	}
}

func TestHireAndFire(t *testing.T) {
	f := newFixture(t)
	f.with(func(st *State) {
		st.Location = "loc_studio"
		st.Candidates = []Employee{employee("c1", 30, 30, 50), employee("c2", 30, 30, 50)}
	})
	f.s.HireStaff("ghost")
	if got := len(f.s.State().History); got != 1 {
		t.Fatalf("unknown candidate touched history")
	}
	f.s.HireStaff("c1")
	st := f.s.State()
	if len(st.Staff) != 1 || st.Staff[0].ID != "c1" || len(st.Candidates) != 1 {
		t.Fatalf("roster: %+v / %+v", st.Staff, st.Candidates)
	}
	if st.Staff[0].HiredAt != f.clk.T.UnixMilli() {
		t.Fatalf("hired_at: got %d", st.Staff[0].HiredAt)
	}
	if st.History[0].Message != "You hired Artist c1!" {
		t.Fatalf("history: %q", st.History[0].Message)
	}
	f.s.HireStaff("c2") // capacity 2, player holds one
	if got := len(f.s.State().Staff); got != 1 {
		t.Fatalf("staff: got %d want 1", got)
	}

	f.s.FireStaff("nobody")
	f.s.FireStaff("c1")
	st = f.s.State()
	if len(st.Staff) != 0 || st.History[0].Message != "You fired an employee." {
		t.Fatalf("fire: %+v", st)
	}
}

func TestHistory_CapKeepsNewest(t *testing.T) {
	f := newFixture(t)
	f.with(func(st *State) { st.Candidates = []Employee{employee("c1", 30, 30, 50)} })
	for i := 0; i < 60; i++ {
		f.s.HireStaff("c1")
	}
	h := f.s.State().History
	if len(h) != 50 {
		t.Fatalf("history: got %d want 50", len(h))
	}
	for _, e := range h {
		if e.Message == welcomeMessage {
			t.Fatalf("oldest entry should have been dropped")
		}
	}
}

func TestUpgradeLocation(t *testing.T) {
	f := newFixture(t)
	f.with(func(st *State) { st.Resources.Money = 5000 })
	if f.s.UpgradeLocation("loc_studio") {
		t.Fatalf("reputation 0 should not unlock loc_studio")
	}
	if got := f.s.State().Resources.Money; got != 5000 {
		t.Fatalf("rejected upgrade changed money: %v", got)
	}
	if f.s.UpgradeLocation("loc_garage") {
		t.Fatalf("same location accepted")
	}
	f.with(func(st *State) { st.Resources.Reputation = 100 })
	if !f.s.UpgradeLocation("loc_studio") {
		t.Fatalf("upgrade rejected")
	}
	st := f.s.State()
	if st.Location != "loc_studio" || st.Resources.Money != 3000 {
		t.Fatalf("after upgrade: %s %v", st.Location, st.Resources.Money)
	}
	if st.History[0].Message != "Moved to Private Studio!" {
		t.Fatalf("history: %q", st.History[0].Message)
	}
}

func TestBuyItem(t *testing.T) {
	f := newFixture(t)
	if f.s.BuyItem("decor_neon") {
		t.Fatalf("cannot afford 150 with 50")
	}
	f.with(func(st *State) { st.Resources.Money = 200 })
	if !f.s.BuyItem("decor_neon") {
		t.Fatalf("buy rejected")
	}
	if f.s.BuyItem("decor_neon") {
		t.Fatalf("already owned")
	}
	if f.s.BuyItem("nope") {
		t.Fatalf("unknown item accepted")
	}
	st := f.s.State()
	if st.Resources.Money != 50 || !contains(st.Unlocks.Equipment, "decor_neon") {
		t.Fatalf("after buy: %+v %+v", st.Resources, st.Unlocks)
	}
	if st.History[0].Message != "Purchased Neon Sign" {
		t.Fatalf("history: %q", st.History[0].Message)
	}
}

func TestPassiveIncome_EffectIDsUniqueAcrossPasses(t *testing.T) {
	f := newFixture(t)
	f.s.tune.TickSeconds = 3
	f.with(func(st *State) {
		st.Resources.Money = 0
		st.Staff = []Employee{employee("a", 5, 10, 50)}
	})
	f.rng.floats = []float64{0.1, 0.5, 0.1, 0.5, 0.1, 0.5}
	f.ticks(1)
	fx := f.s.State().Visuals.Effects
	if len(fx) != 3 {
		t.Fatalf("effects: got %d want 3", len(fx))
	}
	seen := map[string]bool{}
	for _, e := range fx {
		if seen[e.ID] {
			t.Fatalf("duplicate effect id %q", e.ID)
		}
		seen[e.ID] = true
	}
}
