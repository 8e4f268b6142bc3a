package clock

import "time"

// Clock abstracts wall time so audit timestamps are deterministic in tests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// Fixed is a settable clock for tests and offline tools.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }

func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }
