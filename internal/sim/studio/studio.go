package studio

import (
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"inktycoon.dev/internal/sim/catalogs"
	"inktycoon.dev/internal/sim/clock"
	"inktycoon.dev/internal/sim/tuning"
)

var ErrStopped = errors.New("studio stopped")

// SaveSink receives state snapshots for persistence. Implementations must not
// block: the loop calls them between ticks.
type SaveSink interface {
	Enqueue(st State) bool
	Delete() bool
}

// TickLogger records one entry per tick.
type TickLogger interface {
	WriteTick(e TickLogEntry) error
}

type IntentLogger interface {
	WriteIntent(e IntentLogEntry) error
}

type Config struct {
	Tuning tuning.Tuning
	Seed   uint64

	// Optional collaborators. Nil values get defaults.
	Clock   clock.Clock
	Rand    Rand
	IDs     io.Reader // entity id bytes; defaults to NewIDSource(Seed)
	Logger  *log.Logger
	Saves   SaveSink
	Ticks   TickLogger
	Intents IntentLogger
}

func (c *Config) applyDefaults() {
	c.Tuning.ApplyDefaults()
	if c.Clock == nil {
		c.Clock = clock.RealClock{}
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano())
	}
	if c.Rand == nil {
		c.Rand = NewRand(c.Seed)
	}
	if c.IDs == nil {
		c.IDs = NewIDSource(c.Seed)
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard, "", 0)
	}
}

// Studio is a single-threaded authoritative simulation of one tattoo studio.
// State is only touched from the loop goroutine (Run) or, before Run starts,
// from the constructing goroutine.
type Studio struct {
	cfg  Config
	cats *catalogs.Catalogs
	tune tuning.Tuning
	rng  Rand
	ids  io.Reader
	clk  clock.Clock
	log  *log.Logger

	state      State
	lastSaveAt int64 // played_time of the last handed-off save

	inbox       chan intentReq
	snapReq     chan snapshotReq
	subscribe   chan subscribeReq
	unsubscribe chan int
	stop        chan struct{}
	stopOnce    sync.Once
	done        chan struct{}

	subs    map[int]chan State
	nextSub int

	metrics      atomic.Value // Metrics
	ticks        atomic.Uint64
	savesQueued  atomic.Uint64
	savesDropped atomic.Uint64
}

func New(cfg Config, cats *catalogs.Catalogs) (*Studio, error) {
	if cats == nil {
		return nil, errors.New("studio: nil catalogs")
	}
	cfg.applyDefaults()
	s := &Studio{
		cfg:         cfg,
		cats:        cats,
		tune:        cfg.Tuning,
		rng:         cfg.Rand,
		ids:         cfg.IDs,
		clk:         cfg.Clock,
		log:         cfg.Logger,
		inbox:       make(chan intentReq, 64),
		snapReq:     make(chan snapshotReq, 16),
		subscribe:   make(chan subscribeReq, 16),
		unsubscribe: make(chan int, 16),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		subs:        map[int]chan State{},
	}
	s.state = InitialState(cats, s.clk.Now())
	s.publishMetrics(0)
	return s, nil
}

// Restore replaces the current state, e.g. with a loaded save. Call before Run.
func (s *Studio) Restore(st State) {
	s.state = st.Clone()
	s.lastSaveAt = st.Stats.PlayedTime
	s.ids = NewIDSource(restoreIDSeed(s.cfg.Seed, st))
	s.publishMetrics(0)
}

// State returns a deep copy of the current state. Only safe from the loop
// goroutine or before Run; other goroutines use Snapshot.
func (s *Studio) State() State { return s.state.Clone() }

func (s *Studio) Catalogs() *catalogs.Catalogs { return s.cats }

func (s *Studio) Tuning() tuning.Tuning { return s.tune }
