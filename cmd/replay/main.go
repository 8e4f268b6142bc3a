package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strings"

	"inktycoon.dev/configs"
	persistlog "inktycoon.dev/internal/persistence/log"
	"inktycoon.dev/internal/sim/catalogs"
	"inktycoon.dev/internal/sim/studio"
	"inktycoon.dev/internal/sim/tuning"
)

func main() {
	var (
		dataDir    = flag.String("data", "./data", "runtime data directory holding intents/")
		seed       = flag.Uint64("seed", 0, "seed the server ran with (required)")
		catalogDir = flag.String("catalogs", "", "catalog directory (default: embedded catalogs)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: embedded tuning)")
		toTime     = flag.Int64("to_played_time", 0, "stop after this played time in seconds (optional)")
	)
	flag.Parse()

	if *seed == 0 {
		fmt.Fprintln(os.Stderr, "missing -seed")
		os.Exit(2)
	}
	cats, err := loadCatalogs(*catalogDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tune, err := loadTuning(*tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}

	rep, err := replay(*dataDir, studio.Config{Tuning: tune, Seed: *seed}, cats, *toTime)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	report(os.Stdout, rep)
}

// acceptSink stands in for the save writer; replay never persists.
type acceptSink struct{}

func (acceptSink) Enqueue(studio.State) bool { return true }
func (acceptSink) Delete() bool              { return true }

type result struct {
	Checked    int
	PlayedTime int64
	Final      studio.State
}

var errStop = errors.New("stop")

// replay rebuilds a fresh studio from cfg and feeds it the intent log,
// ticking up to each entry's played time before applying it. The outcome
// and the money after each intent must match what was recorded.
func replay(dataDir string, cfg studio.Config, cats *catalogs.Catalogs, toTime int64) (result, error) {
	cfg.Saves = acceptSink{}
	s, err := studio.New(cfg, cats)
	if err != nil {
		return result{}, err
	}

	var rep result
	err = persistlog.ReadIntents(dataDir, func(e studio.IntentLogEntry) error {
		if toTime != 0 && e.PlayedTime > toTime {
			return errStop
		}
		for s.State().Stats.PlayedTime < e.PlayedTime {
			s.Tick()
		}
		if got := s.State().Stats.PlayedTime; got != e.PlayedTime {
			return fmt.Errorf("entry %d: played_time %d not reachable (studio at %d)", rep.Checked+1, e.PlayedTime, got)
		}
		res, err := s.Apply(e.Intent())
		if err != nil {
			return fmt.Errorf("entry %d %s: %w", rep.Checked+1, e.Kind, err)
		}
		rep.Checked++
		if res.OK != e.OK {
			return fmt.Errorf("entry %d %s at %ds: ok=%v want %v", rep.Checked, e.Kind, e.PlayedTime, res.OK, e.OK)
		}
		if money := s.State().Resources.Money; math.Abs(money-e.Money) > 1e-6 {
			return fmt.Errorf("entry %d %s at %ds: money=%.2f want %.2f", rep.Checked, e.Kind, e.PlayedTime, money, e.Money)
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return rep, err
	}
	rep.Final = s.State()
	rep.PlayedTime = rep.Final.Stats.PlayedTime
	return rep, nil
}

func report(w io.Writer, rep result) {
	st := rep.Final
	fmt.Fprintf(w, "replay ok: checked=%d intents played_time=%ds money=%.0f reputation=%.0f tattoos=%d staff=%d\n",
		rep.Checked, rep.PlayedTime, st.Resources.Money, st.Resources.Reputation, st.Stats.TattoosDone, len(st.Staff))
}

func loadCatalogs(dir string) (*catalogs.Catalogs, error) {
	if strings.TrimSpace(dir) == "" {
		return catalogs.Default()
	}
	return catalogs.Load(dir)
}

func loadTuning(path string) (tuning.Tuning, error) {
	if strings.TrimSpace(path) != "" {
		return tuning.Load(path)
	}
	raw, err := fs.ReadFile(configs.FS, "tuning.yaml")
	if err != nil {
		return tuning.Tuning{}, err
	}
	return tuning.Parse(raw)
}
