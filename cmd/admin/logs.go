package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	persistlog "inktycoon.dev/internal/persistence/log"
	"inktycoon.dev/internal/sim/catalogs"
	"inktycoon.dev/internal/sim/studio"
)

var errDone = errors.New("done")

// ticksCmd prints tick log entries within [from, to] played seconds.
func ticksCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ticks", flag.ContinueOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	from := fs.Int64("from", 0, "first played_time to print")
	to := fs.Int64("to", 0, "last played_time to print (0 = end of log)")
	eventful := fs.Bool("eventful", false, "only ticks where something happened")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if *to > 0 && *to < *from {
		return usageError("-to must not be before -from")
	}

	n := 0
	err := persistlog.ReadTicks(*dataDir, func(e studio.TickLogEntry) error {
		if *to > 0 && e.PlayedTime > *to {
			return errDone
		}
		if e.PlayedTime < *from || (*eventful && quietTick(e)) {
			return nil
		}
		n++
		fmt.Fprintf(out, "%6d\tmoney=%.0f\trep=%.0f%s\n", e.PlayedTime, e.Money, e.Reputation, tickNotes(e))
		return nil
	})
	if err != nil && !errors.Is(err, errDone) && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	fmt.Fprintf(out, "%d ticks\n", n)
	return nil
}

func quietTick(e studio.TickLogEntry) bool {
	return e.Completed == "" && e.IncomeEvents == 0 && e.Payroll == 0 &&
		len(e.Recruited) == 0 && e.EventOffered == "" && !e.Saved
}

func tickNotes(e studio.TickLogEntry) string {
	var b strings.Builder
	if e.Completed != "" {
		fmt.Fprintf(&b, "\tcompleted=%s", e.Completed)
		if e.Quality > 0 {
			fmt.Fprintf(&b, "(q%d)", e.Quality)
		}
	}
	if e.IncomeEvents > 0 {
		fmt.Fprintf(&b, "\tincome=%.0f/%d", e.Income, e.IncomeEvents)
	}
	if e.Payroll > 0 {
		fmt.Fprintf(&b, "\tpayroll=%.0f", e.Payroll)
	}
	if len(e.Recruited) > 0 {
		fmt.Fprintf(&b, "\trecruited=%d", len(e.Recruited))
	}
	if e.EventOffered != "" {
		fmt.Fprintf(&b, "\tevent=%s", e.EventOffered)
	}
	if e.Saved {
		b.WriteString("\tsaved")
	}
	return b.String()
}

// catalogsCmd lists catalog ids per table with their digests.
func catalogsCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("catalogs", flag.ContinueOnError)
	dir := fs.String("dir", "", "catalog directory (default: embedded)")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	cats, err := catalogs.Default()
	if *dir != "" {
		cats, err = catalogs.Load(*dir)
	}
	if err != nil {
		return err
	}
	tables := []struct {
		name, digest string
		ids          []string
	}{
		{"topics", cats.Topics.Digest, catalogs.SortedIDs(cats.Topics.ByID)},
		{"styles", cats.Styles.Digest, catalogs.SortedIDs(cats.Styles.ByID)},
		{"research", cats.Research.Digest, catalogs.SortedIDs(cats.Research.ByID)},
		{"shop", cats.Shop.Digest, catalogs.SortedIDs(cats.Shop.ByID)},
		{"locations", cats.Locations.Digest, catalogs.SortedIDs(cats.Locations.ByID)},
		{"events", cats.Events.Digest, catalogs.SortedIDs(cats.Events.ByID)},
	}
	for _, t := range tables {
		fmt.Fprintf(out, "%-10s %.12s  %s\n", t.name, t.digest, strings.Join(t.ids, " "))
	}
	fmt.Fprintf(out, "combined   %.12s\n", cats.Digest())
	return nil
}
