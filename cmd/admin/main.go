package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"inktycoon.dev/internal/persistence/kvstore"
	"inktycoon.dev/internal/persistence/save"
	"inktycoon.dev/internal/sim/catalogs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	var err error
	switch args[0] {
	case "show":
		err = showCmd(args[1:], stdout)
	case "export":
		err = exportCmd(args[1:], stdout)
	case "reset":
		err = resetCmd(args[1:], stdout)
	case "events":
		err = eventsCmd(args[1:], stdout)
	case "state":
		err = stateCmd(args[1:], stdout)
	case "save":
		err = saveCmd(args[1:], stdout)
	case "ticks":
		err = ticksCmd(args[1:], stdout)
	case "catalogs":
		err = catalogsCmd(args[1:], stdout)
	default:
		usage(stderr)
		return 2
	}
	var ue usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue):
		fmt.Fprintln(stderr, err)
		return 2
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: admin <show|export|reset|events|state|save|ticks|catalogs> [flags]")
}

type usageError string

func (e usageError) Error() string { return string(e) }

// slotFlags are shared by the commands that open a save slot directly.
type slotFlags struct {
	dataDir *string
	driver  *string
	key     *string
}

func addSlotFlags(fs *flag.FlagSet) slotFlags {
	return slotFlags{
		dataDir: fs.String("data", "./data", "runtime data directory"),
		driver:  fs.String("store", "fs", "save store driver: fs|sqlite|s3"),
		key:     fs.String("key", save.DefaultKey, "save slot key"),
	}
}

func (f slotFlags) open() (kvstore.Store, *save.Gateway, error) {
	opts := kvstore.Options{Driver: kvstore.Driver(*f.driver), Dir: *f.dataDir}
	if opts.Driver == kvstore.DriverS3 {
		e, err := kvstore.ParseS3Env()
		if err != nil {
			return nil, nil, err
		}
		e.Apply(&opts)
	}
	store, err := kvstore.Open(opts)
	if err != nil {
		return nil, nil, err
	}
	cats, err := catalogs.Default()
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	gw := save.NewGateway(store, cats, save.GatewayConfig{
		Key:    *f.key,
		Logger: log.New(os.Stderr, "[admin] ", 0),
	})
	return store, gw, nil
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func showCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	sf := addSlotFlags(fs)
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	store, gw, err := sf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := cmdContext()
	defer cancel()
	st, found := gw.Load(ctx)
	if !found {
		fmt.Fprintf(out, "no save at %s (%s)\n", gw.Key(), store.Driver())
		return nil
	}
	fmt.Fprintf(out, "slot:        %s (%s)\n", gw.Key(), store.Driver())
	fmt.Fprintf(out, "played:      %s\n", time.Duration(st.Stats.PlayedTime)*time.Second)
	fmt.Fprintf(out, "money:       %.0f\n", st.Resources.Money)
	fmt.Fprintf(out, "reputation:  %.0f\n", st.Resources.Reputation)
	fmt.Fprintf(out, "experience:  %.0f\n", st.Resources.Experience)
	fmt.Fprintf(out, "tattoos:     %d\n", st.Stats.TattoosDone)
	fmt.Fprintf(out, "location:    %s\n", st.Location)
	fmt.Fprintf(out, "staff:       %d (candidates %d)\n", len(st.Staff), len(st.Candidates))
	fmt.Fprintf(out, "styles:      %s\n", strings.Join(st.Unlocks.Styles, ", "))
	if st.CurrentAction != nil {
		fmt.Fprintf(out, "action:      %s %q\n", st.CurrentAction.Kind, st.CurrentAction.Name)
	}
	return nil
}

// exportCmd writes the slot's plain JSON document, decompressing if needed.
func exportCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	sf := addSlotFlags(fs)
	outPath := fs.String("out", "", "output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	store, gw, err := sf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := cmdContext()
	defer cancel()
	blob, err := store.Get(ctx, gw.Key())
	if err != nil {
		return fmt.Errorf("read %s: %w", gw.Key(), err)
	}
	raw, err := save.DecodeJSON(blob)
	if err != nil {
		return err
	}
	if *outPath == "" {
		_, err = fmt.Fprintln(out, string(raw))
		return err
	}
	if err := os.WriteFile(*outPath, raw, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s (%d bytes)\n", *outPath, len(raw))
	return nil
}

func resetCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	sf := addSlotFlags(fs)
	yes := fs.Bool("yes", false, "confirm deletion of the save slot")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if !*yes {
		return usageError("refusing to reset without -yes")
	}
	store, gw, err := sf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := cmdContext()
	defer cancel()
	if _, err := gw.Reset(ctx, *yes); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %s (%s)\n", gw.Key(), store.Driver())
	return nil
}

// eventsCmd prints the put/delete audit trail kept by the sqlite driver.
func eventsCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	sf := addSlotFlags(fs)
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	store, gw, err := sf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	db, ok := store.(*kvstore.SQLite)
	if !ok {
		return usageError(fmt.Sprintf("events needs -store sqlite (got %s)", store.Driver()))
	}
	ctx, cancel := cmdContext()
	defer cancel()
	evs, err := db.Events(ctx, gw.Key())
	if err != nil {
		return err
	}
	for _, ev := range evs {
		fmt.Fprintf(out, "%s\t%s\t%d\t%.12s\n", ev.At.Format(time.RFC3339), ev.Kind, ev.Size, ev.SHA256)
	}
	return nil
}
