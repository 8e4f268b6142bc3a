package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inktycoon.dev/internal/persistence/kvstore"
	"inktycoon.dev/internal/persistence/save"
	"inktycoon.dev/internal/sim/catalogs"
	"inktycoon.dev/internal/sim/studio"
)

func seedSlot(t *testing.T, dir string, driver kvstore.Driver) {
	t.Helper()
	store, err := kvstore.Open(kvstore.Options{Driver: driver, Dir: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	cats, err := catalogs.Default()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	st := studio.InitialState(cats, time.Unix(1700000000, 0))
	st.Resources.Money = 1234
	st.Stats.PlayedTime = 90
	if err := save.NewGateway(store, cats, save.GatewayConfig{}).Save(context.Background(), st); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func runCmd(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestShowExportReset_FS(t *testing.T) {
	dir := t.TempDir()
	seedSlot(t, dir, kvstore.DriverFS)

	code, out, errOut := runCmd("show", "-data", dir)
	if code != 0 {
		t.Fatalf("show: code %d stderr %s", code, errOut)
	}
	if !strings.Contains(out, "money:       1234") || !strings.Contains(out, "played:      1m30s") {
		t.Fatalf("show output:\n%s", out)
	}

	code, out, _ = runCmd("export", "-data", dir)
	if code != 0 || !strings.Contains(out, `"money":1234`) {
		t.Fatalf("export: code %d out %s", code, out)
	}

	code, _, errOut = runCmd("reset", "-data", dir)
	if code != 2 || !strings.Contains(errOut, "-yes") {
		t.Fatalf("reset without -yes: code %d stderr %s", code, errOut)
	}

	code, _, errOut = runCmd("reset", "-data", dir, "-yes")
	if code != 0 {
		t.Fatalf("reset: code %d stderr %s", code, errOut)
	}
	_, out, _ = runCmd("show", "-data", dir)
	if !strings.HasPrefix(out, "no save") {
		t.Fatalf("show after reset: %s", out)
	}
}

func TestEvents_SQLite(t *testing.T) {
	dir := t.TempDir()
	seedSlot(t, dir, kvstore.DriverSQLite)
	if code, _, errOut := runCmd("reset", "-data", dir, "-store", "sqlite", "-yes"); code != 0 {
		t.Fatalf("reset: %s", errOut)
	}
	code, out, errOut := runCmd("events", "-data", dir, "-store", "sqlite")
	if code != 0 {
		t.Fatalf("events: code %d stderr %s", code, errOut)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "\tput\t") || !strings.Contains(lines[1], "\tdelete\t") {
		t.Fatalf("events output:\n%s", out)
	}

	if code, _, _ := runCmd("events", "-data", dir); code != 2 {
		t.Fatalf("events on fs: got code %d want 2", code)
	}
}

func TestRemoteSave(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/admin/v1/save" {
			rw.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = rw.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	code, out, _ := runCmd("save", "-url", srv.URL)
	if code != 0 || !strings.Contains(out, `"ok":true`) {
		t.Fatalf("save: code %d out %s", code, out)
	}
	if code, _, _ := runCmd("state", "-url", srv.URL); code != 1 {
		t.Fatalf("state on 404: got code %d want 1", code)
	}
}

func TestUnknownCommand(t *testing.T) {
	if code, _, _ := runCmd("frobnicate"); code != 2 {
		t.Fatalf("got %d want 2", code)
	}
}

func TestOpenS3_ReadsEnv(t *testing.T) {
	t.Setenv("INK_S3_ENDPOINT", "http://127.0.0.1:1")
	t.Setenv("INK_S3_BUCKET", "")
	t.Setenv("INK_S3_ACCESS_KEY_ID", "AK")
	t.Setenv("INK_S3_SECRET_ACCESS_KEY", "SECRET")

	code, _, errOut := runCmd("show", "-store", "s3")
	if code != 1 || !strings.Contains(errOut, "required") {
		t.Fatalf("missing bucket: code %d stderr %s", code, errOut)
	}
}
