package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"inktycoon.dev/internal/sim/studio"
)

// Files lists <prefix>-*.jsonl.zst in dir, oldest hour first.
func Files(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ".jsonl.zst") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ReadJSONL decodes every line of a compressed JSONL file into a T.
func ReadJSONL[T any](path string, fn func(T) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		var v T
		if err := json.Unmarshal(sc.Bytes(), &v); err != nil {
			return fmt.Errorf("%s:%d: %w", filepath.Base(path), line, err)
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ReadIntents walks the intent log under dataDir in write order.
func ReadIntents(dataDir string, fn func(studio.IntentLogEntry) error) error {
	files, err := Files(filepath.Join(dataDir, "intents"), "intents")
	if err != nil {
		return err
	}
	for _, p := range files {
		if err := ReadJSONL(p, fn); err != nil {
			return err
		}
	}
	return nil
}

// ReadTicks walks the tick log under dataDir in write order.
func ReadTicks(dataDir string, fn func(studio.TickLogEntry) error) error {
	files, err := Files(filepath.Join(dataDir, "ticks"), "ticks")
	if err != nil {
		return err
	}
	for _, p := range files {
		if err := ReadJSONL(p, fn); err != nil {
			return err
		}
	}
	return nil
}
