package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"

	"inktycoon.dev/internal/persistence/save"
	"inktycoon.dev/internal/sim/studio"
)

func testSources() Sources {
	return Sources{
		Studio: func() studio.Metrics {
			return studio.Metrics{
				Ticks: 12, PlayedTime: 12, Money: 77.5, Reputation: 3,
				Staff: 1, Candidates: 2, ActionActive: true, ActionKind: "tattoo",
			}
		},
		Saves:    func() save.WriterStats { return save.WriterStats{SavedTotal: 4, FailedTotal: 1} },
		Sessions: func() int64 { return 2 },
	}
}

func find(families []*dto.MetricFamily, name string, label ...string) (float64, bool) {
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if len(label) == 2 {
				matched := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == label[0] && lp.GetValue() == label[1] {
						matched = true
					}
				}
				if !matched {
					continue
				}
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue(), true
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue(), true
			}
		}
	}
	return 0, false
}

func TestCollector_Gather(t *testing.T) {
	reg := NewRegistry(testSources())
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	checks := []struct {
		name  string
		label []string
		want  float64
	}{
		{"inktycoon_ticks_total", nil, 12},
		{"inktycoon_resource", []string{"resource", "money"}, 77.5},
		{"inktycoon_roster", []string{"kind", "candidates"}, 2},
		{"inktycoon_action_active", []string{"kind", "tattoo"}, 1},
		{"inktycoon_saves_total", []string{"outcome", "failed"}, 1},
		{"inktycoon_ws_sessions", nil, 2},
	}
	for _, c := range checks {
		got, ok := find(families, c.name, c.label...)
		if !ok {
			t.Fatalf("%s %v: missing", c.name, c.label)
		}
		if got != c.want {
			t.Fatalf("%s %v: got %v want %v", c.name, c.label, got, c.want)
		}
	}
	if _, ok := find(families, "inktycoon_event_offered"); ok {
		t.Fatalf("event_offered should be absent without an offer")
	}
}

func TestHandler_Exposition(t *testing.T) {
	srv := httptest.NewServer(Handler(NewRegistry(testSources())))
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), `inktycoon_resource{resource="money"} 77.5`) {
		t.Fatalf("exposition missing money sample:\n%s", b)
	}
}
