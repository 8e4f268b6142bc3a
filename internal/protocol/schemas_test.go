package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"inktycoon.dev/internal/protocol"
	"inktycoon.dev/internal/sim/catalogs"
	"inktycoon.dev/internal/sim/studio"
	"inktycoon.dev/internal/sim/tuning"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	s, err := jsonschema.Compile(filepath.Join("schemas", name))
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// roundTrip turns a Go message into the generic JSON value the schema sees.
func roundTrip(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestSchemas_ValidateSamples(t *testing.T) {
	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	var hello any
	_ = json.Unmarshal([]byte(`{"type":"HELLO","protocol_version":"1.0","client_name":"web","max_queue":4}`), &hello)
	validate(compile(t, "hello.schema.json"), hello)

	validate(compile(t, "intent.schema.json"), roundTrip(t, protocol.IntentMsg{
		Type:            protocol.TypeIntent,
		ProtocolVersion: protocol.Version,
		ID:              "r1",
		Kind:            string(studio.IntentStartTattoo),
		Design:          &protocol.DesignMsg{TopicID: "skull", StyleID: "Traditional", Complexity: 2},
	}))
	validate(compile(t, "result.schema.json"), roundTrip(t, protocol.NewResult("r1", false, protocol.ErrRejected, "busy", 12)))
}

func TestSchemas_IntentRequiresFieldsByKind(t *testing.T) {
	s := compile(t, "intent.schema.json")
	for _, raw := range []string{
		`{"type":"INTENT","protocol_version":"1.0","id":"a","kind":"START_TATTOO"}`,
		`{"type":"INTENT","protocol_version":"1.0","id":"b","kind":"BUY_ITEM"}`,
		`{"type":"INTENT","protocol_version":"1.0","id":"c","kind":"JUGGLE"}`,
	} {
		var v any
		_ = json.Unmarshal([]byte(raw), &v)
		if err := s.Validate(v); err == nil {
			t.Fatalf("expected %s to be rejected", raw)
		}
	}
}

func TestSchemas_RealStudioMessages(t *testing.T) {
	cats, err := catalogs.Default()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	s, err := studio.New(studio.Config{Tuning: tuning.Defaults(), Seed: 1}, cats)
	if err != nil {
		t.Fatalf("studio: %v", err)
	}
	s.StartTattoo(studio.TattooDesign{TopicID: "skull", StyleID: "Traditional"})
	for i := 0; i < 3; i++ {
		s.Tick()
	}
	st := s.State()
	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		PlayedTime:      st.Stats.PlayedTime,
		State:           raw,
	}
	if err := compile(t, "state.schema.json").Validate(roundTrip(t, msg)); err != nil {
		t.Fatalf("state: %v", err)
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "S1",
		Params:          protocol.StudioParams{TickIntervalMs: 1000, TickSeconds: 1, DaySeconds: 300, AutosaveSeconds: 30},
		Catalogs: protocol.CatalogDigests{
			Topics: cats.Topics.Digest, Styles: cats.Styles.Digest, Research: cats.Research.Digest,
			Shop: cats.Shop.Digest, Locations: cats.Locations.Digest, Events: cats.Events.Digest,
			Scene: cats.SceneDigest, Combined: cats.Digest(),
		},
	}
	if err := compile(t, "welcome.schema.json").Validate(roundTrip(t, welcome)); err != nil {
		t.Fatalf("welcome: %v", err)
	}

	data, _ := json.Marshal(cats.Shop.List)
	catMsg := protocol.CatalogMsg{
		Type: protocol.TypeCatalog, ProtocolVersion: protocol.Version,
		Name: "shop", Digest: cats.Shop.Digest, Data: data,
	}
	if err := compile(t, "catalog.schema.json").Validate(roundTrip(t, catMsg)); err != nil {
		t.Fatalf("catalog: %v", err)
	}
}

func TestSchemas_EmbeddedMatchesFiles(t *testing.T) {
	for _, name := range []string{"hello", "welcome", "catalog", "state", "intent", "result"} {
		if _, err := protocol.Schemas.ReadFile("schemas/" + name + ".schema.json"); err != nil {
			t.Fatalf("embedded %s: %v", name, err)
		}
	}
}
