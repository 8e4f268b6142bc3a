package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"inktycoon.dev/internal/protocol"
	"inktycoon.dev/internal/sim/catalogs"
	"inktycoon.dev/internal/sim/studio"
	"inktycoon.dev/internal/sim/tuning"
)

func startStudio(t *testing.T) *studio.Studio {
	t.Helper()
	cats, err := catalogs.Default()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	tune := tuning.Defaults()
	tune.TickIntervalMs = 3_600_000
	s, err := studio.New(studio.Config{Tuning: tune, Seed: 3}, cats)
	if err != nil {
		t.Fatalf("studio: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Run(ctx) }()
	t.Cleanup(cancel)
	return s
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) (protocol.BaseMessage, []byte) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	base, err := protocol.DecodeBase(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return base, b
}

// readResult skips STATE pushes until the next RESULT.
func readResult(t *testing.T, conn *websocket.Conn) protocol.ResultMsg {
	t.Helper()
	for {
		base, b := readMsg(t, conn)
		if base.Type != protocol.TypeResult {
			continue
		}
		var res protocol.ResultMsg
		if err := json.Unmarshal(b, &res); err != nil {
			t.Fatalf("result: %v", err)
		}
		return res
	}
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestServer_HandshakeAndIntents(t *testing.T) {
	s := startStudio(t)
	srv := httptest.NewServer(NewServer(s, Params{TickIntervalMs: 1000, TickSeconds: 1, DaySeconds: 300, AutosaveSeconds: 30}, nil).Handler())
	defer srv.Close()
	conn := dial(t, srv)

	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "test"})

	base, b := readMsg(t, conn)
	if base.Type != protocol.TypeWelcome {
		t.Fatalf("first message: got %s want WELCOME", base.Type)
	}
	var welcome protocol.WelcomeMsg
	_ = json.Unmarshal(b, &welcome)
	if welcome.SessionID == "" || welcome.Catalogs.Combined != s.Catalogs().Digest() {
		t.Fatalf("welcome: %+v", welcome)
	}
	names := map[string]bool{}
	for i := 0; i < 7; i++ {
		base, b := readMsg(t, conn)
		if base.Type != protocol.TypeCatalog {
			t.Fatalf("catalog %d: got %s", i, base.Type)
		}
		var c protocol.CatalogMsg
		_ = json.Unmarshal(b, &c)
		names[c.Name] = true
	}
	if len(names) != 7 || !names["shop"] || !names["scene"] {
		t.Fatalf("catalog names: %v", names)
	}

	base, b = readMsg(t, conn)
	if base.Type != protocol.TypeState {
		t.Fatalf("initial state: got %s", base.Type)
	}
	var sm protocol.StateMsg
	_ = json.Unmarshal(b, &sm)
	var st studio.State
	if err := json.Unmarshal(sm.State, &st); err != nil || st.Resources.Money != 50 {
		t.Fatalf("state payload: %v %+v", err, st.Resources)
	}

	design := &protocol.DesignMsg{TopicID: "skull", StyleID: "Traditional", Complexity: 1}
	send(t, conn, protocol.IntentMsg{Type: protocol.TypeIntent, ProtocolVersion: protocol.Version, ID: "1", Kind: "START_TATTOO", Design: design})
	if res := readResult(t, conn); !res.OK || res.ID != "1" {
		t.Fatalf("start: %+v", res)
	}
	send(t, conn, protocol.IntentMsg{Type: protocol.TypeIntent, ProtocolVersion: protocol.Version, ID: "2", Kind: "START_TATTOO", Design: design})
	if res := readResult(t, conn); res.OK || res.Code != protocol.ErrRejected {
		t.Fatalf("busy start: %+v", res)
	}
	send(t, conn, protocol.IntentMsg{Type: protocol.TypeIntent, ProtocolVersion: protocol.Version, ID: "3", Kind: "RESET_GAME"})
	if res := readResult(t, conn); res.Code != protocol.ErrConfirmRequired {
		t.Fatalf("reset: %+v", res)
	}
	send(t, conn, protocol.IntentMsg{Type: protocol.TypeIntent, ProtocolVersion: protocol.Version, ID: "4", Kind: "BUY_ITEM"})
	if res := readResult(t, conn); res.Code != protocol.ErrBadRequest {
		t.Fatalf("missing target: %+v", res)
	}
	send(t, conn, protocol.IntentMsg{Type: protocol.TypeIntent, ProtocolVersion: protocol.Version, ID: "5", Kind: "JUGGLE"})
	if res := readResult(t, conn); res.Code != protocol.ErrBadRequest {
		t.Fatalf("unknown kind: %+v", res)
	}
	send(t, conn, map[string]string{"type": "PING"})
	if res := readResult(t, conn); res.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("unknown type: %+v", res)
	}
}

func TestServer_RejectsBadHello(t *testing.T) {
	s := startStudio(t)
	srv := httptest.NewServer(NewServer(s, Params{}, nil).Handler())
	defer srv.Close()
	conn := dial(t, srv)

	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "0.1"})
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}
