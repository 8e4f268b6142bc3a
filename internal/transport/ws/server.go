package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"inktycoon.dev/internal/protocol"
	"inktycoon.dev/internal/sim/catalogs"
	"inktycoon.dev/internal/sim/studio"
)

// Studio is the part of *studio.Studio the transport needs.
type Studio interface {
	Do(ctx context.Context, in studio.Intent) (studio.IntentResult, error)
	Subscribe(ctx context.Context) (<-chan studio.State, func(), error)
	Catalogs() *catalogs.Catalogs
}

type Params = protocol.StudioParams

type Server struct {
	studio Studio
	params Params
	log    *log.Logger

	upgrader websocket.Upgrader
	sessions atomic.Int64
}

func NewServer(s Studio, params Params, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		studio: s,
		params: params,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Sessions is the number of connected clients.
func (s *Server) Sessions() int64 { return s.sessions.Load() }

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, maxQ, ok := s.handshake(conn)
		if !ok {
			return
		}
		s.sessions.Add(1)
		defer s.sessions.Add(-1)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		states, unsubscribe, err := s.studio.Subscribe(ctx)
		if err != nil {
			s.log.Printf("session %s: subscribe: %v", sessionID, err)
			return
		}
		defer unsubscribe()

		out := make(chan []byte, maxQ)

		// Writer goroutine.
		go func() {
			for {
				var b []byte
				select {
				case <-ctx.Done():
					return
				case b = <-out:
				case st := <-states:
					msg, err := stateMessage(st)
					if err != nil {
						s.log.Printf("session %s: encode state: %v", sessionID, err)
						continue
					}
					b = msg
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					return
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			res := s.handleMessage(ctx, msg)
			b, err := json.Marshal(res)
			if err != nil {
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
		}
		s.log.Printf("session %s closed", sessionID)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, maxQ int, ok bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", 0, false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", 0, false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", 0, false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", 0, false
	}

	maxQ = hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}

	sessionID = uuid.NewString()
	cats := s.studio.Catalogs()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		Params:          s.params,
		Catalogs:        catalogDigests(cats),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", 0, false
	}
	msgs, err := catalogMessages(cats)
	if err != nil {
		s.log.Printf("catalog messages: %v", err)
		return "", 0, false
	}
	for _, c := range msgs {
		if err := writeJSON(conn, c); err != nil {
			return "", 0, false
		}
	}
	s.log.Printf("session %s opened client=%q", sessionID, hello.ClientName)
	return sessionID, maxQ, true
}

// handleMessage turns one client frame into a RESULT.
func (s *Server) handleMessage(ctx context.Context, msg []byte) protocol.ResultMsg {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.NewResult("", false, protocol.ErrProtoBadRequest, "invalid json", 0)
	}
	if base.Type != protocol.TypeIntent {
		return protocol.NewResult("", false, protocol.ErrProtoBadRequest, "unexpected message type "+base.Type, 0)
	}
	var im protocol.IntentMsg
	if err := json.Unmarshal(msg, &im); err != nil {
		return protocol.NewResult("", false, protocol.ErrProtoBadRequest, "invalid intent", 0)
	}
	if im.ProtocolVersion != protocol.Version {
		return protocol.NewResult(im.ID, false, protocol.ErrProtoBadRequest, "bad protocol_version", 0)
	}
	in, err := toIntent(im)
	if err != nil {
		return protocol.NewResult(im.ID, false, protocol.ErrBadRequest, err.Error(), 0)
	}

	callCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := s.studio.Do(callCtx, in)
	var bad *studio.BadIntentError
	switch {
	case errors.As(err, &bad):
		return protocol.NewResult(im.ID, false, protocol.ErrBadRequest, bad.Reason, 0)
	case errors.Is(err, context.DeadlineExceeded):
		return protocol.NewResult(im.ID, false, protocol.ErrBusy, "studio busy", 0)
	case err != nil:
		return protocol.NewResult(im.ID, false, protocol.ErrInternal, err.Error(), 0)
	case res.OK:
		return protocol.NewResult(im.ID, true, "", "", res.PlayedTime)
	case in.Kind == studio.IntentResetGame && !in.Confirmed:
		return protocol.NewResult(im.ID, false, protocol.ErrConfirmRequired, "reset requires confirmed=true", res.PlayedTime)
	default:
		return protocol.NewResult(im.ID, false, protocol.ErrRejected, "", res.PlayedTime)
	}
}

func toIntent(m protocol.IntentMsg) (studio.Intent, error) {
	in := studio.Intent{
		Kind:      studio.IntentKind(m.Kind),
		ID:        m.TargetID,
		Accepted:  m.Accepted,
		Confirmed: m.Confirmed,
	}
	switch in.Kind {
	case studio.IntentStartTattoo:
		if m.Design == nil {
			return in, fmt.Errorf("design required")
		}
		in.Design = &studio.TattooDesign{
			TopicID:    m.Design.TopicID,
			StyleID:    m.Design.StyleID,
			Complexity: m.Design.Complexity,
			TargetStats: studio.TargetStats{
				Line:    m.Design.TargetStats.Line,
				Shading: m.Design.TargetStats.Shading,
				Color:   m.Design.TargetStats.Color,
			},
		}
	case studio.IntentStartResearch, studio.IntentBuyItem, studio.IntentUpgradeLocation,
		studio.IntentHireStaff, studio.IntentFireStaff:
		if m.TargetID == "" {
			return in, fmt.Errorf("target_id required")
		}
	case studio.IntentUpdateSettings:
		if m.SoundVolume == nil || m.MusicVolume == nil {
			return in, fmt.Errorf("sound_volume and music_volume required")
		}
		in.SoundVolume, in.MusicVolume = *m.SoundVolume, *m.MusicVolume
	}
	return in, nil
}

func stateMessage(st studio.State) ([]byte, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	return json.Marshal(protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		PlayedTime:      st.Stats.PlayedTime,
		State:           raw,
	})
}

func catalogDigests(c *catalogs.Catalogs) protocol.CatalogDigests {
	return protocol.CatalogDigests{
		Topics:    c.Topics.Digest,
		Styles:    c.Styles.Digest,
		Research:  c.Research.Digest,
		Shop:      c.Shop.Digest,
		Locations: c.Locations.Digest,
		Events:    c.Events.Digest,
		Scene:     c.SceneDigest,
		Combined:  c.Digest(),
	}
}

func catalogMessages(c *catalogs.Catalogs) ([]protocol.CatalogMsg, error) {
	tables := []struct {
		name   string
		digest string
		data   any
	}{
		{"topics", c.Topics.Digest, c.Topics.List},
		{"styles", c.Styles.Digest, c.Styles.List},
		{"research", c.Research.Digest, c.Research.List},
		{"shop", c.Shop.Digest, c.Shop.List},
		{"locations", c.Locations.Digest, c.Locations.List},
		{"events", c.Events.Digest, c.Events.List},
		{"scene", c.SceneDigest, c.Scene},
	}
	out := make([]protocol.CatalogMsg, 0, len(tables))
	for _, t := range tables {
		b, err := json.Marshal(t.data)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", t.name, err)
		}
		out = append(out, protocol.CatalogMsg{
			Type:            protocol.TypeCatalog,
			ProtocolVersion: protocol.Version,
			Name:            t.name,
			Digest:          t.digest,
			Data:            b,
		})
	}
	return out, nil
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
