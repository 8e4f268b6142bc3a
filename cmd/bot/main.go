package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"inktycoon.dev/internal/protocol"
)

func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name = flag.String("name", "bot", "client name")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		MaxQueue:        8,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	b := newBot(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s tick=%dms seed=%d", w.SessionID, w.Params.TickIntervalMs, w.Params.Seed)

		case protocol.TypeCatalog:
			var c protocol.CatalogMsg
			if err := json.Unmarshal(msg, &c); err != nil {
				continue
			}
			if err := b.catalog(c); err != nil {
				logger.Printf("catalog %s: %v", c.Name, err)
			}

		case protocol.TypeResult:
			var r protocol.ResultMsg
			if err := json.Unmarshal(msg, &r); err != nil {
				continue
			}
			b.result(r)
			if !r.OK {
				logger.Printf("intent %s rejected: %s %s", r.ID, r.Code, r.Message)
			}

		case protocol.TypeState:
			var sm protocol.StateMsg
			if err := json.Unmarshal(msg, &sm); err != nil {
				continue
			}
			var st botState
			if err := json.Unmarshal(sm.State, &st); err != nil {
				continue
			}
			if in := b.next(st); in != nil {
				logger.Printf("t=%ds money=%.0f -> %s %s", sm.PlayedTime, st.Resources.Money, in.Kind, in.ID)
				if err := conn.WriteJSON(in); err != nil {
					return
				}
			}
		}
	}
}
