package protocol

import "encoding/json"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
	// MaxQueue bounds buffered STATE pushes for this client.
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	Params          StudioParams   `json:"params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type StudioParams struct {
	TickIntervalMs  int   `json:"tick_interval_ms"`
	TickSeconds     int   `json:"tick_seconds"`
	DaySeconds      int   `json:"day_seconds"`
	AutosaveSeconds int   `json:"autosave_seconds"`
	Seed            int64 `json:"seed"`
}

type CatalogDigests struct {
	Topics    string `json:"topics"`
	Styles    string `json:"styles"`
	Research  string `json:"research"`
	Shop      string `json:"shop"`
	Locations string `json:"locations"`
	Events    string `json:"events"`
	Scene     string `json:"scene"`
	Combined  string `json:"combined"`
}

// CATALOG (server -> client), one per table right after WELCOME.
type CatalogMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Name            string          `json:"name"`
	Digest          string          `json:"digest"`
	Data            json.RawMessage `json:"data"`
}

// STATE (server -> client). State is the full studio state document.
type StateMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	PlayedTime      int64           `json:"played_time"`
	State           json.RawMessage `json:"state"`
}

// INTENT (client -> server)
type IntentMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ID              string     `json:"id"`
	Kind            string     `json:"kind"`
	Design          *DesignMsg `json:"design,omitempty"`
	TargetID        string     `json:"target_id,omitempty"`
	Accepted        bool       `json:"accepted,omitempty"`
	Confirmed       bool       `json:"confirmed,omitempty"`
	SoundVolume     *float64   `json:"sound_volume,omitempty"`
	MusicVolume     *float64   `json:"music_volume,omitempty"`
}

type DesignMsg struct {
	TopicID     string         `json:"topic_id"`
	StyleID     string         `json:"style_id"`
	Complexity  int            `json:"complexity"`
	TargetStats TargetStatsMsg `json:"target_stats"`
}

type TargetStatsMsg struct {
	Line    int `json:"line"`
	Shading int `json:"shading"`
	Color   int `json:"color"`
}

// RESULT (server -> client), one per INTENT and for protocol errors.
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	PlayedTime      int64  `json:"played_time"`
}

func NewResult(id string, ok bool, code, message string, playedTime int64) ResultMsg {
	return ResultMsg{
		Type:            TypeResult,
		ProtocolVersion: Version,
		ID:              id,
		OK:              ok,
		Code:            code,
		Message:         message,
		PlayedTime:      playedTime,
	}
}
