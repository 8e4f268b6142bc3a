package protocol

import "embed"

// Schemas holds the JSON schema for every message type, named <type>.schema.json.
//
//go:embed schemas/*.schema.json
var Schemas embed.FS
