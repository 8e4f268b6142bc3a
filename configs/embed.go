// Package configs embeds the default catalogs and tuning so the server runs
// without a config directory on disk.
package configs

import "embed"

//go:embed *.json tuning.yaml
var FS embed.FS
