// Package save persists a studio to a single save slot.
package save

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/klauspost/compress/zstd"

	"inktycoon.dev/internal/persistence/kvstore"
	"inktycoon.dev/internal/sim/catalogs"
	"inktycoon.dev/internal/sim/clock"
	"inktycoon.dev/internal/sim/studio"
)

const DefaultKey = "tattoo-tycoon-save"

var ErrResetNotConfirmed = errors.New("save: reset requires confirmation")

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

type GatewayConfig struct {
	Key    string
	Clock  clock.Clock
	Logger *log.Logger
}

// Gateway encodes studio state into a store slot and merges loaded saves
// onto the current initial state, so fields added since the save was
// written keep their defaults.
type Gateway struct {
	store kvstore.Store
	cats  *catalogs.Catalogs
	key   string
	clk   clock.Clock
	log   *log.Logger
}

func NewGateway(store kvstore.Store, cats *catalogs.Catalogs, cfg GatewayConfig) *Gateway {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	return &Gateway{store: store, cats: cats, key: cfg.Key, clk: cfg.Clock, log: cfg.Logger}
}

func (g *Gateway) Key() string { return g.key }

// Encode returns the compressed save blob for st.
func Encode(st studio.State) ([]byte, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return encoder.EncodeAll(raw, nil), nil
}

// DecodeJSON returns the plain JSON document inside a save blob. Blobs
// without the zstd magic are legacy plain JSON and are returned as is.
func DecodeJSON(blob []byte) ([]byte, error) {
	if !bytes.HasPrefix(blob, zstdMagic) {
		return blob, nil
	}
	raw, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress save: %w", err)
	}
	return raw, nil
}

func (g *Gateway) Save(ctx context.Context, st studio.State) error {
	blob, err := Encode(st)
	if err != nil {
		return err
	}
	if err := g.store.Put(ctx, g.key, blob); err != nil {
		return fmt.Errorf("save %s: %w", g.key, err)
	}
	return nil
}

// Load returns the saved state merged onto the initial state. A missing or
// unreadable save yields the initial state; found reports whether a usable
// save existed.
func (g *Gateway) Load(ctx context.Context) (st studio.State, found bool) {
	initial := studio.InitialState(g.cats, g.clk.Now())
	blob, err := g.store.Get(ctx, g.key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return initial, false
	}
	if err != nil {
		g.log.Printf("load %s: %v; starting fresh", g.key, err)
		return initial, false
	}
	raw, err := DecodeJSON(blob)
	if err != nil {
		g.log.Printf("load %s: %v; starting fresh", g.key, err)
		return initial, false
	}
	merged, err := Merge(initial, raw)
	if err != nil {
		g.log.Printf("load %s: %v; starting fresh", g.key, err)
		return initial, false
	}
	return merged, true
}

// Reset deletes the save. It refuses without confirmation.
func (g *Gateway) Reset(ctx context.Context, confirmed bool) (studio.State, error) {
	if !confirmed {
		return studio.State{}, ErrResetNotConfirmed
	}
	if err := g.Delete(ctx); err != nil {
		return studio.State{}, err
	}
	return studio.InitialState(g.cats, g.clk.Now()), nil
}

func (g *Gateway) Delete(ctx context.Context) error {
	if err := g.store.Delete(ctx, g.key); err != nil {
		return fmt.Errorf("delete %s: %w", g.key, err)
	}
	return nil
}
