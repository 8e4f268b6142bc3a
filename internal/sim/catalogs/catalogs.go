package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"inktycoon.dev/configs"
)

// Catalogs is the immutable reference data consulted by the studio.
// Slices keep file order; ByID maps are for lookups.
type Catalogs struct {
	Topics    TopicCatalog
	Styles    StyleCatalog
	Research  ResearchCatalog
	Shop      ShopCatalog
	Locations LocationCatalog
	Events    EventCatalog
	Scene     SceneConfig

	SceneDigest string
}

type TopicCatalog struct {
	List   []Topic
	ByID   map[string]Topic
	Digest string
}

type Topic struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Difficulty       float64  `json:"difficulty"`
	BaseValue        float64  `json:"base_value"`
	CompatibleStyles []string `json:"compatible_styles"`
}

// Compatible reports whether styleID may be used for this topic.
func (t Topic) Compatible(styleID string) bool {
	for _, s := range t.CompatibleStyles {
		if s == styleID {
			return true
		}
	}
	return false
}

type StyleCatalog struct {
	List   []Style
	ByID   map[string]Style
	Digest string
}

type Style struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	IdealStats  StyleStats `json:"ideal_stats"`
}

type StyleStats struct {
	Line    int `json:"line"`
	Shading int `json:"shading"`
	Color   int `json:"color"`
}

type ResearchCatalog struct {
	List   []ResearchItem
	ByID   map[string]ResearchItem
	Digest string
}

const (
	ResearchStyle     = "style"
	ResearchMarketing = "marketing"
	ResearchEquipment = "equipment"
)

type ResearchItem struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Cost        ResearchCost `json:"cost"`
	DurationMs  int64        `json:"duration_ms"`
	Type        string       `json:"type"`
	UnlockID    string       `json:"unlock_id,omitempty"`
	Prereq      []string     `json:"prereq,omitempty"`
}

type ResearchCost struct {
	Money float64 `json:"money"`
	XP    float64 `json:"xp"`
}

type ShopCatalog struct {
	List   []ShopItem
	ByID   map[string]ShopItem
	Digest string
}

type ShopItem struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Cost        float64    `json:"cost"`
	Type        string     `json:"type"` // "machine","chair","decor"
	Stats       *ShopStats `json:"stats,omitempty"`
}

type ShopStats struct {
	SpeedBonus   float64 `json:"speed_bonus,omitempty"`
	QualityBonus float64 `json:"quality_bonus,omitempty"`
}

type LocationCatalog struct {
	List   []Location
	ByID   map[string]Location
	Digest string
}

type Location struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Capacity    int     `json:"capacity"`
	Cost        float64 `json:"cost"`
	RepReq      float64 `json:"rep_req"`
	BgKey       string  `json:"bg_key"`
}

type EventCatalog struct {
	List   []GameEvent
	ByID   map[string]GameEvent
	Digest string
}

// GameEvent is a timed opportunity offered to the player.
type GameEvent struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Type          string       `json:"type"` // "expo","seminar","viral"
	DurationMs    int64        `json:"duration_ms"`
	Cost          float64      `json:"cost,omitempty"`
	MinReputation float64      `json:"min_reputation,omitempty"`
	Rewards       EventRewards `json:"rewards"`
}

type EventRewards struct {
	Reputation float64 `json:"reputation,omitempty"`
	Money      float64 `json:"money,omitempty"`
	XP         float64 `json:"xp,omitempty"`
}

type SceneConfig struct {
	Positions  map[string]Position `json:"positions"`
	StaffSlots []Position          `json:"staff_slots"`
}

type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Facing string  `json:"facing"`
}

// Scene position keys.
const (
	PosIdle  = "idle"
	PosChair = "chair"
	PosDesk  = "desk"
	PosDoor  = "door"
)

// Default loads the catalogs embedded in the binary.
func Default() (*Catalogs, error) {
	return LoadFS(configs.FS)
}

// Load reads catalogs from a config directory on disk.
func Load(configDir string) (*Catalogs, error) {
	return LoadFS(os.DirFS(configDir))
}

func LoadFS(fsys fs.FS) (*Catalogs, error) {
	var c Catalogs
	var err error

	if c.Topics.List, c.Topics.Digest, err = loadTable(fsys, "topics.json", func(t Topic) string { return t.ID }); err != nil {
		return nil, err
	}
	c.Topics.ByID = index(c.Topics.List, func(t Topic) string { return t.ID })

	if c.Styles.List, c.Styles.Digest, err = loadTable(fsys, "styles.json", func(s Style) string { return s.ID }); err != nil {
		return nil, err
	}
	c.Styles.ByID = index(c.Styles.List, func(s Style) string { return s.ID })

	if c.Research.List, c.Research.Digest, err = loadTable(fsys, "research.json", func(r ResearchItem) string { return r.ID }); err != nil {
		return nil, err
	}
	c.Research.ByID = index(c.Research.List, func(r ResearchItem) string { return r.ID })

	if c.Shop.List, c.Shop.Digest, err = loadTable(fsys, "shop.json", func(s ShopItem) string { return s.ID }); err != nil {
		return nil, err
	}
	c.Shop.ByID = index(c.Shop.List, func(s ShopItem) string { return s.ID })

	if c.Locations.List, c.Locations.Digest, err = loadTable(fsys, "locations.json", func(l Location) string { return l.ID }); err != nil {
		return nil, err
	}
	c.Locations.ByID = index(c.Locations.List, func(l Location) string { return l.ID })

	if c.Events.List, c.Events.Digest, err = loadTable(fsys, "events.json", func(e GameEvent) string { return e.ID }); err != nil {
		return nil, err
	}
	c.Events.ByID = index(c.Events.List, func(e GameEvent) string { return e.ID })

	if err := loadScene(fsys, &c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadTable[T any](fsys fs.FS, name string, id func(T) string) ([]T, string, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, "", err
	}
	var defs []T
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, "", fmt.Errorf("%s: %w", name, err)
	}
	seen := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		k := id(d)
		if k == "" {
			return nil, "", fmt.Errorf("%s: empty id", name)
		}
		if _, dup := seen[k]; dup {
			return nil, "", fmt.Errorf("%s: duplicate id %q", name, k)
		}
		seen[k] = struct{}{}
	}
	return defs, sha256Hex(raw), nil
}

func index[T any](list []T, id func(T) string) map[string]T {
	out := make(map[string]T, len(list))
	for _, v := range list {
		out[id(v)] = v
	}
	return out
}

func loadScene(fsys fs.FS, c *Catalogs) error {
	raw, err := fs.ReadFile(fsys, "scene.json")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Scene = SceneConfig{Positions: map[string]Position{PosIdle: {X: 50, Y: 60, Facing: "right"}}}
			c.SceneDigest = sha256Hex(nil)
			return nil
		}
		return err
	}
	if err := json.Unmarshal(raw, &c.Scene); err != nil {
		return fmt.Errorf("scene.json: %w", err)
	}
	c.SceneDigest = sha256Hex(raw)
	return nil
}

func (c *Catalogs) validate() error {
	if len(c.Locations.List) == 0 {
		return fmt.Errorf("locations.json: at least one location required")
	}
	for _, l := range c.Locations.List {
		if l.Capacity < 1 {
			return fmt.Errorf("locations.json: %s capacity must be >= 1", l.ID)
		}
	}
	for _, r := range c.Research.List {
		if r.Type == ResearchStyle && r.UnlockID == "" {
			return fmt.Errorf("research.json: %s is a style research without unlock_id", r.ID)
		}
		for _, p := range r.Prereq {
			if _, ok := c.Research.ByID[p]; !ok {
				return fmt.Errorf("research.json: %s has unknown prereq %s", r.ID, p)
			}
		}
	}
	for _, t := range c.Topics.List {
		for _, s := range t.CompatibleStyles {
			if _, ok := c.Styles.ByID[s]; !ok {
				return fmt.Errorf("topics.json: %s references unknown style %s", t.ID, s)
			}
		}
	}
	if _, ok := c.Scene.Positions[PosIdle]; !ok {
		return fmt.Errorf("scene.json: missing %s position", PosIdle)
	}
	return nil
}

// Position returns a named scene position, falling back to idle.
func (c *Catalogs) Position(name string) Position {
	if p, ok := c.Scene.Positions[name]; ok {
		return p
	}
	return c.Scene.Positions[PosIdle]
}

// Digest is a combined digest over every table, used in the WELCOME handshake.
func (c *Catalogs) Digest() string {
	parts := []string{
		c.Topics.Digest, c.Styles.Digest, c.Research.Digest,
		c.Shop.Digest, c.Locations.Digest, c.Events.Digest, c.SceneDigest,
	}
	var buf bytes.Buffer
	for _, p := range parts {
		buf.WriteString(p)
		buf.WriteByte('\n')
	}
	return sha256Hex(buf.Bytes())
}

// SortedIDs is a small helper for deterministic listings (admin CLI, tests).
func SortedIDs[T any](m map[string]T) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
