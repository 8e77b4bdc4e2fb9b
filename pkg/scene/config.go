// Package scene loads a TOML scene description and runs it as a sprite
// collection with particles, text and audio over a background surface.
package scene

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"golang.org/x/image/colornames"

	"github.com/zurustar/spritekit/pkg/fileutil"
)

// シーン設定のエラー定義
var (
	// ErrInvalidConfig はシーン設定が不正な場合のエラー
	ErrInvalidConfig = errors.New("invalid scene config")

	// ErrUnknownKey は設定ファイルに未知のキーがある場合のエラー
	ErrUnknownKey = errors.New("unknown key in scene config")
)

// デフォルト値
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Config は scene.toml の構造
type Config struct {
	Title      string           `toml:"title"`
	Info       InfoConfig       `toml:"info"`
	Width      int              `toml:"width"`
	Height     int              `toml:"height"`
	Background BackgroundConfig `toml:"background"`
	Audio      AudioConfig      `toml:"audio"`
	Sprites    []SpriteConfig   `toml:"sprite"`
	Shapes     []ShapeConfig    `toml:"shape"`
	Texts      []TextConfig     `toml:"text"`
	Emitters   []EmitterConfig  `toml:"emitter"`
}

// InfoConfig はシーンの作者情報（シーン一覧で表示する）
type InfoConfig struct {
	Author    string   `toml:"author"`
	Copyright string   `toml:"copyright"`
	Subject   string   `toml:"subject"`
	Comments  []string `toml:"comments"`
}

// BackgroundConfig は背景（単色と任意の画像）
type BackgroundConfig struct {
	Color string `toml:"color"`
	Image string `toml:"image"`
}

// AudioConfig は効果音と BGM の設定
type AudioConfig struct {
	Channels  int      `toml:"channels"`
	SoundFont string   `toml:"soundfont"`
	Sounds    []string `toml:"sounds"`
	Music     []string `toml:"music"`
	Volume    *float64 `toml:"volume"`
}

// SpriteConfig は画像スプライト
// frame_width/frame_height を指定するとスプライトシートとしてアニメーションする
type SpriteConfig struct {
	Name        string  `toml:"name"`
	Image       string  `toml:"image"`
	X           int     `toml:"x"`
	Y           int     `toml:"y"`
	Z           int     `toml:"z"`
	FrameWidth  int     `toml:"frame_width"`
	FrameHeight int     `toml:"frame_height"`
	DelayMS     int     `toml:"delay_ms"`
	Loop        *bool   `toml:"loop"`
	ColorKey    string  `toml:"color_key"`
	Alpha       *int    `toml:"alpha"`
	VX          float64 `toml:"vx"`
	VY          float64 `toml:"vy"`
	Bounce      string  `toml:"bounce_sound"`
	Draggable   bool    `toml:"draggable"`
	Hidden      bool    `toml:"hidden"`
}

// ShapeConfig は図形スプライト
// kind: box, circle, ellipse, triangle, line, pie
type ShapeConfig struct {
	Kind  string  `toml:"kind"`
	X     int     `toml:"x"`
	Y     int     `toml:"y"`
	Z     int     `toml:"z"`
	W     int     `toml:"w"`
	H     int     `toml:"h"`
	Color string  `toml:"color"`
	Fill  bool    `toml:"fill"`
	Width float32 `toml:"line_width"`
	Start float64 `toml:"start"`
	End   float64 `toml:"end"`
	VX    float64 `toml:"vx"`
	VY    float64 `toml:"vy"`
}

// TextConfig はテキストスプライト
// file を指定した場合はファイルから読み込み、encoding が shift_jis なら変換する
type TextConfig struct {
	Text       string  `toml:"text"`
	File       string  `toml:"file"`
	Encoding   string  `toml:"encoding"`
	Font       string  `toml:"font"`
	Size       float64 `toml:"size"`
	Color      string  `toml:"color"`
	Background string  `toml:"background"`
	X          int     `toml:"x"`
	Y          int     `toml:"y"`
	Z          int     `toml:"z"`
	Wrap       int     `toml:"wrap"`
	MaxLines   int     `toml:"max_lines"`
	Bold       bool    `toml:"bold"`
	Underline  bool    `toml:"underline"`
}

// EmitterConfig はパーティクルの放出元
type EmitterConfig struct {
	X        float64 `toml:"x"`
	Y        float64 `toml:"y"`
	Rate     float64 `toml:"rate"`
	Life     int     `toml:"life"`
	LifeMin  int     `toml:"life_min"`
	LifeMax  int     `toml:"life_max"`
	SpeedMin float64 `toml:"speed_min"`
	SpeedMax float64 `toml:"speed_max"`
	Color    string  `toml:"color"`
	Radius   int     `toml:"radius"`
	Seed     uint64  `toml:"seed"`
	Gravity  float64 `toml:"gravity"`
	Friction float64 `toml:"friction"`
	Contain  bool    `toml:"contain"`
}

// Decode は TOML を読み込んで検証済みの Config を返す
// 未知のキーはタイプミスとみなしてエラーにする
func Decode(r io.Reader) (*Config, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Header は設定ファイルのうちシーン一覧に必要な部分
type Header struct {
	Title string     `toml:"title"`
	Info  InfoConfig `toml:"info"`
}

// ReadHeader は設定ファイルからタイトルと作者情報だけを読み込む
// 他のキーは検証しない
func ReadHeader(fsys fs.FS, name string) (*Header, error) {
	data, err := readConfig(fsys, name)
	if err != nil {
		return nil, err
	}
	var h Header
	if _, err := toml.Decode(string(data), &h); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, ErrInvalidConfig, err)
	}
	return &h, nil
}

// readConfig は設定ファイルを読み込む
// UTF-8 として不正なら Shift_JIS とみなして変換する
func readConfig(fsys fs.FS, name string) ([]byte, error) {
	data, err := fileutil.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene %s: %w", name, err)
	}
	if utf8.Valid(data) {
		return data, nil
	}
	s, err := decodeShiftJIS(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return []byte(s), nil
}

// normalize はデフォルト値を補い、値を検証する
func (c *Config) normalize() error {
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: negative screen size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.Background.Color == "" {
		c.Background.Color = "black"
	}

	for i, s := range c.Sprites {
		if s.Image == "" {
			return fmt.Errorf("%w: sprite %d has no image", ErrInvalidConfig, i)
		}
		if (s.FrameWidth > 0) != (s.FrameHeight > 0) {
			return fmt.Errorf("%w: sprite %d needs both frame_width and frame_height", ErrInvalidConfig, i)
		}
		if s.Alpha != nil && (*s.Alpha < 0 || *s.Alpha > 255) {
			return fmt.Errorf("%w: sprite %d alpha %d out of range", ErrInvalidConfig, i, *s.Alpha)
		}
	}
	for i, s := range c.Shapes {
		switch s.Kind {
		case "box", "circle", "ellipse", "triangle", "line", "pie":
		default:
			return fmt.Errorf("%w: shape %d has unknown kind %q", ErrInvalidConfig, i, s.Kind)
		}
		if s.W <= 0 || s.H <= 0 {
			return fmt.Errorf("%w: shape %d needs positive w and h", ErrInvalidConfig, i)
		}
	}
	for i, t := range c.Texts {
		if t.Text == "" && t.File == "" {
			return fmt.Errorf("%w: text %d has neither text nor file", ErrInvalidConfig, i)
		}
		switch strings.ToLower(t.Encoding) {
		case "", "utf-8", "utf8", "shift_jis", "sjis":
		default:
			return fmt.Errorf("%w: text %d has unknown encoding %q", ErrInvalidConfig, i, t.Encoding)
		}
	}
	if c.Audio.Volume != nil && (*c.Audio.Volume < 0 || *c.Audio.Volume > 1) {
		return fmt.Errorf("%w: audio volume %v out of range", ErrInvalidConfig, *c.Audio.Volume)
	}
	return nil
}

// ParseColor は色名（CSS の色名）または #RGB, #RRGGBB, #RRGGBBAA を解析する
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	if s == "transparent" {
		return color.Transparent, nil
	}

	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return nil, fmt.Errorf("%w: unknown color %q", ErrInvalidConfig, s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return nil, fmt.Errorf("%w: bad color %q", ErrInvalidConfig, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: bad color %q", ErrInvalidConfig, s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
