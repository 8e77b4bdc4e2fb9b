package scene

import (
	"errors"
	"image/color"
	"strings"
	"testing"
)

func TestDecodeDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
title = "デモ"

[[shape]]
kind = "circle"
w = 20
h = 20
color = "red"
fill = true
`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if cfg.Title != "デモ" {
		t.Errorf("expected title, got %q", cfg.Title)
	}
	if cfg.Width != DefaultWidth || cfg.Height != DefaultHeight {
		t.Errorf("expected default size, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Background.Color != "black" {
		t.Errorf("expected black background, got %q", cfg.Background.Color)
	}
	if len(cfg.Shapes) != 1 || !cfg.Shapes[0].Fill {
		t.Errorf("unexpected shapes %+v", cfg.Shapes)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want error
	}{
		{"syntax", `title = `, ErrInvalidConfig},
		{"unknown key", "titel = \"x\"", ErrUnknownKey},
		{"unknown nested key", "[[sprite]]\nimage = \"a.png\"\nspeed = 3", ErrUnknownKey},
		{"sprite without image", "[[sprite]]\nx = 1", ErrInvalidConfig},
		{"half frame size", "[[sprite]]\nimage = \"a.png\"\nframe_width = 8", ErrInvalidConfig},
		{"alpha range", "[[sprite]]\nimage = \"a.png\"\nalpha = 300", ErrInvalidConfig},
		{"shape kind", "[[shape]]\nkind = \"star\"\nw = 1\nh = 1", ErrInvalidConfig},
		{"shape size", "[[shape]]\nkind = \"box\"\nw = 0\nh = 1", ErrInvalidConfig},
		{"empty text", "[[text]]\nx = 1", ErrInvalidConfig},
		{"text encoding", "[[text]]\nfile = \"a.txt\"\nencoding = \"euc-jp\"", ErrInvalidConfig},
		{"volume", "[audio]\nvolume = 1.5", ErrInvalidConfig},
		{"negative size", "width = -1", ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.toml))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"red", color.RGBA{255, 0, 0, 255}},
		{"  White ", color.RGBA{255, 255, 255, 255}},
		{"#0f0", color.RGBA{0, 255, 0, 255}},
		{"#102030", color.RGBA{0x10, 0x20, 0x30, 0xff}},
		{"#ff000080", color.RGBA{0x80, 0, 0, 0x80}},
		{"transparent", color.RGBA{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			if err != nil {
				t.Fatalf("ParseColor failed: %v", err)
			}
			if got := color.RGBAModel.Convert(c).(color.RGBA); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	for _, bad := range []string{"", "reddish", "#12", "#12345", "#gggggg"} {
		if _, err := ParseColor(bad); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%q: expected ErrInvalidConfig, got %v", bad, err)
		}
	}
}
