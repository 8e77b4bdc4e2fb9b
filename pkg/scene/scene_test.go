package scene

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"testing/fstest"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/text/encoding/japanese"

	"github.com/zurustar/spritekit/pkg/event"
	"github.com/zurustar/spritekit/pkg/fileutil"
	"github.com/zurustar/spritekit/pkg/mixer"
	"github.com/zurustar/spritekit/pkg/surface"
)

var (
	navy = color.RGBA{0, 0, 128, 255}
	red  = color.RGBA{255, 0, 0, 255}
)

type fakePlayer struct {
	playing bool
	volume  float64
}

func (p *fakePlayer) Play()                    { p.playing = true }
func (p *fakePlayer) Pause()                   { p.playing = false }
func (p *fakePlayer) IsPlaying() bool          { return p.playing }
func (p *fakePlayer) Rewind() error            { return nil }
func (p *fakePlayer) Position() time.Duration  { return 0 }
func (p *fakePlayer) Volume() float64          { return p.volume }
func (p *fakePlayer) SetVolume(volume float64) { p.volume = volume }
func (p *fakePlayer) Close() error             { p.playing = false; return nil }

type fakeBackend struct {
	players []*fakePlayer
}

func (b *fakeBackend) NewPlayer(io.Reader) (mixer.Player, error) {
	p := &fakePlayer{volume: 1}
	b.players = append(b.players, p)
	return p, nil
}

// pngBytes は w×h の単色 PNG を返す
func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

// wavBytes は無音の16ビットステレオ WAV を返す
func wavBytes(frames int) []byte {
	dataLen := frames * 4
	var buf bytes.Buffer
	w := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	buf.WriteString("RIFF")
	w(uint32(36 + dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	w(uint32(16))
	w(uint16(1))
	w(uint16(2))
	w(uint32(mixer.SampleRate))
	w(uint32(mixer.SampleRate * 4))
	w(uint16(4))
	w(uint16(16))
	buf.WriteString("data")
	w(uint32(dataLen))
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}

const demoScene = `
title = "demo"
width = 100
height = 80

[background]
color = "#000080"

[audio]
sounds = ["beep.wav"]
music = ["theme.wav"]

[[sprite]]
name = "ball"
image = "Ball.png"
x = 0
y = 0
vx = 5
bounce_sound = "beep"

[[sprite]]
name = "box"
image = "ball.png"
x = 50
y = 50
draggable = true

[[shape]]
kind = "box"
x = 80
y = 0
w = 10
h = 10
color = "lime"
fill = true

[[text]]
text = "hi"
x = 0
y = 60
color = "yellow"

[[emitter]]
x = 50
y = 20
rate = 1
life_min = 5
life_max = 5
speed_min = 0
speed_max = 1
color = "white"
contain = true
`

func demoFS(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"scenes/demo/scene.toml": {Data: []byte(demoScene)},
		"scenes/demo/ball.png":   {Data: pngBytes(t, 10, 10, red)},
		"scenes/demo/beep.wav":   {Data: wavBytes(441)},
		"scenes/demo/theme.wav":  {Data: wavBytes(4410)},
	}
}

func loadDemo(t *testing.T, backend mixer.Backend) *Scene {
	t.Helper()
	s, err := Load(demoFS(t), "scenes/demo/scene.toml", Options{Backend: backend})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestLoad(t *testing.T) {
	s := loadDemo(t, nil)
	if s.Title() != "demo" {
		t.Errorf("expected title demo, got %q", s.Title())
	}
	if w, h := s.Size(); w != 100 || h != 80 {
		t.Errorf("expected 100x80, got %dx%d", w, h)
	}
	// ball, box, shape, text
	if s.Sprites().Len() != 4 {
		t.Errorf("expected 4 sprites, got %d", s.Sprites().Len())
	}
	if _, ok := s.Sprite("ball"); !ok {
		t.Error("expected named sprite ball")
	}
	if len(s.Particles()) != 1 {
		t.Errorf("expected 1 particle system, got %d", len(s.Particles()))
	}
	if _, ok := s.Sounds().Get("beep"); !ok {
		t.Error("expected sound beep loaded")
	}
	if s.Channels() != nil || s.Music() != nil {
		t.Error("expected audio disabled without backend")
	}
	if s.Background().At(0, 0) != navy {
		t.Errorf("expected navy background, got %v", s.Background().At(0, 0))
	}
}

func TestLoadErrors(t *testing.T) {
	fsys := demoFS(t)
	if _, err := Load(fsys, "scenes/missing.toml", Options{}); err == nil {
		t.Error("expected error for missing scene")
	}

	fsys["bad/scene.toml"] = &fstest.MapFile{Data: []byte("[[sprite]]\nimage = \"nothing.png\"")}
	if _, err := Load(fsys, "bad/scene.toml", Options{}); !errors.Is(err, fileutil.ErrNotFound) {
		t.Errorf("expected missing image error, got %v", err)
	}

	fsys["bounce/scene.toml"] = &fstest.MapFile{Data: []byte("[[sprite]]\nimage = \"../scenes/demo/ball.png\"")}
	if _, err := Load(fsys, "bounce/scene.toml", Options{}); err == nil {
		t.Error("expected error for image outside the scene directory")
	}

	if _, err := Build(nil, fsys, Options{}); !errors.Is(err, surface.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBuildUnknownBounceSound(t *testing.T) {
	cfg, err := Decode(bytes.NewReader([]byte("[[sprite]]\nimage = \"ball.png\"\nbounce_sound = \"nope\"")))
	if err != nil {
		t.Fatal(err)
	}
	fsys := fstest.MapFS{"ball.png": {Data: pngBytes(t, 4, 4, red)}}
	if _, err := Build(cfg, fsys, Options{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRenderMovesSprite(t *testing.T) {
	s := loadDemo(t, nil)
	dst := surface.NewImageSurface(100, 80)

	if err := s.Render(dst); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if dst.At(2, 2) != red {
		t.Errorf("expected ball at origin, got %v", dst.At(2, 2))
	}
	if dst.At(30, 40) != navy {
		t.Errorf("expected background, got %v", dst.At(30, 40))
	}
	if dst.At(85, 5) != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("expected filled box, got %v", dst.At(85, 5))
	}
	if len(dst.Updates()) == 0 || dst.Updates()[0] != dst.Bounds() {
		t.Errorf("expected full-screen update on first frame, got %v", dst.Updates())
	}

	dst.ResetUpdates()
	s.Dispatcher().Publish(event.Tick{Frame: 1})
	if err := s.Update(); err != nil {
		t.Fatal(err)
	}
	if err := s.Render(dst); err != nil {
		t.Fatal(err)
	}
	if dst.At(2, 2) != navy {
		t.Errorf("expected old position erased, got %v", dst.At(2, 2))
	}
	if dst.At(12, 5) != red {
		t.Errorf("expected ball moved right, got %v", dst.At(12, 5))
	}
	for _, r := range dst.Updates() {
		if r == dst.Bounds() {
			t.Error("expected only dirty rectangles after the first frame")
		}
	}
	if s.Frame() != 1 {
		t.Errorf("expected frame 1, got %d", s.Frame())
	}
}

func TestRenderOverlayRepaints(t *testing.T) {
	s := loadDemo(t, nil)
	dst := surface.NewImageSurface(100, 80)
	s.Overlay().SetEnabled(true)
	for range 2 {
		dst.ResetUpdates()
		if err := s.Render(dst); err != nil {
			t.Fatal(err)
		}
		if dst.Updates()[0] != dst.Bounds() {
			t.Errorf("expected full repaint with overlay, got %v", dst.Updates()[0])
		}
	}
	if err := s.Render(nil); !errors.Is(err, surface.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBounceSound(t *testing.T) {
	backend := &fakeBackend{}
	s := loadDemo(t, backend)
	if s.Music() == nil || s.Music().Current() == nil {
		t.Fatal("expected music playing")
	}

	ball, _ := s.Sprite("ball")
	ball.SetPosition(image.Pt(88, 0))
	s.Dispatcher().Publish(event.Tick{Frame: 1})
	if ball.X() != 93 {
		t.Fatalf("expected x 93, got %d", ball.X())
	}
	if s.Channels().Playing() != 1 {
		t.Errorf("expected bounce sound on one channel, got %d", s.Channels().Playing())
	}

	s.Dispatcher().Publish(event.Tick{Frame: 2})
	if ball.X() != 88 {
		t.Errorf("expected ball to reverse, got x %d", ball.X())
	}

	s.SetMuted(true)
	if !s.Channels().IsMuted() || !s.Music().IsMuted() {
		t.Error("expected audio muted")
	}
}

func TestDrag(t *testing.T) {
	s := loadDemo(t, nil)
	box, _ := s.Sprite("box")
	d := s.Dispatcher()

	d.Publish(event.MouseButton{Button: ebiten.MouseButtonLeft, Position: image.Pt(20, 20), Down: true})
	if box.BeingDragged() {
		t.Fatal("press outside the sprite must not start a drag")
	}

	d.Publish(event.MouseButton{Button: ebiten.MouseButtonLeft, Position: image.Pt(55, 55), Down: true})
	if !box.BeingDragged() {
		t.Fatal("expected drag to start")
	}
	d.Publish(event.MouseMotion{Position: image.Pt(60, 52), Relative: image.Pt(5, -3)})
	if box.Position() != image.Pt(55, 47) {
		t.Errorf("expected (55,47), got %v", box.Position())
	}
	d.Publish(event.Tick{Frame: 1})
	if box.Position() != image.Pt(55, 47) {
		t.Error("static sprite must not move on tick")
	}

	d.Publish(event.MouseButton{Button: ebiten.MouseButtonLeft, Position: image.Pt(60, 52)})
	if box.BeingDragged() {
		t.Error("expected drag to end")
	}

	ball, _ := s.Sprite("ball")
	d.Publish(event.MouseButton{Button: ebiten.MouseButtonLeft, Position: image.Pt(2, 2), Down: true})
	if ball.BeingDragged() {
		t.Error("non-draggable sprite must not be dragged")
	}
}

func TestTextFromShiftJIS(t *testing.T) {
	sjis, err := japanese.ShiftJIS.NewEncoder().String("こんにちは")
	if err != nil {
		t.Fatal(err)
	}
	b := &builder{fsys: fstest.MapFS{"msg.txt": {Data: []byte(sjis)}}}
	got, err := b.textContent(TextConfig{File: "MSG.TXT", Encoding: "Shift_JIS"})
	if err != nil {
		t.Fatalf("textContent failed: %v", err)
	}
	if got != "こんにちは" {
		t.Errorf("expected decoded text, got %q", got)
	}

	got, err = b.textContent(TextConfig{Text: "inline"})
	if err != nil || got != "inline" {
		t.Errorf("expected inline text, got %q, %v", got, err)
	}
}

func TestShapePrimitiveFitsBox(t *testing.T) {
	for _, kind := range []string{"box", "circle", "ellipse", "triangle", "line", "pie"} {
		sc := ShapeConfig{Kind: kind, W: 12, H: 8, Color: "white", Fill: true, End: 90}
		cfg := &Config{Width: 20, Height: 20, Background: BackgroundConfig{Color: "black"}, Shapes: []ShapeConfig{sc}}
		s, err := Build(cfg, fstest.MapFS{}, Options{})
		if err != nil {
			t.Fatalf("%s: Build failed: %v", kind, err)
		}
		if s.Sprites().At(0).Size() != image.Pt(12, 8) {
			t.Errorf("%s: expected 12x8 sprite, got %v", kind, s.Sprites().At(0).Size())
		}
		s.Close()
	}
}

func TestFindSynth(t *testing.T) {
	called := false
	find := func() (*mixer.Synth, error) {
		called = true
		return nil, errors.New("no soundfont")
	}
	s, err := Load(demoFS(t), "scenes/demo/scene.toml", Options{FindSynth: find})
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	if called {
		t.Error("FindSynth must not be called without MIDI music")
	}

	fsys := fstest.MapFS{
		"song/scene.toml": {Data: []byte("[audio]\nmusic = [\"Song.MID\"]")},
		"song/song.mid":   {Data: []byte("MThd")},
	}
	if _, err := Load(fsys, "song/scene.toml", Options{FindSynth: find}); err == nil || !called {
		t.Errorf("expected FindSynth error, got %v", err)
	}
	if _, err := Load(fsys, "song/scene.toml", Options{}); !errors.Is(err, mixer.ErrNoSoundFont) {
		t.Errorf("expected ErrNoSoundFont, got %v", err)
	}
}
