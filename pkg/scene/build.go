package scene

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"path"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/zurustar/spritekit/pkg/event"
	"github.com/zurustar/spritekit/pkg/fileutil"
	"github.com/zurustar/spritekit/pkg/logger"
	"github.com/zurustar/spritekit/pkg/mixer"
	"github.com/zurustar/spritekit/pkg/particles"
	"github.com/zurustar/spritekit/pkg/primitives"
	"github.com/zurustar/spritekit/pkg/sprite"
	"github.com/zurustar/spritekit/pkg/surface"
	"github.com/zurustar/spritekit/pkg/text"
)

// Options はシーン構築時の外部依存
type Options struct {
	// Dispatcher はイベントの配送先（nil なら新規作成）
	Dispatcher *event.Dispatcher
	// Backend は音声の出力先（nil なら無音で、効果音と BGM は読み込みだけ行う）
	Backend mixer.Backend
	// Logger（nil なら logger.GetLogger()）
	Logger *slog.Logger
	// FindSynth は soundfont の指定がないシーンで MIDI を鳴らすシンセサイザーを探す
	// MIDI の BGM があるときだけ呼ばれる
	FindSynth func() (*mixer.Synth, error)
}

// Load は fsys から設定ファイル name を読み込んでシーンを構築する
// 設定ファイルは UTF-8 か Shift_JIS
// 画像などの相対パスは設定ファイルのディレクトリを基準にする
func Load(fsys fs.FS, name string, opts Options) (*Scene, error) {
	data, err := readConfig(fsys, name)
	if err != nil {
		return nil, err
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if dir := path.Dir(fileutil.Clean(name)); dir != "." {
		sub, err := fs.Sub(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open scene directory %s: %w", dir, err)
		}
		fsys = sub
	}
	return Build(cfg, fsys, opts)
}

// builder は Build の作業状態
type builder struct {
	cfg   *Config
	fsys  fs.FS
	scene *Scene
}

// Build は設定からシーンを構築する
func Build(cfg *Config, fsys fs.FS, opts Options) (*Scene, error) {
	if cfg == nil || fsys == nil {
		return nil, fmt.Errorf("build scene: %w", surface.ErrInvalidArgument)
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = event.NewDispatcher(opts.Logger)
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	s := &Scene{
		title:      cfg.Title,
		width:      cfg.Width,
		height:     cfg.Height,
		dispatcher: opts.Dispatcher,
		sprites:    sprite.NewCollection(),
		sounds:     mixer.NewSoundSet(),
		overlay:    sprite.NewDebugOverlay(),
		log:        opts.Logger,
	}
	s.sprites.SetLogger(opts.Logger)
	b := &builder{cfg: cfg, fsys: fsys, scene: s}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"background", b.background},
		{"audio", func() error { return b.audio(opts.Backend, opts.FindSynth) }},
		{"sprites", b.sprites},
		{"shapes", b.shapes},
		{"texts", b.texts},
		{"emitters", b.emitters},
		{"events", b.events},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to build %s: %w", step.name, err)
		}
	}

	s.log.Info("Scene built",
		"title", s.title,
		"size", fmt.Sprintf("%dx%d", s.width, s.height),
		"sprites", s.sprites.Len(),
		"emitters", len(s.particles),
		"sounds", s.sounds.Len())
	return s, nil
}

func (b *builder) background() error {
	c, err := ParseColor(b.cfg.Background.Color)
	if err != nil {
		return err
	}
	bg := surface.NewImageSurface(b.cfg.Width, b.cfg.Height)
	bg.Fill(bg.Bounds(), opaque(c))
	if b.cfg.Background.Image != "" {
		img, err := surface.Load(b.fsys, b.cfg.Background.Image)
		if err != nil {
			return err
		}
		bg.Blit(img, image.Point{}, image.Rectangle{})
	}
	bg.ResetUpdates()
	b.scene.background = bg
	return nil
}

func isMIDI(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".mid", ".midi":
		return true
	}
	return false
}

// opaque は c を黒の上に合成した不透明色を返す
// 消去は背景を重ねて行うので、背景は不透明でなければならない
func opaque(c color.Color) color.Color {
	r, g, bl, _ := c.RGBA()
	return color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(bl), A: 0xffff}
}

func (b *builder) audio(backend mixer.Backend, findSynth func() (*mixer.Synth, error)) error {
	a := b.cfg.Audio
	if err := b.scene.sounds.Load(b.fsys, a.Sounds...); err != nil {
		return err
	}

	var synth *mixer.Synth
	if a.SoundFont != "" {
		var err error
		if synth, err = mixer.LoadSynth(b.fsys, a.SoundFont); err != nil {
			return err
		}
	} else if findSynth != nil && slices.ContainsFunc(a.Music, isMIDI) {
		var err error
		if synth, err = findSynth(); err != nil {
			return err
		}
	}
	tracks := make([]*mixer.Music, 0, len(a.Music))
	for _, name := range a.Music {
		m, err := mixer.LoadMusic(b.fsys, name, synth)
		if err != nil {
			return err
		}
		tracks = append(tracks, m)
	}

	if backend == nil {
		b.scene.log.Info("Audio disabled", "sounds", b.scene.sounds.Len(), "tracks", len(tracks))
		return nil
	}

	n := a.Channels
	if n <= 0 {
		n = mixer.DefaultChannels
	}
	channels, err := mixer.NewChannels(backend, n, b.scene.dispatcher)
	if err != nil {
		return err
	}
	channels.SetLogger(b.scene.log)
	music, err := mixer.NewMusicQueue(backend, b.scene.dispatcher)
	if err != nil {
		return err
	}
	music.SetLogger(b.scene.log)
	if a.Volume != nil {
		music.SetVolume(*a.Volume)
		b.scene.sounds.SetVolume(*a.Volume)
	}
	b.scene.channels = channels
	b.scene.music = music
	return music.Enqueue(tracks...)
}

func (b *builder) sprites() error {
	for i, sc := range b.cfg.Sprites {
		sheet, err := surface.Load(b.fsys, sc.Image)
		if err != nil {
			return err
		}
		if sc.ColorKey != "" {
			key, err := ParseColor(sc.ColorKey)
			if err != nil {
				return err
			}
			sheet.SetColorKey(key, true)
		}

		pos := sprite.NewVector(sc.X, sc.Y, sc.Z)
		var s *sprite.Sprite
		var anim *sprite.AnimatedSprite
		if sc.FrameWidth > 0 {
			anim, err = b.animated(sc, sheet, pos)
			if err != nil {
				return fmt.Errorf("sprite %d: %w", i, err)
			}
			s = anim.Sprite
		} else if s, err = sprite.New(sheet, pos); err != nil {
			return fmt.Errorf("sprite %d: %w", i, err)
		}

		if sc.Alpha != nil {
			if anim != nil {
				anim.SetAlpha(uint8(*sc.Alpha))
			} else {
				s.SetAlpha(uint8(*sc.Alpha))
			}
		}
		s.SetVisible(!sc.Hidden)
		s.SetAllowDrag(sc.Draggable)

		var bounce *mixer.Sound
		if sc.Bounce != "" {
			var ok bool
			if bounce, ok = b.scene.sounds.Get(sc.Bounce); !ok {
				return fmt.Errorf("%w: sprite %d bounce sound %q not loaded", ErrInvalidConfig, i, sc.Bounce)
			}
		}
		beh := b.scene.motion(sc.VX, sc.VY, bounce)
		if anim != nil {
			anim.SetBehavior(beh)
		} else {
			s.SetBehavior(beh)
		}

		if _, err := b.scene.sprites.Add(s); err != nil {
			return err
		}
		b.scene.named(sc.Name, s)
	}
	return nil
}

// animated はスプライトシートからアニメーションスプライトを作成する
func (b *builder) animated(sc SpriteConfig, sheet *surface.ImageSurface, pos sprite.Vector) (*sprite.AnimatedSprite, error) {
	frames, err := surface.Frames(sheet, sc.FrameWidth, sc.FrameHeight)
	if err != nil {
		return nil, err
	}
	surfs := make([]surface.Surface, len(frames))
	for i, f := range frames {
		if key, ok := sheet.ColorKey(); ok {
			f.SetColorKey(key, true)
		}
		surfs[i] = f
	}
	a, err := sprite.NewAnimation(surfs...)
	if err != nil {
		return nil, err
	}
	if sc.DelayMS > 0 {
		a.SetDelay(time.Duration(sc.DelayMS) * time.Millisecond)
	}
	if sc.Loop != nil {
		a.SetLoop(*sc.Loop)
	}
	name := sc.Name
	if name == "" {
		name = sprite.DefaultAnimationName
	}
	return sprite.NewAnimatedSprite(name, a, pos)
}

// shapes は図形をサーフェスに描画してスプライトにする
func (b *builder) shapes() error {
	for i, sc := range b.cfg.Shapes {
		c, err := ParseColor(sc.Color)
		if err != nil {
			return err
		}
		surf := surface.NewImageSurface(sc.W, sc.H)
		if err := primitives.Draw(surf, shapePrimitive(sc), c, sc.Fill, sc.Width); err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
		s, err := sprite.New(surf, sprite.NewVector(sc.X, sc.Y, sc.Z))
		if err != nil {
			return err
		}
		s.SetBehavior(b.scene.motion(sc.VX, sc.VY, nil))
		if _, err := b.scene.sprites.Add(s); err != nil {
			return err
		}
	}
	return nil
}

// shapePrimitive は w×h の枠に収まる図形を返す
func shapePrimitive(sc ShapeConfig) primitives.Primitive {
	center := image.Pt(sc.W/2, sc.H/2)
	radius := min(sc.W, sc.H) / 2
	switch sc.Kind {
	case "circle":
		return primitives.Circle{Center: center, Radius: radius}
	case "ellipse":
		return primitives.Ellipse{Center: center, RadiusX: sc.W / 2, RadiusY: sc.H / 2}
	case "triangle":
		return primitives.Triangle{A: image.Pt(sc.W/2, 0), B: image.Pt(sc.W-1, sc.H-1), C: image.Pt(0, sc.H-1)}
	case "line":
		return primitives.Line{From: image.Pt(0, 0), To: image.Pt(sc.W-1, sc.H-1)}
	case "pie":
		return primitives.Pie{Center: center, Radius: radius, Start: int(sc.Start), End: int(sc.End)}
	default:
		return primitives.Box{Rect: image.Rect(0, 0, sc.W, sc.H)}
	}
}

func (b *builder) texts() error {
	for i, tc := range b.cfg.Texts {
		str, err := b.textContent(tc)
		if err != nil {
			return fmt.Errorf("text %d: %w", i, err)
		}

		f := text.DefaultFont()
		if tc.Font != "" {
			size := tc.Size
			if size <= 0 {
				size = 16
			}
			if f, err = text.OpenFont(b.fsys, tc.Font, size); err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
		}
		var style text.Style
		if tc.Bold {
			style |= text.Bold
		}
		if tc.Underline {
			style |= text.Underline
		}
		f.SetStyle(style)

		fg := color.Color(color.White)
		if tc.Color != "" {
			if fg, err = ParseColor(tc.Color); err != nil {
				return err
			}
		}
		var bg color.Color
		if tc.Background != "" {
			if bg, err = ParseColor(tc.Background); err != nil {
				return err
			}
		}

		surf := f.Render(str, fg, bg, tc.Wrap, tc.MaxLines)
		s, err := sprite.New(surf, sprite.NewVector(tc.X, tc.Y, tc.Z))
		if err != nil {
			return err
		}
		if _, err := b.scene.sprites.Add(s); err != nil {
			return err
		}
	}
	return nil
}

// textContent はテキスト本文を返す（ファイル指定時は読み込んで UTF-8 に変換する）
func (b *builder) textContent(tc TextConfig) (string, error) {
	if tc.File == "" {
		return tc.Text, nil
	}
	data, err := fileutil.ReadFile(b.fsys, tc.File)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(tc.Encoding) {
	case "shift_jis", "sjis":
		return decodeShiftJIS(data)
	default:
		return string(data), nil
	}
}

// decodeShiftJIS はShift-JISからUTF-8に変換する
func decodeShiftJIS(data []byte) (string, error) {
	r := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode Shift_JIS: %w", err)
	}
	return string(out), nil
}

func (b *builder) emitters() error {
	screen := image.Rect(0, 0, b.cfg.Width, b.cfg.Height)
	for i, ec := range b.cfg.Emitters {
		sys := particles.NewSystem()
		sys.SetLogger(b.scene.log)

		seed := ec.Seed
		if seed == 0 {
			seed = uint64(i + 1)
		}
		e := sys.NewEmitter(ec.X, ec.Y, seed)
		if ec.Rate > 0 {
			e.Rate = ec.Rate
		}
		if ec.Life > 0 {
			e.Life, e.LifeFull = ec.Life, ec.Life
		}
		if ec.LifeMin > 0 {
			e.LifeMin = ec.LifeMin
			e.LifeMax = max(ec.LifeMax, ec.LifeMin)
		}
		if ec.SpeedMax > 0 {
			e.SpeedMin, e.SpeedMax = ec.SpeedMin, ec.SpeedMax
		}
		if ec.Color != "" {
			c, err := ParseColor(ec.Color)
			if err != nil {
				return err
			}
			e.Color = c
		}
		if ec.Radius > 0 {
			col, radius := e.Color, ec.Radius
			e.Spawn = func(m particles.Motion, _ *rand.Rand) particles.Particle {
				return particles.NewCircle(m, col, radius)
			}
		}

		if ec.Gravity != 0 {
			sys.AddManipulator(particles.Gravity{Y: ec.Gravity})
		}
		if ec.Friction > 0 {
			sys.AddManipulator(particles.Friction{Factor: ec.Friction})
		}
		if ec.Contain {
			sys.AddManipulator(particles.Boundary{Rect: screen})
		}
		b.scene.particles = append(b.scene.particles, sys)
	}
	return nil
}

// events はスプライトへのイベント中継を有効にする
func (b *builder) events() error {
	d := b.scene.dispatcher
	if err := b.scene.sprites.EnableTickEvent(d); err != nil {
		return err
	}
	if err := b.scene.sprites.EnableMouseButtonEvent(d); err != nil {
		return err
	}
	if err := b.scene.sprites.EnableMouseMotionEvent(d); err != nil {
		return err
	}
	return b.scene.sprites.EnableKeyboardEvent(d)
}
