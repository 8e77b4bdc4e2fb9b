package scene

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/zurustar/spritekit/pkg/event"
	"github.com/zurustar/spritekit/pkg/mixer"
	"github.com/zurustar/spritekit/pkg/particles"
	"github.com/zurustar/spritekit/pkg/sprite"
	"github.com/zurustar/spritekit/pkg/surface"
)

// Scene は背景・スプライト・パーティクル・音声をまとめて1フレームずつ進める
//
// 1フレームは、イベントの配送（Tick を含む）→ Update → Render の順に進む。
// Render は前フレームに描いた領域だけを背景で消してから描き直す。
type Scene struct {
	title         string
	width, height int

	background *surface.ImageSurface
	sprites    *sprite.Collection
	byName     map[string]*sprite.Sprite
	particles  particles.Systems
	dispatcher *event.Dispatcher
	channels   *mixer.Channels
	music      *mixer.MusicQueue
	sounds     *mixer.SoundSet
	overlay    *sprite.DebugOverlay

	painted       bool
	lastParticles image.Rectangle
	frame         int64
	log           *slog.Logger
}

// Title はシーンのタイトルを返す
func (s *Scene) Title() string { return s.title }

// Size は画面サイズを返す
func (s *Scene) Size() (int, int) { return s.width, s.height }

// Dispatcher はイベントの配送先を返す
func (s *Scene) Dispatcher() *event.Dispatcher { return s.dispatcher }

// Background は背景サーフェスを返す
func (s *Scene) Background() *surface.ImageSurface { return s.background }

// Sprites はスプライトのコレクションを返す
func (s *Scene) Sprites() *sprite.Collection { return s.sprites }

// Sprite は名前付きスプライトを返す
func (s *Scene) Sprite(name string) (*sprite.Sprite, bool) {
	sp, ok := s.byName[name]
	return sp, ok
}

// Particles はパーティクルシステムを返す
func (s *Scene) Particles() particles.Systems { return s.particles }

// Sounds は読み込んだ効果音を返す
func (s *Scene) Sounds() *mixer.SoundSet { return s.sounds }

// Channels は効果音のチャンネルを返す（音声無効時は nil）
func (s *Scene) Channels() *mixer.Channels { return s.channels }

// Music は BGM のキューを返す（音声無効時は nil）
func (s *Scene) Music() *mixer.MusicQueue { return s.music }

// Overlay はデバッグオーバーレイを返す
func (s *Scene) Overlay() *sprite.DebugOverlay { return s.overlay }

// Frame は Update が呼ばれた回数を返す
func (s *Scene) Frame() int64 { return s.frame }

// SetMuted は効果音と BGM を消音する
func (s *Scene) SetMuted(muted bool) {
	if s.channels != nil {
		s.channels.SetMuted(muted)
	}
	if s.music != nil {
		s.music.SetMuted(muted)
	}
}

// Update はパーティクルを進め、終了した音声を通知する
// スプライトは配送された Tick イベントで自分で動く
func (s *Scene) Update() error {
	s.frame++
	s.particles.Update()
	if s.channels != nil {
		s.channels.Poll()
	}
	if s.music != nil {
		s.music.Poll()
	}
	return nil
}

// Invalidate は次の Render で背景全体を描き直させる
func (s *Scene) Invalidate() {
	s.painted = false
}

// Render は dst にシーンを描画し、変更した領域を dst.Update で通知する
func (s *Scene) Render(dst surface.Surface) error {
	if dst == nil {
		return fmt.Errorf("render: %w", surface.ErrInvalidArgument)
	}
	screen := s.background.Bounds()

	if !s.painted {
		dst.Blit(s.background, image.Point{}, image.Rectangle{})
		dst.Update(screen)
		s.painted = true
	} else if r := s.lastParticles; !r.Empty() {
		dst.Blit(s.background, r.Min, r)
		dst.Update(r)
	}

	if err := s.sprites.Erase(dst, s.background); err != nil {
		return err
	}
	rects, err := s.sprites.Draw(dst)
	if err != nil {
		return err
	}
	dst.Update(rects...)

	pr := s.particles.Bounds().Intersect(screen)
	s.particles.Render(dst)
	if !pr.Empty() {
		dst.Update(pr)
	}
	s.lastParticles = pr

	if s.overlay.IsEnabled() {
		s.overlay.Draw(dst, s.sprites)
		dst.Update(screen)
		// オーバーレイは差分管理しないので次フレームは全体を描き直す
		s.painted = false
	}
	return nil
}

// Close は音声を止め、イベントの中継を解除する
func (s *Scene) Close() {
	if s.channels != nil {
		s.channels.StopAll()
	}
	if s.music != nil {
		s.music.ClearQueue()
		s.music.Stop()
	}
	s.sprites.DisableAllEvents()
}

// named は名前付きスプライトを登録する
func (s *Scene) named(name string, sp *sprite.Sprite) {
	if name == "" {
		return
	}
	if s.byName == nil {
		s.byName = make(map[string]*sprite.Sprite)
	}
	s.byName[name] = sp
}

// motion は等速移動・画面端での跳ね返り・ドラッグを行う振る舞いを返す
// bounce が nil でなければ跳ね返るたびに空きチャンネルで再生する
func (s *Scene) motion(vx, vy float64, bounce *mixer.Sound) sprite.Behavior {
	return sprite.BehaviorFunc(func(sp *sprite.Sprite, ev event.Event) {
		switch e := ev.(type) {
		case event.Tick:
			if sp.BeingDragged() || (vx == 0 && vy == 0) {
				return
			}
			v := sp.Vector()
			v.X += vx
			v.Y += vy
			sp.SetVector(v)

			bounced := false
			if (sp.Left() < 0 && vx < 0) || (sp.Right() > s.width && vx > 0) {
				vx = -vx
				bounced = true
			}
			if (sp.Top() < 0 && vy < 0) || (sp.Bottom() > s.height && vy > 0) {
				vy = -vy
				bounced = true
			}
			if bounced && bounce != nil && s.channels != nil {
				if _, err := s.channels.Play(mixer.AnyChannel, bounce); err != nil {
					s.log.Debug("Bounce sound skipped", "sprite", sp.ID(), "error", err)
				}
			}

		case event.MouseButton:
			if e.Button != ebiten.MouseButtonLeft || !sp.AllowDrag() {
				return
			}
			if e.Down && sp.IntersectsWithPoint(e.Position) {
				sp.SetBeingDragged(true)
			} else if !e.Down {
				sp.SetBeingDragged(false)
			}

		case event.MouseMotion:
			if sp.BeingDragged() {
				sp.SetPosition(sp.Position().Add(e.Relative))
			}
		}
	})
}
