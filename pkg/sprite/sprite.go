package sprite

import (
	"fmt"
	"image"
	"image/color"
	"sync/atomic"

	"github.com/zurustar/spritekit/pkg/event"
	"github.com/zurustar/spritekit/pkg/surface"
)

// nextID はスプライトIDの採番用カウンタ
var nextID atomic.Int64

// Behavior はスプライトに届いたイベントを処理する
// 振る舞いを持たないスプライトはすべてのイベントを無視する
type Behavior interface {
	Update(s *Sprite, ev event.Event)
}

// BehaviorFunc は関数を Behavior として使うためのアダプタ
type BehaviorFunc func(s *Sprite, ev event.Event)

// Update は f(s, ev) を呼ぶ
func (f BehaviorFunc) Update(s *Sprite, ev event.Event) { f(s, ev) }

// Sprite は描画される1つの要素
//
// サーフェスは所有しない（参照のみ）。破棄の責任はサーフェスの持ち主にある。
// 1つのスプライトは同時に複数の Collection に所属できる。
type Sprite struct {
	id      int64
	surface surface.Surface
	pos     Vector
	visible bool

	// lastBlit は直近の Collection.Draw で描画された矩形
	lastBlit image.Rectangle

	// バウンディングボックスモード
	boundingBox bool
	box         image.Rectangle

	allowDrag    bool
	beingDragged bool

	behavior  Behavior
	observers []Observer
}

// New はサーフェスと位置からスプライトを作成する
func New(surf surface.Surface, pos Vector) (*Sprite, error) {
	if surf == nil {
		return nil, fmt.Errorf("new sprite: nil surface: %w", ErrInvalidArgument)
	}
	return &Sprite{
		id:      nextID.Add(1),
		surface: surf,
		pos:     pos,
		visible: true,
	}, nil
}

// NewAt は点の位置（Z=0）にスプライトを作成する
func NewAt(surf surface.Surface, p image.Point) (*Sprite, error) {
	return New(surf, VectorAt(p))
}

// ID はスプライトのIDを返す
func (s *Sprite) ID() int64 {
	return s.id
}

// ============================================================================
// 表示（Display）
// ============================================================================

// Surface はスプライトのサーフェスを返す
func (s *Sprite) Surface() surface.Surface {
	return s.surface
}

// SetSurface はスプライトのサーフェスを差し替える
func (s *Sprite) SetSurface(surf surface.Surface) error {
	if surf == nil {
		return fmt.Errorf("set surface: %w", ErrInvalidArgument)
	}
	s.surface = surf
	return nil
}

// Visible はスプライトの可視性を返す
func (s *Sprite) Visible() bool {
	return s.visible
}

// SetVisible はスプライトの可視性を設定する
// 非表示のスプライトは描画されないが、コレクション内の位置は保持される
func (s *Sprite) SetVisible(v bool) {
	s.visible = v
}

// LastBlitRectangle は直近の描画で使われた矩形を返す
func (s *Sprite) LastBlitRectangle() image.Rectangle {
	return s.lastBlit
}

// Alpha はサーフェスの透明度を返す（0〜255）
// サーフェスが透明度に対応しない場合は255
func (s *Sprite) Alpha() uint8 {
	if k, ok := s.surface.(surface.Keyed); ok {
		return k.Alpha()
	}
	return 255
}

// SetAlpha はサーフェスの透明度を設定する
func (s *Sprite) SetAlpha(a uint8) {
	if k, ok := s.surface.(surface.Keyed); ok {
		k.SetAlpha(a)
	}
}

// TransparentColor はサーフェスのカラーキーと、それが有効かどうかを返す
func (s *Sprite) TransparentColor() (color.Color, bool) {
	if k, ok := s.surface.(surface.Keyed); ok {
		return k.ColorKey()
	}
	return nil, false
}

// SetTransparentColor はサーフェスのカラーキーを設定する
func (s *Sprite) SetTransparentColor(c color.Color, enabled bool) {
	if k, ok := s.surface.(surface.Keyed); ok {
		k.SetColorKey(c, enabled)
	}
}

// AllowDrag はドラッグを許可するかどうかを返す
func (s *Sprite) AllowDrag() bool { return s.allowDrag }

// SetAllowDrag はドラッグを許可するかどうかを設定する
func (s *Sprite) SetAllowDrag(v bool) { s.allowDrag = v }

// BeingDragged はドラッグ中かどうかを返す
func (s *Sprite) BeingDragged() bool { return s.beingDragged }

// SetBeingDragged はドラッグ中かどうかを設定する
func (s *Sprite) SetBeingDragged(v bool) { s.beingDragged = v }

// ============================================================================
// イベント（Events）
// ============================================================================

// SetBehavior はイベントを処理する振る舞いを設定する（nilで解除）
func (s *Sprite) SetBehavior(b Behavior) {
	s.behavior = b
}

// Behavior は設定されている振る舞いを返す
func (s *Sprite) Behavior() Behavior {
	return s.behavior
}

// Update はイベントを振る舞いに渡す
// 振る舞いが設定されていなければ何もしない
func (s *Sprite) Update(ev event.Event) {
	if s.behavior != nil && ev != nil {
		s.behavior.Update(s, ev)
	}
}

// Subscribe は通知の購読者を登録する（登録済みなら何もしない）
func (s *Sprite) Subscribe(o Observer) {
	if o == nil {
		return
	}
	for _, x := range s.observers {
		if x == o {
			return
		}
	}
	s.observers = append(s.observers, o)
}

// Unsubscribe は通知の購読者を解除する
func (s *Sprite) Unsubscribe(o Observer) {
	for i, x := range s.observers {
		if x == o {
			next := make([]Observer, 0, len(s.observers)-1)
			next = append(next, s.observers[:i]...)
			s.observers = append(next, s.observers[i+1:]...)
			return
		}
	}
}

// broadcast は購読者全員に同期的に通知する
// 通知中に購読の解除があっても、開始時点の購読者には届く
func (s *Sprite) broadcast(n Notification) {
	for _, o := range s.observers {
		o.Notify(n)
	}
}

// Kill は破棄通知を送る
// スプライト自身もコレクションも直接は変更しない。購読しているコレクションが通知を受けて取り除く
func (s *Sprite) Kill() {
	s.broadcast(Killed{sprite: s, Rect: s.lastBlit})
}

// ============================================================================
// ジオメトリ（Geometry）
// ============================================================================

// Vector はスプライトの位置ベクトルを返す
func (s *Sprite) Vector() Vector {
	return s.pos
}

// SetVector は位置ベクトルを設定する
// Z が変わった場合は ZChanged を通知する
func (s *Sprite) SetVector(v Vector) {
	zChanged := int(v.Z) != int(s.pos.Z)
	s.pos = v
	if zChanged {
		s.broadcast(ZChanged{sprite: s})
	}
}

// Position は画面上の位置を返す
func (s *Sprite) Position() image.Point {
	return s.pos.Point()
}

// SetPosition は画面上の位置を設定する（Z は変わらない）
func (s *Sprite) SetPosition(p image.Point) {
	s.pos.X = float64(p.X)
	s.pos.Y = float64(p.Y)
}

// X はX座標を返す
func (s *Sprite) X() int { return int(s.pos.X) }

// SetX はX座標を設定する
func (s *Sprite) SetX(x int) { s.pos.X = float64(x) }

// Y はY座標を返す
func (s *Sprite) Y() int { return int(s.pos.Y) }

// SetY はY座標を設定する
func (s *Sprite) SetY(y int) { s.pos.Y = float64(y) }

// Z は描画順序のキーを返す（小さいほど奥）
func (s *Sprite) Z() int { return int(s.pos.Z) }

// SetZ は描画順序のキーを設定し、戻る前に ZChanged を通知する
func (s *Sprite) SetZ(z int) {
	s.pos.Z = float64(z)
	s.broadcast(ZChanged{sprite: s})
}

// Width はサーフェスの幅を返す
func (s *Sprite) Width() int { return s.surface.Width() }

// Height はサーフェスの高さを返す
func (s *Sprite) Height() int { return s.surface.Height() }

// Size はサーフェスのサイズを返す
func (s *Sprite) Size() image.Point {
	return image.Pt(s.surface.Width(), s.surface.Height())
}

// Left は左端のX座標を返す
func (s *Sprite) Left() int { return s.X() }

// Right は右端のX座標を返す（X + 幅）
func (s *Sprite) Right() int { return s.X() + s.Width() }

// Top は上端のY座標を返す
func (s *Sprite) Top() int { return s.Y() }

// Bottom は下端のY座標を返す（Y + 高さ）
func (s *Sprite) Bottom() int { return s.Y() + s.Height() }

// Center は中心の座標を返す
func (s *Sprite) Center() image.Point {
	return image.Pt(s.X()+s.Width()/2, s.Y()+s.Height()/2)
}

// SetCenter は中心が p になるように位置を設定する
func (s *Sprite) SetCenter(p image.Point) {
	s.SetX(p.X - s.Width()/2)
	s.SetY(p.Y - s.Height()/2)
}

// BoundingBox はバウンディングボックスモードかどうかを返す
func (s *Sprite) BoundingBox() bool { return s.boundingBox }

// SetBoundingBox はバウンディングボックスモードを設定する
// 有効な間、Rectangle は位置と無関係に明示的に設定された矩形を返す
func (s *Sprite) SetBoundingBox(v bool) { s.boundingBox = v }

// Rectangle はスプライトの矩形を返す
// 通常は位置 + サーフェスサイズ、バウンディングボックスモードでは設定された矩形
// （未設定の場合は最初の参照時に位置 + サイズで初期化される）
func (s *Sprite) Rectangle() image.Rectangle {
	if s.boundingBox {
		if s.box == (image.Rectangle{}) {
			s.box = s.rect()
		}
		return s.box
	}
	return s.rect()
}

// SetRectangle は矩形を設定する
// バウンディングボックスモードでは矩形を保持し、通常は位置を r.Min に移して Z を 0 に戻す
func (s *Sprite) SetRectangle(r image.Rectangle) {
	if s.boundingBox {
		s.box = r
		return
	}
	s.SetVector(Vector{X: float64(r.Min.X), Y: float64(r.Min.Y), Z: 0})
}

// rect は位置 + サーフェスサイズの矩形
func (s *Sprite) rect() image.Rectangle {
	p := s.Position()
	return image.Rectangle{Min: p, Max: p.Add(s.Size())}
}

func (s *Sprite) String() string {
	return fmt.Sprintf("Sprite %d: pos=(%d,%d,%d) size=%dx%d visible=%t",
		s.id, s.X(), s.Y(), s.Z(), s.Width(), s.Height(), s.visible)
}
