package sprite

import (
	"cmp"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"strings"

	"github.com/zurustar/spritekit/pkg/logger"
	"github.com/zurustar/spritekit/pkg/surface"
)

// SortDirection はZ軸ソートの方向
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// Collection はZ順序で合成するスプライトの集合
//
// Draw で奥から順に描画し、変化した矩形（ダーティ矩形）を返す。
// Kill や Remove で取り除かれたスプライトの矩形は Erase まで保持される。
//
// 描画順序はスライスの順序で決定される:
//   - スライスの先頭 = 最背面（最初に描画）
//   - スライスの末尾 = 最前面（最後に描画）
//
// 単一のゴルーチン（ゲームループ）から使うことを前提とする。
type Collection struct {
	sprites  []*Sprite
	isSorted bool

	// lostRects は破棄・削除されたスプライトが占めていた矩形（Erase待ち）
	lostRects []image.Rectangle
	// rects は直近の Draw で描画前後に触れた矩形
	rects []image.Rectangle

	// Draw の反復中に届いた破棄通知は反復後に適用する
	drawing      bool
	pendingKills []*Sprite

	relays map[eventRelayKey]relay

	log *slog.Logger
}

// NewCollection は空のコレクションを作成する
func NewCollection() *Collection {
	return &Collection{
		isSorted: true,
		log:      logger.GetLogger(),
	}
}

// SetLogger はロガーを設定する
func (c *Collection) SetLogger(log *slog.Logger) {
	if log != nil {
		c.log = log
	}
}

// ============================================================================
// メンバー管理
// ============================================================================

// Add はスプライトを末尾に追加し、未ソート状態にする
// 既に含まれているスプライトは追加しない（false を返す）
func (c *Collection) Add(s *Sprite) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("add sprite: %w", ErrInvalidArgument)
	}
	if c.indexOf(s) >= 0 {
		return false, nil
	}
	c.sprites = append(c.sprites, s)
	c.isSorted = false
	s.Subscribe(c)
	return true, nil
}

// AddCollection は other のすべてのスプライトを追加し、追加後の要素数を返す
func (c *Collection) AddCollection(other *Collection) (int, error) {
	if other == nil {
		return c.Len(), fmt.Errorf("add collection: %w", ErrInvalidArgument)
	}
	for _, s := range other.Sprites() {
		if _, err := c.Add(s); err != nil {
			return c.Len(), err
		}
	}
	return c.Len(), nil
}

// Len はスプライトの数を返す
func (c *Collection) Len() int {
	return len(c.sprites)
}

// At は i 番目（現在の描画順）のスプライトを返す
func (c *Collection) At(i int) *Sprite {
	return c.sprites[i]
}

// Sprites は現在の描画順のスプライトのコピーを返す
func (c *Collection) Sprites() []*Sprite {
	out := make([]*Sprite, len(c.sprites))
	copy(out, c.sprites)
	return out
}

// Contains はスプライトが含まれているかどうかを返す
// Draw 中に破棄されたスプライトは含まれていないものとして扱う
func (c *Collection) Contains(s *Sprite) bool {
	return c.indexOf(s) >= 0 && !slices.Contains(c.pendingKills, s)
}

// IsSorted はZ順序のソートが最新かどうかを返す
func (c *Collection) IsSorted() bool {
	return c.isSorted
}

// LostRects は Erase 待ちの矩形のコピーを返す
func (c *Collection) LostRects() []image.Rectangle {
	return slices.Clone(c.lostRects)
}

// LastRects は直近の Draw で触れた矩形のコピーを返す
func (c *Collection) LastRects() []image.Rectangle {
	return slices.Clone(c.rects)
}

func (c *Collection) indexOf(s *Sprite) int {
	return slices.Index(c.sprites, s)
}

// removeMember はスプライトをスライスから取り除き、購読を解除する
func (c *Collection) removeMember(s *Sprite) bool {
	i := c.indexOf(s)
	if i < 0 {
		return false
	}
	c.sprites = slices.Delete(c.sprites, i, i+1)
	s.Unsubscribe(c)
	return true
}

// Notify はスプライトからの通知を処理する
func (c *Collection) Notify(n Notification) {
	s := n.Sprite()
	if !c.Contains(s) {
		return
	}
	switch v := n.(type) {
	case ZChanged:
		c.isSorted = false
	case Killed:
		c.lostRects = append(c.lostRects, v.Rect)
		if c.drawing {
			c.pendingKills = append(c.pendingKills, s)
			return
		}
		c.removeMember(s)
		c.log.Debug("Sprite killed", "id", s.ID(), "rect", v.Rect)
	}
}

// ============================================================================
// 描画（Drawing）
// ============================================================================

// Draw は可視スプライトをZ順序で dst に描画し、触れた矩形を返す
//
// 各可視スプライトについて、前回の描画矩形と今回の描画矩形の両方が返される。
// 非表示のスプライトは描画されず、矩形も返されない。
func (c *Collection) Draw(dst surface.Surface) ([]image.Rectangle, error) {
	if dst == nil {
		return nil, fmt.Errorf("draw: nil destination: %w", ErrInvalidArgument)
	}

	c.rects = c.rects[:0]
	if !c.isSorted {
		c.SortByZAxis(Ascending)
		c.isSorted = true
	}

	c.drawing = true
	for _, s := range c.Sprites() {
		if !s.visible || slices.Contains(c.pendingKills, s) {
			continue
		}
		c.rects = append(c.rects, s.lastBlit)
		s.lastBlit = dst.Blit(s.surface, s.Rectangle().Min, image.Rectangle{})
		c.rects = append(c.rects, s.lastBlit)
	}
	c.drawing = false

	if len(c.pendingKills) > 0 {
		for _, s := range c.pendingKills {
			c.removeMember(s)
		}
		c.pendingKills = c.pendingKills[:0]
	}

	c.log.Debug("Collection drawn", "sprites", len(c.sprites), "rects", len(c.rects))
	return slices.Clone(c.rects), nil
}

// Erase は背景で画面を復元する
//
// 1. Erase待ちの矩形（破棄・削除されたスプライトの跡）に背景を描画し、まとめて Update してからキューを空にする
// 2. 直近の Draw で触れたすべての矩形にも背景を描画する（描画したばかりのスプライトも上書きされる）
func (c *Collection) Erase(dst, background surface.Surface) error {
	if dst == nil {
		return fmt.Errorf("erase: nil surface: %w", ErrInvalidArgument)
	}
	if background == nil {
		return fmt.Errorf("erase: nil background: %w", ErrInvalidArgument)
	}

	if len(c.lostRects) > 0 {
		for _, r := range c.lostRects {
			restore(dst, background, r)
		}
		dst.Update(c.lostRects...)
		c.lostRects = nil
	}

	for _, r := range c.rects {
		restore(dst, background, r)
	}
	return nil
}

// restore は背景の r の部分を dst の同じ位置に描画する
func restore(dst, background surface.Surface, r image.Rectangle) {
	r = r.Intersect(background.Bounds())
	if r.Empty() {
		return
	}
	dst.Blit(background, r.Min, r)
}

// SortByZAxis はZ値で安定ソートする（同じZ値の間では現在の順序を保つ）
func (c *Collection) SortByZAxis(dir SortDirection) {
	slices.SortStableFunc(c.sprites, func(a, b *Sprite) int {
		if dir == Descending {
			return cmp.Compare(b.Z(), a.Z())
		}
		return cmp.Compare(a.Z(), b.Z())
	})
}

// ============================================================================
// 削除と破棄
// ============================================================================

// Remove は other に含まれるスプライトのうち、このコレクションのメンバーをすべて取り除く
// 取り除いた各スプライトの LastBlitRectangle は Erase 待ちに追加される
func (c *Collection) Remove(other *Collection) error {
	if other == nil {
		return fmt.Errorf("remove collection: %w", ErrInvalidArgument)
	}
	c.RemoveSprites(other.Sprites())
	return nil
}

// RemoveSprites は list のスプライトのうち、このコレクションのメンバーをすべて取り除く
func (c *Collection) RemoveSprites(list []*Sprite) {
	for _, s := range list {
		if s == nil || !c.Contains(s) {
			continue
		}
		c.lostRects = append(c.lostRects, s.lastBlit)
		c.removeMember(s)
	}
}

// Kill はすべてのメンバーを破棄する
// 各スプライトの破棄通知は、このコレクションを含む購読中のすべてのコレクションに届く
func (c *Collection) Kill() {
	for _, s := range c.Sprites() {
		s.Kill()
	}
}

// ============================================================================
// 当たり判定
// ============================================================================

// IntersectsWithSprite は s と重なるメンバーを描画順で返す
func (c *Collection) IntersectsWithSprite(s *Sprite) ([]*Sprite, error) {
	if s == nil {
		return nil, fmt.Errorf("intersects with sprite: %w", ErrInvalidArgument)
	}
	var out []*Sprite
	for _, m := range c.sprites {
		if m.IntersectsWithRect(s.Rectangle()) {
			out = append(out, m)
		}
	}
	return out, nil
}

// IntersectsWithCollection はメンバーごとに other 内で最初に重なったスプライトを返す
// 重なるものがないメンバーは結果に含まれない
func (c *Collection) IntersectsWithCollection(other *Collection) (map[*Sprite]*Sprite, error) {
	if other == nil {
		return nil, fmt.Errorf("intersects with collection: %w", ErrInvalidArgument)
	}
	out := make(map[*Sprite]*Sprite)
	for _, s := range c.sprites {
		for _, t := range other.sprites {
			if s.IntersectsWithRect(t.Rectangle()) {
				out[s] = t
				break
			}
		}
	}
	return out, nil
}

// ============================================================================
// デバッグ支援（Debug Support）
// ============================================================================

// DrawOrder は描画順序のリストを文字列で返す
func (c *Collection) DrawOrder() string {
	var sb strings.Builder
	sb.WriteString("Draw Order:\n")
	for i, s := range c.sprites {
		visibility := "visible"
		if !s.visible {
			visibility = "hidden"
		}
		fmt.Fprintf(&sb, "  %d. Sprite %d z=%d (%s)\n", i+1, s.id, s.Z(), visibility)
	}
	return sb.String()
}
