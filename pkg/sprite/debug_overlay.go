package sprite

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/zurustar/spritekit/pkg/surface"
)

// デバッグオーバーレイの色定義
var (
	debugBgColor = color.RGBA{0, 0, 0, 180} // 半透明黒

	debugBoundingBoxColor       = color.RGBA{0, 255, 0, 255} // 緑（表示スプライト）
	debugBoundingBoxHiddenColor = color.RGBA{255, 0, 0, 128} // 半透明赤（非表示スプライト）
	debugDirtyRectColor         = color.RGBA{255, 0, 255, 255}
	debugLabelColor             = color.White
)

// デバッグオーバーレイの定数
const (
	debugLabelCharWidth  = 6  // ebitenutil.DebugPrintAtの文字幅
	debugLabelCharHeight = 16 // ebitenutil.DebugPrintAtの文字高さ
	debugLabelPadding    = 2  // ラベルのパディング
	debugBoundingBoxLine = 1  // バウンディングボックスの線幅
)

// DebugOverlayOptions はデバッグオーバーレイの表示オプション
type DebugOverlayOptions struct {
	ShowSpriteInfo    bool // スプライト情報（ID、位置、Z）を表示
	ShowBoundingBoxes bool // バウンディングボックスを表示
	ShowHiddenSprites bool // 非表示スプライトも表示
	ShowDirtyRects    bool // 直近の Draw で触れた矩形を表示
}

// DefaultDebugOverlayOptions はデフォルトのデバッグオーバーレイオプションを返す
func DefaultDebugOverlayOptions() DebugOverlayOptions {
	return DebugOverlayOptions{
		ShowSpriteInfo:    true,
		ShowBoundingBoxes: true,
		ShowHiddenSprites: false,
		ShowDirtyRects:    false,
	}
}

// DebugOverlay はコレクションの状態を画面に重ねて表示する
//
// 描画はコレクションの Draw の後に行う。オーバーレイが描いた領域は
// Update で通知しないので、次の Erase で背景に戻される保証はない。
type DebugOverlay struct {
	enabled bool
	options DebugOverlayOptions
	mu      sync.RWMutex
}

// NewDebugOverlay は新しいDebugOverlayを作成する
func NewDebugOverlay() *DebugOverlay {
	return &DebugOverlay{
		options: DefaultDebugOverlayOptions(),
	}
}

// SetEnabled はデバッグオーバーレイの有効/無効を設定する
func (do *DebugOverlay) SetEnabled(enabled bool) {
	do.mu.Lock()
	defer do.mu.Unlock()
	do.enabled = enabled
}

// IsEnabled はデバッグオーバーレイが有効かどうかを返す
func (do *DebugOverlay) IsEnabled() bool {
	do.mu.RLock()
	defer do.mu.RUnlock()
	return do.enabled
}

// SetOptions はデバッグオーバーレイのオプションを設定する
func (do *DebugOverlay) SetOptions(options DebugOverlayOptions) {
	do.mu.Lock()
	defer do.mu.Unlock()
	do.options = options
}

// Options はデバッグオーバーレイのオプションを取得する
func (do *DebugOverlay) Options() DebugOverlayOptions {
	do.mu.RLock()
	defer do.mu.RUnlock()
	return do.options
}

// Draw はコレクションのデバッグ情報を dst に描画する
func (do *DebugOverlay) Draw(dst surface.Surface, c *Collection) {
	do.mu.RLock()
	defer do.mu.RUnlock()

	if !do.enabled || dst == nil || c == nil {
		return
	}

	if do.options.ShowDirtyRects {
		for _, r := range c.rects {
			strokeRect(dst, r, debugDirtyRectColor)
		}
	}

	for _, s := range c.sprites {
		if !s.visible && !do.options.ShowHiddenSprites {
			continue
		}
		if do.options.ShowBoundingBoxes {
			boxColor := debugBoundingBoxColor
			if !s.visible {
				boxColor = debugBoundingBoxHiddenColor
			}
			strokeRect(dst, s.Rectangle(), boxColor)
		}
		if do.options.ShowSpriteInfo {
			drawLabel(dst, spriteLabel(s), s.Rectangle().Min)
		}
	}
}

// spriteLabel はスプライト情報のラベル
func spriteLabel(s *Sprite) string {
	label := fmt.Sprintf("S%d (%d,%d) z%d", s.id, s.X(), s.Y(), s.Z())
	// 非表示の場合は印を追加
	if !s.visible {
		label += " H"
	}
	return label
}

// strokeRect は矩形の枠を描画する
func strokeRect(dst surface.Surface, r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	var p surface.Path
	p.MoveTo(float32(r.Min.X), float32(r.Min.Y))
	p.LineTo(float32(r.Max.X), float32(r.Min.Y))
	p.LineTo(float32(r.Max.X), float32(r.Max.Y))
	p.LineTo(float32(r.Min.X), float32(r.Max.Y))
	p.Close()
	dst.StrokePath(&p, debugBoundingBoxLine, c)
}

// drawLabel は背景付きのラベルを描画する
// Ebitengine のサーフェスでは ebitenutil.DebugPrintAt、CPUサーフェスでは basicfont を使う
func drawLabel(dst surface.Surface, label string, at image.Point) {
	bg := image.Rect(
		at.X-debugLabelPadding, at.Y-debugLabelPadding,
		at.X+len(label)*debugLabelCharWidth+debugLabelPadding, at.Y+debugLabelCharHeight+debugLabelPadding,
	)
	dst.Fill(bg, debugBgColor)

	switch d := dst.(type) {
	case *surface.EbitenSurface:
		// DebugPrintAtは白色固定のため、色の区別は背景色で行う
		ebitenutil.DebugPrintAt(d.Image(), label, at.X, at.Y)
	case *surface.ImageSurface:
		face := basicfont.Face7x13
		drawer := font.Drawer{
			Dst:  d.RGBA(),
			Src:  image.NewUniform(debugLabelColor),
			Face: face,
			Dot:  fixed.P(at.X, at.Y+face.Ascent),
		}
		drawer.DrawString(label)
		d.Touch()
	}
}
