package surface

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/zurustar/spritekit/pkg/logger"
)

// ImageSurface は *image.RGBA を背後に持つCPU側のサーフェス
// ヘッドレスモードの描画先、テスト、読み込んだ画像の保持に使う
type ImageSurface struct {
	mu  sync.Mutex
	img *image.RGBA

	alpha      uint8
	key        color.RGBA
	keyEnabled bool

	// version は内容が変わるたびに増える（GPU側キャッシュの無効化用）
	version uint64

	updates []image.Rectangle
}

// NewImageSurface は透明で初期化された w×h のサーフェスを作成する
func NewImageSurface(w, h int) *ImageSurface {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &ImageSurface{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		alpha: 255,
	}
}

// NewImageSurfaceFrom は任意の image.Image をコピーしてサーフェスを作成する
func NewImageSurfaceFrom(src image.Image) *ImageSurface {
	b := src.Bounds()
	s := NewImageSurface(b.Dx(), b.Dy())
	draw.Draw(s.img, s.img.Bounds(), src, b.Min, draw.Src)
	return s
}

// Width はサーフェスの幅を返す
func (s *ImageSurface) Width() int { return s.img.Bounds().Dx() }

// Height はサーフェスの高さを返す
func (s *ImageSurface) Height() int { return s.img.Bounds().Dy() }

// Bounds はサーフェスの矩形を返す
func (s *ImageSurface) Bounds() image.Rectangle { return s.img.Bounds() }

// RGBA は背後の画像を返す
func (s *ImageSurface) RGBA() *image.RGBA { return s.img }

func (s *ImageSurface) image() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keyEnabled {
		return &keyedImage{Image: s.img, key: s.key}
	}
	return s.img
}

// Version は内容の世代番号を返す
func (s *ImageSurface) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *ImageSurface) touch() {
	s.mu.Lock()
	s.version++
	s.mu.Unlock()
}

// Touch は RGBA を直接書き換えた後に呼び、内容が変わったことを記録する
func (s *ImageSurface) Touch() { s.touch() }

// Alpha はBlit元として使うときの透明度を返す（0〜255）
func (s *ImageSurface) Alpha() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// SetAlpha はBlit元として使うときの透明度を設定する
func (s *ImageSurface) SetAlpha(a uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alpha = a
	s.version++
}

// ColorKey はカラーキー（透明色）を返す
func (s *ImageSurface) ColorKey() (color.Color, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, s.keyEnabled
}

// SetColorKey はカラーキーを設定する
func (s *ImageSurface) SetColorKey(c color.Color, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c != nil {
		s.key = color.RGBAModel.Convert(c).(color.RGBA)
	}
	s.keyEnabled = enabled
	s.version++
}

// Blit は src の srcRect 部分を dst に描画する
func (s *ImageSurface) Blit(src Surface, dst image.Point, srcRect image.Rectangle) image.Rectangle {
	if src == nil {
		return image.Rectangle{}
	}
	sr := SourceRect(src, srcRect)
	out := BlitRect(dst, sr)

	is, ok := src.(imageSource)
	if !ok {
		// 画素を読めない描画元は描かないが、矩形は呼び出し側の記録のために返す
		logger.GetLogger().Debug("Blit skipped: source has no readable pixels",
			"source", fmt.Sprintf("%T", src), "rect", out)
		return out
	}
	pix := is.image()

	alpha := uint8(255)
	if k, ok := src.(Keyed); ok {
		alpha = k.Alpha()
	}

	if alpha < 255 {
		mask := image.NewUniform(color.Alpha{A: alpha})
		draw.DrawMask(s.img, out, pix, sr.Min, mask, image.Point{}, draw.Over)
	} else {
		draw.Draw(s.img, out, pix, sr.Min, draw.Over)
	}
	s.touch()
	return out
}

// Update は更新矩形を記録する
func (s *ImageSurface) Update(rects ...image.Rectangle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(rects) == 0 {
		s.updates = append(s.updates, s.img.Bounds())
		return
	}
	s.updates = append(s.updates, rects...)
}

// Updates はこれまでに記録された更新矩形を返す
func (s *ImageSurface) Updates() []image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]image.Rectangle, len(s.updates))
	copy(out, s.updates)
	return out
}

// ResetUpdates は記録された更新矩形を破棄する
func (s *ImageSurface) ResetUpdates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = s.updates[:0]
}

// Fill は矩形を単色で塗りつぶす
func (s *ImageSurface) Fill(r image.Rectangle, c color.Color) {
	draw.Draw(s.img, r.Intersect(s.img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
	s.touch()
}

// FillPath はパスの内側を塗りつぶす
func (s *ImageSurface) FillPath(p *Path, c color.Color) {
	if p.Empty() {
		return
	}
	z := s.rasterizer()
	addPath(z, p)
	z.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{})
	s.touch()
}

// StrokePath はパスの輪郭を幅 width で描画する
func (s *ImageSurface) StrokePath(p *Path, width float32, c color.Color) {
	if p.Empty() {
		return
	}
	z := s.rasterizer()
	for _, poly := range p.Flatten() {
		for _, q := range strokeQuads(poly, width) {
			addPath(z, q)
		}
	}
	z.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{})
	s.touch()
}

func (s *ImageSurface) rasterizer() *vector.Rasterizer {
	b := s.img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	return z
}

func addPath(z *vector.Rasterizer, p *Path) {
	for _, c := range p.cmds {
		switch c.Op {
		case OpMoveTo:
			z.MoveTo(c.Pts[0].X, c.Pts[0].Y)
		case OpLineTo:
			z.LineTo(c.Pts[0].X, c.Pts[0].Y)
		case OpQuadTo:
			z.QuadTo(c.Pts[0].X, c.Pts[0].Y, c.Pts[1].X, c.Pts[1].Y)
		case OpCubicTo:
			z.CubeTo(c.Pts[0].X, c.Pts[0].Y, c.Pts[1].X, c.Pts[1].Y, c.Pts[2].X, c.Pts[2].Y)
		case OpClose:
			z.ClosePath()
		}
	}
}

// At は (x, y) のピクセル色を返す
func (s *ImageSurface) At(x, y int) color.RGBA {
	return s.img.RGBAAt(x, y)
}

// SubSurface は矩形 r を切り出した新しいサーフェスを返す
func (s *ImageSurface) SubSurface(r image.Rectangle) *ImageSurface {
	r = r.Intersect(s.img.Bounds())
	out := NewImageSurface(r.Dx(), r.Dy())
	draw.Draw(out.img, out.img.Bounds(), s.img, r.Min, draw.Src)
	out.alpha = s.alpha
	out.key = s.key
	out.keyEnabled = s.keyEnabled
	return out
}

// Zoom は拡大縮小した新しいサーフェスを返す
// smooth が true の場合はバイリニア補間、false の場合は最近傍補間
func (s *ImageSurface) Zoom(zx, zy float64, smooth bool) *ImageSurface {
	w := int(float64(s.Width()) * zx)
	h := int(float64(s.Height()) * zy)
	out := NewImageSurface(w, h)
	var scaler draw.Scaler = draw.NearestNeighbor
	if smooth {
		scaler = draw.ApproxBiLinear
	}
	scaler.Scale(out.img, out.img.Bounds(), s.img, s.img.Bounds(), draw.Src, nil)
	out.alpha = s.alpha
	out.key = s.key
	out.keyEnabled = s.keyEnabled
	return out
}

// keyedImage はカラーキーに一致するピクセルを透明として返す
type keyedImage struct {
	image.Image
	key color.RGBA
}

func (k *keyedImage) At(x, y int) color.Color {
	c := k.Image.At(x, y)
	r, g, b, _ := c.RGBA()
	if uint8(r>>8) == k.key.R && uint8(g>>8) == k.key.G && uint8(b>>8) == k.key.B {
		return color.RGBA{}
	}
	return c
}
