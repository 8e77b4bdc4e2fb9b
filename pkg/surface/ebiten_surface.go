package surface

import (
	"image"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

// EbitenSurface は *ebiten.Image を背後に持つGPU側のサーフェス
type EbitenSurface struct {
	img *ebiten.Image

	alpha      uint8
	key        color.RGBA
	keyEnabled bool

	// ImageSurface をBlit元にするときの転送済み画像
	cache map[*ImageSurface]cachedImage

	updates []image.Rectangle
}

type cachedImage struct {
	img     *ebiten.Image
	version uint64
}

// NewEbitenSurface は w×h の新しいGPUサーフェスを作成する
func NewEbitenSurface(w, h int) *EbitenSurface {
	return WrapEbiten(ebiten.NewImage(w, h))
}

// WrapEbiten は既存の *ebiten.Image（画面など）をサーフェスとして扱う
func WrapEbiten(img *ebiten.Image) *EbitenSurface {
	return &EbitenSurface{
		img:   img,
		alpha: 255,
		cache: make(map[*ImageSurface]cachedImage),
	}
}

// Rebind は描画先の画像を差し替える（Ebitengineは毎フレーム screen を渡す）
func (s *EbitenSurface) Rebind(img *ebiten.Image) {
	s.img = img
}

// Image は背後の *ebiten.Image を返す
func (s *EbitenSurface) Image() *ebiten.Image { return s.img }

func (s *EbitenSurface) image() image.Image { return s.img }

// Width はサーフェスの幅を返す
func (s *EbitenSurface) Width() int { return s.img.Bounds().Dx() }

// Height はサーフェスの高さを返す
func (s *EbitenSurface) Height() int { return s.img.Bounds().Dy() }

// Bounds はサーフェスの矩形を返す
func (s *EbitenSurface) Bounds() image.Rectangle { return s.img.Bounds() }

// Alpha はBlit元として使うときの透明度を返す
func (s *EbitenSurface) Alpha() uint8 { return s.alpha }

// SetAlpha はBlit元として使うときの透明度を設定する
func (s *EbitenSurface) SetAlpha(a uint8) { s.alpha = a }

// ColorKey はカラーキーを返す
// GPU側ではカラーキーは転送時（ImageSurfaceから）にのみ効く
func (s *EbitenSurface) ColorKey() (color.Color, bool) { return s.key, s.keyEnabled }

// SetColorKey はカラーキーを設定する
func (s *EbitenSurface) SetColorKey(c color.Color, enabled bool) {
	if c != nil {
		s.key = color.RGBAModel.Convert(c).(color.RGBA)
	}
	s.keyEnabled = enabled
}

// Blit は src の srcRect 部分を dst に描画する
func (s *EbitenSurface) Blit(src Surface, dst image.Point, srcRect image.Rectangle) image.Rectangle {
	if src == nil {
		return image.Rectangle{}
	}
	sr := SourceRect(src, srcRect)
	out := BlitRect(dst, sr)

	var (
		srcImg *ebiten.Image
		alpha  = uint8(255)
	)
	switch v := src.(type) {
	case *EbitenSurface:
		srcImg = v.img
		alpha = v.alpha
	case *ImageSurface:
		srcImg = s.upload(v)
		alpha = v.Alpha()
	default:
		is, ok := src.(imageSource)
		if !ok {
			return out
		}
		srcImg = ebiten.NewImageFromImage(is.image())
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(dst.X), float64(dst.Y))
	if alpha < 255 {
		op.ColorScale.ScaleAlpha(float32(alpha) / 255)
	}
	s.img.DrawImage(srcImg.SubImage(sr).(*ebiten.Image), op)
	return out
}

// upload は ImageSurface を GPU 側に転送する（内容が変わっていなければキャッシュを使う）
func (s *EbitenSurface) upload(src *ImageSurface) *ebiten.Image {
	v := src.Version()
	if c, ok := s.cache[src]; ok && c.version == v {
		return c.img
	}
	if c, ok := s.cache[src]; ok {
		c.img.Deallocate()
	}
	img := ebiten.NewImageFromImage(src.image())
	s.cache[src] = cachedImage{img: img, version: v}
	return img
}

// Forget は転送済みキャッシュから src を取り除く
func (s *EbitenSurface) Forget(src *ImageSurface) {
	if c, ok := s.cache[src]; ok {
		c.img.Deallocate()
		delete(s.cache, src)
	}
}

// Update は更新矩形を記録する
// Ebitengine は毎フレーム全画面を表示するため、記録はデバッグ表示にのみ使う
func (s *EbitenSurface) Update(rects ...image.Rectangle) {
	if len(rects) == 0 {
		s.updates = append(s.updates[:0], s.img.Bounds())
		return
	}
	s.updates = append(s.updates[:0], rects...)
}

// Updates は直近の Update で渡された矩形を返す
func (s *EbitenSurface) Updates() []image.Rectangle {
	out := make([]image.Rectangle, len(s.updates))
	copy(out, s.updates)
	return out
}

// Fill は矩形を単色で塗りつぶす
func (s *EbitenSurface) Fill(r image.Rectangle, c color.Color) {
	r = r.Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}
	s.img.SubImage(r).(*ebiten.Image).Fill(c)
}

// FillPath はパスの内側を塗りつぶす
func (s *EbitenSurface) FillPath(p *Path, c color.Color) {
	if p.Empty() {
		return
	}
	vp := toVectorPath(p)
	vs, is := vp.AppendVerticesAndIndicesForFilling(nil, nil)
	s.drawTriangles(vs, is, c)
}

// StrokePath はパスの輪郭を描画する
func (s *EbitenSurface) StrokePath(p *Path, width float32, c color.Color) {
	if p.Empty() {
		return
	}
	vp := toVectorPath(p)
	op := &vectorStrokeOptions{Width: width}
	vs, is := vp.AppendVerticesAndIndicesForStroke(nil, nil, op)
	s.drawTriangles(vs, is, c)
}

func (s *EbitenSurface) drawTriangles(vs []ebiten.Vertex, is []uint16, c color.Color) {
	r, g, b, a := c.RGBA()
	for i := range vs {
		vs[i].SrcX = 1
		vs[i].SrcY = 1
		vs[i].ColorR = float32(r) / 0xffff
		vs[i].ColorG = float32(g) / 0xffff
		vs[i].ColorB = float32(b) / 0xffff
		vs[i].ColorA = float32(a) / 0xffff
	}
	op := &ebiten.DrawTrianglesOptions{}
	op.AntiAlias = true
	s.img.DrawTriangles(vs, is, whiteSubImage(), op)
}

var (
	whiteOnce  sync.Once
	whiteImage *ebiten.Image
)

// whiteSubImage は頂点色をそのまま出すための白い1ピクセル画像を返す
func whiteSubImage() *ebiten.Image {
	whiteOnce.Do(func() {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	})
	return whiteImage
}
