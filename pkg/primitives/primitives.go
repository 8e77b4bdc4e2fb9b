// Package primitives provides simple shapes that can be drawn onto any surface.
package primitives

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/zurustar/spritekit/pkg/surface"
)

// 図形描画のエラー定義
var (
	// ErrInvalidArgument は描画先や図形がnilの場合のエラー
	ErrInvalidArgument = surface.ErrInvalidArgument

	// ErrEmptyPrimitive は点が足りず図形にならない場合のエラー
	ErrEmptyPrimitive = errors.New("primitive has no outline")
)

// kappa は円弧を3次ベジェ曲線4本で近似するときの制御点の係数
const kappa = 0.5522847498

// DefaultBezierSteps はベジェ曲線の既定の分割数
const DefaultBezierSteps = 32

// Primitive はパスとして表せる図形
type Primitive interface {
	Path() *surface.Path
}

// open は輪郭が閉じていない図形（塗りつぶしの対象にならない）
type open interface {
	open()
}

// Draw は図形を dst に描画する
// fill が true なら内側を塗りつぶし、false なら幅 width の線で輪郭を描く
// 線分とベジェ曲線は常に線で描画される。width が0以下なら1として扱う
func Draw(dst surface.Surface, p Primitive, c color.Color, fill bool, width float32) error {
	if dst == nil {
		return fmt.Errorf("draw primitive: nil surface: %w", ErrInvalidArgument)
	}
	if p == nil {
		return fmt.Errorf("draw primitive: nil primitive: %w", ErrInvalidArgument)
	}
	path := p.Path()
	if path.Empty() {
		return fmt.Errorf("draw %T: %w", p, ErrEmptyPrimitive)
	}
	if _, ok := p.(open); ok {
		fill = false
	}
	if fill {
		dst.FillPath(path, c)
		return nil
	}
	if width <= 0 {
		width = 1
	}
	dst.StrokePath(path, width, c)
	return nil
}

// ============================================================================
// 矩形と線分
// ============================================================================

// Box は矩形
type Box struct {
	Rect image.Rectangle
}

// NewBox は左上の点とサイズから矩形を作成する
func NewBox(p image.Point, size image.Point) Box {
	return Box{Rect: image.Rectangle{Min: p, Max: p.Add(size)}}
}

// Path は矩形の輪郭を返す（座標は正規化される）
func (b Box) Path() *surface.Path {
	r := b.Rect.Canon()
	var p surface.Path
	if r.Empty() {
		return &p
	}
	p.MoveTo(float32(r.Min.X), float32(r.Min.Y))
	p.LineTo(float32(r.Max.X), float32(r.Min.Y))
	p.LineTo(float32(r.Max.X), float32(r.Max.Y))
	p.LineTo(float32(r.Min.X), float32(r.Max.Y))
	p.Close()
	return &p
}

// Line は線分
type Line struct {
	From, To image.Point
}

func (Line) open() {}

// Path は線分を返す
func (l Line) Path() *surface.Path {
	var p surface.Path
	p.MoveTo(float32(l.From.X), float32(l.From.Y))
	p.LineTo(float32(l.To.X), float32(l.To.Y))
	return &p
}

// ============================================================================
// 多角形
// ============================================================================

// Triangle は三角形
type Triangle struct {
	A, B, C image.Point
}

// Path は三角形の輪郭を返す
func (t Triangle) Path() *surface.Path {
	return Polygon{Points: []image.Point{t.A, t.B, t.C}}.Path()
}

// Polygon は多角形
// 2点以下では図形にならない
type Polygon struct {
	Points []image.Point
}

// Path は多角形の輪郭を返す
func (pg Polygon) Path() *surface.Path {
	var p surface.Path
	if len(pg.Points) < 3 {
		return &p
	}
	p.MoveTo(float32(pg.Points[0].X), float32(pg.Points[0].Y))
	for _, pt := range pg.Points[1:] {
		p.LineTo(float32(pt.X), float32(pt.Y))
	}
	p.Close()
	return &p
}

// ============================================================================
// 円と楕円
// ============================================================================

// Circle は円
type Circle struct {
	Center image.Point
	Radius int
}

// Path は円の輪郭を返す
func (c Circle) Path() *surface.Path {
	return Ellipse{Center: c.Center, RadiusX: c.Radius, RadiusY: c.Radius}.Path()
}

// Ellipse は軸に平行な楕円
type Ellipse struct {
	Center           image.Point
	RadiusX, RadiusY int
}

// Path は楕円の輪郭を3次ベジェ曲線4本で返す
func (e Ellipse) Path() *surface.Path {
	var p surface.Path
	if e.RadiusX <= 0 || e.RadiusY <= 0 {
		return &p
	}
	cx, cy := float32(e.Center.X), float32(e.Center.Y)
	rx, ry := float32(e.RadiusX), float32(e.RadiusY)
	kx, ky := rx*kappa, ry*kappa

	p.MoveTo(cx+rx, cy)
	p.CubicTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	p.CubicTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	p.CubicTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	p.CubicTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	p.Close()
	return &p
}

// Pie は扇形
// 角度は度単位で、0度が右、画面のY軸が下向きなので時計回りに増える
type Pie struct {
	Center     image.Point
	Radius     int
	Start, End int
}

// pieStepDegrees は扇形の弧を折れ線にするときの刻み
const pieStepDegrees = 5

// Path は扇形の輪郭を返す
func (pie Pie) Path() *surface.Path {
	var p surface.Path
	if pie.Radius <= 0 {
		return &p
	}
	start, end := pie.Start, pie.End
	for end < start {
		end += 360
	}
	if end-start > 360 {
		end = start + 360
	}

	cx, cy := float64(pie.Center.X), float64(pie.Center.Y)
	r := float64(pie.Radius)
	pointAt := func(deg float64) (float32, float32) {
		rad := deg * math.Pi / 180
		return float32(cx + r*math.Cos(rad)), float32(cy + r*math.Sin(rad))
	}

	p.MoveTo(float32(cx), float32(cy))
	for deg := start; deg < end; deg += pieStepDegrees {
		p.LineTo(pointAt(float64(deg)))
	}
	p.LineTo(pointAt(float64(end)))
	p.Close()
	return &p
}

// ============================================================================
// ベジェ曲線
// ============================================================================

// Bezier は制御点列で表される任意次数のベジェ曲線
type Bezier struct {
	Points []image.Point
	// Steps は曲線の分割数（0以下なら DefaultBezierSteps）
	Steps int
}

func (Bezier) open() {}

// Path は曲線を折れ線で返す
func (b Bezier) Path() *surface.Path {
	var p surface.Path
	if len(b.Points) < 2 {
		return &p
	}
	steps := b.Steps
	if steps <= 0 {
		steps = DefaultBezierSteps
	}
	p.MoveTo(float32(b.Points[0].X), float32(b.Points[0].Y))
	for i := 1; i <= steps; i++ {
		x, y := b.At(float64(i) / float64(steps))
		p.LineTo(float32(x), float32(y))
	}
	return &p
}

// At はパラメータ t (0〜1) における曲線上の点を de Casteljau 法で求める
func (b Bezier) At(t float64) (x, y float64) {
	if len(b.Points) == 0 {
		return 0, 0
	}
	xs := make([]float64, len(b.Points))
	ys := make([]float64, len(b.Points))
	for i, pt := range b.Points {
		xs[i], ys[i] = float64(pt.X), float64(pt.Y)
	}
	for n := len(xs) - 1; n > 0; n-- {
		for i := 0; i < n; i++ {
			xs[i] += (xs[i+1] - xs[i]) * t
			ys[i] += (ys[i+1] - ys[i]) * t
		}
	}
	return xs[0], ys[0]
}
