package surface

import "math"

// PathOp はパス命令の種類
type PathOp int

const (
	OpMoveTo PathOp = iota
	OpLineTo
	OpQuadTo
	OpCubicTo
	OpClose
)

// PathCmd は1つのパス命令
// Pts には命令ごとに必要な点が入る（MoveTo/LineTo: 1, QuadTo: 2, CubicTo: 3）
type PathCmd struct {
	Op  PathOp
	Pts [3]Point
}

// Point は浮動小数点の座標
type Point struct {
	X, Y float32
}

// Path はバックエンド非依存のベクターパス
// EbitenSurface では ebiten/v2/vector に、ImageSurface では x/image/vector に変換される
type Path struct {
	cmds []PathCmd
}

// MoveTo は新しいサブパスを開始する
func (p *Path) MoveTo(x, y float32) {
	p.cmds = append(p.cmds, PathCmd{Op: OpMoveTo, Pts: [3]Point{{x, y}}})
}

// LineTo は直線を追加する
func (p *Path) LineTo(x, y float32) {
	p.cmds = append(p.cmds, PathCmd{Op: OpLineTo, Pts: [3]Point{{x, y}}})
}

// QuadTo は2次ベジェ曲線を追加する
func (p *Path) QuadTo(cx, cy, x, y float32) {
	p.cmds = append(p.cmds, PathCmd{Op: OpQuadTo, Pts: [3]Point{{cx, cy}, {x, y}}})
}

// CubicTo は3次ベジェ曲線を追加する
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float32) {
	p.cmds = append(p.cmds, PathCmd{Op: OpCubicTo, Pts: [3]Point{{c1x, c1y}, {c2x, c2y}, {x, y}}})
}

// Close は現在のサブパスを閉じる
func (p *Path) Close() {
	p.cmds = append(p.cmds, PathCmd{Op: OpClose})
}

// Commands はパス命令のコピーを返す
func (p *Path) Commands() []PathCmd {
	out := make([]PathCmd, len(p.cmds))
	copy(out, p.cmds)
	return out
}

// Empty はパスが空かどうかを返す
func (p *Path) Empty() bool {
	return p == nil || len(p.cmds) == 0
}

// curveSegments は曲線を折れ線に分割するときの分割数
const curveSegments = 16

// Flatten は曲線を折れ線に変換し、サブパスごとの点列を返す
// 閉じたサブパスは始点を末尾に複製する
func (p *Path) Flatten() [][]Point {
	var (
		polys [][]Point
		cur   []Point
	)
	flush := func() {
		if len(cur) > 1 {
			polys = append(polys, cur)
		}
		cur = nil
	}
	last := func() Point {
		if len(cur) == 0 {
			return Point{}
		}
		return cur[len(cur)-1]
	}

	for _, c := range p.cmds {
		switch c.Op {
		case OpMoveTo:
			flush()
			cur = []Point{c.Pts[0]}
		case OpLineTo:
			cur = append(cur, c.Pts[0])
		case OpQuadTo:
			p0 := last()
			for i := 1; i <= curveSegments; i++ {
				t := float32(i) / curveSegments
				cur = append(cur, quadAt(p0, c.Pts[0], c.Pts[1], t))
			}
		case OpCubicTo:
			p0 := last()
			for i := 1; i <= curveSegments; i++ {
				t := float32(i) / curveSegments
				cur = append(cur, cubicAt(p0, c.Pts[0], c.Pts[1], c.Pts[2], t))
			}
		case OpClose:
			if len(cur) > 0 {
				cur = append(cur, cur[0])
			}
			flush()
		}
	}
	flush()
	return polys
}

func quadAt(p0, p1, p2 Point, t float32) Point {
	u := 1 - t
	return Point{
		X: u*u*p0.X + 2*u*t*p1.X + t*t*p2.X,
		Y: u*u*p0.Y + 2*u*t*p1.Y + t*t*p2.Y,
	}
}

func cubicAt(p0, p1, p2, p3 Point, t float32) Point {
	u := 1 - t
	return Point{
		X: u*u*u*p0.X + 3*u*u*t*p1.X + 3*u*t*t*p2.X + t*t*t*p3.X,
		Y: u*u*u*p0.Y + 3*u*u*t*p1.Y + 3*u*t*t*p2.Y + t*t*t*p3.Y,
	}
}

// strokeQuads は折れ線の各線分を幅 width の四角形パスに変換する
func strokeQuads(poly []Point, width float32) []*Path {
	if width <= 0 {
		width = 1
	}
	half := width / 2
	out := make([]*Path, 0, len(poly))
	for i := 0; i+1 < len(poly); i++ {
		a, b := poly[i], poly[i+1]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := float32(math.Hypot(float64(dx), float64(dy)))
		if l == 0 {
			continue
		}
		// 法線方向にオフセット
		nx, ny := -dy/l*half, dx/l*half
		q := &Path{}
		q.MoveTo(a.X+nx, a.Y+ny)
		q.LineTo(b.X+nx, b.Y+ny)
		q.LineTo(b.X-nx, b.Y-ny)
		q.LineTo(a.X-nx, a.Y-ny)
		q.Close()
		out = append(out, q)
	}
	return out
}
