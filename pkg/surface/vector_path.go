package surface

import "github.com/hajimehoshi/ebiten/v2/vector"

type vectorStrokeOptions = vector.StrokeOptions

// toVectorPath は Path を ebiten/v2/vector のパスに変換する
func toVectorPath(p *Path) *vector.Path {
	var vp vector.Path
	for _, c := range p.cmds {
		switch c.Op {
		case OpMoveTo:
			vp.MoveTo(c.Pts[0].X, c.Pts[0].Y)
		case OpLineTo:
			vp.LineTo(c.Pts[0].X, c.Pts[0].Y)
		case OpQuadTo:
			vp.QuadTo(c.Pts[0].X, c.Pts[0].Y, c.Pts[1].X, c.Pts[1].Y)
		case OpCubicTo:
			vp.CubicTo(c.Pts[0].X, c.Pts[0].Y, c.Pts[1].X, c.Pts[1].Y, c.Pts[2].X, c.Pts[2].Y)
		case OpClose:
			vp.Close()
		}
	}
	return &vp
}
