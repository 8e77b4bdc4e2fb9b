package sprite

import "image"

// Vector はスプライトの位置
// X, Y は画面座標、Z は描画順序のキーとしてのみ使う（投影には使わない）
type Vector struct {
	X, Y, Z float64
}

// NewVector は画面座標と Z 値から Vector を作成する
func NewVector(x, y, z int) Vector {
	return Vector{X: float64(x), Y: float64(y), Z: float64(z)}
}

// VectorAt は点から Z=0 の Vector を作成する
func VectorAt(p image.Point) Vector {
	return Vector{X: float64(p.X), Y: float64(p.Y)}
}

// Point は X, Y を整数に切り捨てた画面座標を返す
func (v Vector) Point() image.Point {
	return image.Pt(int(v.X), int(v.Y))
}
