package sprite

import (
	"fmt"
	"image"
)

// IntersectsWithPoint は点がスプライトの矩形 [x, x+w) × [y, y+h) に含まれるかどうかを返す
func (s *Sprite) IntersectsWithPoint(p image.Point) bool {
	return p.In(s.Rectangle())
}

// IntersectsWithRect はスプライトの矩形が r と重なるかどうかを返す
func (s *Sprite) IntersectsWithRect(r image.Rectangle) bool {
	return s.Rectangle().Overlaps(r)
}

// IntersectsWithSprite は2つのスプライトの矩形が重なるかどうかを返す
func (s *Sprite) IntersectsWithSprite(o *Sprite) (bool, error) {
	if o == nil {
		return false, fmt.Errorf("intersects with sprite: %w", ErrInvalidArgument)
	}
	return s.IntersectsWithRect(o.Rectangle()), nil
}

// IntersectsWithRectTolerance は許容量 tol 付きで矩形との重なりを判定する
// 4辺それぞれについて次のいずれかが成り立つと重なっていないとみなす:
//   - r の右端 - 左端 < tol
//   - r の左端 - 右端 > -tol
//   - r の下端 - 上端 < tol
//   - r の上端 - 下端 > -tol
func (s *Sprite) IntersectsWithRectTolerance(r image.Rectangle, tol int) bool {
	return overlapsWithTolerance(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, s, tol)
}

// IntersectsWithSpriteTolerance は許容量 tol 付きでスプライトとの重なりを判定する
func (s *Sprite) IntersectsWithSpriteTolerance(o *Sprite, tol int) (bool, error) {
	if o == nil {
		return false, fmt.Errorf("intersects with sprite: %w", ErrInvalidArgument)
	}
	return overlapsWithTolerance(o.X(), o.Y(), o.Right(), o.Bottom(), s, tol), nil
}

func overlapsWithTolerance(left, top, right, bottom int, s *Sprite, tol int) bool {
	if right-s.Left() < tol {
		return false
	}
	if left-s.Right() > -tol {
		return false
	}
	if bottom-s.Y() < tol {
		return false
	}
	if top-s.Bottom() > -tol {
		return false
	}
	return true
}

// IntersectsWithRadius は中心間の距離による円同士の当たり判定を行う
// 中心距離の2乗 - 半径和の2乗 <= tol の2乗 のとき重なっているとみなす
func (s *Sprite) IntersectsWithRadius(o *Sprite, radius, otherRadius, tol int) (bool, error) {
	if o == nil {
		return false, fmt.Errorf("intersects with radius: %w", ErrInvalidArgument)
	}
	c1 := s.Center()
	c2 := o.Center()
	dx := c2.X - c1.X
	dy := c2.Y - c1.Y
	dSq := dx*dx + dy*dy
	rSum := radius + otherRadius
	return dSq-rSum*rSum <= tol*tol, nil
}

// DefaultRadius は当たり判定用の既定の半径 (幅 + 高さ) / 4 を返す
func (s *Sprite) DefaultRadius() int {
	return (s.Width() + s.Height()) / 4
}

// IntersectsWithDefaultRadius は両方のスプライトの既定の半径で円の当たり判定を行う（許容量0）
func (s *Sprite) IntersectsWithDefaultRadius(o *Sprite) (bool, error) {
	if o == nil {
		return false, fmt.Errorf("intersects with radius: %w", ErrInvalidArgument)
	}
	return s.IntersectsWithRadius(o, s.DefaultRadius(), o.DefaultRadius(), 0)
}

// IntersectsWithCollection はコレクション内のいずれかのスプライトと重なるかどうかを返す
func (s *Sprite) IntersectsWithCollection(c *Collection) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("intersects with collection: %w", ErrInvalidArgument)
	}
	for _, o := range c.sprites {
		if s.IntersectsWithRect(o.Rectangle()) {
			return true, nil
		}
	}
	return false, nil
}
