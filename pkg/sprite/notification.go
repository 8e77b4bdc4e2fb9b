package sprite

import "image"

// Notification はスプライトから購読者へ同期的に届く通知
// ZChanged と Killed のどちらかになる
type Notification interface {
	Sprite() *Sprite
}

// ZChanged は Z 値が変わったことを表す
type ZChanged struct {
	sprite *Sprite
}

// Sprite は通知元のスプライトを返す
func (n ZChanged) Sprite() *Sprite { return n.sprite }

// Killed はスプライトが破棄されたことを表す
// Rect は破棄時点の LastBlitRectangle
type Killed struct {
	sprite *Sprite
	Rect   image.Rectangle
}

// Sprite は通知元のスプライトを返す
func (n Killed) Sprite() *Sprite { return n.sprite }

// Observer はスプライトの通知を受け取る
type Observer interface {
	Notify(n Notification)
}
