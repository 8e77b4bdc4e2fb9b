package sprite

import (
	"fmt"
	"image/color"
	"slices"
	"time"

	"github.com/zurustar/spritekit/pkg/surface"
)

// DefaultAnimationDelay はフレーム間の既定の待ち時間
const DefaultAnimationDelay = 30 * time.Millisecond

// Animation は順に表示するフレーム列
// フレームのサーフェスは所有しない
type Animation struct {
	frames    []surface.Surface
	delay     time.Duration
	loop      bool
	increment int
}

// NewAnimation はフレーム列からアニメーションを作成する
// 待ち時間は DefaultAnimationDelay、ループ有効、増分1で始まる
func NewAnimation(frames ...surface.Surface) (*Animation, error) {
	a := &Animation{
		delay:     DefaultAnimationDelay,
		loop:      true,
		increment: 1,
	}
	if err := a.Add(frames...); err != nil {
		return nil, err
	}
	return a, nil
}

// Add はフレームを末尾に追加する
func (a *Animation) Add(frames ...surface.Surface) error {
	for _, f := range frames {
		if f == nil {
			return fmt.Errorf("add frame: nil surface: %w", ErrInvalidArgument)
		}
	}
	a.frames = append(a.frames, frames...)
	return nil
}

// Len はフレーム数を返す
func (a *Animation) Len() int { return len(a.frames) }

// Frame は i 番目のフレームを返す
func (a *Animation) Frame(i int) surface.Surface { return a.frames[i] }

// Frames はフレーム列のコピーを返す
func (a *Animation) Frames() []surface.Surface { return slices.Clone(a.frames) }

// Delay はフレーム間の待ち時間を返す
func (a *Animation) Delay() time.Duration { return a.delay }

// SetDelay はフレーム間の待ち時間を設定する
func (a *Animation) SetDelay(d time.Duration) { a.delay = d }

// AnimationTime は1周にかかる時間を返す
func (a *Animation) AnimationTime() time.Duration {
	return a.delay * time.Duration(len(a.frames))
}

// SetAnimationTime は1周が total になるように待ち時間を設定する
// フレームがない場合は何もしない
func (a *Animation) SetAnimationTime(total time.Duration) {
	if len(a.frames) == 0 {
		return
	}
	a.delay = total / time.Duration(len(a.frames))
}

// Loop は最後のフレームの後に先頭へ戻るかどうかを返す
func (a *Animation) Loop() bool { return a.loop }

// SetLoop はループするかどうかを設定する
func (a *Animation) SetLoop(v bool) { a.loop = v }

// FrameIncrement は1ステップで進むフレーム数を返す（負なら逆再生）
func (a *Animation) FrameIncrement() int { return a.increment }

// SetFrameIncrement は1ステップで進むフレーム数を設定する（0は1として扱う）
func (a *Animation) SetFrameIncrement(n int) {
	if n == 0 {
		n = 1
	}
	a.increment = n
}

// AnimateForward は順再生かどうかを返す
func (a *Animation) AnimateForward() bool { return a.increment >= 0 }

// SetAnimateForward は増分の符号で再生方向を設定する
func (a *Animation) SetAnimateForward(forward bool) {
	if forward != (a.increment >= 0) {
		a.increment = -a.increment
	}
}

// SetAlpha は全フレームの透明度を設定する
func (a *Animation) SetAlpha(alpha uint8) {
	for _, f := range a.frames {
		if k, ok := f.(surface.Keyed); ok {
			k.SetAlpha(alpha)
		}
	}
}

// SetTransparentColor は全フレームのカラーキーを設定する
func (a *Animation) SetTransparentColor(c color.Color, enabled bool) {
	for _, f := range a.frames {
		if k, ok := f.(surface.Keyed); ok {
			k.SetColorKey(c, enabled)
		}
	}
}
