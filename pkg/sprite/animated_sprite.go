package sprite

import (
	"fmt"
	"image/color"
	"time"

	"github.com/zurustar/spritekit/pkg/event"
)

// DefaultAnimationName は NewAnimatedSprite で名前を省略したときの名前
const DefaultAnimationName = "Default"

// AnimatedSprite はアニメーションのフレームを表示するスプライト
//
// Tick イベントを受け取るたびに経過時間を積算し、現在のアニメーションの
// 待ち時間ごとにフレームを進める。コレクションに追加するときは埋め込まれた
// *Sprite を渡す。
type AnimatedSprite struct {
	*Sprite

	anims   *AnimationSet
	current string
	frame   int
	animate bool
	elapsed time.Duration

	// user はアニメーション処理の後に呼ばれる利用者の振る舞い
	user Behavior
}

// NewAnimatedSprite は1つのアニメーションを持つスプライトを作成する
// name が空なら DefaultAnimationName を使う
func NewAnimatedSprite(name string, anim *Animation, pos Vector) (*AnimatedSprite, error) {
	if anim == nil || anim.Len() == 0 {
		return nil, fmt.Errorf("new animated sprite: empty animation: %w", ErrInvalidArgument)
	}
	if name == "" {
		name = DefaultAnimationName
	}
	base, err := New(anim.Frame(0), pos)
	if err != nil {
		return nil, err
	}
	set := NewAnimationSet()
	if err := set.Add(name, anim); err != nil {
		return nil, err
	}
	a := &AnimatedSprite{
		Sprite:  base,
		anims:   set,
		current: name,
		animate: true,
	}
	base.SetBehavior(BehaviorFunc(a.handle))
	return a, nil
}

// Animations はアニメーションの集合を返す
func (a *AnimatedSprite) Animations() *AnimationSet { return a.anims }

// AddAnimation はアニメーションを追加する
func (a *AnimatedSprite) AddAnimation(name string, anim *Animation) error {
	if anim != nil && anim.Len() == 0 {
		return fmt.Errorf("add animation %q: no frames: %w", name, ErrInvalidArgument)
	}
	return a.anims.Add(name, anim)
}

// CurrentAnimation は現在のアニメーション名を返す
func (a *AnimatedSprite) CurrentAnimation() string { return a.current }

// SetCurrentAnimation はアニメーションを切り替え、先頭フレームから表示する
func (a *AnimatedSprite) SetCurrentAnimation(name string) error {
	if _, ok := a.anims.Get(name); !ok {
		return fmt.Errorf("set current animation %q: %w", name, ErrAnimationNotFound)
	}
	a.current = name
	a.frame = 0
	a.elapsed = 0
	a.syncSurface()
	return nil
}

func (a *AnimatedSprite) currentAnimation() *Animation {
	anim, _ := a.anims.Get(a.current)
	return anim
}

// Frame は現在のフレーム番号を返す
// 表示されるフレームは Frame をフレーム数で割った余り
func (a *AnimatedSprite) Frame() int { return a.frame }

// SetFrame はフレーム番号を設定する
func (a *AnimatedSprite) SetFrame(n int) {
	a.frame = n
	a.syncSurface()
}

// Animate はアニメーションが進行中かどうかを返す
func (a *AnimatedSprite) Animate() bool { return a.animate }

// SetAnimate はアニメーションの進行を開始・停止する
func (a *AnimatedSprite) SetAnimate(v bool) {
	a.animate = v
	if !v {
		a.elapsed = 0
	}
}

// AnimateForward は現在の全アニメーションが順再生かどうかを返す
func (a *AnimatedSprite) AnimateForward() bool { return a.anims.AnimateForward() }

// SetAnimateForward は全アニメーションの再生方向を設定する
func (a *AnimatedSprite) SetAnimateForward(v bool) { a.anims.SetAnimateForward(v) }

// Advance はフレームを1ステップ進める
//
// 順再生で末尾を越えた場合、ループなら0に戻り、そうでなければ止まる。
// 逆再生で先頭に達した場合、ループなら末尾に戻り、そうでなければ止まる。
func (a *AnimatedSprite) Advance() {
	anim := a.currentAnimation()
	n := anim.Len()
	switch {
	case a.frame >= n && anim.AnimateForward():
		if anim.loop {
			a.frame = 0
		}
	case a.frame <= 0 && !anim.AnimateForward():
		if anim.loop {
			a.frame = n - 1
		}
	default:
		a.frame += anim.increment
	}
	a.syncSurface()
}

// displayIndex は表示するフレームの添字
// ループしない順再生が末尾を越えた場合は最後のフレームに留まる
func (a *AnimatedSprite) displayIndex() int {
	anim := a.currentAnimation()
	n := anim.Len()
	if !anim.loop && a.frame >= n {
		return n - 1
	}
	return ((a.frame % n) + n) % n
}

func (a *AnimatedSprite) syncSurface() {
	a.Sprite.surface = a.currentAnimation().Frame(a.displayIndex())
}

// SetAlpha は全アニメーションの全フレームの透明度を設定する
func (a *AnimatedSprite) SetAlpha(alpha uint8) {
	for _, name := range a.anims.order {
		a.anims.anims[name].SetAlpha(alpha)
	}
}

// SetTransparentColor は全アニメーションの全フレームのカラーキーを設定する
func (a *AnimatedSprite) SetTransparentColor(c color.Color, enabled bool) {
	for _, name := range a.anims.order {
		a.anims.anims[name].SetTransparentColor(c, enabled)
	}
}

// SetBehavior はアニメーション処理の後に呼ばれる振る舞いを設定する
func (a *AnimatedSprite) SetBehavior(b Behavior) { a.user = b }

// Behavior は利用者が設定した振る舞いを返す
func (a *AnimatedSprite) Behavior() Behavior { return a.user }

// handle は Tick で経過時間を積算してフレームを進め、その後イベントを利用者の振る舞いに渡す
func (a *AnimatedSprite) handle(s *Sprite, ev event.Event) {
	if tick, ok := ev.(event.Tick); ok && a.animate {
		a.step(tick.Delta)
	}
	if a.user != nil {
		a.user.Update(s, ev)
	}
}

func (a *AnimatedSprite) step(delta time.Duration) {
	delay := a.currentAnimation().delay
	if delay <= 0 {
		a.Advance()
		return
	}
	a.elapsed += delta
	for a.elapsed >= delay {
		a.elapsed -= delay
		a.Advance()
	}
}
