package sprite

import (
	"fmt"
	"slices"
	"time"
)

// AnimationSet は名前付きアニメーションの集合
// 一括設定のプロパティはすべてのアニメーションに適用される
type AnimationSet struct {
	anims map[string]*Animation
	order []string
}

// NewAnimationSet は空の集合を作成する
func NewAnimationSet() *AnimationSet {
	return &AnimationSet{anims: make(map[string]*Animation)}
}

// Add は名前付きでアニメーションを追加する
func (s *AnimationSet) Add(name string, a *Animation) error {
	if a == nil {
		return fmt.Errorf("add animation %q: %w", name, ErrInvalidArgument)
	}
	if _, ok := s.anims[name]; ok {
		return fmt.Errorf("add animation %q: %w", name, ErrDuplicateAnimation)
	}
	s.anims[name] = a
	s.order = append(s.order, name)
	return nil
}

// Merge は other のすべてのアニメーションを追加し、追加後の数を返す
func (s *AnimationSet) Merge(other *AnimationSet) (int, error) {
	if other == nil {
		return s.Len(), fmt.Errorf("merge animations: %w", ErrInvalidArgument)
	}
	for _, name := range other.order {
		if err := s.Add(name, other.anims[name]); err != nil {
			return s.Len(), err
		}
	}
	return s.Len(), nil
}

// Get は名前のアニメーションを返す
func (s *AnimationSet) Get(name string) (*Animation, bool) {
	a, ok := s.anims[name]
	return a, ok
}

// Names は追加順の名前を返す
func (s *AnimationSet) Names() []string { return slices.Clone(s.order) }

// Len はアニメーションの数を返す
func (s *AnimationSet) Len() int { return len(s.order) }

// Delay は待ち時間の平均を返す（空なら0）
func (s *AnimationSet) Delay() time.Duration {
	if len(s.order) == 0 {
		return 0
	}
	var sum time.Duration
	for _, a := range s.anims {
		sum += a.delay
	}
	return sum / time.Duration(len(s.order))
}

// SetDelay はすべての待ち時間を設定する
func (s *AnimationSet) SetDelay(d time.Duration) {
	for _, a := range s.anims {
		a.SetDelay(d)
	}
}

// FrameIncrement は増分の平均（整数除算）を返す（空なら0）
func (s *AnimationSet) FrameIncrement() int {
	if len(s.order) == 0 {
		return 0
	}
	sum := 0
	for _, a := range s.anims {
		sum += a.increment
	}
	return sum / len(s.order)
}

// SetFrameIncrement はすべての増分を設定する
func (s *AnimationSet) SetFrameIncrement(n int) {
	for _, a := range s.anims {
		a.SetFrameIncrement(n)
	}
}

// AnimateForward はすべてが順再生なら true
func (s *AnimationSet) AnimateForward() bool {
	for _, a := range s.anims {
		if !a.AnimateForward() {
			return false
		}
	}
	return true
}

// SetAnimateForward はすべての再生方向を設定する
func (s *AnimationSet) SetAnimateForward(forward bool) {
	for _, a := range s.anims {
		a.SetAnimateForward(forward)
	}
}

// Loop は最初に追加されたアニメーションのループ設定を返す（空なら true）
func (s *AnimationSet) Loop() bool {
	if len(s.order) == 0 {
		return true
	}
	return s.anims[s.order[0]].loop
}

// SetLoop はすべてのループ設定を変更する
func (s *AnimationSet) SetLoop(v bool) {
	for _, a := range s.anims {
		a.SetLoop(v)
	}
}
