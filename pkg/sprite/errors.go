// Package sprite provides sprites and the dirty-rectangle compositor that draws them.
package sprite

import (
	"errors"

	"github.com/zurustar/spritekit/pkg/surface"
)

// スプライト関連のエラー定義
var (
	// ErrInvalidArgument は必須の引数（サーフェス、スプライト、コレクション）がnilの場合のエラー
	// surface.ErrInvalidArgument と同一の値で、errors.Is でどちらとも一致する
	ErrInvalidArgument = surface.ErrInvalidArgument

	// ErrAnimationNotFound は指定した名前のアニメーションが存在しない場合のエラー
	ErrAnimationNotFound = errors.New("animation not found")

	// ErrDuplicateAnimation は同じ名前のアニメーションが既に登録されている場合のエラー
	ErrDuplicateAnimation = errors.New("animation already exists")
)
