// Package surface provides the drawable targets the compositor blits onto.
//
// Two backends are available:
//   - ImageSurface: CPU側の *image.RGBA（ヘッドレスモードとテストで使用）
//   - EbitenSurface: GPU側の *ebiten.Image（ウインドウ表示で使用）
package surface

import (
	"errors"
	"image"
	"image/color"
)

var (
	// ErrInvalidArgument は必須の引数がnilの場合のエラー
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedFormat は画像形式が対応していない場合のエラー
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Surface は描画先・描画元となる画像の抽象
type Surface interface {
	// Width はサーフェスの幅を返す
	Width() int
	// Height はサーフェスの高さを返す
	Height() int
	// Bounds は (0,0)-(Width,Height) の矩形を返す
	Bounds() image.Rectangle

	// Blit は src の srcRect 部分を dst の位置に描画し、描画先の矩形を返す
	// srcRect が空の場合は src 全体を描画する
	// 戻り値は描画先でのクリップ前の矩形（dst + srcRect のサイズ）
	Blit(src Surface, dst image.Point, srcRect image.Rectangle) image.Rectangle

	// Update は指定矩形が更新されたことを通知する
	Update(rects ...image.Rectangle)

	// Fill は矩形を単色で塗りつぶす
	Fill(r image.Rectangle, c color.Color)
	// FillPath はパスの内側を塗りつぶす
	FillPath(p *Path, c color.Color)
	// StrokePath はパスの輪郭を描画する
	StrokePath(p *Path, width float32, c color.Color)
}

// Keyed は透明度とカラーキーを持つサーフェス
// Blit元として使われるときに適用される
type Keyed interface {
	Alpha() uint8
	SetAlpha(a uint8)
	ColorKey() (color.Color, bool)
	SetColorKey(c color.Color, enabled bool)
}

// imageSource はピクセルを読み出せるサーフェス
type imageSource interface {
	image() image.Image
}

// SourceRect は Blit 元の矩形を正規化する
// 空の矩形は src 全体を表し、src の範囲外はクリップされる
func SourceRect(src Surface, r image.Rectangle) image.Rectangle {
	if r.Empty() {
		return src.Bounds()
	}
	return r.Intersect(src.Bounds())
}

// BlitRect は Blit の戻り値となる描画先矩形を計算する
func BlitRect(dst image.Point, srcRect image.Rectangle) image.Rectangle {
	return image.Rectangle{Min: dst, Max: dst.Add(srcRect.Size())}
}
