// Package text renders strings onto surfaces, with newline handling and
// greedy word wrapping.
package text

import (
	"errors"
	"fmt"
	"image"
	"io/fs"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"github.com/zurustar/spritekit/pkg/fileutil"
	"github.com/zurustar/spritekit/pkg/surface"
)

// テキスト描画のエラー定義
var (
	// ErrInvalidArgument は必須の引数がnilの場合のエラー
	ErrInvalidArgument = surface.ErrInvalidArgument

	// ErrFontNotFound はフォントファイルを読み込めない場合のエラー
	ErrFontNotFound = errors.New("font not found")
)

// Style はフォントの装飾
type Style uint8

const Normal Style = 0

const (
	Bold Style = 1 << iota
	Underline
)

// Font は描画に使うフォントフェイスと装飾
type Font struct {
	face  font.Face
	style Style
}

// NewFont はフォントフェイスから Font を作成する
func NewFont(face font.Face) (*Font, error) {
	if face == nil {
		return nil, fmt.Errorf("new font: %w", ErrInvalidArgument)
	}
	return &Font{face: face}, nil
}

// DefaultFont は組み込みの 7x13 ビットマップフォントを返す
func DefaultFont() *Font {
	return &Font{face: basicfont.Face7x13}
}

// ParseFont は TrueType/OpenType のデータからサイズ size（ピクセル）のフォントを作成する
// フォントコレクション（.ttc）の場合は最初のフォントを使う
func ParseFont(data []byte, size float64) (*Font, error) {
	tt, err := opentype.Parse(data)
	if err != nil {
		// フォントコレクション（.ttc）として解析を試みる
		collection, cerr := opentype.ParseCollection(data)
		if cerr != nil {
			return nil, fmt.Errorf("failed to parse font: %w", err)
		}
		if collection.NumFonts() == 0 {
			return nil, fmt.Errorf("font collection is empty: %w", ErrFontNotFound)
		}
		tt, err = collection.Font(0)
		if err != nil {
			return nil, fmt.Errorf("failed to get font from collection: %w", err)
		}
	}

	face, err := opentype.NewFace(tt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return &Font{face: face}, nil
}

// OpenFont はファイルシステムからフォントを読み込む（ファイル名の大文字小文字は区別しない）
func OpenFont(fsys fs.FS, name string, size float64) (*Font, error) {
	if fsys == nil {
		return nil, fmt.Errorf("open font %s: %w", name, ErrInvalidArgument)
	}
	data, err := fileutil.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("open font %s: %w: %w", name, ErrFontNotFound, err)
	}
	return ParseFont(data, size)
}

// Face はフォントフェイスを返す
func (f *Font) Face() font.Face { return f.face }

// Style は装飾を返す
func (f *Font) Style() Style { return f.style }

// SetStyle は装飾を設定する
func (f *Font) SetStyle(s Style) { f.style = s }

// Bold は太字かどうかを返す
func (f *Font) Bold() bool { return f.style&Bold != 0 }

// Underline は下線付きかどうかを返す
func (f *Font) Underline() bool { return f.style&Underline != 0 }

// Height は1行の高さ（ピクセル）を返す
func (f *Font) Height() int { return f.face.Metrics().Height.Ceil() }

// Ascent はベースラインから上端までの高さを返す
func (f *Font) Ascent() int { return f.face.Metrics().Ascent.Ceil() }

// Descent はベースラインから下端までの深さを返す
func (f *Font) Descent() int { return f.face.Metrics().Descent.Ceil() }

// LineSize は行送りの高さを返す
func (f *Font) LineSize() int { return f.Height() }

// SizeText は1行として描画したときのサイズを返す
func (f *Font) SizeText(s string) image.Point {
	w := font.MeasureString(f.face, s).Ceil()
	if f.Bold() && w > 0 {
		w++
	}
	return image.Pt(w, f.Height())
}

func (f *Font) width(s string) int {
	return f.SizeText(s).X
}
