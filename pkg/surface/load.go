package surface

import (
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"path"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/zurustar/spritekit/pkg/fileutil"
)

// Load は fsys から画像ファイルを読み込んでサーフェスを作成する
// 対応形式: BMP（golang.org/x/image/bmp）、PNG
// ファイル名の大文字小文字は区別しない
func Load(fsys fs.FS, name string) (*ImageSurface, error) {
	if fsys == nil {
		return nil, fmt.Errorf("load %q: %w", name, ErrInvalidArgument)
	}
	f, err := fileutil.Open(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %q: %w", name, err)
	}
	defer f.Close()

	var img image.Image
	switch strings.ToLower(path.Ext(name)) {
	case ".bmp":
		img, err = bmp.Decode(f)
	case ".png":
		img, err = png.Decode(f)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %q: %w", name, err)
	}
	return NewImageSurfaceFrom(img), nil
}

// Frames はスプライトシートを w×h のフレームに分割する
// 左上から右方向、次に下方向の順に並ぶ
func Frames(sheet *ImageSurface, w, h int) ([]*ImageSurface, error) {
	if sheet == nil || w <= 0 || h <= 0 {
		return nil, ErrInvalidArgument
	}
	cols := sheet.Width() / w
	rows := sheet.Height() / h
	frames := make([]*ImageSurface, 0, cols*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r := image.Rect(x*w, y*h, (x+1)*w, (y+1)*h)
			frames = append(frames, sheet.SubSurface(r))
		}
	}
	return frames, nil
}
