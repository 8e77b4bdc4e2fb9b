package text

import (
	"image"
	"image/color"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/zurustar/spritekit/pkg/surface"
)

// Lines はテキストを描画する行に分割する
//
// 改行（\r は無視）で分割して各行の前後の空白を取り除き、wrapWidth > 0 なら
// 幅に収まるように最後に収まる空白で折り返す（空白がなければ文字単位で折る）。
// maxLines > 0 なら先頭から maxLines 行だけを返す。
// テキストは NFC に正規化される。
func (f *Font) Lines(s string, wrapWidth, maxLines int) []string {
	s = norm.NFC.String(strings.ReplaceAll(s, "\r", ""))

	var lines []string
	for _, raw := range strings.Split(s, "\n") {
		line := strings.TrimSpace(raw)
		if wrapWidth <= 0 || line == "" {
			lines = append(lines, line)
		} else {
			lines = append(lines, f.wrap(line, wrapWidth)...)
		}
		if maxLines > 0 && len(lines) >= maxLines {
			return lines[:maxLines]
		}
	}
	return lines
}

// wrap は1行を幅 width に収まる行に分割する
func (f *Font) wrap(line string, width int) []string {
	var out []string
	rest := []rune(line)
	for len(rest) > 0 {
		if f.width(string(rest)) <= width {
			out = append(out, string(rest))
			break
		}

		// 収まる最長の先頭部分（最低1文字）
		n := 1
		for n < len(rest) && f.width(string(rest[:n+1])) <= width {
			n++
		}

		// 収まる範囲の直後までで最後の空白を探す
		cut := -1
		for i := min(n, len(rest)-1); i > 0; i-- {
			if unicode.IsSpace(rest[i]) {
				cut = i
				break
			}
		}

		var head []rune
		if cut > 0 {
			head, rest = rest[:cut], rest[cut+1:]
		} else {
			head, rest = rest[:n], rest[n:]
		}
		out = append(out, strings.TrimRightFunc(string(head), unicode.IsSpace))
		rest = []rune(strings.TrimLeftFunc(string(rest), unicode.IsSpace))
	}
	return out
}

// Render はテキストを新しいサーフェスに描画する
//
// bg が nil なら背景は透明。wrapWidth > 0 ならサーフェスの幅は wrapWidth、
// そうでなければ最も長い行の幅になる。各行の高さは Height。
func (f *Font) Render(s string, fg, bg color.Color, wrapWidth, maxLines int) *surface.ImageSurface {
	if fg == nil {
		fg = color.White
	}
	lines := f.Lines(s, wrapWidth, maxLines)

	w := wrapWidth
	if w <= 0 {
		for _, l := range lines {
			w = max(w, f.width(l))
		}
	}
	lineHeight := f.Height()
	dst := surface.NewImageSurface(max(w, 1), max(len(lines)*lineHeight, 1))
	if bg != nil {
		dst.Fill(dst.Bounds(), bg)
	}

	src := image.NewUniform(fg)
	for i, l := range lines {
		if l == "" {
			continue
		}
		top := i * lineHeight
		f.drawLine(dst, src, l, top)
		if f.Underline() {
			y := top + f.Ascent() + 1
			dst.Fill(image.Rect(0, y, f.width(l), y+1), fg)
		}
	}
	return dst
}

// drawLine は1行を top の位置に描画する（太字は1ピクセルずらして重ね描きする）
func (f *Font) drawLine(dst *surface.ImageSurface, src image.Image, l string, top int) {
	d := font.Drawer{
		Dst:  dst.RGBA(),
		Src:  src,
		Face: f.face,
		Dot:  fixed.P(0, top+f.Ascent()),
	}
	d.DrawString(l)
	if f.Bold() {
		d.Dot = fixed.P(1, top+f.Ascent())
		d.DrawString(l)
	}
	dst.Touch()
}
