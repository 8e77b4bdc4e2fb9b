package app

import (
	"fmt"
	"io/fs"

	"github.com/zurustar/spritekit/pkg/fileutil"
	"github.com/zurustar/spritekit/pkg/mixer"
	"github.com/zurustar/spritekit/pkg/title"
)

// DefaultSoundFontName は探す SoundFont のファイル名
const DefaultSoundFontName = "GeneralUser-GS.sf2"

// embedSoundFontDir は埋め込み SoundFont を置くディレクトリ
const embedSoundFontDir = "soundfonts"

// SoundFontLocation は見つかった SoundFont の場所
type SoundFontLocation struct {
	FS         fs.FS  // 読み込みに使うファイルシステム
	Path       string // FS 内のパス
	IsEmbedded bool   // 埋め込みファイルかどうか
}

// findSoundFont は次の順に SoundFont を探す
//  1. 埋め込みの soundfonts/
//  2. シーンのディレクトリ
//  3. カレントディレクトリ
//
// 見つからなければ nil を返す
func findSoundFont(embedFS, cwd fs.FS, t *title.Title) *SoundFontLocation {
	candidates := []SoundFontLocation{}
	if embedFS != nil {
		if sub, err := fs.Sub(embedFS, embedSoundFontDir); err == nil {
			candidates = append(candidates, SoundFontLocation{FS: sub, Path: DefaultSoundFontName, IsEmbedded: true})
		}
	}
	if t != nil && t.FS() != nil {
		candidates = append(candidates, SoundFontLocation{FS: t.FS(), Path: DefaultSoundFontName, IsEmbedded: t.IsEmbedded})
	}
	if cwd != nil {
		candidates = append(candidates, SoundFontLocation{FS: cwd, Path: DefaultSoundFontName})
	}

	for _, c := range candidates {
		if fileutil.Exists(c.FS, c.Path) {
			return &c
		}
	}
	return nil
}

// synthFinder は scene.Options.FindSynth に渡す関数を返す
// SoundFont の読み込みは MIDI の BGM を持つシーンを開くまで行わない
func (app *Application) synthFinder(t *title.Title) func() (*mixer.Synth, error) {
	return func() (*mixer.Synth, error) {
		loc := findSoundFont(app.embedFS, app.cwd, t)
		if loc == nil {
			return nil, fmt.Errorf("%s: %w", DefaultSoundFontName, mixer.ErrNoSoundFont)
		}
		app.log.Info("Loading SoundFont", "path", loc.Path, "embedded", loc.IsEmbedded)
		return mixer.LoadSynth(loc.FS, loc.Path)
	}
}
