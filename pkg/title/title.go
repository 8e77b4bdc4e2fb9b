// Package title finds the scenes a build can run: scenes embedded under
// "scenes/" and an optional external scene given on the command line.
package title

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zurustar/spritekit/pkg/fileutil"
	"github.com/zurustar/spritekit/pkg/scene"
)

// EntryFile はシーンディレクトリの設定ファイル名
const EntryFile = "scene.toml"

// embedDir は埋め込みシーンを置くディレクトリ
const embedDir = "scenes"

// ErrNoTitles は起動できるシーンがない場合のエラー
var ErrNoTitles = errors.New("no scenes available")

// Title は起動できるシーン
type Title struct {
	Name       string       // シーン名（ディレクトリ名）
	Path       string       // シーンのパス（embedの場合は仮想パス）
	IsEmbedded bool         // embedされたシーンかどうか
	Header     scene.Header // 設定ファイルのタイトルと作者情報
	EntryFile  string       // 設定ファイル名

	fsys fs.FS // Path を根とするファイルシステム
}

// DisplayName はシーンの表示名を返す
// 設定ファイルに title があればそれを、なければディレクトリ名を返す
func (t *Title) DisplayName() string {
	if t.Header.Title != "" {
		return t.Header.Title
	}
	return t.Name
}

// FS はシーンのディレクトリを根とするファイルシステムを返す
func (t *Title) FS() fs.FS { return t.fsys }

// Open はシーンを構築する
func (t *Title) Open(opts scene.Options) (*scene.Scene, error) {
	if t.fsys == nil {
		return nil, fmt.Errorf("open %s: %w", t.Name, fileutil.ErrNotFound)
	}
	return scene.Load(t.fsys, t.EntryFile, opts)
}

// Registry は起動できるシーンの一覧を管理する
type Registry struct {
	embedded []Title
	external *Title
	embedFS  fs.FS
}

// NewRegistry は embedFS の scenes/ 以下からシーンを検出して Registry を作成する
// embedFS が nil なら外部シーンだけを扱う
func NewRegistry(embedFS fs.FS) *Registry {
	r := &Registry{embedFS: embedFS}
	r.loadEmbedded()
	return r
}

// loadEmbedded は scenes/ 直下のディレクトリのうち設定ファイルを持つものを登録する
func (r *Registry) loadEmbedded() {
	if r.embedFS == nil {
		return
	}
	entries, err := fs.ReadDir(r.embedFS, embedDir)
	if err != nil {
		// scenesディレクトリが存在しない場合は何もしない
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := path.Join(embedDir, entry.Name())
		sub, err := fs.Sub(r.embedFS, dir)
		if err != nil {
			continue
		}
		entryFile := findEntry(sub)
		if entryFile == "" {
			continue
		}
		t := Title{
			Name:       entry.Name(),
			Path:       dir,
			IsEmbedded: true,
			EntryFile:  entryFile,
			fsys:       sub,
		}
		t.Header = readHeader(sub, entryFile)
		r.embedded = append(r.embedded, t)
	}
}

// findEntry は設定ファイル名を決める
// scene.toml がなければ、ディレクトリ内で名前順で最初の .toml を使う
func findEntry(fsys fs.FS) string {
	if fileutil.Exists(fsys, EntryFile) {
		return EntryFile
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(path.Ext(e.Name()), ".toml") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return ""
	}
	slices.Sort(names)
	return names[0]
}

// readHeader は一覧用の情報を読む（読めなければ空）
func readHeader(fsys fs.FS, name string) scene.Header {
	h, err := scene.ReadHeader(fsys, name)
	if err != nil {
		return scene.Header{}
	}
	return *h
}

// LoadExternal は外部のシーンを読み込む
// p はシーンのディレクトリか、設定ファイルのパス
func (r *Registry) LoadExternal(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("scene path does not exist: %s: %w", p, fileutil.ErrNotFound)
		}
		return fmt.Errorf("failed to access scene path: %w", err)
	}

	absPath, err := filepath.Abs(p)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	dir, entryFile := absPath, ""
	if !info.IsDir() {
		dir, entryFile = filepath.Dir(absPath), filepath.Base(absPath)
	}
	fsys := fileutil.Dir(dir)
	if entryFile == "" {
		if entryFile = findEntry(fsys); entryFile == "" {
			return fmt.Errorf("no %s in %s: %w", EntryFile, dir, fileutil.ErrNotFound)
		}
	}

	r.external = &Title{
		Name:      filepath.Base(dir),
		Path:      dir,
		EntryFile: entryFile,
		Header:    readHeader(fsys, entryFile),
		fsys:      fsys,
	}
	return nil
}

// Available は利用可能なシーン一覧を返す
// 外部シーンが指定されている場合はそれだけを返す
func (r *Registry) Available() []Title {
	if r.external != nil {
		return []Title{*r.external}
	}
	return slices.Clone(r.embedded)
}

// Select はシーンを選択する（単一の場合は自動選択）
// 戻り値: (選択されたシーン, 選択画面が必要か, エラー)
func (r *Registry) Select() (*Title, bool, error) {
	titles := r.Available()
	switch len(titles) {
	case 0:
		return nil, false, ErrNoTitles
	case 1:
		return &titles[0], false, nil
	default:
		return nil, true, nil
	}
}
