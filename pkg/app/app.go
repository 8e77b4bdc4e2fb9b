// Package app wires the command line, the scene registry and the window
// together into the spritekit program.
package app

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/zurustar/spritekit/pkg/cli"
	"github.com/zurustar/spritekit/pkg/fileutil"
	"github.com/zurustar/spritekit/pkg/logger"
	"github.com/zurustar/spritekit/pkg/mixer"
	"github.com/zurustar/spritekit/pkg/scene"
	"github.com/zurustar/spritekit/pkg/title"
	"github.com/zurustar/spritekit/pkg/window"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config   *cli.Config
	log      *slog.Logger
	registry *title.Registry
	embedFS  fs.FS
	cwd      fs.FS

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// New Applicationを作成
// embedFS は scenes/ と soundfonts/ を含むファイルシステム（nil 可）
func New(embedFS fs.FS) *Application {
	return &Application{
		embedFS: embedFS,
		cwd:     fileutil.Dir("."),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	config, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.config = config

	if config.ShowHelp {
		cli.PrintHelp(app.stdout)
		return nil
	}

	// 2. ロガーの初期化
	if err := logger.Init(logger.Options{Level: config.LogLevel, Format: config.LogFormat, Output: app.stderr}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log = logger.GetLogger()
	app.log.Info("Application started", "headless", config.Headless, "tps", config.TPS)

	// 3. シーンの検出
	app.registry = title.NewRegistry(app.embedFS)
	if config.ScenePath != "" {
		if err := app.registry.LoadExternal(config.ScenePath); err != nil {
			return fmt.Errorf("failed to load external scene: %w", err)
		}
	}

	// 4. 実行
	if config.Headless {
		err = app.runHeadless(context.Background())
	} else {
		err = app.runWindow()
	}
	if err != nil {
		return err
	}
	app.log.Info("Application terminated normally")
	return nil
}

// openScene はシーンを構築し、コマンドラインの設定を反映する
func (app *Application) openScene(t *title.Title, backend mixer.Backend) (*scene.Scene, error) {
	app.log.Info("Opening scene", "name", t.Name, "path", t.Path, "entryFile", t.EntryFile)
	s, err := t.Open(scene.Options{
		Backend:   backend,
		Logger:    app.log,
		FindSynth: app.synthFinder(t),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open scene %s: %w", t.DisplayName(), err)
	}
	s.Overlay().SetEnabled(app.config.Debug)
	s.SetMuted(app.config.Mute)
	return s, nil
}

// runHeadless は標準入出力でシーンを選び、ウィンドウなしで実行する
// 音声は出力しない
func (app *Application) runHeadless(ctx context.Context) error {
	t, needsSelection, err := app.registry.Select()
	if err != nil {
		return fmt.Errorf("failed to select scene: %w", err)
	}
	if needsSelection {
		if t, err = window.SelectHeadless(app.registry.Available(), app.config.Timeout, app.stdin, app.stdout); err != nil {
			return fmt.Errorf("failed to select scene: %w", err)
		}
	}

	s, err := app.openScene(t, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	screen, err := window.RunScene(ctx, s, window.HeadlessOptions{
		Frames:  app.config.Frames,
		Timeout: app.config.Timeout,
		TPS:     app.config.TPS,
	})
	if err != nil {
		return fmt.Errorf("headless run failed: %w", err)
	}

	if app.config.Snapshot != "" {
		if err := window.SaveSnapshot(app.config.Snapshot, screen); err != nil {
			return err
		}
		app.log.Info("Snapshot saved", "path", app.config.Snapshot)
	}
	return nil
}

// runWindow はウィンドウでシーンを実行する
// シーンが複数あれば選択画面から始める
func (app *Application) runWindow() error {
	backend := mixer.NewEbitenBackend(nil)

	t, needsSelection, err := app.registry.Select()
	if err != nil {
		return fmt.Errorf("failed to select scene: %w", err)
	}

	var g *window.Game
	if needsSelection {
		app.log.Info("Multiple scenes available, showing selection screen", "count", len(app.registry.Available()))
		g = window.NewGame(window.ModeSelection, app.registry.Available(), app.config.Timeout)
		g.SetHasTitleSelection(true)
		g.SetOnTitleSelected(func(t *title.Title) (window.Scene, error) {
			s, err := app.openScene(t, backend)
			if err != nil {
				return nil, err
			}
			return s, nil
		})
	} else {
		s, err := app.openScene(t, backend)
		if err != nil {
			return err
		}
		g = window.NewGame(window.ModeScene, nil, app.config.Timeout)
		g.SetScene(s)
	}
	g.SetMuted(app.config.Mute)

	if err := window.Run(g, app.config.TPS); err != nil {
		return err
	}
	if err := g.TransitionError(); err != nil {
		return err
	}
	return nil
}
