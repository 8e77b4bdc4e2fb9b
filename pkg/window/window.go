// Package window hosts a scene in an Ebitengine window, or runs it without
// one for headless mode.
package window

import (
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/zurustar/spritekit/pkg/event"
	"github.com/zurustar/spritekit/pkg/logger"
	"github.com/zurustar/spritekit/pkg/scene"
	"github.com/zurustar/spritekit/pkg/sprite"
	"github.com/zurustar/spritekit/pkg/surface"
	"github.com/zurustar/spritekit/pkg/title"
)

var (
	// 選択画面の背景色 #0087C8
	backgroundColor = color.RGBA{0x00, 0x87, 0xC8, 0xFF}
	// テキスト色（白）
	textColor = color.White
	// 選択中のテキスト色（黄色）
	selectedTextColor = color.RGBA{0xFF, 0xFF, 0x00, 0xFF}
	// デフォルトフォント
	defaultFace = text.NewGoXFace(basicfont.Face7x13)
)

// 選択画面のサイズ
const (
	selectionWidth  = 640
	selectionHeight = 480
)

// キー操作
const (
	keyOverlay = ebiten.KeyF1 // デバッグオーバーレイの切り替え
	keyMute    = ebiten.KeyM  // 消音の切り替え
)

// Scene は Game が動かすシーン
type Scene interface {
	Title() string
	Size() (int, int)
	Dispatcher() *event.Dispatcher
	Overlay() *sprite.DebugOverlay
	Frame() int64
	SetMuted(muted bool)
	Update() error
	Render(dst surface.Surface) error
	Invalidate()
	Close()
}

var _ Scene = (*scene.Scene)(nil)

// Mode はウィンドウの表示モードを表す
type Mode int

const (
	ModeSelection Mode = iota // シーン選択画面
	ModeScene                 // シーンの実行
)

// Game はEbitengineのゲームインターフェースを実装する
type Game struct {
	mode          Mode          // 現在のモード
	titles        []title.Title // 利用可能なシーン一覧
	selectedIndex int           // 選択中のシーンのインデックス
	selectedTitle *title.Title  // 選択されたシーン
	timeout       time.Duration // タイムアウト時間
	startTime     time.Time     // 開始時刻

	scene  Scene
	screen *surface.EbitenSurface
	subs   []event.Subscription
	muted  bool
	quit   bool
	err    error // 描画中のエラー（次の Update で返す）

	// poll は入力をイベントに変換し、最後に Tick を配送する
	poll func()
	// justPressed はキーがこのフレームで押されたかを返す
	justPressed func(ebiten.Key) bool
	// closing はウィンドウが閉じられようとしているかを返す
	closing func() bool

	// onTitleSelected は選択画面でシーンが選ばれたときに呼ばれる
	onTitleSelected func(t *title.Title) (Scene, error)
	transitionError error

	// hasTitleSelection が true ならシーン中の ESC で選択画面に戻る
	hasTitleSelection bool

	log *slog.Logger
	mu  sync.RWMutex
}

// NewGame Gameを作成
func NewGame(mode Mode, titles []title.Title, timeout time.Duration) *Game {
	return &Game{
		mode:        mode,
		titles:      titles,
		timeout:     timeout,
		startTime:   time.Now(),
		justPressed: inpututil.IsKeyJustPressed,
		closing:     ebiten.IsWindowBeingClosed,
		log:         logger.GetLogger(),
	}
}

// SetScene は s を実行するシーンにしてシーンモードに切り替える
func (g *Game) SetScene(s Scene) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setSceneLocked(s)
}

func (g *Game) setSceneLocked(s Scene) {
	g.closeSceneLocked()
	g.scene = s
	g.mode = ModeScene
	g.quit = false
	g.startTime = time.Now()

	d := s.Dispatcher()
	poller := event.NewInputPoller(d, event.NewTicker(nil))
	g.poll = poller.Poll
	g.subs = []event.Subscription{
		d.Subscribe(event.CategoryQuit, func(event.Event) { g.quit = true }),
		d.Subscribe(event.CategoryVideoExpose, func(event.Event) { s.Invalidate() }),
	}
	s.SetMuted(g.muted)
	g.log.Info("Scene started", "title", s.Title())
}

// closeSceneLocked は実行中のシーンを閉じる
func (g *Game) closeSceneLocked() {
	if g.scene == nil {
		return
	}
	d := g.scene.Dispatcher()
	for _, sub := range g.subs {
		d.Unsubscribe(sub)
	}
	g.subs = nil
	g.scene.Close()
	g.log.Info("Scene closed", "title", g.scene.Title(), "frames", g.scene.Frame())
	g.scene = nil
	g.screen = nil
	g.poll = nil
}

// Scene は実行中のシーンを返す
func (g *Game) Scene() Scene {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scene
}

// SetOnTitleSelected は選択画面でシーンが選ばれたときのコールバックを設定する
func (g *Game) SetOnTitleSelected(callback func(t *title.Title) (Scene, error)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onTitleSelected = callback
}

// SetHasTitleSelection は選択画面があるかどうかを設定する
// true ならシーン中の ESC で選択画面に戻り、false なら終了する
func (g *Game) SetHasTitleSelection(has bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hasTitleSelection = has
}

// SetMuted は消音状態を設定する
func (g *Game) SetMuted(muted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.muted = muted
	if g.scene != nil {
		g.scene.SetMuted(muted)
	}
}

// TransitionError はシーンを開けなかったときのエラーを返す
func (g *Game) TransitionError() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.transitionError
}

// SelectedTitle 選択されたシーンを取得
func (g *Game) SelectedTitle() *title.Title {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.selectedTitle
}

// Update ゲームロジックの更新（Ebitengineが毎フレーム呼び出す）
func (g *Game) Update() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.timeout > 0 && time.Since(g.startTime) >= g.timeout {
		g.closeSceneLocked()
		return ebiten.Termination
	}

	switch g.mode {
	case ModeSelection:
		return g.updateSelection()
	case ModeScene:
		return g.updateScene()
	}
	return nil
}

// updateSelection シーン選択画面の更新
func (g *Game) updateSelection() error {
	if g.justPressed(ebiten.KeyUp) && g.selectedIndex > 0 {
		g.selectedIndex--
	}
	if g.justPressed(ebiten.KeyDown) && g.selectedIndex < len(g.titles)-1 {
		g.selectedIndex++
	}

	if g.justPressed(ebiten.KeyEnter) && len(g.titles) > 0 {
		g.selectedTitle = &g.titles[g.selectedIndex]
		if g.onTitleSelected == nil {
			return ebiten.Termination
		}
		s, err := g.onTitleSelected(g.selectedTitle)
		if err != nil {
			g.transitionError = err
			return ebiten.Termination
		}
		g.setSceneLocked(s)
		return nil
	}

	if g.justPressed(ebiten.KeyEscape) || g.closing() {
		return ebiten.Termination
	}
	return nil
}

// updateScene は入力をイベントとして配送し、シーンを1フレーム進める
func (g *Game) updateScene() error {
	if g.err != nil {
		return g.err
	}

	if g.justPressed(ebiten.KeyEscape) {
		return g.exitScene()
	}
	if g.justPressed(keyOverlay) {
		o := g.scene.Overlay()
		o.SetEnabled(!o.IsEnabled())
		g.scene.Invalidate()
	}
	if g.justPressed(keyMute) {
		g.muted = !g.muted
		g.scene.SetMuted(g.muted)
	}

	if g.poll != nil {
		g.poll()
	}
	if g.quit {
		g.closeSceneLocked()
		return ebiten.Termination
	}
	return g.scene.Update()
}

// exitScene はシーンを閉じて選択画面に戻るか、終了する
func (g *Game) exitScene() error {
	g.closeSceneLocked()
	if !g.hasTitleSelection {
		return ebiten.Termination
	}
	g.mode = ModeSelection
	return nil
}

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.mode {
	case ModeSelection:
		g.drawSelection(screen)
	case ModeScene:
		g.drawScene(screen)
	}
}

// drawSelection シーン選択画面の描画
func (g *Game) drawSelection(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	titleOp := &text.DrawOptions{}
	titleOp.GeoM.Translate(40, 40)
	titleOp.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, "Select a scene", defaultFace, titleOp)

	for i, t := range g.titles {
		prefix := "  "
		clr := color.Color(textColor)
		if i == g.selectedIndex {
			prefix = "> "
			clr = selectedTextColor
		}
		op := &text.DrawOptions{}
		op.GeoM.Translate(60, 90+float64(i*30))
		op.ColorScale.ScaleWithColor(clr)
		text.Draw(screen, prefix+t.DisplayName(), defaultFace, op)
	}

	helpOp := &text.DrawOptions{}
	helpOp.GeoM.Translate(40, selectionHeight-40)
	helpOp.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, "UP/DOWN to select, ENTER to start, ESC to exit", defaultFace, helpOp)
}

// drawScene はシーンを画面に描画する
// 画面はフレーム間で保持されるので、シーンは変更した領域だけを描き直す
func (g *Game) drawScene(screen *ebiten.Image) {
	if g.scene == nil {
		return
	}
	switch {
	case g.screen == nil:
		g.screen = surface.WrapEbiten(screen)
		g.scene.Invalidate()
	case g.screen.Image() != screen:
		g.screen.Rebind(screen)
		g.scene.Invalidate()
	}
	if err := g.scene.Render(g.screen); err != nil && g.err == nil {
		g.err = fmt.Errorf("failed to render scene: %w", err)
	}
}

// Layout 画面サイズを返す（シーン実行中はシーンのサイズ）
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.mode == ModeScene && g.scene != nil {
		return g.scene.Size()
	}
	return selectionWidth, selectionHeight
}

// Run GUIモードでウィンドウを実行する
func Run(g *Game, tps int) error {
	w, h := g.Layout(0, 0)
	name := "spritekit"
	if s := g.Scene(); s != nil && s.Title() != "" {
		name = s.Title() + " - spritekit"
	}

	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(name)
	// アスペクト比を維持してスケーリングする
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	// 前フレームの画面を残し、変更した領域だけを描き直す
	ebiten.SetScreenClearedEveryFrame(false)
	// ウィンドウを閉じる操作は Quit イベントとして扱う
	ebiten.SetWindowClosingHandled(true)
	if tps > 0 {
		ebiten.SetTPS(tps)
	}

	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("failed to run game: %w", err)
	}
	g.mu.Lock()
	g.closeSceneLocked()
	g.mu.Unlock()
	return nil
}
