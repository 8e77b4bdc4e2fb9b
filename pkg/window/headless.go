package window

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/spritekit/pkg/event"
	"github.com/zurustar/spritekit/pkg/logger"
	"github.com/zurustar/spritekit/pkg/surface"
	"github.com/zurustar/spritekit/pkg/title"
)

// ヘッドレスモードのデフォルト値
const (
	DefaultTPS            = 60
	DefaultHeadlessFrames = 600
)

// ヘッドレスモードのエラー定義
var (
	ErrCancelled   = errors.New("selection cancelled")
	ErrTimeout     = errors.New("timeout")
	ErrInputClosed = errors.New("input closed")
)

// HeadlessOptions はヘッドレス実行の設定
type HeadlessOptions struct {
	// Frames は進めるフレーム数。0 なら Timeout まで実時間で進める
	Frames int
	// Timeout は実行時間の上限（0は無制限）
	Timeout time.Duration
	// TPS は1秒あたりのフレーム数（0 なら DefaultTPS）
	TPS int
}

// RunScene はウィンドウなしでシーンを進め、最後のフレームを描いたサーフェスを返す
//
// Tick の時刻は 1/TPS 秒ずつ進む仮想時刻なので、Frames を指定した実行は
// 実時間によらず同じ結果になる。Frames も Timeout も 0 なら DefaultHeadlessFrames
// フレーム進める。Quit イベントが配送されるとその時点で終了する。
func RunScene(ctx context.Context, s Scene, opts HeadlessOptions) (*surface.ImageSurface, error) {
	log := logger.GetLogger()
	tps := opts.TPS
	if tps <= 0 {
		tps = DefaultTPS
	}
	dt := time.Second / time.Duration(tps)

	frames := opts.Frames
	if frames == 0 && opts.Timeout == 0 {
		frames = DefaultHeadlessFrames
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	// Frames 指定がなければ実時間に合わせる
	var pace <-chan time.Time
	if opts.Frames == 0 {
		t := time.NewTicker(dt)
		defer t.Stop()
		pace = t.C
	}

	clock := time.Time{}
	ticker := event.NewTicker(func() time.Time { return clock })
	d := s.Dispatcher()
	quit := false
	sub := d.Subscribe(event.CategoryQuit, func(event.Event) { quit = true })
	defer d.Unsubscribe(sub)

	w, h := s.Size()
	screen := surface.NewImageSurface(w, h)
	log.Info("Headless run started", "title", s.Title(), "frames", frames, "timeout", opts.Timeout, "tps", tps)

	for n := 0; frames == 0 || n < frames; n++ {
		if pace != nil {
			select {
			case <-ctx.Done():
				return screen, finish(ctx, opts, s)
			case <-pace:
			}
		} else if ctx.Err() != nil {
			return screen, finish(ctx, opts, s)
		}

		clock = clock.Add(dt)
		d.Publish(ticker.Next())
		if quit {
			log.Info("Headless run quit", "frame", s.Frame())
			return screen, nil
		}
		if err := s.Update(); err != nil {
			return screen, err
		}
		if err := s.Render(screen); err != nil {
			return screen, err
		}
		screen.ResetUpdates()
	}
	log.Info("Headless run finished", "frames", s.Frame())
	return screen, nil
}

// finish はコンテキスト終了時の戻り値を決める（設定したタイムアウトは正常終了）
func finish(ctx context.Context, opts HeadlessOptions, s Scene) error {
	if opts.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logger.GetLogger().Info("Timeout reached", "frames", s.Frame())
		return nil
	}
	return ctx.Err()
}

// WriteSnapshot は画面を PNG で書き出す
func WriteSnapshot(w io.Writer, screen *surface.ImageSurface) error {
	if screen == nil {
		return fmt.Errorf("snapshot: %w", surface.ErrInvalidArgument)
	}
	if err := png.Encode(w, screen.RGBA()); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// SaveSnapshot は画面を PNG ファイルに保存する
func SaveSnapshot(path string, screen *surface.ImageSurface) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := WriteSnapshot(f, screen); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SelectHeadless ヘッドレスモードでシーン選択を実行
func SelectHeadless(titles []title.Title, timeout time.Duration, reader io.Reader, writer io.Writer) (*title.Title, error) {
	switch len(titles) {
	case 0:
		return nil, title.ErrNoTitles
	case 1:
		fmt.Fprintf(writer, "Auto-selecting scene: %s\n", titles[0].DisplayName())
		return &titles[0], nil
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fmt.Fprintln(writer, "Available scenes:")
	for i, t := range titles {
		fmt.Fprintf(writer, "  %d: %s\n", i+1, t.DisplayName())
	}
	fmt.Fprintln(writer)

	scanner := bufio.NewScanner(reader)
	resultCh := make(chan *title.Title, 1)
	errCh := make(chan error, 1)

	go func() {
		for {
			fmt.Fprintf(writer, "Select a scene (1-%d) or 'q' to quit: ", len(titles))
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					errCh <- fmt.Errorf("failed to read input: %w", err)
				} else {
					errCh <- ErrInputClosed
				}
				return
			}

			input := strings.TrimSpace(scanner.Text())
			if strings.EqualFold(input, "q") {
				errCh <- ErrCancelled
				return
			}

			num, err := strconv.Atoi(input)
			if err != nil {
				fmt.Fprintln(writer, "Invalid input. Please enter a number.")
				continue
			}
			if num < 1 || num > len(titles) {
				fmt.Fprintf(writer, "Invalid selection. Please enter a number between 1 and %d.\n", len(titles))
				continue
			}

			selected := &titles[num-1]
			fmt.Fprintf(writer, "Selected: %s\n", selected.DisplayName())
			resultCh <- selected
			return
		}
	}()

	select {
	case <-ctx.Done():
		return nil, ErrTimeout
	case err := <-errCh:
		return nil, err
	case selected := <-resultCh:
		return selected, nil
	}
}
