// Package logger holds the process-wide slog logger.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// ErrInvalidLevel は未知のログレベルのエラー
var ErrInvalidLevel = errors.New("invalid log level")

// ErrInvalidFormat は未知の出力形式のエラー
var ErrInvalidFormat = errors.New("invalid log format")

// 出力形式
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Levels は指定できるログレベル
var Levels = []string{"debug", "info", "warn", "error"}

var (
	mu           sync.RWMutex
	globalLogger *slog.Logger
)

// Options はロガーの設定
type Options struct {
	Level  string    // debug, info, warn, error
	Format string    // text（デフォルト）または json
	Output io.Writer // nil なら標準出力
}

// ParseLevel はログレベル名を slog.Level に変換する（大文字小文字は区別しない）
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidLevel, level)
	}
}

// New は設定からロガーを作成する
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	ho := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		handler = slog.NewTextHandler(out, ho)
	case FormatJSON:
		handler = slog.NewJSONHandler(out, ho)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, opts.Format)
	}
	return slog.New(handler), nil
}

// Init は設定からグローバルロガーを初期化し、slog のデフォルトにする
func Init(opts Options) error {
	l, err := New(opts)
	if err != nil {
		return err
	}
	mu.Lock()
	globalLogger = l
	mu.Unlock()
	slog.SetDefault(l)
	return nil
}

// InitLogger ログレベルに応じてslogを初期化（標準出力にテキスト形式）
func InitLogger(level string) error {
	return Init(Options{Level: level})
}

// GetLogger グローバルロガーを取得
func GetLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}
