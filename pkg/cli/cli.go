// Package cli parses the spritekit command line.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/spritekit/pkg/logger"
)

// ErrInvalidArgument は引数の値が不正な場合のエラー
var ErrInvalidArgument = errors.New("invalid argument")

// DefaultTPS は1秒あたりのフレーム数のデフォルト
const DefaultTPS = 60

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	ScenePath string        // シーンのディレクトリまたは設定ファイルのパス
	Timeout   time.Duration // タイムアウト時間（0は無制限）
	LogLevel  string        // ログレベル（debug, info, warn, error）
	LogFormat string        // ログ形式（text, json）
	Headless  bool          // ヘッドレスモード
	Frames    int           // ヘッドレスモードで進めるフレーム数（0はタイムアウトまで）
	Snapshot  string        // ヘッドレスモード終了時に画面を書き出すPNGのパス
	TPS       int           // 1秒あたりのフレーム数
	Debug     bool          // デバッグオーバーレイを表示して起動
	Mute      bool          // 音声を消音して起動
	ShowHelp  bool          // ヘルプ表示フラグ
}

// boolFlags は値を取らないフラグ
var boolFlags = []string{"h", "help", "headless", "d", "debug", "mute"}

// ParseArgs コマンドライン引数を解析してConfigを返す
// 環境変数 HEADLESS, TIMEOUT, LOG_LEVEL, LOG_FORMAT はフラグが指定されていない場合に使う
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("spritekit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.StringVar(&config.LogFormat, "log-format", logger.FormatText, "ログ形式（text, json）")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.IntVar(&config.Frames, "frames", 0, "ヘッドレスモードで進めるフレーム数")
	fs.StringVar(&config.Snapshot, "snapshot", "", "ヘッドレスモード終了時に画面を書き出すPNG")
	fs.IntVar(&config.TPS, "tps", DefaultTPS, "1秒あたりのフレーム数")
	fs.BoolVar(&config.Debug, "debug", false, "デバッグオーバーレイを表示")
	fs.BoolVar(&config.Debug, "d", false, "デバッグオーバーレイを表示（短縮形）")
	fs.BoolVar(&config.Mute, "mute", false, "消音")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}
	if !set["log-level"] && !set["l"] {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = logLevelEnv
		}
	}
	if !set["log-format"] {
		if logFormatEnv := os.Getenv("LOG_FORMAT"); logFormatEnv != "" {
			config.LogFormat = logFormatEnv
		}
	}
	config.LogLevel = strings.ToLower(config.LogLevel)
	config.LogFormat = strings.ToLower(config.LogFormat)

	if timeoutSec < 0 {
		return nil, fmt.Errorf("%w: timeout must be non-negative, got %d", ErrInvalidArgument, timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	if config.Frames < 0 {
		return nil, fmt.Errorf("%w: frames must be non-negative, got %d", ErrInvalidArgument, config.Frames)
	}
	if config.TPS <= 0 {
		return nil, fmt.Errorf("%w: tps must be positive, got %d", ErrInvalidArgument, config.TPS)
	}
	if !slices.Contains(logger.Levels, config.LogLevel) {
		return nil, fmt.Errorf("%w: log level %s (must be %s)", ErrInvalidArgument, config.LogLevel, strings.Join(logger.Levels, ", "))
	}
	if config.LogFormat != logger.FormatText && config.LogFormat != logger.FormatJSON {
		return nil, fmt.Errorf("%w: log format %s (must be text or json)", ErrInvalidArgument, config.LogFormat)
	}
	if (config.Snapshot != "" || config.Frames > 0) && !config.Headless {
		return nil, fmt.Errorf("%w: --frames and --snapshot need --headless", ErrInvalidArgument)
	}

	if fs.NArg() > 1 {
		return nil, fmt.Errorf("%w: only one scene path may be given", ErrInvalidArgument)
	}
	if fs.NArg() == 1 {
		config.ScenePath = fs.Arg(0)
	}
	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// -t 5 のように値が続く場合は値も移動する
			name := strings.TrimLeft(arg, "-")
			if strings.Contains(name, "=") || slices.Contains(boolFlags, name) {
				continue
			}
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを w に表示
func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `spritekit - sprite scene player

Usage:
  spritekit [options] [scene-path]

Arguments:
  scene-path    シーンのディレクトリ（scene.toml を読む）、または設定ファイルのパス（省略可）
                省略した場合は組み込みのシーンから選ぶ

Options:
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --log-format <format>       ログ形式: text, json（デフォルト: text）
  --headless                  ヘッドレスモード（GUIなし）
  --frames <n>                ヘッドレスモードで n フレーム進めて終了
  --snapshot <file.png>       ヘッドレスモード終了時の画面をPNGで保存
  --tps <n>                   1秒あたりのフレーム数（デフォルト: 60）
  -d, --debug                 デバッグオーバーレイを表示（F1で切り替え）
  --mute                      消音（Mで切り替え）
  -h, --help                  このヘルプを表示

Environment Variables:
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル
  LOG_FORMAT=<format>         ログ形式

Examples:
  spritekit scenes/demo                      ディレクトリを指定
  spritekit scenes/demo/scene.toml           設定ファイルを指定
  spritekit --headless --frames 120 --snapshot out.png scenes/demo
  HEADLESS=1 TIMEOUT=5 spritekit scenes/demo 環境変数でヘッドレスモード
`)
}
