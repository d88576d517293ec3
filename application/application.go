// Package application 是 serialize 命令的运行时容器：
// 解析命令行、加载配置、初始化日志，并把配置中的值交给分发器写出。
package application

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serial/internal/textfmt"
	zlog "github.com/lk2023060901/danmu-serial/pkg/log"
	"github.com/lk2023060901/danmu-serial/pkg/metrics"
	"github.com/lk2023060901/danmu-serial/pkg/serial"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
	zviper "github.com/lk2023060901/danmu-serial/pkg/util/viper"
)

// Version 为当前版本号，发布时通过 -ldflags "-X" 覆盖。
var Version = "0.1.0"

const (
	envPrefix      = "SERIAL"
	envConfigPath  = "SERIAL_CONFIG_FILE_PATH"
	defaultDisplay = "serialize"
)

// Application 持有配置、日志与分发器。
type Application struct {
	cfg        *zviper.Config
	settings   Settings
	loggers    map[string]*zlog.MLogger
	dispatcher *serial.Dispatcher[[]byte]
	closers    []func()

	stdout io.Writer
}

// New 创建一个 Application，结果写到 stdout。
func New(stdout io.Writer) *Application {
	return &Application{stdout: stdout}
}

// Run 是 serialize 命令的入口，args 不包含程序名。
//
// 配置文件路径的优先级：
//  1. 缺省：不加载配置文件；
//  2. 环境变量：SERIAL_CONFIG_FILE_PATH；
//  3. 命令行：--config <path>。
//
// 其余配置项的优先级为 命令行 > SERIAL_* 环境变量 > 配置文件 > 缺省值。
func (a *Application) Run(args []string) error {
	defer a.close()

	fs, showVersion, err := a.parseFlags(args)
	if err != nil {
		return err
	}
	if *showVersion {
		v, err := ParseVersion()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(a.stdout, "%s v%s\n", defaultDisplay, v)
		return err
	}

	if err := a.loadConfig(fs); err != nil {
		return err
	}
	if err := a.initLogging(); err != nil {
		return err
	}
	defer func() { _ = zlog.Sync() }()

	if a.settings, err = loadSettings(a.cfg); err != nil {
		return err
	}
	if err := a.initDispatcher(); err != nil {
		return err
	}

	out, err := a.dispatcher.SerializeInto(context.Background(), nil, a.buildArgs()...)
	if err != nil {
		return err
	}
	return a.write(out)
}

// Config 返回已加载的配置。
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// Logger 返回配置中的具名 Logger，不存在时回退到全局 Logger。
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &zlog.MLogger{Logger: zlog.L()}
}

// ParseVersion 按语义化版本解析 Version。
func ParseVersion() (semver.Version, error) {
	v, err := semver.ParseTolerant(Version)
	if err != nil {
		return semver.Version{}, merr.WrapErrConfigInvalid("version", err.Error())
	}
	return v, nil
}

func (a *Application) parseFlags(args []string) (*pflag.FlagSet, *bool, error) {
	fs := pflag.NewFlagSet(defaultDisplay, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.String("config", "", "path of the yaml/json config file")
	fs.String("name", "", "dispatcher name used in logs and metrics")
	fs.String("prefix-int", "", "override the prefix of int values")
	fs.String("codec", "", "codec of structured values: json or msgpack")
	fs.String("compress", "", "compression of structured values: none or zstd")
	fs.Bool("frame", false, "length-prefix every structured value")
	fs.Bool("hex", false, "print the output as hex")
	showVersion := fs.Bool("version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, nil, merr.WrapErrParameterInvalid("valid flags", strings.Join(args, " "), err.Error())
	}
	return fs, showVersion, nil
}

// loadConfig 解析配置文件路径，加载配置并绑定命令行参数。
func (a *Application) loadConfig(fs *pflag.FlagSet) error {
	cfg := zviper.New(envPrefix)
	setDefaults(cfg)

	configPath := os.Getenv(envConfigPath)
	if path, _ := fs.GetString("config"); path != "" {
		configPath = path
	}
	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return errors.Wrapf(err, "failed to load config file %q", configPath)
		}
	}

	for flag, key := range flagKeys {
		if err := cfg.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return err
		}
	}

	a.cfg = cfg
	return nil
}

// initLogging 初始化全局 Logger（log 配置）与具名 Logger（logging 配置）。
//
// 示例：
//
//	log:
//	  level: info
//	  stdout: false
//	logging:
//	  dispatcher:
//	    level: debug
//	    file:
//	      rootpath: ./logs
//	      filename: dispatcher.log
func (a *Application) initLogging() error {
	var global zlog.Config
	if err := a.cfg.UnmarshalKey("log", &global); err != nil {
		return err
	}
	logger, props, err := zlog.InitLogger(&global)
	if err != nil {
		return errors.Wrap(err, "init global logger")
	}
	zlog.ReplaceGlobals(logger, props)

	raw := make(map[string]zlog.Config)
	if err := a.cfg.UnmarshalKey("logging", &raw); err != nil {
		return err
	}
	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return errors.Wrapf(err, "init module logger %q", name)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger.With(zlog.FieldModule(name))}
	}
	return nil
}

func (a *Application) initDispatcher() error {
	r := textfmt.NewRegistry()
	c, err := a.settings.newCompressor()
	if err != nil {
		return err
	}
	if closer, ok := c.(interface{ Close() }); ok {
		a.closers = append(a.closers, closer.Close)
	}
	if err := a.settings.registerStructured(r, c); err != nil {
		return err
	}

	metrics.Register(prometheus.DefaultRegisterer)
	a.dispatcher = serial.NewDispatcher(r,
		serial.WithName(a.settings.Name),
		serial.WithObserver(metrics.NewObserver()),
		serial.WithLogger(a.Logger("dispatcher")),
	)

	zlog.Debug("dispatcher ready",
		zap.String("name", a.settings.Name),
		zap.Strings("types", r.Types()),
		zap.Int("values", len(a.settings.Values)))
	return nil
}

// buildArgs 把配置中的值转换为参数；设置了 prefix-int 时 int 值改用显式策略。
func (a *Application) buildArgs() []serial.Arg[[]byte] {
	return lo.Map(a.settings.Values, func(v any, _ int) serial.Arg[[]byte] {
		if iv, ok := v.(int); ok && a.settings.IntPrefix != "" {
			return serial.Pair[[]byte](iv, textfmt.IntWithPrefix[int](a.settings.IntPrefix))
		}
		return serial.Dynamic[[]byte](v)
	})
}

func (a *Application) write(out []byte) error {
	if a.settings.Hex {
		out = []byte(hex.EncodeToString(out))
	}
	_, err := a.stdout.Write(append(out, '\n'))
	return err
}

func (a *Application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
