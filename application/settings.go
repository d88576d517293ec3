package application

import (
	"github.com/lk2023060901/danmu-serial/pkg/compressor"
	"github.com/lk2023060901/danmu-serial/pkg/serial"
	"github.com/lk2023060901/danmu-serial/pkg/serial/adapter"
	"github.com/lk2023060901/danmu-serial/pkg/serializer"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
	zviper "github.com/lk2023060901/danmu-serial/pkg/util/viper"
)

const (
	CodecJSON    = "json"
	CodecMsgPack = "msgpack"

	CompressNone = "none"
	CompressZstd = "zstd"
)

// flagKeys 记录命令行参数与配置项的对应关系。
var flagKeys = map[string]string{
	"name":       "serialize.name",
	"prefix-int": "serialize.prefix-int",
	"codec":      "serialize.codec",
	"compress":   "serialize.compress",
	"frame":      "serialize.frame",
	"hex":        "serialize.hex",
}

// Settings 是 serialize 配置段：
//
//	serialize:
//	  name: cli
//	  prefix-int: "INT "
//	  codec: json
//	  compress: none
//	  frame: false
//	  hex: false
//	  values: [1, 2, 3.0, "FOO", {id: 7}]
type Settings struct {
	Name      string
	IntPrefix string
	Codec     string
	Compress  string
	Frame     bool
	Hex       bool
	Values    []any
}

func setDefaults(cfg *zviper.Config) {
	cfg.SetDefault("serialize.name", "cli")
	cfg.SetDefault("serialize.codec", CodecJSON)
	cfg.SetDefault("serialize.compress", CompressNone)
	cfg.SetDefault("log.level", "info")
	cfg.SetDefault("log.format", "text")
}

func loadSettings(cfg *zviper.Config) (Settings, error) {
	s := Settings{
		Name:      cfg.GetString("serialize.name"),
		IntPrefix: cfg.GetString("serialize.prefix-int"),
		Codec:     cfg.GetString("serialize.codec"),
		Compress:  cfg.GetString("serialize.compress"),
		Frame:     cfg.GetBool("serialize.frame"),
		Hex:       cfg.GetBool("serialize.hex"),
	}
	switch values := cfg.Get("serialize.values").(type) {
	case nil:
	case []any:
		s.Values = values
	default:
		return Settings{}, merr.WrapErrConfigInvalid("serialize.values", "must be a list")
	}
	return s, nil
}

func (s Settings) serializer() (serializer.Serializer, error) {
	switch s.Codec {
	case CodecJSON:
		return serializer.JSONSerializer{}, nil
	case CodecMsgPack:
		return serializer.MsgPackSerializer{}, nil
	default:
		return nil, merr.WrapErrConfigInvalid("serialize.codec", "unsupported codec "+s.Codec)
	}
}

func (s Settings) newCompressor() (compressor.Compressor, error) {
	switch s.Compress {
	case "", CompressNone:
		return compressor.NopCompressor{}, nil
	case CompressZstd:
		return compressor.NewZstdCompressor()
	default:
		return nil, merr.WrapErrConfigInvalid("serialize.compress", "unsupported compression "+s.Compress)
	}
}

// registerStructured 为配置中的对象与列表注册缺省策略：编码 -> 压缩 -> 可选的长度前缀。
func (s Settings) registerStructured(r *serial.Registry[[]byte], c compressor.Compressor) error {
	codec, err := s.serializer()
	if err != nil {
		return err
	}
	if err := serial.Register(r, func() serial.Strategy[map[string]any, []byte] {
		return structured[map[string]any](codec, c, s.Frame)
	}); err != nil {
		return err
	}
	return serial.Register(r, func() serial.Strategy[[]any, []byte] {
		return structured[[]any](codec, c, s.Frame)
	})
}

func structured[T any](codec serializer.Serializer, c compressor.Compressor, frame bool) serial.Strategy[T, []byte] {
	strategy := adapter.Compressed[T](adapter.Marshaled[T](codec), c)
	if frame {
		strategy = adapter.LengthPrefixed[T](strategy)
	}
	return strategy
}
