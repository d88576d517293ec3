package viper

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	spfviper "github.com/spf13/viper"
)

// Config 封装 spf13/viper 实例，对外提供精简的 YAML/JSON 配置加载接口。
type Config struct {
	v *spfviper.Viper
}

// New 创建一个空的 Config。
// 环境变量以 envPrefix 为前缀自动覆盖同名配置（a.b 对应 PREFIX_A_B），envPrefix 为空时不绑定环境变量。
func New(envPrefix string) *Config {
	v := spfviper.New()
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()
	}
	return &Config{v: v}
}

// LoadFile 将 YAML 或 JSON 配置文件加载到 Config 中，文件类型通过扩展名推断。
func (c *Config) LoadFile(path string) error {
	c.v.SetConfigFile(path)

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		c.v.SetConfigType("yaml")
	case ".json":
		c.v.SetConfigType("json")
	default:
		// 交给 viper 自行推断，失败时由 ReadInConfig 返回错误。
	}

	return c.v.ReadInConfig()
}

// ReadConfig 从 r 中读取指定类型（yaml/json）的配置。
func (c *Config) ReadConfig(r io.Reader, configType string) error {
	c.v.SetConfigType(configType)
	return c.v.ReadConfig(r)
}

// SetDefault 为 key 设置缺省值。
func (c *Config) SetDefault(key string, value any) {
	c.v.SetDefault(key, value)
}

// Get 返回 key 对应的原始配置值。
func (c *Config) Get(key string) any {
	return c.v.Get(key)
}

// GetString 返回 key 对应的字符串配置，未设置时为空串。
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetBool 返回 key 对应的布尔配置。
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetInt 返回 key 对应的整数配置。
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// BindPFlag 将命令行参数绑定到 key，参数被显式设置时优先级高于环境变量与配置文件。
func (c *Config) BindPFlag(key string, flag *pflag.Flag) error {
	return c.v.BindPFlag(key, flag)
}

// IsSet 判断 key 是否在任意来源中被设置。
func (c *Config) IsSet(key string) bool {
	return c.v.IsSet(key)
}

// Unmarshal 将完整配置反序列化到 dst，dst 应为结构体或 map 的指针。
func (c *Config) Unmarshal(dst any) error {
	return c.v.Unmarshal(dst)
}

// UnmarshalKey 将指定 key 对应的子配置反序列化到 dst。
func (c *Config) UnmarshalKey(key string, dst any) error {
	return c.v.UnmarshalKey(key, dst)
}
