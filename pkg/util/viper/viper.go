// Package viper 在 spf13/viper 之上提供精简的配置加载入口，
// 支持文件、默认值与环境变量三层来源。
package viper

import (
	"path/filepath"
	"strings"

	spfviper "github.com/spf13/viper"

	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
)

// Config 封装一个独立的 viper 实例。
// 各组件各持一份，互不污染全局状态。
type Config struct {
	v *spfviper.Viper
}

// Option 调整 Config 的初始行为。
type Option func(*Config)

// WithEnvPrefix 启用环境变量覆盖，
// 键名中的 "." 与 "-" 映射为 "_"，如 log.level -> PREFIX_LOG_LEVEL。
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.v.SetEnvPrefix(prefix)
		c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		c.v.AutomaticEnv()
	}
}

// WithDefault 预置一个默认值，文件与环境变量都缺省时生效。
func WithDefault(key string, value any) Option {
	return func(c *Config) {
		c.v.SetDefault(key, value)
	}
}

// New 创建一个空的 Config。
func New(opts ...Option) *Config {
	c := &Config{v: spfviper.New()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetDefault 预置一个默认值。
func (c *Config) SetDefault(key string, value any) {
	c.v.SetDefault(key, value)
}

// LoadFile 加载 YAML 或 JSON 配置文件，
// 类型按扩展名（.yaml/.yml/.json）推断。
func (c *Config) LoadFile(path string) error {
	c.v.SetConfigFile(path)

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		c.v.SetConfigType("yaml")
	case ".json":
		c.v.SetConfigType("json")
	}

	if err := c.v.ReadInConfig(); err != nil {
		return merr.WrapErrIoFailed(path, err)
	}
	return nil
}

// GetString 读取字符串配置项。
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetBool 读取布尔配置项。
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// Unmarshal 将完整配置反序列化到 dst，dst 应为结构体或 map 的指针。
func (c *Config) Unmarshal(dst any) error {
	if err := c.v.Unmarshal(dst); err != nil {
		return merr.WrapErrParameterInvalid("unmarshalable config", dst, "%v", err)
	}
	return nil
}

// UnmarshalKey 将指定 key 的子配置反序列化到 dst。
func (c *Config) UnmarshalKey(key string, dst any) error {
	if err := c.v.UnmarshalKey(key, dst); err != nil {
		return merr.WrapErrParameterInvalid("unmarshalable config key", key, "%v", err)
	}
	return nil
}
