// Package config loads the optional YAML run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/Balrog57/xml2png/binding"
	"github.com/Balrog57/xml2png/layer"
	"github.com/Balrog57/xml2png/renderer"
)

// Config mirrors the command-line flags; flags set explicitly win over the file.
type Config struct {
	Catalog     string `yaml:"catalog"`
	Template    string `yaml:"template"`
	Output      string `yaml:"output"`
	Background  string `yaml:"background"`
	// Backgrounds 是背景素材目录，未指定模板时使用其中第一张图片作为背景。
	Backgrounds string `yaml:"backgrounds"`
	Name        string `yaml:"name"`
	Workers     int    `yaml:"workers"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Sheet       string `yaml:"sheet"`
	Debug       string `yaml:"debug"`

	Fonts  Fonts  `yaml:"fonts"`
	Server Server `yaml:"server"`
}

// Fonts configures font lookup.
type Fonts struct {
	// Dirs 额外的字体目录，为空时使用系统默认目录。
	Dirs []string `yaml:"dirs"`
	// BundledOnly 只使用内置 Go 字体，输出与机器无关。
	BundledOnly bool `yaml:"bundledOnly"`
}

// Server configures the preview HTTP server.
type Server struct {
	// Enabled 为 true 时启动预览服务而不是批量生成。
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Output:      "output",
		Backgrounds: layer.DefaultBackgroundDir,
		Name:        binding.DefaultPattern,
		Workers:     runtime.NumCPU(),
		Server:      Server{Addr: ":8080"},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that flags cannot catch.
func (c Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers 不能为负数: %d", c.Workers))
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		errs = append(errs, errors.New("启用预览服务时需要 server.addr"))
	}
	if c.Width < 0 || c.Height < 0 {
		errs = append(errs, fmt.Errorf("输出尺寸不能为负数: %dx%d", c.Width, c.Height))
	}
	if c.Width > renderer.MaxDimension || c.Height > renderer.MaxDimension {
		errs = append(errs, fmt.Errorf("输出尺寸不能超过 %d: %dx%d", renderer.MaxDimension, c.Width, c.Height))
	}
	if (c.Width == 0) != (c.Height == 0) {
		errs = append(errs, fmt.Errorf("width 与 height 需要同时设置: %dx%d", c.Width, c.Height))
	}
	return errors.Join(errs...)
}
