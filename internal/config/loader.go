package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"llamalink/internal/common/fsutil"
	"llamalink/internal/resolver"
)

// Config holds resolver and service parameters.
// Zero values mean "unspecified" and are replaced by defaults.
type Config struct {
	// PluginDir is the plugin directory holding Libraries/<Platform>.
	PluginDir string `json:"plugin_dir" yaml:"plugin_dir" toml:"plugin_dir"`
	// PluginLibDir holds the ThirdParty builds; defaults to <plugin_dir>/ThirdParty/LlamaCpp.
	PluginLibDir string `json:"plugin_lib_dir" yaml:"plugin_lib_dir" toml:"plugin_lib_dir"`

	// Bool toggles are pointers so an explicit false can override a true.
	TryCUDA             *bool  `json:"try_cuda" yaml:"try_cuda" toml:"try_cuda"`
	DelayLoad           *bool  `json:"delay_load" yaml:"delay_load" toml:"delay_load"`
	LinkAcceleratorLibs *bool  `json:"link_accelerator_libs" yaml:"link_accelerator_libs" toml:"link_accelerator_libs"`
	LlamaPathEnv        string `json:"llama_path_env" yaml:"llama_path_env" toml:"llama_path_env"`
	CUDAPathEnv         string `json:"cuda_path_env" yaml:"cuda_path_env" toml:"cuda_path_env"`
	BinaryOutputDir     string `json:"binary_output_dir" yaml:"binary_output_dir" toml:"binary_output_dir"`

	LogLevel    string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	Addr        string   `json:"addr" yaml:"addr" toml:"addr"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ResolverOptions maps the config onto resolver options. TryCUDA defaults to true.
func (c Config) ResolverOptions() resolver.Options {
	o := resolver.DefaultOptions()
	if c.TryCUDA != nil {
		o.TryCUDA = *c.TryCUDA
	}
	if c.DelayLoad != nil {
		o.DelayLoad = *c.DelayLoad
	}
	if c.LinkAcceleratorLibs != nil {
		o.LinkAcceleratorLibs = *c.LinkAcceleratorLibs
	}
	if c.LlamaPathEnv != "" {
		o.LlamaPathEnv = c.LlamaPathEnv
	}
	if c.CUDAPathEnv != "" {
		o.CUDAPathEnv = c.CUDAPathEnv
	}
	if c.BinaryOutputDir != "" {
		o.BinaryOutputDir = c.BinaryOutputDir
	}
	return o
}

// Roots returns the absolute plugin library root and plugin directory.
func (c Config) Roots() (libRoot, dirRoot string, err error) {
	if c.PluginDir == "" {
		return "", "", fmt.Errorf("plugin_dir is required")
	}
	dir, err := fsutil.ExpandHome(c.PluginDir)
	if err != nil {
		return "", "", err
	}
	if dirRoot, err = filepath.Abs(dir); err != nil {
		return "", "", fmt.Errorf("abs path: %w", err)
	}
	if c.PluginLibDir == "" {
		return filepath.Join(dirRoot, "ThirdParty", "LlamaCpp"), dirRoot, nil
	}
	lib, err := fsutil.ExpandHome(c.PluginLibDir)
	if err != nil {
		return "", "", err
	}
	if libRoot, err = filepath.Abs(lib); err != nil {
		return "", "", fmt.Errorf("abs path: %w", err)
	}
	return libRoot, dirRoot, nil
}

// Merge returns c with every set field of over applied on top.
func (c Config) Merge(over Config) Config {
	if over.PluginDir != "" {
		c.PluginDir = over.PluginDir
	}
	if over.PluginLibDir != "" {
		c.PluginLibDir = over.PluginLibDir
	}
	c.TryCUDA = mergeBool(c.TryCUDA, over.TryCUDA)
	c.DelayLoad = mergeBool(c.DelayLoad, over.DelayLoad)
	c.LinkAcceleratorLibs = mergeBool(c.LinkAcceleratorLibs, over.LinkAcceleratorLibs)
	if over.LlamaPathEnv != "" {
		c.LlamaPathEnv = over.LlamaPathEnv
	}
	if over.CUDAPathEnv != "" {
		c.CUDAPathEnv = over.CUDAPathEnv
	}
	if over.BinaryOutputDir != "" {
		c.BinaryOutputDir = over.BinaryOutputDir
	}
	if over.LogLevel != "" {
		c.LogLevel = over.LogLevel
	}
	if over.Addr != "" {
		c.Addr = over.Addr
	}
	if len(over.CORSOrigins) > 0 {
		c.CORSOrigins = append([]string(nil), over.CORSOrigins...)
	}
	return c
}

func mergeBool(base, over *bool) *bool {
	if over == nil {
		return base
	}
	v := *over
	return &v
}
