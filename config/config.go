// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/internal/constants"
	"gopkg.in/yaml.v3"
)

var (
	instance   *Config
	once       sync.Once
	configPath string // Tracks where the config was loaded from
)

type Config struct {
	Server struct {
		Port      int    `mapstructure:"port" yaml:"port"`
		Daemonize bool   `mapstructure:"daemonize" yaml:"daemonize"`
		PIDFile   string `mapstructure:"pidFile" yaml:"pidFile"`
		LogFile   string `mapstructure:"logFile" yaml:"logFile"`
	} `mapstructure:"server" yaml:"server"`

	ZFS struct {
		BinZFS    string        `mapstructure:"binZFS" yaml:"binZFS"`
		BinZpool  string        `mapstructure:"binZpool" yaml:"binZpool"`
		UseSudo   bool          `mapstructure:"useSudo" yaml:"useSudo"`
		Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
		DeviceDir string        `mapstructure:"deviceDir" yaml:"deviceDir"`
	} `mapstructure:"zfs" yaml:"zfs"`

	Schedule struct {
		StateFile string        `mapstructure:"stateFile" yaml:"stateFile"`
		Interval  time.Duration `mapstructure:"interval" yaml:"interval"`
		DryRun    bool          `mapstructure:"dryRun" yaml:"dryRun"`
	} `mapstructure:"schedule" yaml:"schedule"`

	Remote struct {
		BaseURL string        `mapstructure:"baseURL" yaml:"baseURL"`
		Token   string        `mapstructure:"token" yaml:"token"`
		Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	} `mapstructure:"remote" yaml:"remote"`

	Logger struct {
		LogLevel     string `mapstructure:"logLevel" yaml:"logLevel"`
		EnableSentry bool   `mapstructure:"enableSentry" yaml:"enableSentry"`
		SentryDSN    string `mapstructure:"sentryDSN" yaml:"sentryDSN"`
	} `mapstructure:"logger" yaml:"logger"`

	Environment string `mapstructure:"environment" yaml:"environment"`
}

func setDefaults() {
	viper.SetDefault("environment", "dev")
	viper.SetDefault("server.port", 8044)
	viper.SetDefault("server.daemonize", false)
	viper.SetDefault("server.pidFile", filepath.Join(GetConfigDir(), constants.PIDFileName))
	viper.SetDefault("server.logFile", filepath.Join(GetConfigDir(), constants.LogFileName))

	viper.SetDefault("zfs.binZFS", "/usr/sbin/zfs")
	viper.SetDefault("zfs.binZpool", "/usr/sbin/zpool")
	viper.SetDefault("zfs.useSudo", true)
	viper.SetDefault("zfs.timeout", 30*time.Second)
	viper.SetDefault("zfs.deviceDir", "/dev")

	viper.SetDefault("schedule.stateFile", filepath.Join(GetConfigDir(), constants.StateFileName))
	viper.SetDefault("schedule.interval", 15*time.Minute)
	viper.SetDefault("schedule.dryRun", false)

	viper.SetDefault("remote.baseURL", "http://localhost:8044")
	viper.SetDefault("remote.token", "")
	viper.SetDefault("remote.timeout", 2*time.Minute)

	viper.SetDefault("logger.logLevel", "info")
	viper.SetDefault("logger.enableSentry", false)
	viper.SetDefault("logger.sentryDSN", "")
}

// LoadConfig loads the configuration with precedence rules: explicit path,
// ZSTATE_CONFIG, then the default location under GetConfigDir.
func LoadConfig(configFilePath string) *Config {
	once.Do(func() {
		l, err := logger.NewTag(logger.Config{LogLevel: "info"}, "config")
		if err != nil {
			fmt.Printf("Failed to create logger: %v\n", err)
			os.Exit(1)
		}

		viper.Reset()
		viper.SetConfigType("yaml")

		systemConfigPath := filepath.Join(GetConfigDir(), constants.ConfigFileName)

		if configFilePath != "" {
			configPath = configFilePath
		} else if envPath := os.Getenv(constants.ConfigEnv); envPath != "" {
			configPath = envPath
		} else {
			configPath = systemConfigPath
		}

		if absPath, err := filepath.Abs(configPath); err == nil {
			configPath = absPath
		}
		l.Debug("Using config file", "path", configPath)

		viper.SetConfigFile(configPath)
		setDefaults()

		viper.AutomaticEnv()
		viper.SetEnvPrefix(constants.EnvPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		err = viper.ReadInConfig()
		var cfg Config
		if uerr := viper.Unmarshal(&cfg); uerr != nil {
			l.Error("Failed to parse configuration", "err", uerr)
		}
		instance = &cfg

		switch {
		case err == nil:
			configPath = viper.ConfigFileUsed()
			l.Debug("Config file loaded", "path", configPath)
		case isNotFound(err):
			// Only written on request through SaveConfig.
			l.Debug("Config file not found, using defaults", "path", configPath)
		default:
			l.Error("Error reading config file", "err", err)
		}

		debugCfg := *instance
		if debugCfg.Remote.Token != "" {
			debugCfg.Remote.Token = "[REDACTED]"
		}
		l.Debug("Loaded configuration", "config", fmt.Sprintf("%+v", debugCfg))
	})

	return instance
}

func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}

// SaveConfig persists the current configuration to path, or to the
// default location when path is empty.
func SaveConfig(path string) error {
	if instance == nil {
		return fmt.Errorf("configuration not loaded")
	}
	if path == "" {
		path = filepath.Join(GetConfigDir(), constants.ConfigFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configYAML, err := yaml.Marshal(instance)
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}

	if err := os.WriteFile(path, configYAML, 0600); err != nil {
		return fmt.Errorf("failed to write configuration to file: %w", err)
	}

	configPath = path
	return nil
}

// GetLoadedConfigPath returns the path of the currently loaded configuration file.
func GetLoadedConfigPath() string {
	return configPath
}

// GetConfig returns the current configuration instance.
func GetConfig() *Config {
	if instance == nil {
		return LoadConfig("")
	}
	return instance
}

func NewLoggerConfig(cfg *Config) logger.Config {
	if cfg == nil {
		return logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
	}

	return logger.Config{
		LogLevel:     cfg.Logger.LogLevel,
		EnableSentry: cfg.Logger.EnableSentry,
		SentryDSN:    cfg.Logger.SentryDSN,
	}
}
