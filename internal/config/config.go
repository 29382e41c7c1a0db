// Package config loads isoforge's configuration from a YAML file, the
// environment, and CLI flags (via viper), in that order of increasing
// precedence.
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

const (
	AppName   = "isoforge"
	EnvPrefix = "ISOFORGE"
)

// Config holds every setting a build may be configured with.
type Config struct {
	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	Volume struct {
		Identifier       string `mapstructure:"identifier"`
		SystemIdentifier string `mapstructure:"system_identifier"`
		Publisher        string `mapstructure:"publisher"`
		DataPreparer     string `mapstructure:"data_preparer"`
		Application      string `mapstructure:"application"`
	} `mapstructure:"volume"`

	// Level is the ECMA-119 compatibility level: 1, 2, or 3.
	Level int `mapstructure:"level"`

	Flags struct {
		LimitDirectories     bool `mapstructure:"limit_directories"`
		TruncateFileNames    bool `mapstructure:"truncate_file_names"`
		UpperCaseFileNames   bool `mapstructure:"upper_case_file_names"`
		ResolveNameConflicts bool `mapstructure:"resolve_name_conflicts"`
		StripIllegalDots     bool `mapstructure:"strip_illegal_dots"`
	} `mapstructure:"flags"`

	Boot struct {
		Enabled   bool   `mapstructure:"enabled"`
		ImagePath string `mapstructure:"image_path"`
		// Platform is one of "x86", "powerpc", "mac".
		Platform string `mapstructure:"platform"`
		// MediaType is one of "noemulation", "floppy144", "floppy12", "floppy288", "harddisk".
		MediaType string `mapstructure:"media_type"`
	} `mapstructure:"boot"`
}

var (
	// Instance is the process-wide configuration, populated by Initialize.
	Instance Config

	ConfigFileUsed string

	v        *viper.Viper
	initOnce sync.Once
)

// Initialize loads configuration from cfgFile (if non-empty), or from the
// standard search locations otherwise, then layers environment variables
// prefixed ISOFORGE_ on top. A config file absent from the standard search
// locations is not an error, so a caller that only ever sets flags and env
// vars is fully supported; an explicit cfgFile that cannot be read is.
func Initialize(cfgFile string) error {
	var err error
	initOnce.Do(func() {
		v = viper.New()
		setDefaults(v)

		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
		} else {
			v.SetConfigName(AppName)
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
			v.AddConfigPath("$HOME/." + AppName)
			v.AddConfigPath("/etc/" + AppName)
		}

		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()

		if readErr := v.ReadInConfig(); readErr != nil {
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("reading config file: %w", readErr)
				return
			}
		} else {
			ConfigFileUsed = v.ConfigFileUsed()
		}

		if unmarshalErr := v.Unmarshal(&Instance); unmarshalErr != nil {
			err = fmt.Errorf("parsing config: %w", unmarshalErr)
		}
	})
	return err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "console")
	v.SetDefault("log_file", "")

	v.SetDefault("volume.identifier", "ISOFORGE")
	v.SetDefault("volume.system_identifier", "")
	v.SetDefault("volume.publisher", "")
	v.SetDefault("volume.data_preparer", "")
	v.SetDefault("volume.application", "")

	v.SetDefault("level", 3)
	v.SetDefault("flags.limit_directories", true)
	v.SetDefault("flags.truncate_file_names", true)
	v.SetDefault("flags.upper_case_file_names", true)
	v.SetDefault("flags.resolve_name_conflicts", true)
	v.SetDefault("flags.strip_illegal_dots", true)

	v.SetDefault("boot.enabled", false)
	v.SetDefault("boot.platform", "x86")
	v.SetDefault("boot.media_type", "noemulation")
}
