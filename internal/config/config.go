// Package config layers flags, ASCIIMATION_* environment variables, an
// optional config file and defaults into the run options.
package config

import (
	"errors"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"asciimation/internal/ascii"
	"asciimation/internal/dirs"
	"asciimation/internal/model"
)

// EnvPrefix is prepended to every environment key, e.g. ASCIIMATION_WIDTH.
const EnvPrefix = "ASCIIMATION"

// Keys shared by flags, env and the config file.
const (
	KeyWidth       = "width"
	KeyCorrection  = "correction"
	KeyRamp        = "ramp"
	KeyWorkers     = "workers"
	KeyMaxPending  = "max-pending"
	KeyResizeEvery = "resize-every"
	KeyGrace       = "grace"
	KeyDLBinary    = "dl-binary"
	KeyNoAudio     = "no-audio"
	KeyNoUI        = "no-ui"
	KeyKeepTemp    = "keep-temp"
	KeyVerbose     = "verbose"
	KeyLogLevel    = "log-level"
	KeyLogFile     = "log-file"
)

// Defaults used when nothing else sets a key.
const (
	DefaultResizeEvery = 10
	DefaultGrace       = time.Second
	DefaultLogLevel    = "warn"
)

// Load builds a Viper instance bound to flags. The config file
// (config.{yaml,json,toml}) is searched in paths, or in the user config
// directory when paths is empty. A missing file is not an error.
func Load(flags *pflag.FlagSet, paths ...string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if len(paths) == 0 {
		if cfgDir, err := dirs.ConfigDir(); err == nil {
			paths = append(paths, cfgDir)
		}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyWidth, ascii.DefaultWidth)
	v.SetDefault(KeyCorrection, ascii.DefaultCorrection)
	v.SetDefault(KeyRamp, ascii.DefaultRamp)
	v.SetDefault(KeyWorkers, runtime.NumCPU())
	v.SetDefault(KeyMaxPending, 0)
	v.SetDefault(KeyResizeEvery, DefaultResizeEvery)
	v.SetDefault(KeyGrace, DefaultGrace)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
}

// Options reads the resolved values from v.
func Options(v *viper.Viper) model.CLIOptions {
	return model.CLIOptions{
		Width:       v.GetInt(KeyWidth),
		Correction:  v.GetFloat64(KeyCorrection),
		Ramp:        v.GetString(KeyRamp),
		Workers:     v.GetInt(KeyWorkers),
		MaxPending:  v.GetInt(KeyMaxPending),
		ResizeEvery: v.GetInt(KeyResizeEvery),
		Grace:       v.GetDuration(KeyGrace),
		DLBinary:    v.GetString(KeyDLBinary),
		KeepTemp:    v.GetBool(KeyKeepTemp),
		NoAudio:     v.GetBool(KeyNoAudio),
		NoUI:        v.GetBool(KeyNoUI),
		Verbose:     v.GetBool(KeyVerbose),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFile:     v.GetString(KeyLogFile),
	}
}
