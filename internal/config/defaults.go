// File: internal/config/defaults.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "STAYWRIGHT"

// Runner defaults: go test over the e2e package, built with the e2e tag.
const (
	DefaultRunnerExecutable = "go"
	DefaultRunnerPackage    = "./e2e"
)

// DefaultRunnerArgs must not be modified.
var DefaultRunnerArgs = []string{"test", "-count=1", "-v", "-tags=e2e"}

// SetDefaults registers the model defaults on v.
func SetDefaults(v *viper.Viper) {
	// -- Run --
	v.SetDefault("headed", false)
	v.SetDefault("log_level", string(LogInfo))
	v.SetDefault("browsers", []string{string(Chromium)})
	v.SetDefault("tracing", string(RecordingRetainOnFailure))
	v.SetDefault("video", string(RecordingRetainOnFailure))
	v.SetDefault("screenshot", string(ScreenshotOnlyOnFailure))
	v.SetDefault("viewport.width", 1600)
	v.SetDefault("viewport.height", 900)
	v.SetDefault("navigation_timeout", DefaultNavigationTimeout)
	v.SetDefault("default_timeout", DefaultActionTimeout)
	v.SetDefault("workers", MinWorkers)
	v.SetDefault("root_folder", ".")
	v.SetDefault("reports_folder", "reports/test-report")

	// -- Tests --
	v.SetDefault("tests.run_by", "name")

	// -- Runner --
	v.SetDefault("runner.executable", DefaultRunnerExecutable)
	v.SetDefault("runner.args", append([]string(nil), DefaultRunnerArgs...))
	v.SetDefault("runner.package", DefaultRunnerPackage)

	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "staywright")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")
}

// SetTemplate registers the values of the starter configuration file. They
// differ from the model defaults where the starter file is tuned for a slow
// staging site.
func SetTemplate(v *viper.Viper) {
	SetDefaults(v)
	v.Set("base_url", "https://localhost")
	v.Set("username", "admin")
	v.Set("log_level", string(LogDebug))
	v.Set("navigation_timeout", 60000)
	v.Set("default_timeout", 10000)
	v.Set("ignore_https_errors", true)
	v.Set("use_storage_state", true)
	v.Set("clipboard_permissions", true)
	v.Set("tests.targets", []string{"TestGetHighestRatingPage"})
}

// Configure wires file lookup and the environment into v. An explicit path
// wins; otherwise ./staywright.yaml is used when present.
func Configure(v *viper.Viper, path string) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("staywright")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration at path (or the default location) on top of
// the model defaults and validates it.
func Load(path string) (*RunConfiguration, error) {
	return LoadWith(path, nil)
}

// LoadWith is Load with overrides applied over the file and the environment.
func LoadWith(path string, overrides map[string]any) (*RunConfiguration, error) {
	v := viper.New()
	SetDefaults(v)
	Configure(v, path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	for k, val := range overrides {
		v.Set(k, val)
	}
	return NewFromViper(v)
}

// FileName is the configuration file looked up by Locate.
const FileName = "staywright.yaml"

// Locate walks from dir up to the filesystem root and returns the first
// staywright.yaml found.
func Locate(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// WriteTemplate writes the starter configuration file to path. It refuses to
// overwrite an existing file.
func WriteTemplate(path string) error {
	v := viper.New()
	SetTemplate(v)
	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write configuration template: %w", err)
	}
	return nil
}
