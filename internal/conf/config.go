// config.go: settings struct and functions to load and save the
// MicroScan-Go configuration.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// WebServerSettings contains settings for the HTTP API server.
type WebServerSettings struct {
	Debug   bool   // true to enable debug logging of requests
	Host    string // interface to listen on
	Port    string // port to listen on
	LogPath string // path to API request log file, empty to disable
}

// UploadSettings controls where uploaded and processed images are stored
// and which files are accepted.
type UploadSettings struct {
	Path              string   // directory for uploaded and processed images
	MaxSizeMB         int64    // maximum accepted upload size in megabytes
	AllowedExtensions []string // lower-case extensions accepted for upload, without dot
}

// SQLiteSettings contains SQLite database settings.
type SQLiteSettings struct {
	Enabled bool
	Path    string // path to the database file
}

// MySQLSettings contains MySQL database settings.
type MySQLSettings struct {
	Enabled  bool
	Username string
	Password string
	Database string
	Host     string
	Port     string
}

// OutputSettings selects the persistence backend.
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// EmailSettings contains SMTP delivery settings for results emails.
type EmailSettings struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     int
	Username     string
	Password     string
	From         string
	UseTLS       bool
	Timeout      time.Duration // per-send timeout
	DashboardURL string        // base URL used for the results link in emails
}

// StatisticsSettings controls aggregate statistics behavior.
type StatisticsSettings struct {
	CacheTTL time.Duration // how long statistics responses are cached
}

// LogSettings contains file logging settings.
type LogSettings struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// Settings is the root configuration for the application.
type Settings struct {
	Debug bool // true to enable debug level logging

	Main struct {
		Name string      // instance name shown in health responses
		Log  LogSettings // application log file
	}

	WebServer  WebServerSettings
	Upload     UploadSettings
	Output     OutputSettings
	Email      EmailSettings
	Statistics StatisticsSettings
}

// Load reads the configuration file and environment into a Settings
// struct, creating a default config file on first run.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// initViper configures viper with defaults, config paths and env
// overrides, writing the embedded default config if none exists.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths := configSearchPaths()
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("MICROSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		return createDefaultConfig(configPaths[0])
	}

	return nil
}

// configSearchPaths returns the directories searched for config.yaml,
// most specific first.
func configSearchPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "microscan"))
	}
	return paths
}

// createDefaultConfig writes the embedded default config file and loads it.
func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	defaultConfig, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded default config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, defaultConfig, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	return viper.ReadInConfig()
}

// SaveAs writes the current settings to the given path as YAML.
func (s *Settings) SaveAs(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("error marshaling settings: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// AllowedExtension reports whether the filename carries an extension on
// the upload allow-list. Matching is case-insensitive.
func (s *Settings) AllowedExtension(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range s.Upload.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// DSN returns the MySQL connection string.
func (m *MySQLSettings) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		m.Username, m.Password, m.Host, m.Port, m.Database)
}
