package clinic

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ConfigFile is the dotfile name searched by LoadConfig.
const ConfigFile = ".vet-config"

// Config holds the CLI configuration
type Config struct {
	APIURL      string        // Public API base, e.g. http://clinic.example.com:8080/api
	LANURL      string        // Clinic network API base, tried first when set
	Brand       string        // Shown in the TUI status bar
	PageSize    int           // Rows per list page
	Timeout     time.Duration // HTTP client timeout
	DownloadDir string        // Where result PDFs are written
	LogLevel    string
	LogFile     string
	SessionFile string

	// Path of the file the values were read from, empty when only env was used.
	Path string
}

// DefaultConfig returns a Config with every optional value filled.
func DefaultConfig() *Config {
	return &Config{
		Brand:       "Veterinaria CLI",
		PageSize:    10,
		Timeout:     30 * time.Second,
		DownloadDir: ".",
		LogLevel:    "info",
		LogFile:     "vet-cli.log",
		SessionFile: ".vet-session",
	}
}

// ConfigPaths lists the locations searched for the config file, in order.
func ConfigPaths() []string {
	exe := filepath.Dir(os.Args[0])
	return []string{
		ConfigFile,
		filepath.Join("..", ConfigFile),
		filepath.Join(exe, ConfigFile),
		filepath.Join(exe, "..", ConfigFile),
	}
}

// FindConfig returns the first existing config path, or "".
func FindConfig() string {
	for _, p := range ConfigPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadConfig reads the .vet-config file and applies VET_* environment
// overrides on top of it.
func LoadConfig() (*Config, error) {
	values := map[string]string{}

	path := FindConfig()
	if path != "" {
		read, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", path, err)
		}
		values = read
	}

	for _, key := range configKeys {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}

	config, err := ParseConfig(values)
	if err != nil {
		if path == "" {
			return nil, fmt.Errorf("config file not found. Run 'vet-cli setup' or create %s: %w", ConfigFile, err)
		}
		return nil, err
	}
	config.Path = path
	return config, nil
}

var configKeys = []string{
	"VET_API_URL", "VET_LAN_URL", "VET_BRAND", "VET_PAGE_SIZE", "VET_TIMEOUT",
	"VET_DOWNLOAD_DIR", "VET_LOG_LEVEL", "VET_LOG_FILE", "VET_SESSION_FILE",
}

// ParseConfig builds a Config from KEY=VALUE pairs.
func ParseConfig(values map[string]string) (*Config, error) {
	config := DefaultConfig()

	for key, raw := range values {
		value := strings.TrimSpace(raw)
		switch key {
		case "VET_API_URL":
			config.APIURL = strings.TrimSuffix(value, "/")
		case "VET_LAN_URL":
			config.LANURL = strings.TrimSuffix(value, "/")
		case "VET_BRAND":
			if value != "" {
				config.Brand = value
			}
		case "VET_PAGE_SIZE":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid VET_PAGE_SIZE %q", value)
			}
			config.PageSize = n
		case "VET_TIMEOUT":
			d, err := time.ParseDuration(value)
			if err != nil || d <= 0 {
				return nil, fmt.Errorf("invalid VET_TIMEOUT %q", value)
			}
			config.Timeout = d
		case "VET_DOWNLOAD_DIR":
			if value != "" {
				config.DownloadDir = value
			}
		case "VET_LOG_LEVEL":
			if value != "" {
				config.LogLevel = strings.ToLower(value)
			}
		case "VET_LOG_FILE":
			config.LogFile = value
		case "VET_SESSION_FILE":
			if value != "" {
				config.SessionFile = value
			}
		}
	}

	if config.APIURL == "" {
		return nil, fmt.Errorf("missing required config: VET_API_URL")
	}

	return config, nil
}

// Values is the inverse of ParseConfig, used when writing the config file.
func (c *Config) Values() map[string]string {
	values := map[string]string{
		"VET_API_URL":      c.APIURL,
		"VET_BRAND":        c.Brand,
		"VET_PAGE_SIZE":    strconv.Itoa(c.PageSize),
		"VET_TIMEOUT":      c.Timeout.String(),
		"VET_DOWNLOAD_DIR": c.DownloadDir,
		"VET_LOG_LEVEL":    c.LogLevel,
		"VET_LOG_FILE":     c.LogFile,
		"VET_SESSION_FILE": c.SessionFile,
	}
	if c.LANURL != "" {
		values["VET_LAN_URL"] = c.LANURL
	}
	return values
}

// SaveConfig writes the config as a dotenv file readable only by the owner.
func SaveConfig(c *Config, path string) error {
	content, err := godotenv.Marshal(c.Values())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	header := "# Veterinaria CLI configuration\n# Generated by setup wizard\n\n"
	if err := os.WriteFile(path, []byte(header+content+"\n"), 0600); err != nil {
		return fmt.Errorf("cannot write config: %w", err)
	}
	return nil
}
