package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config holds sheetadm settings. Flags override the SHEETADM_ variables.
type Config struct {
	ServerURL string `env:"SERVER" envDefault:"http://localhost:8080"`
	Token     string `env:"TOKEN"`
	TokenFile string `env:"TOKEN_FILE"`
	EnvFile   string `env:"ENV_FILE" envDefault:".env"`
	Output    string `env:"OUTPUT" envDefault:"text"`
}

// DefaultConfig reads the SHEETADM_ environment. Unparseable values fall
// back to the defaults.
func DefaultConfig() *Config {
	var c Config
	if err := env.ParseWithOptions(&c, env.Options{Prefix: "SHEETADM_"}); err != nil {
		c = Config{ServerURL: "http://localhost:8080", EnvFile: ".env", Output: OutputText}
	}
	if c.TokenFile == "" {
		c.TokenFile = defaultTokenFile()
	}
	return &c
}

// Validate checks values that came from flags
func (c *Config) Validate() error {
	switch c.Output {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("unknown output format %q (want %s or %s)", c.Output, OutputText, OutputJSON)
	}
	if c.ServerURL == "" {
		return errors.New("server URL must not be empty")
	}
	return nil
}

// LoadToken reads the saved token unless one was given explicitly
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken stores token for later invocations, readable only by the user
func (c *Config) SaveToken(token string) error {
	c.Token = token

	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(c.TokenFile, []byte(token+"\n"), 0o600)
}

// ClearToken forgets the saved token
func (c *Config) ClearToken() error {
	c.Token = ""
	if err := os.Remove(c.TokenFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".sheetadm", "token")
	}
	return filepath.Join(home, ".sheetadm", "token")
}
