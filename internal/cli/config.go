package cli

import (
	"errors"
	"os"

	"github.com/bsi-games/bsi/internal/authclient"
	"github.com/bsi-games/bsi/internal/gateway"
	"github.com/bsi-games/bsi/internal/push"
)

// ErrMissingCredentials is returned when a command needs to sign in
// but no username or password was given
var ErrMissingCredentials = errors.New("username and password are required (--username/--password or BSI_USERNAME/BSI_PASSWORD)")

// Config holds CLI configuration.
// Credentials are never written to disk.
type Config struct {
	ServerURL     string
	WSServerURL   string
	AuthServerURL string
	Username      string
	Password      string
	Output        string
	Verbose       bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:     getEnvOrDefault("BSI_SERVER", gateway.DefaultConfig().BaseURL),
		WSServerURL:   getEnvOrDefault("BSI_WS_SERVER", push.DefaultConfig().URL),
		AuthServerURL: getEnvOrDefault("BSI_AUTH_SERVER", authclient.DefaultConfig().BaseURL),
		Username:      os.Getenv("BSI_USERNAME"),
		Password:      os.Getenv("BSI_PASSWORD"),
		Output:        "text",
		Verbose:       false,
	}
}

// requireCredentials checks that the player can sign in
func (c *Config) requireCredentials() error {
	if c.Username == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
