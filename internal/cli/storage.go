package cli

import (
	"context"
	"fmt"

	"github.com/mcoot/charsheets/internal/config"
	"github.com/mcoot/charsheets/internal/dependencies/clock"
	"github.com/mcoot/charsheets/internal/factory"
	"github.com/mcoot/charsheets/internal/services/auth"
	"github.com/mcoot/charsheets/internal/storage"
)

// loadServerConfig reads the server environment, including the dotenv file
func loadServerConfig() (*config.Config, error) {
	c, err := config.Load(cfg.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return c, nil
}

// openStorage connects the storage backend the server is configured with
func openStorage(ctx context.Context, c *config.Config) (storage.Storage, error) {
	store, err := factory.OpenStorage(ctx, factory.FromConfig(c, nil, nil))
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", c.StorageType, err)
	}
	return store, nil
}

// newAuthService builds the auth service over store with the server's settings
func newAuthService(store storage.Storage, c *config.Config) *auth.Service {
	return auth.New(store, clock.New(), auth.Config{
		Secret:          []byte(c.SessionSecret),
		SessionDuration: c.SessionTTL,
		BcryptCost:      c.BcryptCost,
	})
}
