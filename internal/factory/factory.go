package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/charsheets/internal/config"
	"github.com/mcoot/charsheets/internal/dependencies/clock"
	"github.com/mcoot/charsheets/internal/services/auth"
	"github.com/mcoot/charsheets/internal/services/sheet"
	"github.com/mcoot/charsheets/internal/storage"
	"github.com/mcoot/charsheets/internal/storage/memory"
	"github.com/mcoot/charsheets/internal/storage/portrait"
	redisstorage "github.com/mcoot/charsheets/internal/storage/redis"
	"github.com/mcoot/charsheets/internal/storage/sqlstore"
)

// Storage type constants
const (
	StorageTypeMemory   = config.StorageMemory
	StorageTypeSQLite   = config.StorageSQLite
	StorageTypePostgres = config.StoragePostgres
	StorageTypeMySQL    = config.StorageMySQL
	StorageTypeRedis    = config.StorageRedis
)

// UploadURLPrefix is where disk portraits are served by the web router
const UploadURLPrefix = "/uploads/"

// App contains all wired application components
type App struct {
	// Storage
	Storage   storage.Storage
	Portraits portrait.Store

	// External dependencies
	Clock clock.Clock

	// Services
	AuthService  *auth.Service
	SheetService *sheet.Service
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend
	// If empty, defaults to "memory"
	StorageType string
	// DatabaseDSN is required for the sqlite, postgres and mysql backends
	DatabaseDSN string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Portraits stores uploaded portrait files (required)
	Portraits portrait.Store
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	if cfg.Portraits == nil {
		return nil, errors.New("Portraits required")
	}

	store, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 && authCfg.BcryptCost == 0 && len(authCfg.Secret) == 0 {
		authCfg = auth.DefaultConfig()
	}

	logger.Info("application wired",
		slog.String("storage", storageTypeOrDefault(cfg.StorageType)),
	)

	return newWithDependencies(store, cfg.Portraits, clock.New(), authCfg), nil
}

// OpenStorage connects the configured backend, applying SQL migrations where needed
func OpenStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	switch storageType := storageTypeOrDefault(cfg.StorageType); storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeSQLite, StorageTypePostgres, StorageTypeMySQL:
		dialect, err := sqlstore.ParseDialect(storageType)
		if err != nil {
			return nil, err
		}
		store, err := sqlstore.Open(ctx, dialect, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be memory, sqlite, postgres, mysql or redis", storageType)
	}
}

// NewPortraitStore builds the upload backend selected by c
func NewPortraitStore(ctx context.Context, c *config.Config) (portrait.Store, error) {
	switch c.UploadBackend {
	case config.UploadS3:
		return portrait.NewS3Store(ctx, portrait.S3Config{
			Bucket:    c.S3.Bucket,
			Region:    c.S3.Region,
			Endpoint:  c.S3.Endpoint,
			AccessKey: c.S3.AccessKey,
			SecretKey: c.S3.SecretKey,
			PublicURL: c.S3.PublicURL,
		})
	case config.UploadDisk, "":
		return portrait.NewDiskStore(c.UploadDir, UploadURLPrefix)
	default:
		return nil, fmt.Errorf("invalid upload backend %q", c.UploadBackend)
	}
}

// FromConfig translates environment settings into a factory Config
func FromConfig(c *config.Config, portraits portrait.Store, logger *slog.Logger) Config {
	cfg := Config{
		AuthConfig: auth.Config{
			Secret:          []byte(c.SessionSecret),
			SessionDuration: c.SessionTTL,
			BcryptCost:      c.BcryptCost,
		},
		Logger:      logger,
		StorageType: c.StorageType,
		DatabaseDSN: c.DatabaseDSN,
		Portraits:   portraits,
	}
	if c.StorageType == StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		cfg.RedisConfig = &redisCfg
	}
	return cfg
}

func storageTypeOrDefault(storageType string) string {
	if storageType == "" {
		return StorageTypeMemory
	}
	return storageType
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, portraits portrait.Store, clk clock.Clock, authCfg auth.Config) *App {
	// Create services
	authService := auth.New(store, clk, authCfg)
	sheetService := sheet.New(store, portraits, clk)

	return &App{
		Storage:      store,
		Portraits:    portraits,
		Clock:        clk,
		AuthService:  authService,
		SheetService: sheetService,
	}
}
