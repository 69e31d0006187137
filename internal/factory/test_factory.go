package factory

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/charsheets/internal/dependencies/clock"
	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/services/auth"
	"github.com/mcoot/charsheets/internal/storage/memory"
	"github.com/mcoot/charsheets/internal/storage/portrait"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Test control
	ManualClock *clock.Manual
	Uploads     *portrait.DiskStore
}

// NewTestApp creates an App configured for testing with a manual clock,
// in-memory storage and portraits written to uploadDir
func NewTestApp(uploadDir string) (*TestApp, error) {
	uploads, err := portrait.NewDiskStore(uploadDir, UploadURLPrefix)
	if err != nil {
		return nil, err
	}

	store := memory.New()
	manualClock := clock.NewManual(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app := newWithDependencies(store, uploads, manualClock, auth.Config{
		Secret:          []byte("test-secret"),
		SessionDuration: 24 * time.Hour,
		BcryptCost:      bcrypt.MinCost,
	})

	return &TestApp{
		App:         app,
		ManualClock: manualClock,
		Uploads:     uploads,
	}, nil
}

// AddPlayer registers a player identity without a password
func (t *TestApp) AddPlayer(ctx context.Context, username string) (*model.Identity, error) {
	return t.AuthService.CreateIdentity(ctx, username, "", false)
}

// AddMaster registers the master identity
func (t *TestApp) AddMaster(ctx context.Context, username, password string) (*model.Identity, error) {
	return t.AuthService.CreateIdentity(ctx, username, password, true)
}
