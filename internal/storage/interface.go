package storage

import (
	"context"

	"github.com/mcoot/charsheets/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Identity operations
	SaveIdentity(ctx context.Context, identity *model.Identity) (model.IdentityID, error)
	GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error)
	ListIdentities(ctx context.Context) ([]*model.Identity, error)
	// GetMasterIdentity returns the single master-flagged identity.
	// It fails with model.ErrMasterNotConfigured or model.ErrMultipleMasters
	// rather than picking one of several.
	GetMasterIdentity(ctx context.Context) (*model.Identity, error)

	// Character operations
	CreateCharacter(ctx context.Context, character *model.Character) (model.CharacterID, error)
	GetCharacter(ctx context.Context, id model.CharacterID) (*model.Character, error)
	ListCharacters(ctx context.Context) ([]*model.Character, error)
	ListCharactersByOwner(ctx context.Context, owner model.IdentityID) ([]*model.Character, error)
	// DeleteCharacter reports whether a character was removed; a missing id is not an error
	DeleteCharacter(ctx context.Context, id model.CharacterID) (bool, error)

	Close() error
}
