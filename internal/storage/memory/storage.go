package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	identities    map[model.IdentityID]*model.Identity
	usernameIndex map[string]model.IdentityID
	characters    map[model.CharacterID]*model.Character

	nextIdentityID  model.IdentityID
	nextCharacterID model.CharacterID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		identities:    make(map[model.IdentityID]*model.Identity),
		usernameIndex: make(map[string]model.IdentityID),
		characters:    make(map[model.CharacterID]*model.Character),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for the in-memory store
func (s *Storage) Close() error {
	return nil
}

// Identity operations

func (s *Storage) SaveIdentity(ctx context.Context, identity *model.Identity) (model.IdentityID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernameIndex[identity.Username]; ok {
		return 0, model.ErrUsernameExists
	}

	s.nextIdentityID++
	stored := *identity
	stored.ID = s.nextIdentityID
	s.identities[stored.ID] = &stored
	s.usernameIndex[stored.Username] = stored.ID
	return stored.ID, nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[id]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	result := *identity
	return &result, nil
}

func (s *Storage) ListIdentities(ctx context.Context) ([]*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		copied := *identity
		result = append(result, &copied)
	}
	slices.SortFunc(result, func(a, b *model.Identity) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (s *Storage) GetMasterIdentity(ctx context.Context) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var master *model.Identity
	for _, identity := range s.identities {
		if !identity.IsMaster {
			continue
		}
		if master != nil {
			return nil, model.ErrMultipleMasters
		}
		master = identity
	}
	if master == nil {
		return nil, model.ErrMasterNotConfigured
	}
	result := *master
	return &result, nil
}

// Character operations

func (s *Storage) CreateCharacter(ctx context.Context, character *model.Character) (model.CharacterID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.identities[character.OwnerID]; !ok {
		return 0, model.ErrIdentityNotFound
	}

	s.nextCharacterID++
	stored := cloneCharacter(character)
	stored.ID = s.nextCharacterID
	s.characters[stored.ID] = stored
	return stored.ID, nil
}

func (s *Storage) GetCharacter(ctx context.Context, id model.CharacterID) (*model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	character, ok := s.characters[id]
	if !ok {
		return nil, model.ErrCharacterNotFound
	}
	return cloneCharacter(character), nil
}

func (s *Storage) ListCharacters(ctx context.Context) ([]*model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterCharacters(func(*model.Character) bool { return true }), nil
}

func (s *Storage) ListCharactersByOwner(ctx context.Context, owner model.IdentityID) ([]*model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterCharacters(func(c *model.Character) bool { return c.OwnerID == owner }), nil
}

func (s *Storage) DeleteCharacter(ctx context.Context, id model.CharacterID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.characters[id]; !ok {
		return false, nil
	}
	delete(s.characters, id)
	return true, nil
}

// filterCharacters must be called with the lock held
func (s *Storage) filterCharacters(keep func(*model.Character) bool) []*model.Character {
	result := make([]*model.Character, 0)
	for _, character := range s.characters {
		if keep(character) {
			result = append(result, cloneCharacter(character))
		}
	}
	slices.SortFunc(result, func(a, b *model.Character) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return result
}

func cloneCharacter(c *model.Character) *model.Character {
	copied := *c
	copied.Sheet.Items = slices.Clone(c.Sheet.Items)
	if c.Sheet.Skills != nil {
		copied.Sheet.Skills = make(model.Skills, len(c.Sheet.Skills))
		for k, v := range c.Sheet.Skills {
			copied.Sheet.Skills[k] = v
		}
	}
	return &copied
}
