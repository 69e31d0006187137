package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/storage"
	"github.com/mcoot/charsheets/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	mini *miniredis.Miniredis
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.NewStorage = func() storage.Storage {
		s.mini = miniredis.RunT(s.T())
		client := redis.NewClient(&redis.Options{
			Addr: s.mini.Addr(),
		})
		return NewWithClient(client, DefaultConfig())
	}
	suite.Run(t, s)
}

func (s *StorageSuite) TestIdentityKeysLayout() {
	id, err := s.Store.SaveIdentity(s.Ctx, &model.Identity{Username: "gm", IsMaster: true})
	s.Require().NoError(err)

	s.True(s.mini.Exists(identityKey(id)))
	owner, err := s.mini.Get(usernameIndexKey("gm"))
	s.Require().NoError(err)
	s.Equal("1", owner)

	masters, err := s.mini.ZMembers(mastersIndexKey())
	s.Require().NoError(err)
	s.Equal([]string{"1"}, masters)
}

// failingPipelines makes every pipeline and transaction fail
type failingPipelines struct{}

func (failingPipelines) DialHook(next redis.DialHook) redis.DialHook { return next }

func (failingPipelines) ProcessHook(next redis.ProcessHook) redis.ProcessHook { return next }

func (failingPipelines) ProcessPipelineHook(redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		return errors.New("connection reset")
	}
}

func (s *StorageSuite) TestFailedSaveReleasesUsername() {
	broken := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	broken.AddHook(failingPipelines{})
	s.T().Cleanup(func() { _ = broken.Close() })

	_, err := NewWithClient(broken, DefaultConfig()).SaveIdentity(s.Ctx, &model.Identity{Username: "alice"})
	s.Require().Error(err)
	s.False(s.mini.Exists(usernameIndexKey("alice")))

	id, err := s.Store.SaveIdentity(s.Ctx, &model.Identity{Username: "alice"})
	s.Require().NoError(err)
	identity, err := s.Store.GetIdentity(s.Ctx, id)
	s.Require().NoError(err)
	s.Equal("alice", identity.Username)
}

func (s *StorageSuite) TestCharacterHasNoTTL() {
	owner, err := s.Store.SaveIdentity(s.Ctx, &model.Identity{Username: "alice"})
	s.Require().NoError(err)
	id, err := s.Store.CreateCharacter(s.Ctx, &model.Character{Name: "Rook", OwnerID: owner})
	s.Require().NoError(err)

	s.Zero(s.mini.TTL(characterKey(id)))
}

func (s *StorageSuite) TestDeleteRemovesFromIndexes() {
	owner, err := s.Store.SaveIdentity(s.Ctx, &model.Identity{Username: "alice"})
	s.Require().NoError(err)
	id, err := s.Store.CreateCharacter(s.Ctx, &model.Character{Name: "Rook", OwnerID: owner})
	s.Require().NoError(err)

	removed, err := s.Store.DeleteCharacter(s.Ctx, id)
	s.Require().NoError(err)
	s.True(removed)

	s.False(s.mini.Exists(characterKey(id)))
	all, _ := s.mini.ZMembers(charactersIndexKey())
	s.Empty(all)
	byOwner, _ := s.mini.ZMembers(ownerIndexKey(owner))
	s.Empty(byOwner)
}

func (s *StorageSuite) TestListSkipsDanglingIndexEntries() {
	owner, err := s.Store.SaveIdentity(s.Ctx, &model.Identity{Username: "alice"})
	s.Require().NoError(err)
	id, err := s.Store.CreateCharacter(s.Ctx, &model.Character{Name: "Rook", OwnerID: owner})
	s.Require().NoError(err)

	// Simulate a half-applied delete
	s.mini.Del(characterKey(id))

	characters, err := s.Store.ListCharacters(s.Ctx)
	s.Require().NoError(err)
	s.Empty(characters)
}

func (s *StorageSuite) TestStoredCharacterDecodesDefaults() {
	owner, err := s.Store.SaveIdentity(s.Ctx, &model.Identity{Username: "alice"})
	s.Require().NoError(err)
	id, err := s.Store.CreateCharacter(s.Ctx, &model.Character{Name: "Rook", OwnerID: owner})
	s.Require().NoError(err)

	character, err := s.Store.GetCharacter(context.Background(), id)
	s.Require().NoError(err)
	s.NotNil(character.Sheet.Items)
	s.NotNil(character.Sheet.Skills)
}
