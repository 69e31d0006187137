// Package storagetest holds the behaviour every storage.Storage backend must share.
// Backend packages embed Suite in their own testify suite and provide NewStorage.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/storage"
)

// Suite is a reusable conformance suite for storage backends
type Suite struct {
	suite.Suite

	// NewStorage returns an empty store for each test
	NewStorage func() storage.Storage

	Store storage.Storage
	Ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	s.Store = s.NewStorage()
	s.Ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

func (s *Suite) saveIdentity(name string, master bool) model.IdentityID {
	id, err := s.Store.SaveIdentity(s.Ctx, &model.Identity{
		Username:     name,
		PasswordHash: "hash-" + name,
		IsMaster:     master,
		CreatedAt:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	return id
}

func (s *Suite) createCharacter(name string, owner model.IdentityID) model.CharacterID {
	id, err := s.Store.CreateCharacter(s.Ctx, sampleCharacter(name, owner))
	s.Require().NoError(err)
	return id
}

func sampleCharacter(name string, owner model.IdentityID) *model.Character {
	return &model.Character{
		Name:     name,
		OwnerID:  owner,
		Portrait: model.DefaultPortrait,
		Sheet: model.SheetDocument{
			Archetype:  "Wanderer",
			Attributes: model.Attributes{Strength: 1, Resilience: 2, Mind: 1},
			Status:     model.Status{PVMax: 16, PVCurrent: 16, FlowMax: 4, FlowCurrent: 4},
			Skills: model.Skills{
				"stealth":           model.IntSkill(2),
				"lore":              model.TextSkill("old empires"),
				model.TradeSkillKey: model.TextSkill("tanner"),
			},
			Abilities: "Sees in the dark",
			Items:     []string{"sword", "shield"},
		},
		CreatedAt: time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC),
	}
}

// Identity tests

func (s *Suite) TestSaveAndGetIdentity() {
	id := s.saveIdentity("alice", false)
	s.NotZero(id)

	identity, err := s.Store.GetIdentity(s.Ctx, id)
	s.Require().NoError(err)
	s.Equal(id, identity.ID)
	s.Equal("alice", identity.Username)
	s.Equal("hash-alice", identity.PasswordHash)
	s.False(identity.IsMaster)
	s.True(identity.CreatedAt.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
}

func (s *Suite) TestSaveIdentityAssignsDistinctIDs() {
	first := s.saveIdentity("alice", false)
	second := s.saveIdentity("bob", false)
	s.NotEqual(first, second)
}

func (s *Suite) TestSaveIdentityRejectsDuplicateUsername() {
	s.saveIdentity("alice", false)

	_, err := s.Store.SaveIdentity(s.Ctx, &model.Identity{Username: "alice"})
	s.ErrorIs(err, model.ErrUsernameExists)
}

func (s *Suite) TestGetIdentityNotFound() {
	_, err := s.Store.GetIdentity(s.Ctx, 999)
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestListIdentitiesOrderedByID() {
	a := s.saveIdentity("alice", false)
	b := s.saveIdentity("bob", false)
	m := s.saveIdentity("gm", true)

	identities, err := s.Store.ListIdentities(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(identities, 3)
	s.Equal(a, identities[0].ID)
	s.Equal(b, identities[1].ID)
	s.Equal(m, identities[2].ID)
	s.True(identities[2].IsMaster)
}

func (s *Suite) TestListIdentitiesEmpty() {
	identities, err := s.Store.ListIdentities(s.Ctx)
	s.Require().NoError(err)
	s.Empty(identities)
}

func (s *Suite) TestGetMasterIdentity() {
	s.saveIdentity("alice", false)
	m := s.saveIdentity("gm", true)

	master, err := s.Store.GetMasterIdentity(s.Ctx)
	s.Require().NoError(err)
	s.Equal(m, master.ID)
	s.True(master.IsMaster)
}

func (s *Suite) TestGetMasterIdentityNotConfigured() {
	s.saveIdentity("alice", false)

	_, err := s.Store.GetMasterIdentity(s.Ctx)
	s.ErrorIs(err, model.ErrMasterNotConfigured)
}

func (s *Suite) TestGetMasterIdentityRejectsSeveralMasters() {
	s.saveIdentity("gm1", true)
	s.saveIdentity("gm2", true)

	_, err := s.Store.GetMasterIdentity(s.Ctx)
	s.ErrorIs(err, model.ErrMultipleMasters)
}

// Character tests

func (s *Suite) TestCreateAndGetCharacter() {
	owner := s.saveIdentity("alice", false)
	id := s.createCharacter("Rook", owner)
	s.NotZero(id)

	character, err := s.Store.GetCharacter(s.Ctx, id)
	s.Require().NoError(err)
	s.Equal(id, character.ID)
	s.Equal("Rook", character.Name)
	s.Equal(owner, character.OwnerID)
	s.Equal(model.DefaultPortrait, character.Portrait)
	s.True(character.CreatedAt.Equal(time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC)))

	expected := sampleCharacter("Rook", owner).Sheet
	s.Equal(expected.Archetype, character.Sheet.Archetype)
	s.Equal(expected.Attributes, character.Sheet.Attributes)
	s.Equal(expected.Status, character.Sheet.Status)
	s.Equal(expected.Items, character.Sheet.Items)
	s.Equal(expected.Abilities, character.Sheet.Abilities)
	s.Equal(expected.Skills, character.Sheet.Skills)
}

func (s *Suite) TestCreateCharacterRequiresExistingOwner() {
	_, err := s.Store.CreateCharacter(s.Ctx, sampleCharacter("Orphan", 424242))
	s.ErrorIs(err, model.ErrIdentityNotFound)

	characters, err := s.Store.ListCharacters(s.Ctx)
	s.Require().NoError(err)
	s.Empty(characters)
}

func (s *Suite) TestGetCharacterNotFound() {
	_, err := s.Store.GetCharacter(s.Ctx, 999)
	s.ErrorIs(err, model.ErrCharacterNotFound)
}

func (s *Suite) TestListCharacters() {
	alice := s.saveIdentity("alice", false)
	bob := s.saveIdentity("bob", false)
	first := s.createCharacter("Rook", alice)
	second := s.createCharacter("Wren", bob)

	characters, err := s.Store.ListCharacters(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(characters, 2)
	s.Equal(first, characters[0].ID)
	s.Equal(second, characters[1].ID)
}

func (s *Suite) TestListCharactersByOwner() {
	alice := s.saveIdentity("alice", false)
	bob := s.saveIdentity("bob", false)
	rook := s.createCharacter("Rook", alice)
	s.createCharacter("Wren", bob)
	vale := s.createCharacter("Vale", alice)

	characters, err := s.Store.ListCharactersByOwner(s.Ctx, alice)
	s.Require().NoError(err)
	s.Require().Len(characters, 2)
	s.Equal(rook, characters[0].ID)
	s.Equal(vale, characters[1].ID)
	for _, c := range characters {
		s.Equal(alice, c.OwnerID)
	}
}

func (s *Suite) TestListCharactersByOwnerEmpty() {
	alice := s.saveIdentity("alice", false)

	characters, err := s.Store.ListCharactersByOwner(s.Ctx, alice)
	s.Require().NoError(err)
	s.Empty(characters)
}

func (s *Suite) TestDeleteCharacter() {
	owner := s.saveIdentity("alice", false)
	keep := s.createCharacter("Rook", owner)
	gone := s.createCharacter("Wren", owner)

	removed, err := s.Store.DeleteCharacter(s.Ctx, gone)
	s.Require().NoError(err)
	s.True(removed)

	_, err = s.Store.GetCharacter(s.Ctx, gone)
	s.ErrorIs(err, model.ErrCharacterNotFound)

	characters, err := s.Store.ListCharacters(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(characters, 1)
	s.Equal(keep, characters[0].ID)

	byOwner, err := s.Store.ListCharactersByOwner(s.Ctx, owner)
	s.Require().NoError(err)
	s.Len(byOwner, 1)
}

func (s *Suite) TestDeleteCharacterMissingIsNoop() {
	removed, err := s.Store.DeleteCharacter(s.Ctx, 999)
	s.Require().NoError(err)
	s.False(removed)
}

func (s *Suite) TestDeleteCharacterTwice() {
	owner := s.saveIdentity("alice", false)
	id := s.createCharacter("Rook", owner)

	removed, err := s.Store.DeleteCharacter(s.Ctx, id)
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.Store.DeleteCharacter(s.Ctx, id)
	s.Require().NoError(err)
	s.False(removed)
}

func (s *Suite) TestReturnedCharacterIsDetached() {
	owner := s.saveIdentity("alice", false)
	id := s.createCharacter("Rook", owner)

	character, err := s.Store.GetCharacter(s.Ctx, id)
	s.Require().NoError(err)
	character.Sheet.Items[0] = "broken"
	character.Name = "Changed"

	again, err := s.Store.GetCharacter(s.Ctx, id)
	s.Require().NoError(err)
	s.Equal("Rook", again.Name)
	s.Equal("sword", again.Sheet.Items[0])
}
