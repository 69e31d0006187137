package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/storage"
	"github.com/mcoot/charsheets/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.NewStorage = func() storage.Storage { return New() }
	suite.Run(t, s)
}

func TestConcurrentCreatesGetDistinctIDs(t *testing.T) {
	store := New()
	ctx := context.Background()
	owner, err := store.SaveIdentity(ctx, &model.Identity{Username: "alice"})
	require.NoError(t, err)

	const n = 50
	ids := make(chan model.CharacterID, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := store.CreateCharacter(ctx, &model.Character{Name: "c", OwnerID: owner})
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[model.CharacterID]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
