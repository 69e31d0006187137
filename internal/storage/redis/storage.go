package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Identity operations

func (s *Storage) SaveIdentity(ctx context.Context, identity *model.Identity) (model.IdentityID, error) {
	seq, err := s.client.Incr(ctx, sequenceKey("identity")).Result()
	if err != nil {
		return 0, err
	}
	id := model.IdentityID(seq)

	// Claim the username first so concurrent saves cannot both win
	claimed, err := s.client.SetNX(ctx, usernameIndexKey(identity.Username), seq, 0).Result()
	if err != nil {
		return 0, err
	}
	if !claimed {
		return 0, model.ErrUsernameExists
	}

	if err := s.writeIdentity(ctx, identity, id); err != nil {
		// Release the claim so the username can be saved again
		_ = s.client.Del(context.WithoutCancel(ctx), usernameIndexKey(identity.Username)).Err()
		return 0, err
	}
	return id, nil
}

func (s *Storage) writeIdentity(ctx context.Context, identity *model.Identity, id model.IdentityID) error {
	stored := *identity
	stored.ID = id
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(&stored)
	if err != nil {
		return err
	}

	member := redis.Z{Score: float64(id), Member: int64(id)}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, identityKey(id), data, 0)
	pipe.ZAdd(ctx, identitiesIndexKey(), member)
	if stored.IsMaster {
		pipe.ZAdd(ctx, mastersIndexKey(), member)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	data, err := s.client.Get(ctx, identityKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, err
	}

	var identity model.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (s *Storage) ListIdentities(ctx context.Context) ([]*model.Identity, error) {
	return s.identitiesInIndex(ctx, identitiesIndexKey(), -1)
}

func (s *Storage) GetMasterIdentity(ctx context.Context) (*model.Identity, error) {
	// Two is enough to tell "exactly one" from "several"
	masters, err := s.identitiesInIndex(ctx, mastersIndexKey(), 1)
	if err != nil {
		return nil, err
	}
	switch len(masters) {
	case 0:
		return nil, model.ErrMasterNotConfigured
	case 1:
		return masters[0], nil
	default:
		return nil, model.ErrMultipleMasters
	}
}

// identitiesInIndex loads identities listed in a ZSET, in id order, up to stop (inclusive)
func (s *Storage) identitiesInIndex(ctx context.Context, indexKey string, stop int64) ([]*model.Identity, error) {
	ids, err := s.client.ZRange(ctx, indexKey, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Identity{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue // Skip corrupt index entries
		}
		keys = append(keys, identityKey(model.IdentityID(id)))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	identities := make([]*model.Identity, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var identity model.Identity
		if err := json.Unmarshal([]byte(str), &identity); err != nil {
			continue // Skip invalid data
		}
		identities = append(identities, &identity)
	}
	return identities, nil
}

// Character operations

func (s *Storage) CreateCharacter(ctx context.Context, character *model.Character) (model.CharacterID, error) {
	exists, err := s.client.Exists(ctx, identityKey(character.OwnerID)).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, model.ErrIdentityNotFound
	}

	seq, err := s.client.Incr(ctx, sequenceKey("character")).Result()
	if err != nil {
		return 0, err
	}
	id := model.CharacterID(seq)

	stored := *character
	stored.ID = id
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(&stored)
	if err != nil {
		return 0, err
	}

	member := redis.Z{Score: float64(id), Member: seq}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, characterKey(id), data, 0)
	pipe.ZAdd(ctx, charactersIndexKey(), member)
	pipe.ZAdd(ctx, ownerIndexKey(stored.OwnerID), member)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Storage) GetCharacter(ctx context.Context, id model.CharacterID) (*model.Character, error) {
	data, err := s.client.Get(ctx, characterKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCharacterNotFound
		}
		return nil, err
	}
	return decodeCharacter(data)
}

func (s *Storage) ListCharacters(ctx context.Context) ([]*model.Character, error) {
	return s.charactersInIndex(ctx, charactersIndexKey())
}

func (s *Storage) ListCharactersByOwner(ctx context.Context, owner model.IdentityID) ([]*model.Character, error) {
	return s.charactersInIndex(ctx, ownerIndexKey(owner))
}

func (s *Storage) DeleteCharacter(ctx context.Context, id model.CharacterID) (bool, error) {
	character, err := s.GetCharacter(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrCharacterNotFound) {
			return false, nil
		}
		return false, err
	}

	member := strconv.FormatInt(int64(id), 10)
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, characterKey(id))
	pipe.ZRem(ctx, charactersIndexKey(), member)
	pipe.ZRem(ctx, ownerIndexKey(character.OwnerID), member)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	// A concurrent delete may have removed the key between GET and DEL
	return del.Val() > 0, nil
}

func (s *Storage) charactersInIndex(ctx context.Context, indexKey string) ([]*model.Character, error) {
	ids, err := s.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Character{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue // Skip corrupt index entries
		}
		keys = append(keys, characterKey(model.CharacterID(id)))
	}

	// Fetch all characters in one round trip using MGET
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	characters := make([]*model.Character, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Character may have been deleted
		}
		character, err := decodeCharacter([]byte(str))
		if err != nil {
			continue // Skip invalid data
		}
		characters = append(characters, character)
	}
	return characters, nil
}

func decodeCharacter(data []byte) (*model.Character, error) {
	var character model.Character
	if err := json.Unmarshal(data, &character); err != nil {
		return nil, err
	}
	if character.Sheet.Items == nil {
		character.Sheet.Items = []string{}
	}
	if character.Sheet.Skills == nil {
		character.Sheet.Skills = model.Skills{}
	}
	return &character, nil
}
