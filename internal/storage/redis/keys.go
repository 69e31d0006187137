package redis

import (
	"fmt"

	"github.com/mcoot/charsheets/internal/model"
)

// Key prefix for all character sheet data
const keyPrefix = "charsheets"

// identityKey returns the Redis key for an Identity
func identityKey(id model.IdentityID) string {
	return fmt.Sprintf("%s:identity:%d", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> identity id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// identitiesIndexKey is a ZSET of every identity id, scored by id
func identitiesIndexKey() string {
	return keyPrefix + ":idx:identities"
}

// mastersIndexKey is a ZSET of master identity ids
func mastersIndexKey() string {
	return keyPrefix + ":idx:masters"
}

// characterKey returns the Redis key for a Character
func characterKey(id model.CharacterID) string {
	return fmt.Sprintf("%s:character:%d", keyPrefix, id)
}

// charactersIndexKey is a ZSET of every character id, scored by id
func charactersIndexKey() string {
	return keyPrefix + ":idx:characters"
}

// ownerIndexKey is a ZSET of the character ids owned by one identity
func ownerIndexKey(owner model.IdentityID) string {
	return fmt.Sprintf("%s:idx:owner:%d", keyPrefix, owner)
}

// sequenceKey returns the counter used to allocate ids of one kind
func sequenceKey(kind string) string {
	return fmt.Sprintf("%s:seq:%s", keyPrefix, kind)
}
