package model

import "time"

// IdentityID uniquely identifies an account across the system
type IdentityID int64

// Identity is a registered account: either a player or the game master
type Identity struct {
	ID           IdentityID
	Username     string // unique display name
	PasswordHash string // bcrypt hash, empty for players without a password
	IsMaster     bool
	CreatedAt    time.Time
}
