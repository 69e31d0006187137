package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrIdentityNotFound    = errors.New("identity not found")
	ErrUsernameExists      = errors.New("username already exists")
	ErrMasterNotConfigured = errors.New("no master identity configured")
	ErrMultipleMasters     = errors.New("more than one master identity configured")

	// Character errors
	ErrCharacterNotFound = errors.New("character not found")

	// Access errors
	ErrForbidden = errors.New("caller may not access this character")
)
