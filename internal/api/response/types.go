package response

import (
	"time"

	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/services/auth"
)

// Identity represents an identity in API responses
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsMaster bool   `json:"is_master"`
}

// IdentityFromModel converts a model.Identity to a response Identity
func IdentityFromModel(i *model.Identity) Identity {
	return Identity{
		ID:       int64(i.ID),
		Username: i.Username,
		IsMaster: i.IsMaster,
	}
}

// SessionResponse is the response for the login endpoint
type SessionResponse struct {
	Identity     Identity  `json:"identity"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionResponseFromSession creates a SessionResponse from a session
func SessionResponseFromSession(s *auth.Session) SessionResponse {
	return SessionResponse{
		Identity:     IdentityFromModel(&s.Identity),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Character represents a character sheet in API responses
type Character struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	OwnerID     int64               `json:"owner_id"`
	PortraitURL string              `json:"portrait_url"`
	Sheet       model.SheetDocument `json:"sheet"`
	CreatedAt   time.Time           `json:"created_at"`
}

// CharacterFromModel converts a model.Character; portraitURL resolves the stored filename
func CharacterFromModel(c *model.Character, portraitURL func(string) string) Character {
	return Character{
		ID:          int64(c.ID),
		Name:        c.Name,
		OwnerID:     int64(c.OwnerID),
		PortraitURL: portraitURL(c.Portrait),
		Sheet:       c.Sheet,
		CreatedAt:   c.CreatedAt,
	}
}

// CharacterList wraps a list of characters
type CharacterList struct {
	Characters []Character `json:"characters"`
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status string `json:"status"`
}
