// Package sheet builds character sheets from submitted forms and applies the
// access rules for listing, viewing and deleting them.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/mcoot/charsheets/internal/dependencies/clock"
	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/services/access"
	"github.com/mcoot/charsheets/internal/storage"
	"github.com/mcoot/charsheets/internal/storage/portrait"
)

// ErrPortraitUpload is returned when an attached portrait could not be stored
var ErrPortraitUpload = errors.New("portrait could not be stored")

// Upload is a portrait file attached to a creation request
type Upload struct {
	Filename string
	Body     io.Reader
}

// CreateInput is everything submitted on the creation form
type CreateInput struct {
	Name     string
	Fields   url.Values
	Portrait *Upload // nil when no file was attached
}

// Service manages character sheets on behalf of an authenticated caller
type Service struct {
	storage   storage.Storage
	portraits portrait.Store
	clock     clock.Clock
}

// New creates a new sheet Service
func New(storage storage.Storage, portraits portrait.Store, clock clock.Clock) *Service {
	return &Service{
		storage:   storage,
		portraits: portraits,
		clock:     clock,
	}
}

// Dashboard lists the sheets the caller may see
func (s *Service) Dashboard(ctx context.Context, caller *model.Identity) ([]*model.Character, error) {
	if caller == nil {
		return nil, model.ErrForbidden
	}
	if access.SeesAll(caller) {
		return s.storage.ListCharacters(ctx)
	}
	return s.storage.ListCharactersByOwner(ctx, caller.ID)
}

// Create stores the portrait, builds the sheet and saves it owned by the caller.
// If the portrait cannot be stored nothing is saved.
func (s *Service) Create(ctx context.Context, caller *model.Identity, in CreateInput) (*model.Character, error) {
	if caller == nil {
		return nil, model.ErrForbidden
	}

	portraitName := model.DefaultPortrait
	if in.Portrait != nil && in.Portrait.Filename != "" && in.Portrait.Body != nil {
		// Names that sanitize to the sentinel are treated as no upload
		if name := portrait.Sanitize(in.Portrait.Filename); name != model.DefaultPortrait {
			if err := s.portraits.Save(ctx, name, in.Portrait.Body); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrPortraitUpload, err)
			}
			portraitName = name
		}
	}

	fields := in.Fields
	if fields == nil {
		fields = url.Values{}
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.TrimSpace(fields.Get(FieldName))
	}

	character := &model.Character{
		Name:      name,
		OwnerID:   caller.ID,
		Portrait:  portraitName,
		Sheet:     Build(fields),
		CreatedAt: s.clock.Now(),
	}

	id, err := s.storage.CreateCharacter(ctx, character)
	if err != nil {
		if portraitName != model.DefaultPortrait {
			s.discardPortrait(ctx, portraitName)
		}
		return nil, err
	}
	character.ID = id
	return character, nil
}

// discardPortrait removes a portrait saved for a sheet that was never created.
// Same-named uploads share a file, so it is kept while any stored sheet uses it
// or when that cannot be checked.
func (s *Service) discardPortrait(ctx context.Context, name string) {
	characters, err := s.storage.ListCharacters(ctx)
	if err != nil {
		return
	}
	for _, c := range characters {
		if c.Portrait == name {
			return
		}
	}
	_ = s.portraits.Delete(ctx, name)
}

// View returns a sheet if the caller may see it
func (s *Service) View(ctx context.Context, caller *model.Identity, id model.CharacterID) (*model.Character, error) {
	character, err := s.storage.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.Allow(caller, character, access.ActionView) {
		return nil, model.ErrForbidden
	}
	return character, nil
}

// Delete removes a sheet if the caller may delete it.
// A missing sheet reports false with no error.
func (s *Service) Delete(ctx context.Context, caller *model.Identity, id model.CharacterID) (bool, error) {
	character, err := s.storage.GetCharacter(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrCharacterNotFound) {
			return false, nil
		}
		return false, err
	}
	if !access.Allow(caller, character, access.ActionDelete) {
		return false, model.ErrForbidden
	}
	return s.storage.DeleteCharacter(ctx, id)
}

// DefaultPortraitURL is served for sheets created without a portrait
const DefaultPortraitURL = "/static/img/default.png"

// PortraitURL returns where a stored portrait can be fetched from
func (s *Service) PortraitURL(name string) string {
	if name == "" || name == model.DefaultPortrait {
		return DefaultPortraitURL
	}
	return s.portraits.URL(name)
}
