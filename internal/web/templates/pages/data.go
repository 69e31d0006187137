package pages

import (
	"net/url"
	"slices"
	"strconv"

	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/services/sheet"
	"github.com/mcoot/charsheets/internal/web/templates/layout"
)

// HomeData is the identity selection page
type HomeData struct {
	layout.PageData
	Identities []*model.Identity
	Next       string
}

// MasterLoginData is the master password form
type MasterLoginData struct {
	layout.PageData
	Next string
}

// SheetSummary is one row of the dashboard
type SheetSummary struct {
	ID          model.CharacterID
	Name        string
	Archetype   string
	PortraitURL string
}

// DashboardData lists the sheets visible to the caller
type DashboardData struct {
	layout.PageData
	Sheets []SheetSummary
}

// CreateData is the character creation form
type CreateData struct {
	layout.PageData
	Skills []string // skill names offered on the form
}

// ViewData is a single rendered sheet
type ViewData struct {
	layout.PageData
	Character   *model.Character
	PortraitURL string
}

// DefaultSkills are the skill inputs shown on a blank form
var DefaultSkills = []string{"athletics", "stealth", "perception", "persuasion", "lore", "survival"}

type attributeField struct {
	Name  string
	Label string
}

var attributeFields = []attributeField{
	{sheet.FieldStrength, "Strength"},
	{sheet.FieldInstinct, "Instinct"},
	{sheet.FieldResilience, "Resilience"},
	{sheet.FieldAuthority, "Authority"},
	{sheet.FieldMind, "Mind"},
}

func loginPath(id model.IdentityID, next string) string {
	path := "/login/" + strconv.FormatInt(int64(id), 10)
	if next != "" {
		path += "?" + url.Values{"next": {next}}.Encode()
	}
	return path
}

func identityClass(identity *model.Identity) string {
	if identity.IsMaster {
		return "master"
	}
	return "player"
}

func viewPath(id model.CharacterID) string {
	return "/visualizar/" + strconv.FormatInt(int64(id), 10)
}

func deletePath(id model.CharacterID) string {
	return "/excluir/" + strconv.FormatInt(int64(id), 10)
}

func formSkills(data CreateData) []string {
	if len(data.Skills) == 0 {
		return DefaultSkills
	}
	return data.Skills
}

// skillKeys are the sheet's skills in display order, trade excluded
func skillKeys(skills model.Skills) []string {
	keys := make([]string, 0, len(skills))
	for key := range skills {
		if key != model.TradeSkillKey {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

func trade(skills model.Skills) string {
	return skills[model.TradeSkillKey].String()
}

func pool(current, max int) string {
	return strconv.Itoa(current) + " / " + strconv.Itoa(max)
}
