package model

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// DefaultPortrait is the sentinel filename used when no portrait was uploaded
const DefaultPortrait = "default.png"

// TradeSkillKey is the reserved skill entry holding the free-text trade/craft
const TradeSkillKey = "trade"

// CharacterID uniquely identifies a character sheet
type CharacterID int64

// Character is one player's character sheet
type Character struct {
	ID        CharacterID
	Name      string
	OwnerID   IdentityID
	Portrait  string // stored portrait filename
	Sheet     SheetDocument
	CreatedAt time.Time
}

// SheetDocument is the semi-structured part of a character, persisted as JSON
type SheetDocument struct {
	Archetype  string     `json:"archetype"`
	Attributes Attributes `json:"attributes"`
	Status     Status     `json:"status"`
	Skills     Skills     `json:"skills"`
	Abilities  string     `json:"abilities"`
	Items      []string   `json:"items"`
}

// Attributes are the five fixed raw character attributes
type Attributes struct {
	Strength   int `json:"strength"`
	Instinct   int `json:"instinct"`
	Resilience int `json:"resilience"`
	Authority  int `json:"authority"`
	Mind       int `json:"mind"`
}

// Status holds the values derived from Attributes when the sheet is created
type Status struct {
	PVMax       int `json:"pv_max"`
	PVCurrent   int `json:"pv_current"`
	FlowMax     int `json:"flow_max"`
	FlowCurrent int `json:"flow_current"`
	Paradox     int `json:"paradox"`
}

// Skills maps skill keys to their values.
// Keys are lower-case identifiers taken from "skill_"-prefixed form fields,
// plus the reserved TradeSkillKey. Keys are case-sensitive: a field whose key
// is not already lower case is dropped, never folded into another key.
type Skills map[string]SkillValue

// SkillValue is either an integer rank or a free-text value
type SkillValue struct {
	number  int
	text    string
	numeric bool
}

// IntSkill creates a numeric skill value
func IntSkill(n int) SkillValue {
	return SkillValue{number: n, numeric: true}
}

// TextSkill creates a free-text skill value
func TextSkill(s string) SkillValue {
	return SkillValue{text: s}
}

// IsNumeric reports whether the value is an integer rank
func (v SkillValue) IsNumeric() bool {
	return v.numeric
}

// Int returns the integer rank, 0 for text values
func (v SkillValue) Int() int {
	return v.number
}

// String renders the value for display
func (v SkillValue) String() string {
	if v.numeric {
		return strconv.Itoa(v.number)
	}
	return v.text
}

// MarshalJSON encodes numeric values as JSON numbers and text as strings
func (v SkillValue) MarshalJSON() ([]byte, error) {
	if v.numeric {
		return json.Marshal(v.number)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts either a JSON number or a JSON string
func (v *SkillValue) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*v = IntSkill(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = TextSkill(s)
		return nil
	}
	return errors.New("skill value must be a number or a string")
}
