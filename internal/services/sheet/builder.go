package sheet

import (
	"errors"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/mcoot/charsheets/internal/model"
)

// Form field names read by Build
const (
	FieldName      = "name"
	FieldArchetype = "archetype"
	FieldAbilities = "abilities"
	FieldItems     = "items"
	FieldTrade     = "trade"
	FieldPortrait  = "portrait"

	FieldStrength   = "strength"
	FieldInstinct   = "instinct"
	FieldResilience = "resilience"
	FieldAuthority  = "authority"
	FieldMind       = "mind"

	// SkillFieldPrefix marks form fields collected as skills
	SkillFieldPrefix = "skill_"
)

// MaxSkills caps how many skill fields a single sheet keeps
const MaxSkills = 64

// Attribute values are clamped to this range so derived status cannot overflow
const (
	MinAttribute = -9999
	MaxAttribute = 9999
)

var (
	skillKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,39}$`)
	digitsPattern   = regexp.MustCompile(`^[0-9]+$`)
)

// Build turns submitted form fields into a sheet document.
// It never fails: malformed numbers read as 0 and unknown fields are ignored.
func Build(fields url.Values) model.SheetDocument {
	attrs := model.Attributes{
		Strength:   intField(fields, FieldStrength),
		Instinct:   intField(fields, FieldInstinct),
		Resilience: intField(fields, FieldResilience),
		Authority:  intField(fields, FieldAuthority),
		Mind:       intField(fields, FieldMind),
	}

	return model.SheetDocument{
		Archetype:  fields.Get(FieldArchetype),
		Attributes: attrs,
		Status:     DeriveStatus(attrs),
		Skills:     buildSkills(fields),
		Abilities:  fields.Get(FieldAbilities),
		Items:      SplitItems(fields.Get(FieldItems)),
	}
}

// DeriveStatus computes the starting status from attributes
func DeriveStatus(attrs model.Attributes) model.Status {
	pv := 10 + attrs.Resilience*3
	flow := 3 + attrs.Mind
	return model.Status{
		PVMax:       pv,
		PVCurrent:   pv,
		FlowMax:     flow,
		FlowCurrent: flow,
		Paradox:     0,
	}
}

// SplitItems splits a comma-separated list, dropping blank entries
func SplitItems(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// intField reads an attribute. Malformed values read as 0; out-of-range
// values, including ones too large to parse, are clamped.
func intField(fields url.Values, name string) int {
	n, err := strconv.ParseInt(strings.TrimSpace(fields.Get(name)), 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return int(max(MinAttribute, min(MaxAttribute, n)))
}

func buildSkills(fields url.Values) model.Skills {
	names := make([]string, 0)
	for name := range fields {
		if strings.HasPrefix(name, SkillFieldPrefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	skills := make(model.Skills)
	for _, name := range names {
		if len(skills) >= MaxSkills {
			break
		}
		// Keys are case-sensitive and must already be lower case, so
		// skill_Stealth is dropped rather than merged into skill_stealth
		key := strings.TrimPrefix(name, SkillFieldPrefix)
		if !skillKeyPattern.MatchString(key) || key == model.TradeSkillKey {
			continue
		}
		skills[key] = skillValue(fields.Get(name))
	}

	skills[model.TradeSkillKey] = model.TextSkill(fields.Get(FieldTrade))
	return skills
}

func skillValue(raw string) model.SkillValue {
	value := strings.TrimSpace(raw)
	if digitsPattern.MatchString(value) {
		if n, err := strconv.Atoi(value); err == nil {
			return model.IntSkill(n)
		}
	}
	return model.TextSkill(value)
}
