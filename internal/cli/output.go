package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mcoot/charsheets/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Identity:
		o.printIdentity(v)
	case []response.Identity:
		o.printIdentities(v)
	case response.SessionResponse:
		o.printSession(v)
	case response.Character:
		o.printCharacter(v)
	case response.CharacterList:
		o.printCharacterList(v)
	case StatusReport:
		o.printStatus(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (o *Output) printIdentity(i response.Identity) {
	fmt.Fprintf(o.w, "Identity: %s (%d)\n", i.Username, i.ID)
	fmt.Fprintf(o.w, "Master: %s\n", yesNo(i.IsMaster))
}

func (o *Output) printIdentities(identities []response.Identity) {
	if len(identities) == 0 {
		fmt.Fprintln(o.w, "No identities")
		return
	}
	for _, i := range identities {
		role := "player"
		if i.IsMaster {
			role = "master"
		}
		fmt.Fprintf(o.w, "%4d  %-20s %s\n", i.ID, i.Username, role)
	}
}

func (o *Output) printSession(s response.SessionResponse) {
	o.printIdentity(s.Identity)
	fmt.Fprintf(o.w, "Token: %s\n", s.SessionToken)
	fmt.Fprintf(o.w, "Expires: %s\n", s.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
}

func (o *Output) printCharacter(c response.Character) {
	sheet := c.Sheet
	fmt.Fprintf(o.w, "Character: %s (%d)\n", c.Name, c.ID)
	fmt.Fprintf(o.w, "Owner: %d\n", c.OwnerID)
	if sheet.Archetype != "" {
		fmt.Fprintf(o.w, "Archetype: %s\n", sheet.Archetype)
	}
	fmt.Fprintf(o.w, "Portrait: %s\n", c.PortraitURL)

	a := sheet.Attributes
	fmt.Fprintf(o.w, "Attributes: strength %d, instinct %d, resilience %d, authority %d, mind %d\n",
		a.Strength, a.Instinct, a.Resilience, a.Authority, a.Mind)

	st := sheet.Status
	fmt.Fprintf(o.w, "PV: %d / %d  Flow: %d / %d  Paradox: %d\n",
		st.PVCurrent, st.PVMax, st.FlowCurrent, st.FlowMax, st.Paradox)

	if len(sheet.Skills) > 0 {
		keys := make([]string, 0, len(sheet.Skills))
		for k := range sheet.Skills {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		fmt.Fprintln(o.w, "Skills:")
		for _, k := range keys {
			fmt.Fprintf(o.w, "  %s: %s\n", k, sheet.Skills[k])
		}
	}

	if sheet.Abilities != "" {
		fmt.Fprintf(o.w, "Abilities: %s\n", sheet.Abilities)
	}
	if len(sheet.Items) > 0 {
		fmt.Fprintf(o.w, "Items: %s\n", strings.Join(sheet.Items, ", "))
	}
}

func (o *Output) printCharacterList(l response.CharacterList) {
	if len(l.Characters) == 0 {
		fmt.Fprintln(o.w, "No characters")
		return
	}
	for _, c := range l.Characters {
		fmt.Fprintf(o.w, "%4d  %-24s %-16s owner %d\n", c.ID, c.Name, c.Sheet.Archetype, c.OwnerID)
	}
}

func (o *Output) printStatus(s StatusReport) {
	fmt.Fprintf(o.w, "Server: %s\n", s.Server)
	fmt.Fprintf(o.w, "Status: %s\n", s.Status)
	if s.Identity == nil {
		fmt.Fprintln(o.w, "Session: none")
		return
	}
	fmt.Fprintf(o.w, "Session: %s (%d)\n", s.Identity.Username, s.Identity.ID)
}
