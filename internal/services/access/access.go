// Package access decides what an identity may do with a character sheet.
// Every role check in the application goes through here.
package access

import "github.com/mcoot/charsheets/internal/model"

// Action is something a caller wants to do with an existing sheet
type Action int

const (
	ActionView Action = iota
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionView:
		return "view"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Allow reports whether caller may perform action on sheet.
// The master may act on any sheet; everyone else only on sheets they own.
func Allow(caller *model.Identity, sheet *model.Character, action Action) bool {
	if caller == nil || sheet == nil {
		return false
	}
	switch action {
	case ActionView, ActionDelete:
		return caller.IsMaster || sheet.OwnerID == caller.ID
	default:
		return false
	}
}

// SeesAll reports whether the caller's dashboard lists every sheet rather than their own
func SeesAll(caller *model.Identity) bool {
	return caller != nil && caller.IsMaster
}
