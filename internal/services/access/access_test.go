package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/charsheets/internal/model"
)

func TestAllow(t *testing.T) {
	owner := &model.Identity{ID: 1, Username: "alice"}
	other := &model.Identity{ID: 2, Username: "bob"}
	master := &model.Identity{ID: 3, Username: "gm", IsMaster: true}
	sheet := &model.Character{ID: 10, OwnerID: owner.ID}

	tests := []struct {
		name   string
		caller *model.Identity
		sheet  *model.Character
		want   bool
	}{
		{"owner", owner, sheet, true},
		{"other player", other, sheet, false},
		{"master", master, sheet, true},
		{"no caller", nil, sheet, false},
		{"no sheet", master, nil, false},
	}

	for _, tt := range tests {
		for _, action := range []Action{ActionView, ActionDelete} {
			t.Run(tt.name+"/"+action.String(), func(t *testing.T) {
				assert.Equal(t, tt.want, Allow(tt.caller, tt.sheet, action))
			})
		}
	}
}

func TestAllowUnknownAction(t *testing.T) {
	master := &model.Identity{ID: 3, IsMaster: true}
	assert.False(t, Allow(master, &model.Character{OwnerID: 3}, Action(99)))
}

func TestSeesAll(t *testing.T) {
	assert.True(t, SeesAll(&model.Identity{IsMaster: true}))
	assert.False(t, SeesAll(&model.Identity{}))
	assert.False(t, SeesAll(nil))
}
