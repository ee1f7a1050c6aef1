package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"owner", RoleOwner, true},
		{" Editor ", RoleEditor, true},
		{"VIEWER", RoleViewer, true},
		{"admin", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestRole_Assignable(t *testing.T) {
	assert.True(t, RoleEditor.Assignable())
	assert.True(t, RoleViewer.Assignable())
	assert.False(t, RoleOwner.Assignable())
	assert.False(t, Role("admin").Assignable())
}
