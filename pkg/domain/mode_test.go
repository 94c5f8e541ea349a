package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPortletMode(t *testing.T) {
	mode, err := NewPortletMode("EDIT")
	require.NoError(t, err)
	assert.Equal(t, ModeEdit, mode)
	assert.True(t, mode.Equal(ModeEdit))
	assert.Equal(t, "edit", mode.String())

	custom, err := NewPortletMode("Config")
	require.NoError(t, err)
	assert.Equal(t, PortletMode("config"), custom)

	_, err = NewPortletMode("")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewWindowState(t *testing.T) {
	state, err := NewWindowState("Maximized")
	require.NoError(t, err)
	assert.Equal(t, StateMaximized, state)
	assert.False(t, state.Equal(StateNormal))

	_, err = NewWindowState("")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "application", ApplicationScope.String())
	assert.Equal(t, "portlet", PortletScope.String())
	assert.Equal(t, "unknown", Scope(9).String())
}
