package session_test

import (
	"testing"
	"time"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Scopes(t *testing.T) {
	s := session.New("news")
	other := s.View("weather")

	require.NoError(t, s.SetAttribute("user", "ada", domain.ApplicationScope))
	require.NoError(t, s.SetAttribute("page", 2, domain.PortletScope))
	require.NoError(t, other.SetAttribute("page", 9, domain.PortletScope))

	v, err := other.Attribute("user", domain.ApplicationScope)
	require.NoError(t, err)
	assert.Equal(t, "ada", v, "application scope is shared")

	v, err = s.Attribute("page", domain.PortletScope)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	v, err = other.Attribute("page", domain.PortletScope)
	require.NoError(t, err)
	assert.Equal(t, 9, v)

	names, err := s.AttributeNames(domain.PortletScope)
	require.NoError(t, err)
	assert.Equal(t, []string{"page"}, names)

	all, err := s.AttributeNames(domain.ApplicationScope)
	require.NoError(t, err)
	assert.Equal(t, []string{"javax.portlet.p.news?page", "javax.portlet.p.weather?page", "user"}, all)

	v, err = s.Attribute("javax.portlet.p.news?page", domain.ApplicationScope)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestSession_RemoveAndNil(t *testing.T) {
	s := session.New("w")
	require.NoError(t, s.SetAttribute("a", 1, domain.PortletScope))
	require.NoError(t, s.SetAttribute("a", nil, domain.PortletScope))
	v, err := s.Attribute("a", domain.PortletScope)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.SetAttribute("b", 1, domain.ApplicationScope))
	require.NoError(t, s.RemoveAttribute("b", domain.ApplicationScope))
	names, err := s.AttributeNames(domain.ApplicationScope)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSession_InvalidArguments(t *testing.T) {
	s := session.New("w")
	assert.ErrorIs(t, s.SetAttribute("", 1, domain.ApplicationScope), domain.ErrInvalidArgument)
	_, err := s.Attribute("a", domain.Scope(7))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = s.AttributeNames(domain.Scope(7))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSession_Invalidate(t *testing.T) {
	s := session.New("w")
	view := s.View("x")
	require.NoError(t, s.SetAttribute("a", 1, domain.ApplicationScope))

	require.NoError(t, s.Invalidate())
	assert.ErrorIs(t, s.Invalidate(), domain.ErrInvalidState)

	_, err := view.Attribute("a", domain.ApplicationScope)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = s.AttributeNames(domain.PortletScope)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.ErrorIs(t, s.SetAttribute("a", 1, domain.ApplicationScope), domain.ErrInvalidState)
}

func TestSession_Timing(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := session.New("w",
		session.WithID("S1"),
		session.WithClock(func() time.Time { return now }),
		session.WithMaxInactiveInterval(time.Minute),
	)

	assert.Equal(t, "S1", s.ID())
	assert.True(t, s.IsNew())
	assert.Equal(t, now, s.CreationTime())
	assert.Equal(t, time.Minute, s.MaxInactiveInterval())

	now = now.Add(30 * time.Second)
	s.Touch()
	assert.False(t, s.IsNew())
	assert.Equal(t, now, s.LastAccessedTime())
	assert.False(t, s.Expired())

	now = now.Add(2 * time.Minute)
	assert.True(t, s.Expired())

	s.SetMaxInactiveInterval(0)
	assert.False(t, s.Expired())
}

func TestSession_GeneratedID(t *testing.T) {
	a, b := session.New("w"), session.New("w")
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, a.ID(), a.View("x").ID())
	assert.Equal(t, "x", a.View("x").WindowID())
}

func TestDecode(t *testing.T) {
	encoded := session.EncodeAttributeName("news", "page")
	assert.Equal(t, "javax.portlet.p.news?page", encoded)
	assert.Equal(t, "page", session.DecodeAttributeName(encoded))
	assert.Equal(t, domain.PortletScope, session.DecodeScope(encoded))

	assert.Equal(t, "user", session.DecodeAttributeName("user"))
	assert.Equal(t, domain.ApplicationScope, session.DecodeScope("user"))
	assert.Equal(t, "javax.portlet.p.noquery", session.DecodeAttributeName("javax.portlet.p.noquery"))
	assert.Equal(t, domain.ApplicationScope, session.DecodeScope("javax.portlet.p.noquery"))
}
