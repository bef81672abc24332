package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionUID(t *testing.T) {
	assert.Equal(t, "api::home-hero.home-hero.find", ActionUID(HomeHero, ActionFind))
	assert.Equal(t, "api::course.course.findOne", ActionUID(Course, ActionFindOne))
}

func TestContentType_Routes(t *testing.T) {
	reg := NewDefaultRegistry()

	assert.Equal(t, Course, reg.GetByRoute("courses").Name)
	assert.Equal(t, HomeHero, reg.GetByRoute("home-hero").Name)
	assert.Equal(t, SiteIdentity, reg.GetByRoute("site-identity").Name)
	assert.Nil(t, reg.GetByRoute("home-heroes"), "single types are served under their singular name")
	assert.Nil(t, reg.GetByRoute("course"))
	assert.Len(t, reg.All(), 10)
}

func TestContentType_Columns(t *testing.T) {
	reg := NewDefaultRegistry()
	course := reg.Get(Course)
	hero := reg.Get(HomeHero)
	registration := reg.Get(Registration)

	col, ok := course.Column("createdAt")
	require.True(t, ok)
	assert.Equal(t, "created_at", col)

	col, ok = course.Column("slug")
	require.True(t, ok)
	assert.Equal(t, "slug", col)

	_, ok = course.Column("locale")
	assert.False(t, ok, "collections have no locale column")
	_, ok = hero.Column("locale")
	assert.True(t, ok)
	_, ok = registration.Column("publishedAt")
	assert.False(t, ok, "registrations are not draft-and-publish")
	_, ok = course.Column("nope")
	assert.False(t, ok)

	assert.Equal(t, "publishedAt", course.Attribute("published_at"))
	assert.Equal(t, "id", course.Attribute("id"))
	assert.Equal(t, "title", course.Attribute("title"))

	assert.Equal(t, []string{"id", "document_id", "created_at", "updated_at", "published_at", "locale"}, hero.SystemColumns())
}

func TestContentType_PopulatableFields(t *testing.T) {
	course := NewDefaultRegistry().Get(Course)
	var names []string
	for _, f := range course.PopulatableFields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"cover", "instructor"}, names)
	assert.Equal(t, Expert, course.GetField("instructor").Target)
}

type staticGrants map[string][]string

func (s staticGrants) LoadGrants(context.Context) (map[string][]string, error) {
	if s == nil {
		return nil, errors.New("boom")
	}
	return s, nil
}

func TestReload_ReplacesGrants(t *testing.T) {
	reg := NewRegistry()
	find := ActionUID(Course, ActionFind)

	require.NoError(t, Reload(context.Background(), staticGrants{RolePublic: {find}}, reg))
	assert.True(t, reg.Allowed(RolePublic, find))
	assert.False(t, reg.Allowed(RoleAuthenticated, find))

	require.NoError(t, Reload(context.Background(), staticGrants{}, reg))
	assert.False(t, reg.Allowed(RolePublic, find))

	assert.Error(t, Reload(context.Background(), staticGrants(nil), reg))
}

func TestUserContext(t *testing.T) {
	assert.Equal(t, RolePublic, Anonymous().Role)
	assert.False(t, Anonymous().IsAdmin())
	assert.True(t, (&UserContext{Role: RoleAdmin}).IsAdmin())
	var nilUser *UserContext
	assert.False(t, nilUser.IsAdmin())
}
