package cmsclient

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery_NestsWithBrackets(t *testing.T) {
	q := BuildQuery(Params{
		{Key: "filters", Value: Params{{Key: "slug", Value: Params{{Key: "$eq", Value: "go-basics"}}}}},
		{Key: "populate", Value: "*"},
	}, "")

	assert.Equal(t, Query{
		{Key: "filters[slug][$eq]", Value: "go-basics"},
		{Key: "populate", Value: "*"},
	}, q)
	assert.Equal(t, "filters%5Bslug%5D%5B%24eq%5D=go-basics&populate=%2A", q.Encode())

	parsed, err := url.ParseQuery(q.Encode())
	require.NoError(t, err)
	assert.Equal(t, "go-basics", parsed.Get("filters[slug][$eq]"))
}

func TestBuildQuery_RepeatsArrayKeys(t *testing.T) {
	q := BuildQuery(Params{
		{Key: "fields", Value: []string{"title", "mode"}},
		{Key: "pagination", Value: map[string]any{"pageSize": 100, "page": 1}},
	}, "")

	assert.Equal(t, []string{"title", "mode"}, q.Get("fields"))
	// map keys are sorted
	assert.Equal(t, Query{
		{Key: "fields", Value: "title"},
		{Key: "fields", Value: "mode"},
		{Key: "pagination[page]", Value: "1"},
		{Key: "pagination[pageSize]", Value: "100"},
	}, q)
}

func TestBuildQuery_ScalarsAndNil(t *testing.T) {
	limit := 5
	var missing *int
	q := BuildQuery(Params{
		{Key: "a", Value: true},
		{Key: "b", Value: nil},
		{Key: "c", Value: &limit},
		{Key: "d", Value: missing},
		{Key: "e", Value: 2.5},
	}, "")

	assert.Equal(t, Query{
		{Key: "a", Value: "true"},
		{Key: "c", Value: "5"},
		{Key: "e", Value: "2.5"},
	}, q)
}

func TestBuildQuery_Prefix(t *testing.T) {
	q := BuildQuery(Params{{Key: "photo", Value: true}}, "populate")
	assert.Equal(t, "populate[photo]", q[0].Key)
}

func TestBuildQuery_Empty(t *testing.T) {
	assert.Empty(t, BuildQuery(nil, "").Encode())
}

func TestParams_With(t *testing.T) {
	p := Params{}.With("sort", "createdAt:desc").With("populate", "*")
	assert.Equal(t, "sort=createdAt%3Adesc&populate=%2A", BuildQuery(p, "").Encode())
}
