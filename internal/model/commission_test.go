package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryScopeConstructors(t *testing.T) {
	all := AllCategories()
	assert.True(t, all.IsAll())
	assert.Equal(t, "ALL", all.String())
	assert.Equal(t, "", all.Category())

	power := SpecificCategory("Power Tools")
	assert.False(t, power.IsAll())
	assert.Equal(t, "Power Tools", power.String())
	assert.Equal(t, "Power Tools", power.Category())

	// the literal "ALL" and the empty string both mean the general scope
	assert.True(t, SpecificCategory("ALL").IsAll())
	assert.True(t, SpecificCategory("").IsAll())
}

func TestCategoryScopeSQLRoundTrip(t *testing.T) {
	v, err := SpecificCategory("Fasteners").Value()
	require.NoError(t, err)
	assert.Equal(t, "Fasteners", v)

	v, err = AllCategories().Value()
	require.NoError(t, err)
	assert.Equal(t, "ALL", v)

	var s CategoryScope
	require.NoError(t, s.Scan("Fasteners"))
	assert.Equal(t, "Fasteners", s.Category())

	require.NoError(t, s.Scan([]byte("ALL")))
	assert.True(t, s.IsAll())

	assert.Error(t, s.Scan(42))
}

func TestCategoryScopeJSON(t *testing.T) {
	out, err := json.Marshal(SpecificCategory("Hand Tools"))
	require.NoError(t, err)
	assert.Equal(t, `"Hand Tools"`, string(out))

	out, err = json.Marshal(AllCategories())
	require.NoError(t, err)
	assert.Equal(t, `"ALL"`, string(out))

	var s CategoryScope
	require.NoError(t, json.Unmarshal([]byte(`"ALL"`), &s))
	assert.True(t, s.IsAll())

	require.NoError(t, json.Unmarshal([]byte(`"Abrasives"`), &s))
	assert.Equal(t, "Abrasives", s.Category())
}
