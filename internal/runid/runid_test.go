package runid

import (
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	id, err := New()
	require.NoError(t, err)
	assert.Len(t, id, Length)
	for _, c := range id {
		assert.True(t, strings.ContainsRune(alphabet, c), "unexpected character %q", c)
	}

	u, err := Decode(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), u.Version())
}

func TestRoundTrip(t *testing.T) {
	u := uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8057")
	id := Encode(u)

	got, err := Decode(id)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	got, err = Decode(strings.ToUpper(id))
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestIDsSortByCreation(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		id, err := New()
		require.NoError(t, err)
		ids[i] = id
	}
	assert.True(t, slices.IsSorted(ids))

	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("short")
	assert.Error(t, err)

	_, err = Decode(strings.Repeat("u", Length)) // u is not in the alphabet
	assert.Error(t, err)
}
