package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]Role{
		"verwaltung":        Verwaltung,
		" Gruppenleitung ":  Gruppenleitung,
		"STANDORTLEITUNG":   Standortleitung,
		"kuechenpersonal\n": Kuechenpersonal,
	}
	for raw, want := range cases {
		got, err := Parse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	_, err := Parse("hausmeister")
	assert.ErrorIs(t, err, ErrUnknownRole)

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestLanding(t *testing.T) {
	assert.Equal(t, "/verwaltung/benutzer/uebersicht", Verwaltung.Landing())
	assert.Equal(t, "/gruppenleitung", Gruppenleitung.Landing())
	assert.Equal(t, "/standortleitung", Standortleitung.Landing())
	assert.Equal(t, "/kuechenpersonal", Kuechenpersonal.Landing())
	assert.Equal(t, "/login", Role("gast").Landing())
}

func TestAllAreValid(t *testing.T) {
	all := All()
	assert.Len(t, all, 4)
	for _, r := range all {
		assert.True(t, r.Valid())
		assert.NotEmpty(t, r.Label())
	}
	assert.Equal(t, "Küchenpersonal", Kuechenpersonal.Label())
}
