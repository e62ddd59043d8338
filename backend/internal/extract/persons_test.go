package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress_NameAndEmail(t *testing.T) {
	p := ParseAddress("Alice Johnson <Alice@Co.com>")
	assert.Equal(t, "alice@co.com", p.Email)
	assert.Equal(t, "Alice Johnson", p.Name)
}

func TestParseAddress_BareEmail(t *testing.T) {
	p := ParseAddress("BOB@example.org")
	assert.Equal(t, "bob@example.org", p.Email)
	assert.Equal(t, "bob", p.Name)
}

func TestParseAddress_QuotedName(t *testing.T) {
	p := ParseAddress(`"Carol Danvers" <carol@co.com>`)
	assert.Equal(t, "carol@co.com", p.Email)
	assert.Equal(t, "Carol Danvers", p.Name)
}

func TestParseAddress_WhitespaceAndCase(t *testing.T) {
	p := ParseAddress("  Dave <  DAVE@CO.COM >  ")
	assert.Equal(t, "dave@co.com", p.Email)
	assert.Equal(t, "Dave", p.Name)
}

func TestParseAddress_RawIdentifier(t *testing.T) {
	// Meeting participants may be raw identifiers with no @ at all
	p := ParseAddress("conference-room-3")
	assert.Equal(t, "conference-room-3", p.Email)
	assert.Equal(t, "conference-room-3", p.Name)
}

func TestParseAddresses_DedupesByEmail(t *testing.T) {
	persons := ParseAddresses([]string{
		"Alice Johnson <alice@co.com>",
		"alice@co.com",
		"",
		"bob@co.com",
	})

	assert.Len(t, persons, 2)
	assert.Equal(t, "alice@co.com", persons[0].Email)
	// The first-seen fuller display name wins
	assert.Equal(t, "Alice Johnson", persons[0].Name)
	assert.Equal(t, "bob@co.com", persons[1].Email)
}
