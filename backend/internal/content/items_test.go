package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestItemTypeValid(t *testing.T) {
	assert.True(t, TypeEmail.Valid())
	assert.True(t, TypeDocument.Valid())
	assert.True(t, TypeMeeting.Valid())
	assert.False(t, ItemType("podcast").Valid())
	assert.False(t, ItemType("").Valid())
}

func TestEmailProject(t *testing.T) {
	received := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	email := Email{
		ID:         "em-1",
		UserID:     "user-1",
		Subject:    "Q3 budget",
		BodyText:   "numbers attached",
		ReceivedAt: &received,
	}

	item := email.Project()
	assert.Equal(t, TypeEmail, item.Type)
	assert.Equal(t, "Q3 budget", item.Title)
	assert.Equal(t, "numbers attached", item.Body)
	assert.Equal(t, &received, item.Date)
	assert.False(t, item.Indexed)

	email.IndexedAt = &received
	assert.True(t, email.Project().Indexed)
}

func TestDocumentProject(t *testing.T) {
	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	doc := Document{
		ID:          "doc-1",
		Filename:    "plan.pdf",
		ContentText: "the plan",
		CreatedAt:   created,
	}

	item := doc.Project()
	assert.Equal(t, TypeDocument, item.Type)
	assert.Equal(t, "plan.pdf", item.Title)
	assert.NotNil(t, item.Date)
	assert.Equal(t, created, *item.Date)
}

func TestMeetingProject(t *testing.T) {
	meeting := Meeting{
		ID:         "mt-1",
		Title:      "planning sync",
		Transcript: "we talked",
		Summary:    "a summary",
	}

	item := meeting.Project()
	assert.Equal(t, TypeMeeting, item.Type)
	assert.Equal(t, "we talked a summary", item.Body)
	assert.Nil(t, item.Date)
	assert.False(t, item.Indexed)

	// A graph node id from an earlier run counts as indexed even without
	// a marker timestamp
	meeting.GraphNodeID = "node-1"
	assert.True(t, meeting.Project().Indexed)
}

func TestTableFor(t *testing.T) {
	table, ok := tableFor(TypeEmail)
	assert.True(t, ok)
	assert.Equal(t, "emails", table)

	table, ok = tableFor(TypeMeeting)
	assert.True(t, ok)
	assert.Equal(t, "meetings", table)

	_, ok = tableFor(ItemType("podcast"))
	assert.False(t, ok)
}

func TestAppendDateRange(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	query, args := appendDateRange("SELECT 1 WHERE a = $1", []interface{}{"x"}, "received_at", &from, &to)
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND received_at >= $2 AND received_at <= $3", query)
	assert.Len(t, args, 3)

	query, args = appendDateRange("SELECT 1 WHERE a = $1", []interface{}{"x"}, "received_at", nil, nil)
	assert.Equal(t, "SELECT 1 WHERE a = $1", query)
	assert.Len(t, args, 1)
}

func TestSearchLimit(t *testing.T) {
	assert.Equal(t, 10, searchLimit(0))
	assert.Equal(t, 10, searchLimit(-5))
	assert.Equal(t, 25, searchLimit(25))
}
