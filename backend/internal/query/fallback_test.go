package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"recall/backend/internal/content"
)

func TestFallbackSearch_ZeroMatches(t *testing.T) {
	e := newTestEngine(&fakeStore{}, nil, nil, nil)

	resp := e.FallbackSearch(context.Background(), "nothing here", "user-1", DefaultOptions())

	assert.Equal(t, "Found 0 results for 'nothing here'", resp.Answer)
	assert.Empty(t, resp.Sources)
	assert.Zero(t, resp.Confidence)
}

func TestFallbackSearch_FixedScoresAndRanking(t *testing.T) {
	meetingDate := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		emailHits: []content.Email{
			{ID: "em-1", Subject: "budget update", Snippet: "numbers"},
		},
		docHits: []content.Document{
			{ID: "doc-1", Filename: "budget.xlsx", ContentText: "spreadsheet", CreatedAt: meetingDate},
		},
		meetingHits: []content.Meeting{
			{ID: "mt-1", Title: "budget sync", Summary: "discussed budget", MeetingDate: &meetingDate},
		},
	}
	e := newTestEngine(store, nil, nil, nil)

	resp := e.FallbackSearch(context.Background(), "budget", "user-1", DefaultOptions())

	assert.Equal(t, "Found 3 results for 'budget'", resp.Answer)
	assert.Len(t, resp.Sources, 3)

	// Email and meeting share the top fixed score; the document ranks last
	assert.Equal(t, "doc-1", resp.Sources[2].ID)
	assert.InDelta(t, fallbackScoreDocument, resp.Sources[2].RelevanceScore, 1e-9)
	for _, s := range resp.Sources[:2] {
		assert.InDelta(t, fallbackScoreEmail, s.RelevanceScore, 1e-9)
	}

	want := (fallbackScoreEmail + fallbackScoreMeeting + fallbackScoreDocument) / 3
	assert.InDelta(t, want, resp.Confidence, 1e-9)
}

func TestFallbackSearch_EmailWithoutSubject(t *testing.T) {
	store := &fakeStore{
		emailHits: []content.Email{
			{ID: "em-1", BodyText: "an unsubjected message about budget"},
		},
	}
	e := newTestEngine(store, nil, nil, nil)

	resp := e.FallbackSearch(context.Background(), "budget", "user-1", DefaultOptions())

	assert.Equal(t, "No Subject", resp.Sources[0].Title)
	assert.Equal(t, "an unsubjected message about budget", resp.Sources[0].Snippet)
}

func TestFallbackSearch_PartialStoreFailure(t *testing.T) {
	store := &fakeStore{
		emailSearchErr: errors.New("pool exhausted"),
		docHits: []content.Document{
			{ID: "doc-1", Filename: "notes.txt", ContentSummary: "notes"},
		},
	}
	e := newTestEngine(store, nil, nil, nil)

	resp := e.FallbackSearch(context.Background(), "notes", "user-1", DefaultOptions())

	assert.Equal(t, "Found 1 results for 'notes'", resp.Answer)
	assert.Equal(t, "doc-1", resp.Sources[0].ID)
}

func TestFallbackSearch_RespectsTypeFilter(t *testing.T) {
	store := &fakeStore{
		emailHits:   []content.Email{{ID: "em-1", Subject: "a"}},
		meetingHits: []content.Meeting{{ID: "mt-1", Title: "b"}},
	}
	e := newTestEngine(store, nil, nil, nil)

	resp := e.FallbackSearch(context.Background(), "x", "user-1", Options{IncludeMeetings: true, MaxResults: 10})

	assert.Len(t, resp.Sources, 1)
	assert.Equal(t, "mt-1", resp.Sources[0].ID)
}
