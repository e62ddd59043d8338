package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"recall/backend/internal/content"
	"recall/backend/internal/graph"
)

type fakeStore struct {
	emails   map[string]*content.Email
	docs     map[string]*content.Document
	meetings map[string]*content.Meeting

	emailHits   []content.Email
	docHits     []content.Document
	meetingHits []content.Meeting

	emailSearchErr error
}

func (f *fakeStore) GetEmail(_ context.Context, _, id string) (*content.Email, error) {
	if e, ok := f.emails[id]; ok {
		return e, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeStore) GetDocument(_ context.Context, _, id string) (*content.Document, error) {
	if d, ok := f.docs[id]; ok {
		return d, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeStore) GetMeeting(_ context.Context, _, id string) (*content.Meeting, error) {
	if m, ok := f.meetings[id]; ok {
		return m, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeStore) MarkIndexed(context.Context, content.ItemType, string, string, time.Time) error {
	return nil
}

func (f *fakeStore) ListItemIDs(context.Context, string, content.ItemType) ([]string, error) {
	return nil, nil
}

func (f *fakeStore) SearchEmails(context.Context, content.SearchFilter) ([]content.Email, error) {
	return f.emailHits, f.emailSearchErr
}

func (f *fakeStore) SearchDocuments(context.Context, content.SearchFilter) ([]content.Document, error) {
	return f.docHits, nil
}

func (f *fakeStore) SearchMeetings(context.Context, content.SearchFilter) ([]content.Meeting, error) {
	return f.meetingHits, nil
}

type fakeSearcher struct {
	nodes map[content.ItemType][]graph.ScoredNode
	err   error
}

func (f *fakeSearcher) SimilaritySearch(_ context.Context, itemType content.ItemType, _ string, _ []float32, _ int) ([]graph.ScoredNode, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.nodes[itemType], nil
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeAnswerer struct {
	answer string
	err    error
	called bool
}

func (f *fakeAnswerer) Answer(context.Context, string, string) (string, error) {
	f.called = true
	return f.answer, f.err
}

func timePtr(t time.Time) *time.Time { return &t }

func newTestEngine(store *fakeStore, searcher *fakeSearcher, embed *fakeEmbedder, answerer *fakeAnswerer) *Engine {
	if store == nil {
		store = &fakeStore{}
	}
	if searcher == nil {
		searcher = &fakeSearcher{}
	}
	if embed == nil {
		embed = &fakeEmbedder{}
	}
	if answerer == nil {
		answerer = &fakeAnswerer{answer: "synthesized"}
	}
	return NewEngine(store, searcher, embed, answerer)
}

func TestQuery_SemanticPath(t *testing.T) {
	received := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{
		emails: map[string]*content.Email{
			"em-1": {
				ID:       "em-1",
				Subject:  "Q3 budget review",
				Sender:   "alice@co.com",
				BodyText: "The Q3 budget is under review, projections attached.",
				Snippet:  "The Q3 budget is under review",
			},
		},
	}
	searcher := &fakeSearcher{
		nodes: map[content.ItemType][]graph.ScoredNode{
			content.TypeEmail: {
				{ID: "em-1", Title: "Q3 budget review", Score: 0.91, Date: timePtr(received)},
			},
		},
	}
	answerer := &fakeAnswerer{answer: "Alice sent the Q3 budget for review."}
	e := newTestEngine(store, searcher, &fakeEmbedder{}, answerer)

	resp := e.Query(context.Background(), "what did alice say about the budget", "user-1", DefaultOptions())

	assert.Equal(t, "Alice sent the Q3 budget for review.", resp.Answer)
	assert.True(t, answerer.called)
	assert.Len(t, resp.Sources, 1)
	assert.Equal(t, "email", resp.Sources[0].Type)
	assert.Equal(t, "em-1", resp.Sources[0].ID)
	assert.Equal(t, "The Q3 budget is under review", resp.Sources[0].Snippet)
	assert.InDelta(t, 0.91, resp.Confidence, 1e-9)
	assert.GreaterOrEqual(t, resp.QueryTimeMs, int64(0))
}

func TestQuery_DropsMatchesAtOrBelowFloor(t *testing.T) {
	searcher := &fakeSearcher{
		nodes: map[content.ItemType][]graph.ScoredNode{
			content.TypeEmail: {
				{ID: "strong", Title: "strong", Score: 0.8},
				{ID: "floor", Title: "at floor", Score: graph.RelevanceFloor},
				{ID: "weak", Title: "weak", Score: 0.3},
			},
		},
	}
	e := newTestEngine(nil, searcher, nil, nil)

	resp := e.Query(context.Background(), "anything", "user-1", DefaultOptions())

	assert.Len(t, resp.Sources, 1)
	assert.Equal(t, "strong", resp.Sources[0].ID)
}

func TestQuery_RanksByScoreThenRecency(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	searcher := &fakeSearcher{
		nodes: map[content.ItemType][]graph.ScoredNode{
			content.TypeEmail: {
				{ID: "tie-undated", Title: "a", Score: 0.8},
				{ID: "tie-old", Title: "b", Score: 0.8, Date: timePtr(older)},
				{ID: "tie-new", Title: "c", Score: 0.8, Date: timePtr(newer)},
			},
			content.TypeDocument: {
				{ID: "top", Title: "d", Score: 0.95, Date: timePtr(older)},
			},
		},
	}
	e := newTestEngine(nil, searcher, nil, nil)

	resp := e.Query(context.Background(), "anything", "user-1", DefaultOptions())

	ids := make([]string, 0, len(resp.Sources))
	for _, s := range resp.Sources {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"top", "tie-new", "tie-old", "tie-undated"}, ids)
}

func TestQuery_NoSourcesFixedAnswer(t *testing.T) {
	answerer := &fakeAnswerer{answer: "should not be used"}
	e := newTestEngine(nil, &fakeSearcher{}, nil, answerer)

	resp := e.Query(context.Background(), "unknown topic", "user-1", DefaultOptions())

	assert.Equal(t, noInformationAnswer, resp.Answer)
	assert.Empty(t, resp.Sources)
	assert.Zero(t, resp.Confidence)
	assert.False(t, answerer.called, "zero sources must not reach the LLM")
}

func TestQuery_EmbedFailureFallsBackToLexical(t *testing.T) {
	received := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		emailHits: []content.Email{
			{ID: "em-1", Subject: "budget", Snippet: "the budget", ReceivedAt: timePtr(received)},
		},
	}
	answerer := &fakeAnswerer{answer: "should not be used"}
	e := newTestEngine(store, nil, &fakeEmbedder{err: errors.New("embedding backend down")}, answerer)

	resp := e.Query(context.Background(), "budget", "user-1", DefaultOptions())

	assert.Equal(t, "Found 1 results for 'budget'", resp.Answer)
	assert.False(t, answerer.called)
	assert.Len(t, resp.Sources, 1)
	assert.InDelta(t, fallbackScoreEmail, resp.Sources[0].RelevanceScore, 1e-9)
}

func TestQuery_SearchFailureFallsBackToLexical(t *testing.T) {
	store := &fakeStore{
		docHits: []content.Document{
			{ID: "doc-1", Filename: "plan.pdf", ContentSummary: "launch plan"},
		},
	}
	e := newTestEngine(store, &fakeSearcher{err: errors.New("graph unavailable")}, nil, nil)

	resp := e.Query(context.Background(), "plan", "user-1", DefaultOptions())

	assert.Equal(t, "Found 1 results for 'plan'", resp.Answer)
	assert.Equal(t, "document", resp.Sources[0].Type)
}

func TestQuery_AnswerFailureFallsBackToLexical(t *testing.T) {
	store := &fakeStore{
		meetingHits: []content.Meeting{
			{ID: "mt-lexical", Title: "standup notes", Summary: "daily standup"},
		},
	}
	searcher := &fakeSearcher{
		nodes: map[content.ItemType][]graph.ScoredNode{
			content.TypeMeeting: {
				{ID: "mt-semantic", Title: "standup", Score: 0.85},
			},
		},
	}
	e := newTestEngine(store, searcher, nil, &fakeAnswerer{err: errors.New("llm timeout")})

	resp := e.Query(context.Background(), "standup", "user-1", DefaultOptions())

	assert.Equal(t, "Found 1 results for 'standup'", resp.Answer)
	assert.Len(t, resp.Sources, 1)
	assert.Equal(t, "mt-lexical", resp.Sources[0].ID, "synthesis failure drops the semantic results for the lexical path")
	assert.InDelta(t, fallbackScoreMeeting, resp.Sources[0].RelevanceScore, 1e-9)
}

func TestQuery_DateRangeFilter(t *testing.T) {
	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	searcher := &fakeSearcher{
		nodes: map[content.ItemType][]graph.ScoredNode{
			content.TypeEmail: {
				{ID: "in-range", Title: "a", Score: 0.9, Date: timePtr(jun)},
				{ID: "too-early", Title: "b", Score: 0.9, Date: timePtr(jan)},
				{ID: "undated", Title: "c", Score: 0.9},
			},
		},
	}
	e := newTestEngine(nil, searcher, nil, nil)

	opts := DefaultOptions()
	opts.DateFrom = timePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	resp := e.Query(context.Background(), "anything", "user-1", opts)

	assert.Len(t, resp.Sources, 1)
	assert.Equal(t, "in-range", resp.Sources[0].ID)
}

func TestQuery_TypeFilterSkipsDisabledSearches(t *testing.T) {
	searcher := &fakeSearcher{
		nodes: map[content.ItemType][]graph.ScoredNode{
			content.TypeEmail:    {{ID: "em-1", Title: "a", Score: 0.9}},
			content.TypeDocument: {{ID: "doc-1", Title: "b", Score: 0.9}},
		},
	}
	e := newTestEngine(nil, searcher, nil, nil)

	opts := Options{IncludeDocuments: true, MaxResults: 10}
	resp := e.Query(context.Background(), "anything", "user-1", opts)

	assert.Len(t, resp.Sources, 1)
	assert.Equal(t, "doc-1", resp.Sources[0].ID)
}

func TestQuery_TruncatesToMaxResults(t *testing.T) {
	nodes := make([]graph.ScoredNode, 8)
	for i := range nodes {
		nodes[i] = graph.ScoredNode{ID: string(rune('a' + i)), Title: "t", Score: 0.9}
	}
	searcher := &fakeSearcher{nodes: map[content.ItemType][]graph.ScoredNode{content.TypeEmail: nodes}}
	e := newTestEngine(nil, searcher, nil, nil)

	opts := DefaultOptions()
	opts.MaxResults = 3
	resp := e.Query(context.Background(), "anything", "user-1", opts)

	assert.Len(t, resp.Sources, 3)
}

func TestOptionsNormalize(t *testing.T) {
	o := Options{}.normalize()
	assert.True(t, o.IncludeEmails)
	assert.True(t, o.IncludeDocuments)
	assert.True(t, o.IncludeMeetings)
	assert.Equal(t, defaultMaxResults, o.MaxResults)

	o = Options{IncludeEmails: true, MaxResults: 200}.normalize()
	assert.True(t, o.IncludeEmails)
	assert.False(t, o.IncludeDocuments)
	assert.Equal(t, maxMaxResults, o.MaxResults)
}

func TestMeanScoreClamped(t *testing.T) {
	assert.Zero(t, meanScore(nil))
	assert.InDelta(t, 0.75, meanScore([]Source{{RelevanceScore: 0.7}, {RelevanceScore: 0.8}}), 1e-9)
	assert.Equal(t, 1.0, meanScore([]Source{{RelevanceScore: 1.4}}))
}
