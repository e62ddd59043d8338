package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"recall/backend/internal/content"
	"recall/backend/internal/graph"
	"recall/backend/pkg/logger"
)

// noInformationAnswer is returned when a query has zero grounding sources.
// The engine never asks the LLM to answer without sources.
const noInformationAnswer = "I couldn't find any relevant information about that in your knowledge base."

// contextSources is how many top results feed the answer-synthesis context
const contextSources = 5

// Embedder converts the query text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher ranks one type's content nodes against a query vector
type Searcher interface {
	SimilaritySearch(ctx context.Context, itemType content.ItemType, userID string, vector []float32, limit int) ([]graph.ScoredNode, error)
}

// Answerer synthesizes an answer from a question and retrieved context
type Answerer interface {
	Answer(ctx context.Context, question, contextText string) (string, error)
}

// Engine answers free-text questions against the knowledge base: semantic
// search primary, lexical fallback when the similarity path cannot run.
type Engine struct {
	store    content.Store
	searcher Searcher
	embed    Embedder
	answerer Answerer
	logger   *zap.Logger
}

// NewEngine creates a query engine
func NewEngine(store content.Store, searcher Searcher, embed Embedder, answerer Answerer) *Engine {
	return &Engine{
		store:    store,
		searcher: searcher,
		embed:    embed,
		answerer: answerer,
		logger:   logger.Get(),
	}
}

// Query answers a question from the knowledge base. It never returns an
// error to the caller: any failure on the semantic path, whether embedding,
// similarity search or answer synthesis, degrades to lexical fallback search.
func (e *Engine) Query(ctx context.Context, text, userID string, opts Options) *Response {
	start := time.Now()
	opts = opts.normalize()

	resp, err := e.semanticQuery(ctx, text, userID, opts)
	if err != nil {
		e.logger.Warn("Semantic query failed, falling back to lexical search",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		resp = e.FallbackSearch(ctx, text, userID, opts)
	}

	resp.QueryTimeMs = time.Since(start).Milliseconds()
	return resp
}

// semanticQuery runs the primary path: embed once, per-type similarity
// searches, merge/rank/truncate, synthesize
func (e *Engine) semanticQuery(ctx context.Context, text, userID string, opts Options) (*Response, error) {
	vector, err := e.embed.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	searches := []struct {
		enabled  bool
		itemType content.ItemType
	}{
		{opts.IncludeEmails, content.TypeEmail},
		{opts.IncludeDocuments, content.TypeDocument},
		{opts.IncludeMeetings, content.TypeMeeting},
	}

	// Per-type searches are independent; run them concurrently and fail the
	// whole semantic path if any one errors
	results := make([][]Source, len(searches))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range searches {
		if !s.enabled {
			continue
		}
		i, s := i, s
		g.Go(func() error {
			nodes, err := e.searcher.SimilaritySearch(gctx, s.itemType, userID, vector, opts.MaxResults)
			if err != nil {
				return err
			}
			sources := make([]Source, 0, len(nodes))
			for _, n := range nodes {
				sources = append(sources, Source{
					Type:           string(s.itemType),
					ID:             n.ID,
					Title:          n.Title,
					RelevanceScore: n.Score,
					Date:           n.Date,
				})
			}
			results[i] = sources
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []Source
	for _, sources := range results {
		merged = append(merged, sources...)
	}
	merged = filterSources(merged, opts)
	rankSources(merged)
	if len(merged) > opts.MaxResults {
		merged = merged[:opts.MaxResults]
	}

	if len(merged) == 0 {
		return &Response{
			Answer:     noInformationAnswer,
			Sources:    []Source{},
			Confidence: 0,
		}, nil
	}

	e.fillSnippets(ctx, userID, merged)

	answer, err := e.answerer.Answer(ctx, text, e.buildContext(merged))
	if err != nil {
		return nil, err
	}

	return &Response{
		Answer:     answer,
		Sources:    merged,
		Confidence: meanScore(merged),
	}, nil
}

// filterSources drops low-similarity matches and sources outside the date
// range. Matches at or below the relevance floor are worse than no match.
func filterSources(sources []Source, opts Options) []Source {
	filtered := sources[:0]
	for _, s := range sources {
		if s.RelevanceScore <= graph.RelevanceFloor {
			continue
		}
		if opts.DateFrom != nil && (s.Date == nil || s.Date.Before(*opts.DateFrom)) {
			continue
		}
		if opts.DateTo != nil && (s.Date == nil || s.Date.After(*opts.DateTo)) {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}

// rankSources sorts by score descending; ties break by recency, most recent
// date first, dated sources before undated ones
func rankSources(sources []Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].RelevanceScore != sources[j].RelevanceScore {
			return sources[i].RelevanceScore > sources[j].RelevanceScore
		}
		di, dj := sources[i].Date, sources[j].Date
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.After(*dj)
		}
	})
}

// fillSnippets loads a short body excerpt for each returned source
func (e *Engine) fillSnippets(ctx context.Context, userID string, sources []Source) {
	for i := range sources {
		body, summary := e.lookupBody(ctx, userID, sources[i])
		snippet := summary
		if snippet == "" {
			snippet = body
		}
		sources[i].Snippet = truncate(snippet, 200)
	}
}

// buildContext assembles the answer-synthesis context from the top results
func (e *Engine) buildContext(sources []Source) string {
	var parts []string
	for _, s := range sources {
		if len(parts) == contextSources {
			break
		}
		label := strings.ToUpper(s.Type[:1]) + s.Type[1:]
		parts = append(parts, fmt.Sprintf("%s: %s\n%s", label, s.Title, truncate(s.Snippet, 500)))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// lookupBody fetches a source's body and summary from the relational store.
// Best-effort: a miss just leaves the snippet empty.
func (e *Engine) lookupBody(ctx context.Context, userID string, s Source) (body, summary string) {
	switch content.ItemType(s.Type) {
	case content.TypeEmail:
		if email, err := e.store.GetEmail(ctx, userID, s.ID); err == nil {
			return email.BodyText, email.Snippet
		}
	case content.TypeDocument:
		if doc, err := e.store.GetDocument(ctx, userID, s.ID); err == nil {
			return doc.ContentText, doc.ContentSummary
		}
	case content.TypeMeeting:
		if meeting, err := e.store.GetMeeting(ctx, userID, s.ID); err == nil {
			return meeting.Transcript, meeting.Summary
		}
	}
	return "", ""
}

// meanScore is the mean relevance of the sources, clamped to [0,1]
func meanScore(sources []Source) float64 {
	if len(sources) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sources {
		sum += s.RelevanceScore
	}
	mean := sum / float64(len(sources))
	if mean < 0 {
		return 0
	}
	if mean > 1 {
		return 1
	}
	return mean
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
