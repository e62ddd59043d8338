package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"recall/backend/internal/content"
)

// Fixed relevance scores for lexical hits, deliberately near the semantic
// floor to signal reduced confidence
const (
	fallbackScoreEmail    = 0.7
	fallbackScoreMeeting  = 0.7
	fallbackScoreDocument = 0.6
)

// FallbackSearch answers a query with case-insensitive substring search
// against the relational store, used when the semantic path cannot run.
// It is total: per-type store errors are logged and skipped, and zero
// matches yield an explicit empty-result answer, never an error.
func (e *Engine) FallbackSearch(ctx context.Context, text, userID string, opts Options) *Response {
	opts = opts.normalize()

	filter := content.SearchFilter{
		UserID:   userID,
		Query:    text,
		DateFrom: opts.DateFrom,
		DateTo:   opts.DateTo,
		Limit:    opts.MaxResults,
	}

	sources := []Source{}

	if opts.IncludeEmails {
		emails, err := e.store.SearchEmails(ctx, filter)
		if err != nil {
			e.logger.Warn("Fallback email search failed", zap.Error(err))
		}
		for _, email := range emails {
			title := email.Subject
			if title == "" {
				title = "No Subject"
			}
			snippet := email.Snippet
			if snippet == "" {
				snippet = truncate(email.BodyText, 200)
			}
			sources = append(sources, Source{
				Type:           string(content.TypeEmail),
				ID:             email.ID,
				Title:          title,
				Snippet:        snippet,
				RelevanceScore: fallbackScoreEmail,
				Date:           email.ReceivedAt,
			})
		}
	}

	if opts.IncludeDocuments {
		docs, err := e.store.SearchDocuments(ctx, filter)
		if err != nil {
			e.logger.Warn("Fallback document search failed", zap.Error(err))
		}
		for _, doc := range docs {
			created := doc.CreatedAt
			snippet := doc.ContentSummary
			if snippet == "" {
				snippet = truncate(doc.ContentText, 200)
			}
			sources = append(sources, Source{
				Type:           string(content.TypeDocument),
				ID:             doc.ID,
				Title:          doc.Filename,
				Snippet:        snippet,
				RelevanceScore: fallbackScoreDocument,
				Date:           &created,
			})
		}
	}

	if opts.IncludeMeetings {
		meetings, err := e.store.SearchMeetings(ctx, filter)
		if err != nil {
			e.logger.Warn("Fallback meeting search failed", zap.Error(err))
		}
		for _, meeting := range meetings {
			snippet := meeting.Summary
			if snippet == "" {
				snippet = truncate(meeting.Transcript, 200)
			}
			sources = append(sources, Source{
				Type:           string(content.TypeMeeting),
				ID:             meeting.ID,
				Title:          meeting.Title,
				Snippet:        snippet,
				RelevanceScore: fallbackScoreMeeting,
				Date:           meeting.MeetingDate,
			})
		}
	}

	rankSources(sources)
	if len(sources) > opts.MaxResults {
		sources = sources[:opts.MaxResults]
	}

	// Literal enumeration, no LLM call on this path
	return &Response{
		Answer:     fmt.Sprintf("Found %d results for '%s'", len(sources), text),
		Sources:    sources,
		Confidence: meanScore(sources),
	}
}
