package indexer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"recall/backend/internal/content"
	"recall/backend/internal/extract"
	"recall/backend/internal/graph"
	"recall/backend/pkg/errors"
	"recall/backend/pkg/logger"
)

// maxEmbedChars bounds how much of an item's text is embedded, to bound cost
const maxEmbedChars = 5000

// maxTopicChars bounds how much text the topic extractor sees
const maxTopicChars = 2000

// Status reports the outcome of one index attempt
type Status string

const (
	// StatusIndexed means the item was embedded, linked and marked indexed
	StatusIndexed Status = "indexed"
	// StatusSkipped means the item was already indexed and nothing was written
	StatusSkipped Status = "skipped"
	// StatusFailed means the attempt failed and the item's marker is unset
	StatusFailed Status = "failed"
)

// Embedder converts text into a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TopicExtractor derives 3-5 topic strings from text
type TopicExtractor interface {
	ExtractTopics(ctx context.Context, text string) ([]string, error)
}

// GraphStore persists one item's node and relationships as a unit
type GraphStore interface {
	UpsertEmail(ctx context.Context, up graph.EmailUpsert) (string, error)
	UpsertDocument(ctx context.Context, up graph.DocumentUpsert) (string, error)
	UpsertMeeting(ctx context.Context, up graph.MeetingUpsert) (string, error)
}

// Options controls one index attempt
type Options struct {
	// Force re-indexes an item whose marker is already set. The marker is
	// never reset on content edits, so this is the only way to re-embed.
	Force bool
}

// Indexer turns content items into embedded, graph-linked knowledge base
// entries. Safe for concurrent use; idempotency comes from the indexed
// marker and the graph store's merge-by-key upserts.
type Indexer struct {
	store  content.Store
	graph  GraphStore
	embed  Embedder
	topics TopicExtractor
	logger *zap.Logger

	// concurrency bounds parallel item indexing during ReindexAll
	concurrency int
}

// New creates an indexer
func New(store content.Store, graphStore GraphStore, embed Embedder, topics TopicExtractor, concurrency int) *Indexer {
	if concurrency < 1 {
		concurrency = 4
	}
	return &Indexer{
		store:       store,
		graph:       graphStore,
		embed:       embed,
		topics:      topics,
		logger:      logger.Get(),
		concurrency: concurrency,
	}
}

// IndexItem indexes one content item by type and id
func (ix *Indexer) IndexItem(ctx context.Context, itemType content.ItemType, id, userID string, opts Options) (Status, error) {
	switch itemType {
	case content.TypeEmail:
		return ix.IndexEmail(ctx, id, userID, opts)
	case content.TypeDocument:
		return ix.IndexDocument(ctx, id, userID, opts)
	case content.TypeMeeting:
		return ix.IndexMeeting(ctx, id, userID, opts)
	}
	return StatusFailed, errors.NewStoreQueryFailed("index item", fmt.Errorf("unknown item type %q", itemType))
}

// IndexEmail indexes one email in the knowledge graph
func (ix *Indexer) IndexEmail(ctx context.Context, id, userID string, opts Options) (Status, error) {
	email, err := ix.store.GetEmail(ctx, userID, id)
	if err != nil {
		return StatusFailed, err
	}
	if email.BodyText == "" && email.BodyHTML != "" {
		email.BodyText = extract.HTMLText(email.BodyHTML)
	}

	item := email.Project()
	if alreadyIndexed(item, opts) {
		ix.logger.Debug("Email already indexed, skipping", zap.String("email_id", id))
		return StatusSkipped, nil
	}

	text := indexableText(item)
	if text == "" {
		return StatusFailed, errors.NewMalformedItem(string(item.Type), id)
	}

	vector, err := ix.embed.Embed(ctx, truncate(text, maxEmbedChars))
	if err != nil {
		return StatusFailed, err
	}

	up := graph.EmailUpsert{
		ID:         email.ID,
		UserID:     userID,
		Subject:    email.Subject,
		Category:   email.Category,
		ReceivedAt: email.ReceivedAt,
		Embedding:  vector,
		Recipients: extract.ParseAddresses(email.Recipients),
		Topics:     ix.extractTopics(ctx, text),
	}
	if email.Sender != "" {
		sender := extract.ParseAddress(email.Sender)
		up.Sender = &sender
	}

	nodeID, err := ix.graph.UpsertEmail(ctx, up)
	if err != nil {
		return StatusFailed, err
	}

	if err := ix.store.MarkIndexed(ctx, content.TypeEmail, id, nodeID, time.Now().UTC()); err != nil {
		return StatusFailed, err
	}

	ix.logger.Info("Email indexed",
		zap.String("email_id", id),
		zap.String("node_id", nodeID),
	)
	return StatusIndexed, nil
}

// IndexDocument indexes one document in the knowledge graph
func (ix *Indexer) IndexDocument(ctx context.Context, id, userID string, opts Options) (Status, error) {
	doc, err := ix.store.GetDocument(ctx, userID, id)
	if err != nil {
		return StatusFailed, err
	}
	item := doc.Project()
	if alreadyIndexed(item, opts) {
		ix.logger.Debug("Document already indexed, skipping", zap.String("document_id", id))
		return StatusSkipped, nil
	}

	// Empty documents are not indexed; the filename alone is not content
	if strings.TrimSpace(item.Body) == "" {
		return StatusFailed, errors.NewMalformedItem(string(item.Type), id)
	}

	vector, err := ix.embed.Embed(ctx, truncate(item.Body, maxEmbedChars))
	if err != nil {
		return StatusFailed, err
	}

	nodeID, err := ix.graph.UpsertDocument(ctx, graph.DocumentUpsert{
		ID:        doc.ID,
		UserID:    userID,
		Filename:  doc.Filename,
		FileType:  doc.FileType,
		Summary:   doc.ContentSummary,
		CreatedAt: doc.CreatedAt,
		Embedding: vector,
		Topics:    ix.extractTopics(ctx, item.Body),
	})
	if err != nil {
		return StatusFailed, err
	}

	if err := ix.store.MarkIndexed(ctx, content.TypeDocument, id, nodeID, time.Now().UTC()); err != nil {
		return StatusFailed, err
	}

	ix.logger.Info("Document indexed",
		zap.String("document_id", id),
		zap.String("node_id", nodeID),
	)
	return StatusIndexed, nil
}

// IndexMeeting indexes one meeting in the knowledge graph
func (ix *Indexer) IndexMeeting(ctx context.Context, id, userID string, opts Options) (Status, error) {
	meeting, err := ix.store.GetMeeting(ctx, userID, id)
	if err != nil {
		return StatusFailed, err
	}
	item := meeting.Project()
	if alreadyIndexed(item, opts) {
		ix.logger.Debug("Meeting already indexed, skipping", zap.String("meeting_id", id))
		return StatusSkipped, nil
	}

	text := indexableText(item)
	if text == "" {
		return StatusFailed, errors.NewMalformedItem(string(item.Type), id)
	}

	vector, err := ix.embed.Embed(ctx, truncate(text, maxEmbedChars))
	if err != nil {
		return StatusFailed, err
	}

	// Meetings carry curated topics from summarization; fall back to
	// extraction only when none were stored
	topics := meeting.Topics
	if len(topics) == 0 {
		topics = ix.extractTopics(ctx, text)
	}

	nodeID, err := ix.graph.UpsertMeeting(ctx, graph.MeetingUpsert{
		ID:           meeting.ID,
		UserID:       userID,
		Title:        meeting.Title,
		Summary:      meeting.Summary,
		MeetingDate:  meeting.MeetingDate,
		Embedding:    vector,
		Participants: extract.ParseAddresses(meeting.Participants),
		Topics:       topics,
	})
	if err != nil {
		return StatusFailed, err
	}

	if err := ix.store.MarkIndexed(ctx, content.TypeMeeting, id, nodeID, time.Now().UTC()); err != nil {
		return StatusFailed, err
	}

	ix.logger.Info("Meeting indexed",
		zap.String("meeting_id", id),
		zap.String("node_id", nodeID),
	)
	return StatusIndexed, nil
}

// alreadyIndexed is the shared skip rule over an item's uniform projection
func alreadyIndexed(item content.Item, opts Options) bool {
	return item.Indexed && !opts.Force
}

// indexableText flattens a projection into the text that gets embedded and
// topic-mined. An item with no indexable text is malformed.
func indexableText(item content.Item) string {
	return strings.TrimSpace(item.Title + " " + item.Body)
}

// extractTopics is best-effort: topics are an enrichment, so any failure
// yields an empty list rather than failing the index operation
func (ix *Indexer) extractTopics(ctx context.Context, text string) []string {
	topics, err := ix.topics.ExtractTopics(ctx, truncate(text, maxTopicChars))
	if err != nil {
		ix.logger.Warn("Topic extraction failed, continuing without topics", zap.Error(err))
		return nil
	}
	return topics
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
