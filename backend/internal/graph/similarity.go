package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"recall/backend/internal/content"
	"recall/backend/pkg/errors"
)

// ============================================================================
// Similarity Search
// ============================================================================

// labelSpec maps an item type to its node label and property names
type labelSpec struct {
	label     string
	titleProp string
	dateProp  string
}

func specFor(itemType content.ItemType) (labelSpec, error) {
	switch itemType {
	case content.TypeEmail:
		return labelSpec{LabelEmail, "subject", "received_at"}, nil
	case content.TypeDocument:
		return labelSpec{LabelDocument, "filename", "created_at"}, nil
	case content.TypeMeeting:
		return labelSpec{LabelMeeting, "title", "meeting_date"}, nil
	}
	return labelSpec{}, fmt.Errorf("unknown item type %q", itemType)
}

// SimilaritySearch ranks one type's content nodes by cosine similarity to
// the query vector, restricted to the user, keeping only scores above
// RelevanceFloor and at most limit results.
//
// Cosine is computed in plain Cypher so a stock Neo4j works without the
// GDS plugin.
func (r *Repository) SimilaritySearch(ctx context.Context, itemType content.ItemType, userID string, vector []float32, limit int) ([]ScoredNode, error) {
	spec, err := specFor(itemType)
	if err != nil {
		return nil, errors.NewGraphQueryFailed(string(itemType), err)
	}
	if limit < 1 {
		limit = 10
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (n:%s)
		WHERE n.user_id = $userID AND n.embedding IS NOT NULL
		  AND size(n.embedding) = size($embedding)
		WITH n,
		     reduce(dot = 0.0, i IN range(0, size(n.embedding)-1) | dot + n.embedding[i] * $embedding[i]) AS dot,
		     sqrt(reduce(s = 0.0, x IN n.embedding | s + x * x)) AS normA,
		     sqrt(reduce(s = 0.0, x IN $embedding | s + x * x)) AS normB
		WITH n, CASE WHEN normA = 0.0 OR normB = 0.0 THEN 0.0 ELSE dot / (normA * normB) END AS score
		WHERE score > $floor
		RETURN n.id as id, n.%s as title, score, n.%s as date
		ORDER BY score DESC
		LIMIT $limit
	`, spec.label, spec.titleProp, spec.dateProp)

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID":    userID,
		"embedding": vectorParam(vector),
		"floor":     RelevanceFloor,
		"limit":     limit,
	})
	if err != nil {
		return nil, errors.NewGraphQueryFailed(spec.label, err)
	}

	var nodes []ScoredNode
	for result.Next(ctx) {
		record := result.Record()
		nodes = append(nodes, ScoredNode{
			ID:    getStringFromRecord(record, "id"),
			Title: getStringFromRecord(record, "title"),
			Score: getFloat64FromRecord(record, "score"),
			Date:  getTimeFromRecord(record, "date"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, errors.NewGraphQueryFailed(spec.label, err)
	}

	return nodes, nil
}

// getTimeFromRecord parses a node date property, which is stored as an
// RFC3339 string and may be absent
func getTimeFromRecord(record *neo4j.Record, key string) *time.Time {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	switch v := val.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return &t
		}
	case time.Time:
		return &v
	}
	return nil
}
