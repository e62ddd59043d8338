package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"recall/backend/pkg/errors"
)

// ============================================================================
// Visualization
// ============================================================================

var knownLabels = map[string]bool{
	LabelEmail:    true,
	LabelDocument: true,
	LabelMeeting:  true,
	LabelPerson:   true,
	LabelTopic:    true,
}

// GraphData dumps a user's nodes and relationships for visualization.
// nodeType optionally restricts nodes to one label.
func (r *Repository) GraphData(ctx context.Context, userID, nodeType string, limit int) (*Payload, error) {
	if nodeType != "" && !knownLabels[nodeType] {
		return nil, errors.NewGraphQueryFailed(nodeType, fmt.Errorf("unknown node type"))
	}
	if limit < 1 {
		limit = 50
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	nodeQuery := `MATCH (n) WHERE n.user_id = $userID`
	if nodeType != "" {
		nodeQuery += fmt.Sprintf(" AND n:%s", nodeType)
	}
	nodeQuery += `
		RETURN labels(n)[0] as type, n.id as id,
		       COALESCE(n.name, n.title, n.subject, n.filename) as name,
		       properties(n) as properties
		LIMIT $limit
	`

	result, err := session.Run(ctx, nodeQuery, map[string]interface{}{
		"userID": userID,
		"limit":  limit,
	})
	if err != nil {
		return nil, errors.NewGraphQueryFailed("nodes", err)
	}

	payload := &Payload{
		Nodes:         []Node{},
		Relationships: []Relationship{},
	}

	for result.Next(ctx) {
		record := result.Record()
		props := getMapFromRecord(record, "properties")
		// Embeddings are large and useless in a visualization payload
		delete(props, "embedding")
		payload.Nodes = append(payload.Nodes, Node{
			ID:         getStringFromRecord(record, "id"),
			Type:       getStringFromRecord(record, "type"),
			Name:       getStringFromRecord(record, "name"),
			Properties: props,
		})
	}
	if err := result.Err(); err != nil {
		return nil, errors.NewGraphQueryFailed("nodes", err)
	}

	relQuery := `
		MATCH (a)-[r]->(b)
		WHERE a.user_id = $userID OR b.user_id = $userID
		RETURN a.id as source, b.id as target, type(r) as type,
		       properties(r) as properties
		LIMIT $limit
	`

	relResult, err := session.Run(ctx, relQuery, map[string]interface{}{
		"userID": userID,
		"limit":  limit * 2,
	})
	if err != nil {
		return nil, errors.NewGraphQueryFailed("relationships", err)
	}

	for relResult.Next(ctx) {
		record := relResult.Record()
		payload.Relationships = append(payload.Relationships, Relationship{
			SourceID:   getStringFromRecord(record, "source"),
			TargetID:   getStringFromRecord(record, "target"),
			Type:       getStringFromRecord(record, "type"),
			Properties: getMapFromRecord(record, "properties"),
		})
	}
	if err := relResult.Err(); err != nil {
		return nil, errors.NewGraphQueryFailed("relationships", err)
	}

	return payload, nil
}
