package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"recall/backend/internal/extract"
	"recall/backend/pkg/errors"
)

// ============================================================================
// Content Node Upserts
// ============================================================================
//
// Each upsert runs every mutation for one item inside a single write
// transaction, so a reader never observes a primary node without its
// relationships, and a failure leaves nothing behind. MERGE-by-key keeps the
// writes idempotent and safe under concurrent indexers touching the same
// Person or Topic node.

// UpsertEmail merges the Email node, its sender/recipient Person nodes and
// its Topic links. Returns the element id of the Email node.
func (r *Repository) UpsertEmail(ctx context.Context, up EmailUpsert) (string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	nodeID, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MERGE (e:Email {id: $id})
			SET e.subject = $subject,
			    e.category = $category,
			    e.received_at = $receivedAt,
			    e.embedding = $embedding,
			    e.user_id = $userID
			RETURN elementId(e) as node_id
		`, map[string]interface{}{
			"id":         up.ID,
			"subject":    up.Subject,
			"category":   up.Category,
			"receivedAt": formatTime(up.ReceivedAt),
			"embedding":  vectorParam(up.Embedding),
			"userID":     up.UserID,
		})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		nodeID, _ := record.Get("node_id")

		if up.Sender != nil && up.Sender.Email != "" {
			if err := mergePersonEdge(ctx, tx, LabelEmail, up.ID, *up.Sender, RelSent, true); err != nil {
				return nil, err
			}
		}
		for _, recipient := range up.Recipients {
			if err := mergePersonEdge(ctx, tx, LabelEmail, up.ID, recipient, RelSentTo, false); err != nil {
				return nil, err
			}
		}
		if err := mergeTopicEdges(ctx, tx, LabelEmail, up.ID, RelMentions, up.Topics); err != nil {
			return nil, err
		}

		return nodeID, nil
	})
	if err != nil {
		return "", errors.NewGraphWriteFailed(up.ID, err)
	}

	id, _ := nodeID.(string)
	r.logger.Debug("Email node upserted",
		zap.String("email_id", up.ID),
		zap.Int("recipients", len(up.Recipients)),
		zap.Int("topics", len(up.Topics)),
	)
	return id, nil
}

// UpsertDocument merges the Document node and its Topic links.
// Returns the element id of the Document node.
func (r *Repository) UpsertDocument(ctx context.Context, up DocumentUpsert) (string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	nodeID, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MERGE (d:Document {id: $id})
			SET d.filename = $filename,
			    d.file_type = $fileType,
			    d.summary = $summary,
			    d.created_at = $createdAt,
			    d.embedding = $embedding,
			    d.user_id = $userID
			RETURN elementId(d) as node_id
		`, map[string]interface{}{
			"id":        up.ID,
			"filename":  up.Filename,
			"fileType":  up.FileType,
			"summary":   up.Summary,
			"createdAt": up.CreatedAt.UTC().Format(time.RFC3339),
			"embedding": vectorParam(up.Embedding),
			"userID":    up.UserID,
		})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		nodeID, _ := record.Get("node_id")

		if err := mergeTopicEdges(ctx, tx, LabelDocument, up.ID, RelMentions, up.Topics); err != nil {
			return nil, err
		}

		return nodeID, nil
	})
	if err != nil {
		return "", errors.NewGraphWriteFailed(up.ID, err)
	}

	id, _ := nodeID.(string)
	r.logger.Debug("Document node upserted",
		zap.String("document_id", up.ID),
		zap.Int("topics", len(up.Topics)),
	)
	return id, nil
}

// UpsertMeeting merges the Meeting node, its participant Person nodes and
// its Topic links. Returns the element id of the Meeting node.
func (r *Repository) UpsertMeeting(ctx context.Context, up MeetingUpsert) (string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	nodeID, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MERGE (m:Meeting {id: $id})
			SET m.title = $title,
			    m.summary = $summary,
			    m.meeting_date = $meetingDate,
			    m.embedding = $embedding,
			    m.user_id = $userID
			RETURN elementId(m) as node_id
		`, map[string]interface{}{
			"id":          up.ID,
			"title":       up.Title,
			"summary":     up.Summary,
			"meetingDate": formatTime(up.MeetingDate),
			"embedding":   vectorParam(up.Embedding),
			"userID":      up.UserID,
		})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		nodeID, _ := record.Get("node_id")

		for _, participant := range up.Participants {
			if err := mergePersonEdge(ctx, tx, LabelMeeting, up.ID, participant, RelAttended, true); err != nil {
				return nil, err
			}
		}
		if err := mergeTopicEdges(ctx, tx, LabelMeeting, up.ID, RelDiscusses, up.Topics); err != nil {
			return nil, err
		}

		return nodeID, nil
	})
	if err != nil {
		return "", errors.NewGraphWriteFailed(up.ID, err)
	}

	id, _ := nodeID.(string)
	r.logger.Debug("Meeting node upserted",
		zap.String("meeting_id", up.ID),
		zap.Int("participants", len(up.Participants)),
		zap.Int("topics", len(up.Topics)),
	)
	return id, nil
}

// mergePersonEdge merges a Person node keyed by lower-cased email and links
// it to a content node. COALESCE keeps the first display name ever seen so a
// truncated later identifier never clobbers a fuller one. personToItem
// controls the edge direction: Person->item (SENT, ATTENDED) or
// item->Person (SENT_TO).
func mergePersonEdge(ctx context.Context, tx neo4j.ManagedTransaction, label, itemID string, person extract.Person, relType string, personToItem bool) error {
	pattern := "(p)-[:%s]->(n)"
	if !personToItem {
		pattern = "(n)-[:%s]->(p)"
	}

	query := fmt.Sprintf(`
		MERGE (p:Person {email: $email})
		ON CREATE SET p.id = $personID
		SET p.name = COALESCE(p.name, $name)
		WITH p
		MATCH (n:%s {id: $itemID})
		MERGE `+pattern, label, relType)

	_, err := tx.Run(ctx, query, map[string]interface{}{
		"email":    person.Email,
		"name":     person.Name,
		"personID": uuid.New().String(),
		"itemID":   itemID,
	})
	return err
}

// mergeTopicEdges merges Topic nodes keyed by name and links each to the
// content node
func mergeTopicEdges(ctx context.Context, tx neo4j.ManagedTransaction, label, itemID, relType string, topics []string) error {
	for _, topic := range topics {
		if topic == "" {
			continue
		}
		query := fmt.Sprintf(`
			MERGE (t:Topic {name: $topic})
			ON CREATE SET t.id = $topicID
			WITH t
			MATCH (n:%s {id: $itemID})
			MERGE (n)-[:%s]->(t)
		`, label, relType)

		if _, err := tx.Run(ctx, query, map[string]interface{}{
			"topic":   topic,
			"topicID": uuid.New().String(),
			"itemID":  itemID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// vectorParam converts an embedding to the float64 slice the driver stores
func vectorParam(vector []float32) []float64 {
	if len(vector) == 0 {
		return nil
	}
	out := make([]float64, len(vector))
	for i, v := range vector {
		out[i] = float64(v)
	}
	return out
}

func formatTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
