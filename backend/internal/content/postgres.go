package content

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"recall/backend/pkg/errors"
	"recall/backend/pkg/logger"
)

// PostgresStore implements Store against the relational content database.
// It is read-only except for the indexed marker columns.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects a store to an existing connection pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logger.Get(),
	}
}

// Connect opens a pgx pool for the given database URL
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// GetEmail loads one email owned by the user
func (s *PostgresStore) GetEmail(ctx context.Context, userID, id string) (*Email, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT e.id, a.user_id, COALESCE(e.subject, ''), e.sender,
		       COALESCE(e.recipients, '{}'), COALESCE(e.body_text, ''),
		       COALESCE(e.body_html, ''), COALESCE(e.snippet, ''),
		       COALESCE(e.category, ''), e.received_at, e.indexed_at,
		       COALESCE(e.graph_node_id, '')
		FROM emails e
		JOIN email_accounts a ON a.id = e.account_id
		WHERE e.id = $1 AND a.user_id = $2`,
		id, userID)

	var e Email
	err := row.Scan(&e.ID, &e.UserID, &e.Subject, &e.Sender, &e.Recipients,
		&e.BodyText, &e.BodyHTML, &e.Snippet, &e.Category,
		&e.ReceivedAt, &e.IndexedAt, &e.GraphNodeID)
	if err == pgx.ErrNoRows {
		return nil, errors.NewItemNotFound(string(TypeEmail), id)
	}
	if err != nil {
		return nil, errors.NewStoreQueryFailed("get email", err)
	}
	return &e, nil
}

// GetDocument loads one document owned by the user
func (s *PostgresStore) GetDocument(ctx context.Context, userID, id string) (*Document, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, filename, COALESCE(file_type, ''),
		       COALESCE(content_text, ''), COALESCE(content_summary, ''),
		       created_at, indexed_at, COALESCE(graph_node_id, '')
		FROM documents
		WHERE id = $1 AND user_id = $2`,
		id, userID)

	var d Document
	err := row.Scan(&d.ID, &d.UserID, &d.Filename, &d.FileType,
		&d.ContentText, &d.ContentSummary, &d.CreatedAt, &d.IndexedAt, &d.GraphNodeID)
	if err == pgx.ErrNoRows {
		return nil, errors.NewItemNotFound(string(TypeDocument), id)
	}
	if err != nil {
		return nil, errors.NewStoreQueryFailed("get document", err)
	}
	return &d, nil
}

// GetMeeting loads one meeting owned by the user
func (s *PostgresStore) GetMeeting(ctx context.Context, userID, id string) (*Meeting, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, title, COALESCE(transcript, ''), COALESCE(summary, ''),
		       COALESCE(participants, '{}'), COALESCE(topics, '{}'),
		       meeting_date, indexed_at, COALESCE(graph_node_id, '')
		FROM meetings
		WHERE id = $1 AND user_id = $2`,
		id, userID)

	var m Meeting
	err := row.Scan(&m.ID, &m.UserID, &m.Title, &m.Transcript, &m.Summary,
		&m.Participants, &m.Topics, &m.MeetingDate, &m.IndexedAt, &m.GraphNodeID)
	if err == pgx.ErrNoRows {
		return nil, errors.NewItemNotFound(string(TypeMeeting), id)
	}
	if err != nil {
		return nil, errors.NewStoreQueryFailed("get meeting", err)
	}
	return &m, nil
}

// MarkIndexed persists the indexed marker and graph node id for an item
func (s *PostgresStore) MarkIndexed(ctx context.Context, itemType ItemType, id, graphNodeID string, at time.Time) error {
	table, ok := tableFor(itemType)
	if !ok {
		return errors.NewStoreQueryFailed("mark indexed", fmt.Errorf("unknown item type %q", itemType))
	}

	query := fmt.Sprintf(`UPDATE %s SET indexed_at = $1, graph_node_id = $2 WHERE id = $3`, table)
	tag, err := s.pool.Exec(ctx, query, at, graphNodeID, id)
	if err != nil {
		return errors.NewStoreQueryFailed("mark indexed", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewItemNotFound(string(itemType), id)
	}

	s.logger.Debug("Item marked indexed",
		zap.String("item_type", string(itemType)),
		zap.String("item_id", id),
		zap.String("graph_node_id", graphNodeID),
	)
	return nil
}

// ListItemIDs enumerates a user's item ids of one type
func (s *PostgresStore) ListItemIDs(ctx context.Context, userID string, itemType ItemType) ([]string, error) {
	var query string
	switch itemType {
	case TypeEmail:
		query = `SELECT e.id FROM emails e JOIN email_accounts a ON a.id = e.account_id WHERE a.user_id = $1`
	case TypeDocument:
		query = `SELECT id FROM documents WHERE user_id = $1`
	case TypeMeeting:
		query = `SELECT id FROM meetings WHERE user_id = $1`
	default:
		return nil, errors.NewStoreQueryFailed("list items", fmt.Errorf("unknown item type %q", itemType))
	}

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, errors.NewStoreQueryFailed("list items", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewStoreQueryFailed("list items", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreQueryFailed("list items", err)
	}
	return ids, nil
}

// SearchEmails does a case-insensitive substring match over subject and body
func (s *PostgresStore) SearchEmails(ctx context.Context, f SearchFilter) ([]Email, error) {
	query := `
		SELECT e.id, a.user_id, COALESCE(e.subject, ''), e.sender,
		       COALESCE(e.recipients, '{}'), COALESCE(e.body_text, ''),
		       COALESCE(e.body_html, ''), COALESCE(e.snippet, ''),
		       COALESCE(e.category, ''), e.received_at, e.indexed_at,
		       COALESCE(e.graph_node_id, '')
		FROM emails e
		JOIN email_accounts a ON a.id = e.account_id
		WHERE a.user_id = $1
		  AND (e.subject ILIKE $2 OR e.body_text ILIKE $2)`
	args := []interface{}{f.UserID, "%" + f.Query + "%"}
	query, args = appendDateRange(query, args, "e.received_at", f.DateFrom, f.DateTo)
	query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
	args = append(args, searchLimit(f.Limit))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStoreQueryFailed("search emails", err)
	}
	defer rows.Close()

	var results []Email
	for rows.Next() {
		var e Email
		if err := rows.Scan(&e.ID, &e.UserID, &e.Subject, &e.Sender, &e.Recipients,
			&e.BodyText, &e.BodyHTML, &e.Snippet, &e.Category,
			&e.ReceivedAt, &e.IndexedAt, &e.GraphNodeID); err != nil {
			return nil, errors.NewStoreQueryFailed("search emails", err)
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// SearchDocuments does a case-insensitive substring match over filename and content
func (s *PostgresStore) SearchDocuments(ctx context.Context, f SearchFilter) ([]Document, error) {
	query := `
		SELECT id, user_id, filename, COALESCE(file_type, ''),
		       COALESCE(content_text, ''), COALESCE(content_summary, ''),
		       created_at, indexed_at, COALESCE(graph_node_id, '')
		FROM documents
		WHERE user_id = $1
		  AND (filename ILIKE $2 OR content_text ILIKE $2)`
	args := []interface{}{f.UserID, "%" + f.Query + "%"}
	query, args = appendDateRange(query, args, "created_at", f.DateFrom, f.DateTo)
	query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
	args = append(args, searchLimit(f.Limit))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStoreQueryFailed("search documents", err)
	}
	defer rows.Close()

	var results []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.UserID, &d.Filename, &d.FileType,
			&d.ContentText, &d.ContentSummary, &d.CreatedAt, &d.IndexedAt, &d.GraphNodeID); err != nil {
			return nil, errors.NewStoreQueryFailed("search documents", err)
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// SearchMeetings does a case-insensitive substring match over title and transcript
func (s *PostgresStore) SearchMeetings(ctx context.Context, f SearchFilter) ([]Meeting, error) {
	query := `
		SELECT id, user_id, title, COALESCE(transcript, ''), COALESCE(summary, ''),
		       COALESCE(participants, '{}'), COALESCE(topics, '{}'),
		       meeting_date, indexed_at, COALESCE(graph_node_id, '')
		FROM meetings
		WHERE user_id = $1
		  AND (title ILIKE $2 OR transcript ILIKE $2)`
	args := []interface{}{f.UserID, "%" + f.Query + "%"}
	query, args = appendDateRange(query, args, "meeting_date", f.DateFrom, f.DateTo)
	query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
	args = append(args, searchLimit(f.Limit))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStoreQueryFailed("search meetings", err)
	}
	defer rows.Close()

	var results []Meeting
	for rows.Next() {
		var m Meeting
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.Transcript, &m.Summary,
			&m.Participants, &m.Topics, &m.MeetingDate, &m.IndexedAt, &m.GraphNodeID); err != nil {
			return nil, errors.NewStoreQueryFailed("search meetings", err)
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

func tableFor(itemType ItemType) (string, bool) {
	switch itemType {
	case TypeEmail:
		return "emails", true
	case TypeDocument:
		return "documents", true
	case TypeMeeting:
		return "meetings", true
	}
	return "", false
}

func appendDateRange(query string, args []interface{}, column string, from, to *time.Time) (string, []interface{}) {
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND %s >= $%d", column, len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND %s <= $%d", column, len(args))
	}
	return query, args
}

func searchLimit(limit int) int {
	if limit < 1 {
		return 10
	}
	return limit
}
