package content

import (
	"context"
	"time"
)

// SearchFilter narrows a lexical search over the relational store
type SearchFilter struct {
	UserID   string
	Query    string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
}

// Store is the boundary to the relational store that owns content items.
// The engine reads items and writes only their indexed marker.
type Store interface {
	GetEmail(ctx context.Context, userID, id string) (*Email, error)
	GetDocument(ctx context.Context, userID, id string) (*Document, error)
	GetMeeting(ctx context.Context, userID, id string) (*Meeting, error)

	// MarkIndexed records the indexed timestamp and graph node id for an
	// item. Called exactly once per successful index; never resets.
	MarkIndexed(ctx context.Context, itemType ItemType, id, graphNodeID string, at time.Time) error

	// ListItemIDs enumerates a user's item ids of one type for reindexing
	ListItemIDs(ctx context.Context, userID string, itemType ItemType) ([]string, error)

	// Lexical substring search over title/body fields, case-insensitive
	SearchEmails(ctx context.Context, f SearchFilter) ([]Email, error)
	SearchDocuments(ctx context.Context, f SearchFilter) ([]Document, error)
	SearchMeetings(ctx context.Context, f SearchFilter) ([]Meeting, error)
}
