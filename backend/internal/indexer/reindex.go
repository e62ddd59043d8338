package indexer

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"recall/backend/internal/content"
	"recall/backend/pkg/errors"
)

// Counts summarizes a reindex run
type Counts struct {
	Emails    int64 `json:"emails"`
	Documents int64 `json:"documents"`
	Meetings  int64 `json:"meetings"`
	Skipped   int64 `json:"skipped"`
	Failed    int64 `json:"failed"`
}

// ReindexAll re-triggers indexing for every item the user owns, with bounded
// concurrency. Items already indexed are skipped by the normal idempotency
// rules; per-item failures are counted, not fatal.
func (ix *Indexer) ReindexAll(ctx context.Context, userID string) (Counts, error) {
	var counts Counts

	perType := []struct {
		itemType content.ItemType
		indexed  *int64
	}{
		{content.TypeEmail, &counts.Emails},
		{content.TypeDocument, &counts.Documents},
		{content.TypeMeeting, &counts.Meetings},
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency)

	for _, pt := range perType {
		ids, err := ix.store.ListItemIDs(ctx, userID, pt.itemType)
		if err != nil {
			return counts, err
		}

		for _, id := range ids {
			itemType, id, indexed := pt.itemType, id, pt.indexed
			g.Go(func() error {
				status, err := ix.IndexItem(ctx, itemType, id, userID, Options{})
				switch status {
				case StatusIndexed:
					atomic.AddInt64(indexed, 1)
				case StatusSkipped:
					atomic.AddInt64(&counts.Skipped, 1)
				default:
					atomic.AddInt64(&counts.Failed, 1)
					ix.logger.Warn("Reindex item failed",
						zap.String("item_type", string(itemType)),
						zap.String("item_id", id),
						zap.Error(err),
					)
					// A down collaborator fails every remaining item the
					// same way; stop the run instead of burning through
					// the backlog
					if errors.IsCollaboratorUnavailable(err) {
						return err
					}
				}
				// Per-item failures don't abort the run
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return counts, err
	}

	ix.logger.Info("Reindex complete",
		zap.String("user_id", userID),
		zap.Int64("emails", counts.Emails),
		zap.Int64("documents", counts.Documents),
		zap.Int64("meetings", counts.Meetings),
		zap.Int64("skipped", counts.Skipped),
		zap.Int64("failed", counts.Failed),
	)
	return counts, nil
}
