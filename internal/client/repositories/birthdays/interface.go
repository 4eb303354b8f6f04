// Package birthdays keeps the last known birthday list in the local database
// so it can be shown while the server is unreachable.
package birthdays

import (
	"context"

	"github.com/dmitrijs2005/hbd/internal/client/models"
)

// Repository stores one ordered snapshot of the list.
type Repository interface {
	// ReplaceAll atomically swaps the stored snapshot for items, keeping their order.
	ReplaceAll(ctx context.Context, items []models.Birthday) error

	// List returns the stored snapshot in its original order.
	List(ctx context.Context) ([]models.Birthday, error)

	// Clear removes the snapshot.
	Clear(ctx context.Context) error
}
