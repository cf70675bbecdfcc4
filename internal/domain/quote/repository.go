package quote

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows the quote listing. Nil bounds are not applied.
type ListFilter struct {
	StartDate *time.Time // keeps quotes with start_date >= StartDate
	EndDate   *time.Time // keeps quotes with end_date <= EndDate
}

// Repository defines the persistence interface for the quote aggregate.
// Every mutating operation runs inside a single transaction: either all
// statements of the operation commit or none do.
type Repository interface {
	// FindAll returns quotes matching the filter with their full trees,
	// ordered ascending by start date.
	FindAll(ctx context.Context, filter ListFilter) ([]Quote, error)

	// FindByID returns the full quote tree or shared.ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Quote, error)

	// Create persists a complete new tree. IDs and timestamps are taken
	// from the aggregate as built by the domain constructors.
	Create(ctx context.Context, q *Quote) error

	// Update applies a partial patch and, when patch.Sections is set,
	// reconciles the persisted tree against it by client uuid: children
	// absent from the patch are deleted, the rest are upserted. Returns
	// the quote as persisted after the patch, with the reconciled tree
	// when sections were touched and without sections otherwise.
	Update(ctx context.Context, id uuid.UUID, patch QuotePatch) (*Quote, error)

	// SaveDraft overwrites the quote's draft document verbatim and
	// returns the stored value.
	SaveDraft(ctx context.Context, id uuid.UUID, draft json.RawMessage) (json.RawMessage, error)
}
