package printjob

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists print jobs for history and audit. The in-flight
// checkout state lives in the session; the stored record tracks what
// was billed and dispatched.
type Repository interface {
	// Create persists a new print job record
	Create(ctx context.Context, job *PrintJob) error

	// Save updates a print job record
	Save(ctx context.Context, job *PrintJob) error

	// FindByID finds a print job by ID, nil if not found
	FindByID(ctx context.Context, id uuid.UUID) (*PrintJob, error)

	// FindByAccount lists jobs for an account, newest first
	FindByAccount(ctx context.Context, accountUID string, limit int) ([]PrintJob, error)
}
