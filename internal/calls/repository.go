package calls

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("calls: call not found")
	ErrDuplicate         = errors.New("calls: duplicate call_id")
	ErrInvalidArgument   = errors.New("calls: invalid argument")
	ErrInvalidTransition = errors.New("calls: invalid status transition")
	ErrShuttingDown      = errors.New("calls: service is shutting down")
)

// Repository is the storage contract for call records.
//
// Implementations must hand out copies; mutation happens only through Update.
type Repository interface {
	Insert(ctx context.Context, r CallRecord) error
	Get(ctx context.Context, callID string) (CallRecord, error)

	// Update applies fn to the stored record atomically.
	// If fn returns an error, the record is left unchanged and the error is returned.
	Update(ctx context.Context, callID string, fn func(r *CallRecord) error) (CallRecord, error)

	// List returns the most recent limit records in insertion order.
	// limit <= 0 returns every record.
	List(ctx context.Context, limit int) ([]CallRecord, error)
}
