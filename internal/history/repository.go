package history

import "context"

// Repository stores finished roast calls.
type Repository interface {
	Append(ctx context.Context, rec Record) error
	// UpdateRecording backfills the recording URL on a record that was
	// appended before the recording became available.
	UpdateRecording(ctx context.Context, callID, recordingURL string) error
	ListByVisitor(ctx context.Context, visitorID string, limit int) ([]Record, error)
	GetByCallID(ctx context.Context, callID string) (Record, error)
}
