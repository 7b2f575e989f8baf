package ports

import "context"

// Contract for persisting proof-of-delivery files.
type PODStorage interface {
	// Store the file and return a URL the trip can reference.
	StorePOD(ctx context.Context, tripID string, data []byte) (string, error)
}
