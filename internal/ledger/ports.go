package ledger

import (
	"context"

	"expenses/internal/core"
)

// Ports for record stores.
type (
	RecordWriter interface {
		// Insert persists a validated entry and returns the record as
		// stored, with its assigned id and creation time.
		Insert(ctx context.Context, e core.Entry) (core.Record, error)
		// DeleteLast removes the most recently created record across all
		// months. It returns core.ErrNotFound when the store is empty.
		DeleteLast(ctx context.Context) (core.Record, error)
	}

	RecordReader interface {
		// FetchAll returns every record, newest first.
		FetchAll(ctx context.Context) ([]core.Record, error)
	}

	Store interface {
		RecordWriter
		RecordReader
	}
)
