package repository

import (
	"context"
	"fmt"
)

// Invoice numbers are allocated with a single atomic upsert. There is no
// read-then-write window: concurrent placements for the same year serialize
// on the row lock, so every caller sees a distinct, strictly increasing
// number and the first allocation of a year is always 1.
const nextInvoiceNumberSQL = `INSERT INTO invoice_sequences (year, last_number)
	VALUES ($1, 1)
	ON CONFLICT (year) DO UPDATE SET last_number = invoice_sequences.last_number + 1
	RETURNING last_number`

// SequenceRepository allocates per-year invoice numbers.
type SequenceRepository struct {
	db DB
}

// NewSequenceRepository returns a SequenceRepository that uses the given pool.
func NewSequenceRepository(db DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next allocates the next invoice number for year.
func (r *SequenceRepository) Next(ctx context.Context, year int) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, nextInvoiceNumberSQL, year).Scan(&n); err != nil {
		return 0, fmt.Errorf("allocating invoice number for %d: %w", year, err)
	}
	return n, nil
}
