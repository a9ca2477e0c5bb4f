package services

import (
	"context"
	"fmt"
)

// SrNoSource hands out ticket serial numbers. The production implementation
// is a Postgres sequence; whatever backs it must give every concurrent
// caller a distinct, increasing value in a single atomic step. Reading the
// current maximum and adding one does not qualify.
type SrNoSource interface {
	NextSrNo(ctx context.Context) (int, error)
}

// TicketSequencer produces SrNo/TicketNo pairs for new tickets.
type TicketSequencer struct {
	src SrNoSource
}

func NewTicketSequencer(src SrNoSource) *TicketSequencer {
	return &TicketSequencer{src: src}
}

func (q *TicketSequencer) Next(ctx context.Context) (int, string, error) {
	n, err := q.src.NextSrNo(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("allocate ticket number: %w", err)
	}
	return n, FormatTicketNo(n), nil
}

// FormatTicketNo renders a serial as "SR#007"; the padding stops mattering
// past 999 and the number simply grows.
func FormatTicketNo(srNo int) string {
	return fmt.Sprintf("SR#%03d", srNo)
}
