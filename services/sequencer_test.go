package services

import (
	"context"
	"sync"
	"testing"
)

func TestFormatTicketNo(t *testing.T) {
	cases := []struct {
		srNo int
		want string
	}{
		{1, "SR#001"},
		{42, "SR#042"},
		{999, "SR#999"},
		{1000, "SR#1000"},
		{12345, "SR#12345"},
	}
	for _, tc := range cases {
		if got := FormatTicketNo(tc.srNo); got != tc.want {
			t.Errorf("FormatTicketNo(%d) = %q, want %q", tc.srNo, got, tc.want)
		}
	}
}

// Concurrent callers must each get a distinct serial forming a contiguous
// run from the prior maximum, whatever the interleaving.
func TestSequencerConcurrentAllocation(t *testing.T) {
	store := &fakeTicketStore{}
	seq := NewTicketSequencer(store)

	const callers = 50
	results := make(chan int, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			srNo, ticketNo, err := seq.Next(context.Background())
			if err != nil {
				t.Errorf("Next: %v", err)
				return
			}
			if want := FormatTicketNo(srNo); ticketNo != want {
				t.Errorf("ticketNo = %q, want %q", ticketNo, want)
			}
			results <- srNo
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]bool)
	for srNo := range results {
		if seen[srNo] {
			t.Fatalf("duplicate SrNo %d", srNo)
		}
		seen[srNo] = true
	}
	for i := 1; i <= callers; i++ {
		if !seen[i] {
			t.Errorf("missing SrNo %d from contiguous run", i)
		}
	}
}

func TestSequencerSourceFailure(t *testing.T) {
	store := &fakeTicketStore{failNext: true}
	seq := NewTicketSequencer(store)

	if _, _, err := seq.Next(context.Background()); err == nil {
		t.Fatal("expected error when source is unavailable")
	}
}
