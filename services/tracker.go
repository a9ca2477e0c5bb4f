package services

import (
	"context"
	"log"
	"sync"
	"time"

	"linkmonitor/models"
)

// TicketStore is the slice of the ticket collaborator the outage tracker
// needs. Satisfied by db.TicketStore.
type TicketStore interface {
	FindOpenByLinkID(ctx context.Context, linkID string) ([]models.Ticket, error)
	Insert(ctx context.Context, t *models.Ticket) error
	UpdateDownTimer(ctx context.Context, ticketNo, timer string) error
	UpdateUpTimer(ctx context.Context, ticketNo, timer string) error
}

// Sequencer allocates SrNo/TicketNo pairs. Satisfied by TicketSequencer.
type Sequencer interface {
	Next(ctx context.Context) (int, string, error)
}

type TransitionKind int

const (
	StayUp TransitionKind = iota
	WentDown
	StillDown
	Recovered
)

func (k TransitionKind) String() string {
	switch k {
	case StayUp:
		return "up"
	case WentDown:
		return "went down"
	case StillDown:
		return "still down"
	case Recovered:
		return "recovered"
	}
	return "unknown"
}

// Transition is the outcome of one probe observation against the asset's
// persisted down state.
type Transition struct {
	Kind TransitionKind
	// Elapsed is the formatted time since firstDownTime at the moment of
	// observation. ZeroTimer on a fresh down, unused for StayUp.
	Elapsed string
}

// Evaluate derives the up/down transition for one asset. Pure: it reads the
// asset's firstDownTime and the probe result, nothing else.
func Evaluate(a *models.Asset, reachable bool, now time.Time) Transition {
	switch {
	case reachable && a.FirstDownTime == nil:
		return Transition{Kind: StayUp}
	case reachable:
		return Transition{Kind: Recovered, Elapsed: FormatTimer(*a.FirstDownTime, now)}
	case a.FirstDownTime == nil:
		return Transition{Kind: WentDown, Elapsed: ZeroTimer}
	default:
		return Transition{Kind: StillDown, Elapsed: FormatTimer(*a.FirstDownTime, now)}
	}
}

// TrackResult is what one asset contributes to a pass.
type TrackResult struct {
	// Row is the unreachable-report entry; nil while the asset is up.
	Row *models.DownAsset
	// TicketNo is the ticket associated with the current outage, empty when
	// allocation was skipped because the store was unavailable.
	TicketNo string
	// AssetDirty marks that the asset's monitoring fields changed and must
	// be persisted.
	AssetDirty bool
}

// Tracker applies the up/down state machine for a single asset: asset field
// mutations in memory, ticket mutations against the store.
type Tracker struct {
	tickets TicketStore
	seq     Sequencer
	now     func() time.Time

	// pendingCreate holds links whose ticket creation failed (sequencer or
	// insert) while the outage is still running, so creation is retried on
	// the next pass. A plain lookup miss mid-outage never creates; only a
	// remembered failure does.
	mu            sync.Mutex
	pendingCreate map[string]bool
}

func NewTracker(tickets TicketStore, seq Sequencer) *Tracker {
	return &Tracker{
		tickets:       tickets,
		seq:           seq,
		now:           time.Now,
		pendingCreate: make(map[string]bool),
	}
}

func (t *Tracker) setPending(linkID string, pending bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pending {
		t.pendingCreate[linkID] = true
	} else {
		delete(t.pendingCreate, linkID)
	}
}

func (t *Tracker) isPending(linkID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pendingCreate[linkID]
}

// openTicket finds the asset's open ticket, if any. Duplicate open tickets
// are a data anomaly: log it and deterministically take the newest serial.
func (t *Tracker) openTicket(ctx context.Context, linkID string) (*models.Ticket, error) {
	tickets, err := t.tickets.FindOpenByLinkID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, nil
	}
	if len(tickets) > 1 {
		log.Printf("Anomaly: %d open tickets for link %s, using %s", len(tickets), linkID, tickets[0].TicketNo)
	}
	return &tickets[0], nil
}

// Track processes one probe observation. The returned result's Row is
// populated for both down transitions; recovery and steady-up produce none.
func (t *Tracker) Track(ctx context.Context, a *models.Asset, reachable bool) TrackResult {
	now := t.now()
	tr := Evaluate(a, reachable, now)

	switch tr.Kind {
	case StayUp:
		return TrackResult{}

	case Recovered:
		t.setPending(a.LinkID, false)
		if ticket, err := t.openTicket(ctx, a.LinkID); err != nil {
			log.Printf("Error looking up ticket for recovered link %s: %v", a.LinkID, err)
		} else if ticket != nil {
			if err := t.tickets.UpdateUpTimer(ctx, ticket.TicketNo, tr.Elapsed); err != nil {
				log.Printf("Error setting up timer on %s: %v", ticket.TicketNo, err)
			}
		}
		a.FirstDownTime = nil
		return TrackResult{AssetDirty: true}

	case WentDown:
		a.FirstDownTime = &now
		a.LastDownTime = &now
		row, ticketNo := t.trackDown(ctx, a, tr.Elapsed, true)
		return TrackResult{Row: row, TicketNo: ticketNo, AssetDirty: true}

	default: // StillDown
		a.LastDownTime = &now
		row, ticketNo := t.trackDown(ctx, a, tr.Elapsed, t.isPending(a.LinkID))
		return TrackResult{Row: row, TicketNo: ticketNo, AssetDirty: true}
	}
}

// trackDown updates or creates the outage ticket and builds the report row.
// allowCreate is true only on the Up -> Down edge; a lookup miss while the
// asset was already down is treated as transient rather than double-created.
func (t *Tracker) trackDown(ctx context.Context, a *models.Asset, elapsed string, allowCreate bool) (*models.DownAsset, string) {
	status := "Pending"
	ticketNo := ""
	createdDate := ""

	ticket, err := t.openTicket(ctx, a.LinkID)
	switch {
	case err != nil:
		// Store unavailable: still report the outage, retry ticket work on
		// the next pass. A failed lookup on the creating edge must keep the
		// creation attempt alive, same as a failed allocation.
		log.Printf("Error looking up ticket for link %s: %v", a.LinkID, err)
		if allowCreate {
			t.setPending(a.LinkID, true)
		}

	case ticket != nil:
		t.setPending(a.LinkID, false)
		status = ticket.Status
		ticketNo = ticket.TicketNo
		createdDate = ticket.CreatedDate
		if err := t.tickets.UpdateDownTimer(ctx, ticket.TicketNo, elapsed); err != nil {
			log.Printf("Error updating down timer on %s: %v", ticket.TicketNo, err)
		}

	case allowCreate:
		created := t.createTicket(ctx, a, elapsed)
		if created != nil {
			ticketNo = created.TicketNo
			createdDate = created.CreatedDate
		}

	default:
		log.Printf("No open ticket for down link %s, skipping ticket update this pass", a.LinkID)
	}

	return &models.DownAsset{
		LinkID:       a.LinkID,
		SiteName:     a.SiteName,
		IPAddress1:   a.IPAddress1,
		DownFor:      elapsed,
		LiveStatus:   "DOWN",
		Connectivity: a.Connectivity,
		TicketStatus: status,
		CreatedDate:  createdDate,
	}, ticketNo
}

func (t *Tracker) createTicket(ctx context.Context, a *models.Asset, elapsed string) *models.Ticket {
	srNo, ticketNo, err := t.seq.Next(ctx)
	if err != nil {
		// No number, no ticket. The asset stays in the report as Pending
		// and creation is retried next pass.
		log.Printf("Error allocating ticket number for link %s: %v", a.LinkID, err)
		t.setPending(a.LinkID, true)
		return nil
	}

	ticket := &models.Ticket{
		SrNo:         srNo,
		TicketNo:     ticketNo,
		SiteName:     a.SiteName,
		LinkID:       a.LinkID,
		ProblemCode:  "LINK DOWN",
		Status:       "Pending",
		DownTimer:    elapsed,
		UpTimer:      ZeroTimer,
		RFO:          "N/A",
		AssignedBy:   "N/A",
		AssignedFor:  "N/A",
		CreatedBy:    "CRM",
		CreatedDate:  t.now().Format(models.DisplayTimeFormat),
		LastUpdateBy: "N/A",
		ProjectName:  a.ProjectName,
	}
	if err := t.tickets.Insert(ctx, ticket); err != nil {
		log.Printf("Error creating ticket %s for link %s: %v", ticketNo, a.LinkID, err)
		t.setPending(a.LinkID, true)
		return nil
	}
	t.setPending(a.LinkID, false)
	return ticket
}
