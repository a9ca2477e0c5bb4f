package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"linkmonitor/models"
)

// fakeAssetStore keeps canonical asset state in memory so consecutive
// passes observe each other's persisted mutations.
type fakeAssetStore struct {
	mu       sync.Mutex
	order    []string
	byLink   map[string]*models.Asset
	failSave map[string]bool
	saves    int
}

func newFakeAssetStore(assets ...models.Asset) *fakeAssetStore {
	s := &fakeAssetStore{
		byLink:   make(map[string]*models.Asset),
		failSave: make(map[string]bool),
	}
	for i := range assets {
		a := assets[i]
		s.order = append(s.order, a.LinkID)
		s.byLink[a.LinkID] = &a
	}
	return s
}

func (s *fakeAssetStore) ListActive(ctx context.Context, scope models.Scope) ([]models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Asset
	for _, id := range s.order {
		a := s.byLink[id]
		if a.Status != "Active" {
			continue
		}
		if !scope.Admin && a.ProjectName != scope.ProjectName {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (s *fakeAssetStore) SaveMonitoringState(ctx context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave[a.LinkID] {
		return errors.New("save failed")
	}
	cur := s.byLink[a.LinkID]
	cur.FirstDownTime = a.FirstDownTime
	cur.LastDownTime = a.LastDownTime
	cur.LastEmailSentTime = a.LastEmailSentTime
	s.saves++
	return nil
}

func (s *fakeAssetStore) get(linkID string) models.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.byLink[linkID]
}

// fakeTicketStore implements both the ticket collaborator and the serial
// number source, mirroring the contract of the Postgres sequence.
type fakeTicketStore struct {
	mu       sync.Mutex
	tickets  []*models.Ticket
	nextSr   int
	failNext bool
	failFind bool
}

func (s *fakeTicketStore) NextSrNo(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		return 0, errors.New("sequence unavailable")
	}
	s.nextSr++
	return s.nextSr, nil
}

func (s *fakeTicketStore) FindOpenByLinkID(ctx context.Context, linkID string) ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFind {
		return nil, errors.New("find failed")
	}
	var out []models.Ticket
	for _, t := range s.tickets {
		if t.LinkID == linkID && t.Status != "Closed" {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SrNo > out[j].SrNo })
	return out, nil
}

func (s *fakeTicketStore) Insert(ctx context.Context, t *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tickets = append(s.tickets, &cp)
	return nil
}

func (s *fakeTicketStore) UpdateDownTimer(ctx context.Context, ticketNo, timer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.TicketNo == ticketNo {
			t.DownTimer = timer
			return nil
		}
	}
	return errors.New("ticket not found")
}

func (s *fakeTicketStore) UpdateUpTimer(ctx context.Context, ticketNo, timer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.TicketNo == ticketNo {
			t.UpTimer = timer
			return nil
		}
	}
	return errors.New("ticket not found")
}

func (s *fakeTicketStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

func (s *fakeTicketStore) byNo(ticketNo string) *models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.TicketNo == ticketNo {
			cp := *t
			return &cp
		}
	}
	return nil
}

// fakeProber answers from a map; unknown addresses are unreachable. Optional
// per-address delays exercise out-of-order probe completion.
type fakeProber struct {
	alive map[string]bool
	delay map[string]time.Duration
}

func (p *fakeProber) Probe(ctx context.Context, ip string) bool {
	if d := p.delay[ip]; d > 0 {
		time.Sleep(d)
	}
	return p.alive[ip]
}

type sentMail struct {
	To      string
	Subject string
	Fields  AlertFields
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo map[string]bool
}

func (n *fakeNotifier) Send(to, subject string, fields AlertFields) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failTo[to] {
		return errors.New("delivery failed")
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Fields: fields})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *fakeNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.sent {
		out = append(out, m.To)
	}
	sort.Strings(out)
	return out
}
