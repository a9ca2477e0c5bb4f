package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"linkmonitor/models"
)

// AssetStore is the slice of the asset collaborator the monitoring pass
// needs. Satisfied by db.AssetStore.
type AssetStore interface {
	ListActive(ctx context.Context, scope models.Scope) ([]models.Asset, error)
	SaveMonitoringState(ctx context.Context, a *models.Asset) error
}

// Monitor runs monitoring passes: probe every active asset in scope, drive
// the per-asset outage state machine, throttle alert emails, persist what
// changed and report what is down.
type Monitor struct {
	assets   AssetStore
	tracker  *Tracker
	prober   Prober
	notifier Notifier
	now      func() time.Time
}

func NewMonitor(assets AssetStore, tickets TicketStore, seq Sequencer, prober Prober, notifier Notifier) *Monitor {
	m := &Monitor{
		assets:   assets,
		prober:   prober,
		notifier: notifier,
		now:      time.Now,
	}
	m.tracker = NewTracker(tickets, seq)
	return m
}

// SetClock overrides the pass clock; the tracker follows it. Used by tests.
func (m *Monitor) SetClock(now func() time.Time) {
	m.now = now
	m.tracker.now = now
}

// RunPass executes one monitoring pass for the given scope and returns the
// unreachable-asset report. Per-asset failures (ticket store, persistence,
// email) are logged and never abort the rest of the pass; only failing to
// list the asset set is fatal.
func (m *Monitor) RunPass(ctx context.Context, scope models.Scope) ([]models.DownAsset, error) {
	assets, err := m.assets.ListActive(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list active assets: %w", err)
	}

	results := ProbeAll(ctx, m.prober, assets)

	report := make([]models.DownAsset, 0)
	var emails sync.WaitGroup

	for i := range assets {
		a := &assets[i]
		res := m.tracker.Track(ctx, a, results[i])

		if res.Row != nil {
			if ShouldNotify(a, m.now()) {
				m.dispatchAlerts(&emails, a, res.TicketNo)
				sent := m.now()
				a.LastEmailSentTime = &sent
				res.AssetDirty = true
			}
			report = append(report, *res.Row)
		}

		if res.AssetDirty {
			if err := m.assets.SaveMonitoringState(ctx, a); err != nil {
				// Stale state is corrected on the next pass; keep going.
				log.Printf("Error saving asset %s: %v", a.LinkID, err)
			}
		}
	}

	// Deliveries are independent of each other and of ticket bookkeeping;
	// joining here only bounds the response on the slowest send.
	emails.Wait()

	return report, nil
}

// dispatchAlerts sends one email per configured recipient, each on its own
// goroutine so a dead mailbox cannot block the others.
func (m *Monitor) dispatchAlerts(wg *sync.WaitGroup, a *models.Asset, ticketNo string) {
	if m.notifier == nil {
		return
	}

	subject := fmt.Sprintf("Alert: Asset with linkId %s is unreachable", a.LinkID)
	fields := AlertFields{
		LinkID:      a.LinkID,
		IPAddress:   a.IPAddress1,
		TicketNo:    ticketNo,
		ProjectName: a.ProjectName,
	}

	for _, to := range a.Recipients() {
		wg.Add(1)
		go func(to string) {
			defer wg.Done()
			if err := m.notifier.Send(to, subject, fields); err != nil {
				log.Printf("Error sending alert for link %s to %s: %v", a.LinkID, to, err)
			}
		}(to)
	}
}

// CountReachability probes the scope's active assets once and returns how
// many answered and how many did not. No ticket or email side effects.
func (m *Monitor) CountReachability(ctx context.Context, scope models.Scope) (up, down int, err error) {
	assets, err := m.assets.ListActive(ctx, scope)
	if err != nil {
		return 0, 0, fmt.Errorf("list active assets: %w", err)
	}

	for _, alive := range ProbeAll(ctx, m.prober, assets) {
		if alive {
			up++
		} else {
			down++
		}
	}
	return up, down, nil
}
