package services

import (
	"context"
	"testing"
	"time"

	"linkmonitor/models"
)

func testAsset(linkID, ip, project string) models.Asset {
	return models.Asset{
		LinkID:             linkID,
		SiteName:           "Site " + linkID,
		IPAddress1:         ip,
		Connectivity:       "RF",
		EmailID:            "noc@example.com, ops@example.com",
		ProjectName:        project,
		Status:             "Active",
		EmailNotifications: true,
	}
}

func newTestMonitor(assets *fakeAssetStore, tickets *fakeTicketStore, prober *fakeProber, notifier *fakeNotifier, now *time.Time) *Monitor {
	m := NewMonitor(assets, tickets, NewTicketSequencer(tickets), prober, notifier)
	m.SetClock(func() time.Time { return *now })
	return m
}

// Full outage lifecycle: fresh down at T0, still down at T0+90s, recovered
// at T0+5min.
func TestRunPassOutageLifecycle(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := t0

	assets := newFakeAssetStore(testAsset("24001", "10.0.0.1", "alpha"))
	tickets := &fakeTicketStore{}
	prober := &fakeProber{alive: map[string]bool{}}
	notifier := &fakeNotifier{}
	m := newTestMonitor(assets, tickets, prober, notifier, &now)

	scope := models.Scope{Admin: true}

	// T0: asset goes down.
	report, err := m.RunPass(context.Background(), scope)
	if err != nil {
		t.Fatalf("pass 1: %v", err)
	}
	if len(report) != 1 {
		t.Fatalf("pass 1 report has %d rows, want 1", len(report))
	}
	row := report[0]
	if row.LinkID != "24001" || row.LiveStatus != "DOWN" || row.DownFor != "00:00:00" || row.TicketStatus != "Pending" {
		t.Errorf("pass 1 row = %+v", row)
	}
	if want := t0.Format(models.DisplayTimeFormat); row.CreatedDate != want {
		t.Errorf("pass 1 CreatedDate = %q, want %q", row.CreatedDate, want)
	}

	if tickets.count() != 1 {
		t.Fatalf("pass 1 created %d tickets, want 1", tickets.count())
	}
	ticket := tickets.byNo("SR#001")
	if ticket == nil {
		t.Fatal("ticket SR#001 not found")
	}
	if ticket.SrNo != 1 || ticket.DownTimer != "00:00:00" || ticket.UpTimer != "00:00:00" || ticket.Status != "Pending" {
		t.Errorf("ticket = %+v", ticket)
	}

	if got := notifier.count(); got != 2 {
		t.Errorf("pass 1 sent %d emails, want 2 (one per recipient)", got)
	}
	for _, m := range notifier.sent {
		if m.Subject != "Alert: Asset with linkId 24001 is unreachable" {
			t.Errorf("subject = %q", m.Subject)
		}
		if m.Fields.TicketNo != "SR#001" || m.Fields.IPAddress != "10.0.0.1" {
			t.Errorf("fields = %+v", m.Fields)
		}
	}

	saved := assets.get("24001")
	if saved.FirstDownTime == nil || !saved.FirstDownTime.Equal(t0) {
		t.Error("firstDownTime not persisted as T0")
	}
	if saved.LastEmailSentTime == nil || !saved.LastEmailSentTime.Equal(t0) {
		t.Error("lastEmailSentTime not persisted as T0")
	}

	// T0+90s: still down. Same ticket, advancing timer, throttled email.
	now = t0.Add(90 * time.Second)
	report, err = m.RunPass(context.Background(), scope)
	if err != nil {
		t.Fatalf("pass 2: %v", err)
	}
	if len(report) != 1 || report[0].DownFor != "00:01:30" {
		t.Fatalf("pass 2 report = %+v, want DownFor 00:01:30", report)
	}
	if tickets.count() != 1 {
		t.Fatalf("pass 2 created a duplicate ticket")
	}
	if got := tickets.byNo("SR#001").DownTimer; got != "00:01:30" {
		t.Errorf("pass 2 DownTimer = %q, want 00:01:30", got)
	}
	if got := notifier.count(); got != 2 {
		t.Errorf("pass 2 sent more email inside the throttle window (%d total)", got)
	}

	// T0+5min: recovered.
	now = t0.Add(5 * time.Minute)
	prober.alive["10.0.0.1"] = true
	report, err = m.RunPass(context.Background(), scope)
	if err != nil {
		t.Fatalf("pass 3: %v", err)
	}
	if len(report) != 0 {
		t.Fatalf("pass 3 report = %+v, want empty", report)
	}
	if got := tickets.byNo("SR#001").UpTimer; got != "00:05:00" {
		t.Errorf("pass 3 UpTimer = %q, want 00:05:00", got)
	}

	saved = assets.get("24001")
	if saved.FirstDownTime != nil {
		t.Error("firstDownTime must be nil after recovery")
	}
	if saved.LastDownTime == nil || !saved.LastDownTime.Equal(t0.Add(90*time.Second)) {
		t.Error("lastDownTime must keep the last down observation, not the recovery time")
	}
}

// Two assets failing in the same pass get distinct, consecutive serials no
// matter how probe completion interleaves.
func TestRunPassConcurrentOutagesGetDistinctSerials(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assets := newFakeAssetStore(
		testAsset("24001", "10.0.0.1", "alpha"),
		testAsset("24002", "10.0.0.2", "alpha"),
	)
	tickets := &fakeTicketStore{}
	prober := &fakeProber{
		alive: map[string]bool{},
		delay: map[string]time.Duration{"10.0.0.1": 30 * time.Millisecond},
	}
	m := newTestMonitor(assets, tickets, prober, &fakeNotifier{}, &now)

	report, err := m.RunPass(context.Background(), models.Scope{Admin: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(report) != 2 {
		t.Fatalf("report has %d rows, want 2", len(report))
	}
	if tickets.count() != 2 {
		t.Fatalf("created %d tickets, want 2", tickets.count())
	}

	srs := map[int]bool{}
	tickets.mu.Lock()
	for _, tk := range tickets.tickets {
		srs[tk.SrNo] = true
	}
	tickets.mu.Unlock()
	if !srs[1] || !srs[2] {
		t.Errorf("serials = %v, want consecutive {1, 2}", srs)
	}
}

// Re-running a pass with unchanged reachability must not duplicate tickets.
func TestRunPassIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assets := newFakeAssetStore(testAsset("24001", "10.0.0.1", "alpha"))
	tickets := &fakeTicketStore{}
	m := newTestMonitor(assets, tickets, &fakeProber{alive: map[string]bool{}}, &fakeNotifier{}, &now)

	for i := 0; i < 3; i++ {
		if _, err := m.RunPass(context.Background(), models.Scope{Admin: true}); err != nil {
			t.Fatalf("pass %d: %v", i+1, err)
		}
	}
	if tickets.count() != 1 {
		t.Fatalf("created %d tickets over 3 identical passes, want 1", tickets.count())
	}
}

// One asset's failed save must not keep the rest of the pass from
// completing or reporting.
func TestRunPassIsolatesPersistenceFailures(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assets := newFakeAssetStore(
		testAsset("24001", "10.0.0.1", "alpha"),
		testAsset("24002", "10.0.0.2", "alpha"),
	)
	assets.failSave["24001"] = true
	tickets := &fakeTicketStore{}
	m := newTestMonitor(assets, tickets, &fakeProber{alive: map[string]bool{}}, &fakeNotifier{}, &now)

	report, err := m.RunPass(context.Background(), models.Scope{Admin: true})
	if err != nil {
		t.Fatalf("pass must not fail on a single save error: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("report has %d rows, want 2", len(report))
	}
	if saved := assets.get("24002"); saved.FirstDownTime == nil {
		t.Error("healthy asset's state was not persisted")
	}
}

// A recipient's delivery failure neither blocks the other recipients nor
// the throttle bookkeeping.
func TestRunPassEmailFailureIsolated(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := t0

	assets := newFakeAssetStore(testAsset("24001", "10.0.0.1", "alpha"))
	tickets := &fakeTicketStore{}
	notifier := &fakeNotifier{failTo: map[string]bool{"noc@example.com": true}}
	m := newTestMonitor(assets, tickets, &fakeProber{alive: map[string]bool{}}, notifier, &now)

	if _, err := m.RunPass(context.Background(), models.Scope{Admin: true}); err != nil {
		t.Fatal(err)
	}
	if got := notifier.recipients(); len(got) != 1 || got[0] != "ops@example.com" {
		t.Errorf("delivered to %v, want just ops@example.com", got)
	}
	if saved := assets.get("24001"); saved.LastEmailSentTime == nil || !saved.LastEmailSentTime.Equal(t0) {
		t.Error("throttle must record the attempt time even when a delivery fails")
	}

	// Still inside the window: no further attempts.
	now = t0.Add(30 * time.Minute)
	if _, err := m.RunPass(context.Background(), models.Scope{Admin: true}); err != nil {
		t.Fatal(err)
	}
	if got := notifier.count(); got != 1 {
		t.Errorf("sent %d emails total, want 1 (throttled)", got)
	}

	// Past the window: one attempt per recipient again.
	now = t0.Add(90 * time.Minute)
	if _, err := m.RunPass(context.Background(), models.Scope{Admin: true}); err != nil {
		t.Fatal(err)
	}
	if got := notifier.count(); got != 2 {
		t.Errorf("sent %d emails total, want 2 after the window elapsed", got)
	}
}

// Non-admin scopes only see their own project's assets.
func TestRunPassProjectScope(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assets := newFakeAssetStore(
		testAsset("24001", "10.0.0.1", "alpha"),
		testAsset("24002", "10.0.0.2", "beta"),
	)
	tickets := &fakeTicketStore{}
	m := newTestMonitor(assets, tickets, &fakeProber{alive: map[string]bool{}}, &fakeNotifier{}, &now)

	report, err := m.RunPass(context.Background(), models.Scope{ProjectName: "alpha"})
	if err != nil {
		t.Fatal(err)
	}
	if len(report) != 1 || report[0].LinkID != "24001" {
		t.Fatalf("scoped report = %+v, want only 24001", report)
	}
	if saved := assets.get("24002"); saved.FirstDownTime != nil {
		t.Error("out-of-scope asset must not be touched")
	}
}

func TestCountReachability(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assets := newFakeAssetStore(
		testAsset("24001", "10.0.0.1", "alpha"),
		testAsset("24002", "10.0.0.2", "alpha"),
		testAsset("24003", "10.0.0.3", "alpha"),
	)
	tickets := &fakeTicketStore{}
	prober := &fakeProber{alive: map[string]bool{"10.0.0.1": true, "10.0.0.3": true}}
	m := newTestMonitor(assets, tickets, prober, &fakeNotifier{}, &now)

	up, down, err := m.CountReachability(context.Background(), models.Scope{Admin: true})
	if err != nil {
		t.Fatal(err)
	}
	if up != 2 || down != 1 {
		t.Errorf("up=%d down=%d, want 2/1", up, down)
	}
	if tickets.count() != 0 {
		t.Error("counting must have no ticket side effects")
	}
}
