package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-ping/ping"

	"linkmonitor/models"
)

// Prober reports whether a single address answers. Implementations own
// their per-probe timeout; a failed or errored probe is simply "false".
type Prober interface {
	Probe(ctx context.Context, ipAddress string) bool
}

// PingProber probes over ICMP echo. Unprivileged UDP mode by default so the
// binary runs without CAP_NET_RAW; deployments that have it can flip
// Privileged on.
type PingProber struct {
	Count      int
	Timeout    time.Duration
	Privileged bool
}

func NewPingProber(timeout time.Duration, privileged bool) *PingProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PingProber{Count: 3, Timeout: timeout, Privileged: privileged}
}

func (p *PingProber) Probe(ctx context.Context, ipAddress string) bool {
	pinger, err := ping.NewPinger(ipAddress)
	if err != nil {
		log.Printf("Error creating pinger for %s: %v", ipAddress, err)
		return false
	}

	pinger.Count = p.Count
	pinger.Timeout = p.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < pinger.Timeout {
			pinger.Timeout = remaining
		}
	}
	pinger.SetPrivileged(p.Privileged)

	if err := pinger.Run(); err != nil {
		log.Printf("Error pinging %s: %v", ipAddress, err)
		return false
	}

	return pinger.Statistics().PacketsRecv > 0
}

// ProbeAll probes every asset's primary address concurrently and returns one
// reachable flag per asset, in input order. It waits for all probes; a bad
// target only makes its own slot false.
func ProbeAll(ctx context.Context, prober Prober, assets []models.Asset) []bool {
	results := make([]bool, len(assets))

	var wg sync.WaitGroup
	for i := range assets {
		wg.Add(1)
		go func(i int, ip string) {
			defer wg.Done()
			results[i] = prober.Probe(ctx, ip)
		}(i, assets[i].IPAddress1)
	}
	wg.Wait()

	return results
}
