package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"storefront/client"
	"storefront/pkg/logger"
)

// Configuration
var (
	baseURL  = flag.String("url", "http://localhost:8080", "Storefront API base URL")
	username = flag.String("user", "alice", "Login username")
	password = flag.String("pass", "secret", "Login password")
	totalVUs = flag.Int("c", 200, "Concurrent requests per round")
	rounds   = flag.Int("rounds", 3, "Number of bursts")
	interval = flag.Duration("interval", 20*time.Second, "Pause between bursts; set above the server's access token TTL to force expiry")
)

// countingObserver tallies what the gateway does while the bursts run.
type countingObserver struct {
	requests     int64
	latencySum   int64 // microseconds
	refreshOK    int64
	refreshFail  int64
	replays      int64
	peakWaiting  int64
	refreshNanos int64
}

func (o *countingObserver) ObserveRequest(method string, status int, d time.Duration) {
	atomic.AddInt64(&o.requests, 1)
	atomic.AddInt64(&o.latencySum, d.Microseconds())
}

func (o *countingObserver) RecordRefresh(success bool, d time.Duration) {
	if success {
		atomic.AddInt64(&o.refreshOK, 1)
	} else {
		atomic.AddInt64(&o.refreshFail, 1)
	}
	atomic.AddInt64(&o.refreshNanos, int64(d))
}

func (o *countingObserver) RecordReplay() {
	atomic.AddInt64(&o.replays, 1)
}

func (o *countingObserver) SetWaiting(n int) {
	for {
		peak := atomic.LoadInt64(&o.peakWaiting)
		if int64(n) <= peak || atomic.CompareAndSwapInt64(&o.peakWaiting, peak, int64(n)) {
			return
		}
	}
}

func main() {
	flag.Parse()
	logger.InitLogger("test")

	fmt.Printf("🚀 Starting Refresh Load Test\n")
	fmt.Printf("   Target: %s\n", *baseURL)
	fmt.Printf("   Concurrency: %d x %d rounds\n", *totalVUs, *rounds)
	fmt.Printf("   Interval: %v\n", *interval)

	obs := &countingObserver{}
	var ended int64
	c, err := client.New(client.GatewayConfig{BaseURL: *baseURL}, client.NewMemoryStore(),
		client.WithObserver(obs),
		client.WithSessionEndHook(func(error) { atomic.AddInt64(&ended, 1) }))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	if _, err := c.Auth.Login(ctx, *username, *password); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	var failures int64
	for round := 1; round <= *rounds; round++ {
		if round > 1 {
			time.Sleep(*interval)
		}
		before := atomic.LoadInt64(&obs.refreshOK) + atomic.LoadInt64(&obs.refreshFail)
		start := time.Now()

		var wg sync.WaitGroup
		for i := 0; i < *totalVUs; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := c.Cart.TotalQuantity(ctx); err != nil {
					if atomic.AddInt64(&failures, 1) == 1 {
						fmt.Printf("Request error: %v\n", err)
					}
				}
			}()
		}
		wg.Wait()

		refreshes := atomic.LoadInt64(&obs.refreshOK) + atomic.LoadInt64(&obs.refreshFail) - before
		fmt.Printf("[%s] Round %d | Requests: %d | Refreshes: %d | Took: %v\n",
			time.Now().Format("15:04:05"), round, *totalVUs, refreshes, time.Since(start).Round(time.Millisecond))
	}

	reqs := atomic.LoadInt64(&obs.requests)
	avgLat := float64(0)
	if reqs > 0 {
		avgLat = float64(atomic.LoadInt64(&obs.latencySum)) / float64(reqs) / 1000
	}
	fmt.Println("✅ Done")
	fmt.Printf("   HTTP calls: %d | Avg Latency: %.2f ms\n", reqs, avgLat)
	fmt.Printf("   Refresh ok/failed: %d/%d | Replays: %d | Peak queued: %d\n",
		obs.refreshOK, obs.refreshFail, obs.replays, obs.peakWaiting)
	fmt.Printf("   Failed requests: %d | Sessions ended: %d\n", failures, ended)
	if failures > 0 {
		os.Exit(1)
	}
}
