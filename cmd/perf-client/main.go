package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/kkkkikiki/flowfund/internal/api"
)

// PerfResult gathers aggregated metrics for the test run.
// LatencySum & P95Latency are in nanoseconds.
type PerfResult struct {
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64
	LatencySum    int64
	P95Latency    int64
}

const (
	baseURL         = "http://localhost:8080"
	fixedWorkers    = 50
	fixedRPSTarget  = 700
	fixedDuration   = 30 * time.Second
	defaultTimeout  = 30 * time.Second
	fixedCampaigns  = 200
	seedOwner       = "0x00000000000000000000000000000000000000a1"
	loadTestViewer  = "0x00000000000000000000000000000000000000b2"
	campaignFilter  = "active"
	seedTargetEther = "10"
)

func main() {
	rps := fixedRPSTarget
	duration := fixedDuration
	workers := fixedWorkers

	// ─── HTTP Client & Transport ─────────────────────────────────
	transport := &http.Transport{
		MaxIdleConns:        workers * 4,
		MaxIdleConnsPerHost: workers * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   defaultTimeout,
	}
	client := api.NewCampaignServiceClient(httpClient, baseURL)

	// ─── Seed campaigns ──────────────────────────────────────────
	seeded, err := seedCampaigns(client, fixedCampaigns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed campaigns: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("==========================================")
	fmt.Println("FlowFund load test client (uniform)")
	fmt.Println("==========================================")
	fmt.Printf("Seeded campaigns : %d\n", seeded)
	fmt.Printf("Filter           : %s\n", campaignFilter)
	fmt.Printf("RPS              : %d\n", rps)
	fmt.Printf("Duration         : %v\n", duration)
	fmt.Println("==========================================")

	// ─── Rate limiter & context ─────────────────────────────────
	burst := rps / workers
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var result PerfResult
	var wg sync.WaitGroup

	// latencyChan collects latencies for P95 estimation.
	latencyChan := make(chan time.Duration, 4096)
	p95Done := make(chan struct{})
	go func() {
		trackP95(latencyChan, &result)
		close(p95Done)
	}()

	// ─── Workers ────────────────────────────────────────────────
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				doRequest(client, &result, latencyChan)
			}
		}()
	}

	start := time.Now()
	<-ctx.Done()

	// ─── Cleanup ────────────────────────────────────────────────
	wg.Wait()
	close(latencyChan)
	<-p95Done

	totalDur := time.Since(start)

	// ─── Report ─────────────────────────────────────────────────
	fmt.Println("==========================================")
	fmt.Println("Results")
	fmt.Println("==========================================")
	fmt.Printf("Elapsed          : %.2fs\n", totalDur.Seconds())
	fmt.Printf("Total requests   : %d\n", result.TotalRequests)
	fmt.Printf("Succeeded        : %d\n", result.SuccessCount)
	fmt.Printf("Failed           : %d\n", result.ErrorCount)

	actualRPS := float64(result.SuccessCount) / totalDur.Seconds()
	var successRate float64
	if result.TotalRequests > 0 {
		successRate = float64(result.SuccessCount) / float64(result.TotalRequests) * 100
	}

	var avgLatency time.Duration
	if result.SuccessCount > 0 {
		avgLatency = time.Duration(result.LatencySum / result.SuccessCount)
	}

	fmt.Printf("Actual RPS       : %.2f\n", actualRPS)
	fmt.Printf("Success rate     : %.2f%%\n", successRate)
	fmt.Printf("Avg latency      : %v\n", avgLatency)
	fmt.Printf("P95 latency      : %v\n", time.Duration(result.P95Latency))
	fmt.Println("==========================================")

	// ─── Consistency Check ──────────────────────────────────────
	fmt.Println("Collection consistency")
	fmt.Println("==========================================")
	if err := verifyCollection(client); err != nil {
		fmt.Printf("FAILED: %v\n", err)
	} else {
		fmt.Println("OK: collection matches the ledger")
	}
	fmt.Println("==========================================")
}

// seedCampaigns creates n campaigns and has the ledger admin verify them so
// the active filter has work to do.
func seedCampaigns(client *api.CampaignServiceClient, n int) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	info, err := client.GetLedgerInfo(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return 0, fmt.Errorf("get ledger info failed: %w", err)
	}
	admin := info.Msg.Admin

	for i := 0; i < n; i++ {
		days := int64(1 + i%60)
		created, err := client.CreateCampaign(ctx, connect.NewRequest(&api.CreateCampaignRequest{
			Viewer:       seedOwner,
			Title:        fmt.Sprintf("Load test campaign %d", i+1),
			Description:  "Generated by perf-client",
			TargetAmount: seedTargetEther,
			DurationDays: &days,
		}))
		if err != nil {
			return i, fmt.Errorf("create campaign failed: %w", err)
		}
		if !created.Msg.Success {
			return i, fmt.Errorf("create campaign refused: %s", created.Msg.Message)
		}

		verified, err := client.VerifyCampaign(ctx, connect.NewRequest(&api.CampaignActionRequest{
			Viewer:     admin,
			CampaignID: created.Msg.CampaignID,
		}))
		if err != nil {
			return i, fmt.Errorf("verify campaign failed: %w", err)
		}
		if !verified.Msg.Success {
			return i, fmt.Errorf("verify campaign %d refused: %s", created.Msg.CampaignID, verified.Msg.Message)
		}
	}
	return n, nil
}

// doRequest performs a single ListCampaigns RPC and collects metrics.
func doRequest(client *api.CampaignServiceClient, result *PerfResult, latencyChan chan<- time.Duration) {
	// Use independent context to avoid cancellation when test ends
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	req := connect.NewRequest(&api.ListCampaignsRequest{
		Viewer: loadTestViewer,
		Filter: campaignFilter,
	})

	start := time.Now()
	atomic.AddInt64(&result.TotalRequests, 1)

	_, err := client.ListCampaigns(ctx, req)
	latency := time.Since(start)

	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}
	atomic.AddInt64(&result.SuccessCount, 1)
	atomic.AddInt64(&result.LatencySum, latency.Nanoseconds())
	select {
	case latencyChan <- latency:
	default:
	}
}

// trackP95 maintains a best-effort rolling P95 latency estimation.
func trackP95(latencies <-chan time.Duration, result *PerfResult) {
	const size = 1000
	buf := make([]int64, 0, size)

	for lat := range latencies {
		if len(buf) < size {
			buf = append(buf, lat.Nanoseconds())
		} else if idx := time.Now().UnixNano() % int64(size); idx < int64(size/10) {
			// Replace a pseudo-random element (simple reservoir sampling)
			buf[idx] = lat.Nanoseconds()
		}

		// Update P95 periodically
		if len(buf) >= 100 && len(buf)%100 == 0 {
			sorted := slices.Clone(buf)
			slices.Sort(sorted)
			p95Index := int(float64(len(sorted)) * 0.95)
			if p95Index >= len(sorted) {
				p95Index = len(sorted) - 1
			}
			atomic.StoreInt64(&result.P95Latency, sorted[p95Index])
		}
	}
}

// verifyCollection checks that a forced rebuild sees every campaign the
// ledger has allocated.
func verifyCollection(client *api.CampaignServiceClient) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	info, err := client.GetLedgerInfo(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return fmt.Errorf("failed to get ledger info: %w", err)
	}

	list, err := client.ListCampaigns(ctx, connect.NewRequest(&api.ListCampaignsRequest{Refresh: true}))
	if err != nil {
		return fmt.Errorf("failed to list campaigns: %w", err)
	}

	listed := uint64(len(list.Msg.Campaigns))
	fmt.Printf("Ledger campaigns : %d\n", info.Msg.TotalCampaigns)
	fmt.Printf("Listed campaigns : %d\n", listed)

	if listed != info.Msg.TotalCampaigns {
		return fmt.Errorf("collection mismatch: ledger=%d, listed=%d", info.Msg.TotalCampaigns, listed)
	}

	for i := 1; i < len(list.Msg.Campaigns); i++ {
		if list.Msg.Campaigns[i-1].Deadline < list.Msg.Campaigns[i].Deadline {
			return fmt.Errorf("collection not ordered by deadline at position %d", i)
		}
	}
	return nil
}
