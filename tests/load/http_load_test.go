//go:build load
// +build load

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	addr     = flag.String("addr", "http://localhost:8000", "Server base URL")
	target   = flag.String("target", "load-db", "Demo dependency name")
	requests = flag.Int("requests", 1000, "Total number of requests")
	workers  = flag.Int("workers", 10, "Number of concurrent workers")
	failRate = flag.Int("fail-rate", 0, "Percent of calls asked to fail")
)

type result struct {
	duration time.Duration
	status   int
	err      error
}

func main() {
	flag.Parse()

	log.Printf("Starting HTTP load test")
	log.Printf("Target: %s (%s)", *addr, *target)
	log.Printf("Requests: %d", *requests)
	log.Printf("Workers: %d", *workers)

	client := resty.New().SetBaseURL(*addr).SetTimeout(10 * time.Second)

	jobs := make(chan int, *requests)
	results := make(chan result, *requests)
	var issued atomic.Int64

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fail := *failRate > 0 && i%100 < *failRate
				payload := fmt.Sprintf(`{"target":%q,"fail":%v}`, *target, fail)

				start := time.Now()
				resp, err := client.R().
					SetContext(ctx).
					SetHeader("Content-Type", "application/json").
					SetBody(payload).
					Post("/demo/call")
				elapsed := time.Since(start)

				issued.Add(1)
				r := result{duration: elapsed, err: err}
				if resp != nil {
					r.status = resp.StatusCode()
				}
				results <- r
			}
		}()
	}

	for i := 0; i < *requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(results)

	report(results)
}

func report(results chan result) {
	var (
		durations []time.Duration
		byStatus  = make(map[int]int)
		errors    int
	)
	for r := range results {
		if r.err != nil {
			errors++
			continue
		}
		byStatus[r.status]++
		durations = append(durations, r.duration)
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	percentile := func(p float64) time.Duration {
		if len(durations) == 0 {
			return 0
		}
		idx := int(float64(len(durations)-1) * p)
		return durations[idx]
	}

	log.Printf("Completed: %d, transport errors: %d", len(durations), errors)
	for status, count := range byStatus {
		log.Printf("  HTTP %d: %d", status, count)
	}
	log.Printf("Latency p50=%v p95=%v p99=%v max=%v",
		percentile(0.50), percentile(0.95), percentile(0.99), percentile(1.0))
}
