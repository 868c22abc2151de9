// cmd/megaload/main.go drives concurrent reserve calls at a single SKU
// to exercise the oversell guard under contention.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type Metrics struct {
	requestsSent      int64
	requestsCompleted int64

	success200      int64
	insufficient409 int64
	conflict409     int64
	badRequest400   int64
	clientErrors4xx int64
	serverErrors5xx int64
	networkErrors   int64
}

func (m *Metrics) recordResponse(statusCode int, errLabel string) {
	atomic.AddInt64(&m.requestsCompleted, 1)

	switch {
	case statusCode == http.StatusOK:
		atomic.AddInt64(&m.success200, 1)
	case statusCode == http.StatusConflict && errLabel == "insufficient":
		atomic.AddInt64(&m.insufficient409, 1)
		atomic.AddInt64(&m.clientErrors4xx, 1)
	case statusCode == http.StatusConflict && errLabel == "conflict":
		atomic.AddInt64(&m.conflict409, 1)
		atomic.AddInt64(&m.clientErrors4xx, 1)
	case statusCode == http.StatusBadRequest:
		atomic.AddInt64(&m.badRequest400, 1)
		atomic.AddInt64(&m.clientErrors4xx, 1)
	case statusCode >= 500:
		atomic.AddInt64(&m.serverErrors5xx, 1)
	case statusCode >= 400:
		atomic.AddInt64(&m.clientErrors4xx, 1)
	}
}

func (m *Metrics) recordNetworkError() {
	atomic.AddInt64(&m.requestsCompleted, 1)
	atomic.AddInt64(&m.networkErrors, 1)
}

func (m *Metrics) printProgress(totalCarts int) {
	sent := atomic.LoadInt64(&m.requestsSent)
	completed := atomic.LoadInt64(&m.requestsCompleted)
	fmt.Printf("Progress: sent=%d completed=%d inFlight=%d success=%d\n",
		sent, completed, sent-completed, atomic.LoadInt64(&m.success200))
}

func (m *Metrics) printFinal(duration time.Duration) {
	sent := atomic.LoadInt64(&m.requestsSent)
	completed := atomic.LoadInt64(&m.requestsCompleted)

	fmt.Printf("\n=== FINAL RESULTS ===\n")
	fmt.Printf("Duration: %v\n", duration)
	fmt.Printf("Requests sent: %d\n", sent)
	fmt.Printf("Requests completed: %d (%.2f%%)\n", completed, float64(completed)/float64(sent)*100)
	fmt.Printf("Reserved (200): %d\n", atomic.LoadInt64(&m.success200))
	fmt.Printf("Insufficient (409): %d\n", atomic.LoadInt64(&m.insufficient409))
	fmt.Printf("Conflict (409): %d\n", atomic.LoadInt64(&m.conflict409))
	fmt.Printf("Bad request (400): %d\n", atomic.LoadInt64(&m.badRequest400))
	fmt.Printf("Server errors (5xx): %d\n", atomic.LoadInt64(&m.serverErrors5xx))
	fmt.Printf("Network errors: %d\n", atomic.LoadInt64(&m.networkErrors))
	fmt.Printf("Rate: %.2f req/s\n", float64(completed)/duration.Seconds())
}

type reserveRequest struct {
	SKU        string `json:"sku"`
	CartID     string `json:"cart_id"`
	Qty        int64  `json:"qty"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

type errorBody struct {
	Error string `json:"error"`
}

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8080", "reservation engine base URL")
		sku        = flag.String("sku", "sku-123", "SKU to contend over")
		totalCarts = flag.Int("carts", 10000, "number of distinct carts to reserve with")
		concurrent = flag.Int("concurrency", 200, "max concurrent in-flight requests")
		qty        = flag.Int64("qty", 1, "quantity per reserve call")
	)
	flag.Parse()

	var metrics Metrics
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        *concurrent * 2,
			MaxIdleConnsPerHost: *concurrent,
			MaxConnsPerHost:     *concurrent,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	fmt.Printf("Starting load test: %d carts, %d concurrent, sku=%s\n", *totalCarts, *concurrent, *sku)
	start := time.Now()

	var wg sync.WaitGroup
	sem := make(chan struct{}, *concurrent)

	progressDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.printProgress(*totalCarts)
			case <-progressDone:
				return
			}
		}
	}()

	for i := 0; i < *totalCarts; i++ {
		wg.Add(1)
		sem <- struct{}{}
		atomic.AddInt64(&metrics.requestsSent, 1)

		go func(cartNum int) {
			defer wg.Done()
			defer func() { <-sem }()

			body, _ := json.Marshal(reserveRequest{
				SKU:        *sku,
				CartID:     "mega-cart-" + uuid.NewString(),
				Qty:        *qty,
				TTLSeconds: 60,
			})

			resp, err := client.Post(*baseURL+"/v1/reserve", "application/json", bytes.NewReader(body))
			if err != nil {
				metrics.recordNetworkError()
				return
			}
			defer resp.Body.Close()

			var errBody errorBody
			if resp.StatusCode != http.StatusOK {
				json.NewDecoder(resp.Body).Decode(&errBody)
			}
			metrics.recordResponse(resp.StatusCode, errBody.Error)
		}(i)
	}

	wg.Wait()
	close(progressDone)
	metrics.printFinal(time.Since(start))
}
