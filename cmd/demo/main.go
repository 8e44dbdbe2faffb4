package main

import (
	"context"
	"flag"
	"log"
	"time"

	"newsmap/pkg/biasclient"
)

// demo walks through the polling flow against a running server: one fresh
// submission and a resubmission of the same article id, which must come
// back with the identical stored result.
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "newsmap server base url")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := biasclient.New(*baseURL)
	articleID := int64(42)
	text := "The senate passed the bill after lawmakers agreed to expand healthcare coverage and raise the minimum wage."

	first, err := client.Analyze(ctx, text, &articleID)
	if err != nil {
		log.Fatalf("first analysis: %v", err)
	}
	log.Printf("First call: job=%s status=%s result=%+v err=%q", first.JobID, first.Status, first.Result, first.Error)

	second, err := client.Analyze(ctx, text, &articleID)
	if err != nil {
		log.Fatalf("second analysis: %v", err)
	}
	log.Printf("Second call: job=%s status=%s result=%+v", second.JobID, second.Status, second.Result)

	if first.Result != nil && second.Result != nil && *first.Result != *second.Result {
		log.Fatalf("resubmission returned a different result")
	}
}
