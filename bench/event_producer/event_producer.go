package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	appkafka "example.com/placefeed/internal/broker"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Floods the activity topic with comment events to measure how fast the
// reconciler drains them. Post and comment ids are random, so every event
// resolves to a missing post and exercises the read path only.
func main() {
	var (
		total       int
		batchSize   int
		numWorkers  int
		kafkaBroker string
		topic       string
	)
	flag.IntVar(&total, "n", 100000, "total number of events to send")
	flag.IntVar(&batchSize, "batch", 100, "batch size for sending messages")
	flag.IntVar(&numWorkers, "workers", 4, "number of parallel producers")
	flag.StringVar(&kafkaBroker, "broker", "localhost:9092", "Kafka broker address")
	flag.StringVar(&topic, "topic", "placefeed-activity", "activity topic")
	flag.Parse()

	// Kafka writer with asynchronous sending enabled
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers: []string{kafkaBroker},
		Topic:   topic,
		Async:   true,
	})
	defer w.Close()

	accountID := uuid.NewString()
	kinds := []appkafka.EventType{appkafka.CommentAdded, appkafka.CommentEdited, appkafka.CommentRemoved}
	start := time.Now()

	var successCount uint64
	var failCount uint64

	// Channel for feeding message indexes to worker goroutines
	jobs := make(chan int, total)
	var wg sync.WaitGroup

	flush := func(batch []kafka.Message) {
		if err := w.WriteMessages(context.Background(), batch...); err != nil {
			atomic.AddUint64(&failCount, uint64(len(batch)))
			fmt.Printf("write error: %v\n", err)
		} else {
			atomic.AddUint64(&successCount, uint64(len(batch)))
		}
	}

	// --- Start worker goroutines ---
	for wID := 0; wID < numWorkers; wID++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch := make([]kafka.Message, 0, batchSize)

			for i := range jobs {
				ev := appkafka.Event{
					Type:       kinds[i%len(kinds)],
					PostID:     uuid.NewString(),
					CommentID:  uuid.NewString(),
					AccountID:  accountID,
					OccurredAt: time.Now().UTC(),
				}

				v, err := json.Marshal(ev)
				if err != nil {
					atomic.AddUint64(&failCount, 1)
					fmt.Printf("marshal error: %v\n", err)
					continue
				}

				batch = append(batch, kafka.Message{
					Key:     []byte(ev.Key()),
					Value:   v,
					Headers: []kafka.Header{{Key: "event_type", Value: []byte(ev.Type)}},
				})

				if len(batch) >= batchSize {
					flush(batch)
					batch = batch[:0]
				}
			}

			// Send any remaining messages after finishing loop
			if len(batch) > 0 {
				flush(batch)
			}
		}()
	}

	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	// --- Benchmark results ---
	elapsed := time.Since(start)
	fmt.Printf("Total events: %d\n", total)
	fmt.Printf("Successful: %d, Failed: %d\n", successCount, failCount)
	fmt.Printf("Elapsed time: %s\n", elapsed)
	fmt.Printf("Throughput: %.2f msg/s\n", float64(successCount)/elapsed.Seconds())
}
