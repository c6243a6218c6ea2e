package main

import (
	"bytes"
	"crypto/tls"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// signupResp is the part of the signup response the load test needs
type signupResp struct {
	UserID string `json:"userId"`
}

type loginResp struct {
	Token string `json:"token"`
}

type postResp struct {
	ID    string   `json:"_id"`
	Likes []string `json:"likes"`
}

type likeResp struct {
	IsLiked bool `json:"isLiked"`
}

type account struct {
	id    string
	token string
}

func main() {
	// --- Command-line flags ---
	var server string
	var duration int
	var concurrency int
	var csvFile string
	var trimPercent float64
	var insecure bool
	var useTokens bool

	flag.StringVar(&server, "server", "http://localhost:5000", "server base URL")
	flag.IntVar(&duration, "duration", 30, "duration in seconds")
	flag.IntVar(&concurrency, "c", 50, "number of concurrent accounts toggling likes")
	flag.StringVar(&csvFile, "csv", "like_latencies.csv", "CSV file to save latencies")
	flag.Float64Var(&trimPercent, "trim", 1.0, "percent of latency to trim from top and bottom for trimmed mean")
	flag.BoolVar(&insecure, "insecure", false, "skip TLS verification for self-signed certificates")
	flag.BoolVar(&useTokens, "tokens", true, "identify accounts with bearer tokens instead of body userId")
	flag.Parse()

	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: insecure},
		},
		Timeout: 10 * time.Second,
	}

	// --- Create accounts for each goroutine ---
	fmt.Printf("Creating %d accounts...\n", concurrency)
	run := time.Now().UnixNano()
	accounts := make([]account, concurrency)
	for i := range accounts {
		email := fmt.Sprintf("load-%d-%d@bench.local", run, i)
		creds := map[string]string{
			"username": fmt.Sprintf("load-user-%d", i),
			"email":    email,
			"password": "bench-password",
		}

		var su signupResp
		mustPost(client, server+"/api/auth/signup", creds, "", http.StatusCreated, &su)
		accounts[i].id = su.UserID

		if useTokens {
			var lr loginResp
			mustPost(client, server+"/api/auth/login", creds, "", http.StatusOK, &lr)
			accounts[i].token = lr.Token
		}
	}
	fmt.Println("Accounts created.")

	// --- One shared post is the contention point ---
	var post postResp
	mustPost(client, server+"/api/post/add-post", map[string]any{
		"userId":       accounts[0].id,
		"caption":      "like load target",
		"placeName":    "Bench",
		"placeAddress": "localhost",
		"placeLocation": map[string]float64{
			"accuracy": 1, "longitude": 0, "latitude": 0, "altitude": 0,
			"heading": 0, "altitudeAccuracy": 1, "speed": 0,
		},
	}, accounts[0].token, http.StatusCreated, &post)
	fmt.Printf("Target post %s\n", post.ID)

	// --- Prepare concurrency test ---
	stopTime := time.Now().Add(time.Duration(duration) * time.Second)
	var wg sync.WaitGroup

	// Atomic counters for thread-safe tracking
	var requests int64
	var successes int64
	var errors4xx int64
	var errors5xx int64

	latencySlices := make([][]float64, concurrency) // each goroutine records latencies
	likedState := make([]bool, concurrency)         // last state each account was told

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			acc := accounts[idx]
			var localLatencies []float64

			// Keep toggling until the test duration ends
			for time.Now().Before(stopTime) {
				start := time.Now()
				var lr likeResp
				status, err := postJSON(client, server+"/api/post/like",
					map[string]string{"postId": post.ID, "userId": acc.id}, acc.token, &lr)
				lat := time.Since(start).Seconds() * 1000 // latency in ms
				localLatencies = append(localLatencies, lat)
				atomic.AddInt64(&requests, 1)

				if err != nil {
					fmt.Printf("Request error: %v\n", err)
					if status == 0 {
						continue
					}
				}

				// Count success/failure by status code
				switch {
				case status >= 200 && status < 300:
					atomic.AddInt64(&successes, 1)
					likedState[idx] = lr.IsLiked
				case status >= 400 && status < 500:
					atomic.AddInt64(&errors4xx, 1)
				case status >= 500:
					atomic.AddInt64(&errors5xx, 1)
				}
			}

			latencySlices[idx] = localLatencies
		}(i)
	}

	wg.Wait()

	// --- Verify the like set ---
	var final struct {
		Post struct {
			Likes []string `json:"likes"`
		} `json:"post"`
	}
	mustPost(client, server+"/api/post/post/"+post.ID, map[string]string{}, "", http.StatusOK, &final)

	seen := make(map[string]int)
	for _, id := range final.Post.Likes {
		seen[id]++
	}
	duplicates := 0
	mismatches := 0
	for i, acc := range accounts {
		if seen[acc.id] > 1 {
			duplicates++
		}
		if (seen[acc.id] > 0) != likedState[i] {
			mismatches++
		}
	}

	// --- Merge all latencies ---
	var allLatencies []float64
	for _, slice := range latencySlices {
		allLatencies = append(allLatencies, slice...)
	}
	sort.Float64s(allLatencies)

	// --- Compute statistics ---
	trimmedMeanVal := trimmedMean(allLatencies, trimPercent)
	p50 := percentile(allLatencies, 50)
	p90 := percentile(allLatencies, 90)
	p99 := percentile(allLatencies, 99)

	fmt.Printf("Requests: %d  Successes: %d  4xx: %d  5xx: %d\n", requests, successes, errors4xx, errors5xx)
	fmt.Printf("Latency (ms): trimmed_mean=%.2f p50=%.2f p90=%.2f p99=%.2f\n", trimmedMeanVal, p50, p90, p99)
	fmt.Printf("Final likes: %d  duplicate accounts: %d  state mismatches: %d\n", len(final.Post.Likes), duplicates, mismatches)

	// --- Save latencies to CSV ---
	f, err := os.Create(csvFile)
	if err != nil {
		fmt.Printf("Failed to create CSV file: %v\n", err)
	} else {
		w := csv.NewWriter(f)
		w.Write([]string{"latency_ms"})
		for _, d := range allLatencies {
			w.Write([]string{fmt.Sprintf("%.3f", d)})
		}
		w.Flush()
		f.Close()
		fmt.Printf("Saved latencies to %s\n", csvFile)
	}

	if duplicates > 0 {
		os.Exit(1)
	}
}

// postJSON sends a JSON POST and decodes a successful response into out.
func postJSON(client *http.Client, url string, body any, token string, out any) (int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func mustPost(client *http.Client, url string, body any, token string, want int, out any) {
	status, err := postJSON(client, url, body, token, out)
	if err != nil || status != want {
		panic(fmt.Sprintf("POST %s: status %d: %v", url, status, err))
	}
}

// trimmedMean calculates mean latency after trimming top/bottom trimPercent values
func trimmedMean(data []float64, trimPercent float64) float64 {
	if len(data) == 0 {
		return 0
	}
	trim := int(float64(len(data)) * trimPercent / 100.0)
	if trim*2 >= len(data) {
		trim = len(data) / 2
	}
	trimmed := data[trim : len(data)-trim]
	if len(trimmed) == 0 {
		return 0
	}
	var sum float64
	for _, v := range trimmed {
		sum += v
	}
	return sum / float64(len(trimmed))
}

// percentile calculates the p-th percentile from sorted data
func percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	k := (p / 100.0) * float64(len(data)-1)
	f := int(k)
	c := f + 1
	if c >= len(data) {
		return data[len(data)-1]
	}
	return data[f]*(float64(c)-k) + data[c]*(k-float64(f))
}
