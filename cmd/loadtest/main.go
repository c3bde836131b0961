package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Result records one HTTP attempt for the summary.
type Result struct {
	Status int
	Body   string
	Err    error
}

// Oversell check: many distinct customers race on one item; the sum of
// accepted placements must never exceed the item's starting quantity.
func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	itemID := flag.Int("item", 1, "item id to buy")
	sellerID := flag.Int64("seller", 1, "employee id that owns the test item")
	seed := flag.Bool("seed", true, "create a fresh test item before the run")
	stock := flag.Int("stock", 10, "starting quantity for the seeded item")
	nUsers := flag.Int("users", 200, "distinct customers")
	concurrency := flag.Int("c", 50, "max concurrency")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}

	if *seed {
		id, err := seedItem(client, *baseURL, *sellerID, *stock)
		if err != nil {
			panic(fmt.Sprintf("seed item failed: %v", err))
		}
		*itemID = id
		fmt.Printf("seeded item %d with stock %d\n", id, *stock)
	}

	fmt.Printf("start oversell test: item=%d users=%d concurrency=%d\n", *itemID, *nUsers, *concurrency)
	results := runBuy(client, *baseURL, *itemID, *nUsers, *concurrency)
	printSummary("oversell", results)

	qty, err := getQuantity(client, *baseURL, *itemID)
	if err != nil {
		fmt.Println("stock check err:", err)
	} else {
		fmt.Println("final item quantity:", qty)
	}
}

func runBuy(client *http.Client, baseURL string, itemID, nUsers, concurrency int) []Result {
	results := make([]Result, nUsers)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := 0; i < nUsers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			// Customer ids start high so they never collide with the seller.
			customerID := int64(10_000 + idx)
			body, _ := json.Marshal(map[string]any{
				"item_id":  itemID,
				"quantity": 1,
			})
			req, err := http.NewRequest(http.MethodPost, baseURL+"/api/buy-item", bytes.NewReader(body))
			if err != nil {
				results[idx] = Result{Err: err}
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-User-ID", fmt.Sprintf("%d", customerID))

			resp, err := client.Do(req)
			if err != nil {
				results[idx] = Result{Err: err}
				return
			}
			defer resp.Body.Close()
			b, _ := io.ReadAll(resp.Body)
			results[idx] = Result{Status: resp.StatusCode, Body: string(b)}
		}(i)
	}
	wg.Wait()
	return results
}

func seedItem(client *http.Client, baseURL string, sellerID int64, stock int) (int, error) {
	body, _ := json.Marshal(map[string]any{
		"name":     fmt.Sprintf("loadtest-%d", time.Now().UnixNano()),
		"quantity": stock,
		"price":    100,
	})
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/items", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", fmt.Sprintf("%d", sellerID))

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("status %d: %s", resp.StatusCode, b)
	}

	var out struct {
		Data struct {
			ID int `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.Data.ID, nil
}

func getQuantity(client *http.Client, baseURL string, itemID int) (int, error) {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/items", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-User-ID", "1")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var out struct {
		Data []struct {
			ID       int `json:"id"`
			Quantity int `json:"quantity"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	for _, it := range out.Data {
		if it.ID == itemID {
			return it.Quantity, nil
		}
	}
	return 0, fmt.Errorf("item %d not in catalog response", itemID)
}

func printSummary(name string, results []Result) {
	counts := map[int]int{}
	errs := 0
	for _, r := range results {
		if r.Err != nil {
			errs++
			continue
		}
		counts[r.Status]++
	}
	fmt.Printf("[%s] total=%d errors=%d\n", name, len(results), errs)
	for status, n := range counts {
		fmt.Printf("[%s] status %d: %d\n", name, status, n)
	}
}
