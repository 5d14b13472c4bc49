//go:build ignore

// Watches one bridge transaction through a running tracker, printing
// each status change until the record reaches a terminal state.
//
// Usage: go run scripts/track-transaction.go <tx-hash> <deposit|withdraw> [api-url]
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const defaultAPIURL = "http://localhost:8080"

type record struct {
	TxHash                string `json:"txHash"`
	Type                  string `json:"type"`
	Status                string `json:"status"`
	Confirmations         int    `json:"confirmations"`
	RequiredConfirmations int    `json:"requiredConfirmations"`
	ExplorerURL           string `json:"explorerUrl"`
}

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: go run scripts/track-transaction.go <tx-hash> <deposit|withdraw> [api-url]")
		os.Exit(2)
	}
	txHash, txType := os.Args[1], os.Args[2]
	apiURL := defaultAPIURL
	if len(os.Args) > 3 {
		apiURL = os.Args[3]
	}

	client := &http.Client{Timeout: 15 * time.Second}
	url := fmt.Sprintf("%s/api/v1/transactions/%s?type=%s", apiURL, txHash, txType)

	lastStatus := ""
	for {
		rec, err := fetch(client, url)
		if err != nil {
			fmt.Printf("✗ %v\n", err)
			os.Exit(1)
		}

		if rec.Status != lastStatus {
			fmt.Printf("%s  %s  %d/%d confirmations\n",
				time.Now().Format("15:04:05"), rec.Status, rec.Confirmations, rec.RequiredConfirmations)
			lastStatus = rec.Status
		}

		if rec.Status == "completed" || rec.Status == "failed" {
			if rec.ExplorerURL != "" {
				fmt.Printf("\n%s\n", rec.ExplorerURL)
			}
			return
		}
		time.Sleep(3 * time.Second)
	}
}

func fetch(client *http.Client, url string) (*record, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}

	var rec record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
