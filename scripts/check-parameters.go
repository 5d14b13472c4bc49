//go:build ignore

// Fetches the live bridge parameters from a running tracker and prints
// them alongside the fee for a sample deposit.
//
// Usage: go run scripts/check-parameters.go [api-url]
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

func main() {
	apiURL := defaultAPIURL
	if len(os.Args) > 1 {
		apiURL = os.Args[1]
	}

	client := &http.Client{Timeout: 15 * time.Second}

	fmt.Println("=== MAG Bridge Parameters ===")
	fmt.Printf("API: %s\n\n", apiURL)

	var params struct {
		Paused     bool   `json:"paused"`
		FeeRatio   string `json:"feeRatio"`
		MinAmount  string `json:"minAmount"`
		MaxAmount  string `json:"maxAmount"`
		DailyLimit string `json:"dailyLimit"`
	}
	if err := getJSON(client, apiURL+"/api/v1/bridge/parameters", &params); err != nil {
		fmt.Printf("✗ parameters: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ paused:      %v\n", params.Paused)
	fmt.Printf("✓ fee ratio:   %s\n", params.FeeRatio)
	fmt.Printf("✓ min amount:  %s MAG\n", params.MinAmount)
	fmt.Printf("✓ max amount:  %s MAG\n", params.MaxAmount)
	fmt.Printf("✓ daily limit: %s MAG\n\n", params.DailyLimit)

	var fee struct {
		Fee string `json:"fee"`
	}
	if err := getJSON(client, apiURL+"/api/v1/bridge/fee?amount=10000", &fee); err != nil {
		fmt.Printf("✗ fee preview: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ fee for a 10000 MAG deposit: %s MAG\n", fee.Fee)
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}
	return json.Unmarshal(body, out)
}
