// Command probe sends a forecast question to a running gateway and prints
// the canonical result. Useful as a smoke check after deploys.
//
// Usage:
//
//	go run ./cmd/probe -addr http://localhost:8080 -question "Will the herd cross the Mara river this week?"
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/wildebeast/forecast-gateway/internal/domain"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "gateway base URL")
	question := flag.String("question", "", "forecast question to send")
	flag.Parse()

	if *question == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*addr, *question); code != 0 {
		os.Exit(code)
	}
}

func run(addr, question string) int {
	body, err := json.Marshal(domain.ForecastQuestion{Question: question})
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode request:", err)
		return 1
	}

	client := &http.Client{Timeout: 45 * time.Second}
	resp, err := client.Post(addr+"/api/v1/forecast", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintln(os.Stderr, "request failed:", err)
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var gatewayErr map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&gatewayErr); err == nil {
			fmt.Fprintf(os.Stderr, "gateway error (%d): %s: %v\n", resp.StatusCode, gatewayErr["error"], gatewayErr["message"])
		} else {
			fmt.Fprintf(os.Stderr, "gateway error: status %d\n", resp.StatusCode)
		}
		return 1
	}

	var result domain.ForecastResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fmt.Fprintln(os.Stderr, "decode response:", err)
		return 1
	}

	fmt.Printf("question:          %s\n", question)
	fmt.Printf("final probability: %.1f%%\n", result.FinalProbability*100)
	fmt.Printf("confidence range:  %.1f%% - %.1f%%\n", result.ConfidenceRangeLow*100, result.ConfidenceRangeHigh*100)
	fmt.Printf("baseline:          %.1f%%\n", result.BaselineValue*100)
	for _, adj := range result.TerrainAdjustments {
		fmt.Printf("adjustment:        %s %+.1fpp\n", adj.FactorName, adj.AdjustmentPercentage)
	}
	if result.FullExplanation != "" {
		fmt.Printf("explanation:       %s\n", result.FullExplanation)
	}
	return 0
}
