// Seed tool for loading demo claims into a running Kestrel instance.
//
// Usage:
//   go run cmd/seed/main.go -url http://localhost:8080 -count 50
//
// This tool:
//   1. Generates synthetic motor claims across a set of risk profiles
//   2. Submits each claim to the intake API
//   3. Waits for async scoring to complete
//   4. Prints the resulting risk band distribution
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// ClaimRequest mirrors the intake API request format.
type ClaimRequest struct {
	ClaimantName        string         `json:"claimantName"`
	PolicyID            string         `json:"policyId"`
	PolicyStartDate     *time.Time     `json:"policyStartDate,omitempty"`
	PreviousClaimCount  int            `json:"previousClaimCount"`
	PriorThirdParties   []string       `json:"priorThirdParties,omitempty"`
	VehicleMake         string         `json:"vehicleMake"`
	VehicleModel        string         `json:"vehicleModel"`
	VehicleYear         int            `json:"vehicleYear"`
	VehicleRegistration string         `json:"vehicleRegistration"`
	AccidentDate        time.Time      `json:"accidentDate"`
	AccidentType        string         `json:"accidentType"`
	AccidentLocation    string         `json:"accidentLocation"`
	AccidentDescription string         `json:"accidentDescription"`
	ThirdPartyName      string         `json:"thirdPartyName,omitempty"`
	ClaimAmountGBP      float64        `json:"claimAmountGbp"`
	ExtractedFields     map[string]any `json:"extractedFields,omitempty"`
}

// ClaimResponse is the subset of the API response the tool reads back.
type ClaimResponse struct {
	Reference  string  `json:"reference"`
	Status     string  `json:"status"`
	FraudScore *int    `json:"fraudScore"`
	RiskBand   *string `json:"riskBand"`
}

// profile is a named claim generator. Each one exercises a different slice of
// the rule catalogue so a seeded instance shows all three risk bands.
type profile struct {
	name string
	make func(i int) ClaimRequest
}

var claimants = []string{
	"Oliver Bennett", "Amelia Clarke", "Harry Whitfield", "Isla Morrison",
	"Jack Davenport", "Freya Hughes", "Noah Pritchard", "Evie Lancaster",
}

var locations = []string{
	"M25 junction 10 clockwise",
	"A34 northbound near Chieveley",
	"High Street car park, Guildford",
	"B4009 outside Watlington",
}

func baseClaim(i int) ClaimRequest {
	started := time.Now().UTC().AddDate(-2, 0, 0)
	return ClaimRequest{
		ClaimantName:        claimants[i%len(claimants)],
		PolicyID:            fmt.Sprintf("POL-%05d", 10000+i),
		PolicyStartDate:     &started,
		VehicleMake:         "Ford",
		VehicleModel:        "Focus",
		VehicleYear:         2019,
		VehicleRegistration: fmt.Sprintf("KE%02d XYZ", i%100),
		AccidentDate:        time.Now().UTC().Add(-72 * time.Hour),
		AccidentType:        "Rear-End",
		AccidentLocation:    locations[i%len(locations)],
		AccidentDescription: "Hit from behind while queuing at the roundabout",
		ClaimAmountGBP:      800 + float64(rand.Intn(4000)),
	}
}

var profiles = []profile{
	{"clean", func(i int) ClaimRequest {
		return baseClaim(i)
	}},
	{"late_notification", func(i int) ClaimRequest {
		c := baseClaim(i)
		c.AccidentDate = time.Now().UTC().AddDate(0, 0, -30)
		return c
	}},
	{"early_policy", func(i int) ClaimRequest {
		c := baseClaim(i)
		started := time.Now().UTC().AddDate(0, 0, -5)
		c.PolicyStartDate = &started
		return c
	}},
	{"frequent_claimant", func(i int) ClaimRequest {
		c := baseClaim(i)
		c.PreviousClaimCount = 4
		return c
	}},
	{"vague_location", func(i int) ClaimRequest {
		c := baseClaim(i)
		c.AccidentLocation = "somewhere near the shops"
		return c
	}},
	{"repeat_third_party", func(i int) ClaimRequest {
		c := baseClaim(i)
		c.ThirdPartyName = "Dale Hartley"
		c.PriorThirdParties = []string{"dale hartley"}
		c.PreviousClaimCount = 3
		return c
	}},
	{"description_mismatch", func(i int) ClaimRequest {
		c := baseClaim(i)
		c.AccidentType = "Theft"
		c.AccidentDescription = "Scratched the bumper while parking"
		c.AccidentDate = time.Now().UTC().AddDate(0, 0, -20)
		return c
	}},
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Kestrel base URL")
	orgID := flag.String("org", "default", "Org ID for requests")
	analyst := flag.String("analyst", "seed-tool", "Analyst ID for requests")
	count := flag.Int("count", 50, "Number of claims to create")
	workers := flag.Int("workers", 5, "Number of concurrent workers")
	wait := flag.Duration("wait", 5*time.Second, "How long to wait for async scoring")
	verbose := flag.Bool("verbose", false, "Print each created claim")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║              KESTREL SEED - Demo Claim Generator              ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nKestrel URL:  %s\n", *baseURL)
	fmt.Printf("Org ID:       %s\n", *orgID)
	fmt.Printf("Claims:       %d\n", *count)
	fmt.Printf("Workers:      %d\n", *workers)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Kestrel not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Kestrel is running:")
		fmt.Println("  go run cmd/kestrel/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Kestrel is healthy")

	var created, errored int64
	references := make(chan string, *count)

	work := make(chan int, 100)
	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for i := range work {
				p := profiles[i%len(profiles)]
				resp, err := createClaim(client, *baseURL, *orgID, *analyst, p.make(i))
				if err != nil {
					atomic.AddInt64(&errored, 1)
					if *verbose {
						fmt.Printf("ERROR: %s -> %v\n", p.name, err)
					}
					continue
				}
				atomic.AddInt64(&created, 1)
				references <- resp.Reference
				if *verbose {
					fmt.Printf("✓ %-20s %s\n", p.name, resp.Reference)
				}
			}
		}()
	}

	for i := 0; i < *count; i++ {
		work <- i
	}
	close(work)
	wg.Wait()
	close(references)

	fmt.Printf("\n✓ Created %d claims (%d errors)\n", created, errored)

	fmt.Printf("\nWaiting %v for async scoring...\n", *wait)
	time.Sleep(*wait)

	printBandSummary(*baseURL, *orgID, references)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func createClaim(client *http.Client, baseURL, orgID, analyst string, claim ClaimRequest) (*ClaimResponse, error) {
	body, err := json.Marshal(claim)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/claims", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Org-ID", orgID)
	req.Header.Set("X-Analyst-ID", analyst)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result ClaimResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func printBandSummary(baseURL, orgID string, references chan string) {
	client := &http.Client{Timeout: 10 * time.Second}

	bands := map[string]int{}
	unscored := 0

	for ref := range references {
		req, _ := http.NewRequest(http.MethodGet, baseURL+"/claims/"+ref, nil)
		req.Header.Set("X-Org-ID", orgID)

		resp, err := client.Do(req)
		if err != nil {
			continue
		}

		var detail struct {
			Claim ClaimResponse `json:"claim"`
		}
		json.NewDecoder(resp.Body).Decode(&detail)
		resp.Body.Close()

		if detail.Claim.RiskBand == nil {
			unscored++
			continue
		}
		bands[*detail.Claim.RiskBand]++
	}

	fmt.Println("\n📊 RISK BAND DISTRIBUTION")
	for _, band := range []string{"low", "medium", "high"} {
		fmt.Printf("   %-8s %d\n", band, bands[band])
	}
	if unscored > 0 {
		fmt.Printf("   %-8s %d (still queued)\n", "unscored", unscored)
	}
	fmt.Println()
}
