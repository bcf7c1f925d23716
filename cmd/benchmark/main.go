package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type modelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

type reviseRequest struct {
	Text           string `json:"text"`
	Language       string `json:"language"`
	ModelID        string `json:"model_id"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

type codeRequest struct {
	Task           string `json:"task"`
	CodeSnippet    string `json:"code_snippet,omitempty"`
	ModelID        string `json:"model_id"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// streamLine is either an update or, when Done is set, the closing summary.
type streamLine struct {
	Text      string `json:"text"`
	State     string `json:"state"`
	Done      bool   `json:"done"`
	Chunks    int    `json:"chunks"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

type result struct {
	Sample    string `json:"sample"`
	Chars     int    `json:"chars"`
	Model     string `json:"model"`
	Run       int    `json:"run"`
	FirstMs   int64  `json:"first_ms"`
	ElapsedMs int64  `json:"elapsed_ms"`
	WallMs    int64  `json:"wall_ms"`
	Chunks    int    `json:"chunks"`
	OutChars  int    `json:"out_chars"`
	State     string `json:"state"`
	Output    string `json:"-"`
	Error     string `json:"error,omitempty"`
}

type client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	timeout int
	mode    string
}

func main() {
	url := flag.String("url", "http://localhost:8090", "API base URL")
	apiKey := flag.String("api-key", "", "API key (optional)")
	runs := flag.Int("runs", 3, "Number of runs per sample")
	model := flag.String("model", "", "Model ID to use (default: the server's default)")
	timeout := flag.Int("timeout", 0, "Streaming budget in seconds sent with each request (0: server default)")
	quality := flag.Bool("quality", false, "Quality mode: show input/output for each sample (1 run, no timing table)")
	jsonOut := flag.String("json", "", "Write results to JSON file (e.g. results.json)")
	warmup := flag.Bool("warmup", false, "Run one warmup request per sample before measuring")
	mode := flag.String("mode", "revise", "Endpoint to benchmark: revise or code")
	flag.Parse()

	if *mode != "revise" && *mode != "code" {
		fmt.Fprintf(os.Stderr, "Error: unknown mode %q (want revise or code)\n", *mode)
		os.Exit(2)
	}

	c := &client{
		http:    &http.Client{Timeout: 360 * time.Second},
		baseURL: strings.TrimRight(*url, "/"),
		apiKey:  *apiKey,
		timeout: *timeout,
		mode:    *mode,
	}

	modelID := *model
	if modelID == "" {
		var err error
		if modelID, err = c.discoverModel(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *quality {
		runQualityMode(c, modelID)
		return
	}

	samples := Samples
	if c.mode == "code" {
		samples = CodeSamples
	}

	fmt.Printf("Benchmarking /api/%s at %s using model: %s (%d runs per sample", c.mode, c.baseURL, modelID, *runs)
	if *warmup {
		fmt.Print(", warmup enabled")
	}
	fmt.Println(")")

	var results []result
	var failures int
	for _, sample := range samples {
		if *warmup {
			fmt.Printf("  Warming up %s...", sample.Name)
			w := c.benchmark(modelID, sample, 0)
			if w.Error != "" {
				fmt.Printf(" FAILED (%s)\n", w.Error)
			} else {
				fmt.Printf(" %dms (discarded)\n", w.WallMs)
			}
		}
		for run := 1; run <= *runs; run++ {
			fmt.Printf("  Running %s (run %d/%d)...", sample.Name, run, *runs)
			r := c.benchmark(modelID, sample, run)
			results = append(results, r)
			if r.Error != "" {
				fmt.Printf(" FAILED (%s)\n", r.Error)
				failures++
			} else {
				fmt.Printf(" first %dms, total %dms (%s)\n", r.FirstMs, r.WallMs, r.State)
			}
		}
	}

	fmt.Println()
	printTable(results)
	printSummary(results)

	if *jsonOut != "" {
		if err := writeJSON(*jsonOut, results, c.baseURL, modelID); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
		} else {
			fmt.Printf("\nResults written to %s\n", *jsonOut)
		}
	}

	if failures > 0 {
		os.Exit(1)
	}
}

func (c *client) do(req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func (c *client) discoverModel() (string, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/api/models", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("fetching models: %w", err)
	}
	defer resp.Body.Close()

	var mr modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return "", fmt.Errorf("decoding models: %w", err)
	}
	if mr.Default == "" {
		return "", errors.New("no models available")
	}
	return mr.Default, nil
}

func (c *client) payload(modelID string, sample Sample) ([]byte, error) {
	if c.mode == "code" {
		return json.Marshal(codeRequest{
			Task:           sample.Text,
			CodeSnippet:    sample.Snippet,
			ModelID:        modelID,
			TimeoutSeconds: c.timeout,
		})
	}
	return json.Marshal(reviseRequest{
		Text:           sample.Text,
		Language:       sample.Language,
		ModelID:        modelID,
		TimeoutSeconds: c.timeout,
	})
}

// benchmark streams one request and times the first line and the whole body.
func (c *client) benchmark(modelID string, sample Sample, run int) result {
	r := result{Sample: sample.Name, Chars: len(sample.Text) + len(sample.Snippet), Model: modelID, Run: run}

	payload, err := c.payload(modelID, sample)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/"+c.mode, bytes.NewReader(payload))
	if err != nil {
		r.Error = err.Error()
		return r
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.do(req)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var line streamLine
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			r.Error = fmt.Sprintf("bad line: %v", err)
			return r
		}
		if line.Done {
			r.State = line.State
			r.Chunks = line.Chunks
			r.ElapsedMs = line.ElapsedMs
			continue
		}
		if r.FirstMs == 0 {
			r.FirstMs = time.Since(start).Milliseconds()
		}
		if line.State == "error" {
			r.Error = line.Text
		} else {
			r.Output = line.Text
		}
	}
	r.WallMs = time.Since(start).Milliseconds()
	if err := sc.Err(); err != nil {
		r.Error = err.Error()
	}
	if r.Error == "" && r.State == "" {
		r.Error = "stream ended without a summary"
	}
	r.OutChars = len(r.Output)
	return r
}

func printTable(results []result) {
	fmt.Println("| Sample | Chars | Model | Run | First (ms) | Total (ms) | Chunks | Out Chars | State |")
	fmt.Println("|--------|-------|-------|-----|------------|------------|--------|-----------|-------|")
	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("| %-6s | %5d | %-20s | %d | %10s | %10s | %6s | %9s | %-9s |\n",
				r.Sample, r.Chars, "-", r.Run, "FAIL", "-", "-", "-", "error")
			continue
		}
		fmt.Printf("| %-6s | %5d | %-20s | %d | %10d | %10d | %6d | %9d | %-9s |\n",
			r.Sample, r.Chars, r.Model, r.Run, r.FirstMs, r.WallMs, r.Chunks, r.OutChars, r.State)
	}
}

func runQualityMode(c *client, modelID string) {
	fmt.Printf("Quality test against %s using model: %s\n", c.baseURL, modelID)
	fmt.Println(strings.Repeat("=", 72))

	var failures int
	if c.mode == "code" {
		fmt.Fprintln(os.Stderr, "Error: quality mode only covers revision samples")
		os.Exit(2)
	}
	for i, sample := range QualitySamples {
		fmt.Printf("\n--- %d/%d: %s (%d chars) ---\n", i+1, len(QualitySamples), sample.Name, len(sample.Text))
		fmt.Printf("IN:  %s\n", sample.Text)

		r := c.benchmark(modelID, sample, 1)
		if r.Error != "" {
			fmt.Printf("ERR: %s\n", r.Error)
			failures++
			continue
		}

		fmt.Printf("OUT: %s\n", r.Output)
		fmt.Printf("     [%dms, %d->%d chars, %s]\n", r.WallMs, len(sample.Text), r.OutChars, r.State)
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 72))
	fmt.Printf("Done: %d/%d passed\n", len(QualitySamples)-failures, len(QualitySamples))
	if failures > 0 {
		os.Exit(1)
	}
}

func printSummary(results []result) {
	var ok []result
	for _, r := range results {
		if r.Error == "" {
			ok = append(ok, r)
		}
	}

	failed := len(results) - len(ok)

	if len(ok) == 0 {
		fmt.Printf("\nSummary: all %d runs failed\n", len(results))
		return
	}

	var totalFirst, totalWall int64
	var truncated int
	minWall, maxWall := ok[0].WallMs, ok[0].WallMs
	minSample, maxSample := ok[0].Sample, ok[0].Sample

	for _, r := range ok {
		totalFirst += r.FirstMs
		totalWall += r.WallMs
		if r.State == "truncated" {
			truncated++
		}
		if r.WallMs < minWall {
			minWall, minSample = r.WallMs, r.Sample
		}
		if r.WallMs > maxWall {
			maxWall, maxSample = r.WallMs, r.Sample
		}
	}

	n := int64(len(ok))
	fmt.Printf("\nSummary:\n")
	fmt.Printf("- Avg time to first chunk: %dms\n", totalFirst/n)
	fmt.Printf("- Avg total: %dms\n", totalWall/n)
	fmt.Printf("- Min total: %dms (%s)\n", minWall, minSample)
	fmt.Printf("- Max total: %dms (%s)\n", maxWall, maxSample)
	fmt.Printf("- Truncated: %d/%d\n", truncated, len(ok))
	fmt.Printf("- Total runs: %d (%d ok, %d failed)\n", len(results), len(ok), failed)
}

type jsonReport struct {
	Timestamp string   `json:"timestamp"`
	URL       string   `json:"url"`
	Model     string   `json:"model"`
	Results   []result `json:"results"`
}

func writeJSON(path string, results []result, baseURL, modelID string) error {
	report := jsonReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       baseURL,
		Model:     modelID,
		Results:   results,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
