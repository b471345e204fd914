// Command bench is a CLI driver against a running benchd instance: submit
// a single utterance or a batch script, then poll until the run reaches a
// terminal status and print a per-vendor summary table. Grounded on the
// teacher's services/loadtest/main.go flag-driven harness and percentile
// summary table, adapted from a raw WebSocket load generator into an HTTP
// client of the Run API.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hubenschmidt/speechbench/internal/bench"
	"github.com/hubenschmidt/speechbench/internal/script"
)

func main() {
	addr := flag.String("addr", "http://localhost:8000", "benchd base URL")
	mode := flag.String("mode", "isolated", "isolated|chained")
	service := flag.String("service", "tts", "tts|stt, required for isolated mode")
	vendors := flag.String("vendors", "", "comma-separated vendor names (at least one is required in either mode)")
	chainTTS := flag.String("chain-tts", "", "TTS vendor for chained mode")
	chainSTT := flag.String("chain-stt", "", "STT vendor for chained mode")
	text := flag.String("text", "", "single utterance to run")
	scriptPath := flag.String("script", "", "path to a txt/jsonl/csv batch input file")
	scriptFormat := flag.String("script-format", "txt", "format of -script: txt|jsonl|csv")
	voiceID := flag.String("voice-id", "", "voice id override")
	language := flag.String("language", "", "language code override")
	poll := flag.Duration("poll", 2*time.Second, "status poll interval")
	timeout := flag.Duration("timeout", 5*time.Minute, "max time to wait for the run to finish")
	flag.Parse()

	inputs, err := collectInputs(*text, *scriptPath, *scriptFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "bench: provide -text or -script")
		os.Exit(1)
	}

	req := bench.CreateRunRequest{
		Mode:           *mode,
		Inputs:         inputs,
		Service:        *service,
		ChainTTSVendor: *chainTTS,
		ChainSTTVendor: *chainSTT,
		VoiceID:        *voiceID,
		Language:       *language,
	}
	if *vendors != "" {
		req.Vendors = strings.Split(*vendors, ",")
	}

	client := &http.Client{Timeout: 30 * time.Second}

	runID, err := createRun(client, *addr, req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench: create run:", err)
		os.Exit(1)
	}
	fmt.Printf("run %s submitted (%d inputs)\n", runID, len(inputs))

	view, err := awaitRun(client, *addr, runID, *poll, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench: await run:", err)
		os.Exit(1)
	}

	printSummary(view)
}

func collectInputs(text, scriptPath, scriptFormat string) ([]string, error) {
	if scriptPath != "" {
		f, err := os.Open(scriptPath)
		if err != nil {
			return nil, fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		return script.Load(f, script.Format(scriptFormat))
	}
	if text != "" {
		return []string{text}, nil
	}
	return nil, nil
}

func createRun(client *http.Client, addr string, req bench.CreateRunRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	resp, err := client.Post(addr+"/runs", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, data)
	}
	var out bench.CreateRunResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.RunID, nil
}

func awaitRun(client *http.Client, addr, runID string, poll, timeout time.Duration) (bench.RunView, error) {
	deadline := time.Now().Add(timeout)
	for {
		view, err := getRun(client, addr, runID)
		if err != nil {
			return bench.RunView{}, err
		}
		switch view.Status {
		case "completed", "failed", "partial":
			return view, nil
		}
		if time.Now().After(deadline) {
			return view, fmt.Errorf("timed out waiting for run %s (last status %s)", runID, view.Status)
		}
		time.Sleep(poll)
	}
}

func getRun(client *http.Client, addr, runID string) (bench.RunView, error) {
	resp, err := client.Get(addr + "/runs/" + runID)
	if err != nil {
		return bench.RunView{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return bench.RunView{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, data)
	}
	var view bench.RunView
	if err = json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return bench.RunView{}, err
	}
	return view, nil
}

func printSummary(view bench.RunView) {
	fmt.Printf("\n=== Run %s (%s) ===\n", view.ID, view.Status)
	fmt.Printf("%-30s %-10s %s\n", "vendor", "status", "metrics")
	for _, item := range view.Items {
		fmt.Printf("%-30s %-10s %s\n", item.VendorLabel, item.Status, item.MetricsSummary)
	}
}
