package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/incident_triage/backend/internal/http/middleware"
)

var cli struct {
	File    string        `arg:"" help:"Path to a JSON array of raw logs" type:"existingfile"`
	URL     string        `help:"Batch ingestion endpoint" default:"http://localhost:8001/ingest/batch"`
	Key     string        `help:"Value for the X-Ingest-Key header" env:"INGEST_API_KEY" default:""`
	Timeout time.Duration `help:"Request timeout" default:"30s"`
}

func main() {
	ctx := kong.Parse(&cli, kong.Description("Send a sample log file to the log consumer."))
	ctx.FatalIfErrorf(run())
}

func run() error {
	data, err := os.ReadFile(cli.File)
	if err != nil {
		return err
	}
	var logs []json.RawMessage
	if err := json.Unmarshal(data, &logs); err != nil {
		return fmt.Errorf("%s must hold a JSON array: %w", cli.File, err)
	}
	fmt.Printf("sending %d logs to %s ...\n", len(logs), cli.URL)

	req, err := http.NewRequest(http.MethodPost, cli.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if cli.Key != "" {
		req.Header.Set(middleware.IngestKeyHeader, cli.Key)
	}

	client := &http.Client{Timeout: cli.Timeout}
	rsp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer rsp.Body.Close()

	body, _ := io.ReadAll(rsp.Body)
	if rsp.StatusCode >= 300 {
		return fmt.Errorf("ingest failed: %s: %s", rsp.Status, body)
	}
	fmt.Printf("OK: %s\n", bytes.TrimSpace(body))
	return nil
}
