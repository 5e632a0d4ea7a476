package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pedrogalvao/worldgen/snapshot"
)

const testConfigTOML = `
Shape = "Flat"
Seed = 1
WidthPixels = 16
HeightPixels = 16
NumberOfPlates = 4
WaterPercentage = 30
MakeClimate = false
ErosionIterations = 1
`

func TestSubmitJobRunsToCompletion(t *testing.T) {
	srv := NewServer(zerolog.Nop())
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/jobs", "application/toml", bytes.NewBufferString(testConfigTOML))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var submitted struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		t.Fatal(err)
	}
	if submitted.JobID == "" {
		t.Fatal("expected a non-empty job id")
	}

	deadline := time.Now().Add(10 * time.Second)
	var status struct {
		Status string `json:"status"`
	}
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/jobs/" + submitted.JobID)
		if err != nil {
			t.Fatal(err)
		}
		err = json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if err != nil {
			t.Fatal(err)
		}
		if status.Status == string(StatusDone) || status.Status == string(StatusFailed) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if status.Status != string(StatusDone) {
		t.Fatalf("job did not finish in time, last status: %q", status.Status)
	}

	resp, err = http.Get(ts.URL + "/jobs/" + submitted.JobID + "/snapshot")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 fetching snapshot, got %d", resp.StatusCode)
	}
	if _, err := snapshot.Load(resp.Body); err != nil {
		t.Fatalf("snapshot did not decode: %v", err)
	}
}

func TestSubmitJobRejectsInvalidConfig(t *testing.T) {
	srv := NewServer(zerolog.Nop())
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/jobs", "application/toml", bytes.NewBufferString("WidthPixels = -1"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid config, got %d", resp.StatusCode)
	}
}

func TestJobStatusUnknownID(t *testing.T) {
	srv := NewServer(zerolog.Nop())
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/jobs/" + "00000000-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job id, got %d", resp.StatusCode)
	}
}
