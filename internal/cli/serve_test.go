package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/polsolde/bingo-fes-te-jove/pkg/card"
	"github.com/polsolde/bingo-fes-te-jove/pkg/session"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Total = 20
	cfg.Seed = 11

	srv := httptest.NewServer(newAPIServer(testCLI(), &cfg).routes())
	t.Cleanup(srv.Close)
	return srv
}

func createTestBatch(t *testing.T, srv *httptest.Server, body string) Batch {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/batches", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/batches: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var batch Batch
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		t.Fatalf("decoding batch: %v", err)
	}
	return batch
}

func TestServeHealth(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestServeCreateBatch(t *testing.T) {
	srv := testServer(t)

	batch := createTestBatch(t, srv, `{"total": 12, "round": 3}`)

	if batch.ID == "" {
		t.Error("expected a batch ID")
	}
	if batch.Round != 3 {
		t.Errorf("Round = %d, want 3", batch.Round)
	}
	if batch.Total != 12 || len(batch.Cards) != 12 {
		t.Errorf("Total = %d, Cards = %d, want 12", batch.Total, len(batch.Cards))
	}
	if !session.ValidateUnique(batch.Cards) {
		t.Error("batch cards are not pairwise distinct")
	}
	for i, crd := range batch.Cards {
		if err := crd.Validate(); err != nil {
			t.Errorf("card %d invalid: %v", i, err)
		}
	}
}

func TestServeCreateBatchStrips(t *testing.T) {
	srv := testServer(t)

	batch := createTestBatch(t, srv, `{"total": 12, "strip": true}`)

	if len(batch.Cards) != 0 {
		t.Errorf("expected no flat cards, got %d", len(batch.Cards))
	}
	if len(batch.Strips) != 2 {
		t.Fatalf("got %d strips, want 2", len(batch.Strips))
	}
	for i, strip := range batch.Strips {
		if len(strip) != stripSize {
			t.Errorf("strip %d has %d cards, want %d", i, len(strip), stripSize)
		}
	}
}

func TestServeCreateBatchRejectsBadInput(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"total":`, http.StatusBadRequest},
		{"negative total", `{"total": -3}`, http.StatusBadRequest},
		{"over api limit", `{"total": 200000}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/batches", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestServeListBatches(t *testing.T) {
	srv := testServer(t)
	first := createTestBatch(t, srv, `{"total": 5}`)
	second := createTestBatch(t, srv, `{"total": 6}`)

	resp, err := http.Get(srv.URL + "/api/batches")
	if err != nil {
		t.Fatalf("GET /api/batches: %v", err)
	}
	defer resp.Body.Close()

	var got []batchSummary
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d batches, want 2", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Error("list order does not match creation order")
	}
	if got[0].Total != 5 || got[1].Total != 6 {
		t.Errorf("totals = %d, %d, want 5, 6", got[0].Total, got[1].Total)
	}
}

func TestServeGetBatch(t *testing.T) {
	srv := testServer(t)
	created := createTestBatch(t, srv, `{"total": 5}`)

	resp, err := http.Get(srv.URL + "/api/batches/" + created.ID)
	if err != nil {
		t.Fatalf("GET batch: %v", err)
	}
	defer resp.Body.Close()

	var got Batch
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding batch: %v", err)
	}
	if got.ID != created.ID || len(got.Cards) != 5 {
		t.Errorf("got ID %q with %d cards", got.ID, len(got.Cards))
	}
}

func TestServeGetBatchNotFound(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/batches/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServeGetCard(t *testing.T) {
	srv := testServer(t)
	created := createTestBatch(t, srv, `{"total": 5}`)

	resp, err := http.Get(srv.URL + "/api/batches/" + created.ID + "/cards/2")
	if err != nil {
		t.Fatalf("GET card: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var got card.Card
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding card: %v", err)
	}
	if got.Fingerprint() != created.Cards[2].Fingerprint() {
		t.Error("returned card differs from batch card")
	}
}

func TestServeGetCardOutOfRange(t *testing.T) {
	srv := testServer(t)
	created := createTestBatch(t, srv, `{"total": 5}`)

	for _, index := range []string{"5", "-1", "abc"} {
		resp, err := http.Get(srv.URL + "/api/batches/" + created.ID + "/cards/" + index)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			t.Errorf("index %q: expected error status, got 200", index)
		}
	}
}
