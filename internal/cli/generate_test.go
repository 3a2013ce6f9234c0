package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/polsolde/bingo-fes-te-jove/pkg/card"
)

func TestResolveConfigFlagOverrides(t *testing.T) {
	cmd := newGenerateCmd(testCLI())
	if err := cmd.Flags().Set("total", "250"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("round", "4"); err != nil {
		t.Fatal(err)
	}

	// resolveConfig reads values from opts and change state from the
	// command, so the test mirrors the values it set above.
	opts := &generateOpts{total: 250, round: 4}
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Total != 250 {
		t.Errorf("Total = %d, want 250", cfg.Total)
	}
	if cfg.Round != 4 {
		t.Errorf("Round = %d, want 4", cfg.Round)
	}
	if cfg.Title != defaultTitle {
		t.Errorf("Title = %q, want default", cfg.Title)
	}
}

func TestResolveConfigFileWithOverride(t *testing.T) {
	path := writeConfigFile(t, "total = 500\nround = 2")

	c := testCLI()
	cmd := newGenerateCmd(c)
	if err := cmd.Flags().Set("config", path); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("round", "7"); err != nil {
		t.Fatal(err)
	}

	// Pull the bound opts back out through the flag values.
	opts := &generateOpts{config: path, round: 7}
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Total != 500 {
		t.Errorf("Total = %d, want 500 from file", cfg.Total)
	}
	if cfg.Round != 7 {
		t.Errorf("Round = %d, want 7 from flag", cfg.Round)
	}
}

func TestGroupStrips(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		wantLens  []int
	}{
		{"empty", 0, nil},
		{"single short strip", 4, []int{4}},
		{"exact strips", 12, []int{6, 6}},
		{"trailing short strip", 14, []int{6, 6, 2}},
	}

	gen := card.NewSeededGenerator(1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards := make([]card.Card, tt.total)
			for i := range cards {
				crd, err := gen.Generate()
				if err != nil {
					t.Fatalf("Generate: %v", err)
				}
				cards[i] = crd
			}

			strips := groupStrips(cards)
			if len(strips) != len(tt.wantLens) {
				t.Fatalf("got %d strips, want %d", len(strips), len(tt.wantLens))
			}
			for i, want := range tt.wantLens {
				if len(strips[i]) != want {
					t.Errorf("strip %d has %d cards, want %d", i, len(strips[i]), want)
				}
			}
		})
	}
}

func TestWriteBatchFile(t *testing.T) {
	gen := card.NewSeededGenerator(2)
	crd, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	b := Batch{ID: "test", Title: "Test", Round: 1, Total: 1, Cards: []card.Card{crd}}
	path := filepath.Join(t.TempDir(), "batch.json")

	if err := writeBatch(b, path); err != nil {
		t.Fatalf("writeBatch: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	var got Batch
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshaling output: %v", err)
	}
	if got.ID != "test" || got.Total != 1 || len(got.Cards) != 1 {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.Cards[0].Fingerprint() != crd.Fingerprint() {
		t.Error("card changed across round-trip")
	}
}
