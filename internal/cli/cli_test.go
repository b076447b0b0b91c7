package cli

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/billaudit/internal/model"
	"github.com/ppiankov/billaudit/internal/pdftext/pdftest"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	isolateHome(t)
	t.Setenv("BILLAUDIT_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("BILLAUDIT_CACHE_MEMORY_TTL", "5m")
	t.Setenv("BILLAUDIT_EXTRACTION_BACKEND", "pdftotext")

	initConfig()
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9999" {
		t.Errorf("expected addr from env, got %q", cfg.Server.Addr)
	}
	if cfg.Cache.MemoryTTL != 5*time.Minute {
		t.Errorf("expected 5m memory TTL, got %v", cfg.Cache.MemoryTTL)
	}
	if cfg.Extraction.Backend != "pdftotext" {
		t.Errorf("expected pdftotext backend, got %q", cfg.Extraction.Backend)
	}
	// Untouched keys keep their defaults
	if cfg.Server.MaxConns != model.DefaultConfig().Server.MaxConns {
		t.Errorf("unexpected max conns %d", cfg.Server.MaxConns)
	}
}

func TestLoadConfig_ProviderKeyFallback(t *testing.T) {
	tests := []struct {
		provider string
		env      string
	}{
		{"openai", "OPENAI_API_KEY"},
		{"anthropic", "ANTHROPIC_API_KEY"},
		{"claude", "ANTHROPIC_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			isolateHome(t)
			t.Setenv("BILLAUDIT_LLM_PROVIDER", tt.provider)
			t.Setenv("OPENAI_API_KEY", "")
			t.Setenv("ANTHROPIC_API_KEY", "")
			t.Setenv(tt.env, "key-"+tt.provider)

			initConfig()
			cfg, err := loadConfig()
			if err != nil {
				t.Fatalf("loadConfig failed: %v", err)
			}

			if cfg.LLM.APIKey != "key-"+tt.provider {
				t.Errorf("expected key from %s, got %q", tt.env, cfg.LLM.APIKey)
			}
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# billaudit configuration") {
		t.Error("expected header comment")
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("config file is not valid YAML: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Extraction.Backend != "native" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	// Never overwrites
	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected error when the file already exists")
	}
}

func TestAuditCommand_CSV(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()

	statements := map[string][]byte{
		"01-surgery.pdf": pdftest.Build([]string{"Nombre Paciente", "ANA MARIA RUIZ", "12/03/2024", "quirofano", "TOTAL CARGOS: 2,500.00"}),
		"02-room.pdf":    pdftest.Build([]string{"habitacion", "oxigeno"}),
		"03-broken.pdf":  []byte("this is not a pdf"),
	}
	for name, data := range statements {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatal(err)
		}
	}

	out := filepath.Join(t.TempDir(), "audit.csv")
	rootCmd.SetArgs([]string{"audit", dir, "--csv", out, "--no-progress", "--no-cache", "--workers", "2"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		outCSV, noCache, noProgress = "", false, false
	})

	if err := Execute(); err != nil {
		t.Fatalf("audit failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "Source,Patient,Total Charges,Had Operating Room,Oxygen Omission Alert,Recovery Omission Alert" {
		t.Errorf("unexpected header: %v", rows[0])
	}

	first := rows[1]
	if filepath.Base(first[0]) != "01-surgery.pdf" || first[3] != "yes" || first[4] != "alert" || first[5] != "alert" {
		t.Errorf("unexpected first row: %v", first)
	}
	if first[2] != "$2,500.00" {
		t.Errorf("unexpected total: %v", first[2])
	}

	broken := rows[3]
	if broken[1] != model.PatientNotIdentified || broken[2] != model.TotalNotFound {
		t.Errorf("unexpected row for unreadable document: %v", broken)
	}
}

func TestAuditCommand_NoInputs(t *testing.T) {
	isolateHome(t)
	rootCmd.SetArgs([]string{"audit", "--no-progress"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		noProgress = false
	})

	if err := Execute(); err == nil {
		t.Error("expected error without documents")
	}
}
