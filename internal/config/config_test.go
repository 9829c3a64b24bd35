package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Days != 90 || cfg.Limit != 4 || cfg.MaxRetries != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Taxonomy().Validate(); err != nil {
		t.Fatalf("default taxonomy invalid: %v", err)
	}
	if got, _ := cfg.Taxonomy().CategoryOf("axiom"); got != "terminals" {
		t.Fatalf("expected axiom in terminals, got %q", got)
	}
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("PROTOLENS_PROTOCOLS", "axiom, photon,,bullx")
	t.Setenv("PROTOLENS_MAX_RETRIES", "7")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("focus", "", "")
	if err := flags.Parse([]string{"--focus", "photon"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Protocols, []string{"axiom", "photon", "bullx"}) {
		t.Fatalf("unexpected protocols: %v", cfg.Protocols)
	}
	if cfg.MaxRetries != 7 {
		t.Fatalf("expected max retries from env, got %d", cfg.MaxRetries)
	}
	if cfg.Focus != "photon" {
		t.Fatalf("expected focus from flag, got %q", cfg.Focus)
	}
}

func TestLoadConfigFileTaxonomy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "categories:\n  dex:\n    - Uniswap\n    - curve\n  bots: \"bonkbot, trojan\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := map[string][]string{
		"dex":  {"Uniswap", "curve"},
		"bots": {"bonkbot", "trojan"},
	}
	if !reflect.DeepEqual(cfg.Categories, want) {
		t.Fatalf("unexpected categories: %v", cfg.Categories)
	}
	if got, _ := cfg.Taxonomy().CategoryOf("uniswap"); got != "dex" {
		t.Fatalf("expected normalized member, got %q", got)
	}
}

func TestRange(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	from, to, err := Config{Days: 7}.Range(now)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if !from.Equal(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected range %v..%v", from, to)
	}

	from, to, err = Config{From: "01-02-2025", To: "2025-02-05"}.Range(now)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if !from.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected explicit range %v..%v", from, to)
	}

	if _, _, err := (Config{From: "2025-02-05", To: "2025-02-01"}).Range(now); err == nil {
		t.Fatalf("expected inverted range error")
	}
}

func TestDominanceQuery(t *testing.T) {
	cfg := DominanceConfig{Metric: "users", GroupBy: "category", Timeframe: "7d", Disable: []string{"bots"}}
	q, err := cfg.Query()
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if q.Metric != "users" || q.GroupBy != "category" || q.Timeframe.Days != 7 {
		t.Fatalf("unexpected query: %+v", q)
	}

	cfg.GroupBy = "region"
	if _, err := cfg.Query(); err == nil {
		t.Fatalf("expected unknown group-by error")
	}
}
