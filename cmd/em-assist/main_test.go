package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cuboulder-se-research/em-assist/internal/config"
)

func TestApplyServeOverrides(t *testing.T) {
	cfg := config.NewAppConfig()

	got := applyServeOverrides(cfg, "", 0)
	if got.Addr() != cfg.Addr() {
		t.Errorf("Addr() = %q, want %q", got.Addr(), cfg.Addr())
	}

	got = applyServeOverrides(cfg, "127.0.0.1", 9090)
	if got.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q, want 127.0.0.1:9090", got.Addr())
	}
}

func TestTextOptions(t *testing.T) {
	if opts := textOptions(config.NewEndpoint(), time.Minute); opts != nil {
		t.Errorf("unconfigured endpoint should add no options, got %d", len(opts))
	}

	endpoint := config.NewEndpointWithOptions(config.WithAPIKey("sk-test"), config.WithModel("gpt-4o-mini"))
	if opts := textOptions(endpoint, time.Minute); len(opts) != 3 {
		t.Errorf("configured endpoint options = %d, want 3", len(opts))
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "em-assist version dev") {
		t.Errorf("output = %q", out.String())
	}
}

func TestProviderConfig_TimeoutCoversSuggestionTimeout(t *testing.T) {
	cfg := config.NewAppConfig()

	endpoint := config.NewEndpointWithOptions(config.WithAPIKey("sk-test"), config.WithTimeout(time.Minute))

	got := providerConfig(endpoint, cfg.SuggestionTimeout())
	if got.Timeout != cfg.SuggestionTimeout() {
		t.Errorf("Timeout = %v, want %v", got.Timeout, cfg.SuggestionTimeout())
	}

	got = providerConfig(endpoint, 10*time.Second)
	if got.Timeout != time.Minute {
		t.Errorf("Timeout = %v, want 1m", got.Timeout)
	}
}
