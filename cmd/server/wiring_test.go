// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/agrimarket/internal/config"
)

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "prices.csv")
	csv := "market,county,commodity,date,retail_price\nMbale,Vihiga,Maize,2024-05-02,45\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.yaml"))
	t.Setenv("MARKET_PRICES_CSV", csvPath)
	t.Setenv("EVENTS_BACKEND", "memory")
	t.Setenv("AUDIT_BACKEND", "memory")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func TestBuildEngineConfig_Validates(t *testing.T) {
	cfg := loadTestConfig(t)

	ec := buildEngineConfig(cfg)
	if err := ec.Validate(); err != nil {
		t.Fatalf("engine config from defaults is invalid: %v", err)
	}
	if ec.TransportRatePerKM != cfg.Recommend.TransportRatePerKM || ec.DefaultTopN != cfg.Recommend.DefaultTopN {
		t.Errorf("engine config not copied from RECOMMEND settings: %+v", ec)
	}
}

func TestWiring_DefaultComponents(t *testing.T) {
	cfg := loadTestConfig(t)
	ctx := context.Background()

	gaz, regions, err := initGeography(cfg)
	if err != nil {
		t.Fatal(err)
	}

	pc, err := initPrices(ctx, cfg, gaz)
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()
	// The first snapshot is loaded by the reload service, not during wiring.
	if pc.Holder.Ready() {
		t.Error("holder should not be ready before the first reload")
	}
	if pc.ReloadService == nil {
		t.Fatal("reload service not created")
	}

	engine, err := initEngine(cfg, gaz, regions)
	if err != nil {
		t.Fatal(err)
	}
	if engine.HasForecastProvider() {
		t.Error("forecast provider set without FORECAST_URL")
	}

	advisor, err := initAdvisor(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if advisor.Online() {
		t.Error("advisor should be offline without an API key")
	}

	ec, err := initEvents(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer ec.Close()
	if ec.Bus.Kind() != config.EventsBackendMemory || ec.Server != nil {
		t.Errorf("events = %s (server %v), want memory bus", ec.Bus.Kind(), ec.Server != nil)
	}

	ac, err := initAudit(ctx, cfg, ec.Bus)
	if err != nil {
		t.Fatal(err)
	}
	defer ac.Close()
	if ac.Store == nil || ac.Consumer == nil {
		t.Error("audit store and consumer should be created when enabled")
	}
}

func TestInitAudit_Disabled(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Audit.Enabled = false

	ac, err := initAudit(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ac.Store != nil || ac.Consumer != nil {
		t.Error("disabled audit should not create a store or consumer")
	}
}
