package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewHasDefaults(t *testing.T) {
	c := New()
	if c.Server.Address != ":26000" {
		t.Errorf("Address = %q, want :26000", c.Server.Address)
	}
	if c.Server.GridWidth != 641 || c.Server.GridHeight != 481 {
		t.Errorf("grid = %dx%d, want 641x481", c.Server.GridWidth, c.Server.GridHeight)
	}
	if c.Stream.Rate != 30 {
		t.Errorf("Rate = %g, want 30", c.Stream.Rate)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `{"name": "tank-a", "server": {"gridWidth": 321, "gridHeight": 241}}`
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Name != "tank-a" {
		t.Errorf("Name = %q, want tank-a", c.Name)
	}
	if c.Server.GridWidth != 321 || c.Server.GridHeight != 241 {
		t.Errorf("grid = %dx%d, want 321x241", c.Server.GridWidth, c.Server.GridHeight)
	}
	// Unset fields take defaults.
	if c.Server.Address != ":26000" {
		t.Errorf("Address = %q, want default", c.Server.Address)
	}
	if c.Stream.Rate != 30 {
		t.Errorf("Rate = %g, want default", c.Stream.Rate)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("Load of missing file succeeded")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Fatalf("err = %v, want parse error", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	content := `{"server": {"gridWidth": 1, "gridHeight": 480}}`
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("degenerate grid accepted")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := New()
	c.Name = "roundtrip"
	c.Server.GridWidth = 65
	path := filepath.Join(dir, ConfigFileName)
	if err := c.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "roundtrip" || got.Server.GridWidth != 65 {
		t.Errorf("got %+v after round trip", got)
	}
	if !Exists(dir) {
		t.Error("Exists = false after save")
	}
}
