package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/debtwise/pkg/clock"
)

const sampleDebts = `[
  {"id": "a", "name": "Store card", "balance": 300, "apr": 5, "currency": "USD"},
  {"id": "b", "name": "Visa", "balance": 1000, "apr": 25, "currency": "USD"}
]`

func writeDebts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "debts.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write debts file: %v", err)
	}
	return path
}

func TestRun(t *testing.T) {
	path := writeDebts(t, sampleDebts)
	clk := clock.Fixed{T: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name:     "avalanche plan",
			args:     []string{"-debts", path, "-payment", "200"},
			contains: []string{"$1,300.00", "$74.63", "Payoff date", "Visa"},
		},
		{
			name:     "insufficient payment",
			args:     []string{"-debts", path, "-payment", "5"},
			contains: []string{"insufficient payment"},
		},
		{
			name:     "immediate lump sum",
			args:     []string{"-debts", path, "-payment", "1000", "-mode", "immediate", "-strategy", "snowball"},
			contains: []string{"Remaining", "$300.00"},
		},
		{
			name:     "schedule",
			args:     []string{"-debts", path, "-payment", "200", "-schedule"},
			contains: []string{"2025-01-31", "Remaining"},
		},
		{
			name:     "compare",
			args:     []string{"-debts", path, "-payment", "200", "-compare"},
			contains: []string{"snowball", "proportional", "Recommended: avalanche", "$27.60"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(tt.args, &out, clk); err != nil {
				t.Fatalf("run failed: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestRun_Errors(t *testing.T) {
	path := writeDebts(t, sampleDebts)

	tests := []struct {
		name string
		args []string
	}{
		{"missing debts flag", []string{"-payment", "100"}},
		{"unknown strategy", []string{"-debts", path, "-strategy", "random"}},
		{"unknown frequency", []string{"-debts", path, "-frequency", "yearly"}},
		{"unknown mode", []string{"-debts", path, "-mode", "later"}},
		{"negative payment", []string{"-debts", path, "-payment", "-1"}},
		{"NaN payment", []string{"-debts", path, "-payment", "NaN"}},
		{"infinite payment", []string{"-debts", path, "-payment", "+Inf"}},
		{"missing file", []string{"-debts", filepath.Join(t.TempDir(), "nope.json")}},
		{"mixed currencies", []string{"-debts", writeDebts(t, `[{"name":"A","balance":1,"currency":"USD"},{"name":"B","balance":1,"currency":"EUR"}]`)}},
		{"bad json", []string{"-debts", writeDebts(t, `{not json`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(tt.args, &out, clock.Real{}); err == nil {
				t.Errorf("expected error, got output:\n%s", out.String())
			}
		})
	}
}
