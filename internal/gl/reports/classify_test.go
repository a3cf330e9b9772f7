package reports

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	_ "github.com/meridian-erp/meridian-gl/testing"
)

func TestSignedBalance(t *testing.T) {
	debit := decimal.NewFromInt(900)
	credit := decimal.NewFromInt(400)

	cases := []struct {
		classification string
		want           int64
	}{
		{"ASSET", 500},
		{"EXPENSE", 500},
		{"LIABILITY", -500},
		{"EQUITY", -500},
		{"REVENUE", -500},
	}
	for _, tc := range cases {
		got, err := SignedBalance(tc.classification, debit, credit)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.classification, err)
		}
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Fatalf("%s: expected %d got %v", tc.classification, tc.want, got)
		}
	}
}

func TestSignedBalanceCaseInsensitive(t *testing.T) {
	got, err := SignedBalance("asset", decimal.NewFromInt(10), decimal.NewFromInt(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("expected 6 got %v", got)
	}
}

func TestSignedBalanceUnknownClassification(t *testing.T) {
	_, err := SignedBalance("CONTRA", decimal.NewFromInt(1), decimal.Zero)
	if err == nil {
		t.Fatalf("expected error for unknown classification")
	}
	if !errors.Is(err, ErrUnknownClassification) {
		t.Fatalf("expected ErrUnknownClassification, got %v", err)
	}

	if _, err := SignedBalance("", decimal.Zero, decimal.Zero); !errors.Is(err, ErrUnknownClassification) {
		t.Fatalf("expected ErrUnknownClassification for empty type, got %v", err)
	}
}

func TestBalancedTolerance(t *testing.T) {
	if !Balanced(decimal.RequireFromString("0.009")) {
		t.Fatalf("expected 0.009 to be within tolerance")
	}
	if !Balanced(decimal.RequireFromString("-0.009")) {
		t.Fatalf("expected -0.009 to be within tolerance")
	}
	if Balanced(decimal.RequireFromString("0.01")) {
		t.Fatalf("expected 0.01 to breach tolerance")
	}
	if Balanced(decimal.NewFromInt(3)) {
		t.Fatalf("expected 3 to breach tolerance")
	}
	if !Balanced(decimal.Zero) {
		t.Fatalf("expected zero spread to be balanced")
	}
}
