package logger

import (
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  candidate  ", Value: "  Jane  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "candidate" || fields[0].String != "Jane" {
		t.Fatalf("unexpected candidate field: %+v", fields[0])
	}

	empty := StringFields()
	if len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithFields(logger, zap.String("foo", "bar"))
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	enriched = WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	enriched.Info("another log")
}

func TestWithCandidate(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithCandidate(zap.New(core), "Jane Doe", " Clerk ").Info("evaluated", Money("salary", decimal.RequireFromString("10000.50")))

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldCandidate] != "Jane Doe" {
		t.Fatalf("unexpected candidate field: %v", ctx[FieldCandidate])
	}
	if ctx[FieldPosition] != "Clerk" {
		t.Fatalf("unexpected position field: %v", ctx[FieldPosition])
	}
	if ctx["salary"] != "10000.5" {
		t.Fatalf("unexpected salary field: %v", ctx["salary"])
	}

	if fields := CandidateFields("", ""); len(fields) != 0 {
		t.Fatalf("expected no fields for blank candidate, got %d", len(fields))
	}
}

func TestNew(t *testing.T) {
	for _, json := range []bool{true, false} {
		l, err := New(json, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("expected debug level to be enabled")
		}
	}
}
