package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  program  ", Value: "  Canadian Experience Class (CEC)  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "program" || fields[0].String != "Canadian Experience Class (CEC)" {
		t.Fatalf("unexpected program field: %+v", fields[0])
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

	// Ensure logging with the fallback logger does not panic.
	enriched.Info("another log")
}

func TestProgramFields(t *testing.T) {
	fields := ProgramFields("Federal Skilled Worker Program (FSW)", "federal", "")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldProgram || fields[0].String != "Federal Skilled Worker Program (FSW)" {
		t.Fatalf("unexpected program field: %+v", fields[0])
	}

	if fields[1].Key != FieldProgramType || fields[1].String != "federal" {
		t.Fatalf("unexpected type field: %+v", fields[1])
	}
}

func TestWithProgram(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	WithProgram(logger, "BC PNP", "provincial", "British Columbia").Info("program evaluated")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldProvince] != "British Columbia" {
		t.Fatalf("expected province field, got %q", ctx[FieldProvince])
	}

	// Ensure the nil fallback does not panic.
	WithProgram(nil, "BC PNP", "provincial", "").Info("another log")
}
