package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "CLB 7 for NOC TEER 0 or 1",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "CLB 4",
			limit:  10,
			expect: "CLB 4",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "CLB 7 for NOC TEER 0 or 1",
			limit:  5,
			expect: "CLB 7...",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  Varies by NOC TEER  ",
			limit:  6,
			expect: "Varies...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestWaitForCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitForElapses(t *testing.T) {
	if err := WaitFor(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
