package normalize

import "testing"

func TestMinimumCLB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		tier   string
		expect int
	}{
		{
			name:   "no minimum wording",
			text:   "No minimum for eligibility, but affects selection points",
			tier:   "3",
			expect: 0,
		},
		{
			name:   "empty text",
			text:   "",
			tier:   "0",
			expect: 0,
		},
		{
			name:   "flat requirement",
			text:   "CLB 7",
			tier:   "4",
			expect: 7,
		},
		{
			name:   "tiered lower tier",
			text:   "CLB 7 for NOC TEER 0 or 1; CLB 5 for NOC TEER 2 or 3",
			tier:   "2",
			expect: 5,
		},
		{
			name:   "tiered upper tier",
			text:   "CLB 7 for NOC TEER 0 or 1; CLB 5 for NOC TEER 2 or 3",
			tier:   "0",
			expect: 7,
		},
		{
			name:   "second tier of an or list",
			text:   "CLB 7 for NOC TEER 0 or 1; CLB 5 for NOC TEER 2 or 3",
			tier:   "1",
			expect: 7,
		},
		{
			name:   "comma separated tiers",
			text:   "CLB 5 for TEER 0,1; CLB 4 for TEER 2,3",
			tier:   "3",
			expect: 4,
		},
		{
			name:   "unmatched tier falls back to lowest",
			text:   "CLB 7 for NOC TEER 0 or 1; CLB 5 for NOC TEER 2 or 3",
			tier:   "5",
			expect: 5,
		},
		{
			name:   "text without benchmark",
			text:   "Varies by NOC TEER",
			tier:   "1",
			expect: 0,
		},
		{
			name:   "first benchmark of matching segment",
			text:   "CLB 4 minimum (CLB 5 for TEER 2,3; CLB 7 for TEER 0,1)",
			tier:   "0",
			expect: 7,
		},
		{
			name:   "noc digit marker",
			text:   "CLB 6 for NOC 0; CLB 4 otherwise",
			tier:   "0",
			expect: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := MinimumCLB(tt.text, tt.tier)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %d, got %d", tt.expect, got)
			}
		})
	}
}

func TestParseLanguageMinimumRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	if _, err := ParseLanguageMinimum("CLB 12 for TEER 0"); err == nil {
		t.Fatalf("expected error for CLB above %d", MaxCLB)
	}
}

func TestParseLanguageMinimumTiers(t *testing.T) {
	t.Parallel()

	m, err := ParseLanguageMinimum("CLB 7 for NOC TEER 0 or 1; CLB 5 for NOC TEER 2 or 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.None {
		t.Fatalf("expected a minimum")
	}
	if m.Fallback != 5 {
		t.Fatalf("expected fallback 5, got %d", m.Fallback)
	}

	expected := map[string]int{"0": 7, "1": 7, "2": 5, "3": 5}
	if len(m.ByTier) != len(expected) {
		t.Fatalf("expected %d tiers, got %v", len(expected), m.ByTier)
	}
	for tier, level := range expected {
		if m.ByTier[tier] != level {
			t.Fatalf("tier %s: expected %d, got %d", tier, level, m.ByTier[tier])
		}
	}
}
