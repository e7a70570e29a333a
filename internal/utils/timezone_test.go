package utils

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateRange(t *testing.T) {
	loc := time.FixedZone("MYT", 8*3600)
	now := time.Date(2026, 5, 20, 1, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		from      string
		to        string
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{
			name:      "single day",
			from:      "2026-05-01",
			to:        "2026-05-01",
			wantStart: time.Date(2026, 5, 1, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2026, 5, 2, 0, 0, 0, 0, loc),
		},
		{
			name:      "defaults to today in location",
			wantStart: time.Date(2026, 5, 20, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2026, 5, 21, 0, 0, 0, 0, loc),
		},
		{
			name:      "month",
			from:      "2026-04-01",
			to:        "2026-04-30",
			wantStart: time.Date(2026, 4, 1, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2026, 5, 1, 0, 0, 0, 0, loc),
		},
		{name: "reversed", from: "2026-05-02", to: "2026-05-01", wantErr: true},
		{name: "bad format", from: "01/05/2026", to: "2026-05-01", wantErr: true},
		{name: "too long", from: "2024-01-01", to: "2026-01-01", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end, err := ParseDateRange(tc.from, tc.to, loc, now)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidDateRange) {
					t.Fatalf("expected ErrInvalidDateRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !start.Equal(tc.wantStart) || !end.Equal(tc.wantEnd) {
				t.Fatalf("expected [%s, %s), got [%s, %s)", tc.wantStart, tc.wantEnd, start, end)
			}
		})
	}
}

func TestLoadLocationFallsBackToUTC(t *testing.T) {
	if LoadLocation("Not/AZone") != time.UTC {
		t.Fatalf("expected UTC fallback")
	}
	if LoadLocation("") != time.UTC {
		t.Fatalf("expected UTC for empty zone")
	}
}
