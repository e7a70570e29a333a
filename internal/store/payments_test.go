package store

import (
	"slices"
	"testing"
)

func TestTableNumbers(t *testing.T) {
	cases := []struct {
		name     string
		tables   []string
		expected []string
	}{
		{"single", []string{"T1"}, []string{"T1"}},
		{"same table merged", []string{"T1", "T1"}, []string{"T1"}},
		{"keeps first appearance", []string{"T2", "T1", "T2"}, []string{"T2", "T1"}},
		{"takeaway skipped", []string{"", "T3", ""}, []string{"T3"}},
		{"none", nil, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders := make([]Order, 0, len(tc.tables))
			for i, table := range tc.tables {
				orders = append(orders, Order{ID: int64(i + 1), TableNumber: table})
			}
			if got := tableNumbers(orders); !slices.Equal(got, tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}
