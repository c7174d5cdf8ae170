package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		len  int
	}{
		{name: "empty string", raw: "", len: 0},
		{name: "single entry", raw: "shop", len: 1},
		{name: "multiple entries", raw: "orders,customers", len: 2},
		{name: "whitespace trimmed", raw: " orders , customers ", len: 2},
		{name: "blank entries dropped", raw: "a,,b,", len: 2},
		{name: "only separators", raw: ", ,", len: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := Parse(tt.raw)
			assert.Equal(t, tt.len, list.Len())
			assert.Equal(t, tt.len == 0, list.Empty())
		})
	}
}

func TestAllowListApply(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		in   []string
		want []string
	}{
		{
			name: "empty list is identity",
			raw:  "",
			in:   []string{"shop", "logs", "tmp"},
			want: []string{"shop", "logs", "tmp"},
		},
		{
			name: "exact match keeps only listed",
			raw:  "shop",
			in:   []string{"shop", "logs", "tmp"},
			want: []string{"shop"},
		},
		{
			name: "input order preserved",
			raw:  "customers,orders",
			in:   []string{"orders", "customers", "audit"},
			want: []string{"orders", "customers"},
		},
		{
			name: "case sensitive",
			raw:  "Shop",
			in:   []string{"shop"},
			want: []string{},
		},
		{
			name: "no globbing",
			raw:  "ord*",
			in:   []string{"orders", "ord*"},
			want: []string{"ord*"},
		},
		{
			name: "nothing matches",
			raw:  "missing",
			in:   []string{"shop", "logs"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw).Apply(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Filtering a list that is already a subset of the allow-list must
// return it unchanged.
func TestAllowListIdempotent(t *testing.T) {
	list := Parse("orders,customers")

	once := list.Apply([]string{"orders", "customers", "audit"})
	twice := list.Apply(once)

	assert.Equal(t, []string{"orders", "customers"}, once)
	assert.Equal(t, once, twice)
}

func TestAllowListContains(t *testing.T) {
	assert.True(t, Parse("").Contains("anything"))
	assert.True(t, Parse("shop").Contains("shop"))
	assert.False(t, Parse("shop").Contains("logs"))
}
