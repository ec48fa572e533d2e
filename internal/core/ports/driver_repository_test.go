package ports

import (
	"math"
	"testing"
)

func TestPageRequest_Offset(t *testing.T) {
	cases := []struct {
		name string
		page PageRequest
		want int
	}{
		{"first page", PageRequest{Page: 0, Size: 10}, 0},
		{"third page", PageRequest{Page: 2, Size: 10}, 20},
		{"negative page", PageRequest{Page: -3, Size: 10}, 0},
		{"zero size", PageRequest{Page: 4, Size: 0}, 0},
		{"largest exact product", PageRequest{Page: math.MaxInt / 10, Size: 10}, (math.MaxInt / 10) * 10},
		{"overflow saturates", PageRequest{Page: math.MaxInt/10 + 1, Size: 10}, math.MaxInt},
		{"huge page", PageRequest{Page: math.MaxInt, Size: 100}, math.MaxInt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.page.Offset(); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
