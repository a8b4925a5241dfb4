package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParseStart(t *testing.T) {
	tests := []struct {
		target string
		want   int
	}{
		{"/", 1},
		{"/?start=", 1},
		{"/?start=abc", 1},
		{"/?start=0", 1},
		{"/?start=-3", 1},
		{"/?start=51", 51},
	}
	for _, tc := range tests {
		r := httptest.NewRequest("GET", tc.target, nil)
		if got := ParseStart(r); got != tc.want {
			t.Errorf("ParseStart(%q) = %d, want %d", tc.target, got, tc.want)
		}
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		target string
		want   int
	}{
		{"/", PageSize},
		{"/?limit=x", PageSize},
		{"/?limit=0", PageSize},
		{"/?limit=10", 10},
		{"/?limit=100000", MaxPageSize},
	}
	for _, tc := range tests {
		r := httptest.NewRequest("GET", tc.target, nil)
		if got := ParseLimit(r); got != tc.want {
			t.Errorf("ParseLimit(%q) = %d, want %d", tc.target, got, tc.want)
		}
	}
}

func TestSkip(t *testing.T) {
	if got := Skip(1); got != 0 {
		t.Errorf("Skip(1) = %d, want 0", got)
	}
	if got := Skip(51); got != 50 {
		t.Errorf("Skip(51) = %d, want 50", got)
	}
	if got := Skip(0); got != 0 {
		t.Errorf("Skip(0) = %d, want 0", got)
	}
}

func TestComputeRange(t *testing.T) {
	tests := []struct {
		name               string
		start, shown, size int
		total              int64
		want               Range
	}{
		{
			name: "empty",
			start: 1, shown: 0, size: 50, total: 0,
			want: Range{PrevStart: 1, NextStart: 1},
		},
		{
			name: "single partial page",
			start: 1, shown: 3, size: 50, total: 3,
			want: Range{Start: 1, End: 3, PrevStart: 1, NextStart: 4},
		},
		{
			name: "first of several",
			start: 1, shown: 50, size: 50, total: 120,
			want: Range{Start: 1, End: 50, PrevStart: 1, NextStart: 51, HasNext: true},
		},
		{
			name: "middle",
			start: 51, shown: 50, size: 50, total: 120,
			want: Range{Start: 51, End: 100, PrevStart: 1, NextStart: 101, HasPrev: true, HasNext: true},
		},
		{
			name: "last",
			start: 101, shown: 20, size: 50, total: 120,
			want: Range{Start: 101, End: 120, PrevStart: 51, NextStart: 121, HasPrev: true},
		},
		{
			name: "past the end",
			start: 200, shown: 0, size: 50, total: 120,
			want: Range{PrevStart: 1, NextStart: 1, HasPrev: true},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeRange(tc.start, tc.shown, tc.size, tc.total)
			if got != tc.want {
				t.Errorf("ComputeRange = %+v, want %+v", got, tc.want)
			}
		})
	}
}
