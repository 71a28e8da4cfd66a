package sharedutil

import (
	"slices"
	"testing"
)

func TestFilterSlice(t *testing.T) {
	tests := []struct {
		name     string
		input    []int
		filter   func(int) bool
		expected []int
	}{
		{
			name:     "filter even numbers",
			input:    []int{1, 2, 3, 4, 5, 6},
			filter:   func(n int) bool { return n%2 == 0 },
			expected: []int{2, 4, 6},
		},
		{
			name:     "filter nothing",
			input:    []int{1, 2, 3},
			filter:   func(n int) bool { return true },
			expected: []int{1, 2, 3},
		},
		{
			name:     "filter everything",
			input:    []int{1, 2, 3},
			filter:   func(n int) bool { return false },
			expected: []int{},
		},
		{
			name:     "empty slice",
			input:    []int{},
			filter:   func(n int) bool { return true },
			expected: []int{},
		},
		{
			name:     "nil slice",
			input:    nil,
			filter:   func(n int) bool { return true },
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FilterSlice(tt.input, tt.filter)
			if !slices.Equal(result, tt.expected) {
				t.Errorf("FilterSlice() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMapSlice(t *testing.T) {
	tests := []struct {
		name     string
		input    []int
		mapper   func(int) string
		expected []string
	}{
		{
			name:     "int to string",
			input:    []int{1, 2, 3},
			mapper:   func(n int) string { return string(rune('a' + n - 1)) },
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "empty slice",
			input:    []int{},
			mapper:   func(n int) string { return "" },
			expected: []string{},
		},
		{
			name:     "nil slice",
			input:    nil,
			mapper:   func(n int) string { return "" },
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MapSlice(tt.input, tt.mapper)
			if !slices.Equal(result, tt.expected) {
				t.Errorf("MapSlice() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestFilterMapSlice(t *testing.T) {
	tests := []struct {
		name     string
		input    []int
		mapper   func(int) (string, bool)
		expected []string
	}{
		{
			name:  "map and filter even numbers",
			input: []int{1, 2, 3, 4, 5},
			mapper: func(n int) (string, bool) {
				if n%2 == 0 {
					return string(rune('a' + n - 1)), true
				}
				return "", false
			},
			expected: []string{"b", "d"},
		},
		{
			name:     "filter all out",
			input:    []int{1, 2, 3},
			mapper:   func(n int) (string, bool) { return "", false },
			expected: []string{},
		},
		{
			name:     "nil slice",
			input:    nil,
			mapper:   func(n int) (string, bool) { return "", true },
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FilterMapSlice(tt.input, tt.mapper)
			if !slices.Equal(result, tt.expected) {
				t.Errorf("FilterMapSlice() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestReversed(t *testing.T) {
	tests := []struct {
		name     string
		input    []int
		expected []int
	}{
		{
			name:     "reverse numbers",
			input:    []int{1, 2, 3, 4, 5},
			expected: []int{5, 4, 3, 2, 1},
		},
		{
			name:     "single element",
			input:    []int{1},
			expected: []int{1},
		},
		{
			name:     "empty slice",
			input:    []int{},
			expected: []int{},
		},
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Reversed(tt.input)
			if !slices.Equal(result, tt.expected) {
				t.Errorf("Reversed() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestToSet(t *testing.T) {
	tests := []struct {
		name          string
		input         []string
		expectedLen   int
		shouldContain []string
	}{
		{
			name:          "unique strings",
			input:         []string{"a", "b", "c"},
			expectedLen:   3,
			shouldContain: []string{"a", "b", "c"},
		},
		{
			name:          "with duplicates",
			input:         []string{"a", "b", "a", "c", "b"},
			expectedLen:   3,
			shouldContain: []string{"a", "b", "c"},
		},
		{
			name:          "empty slice",
			input:         []string{},
			expectedLen:   0,
			shouldContain: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToSet(tt.input)
			if len(result) != tt.expectedLen {
				t.Errorf("ToSet() len = %d, want %d", len(result), tt.expectedLen)
			}
			for _, item := range tt.shouldContain {
				if _, ok := result[item]; !ok {
					t.Errorf("ToSet() missing expected item: %s", item)
				}
			}
		})
	}
}
