package schedule

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name:   "canonical form",
			input:  "2024-03-15",
			want:   "2024-03-15",
			wantOK: true,
		},
		{
			name:   "RFC3339 timestamp",
			input:  "2024-03-15T10:30:00Z",
			want:   "2024-03-15",
			wantOK: true,
		},
		{
			name:   "timestamp without zone",
			input:  "2024-03-15T10:30:00",
			want:   "2024-03-15",
			wantOK: true,
		},
		{
			name:   "slash separated",
			input:  "2024/03/15",
			want:   "2024-03-15",
			wantOK: true,
		},
		{
			name:   "dot separated",
			input:  "2024.03.15",
			want:   "2024-03-15",
			wantOK: true,
		},
		{
			name:   "garbage input",
			input:  "not-a-date",
			wantOK: false,
		},
		{
			name:   "empty input",
			input:  "",
			wantOK: false,
		},
		{
			name:   "impossible date",
			input:  "2024-13-45",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := NormalizeDate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("NormalizeDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{
			name:  "one day apart",
			start: "2024-01-01",
			end:   "2024-01-02",
			want:  1,
		},
		{
			name:  "same day",
			start: "2024-01-01",
			end:   "2024-01-01",
			want:  0,
		},
		{
			name:  "end before start is negative",
			start: "2024-01-10",
			end:   "2024-01-05",
			want:  -5,
		},
		{
			name:  "across month boundary",
			start: "2024-01-30",
			end:   "2024-02-02",
			want:  3,
		},
		{
			name:  "unparseable start counts as zero",
			start: "garbage",
			end:   "2024-01-02",
			want:  0,
		},
		{
			name:  "unparseable end counts as zero",
			start: "2024-01-01",
			end:   "garbage",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := DaysBetween(tt.start, tt.end); got != tt.want {
				t.Errorf("DaysBetween(%q, %q) = %d, want %d", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestAddDays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		date string
		n    int
		want string
	}{
		{
			name: "forward within month",
			date: "2024-01-01",
			n:    5,
			want: "2024-01-06",
		},
		{
			name: "across month boundary",
			date: "2024-01-31",
			n:    1,
			want: "2024-02-01",
		},
		{
			name: "leap day",
			date: "2024-02-28",
			n:    1,
			want: "2024-02-29",
		},
		{
			name: "backward",
			date: "2024-01-05",
			n:    -5,
			want: "2023-12-31",
		},
		{
			name: "unparseable passes through",
			date: "garbage",
			n:    3,
			want: "garbage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := AddDays(tt.date, tt.n); got != tt.want {
				t.Errorf("AddDays(%q, %d) = %q, want %q", tt.date, tt.n, got, tt.want)
			}
		})
	}
}

func TestToday(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC)
	if got := Today(now); got != "2024-03-15" {
		t.Errorf("Today() = %q, want %q", got, "2024-03-15")
	}

	// An instant in a non-UTC zone normalizes to the UTC date
	loc := time.FixedZone("UTC+9", 9*3600)
	late := time.Date(2024, 3, 16, 1, 0, 0, 0, loc)
	if got := Today(late); got != "2024-03-15" {
		t.Errorf("Today() = %q, want %q", got, "2024-03-15")
	}
}
