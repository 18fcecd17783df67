package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeStreak(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	day := func(daysAgo int, hour int) time.Time {
		return now.AddDate(0, 0, -daysAgo).Truncate(24 * time.Hour).Add(time.Duration(hour) * time.Hour)
	}

	tests := []struct {
		name   string
		stamps []time.Time
		want   Streak
	}{
		{
			name:   "no entries",
			stamps: nil,
			want:   Streak{},
		},
		{
			name:   "single entry today",
			stamps: []time.Time{day(0, 9)},
			want:   Streak{Current: 1, Longest: 1},
		},
		{
			name:   "three consecutive days ending today",
			stamps: []time.Time{day(0, 9), day(1, 22), day(2, 7)},
			want:   Streak{Current: 3, Longest: 3},
		},
		{
			name:   "streak alive on yesterday alone",
			stamps: []time.Time{day(1, 20)},
			want:   Streak{Current: 1, Longest: 1},
		},
		{
			name:   "gap breaks current streak",
			stamps: []time.Time{day(0, 9), day(3, 9)},
			want:   Streak{Current: 1, Longest: 1},
		},
		{
			name:   "last entry two days ago",
			stamps: []time.Time{day(2, 9), day(3, 9), day(4, 9)},
			want:   Streak{Current: 0, Longest: 3},
		},
		{
			name:   "multiple entries same day count once",
			stamps: []time.Time{day(0, 8), day(0, 12), day(0, 21), day(1, 10)},
			want:   Streak{Current: 2, Longest: 2},
		},
		{
			name:   "longest run in the past beats current",
			stamps: []time.Time{day(0, 9), day(5, 9), day(6, 9), day(7, 9), day(8, 9)},
			want:   Streak{Current: 1, Longest: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStreak(tt.stamps, now))
		})
	}
}
