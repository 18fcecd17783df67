package core

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/store"
)

// Streak holds the current and longest consecutive-day journaling runs.
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

type StreakService struct {
	dbStore *store.SQLiteStore
	now     func() time.Time // injectable for tests
}

func NewStreakService(db *store.SQLiteStore) *StreakService {
	return &StreakService{dbStore: db, now: time.Now}
}

func (s *StreakService) GetStreak(userID string) (Streak, error) {
	stamps, err := s.dbStore.ListEntryTimestamps(userID)
	if err != nil {
		return Streak{}, fmt.Errorf("failed to load entry timestamps: %w", err)
	}
	return ComputeStreak(stamps, s.now()), nil
}

// ComputeStreak reduces entry timestamps to unique calendar days and walks
// them newest-first. The current streak survives as long as the most recent
// day is today or yesterday; entries on the same day count once.
func ComputeStreak(stamps []time.Time, now time.Time) Streak {
	if len(stamps) == 0 {
		return Streak{}
	}

	seen := make(map[string]bool)
	var days []time.Time
	for _, ts := range stamps {
		day := truncateToDay(ts)
		key := day.Format(store.DateFormat)
		if !seen[key] {
			seen[key] = true
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	today := truncateToDay(now)
	gapToToday := daysBetween(days[0], today)

	// Current streak: walk until the first gap. Broken if the most recent day
	// is more than one day behind today; the most recent day itself always
	// counts when the streak is alive.
	current := 0
	if gapToToday <= 1 {
		current = 1
		for i := 1; i < len(days); i++ {
			if daysBetween(days[i], days[i-1]) == 1 {
				current++
			} else {
				break
			}
		}
	}

	// Longest run anywhere in the full walk.
	longest := 1
	run := 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i], days[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	if current > longest {
		longest = current
	}

	return Streak{Current: current, Longest: longest}
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from earlier to later. Rounding absorbs
// the 23- and 25-hour days around DST transitions.
func daysBetween(earlier, later time.Time) int {
	return int(math.Round(later.Sub(earlier).Hours() / 24))
}
