package session

import "github.com/claude/ironlog/internal/models"

// EntryProgress returns the completion percentage (0-100) of a set list.
// An entry with no sets is 0, never NaN.
func EntryProgress(sets []models.Set) float64 {
	if len(sets) == 0 {
		return 0
	}
	completed := 0
	for _, s := range sets {
		if s.IsCompleted {
			completed++
		}
	}
	return 100 * float64(completed) / float64(len(sets))
}

// SessionProgress returns the overall completion percentage across all
// entries. A session with zero total sets is 0.
func SessionProgress(entries []models.ExerciseEntry) float64 {
	total, completed := CountSets(entries)
	if total == 0 {
		return 0
	}
	return 100 * float64(completed) / float64(total)
}

// CountSets scans all entries and returns (total, completed) set counts.
func CountSets(entries []models.ExerciseEntry) (total, completed int) {
	for _, e := range entries {
		total += len(e.Sets)
		for _, s := range e.Sets {
			if s.IsCompleted {
				completed++
			}
		}
	}
	return total, completed
}

// Recompute refreshes every derived progress value on the session from the
// underlying set-completion state. Progress is always recomputed from
// scratch, never incrementally patched, so stored values cannot drift.
func Recompute(sess *models.Session) {
	for i := range sess.Exercises {
		sess.Exercises[i].Progress = EntryProgress(sess.Exercises[i].Sets)
	}
	sess.Progress = SessionProgress(sess.Exercises)
}
