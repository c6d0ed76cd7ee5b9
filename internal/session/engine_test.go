package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/ironlog/internal/apperr"
	"github.com/claude/ironlog/internal/models"
	"github.com/google/uuid"
)

// fakeStore is an in-memory Store for engine tests.
type fakeStore struct {
	sessions []*models.Session
	logs     []*models.Log

	loadErr   error
	updateErr error
	insertErr error
}

func (f *fakeStore) LoadActiveSession(ctx context.Context, userID int) (*models.Session, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	var latest *models.Session
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive {
			if latest == nil || s.StartTime.After(latest.StartTime) {
				latest = s
			}
		}
	}
	return latest, nil
}

func (f *fakeStore) CreateSession(ctx context.Context, sess *models.Session) error {
	for _, s := range f.sessions {
		if s.UserID == sess.UserID {
			s.IsActive = false
		}
	}
	stored := *sess
	stored.Exercises = sess.CloneExercises()
	f.sessions = append(f.sessions, &stored)
	return nil
}

func (f *fakeStore) UpdateSession(ctx context.Context, sess *models.Session) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, s := range f.sessions {
		if s.UserID == sess.UserID && s.WorkoutID == sess.WorkoutID && s.IsActive {
			s.Exercises = sess.CloneExercises()
			s.Progress = sess.Progress
			s.LastSaveTime = sess.LastSaveTime
			return nil
		}
	}
	return apperr.NotFound("no active session for workout %s", sess.WorkoutID)
}

func (f *fakeStore) DeactivateSessions(ctx context.Context, userID int) error {
	for _, s := range f.sessions {
		if s.UserID == userID {
			s.IsActive = false
		}
	}
	return nil
}

func (f *fakeStore) InsertLog(ctx context.Context, log *models.Log) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeStore) activeCount(userID int) int {
	n := 0
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive {
			n++
		}
	}
	return n
}

func newTestEngine(store Store) *Engine {
	e := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	base := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }
	return e
}

func twoByTwoEntries() []models.ExerciseEntry {
	return []models.ExerciseEntry{
		{ExerciseID: uuid.New(), Name: "Bench Press", Sets: []models.Set{normalSet(false), normalSet(false)}},
		{ExerciseID: uuid.New(), Name: "Barbell Row", Sets: []models.Set{normalSet(false), normalSet(false)}},
	}
}

// TestStartEmptyExercises verifies that starting with no exercises fails
// validation.
func TestStartEmptyExercises(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	_, err := e.Start(context.Background(), 1, uuid.New(), nil)
	if !apperr.IsValidation(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

// TestStartInvalidSet verifies that a malformed set (a drop set with a
// single reduction entry) rejects the whole start.
func TestStartInvalidSet(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	entries := []models.ExerciseEntry{{
		ExerciseID: uuid.New(),
		Name:       "Cable Fly",
		Sets: []models.Set{{
			Type:     models.SetDrop,
			Weight:   40,
			Reps:     models.RepCount(10),
			DropSets: []models.DropWeight{{Weight: 40}},
		}},
	}}
	_, err := e.Start(context.Background(), 1, uuid.New(), entries)
	if !apperr.IsValidation(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

// TestStartInitialState verifies the created session: active, zero progress,
// fresh timestamps, and any carried-over completion state cleared.
func TestStartInitialState(t *testing.T) {
	e := newTestEngine(&fakeStore{})

	entries := twoByTwoEntries()
	entries[0].Sets[0].IsCompleted = true // stale client state
	entries[0].Progress = 50

	sess, err := e.Start(context.Background(), 1, uuid.New(), entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sess.IsActive {
		t.Error("session should be active")
	}
	if sess.Progress != 0 {
		t.Errorf("progress = %v, want 0", sess.Progress)
	}
	if sess.Exercises[0].Sets[0].IsCompleted {
		t.Error("completion state should be reset on start")
	}
	if !sess.LastSaveTime.Equal(sess.StartTime) {
		t.Error("lastSaveTime should equal startTime at creation")
	}
}

// TestStartSupersedesPrior verifies the at-most-one-active invariant: a
// second start for the same user leaves exactly one active session, the
// newer one.
func TestStartSupersedesPrior(t *testing.T) {
	store := &fakeStore{}
	e := newTestEngine(store)
	ctx := context.Background()

	first, err := e.Start(ctx, 1, uuid.New(), twoByTwoEntries())
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	secondWorkout := uuid.New()
	if _, err := e.Start(ctx, 1, secondWorkout, twoByTwoEntries()); err != nil {
		t.Fatalf("second start: %v", err)
	}

	if n := store.activeCount(1); n != 1 {
		t.Fatalf("active sessions = %d, want 1", n)
	}
	active, err := e.Active(ctx, 1)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active.WorkoutID != secondWorkout {
		t.Errorf("active workout = %s, want %s", active.WorkoutID, secondWorkout)
	}
	if active.ID == first.ID {
		t.Error("active session should be the second one")
	}
}

// TestCompleteSetProgress verifies that completing 1 of 4 sets yields 25%
// overall and 50% on the touched exercise.
func TestCompleteSetProgress(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	ctx := context.Background()

	sess, err := e.Start(ctx, 1, uuid.New(), twoByTwoEntries())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	sess, err = e.CompleteSet(ctx, sess, 0, 0, nil, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if sess.Progress != 25 {
		t.Errorf("overall progress = %v, want 25", sess.Progress)
	}
	if sess.Exercises[0].Progress != 50 {
		t.Errorf("exercise progress = %v, want 50", sess.Exercises[0].Progress)
	}
	set := sess.Exercises[0].Sets[0]
	if !set.IsCompleted || set.CompletedAt == nil {
		t.Error("set should be completed with a timestamp")
	}
}

// TestCompleteSetActualFallback verifies that omitted actuals fall back to
// the targets, and that a to-failure target leaves actual reps unset.
func TestCompleteSetActualFallback(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	ctx := context.Background()

	entries := twoByTwoEntries()
	entries[1].Sets[1].Reps = models.RepsToFailure()
	sess, err := e.Start(ctx, 1, uuid.New(), entries)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	sess, err = e.CompleteSet(ctx, sess, 0, 0, nil, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	set := sess.Exercises[0].Sets[0]
	if set.ActualWeight == nil || *set.ActualWeight != 60 {
		t.Errorf("actualWeight = %v, want target 60", set.ActualWeight)
	}
	if set.ActualReps == nil || *set.ActualReps != 8 {
		t.Errorf("actualReps = %v, want target 8", set.ActualReps)
	}

	sess, err = e.CompleteSet(ctx, sess, 1, 1, nil, nil)
	if err != nil {
		t.Fatalf("complete to-failure: %v", err)
	}
	if sess.Exercises[1].Sets[1].ActualReps != nil {
		t.Error("to-failure set without reported reps should leave actualReps unset")
	}
}

// TestCompleteSetRecordsActuals verifies that supplied actuals override the
// targets.
func TestCompleteSetRecordsActuals(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	ctx := context.Background()

	sess, err := e.Start(ctx, 1, uuid.New(), twoByTwoEntries())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	weight, reps := 57.5, 6
	sess, err = e.CompleteSet(ctx, sess, 1, 0, &weight, &reps)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	set := sess.Exercises[1].Sets[0]
	if set.ActualWeight == nil || *set.ActualWeight != 57.5 {
		t.Errorf("actualWeight = %v, want 57.5", set.ActualWeight)
	}
	if set.ActualReps == nil || *set.ActualReps != 6 {
		t.Errorf("actualReps = %v, want 6", set.ActualReps)
	}
}

// TestCompleteSetIdempotent verifies that re-completing a set is a no-op
// success: same progress, original completedAt and actuals retained.
func TestCompleteSetIdempotent(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	ctx := context.Background()

	sess, err := e.Start(ctx, 1, uuid.New(), twoByTwoEntries())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	sess, err = e.CompleteSet(ctx, sess, 0, 0, nil, nil)
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}
	firstAt := *sess.Exercises[0].Sets[0].CompletedAt

	// Simulate a later retry with different actuals.
	e.now = func() time.Time { return firstAt.Add(5 * time.Minute) }
	weight := 999.0
	sess, err = e.CompleteSet(ctx, sess, 0, 0, &weight, nil)
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}

	set := sess.Exercises[0].Sets[0]
	if !set.CompletedAt.Equal(firstAt) {
		t.Errorf("completedAt changed on retry: %v, want %v", set.CompletedAt, firstAt)
	}
	if *set.ActualWeight == 999.0 {
		t.Error("retry should not overwrite recorded actuals")
	}
	if sess.Progress != 25 {
		t.Errorf("progress = %v, want 25 (no double count)", sess.Progress)
	}
}

// TestCompleteSetOutOfRange verifies a not-found failure with session state
// untouched.
func TestCompleteSetOutOfRange(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	ctx := context.Background()

	sess, err := e.Start(ctx, 1, uuid.New(), twoByTwoEntries())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := e.CompleteSet(ctx, sess, 0, 7, nil, nil); !apperr.IsNotFound(err) {
		t.Fatalf("set index error = %v, want not found", err)
	}
	if _, err := e.CompleteSet(ctx, sess, 5, 0, nil, nil); !apperr.IsNotFound(err) {
		t.Fatalf("exercise index error = %v, want not found", err)
	}
	if sess.Progress != 0 {
		t.Errorf("progress = %v, want 0 (unchanged)", sess.Progress)
	}
	for _, entry := range sess.Exercises {
		for _, set := range entry.Sets {
			if set.IsCompleted {
				t.Fatal("no set should be completed after failed calls")
			}
		}
	}
}

// TestCompleteSetInactive verifies that mutations on a finished session are
// rejected.
func TestCompleteSetInactive(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	sess := &models.Session{IsActive: false, Exercises: twoByTwoEntries()}
	if _, err := e.CompleteSet(context.Background(), sess, 0, 0, nil, nil); !apperr.IsValidation(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

// TestCompleteSetDropSet verifies completing a drop set: flags and timestamp
// set, drop reductions untouched.
func TestCompleteSetDropSet(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	ctx := context.Background()

	entries := []models.ExerciseEntry{{
		ExerciseID: uuid.New(),
		Name:       "Lateral Raise",
		Sets: []models.Set{{
			Type:   models.SetDrop,
			Weight: 40,
			Reps:   models.RepCount(10),
			DropSets: []models.DropWeight{
				{Weight: 40}, {Weight: 30}, {Weight: 20},
			},
		}},
	}}
	sess, err := e.Start(ctx, 1, uuid.New(), entries)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	sess, err = e.CompleteSet(ctx, sess, 0, 0, nil, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	set := sess.Exercises[0].Sets[0]
	if !set.IsCompleted || set.CompletedAt == nil {
		t.Error("drop set should be completed with a timestamp")
	}
	if len(set.DropSets) != 3 {
		t.Fatalf("dropSets length = %d, want 3", len(set.DropSets))
	}
	for i, want := range []float64{40, 30, 20} {
		if set.DropSets[i].Weight != want {
			t.Errorf("dropSets[%d].weight = %v, want %v", i, set.DropSets[i].Weight, want)
		}
	}
}

// TestCompleteSetPersistFailure verifies that a failed store write surfaces
// as an error rather than silent success.
func TestCompleteSetPersistFailure(t *testing.T) {
	store := &fakeStore{}
	e := newTestEngine(store)
	ctx := context.Background()

	sess, err := e.Start(ctx, 1, uuid.New(), twoByTwoEntries())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	store.updateErr = apperr.Storage("write failed", errors.New("connection reset"))
	if _, err := e.CompleteSet(ctx, sess, 0, 0, nil, nil); err == nil {
		t.Fatal("expected error when persistence fails")
	}
}

// TestEndProducesLog verifies finalization: duration, recount matching an
// independent scan of the log's own sets, deactivation, and no active
// session afterwards.
func TestEndProducesLog(t *testing.T) {
	store := &fakeStore{}
	e := newTestEngine(store)
	ctx := context.Background()

	sess, err := e.Start(ctx, 1, uuid.New(), twoByTwoEntries())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	sess, err = e.CompleteSet(ctx, sess, 0, 0, nil, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	end := sess.StartTime.Add(45 * time.Minute)
	log, err := e.End(ctx, sess, end)
	if err != nil {
		t.Fatalf("end: %v", err)
	}

	if log.DurationSec != 45*60 {
		t.Errorf("duration = %v, want %v", log.DurationSec, 45*60)
	}
	if log.TotalSets != 4 || log.CompletedSets != 1 {
		t.Errorf("counts = (%d, %d), want (4, 1)", log.TotalSets, log.CompletedSets)
	}
	if log.TotalProgress != 25 {
		t.Errorf("totalProgress = %v, want 25", log.TotalProgress)
	}

	// Round-trip: recount over the log's own snapshot must agree.
	total, completed := CountSets(log.Exercises)
	if total != log.TotalSets || completed != log.CompletedSets {
		t.Errorf("recount = (%d, %d), want (%d, %d)", total, completed, log.TotalSets, log.CompletedSets)
	}

	if sess.IsActive {
		t.Error("session should be inactive after end")
	}
	active, err := e.Active(ctx, 1)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active != nil {
		t.Error("no session should be active after end")
	}
}

// TestEndSnapshotIsolated verifies the log holds a deep copy: mutating the
// session afterwards must not leak into the log.
func TestEndSnapshotIsolated(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	ctx := context.Background()

	sess, err := e.Start(ctx, 1, uuid.New(), twoByTwoEntries())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	log, err := e.End(ctx, sess, sess.StartTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("end: %v", err)
	}

	sess.Exercises[0].Sets[0].IsCompleted = true
	sess.Exercises[0].Name = "Mutated"

	if log.Exercises[0].Sets[0].IsCompleted {
		t.Error("log set completion changed by session mutation")
	}
	if log.Exercises[0].Name == "Mutated" {
		t.Error("log exercise name changed by session mutation")
	}
}

// TestEndNegativeDuration verifies that an end time before the start is a
// caller defect.
func TestEndNegativeDuration(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	ctx := context.Background()

	sess, err := e.Start(ctx, 1, uuid.New(), twoByTwoEntries())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.End(ctx, sess, sess.StartTime.Add(-time.Second)); !apperr.IsValidation(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if !sess.IsActive {
		t.Error("session should remain active after rejected end")
	}
}

// TestEndLogWriteFailure verifies that the session stays active when the
// log write fails, so no history is lost.
func TestEndLogWriteFailure(t *testing.T) {
	store := &fakeStore{insertErr: apperr.Storage("insert failed", errors.New("disk full"))}
	e := newTestEngine(store)
	ctx := context.Background()

	sess, err := e.Start(ctx, 1, uuid.New(), twoByTwoEntries())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.End(ctx, sess, sess.StartTime.Add(time.Minute)); err == nil {
		t.Fatal("expected error when log write fails")
	}
	if !sess.IsActive {
		t.Error("session should remain active when the log write fails")
	}
	if len(store.logs) != 0 {
		t.Error("no log should be recorded")
	}
}

// TestEndAtZeroProgress verifies that abandoning at 0% still produces a log.
func TestEndAtZeroProgress(t *testing.T) {
	store := &fakeStore{}
	e := newTestEngine(store)
	ctx := context.Background()

	sess, err := e.Start(ctx, 1, uuid.New(), twoByTwoEntries())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	log, err := e.End(ctx, sess, sess.StartTime.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if log.CompletedSets != 0 || log.TotalProgress != 0 {
		t.Errorf("log = %d completed / %v%%, want 0 / 0", log.CompletedSets, log.TotalProgress)
	}
	if len(store.logs) != 1 {
		t.Errorf("logs stored = %d, want 1", len(store.logs))
	}
}

// fakeCache is an in-memory SnapshotCache.
type fakeCache struct {
	snapshots map[int]*models.Session
}

func newFakeCache() *fakeCache { return &fakeCache{snapshots: make(map[int]*models.Session)} }

func (c *fakeCache) Save(userID int, sess *models.Session) error {
	copied := *sess
	copied.Exercises = sess.CloneExercises()
	c.snapshots[userID] = &copied
	return nil
}

func (c *fakeCache) Load(userID int) (*models.Session, error) {
	return c.snapshots[userID], nil
}

func (c *fakeCache) Clear(userID int) error {
	delete(c.snapshots, userID)
	return nil
}

// TestActiveCacheFallback verifies that a cached snapshot serves as a resume
// hint when the primary store is unreachable.
func TestActiveCacheFallback(t *testing.T) {
	store := &fakeStore{}
	e := newTestEngine(store)
	cache := newFakeCache()
	e.SetCache(cache)
	ctx := context.Background()

	sess, err := e.Start(ctx, 1, uuid.New(), twoByTwoEntries())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	store.loadErr = errors.New("connection refused")
	got, err := e.Active(ctx, 1)
	if err != nil {
		t.Fatalf("Active with cache fallback: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Error("cached snapshot should be returned when the store is down")
	}
}

// TestEndClearsCache verifies that finalizing a session removes its
// snapshot.
func TestEndClearsCache(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	cache := newFakeCache()
	e.SetCache(cache)
	ctx := context.Background()

	sess, err := e.Start(ctx, 1, uuid.New(), twoByTwoEntries())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.End(ctx, sess, sess.StartTime.Add(time.Minute)); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, ok := cache.snapshots[1]; ok {
		t.Error("snapshot should be cleared after end")
	}
}
