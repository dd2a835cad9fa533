package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"quilt/internal/db"
	"quilt/internal/palette"
	"quilt/internal/quilt"
)

func TestPushEvictsOldestBeyondCapacity(t *testing.T) {
	t.Parallel()

	store := NewStore(DefaultCapacity)
	for seed := int64(1); seed <= 25; seed++ {
		store.Push(stateWithSeed(seed))
	}

	if store.Len() != 20 {
		t.Fatalf("expected 20 retained states, got %d", store.Len())
	}
	if store.Cursor() != 19 {
		t.Fatalf("expected cursor 19, got %d", store.Cursor())
	}
	current, ok := store.Current()
	if !ok || current.Seed != 25 {
		t.Fatalf("expected newest state under cursor, got %d (%v)", current.Seed, ok)
	}

	snapshot := store.Snapshot()
	if snapshot.States[0].Seed != 6 {
		t.Fatalf("expected oldest retained seed 6, got %d", snapshot.States[0].Seed)
	}
	if store.CanRedo() {
		t.Fatal("redo available at the newest state")
	}
}

func TestUndoRedoMoveCursorOnly(t *testing.T) {
	t.Parallel()

	store := NewStore(DefaultCapacity)
	if _, ok := store.Undo(); ok {
		t.Fatal("undo on empty store")
	}
	if _, ok := store.Redo(); ok {
		t.Fatal("redo on empty store")
	}
	if store.Cursor() != -1 {
		t.Fatalf("expected cursor -1 when empty, got %d", store.Cursor())
	}

	for seed := int64(1); seed <= 3; seed++ {
		store.Push(stateWithSeed(seed))
	}

	state, ok := store.Undo()
	if !ok || state.Seed != 2 {
		t.Fatalf("undo = %d, %v", state.Seed, ok)
	}
	state, ok = store.Undo()
	if !ok || state.Seed != 1 {
		t.Fatalf("undo = %d, %v", state.Seed, ok)
	}
	if _, ok := store.Undo(); ok {
		t.Fatal("undo past the first state")
	}
	if store.CanUndo() || !store.CanRedo() {
		t.Fatalf("unexpected flags undo=%v redo=%v", store.CanUndo(), store.CanRedo())
	}

	state, ok = store.Redo()
	if !ok || state.Seed != 2 {
		t.Fatalf("redo = %d, %v", state.Seed, ok)
	}
	if store.Len() != 3 {
		t.Fatalf("undo/redo changed length to %d", store.Len())
	}
}

func TestPushAfterUndoDiscardsRedoBranch(t *testing.T) {
	t.Parallel()

	store := NewStore(DefaultCapacity)
	for seed := int64(1); seed <= 4; seed++ {
		store.Push(stateWithSeed(seed))
	}
	store.Undo()
	store.Undo()
	store.Push(stateWithSeed(9))

	got := seeds(store.Snapshot())
	if diff := cmp.Diff([]int64{1, 2, 9}, got); diff != "" {
		t.Fatalf("unexpected timeline (-want +got):\n%s", diff)
	}
	if store.Cursor() != 2 || store.CanRedo() {
		t.Fatalf("cursor %d redo %v", store.Cursor(), store.CanRedo())
	}
}

func TestPushAfterUndoOnFullStoreDoesNotEvict(t *testing.T) {
	t.Parallel()

	store := NewStore(3)
	for seed := int64(1); seed <= 5; seed++ {
		store.Push(stateWithSeed(seed))
	}
	if diff := cmp.Diff([]int64{3, 4, 5}, seeds(store.Snapshot())); diff != "" {
		t.Fatalf("unexpected timeline (-want +got):\n%s", diff)
	}

	store.Undo()
	store.Push(stateWithSeed(7))
	if diff := cmp.Diff([]int64{3, 4, 7}, seeds(store.Snapshot())); diff != "" {
		t.Fatalf("unexpected timeline (-want +got):\n%s", diff)
	}
	if store.Cursor() != 2 {
		t.Fatalf("expected cursor 2, got %d", store.Cursor())
	}
}

func TestStoredStatesAreCopies(t *testing.T) {
	t.Parallel()

	store := NewStore(DefaultCapacity)
	state := stateWithSeed(1)
	store.Push(state)
	state.Palette[0] = palette.RGB(0, 0, 0)

	current, _ := store.Current()
	if current.Palette[0] != palette.RGB(255, 255, 255) {
		t.Fatal("store shares palette with caller")
	}
	current.CenterHighlights[0] = 35
	again, _ := store.Current()
	if again.CenterHighlights[0] == 35 {
		t.Fatal("store shares highlights with reader")
	}
}

func TestRestoreClampsToCapacity(t *testing.T) {
	t.Parallel()

	states := make([]quilt.State, 0, 6)
	for seed := int64(1); seed <= 6; seed++ {
		states = append(states, stateWithSeed(seed))
	}

	store := NewStore(4)
	store.Restore(Snapshot{States: states, Cursor: 5})
	if diff := cmp.Diff([]int64{3, 4, 5, 6}, seeds(store.Snapshot())); diff != "" {
		t.Fatalf("unexpected timeline (-want +got):\n%s", diff)
	}
	if store.Cursor() != 3 {
		t.Fatalf("expected cursor 3, got %d", store.Cursor())
	}

	store.Restore(Snapshot{States: states[:2], Cursor: 9})
	if store.Cursor() != 1 {
		t.Fatalf("expected clamped cursor 1, got %d", store.Cursor())
	}

	store.Restore(Snapshot{})
	if store.Len() != 0 || store.Cursor() != -1 {
		t.Fatalf("expected empty store, got len %d cursor %d", store.Len(), store.Cursor())
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepository(t)

	if _, _, err := repo.Latest(ctx); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	store := NewStore(DefaultCapacity)
	for seed := int64(10); seed <= 13; seed++ {
		store.Push(stateWithSeed(seed))
	}
	store.Undo()

	want := store.Snapshot()
	if err := repo.Save(ctx, "session-a", want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Load(ctx, "session-a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip changed snapshot (-want +got):\n%s", diff)
	}

	store.Push(stateWithSeed(99))
	if err := repo.Save(ctx, "session-a", store.Snapshot()); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, err = repo.Load(ctx, "session-a")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if diff := cmp.Diff([]int64{10, 11, 12, 99}, seeds(got)); diff != "" {
		t.Fatalf("unexpected timeline (-want +got):\n%s", diff)
	}

	if _, err := repo.Load(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRepositoryLatestAndPrune(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepository(t)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	for i, id := range []string{"old", "middle", "new"} {
		clock = clock.Add(time.Minute)
		snapshot := Snapshot{States: []quilt.State{stateWithSeed(int64(i))}, Cursor: 0}
		if err := repo.Save(ctx, id, snapshot); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	id, snapshot, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if id != "new" || snapshot.States[0].Seed != 2 {
		t.Fatalf("unexpected latest %s seed %d", id, snapshot.States[0].Seed)
	}

	removed, err := repo.Prune(ctx, 1)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 pruned sessions, got %d", removed)
	}
	if _, err := repo.Load(ctx, "old"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected pruned session to be gone, got %v", err)
	}

	var orphaned int
	if err := repo.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM history_states WHERE session_id <> 'new'").Scan(&orphaned); err != nil {
		t.Fatalf("count states: %v", err)
	}
	if orphaned != 0 {
		t.Fatalf("expected states of pruned sessions to cascade, %d left", orphaned)
	}
}

func TestRepositoryLatestOrdersWithinOneSecond(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepository(t)
	clock := time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	if err := repo.Save(ctx, "whole-second", Snapshot{States: []quilt.State{stateWithSeed(1)}, Cursor: 0}); err != nil {
		t.Fatalf("save: %v", err)
	}
	clock = clock.Add(500 * time.Millisecond)
	if err := repo.Save(ctx, "half-second", Snapshot{States: []quilt.State{stateWithSeed(2)}, Cursor: 0}); err != nil {
		t.Fatalf("save: %v", err)
	}

	id, snapshot, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if id != "half-second" || snapshot.States[0].Seed != 2 {
		t.Fatalf("unexpected latest %s seed %d", id, snapshot.States[0].Seed)
	}

	if _, err := repo.Prune(ctx, 1); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if _, err := repo.Load(ctx, "whole-second"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected the older session to be pruned, got %v", err)
	}
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	database, err := db.Bootstrap(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("bootstrap db: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return NewRepository(database)
}

func stateWithSeed(seed int64) quilt.State {
	return quilt.State{
		Seed: seed,
		Layout: quilt.Layout{
			CrossRow:         1,
			CrossCol:         2,
			CenterHighlights: []int{0, 5, 30},
		},
		Palette:        palette.Grayscale(),
		HighlightColor: quilt.ImageHighlight,
	}
}

func seeds(snapshot Snapshot) []int64 {
	out := make([]int64, len(snapshot.States))
	for i, state := range snapshot.States {
		out[i] = state.Seed
	}
	return out
}
