package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"disciplinebaby/models"
	"disciplinebaby/storage"
)

// ErrNothingToSync is returned when the process has no persistent backend to
// copy local data into.
var ErrNothingToSync = errors.New("no authoritative backend to sync to")

// ErrNoLocalData is returned when the device holds no records for the user.
var ErrNoLocalData = errors.New("no local data to sync")

// Snapshot is the full local state of one user.
type Snapshot struct {
	User         models.User          `json:"user"`
	Tasks        []models.Task        `json:"tasks"`
	Achievements []models.Achievement `json:"achievements"`
	Rewards      []models.Reward      `json:"rewards"`
}

// SyncResult mirrors what callers show to the user.
type SyncResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SyncService copies a device snapshot over the authoritative backend.
type SyncService struct {
	target storage.Store
	userID string
	log    *slog.Logger
}

func NewSyncService(target storage.Store, userID string, log *slog.Logger) *SyncService {
	return &SyncService{target: target, userID: userID, log: log}
}

// SyncLocalToAuthoritative replaces the user's records on the authoritative
// backend with snap. Running it twice with the same snapshot leaves the same
// state. Each record kind is replaced as a whole; a failure is reported in
// the result and never panics.
func (s *SyncService) SyncLocalToAuthoritative(ctx context.Context, snap Snapshot) SyncResult {
	if err := s.sync(ctx, snap); err != nil {
		s.log.Error("sync failed", "error", err)
		return SyncResult{Success: false, Error: err.Error()}
	}
	s.log.Info("local data synced", "backend", s.target.Backend(), "tasks", len(snap.Tasks),
		"achievements", len(snap.Achievements), "rewards", len(snap.Rewards))
	return SyncResult{Success: true}
}

func (s *SyncService) sync(ctx context.Context, snap Snapshot) error {
	if s.target == nil || !s.target.Backend().Persistent() {
		return ErrNothingToSync
	}

	user := snap.User
	user.ID = s.userID
	tasks := orEmpty(snap.Tasks)
	for i := range tasks {
		tasks[i].UserID = s.userID
	}
	achievements := orEmpty(snap.Achievements)
	for i := range achievements {
		achievements[i].UserID = s.userID
	}
	rewards := orEmpty(snap.Rewards)
	for i := range rewards {
		rewards[i].UserID = s.userID
	}

	entries := []storage.Entry{
		{Key: storage.Key{Kind: storage.KindUser, UserID: s.userID}, Value: user},
		{Key: storage.Key{Kind: storage.KindTasks, UserID: s.userID}, Value: tasks},
		{Key: storage.Key{Kind: storage.KindAchievements, UserID: s.userID}, Value: achievements},
		{Key: storage.Key{Kind: storage.KindRewards, UserID: s.userID}, Value: rewards},
	}
	if err := storage.PutAll(ctx, s.target, entries); err != nil {
		return fmt.Errorf("sync to %s: %w", s.target.Backend(), err)
	}
	return nil
}

// ReadSnapshot collects the records held in store for userID. Kinds missing
// from store are filled with the defaults for now. ErrNoLocalData is returned
// when store holds nothing at all for the user, so an untouched device never
// overwrites real data.
func ReadSnapshot(ctx context.Context, store storage.Store, userID string, now time.Time) (Snapshot, error) {
	var snap Snapshot
	targets := []struct {
		kind     storage.Kind
		dest     any
		defaults func()
	}{
		{storage.KindUser, &snap.User, func() { snap.User = models.DefaultUser(userID) }},
		{storage.KindTasks, &snap.Tasks, func() { snap.Tasks = models.DefaultTasks(userID, models.DateOf(now), now) }},
		{storage.KindAchievements, &snap.Achievements, func() { snap.Achievements = models.DefaultAchievements(userID, now) }},
		{storage.KindRewards, &snap.Rewards, func() { snap.Rewards = models.DefaultRewards(userID) }},
	}
	var missing []func()
	for _, t := range targets {
		found, err := store.Get(ctx, storage.Key{Kind: t.kind, UserID: userID}, t.dest)
		if err != nil {
			return Snapshot{}, fmt.Errorf("read local %s: %w", t.kind, err)
		}
		if !found {
			missing = append(missing, t.defaults)
		}
	}
	if len(missing) == len(targets) {
		return Snapshot{}, ErrNoLocalData
	}
	for _, fill := range missing {
		fill()
	}
	return snap, nil
}

// orEmpty copies items, turning nil into an empty list.
func orEmpty[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}
