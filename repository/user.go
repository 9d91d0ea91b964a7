package repository

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"disciplinebaby/events"
	"disciplinebaby/models"
	"disciplinebaby/progression"
	"disciplinebaby/storage"
)

// UserRepository manages the single user profile.
type UserRepository struct {
	store  storage.Store
	key    storage.Key
	userID string
	bus    *events.Bus
	log    *slog.Logger
	group  singleflight.Group
}

func NewUserRepository(store storage.Store, userID string, bus *events.Bus, log *slog.Logger) *UserRepository {
	return &UserRepository{
		store:  store,
		key:    storage.Key{Kind: storage.KindUser, UserID: userID},
		userID: userID,
		bus:    bus,
		log:    log.With("kind", storage.KindUser),
	}
}

func (r *UserRepository) UserID() string { return r.userID }

// Load returns the stored profile, creating the default one when missing.
// On a backend error the default profile is returned and nothing is written.
func (r *UserRepository) Load(ctx context.Context) models.User {
	v, _, _ := r.group.Do("load", func() (any, error) {
		u, found, err := r.read(ctx)
		if err != nil {
			r.log.Warn("load failed, using defaults", "error", err)
			return models.DefaultUser(r.userID), nil
		}
		if found {
			return u, nil
		}
		u = models.DefaultUser(r.userID)
		if err := r.store.Put(ctx, r.key, u); err != nil {
			r.log.Warn("could not persist default profile", "error", err)
		}
		return u, nil
	})
	return v.(models.User)
}

func (r *UserRepository) read(ctx context.Context) (models.User, bool, error) {
	var u models.User
	found, err := r.store.Get(ctx, r.key, &u)
	return u, found, err
}

func (r *UserRepository) current(ctx context.Context) (models.User, error) {
	u, found, err := r.read(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("read user: %w", err)
	}
	if !found {
		return models.DefaultUser(r.userID), nil
	}
	return u, nil
}

// Save merges the fields of patch, a JSON object, into the profile. The id
// cannot be changed and the pet stage always follows the level.
func (r *UserRepository) Save(ctx context.Context, patch []byte) (models.User, error) {
	u, err := r.current(ctx)
	if err != nil {
		return models.User{}, err
	}
	merged, err := mergePatch(u, patch)
	if err != nil {
		return models.User{}, fmt.Errorf("merge user: %w", err)
	}
	normalize(&merged, r.userID)
	return merged, r.Replace(ctx, merged)
}

// Update applies fn to the current profile and writes the result.
func (r *UserRepository) Update(ctx context.Context, fn func(*models.User)) (models.User, error) {
	u, err := r.current(ctx)
	if err != nil {
		return models.User{}, err
	}
	fn(&u)
	normalize(&u, r.userID)
	return u, r.Replace(ctx, u)
}

// Replace writes u as the whole profile.
func (r *UserRepository) Replace(ctx context.Context, u models.User) error {
	normalize(&u, r.userID)
	if err := r.store.Put(ctx, r.key, u); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	if r.bus != nil {
		r.bus.Publish(events.Updated(string(storage.KindUser), r.userID))
	}
	return nil
}

func normalize(u *models.User, userID string) {
	u.ID = userID
	if u.Level < 1 {
		u.Level = models.DefaultLevel
	}
	if u.XPToNextLevel < 1 {
		u.XPToNextLevel = models.DefaultXPToNextLevel
	}
	if u.XP < 0 {
		u.XP = 0
	}
	u.PetStyle = progression.PetStageForLevel(u.Level)
}
