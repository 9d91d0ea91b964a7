package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"disciplinebaby/database"
	"disciplinebaby/models"
)

// DatabaseStore keeps records in relational tables, one row per entity.
// Writing a collection replaces all of the user's rows of that kind inside
// one transaction.
type DatabaseStore struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewDatabaseStore(db *gorm.DB, log *slog.Logger) *DatabaseStore {
	return &DatabaseStore{db: db, log: log.With("backend", BackendDatabase)}
}

func (s *DatabaseStore) Backend() Backend { return BackendDatabase }

func (s *DatabaseStore) Get(ctx context.Context, key Key, dest any) (bool, error) {
	value, found, err := s.load(ctx, key)
	if err != nil {
		var shape *shapeError
		if errors.As(err, &shape) {
			s.log.Warn("stored record is malformed, treating as absent", "key", key.String(), "error", err)
			return false, nil
		}
		return false, s.classify("get", key, err)
	}
	if !found {
		return false, nil
	}
	if err := assign(dest, value); err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	return true, nil
}

func (s *DatabaseStore) load(ctx context.Context, key Key) (any, bool, error) {
	db := s.db.WithContext(ctx)
	switch key.Kind {
	case KindUser:
		var row database.UserRow
		if err := db.First(&row, "id = ?", key.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, nil
			}
			return nil, false, err
		}
		u, err := row.ToModel()
		if err != nil {
			return nil, false, &shapeError{err}
		}
		return u, true, nil

	case KindTasks:
		var rows []database.TaskRow
		if err := db.Where("user_id = ?", key.UserID).Order("position asc").Find(&rows).Error; err != nil {
			return nil, false, err
		}
		if len(rows) == 0 {
			written, err := s.collectionWritten(db, key)
			return []models.Task{}, written, err
		}
		tasks := make([]models.Task, 0, len(rows))
		for _, r := range rows {
			t, err := r.ToModel()
			if err != nil {
				return nil, false, &shapeError{err}
			}
			tasks = append(tasks, t)
		}
		return tasks, true, nil

	case KindAchievements:
		var rows []database.AchievementRow
		if err := db.Where("user_id = ?", key.UserID).Order("position asc").Find(&rows).Error; err != nil {
			return nil, false, err
		}
		if len(rows) == 0 {
			written, err := s.collectionWritten(db, key)
			return []models.Achievement{}, written, err
		}
		items := make([]models.Achievement, 0, len(rows))
		for _, r := range rows {
			items = append(items, r.ToModel())
		}
		return items, true, nil

	case KindRewards:
		var rows []database.RewardRow
		if err := db.Where("user_id = ?", key.UserID).Order("position asc").Find(&rows).Error; err != nil {
			return nil, false, err
		}
		if len(rows) == 0 {
			written, err := s.collectionWritten(db, key)
			return []models.Reward{}, written, err
		}
		items := make([]models.Reward, 0, len(rows))
		for _, r := range rows {
			items = append(items, r.ToModel())
		}
		return items, true, nil
	}
	return nil, false, fmt.Errorf("%w: %q", ErrUnknownKind, key.Kind)
}

func (s *DatabaseStore) collectionWritten(db *gorm.DB, key Key) (bool, error) {
	var count int64
	err := db.Model(&database.CollectionRow{}).
		Where("user_id = ? AND kind = ?", key.UserID, string(key.Kind)).
		Count(&count).Error
	return count > 0, err
}

func (s *DatabaseStore) Put(ctx context.Context, key Key, value any) error {
	return s.PutBatch(ctx, []Entry{{Key: key, Value: value}})
}

// PutBatch writes every entry in a single transaction.
func (s *DatabaseStore) PutBatch(ctx context.Context, entries []Entry) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			if err := s.write(tx, e.Key, e.Value); err != nil {
				return fmt.Errorf("put %s: %w", e.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return s.classify("put", Key{}, err)
	}
	return nil
}

func (s *DatabaseStore) write(tx *gorm.DB, key Key, value any) error {
	switch key.Kind {
	case KindUser:
		var u models.User
		if err := assign(&u, value); err != nil {
			return err
		}
		u.ID = key.UserID
		row, err := database.UserRowFrom(u)
		if err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&row).Error

	case KindTasks:
		var tasks []models.Task
		if err := assign(&tasks, value); err != nil {
			return err
		}
		rows := make([]database.TaskRow, 0, len(tasks))
		for i, t := range tasks {
			row, err := database.TaskRowFrom(t, key.UserID, i)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return replaceRows(tx, key, &database.TaskRow{}, rows)

	case KindAchievements:
		var items []models.Achievement
		if err := assign(&items, value); err != nil {
			return err
		}
		rows := make([]database.AchievementRow, 0, len(items))
		for i, a := range items {
			rows = append(rows, database.AchievementRowFrom(a, key.UserID, i))
		}
		return replaceRows(tx, key, &database.AchievementRow{}, rows)

	case KindRewards:
		var items []models.Reward
		if err := assign(&items, value); err != nil {
			return err
		}
		rows := make([]database.RewardRow, 0, len(items))
		for i, r := range items {
			rows = append(rows, database.RewardRowFrom(r, key.UserID, i))
		}
		return replaceRows(tx, key, &database.RewardRow{}, rows)
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, key.Kind)
}

// replaceRows deletes the user's rows of model's table, inserts rows and
// records the collection as written.
func replaceRows[R any](tx *gorm.DB, key Key, model any, rows []R) error {
	if err := tx.Where("user_id = ?", key.UserID).Delete(model).Error; err != nil {
		return err
	}
	if len(rows) > 0 {
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	marker := database.CollectionRow{UserID: key.UserID, Kind: string(key.Kind), UpdatedAt: time.Now().UTC()}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
	}).Create(&marker).Error
}

func (s *DatabaseStore) Delete(ctx context.Context, key Key) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch key.Kind {
		case KindUser:
			return tx.Where("id = ?", key.UserID).Delete(&database.UserRow{}).Error
		case KindTasks:
			if err := tx.Where("user_id = ?", key.UserID).Delete(&database.TaskRow{}).Error; err != nil {
				return err
			}
		case KindAchievements:
			if err := tx.Where("user_id = ?", key.UserID).Delete(&database.AchievementRow{}).Error; err != nil {
				return err
			}
		case KindRewards:
			if err := tx.Where("user_id = ?", key.UserID).Delete(&database.RewardRow{}).Error; err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownKind, key.Kind)
		}
		return tx.Where("user_id = ? AND kind = ?", key.UserID, string(key.Kind)).
			Delete(&database.CollectionRow{}).Error
	})
	if err != nil {
		return s.classify("delete", key, err)
	}
	return nil
}

func (s *DatabaseStore) classify(op string, key Key, err error) error {
	if isConnectivity(err) {
		s.log.Warn("database unreachable", "op", op, "key", key.String(), "error", err)
		return unavailable(fmt.Errorf("%s %s: %w", op, key, err))
	}
	s.log.Error("database operation failed", "op", op, "key", key.String(), "error", err)
	if key.Kind == "" {
		return err
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}

// shapeError marks stored data that cannot be decoded.
type shapeError struct{ err error }

func (e *shapeError) Error() string { return e.err.Error() }
func (e *shapeError) Unwrap() error { return e.err }

// assign copies value into dest through its JSON form, which is the common
// currency between the relational rows and the callers' types.
func assign(dest, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
