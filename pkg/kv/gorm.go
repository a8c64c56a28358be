package kv

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is a scalar value.
type Entry struct {
	Key       string `gorm:"primaryKey;size:512"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "kv_entries" }

type SetMember struct {
	Key    string `gorm:"primaryKey;size:512"`
	Member string `gorm:"primaryKey;size:512"`
}

func (SetMember) TableName() string { return "kv_set_members" }

// SortedMember is one row of a sorted set; (key, score) is indexed so
// range scans never touch other keys.
type SortedMember struct {
	Key    string  `gorm:"primaryKey;size:512;index:idx_kv_sorted_members_key_score,priority:1"`
	Member string  `gorm:"primaryKey;size:512"`
	Score  float64 `gorm:"not null;index:idx_kv_sorted_members_key_score,priority:2"`
}

func (SortedMember) TableName() string { return "kv_sorted_members" }

// AutoMigrate creates the KV tables. Production schemas are owned by the
// goose migrations in migrations/; this is for tests and local runs.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Entry{}, &SetMember{}, &SortedMember{})
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

func (s *GormStore) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := s.db.WithContext(ctx).Where("key IN ?", keys).Find(&entries).Error; err != nil {
		return nil, err
	}

	byKey := make(map[string][]byte, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e.Value
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = byKey[k]
	}
	return out, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

func (s *GormStore) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("key IN ?", keys).Delete(&Entry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("key IN ?", keys).Delete(&SetMember{}).Error; err != nil {
			return err
		}
		return tx.Where("key IN ?", keys).Delete(&SortedMember{}).Error
	})
}

func (s *GormStore) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	rows := make([]SetMember, len(members))
	for i, m := range members {
		rows[i] = SetMember{Key: key, Member: m}
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (s *GormStore) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("key = ? AND member IN ?", key, members).Delete(&SetMember{}).Error
}

func (s *GormStore) SMembers(ctx context.Context, key string) ([]string, error) {
	var members []string
	err := s.db.WithContext(ctx).Model(&SetMember{}).Where("key = ?", key).Order("member").Pluck("member", &members).Error
	return members, err
}

func (s *GormStore) SIsMember(ctx context.Context, key, member string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&SetMember{}).Where("key = ? AND member = ?", key, member).Count(&n).Error
	return n > 0, err
}

func (s *GormStore) SCard(ctx context.Context, key string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&SetMember{}).Where("key = ?", key).Count(&n).Error
	return n, err
}

func (s *GormStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	row := SortedMember{Key: key, Member: member, Score: score}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}, {Name: "member"}},
		DoUpdates: clause.AssignmentColumns([]string{"score"}),
	}).Create(&row).Error
}

func (s *GormStore) ZRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("key = ? AND member IN ?", key, members).Delete(&SortedMember{}).Error
}

func (s *GormStore) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	rows, err := s.zrange(ctx, key, start, stop, "score ASC, member ASC")
	if err != nil {
		return nil, err
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Member
	}
	return out, nil
}

func (s *GormStore) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error) {
	rows, err := s.zrange(ctx, key, start, stop, "score DESC, member DESC")
	if err != nil {
		return nil, err
	}
	out := make([]ScoredMember, len(rows))
	for i, r := range rows {
		out[i] = ScoredMember{Member: r.Member, Score: r.Score}
	}
	return out, nil
}

func (s *GormStore) zrange(ctx context.Context, key string, start, stop int64, order string) ([]SortedMember, error) {
	q := s.db.WithContext(ctx).Where("key = ?", key).Order(order)

	if start != 0 || stop != -1 {
		n, err := s.ZCard(ctx, key)
		if err != nil {
			return nil, err
		}
		offset, count, ok := resolveRange(start, stop, n)
		if !ok {
			return []SortedMember{}, nil
		}
		q = q.Offset(int(offset)).Limit(int(count))
	}

	var rows []SortedMember
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) ZCard(ctx context.Context, key string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&SortedMember{}).Where("key = ?", key).Count(&n).Error
	return n, err
}

func (s *GormStore) ZCards(ctx context.Context, keys ...string) ([]int64, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var rows []struct {
		Key string
		N   int64
	}
	err := s.db.WithContext(ctx).Model(&SortedMember{}).
		Select("key, COUNT(*) AS n").
		Where("key IN ?", keys).
		Group("key").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Key] = r.N
	}
	out := make([]int64, len(keys))
	for i, k := range keys {
		out[i] = counts[k]
	}
	return out, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
