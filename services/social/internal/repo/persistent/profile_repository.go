package persistent

import (
	"context"

	"chronofeed/pkg/kv"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/model"
)

type ProfileRepository interface {
	GetByEmail(ctx context.Context, email string) (*entity.UserProfile, error)
	GetByUsername(ctx context.Context, username string) (*entity.UserProfile, error)
	// GetManyByUsername and GetManyByEmail keep input order; missing
	// profiles are nil.
	GetManyByUsername(ctx context.Context, usernames []string) ([]*entity.UserProfile, error)
	GetManyByEmail(ctx context.Context, emails []string) ([]*entity.UserProfile, error)
	// Claim atomically reserves profile.Username, storing the profile under
	// the username key. It reports false when the name is taken.
	Claim(ctx context.Context, profile *entity.UserProfile) (bool, error)
	// ClaimEmail is Claim for the email key: one profile per account.
	ClaimEmail(ctx context.Context, profile *entity.UserProfile) (bool, error)
	Release(ctx context.Context, username string) error
	Save(ctx context.Context, profile *entity.UserProfile) error
	AddToIndex(ctx context.Context, profile *entity.UserProfile) error
	Usernames(ctx context.Context) ([]string, error)
	RecentUsernames(ctx context.Context, limit int) ([]string, error)
	Count(ctx context.Context) (int64, error)
	GetSettings(ctx context.Context, email string) (*entity.UserSettings, error)
	SaveSettings(ctx context.Context, email string, settings *entity.UserSettings) error
}

type profileRepository struct {
	store kv.Store
}

func NewProfileRepository(store kv.Store) ProfileRepository {
	return &profileRepository{store: store}
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*entity.UserProfile, error) {
	rec, err := getJSON[model.ProfileRecord](ctx, r.store, profileByEmailKey(email))
	if err != nil {
		return nil, err
	}
	return ToProfileEntity(rec), nil
}

func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*entity.UserProfile, error) {
	rec, err := getJSON[model.ProfileRecord](ctx, r.store, profileByNameKey(username))
	if err != nil {
		return nil, err
	}
	return ToProfileEntity(rec), nil
}

func (r *profileRepository) GetManyByUsername(ctx context.Context, usernames []string) ([]*entity.UserProfile, error) {
	keys := make([]string, len(usernames))
	for i, name := range usernames {
		keys[i] = profileByNameKey(name)
	}
	return r.getMany(ctx, keys)
}

func (r *profileRepository) GetManyByEmail(ctx context.Context, emails []string) ([]*entity.UserProfile, error) {
	keys := make([]string, len(emails))
	for i, email := range emails {
		keys[i] = profileByEmailKey(email)
	}
	return r.getMany(ctx, keys)
}

func (r *profileRepository) getMany(ctx context.Context, keys []string) ([]*entity.UserProfile, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	recs, err := mgetJSON[model.ProfileRecord](ctx, r.store, keys)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.UserProfile, len(recs))
	for i, rec := range recs {
		out[i] = ToProfileEntity(rec)
	}
	return out, nil
}

func (r *profileRepository) Claim(ctx context.Context, profile *entity.UserProfile) (bool, error) {
	b, err := marshal(ToProfileRecord(profile))
	if err != nil {
		return false, err
	}
	return r.store.SetNX(ctx, profileByNameKey(profile.Username), b)
}

func (r *profileRepository) ClaimEmail(ctx context.Context, profile *entity.UserProfile) (bool, error) {
	b, err := marshal(ToProfileRecord(profile))
	if err != nil {
		return false, err
	}
	return r.store.SetNX(ctx, profileByEmailKey(profile.Email), b)
}

func (r *profileRepository) Release(ctx context.Context, username string) error {
	return r.store.Del(ctx, profileByNameKey(username))
}

// Save writes both copies of the profile. The two writes are not atomic.
func (r *profileRepository) Save(ctx context.Context, profile *entity.UserProfile) error {
	b, err := marshal(ToProfileRecord(profile))
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, profileByEmailKey(profile.Email), b); err != nil {
		return err
	}
	return r.store.Set(ctx, profileByNameKey(profile.Username), b)
}

func (r *profileRepository) AddToIndex(ctx context.Context, profile *entity.UserProfile) error {
	return r.store.ZAdd(ctx, usersIndexKey, scoreOf(profile.CreatedAt.UnixMilli()), profile.Username)
}

func (r *profileRepository) Usernames(ctx context.Context) ([]string, error) {
	return r.store.ZRange(ctx, usersIndexKey, 0, -1)
}

func (r *profileRepository) RecentUsernames(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	members, err := r.store.ZRevRangeWithScores(ctx, usersIndexKey, 0, int64(limit-1))
	if err != nil {
		return nil, err
	}
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Member
	}
	return out, nil
}

func (r *profileRepository) Count(ctx context.Context) (int64, error) {
	return r.store.ZCard(ctx, usersIndexKey)
}

func (r *profileRepository) GetSettings(ctx context.Context, email string) (*entity.UserSettings, error) {
	rec, err := getJSON[model.SettingsRecord](ctx, r.store, settingsKey(email))
	if err != nil {
		return nil, err
	}
	return ToSettingsEntity(rec), nil
}

func (r *profileRepository) SaveSettings(ctx context.Context, email string, settings *entity.UserSettings) error {
	return setJSON(ctx, r.store, settingsKey(email), ToSettingsRecord(settings))
}
