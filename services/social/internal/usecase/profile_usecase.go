package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"chronofeed/pkg/apperror"
	"chronofeed/pkg/imaging"
	"chronofeed/pkg/logger"
	"chronofeed/pkg/metrics"
	"chronofeed/pkg/queue"
	"chronofeed/pkg/text"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/repo/persistent"

	"github.com/google/uuid"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

// Names that collide with top-level routes of the web client.
var reservedUsernames = map[string]bool{
	"explore":     true,
	"leaderboard": true,
	"feed":        true,
	"api":         true,
	"settings":    true,
	"post":        true,
}

// Usernames are case-insensitive and stored lowercased.
func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}

func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return apperror.Validation("username must be 3-30 letters, digits or underscores")
	}
	if reservedUsernames[strings.ToLower(username)] {
		return apperror.Validation("This username is reserved")
	}
	return nil
}

type ProfileUseCase interface {
	// GetProfile looks a profile up by username, falling back to email.
	GetProfile(ctx context.Context, username, email, viewerEmail string) (*entity.ProfileView, error)
	CreateProfile(ctx context.Context, email, username, bio string) (*entity.UserProfile, error)
	UpdateProfile(ctx context.Context, email string, patch entity.ProfilePatch) (*entity.ProfileView, error)
	UploadAvatar(ctx context.Context, email string, upload entity.Upload) (*entity.UserProfile, error)
	Follow(ctx context.Context, followerEmail, targetUsername string) error
	Unfollow(ctx context.Context, followerEmail, targetUsername string) error
	ListFollowing(ctx context.Context, username string) ([]*entity.UserProfile, error)
	ListFollowers(ctx context.Context, username string) ([]*entity.UserProfile, error)
}

type profileUseCase struct {
	profiles  persistent.ProfileRepository
	graph     persistent.GraphRepository
	blobs     BlobStorage
	publisher queue.Publisher
	limits    Limits
	logger    *logger.Logger
}

func NewProfileUseCase(
	profiles persistent.ProfileRepository,
	graph persistent.GraphRepository,
	blobs BlobStorage,
	publisher queue.Publisher,
	limits Limits,
	logger *logger.Logger,
) ProfileUseCase {
	return &profileUseCase{
		profiles:  profiles,
		graph:     graph,
		blobs:     blobs,
		publisher: publisher,
		limits:    limits,
		logger:    logger,
	}
}

func (uc *profileUseCase) GetProfile(ctx context.Context, username, email, viewerEmail string) (*entity.ProfileView, error) {
	if username == "" && email == "" {
		return nil, apperror.Validation("Username or email is required")
	}

	var (
		profile *entity.UserProfile
		err     error = persistent.ErrNotFound
	)
	if username != "" {
		profile, err = uc.profiles.GetByUsername(ctx, normalizeUsername(username))
	}
	if isNotFound(err) && email != "" {
		profile, err = uc.profiles.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, lookup(err, "profile")
	}

	return uc.view(ctx, profile, viewerEmail)
}

func (uc *profileUseCase) view(ctx context.Context, profile *entity.UserProfile, viewerEmail string) (*entity.ProfileView, error) {
	view := &entity.ProfileView{Profile: profile}

	var err error
	if view.Following, err = uc.graph.FollowingCount(ctx, profile.Email); err != nil {
		return nil, apperror.Upstream("count following", err)
	}
	if view.Followers, err = uc.graph.FollowerCount(ctx, profile.Email); err != nil {
		return nil, apperror.Upstream("count followers", err)
	}

	switch {
	case viewerEmail == "":
	case viewerEmail == profile.Email:
		settings, err := uc.profiles.GetSettings(ctx, profile.Email)
		if err != nil && !isNotFound(err) {
			return nil, apperror.Upstream("get settings", err)
		}
		view.Settings = settings
	default:
		if view.IsFollowing, err = uc.graph.IsFollowing(ctx, viewerEmail, profile.Username); err != nil {
			return nil, apperror.Upstream("check following", err)
		}
	}
	return view, nil
}

func (uc *profileUseCase) CreateProfile(ctx context.Context, email, username, bio string) (*entity.UserProfile, error) {
	if email == "" {
		return nil, apperror.Unauthorized("Unauthorized")
	}
	username = strings.TrimSpace(username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	username = normalizeUsername(username)

	bio = text.Sanitize(bio)
	if text.Length(bio) > maxBioLength {
		return nil, apperror.Validationf("bio must be at most %d characters", maxBioLength)
	}

	if _, err := uc.profiles.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("A profile already exists for this account")
	} else if !isNotFound(err) {
		return nil, apperror.Upstream("get profile", err)
	}

	profile := &entity.UserProfile{
		Email:       email,
		Username:    username,
		DisplayName: username,
		Bio:         bio,
		CreatedAt:   time.Now().UTC(),
	}

	claimed, err := uc.profiles.Claim(ctx, profile)
	if err != nil {
		return nil, apperror.Upstream("claim username", err)
	}
	if !claimed {
		return nil, apperror.Conflict("Username is already taken")
	}

	owned, err := uc.profiles.ClaimEmail(ctx, profile)
	if err != nil || !owned {
		if relErr := uc.profiles.Release(ctx, username); relErr != nil {
			uc.logger.Error("Failed to release username %s after failed signup: %v", username, relErr)
		}
		if err != nil {
			return nil, apperror.Upstream("claim email", err)
		}
		return nil, apperror.Conflict("A profile already exists for this account")
	}
	if err := uc.profiles.AddToIndex(ctx, profile); err != nil {
		return nil, apperror.Upstream("index profile", err)
	}

	if _, err := uc.profiles.GetSettings(ctx, email); isNotFound(err) {
		defaults := entity.DefaultSettings()
		if err := uc.profiles.SaveSettings(ctx, email, &defaults); err != nil {
			return nil, apperror.Upstream("save settings", err)
		}
	} else if err != nil {
		return nil, apperror.Upstream("get settings", err)
	}

	uc.logger.Info("Profile created: username=%s", username)
	return profile, nil
}

func (uc *profileUseCase) UpdateProfile(ctx context.Context, email string, patch entity.ProfilePatch) (*entity.ProfileView, error) {
	profile, err := uc.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookup(err, "profile")
	}

	changed := false
	if patch.Bio != nil {
		bio := text.Sanitize(*patch.Bio)
		if text.Length(bio) > maxBioLength {
			return nil, apperror.Validationf("bio must be at most %d characters", maxBioLength)
		}
		profile.Bio = bio
		changed = true
	}
	if patch.DisplayName != nil {
		name := text.Sanitize(*patch.DisplayName)
		if n := text.Length(name); n < 1 || n > maxDisplayNameLen {
			return nil, apperror.Validationf("display name must be 1-%d characters", maxDisplayNameLen)
		}
		profile.DisplayName = name
		changed = true
	}

	var settings *entity.UserSettings
	if patch.Settings != nil {
		if patch.Settings.Theme != nil && !patch.Settings.Theme.Valid() {
			return nil, apperror.Validation("theme must be light, dark or system")
		}
		current, err := uc.profiles.GetSettings(ctx, email)
		if isNotFound(err) {
			defaults := entity.DefaultSettings()
			current, err = &defaults, nil
		}
		if err != nil {
			return nil, apperror.Upstream("get settings", err)
		}
		if patch.Settings.Theme != nil {
			current.Theme = *patch.Settings.Theme
		}
		if patch.Settings.EmailNotifications != nil {
			current.EmailNotifications = *patch.Settings.EmailNotifications
		}
		settings = current
	}

	if changed {
		if err := uc.profiles.Save(ctx, profile); err != nil {
			return nil, apperror.Upstream("save profile", err)
		}
	}
	if settings != nil {
		if err := uc.profiles.SaveSettings(ctx, email, settings); err != nil {
			return nil, apperror.Upstream("save settings", err)
		}
	}

	return uc.view(ctx, profile, email)
}

func (uc *profileUseCase) UploadAvatar(ctx context.Context, email string, upload entity.Upload) (*entity.UserProfile, error) {
	if len(upload.Data) == 0 {
		return nil, apperror.Validation("No file provided")
	}
	if int64(len(upload.Data)) > uc.limits.UploadMaxBytes {
		return nil, apperror.Validationf("file exceeds %d bytes", uc.limits.UploadMaxBytes)
	}

	profile, err := uc.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookup(err, "profile")
	}

	img, err := processImage(upload.Data, uc.limits.ImageMaxDimension)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%s/%s%s", profile.Username, uuid.NewString(), img.Ext)
	url, err := uc.blobs.Upload(ctx, key, img.Data, img.ContentType)
	if err != nil {
		return nil, apperror.Upstream("upload avatar", err)
	}

	previous := profile.AvatarKey
	profile.ProfilePicture = url
	profile.AvatarKey = key
	if err := uc.profiles.Save(ctx, profile); err != nil {
		return nil, apperror.Upstream("save profile", err)
	}

	if previous != "" {
		if err := uc.blobs.Delete(ctx, previous); err != nil {
			uc.logger.Warn("Failed to delete previous avatar %s: %v", previous, err)
		}
	}
	return profile, nil
}

func (uc *profileUseCase) edge(ctx context.Context, followerEmail, targetUsername string) (*entity.UserProfile, *entity.UserProfile, error) {
	if targetUsername == "" {
		return nil, nil, apperror.Validation("targetUsername is required")
	}
	target, err := uc.profiles.GetByUsername(ctx, normalizeUsername(targetUsername))
	if err != nil {
		return nil, nil, lookup(err, "Target user")
	}
	follower, err := uc.profiles.GetByEmail(ctx, followerEmail)
	if err != nil {
		return nil, nil, lookup(err, "profile")
	}
	if follower.Email == target.Email {
		return nil, nil, apperror.Validation("You cannot follow yourself")
	}
	return follower, target, nil
}

func (uc *profileUseCase) Follow(ctx context.Context, followerEmail, targetUsername string) error {
	follower, target, err := uc.edge(ctx, followerEmail, targetUsername)
	if err != nil {
		return err
	}

	if err := uc.graph.Follow(ctx, follower.Email, target.Username, target.Email); err != nil {
		return apperror.Upstream("follow", err)
	}
	metrics.FollowRequests.Inc()

	publish(ctx, uc.publisher, uc.logger, queue.UserFollowed, map[string]string{
		"follower":    follower.Username,
		"target":      target.Username,
		"targetEmail": target.Email,
	})
	return nil
}

func (uc *profileUseCase) Unfollow(ctx context.Context, followerEmail, targetUsername string) error {
	follower, target, err := uc.edge(ctx, followerEmail, targetUsername)
	if err != nil {
		return err
	}

	if err := uc.graph.Unfollow(ctx, follower.Email, target.Username, target.Email); err != nil {
		return apperror.Upstream("unfollow", err)
	}
	metrics.UnfollowRequests.Inc()
	return nil
}

func (uc *profileUseCase) ListFollowing(ctx context.Context, username string) ([]*entity.UserProfile, error) {
	profile, err := uc.requireUser(ctx, username)
	if err != nil {
		return nil, err
	}
	names, err := uc.graph.Following(ctx, profile.Email)
	if err != nil {
		return nil, apperror.Upstream("get following", err)
	}
	profiles, err := uc.profiles.GetManyByUsername(ctx, names)
	if err != nil {
		return nil, apperror.Upstream("get profiles", err)
	}
	return compactProfiles(profiles), nil
}

func (uc *profileUseCase) ListFollowers(ctx context.Context, username string) ([]*entity.UserProfile, error) {
	profile, err := uc.requireUser(ctx, username)
	if err != nil {
		return nil, err
	}
	emails, err := uc.graph.Followers(ctx, profile.Email)
	if err != nil {
		return nil, apperror.Upstream("get followers", err)
	}
	profiles, err := uc.profiles.GetManyByEmail(ctx, emails)
	if err != nil {
		return nil, apperror.Upstream("get profiles", err)
	}
	return compactProfiles(profiles), nil
}

func (uc *profileUseCase) requireUser(ctx context.Context, username string) (*entity.UserProfile, error) {
	if username == "" {
		return nil, apperror.Validation("Username is required")
	}
	profile, err := uc.profiles.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		return nil, lookup(err, "User")
	}
	return profile, nil
}

// compactProfiles drops missing profiles and orders the rest by username.
func compactProfiles(profiles []*entity.UserProfile) []*entity.UserProfile {
	out := make([]*entity.UserProfile, 0, len(profiles))
	for _, p := range profiles {
		if p != nil {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func processImage(data []byte, maxDim int) (*imaging.Result, error) {
	img, err := imaging.Process(data, maxDim)
	switch {
	case errors.Is(err, imaging.ErrUnsupportedType):
		return nil, apperror.Validation("File must be a JPEG, PNG, GIF or WebP image")
	case errors.Is(err, imaging.ErrInvalidImage):
		return nil, apperror.Validation("File is not a valid image")
	case err != nil:
		return nil, apperror.Upstream("process image", err)
	}
	return img, nil
}
