package entity

import "time"

type UserProfile struct {
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"displayName"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`

	AvatarKey string `json:"-"`
}

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

type UserSettings struct {
	Theme              Theme `json:"theme"`
	EmailNotifications bool  `json:"emailNotifications"`
}

func DefaultSettings() UserSettings {
	return UserSettings{Theme: ThemeDark, EmailNotifications: true}
}

type SettingsPatch struct {
	Theme              *Theme `json:"theme,omitempty"`
	EmailNotifications *bool  `json:"emailNotifications,omitempty"`
}

type ProfilePatch struct {
	Bio         *string        `json:"bio,omitempty"`
	DisplayName *string        `json:"displayName,omitempty"`
	Settings    *SettingsPatch `json:"settings,omitempty"`
}

// ProfileView is a profile as seen by a particular viewer. Settings are
// only filled for the owner.
type ProfileView struct {
	Profile     *UserProfile  `json:"profile"`
	Settings    *UserSettings `json:"settings"`
	Following   int64         `json:"following"`
	Followers   int64         `json:"followers"`
	IsFollowing bool          `json:"isFollowing"`
}

type Author struct {
	Username       string `json:"username"`
	DisplayName    string `json:"displayName"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

func AuthorOf(p *UserProfile) *Author {
	return &Author{Username: p.Username, DisplayName: p.DisplayName, ProfilePicture: p.ProfilePicture}
}

// UserStat is one row of the leaderboard, the signup list or the top
// accounts block.
type UserStat struct {
	Username       string     `json:"username"`
	DisplayName    string     `json:"displayName"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	FollowerCount  int64      `json:"followerCount"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

type SiteStats struct {
	TotalUsers          int64      `json:"totalUsers"`
	TotalPosts          int64      `json:"totalPosts"`
	TopFollowedAccounts []UserStat `json:"topFollowedAccounts"`
}
