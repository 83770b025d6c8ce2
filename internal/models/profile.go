package models

import (
	"encoding/json"

	"github.com/julianstephens/strive/internal/constants"
)

// UserProfile is the singleton profile created at signup
type UserProfile struct {
	Name        string `json:"name"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	AvatarEmoji string `json:"avatarEmoji"`
	CreatedAt   int64  `json:"createdAt"`
}

// Genders offered by the signup form
var Genders = []string{"Male", "Female", "Other", "PreferNotToSay"}

func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type profileAlias UserProfile
	a := profileAlias{AvatarEmoji: constants.DefaultAvatarEmoji}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = UserProfile(a)
	return nil
}
