package dto

import (
	"io"

	"anoa.com/moodquest/internal/entity"
	"anoa.com/moodquest/internal/modules/gamification/progression"
)

// UpdateProfileInput is bound from a multipart form or JSON. Nil fields are
// left unchanged.
type UpdateProfileInput struct {
	Username *string `json:"username" form:"username" binding:"omitempty,min=3,max=50"`
	Password *string `json:"password" form:"password" binding:"omitempty,min=8,max=72"`
}

// AvatarFile is an uploaded image awaiting storage.
type AvatarFile struct {
	Reader   io.Reader
	FileName string
}

// ProfileResponse is the current user with their progression snapshot.
type ProfileResponse struct {
	User   *entity.User       `json:"user"`
	Status progression.Status `json:"status"`
}
