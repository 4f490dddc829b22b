package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPublicID(t *testing.T) {
	cases := map[string]string{
		"https://res.cloudinary.com/demo/image/upload/v123456/moodquest/avatars/u1/171.webp": "moodquest/avatars/u1/171",
		"https://res.cloudinary.com/demo/image/upload/moodquest/avatars/u1/171.webp":         "moodquest/avatars/u1/171",
		"https://res.cloudinary.com/demo/image/upload/videos/clip.mp4":                       "videos/clip",
		"https://example.com/no-upload-segment/file.png":                                     "",
		"https://res.cloudinary.com/demo/image/upload/":                                      "",
	}

	for in, want := range cases {
		assert.Equal(t, want, extractPublicID(in), in)
	}
}

func TestNewCloudinaryStorage_NotConfigured(t *testing.T) {
	s, err := NewCloudinaryStorage(CloudinaryConfig{CloudName: "demo"})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, s)
}
