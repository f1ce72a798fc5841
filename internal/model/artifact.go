package model

import "errors"

// Artifact is one generated gallery item.
type Artifact struct {
	ID        string `json:"id"`
	ImageURL  string `json:"image_url"`
	Prompt    string `json:"prompt"`
	LikeCount int    `json:"like_count"`
	Liked     bool   `json:"liked_by_current_user"`
}

// Prompt constraints for artifact generation.
const MaxPromptLength = 1000

// Artifact errors
var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrEmptyPrompt      = errors.New("prompt is empty")
	ErrPromptTooLong    = errors.New("prompt too long")
	ErrRateLimited      = errors.New("too many generation requests, slow down")
)
