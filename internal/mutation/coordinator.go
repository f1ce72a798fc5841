// Package mutation issues the side-effecting calls (like toggles, artifact
// generation) and reconciles feed state around them: optimistic apply,
// remote attempt, commit-by-refresh or rollback.
package mutation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lexai/koma/internal/api"
	"github.com/lexai/koma/internal/feed"
	"github.com/lexai/koma/internal/metrics"
	"github.com/lexai/koma/internal/model"
)

// Coordinator applies optimistic edits to the active feed and keeps them
// consistent with the content service.
type Coordinator struct {
	content  api.ContentAPI
	sessions feed.SessionSource
	feeds    *feed.Controller
	limiter  *rate.Limiter
	metrics  *metrics.Collector
	logger   zerolog.Logger
}

func NewCoordinator(
	content api.ContentAPI,
	sessions feed.SessionSource,
	feeds *feed.Controller,
	generatePerMin int,
	collector *metrics.Collector,
	logger zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		content:  content,
		sessions: sessions,
		feeds:    feeds,
		limiter:  rate.NewLimiter(rate.Limit(float64(generatePerMin)/60.0), generatePerMin),
		metrics:  collector,
		logger:   logger.With().Str("component", "mutation").Logger(),
	}
}

// ToggleLike flips the like state of an artifact in the active tab. The
// local edit is provisional: on remote success the active tab is refreshed
// so server-confirmed counts win; on remote failure the edit is reverted
// and no refresh happens.
func (c *Coordinator) ToggleLike(ctx context.Context, artifactID string) error {
	if !c.sessions.IsAuthenticated() {
		return model.ErrLoginRequired
	}

	rollback, ok := c.feeds.MutateActive(artifactID, func(a *model.Artifact) {
		if a.Liked {
			a.Liked = false
			if a.LikeCount > 0 {
				a.LikeCount--
			}
		} else {
			a.Liked = true
			a.LikeCount++
		}
	})
	if !ok {
		return model.ErrArtifactNotFound
	}

	if err := c.content.ToggleLike(ctx, c.sessions.Token(), artifactID); err != nil {
		rollback()
		c.metrics.RecordRollback()
		c.logger.Warn().Str("artifact", artifactID).Err(err).Msg("like toggle failed, rolled back")
		return fmt.Errorf("toggle like: %w", err)
	}

	// Reconcile with server-confirmed counts.
	return c.feeds.Refresh(ctx)
}

// Generate requests a new artifact from the content service. The prompt
// must be non-empty after trimming and the session authenticated; neither
// failure issues a network call. When the library tab is active it is
// refreshed so the new artifact becomes visible.
func (c *Coordinator) Generate(ctx context.Context, prompt string) error {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return model.ErrEmptyPrompt
	}
	if len(trimmed) > model.MaxPromptLength {
		return model.ErrPromptTooLong
	}
	if !c.sessions.IsAuthenticated() {
		return model.ErrLoginRequired
	}
	if !c.limiter.Allow() {
		c.metrics.RecordGenerate("throttled")
		return model.ErrRateLimited
	}

	if err := c.content.Generate(ctx, c.sessions.Token(), trimmed); err != nil {
		c.metrics.RecordGenerate("fail")
		return fmt.Errorf("generate: %w", err)
	}
	c.metrics.RecordGenerate("ok")
	c.logger.Info().Int("prompt_len", len(trimmed)).Msg("generation requested")

	if c.feeds.ActiveTab() == model.TabLibrary {
		return c.feeds.Refresh(ctx)
	}
	return nil
}
