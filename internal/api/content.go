package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lexai/koma/internal/model"
)

// ContentAPI is the contract the feed and mutation layers depend on.
type ContentAPI interface {
	ExploreFeed(ctx context.Context) ([]model.Artifact, error)
	TopFeed(ctx context.Context) ([]model.Artifact, error)
	LikedFeed(ctx context.Context, token string) ([]model.Artifact, error)
	LibraryFeed(ctx context.Context, token string) ([]model.Artifact, error)
	ToggleLike(ctx context.Context, token, artifactID string) error
	Generate(ctx context.Context, token, prompt string) error
}

// ContentClient talks to the external content-generation service.
type ContentClient struct {
	*Client
}

func NewContentClient(client *Client) *ContentClient {
	return &ContentClient{Client: client}
}

type feedResponse struct {
	Artifacts []model.Artifact `json:"artifacts"`
}

func (c *ContentClient) ExploreFeed(ctx context.Context) ([]model.Artifact, error) {
	return c.feed(ctx, "/comics/explore", "")
}

func (c *ContentClient) TopFeed(ctx context.Context) ([]model.Artifact, error) {
	return c.feed(ctx, "/comics/top", "")
}

func (c *ContentClient) LikedFeed(ctx context.Context, token string) ([]model.Artifact, error) {
	return c.feed(ctx, "/comics/liked", token)
}

func (c *ContentClient) LibraryFeed(ctx context.Context, token string) ([]model.Artifact, error) {
	return c.feed(ctx, "/comics/library", token)
}

// feed fetches one of the four queries. Order is preserved as returned by
// the service; there is no client-side resort.
func (c *ContentClient) feed(ctx context.Context, path, token string) ([]model.Artifact, error) {
	var result feedResponse
	if err := c.do(ctx, http.MethodGet, path, token, nil, &result); err != nil {
		return nil, err
	}
	if result.Artifacts == nil {
		return []model.Artifact{}, nil
	}
	return result.Artifacts, nil
}

func (c *ContentClient) ToggleLike(ctx context.Context, token, artifactID string) error {
	path := fmt.Sprintf("/comics/%s/like", url.PathEscape(artifactID))
	return c.do(ctx, http.MethodPost, path, token, nil, nil)
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

func (c *ContentClient) Generate(ctx context.Context, token, prompt string) error {
	return c.do(ctx, http.MethodPost, "/comics/generate", token, generateRequest{Prompt: prompt}, nil)
}
