package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/theirongolddev/subkill/internal/model"
)

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// GetUser fetches the profile for a host user id.
func (c *Client) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "user", fmt.Sprintf("/api/user/%d", userID), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetSubscriptions fetches every subscription of the user, cancelled ones included.
func (c *Client) GetSubscriptions(ctx context.Context, userID int64) ([]model.Subscription, error) {
	var resp model.SubscriptionsResponse
	if err := c.do(ctx, http.MethodGet, "subscriptions", fmt.Sprintf("/api/subscriptions/%d", userID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Subscriptions == nil {
		return []model.Subscription{}, nil
	}
	return resp.Subscriptions, nil
}

// GetAnalytics fetches the spend analytics snapshot.
func (c *Client) GetAnalytics(ctx context.Context, userID int64) (*model.Analytics, error) {
	var a model.Analytics
	if err := c.do(ctx, http.MethodGet, "analytics", fmt.Sprintf("/api/analytics/%d", userID), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetPopularSubscriptions fetches the quick-add catalog.
func (c *Client) GetPopularSubscriptions(ctx context.Context) (*model.PopularCatalog, error) {
	var p model.PopularCatalog
	if err := c.do(ctx, http.MethodGet, "popular", "/api/popular-subscriptions", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAchievements fetches earned and locked achievements.
func (c *Client) GetAchievements(ctx context.Context, userID int64) (*model.Achievements, error) {
	var a model.Achievements
	if err := c.do(ctx, http.MethodGet, "achievements", fmt.Sprintf("/api/achievements/%d", userID), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// FindAlternatives looks up cheaper replacements for a subscription name.
func (c *Client) FindAlternatives(ctx context.Context, name string) ([]model.Alternative, error) {
	var resp model.AlternativesResponse
	if err := c.do(ctx, http.MethodGet, "alternatives", "/api/alternatives/"+url.PathEscape(name), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Alternatives, nil
}

// AddSubscription creates a subscription.
func (c *Client) AddSubscription(ctx context.Context, userID int64, sub model.NewSubscription) (*model.CreateResult, error) {
	var res model.CreateResult
	if err := c.do(ctx, http.MethodPost, "add_subscription", fmt.Sprintf("/api/subscriptions/%d", userID), sub, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateSubscription applies a partial update. The acknowledgement body is ignored.
func (c *Client) UpdateSubscription(ctx context.Context, userID, subID int64, patch model.SubscriptionPatch) error {
	return c.do(ctx, http.MethodPut, "update_subscription", fmt.Sprintf("/api/subscriptions/%d/%d", userID, subID), patch, nil)
}

// DeleteSubscription cancels a subscription and reports the monthly saving.
func (c *Client) DeleteSubscription(ctx context.Context, userID, subID int64) (*model.CancelResult, error) {
	var res model.CancelResult
	if err := c.do(ctx, http.MethodDelete, "delete_subscription", fmt.Sprintf("/api/subscriptions/%d/%d", userID, subID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetLeaderboard fetches the global savings leaderboard.
func (c *Client) GetLeaderboard(ctx context.Context) (*model.Leaderboard, error) {
	var lb model.Leaderboard
	if err := c.do(ctx, http.MethodGet, "leaderboard", "/api/leaderboard", nil, &lb); err != nil {
		return nil, err
	}
	return &lb, nil
}

// Health probes the backend's health endpoint.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "health", "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
