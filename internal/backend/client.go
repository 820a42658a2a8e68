// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/grouphub/internal/config"
	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/metrics"
	"github.com/tomtom215/grouphub/internal/models"
)

// maxErrorBodySize caps how much of an error reply is kept.
const maxErrorBodySize = 64 * 1024

// maxResponseSize caps a decoded action reply.
const maxResponseSize = 16 << 20

// HTTPClient calls the hosted backend's server actions over HTTP.
// Every action is POST {base}/actions/{name} with a JSON body; the reply
// body is the action result.
//
// Calls are rate limited and guarded by a circuit breaker.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
}

// NewHTTPClient creates a client for the backend at cfg.URL.
func NewHTTPClient(cfg config.BackendConfig) *HTTPClient {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		cb:      newBreaker("backend-actions", cfg.CircuitBreaker),
	}
}

// BreakerState reports the breaker state for health checks.
func (c *HTTPClient) BreakerState() string {
	return c.cb.State().String()
}

func (c *HTTPClient) call(ctx context.Context, action string, payload, out interface{}) error {
	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, action, payload)
	})
	metrics.RecordBackendCall(action, time.Since(start), err)
	if err != nil {
		err = breakerErr(err)
		logging.Ctx(ctx).Debug().Err(err).Str("action", action).Msg("Backend action failed")
		return fmt.Errorf("%s: %w", action, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode reply: %w", action, err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, action string, payload interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/actions/"+action, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &TransportError{Action: action, StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	return body, nil
}

type groupRequest struct {
	GroupID string `json:"groupId"`
}

type settingsRequest struct {
	GroupID string          `json:"groupId"`
	Type    models.FieldTag `json:"type"`
	Content string          `json:"content"`
	Path    string          `json:"path"`
}

type galleryRequest struct {
	GroupID string       `json:"groupId"`
	Media   models.Media `json:"media"`
}

type removeGalleryRequest struct {
	GroupID string `json:"groupId"`
	MediaID string `json:"mediaId"`
}

type searchRequest struct {
	Mode  models.SearchKind `json:"mode"`
	Query string            `json:"query"`
}

type exploreRequest struct {
	Query    string `json:"query"`
	Paginate int    `json:"paginate"`
}

type messagesRequest struct {
	UserID     string `json:"userId"`
	ReceiverID string `json:"recieverId"`
}

type sendMessageRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"recieverId"`
	MessageID  string `json:"messageId"`
	Message    string `json:"message"`
}

type domainRequest struct {
	GroupID string `json:"groupId"`
	Domain  string `json:"domain"`
}

func (c *HTTPClient) GetGroupInfo(ctx context.Context, groupID string) (models.GroupInfoResult, error) {
	var out models.GroupInfoResult
	err := c.call(ctx, ActionGetGroupInfo, groupRequest{GroupID: groupID}, &out)
	return out, err
}

func (c *HTTPClient) UpdateGroupSettings(ctx context.Context, groupID string, field models.FieldTag, value, redirectPath string) (models.StatusResult, error) {
	var out models.StatusResult
	err := c.call(ctx, ActionUpdateGroupSettings, settingsRequest{GroupID: groupID, Type: field, Content: value, Path: redirectPath}, &out)
	return out, err
}

func (c *HTTPClient) UpdateGroupGallery(ctx context.Context, groupID string, media models.Media) (models.StatusResult, error) {
	var out models.StatusResult
	err := c.call(ctx, ActionUpdateGroupGallery, galleryRequest{GroupID: groupID, Media: media}, &out)
	return out, err
}

func (c *HTTPClient) RemoveGroupGallery(ctx context.Context, groupID, mediaID string) (models.StatusResult, error) {
	var out models.StatusResult
	err := c.call(ctx, ActionRemoveGroupGallery, removeGalleryRequest{GroupID: groupID, MediaID: mediaID}, &out)
	return out, err
}

func (c *HTTPClient) SearchGroups(ctx context.Context, kind models.SearchKind, term string) (models.GroupsResult, error) {
	var out models.GroupsResult
	err := c.call(ctx, ActionSearchGroups, searchRequest{Mode: kind, Query: term}, &out)
	return out, err
}

func (c *HTTPClient) GetExploreGroup(ctx context.Context, term string, page int) (models.GroupsResult, error) {
	var out models.GroupsResult
	err := c.call(ctx, ActionGetExploreGroup, exploreRequest{Query: term, Paginate: page}, &out)
	return out, err
}

func (c *HTTPClient) GetAllGroupMembers(ctx context.Context, groupID string) (models.MembersResult, error) {
	var out models.MembersResult
	err := c.call(ctx, ActionGetAllGroupMembers, groupRequest{GroupID: groupID}, &out)
	return out, err
}

func (c *HTTPClient) GetAllUserMessages(ctx context.Context, userID, receiverID string) (models.MessagesResult, error) {
	var out models.MessagesResult
	err := c.call(ctx, ActionGetAllUserMessages, messagesRequest{UserID: userID, ReceiverID: receiverID}, &out)
	return out, err
}

func (c *HTTPClient) SendMessage(ctx context.Context, senderID, receiverID, messageID, body string) (models.StatusResult, error) {
	var out models.StatusResult
	err := c.call(ctx, ActionSendMessage, sendMessageRequest{SenderID: senderID, ReceiverID: receiverID, MessageID: messageID, Message: body}, &out)
	return out, err
}

func (c *HTTPClient) GetDomainConfig(ctx context.Context, groupID string) (models.DomainConfigResult, error) {
	var out models.DomainConfigResult
	err := c.call(ctx, ActionGetDomainConfig, groupRequest{GroupID: groupID}, &out)
	return out, err
}

func (c *HTTPClient) AddCustomDomain(ctx context.Context, groupID, domain string) (models.StatusResult, error) {
	var out models.StatusResult
	err := c.call(ctx, ActionAddCustomDomain, domainRequest{GroupID: groupID, Domain: domain}, &out)
	return out, err
}

var _ Actions = (*HTTPClient)(nil)
