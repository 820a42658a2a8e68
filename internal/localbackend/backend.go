// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package localbackend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/grouphub/internal/backend"
	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/validation"
)

// ExplorePageSize is the number of groups per explore page.
const ExplorePageSize = 12

// cnameTarget is the host custom domains must point at.
const cnameTarget = "cname.grouphub.app"

// ChangePublisher receives row changes of the messages table.
type ChangePublisher interface {
	PublishChange(ctx context.Context, ev models.ChangeEvent) error
}

// Backend implements backend.Actions on a local SQLite database.
type Backend struct {
	db      *sql.DB
	changes ChangePublisher
	now     func() time.Time
}

// New creates a Backend. changes may be nil, in which case message writes
// are not broadcast.
func New(db *sql.DB, changes ChangePublisher) *Backend {
	return &Backend{
		db:      db,
		changes: changes,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func status(code int, msg string) models.StatusResult {
	return models.StatusResult{Status: code, Message: msg}
}

func (b *Backend) GetGroupInfo(ctx context.Context, groupID string) (models.GroupInfoResult, error) {
	var g models.Group
	var jsonDesc string
	err := b.db.QueryRowContext(ctx, `
		SELECT id, name, category, privacy, description, json_description,
		       html_description, icon, thumbnail, user_id, created_at
		FROM tenant_groups WHERE id = ?`, groupID).Scan(
		&g.ID, &g.Name, &g.Category, &g.Privacy, &g.Description, &jsonDesc,
		&g.HTMLDescription, &g.Icon, &g.Thumbnail, &g.UserID, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GroupInfoResult{Status: http.StatusNotFound}, nil
	}
	if err != nil {
		return models.GroupInfoResult{}, fmt.Errorf("query group: %w", err)
	}
	if jsonDesc != "" {
		g.JSONDescription = json.RawMessage(jsonDesc)
	}

	gallery, err := b.gallery(ctx, groupID)
	if err != nil {
		return models.GroupInfoResult{}, err
	}
	g.Gallery = gallery

	return models.GroupInfoResult{Status: http.StatusOK, Group: &g}, nil
}

func (b *Backend) gallery(ctx context.Context, groupID string) ([]models.Media, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT id, kind, ref, url FROM gallery
		WHERE group_id = ? ORDER BY position`, groupID)
	if err != nil {
		return nil, fmt.Errorf("query gallery: %w", err)
	}
	defer rows.Close()

	out := []models.Media{}
	for rows.Next() {
		var m models.Media
		var kind string
		if err := rows.Scan(&m.ID, &kind, &m.Ref, &m.URL); err != nil {
			return nil, fmt.Errorf("scan gallery: %w", err)
		}
		m.Kind = models.MediaKind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}

// settingsColumns maps a field tag to the column it updates.
var settingsColumns = map[models.FieldTag]string{
	models.FieldName:            "name",
	models.FieldDescription:     "description",
	models.FieldJSONDescription: "json_description",
	models.FieldHTMLDescription: "html_description",
	models.FieldIcon:            "icon",
	models.FieldImage:           "thumbnail",
}

func (b *Backend) UpdateGroupSettings(ctx context.Context, groupID string, field models.FieldTag, value, redirectPath string) (models.StatusResult, error) {
	column, ok := settingsColumns[field]
	if !ok {
		return status(http.StatusBadRequest, fmt.Sprintf("unknown field %q", field)), nil
	}
	if field == models.FieldJSONDescription && !json.Valid([]byte(value)) {
		return status(http.StatusBadRequest, "jsondescription must be a JSON document"), nil
	}
	if field == models.FieldName && strings.TrimSpace(value) == "" {
		return status(http.StatusBadRequest, "name cannot be empty"), nil
	}

	// column comes from the fixed map above.
	res, err := b.db.ExecContext(ctx, "UPDATE tenant_groups SET "+column+" = ? WHERE id = ?", value, groupID)
	if err != nil {
		return models.StatusResult{}, fmt.Errorf("update %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return status(http.StatusNotFound, "group not found"), nil
	}

	logging.Ctx(ctx).Debug().Str("group_id", groupID).Str("field", string(field)).Str("path", redirectPath).Msg("Group setting updated")
	return status(http.StatusOK, "Group updated"), nil
}

func (b *Backend) UpdateGroupGallery(ctx context.Context, groupID string, media models.Media) (models.StatusResult, error) {
	if err := media.Validate(); err != nil {
		return status(http.StatusBadRequest, err.Error()), nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return models.StatusResult{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM tenant_groups WHERE id = ?", groupID).Scan(&exists); err != nil {
		return models.StatusResult{}, fmt.Errorf("check group: %w", err)
	}
	if exists == 0 {
		return status(http.StatusNotFound, "group not found"), nil
	}

	var next int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), -1) + 1 FROM gallery WHERE group_id = ?", groupID).Scan(&next); err != nil {
		return models.StatusResult{}, fmt.Errorf("next position: %w", err)
	}

	id := media.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO gallery (id, group_id, kind, ref, url, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, groupID, string(media.Kind), media.Ref, media.URL, next, b.now()); err != nil {
		return models.StatusResult{}, fmt.Errorf("insert gallery: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.StatusResult{}, fmt.Errorf("commit: %w", err)
	}
	return status(http.StatusOK, "Gallery updated"), nil
}

func (b *Backend) RemoveGroupGallery(ctx context.Context, groupID, mediaID string) (models.StatusResult, error) {
	res, err := b.db.ExecContext(ctx, "DELETE FROM gallery WHERE id = ? AND group_id = ?", mediaID, groupID)
	if err != nil {
		return models.StatusResult{}, fmt.Errorf("delete gallery: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return status(http.StatusNotFound, "media not found"), nil
	}
	return status(http.StatusOK, "Media removed"), nil
}

func (b *Backend) SearchGroups(ctx context.Context, kind models.SearchKind, term string) (models.GroupsResult, error) {
	switch kind {
	case models.SearchKindGroups:
	case models.SearchKindPosts:
		// Standalone deployments carry no posts.
		return models.GroupsResult{Status: http.StatusOK, Groups: []models.GroupSummary{}}, nil
	default:
		return models.GroupsResult{Status: http.StatusBadRequest}, nil
	}

	groups, err := b.summaries(ctx, `
		SELECT id, name, category, description, thumbnail, privacy
		FROM tenant_groups WHERE name LIKE ? ESCAPE '\'
		ORDER BY name LIMIT 50`, likePattern(term))
	if err != nil {
		return models.GroupsResult{}, err
	}
	return models.GroupsResult{Status: http.StatusOK, Groups: groups}, nil
}

func (b *Backend) GetExploreGroup(ctx context.Context, term string, page int) (models.GroupsResult, error) {
	if page < 0 {
		return models.GroupsResult{Status: http.StatusBadRequest}, nil
	}
	groups, err := b.summaries(ctx, `
		SELECT id, name, category, description, thumbnail, privacy
		FROM tenant_groups
		WHERE (? = '' OR category = ? OR name LIKE ? ESCAPE '\')
		ORDER BY created_at, id LIMIT ? OFFSET ?`,
		term, term, likePattern(term), ExplorePageSize, page*ExplorePageSize)
	if err != nil {
		return models.GroupsResult{}, err
	}
	return models.GroupsResult{Status: http.StatusOK, Groups: groups}, nil
}

func (b *Backend) summaries(ctx context.Context, query string, args ...interface{}) ([]models.GroupSummary, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	out := []models.GroupSummary{}
	for rows.Next() {
		var g models.GroupSummary
		if err := rows.Scan(&g.ID, &g.Name, &g.Category, &g.Description, &g.Thumbnail, &g.Privacy); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

func (b *Backend) GetAllGroupMembers(ctx context.Context, groupID string) (models.MembersResult, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT user_id, group_id, first_name, last_name, image, joined_at
		FROM members WHERE group_id = ? ORDER BY joined_at, user_id`, groupID)
	if err != nil {
		return models.MembersResult{}, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	out := []models.GroupMember{}
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.UserID, &m.GroupID, &m.FirstName, &m.LastName, &m.Image, &m.JoinedAt); err != nil {
			return models.MembersResult{}, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return models.MembersResult{}, err
	}
	return models.MembersResult{Status: http.StatusOK, Members: out}, nil
}

func (b *Backend) GetAllUserMessages(ctx context.Context, userID, receiverID string) (models.MessagesResult, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT id, message, sender_id, receiver_id, created_at FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at, id`, userID, receiverID, receiverID, userID)
	if err != nil {
		return models.MessagesResult{}, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	out := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Message, &m.SenderID, &m.ReceiverID, &m.CreatedAt); err != nil {
			return models.MessagesResult{}, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return models.MessagesResult{}, err
	}
	return models.MessagesResult{Status: http.StatusOK, Messages: out}, nil
}

func (b *Backend) SendMessage(ctx context.Context, senderID, receiverID, messageID, body string) (models.StatusResult, error) {
	if strings.TrimSpace(body) == "" {
		return status(http.StatusBadRequest, "message is empty"), nil
	}
	if messageID == "" {
		messageID = uuid.NewString()
	}

	msg := models.Message{
		ID:         messageID,
		Message:    body,
		SenderID:   senderID,
		ReceiverID: receiverID,
		CreatedAt:  b.now(),
	}
	res, err := b.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages (id, message, sender_id, receiver_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.Message, msg.SenderID, msg.ReceiverID, msg.CreatedAt)
	if err != nil {
		return models.StatusResult{}, fmt.Errorf("insert message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Retried send with the same id: already stored and broadcast.
		return status(http.StatusOK, "Message already sent"), nil
	}

	b.publish(ctx, models.ChangeEvent{EventType: models.ChangeInsert, New: msg})
	return status(http.StatusOK, "Message sent"), nil
}

// DeleteMessage removes a message sent by senderID and broadcasts the delete.
func (b *Backend) DeleteMessage(ctx context.Context, senderID, messageID string) (models.StatusResult, error) {
	var msg models.Message
	err := b.db.QueryRowContext(ctx, `
		SELECT id, message, sender_id, receiver_id, created_at FROM messages
		WHERE id = ? AND sender_id = ?`, messageID, senderID).Scan(
		&msg.ID, &msg.Message, &msg.SenderID, &msg.ReceiverID, &msg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return status(http.StatusNotFound, "message not found"), nil
	}
	if err != nil {
		return models.StatusResult{}, fmt.Errorf("query message: %w", err)
	}

	if _, err := b.db.ExecContext(ctx, "DELETE FROM messages WHERE id = ?", messageID); err != nil {
		return models.StatusResult{}, fmt.Errorf("delete message: %w", err)
	}
	b.publish(ctx, models.ChangeEvent{EventType: models.ChangeDelete, Old: msg})
	return status(http.StatusOK, "Message deleted"), nil
}

func (b *Backend) publish(ctx context.Context, ev models.ChangeEvent) {
	if b.changes == nil {
		return
	}
	ev.Schema = "public"
	ev.Table = models.MessagesTable
	ev.CommitTimestamp = b.now()
	if err := b.changes.PublishChange(ctx, ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event", string(ev.EventType)).Str("message_id", ev.Row().ID).Msg("Failed to publish message change")
	}
}

func (b *Backend) GetDomainConfig(ctx context.Context, groupID string) (models.DomainConfigResult, error) {
	cfg := models.DomainConfig{GroupID: groupID, Status: models.DomainStatusNone}
	var statusText, token string
	err := b.db.QueryRowContext(ctx, "SELECT domain, status, verify_token FROM domains WHERE group_id = ?", groupID).Scan(&cfg.Domain, &statusText, &token)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DomainConfigResult{Status: http.StatusOK, Config: &cfg}, nil
	}
	if err != nil {
		return models.DomainConfigResult{}, fmt.Errorf("query domain: %w", err)
	}
	cfg.Status = models.DomainStatus(statusText)
	cfg.Records = domainRecords(cfg.Domain, token)
	return models.DomainConfigResult{Status: http.StatusOK, Config: &cfg}, nil
}

func domainRecords(domain, token string) []models.DNSRecord {
	return []models.DNSRecord{
		{Type: "CNAME", Name: domain, Value: cnameTarget},
		{Type: "TXT", Name: "_grouphub." + domain, Value: "grouphub-verify=" + token},
	}
}

func (b *Backend) AddCustomDomain(ctx context.Context, groupID, domain string) (models.StatusResult, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if verr := validation.ValidateVar("domain", domain, "required,fqdn"); verr != nil {
		return status(http.StatusBadRequest, verr.Error()), nil
	}

	var owner string
	err := b.db.QueryRowContext(ctx, "SELECT group_id FROM domains WHERE domain = ?", domain).Scan(&owner)
	switch {
	case err == nil && owner != groupID:
		return status(http.StatusConflict, "domain is already in use"), nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return models.StatusResult{}, fmt.Errorf("check domain: %w", err)
	}

	res, err := b.db.ExecContext(ctx, `
		INSERT INTO domains (group_id, domain, status, verify_token, created_at)
		SELECT id, ?, ?, ?, ? FROM tenant_groups WHERE id = ?
		ON CONFLICT(group_id) DO UPDATE SET domain = excluded.domain,
			status = excluded.status, verify_token = excluded.verify_token`,
		domain, string(models.DomainStatusPending), uuid.NewString(), b.now(), groupID)
	if err != nil {
		return models.StatusResult{}, fmt.Errorf("upsert domain: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return status(http.StatusNotFound, "group not found"), nil
	}
	return status(http.StatusOK, "Domain successfully added"), nil
}

var _ backend.Actions = (*Backend)(nil)
