package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/erazemk/scannerlog/internal/model"
)

// ListNotifications returns the caller's notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context, token string, filter model.NotificationFilter) ([]model.Notification, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := url.Values{}
	query.Set("skip", strconv.Itoa(max(filter.Skip, 0)))
	query.Set("limit", strconv.Itoa(limit))
	if filter.UnreadOnly {
		query.Set("unread_only", "true")
	}

	resp, err := c.doRequest(ctx, OpListNotifications, http.MethodGet, "/notifications", token, nil, query)
	if err != nil {
		return nil, err
	}

	var notifications []model.Notification
	if err := decode(OpListNotifications, resp, &notifications); err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	return notifications, nil
}

// MarkNotificationRead marks one notification read and returns it.
func (c *Client) MarkNotificationRead(ctx context.Context, token string, id uuid.UUID) (*model.Notification, error) {
	path := "/notifications/" + id.String() + "/read"
	resp, err := c.doRequest(ctx, OpMarkNotificationRead, http.MethodPut, path, token, nil, nil)
	if err != nil {
		return nil, err
	}

	var n model.Notification
	if err := decode(OpMarkNotificationRead, resp, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkAllNotificationsRead marks every notification of the caller read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, token string) error {
	_, err := c.doRequest(ctx, OpMarkAllNotificationsRead, http.MethodPut, "/notifications/read-all", token, nil, nil)
	return err
}
