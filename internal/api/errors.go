package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrRequestFailed matches every *RequestError via errors.Is.
var ErrRequestFailed = errors.New("api: request failed")

// ErrResponseTooLarge is returned when a response body exceeds the
// client's size limit. The partial body is discarded.
var ErrResponseTooLarge = errors.New("api: response body too large")

// ErrInvalidFormat is returned for an export format other than csv or json.
var ErrInvalidFormat = errors.New("api: invalid export format")

// Operation names, used in errors and logs.
const (
	OpLogin                    = "login"
	OpRegister                 = "register"
	OpCurrentUser              = "current user"
	OpListItems                = "list items"
	OpGetItem                  = "get item"
	OpCreateItem               = "create item"
	OpUpdateItem               = "update item"
	OpDeleteItem               = "delete item"
	OpExportItems              = "export items"
	OpListNotifications        = "list notifications"
	OpMarkNotificationRead     = "mark notification read"
	OpMarkAllNotificationsRead = "mark all notifications read"
)

// failureMessages are shown when the server gives no detail.
var failureMessages = map[string]string{
	OpLogin:                    "Failed to login",
	OpRegister:                 "Failed to register",
	OpCurrentUser:              "Failed to get current user",
	OpListItems:                "Failed to get items",
	OpGetItem:                  "Failed to get item",
	OpCreateItem:               "Failed to create item",
	OpUpdateItem:               "Failed to update item",
	OpDeleteItem:               "Failed to delete item",
	OpExportItems:              "Failed to export items",
	OpListNotifications:        "Failed to get notifications",
	OpMarkNotificationRead:     "Failed to mark notification as read",
	OpMarkAllNotificationsRead: "Failed to mark all notifications as read",
}

// RequestError is a non-success response from the API.
type RequestError struct {
	// Op is the operation that failed, e.g. "list items".
	Op string
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// Message is the server's detail, or a generic message for Op.
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("api: %s: %s (status %d)", e.Op, e.Message, e.StatusCode)
}

// Is makes every RequestError match ErrRequestFailed.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusUnauthorized
}

// Message returns the user-facing text for err: the server's detail for a
// RequestError, otherwise fallback.
func Message(err error, fallback string) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	return fallback
}

func newRequestError(op string, status int, body []byte) *RequestError {
	msg := parseDetail(body)
	if msg == "" {
		msg = failureMessages[op]
	}
	return &RequestError{Op: op, StatusCode: status, Message: msg}
}

// parseDetail extracts the "detail" member of an error body. Validation
// errors carry a list of objects with a "msg" member instead of a string.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, m := range list {
			if m.Msg != "" {
				msgs = append(msgs, m.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
