package api

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/scannerlog/internal/apitest"
	"github.com/erazemk/scannerlog/internal/model"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{BaseURL: baseURL})
	require.NoError(t, err)
	return c
}

func setup(t *testing.T) (*apitest.Server, *Client, string) {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser("alice", "alice@example.com", "password1")
	return srv, newTestClient(t, srv.URL), srv.Token("alice")
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.Error(t, err)

	_, err = NewClient(ClientConfig{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := NewClient(ClientConfig{BaseURL: "http://localhost:8000/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
}

func TestLogin(t *testing.T) {
	srv, c, _ := setup(t)
	ctx := context.Background()

	token, err := c.Login(ctx, "alice", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)

	user, err := c.CurrentUser(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = c.Login(ctx, "alice", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequestFailed))
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Incorrect username or password", Message(err, ""))
	assert.Equal(t, 2, srv.Requests("POST /token"))
}

func TestLoginSendsForm(t *testing.T) {
	var contentType, username string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		username = r.FormValue("username")
		w.Write([]byte(`{"access_token":"opaque","token_type":"bearer"}`))
	}))
	defer ts.Close()

	token, err := newTestClient(t, ts.URL).Login(context.Background(), "bob", "secret")
	require.NoError(t, err)
	assert.Equal(t, "opaque", token.AccessToken)
	assert.Equal(t, "application/x-www-form-urlencoded", contentType)
	assert.Equal(t, "bob", username)
}

func TestRegister(t *testing.T) {
	_, c, _ := setup(t)
	ctx := context.Background()

	user, err := c.Register(ctx, model.UserCreate{Email: "bob@example.com", Username: "bob", Password: "password2"})
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
	assert.True(t, user.IsActive)

	_, err = c.Register(ctx, model.UserCreate{Email: "bob@example.com", Username: "bob", Password: "password2"})
	require.Error(t, err)
	assert.Equal(t, "Username or email already registered", Message(err, ""))

	_, err = c.Register(ctx, model.UserCreate{Email: "nope", Username: "carol", Password: "short"})
	require.Error(t, err)
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusUnprocessableEntity, reqErr.StatusCode)
	assert.Contains(t, reqErr.Message, "valid email")
	assert.Contains(t, reqErr.Message, "at least 8 characters")
}

func TestGenericFailureMessage(t *testing.T) {
	srv, c, token := setup(t)
	srv.Fail("GET /items", http.StatusInternalServerError, "")

	_, err := c.ListItems(context.Background(), token, model.ItemFilter{})
	require.Error(t, err)
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, OpListItems, reqErr.Op)
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Equal(t, "Failed to get items", reqErr.Message)
}

func TestNonJSONErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL).GetItem(context.Background(), "t", uuid.New())
	require.Error(t, err)
	assert.Equal(t, "Failed to get item", Message(err, ""))
}

func TestTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := newTestClient(t, url).CurrentUser(context.Background(), "t")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRequestFailed))
	assert.Equal(t, "fallback", Message(err, "fallback"))
}

func TestItemsLifecycle(t *testing.T) {
	srv, c, token := setup(t)
	ctx := context.Background()

	created, err := c.CreateItem(ctx, token, model.ItemCreate{
		Name:     "Widget",
		SKU:      "W-1",
		Quantity: 3,
		Category: model.StringPtr("Parts"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultMinQuantity, created.MinQuantity)
	assert.Equal(t, model.ItemStatusLowStock, created.Status())

	got, err := c.GetItem(ctx, token, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)

	qty := 50
	updated, err := c.UpdateItem(ctx, token, created.ID, model.ItemUpdate{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 50, updated.Quantity)
	assert.Equal(t, "W-1", updated.SKU)
	assert.Equal(t, model.ItemStatusInStock, updated.Status())

	require.NoError(t, c.DeleteItem(ctx, token, created.ID))
	assert.Empty(t, srv.Items())

	_, err = c.GetItem(ctx, token, created.ID)
	require.Error(t, err)
	assert.Equal(t, "Item not found", Message(err, ""))

	err = c.DeleteItem(ctx, token, created.ID)
	require.Error(t, err)
}

func TestListItemsQuery(t *testing.T) {
	var query string
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	minQty := 2
	items, err := newTestClient(t, ts.URL).ListItems(context.Background(), "tok", model.ItemFilter{
		Skip:        20,
		Limit:       10,
		Search:      "widget",
		Category:    "Parts",
		Location:    "A1",
		MinQuantity: &minQty,
	})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "category=Parts&limit=10&location=A1&min_quantity=2&search=widget&skip=20", query)
}

func TestListItemsDefaults(t *testing.T) {
	var query string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`null`))
	}))
	defer ts.Close()

	items, err := newTestClient(t, ts.URL).ListItems(context.Background(), "tok", model.ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, []model.Item{}, items)
	assert.Equal(t, "limit=100&skip=0", query)
}

func TestListItemsFilters(t *testing.T) {
	srv, c, token := setup(t)
	ctx := context.Background()
	srv.AddItem("alice", model.ItemCreate{Name: "Bolt", SKU: "B-1", Quantity: 100, Location: model.StringPtr("A1")})
	srv.AddItem("alice", model.ItemCreate{Name: "Nut", SKU: "N-1", Quantity: 5, Location: model.StringPtr("B2")})
	srv.AddItem("alice", model.ItemCreate{Name: "Washer", SKU: "W-9", Quantity: 40, Description: model.StringPtr("steel bolt washer")})

	items, err := c.ListItems(ctx, token, model.ItemFilter{Search: "bolt"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Bolt", items[0].Name)
	assert.Equal(t, "Washer", items[1].Name)

	items, err = c.ListItems(ctx, token, model.ItemFilter{Location: "B2"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Nut", items[0].Name)

	items, err = c.ListItems(ctx, token, model.ItemFilter{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Nut", items[0].Name)
}

func TestExportItems(t *testing.T) {
	srv, c, token := setup(t)
	ctx := context.Background()
	srv.AddItem("alice", model.ItemCreate{Name: "Widget", SKU: "W-1", Quantity: 12})

	export, err := c.ExportItems(ctx, token, model.ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "items.csv", export.Filename)
	assert.True(t, strings.HasPrefix(export.ContentType, "text/csv"))

	records, err := csv.NewReader(strings.NewReader(string(export.Data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Name", records[0][1])
	assert.Equal(t, "Widget", records[1][1])

	export, err = c.ExportItems(ctx, token, model.ExportJSON)
	require.NoError(t, err)
	assert.Equal(t, "items.json", export.Filename)
	assert.Contains(t, string(export.Data), `"sku":"W-1"`)

	before := srv.Requests("GET /items/export")
	_, err = c.ExportItems(ctx, token, "xml")
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Equal(t, before, srv.Requests("GET /items/export"))
}

func TestNotifications(t *testing.T) {
	srv, c, token := setup(t)
	ctx := context.Background()
	srv.AddItem("alice", model.ItemCreate{Name: "Widget", SKU: "W-1", Quantity: 1})
	srv.AddItem("alice", model.ItemCreate{Name: "Gadget", SKU: "G-1", Quantity: 2})

	list, err := c.ListNotifications(ctx, token, model.NotificationFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Contains(t, list[0].Message, "Low inventory alert:")

	n, err := c.MarkNotificationRead(ctx, token, list[0].ID)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	list, err = c.ListNotifications(ctx, token, model.NotificationFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, c.MarkAllNotificationsRead(ctx, token))

	list, err = c.ListNotifications(ctx, token, model.NotificationFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = c.ListNotifications(ctx, token, model.NotificationFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = c.MarkNotificationRead(ctx, token, uuid.New())
	assert.Equal(t, "Notification not found", Message(err, ""))
}

func TestUnauthorized(t *testing.T) {
	srv, c, _ := setup(t)
	ctx := context.Background()

	_, err := c.CurrentUser(ctx, "garbage")
	assert.True(t, IsUnauthorized(err))

	_, err = c.CurrentUser(ctx, srv.TokenWithTTL("alice", -time.Minute))
	assert.True(t, IsUnauthorized(err))

	_, err = c.CurrentUser(ctx, "")
	assert.True(t, IsUnauthorized(err))
}

func TestContextCancelled(t *testing.T) {
	srv, c, token := setup(t)
	srv.Hook("GET /items", func(r *http.Request) { <-r.Context().Done() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListItems(ctx, token, model.ItemFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOversizedResponseIsAnError(t *testing.T) {
	payload := strings.Repeat("x", 1024)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(payload))
	}))
	t.Cleanup(ts.Close)

	c, err := NewClient(ClientConfig{BaseURL: ts.URL, MaxResponseSize: int64(len(payload) - 1)})
	require.NoError(t, err)
	_, err = c.ExportItems(context.Background(), "token", model.ExportCSV)
	assert.ErrorIs(t, err, ErrResponseTooLarge)

	c, err = NewClient(ClientConfig{BaseURL: ts.URL, MaxResponseSize: int64(len(payload))})
	require.NoError(t, err)
	export, err := c.ExportItems(context.Background(), "token", model.ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, payload, string(export.Data))
}
