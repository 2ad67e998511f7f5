package apitest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/scannerlog/internal/model"
)

// listItems handles GET /items.
func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip, err := intParam(q.Get("skip"), 0)
	if err != nil {
		validationError(w, "skip must be an integer")
		return
	}
	limit, err := intParam(q.Get("limit"), 100)
	if err != nil {
		validationError(w, "limit must be an integer")
		return
	}
	minQty, err := optionalIntParam(q.Get("min_quantity"))
	if err != nil {
		validationError(w, "min_quantity must be an integer")
		return
	}
	maxQty, err := optionalIntParam(q.Get("max_quantity"))
	if err != nil {
		validationError(w, "max_quantity must be an integer")
		return
	}
	search := strings.ToLower(q.Get("search"))
	category := q.Get("category")
	location := q.Get("location")

	s.mu.Lock()
	var matched []model.Item
	for _, item := range s.items {
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Name), search) &&
			!strings.Contains(strings.ToLower(item.DescriptionText()), search) &&
			!strings.Contains(strings.ToLower(item.SKU), search) {
			continue
		}
		if category != "" && item.CategoryName() != category {
			continue
		}
		if location != "" && item.LocationName() != location {
			continue
		}
		if minQty != nil && item.Quantity < *minQty {
			continue
		}
		if maxQty != nil && item.Quantity > *maxQty {
			continue
		}
		matched = append(matched, *item)
	}
	s.mu.Unlock()

	sortItems(matched)
	jsonResponse(w, http.StatusOK, window(matched, skip, limit))
}

// getItem handles GET /items/{id}.
func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		validationError(w, "invalid item id")
		return
	}

	s.mu.Lock()
	item := s.items[id]
	var out model.Item
	if item != nil {
		out = *item
	}
	s.mu.Unlock()

	if item == nil {
		jsonError(w, http.StatusNotFound, "Item not found")
		return
	}
	jsonResponse(w, http.StatusOK, out)
}

// createItem handles POST /items.
func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var req model.ItemCreate
	if err := decodeJSON(r, &req); err != nil {
		validationError(w, "invalid request body")
		return
	}
	if req.Name == "" || req.SKU == "" {
		validationError(w, "name and sku required")
		return
	}

	user := currentUserFrom(r.Context())

	s.mu.Lock()
	item := *s.insertItem(user.ID, req)
	s.mu.Unlock()

	jsonResponse(w, http.StatusOK, item)
}

// updateItem handles PUT /items/{id}.
func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		validationError(w, "invalid item id")
		return
	}

	var req model.ItemUpdate
	if err := decodeJSON(r, &req); err != nil {
		validationError(w, "invalid request body")
		return
	}

	user := currentUserFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.items[id]
	if item == nil {
		jsonError(w, http.StatusNotFound, "Item not found")
		return
	}
	if req.Empty() {
		jsonResponse(w, http.StatusOK, *item)
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.SKU != nil {
		item.SKU = *req.SKU
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.MinQuantity != nil {
		item.MinQuantity = *req.MinQuantity
	}
	if req.Category != nil {
		item.Category = req.Category
	}
	if req.Location != nil {
		item.Location = req.Location
	}
	item.UpdatedAt = time.Now().UTC()

	if item.LowStock() {
		s.addLowStockNotification(user.ID, item)
	}

	jsonResponse(w, http.StatusOK, *item)
}

// deleteItem handles DELETE /items/{id}.
func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		validationError(w, "invalid item id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items[id] == nil {
		jsonError(w, http.StatusNotFound, "Item not found")
		return
	}
	for nid, n := range s.notifications {
		if n.ItemID == id {
			delete(s.notifications, nid)
		}
	}
	delete(s.items, id)

	w.WriteHeader(http.StatusNoContent)
}

// exportItems handles GET /items/export.
func (s *Server) exportItems(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if !model.ValidExportFormat(format) {
		validationError(w, "format must be csv or json")
		return
	}

	s.mu.Lock()
	items := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, *item)
	}
	s.mu.Unlock()
	sortItems(items)

	if format == model.ExportJSON {
		w.Header().Set("Content-Disposition", "attachment; filename=items.json")
		jsonResponse(w, http.StatusOK, items)
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Write([]string{
		"ID", "Name", "Description", "SKU", "Quantity",
		"Min Quantity", "Category", "Location", "Created At",
		"Updated At", "Created By",
	})
	for _, item := range items {
		cw.Write([]string{
			item.ID.String(),
			item.Name,
			item.DescriptionText(),
			item.SKU,
			strconv.Itoa(item.Quantity),
			strconv.Itoa(item.MinQuantity),
			item.CategoryName(),
			item.LocationName(),
			item.CreatedAt.Format(time.RFC3339),
			item.UpdatedAt.Format(time.RFC3339),
			item.CreatedBy.String(),
		})
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=items.csv")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// insertItem stores a new item. Callers must hold s.mu.
func (s *Server) insertItem(creator uuid.UUID, req model.ItemCreate) *model.Item {
	minQty := model.DefaultMinQuantity
	if req.MinQuantity != nil {
		minQty = *req.MinQuantity
	}
	now := time.Now().UTC()
	item := &model.Item{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		SKU:         req.SKU,
		Quantity:    req.Quantity,
		MinQuantity: minQty,
		Category:    req.Category,
		Location:    req.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   creator,
	}
	s.items[item.ID] = item

	if item.LowStock() {
		s.addLowStockNotification(creator, item)
	}
	return item
}

// addLowStockNotification records an alert for user. Callers must hold s.mu.
func (s *Server) addLowStockNotification(user uuid.UUID, item *model.Item) {
	n := &model.Notification{
		ID:        uuid.New(),
		UserID:    user,
		ItemID:    item.ID,
		Message:   fmt.Sprintf("Low inventory alert: %s (SKU: %s) is below minimum quantity.", item.Name, item.SKU),
		CreatedAt: time.Now().UTC(),
	}
	s.notifications[n.ID] = n
}

func sortItems(items []model.Item) {
	slices.SortStableFunc(items, func(a, b model.Item) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}

// window applies skip and limit to a sorted result set.
func window[T any](all []T, skip, limit int) []T {
	if skip >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit >= 0 && skip+limit < end {
		end = skip + limit
	}
	return all[skip:end]
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func optionalIntParam(v string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q", v)
	}
	return &n, nil
}
