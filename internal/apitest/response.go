package apitest

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes an error body in the API's {"detail": ...} shape.
func jsonError(w http.ResponseWriter, status int, detail string) {
	jsonResponse(w, status, map[string]string{"detail": detail})
}

// validationError writes a 422 with a list of messages, the shape the API
// uses for rejected request bodies.
func validationError(w http.ResponseWriter, msgs ...string) {
	detail := make([]map[string]string, 0, len(msgs))
	for _, m := range msgs {
		detail = append(detail, map[string]string{"msg": m})
	}
	jsonResponse(w, http.StatusUnprocessableEntity, map[string]any{"detail": detail})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
