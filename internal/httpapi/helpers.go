package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ai-academy/academy-server/internal/progress"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeProgressError maps the progress error taxonomy onto status codes.
func writeProgressError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, progress.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
	case errors.Is(err, progress.ErrLessonNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "lesson not found"})
	case errors.Is(err, progress.ErrLessonLocked):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "lesson is locked"})
	case errors.Is(err, progress.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

// lessonOrder parses the {order} path segment.
func lessonOrder(r *http.Request) (int, error) {
	order, err := strconv.Atoi(r.PathValue("order"))
	if err != nil || order <= 0 {
		return 0, errors.New("order must be a positive integer")
	}
	return order, nil
}
