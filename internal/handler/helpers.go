package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmceachern/rebook/internal/family"
	"github.com/dmceachern/rebook/internal/recurrence"
)

func recurrenceFromJSON(raw json.RawMessage) (recurrence.Rule, error) {
	if len(raw) == 0 {
		return recurrence.Rule{}, fmt.Errorf("rule is required")
	}
	return recurrence.Parse(raw)
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps lifecycle errors onto HTTP statuses. ErrPrecondition
// covers both bad requests against the state machine and lost CAS races;
// both surface as 409 so the caller re-reads and retries deliberately.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, family.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, family.ErrInvalidRule):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, family.ErrPrecondition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, family.ErrAnchorMissing):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// monthParams reads ?year= and ?month= with basic range checks.
func monthParams(r *http.Request) (int, int, bool) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1970 || year > 9999 {
		return 0, 0, false
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}
