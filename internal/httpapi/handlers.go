package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Tiliavir/punch/internal/ledger"
	"github.com/Tiliavir/punch/internal/model"
)

// maxBodyBytes caps punch request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type punchRequest struct {
	Kind     string          `json:"kind"`
	Location *model.Location `json:"location,omitempty"`
}

type punchResponse struct {
	Record model.PunchRecord `json:"registro"`
	model.State
	Error string `json:"error,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// recordPunchHandler handles POST /v1/punches.
// A failed save still returns the updated state, with status 500.
func recordPunchHandler(l *ledger.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req punchRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		kind, err := model.ParsePunchKind(req.Kind)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		rec, err := l.RecordPunch(kind, req.Location)
		if err != nil {
			if errors.Is(err, model.ErrInvalidKind) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			logger.Error("punch not persisted", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, punchResponse{Record: rec, State: l.State(), Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, punchResponse{Record: rec, State: l.State()})
	}
}

func stateHandler(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, l.State())
	}
}

func recordsHandler(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"registros": l.Records()})
	}
}

func bankHandler(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"bancoHoras": l.Bank()})
	}
}

func statusHandler(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"statusHoje": l.Status()})
	}
}

func summaryHandler(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records := l.Records()
		writeJSON(w, http.StatusOK, map[string]any{
			"overall": ledger.Summarize(records),
			"weeks":   ledger.WeeklySummaries(records, l.Location()),
		})
	}
}
