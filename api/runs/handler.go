// Package runs exposes the run history over HTTP.
package runs

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/tripshift/core/runlog"
)

func authorized(w http.ResponseWriter, r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	if r.Header.Get("Authorization") != "Bearer "+token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func parseQuery(r *http.Request) runlog.Query {
	q := runlog.Query{}
	if s := r.URL.Query().Get("start"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.Start = t
		}
	}
	if s := r.URL.Query().Get("end"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.End = t
		}
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			q.Limit = n
		}
	}
	q.CarID = r.URL.Query().Get("car_id")
	return q
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// NewRunsHandler returns an HTTP handler listing run records. Routes mounts
// it on GET /api/runs. Requests must carry "Authorization: Bearer <token>"
// when token is non-empty.
func NewRunsHandler(store runlog.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r, token) {
			return
		}
		records, err := store.Query(r.Context(), parseQuery(r))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []runlog.Record{}
		}
		writeJSON(w, records)
	})
}

// Point is the utilization of one car in one run.
type Point struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Before    float64   `json:"before"`
	After     float64   `json:"after"`
}

// NewCarHandler exposes the utilization history of the car named by the
// {id} path wildcard. Routes mounts it on GET /api/cars/{id}/utilization.
func NewCarHandler(store runlog.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r, token) {
			return
		}
		q := parseQuery(r)
		q.CarID = r.PathValue("id")
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		points := make([]Point, 0, len(records))
		for _, rec := range records {
			points = append(points, Point{
				RunID:     rec.ID,
				Timestamp: rec.Timestamp,
				Before:    rec.Before[q.CarID],
				After:     rec.After[q.CarID],
			})
		}
		writeJSON(w, points)
	})
}

// Routes returns the handlers keyed by mux pattern.
func Routes(store runlog.Store, token string) map[string]http.Handler {
	return map[string]http.Handler{
		"GET /api/runs":                  NewRunsHandler(store, token),
		"GET /api/cars/{id}/utilization": NewCarHandler(store, token),
	}
}
