// Package api exposes the scoring pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/nightwatch/internal/safety"
)

// Scorer is the pipeline surface the handlers need.
type Scorer interface {
	Score(ctx context.Context, place string) (*safety.ScoreResult, error)
	HeatmapFor(ctx context.Context, place string) (*safety.Heatmap, error)
}

// Server wraps the chi router and the pipeline.
type Server struct {
	scorer Scorer
	router chi.Router
}

// NewServer builds the router with the standard middleware stack.
func NewServer(scorer Scorer) *Server {
	s := &Server{scorer: scorer}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/score", s.handleScore)
	r.Post("/heatmap", s.handleHeatmap)

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

type scoreRequest struct {
	Place string `json:"place"`
}

type scoreResponse struct {
	Place string  `json:"place"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

type heatmapPointResponse struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label"`
	Color string  `json:"color"`
}

type heatmapResponse struct {
	Place  string                 `json:"place"`
	Points []heatmapPointResponse `json:"points"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePlace(w, r)
	if !ok {
		return
	}

	res, err := s.scorer.Score(r.Context(), req.Place)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, scoreResponse{
		Place: res.Place,
		Lat:   res.Coordinate.Lat,
		Lng:   res.Coordinate.Lng,
		Score: res.Score,
		Label: res.Label,
	})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePlace(w, r)
	if !ok {
		return
	}

	hm, err := s.scorer.HeatmapFor(r.Context(), req.Place)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "geojson" {
		raw, err := hm.GeoJSON()
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
		return
	}

	points := make([]heatmapPointResponse, 0, len(hm.Points))
	for _, p := range hm.Points {
		points = append(points, heatmapPointResponse{
			Lat:   p.Coordinate.Lat,
			Lng:   p.Coordinate.Lng,
			Label: p.Label,
			Color: p.Color,
		})
	}
	writeJSON(w, http.StatusOK, heatmapResponse{Place: hm.Place, Points: points})
}

func decodePlace(w http.ResponseWriter, r *http.Request) (scoreRequest, bool) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return scoreRequest{}, false
	}
	return req, true
}

// writeError maps pipeline errors onto HTTP statuses. Client mistakes (blank
// or unresolvable place) are 400s; classifier faults and anything else
// unexpected are 500s with a generic message.
func writeError(w http.ResponseWriter, err error) {
	var nf *safety.NotFoundError
	switch {
	case errors.Is(err, safety.ErrPlaceRequired):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "place is required"})
	case errors.As(err, &nf):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: nf.Error()})
	default:
		var ce *safety.ClassifierError
		if errors.As(err, &ce) {
			zap.L().Error("classifier fault", zap.Error(err))
		} else {
			zap.L().Error("request failed", zap.Error(err))
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// requestID tags every request with a UUID, echoed in the X-Request-ID
// response header and attached to the request context for logging.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// requestLogger logs one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		id, _ := r.Context().Value(requestIDKey).(string)
		zap.L().Info("http request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
