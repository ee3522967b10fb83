// Package api provides the HTTP API for observing and steering the city.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/pathfind"
	"github.com/talgya/tilecity/internal/world"
)

// ReportSource serves journalled weekly reports.
type ReportSource interface {
	RecentReports(ctx context.Context, limit int) ([]city.Report, error)
}

// Server serves the city state over HTTP.
type Server struct {
	City     *city.City
	TileSet  *world.TileSet // Names road types in /map; optional
	Reports  ReportSource   // Nil disables /reports
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	hub     *Hub
	limiter *RateLimiter
}

// Handler builds the route table and subscribes the stream hub to the
// city's summaries. It must be called once.
func (s *Server) Handler() http.Handler {
	s.hub = NewHub(maxStreamConns)
	s.City.OnSummary(s.hub.Publish)
	s.limiter = NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/map", s.handleMap)
	mux.HandleFunc("GET /api/v1/entities", s.handleEntities)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/path", RateLimitMiddleware(s.limiter, s.handlePath))
	mux.HandleFunc("GET /api/v1/reports", s.handleReports)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)
	mux.HandleFunc("GET /api/v1/speed", s.handleSpeed)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("POST /api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("POST /api/v1/intervention", s.adminOnly(s.handleIntervention))

	return corsMiddleware(mux)
}

// Start serves the API in a goroutine. The returned server is used for
// shutdown.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// Close disconnects every stream client.
func (s *Server) Close() {
	if s.hub != nil {
		s.hub.Close()
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken reports whether the request carries the admin token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			writeError(w, http.StatusForbidden, "admin endpoints disabled (no CITYSIM_ADMIN_KEY set)")
			return
		}
		if !s.checkBearerToken(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var status map[string]any
	s.City.View(func(c *city.City) {
		eng := c.Engine
		status = map[string]any{
			"name":       "tilecity",
			"tick":       eng.Ticks(),
			"day":        eng.Days(),
			"week":       eng.Weeks(),
			"time":       eng.Now(),
			"paused":     eng.Paused(),
			"level":      eng.Level(),
			"tick_speed": eng.TickSpeed(),
			"stats":      c.Stats,
			"treasury":   c.TreasuryValues(),
			"generation": map[string]any{
				"seed":     c.Gen.Seed,
				"size":     c.Gen.Size,
				"steps":    c.Gen.Steps,
				"restarts": c.Gen.Restarts,
			},
		}
	})
	writeJSON(w, status)
}

// handleMap returns every tile and building for a map renderer.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	type tileEntry struct {
		X       int           `json:"x"`
		Z       int           `json:"z"`
		Type    int           `json:"type"`
		Name    string        `json:"name,omitempty"`
		Sockets world.Sockets `json:"sockets"`
	}
	type buildingEntry struct {
		ID       uuid.UUID      `json:"id"`
		Kind     string         `json:"kind"`
		Position world.Position `json:"position"`
	}

	var resp map[string]any
	s.City.View(func(c *city.City) {
		ordered := c.Map.Ordered()
		tiles := make([]tileEntry, 0, len(ordered))
		for _, t := range ordered {
			e := tileEntry{X: t.Position.X, Z: t.Position.Z, Type: int(t.Type), Sockets: t.Sockets}
			if s.TileSet != nil {
				e.Name = s.TileSet.Name(t.Type)
			}
			tiles = append(tiles, e)
		}
		var buildings []buildingEntry
		for _, kind := range []string{"house", "company", "shop"} {
			for _, e := range c.Entities(kind) {
				buildings = append(buildings, buildingEntry{ID: e.ID, Kind: e.Kind, Position: e.Position})
			}
		}
		resp = map[string]any{
			"size":         c.Map.Size,
			"cell_spacing": world.CellSpacing,
			"tiles":        tiles,
			"buildings":    buildings,
		}
	})
	writeJSON(w, resp)
}

// handleEntities lists entities; ?kind=house|company|shop|citizen filters.
func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	switch kind {
	case "", "house", "company", "shop", "citizen":
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown kind %q", kind))
		return
	}
	var entities []city.EntityView
	s.City.View(func(c *city.City) {
		entities = c.Entities(kind)
	})
	if entities == nil {
		entities = []city.EntityView{}
	}
	writeJSON(w, entities)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var events []city.Event
	s.City.View(func(c *city.City) {
		events = c.RecentEvents(limit)
	})
	writeJSON(w, events)
}

// handlePath routes between two road tiles: ?from=x,z&to=x,z in world
// coordinates.
func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	from, err := parsePosition(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	to, err := parsePosition(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}

	var (
		path   []world.Position
		offMap bool
	)
	s.City.View(func(c *city.City) {
		if offMap = !c.Map.InBounds(from) || !c.Map.InBounds(to); offMap {
			return
		}
		path, err = c.FindPath(from, to)
	})
	switch {
	case offMap:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("from and to must be tile positions (multiples of %d inside the map)", world.CellSpacing))
		return
	case errors.Is(err, pathfind.ErrNoTile), errors.Is(err, pathfind.ErrNoPath):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{
		"from":   from,
		"to":     to,
		"path":   path,
		"steps":  len(path) - 1,
		"length": pathfind.Length(path),
	})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if s.Reports == nil {
		writeError(w, http.StatusNotFound, "journal disabled")
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reports, err := s.Reports.RecentReports(r.Context(), limit)
	if err != nil {
		slog.Error("reports query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "reports unavailable")
		return
	}
	if reports == nil {
		reports = []city.Report{}
	}
	writeJSON(w, reports)
}

// handleSpeed reports the clock state; POST {"action": "up|down|pause|resume"}
// changes it first.
func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	eng := s.City.Engine
	if r.Method == http.MethodPost {
		var req struct {
			Action string `json:"action"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		changed := true
		switch req.Action {
		case "up":
			changed = eng.RateUp()
		case "down":
			changed = eng.RateDown()
		case "pause":
			eng.Pause()
		case "resume":
			eng.Resume()
		default:
			writeError(w, http.StatusBadRequest, "action must be up, down, pause or resume")
			return
		}
		slog.Info("speed changed", "action", req.Action, "changed", changed, "level", eng.Level())
	}

	writeJSON(w, map[string]any{
		"level":      eng.Level(),
		"rate_ms":    eng.TickRate().Milliseconds(),
		"tick_speed": eng.TickSpeed(),
		"paused":     eng.Paused(),
	})
}

// handleIntervention applies an admin action:
// {"action": "toggle_development"} | {"action": "fund", "amount": n} |
// {"action": "demolish", "id": "<uuid>"}.
func (s *Server) handleIntervention(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
		Amount int    `json:"amount"`
		ID     string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	var (
		desc string
		err  error
	)
	switch req.Action {
	case "toggle_development":
		s.City.Update(func(c *city.City) { desc = c.ToggleDevelopmentTarget() })
	case "fund":
		s.City.Update(func(c *city.City) { desc, err = c.FundDevelopment(req.Amount) })
	case "demolish":
		id, perr := uuid.Parse(req.ID)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		s.City.Update(func(c *city.City) { desc, err = c.Demolish(id) })
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q", req.Action))
		return
	}

	switch {
	case errors.Is(err, city.ErrUnknownEntity):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"result": desc})
}

func parsePosition(s string) (world.Position, error) {
	xs, zs, ok := strings.Cut(s, ",")
	if !ok {
		return world.Position{}, fmt.Errorf("want x,z, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return world.Position{}, fmt.Errorf("bad x: %w", err)
	}
	z, err := strconv.Atoi(strings.TrimSpace(zs))
	if err != nil {
		return world.Position{}, fmt.Errorf("bad z: %w", err)
	}
	return world.Position{X: x, Z: z}, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Warn("error response encode failed", "status", code, "error", err)
	}
}
