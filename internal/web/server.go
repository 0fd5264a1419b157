// Package web serves the calendar's JSON API and iCalendar feed.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"sheetcal/internal/calendar"
	"sheetcal/internal/clock"
	"sheetcal/internal/filter"
	"sheetcal/internal/ics"
	"sheetcal/internal/models"
)

const (
	adminHeader  = "X-Admin-Password"
	maxBodyBytes = 1 << 20

	sampleWarning = "Could not load events from the spreadsheet. Showing sample events."
)

// Calendar is the service the API is served from.
type Calendar interface {
	Events(ctx context.Context) ([]models.Event, error)
	Event(ctx context.Context, id string) (models.Event, error)
	Create(ctx context.Context, e models.Event, approved bool) (models.Event, error)
	Update(ctx context.Context, e models.Event) (models.Event, error)
	Delete(ctx context.Context, id string) error
	Settings(ctx context.Context) models.Settings
	SaveSettings(ctx context.Context, s models.Settings) error
}

// Options configures a Server.
type Options struct {
	// AdminPassword gates edits. Empty disables every admin operation.
	AdminPassword string
	CORSOrigins   []string
}

// Server routes HTTP requests to a Calendar.
type Server struct {
	cal    Calendar
	clock  clock.Clock
	opts   Options
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewServer constructs a Server and registers its routes.
func NewServer(cal Calendar, clk clock.Clock, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		cal:    cal,
		clock:  clk,
		opts:   opts,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the routes wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	return RequestLogger(CORS(s.opts.CORSOrigins, s.mux), s.logger)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", handleHealth)
	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	s.mux.HandleFunc("PUT /api/events/{id}", s.requireAdmin(s.handleUpdateEvent))
	s.mux.HandleFunc("DELETE /api/events/{id}", s.requireAdmin(s.handleDeleteEvent))
	s.mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.mux.HandleFunc("PUT /api/settings", s.requireAdmin(s.handleSaveSettings))
	s.mux.HandleFunc("POST /api/admin/verify", s.handleVerify)
	s.mux.HandleFunc("GET /calendar.ics", s.handleFeed)
	s.mux.Handle("/", notFoundHandler())
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
}

type eventsResponse struct {
	Events   []eventResponse       `json:"events"`
	Counts   map[filter.Window]int `json:"counts"`
	View     viewResponse          `json:"view"`
	Selected *eventResponse        `json:"selected,omitempty"`
	Warning  string                `json:"warning,omitempty"`
}

type viewResponse struct {
	View   View          `json:"view"`
	Event  string        `json:"event,omitempty"`
	Window filter.Window `json:"window"`
	Tags   []string      `json:"tags"`
	Query  string        `json:"query"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	vs, err := ParseViewState(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidWindow, err.Error())
		return
	}

	var warning string
	events, err := s.cal.Events(r.Context())
	if err != nil {
		s.logger.Warn("Failed to load events, serving samples", "error", err)
		events = calendar.SampleEvents()
		warning = sampleWarning
	}

	now := s.clock.Now()
	tagged := filter.ByTags(events, vs.Tags)
	shown := append([]models.Event(nil), filter.Filter(tagged, vs.Window, now)...)
	sort.SliceStable(shown, func(i, j int) bool {
		return shown[i].StartDate.Before(shown[j].StartDate)
	})

	resp := eventsResponse{
		Events: toEventResponses(shown),
		Counts: filter.Counts(tagged, now),
		View: viewResponse{
			View:   vs.View,
			Event:  vs.EventID,
			Window: vs.Window,
			Tags:   vs.Tags,
			Query:  vs.Values().Encode(),
		},
		Warning: warning,
	}
	if resp.View.Tags == nil {
		resp.View.Tags = []string{}
	}
	if vs.EventID != "" {
		for _, e := range events {
			if e.ID == vs.EventID {
				sel := toEventResponse(e)
				resp.Selected = &sel
				break
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.cal.Event(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(e))
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.decodeEvent(w, r)
	if !ok {
		return
	}
	created, err := s.cal.Create(r.Context(), e, s.isAdmin(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(created))
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.decodeEvent(w, r)
	if !ok {
		return
	}
	e.ID = r.PathValue("id")
	updated, err := s.cal.Update(r.Context(), e)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(updated))
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.cal.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cal.Settings(r.Context()))
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var st models.Settings
	if !decodeBody(w, r, &st) {
		return
	}
	if err := s.cal.SaveSettings(r.Context(), st); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.cal.Settings(r.Context()))
}

type verifyRequest struct {
	Password string `json:"password"`
}

// handleVerify checks a password without side effects. The password may
// come in the JSON body or the usual admin credentials.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if s.opts.AdminPassword == "" {
		writeError(w, http.StatusForbidden, codeAdminDisabled, "admin access is disabled")
		return
	}
	password := adminPassword(r)
	if password == "" && r.ContentLength != 0 {
		var req verifyRequest
		if !decodeBody(w, r, &req) {
			return
		}
		password = req.Password
	}
	if !secureCompare(password, s.opts.AdminPassword) {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "Incorrect password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	vs, err := ParseViewState(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidWindow, err.Error())
		return
	}
	events, err := s.cal.Events(r.Context())
	if err != nil {
		s.logger.Error("Failed to load events for feed", "error", err)
		writeError(w, http.StatusBadGateway, codeUpstreamError, "failed to load events")
		return
	}
	now := s.clock.Now()
	events = filter.Apply(events, vs.Query(), now)
	name := s.cal.Settings(r.Context()).SiteTitle

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="calendar.ics"`)
	if err := ics.Encode(w, events, name, now); err != nil {
		s.logger.Error("Failed to encode feed", "error", err)
	}
}

// requireAdmin rejects requests without the configured admin password.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AdminPassword == "" {
			writeError(w, http.StatusForbidden, codeAdminDisabled, "admin access is disabled")
			return
		}
		if !s.isAdmin(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="sheetcal", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "Incorrect password")
			return
		}
		next(w, r)
	}
}

func (s *Server) isAdmin(r *http.Request) bool {
	if s.opts.AdminPassword == "" {
		return false
	}
	return secureCompare(adminPassword(r), s.opts.AdminPassword)
}

// adminPassword reads the header first, then HTTP Basic credentials.
func adminPassword(r *http.Request) string {
	if p := r.Header.Get(adminHeader); p != "" {
		return p
	}
	if _, p, ok := r.BasicAuth(); ok {
		return p
	}
	return ""
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) decodeEvent(w http.ResponseWriter, r *http.Request) (models.Event, bool) {
	var req eventRequest
	if !decodeBody(w, r, &req) {
		return models.Event{}, false
	}
	e, err := req.toEvent(s.clock.Now().Location())
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			writeError(w, http.StatusBadRequest, reqErr.code, reqErr.msg)
		} else {
			writeError(w, http.StatusBadRequest, codeInvalidEvent, err.Error())
		}
		return models.Event{}, false
	}
	return e, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		} else if strings.HasPrefix(err.Error(), "json: unknown field") {
			msg = err.Error()
		}
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, msg)
		return false
	}
	return true
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrEventNotFound):
		writeError(w, http.StatusNotFound, codeEventNotFound, "event not found")
	case errors.Is(err, models.ErrReadOnly):
		writeError(w, http.StatusConflict, codeReadOnly, models.ErrReadOnly.Error())
	case errors.Is(err, models.ErrInvalidEvent):
		writeError(w, http.StatusBadRequest, codeInvalidEvent, err.Error())
	default:
		s.logger.Error("Calendar operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
