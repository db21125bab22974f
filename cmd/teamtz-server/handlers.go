package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/maypok86/otter/v2"

	"github.com/codeGROOVE-dev/teamTZ/pkg/roster"
	"github.com/codeGROOVE-dev/teamTZ/pkg/schedule"
	"github.com/codeGROOVE-dev/teamTZ/pkg/tzproject"
)

type server struct {
	proj    *tzproject.IANA
	store   *roster.Store
	scorer  *schedule.Scorer
	anchor  *roster.Anchor
	cache   *otter.Cache[string, []byte]
	limiter *rateLimiter
	logger  *slog.Logger
	now     func() time.Time
}

func (s *server) routes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/team/members", s.handleListMembers).Methods(http.MethodGet)
	router.HandleFunc("/api/team/members", s.handleAddMember).Methods(http.MethodPost)
	router.HandleFunc("/api/team/members/{id}", s.handleGetMember).Methods(http.MethodGet)
	router.HandleFunc("/api/team/members/{id}", s.handleUpdateMember).Methods(http.MethodPut)
	router.HandleFunc("/api/team/members/{id}", s.handleDeleteMember).Methods(http.MethodDelete)
	router.HandleFunc("/api/availability", s.handleAvailability).Methods(http.MethodGet)
	router.HandleFunc("/api/timezones/{tz:.+}", s.handleTimezone).Methods(http.MethodGet)
	return router
}

// envelope matches the response shape the dashboard frontend consumes.
type envelope struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func (s *server) respond(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{
		Success: status < 400,
		Message: message,
		Data:    data,
	}); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

func (s *server) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]
				s.logger.Error("PANIC: Request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"stack", string(buf))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		}

		clientIP := strings.Split(r.RemoteAddr, ":")[0]
		if !s.limiter.allow(clientIP) {
			s.logger.Warn("Rate limit exceeded", "client_ip", clientIP, "path", r.URL.Path)
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		s.logger.Debug("Request", "method", r.Method, "path", r.URL.Path, "client_ip", clientIP)
		handler.ServeHTTP(w, r)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, "ok", nil)
}

func (s *server) handleListMembers(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, "team members retrieved", map[string]any{
		"teamMembers": s.store.List(),
	})
}

// decodeMember reads a member body and applies the single validate-or-UTC
// timezone policy before the member reaches the store.
func (s *server) decodeMember(r *http.Request) (roster.Member, error) {
	var m roster.Member
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(&m); err != nil {
		return roster.Member{}, fmt.Errorf("parsing member: %w", err)
	}
	clean, replaced := roster.Sanitize(s.proj, []roster.Member{m})
	if len(replaced) > 0 {
		s.logger.Warn("Unsupported timezone replaced with UTC", "timezone", replaced[0], "member", m.Name)
	}
	return clean[0], nil
}

func (s *server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.decodeMember(r)
	if err != nil {
		s.respond(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	added, err := s.store.Add(m)
	if err != nil {
		s.respond(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	s.respond(w, http.StatusCreated, "team member added", map[string]any{"teamMember": added})
}

func (s *server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	m, ok := s.store.Get(id)
	if !ok {
		s.respond(w, http.StatusNotFound, "team member not found", nil)
		return
	}
	s.respond(w, http.StatusOK, "team member retrieved", map[string]any{"teamMember": m})
}

func (s *server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	m, err := s.decodeMember(r)
	if err != nil {
		s.respond(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	updated, err := s.store.Update(id, m)
	if err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			s.respond(w, http.StatusNotFound, "team member not found", nil)
			return
		}
		s.respond(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	s.respond(w, http.StatusOK, "team member updated", map[string]any{"teamMember": updated})
}

func (s *server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.Delete(id); err != nil {
		s.respond(w, http.StatusNotFound, "team member not found", nil)
		return
	}
	s.respond(w, http.StatusOK, "team member deleted", nil)
}

// availabilityResponse is the payload for GET /api/availability.
type availabilityResponse struct {
	Slots   []schedule.Slot  `json:"slots"`
	Perfect []schedule.Slot  `json:"perfect"`
	Good    []schedule.Slot  `json:"good"`
	Ranked  []schedule.Slot  `json:"ranked"`
	Blocks  []schedule.Block `json:"blocks,omitempty"`
}

func (s *server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	at := s.now().UTC()
	if dateStr := q.Get("date"); dateStr != "" {
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			s.respond(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", nil)
			return
		}
		at = day
	}

	minAttendance := 50.0
	if v := q.Get("minAttendance"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 || parsed > 100 {
			s.respond(w, http.StatusBadRequest, "invalid minAttendance, expected 0-100", nil)
			return
		}
		minAttendance = parsed
	}

	duration := 0
	if v := q.Get("duration"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 24 {
			s.respond(w, http.StatusBadRequest, "invalid duration, expected 1-24", nil)
			return
		}
		duration = parsed
	}

	anchor, err := s.resolveAnchor(q)
	if err != nil {
		s.respond(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	// Derived results are pure functions of the roster revision and query.
	cacheKey := fmt.Sprintf("%d|%s|%s", s.store.Revision(), at.Format("2006-01-02"), r.URL.RawQuery)
	if cached, ok := s.cache.GetIfPresent(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(cached); err != nil {
			s.logger.Error("Failed to write cached response", "error", err)
		}
		return
	}

	members := s.store.List()
	slots, err := s.scorer.Score(members, anchor, at)
	if err != nil {
		if errors.Is(err, schedule.ErrEmptyRoster) {
			s.respond(w, http.StatusOK, "no team members yet", availabilityResponse{
				Slots:   []schedule.Slot{},
				Perfect: []schedule.Slot{},
				Good:    []schedule.Slot{},
				Ranked:  []schedule.Slot{},
			})
			return
		}
		s.respond(w, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}

	resp := availabilityResponse{
		Slots:   slots,
		Perfect: schedule.Perfect(slots),
		Good:    schedule.Good(slots),
		Ranked:  schedule.Ranked(slots, minAttendance),
	}
	if duration > 0 {
		blocks, err := schedule.ConsecutiveBlocks(slots, duration, minAttendance)
		if err != nil {
			s.respond(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		resp.Blocks = blocks
	}

	body, err := json.Marshal(envelope{Success: true, Message: "availability computed", Data: resp})
	if err != nil {
		s.respond(w, http.StatusInternalServerError, "encoding availability", nil)
		return
	}
	s.cache.Set(cacheKey, body)

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(body); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

// resolveAnchor builds the reference anchor for a scoring request: query
// parameters override the preloaded anchor; neither means the default window.
func (s *server) resolveAnchor(q url.Values) (*roster.Anchor, error) {
	tz := q.Get("anchorTz")
	if tz == "" {
		return s.anchor, nil
	}
	if !s.proj.IsSupported(tz) {
		return nil, fmt.Errorf("unsupported anchor timezone %q", tz)
	}

	anchor := &roster.Anchor{Timezone: tz, Hours: schedule.DefaultWindow}
	if v := q.Get("anchorStart"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid anchorStart %q", v)
		}
		anchor.Hours.Start = parsed
	}
	if v := q.Get("anchorEnd"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid anchorEnd %q", v)
		}
		anchor.Hours.End = parsed
	}
	if err := anchor.Validate(); err != nil {
		return nil, err
	}
	return anchor, nil
}

// timezoneInfo is the payload for GET /api/timezones/{tz}.
type timezoneInfo struct {
	Timezone      string `json:"timezone"`
	Supported     bool   `json:"supported"`
	Abbreviation  string `json:"abbreviation,omitempty"`
	OffsetMinutes int    `json:"offsetMinutes"`
	OffsetLabel   string `json:"offsetLabel,omitempty"`
	LocalTime     string `json:"localTime,omitempty"`
}

func (s *server) handleTimezone(w http.ResponseWriter, r *http.Request) {
	tz := mux.Vars(r)["tz"]
	at := s.now()

	if !s.proj.IsSupported(tz) {
		s.respond(w, http.StatusOK, "timezone probed", timezoneInfo{Timezone: tz, Supported: false})
		return
	}

	parts, err := s.proj.ClockParts(tz, at)
	if err != nil {
		s.respond(w, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}
	abbr, err := s.proj.Abbreviation(tz, at)
	if err != nil {
		s.respond(w, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}
	offset, err := s.proj.OffsetMinutes(tz, at)
	if err != nil {
		s.respond(w, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}

	s.respond(w, http.StatusOK, "timezone probed", timezoneInfo{
		Timezone:      tz,
		Supported:     true,
		Abbreviation:  abbr,
		OffsetMinutes: offset,
		OffsetLabel:   tzproject.FormatOffset(offset),
		LocalTime: fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d",
			parts.Year, parts.Month, parts.Day, parts.Hour, parts.Minute, parts.Second),
	})
}
