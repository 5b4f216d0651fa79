package server

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"DailyBriefing/internal/dispatch"
	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/retrieval"
)

// originHeader tells clients which fallback step served the document.
const originHeader = "X-Briefing-Origin"

// resolve validates ?date= and walks the fallback chain. It writes a 400
// and returns false for a malformed date.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request) (retrieval.Result, bool) {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := domain.ParseDateKey(date, time.UTC); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
			return retrieval.Result{}, false
		}
	}
	res := s.gateway.Resolve(r.Context(), date)
	w.Header().Set(originHeader, string(res.Origin))
	return res, true
}

func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resolve(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, res.Document)
}

func (s *Server) handleBriefingVoice(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resolve(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, s.voice.Render(res.Document))
}

func (s *Server) handleBriefingEmail(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resolve(w, r)
	if !ok {
		return
	}
	html, err := s.email.Render(res.Document)
	if err != nil {
		s.logger.Error("render email", "date_key", res.Document.DateKey, "error", err)
		fallback := s.gateway.Placeholder(res.Requested)
		w.Header().Set(originHeader, string(fallback.Origin))
		if html, err = s.email.Render(fallback.Document); err != nil {
			s.logger.Error("render placeholder email", "error", err)
			html = "<!DOCTYPE html><html><body><p>" + template.HTMLEscapeString(fallback.Document.Notice) + "</p></body></html>"
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	var req dispatch.VoiceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid voice request")
		return
	}
	s.jsonResponse(w, http.StatusOK, s.router.Dispatch(r.Context(), req))
}
