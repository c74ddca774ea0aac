package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/s0up4200/webmodes/filter"
	"github.com/s0up4200/webmodes/qbittorrent"
	"github.com/s0up4200/webmodes/webmode"
)

type errorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	Rule       string `json:"rule,omitempty"`
	Identifier string `json:"identifier,omitempty"`
}

type modeResponse struct {
	webmode.Config
	Valid     bool   `json:"valid"`
	Error     string `json:"error,omitempty"`
	Preferred bool   `json:"preferred"`
}

type modesResponse struct {
	Preferred string         `json:"preferred"`
	Modes     []modeResponse `json:"modes"`
}

type preferredRequest struct {
	Name string `json:"name"`
}

type torrentResponse struct {
	*qbittorrent.TorrentInfo
	Path  string `json:"path"`
	URL   string `json:"url,omitempty"`
	Rule  string `json:"rule,omitempty"`
	Error string `json:"resolve_error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	res, err := s.resolver.Resolve(r.URL.Query().Get("comment"))
	s.metrics.ObserveResolution(res, err)

	var te *webmode.TemplateError
	switch {
	case err == nil:
		if res.Cookies == nil {
			res.Cookies = webmode.Cookies{}
		}
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, webmode.ErrNoMatch):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no_match"})
	case errors.As(err, &te):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:      "template_error",
			Message:    te.Error(),
			Rule:       te.Rule,
			Identifier: te.Identifier,
		})
	default:
		s.logger.Error().Err(err).Msg("Resolve failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: err.Error()})
	}
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	preferred := s.resolver.Preferred()
	resp := modesResponse{Preferred: preferred, Modes: []modeResponse{}}

	for _, mode := range s.resolver.Modes() {
		m := modeResponse{
			Config:    mode.Config(),
			Valid:     mode.Valid(),
			Preferred: preferred != "" && mode.Name() == preferred,
		}
		if err := mode.Err(); err != nil {
			m.Error = err.Error()
		}
		resp.Modes = append(resp.Modes, m)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetPreferred(w http.ResponseWriter, r *http.Request) {
	var req preferredRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name != "" && !s.hasMode(name) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown_mode", Message: name})
		return
	}

	s.resolver.SetPreferred(name)
	s.logger.Info().Str("preferred", name).Msg("Preferred web mode updated")
	s.handleModes(w, r)
}

func (s *Server) hasMode(name string) bool {
	for _, mode := range s.resolver.Modes() {
		if mode.Name() == name {
			return true
		}
	}
	return false
}

func (s *Server) handleTorrents(w http.ResponseWriter, r *http.Request) {
	if s.torrents == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "torrents_unavailable"})
		return
	}

	compiled, err := filter.Parse(s.compiler, r.URL.Query().Get("filter"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_filter", Message: err.Error()})
		return
	}

	var categories []string
	for _, c := range r.URL.Query()["category"] {
		for _, name := range strings.Split(c, ",") {
			if name = strings.TrimSpace(name); name != "" {
				categories = append(categories, name)
			}
		}
	}

	torrents, err := s.torrents.ListTorrents(r.Context(), categories)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list torrents")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "qbittorrent", Message: err.Error()})
		return
	}

	matches, err := filter.NewConcurrentEvaluator().Evaluate(r.Context(), compiled, torrents)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: err.Error()})
		return
	}

	resp := make([]torrentResponse, 0, len(matches))
	for _, t := range matches {
		resp = append(resp, s.describeTorrent(t))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTorrent(w http.ResponseWriter, r *http.Request) {
	if s.torrents == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "torrents_unavailable"})
		return
	}

	hash := strings.ToLower(chi.URLParam(r, "hash"))
	t, err := s.torrents.GetTorrent(r.Context(), hash)
	if err != nil {
		s.logger.Error().Err(err).Str("hash", hash).Msg("Failed to get torrent")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "qbittorrent", Message: err.Error()})
		return
	}
	if t == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown_torrent", Message: hash})
		return
	}

	writeJSON(w, http.StatusOK, s.describeTorrent(t))
}

// describeTorrent attaches the resolved detail page to t
func (s *Server) describeTorrent(t *qbittorrent.TorrentInfo) torrentResponse {
	item := torrentResponse{TorrentInfo: t, Path: t.GetFullPath()}

	res, err := s.resolver.Resolve(t.Comment)
	s.metrics.ObserveResolution(res, err)
	switch {
	case err == nil:
		item.URL = res.URL
		item.Rule = res.Rule
	case !errors.Is(err, webmode.ErrNoMatch):
		item.Error = err.Error()
	}
	return item
}
