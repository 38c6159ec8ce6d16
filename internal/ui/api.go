package ui

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmylchreest/tabula/pkg/reconcile"
	"github.com/jmylchreest/tabula/pkg/table"
)

type domainInfo struct {
	Name      string   `json:"name"`
	Title     string   `json:"title"`
	URLs      []string `json:"urls"`
	Companion string   `json:"companion,omitempty"`
}

type runResponse struct {
	Domain       string           `json:"domain"`
	Source       reconcile.Source `json:"source"`
	Insufficient bool             `json:"insufficient,omitempty"`
	Rows         []table.Row      `json:"rows"`
	Warnings     []string         `json:"warnings"`
	Stats        reconcile.Stats  `json:"stats"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleDomains(w http.ResponseWriter, _ *http.Request) {
	out := make([]domainInfo, 0, len(s.config.Domains))
	for _, d := range s.config.Domains {
		out = append(out, domainInfo{Name: d.Name, Title: d.Title, URLs: d.URLs, Companion: d.Companion})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAPIRun runs one domain and returns its rows. Unlisted domains are
// resolved too, so companions can be fetched on their own.
func (s *Server) handleAPIRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "domain")
	d, ok := s.modes[name]
	if !ok {
		var err error
		if d, err = s.config.Resolve(name); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
	}
	if s.config.Runner == nil {
		writeError(w, http.StatusServiceUnavailable, missingCredential)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RunTimeout)
	defer cancel()

	rep, err := s.config.Runner.Run(ctx, d, r.URL.Query()["url"])
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	rows := rep.Rows
	if rows == nil {
		rows = []table.Row{}
	}
	writeJSON(w, http.StatusOK, runResponse{
		Domain:       d.Name,
		Source:       rep.Source,
		Insufficient: rep.Insufficient,
		Rows:         rows,
		Warnings:     rep.Warnings(),
		Stats:        rep.Stats,
	})
}
