// Package ui serves the interactive presenter: pick a mode, run it, and see
// the reconciled table with its provenance and warnings.
package ui

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmylchreest/tabula/internal/logger"
	"github.com/jmylchreest/tabula/internal/output"
	"github.com/jmylchreest/tabula/pkg/agent"
	"github.com/jmylchreest/tabula/pkg/domain"
	"github.com/jmylchreest/tabula/pkg/tabula"
)

//go:embed templates/*.html
var templateFS embed.FS

// ModeAgent is the browser agent mode.
const ModeAgent = "agent"

// Runner runs a domain pipeline. *tabula.Scraper satisfies it.
type Runner interface {
	Run(ctx context.Context, d *domain.Domain, urls []string) (*tabula.Report, error)
}

// AgentFunc answers a question with the browser agent.
type AgentFunc func(ctx context.Context, question string) (*agent.Answer, error)

// Config configures a Server.
type Config struct {
	// Domains are the table modes, in selector order. A domain's companion
	// is run alongside it and need not be listed.
	Domains []*domain.Domain
	// Runner is nil when no credential is configured.
	Runner Runner
	Agent  AgentFunc
	// Resolve looks up companion domains. Defaults to domain.Load.
	Resolve func(name string) (*domain.Domain, error)
	// DumpDir, when set, receives a dump file per run.
	DumpDir string
	// RunTimeout bounds one request's pipeline. Default 5m.
	RunTimeout time.Duration
}

// Server is the presenter HTTP server.
type Server struct {
	config Config
	tmpl   *template.Template
	modes  map[string]*domain.Domain
}

// New parses the templates and prepares the mode table.
func New(cfg Config) (*Server, error) {
	if cfg.Resolve == nil {
		cfg.Resolve = domain.Load
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	modes := make(map[string]*domain.Domain, len(cfg.Domains))
	for _, d := range cfg.Domains {
		modes[d.Name] = d
	}
	return &Server{config: cfg, tmpl: tmpl, modes: modes}, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/", s.handleIndex)
	r.Post("/run", s.handleRun)
	r.Route("/api", func(r chi.Router) {
		r.Get("/domains", s.handleDomains)
		r.Post("/run/{domain}", s.handleAPIRun)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("presenter listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Component("ui").Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

func (s *Server) page(mode string) pageView {
	v := pageView{
		Mode:       mode,
		Credential: s.config.Runner != nil,
		Question:   agent.DefaultQuestion,
	}
	for _, d := range s.config.Domains {
		v.Modes = append(v.Modes, modeView{Name: d.Name, Label: d.Title})
	}
	if s.config.Agent != nil {
		v.Modes = append(v.Modes, modeView{Name: ModeAgent, Label: "Agente inteligente"})
	}
	if v.Mode == "" && len(v.Modes) > 0 {
		v.Mode = v.Modes[0].Name
	}
	return v
}

func (s *Server) render(w http.ResponseWriter, status int, v pageView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", v); err != nil {
		logger.Error("render failed", "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, s.page(r.URL.Query().Get("mode")))
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mode := r.PostForm.Get("mode")
	v := s.page(mode)

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RunTimeout)
	defer cancel()

	if mode == ModeAgent {
		if s.config.Agent == nil {
			v.Err = "agent mode is not configured"
			s.render(w, http.StatusBadRequest, v)
			return
		}
		question := strings.TrimSpace(r.PostForm.Get("question"))
		if question != "" {
			v.Question = question
		}
		ans, err := s.config.Agent(ctx, question)
		if ans != nil {
			v.Agent = newAgentView(ans)
		}
		if err != nil {
			if v.Agent == nil {
				v.Agent = &agentView{Question: v.Question}
			}
			v.Agent.Err = err.Error()
		}
		s.render(w, http.StatusOK, v)
		return
	}

	d, ok := s.modes[mode]
	if !ok {
		v.Err = fmt.Sprintf("unknown mode %q", mode)
		s.render(w, http.StatusBadRequest, v)
		return
	}
	if s.config.Runner == nil {
		v.Err = missingCredential
		s.render(w, http.StatusOK, v)
		return
	}

	v.Tables = append(v.Tables, s.runTable(ctx, d))
	if d.Companion != "" {
		if c, err := s.config.Resolve(d.Companion); err != nil {
			logger.Warn("companion domain unavailable", "domain", d.Companion, "error", err)
		} else {
			v.Tables = append(v.Tables, s.runTable(ctx, c))
		}
	}
	s.render(w, http.StatusOK, v)
}

const missingCredential = "API key not found. Set OPENAI_API_KEY (or ANTHROPIC_API_KEY with --provider anthropic), " +
	"add it to a .env file, or pass --api-key."

// runTable runs one domain; a run error is shown in place of its table.
func (s *Server) runTable(ctx context.Context, d *domain.Domain) tableView {
	rep, err := s.config.Runner.Run(ctx, d, nil)
	if err != nil {
		return tableView{Domain: d.Name, Title: d.Title, Err: err.Error()}
	}
	if s.config.DumpDir != "" {
		if _, err := output.WriteDump(s.config.DumpDir, d.DumpFile, rep.Rows); err != nil {
			logger.Warn("dump failed", "domain", d.Name, "error", err)
		}
	}
	return newTableView(d, rep)
}
