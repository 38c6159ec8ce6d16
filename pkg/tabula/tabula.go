package tabula

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jmylchreest/tabula/internal/logger"
	"github.com/jmylchreest/tabula/pkg/chunker"
	"github.com/jmylchreest/tabula/pkg/cleaner"
	"github.com/jmylchreest/tabula/pkg/domain"
	"github.com/jmylchreest/tabula/pkg/extractor"
	"github.com/jmylchreest/tabula/pkg/fetcher"
	"github.com/jmylchreest/tabula/pkg/llm"
	"github.com/jmylchreest/tabula/pkg/locator"
)

// ErrMissingCredential is returned by New when no extractor is injected and
// no API key was given.
var ErrMissingCredential = errors.New("missing API credential")

// Version returns the module version of the tabula library.
// Returns "(devel)" when built from source without version info.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}
	return "(unknown)"
}

// Scraper runs domain pipelines. Runs share no mutable state beyond the
// lazily created fetchers, so a Scraper may serve concurrent callers.
type Scraper struct {
	config    Config
	extractor extractor.Extractor

	mu       sync.Mutex
	fetchers map[string]fetcher.Fetcher
}

// New creates a Scraper. Configuration problems, such as a missing
// credential, are reported here, before anything is fetched.
func New(opts ...Option) (*Scraper, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ext := cfg.Extractor
	if ext == nil {
		if cfg.APIKey == "" {
			hint := "pass --api-key"
			if env := llm.EnvKey(cfg.Provider); env != "" {
				hint = fmt.Sprintf("set %s or pass --api-key", env)
			}
			return nil, fmt.Errorf("%w for provider %s: %s", ErrMissingCredential, cfg.Provider, hint)
		}

		model := cfg.Model
		if model == "" {
			model = llm.GetDefaultModel(cfg.Provider)
		}
		p, err := llm.NewProvider(cfg.Provider, llm.ProviderConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   model,
			Timeout: llm.DefaultProviderConfig().Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create extractor: %w", err)
		}
		ext = extractor.NewLLMExtractor(p, extractor.LLMConfig{
			Temperature:    cfg.Temperature,
			MaxTokens:      cfg.MaxTokens,
			MaxContentSize: cfg.MaxContentSize,
			StrictMode:     cfg.StrictMode,
			Observer:       cfg.Observer,
		})
	}

	return &Scraper{
		config:    cfg,
		extractor: ext,
		fetchers:  make(map[string]fetcher.Fetcher),
	}, nil
}

// Provider returns the extractor/provider name.
func (s *Scraper) Provider() string {
	return s.extractor.Name()
}

// Run fetches urls (the domain's defaults when empty), extracts records from
// each candidate block and reconciles them. Fetch and extraction failures
// are recorded in the report and never abort the run; an error is returned
// only for an invalid domain or a cancelled context.
func (s *Scraper) Run(ctx context.Context, d *domain.Domain, urls []string) (*Report, error) {
	if len(urls) == 0 {
		urls = d.URLs
	}
	rec, err := d.Reconciler()
	if err != nil {
		return nil, fmt.Errorf("domain %s: %w", d.Name, err)
	}

	log := logger.Component("pipeline").With("domain", d.Name)
	report := &Report{Domain: d.Name, URLs: urls, StartedAt: time.Now()}

	var records []extractor.Record
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fetchStart := time.Now()
		content, err := s.fetch(ctx, d, url)
		report.FetchDuration += time.Since(fetchStart)
		if err != nil {
			log.Warn("fetch failed", "url", url, "error", err)
			report.Failures = append(report.Failures, Failure{Stage: StageFetch, URL: url, Block: -1, Err: err})
			continue
		}

		blocks, err := s.blocks(d, content)
		if err != nil {
			log.Warn("no candidate blocks", "url", url, "error", err)
			report.Failures = append(report.Failures, Failure{Stage: StageLocate, URL: url, Block: -1, Err: err})
			continue
		}
		log.Debug("candidate blocks", "url", url, "blocks", len(blocks))
		report.Blocks += len(blocks)

		extractStart := time.Now()
		outcomes := extractor.ExtractBlocks(ctx, s.extractor, blocks, d.Schema, d.Hints())
		report.ExtractDuration += time.Since(extractStart)

		for _, o := range outcomes {
			report.Usage.Add(o.Usage)
			report.Cost += o.Cost
			if o.Failed() {
				report.Failures = append(report.Failures, Failure{Stage: StageExtract, URL: url, Block: o.Block, Err: o.Err})
			}
		}
		records = append(records, extractor.Records(outcomes)...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Records = len(records)
	res := rec.Reconcile(records)
	report.Rows = res.Rows
	report.Source = res.Source
	report.Insufficient = res.Insufficient
	report.Stats = res.Stats
	report.Duration = time.Since(report.StartedAt)

	log.Info("run complete",
		"source", report.Source,
		"rows", len(report.Rows),
		"records", report.Records,
		"blocks", report.Blocks,
		"failures", len(report.Failures),
		"duration", report.Duration)
	return report, nil
}

func (s *Scraper) fetch(ctx context.Context, d *domain.Domain, url string) (fetcher.Content, error) {
	f, err := s.fetcherFor(d)
	if err != nil {
		return fetcher.Content{}, err
	}
	return f.Fetch(ctx, url, fetcher.Options{
		UserAgent:       s.config.UserAgent,
		Timeout:         s.config.Timeout,
		WaitForSelector: d.WaitSelector,
	})
}

// fetcherFor returns the injected fetcher or a cached one for the mode.
func (s *Scraper) fetcherFor(d *domain.Domain) (fetcher.Fetcher, error) {
	if s.config.Fetcher != nil {
		return s.config.Fetcher, nil
	}
	mode := s.config.FetchMode
	if mode == "" {
		mode = d.Fetch
	}
	if mode == "" {
		mode = fetcher.ModeStatic
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.fetchers[mode]; ok {
		return f, nil
	}
	f, err := fetcher.New(mode, fetcher.Config{UserAgent: s.config.UserAgent, Timeout: s.config.Timeout, Stealth: s.config.Stealth})
	if err != nil {
		return nil, err
	}
	s.fetchers[mode] = f
	return f, nil
}

// blocks turns a fetched page into the candidate blocks for extraction.
func (s *Scraper) blocks(d *domain.Domain, content fetcher.Content) ([]string, error) {
	switch d.Strategy {
	case domain.StrategyChunks:
		md, err := cleaner.Tables().Clean(content.HTML)
		if err != nil {
			return nil, err
		}
		chunks := chunker.New(d.Chunking.Size, d.Chunking.Overlap).Split(md)
		if limit := d.Chunking.MaxChunks; limit > 0 && len(chunks) > limit {
			logger.Debug("chunks capped", "domain", d.Name, "chunks", len(chunks), "max", limit)
			chunks = chunks[:limit]
		}
		return chunks, nil
	default:
		doc, err := content.Document()
		if err != nil {
			return nil, err
		}
		loc, err := locator.New(d.LocatorConfig())
		if err != nil {
			return nil, err
		}
		return loc.Collect(doc), nil
	}
}

// Close releases all fetchers.
func (s *Scraper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.config.Fetcher != nil {
		errs = append(errs, s.config.Fetcher.Close())
	}
	for mode, f := range s.fetchers {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s fetcher: %w", mode, err))
		}
		delete(s.fetchers, mode)
	}
	return errors.Join(errs...)
}
