package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/tabula/internal/credentials"
	"github.com/jmylchreest/tabula/internal/logger"
	"github.com/jmylchreest/tabula/pkg/domain"
	"github.com/jmylchreest/tabula/pkg/llm"
	"github.com/jmylchreest/tabula/pkg/tabula"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// addFetchFlags registers the flags shared by pipeline commands.
func addFetchFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("fetch-mode", "", "fetch mode: static, dynamic (domain default when empty)")
	flags.Duration("timeout", 30*time.Second, "request timeout")
	flags.String("user-agent", "", "override the browser user agent")
	flags.Bool("stealth", false, "mask headless Chrome in dynamic fetches")
	flags.String("max-content-size", "100KB", "max content per LLM call (e.g., 100KB, 1MB, 0=unlimited)")
	flags.Float64("temperature", 0, "sampling temperature")
}

// resolveCredential finds the API key for the configured provider.
func resolveCredential(cmd *cobra.Command) (credentials.Credential, error) {
	provider := viper.GetString("provider")
	if !llm.IsRegistered(provider) {
		return credentials.Credential{}, fmt.Errorf("unknown provider %q (available: %s)",
			provider, strings.Join(llm.AvailableProviders(), ", "))
	}
	flagKey, _ := cmd.Flags().GetString("api-key")
	cred, err := credentials.Resolve(provider, flagKey, viper.GetString("api_key"))
	if err != nil {
		return cred, err
	}
	logger.Debug("credential resolved", "provider", provider, "source", cred.Source, "key", credentials.Mask(cred.Key))
	return cred, nil
}

// parseSize reads a humanized byte size; empty or "0" means unlimited.
func parseSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int(n), nil
}

// newScraper builds a Scraper from flags, config and the resolved credential.
func newScraper(cmd *cobra.Command, cred credentials.Credential) (*tabula.Scraper, error) {
	flags := cmd.Flags()
	fetchMode, _ := flags.GetString("fetch-mode")
	timeout, _ := flags.GetDuration("timeout")
	userAgent, _ := flags.GetString("user-agent")
	stealth, _ := flags.GetBool("stealth")
	temperature, _ := flags.GetFloat64("temperature")
	sizeStr, _ := flags.GetString("max-content-size")
	maxContentSize, err := parseSize(sizeStr)
	if err != nil {
		return nil, err
	}

	logger.Debug("scraper settings",
		"provider", viper.GetString("provider"),
		"model", viper.GetString("model"),
		"fetch_mode", fetchMode,
		"timeout", timeout,
		"max_content_size", maxContentSize)

	return tabula.New(
		tabula.WithProvider(viper.GetString("provider")),
		tabula.WithModel(viper.GetString("model")),
		tabula.WithBaseURL(viper.GetString("base_url")),
		tabula.WithAPIKey(cred.Key),
		tabula.WithFetchMode(fetchMode),
		tabula.WithTimeout(timeout),
		tabula.WithUserAgent(userAgent),
		tabula.WithStealth(stealth),
		tabula.WithTemperature(temperature),
		tabula.WithMaxContentSize(maxContentSize),
	)
}

// newProvider builds a bare LLM provider for the agent.
func newProvider(cred credentials.Credential) (llm.Provider, error) {
	provider := viper.GetString("provider")
	model := viper.GetString("model")
	if model == "" {
		model = llm.GetDefaultModel(provider)
	}
	cfg := llm.DefaultProviderConfig()
	cfg.APIKey = cred.Key
	cfg.BaseURL = viper.GetString("base_url")
	cfg.Model = model
	return llm.NewProvider(provider, cfg)
}

// selectDomain loads --domain-file when given, else the named built-in.
func selectDomain(cmd *cobra.Command, name string) (*domain.Domain, error) {
	if f := cmd.Flags().Lookup("domain-file"); f != nil && f.Value.String() != "" {
		return domain.FromFile(f.Value.String())
	}
	if name == "" {
		return nil, fmt.Errorf("a domain name or --domain-file is required (built-in: %s)", strings.Join(domain.Names(), ", "))
	}
	return domain.Load(name)
}

// openOutput returns stdout or the --output file.
func openOutput(cmd *cobra.Command) (*os.File, func(), error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path) //#nosec G304 -- CLI tool writes to user-specified output file
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
