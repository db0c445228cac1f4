package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/maxviazov/cve-catalog-service/internal/browser"
	"github.com/maxviazov/cve-catalog-service/internal/client"
	"github.com/maxviazov/cve-catalog-service/internal/ui"
	"github.com/maxviazov/cve-catalog-service/pkg/pagination"
)

type options struct {
	BaseURL  string        `mapstructure:"base_url"`
	PageSize int           `mapstructure:"page_size"`
	Page     int           `mapstructure:"page"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Retries  int           `mapstructure:"retries"`
	Plain    bool          `mapstructure:"plain"`
	LogFile  string        `mapstructure:"log_file"`
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "cve-browser",
		Short: "Browse the CVE catalog page by page",
		Long: `cve-browser pages through the CVE catalog served by the listing service.
Pick 10, 50 or 100 rows per page, move with the arrow keys and press enter to
print the record path of the highlighted row.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts options
			if err := v.Unmarshal(&opts); err != nil {
				return fmt.Errorf("failed to read options: %w", err)
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml)")
	flags.String("base-url", "http://localhost:8080", "listing service base URL")
	flags.Int("page-size", pagination.DefaultPageSize, "rows per page (10, 50 or 100)")
	flags.Int("page", 1, "page to open first")
	flags.Duration("timeout", client.DefaultTimeout, "per request timeout")
	flags.Int("retries", 2, "extra attempts after a network error")
	flags.Bool("plain", false, "print one page as a plain table and exit")
	flags.String("log-file", "", "write logs to this file")

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return cmd
}

// initConfig layers flags over BROWSER_* env vars over the optional config file.
func initConfig(v *viper.Viper, cfgFile string) error {
	// missing .env is fine
	_ = godotenv.Load()

	v.SetEnvPrefix("BROWSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config file not found: %w", err)
		}
	}
	return nil
}

func newLogger(opts options, stderr io.Writer) (zerolog.Logger, func(), error) {
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), func() {}, fmt.Errorf("failed to open log file: %w", err)
		}
		l := zerolog.New(f).With().Timestamp().Str("service", "cve-browser").Logger()
		return l, func() { _ = f.Close() }, nil
	}
	if opts.Plain {
		return zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(zerolog.WarnLevel).With().Timestamp().Logger(), func() {}, nil
	}
	// the TUI owns the terminal; without a log file there is nowhere to write
	return zerolog.Nop(), func() {}, nil
}

func run(ctx context.Context, stdout, stderr io.Writer, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !pagination.IsAllowedSize(opts.PageSize, pagination.AllowedPageSizes) {
		return fmt.Errorf("invalid --page-size %d: must be one of 10, 50, 100", opts.PageSize)
	}
	if opts.Page < 1 {
		return fmt.Errorf("invalid --page %d: must be >= 1", opts.Page)
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	log, closeLog, err := newLogger(opts, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	c, err := client.New(opts.BaseURL,
		client.WithTimeout(opts.Timeout),
		client.WithRetries(uint64(opts.Retries)),
		client.WithLogger(log),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := browser.New(opts.PageSize, pagination.AllowedPageSizes)
	if opts.Page > 1 {
		// seed the starting page without fetching; Mount issues the only fetch
		state, _ = state.GoTo(opts.Page)
	}

	if opts.Plain {
		return runPlain(ctx, stdout, c, state, log)
	}

	m := ui.New(ctx, c, state, log)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}
	if fm, ok := final.(ui.Model); ok && fm.Selected() != "" {
		fmt.Fprintln(stdout, fm.Selected())
	}
	return nil
}

func runPlain(ctx context.Context, stdout io.Writer, f ui.Fetcher, state browser.State, log zerolog.Logger) error {
	state, req := state.Mount()
	page, err := f.ListRecords(ctx, req.Page, req.Size)
	if err != nil {
		log.Error().Err(err).Int("page", req.Page).Int("page_size", req.Size).Msg("fetch failed")
		return err
	}
	state, _ = state.Resolve(req.Seq, page)
	return ui.RenderPlain(stdout, state)
}
