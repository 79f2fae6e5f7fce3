package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"io"
	"muni-form-assist/amount"
	"muni-form-assist/assist"
	"muni-form-assist/coalesce"
	"muni-form-assist/config"
	"muni-form-assist/daterange"
	"muni-form-assist/domain"
	"muni-form-assist/http"
	"muni-form-assist/lookup"
	nhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// app state shared by every command, filled in before any of them runs
type app struct {
	configFile string
	config     *config.Config
	logger     log.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "formassist",
		Short:        "Form assistance server for the municipal finance application",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.Load(a.configFile)
			if err != nil {
				return err
			}
			a.config = c
			a.logger = newLogger(cmd.ErrOrStderr(), c.Log.Level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default is ./config.yaml)")

	root.AddCommand(
		a.serveCommand(),
		a.normalizeCommand(),
		a.displayCommand(),
		a.rangeCommand(),
		a.suggestCommand(),
	)
	return root
}

func newLogger(w io.Writer, lvl string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	allow := level.AllowInfo()
	switch lvl {
	case "debug":
		allow = level.AllowDebug()
	case "warn":
		allow = level.AllowWarn()
	case "error":
		allow = level.AllowError()
	}
	return level.NewFilter(logger, allow)
}

// lookups builds the lookup chain: REST client, logged, cached, and the cache logged
func (a *app) lookups(ctx context.Context) lookup.Service {
	c := a.config
	s := lookup.NewService(c.Upstream.BaseURL, c.Upstream.Endpoints, c.Upstream.Timeout, c.Lookup.MinTerm)
	s = lookup.NewLoggingService(level.Debug(log.With(a.logger, "component", "lookup_rest")), s)
	s = lookup.NewCachingService(ctx, c.Lookup.CacheTTL, level.Debug(log.With(a.logger, "component", "lookup_cache")), s)
	s = lookup.NewLoggingService(level.Debug(log.With(a.logger, "component", "lookup_cache")), s)
	return s
}

func (a *app) service(ctx context.Context) (assist.Service, error) {
	loc, err := a.config.Location()
	if err != nil {
		return nil, err
	}
	s := assist.NewService(a.lookups(ctx), loc)
	s = assist.NewLoggingService(level.Debug(log.With(a.logger, "component", "assist")), s)
	return s, nil
}

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := a.service(ctx)
			if err != nil {
				return err
			}

			logger := log.With(a.logger, "component", "http")
			server := &nhttp.Server{
				Addr:              a.config.Listen,
				Handler:           http.NewServer(s, level.Info(logger)),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errs := make(chan error, 1)
			go func() {
				level.Info(logger).Log("msg", "listening", "addr", server.Addr)
				errs <- server.ListenAndServe()
			}()

			select {
			case err := <-errs:
				return err
			case <-ctx.Done():
			}

			level.Info(logger).Log("msg", "shutting down")
			shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdown); err != nil {
				return err
			}
			if err := <-errs; !errors.Is(err, nhttp.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}

func (a *app) normalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [text...]",
		Short: "Print the canonical and display form of typed amounts",
		Long:  "Print the canonical and display form of each argument, or of each line of stdin when there are none.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return eachInput(cmd, args, func(text string) {
				canonical := amount.ToCanonical(text)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", canonical, amount.ToDisplay(canonical))
			})
		},
	}
}

func (a *app) displayCommand() *cobra.Command {
	var places int

	cmd := &cobra.Command{
		Use:   "display [amount...]",
		Short: "Format amounts es-AR style",
		RunE: func(cmd *cobra.Command, args []string) error {
			if places < 0 || places > amount.MaxPlaces {
				return fmt.Errorf("--places %d: %w", places, amount.ErrInvalidPlaces)
			}
			var failed error
			err := eachInput(cmd, args, func(text string) {
				d, err := amount.Parse(text)
				if err != nil {
					failed = err
					fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", err)
					return
				}
				fmt.Fprintln(cmd.OutOrStdout(), amount.FormatPlaces(d, places))
			})
			if err != nil {
				return err
			}
			return failed
		},
	}
	cmd.Flags().IntVar(&places, "places", amount.Places, "fraction digits")
	return cmd
}

func (a *app) rangeCommand() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "range [shortcut]",
		Short: "Resolve a date range shortcut, or detect the shortcut of --desde / --hasta",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				span, err := s.Range(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", span.Shortcut, span.From, span.To)
				return nil
			}
			shortcut, err := s.Detect(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			if shortcut == daterange.Custom {
				fmt.Fprintln(cmd.OutOrStdout(), "personalizado")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), shortcut)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "desde", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "hasta", "", "last day, YYYY-MM-DD")
	return cmd
}

// suggestCommand reads terms as they are typed, one per line, and prints the
// options for the latest one. Lines arriving within the debounce delay
// collapse into one upstream search.
func (a *app) suggestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <persona|proveedor|vehiculo>",
		Short: "Search people, providers or vehicles as terms are typed on stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := domain.Kind(args[0])
			if !kind.Valid() {
				return fmt.Errorf("%q: %w", kind, lookup.ErrUnknownKind)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			s, err := a.service(ctx)
			if err != nil {
				return err
			}
			search := func(ctx context.Context, term string) ([]domain.Suggestion, error) {
				return s.Suggest(ctx, kind, term)
			}
			c := coalesce.New(search, a.config.Lookup.Debounce, level.Debug(log.With(a.logger, "component", "coalesce")))
			defer c.Close()

			lines := make(chan string)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					select {
					case lines <- scanner.Text():
					case <-ctx.Done():
						return
					}
				}
			}()

			var (
				last    string
				pending bool
				timeout <-chan time.Time
			)
			for {
				select {
				case line, ok := <-lines:
					if !ok {
						if !pending {
							return nil
						}
						lines = nil
						timeout = time.After(a.config.Lookup.Debounce + a.config.Upstream.Timeout + time.Second)
						continue
					}
					last, pending = line, true
					c.Submit(line)
				case r := <-c.Results():
					printSuggestions(cmd, r)
					if r.Term != last {
						continue
					}
					pending = false
					if lines == nil {
						return nil
					}
				case <-timeout:
					return fmt.Errorf("no answer for %q", last)
				}
			}
		},
	}
}

func printSuggestions(cmd *cobra.Command, r coalesce.Result) {
	if r.Err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", r.Term, r.Err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", r.Term)
	for _, s := range r.Suggestions {
		fmt.Fprintf(cmd.OutOrStdout(), "  %d\t%s\n", s.ID, s.Text)
	}
}

// eachInput calls fn with every argument, or with every line of stdin when
// there are no arguments
func eachInput(cmd *cobra.Command, args []string, fn func(string)) error {
	if len(args) > 0 {
		for _, arg := range args {
			fn(arg)
		}
		return nil
	}
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		fn(scanner.Text())
	}
	return scanner.Err()
}
