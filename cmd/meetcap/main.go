package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"meetcap/internal/bootstrap"
	capturedto "meetcap/internal/modules/capture/dto"
	"meetcap/internal/platform/config"
	"meetcap/internal/platform/logging"
	"meetcap/internal/ui/components"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath    string
	schedulesPath string
	logLevel      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "meetcap",
		Short:         "Unattended meeting capture",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./meetcap.yaml)")
	root.PersistentFlags().StringVar(&opts.schedulesPath, "schedules", "", "schedules JSON file (overrides schedules_file)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug|info|warn|error")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newScheduleCmd(opts))
	root.AddCommand(newQueueCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newDoctorCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	return root
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.schedulesPath != "" {
		cfg.SchedulesFile = opts.schedulesPath
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, nil
}

// loadApp wires the application. With tui set, console log outputs are
// redirected to a file under the data dir so they do not tear the view.
func loadApp(opts *rootOptions, appOpts bootstrap.Options, tui bool) (*bootstrap.App, *zap.Logger, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	logCfg := cfg.Log
	if tui {
		logCfg = logging.WithoutConsole(logCfg, filepath.Join(cfg.DataDir, "meetcap.log"))
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	app, err := bootstrap.New(cfg, logger, appOpts)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return app, logger, nil
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var sessionID, joinURL string
	var noLaunch, tui bool

	cmd := &cobra.Command{
		Use:   "run (--id <session-id> | --url <join-url>)",
		Short: "Capture one meeting now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessionID, joinURL = strings.TrimSpace(sessionID), strings.TrimSpace(joinURL)
			if (sessionID == "") == (joinURL == "") {
				return fmt.Errorf("exactly one of --id or --url is required")
			}
			app, logger, err := loadApp(opts, bootstrap.Options{NoLaunch: noLaunch}, tui)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			defer app.Close()

			job := func(ctx context.Context, observe func(capturedto.TransitionOutput)) ([]capturedto.OutcomeOutput, error) {
				var out capturedto.OutcomeOutput
				var err error
				if sessionID != "" {
					out, err = app.ScheduleCLI.RunByID(ctx, sessionID, observe)
				} else {
					out, err = app.CaptureCLI.RunURL(ctx, joinURL, observe)
				}
				if err != nil {
					return nil, err
				}
				return []capturedto.OutcomeOutput{out}, nil
			}
			return runJob(cmd, "meetcap run", tui, job)
		},
	}
	cmd.Flags().StringVar(&sessionID, "id", "", "id of a session in the schedules file")
	cmd.Flags().StringVar(&joinURL, "url", "", "meeting join url for an ad-hoc session")
	cmd.Flags().BoolVar(&noLaunch, "no-launch", false, "do not open the meeting client")
	cmd.Flags().BoolVar(&tui, "tui", false, "follow the session in a live view")
	return cmd
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	var noLaunch, tui bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run every future session of the schedules file at its time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, logger, err := loadApp(opts, bootstrap.Options{NoLaunch: noLaunch}, tui)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			defer app.Close()

			job := func(ctx context.Context, observe func(capturedto.TransitionOutput)) ([]capturedto.OutcomeOutput, error) {
				out, err := app.ScheduleCLI.Run(ctx, observe)
				if err != nil {
					return nil, err
				}
				logger.Info("schedule finished", zap.Int("scheduled", out.Scheduled), zap.Int("dropped", out.Dropped))
				outcomes := make([]capturedto.OutcomeOutput, 0, len(out.Results))
				var errs []error
				for _, r := range out.Results {
					if r.Err != nil {
						errs = append(errs, fmt.Errorf("session %s: %w", r.SessionID, r.Err))
						continue
					}
					outcomes = append(outcomes, r.Outcome)
				}
				return outcomes, errors.Join(errs...)
			}
			return runJob(cmd, "meetcap schedule", tui, job)
		},
	}
	cmd.Flags().BoolVar(&noLaunch, "no-launch", false, "do not open the meeting client")
	cmd.Flags().BoolVar(&tui, "tui", false, "follow sessions in a live view")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Prune past sessions and list the pending ones",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, logger, err := loadApp(opts, bootstrap.Options{}, false)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			defer app.Close()

			pending, err := app.ScheduleCLI.Pending(cmd.Context())
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no pending sessions")
				return nil
			}
			rows := make([][]string, 0, len(pending))
			for _, p := range pending {
				rows = append(rows, []string{p.ID, p.ScheduleTime.Local().Format(time.DateTime), p.JoinURL})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), components.Table([]string{"ID", "AT", "URL"}, rows, -1))
			return nil
		},
	})
	return cmd
}

// runJob executes job with or without the live view, prints the outcomes
// and fails when any session failed.
func runJob(cmd *cobra.Command, title string, tui bool, job bootstrap.Job) error {
	var (
		outcomes []capturedto.OutcomeOutput
		err      error
	)
	if tui {
		outcomes, err = bootstrap.RunTUI(cmd.Context(), title, job)
	} else {
		outcomes, err = job(cmd.Context(), func(t capturedto.TransitionOutput) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s -> %s\n", t.SessionID, displayState(t.From), t.To)
		})
	}
	for _, o := range outcomes {
		printOutcome(cmd.OutOrStdout(), o)
	}
	if err != nil {
		return err
	}
	var failed []string
	for _, o := range outcomes {
		if o.Failed() {
			failed = append(failed, fmt.Sprintf("%s (%s)", o.SessionID, o.Reason))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed sessions: %s", strings.Join(failed, ", "))
	}
	return nil
}

func displayState(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printOutcome(w io.Writer, o capturedto.OutcomeOutput) {
	_, _ = fmt.Fprintf(w, "session=%s state=%s", o.SessionID, o.State)
	if o.Reason != "" {
		_, _ = fmt.Fprintf(w, " reason=%s", o.Reason)
	}
	if o.Strategy != "" {
		_, _ = fmt.Fprintf(w, " strategy=%s", o.Strategy)
	}
	if o.OutputPath != "" {
		_, _ = fmt.Fprintf(w, " file=%s", o.OutputPath)
	}
	if o.TaskID != "" {
		_, _ = fmt.Fprintf(w, " task=%s", o.TaskID)
	}
	if len(o.Conditions) > 0 {
		_, _ = fmt.Fprintf(w, " conditions=%s", strings.Join(o.Conditions, ","))
	}
	if o.Partial {
		_, _ = fmt.Fprint(w, " (recorded but not queued)")
	}
	_, _ = fmt.Fprintln(w)
}

func newQueueCmd(opts *rootOptions) *cobra.Command {
	queue := &cobra.Command{Use: "queue", Short: "Audio task queue"}
	queue.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List queued audio tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, logger, err := loadApp(opts, bootstrap.Options{}, false)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			defer app.Close()

			tasks, err := app.CaptureCLI.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no queued tasks")
				return nil
			}
			rows := make([][]string, 0, len(tasks))
			for _, t := range tasks {
				rows = append(rows, []string{t.ID, t.BaseName + t.Extension, t.DestFolder})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), components.Table([]string{"ID", "FILE", "DESTINATION"}, rows, -1))
			return nil
		},
	})
	return queue
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent session runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, logger, err := loadApp(opts, bootstrap.Options{}, false)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			defer app.Close()

			runs, err := app.CaptureCLI.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no runs")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.StartedAt.Local().Format(time.DateTime),
					r.SessionID,
					r.State,
					r.Reason,
					r.Strategy,
					strings.Join(r.Conditions, ","),
					r.OutputPath,
				})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), components.Table(
				[]string{"STARTED", "SESSION", "STATE", "REASON", "STRATEGY", "CONDITIONS", "FILE"}, rows, 2))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func newDoctorCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the recording service and the window and process probes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, logger, err := loadApp(opts, bootstrap.Options{}, false)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			defer app.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			for _, c := range app.CaptureCLI.Doctor(ctx) {
				mark := "ok  "
				if !c.OK {
					mark = "FAIL"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "[%s] %-18s %s\n", mark, c.Name, c.Detail)
			}
			return nil
		},
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration"}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			return enc.Close()
		},
	})
	return cfgCmd
}
