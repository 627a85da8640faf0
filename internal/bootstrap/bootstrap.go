package bootstrap

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	captureinadapter "meetcap/internal/modules/capture/adapter/in"
	captureoutadapter "meetcap/internal/modules/capture/adapter/out"
	"meetcap/internal/modules/capture/domain"
	capturedto "meetcap/internal/modules/capture/dto"
	captureout "meetcap/internal/modules/capture/port/out"
	captureservice "meetcap/internal/modules/capture/service"
	captureusecase "meetcap/internal/modules/capture/usecase"
	scheduleinadapter "meetcap/internal/modules/schedule/adapter/in"
	scheduleoutadapter "meetcap/internal/modules/schedule/adapter/out"
	scheduleservice "meetcap/internal/modules/schedule/service"
	scheduleusecase "meetcap/internal/modules/schedule/usecase"
	"meetcap/internal/platform/clock"
	"meetcap/internal/platform/config"
	"meetcap/internal/platform/id"
	runview "meetcap/internal/ui/views/run"
)

type Options struct {
	// NoLaunch skips opening the meeting client; it is expected to be
	// started by hand.
	NoLaunch bool
}

type App struct {
	CaptureCLI  captureinadapter.CLIHandler
	ScheduleCLI scheduleinadapter.CLIHandler

	history *captureoutadapter.SQLiteRunHistory
}

func New(cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := clock.SystemClock{}

	matcher, err := domain.NewTitleMatcher(cfg.Detection.TitlePatterns)
	if err != nil {
		return nil, fmt.Errorf("detection.title_patterns: %w", err)
	}
	monitor := captureoutadapter.NewSystemMonitor(cfg.Detection.ProcessName)
	control := captureoutadapter.NewOBSControl(captureoutadapter.OBSOptions{
		URL:              cfg.OBS.URL,
		RPCVersion:       cfg.OBS.RPCVersion,
		HandshakeTimeout: cfg.OBS.HandshakeTimeout,
		RequestTimeout:   cfg.OBS.RequestTimeout,
	}, logger.Named("obs"))
	queue := captureoutadapter.NewFileTaskQueue(cfg.Queue.TasksFile, logger.Named("queue"))

	var launcher captureout.Launcher = captureoutadapter.NewOSLauncher()
	if opts.NoLaunch {
		launcher = captureoutadapter.NoopLauncher{}
	}

	history, err := captureoutadapter.NewSQLiteRunHistory(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new run history: %w", err)
	}

	detector := captureservice.NewDetector(monitor, matcher, clk, captureservice.DetectorIntervals{
		JoinPoll:    cfg.Detection.JoinPoll,
		ClosePoll:   cfg.Detection.ClosePoll,
		ProcessPoll: cfg.Detection.ProcessPoll,
	}, logger.Named("detector"))
	orchestrator := captureservice.NewOrchestrator(captureservice.OrchestratorDeps{
		Launcher:  launcher,
		Detector:  detector,
		Control:   control,
		Finalizer: captureservice.NewFinalizer(captureoutadapter.OSFileInspector{}, clk, cfg.Finalize.Poll, cfg.Finalize.Timeout),
		Queue:     queue,
		Slot:      captureservice.NewRecordingSlot(),
		Clock:     clk,
		TaskIDs:   id.ShortUUID{},
		Logger:    logger.Named("session"),
	}, captureservice.OrchestratorConfig{
		LaunchSettle: cfg.Detection.LaunchSettle,
		JoinTimeout:  cfg.Detection.JoinTimeout,
		StopTimeout:  cfg.OBS.RequestTimeout,
		Layout: domain.DestinationLayout{
			WorkspaceRoot: cfg.Queue.WorkspaceRoot,
			UnitKeys:      cfg.Queue.UnitKeys,
			GroupKeys:     cfg.Queue.GroupKeys,
		},
	})
	captureUC := captureusecase.NewInteractor(captureusecase.Deps{
		Orchestrator: orchestrator,
		Queue:        queue,
		History:      history,
		Control:      control,
		Monitor:      monitor,
		RunIDs:       id.RandomHex{Bytes: 8},
		Logger:       logger,
	})

	scheduler := scheduleservice.NewScheduler(scheduleoutadapter.NewFileScheduleStore(cfg.SchedulesFile), clk, logger.Named("scheduler"))
	scheduleUC := scheduleusecase.NewInteractor(scheduler, captureUC)

	return &App{
		CaptureCLI:  captureinadapter.NewCLIHandler(captureUC),
		ScheduleCLI: scheduleinadapter.NewCLIHandler(scheduleUC),
		history:     history,
	}, nil
}

func (a *App) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// Job is the work a live view follows. It must report every transition to
// observe and honour ctx.
type Job func(ctx context.Context, observe func(capturedto.TransitionOutput)) ([]capturedto.OutcomeOutput, error)

// RunTUI runs job under the live session view and returns what job
// returned. Quitting the view cancels job and waits for it.
func RunTUI(ctx context.Context, title string, job Job) ([]capturedto.OutcomeOutput, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(runview.New(title, cancel))
	go func() {
		outcomes, err := job(ctx, func(t capturedto.TransitionOutput) {
			program.Send(runview.TransitionMsg{Transition: t})
		})
		program.Send(runview.DoneMsg{Outcomes: outcomes, Err: err})
	}()

	final, err := program.Run()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("run view: %w", err)
	}
	model, ok := final.(runview.Model)
	if !ok {
		return nil, fmt.Errorf("run view: unexpected model %T", final)
	}
	return model.Outcomes()
}
