package main

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ayusman/neurosprint/internal/app"
	"github.com/ayusman/neurosprint/internal/capture"
	"github.com/ayusman/neurosprint/internal/config"
	"github.com/ayusman/neurosprint/internal/detector"
	"github.com/ayusman/neurosprint/internal/server"
	"github.com/ayusman/neurosprint/internal/session"
	"github.com/ayusman/neurosprint/internal/sink"
	"github.com/ayusman/neurosprint/internal/store"
	"github.com/ayusman/neurosprint/internal/trainer"
	"github.com/ayusman/neurosprint/internal/tui"
)

// trainSettings is shared by the train and tray commands.
type trainSettings struct {
	difficulty string
	trials     int
	user       string
	live       string
	replica    string

	device int
	width  int
	height int
	fps    int
	mirror bool

	minConfidence float64
	minTracking   float64
	script        string
}

var trainOpts trainSettings

func addTrainFlags(cmd *cobra.Command, s *trainSettings) {
	det := detector.DefaultConfig()
	cam := capture.DefaultConfig()

	cmd.Flags().StringVar(&s.difficulty, "difficulty", trainer.DefaultDifficulty, "difficulty preset (easy, medium, hard or custom)")
	cmd.Flags().IntVar(&s.trials, "trials", trainer.DefaultRequiredTrials, "correct answers needed to finish")
	cmd.Flags().StringVar(&s.user, "user", "", "train as this user (default: active user)")
	cmd.Flags().StringVar(&s.live, "live", "", "serve the live event feed on this address")
	cmd.Flags().StringVar(&s.replica, "replica", "", "leaderboard replica URL")
	cmd.Flags().IntVar(&s.device, "camera", cam.DeviceID, "camera device index")
	cmd.Flags().IntVar(&s.width, "width", cam.Width, "capture width")
	cmd.Flags().IntVar(&s.height, "height", cam.Height, "capture height")
	cmd.Flags().IntVar(&s.fps, "fps", cam.FPS, "frames classified per second")
	cmd.Flags().BoolVar(&s.mirror, "mirror", cam.Mirror, "mirror frames horizontally")
	cmd.Flags().Float64Var(&s.minConfidence, "min-confidence", det.MinConfidence, "hand detection confidence (0-1)")
	cmd.Flags().Float64Var(&s.minTracking, "min-tracking", det.MinTrackingConf, "hand tracking confidence (0-1)")
	cmd.Flags().StringVar(&s.script, "detector-script", "", "path to mediapipe_service.py")
}

func applyTrainConfig(cmd *cobra.Command, fc config.FileConfig, s *trainSettings) {
	applyConfig(cmd, "difficulty", &s.difficulty, fc.Training.Difficulty)
	applyConfig(cmd, "trials", &s.trials, fc.Training.Trials)
	applyConfig(cmd, "user", &s.user, fc.Training.User)
	applyConfig(cmd, "live", &s.live, fc.Training.Live)
	applyConfig(cmd, "replica", &s.replica, fc.Replica.URL)
	applyConfig(cmd, "camera", &s.device, fc.Camera.Device)
	applyConfig(cmd, "width", &s.width, fc.Camera.Width)
	applyConfig(cmd, "height", &s.height, fc.Camera.Height)
	applyConfig(cmd, "fps", &s.fps, fc.Camera.FPS)
	applyConfig(cmd, "mirror", &s.mirror, fc.Camera.Mirror)
	applyConfig(cmd, "min-confidence", &s.minConfidence, fc.Detector.MinConfidence)
	applyConfig(cmd, "min-tracking", &s.minTracking, fc.Detector.MinTracking)
	applyConfig(cmd, "detector-script", &s.script, fc.Detector.Script)
}

func validateTrainSettings(s trainSettings) error {
	if s.trials <= 0 {
		return fmt.Errorf("--trials must be > 0")
	}
	if s.fps <= 0 {
		return fmt.Errorf("--fps must be > 0")
	}
	if s.minConfidence < 0 || s.minConfidence > 1 {
		return fmt.Errorf("--min-confidence must be between 0 and 1")
	}
	if s.minTracking < 0 || s.minTracking > 1 {
		return fmt.Errorf("--min-tracking must be between 0 and 1")
	}
	return nil
}

// trainerRig is everything a front-end needs to run sessions.
type trainerRig struct {
	app      *app.App
	user     *store.User
	diff     trainer.Difficulty
	replica  *sink.ReplicatingSink
	store    *store.Store
	closeAll func()
}

// buildRig resolves settings into a ready App. onEvent receives every
// session event.
func buildRig(ctx context.Context, cmd *cobra.Command, s *trainSettings, onEvent func(session.Event)) (*trainerRig, error) {
	fileCfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	applyTrainConfig(cmd, fileCfg, s)
	if err := validateTrainSettings(*s); err != nil {
		return nil, err
	}
	diff, err := fileCfg.Difficulty(s.difficulty)
	if err != nil {
		return nil, fmt.Errorf("difficulty %q: %w (available: %v)", s.difficulty, err, fileCfg.DifficultyNames())
	}

	st, closeStore, err := openStore(dbPath)
	if err != nil {
		return nil, err
	}
	closers := []func(){closeStore}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	user, err := resolveUser(ctx, st, s.user)
	if err != nil {
		closeAll()
		return nil, err
	}

	rig := &trainerRig{user: user, diff: diff, store: st}
	var results sink.ResultsSink
	userID := ""
	if user != nil {
		userID = user.ID
		if s.replica != "" {
			rig.replica = sink.NewReplicatingSink(st, sink.NewClient(s.replica))
			results = rig.replica
		} else {
			results = sink.NewLocalSink(st)
		}
	}

	mp, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:        1,
		MinConfidence:   s.minConfidence,
		MinTrackingConf: s.minTracking,
		ScriptPath:      s.script,
	})
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("hand detector unavailable: %w (install mediapipe_service.py under %s or pass --detector-script)", err, config.DefaultScriptDir())
	}
	log.Println("Using MediaPipe hand detection")

	var hub *server.LiveHub
	if s.live != "" {
		hub = server.NewLiveHub()
		liveCtx, cancel := context.WithCancel(ctx)
		srv := server.New(server.Config{Hub: hub})
		go func() {
			if err := srv.Run(liveCtx, s.live); err != nil {
				log.Printf("live feed server: %v", err)
			}
		}()
		closers = append(closers, cancel)
	}

	cfg := app.Config{
		Camera: capture.NewCamera(capture.Config{
			DeviceID: s.device,
			Width:    s.width,
			Height:   s.height,
			FPS:      s.fps,
			Mirror:   s.mirror,
		}),
		Source:         detector.NewSource(mp),
		Sink:           results,
		UserID:         userID,
		Difficulty:     diff,
		RequiredTrials: s.trials,
		Warmup:         session.DefaultWarmup,
		OnEvent:        onEvent,
	}
	if hub != nil {
		// a nil *LiveHub in the interface would still be called
		cfg.Hub = hub
	}
	a, err := app.New(cfg)
	if err != nil {
		closeAll()
		return nil, err
	}

	rig.app = a
	rig.closeAll = func() {
		if err := a.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
		closeAll()
	}
	return rig, nil
}

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run a training session in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runTrainCmd,
	}
	addTrainFlags(cmd, &trainOpts)
	return cmd
}

func runTrainCmd(cmd *cobra.Command, _ []string) error {
	restoreLog, err := tui.RedirectLog(config.DefaultLogPath())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer restoreLog()

	var program *tea.Program
	rig, err := buildRig(cmd.Context(), cmd, &trainOpts, func(e session.Event) {
		if program != nil {
			program.Send(tui.EventMsg(e))
		}
	})
	if err != nil {
		return err
	}
	defer rig.closeAll()

	username := ""
	if rig.user != nil {
		username = rig.user.Username
	}
	model := tui.NewModel(tui.Options{
		Username:   username,
		Difficulty: rig.diff,
		Trials:     trainOpts.trials,
		Start:      rig.app.Start,
		Abort:      rig.app.Abort,
	})
	program = tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	if username == "" {
		logErrf("Trained as guest. Create a user with `neurosprint user create <name>` to keep results.\n")
	}
	return nil
}
