package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/neurosprint/internal/config"
	"github.com/ayusman/neurosprint/internal/gesture"
	"github.com/ayusman/neurosprint/internal/session"
	"github.com/ayusman/neurosprint/internal/trainer"
	"github.com/ayusman/neurosprint/internal/tray"
	"github.com/ayusman/neurosprint/internal/tui"
)

const syncInterval = 15 * time.Second

var trayOpts trainSettings

func newTrayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tray",
		Short: "Run the trainer from the system tray",
		Args:  cobra.NoArgs,
		RunE:  runTrayCmd,
	}
	addTrainFlags(cmd, &trayOpts)
	return cmd
}

func runTrayCmd(cmd *cobra.Command, _ []string) error {
	restoreLog, err := tui.RedirectLog(config.DefaultLogPath())
	if err != nil {
		return err
	}
	defer restoreLog()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	t := tray.New()
	rig, err := buildRig(ctx, cmd, &trayOpts, func(e session.Event) {
		trayEvent(t, e)
	})
	if err != nil {
		return err
	}
	defer rig.closeAll()

	t.OnStart(func() {
		if err := rig.app.Start(); err != nil {
			log.Printf("Failed to start session: %v", err)
			t.SetRunning(false)
			t.SetStatus("Error: " + err.Error())
		}
	})
	t.OnAbort(rig.app.Abort)
	t.OnQuit(func() {
		cancel()
		rig.app.Abort()
	})

	if rig.user == nil {
		t.SetStatus("Guest: results are not saved")
	} else {
		t.SetStatus("Ready: " + rig.user.Username)
	}

	if rig.replica != nil {
		go syncLoop(ctx, rig, t)
	}

	t.Run()
	return nil
}

func trayEvent(t *tray.Tray, e session.Event) {
	switch e.Kind {
	case session.EventStarted:
		t.SetRunning(true)
		t.SetStatus("Get ready")
	case session.EventNeutralPrompt:
		t.SetStatus("Raise your index finger")
	case session.EventRoundStarted:
		if e.Round != nil {
			t.SetStatus(roundPrompt(e.Round))
		}
	case session.EventAttempt:
		if e.Correct {
			t.SetLastReaction(e.ReactionMs)
		}
	case session.EventCompleted:
		t.SetRunning(false)
		t.SetStatus("Completed, saving")
	case session.EventAborted:
		t.SetRunning(false)
		t.SetStatus("Aborted")
	case session.EventSaved:
		t.SetStatus("Saved")
	case session.EventSaveFailed:
		t.SetStatus("Save failed: " + e.Error)
	}
}

func roundPrompt(r *trainer.RoundSpec) string {
	verb := "BEATS"
	if r.Polarity == gesture.Lose {
		verb = "LOSES TO"
	}
	return fmt.Sprintf("%s %s: show what %s it", r.Target.Emoji(), strings.ToUpper(string(r.Target)), verb)
}

func syncLoop(ctx context.Context, rig *trainerRig, t *tray.Tray) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()
	for {
		if _, err := rig.replica.SyncPending(ctx); err != nil {
			log.Printf("sync: %v", err)
		}
		if pending, err := rig.store.Sessions().ListUnsynced(ctx); err == nil {
			t.SetSync(rig.replica.Online(), len(pending))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
