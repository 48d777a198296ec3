package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jsayram/life-wrapped-sub005/internal/domain"
	"github.com/jsayram/life-wrapped-sub005/internal/engine"
	"github.com/jsayram/life-wrapped-sub005/internal/service"
	"github.com/jsayram/life-wrapped-sub005/internal/stats"
	"github.com/jsayram/life-wrapped-sub005/internal/storage"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [audio files...]",
	Short: "Transcribe one or more audio files sequentially",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTranscribe,
}

func init() {
	transcribeCmd.Flags().String("locale", "", "locale tag for recognition (default from config)")
	transcribeCmd.Flags().Duration("duration", 0, "expected audio duration per file, bounds the hard timeout")
	transcribeCmd.Flags().Int("max-retries", -1, "retries per job (-1 uses the configured default)")
	transcribeCmd.Flags().Duration("retry-delay", 0, "delay between retries (0 uses the configured default)")
}

// runTranscribe executes a batch over the given audio files.
func runTranscribe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	locale, _ := cmd.Flags().GetString("locale")
	duration, _ := cmd.Flags().GetDuration("duration")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	retryDelay, _ := cmd.Flags().GetDuration("retry-delay")

	retry := domain.RetryPolicy{MaxRetries: cfg.Retry.MaxRetries, Delay: cfg.Retry.Delay}
	if maxRetries >= 0 {
		retry.MaxRetries = maxRetries
	}
	if retryDelay > 0 {
		retry.Delay = retryDelay
	}

	rec := engine.NewWhisperCLI(cfg.Engine.FFmpegPath, cfg.Engine.WhisperPath, cfg.Engine.ModelPath, logger)
	if err := rec.Check(); err != nil {
		return err
	}

	var store storage.Store
	memory := storage.NewMemory()
	store = memory
	if cfg.PostgresDSN != "" {
		pg, err := storage.NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pg.Close()
		store = pg
		memory = nil
	}

	svc := service.New(cfg, rec, store, logger)

	batch := make([]domain.TranscriptionJob, 0, len(args))
	for _, path := range args {
		batch = append(batch, domain.TranscriptionJob{
			AudioPath:        path,
			Locale:           locale,
			ExpectedDuration: duration,
			Retry:            retry,
		})
	}

	count, err := svc.TranscribeBatch(ctx, batch, func(completed, total int) {
		logger.Info("progress", "completed", completed, "total", total)
	})

	if memory != nil {
		for _, utterance := range memory.All() {
			fmt.Println(utterance.Text)
		}
	}
	renderStats(svc.Stats())

	if err != nil {
		return err
	}
	logger.Info("batch finished", "utterances", count)
	return nil
}

// renderStats prints the session statistics table.
func renderStats(snap stats.Snapshot) {
	table := tablewriter.NewWriter(os.Stderr)
	table.SetHeader([]string{"Jobs", "Utterances", "Success rate", "Avg utterances/job", "Avg processing time"})
	table.Append([]string{
		fmt.Sprintf("%d", snap.TotalJobsProcessed),
		fmt.Sprintf("%d", snap.TotalUtterancesProduced),
		fmt.Sprintf("%.0f%%", snap.SuccessRate*100),
		fmt.Sprintf("%.1f", snap.AverageUtterancesPerJob),
		snap.AverageProcessingTime.Round(time.Millisecond).String(),
	})
	table.Render()
}
