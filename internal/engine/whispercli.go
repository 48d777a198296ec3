package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/jsayram/life-wrapped-sub005/internal/domain"
)

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts blocking process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// segmentStreamer abstracts line-streaming process execution for testability.
type segmentStreamer interface {
	Stream(ctx context.Context, name string, args ...string) (<-chan string, func() error, error)
}

// execStreamer starts a command and streams its stdout line by line.
type execStreamer struct{}

// Stream launches the command and returns a line channel plus a wait func.
func (s *execStreamer) Stream(ctx context.Context, name string, args ...string) (<-chan string, func() error, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	wait := func() error {
		if err := cmd.Wait(); err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg != "" {
				return fmt.Errorf("%s: %w: %s", name, err, msg)
			}
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
	return lines, wait, nil
}

// segmentLine matches one whisper.cpp decoded segment on stdout.
var segmentLine = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}[.,]\d{3} --> \d{2}:\d{2}:\d{2}[.,]\d{3}\]\s*(.+)$`)

// WhisperCLI recognizes audio by shelling out to ffmpeg and whisper.cpp,
// emitting one final event per decoded segment.
type WhisperCLI struct {
	ffmpegPath  string
	whisperPath string
	modelPath   string
	runner      commandRunner
	streamer    segmentStreamer
	stat        func(name string) (os.FileInfo, error)
	lookPath    func(file string) (string, error)
	mkdirTemp   func(dir, pattern string) (string, error)
	removeAll   func(path string) error
	log         *log.Logger
}

// NewWhisperCLI constructs the production engine with OS dependencies.
func NewWhisperCLI(ffmpegPath, whisperPath, modelPath string, logger *log.Logger) *WhisperCLI {
	return &WhisperCLI{
		ffmpegPath:  ffmpegPath,
		whisperPath: whisperPath,
		modelPath:   modelPath,
		runner:      &execRunner{},
		streamer:    &execStreamer{},
		stat:        os.Stat,
		lookPath:    exec.LookPath,
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
		log:         logger,
	}
}

// Check verifies the engine binaries and model are usable.
func (w *WhisperCLI) Check() error {
	if _, err := w.lookPath(w.ffmpegPath); err != nil {
		return domain.NewError(domain.ErrorKindEngineUnavailable, fmt.Sprintf("ffmpeg not found: %s", w.ffmpegPath), err)
	}
	if _, err := w.lookPath(w.whisperPath); err != nil {
		return domain.NewError(domain.ErrorKindEngineUnavailable, fmt.Sprintf("whisper binary not found: %s", w.whisperPath), err)
	}
	if strings.TrimSpace(w.modelPath) == "" {
		return domain.NewError(domain.ErrorKindEngineUnavailable, "model path is required", nil)
	}
	if _, err := w.stat(w.modelPath); err != nil {
		return domain.NewError(domain.ErrorKindEngineUnavailable, fmt.Sprintf("cannot access model: %s", w.modelPath), err)
	}
	return nil
}

// Start preprocesses the audio and streams decoded segments as final events.
func (w *WhisperCLI) Start(ctx context.Context, audioPath, locale string) (<-chan Event, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, domain.NewError(domain.ErrorKindAudioNotFound, "audio path is required", nil)
	}
	if _, err := w.stat(audioPath); err != nil {
		return nil, domain.NewError(domain.ErrorKindAudioNotFound, fmt.Sprintf("cannot access audio: %s", audioPath), err)
	}
	if err := w.Check(); err != nil {
		return nil, err
	}

	tempDir, err := w.mkdirTemp("", "transcriber-*")
	if err != nil {
		return nil, domain.NewError(domain.ErrorKindRecognitionFailed, "failed to create temporary workspace", err)
	}

	wavPath := filepath.Join(tempDir, "preprocessed-16k-mono.wav")
	args := buildFFmpegArgs(audioPath, wavPath)
	if _, err := w.runner.Run(ctx, w.ffmpegPath, args...); err != nil {
		_ = w.removeAll(tempDir)
		if ctx.Err() != nil {
			return nil, domain.NewError(domain.ErrorKindCancelled, "job cancelled", ctx.Err())
		}
		return nil, domain.NewError(domain.ErrorKindInvalidAudioFormat, "ffmpeg audio conversion failed", err)
	}

	whisperArgs := buildWhisperArgs(w.modelPath, wavPath, locale)
	lines, wait, err := w.streamer.Stream(ctx, w.whisperPath, whisperArgs...)
	if err != nil {
		_ = w.removeAll(tempDir)
		return nil, domain.NewError(domain.ErrorKindRecognitionFailed, "failed to start whisper", err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer func() {
			_ = w.removeAll(tempDir)
		}()

		cancelled := false
		for line := range lines {
			text, ok := parseSegmentLine(line)
			if !ok {
				continue
			}
			if w.log != nil {
				w.log.Debug("segment decoded", "audio", audioPath, "text", text)
			}
			select {
			case <-ctx.Done():
				cancelled = true
			case events <- Final(text):
			}
			if cancelled {
				break
			}
		}

		// Reap the child on every exit path. After cancellation the
		// kill-induced wait error carries no signal.
		err := wait()
		if cancelled || ctx.Err() != nil {
			return
		}
		if err != nil {
			events <- Failure(domain.NewError(domain.ErrorKindRecognitionFailed, "whisper transcription failed", err))
		}
	}()

	return events, nil
}

// parseSegmentLine extracts decoded text from one whisper stdout line.
func parseSegmentLine(line string) (string, bool) {
	match := segmentLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if match == nil {
		return "", false
	}
	text := strings.TrimSpace(match[1])
	if text == "" {
		return "", false
	}
	return text, true
}

// whisperLanguage maps a BCP-47 locale tag to a whisper language code.
func whisperLanguage(locale string) string {
	lang := strings.TrimSpace(locale)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return strings.ToLower(lang)
}

// buildFFmpegArgs builds preprocessing CLI args for mono 16k PCM WAV output.
func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

// buildWhisperArgs builds whisper.cpp args for segment output on stdout.
func buildWhisperArgs(modelPath, audioPath, locale string) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
	}
	if lang := whisperLanguage(locale); lang != "" {
		args = append(args, "-l", lang)
	}
	return args
}

// NewWhisperCLIForTests constructs an engine with injectable dependencies.
func NewWhisperCLIForTests(
	ffmpegPath string,
	whisperPath string,
	modelPath string,
	runner commandRunner,
	streamer segmentStreamer,
	stat func(name string) (os.FileInfo, error),
	lookPath func(file string) (string, error),
) *WhisperCLI {
	return &WhisperCLI{
		ffmpegPath:  ffmpegPath,
		whisperPath: whisperPath,
		modelPath:   modelPath,
		runner:      runner,
		streamer:    streamer,
		stat:        stat,
		lookPath:    lookPath,
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
	}
}
