package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// stderrTailLines is how much engine output is kept for failure reports
const stderrTailLines = 20

// Options locates the engine binaries
type Options struct {
	FFmpegPath  string
	FFprobePath string
}

// Executor handles all ffmpeg operations with progress streaming
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
}

// New creates a new ffmpeg executor. Both binaries must be resolvable.
func New(logger zerolog.Logger, opts Options) (*Executor, error) {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}

	ffmpegPath, err := exec.LookPath(opts.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	ffprobePath, err := exec.LookPath(opts.FFprobePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}, nil
}

// RunError is returned when the engine exits unsuccessfully
type RunError struct {
	Err  error
	Tail []string
}

func (e *RunError) Error() string {
	if len(e.Tail) == 0 {
		return fmt.Sprintf("ffmpeg execution failed: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg execution failed: %v: %s", e.Err, strings.Join(e.Tail, " | "))
}

func (e *RunError) Unwrap() error { return e.Err }

// Run executes ffmpeg with the given arguments and streams progress
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return fmt.Errorf("no arguments provided")
	}

	baseArgs := []string{"-y", "-hide_banner", "-loglevel", "info", "-nostats", "-progress", "pipe:2"}
	args := append(baseArgs, opts.Args...)

	e.logger.Debug().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	tail := newTail(stderrTailLines)

	var wg sync.WaitGroup
	wg.Add(2)

	// Stream stderr (progress + logs)
	go func() {
		defer wg.Done()
		streamOutput(stderr, opts.TotalDuration, opts.ProgressHandler, func(line string) {
			tail.add(line)
			if opts.LogHandler != nil {
				opts.LogHandler(line)
			}
		})
	}()

	// Stream stdout
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if opts.LogHandler != nil {
				opts.LogHandler(scanner.Text())
			}
		}
	}()

	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		return &RunError{Err: err, Tail: tail.lines()}
	}

	e.logger.Debug().Msg("ffmpeg execution completed")
	return nil
}

// streamOutput parses -progress key=value blocks and forwards every other
// line to logHandler.
func streamOutput(r io.Reader, total time.Duration, progressHandler func(*Progress), logHandler func(string)) {
	scanner := bufio.NewScanner(r)
	progressData := &Progress{}

	for scanner.Scan() {
		line := scanner.Text()
		key, value, isKV := strings.Cut(line, "=")
		value = strings.TrimSpace(value)

		switch {
		case isKV && key == "frame":
			fmt.Sscanf(value, "%d", &progressData.Frame)
		case isKV && key == "fps":
			fmt.Sscanf(value, "%f", &progressData.FPS)
		case isKV && key == "bitrate":
			progressData.Bitrate = value
		case isKV && key == "out_time":
			progressData.Time = value
		case isKV && key == "out_time_us":
			var us int64
			if _, err := fmt.Sscanf(value, "%d", &us); err == nil && total > 0 {
				progressData.Percentage = 100 * float64(us) / float64(total.Microseconds())
				if progressData.Percentage > 100 {
					progressData.Percentage = 100
				}
			}
		case isKV && key == "speed":
			progressData.Speed = value
		case isKV && key == "progress":
			// End of progress block
			if progressHandler != nil && progressData.Frame > 0 {
				progressHandler(progressData)
			}
			progressData = &Progress{}
		case isKV && isProgressKey(key):
		default:
			if logHandler != nil {
				logHandler(line)
			}
		}
	}
}

func isProgressKey(key string) bool {
	switch key {
	case "stream_0_0_q", "total_size", "out_time_ms", "dup_frames", "drop_frames":
		return true
	}
	return false
}

// tail keeps the last n lines written to it
type tail struct {
	mu  sync.Mutex
	buf []string
	max int
}

func newTail(max int) *tail {
	return &tail{max: max}
}

func (t *tail) add(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, line)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
}

func (t *tail) lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.buf...)
}
