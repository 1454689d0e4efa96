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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/keagan/reelforge/internal/config"
	"github.com/keagan/reelforge/internal/ffmpeg"
	"github.com/keagan/reelforge/internal/logging"
	"github.com/keagan/reelforge/internal/media"
	"github.com/keagan/reelforge/internal/pipeline"
	"github.com/keagan/reelforge/pkg/util"
)

var (
	cfgFile  string
	verbose  bool
	jsonLogs bool
	logFile  string
	seed     int64

	logCloser io.Closer
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reelforge",
	Short: "reelforge - short vertical video assembler",
	Long:  "Assembles narrated vertical videos from a voiceover and pools of clips, images and overlays.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg, err = cfg.ApplyEnv()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = seed
		}

		closer, err := logging.Init(logOptions(cfg))
		if err != nil {
			return err
		}
		logCloser = closer

		if err := cfg.Validate(); err != nil {
			return err
		}

		cmd.SetContext(cfg.WithConfig(cmd.Context()))
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./reelforge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "log as JSON")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")

	addBatchFlags(batchCmd)

	watchCmd.Flags().String("schedule", "", "cron schedule (default: config watch.schedule)")
	watchCmd.Flags().Int("max-workers", 0, "concurrent runs (default: config concurrency)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(configCmd)
}

// logOptions prefers the --log-file flag over the configured log file
func logOptions(cfg *config.Config) logging.Options {
	file := logFile
	if file == "" {
		file = cfg.LogFile
	}
	return logging.Options{
		Verbose: verbose,
		JSON:    jsonLogs,
		File:    file,
	}
}

func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-videos", 0, "process at most this many voiceovers (default: config max_videos)")
	cmd.Flags().Int("max-workers", 0, "concurrent runs (default: config concurrency)")
	cmd.Flags().Bool("basic", false, "disable overlays, intro, outro and transitions")
	cmd.Flags().String("output-dir", "", "output folder override")
	cmd.Flags().String("projects", "", "run every project config in this directory")
}

// batchOptions reads the batch flags, falling back to the config for
// unset ones
func batchOptions(cmd *cobra.Command, cfg *config.Config) pipeline.BatchOptions {
	opts := pipeline.BatchOptions{MaxVideos: cfg.MaxVideos}
	if cmd.Flags().Changed("max-videos") {
		opts.MaxVideos, _ = cmd.Flags().GetInt("max-videos")
	}
	opts.Workers, _ = cmd.Flags().GetInt("max-workers")
	opts.Basic, _ = cmd.Flags().GetBool("basic")
	return opts
}

func newPipeline(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	cfg := config.FromContext(cmd.Context())
	return pipeline.New(log.Logger, cfg)
}

var runCmd = &cobra.Command{
	Use:   "run [voiceover]",
	Short: "Render one video for a voiceover",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := newPipeline(cmd)
		if err != nil {
			return err
		}

		res := pipe.Process(cmd.Context(), args[0])
		report(&pipeline.Summary{Results: []pipeline.Result{res}})
		if !res.Success && !res.Skipped {
			return fmt.Errorf("run failed: %s", res.Reason)
		}
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Render a video for every voiceover",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
			cfg.OutputFolder = dir
		}
		opts := batchOptions(cmd, cfg)

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		var summary *pipeline.Summary
		if projects, _ := cmd.Flags().GetString("projects"); projects != "" {
			summary, err = pipe.BatchProjects(cmd.Context(), cfg, projects, opts)
			if err != nil {
				return err
			}
		} else {
			summary = pipe.Batch(cmd.Context(), pipe.Voiceovers(), opts)
		}

		report(summary)
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d runs failed", summary.Failed, len(summary.Results))
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically render new voiceovers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		schedule, _ := cmd.Flags().GetString("schedule")
		if schedule == "" {
			schedule = cfg.Watch.Schedule
		}
		opts := pipeline.BatchOptions{MaxVideos: cfg.MaxVideos}
		opts.Workers, _ = cmd.Flags().GetInt("max-workers")

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}
		return pipe.Watch(cmd.Context(), schedule, opts)
	},
}

var planCmd = &cobra.Command{
	Use:   "plan [voiceover]",
	Short: "Show the timeline, overlays and engine command without encoding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := newPipeline(cmd)
		if err != nil {
			return err
		}

		plan, err := pipe.Plan(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "voiceover  %s (%.2fs, target %.2fs)\n\n", plan.Voiceover, plan.VoiceoverSecs, plan.Target)

		fmt.Fprintf(out, "timeline   %d segments, %.2fs\n", plan.Timeline.Len(), plan.Timeline.Duration())
		var at float64
		for i, s := range plan.Timeline.Segments {
			trim := "still"
			if s.Trim != nil {
				trim = util.FormatSeconds(s.Trim.Start) + "-" + util.FormatSeconds(s.Trim.End)
			}
			start := util.FormatDuration(time.Duration(at * float64(time.Second)))
			fmt.Fprintf(out, "  %2d %s %-5s %6.2fs %-14s %s\n", i, start, s.Role, s.Duration, trim, s.Asset.Path)
			at += s.Duration
		}

		fmt.Fprintf(out, "\noverlays   %d\n", len(plan.Events))
		for _, e := range plan.Events {
			fmt.Fprintf(out, "  %-16s %6.2f-%-6.2f %-10s %s\n", e.Kind, e.Window.Start, e.Window.End, e.Emotion, e.AssetPath)
		}

		fmt.Fprintf(out, "\ngraph\n%s\n", plan.Graph.String())

		argv, err := ffmpeg.Args(plan.Graph)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\ncommand\n  ffmpeg %s\n", strings.Join(argv, " "))
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe [file]",
	Short: "Print duration and streams of a media file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		exec, err := ffmpeg.New(log.Logger, ffmpeg.Options{
			FFmpegPath:  cfg.FFmpeg.BinaryPath,
			FFprobePath: cfg.FFmpeg.ProbePath,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		info := media.New(log.Logger, exec).Inspect(cmd.Context(), args[0])
		fmt.Fprintf(out, "duration  %.3fs\nvideo     %v\naudio     %v\n", info.Duration, info.HasVideo, info.HasAudio)

		if details, err := exec.ProbeVideo(cmd.Context(), args[0]); err == nil {
			fmt.Fprintf(out, "size      %dx%d @ %.2f fps\n", details.Width, details.Height, details.FPS)
			fmt.Fprintf(out, "codecs    %s / %s\n", details.VideoCodec, details.AudioCodec)
		}
		if info.Duration <= 0 {
			return fmt.Errorf("%s has no usable duration", args[0])
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(config.FromContext(cmd.Context()))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "./reelforge.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}

func report(s *pipeline.Summary) {
	for _, r := range s.Results {
		var evt *zerolog.Event
		switch {
		case r.Skipped:
			evt = log.Info().Str("status", "skipped")
		case r.Success:
			evt = log.Info().Str("status", "ok")
		default:
			evt = log.Error().Str("status", "failed").Str("reason", r.Reason)
		}
		evt.
			Str("voiceover", r.Voiceover).
			Str("output", r.Output).
			Float64("duration", r.Duration).
			Dur("elapsed", r.Elapsed).
			Msg("result")
	}
	if len(s.Results) > 1 {
		log.Info().
			Int("succeeded", s.Succeeded).
			Int("failed", s.Failed).
			Int("skipped", s.Skipped).
			Msg("summary")
	}
}
