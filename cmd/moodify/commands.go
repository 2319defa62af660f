package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/justestif/go-spotify-moodify/internal/config"
	"github.com/justestif/go-spotify-moodify/internal/pipeline"
	"github.com/justestif/go-spotify-moodify/internal/scrape"
	"github.com/justestif/go-spotify-moodify/internal/web"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	debug   bool
	json    bool
	dataDir string
}

// newRootCmd returns the root command and a cleanup func that releases what
// the executed subcommand opened.
func newRootCmd() (*cobra.Command, func()) {
	flags := &rootFlags{}
	var a *app

	root := &cobra.Command{
		Use:           "moodify",
		Short:         "Build mood-matched playlists from your Spotify history and song lyrics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if flags.dataDir != "" {
				cfg.DataDir = flags.dataDir
			}
			a, err = newApp(cfg, flags.debug)
			return err
		},
	}

	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&flags.json, "json", false, "print results as JSON")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (overrides MOODIFY_DATA_DIR)")

	// Subcommands read the app through this getter; it is set in PersistentPreRunE.
	get := func() *app { return a }
	root.AddCommand(
		cmdServe(get),
		cmdRecent(get, flags),
		cmdMood(get, flags),
		cmdRecommend(get, flags),
		cmdPlaylist(get, flags),
		cmdScrape(get, flags),
		cmdHistory(get, flags),
		cmdLogout(get),
	)

	cleanup := func() {
		if a != nil {
			a.Close()
		}
	}
	return root, cleanup
}

func cmdServe(get func() *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			ctx := cmd.Context()

			p, err := a.newPipeline(ctx, a.cfg.SpotifyConfigured())
			if err != nil {
				if !isUnavailable(err) {
					return err
				}
				a.logger.Warn("serving without Spotify", zap.Error(err))
				if p, err = a.newPipeline(ctx, false); err != nil {
					return err
				}
			}

			if addr == "" {
				addr = a.cfg.Addr
			}
			server := web.NewServer(web.ServerConfig{Addr: addr, Pipeline: p, Logger: a.logger})
			return server.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides MOODIFY_ADDR)")
	return cmd
}

func cmdRecent(get func() *app, flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Fetch recently played tracks and attach cleaned lyrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			p, err := a.newPipeline(cmd.Context(), true)
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = a.cfg.RecentLimit
			}

			result, err := p.RunRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.json {
				return printJSON(out, result)
			}
			printRecent(out, result)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of tracks (1-50, default MOODIFY_RECENT_LIMIT)")
	return cmd
}

func cmdMood(get func() *app, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mood",
		Short: "Classify the saved lyrics and report the overall mood",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := get().newPipeline(cmd.Context(), false)
			if err != nil {
				return err
			}

			result, err := p.AnalyzeMood(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.json {
				return printJSON(out, result)
			}
			printMood(out, result)
			return nil
		},
	}
}

func cmdRecommend(get func() *app, flags *rootFlags) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend library tracks matching the current mood",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			p, err := a.newPipeline(cmd.Context(), false)
			if err != nil {
				return err
			}
			if k <= 0 {
				k = a.cfg.RecommendK
			}

			rec, err := p.Recommend(cmd.Context(), k)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.json {
				return printJSON(out, rec)
			}
			printRecommendation(out, rec)
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "count", "k", 0, "number of tracks (default MOODIFY_RECOMMEND_K)")
	return cmd
}

func cmdPlaylist(get func() *app, flags *rootFlags) *cobra.Command {
	var (
		fromMood    bool
		name        string
		description string
		k           int
	)
	cmd := &cobra.Command{
		Use:   "playlist",
		Short: "Create a private Spotify playlist from recent tracks or mood recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			p, err := a.newPipeline(cmd.Context(), true)
			if err != nil {
				return err
			}

			var result *pipeline.PlaylistResult
			if fromMood {
				if k <= 0 {
					k = a.cfg.RecommendK
				}
				result, err = p.CreateMoodPlaylist(cmd.Context(), name, description, k)
			} else {
				result, err = p.CreatePlaylistFromRecent(cmd.Context(), name, description)
			}

			out := cmd.OutOrStdout()
			if result != nil {
				if flags.json {
					if perr := printJSON(out, result); perr != nil {
						return perr
					}
				} else {
					printPlaylist(out, result)
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&fromMood, "mood", false, "fill the playlist with mood recommendations instead of recent tracks")
	cmd.Flags().StringVar(&name, "name", "", "playlist name")
	cmd.Flags().StringVar(&description, "description", "", "playlist description")
	cmd.Flags().IntVarP(&k, "count", "k", 0, "number of recommendations with --mood (default MOODIFY_RECOMMEND_K)")
	return cmd
}

func cmdScrape(get func() *app, flags *rootFlags) *cobra.Command {
	var (
		output          string
		checkpointEvery int
		maxTracks       int
	)
	cmd := &cobra.Command{
		Use:   "scrape <input.jsonl>",
		Short: "Fetch raw lyrics for a JSON-lines track list, resuming from earlier output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if _, err := a.cfg.Genius(); err != nil {
				return err
			}
			fetcher, err := a.fetcher()
			if err != nil {
				return err
			}

			input := args[0]
			if output == "" {
				output = scrapeOutput(input)
			}

			opts := []scrape.Option{
				scrape.WithLimiter(rate.NewLimiter(rate.Limit(a.cfg.LyricsRPS), 1)),
				scrape.WithCheckpointEvery(checkpointEvery),
				scrape.WithMaxTracks(maxTracks),
				scrape.WithLogger(a.logger),
			}
			if runs := a.runRecorder(cmd.Context()); runs != nil {
				opts = append(opts, scrape.WithRunRecorder(runs))
			}

			result, err := scrape.New(fetcher, opts...).Run(cmd.Context(), input, output)
			if result != nil {
				out := cmd.OutOrStdout()
				if flags.json {
					if perr := printJSON(out, result); perr != nil {
						return perr
					}
				} else {
					fmt.Fprintf(out, "Fetched %d tracks (%d with lyrics, %d failed), skipped %d already saved.\n",
						result.Fetched, result.Succeeded, result.Failed, result.Skipped)
					fmt.Fprintf(out, "%d records saved to %s\n", result.Total, filepath.Clean(output))
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output CSV (default tracks_with_lyrics.csv next to the input)")
	cmd.Flags().IntVar(&checkpointEvery, "checkpoint-every", scrape.DefaultCheckpointEvery, "save progress every N records")
	cmd.Flags().IntVar(&maxTracks, "max", 0, "stop once the output holds this many records (0 for no limit)")
	return cmd
}

func cmdHistory(get func() *app, flags *rootFlags) *cobra.Command {
	var (
		limit int
		runID string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, or the tracks of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			runs, err := get().runHistory(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if runID != "" {
				id, err := uuid.Parse(runID)
				if err != nil {
					return fmt.Errorf("invalid run ID %q: %w", runID, err)
				}
				run, err := runs.Get(ctx, id)
				if err != nil {
					return fmt.Errorf("loading run %s: %w", id, err)
				}
				tracks, err := runs.Tracks(ctx, id)
				if err != nil {
					return err
				}
				if flags.json {
					return printJSON(out, map[string]any{"run": run, "tracks": tracks})
				}
				printRun(out, run, tracks)
				return nil
			}

			recent, err := runs.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(out, recent)
			}
			printRuns(out, recent)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "show the tracks of this run")
	return cmd
}

func cmdLogout(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the cached Spotify token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			authenticator, err := get().authenticator()
			if err != nil {
				return err
			}
			if err := authenticator.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
