package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"

	"github.com/spf13/cobra"

	"github.com/justestif/go-moodtunes/internal/capture"
	"github.com/justestif/go-moodtunes/internal/config"
	"github.com/justestif/go-moodtunes/internal/db"
	"github.com/justestif/go-moodtunes/internal/emotion"
	"github.com/justestif/go-moodtunes/internal/history"
	"github.com/justestif/go-moodtunes/internal/model"
	"github.com/justestif/go-moodtunes/internal/songs"
	"github.com/justestif/go-moodtunes/internal/spotify"
	"github.com/justestif/go-moodtunes/internal/vision"
	"github.com/justestif/go-moodtunes/internal/web"
	"github.com/justestif/go-moodtunes/internal/youtube"
	webfs "github.com/justestif/go-moodtunes/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `Run the MoodTunes web server.

The emotion model is loaded from MODEL_PATH; when it is missing or does not
match the expected shape, an untrained model is created in its place.

Example:
  moodtunes serve --addr 0.0.0.0:5000 --cascade /usr/share/opencv4/haarcascades/haarcascade_frontalface_default.xml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides ADDR)")
	serveCmd.Flags().String("model", "", "Emotion model file (overrides MODEL_PATH)")
	serveCmd.Flags().String("cascade", "", "Haar cascade XML (overrides CASCADE_PATH)")
	serveCmd.Flags().Int("min-face", 0, "Ignore faces smaller than this many pixels")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)

	net, origin, err := model.LoadOrCreate(cfg.ModelPath, emotion.LabelNames())
	if err != nil {
		return fmt.Errorf("preparing emotion model: %w", err)
	}

	minFace, _ := cmd.Flags().GetInt("min-face")
	detector, err := vision.NewCascadeDetector(cfg.CascadePath, vision.WithMinSize(minFace))
	if err != nil {
		return err
	}
	defer detector.Close()

	captureSvc := capture.NewService(detector, emotion.NewClassifier(net),
		capture.WithFacePolicy(cfg.Policy()),
		capture.WithMaxPixels(cfg.MaxPixels),
	)

	searcher, err := newSearcher(ctx, cfg)
	if err != nil {
		return err
	}
	if cfg.SearchCacheTTL > 0 {
		searcher = songs.NewCachedSearcher(searcher, cfg.SearchCacheTTL,
			songs.WithMaxEntries(cfg.SearchCacheSize),
		)
	}
	songSvc := songs.NewService(searcher, songs.WithTimeout(cfg.SearchTimeout))

	store, closeStore, err := newHistoryStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:         cfg.Addr,
		TemplatesFS:  templates,
		StaticFS:     static,
		Capture:      captureSvc,
		Songs:        songSvc,
		History:      store,
		Provider:     cfg.SearchProvider,
		ModelOrigin:  string(origin),
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run(ctx)
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.Addr = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.ModelPath = v
	}
	if v, _ := cmd.Flags().GetString("cascade"); v != "" {
		cfg.CascadePath = v
	}
}

// newSearcher builds the configured song provider. A missing YouTube key
// only disables results; Spotify credentials are checked up front.
func newSearcher(ctx context.Context, cfg *config.Config) (songs.Searcher, error) {
	if cfg.UseSpotify() {
		client, err := spotify.NewWithCredentials(ctx, cfg.SpotifyID, cfg.SpotifySecret)
		if err != nil {
			return nil, fmt.Errorf("connecting to Spotify: %w", err)
		}
		log.Println("Song search provider: Spotify")
		return client, nil
	}

	if cfg.YouTubeAPIKey == "" {
		log.Printf("Warning: %v; song searches will return no results", youtube.ErrMissingAPIKey)
	}
	log.Println("Song search provider: YouTube")
	return youtube.NewClient(&youtube.Config{APIKey: cfg.YouTubeAPIKey}), nil
}

// newHistoryStore returns a PostgreSQL store when DATABASE_URL is set and
// an in-memory one otherwise.
func newHistoryStore(ctx context.Context, cfg *config.Config) (history.Store, func(), error) {
	if !cfg.HasDatabase() {
		return history.NewMemoryStore(cfg.HistorySize), func() {}, nil
	}

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}

	store := history.NewDBStore(database)
	if err := store.Prune(ctx, cfg.HistorySize); err != nil {
		log.Printf("Error pruning history: %v", err)
	}

	log.Println("History stored in PostgreSQL")
	return store, database.Close, nil
}
