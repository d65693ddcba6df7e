package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kamal-hamza/px-cli/internal/adapters/media"
	"github.com/kamal-hamza/px-cli/internal/adapters/repository"
	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
	"github.com/kamal-hamza/px-cli/internal/core/services"
	"github.com/kamal-hamza/px-cli/pkg/config"
	"github.com/kamal-hamza/px-cli/pkg/library"
	"github.com/kamal-hamza/px-cli/pkg/logger"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

var (
	// Global library and configuration
	appLibrary *library.Library
	appConfig  *config.Config
	appLogger  *zap.Logger

	// Root context, cancelled on SIGINT/SIGTERM
	appCtx    context.Context
	appCancel context.CancelFunc

	// Storage
	catalogStore *repository.SQLiteStore
	blobStore    *repository.BlobStore

	// Change stream
	changeNotifier *services.ChangeNotifier

	// Services
	catalogService    *services.CatalogService
	backupService     *services.BackupService
	duplicatesService *services.DuplicatesService
	syncService       *services.SyncService
	moveService       *services.MoveAssetsService
	statsService      *services.StatsService
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "px",
	Short: "PX - A photo and video catalog",
	Long: ui.StyleTitle.Render("PX") + " - Photo Catalog\n\n" +
		"Keeps an incremental catalog of your photo and video folders:\n" +
		"thumbnails, content hashes, duplicates, sync and daily backups.",
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	appCtx, appCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer appCancel()

	err := rootCmd.ExecuteContext(appCtx)
	_ = shutdownApp(rootCmd, nil)
	if err != nil {
		fmt.Println(ui.FormatError(friendlyError(err)))
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(duplicatesCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(dirsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// skipsInitialization lists commands that must run without an opened catalog
func skipsInitialization(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "init", "version", "help":
		return true
	}
	return false
}

// initializeApp initializes the application components
func initializeApp(cmd *cobra.Command, args []string) error {
	if skipsInitialization(cmd) {
		return nil
	}

	lib, err := library.New()
	if err != nil {
		return fmt.Errorf("failed to determine library location: %w", err)
	}
	appLibrary = lib

	if !appLibrary.Exists() {
		fmt.Println(ui.FormatError("Library not initialized"))
		fmt.Println(ui.FormatInfo("Run 'px init' to initialize the library"))
		os.Exit(1)
	}

	cfg, err := config.Load(appLibrary.ConfigPath)
	if err != nil {
		return err
	}
	appConfig = cfg
	ui.SetTheme(appConfig.ColorTheme)

	log, err := logger.New(logger.Options{
		File:      appLibrary.LogFilePath(),
		Level:     appConfig.LogLevel,
		MaxSizeMB: appConfig.LogMaxSizeMB,
		MaxFiles:  appConfig.LogMaxFiles,
	})
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	appLogger = log.With(zap.String("command", cmd.CommandPath()))

	// Initialize storage
	store, err := repository.OpenSQLiteStore(getContext(), appLibrary.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	catalogStore = store
	blobStore = repository.NewBlobStore(appLibrary.BlobsPath)
	archive := repository.NewZipBackupArchive(appLibrary.BackupsPath)

	// Initialize media analysis
	var extractor ports.FrameExtractor
	if appConfig.AnalyseVideos {
		ffmpeg := media.NewFFmpegExtractor(appConfig.FFmpegPath)
		if ffmpeg.IsAvailable() {
			extractor = ffmpeg
		} else {
			appLogger.Warn("ffmpeg not found, videos will have no thumbnails", zap.String("ffmpeg_path", appConfig.FFmpegPath))
		}
	}
	analyzer := media.NewAnalyzer(media.AnalyzerOptions{
		ThumbnailMaxWidth:  appConfig.ThumbnailMaxWidth,
		ThumbnailMaxHeight: appConfig.ThumbnailMaxHeight,
		ThumbnailQuality:   appConfig.ThumbnailQuality,
		AnalyseVideos:      appConfig.AnalyseVideos,
	}, extractor, appLogger)

	changeNotifier = services.NewChangeNotifier()

	// Initialize services
	backupService = services.NewBackupService(
		catalogStore, blobStore, archive, changeNotifier,
		services.BackupPaths{
			DatabasePath: appLibrary.DatabasePath(),
			BlobsDir:     appLibrary.BlobsPath,
			WorkDir:      appLibrary.CachePath,
		},
		appConfig.BackupsToKeep, appLogger,
	)
	catalogService = services.NewCatalogService(
		catalogStore, blobStore, analyzer, changeNotifier,
		services.NewFolderScanner(appLibrary.RootPath),
		backupService, appLogger,
	)
	duplicatesService = services.NewDuplicatesService(catalogStore, blobStore, changeNotifier, appLogger)
	syncService = services.NewSyncService(catalogStore, appLogger)
	moveService = services.NewMoveAssetsService(catalogStore, blobStore, changeNotifier, appLogger)
	statsService = services.NewStatsService(catalogStore, catalogStore)

	return nil
}

// shutdownApp flushes pending thumbnails and releases the catalog.
// It is safe to call more than once.
func shutdownApp(cmd *cobra.Command, args []string) error {
	var errs []error
	if blobStore != nil {
		errs = append(errs, blobStore.FlushAll())
	}
	if changeNotifier != nil {
		changeNotifier.Close()
		changeNotifier = nil
	}
	if catalogStore != nil {
		errs = append(errs, catalogStore.Close())
		catalogStore = nil
	}
	if appLogger != nil {
		_ = appLogger.Sync()
	}
	return errors.Join(errs...)
}

// getContext returns a context for operations
func getContext() context.Context {
	if appCtx == nil {
		return context.Background()
	}
	return appCtx
}

// catalogRequest builds a catalog request from the loaded configuration
func catalogRequest() services.CatalogRequest {
	return services.CatalogRequest{
		Roots:      appConfig.AssetDirectories,
		BatchSize:  appConfig.CatalogBatchSize,
		MaxWorkers: appConfig.MaxWorkers,
	}
}

// friendlyError turns sentinel errors into short user-facing messages
func friendlyError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "Operation cancelled"
	case errors.Is(err, domain.ErrAssetExists):
		return "A file with that name already exists at the destination: " + err.Error()
	case errors.Is(err, domain.ErrSameFolder):
		return "Destination is the folder the asset already lives in"
	case errors.Is(err, domain.ErrInvalidSyncDefinition):
		return err.Error()
	case errors.Is(err, domain.ErrBackupNotFound):
		return "Backup not found (see 'px backup list')"
	case errors.Is(err, domain.ErrBackupCorrupt):
		return "Backup archive is corrupt; the library was left untouched"
	case errors.Is(err, domain.ErrAssetNotFound):
		return "Asset is not in the catalog (run 'px catalog' first)"
	}
	return err.Error()
}
