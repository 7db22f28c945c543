package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/szmania/mega-manager/internal/compress"
	"github.com/szmania/mega-manager/internal/history"
	"github.com/szmania/mega-manager/internal/logger"
	"github.com/szmania/mega-manager/internal/megatools"
	"github.com/szmania/mega-manager/internal/store"
	"github.com/szmania/mega-manager/internal/task"
	"github.com/szmania/mega-manager/internal/transcoder"
)

var (
	flagDownload         bool
	flagUpload           bool
	flagRemoveRemote     bool
	flagRemoveIncomplete bool
	flagCompressAll      bool
	flagCompressImages   bool
	flagCompressVideos   bool
	flagTimeout          time.Duration
	flagDownSpeed        int
	flagUpSpeed          int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the selected maintenance tasks over every configured profile.",
	Long: `run always refreshes account details (space figures and per-mapping remote
usage) and exports them once the last detail-gathering worker finishes. The
flags enable the optional tasks; with no flags only the details are refreshed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if flagDownSpeed > 0 {
			cfg.DownSpeedLimit = flagDownSpeed
		}
		if flagUpSpeed > 0 {
			cfg.UpSpeedLimit = flagUpSpeed
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return err
		}
		if logFile == "" {
			if _, err := logger.TeeToFile(filepath.Join(cfg.DataDir, "megamanager.log")); err != nil {
				logger.Warning("Could not open log file: %v", err)
			}
		}

		sets := compress.Sets{
			CompressedImages: store.Open(filepath.Join(cfg.DataDir, "compressed_images.gz")),
			UnableImages:     store.Open(filepath.Join(cfg.DataDir, "unable_images.gz")),
			CompressedVideos: store.Open(filepath.Join(cfg.DataDir, "compressed_videos.gz")),
			UnableVideos:     store.Open(filepath.Join(cfg.DataDir, "unable_videos.gz")),
		}
		removed := store.Open(filepath.Join(cfg.DataDir, "removed_remote.gz"))

		hist, err := history.Open(filepath.Join(cfg.DataDir, "history.db"))
		if err != nil {
			logger.Warning("Run history unavailable: %v", err)
			hist = nil
		} else {
			defer hist.Close()
		}

		features := task.Features{
			Download:         flagDownload,
			Upload:           flagUpload,
			RemoveRemote:     flagRemoveRemote,
			RemoveIncomplete: flagRemoveIncomplete,
			CompressImages:   flagCompressAll || flagCompressImages,
			CompressVideos:   flagCompressAll || flagCompressVideos,
		}

		client := megatools.New(cfg.MegatoolsDir, cfg.DownSpeedLimit, cfg.UpSpeedLimit)
		trans := transcoder.New(cfg.FFmpegPath, cfg.ImageToolPath)

		task.NewManager(cfg, client, trans, sets, removed, hist, features, flagTimeout).Run()
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&flagDownload, "download", false, "Download remote files into the mapped local directories")
	runCmd.Flags().BoolVar(&flagUpload, "upload", false, "Upload local files into the mapped remote directories")
	runCmd.Flags().BoolVar(&flagRemoveRemote, "remove-remote", false, "Delete remote files that no longer exist locally")
	runCmd.Flags().BoolVar(&flagRemoveIncomplete, "remove-incomplete", false, "Delete local files whose download never finished")
	runCmd.Flags().BoolVar(&flagCompressAll, "compress-all", false, "Re-encode both images and videos")
	runCmd.Flags().BoolVar(&flagCompressImages, "compress-images", false, "Re-encode images to reclaim space")
	runCmd.Flags().BoolVar(&flagCompressVideos, "compress-videos", false, "Re-encode videos to reclaim space")
	runCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "Stop waiting for workers after this duration (0 waits forever)")
	runCmd.Flags().IntVar(&flagDownSpeed, "down-speed", 0, "Download speed limit in KiB/s, overrides the config")
	runCmd.Flags().IntVar(&flagUpSpeed, "up-speed", 0, "Upload speed limit in KiB/s, overrides the config")
}
