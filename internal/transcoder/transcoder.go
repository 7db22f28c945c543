// Package transcoder wraps the external media re-encoders: ffmpeg for video
// and the image-compressor tool for images.
package transcoder

import (
	"os/exec"

	"github.com/szmania/mega-manager/internal/api"
	"github.com/szmania/mega-manager/internal/logger"
)

// BackupSuffix is appended by the image tool to the pre-compression copy it
// leaves behind. Its presence after a run is the success signal.
const BackupSuffix = ".compressimages-backup"

// FFmpegProcessName is used at teardown to kill stray encoder processes.
const FFmpegProcessName = "ffmpeg"

// External invokes the configured executables as blocking child processes.
type External struct {
	ffmpegPath    string
	imageToolPath string

	// run executes a tool and reports its exit status. Swappable in tests.
	run func(name string, args ...string) error
}

var _ api.Transcoder = (*External)(nil)

// New returns a transcoder using the given executable paths.
func New(ffmpegPath, imageToolPath string) *External {
	return &External{
		ffmpegPath:    ffmpegPath,
		imageToolPath: imageToolPath,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// CompressImage re-encodes the image in place. On success the tool leaves a
// BackupSuffix sidecar next to the original; this method only reports
// whether the tool exited zero.
func (e *External) CompressImage(path string) bool {
	if err := e.run(e.imageToolPath, "--mode", "compress", path); err != nil {
		logger.Debug("Image compressor failed for %s: %v", path, err)
		return false
	}
	return true
}

// CompressVideo re-encodes the video at path into targetPath with ffmpeg.
func (e *External) CompressVideo(path, targetPath string) bool {
	err := e.run(e.ffmpegPath,
		"-i", path,
		"-y",
		"-loglevel", "error",
		targetPath,
	)
	if err != nil {
		logger.Debug("ffmpeg failed for %s: %v", path, err)
		return false
	}
	return true
}
