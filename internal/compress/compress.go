// Package compress scans remote listings against local files and re-encodes
// image and video files that have not been handled on a previous run.
package compress

import (
	"os"
	"strings"
	"time"

	"github.com/szmania/mega-manager/internal/api"
	"github.com/szmania/mega-manager/internal/config"
	"github.com/szmania/mega-manager/internal/logger"
	"github.com/szmania/mega-manager/internal/model"
	"github.com/szmania/mega-manager/internal/retry"
	"github.com/szmania/mega-manager/internal/store"
	"github.com/szmania/mega-manager/internal/transcoder"
)

const (
	videoTargetSuffix = "_NEW.mp4"

	// The external transcoder can hold a file handle open briefly after it
	// exits, so local deletes and renames get a few attempts.
	fsRetryAttempts = 10
	fsRetryDelay    = 50 * time.Millisecond
)

// Sets holds the four persisted processed-file sets the pipeline consults
// and appends to. Each set serializes its own mutation+flush, so compress
// workers for different profiles can share them safely.
type Sets struct {
	CompressedImages *store.Store
	UnableImages     *store.Store
	CompressedVideos *store.Store
	UnableVideos     *store.Store
}

// Pipeline selects compression candidates from remote listings and drives
// the transcoder over them.
type Pipeline struct {
	cfg    *config.Config
	client api.StorageClient
	trans  api.Transcoder
	sets   Sets
}

// New returns a Pipeline over the given collaborators.
func New(cfg *config.Config, client api.StorageClient, trans api.Transcoder, sets Sets) *Pipeline {
	return &Pipeline{cfg: cfg, client: client, trans: trans, sets: sets}
}

// CompressImages runs the image pass over every path mapping of the profile.
func (p *Pipeline) CompressImages(profile *model.Profile) {
	for i := range profile.PathMappings {
		p.compressMapping(profile, &profile.PathMappings[i], model.CategoryCompressImages)
	}
}

// CompressVideos runs the video pass over every path mapping of the profile.
func (p *Pipeline) CompressVideos(profile *model.Profile) {
	for i := range profile.PathMappings {
		p.compressMapping(profile, &profile.PathMappings[i], model.CategoryCompressVideos)
	}
}

func (p *Pipeline) compressMapping(profile *model.Profile, mapping *model.PathMapping, category model.Category) {
	tags := []string{profile.Name, string(category)}

	entries, err := p.client.List(profile.Credentials(), mapping.RemotePath)
	if err != nil {
		logger.WarningTagged(tags, "Skipping %s, remote listing failed: %v", mapping.RemotePath, err)
		return
	}

	for _, entry := range entries {
		if entry.Kind != model.KindFile {
			continue
		}
		switch category {
		case model.CategoryCompressImages:
			if !p.cfg.IsImageExtension(entry.Extension) {
				continue
			}
		case model.CategoryCompressVideos:
			if !p.cfg.IsVideoExtension(entry.Extension) {
				continue
			}
		}

		localPath, under := mapping.LocalPathFor(entry.Path)
		if !under {
			continue
		}
		info, statErr := os.Stat(localPath)
		if statErr != nil || info.IsDir() {
			logger.DebugTagged(tags, "File does not exist locally, moving on: %s", localPath)
			continue
		}

		switch category {
		case model.CategoryCompressImages:
			if p.sets.CompressedImages.Contains(localPath) || p.sets.UnableImages.Contains(localPath) {
				logger.DebugTagged(tags, "File previously processed, moving on: %s", localPath)
				continue
			}
			p.compressImage(tags, localPath)
		case model.CategoryCompressVideos:
			if p.sets.CompressedVideos.Contains(localPath) || p.sets.UnableVideos.Contains(localPath) {
				logger.DebugTagged(tags, "File previously processed, moving on: %s", localPath)
				continue
			}
			p.compressVideo(tags, localPath)
		}
	}
}

// compressImage invokes the image tool and classifies the outcome by the
// presence of the backup sidecar it leaves on success.
func (p *Pipeline) compressImage(tags []string, localPath string) {
	ok := p.trans.CompressImage(localPath)
	backupPath := localPath + transcoder.BackupSuffix

	if ok {
		if _, err := os.Stat(backupPath); err == nil {
			logger.DebugTagged(tags, "File compressed successfully: %s", localPath)
			if err := os.Remove(backupPath); err != nil {
				logger.WarningTagged(tags, "Could not remove backup %s: %v", backupPath, err)
			}
			p.sets.CompressedImages.Add(localPath)
			return
		}
		logger.DebugTagged(tags, "File cannot be compressed any further: %s", localPath)
		p.sets.UnableImages.Add(localPath)
		return
	}

	logger.DebugTagged(tags, "Image file could not be compressed: %s", localPath)
	p.sets.UnableImages.Add(localPath)
}

// compressVideo re-encodes into a sibling target file, then swaps it over
// the original. Delete and rename are retried because the encoder process
// may still hold the handle briefly after exit.
func (p *Pipeline) compressVideo(tags []string, localPath string) {
	targetPath := videoTargetPath(localPath)

	if _, err := os.Stat(targetPath); err == nil {
		if err := removeWithRetry(targetPath); err != nil {
			logger.WarningTagged(tags, "Could not clear stale target %s: %v", targetPath, err)
			return
		}
	}

	ok := p.trans.CompressVideo(localPath, targetPath)
	_, targetErr := os.Stat(targetPath)
	targetExists := targetErr == nil

	switch {
	case ok && targetExists:
		finalPath := strings.Replace(targetPath, "_NEW", "", 1)
		if err := removeWithRetry(localPath); err != nil {
			logger.WarningTagged(tags, "Could not remove original %s: %v", localPath, err)
			p.sets.UnableVideos.Add(localPath)
			return
		}
		if err := renameWithRetry(targetPath, finalPath); err != nil {
			logger.WarningTagged(tags, "Could not rename %s over original: %v", targetPath, err)
			p.sets.UnableVideos.Add(localPath)
			return
		}
		logger.DebugTagged(tags, "Video file compressed successfully %q into %q", localPath, finalPath)
		p.sets.CompressedVideos.Add(finalPath)

	case targetExists:
		// Transcode flag was false but a target appeared: a transient
		// artifact, discarded without counting either way.
		if err := os.Remove(targetPath); err != nil {
			logger.DebugTagged(tags, "Could not remove transient target %s: %v", targetPath, err)
		}

	default:
		logger.DebugTagged(tags, "Video file could not be compressed: %s", localPath)
		p.sets.UnableVideos.Add(localPath)
	}
}

func videoTargetPath(localPath string) string {
	if i := strings.LastIndex(localPath, "."); i > strings.LastIndex(localPath, "/") {
		return localPath[:i] + videoTargetSuffix
	}
	return localPath + videoTargetSuffix
}

func removeWithRetry(path string) error {
	return retry.Do(fsRetryAttempts, fsRetryDelay, func() error {
		return os.Remove(path)
	})
}

func renameWithRetry(oldPath, newPath string) error {
	return retry.Do(fsRetryAttempts, fsRetryDelay, func() error {
		return os.Rename(oldPath, newPath)
	})
}
