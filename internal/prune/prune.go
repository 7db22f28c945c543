// Package prune removes remote files that no longer exist locally, with a
// persisted guard list so deletions are never attempted twice.
package prune

import (
	"os"

	"github.com/szmania/mega-manager/internal/api"
	"github.com/szmania/mega-manager/internal/logger"
	"github.com/szmania/mega-manager/internal/model"
	"github.com/szmania/mega-manager/internal/store"
)

// Pipeline scans an account's remote listings and deletes files whose local
// counterpart is gone.
type Pipeline struct {
	client  api.StorageClient
	removed *store.Store
}

// New returns a Pipeline recording deletions in removed.
func New(client api.StorageClient, removed *store.Store) *Pipeline {
	return &Pipeline{client: client, removed: removed}
}

// PruneRemote walks every path mapping of the profile. A file is pruned when
// its computed local path is absent, unless it was already recorded removed
// or sits under an already-removed directory.
func (p *Pipeline) PruneRemote(profile *model.Profile) {
	tags := []string{profile.Name, string(model.CategoryRemoveRemote)}

	for i := range profile.PathMappings {
		mapping := &profile.PathMappings[i]

		entries, err := p.client.List(profile.Credentials(), mapping.RemotePath)
		if err != nil {
			logger.WarningTagged(tags, "Skipping %s, remote listing failed: %v", mapping.RemotePath, err)
			continue
		}

		for _, entry := range entries {
			if entry.Kind != model.KindFile {
				continue
			}
			localPath, under := mapping.LocalPathFor(entry.Path)
			if !under {
				continue
			}
			if _, statErr := os.Stat(localPath); statErr == nil {
				continue
			}
			if p.removed.ContainsPrefixOf(entry.Path) {
				logger.DebugTagged(tags, "Already removed (or under a removed directory), moving on: %s", entry.Path)
				continue
			}

			// Recorded before the outcome is known, matching the guard's
			// purpose: never attempt the same deletion twice.
			p.removed.Add(entry.Path)
			if !p.client.DeleteFile(profile.Credentials(), entry.Path) {
				logger.WarningTagged(tags, "Could not delete remote file %s", entry.Path)
				continue
			}
			logger.InfoTagged(tags, "Deleted remote file not present locally: %s", entry.Path)
		}
	}
}

// RemoveIncomplete delegates incomplete-download cleanup to the storage
// client for one path mapping.
func (p *Pipeline) RemoveIncomplete(profile *model.Profile, mapping *model.PathMapping) {
	tags := []string{profile.Name, string(model.CategoryRemoveIncomplete)}
	if !p.client.RemoveIncomplete(profile.Credentials(), mapping.LocalPath, mapping.RemotePath) {
		logger.WarningTagged(tags, "Incomplete-download cleanup failed for %s", mapping.LocalPath)
		return
	}
	logger.DebugTagged(tags, "Incomplete-download cleanup finished for %s", mapping.LocalPath)
}
