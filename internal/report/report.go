// Package report writes the per-profile account details file produced once
// per run after all detail-gathering workers finish.
package report

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/szmania/mega-manager/internal/logger"
	"github.com/szmania/mega-manager/internal/model"
)

const backupSuffix = ".old"

// Write renders the aggregated account details to path, profiles sorted by
// name. Any existing file is rotated to a .old sibling first; if the new
// write fails the previous contents are restored from it.
func Write(path string, profiles []model.Profile) error {
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+backupSuffix); err != nil {
			logger.Warning("Could not rotate %s: %v", path, err)
		}
	}

	if err := os.WriteFile(path, []byte(render(profiles)), 0644); err != nil {
		if restoreErr := os.Rename(path+backupSuffix, path); restoreErr == nil {
			logger.Warning("Restored previous %s after failed write", path)
		}
		return fmt.Errorf("failed to write account details to %s: %w", path, err)
	}
	return nil
}

func render(profiles []model.Profile) string {
	sorted := make([]model.Profile, len(profiles))
	copy(sorted, profiles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	for _, p := range sorted {
		fmt.Fprintf(&b, "%s - %s\n", p.Name, p.Username)
		fmt.Fprintf(&b, "Total Space: %d\n", p.TotalSpace)
		fmt.Fprintf(&b, "Used Space: %d\n", p.UsedSpace)
		fmt.Fprintf(&b, "Free Space: %d\n", p.FreeSpace)
		for _, m := range p.PathMappings {
			fmt.Fprintf(&b, "%s (%d remote)\n", m.RemotePath, m.RemoteUsedSpace)
		}
		b.WriteString("\n")
	}
	return b.String()
}
