// Package proc terminates stray helper processes left behind by a run.
package proc

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/szmania/mega-manager/internal/logger"
)

// KillByName terminates every running process whose executable name matches
// one of names. A name with no matching process is not an error.
func KillByName(names ...string) {
	procs, err := process.Processes()
	if err != nil {
		logger.Warning("Could not enumerate processes: %v", err)
		return
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(n)] = true
	}

	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		if !wanted[strings.ToLower(name)] {
			continue
		}
		if err := p.Kill(); err != nil {
			logger.Warning("Could not kill %s (pid %d): %v", name, p.Pid, err)
			continue
		}
		logger.Info("Killed stray process %s (pid %d)", name, p.Pid)
	}
}
