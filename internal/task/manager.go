package task

import (
	"fmt"
	"time"

	"github.com/szmania/mega-manager/internal/api"
	"github.com/szmania/mega-manager/internal/compress"
	"github.com/szmania/mega-manager/internal/config"
	"github.com/szmania/mega-manager/internal/history"
	"github.com/szmania/mega-manager/internal/logger"
	"github.com/szmania/mega-manager/internal/megatools"
	"github.com/szmania/mega-manager/internal/model"
	"github.com/szmania/mega-manager/internal/proc"
	"github.com/szmania/mega-manager/internal/prune"
	"github.com/szmania/mega-manager/internal/report"
	"github.com/szmania/mega-manager/internal/store"
	"github.com/szmania/mega-manager/internal/transcoder"
)

// Features selects the optional work a run performs. Detail gathering always
// runs; everything else is flag-driven.
type Features struct {
	Download         bool
	Upload           bool
	RemoveRemote     bool
	RemoveIncomplete bool
	CompressImages   bool
	CompressVideos   bool
}

// Names lists the enabled features for logs and the run history.
func (f Features) Names() []string {
	var names []string
	add := func(on bool, c model.Category) {
		if on {
			names = append(names, string(c))
		}
	}
	add(f.Download, model.CategoryDownload)
	add(f.Upload, model.CategoryUpload)
	add(f.RemoveRemote, model.CategoryRemoveRemote)
	add(f.RemoveIncomplete, model.CategoryRemoveIncomplete)
	add(f.CompressImages, model.CategoryCompressImages)
	add(f.CompressVideos, model.CategoryCompressVideos)
	return names
}

// Manager wires the pipelines to the orchestrator: it schedules one run's
// workers, waits them out, and tears down.
type Manager struct {
	cfg      *config.Config
	client   api.StorageClient
	comp     *compress.Pipeline
	pruner   *prune.Pipeline
	sets     compress.Sets
	removed  *store.Store
	hist     *history.DB
	features Features
	timeout  time.Duration

	orch *Orchestrator

	// killStrays is swappable so tests do not reap host processes.
	killStrays func()
}

// NewManager assembles a Manager for one run. hist may be nil when the run
// history could not be opened.
func NewManager(cfg *config.Config, client api.StorageClient, trans api.Transcoder,
	sets compress.Sets, removed *store.Store, hist *history.DB,
	features Features, timeout time.Duration) *Manager {

	m := &Manager{
		cfg:      cfg,
		client:   client,
		comp:     compress.New(cfg, client, trans, sets),
		pruner:   prune.New(client, removed),
		sets:     sets,
		removed:  removed,
		hist:     hist,
		features: features,
		timeout:  timeout,
	}
	m.orch = NewOrchestrator(DefaultPollInterval, m.exportDetails)
	m.killStrays = func() {
		proc.KillByName(append(append([]string(nil), megatools.ToolNames...), transcoder.FFmpegProcessName)...)
	}
	return m
}

// Run schedules the workers, waits for them (bounded by the timeout when one
// is set) and tears down. Workers still running at the deadline keep running
// until their current child process exits; teardown kills the strays.
func (m *Manager) Run() {
	m.schedule()
	if !m.orch.Wait(m.timeout) {
		logger.Warning("Run exceeded its time limit, proceeding to teardown")
	}
	m.Teardown()
}

func (m *Manager) schedule() {
	// Detail gatherers go first so the export fires as soon as the last of
	// them drains, independent of longer-running transfer workers.
	for i := range m.cfg.Profiles {
		p := &m.cfg.Profiles[i]
		m.orch.Spawn("gather-details/"+p.Name, model.CategoryGatherDetails, func() {
			m.gatherDetails(p)
		})
	}

	if m.features.RemoveIncomplete {
		for i := range m.cfg.Profiles {
			p := &m.cfg.Profiles[i]
			for j := range p.PathMappings {
				mapping := &p.PathMappings[j]
				name := fmt.Sprintf("remove-incomplete/%s/%d", p.Name, j)
				m.orch.Spawn(name, model.CategoryRemoveIncomplete, func() {
					m.pruner.RemoveIncomplete(p, mapping)
				})
			}
		}
	}

	if m.features.Download {
		m.orch.Spawn("download", model.CategoryDownload, m.downloadAll)
	}
	if m.features.Upload {
		m.orch.Spawn("upload", model.CategoryUpload, m.uploadAll)
	}

	if m.features.RemoveRemote {
		for i := range m.cfg.Profiles {
			p := &m.cfg.Profiles[i]
			m.orch.Spawn("remove-remote/"+p.Name, model.CategoryRemoveRemote, func() {
				m.pruner.PruneRemote(p)
			})
		}
	}

	if m.features.CompressImages {
		m.orch.Spawn("compress-images", model.CategoryCompressImages, func() {
			for i := range m.cfg.Profiles {
				m.comp.CompressImages(&m.cfg.Profiles[i])
			}
		})
	}
	if m.features.CompressVideos {
		m.orch.Spawn("compress-videos", model.CategoryCompressVideos, func() {
			for i := range m.cfg.Profiles {
				m.comp.CompressVideos(&m.cfg.Profiles[i])
			}
		})
	}
}

// gatherDetails refreshes the profile's account-level space figures and the
// per-mapping remote usage. Only this worker writes those fields.
func (m *Manager) gatherDetails(p *model.Profile) {
	tags := []string{p.Name, string(model.CategoryGatherDetails)}

	info, err := m.client.Space(p.Credentials())
	if err != nil {
		logger.WarningTagged(tags, "Could not query account space: %v", err)
	} else {
		p.TotalSpace = info.Total
		p.UsedSpace = info.Used
		p.FreeSpace = info.Free
	}

	for i := range p.PathMappings {
		mapping := &p.PathMappings[i]
		entries, err := m.client.List(p.Credentials(), mapping.RemotePath)
		if err != nil {
			logger.WarningTagged(tags, "Could not list %s: %v", mapping.RemotePath, err)
			continue
		}
		var used int64
		for _, entry := range entries {
			if entry.Kind == model.KindFile {
				used += entry.Size
			}
		}
		mapping.RemoteUsedSpace = used
	}
}

func (m *Manager) downloadAll() {
	for i := range m.cfg.Profiles {
		p := &m.cfg.Profiles[i]
		tags := []string{p.Name, string(model.CategoryDownload)}
		for _, mapping := range p.PathMappings {
			if !m.client.Download(p.Credentials(), mapping.LocalPath, mapping.RemotePath) {
				logger.WarningTagged(tags, "Download failed for %s", mapping.RemotePath)
				continue
			}
			logger.InfoTagged(tags, "Downloaded %s into %s", mapping.RemotePath, mapping.LocalPath)
		}
	}
}

func (m *Manager) uploadAll() {
	for i := range m.cfg.Profiles {
		p := &m.cfg.Profiles[i]
		tags := []string{p.Name, string(model.CategoryUpload)}
		for _, mapping := range p.PathMappings {
			if !m.client.Upload(p.Credentials(), mapping.LocalPath, mapping.RemotePath) {
				logger.WarningTagged(tags, "Upload failed for %s", mapping.LocalPath)
				continue
			}
			logger.InfoTagged(tags, "Uploaded %s into %s", mapping.LocalPath, mapping.RemotePath)
		}
	}
}

func (m *Manager) exportDetails() {
	if err := report.Write(m.cfg.AccountsOutput, m.cfg.Profiles); err != nil {
		logger.Warning("Could not export account details: %v", err)
		return
	}
	logger.Info("Account details exported to %s", m.cfg.AccountsOutput)
}

// Teardown flushes every persisted set, appends the run history, and kills
// stray child processes. It runs whether the wait finished or timed out.
func (m *Manager) Teardown() {
	for _, s := range []*store.Store{
		m.sets.CompressedImages, m.sets.UnableImages,
		m.sets.CompressedVideos, m.sets.UnableVideos,
		m.removed,
	} {
		if s != nil {
			s.Flush()
		}
	}

	if m.hist != nil {
		if err := m.hist.RecordRun(time.Now(), m.features.Names(), m.cfg.Profiles); err != nil {
			logger.Warning("Could not record run history: %v", err)
		}
	}

	m.killStrays()
	logger.Info("Teardown complete")
}
