// Package megatools implements the storage gateway on top of the external
// megatools executables (megals, megadf, megacopy, megarm). All listing-text
// fragility lives here; callers only ever see typed entries and results.
package megatools

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/szmania/mega-manager/internal/api"
	"github.com/szmania/mega-manager/internal/logger"
	"github.com/szmania/mega-manager/internal/model"
)

// ErrListingFailed marks a remote listing that could not be obtained, as
// opposed to one that is legitimately empty.
var ErrListingFailed = errors.New("remote listing failed")

// ToolNames are the executables this client spawns, used at teardown to kill
// strays left behind after a timed-out run.
var ToolNames = []string{"megals", "megadf", "megacopy", "megarm"}

// Client shells out to the megatools executables found in Dir.
type Client struct {
	dir       string
	downLimit int
	upLimit   int

	// run executes a tool and returns its combined stdout. Swappable in tests.
	run func(name string, args ...string) ([]byte, error)
}

var _ api.StorageClient = (*Client)(nil)

// New returns a Client invoking the tools under dir with the given transfer
// speed limits (KiB/s, 0 means unlimited).
func New(dir string, downLimit, upLimit int) *Client {
	c := &Client{dir: dir, downLimit: downLimit, upLimit: upLimit}
	c.run = func(name string, args ...string) ([]byte, error) {
		return exec.Command(c.toolPath(name), args...).Output()
	}
	return c
}

func (c *Client) toolPath(name string) string {
	if c.dir == "" {
		return name
	}
	return filepath.Join(c.dir, name)
}

// List runs megals recursively under remotePath and parses every well-formed
// line into a RemoteFileEntry. Malformed lines are skipped with a debug log.
func (c *Client) List(creds model.Credentials, remotePath string) ([]model.RemoteFileEntry, error) {
	out, err := c.run("megals", "-ln", "-R", "-u", creds.Username, "-p", creds.Password, remotePath)
	if err != nil {
		return nil, fmt.Errorf("%w: megals: %v", ErrListingFailed, err)
	}

	var entries []model.RemoteFileEntry
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		entry, ok := parseListingLine(line)
		if !ok {
			logger.Debug("Skipping unparseable megals line: %q", line)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Space queries the account totals with one megadf call per figure, matching
// the external tool's single-figure output mode.
func (c *Client) Space(creds model.Credentials) (api.SpaceInfo, error) {
	total, err := c.spaceFigure(creds, "--total")
	if err != nil {
		return api.SpaceInfo{}, err
	}
	used, err := c.spaceFigure(creds, "--used")
	if err != nil {
		return api.SpaceInfo{}, err
	}
	free, err := c.spaceFigure(creds, "--free")
	if err != nil {
		return api.SpaceInfo{}, err
	}
	return api.SpaceInfo{Total: total, Used: used, Free: free}, nil
}

func (c *Client) spaceFigure(creds model.Credentials, flag string) (int64, error) {
	out, err := c.run("megadf", flag, "-u", creds.Username, "-p", creds.Password)
	if err != nil {
		return 0, fmt.Errorf("megadf %s: %w", flag, err)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("megadf %s: unexpected output %q", flag, strings.TrimSpace(string(out)))
	}
	return n, nil
}

// Upload bulk-transfers localRoot into remoteRoot. Individual file failures
// inside the transfer are swallowed by megacopy; only overall success is
// reported.
func (c *Client) Upload(creds model.Credentials, localRoot, remoteRoot string) bool {
	args := []string{"-u", creds.Username, "-p", creds.Password, "--local", localRoot, "--remote", remoteRoot}
	if c.upLimit > 0 {
		args = append(args, fmt.Sprintf("--limit-speed=%d", c.upLimit))
	}
	if _, err := c.run("megacopy", args...); err != nil {
		logger.Warning("megacopy upload %s -> %s failed: %v", localRoot, remoteRoot, err)
		return false
	}
	return true
}

// Download bulk-transfers remoteRoot into localRoot.
func (c *Client) Download(creds model.Credentials, localRoot, remoteRoot string) bool {
	args := []string{"--download", "-u", creds.Username, "-p", creds.Password, "--local", localRoot, "--remote", remoteRoot}
	if c.downLimit > 0 {
		args = append(args, fmt.Sprintf("--limit-speed=%d", c.downLimit))
	}
	if _, err := c.run("megacopy", args...); err != nil {
		logger.Warning("megacopy download %s -> %s failed: %v", remoteRoot, localRoot, err)
		return false
	}
	return true
}

// DeleteFile removes a single remote file with megarm.
func (c *Client) DeleteFile(creds model.Credentials, remotePath string) bool {
	if _, err := c.run("megarm", "-u", creds.Username, "-p", creds.Password, remotePath); err != nil {
		logger.Warning("megarm %s failed: %v", remotePath, err)
		return false
	}
	return true
}

// RemoveIncomplete deletes local files whose size is smaller than the remote
// counterpart, the telltale of a transfer that never finished.
func (c *Client) RemoveIncomplete(creds model.Credentials, localRoot, remoteRoot string) bool {
	entries, err := c.List(creds, remoteRoot)
	if err != nil {
		logger.Warning("Could not list %s for incomplete cleanup: %v", remoteRoot, err)
		return false
	}

	mapping := model.PathMapping{LocalPath: localRoot, RemotePath: remoteRoot}
	ok := true
	for _, entry := range entries {
		if entry.Kind != model.KindFile {
			continue
		}
		localPath, under := mapping.LocalPathFor(entry.Path)
		if !under {
			continue
		}
		info, statErr := os.Stat(localPath)
		if statErr != nil || info.IsDir() {
			continue
		}
		if info.Size() < entry.Size {
			logger.Debug("Removing incomplete local file %s (%d of %d bytes)", localPath, info.Size(), entry.Size)
			if rmErr := os.Remove(localPath); rmErr != nil {
				logger.Warning("Could not remove incomplete file %s: %v", localPath, rmErr)
				ok = false
			}
		}
	}
	return ok
}
