package model

import "strings"

// Category identifies a schedulable kind of background work.
type Category string

const (
	CategoryGatherDetails    Category = "gather-details"
	CategoryDownload         Category = "download"
	CategoryUpload           Category = "upload"
	CategoryRemoveIncomplete Category = "remove-incomplete"
	CategoryRemoveRemote     Category = "remove-remote"
	CategoryCompressImages   Category = "compress-images"
	CategoryCompressVideos   Category = "compress-videos"
)

// Kind distinguishes remote files from remote directories.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

// RemoteFileEntry is one entry of a remote listing. It is produced by the
// storage gateway while scanning and is never persisted.
type RemoteFileEntry struct {
	Path      string
	Kind      Kind
	Extension string
	Size      int64
}

// Credentials is opaque account credential material, passed verbatim to the
// external storage client.
type Credentials struct {
	Username string
	Password string
}

// PathMapping pairs a local root directory with a remote root directory.
// RemoteUsedSpace is filled in by the detail-gathering worker for the owning
// profile and is meaningless before that worker has run.
type PathMapping struct {
	LocalPath       string `yaml:"local"`
	RemotePath      string `yaml:"remote"`
	RemoteUsedSpace int64  `yaml:"-"`
}

// NormalizeSlashes rewrites backslash separators to forward slashes so local
// and remote paths compare consistently.
func NormalizeSlashes(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// LocalPathFor maps a remote file path to its local counterpart by replacing
// the mapping's remote root prefix with the local root. The second return is
// false when the remote path is not under this mapping's remote root.
func (m *PathMapping) LocalPathFor(remotePath string) (string, bool) {
	remote := NormalizeSlashes(remotePath)
	root := strings.TrimSuffix(NormalizeSlashes(m.RemotePath), "/")
	if !strings.HasPrefix(remote, root) {
		return "", false
	}
	sub := strings.TrimPrefix(remote, root)
	local := strings.TrimSuffix(NormalizeSlashes(m.LocalPath), "/")
	return local + sub, true
}

// Profile is a named account with its path mappings. The space fields are
// account level and are mutated only by the profile's own detail-gathering
// worker.
type Profile struct {
	Name         string        `yaml:"name"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	PathMappings []PathMapping `yaml:"path_mappings"`

	TotalSpace int64 `yaml:"-"`
	UsedSpace  int64 `yaml:"-"`
	FreeSpace  int64 `yaml:"-"`
}

// Credentials returns the profile's credential pair.
func (p *Profile) Credentials() Credentials {
	return Credentials{Username: p.Username, Password: p.Password}
}
