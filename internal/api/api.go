package api

import "github.com/szmania/mega-manager/internal/model"

// SpaceInfo is an account-level space summary in bytes.
type SpaceInfo struct {
	Total int64
	Used  int64
	Free  int64
}

// StorageClient abstracts the external remote-storage tooling. Every method
// is a blocking child-process invocation; failures surface as errors or a
// false result, never as a raw process-exit panic.
type StorageClient interface {
	// List returns the recursive remote listing under remotePath. A failed
	// listing (auth or network error, malformed tool output) returns a
	// non-nil error so callers can distinguish it from an empty directory.
	List(creds model.Credentials, remotePath string) ([]model.RemoteFileEntry, error)

	// Space queries the account-level total/used/free space.
	Space(creds model.Credentials) (SpaceInfo, error)

	// Upload and Download run a bulk transfer between a local and remote
	// root. The external tool swallows individual file failures inside a
	// bulk transfer; only overall success is reported.
	Upload(creds model.Credentials, localRoot, remoteRoot string) bool
	Download(creds model.Credentials, localRoot, remoteRoot string) bool

	// DeleteFile removes a single remote file.
	DeleteFile(creds model.Credentials, remotePath string) bool

	// RemoveIncomplete deletes local files whose download never finished.
	RemoveIncomplete(creds model.Credentials, localRoot, remoteRoot string) bool
}

// Transcoder abstracts the external media re-encoders.
type Transcoder interface {
	// CompressImage re-encodes the image in place. The external tool leaves
	// a backup-marked sidecar next to the file on success; callers check for
	// it, this method only reports whether the tool ran and exited zero.
	CompressImage(path string) bool

	// CompressVideo re-encodes the video at path into targetPath.
	CompressVideo(path, targetPath string) bool
}
