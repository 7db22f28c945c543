package compress

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/szmania/mega-manager/internal/api"
	"github.com/szmania/mega-manager/internal/config"
	"github.com/szmania/mega-manager/internal/model"
	"github.com/szmania/mega-manager/internal/store"
	"github.com/szmania/mega-manager/internal/transcoder"
)

type fakeClient struct {
	entries []model.RemoteFileEntry
	err     error
}

func (f *fakeClient) List(model.Credentials, string) ([]model.RemoteFileEntry, error) {
	return f.entries, f.err
}
func (f *fakeClient) Space(model.Credentials) (api.SpaceInfo, error) { return api.SpaceInfo{}, nil }
func (f *fakeClient) Upload(model.Credentials, string, string) bool  { return true }
func (f *fakeClient) Download(model.Credentials, string, string) bool {
	return true
}
func (f *fakeClient) DeleteFile(model.Credentials, string) bool { return true }
func (f *fakeClient) RemoveIncomplete(model.Credentials, string, string) bool {
	return true
}

type fakeTranscoder struct {
	imageCalls int
	videoCalls int
	image      func(path string) bool
	video      func(path, target string) bool
}

func (f *fakeTranscoder) CompressImage(path string) bool {
	f.imageCalls++
	if f.image == nil {
		return true
	}
	return f.image(path)
}

func (f *fakeTranscoder) CompressVideo(path, target string) bool {
	f.videoCalls++
	if f.video == nil {
		return true
	}
	return f.video(path, target)
}

func testSets(t *testing.T) Sets {
	t.Helper()
	dir := t.TempDir()
	return Sets{
		CompressedImages: store.Open(filepath.Join(dir, "compressed_images.gz")),
		UnableImages:     store.Open(filepath.Join(dir, "unable_images.gz")),
		CompressedVideos: store.Open(filepath.Join(dir, "compressed_videos.gz")),
		UnableVideos:     store.Open(filepath.Join(dir, "unable_videos.gz")),
	}
}

func testProfile(localRoot string) *model.Profile {
	return &model.Profile{
		Name:     "personal",
		Username: "user@mail.com",
		Password: "secret",
		PathMappings: []model.PathMapping{
			{LocalPath: localRoot, RemotePath: "/Root/backup"},
		},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		ImageExtensions: []string{".jpg", ".jpeg", ".png"},
		VideoExtensions: []string{".avi", ".mp4", ".wmv"},
	}
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCompressImageSuccessWithSidecar(t *testing.T) {
	dir := t.TempDir()
	pic := filepath.Join(dir, "pic.jpg")
	writeFile(t, pic, 100)

	trans := &fakeTranscoder{
		image: func(path string) bool {
			writeFile(t, path+transcoder.BackupSuffix, 100)
			return true
		},
	}
	client := &fakeClient{entries: []model.RemoteFileEntry{
		{Path: "/Root/backup/pic.jpg", Kind: model.KindFile, Extension: ".jpg", Size: 100},
	}}
	sets := testSets(t)

	New(testConfig(), client, trans, sets).CompressImages(testProfile(dir))

	if trans.imageCalls != 1 {
		t.Errorf("transcoder invoked %d times, want 1", trans.imageCalls)
	}
	if !sets.CompressedImages.Contains(pic) {
		t.Error("compressed image not recorded")
	}
	if sets.UnableImages.Len() != 0 {
		t.Error("unexpected unable entry")
	}
	if _, err := os.Stat(pic + transcoder.BackupSuffix); !os.IsNotExist(err) {
		t.Error("backup sidecar was not removed")
	}
}

func TestCompressImageNoSidecarIsUnable(t *testing.T) {
	dir := t.TempDir()
	pic := filepath.Join(dir, "pic.png")
	writeFile(t, pic, 100)

	trans := &fakeTranscoder{image: func(string) bool { return true }}
	client := &fakeClient{entries: []model.RemoteFileEntry{
		{Path: "/Root/backup/pic.png", Kind: model.KindFile, Extension: ".png", Size: 100},
	}}
	sets := testSets(t)

	New(testConfig(), client, trans, sets).CompressImages(testProfile(dir))

	if !sets.UnableImages.Contains(pic) {
		t.Error("expected unable-to-compress record when sidecar is absent")
	}
	if sets.CompressedImages.Len() != 0 {
		t.Error("unexpected compressed entry")
	}
}

func TestCompressImagesIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"), 100)
	writeFile(t, filepath.Join(dir, "b.jpg"), 100)

	trans := &fakeTranscoder{
		image: func(path string) bool {
			// a compresses, b cannot.
			if filepath.Base(path) == "a.jpg" {
				writeFile(t, path+transcoder.BackupSuffix, 100)
			}
			return true
		},
	}
	client := &fakeClient{entries: []model.RemoteFileEntry{
		{Path: "/Root/backup/a.jpg", Kind: model.KindFile, Extension: ".jpg", Size: 100},
		{Path: "/Root/backup/b.jpg", Kind: model.KindFile, Extension: ".jpg", Size: 100},
	}}
	sets := testSets(t)
	p := New(testConfig(), client, trans, sets)

	p.CompressImages(testProfile(dir))
	if trans.imageCalls != 2 {
		t.Fatalf("first pass invoked transcoder %d times, want 2", trans.imageCalls)
	}

	p.CompressImages(testProfile(dir))
	if trans.imageCalls != 2 {
		t.Errorf("second pass re-invoked transcoder (%d total calls)", trans.imageCalls)
	}
}

func TestCompressSkipsNonMatchingEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes.txt"), 10)

	trans := &fakeTranscoder{}
	client := &fakeClient{entries: []model.RemoteFileEntry{
		{Path: "/Root/backup", Kind: model.KindDirectory},
		{Path: "/Root/backup/notes.txt", Kind: model.KindFile, Extension: ".txt", Size: 10},
		{Path: "/Root/backup/missing.jpg", Kind: model.KindFile, Extension: ".jpg", Size: 10},
	}}
	sets := testSets(t)

	New(testConfig(), client, trans, sets).CompressImages(testProfile(dir))

	if trans.imageCalls != 0 {
		t.Errorf("transcoder invoked %d times for non-candidates", trans.imageCalls)
	}
}

func TestCompressListingFailureSkips(t *testing.T) {
	trans := &fakeTranscoder{}
	client := &fakeClient{err: errors.New("auth failure")}
	sets := testSets(t)

	New(testConfig(), client, trans, sets).CompressImages(testProfile(t.TempDir()))

	if trans.imageCalls != 0 {
		t.Error("transcoder invoked despite listing failure")
	}
	if sets.CompressedImages.Len()+sets.UnableImages.Len() != 0 {
		t.Error("entries recorded despite listing failure")
	}
}

func TestCompressVideoSuccess(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.avi")
	writeFile(t, clip, 1000)

	trans := &fakeTranscoder{
		video: func(path, target string) bool {
			writeFile(t, target, 500)
			return true
		},
	}
	client := &fakeClient{entries: []model.RemoteFileEntry{
		{Path: "/Root/backup/clip.avi", Kind: model.KindFile, Extension: ".avi", Size: 1000},
	}}
	sets := testSets(t)

	New(testConfig(), client, trans, sets).CompressVideos(testProfile(dir))

	final := filepath.Join(dir, "clip.mp4")
	if _, err := os.Stat(final); err != nil {
		t.Fatalf("expected compressed file at %s: %v", final, err)
	}
	if _, err := os.Stat(clip); !os.IsNotExist(err) {
		t.Error("original video was not removed")
	}
	if !sets.CompressedVideos.Contains(final) {
		t.Error("compressed video not recorded under its final path")
	}
}

func TestCompressVideoFalseResultWithTargetIsDiscarded(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	writeFile(t, clip, 1000)

	trans := &fakeTranscoder{
		video: func(path, target string) bool {
			writeFile(t, target, 1)
			return false
		},
	}
	client := &fakeClient{entries: []model.RemoteFileEntry{
		{Path: "/Root/backup/clip.mp4", Kind: model.KindFile, Extension: ".mp4", Size: 1000},
	}}
	sets := testSets(t)

	New(testConfig(), client, trans, sets).CompressVideos(testProfile(dir))

	if _, err := os.Stat(filepath.Join(dir, "clip_NEW.mp4")); !os.IsNotExist(err) {
		t.Error("transient target file was not discarded")
	}
	if sets.CompressedVideos.Len() != 0 || sets.UnableVideos.Len() != 0 {
		t.Error("transient artifact was recorded in a set")
	}
	if _, err := os.Stat(clip); err != nil {
		t.Error("original video should be untouched")
	}
}

func TestCompressVideoFailureIsUnable(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.wmv")
	writeFile(t, clip, 1000)

	trans := &fakeTranscoder{video: func(string, string) bool { return false }}
	client := &fakeClient{entries: []model.RemoteFileEntry{
		{Path: "/Root/backup/clip.wmv", Kind: model.KindFile, Extension: ".wmv", Size: 1000},
	}}
	sets := testSets(t)

	New(testConfig(), client, trans, sets).CompressVideos(testProfile(dir))

	if !sets.UnableVideos.Contains(clip) {
		t.Error("failed video not recorded as unable to compress")
	}
}

func TestVideoTargetPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/mega/clip.avi", "/mega/clip_NEW.mp4"},
		{"/mega/clip.v2.mp4", "/mega/clip.v2_NEW.mp4"},
		{"/mega/noext", "/mega/noext_NEW.mp4"},
		{"/mega/dir.d/noext", "/mega/dir.d/noext_NEW.mp4"},
	}
	for _, tt := range tests {
		if got := videoTargetPath(tt.in); got != tt.want {
			t.Errorf("videoTargetPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
