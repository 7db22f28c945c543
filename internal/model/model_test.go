package model

import "testing"

func TestLocalPathFor(t *testing.T) {
	m := PathMapping{LocalPath: "/home/me/mega", RemotePath: "/Root/backup"}

	tests := []struct {
		remote string
		want   string
		ok     bool
	}{
		{"/Root/backup/pics/a.jpg", "/home/me/mega/pics/a.jpg", true},
		{"/Root/backup", "/home/me/mega", true},
		{"/Root/other/a.jpg", "", false},
	}

	for _, tt := range tests {
		got, ok := m.LocalPathFor(tt.remote)
		if ok != tt.ok {
			t.Errorf("LocalPathFor(%q) ok = %v, want %v", tt.remote, ok, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("LocalPathFor(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}

func TestLocalPathForNormalizesBackslashes(t *testing.T) {
	m := PathMapping{LocalPath: `C:\mega\backup`, RemotePath: "/Root/backup"}

	got, ok := m.LocalPathFor("/Root/backup/vids/b.mp4")
	if !ok {
		t.Fatal("expected remote path to be under the mapping root")
	}
	if got != "C:/mega/backup/vids/b.mp4" {
		t.Errorf("LocalPathFor = %q, want forward-slash local path", got)
	}
}

func TestLocalPathForTrailingSlashRoots(t *testing.T) {
	m := PathMapping{LocalPath: "/home/me/mega/", RemotePath: "/Root/backup/"}

	got, ok := m.LocalPathFor("/Root/backup/a.png")
	if !ok || got != "/home/me/mega/a.png" {
		t.Errorf("LocalPathFor = %q, %v; want /home/me/mega/a.png, true", got, ok)
	}
}

func TestProfileCredentials(t *testing.T) {
	p := Profile{Name: "personal", Username: "user@mail.com", Password: "secret"}
	creds := p.Credentials()
	if creds.Username != "user@mail.com" || creds.Password != "secret" {
		t.Errorf("Credentials() = %+v, want verbatim username/password", creds)
	}
}
