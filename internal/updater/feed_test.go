package updater

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

type feedServer struct {
	*httptest.Server
	downloads atomic.Int32
}

func checksum(b []byte) string {
	sum := sha512.Sum512(b)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func newFeedServer(t *testing.T, version string, artefact []byte, sha string) *feedServer {
	t.Helper()
	fs := &feedServer{}

	name := "dualview-" + version + "-" + runtime.GOARCH
	doc := fmt.Sprintf(`version: %s
files:
  - url: %s
    sha512: %s
    size: %d
path: %s
sha512: %s
releaseDate: '2026-10-01T09:00:00.000Z'
`, version, name, sha, len(artefact), name, sha)

	mux := http.NewServeMux()
	mux.HandleFunc("/releases/"+ChannelFile(), func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(doc))
	})
	mux.HandleFunc("/releases/"+name, func(w http.ResponseWriter, r *http.Request) {
		fs.downloads.Add(1)
		w.Write(artefact)
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventType
	for _, ev := range r.events {
		if ev.Type == EventProgress {
			if len(out) > 0 && out[len(out)-1] == EventProgress {
				continue
			}
		}
		out = append(out, ev.Type)
	}
	return out
}

func (r *recorder) last(t EventType) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == t {
			return r.events[i], true
		}
	}
	return Event{}, false
}

type installSpy struct {
	installed  [][]byte
	relaunches int
	quits      int
}

func newTestClient(t *testing.T, srv *feedServer, current string) (*FeedClient, *recorder, *installSpy) {
	t.Helper()
	c, err := NewFeedClient(FeedOptions{
		FeedURL:        srv.URL + "/releases",
		CurrentVersion: current,
		CacheDir:       t.TempDir(),
		HTTPClient:     srv.Client(),
	}, nil)
	if err != nil {
		t.Fatalf("NewFeedClient: %v", err)
	}

	spy := &installSpy{}
	c.install = func(file string, info Info) error {
		b, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		spy.installed = append(spy.installed, b)
		return nil
	}
	c.relaunch = func() error { spy.relaunches++; return nil }
	c.SetQuitFunc(func() { spy.quits++ })
	c.newSession = func() string { return "session-1" }

	rec := &recorder{}
	c.OnEvent(rec.record)
	return c, rec, spy
}

func equalTypes(a, b []EventType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCheckDownloadsNewerRelease(t *testing.T) {
	artefact := []byte("new dualview binary")
	srv := newFeedServer(t, "1.3.0", artefact, checksum(artefact))
	c, rec, _ := newTestClient(t, srv, "1.2.0")

	if err := c.CheckForUpdates(context.Background()); err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}

	want := []EventType{EventChecking, EventAvailable, EventProgress, EventDownloaded}
	if got := rec.types(); !equalTypes(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}

	prog, _ := rec.last(EventProgress)
	if prog.Progress.Transferred != int64(len(artefact)) || prog.Progress.Total != int64(len(artefact)) {
		t.Errorf("progress = %+v", prog.Progress)
	}
	if prog.Progress.Percent != 100 {
		t.Errorf("percent = %v, want 100", prog.Progress.Percent)
	}

	done, _ := rec.last(EventDownloaded)
	if done.Info.Version != "1.3.0" || done.Session != "session-1" {
		t.Errorf("downloaded event = %+v", done)
	}
}

func TestCheckNoNewerRelease(t *testing.T) {
	srv := newFeedServer(t, "1.2.0", []byte("x"), checksum([]byte("x")))
	c, rec, _ := newTestClient(t, srv, "1.2.0")

	if err := c.CheckForUpdates(context.Background()); err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}

	want := []EventType{EventChecking, EventNotAvailable}
	if got := rec.types(); !equalTypes(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if n := srv.downloads.Load(); n != 0 {
		t.Errorf("downloads = %d", n)
	}
}

func TestCheckWithoutAutoDownload(t *testing.T) {
	srv := newFeedServer(t, "2.0.0", []byte("x"), checksum([]byte("x")))
	c, rec, _ := newTestClient(t, srv, "1.2.0")
	c.SetAutoDownload(false)

	if err := c.CheckForUpdates(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []EventType{EventChecking, EventAvailable}
	if got := rec.types(); !equalTypes(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestCheckRejectsChecksumMismatch(t *testing.T) {
	srv := newFeedServer(t, "1.3.0", []byte("tampered"), checksum([]byte("original")))
	c, rec, spy := newTestClient(t, srv, "1.2.0")

	err := c.CheckForUpdates(context.Background())
	if !errors.Is(err, ErrChecksum) {
		t.Fatalf("err = %v, want ErrChecksum", err)
	}
	ev, ok := rec.last(EventError)
	if !ok || !errors.Is(ev.Err, ErrChecksum) {
		t.Errorf("error event = %+v", ev)
	}

	c.QuitAndInstall(true, true)
	if len(spy.installed) != 0 || spy.quits != 0 {
		t.Errorf("installed a rejected artefact: %+v", spy)
	}
}

func TestCheckFeedUnavailable(t *testing.T) {
	srv := &feedServer{Server: httptest.NewServer(http.NotFoundHandler())}
	defer srv.Close()
	c, rec, _ := newTestClient(t, srv, "1.2.0")

	if err := c.CheckForUpdates(context.Background()); err == nil {
		t.Fatal("expected error for missing feed")
	}
	if _, ok := rec.last(EventError); !ok {
		t.Error("no error event")
	}
}

func TestCheckInProgressGuard(t *testing.T) {
	srv := newFeedServer(t, "1.3.0", []byte("x"), checksum([]byte("x")))
	c, rec, _ := newTestClient(t, srv, "1.2.0")

	c.checking.Store(true)
	if err := c.CheckForUpdates(context.Background()); !errors.Is(err, ErrCheckInProgress) {
		t.Fatalf("err = %v, want ErrCheckInProgress", err)
	}
	if len(rec.types()) != 0 {
		t.Errorf("guarded check emitted %v", rec.types())
	}
}

func TestCheckReusesDownloadedRelease(t *testing.T) {
	artefact := []byte("bin")
	srv := newFeedServer(t, "1.3.0", artefact, checksum(artefact))
	c, _, _ := newTestClient(t, srv, "1.2.0")

	for i := 0; i < 2; i++ {
		if err := c.CheckForUpdates(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if n := srv.downloads.Load(); n != 1 {
		t.Errorf("downloads = %d, want 1", n)
	}
}

func TestQuitAndInstall(t *testing.T) {
	artefact := []byte("new dualview binary")
	srv := newFeedServer(t, "1.3.0", artefact, checksum(artefact))
	c, rec, spy := newTestClient(t, srv, "1.2.0")

	if err := c.CheckForUpdates(context.Background()); err != nil {
		t.Fatal(err)
	}

	c.QuitAndInstall(true, true)

	if len(spy.installed) != 1 || string(spy.installed[0]) != string(artefact) {
		t.Fatalf("installed = %q", spy.installed)
	}
	if spy.relaunches != 1 || spy.quits != 1 {
		t.Errorf("relaunches=%d quits=%d", spy.relaunches, spy.quits)
	}

	c.QuitAndInstall(true, true)
	if len(spy.installed) != 1 {
		t.Error("second install without a new download")
	}
	ev, _ := rec.last(EventError)
	if !errors.Is(ev.Err, ErrNoUpdate) {
		t.Errorf("error = %v, want ErrNoUpdate", ev.Err)
	}
}

func TestQuitAndInstallWithoutRelaunch(t *testing.T) {
	artefact := []byte("bin")
	srv := newFeedServer(t, "1.3.0", artefact, checksum(artefact))
	c, _, spy := newTestClient(t, srv, "1.2.0")
	if err := c.CheckForUpdates(context.Background()); err != nil {
		t.Fatal(err)
	}

	c.QuitAndInstall(true, false)

	if spy.relaunches != 0 || spy.quits != 1 {
		t.Errorf("relaunches=%d quits=%d", spy.relaunches, spy.quits)
	}
}

func TestInstallOnQuit(t *testing.T) {
	artefact := []byte("bin")

	for _, enabled := range []bool{true, false} {
		srv := newFeedServer(t, "1.3.0", artefact, checksum(artefact))
		c, _, spy := newTestClient(t, srv, "1.2.0")
		c.SetAutoInstallOnAppQuit(enabled)
		if err := c.CheckForUpdates(context.Background()); err != nil {
			t.Fatal(err)
		}

		c.Shutdown()

		want := 0
		if enabled {
			want = 1
		}
		if len(spy.installed) != want {
			t.Errorf("enabled=%v: installs = %d, want %d", enabled, len(spy.installed), want)
		}
		if spy.quits != 0 || spy.relaunches != 0 {
			t.Errorf("install on quit must not quit or relaunch: %+v", spy)
		}
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
		wantErr         bool
	}{
		{"1.3.0", "1.2.0", true, false},
		{"v1.3.0", "1.2.9", true, false},
		{"1.2.0", "1.2.0", false, false},
		{"1.1.0", "1.2.0", false, false},
		{"1.3.0-beta.1", "1.2.0", true, false},
		{"1.3.0", "dev", false, false},
		{"latest", "1.2.0", false, true},
	}

	for _, tt := range tests {
		got, err := isNewer(tt.latest, tt.current)
		if (err != nil) != tt.wantErr {
			t.Fatalf("isNewer(%q, %q) err = %v", tt.latest, tt.current, err)
		}
		if got != tt.want {
			t.Errorf("isNewer(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
		}
	}
}

func TestReleaseInfoPicksArchitecture(t *testing.T) {
	rel := release{
		Version: "1.3.0",
		Path:    "dualview-universal",
		SHA512:  "top",
		Files: []releaseFile{
			{URL: "dualview-1.3.0-other", SHA512: "a", Size: 1},
			{URL: "dualview-1.3.0-" + runtime.GOARCH, SHA512: "b", Size: 2},
		},
	}

	info := rel.info()
	if info.Path != "dualview-1.3.0-"+runtime.GOARCH || info.SHA512 != "b" || info.Size != 2 {
		t.Errorf("info = %+v", info)
	}

	rel.Files = nil
	if info := rel.info(); info.Path != "dualview-universal" || info.SHA512 != "top" {
		t.Errorf("fallback info = %+v", info)
	}
}
