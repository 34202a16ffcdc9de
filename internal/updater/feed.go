package updater

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"dualview/internal/logger"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

const progressInterval = 250 * time.Millisecond

// release mirrors the generic-provider channel file (latest.yml) published
// next to the build artefacts.
type release struct {
	Version     string        `yaml:"version"`
	Path        string        `yaml:"path"`
	SHA512      string        `yaml:"sha512"`
	ReleaseDate string        `yaml:"releaseDate"`
	Files       []releaseFile `yaml:"files"`
}

type releaseFile struct {
	URL    string `yaml:"url"`
	SHA512 string `yaml:"sha512"`
	Size   int64  `yaml:"size"`
}

type FeedOptions struct {
	FeedURL        string
	CurrentVersion string
	CacheDir       string
	HTTPClient     *http.Client
}

type pendingUpdate struct {
	info Info
	file string
}

// FeedClient implements Client against a static release feed.
type FeedClient struct {
	feed     *url.URL
	current  string
	cacheDir string
	http     *http.Client
	logger   logger.Logger

	autoDownload      atomic.Bool
	autoInstallOnQuit atomic.Bool
	checking          atomic.Bool

	mu       sync.Mutex
	handlers []func(Event)
	pending  *pendingUpdate
	quit     func()

	install    func(file string, info Info) error
	relaunch   func() error
	newSession func() string
	now        func() time.Time
}

func NewFeedClient(opts FeedOptions, log logger.Logger) (*FeedClient, error) {
	if opts.FeedURL == "" {
		return nil, errors.New("feed URL is required")
	}
	feed, err := url.Parse(strings.TrimSuffix(opts.FeedURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Minute}
	}
	if opts.CacheDir == "" {
		opts.CacheDir = filepath.Join(os.TempDir(), "dualview-updater")
	}
	if log == nil {
		log = logger.NoOpLogger{}
	}

	c := &FeedClient{
		feed:       feed,
		current:    opts.CurrentVersion,
		cacheDir:   opts.CacheDir,
		http:       opts.HTTPClient,
		logger:     log,
		quit:       func() {},
		install:    applyBinary,
		relaunch:   relaunchSelf,
		newSession: uuid.NewString,
		now:        time.Now,
	}
	c.autoDownload.Store(true)
	c.autoInstallOnQuit.Store(true)
	return c, nil
}

func (c *FeedClient) SetAutoDownload(enabled bool) { c.autoDownload.Store(enabled) }
func (c *FeedClient) SetAutoInstallOnAppQuit(enabled bool) { c.autoInstallOnQuit.Store(enabled) }

// SetQuitFunc sets how QuitAndInstall ends the application.
func (c *FeedClient) SetQuitFunc(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quit = fn
}

func (c *FeedClient) OnEvent(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, fn)
}

func (c *FeedClient) emit(ev Event) {
	c.mu.Lock()
	handlers := make([]func(Event), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

func (c *FeedClient) fail(session string, err error) error {
	c.emit(Event{Type: EventError, Session: session, Err: err})
	return err
}

// ChannelFile names the feed document for the running platform.
func ChannelFile() string {
	switch runtime.GOOS {
	case "windows":
		return "latest.yml"
	case "darwin":
		return "latest-mac.yml"
	default:
		return "latest-" + runtime.GOOS + ".yml"
	}
}

func (c *FeedClient) CheckForUpdates(ctx context.Context) error {
	if !c.checking.CompareAndSwap(false, true) {
		return ErrCheckInProgress
	}
	defer c.checking.Store(false)

	session := c.newSession()
	c.emit(Event{Type: EventChecking, Session: session})

	rel, err := c.fetchRelease(ctx)
	if err != nil {
		return c.fail(session, err)
	}

	newer, err := isNewer(rel.Version, c.current)
	if err != nil {
		return c.fail(session, err)
	}

	info := rel.info()
	if !newer {
		c.emit(Event{Type: EventNotAvailable, Session: session, Info: info})
		return nil
	}
	c.emit(Event{Type: EventAvailable, Session: session, Info: info})

	c.mu.Lock()
	already := c.pending != nil && c.pending.info.Version == info.Version
	c.mu.Unlock()
	if already {
		c.emit(Event{Type: EventDownloaded, Session: session, Info: info})
		return nil
	}

	if !c.autoDownload.Load() {
		return nil
	}

	file, err := c.download(ctx, session, info)
	if err != nil {
		return c.fail(session, err)
	}

	c.mu.Lock()
	c.pending = &pendingUpdate{info: info, file: file}
	c.mu.Unlock()

	c.emit(Event{Type: EventDownloaded, Session: session, Info: info})
	return nil
}

func (c *FeedClient) fetchRelease(ctx context.Context) (*release, error) {
	u := c.feed.ResolveReference(&url.URL{Path: ChannelFile()})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", u, resp.Status)
	}

	var rel release
	if err := yaml.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&rel); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ChannelFile(), err)
	}
	if rel.Version == "" {
		return nil, fmt.Errorf("parse %s: missing version", ChannelFile())
	}
	return &rel, nil
}

// info picks the artefact for this architecture when the feed lists several.
func (r *release) info() Info {
	info := Info{
		Version:     r.Version,
		ReleaseDate: r.ReleaseDate,
		Path:        r.Path,
		SHA512:      r.SHA512,
	}

	var chosen *releaseFile
	for i := range r.Files {
		if strings.Contains(r.Files[i].URL, runtime.GOARCH) {
			chosen = &r.Files[i]
			break
		}
	}
	if chosen == nil && len(r.Files) > 0 && info.Path == "" {
		chosen = &r.Files[0]
	}
	if chosen != nil {
		info.Path = chosen.URL
		info.SHA512 = chosen.SHA512
		info.Size = chosen.Size
	}
	return info
}

func isNewer(latest, current string) (bool, error) {
	l, cur := canonical(latest), canonical(current)
	if !semver.IsValid(l) {
		return false, fmt.Errorf("invalid version in feed: %q", latest)
	}
	if !semver.IsValid(cur) {
		// Development builds carry no release version and never self-update.
		return false, nil
	}
	return semver.Compare(l, cur) > 0, nil
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func (c *FeedClient) download(ctx context.Context, session string, info Info) (string, error) {
	if info.Path == "" {
		return "", errors.New("feed lists no artefact")
	}
	ref, err := url.Parse(info.Path)
	if err != nil {
		return "", fmt.Errorf("invalid artefact path %q: %w", info.Path, err)
	}
	u := c.feed.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %s", u, resp.Status)
	}

	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return "", err
	}
	final := filepath.Join(c.cacheDir, path.Base(u.Path))
	partial := final + ".part"

	out, err := os.Create(partial)
	if err != nil {
		return "", err
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.Size
	}

	hash := sha512.New()
	pr := &progressReader{
		r:     resp.Body,
		total: total,
		start: c.now(),
		now:   c.now,
		report: func(p Progress) {
			c.emit(Event{Type: EventProgress, Session: session, Info: info, Progress: p})
		},
	}

	_, copyErr := io.Copy(io.MultiWriter(out, hash), pr)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(partial)
		return "", fmt.Errorf("download %s: %w", u, err)
	}
	pr.flush()

	if info.SHA512 != "" {
		sum := base64.StdEncoding.EncodeToString(hash.Sum(nil))
		if sum != info.SHA512 {
			os.Remove(partial)
			return "", fmt.Errorf("%w for %s", ErrChecksum, path.Base(u.Path))
		}
	}

	if err := os.Rename(partial, final); err != nil {
		return "", err
	}
	return final, nil
}

// QuitAndInstall applies the downloaded release, optionally relaunches the new
// binary and then quits. silent has no effect on a binary swap, which never
// shows an installer UI.
func (c *FeedClient) QuitAndInstall(silent, forceRunAfter bool) {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	quit := c.quit
	c.mu.Unlock()

	if pending == nil {
		c.emit(Event{Type: EventError, Err: ErrNoUpdate})
		return
	}

	c.logger.Info("UpdateClient", "installing update", map[string]interface{}{
		"version":         pending.info.Version,
		"silent":          silent,
		"force_run_after": forceRunAfter,
	})

	if err := c.install(pending.file, pending.info); err != nil {
		c.emit(Event{Type: EventError, Info: pending.info, Err: err})
		return
	}

	if forceRunAfter {
		if err := c.relaunch(); err != nil {
			c.emit(Event{Type: EventError, Info: pending.info, Err: fmt.Errorf("relaunch: %w", err)})
		}
	}
	quit()
}

// InstallOnQuit applies a downloaded but not yet installed release while the
// application shuts down.
func (c *FeedClient) InstallOnQuit() {
	if !c.autoInstallOnQuit.Load() {
		return
	}

	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if pending == nil {
		return
	}

	if err := c.install(pending.file, pending.info); err != nil {
		c.emit(Event{Type: EventError, Info: pending.info, Err: err})
		return
	}
	c.logger.Info("UpdateClient", "update installed on quit", map[string]interface{}{
		"version": pending.info.Version,
	})
}

// Shutdown satisfies shutdown.Component.
func (c *FeedClient) Shutdown() {
	c.InstallOnQuit()
}

type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	start    time.Time
	last     time.Time
	now      func() time.Time
	report   func(Progress)
	reported int64
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)

	if t := p.now(); n > 0 && t.Sub(p.last) >= progressInterval {
		p.last = t
		p.emit(t)
	}
	return n, err
}

// flush reports the final byte count if the last read was throttled.
func (p *progressReader) flush() {
	if p.reported != p.read {
		p.emit(p.now())
	}
}

func (p *progressReader) emit(t time.Time) {
	prog := Progress{Transferred: p.read, Total: p.total}
	if elapsed := t.Sub(p.start).Seconds(); elapsed > 0 {
		prog.BytesPerSecond = int64(float64(p.read) / elapsed)
	}
	if p.total > 0 {
		prog.Percent = float64(p.read) * 100 / float64(p.total)
	}
	p.reported = p.read
	p.report(prog)
}
