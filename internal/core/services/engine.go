package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/statesync/internal/core/crdt"
	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driven"
	"github.com/custodia-labs/statesync/internal/core/ports/driving"
	"github.com/custodia-labs/statesync/internal/logger"
)

// Ensure SyncEngine implements the interface.
var _ driving.SyncService = (*SyncEngine)(nil)

// FieldLastDevice names the document field carrying the id of the device
// that wrote the last full push. Appliers ignore it.
const FieldLastDevice = "last_device"

// EngineOptions configures a SyncEngine.
type EngineOptions struct {
	// AccountID selects the remote document.
	AccountID string

	// DebounceWindow is the quiet window before a coalesced push fires.
	DebounceWindow time.Duration

	// TombstoneRetention is how long deletions outlive the last sync.
	// Zero keeps tombstones forever.
	TombstoneRetention time.Duration

	// DownloadMode is passed to the plugin loader.
	DownloadMode domain.AutoDownloadMode

	// DenyList names keys that never sync.
	DenyList *domain.KeyFilter

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// Diagnostics receives every failure. Defaults to a new ring.
	Diagnostics *logger.Ring
}

// OptionsFromConfig builds engine options from application configuration.
func OptionsFromConfig(cfg domain.AppConfig) EngineOptions {
	return EngineOptions{
		AccountID:          cfg.AccountID,
		DebounceWindow:     cfg.DebounceWindow,
		TombstoneRetention: cfg.TombstoneRetention,
		DownloadMode:       cfg.DownloadMode,
		DenyList:           domain.DefaultDenyList(),
	}
}

// SyncEngine mirrors local state into one shared remote document.
//
// Local mutations reach the engine through the Local Store watch and are
// pushed by the change throttler. Remote changes arrive through the
// subscription and are merged by the appliers. The two paths run
// independently and rely on every merge being idempotent.
type SyncEngine struct {
	local     driven.LocalStore
	connector driven.RemoteConnector
	loader    driven.PluginLoader
	notifier  driven.Notifier

	opts      EngineOptions
	diag      *logger.Ring
	throttler *ChangeThrottler

	initializing atomic.Bool

	mu        sync.RWMutex
	started   bool
	stopping  bool
	unwatch   func()
	remote    driven.RemoteStore
	sub       driven.Subscription
	cfg       domain.SyncConfig
	lastError string
	pushes    int
	applies   int
	failures  int

	// tasks tracks snapshot applies so Stop can wait for them.
	tasks sync.WaitGroup
}

// NewSyncEngine creates an engine. loader and notifier are optional.
func NewSyncEngine(
	local driven.LocalStore,
	connector driven.RemoteConnector,
	loader driven.PluginLoader,
	notifier driven.Notifier,
	opts EngineOptions,
) *SyncEngine {
	defaults := OptionsFromConfig(domain.DefaultAppConfig())
	if opts.AccountID == "" {
		opts.AccountID = defaults.AccountID
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = defaults.DebounceWindow
	}
	if !opts.DownloadMode.IsValid() {
		opts.DownloadMode = defaults.DownloadMode
	}
	if opts.DenyList == nil {
		opts.DenyList = defaults.DenyList
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = logger.NewRing(logger.DefaultRingSize)
	}

	e := &SyncEngine{
		local:     local,
		connector: connector,
		loader:    loader,
		notifier:  notifier,
		opts:      opts,
		diag:      opts.Diagnostics,
	}
	e.throttler = NewChangeThrottler(
		opts.DebounceWindow,
		domain.PushEligibility{Deny: opts.DenyList},
		e.isConnected,
		e.pushAll,
	)
	return e
}

// Start begins watching local mutations. When sync is enabled and
// credentials are persisted, it also initializes the remote connection;
// failures there are logged and leave the engine disconnected.
func (e *SyncEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	e.stopping = false
	e.unwatch = e.local.Watch(e.onLocalChange)
	e.mu.Unlock()
	e.throttler.Restart()

	if err := e.ensureDeviceID(ctx); err != nil {
		e.fail("device id: %v", err)
	}

	enabled, err := e.flag(ctx, domain.KeySyncEnabled)
	if err != nil {
		return fmt.Errorf("read sync flag: %w", err)
	}
	if !enabled {
		logger.Debug("sync disabled, not connecting")
		return nil
	}

	cfg, err := e.storedConfig(ctx)
	if err != nil {
		return fmt.Errorf("read sync config: %w", err)
	}
	if err := e.Initialize(ctx, cfg); err != nil {
		logger.Debug("start: %v", err)
	}
	return nil
}

// Stop flushes a pending push, stops the throttler, waits for running
// snapshot applies and closes the remote connection. It is safe to call
// more than once, and also after Initialize without Start.
func (e *SyncEngine) Stop(ctx context.Context) error {
	e.mu.Lock()
	e.started = false
	if e.unwatch != nil {
		e.unwatch()
		e.unwatch = nil
	}
	e.mu.Unlock()

	var errs []error
	if flushed, err := e.throttler.FlushPending(ctx); err != nil {
		errs = append(errs, fmt.Errorf("final flush: %w", err))
	} else if flushed {
		logger.Info("flushed pending changes before stop")
	}
	e.throttler.Stop()

	e.mu.Lock()
	e.stopping = true
	e.mu.Unlock()
	e.tasks.Wait()

	if err := e.closeRemote(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Initialize connects with cfg, persists it, performs the first-sync
// handshake and subscribes to remote changes. Concurrent calls collapse into
// one attempt; calling it again with the same config is a no-op.
//
//nolint:gocyclo // Sequential handshake steps
func (e *SyncEngine) Initialize(ctx context.Context, cfg domain.SyncConfig) error {
	if err := cfg.Validate(); err != nil {
		e.fail("initialize: %v", err)
		return fmt.Errorf("initialize: %w", err)
	}

	if e.connector == nil {
		e.fail("initialize: no remote connector")
		return fmt.Errorf("initialize: %w", domain.ErrNotConfigured)
	}

	if !e.initializing.CompareAndSwap(false, true) {
		logger.Debug("initialize already running")
		return nil
	}
	defer e.initializing.Store(false)

	e.mu.RLock()
	connected, current := e.remote != nil, e.cfg
	e.mu.RUnlock()
	if connected {
		if current == cfg {
			return nil
		}
		return domain.ErrAlreadyConfigured
	}

	logger.Section("Initialize")

	// 1. Connect
	remote, err := e.connector.Connect(ctx, cfg)
	if err != nil {
		e.fail("connect: %v", err)
		return fmt.Errorf("connect: %w", err)
	}

	// 2. Persist credentials
	if err := e.persistConfig(ctx, cfg); err != nil {
		_ = remote.Close()
		e.fail("persist config: %v", err)
		return fmt.Errorf("persist config: %w", err)
	}

	// 3. First-sync handshake
	if err := e.handshake(ctx, remote); err != nil {
		_ = remote.Close()
		e.fail("handshake: %v", err)
		return fmt.Errorf("handshake: %w", err)
	}

	// 4. Realtime subscription
	sub, err := remote.Subscribe(context.Background(), e.opts.AccountID, e.onSnapshot, e.onSubscriptionError)
	if err != nil {
		_ = remote.Close()
		e.fail("subscribe: %v", err)
		return fmt.Errorf("subscribe: %w", err)
	}

	e.mu.Lock()
	e.remote = remote
	e.sub = sub
	e.cfg = cfg
	e.lastError = ""
	e.mu.Unlock()

	logger.Info("sync connected to account %s", e.opts.AccountID)
	return nil
}

// handshake reads the document once. A missing document is seeded with the
// full local state. An existing one is applied and then, rather than only
// recording last_sync, the merged state is written back so local additions
// made while offline reach other devices before the watermark moves.
func (e *SyncEngine) handshake(ctx context.Context, remote driven.RemoteStore) error {
	started := e.opts.Clock()

	doc, err := remote.GetDocument(ctx, e.opts.AccountID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Info("no remote document, pushing local baseline")
	case err != nil:
		return fmt.Errorf("read document: %w", err)
	default:
		e.applySnapshot(ctx, doc)
	}
	return e.pushAllTo(ctx, remote, started)
}

// Reconnect re-initializes from persisted credentials when sync is enabled
// but the engine is disconnected.
func (e *SyncEngine) Reconnect(ctx context.Context) error {
	if e.isConnected() || e.initializing.Load() {
		return nil
	}
	enabled, err := e.flag(ctx, domain.KeySyncEnabled)
	if err != nil || !enabled {
		return err
	}
	cfg, err := e.storedConfig(ctx)
	if err != nil {
		return fmt.Errorf("read sync config: %w", err)
	}
	return e.Initialize(ctx, cfg)
}

// Disconnect closes the connection and disables sync. Credentials stay
// persisted so sync can be re-enabled without re-entry.
func (e *SyncEngine) Disconnect(ctx context.Context) error {
	e.throttler.Cancel()
	err := e.closeRemote()
	if setErr := e.local.Set(ctx, domain.KeySyncEnabled, "false"); setErr != nil {
		err = errors.Join(err, fmt.Errorf("disable sync: %w", setErr))
	}
	return err
}

func (e *SyncEngine) closeRemote() error {
	e.mu.Lock()
	remote, sub := e.remote, e.sub
	e.remote, e.sub = nil, nil
	e.cfg = domain.SyncConfig{}
	e.mu.Unlock()

	var errs []error
	if sub != nil {
		if err := sub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscription: %w", err))
		}
	}
	if remote != nil {
		if err := remote.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close remote: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Push merge-writes one domain field immediately.
func (e *SyncEngine) Push(ctx context.Context, d domain.Domain, payload string) error {
	if !d.IsValid() {
		return fmt.Errorf("%w: unknown domain %q", domain.ErrInvalidInput, d)
	}
	remote := e.currentRemote()
	if remote == nil {
		return domain.ErrNotConnected
	}

	var w domain.DocumentWrite
	w.SetDomain(d, payload)
	if err := remote.MergeWrite(ctx, e.opts.AccountID, w); err != nil {
		e.fail("push %s: %v", d, err)
		return fmt.Errorf("push %s: %w", d, err)
	}
	return nil
}

// FlushNow pushes the full local state, bypassing the debounce timer.
func (e *SyncEngine) FlushNow(ctx context.Context) error {
	return e.throttler.Flush(ctx)
}

// pushAll is the throttled full push.
func (e *SyncEngine) pushAll(ctx context.Context) error {
	remote := e.currentRemote()
	if remote == nil {
		return domain.ErrNotConnected
	}
	return e.pushAllTo(ctx, remote, e.opts.Clock())
}

// pushAllTo writes every enabled domain plus last_sync in one merge-write.
// The watermark becomes the time the push started, so anything changed
// while the write was in flight still counts as unsynced.
func (e *SyncEngine) pushAllTo(ctx context.Context, remote driven.RemoteStore, started time.Time) error {
	w := domain.NewDocumentWrite()
	for _, x := range e.extractors() {
		if !e.domainEnabled(ctx, x.domain) {
			continue
		}
		payload, ok, err := x.extract(ctx)
		if err != nil {
			e.fail("extract %s: %v", x.domain, err)
			continue
		}
		if ok {
			w.SetDomain(x.domain, payload)
		}
	}
	if id, ok, _ := e.local.Get(ctx, domain.KeyDeviceID); ok {
		w.Fields[FieldLastDevice] = id
	}
	w.SetTimestamp(domain.FieldLastSync, started.UnixMilli())

	if err := remote.MergeWrite(ctx, e.opts.AccountID, w); err != nil {
		e.fail("push: %v", err)
		return fmt.Errorf("push: %w", err)
	}
	if err := e.setWatermark(ctx, started); err != nil {
		e.fail("record last sync: %v", err)
	}

	e.mu.Lock()
	e.pushes++
	e.mu.Unlock()
	logger.Debug("pushed %d fields", len(w.Fields))
	return nil
}

// onLocalChange feeds Local Store mutations to the throttler.
func (e *SyncEngine) onLocalChange(change domain.KeyChange) {
	e.throttler.OnChange(change)
}

// onSnapshot applies each delivered document in its own task.
func (e *SyncEngine) onSnapshot(doc *domain.RemoteDocument) {
	e.mu.RLock()
	if e.stopping {
		e.mu.RUnlock()
		return
	}
	e.tasks.Add(1)
	e.mu.RUnlock()

	go func() {
		defer e.tasks.Done()
		e.applySnapshot(context.Background(), doc)
	}()
}

func (e *SyncEngine) onSubscriptionError(err error) {
	e.fail("subscription: %v", err)
}

// ApplySnapshot merges a remote document into local state synchronously.
func (e *SyncEngine) ApplySnapshot(ctx context.Context, doc *domain.RemoteDocument) {
	e.applySnapshot(ctx, doc)
}

// applySnapshot runs every applier. A failing domain is logged and skipped;
// the others are still applied.
func (e *SyncEngine) applySnapshot(ctx context.Context, doc *domain.RemoteDocument) {
	if doc == nil {
		return
	}

	reloadSettings, reloadAccount := false, false
	for _, a := range e.appliers() {
		payload, ok := doc.Payload(a.domain)
		if !ok || !e.domainEnabled(ctx, a.domain) {
			continue
		}
		changed, err := a.apply(ctx, payload)
		if err != nil {
			e.fail("apply %s: %v", a.domain, err)
		}
		if !changed {
			continue
		}
		logger.Debug("applied remote %s", a.domain)
		switch a.domain {
		case domain.DomainSettings, domain.DomainHomeSettings:
			reloadSettings = true
		case domain.DomainAccounts:
			reloadAccount = true
		}
	}

	reloadBookmarks := false
	if e.domainEnabled(ctx, domain.DomainResumeWatching) {
		changed, err := e.applyResume(ctx, doc)
		if err != nil {
			e.fail("apply %s: %v", domain.DomainResumeWatching, err)
		}
		reloadBookmarks = changed
	}

	e.mu.Lock()
	e.applies++
	e.mu.Unlock()

	if e.notifier == nil {
		return
	}
	if reloadSettings {
		e.notifier.SettingsChanged()
	}
	if reloadAccount {
		e.notifier.AccountChanged()
	}
	if reloadBookmarks {
		e.notifier.BookmarksChanged()
	}
}

// Status returns a snapshot of the engine state.
func (e *SyncEngine) Status(ctx context.Context) (*driving.SyncStatus, error) {
	enabled, err := e.flag(ctx, domain.KeySyncEnabled)
	if err != nil {
		return nil, fmt.Errorf("read sync flag: %w", err)
	}

	status := &driving.SyncStatus{
		AccountID:    e.opts.AccountID,
		Enabled:      enabled,
		Initializing: e.initializing.Load(),
		PushPending:  e.throttler.Pending(),
	}
	if ms := e.watermark(ctx); ms > 0 {
		status.LastSync = time.UnixMilli(ms)
	}
	for _, d := range domain.AllDomains() {
		if d != domain.DomainResumeWatchingDeleted && !e.domainEnabled(ctx, d) {
			status.Disabled = append(status.Disabled, d)
		}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	status.Connected = e.remote != nil
	status.Config = e.cfg.Redacted()
	status.LastError = e.lastError
	status.Pushes = e.pushes
	status.Applies = e.applies
	status.Failures = e.failures
	if !status.Connected {
		if cfg, err := e.storedConfig(ctx); err == nil {
			status.Config = cfg.Redacted()
		}
	}
	return status, nil
}

// Logs returns the diagnostic log, oldest first.
func (e *SyncEngine) Logs() []string {
	return e.diag.Entries()
}

// fail records a failure in the diagnostic ring.
func (e *SyncEngine) fail(format string, args ...any) {
	entry := e.diag.Add(format, args...)
	e.mu.Lock()
	e.lastError = entry
	e.failures++
	e.mu.Unlock()
}

func (e *SyncEngine) isConnected() bool {
	return e.currentRemote() != nil
}

func (e *SyncEngine) currentRemote() driven.RemoteStore {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.remote
}

func (e *SyncEngine) nowMs() int64 {
	return e.opts.Clock().UnixMilli()
}

// watermark returns the last_sync watermark in unix milliseconds, or zero.
func (e *SyncEngine) watermark(ctx context.Context) int64 {
	raw, ok, err := e.local.Get(ctx, domain.KeyLastSync)
	if err != nil || !ok {
		return 0
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return ms
}

func (e *SyncEngine) setWatermark(ctx context.Context, t time.Time) error {
	return e.local.Set(ctx, domain.KeyLastSync, strconv.FormatInt(t.UnixMilli(), 10))
}

func (e *SyncEngine) retentionCutoff(watermark int64) int64 {
	return crdt.RetentionCutoff(watermark, e.opts.TombstoneRetention.Milliseconds())
}

// domainEnabled reports whether the per-device toggle allows a domain.
// Domains are enabled unless explicitly switched off.
func (e *SyncEngine) domainEnabled(ctx context.Context, d domain.Domain) bool {
	raw, ok, err := e.local.Get(ctx, domain.ToggleKey(d))
	if err != nil || !ok {
		return true
	}
	enabled, err := strconv.ParseBool(raw)
	return err != nil || enabled
}

func (e *SyncEngine) flag(ctx context.Context, key string) (bool, error) {
	raw, ok, err := e.local.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	v, _ := strconv.ParseBool(raw)
	return v, nil
}

func (e *SyncEngine) storedConfig(ctx context.Context) (domain.SyncConfig, error) {
	var cfg domain.SyncConfig
	fields := []struct {
		key string
		dst *string
	}{
		{domain.KeyAPIKey, &cfg.APIKey},
		{domain.KeyProjectID, &cfg.ProjectID},
		{domain.KeyAppID, &cfg.AppID},
	}
	for _, f := range fields {
		v, _, err := e.local.Get(ctx, f.key)
		if err != nil {
			return domain.SyncConfig{}, err
		}
		*f.dst = v
	}
	return cfg, nil
}

func (e *SyncEngine) persistConfig(ctx context.Context, cfg domain.SyncConfig) error {
	values := map[string]string{
		domain.KeyAPIKey:      cfg.APIKey,
		domain.KeyProjectID:   cfg.ProjectID,
		domain.KeyAppID:       cfg.AppID,
		domain.KeySyncEnabled: "true",
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := e.local.Set(ctx, k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

func (e *SyncEngine) ensureDeviceID(ctx context.Context) error {
	if _, ok, err := e.local.Get(ctx, domain.KeyDeviceID); err != nil || ok {
		return err
	}
	return e.local.Set(ctx, domain.KeyDeviceID, uuid.New().String())
}
