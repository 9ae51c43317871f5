package kv

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// DefaultQuota mirrors the per-origin cap browsers put on local storage.
const DefaultQuota = 5 << 20

// Fixed keys, one per entity kind.
const (
	KeySeries    = "kl_series"
	KeyChapters  = "kl_chapters"
	KeyMembers   = "kl_members"
	KeySession   = "kl_session"
	KeyHistory   = "kl_history"
	KeyFavorites = "kl_favorites"

	// KeyLegacyLibrary held series with embedded chapters.
	KeyLegacyLibrary = "kyys.library"
)

// ErrQuotaExceeded is returned by Write when the new value would not fit.
var ErrQuotaExceeded = errors.New("kv: quota exceeded")

// Adapter stores JSON values on a Substrate under fixed keys.
type Adapter struct {
	sub    Substrate
	quota  int64
	logger *slog.Logger

	mu        sync.Mutex
	nextSub   int
	listeners map[int]func(key string)
}

// NewAdapter wraps sub. A quota <= 0 disables the capacity check.
func NewAdapter(sub Substrate, quota int64, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		sub:       sub,
		quota:     quota,
		logger:    logger,
		listeners: make(map[int]func(string)),
	}
}

// Read decodes the value under key into a T. A missing key, a substrate
// failure, a stored null or a value that does not decode as T all yield def.
func Read[T any](a *Adapter, key string, def T) T {
	raw, ok := a.ReadRaw(key)
	if !ok || strings.TrimSpace(raw) == "null" {
		return def
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		a.logger.Debug("discarding malformed value", "key", key, "err", err)
		return def
	}
	return v
}

// ReadRaw returns the stored string under key.
func (a *Adapter) ReadRaw(key string) (string, bool) {
	raw, ok, err := a.sub.Get(key)
	if err != nil {
		a.logger.Debug("read failed", "key", key, "err", err)
		return "", false
	}
	return raw, ok
}

// Write encodes value as JSON and stores it under key.
func (a *Adapter) Write(key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return a.WriteRaw(key, string(b))
}

// WriteRaw stores raw under key, enforcing the quota.
func (a *Adapter) WriteRaw(key, raw string) error {
	if a.quota > 0 {
		used, err := a.sub.Usage()
		if err != nil {
			return fmt.Errorf("failed to measure usage: %w", err)
		}
		if old, ok, err := a.sub.Get(key); err == nil && ok {
			used -= int64(len(key) + len(old))
		}
		if need := used + int64(len(key)+len(raw)); need > a.quota {
			return fmt.Errorf("failed to write %s (%d of %d bytes): %w", key, need, a.quota, ErrQuotaExceeded)
		}
	}
	if err := a.sub.Set(key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	a.notify(key)
	return nil
}

// Remove deletes key. Missing keys are ignored.
func (a *Adapter) Remove(key string) error {
	if err := a.sub.Delete(key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	a.notify(key)
	return nil
}

// Usage reports the bytes currently stored and the configured quota.
func (a *Adapter) Usage() (used, quota int64, err error) {
	used, err = a.sub.Usage()
	return used, a.quota, err
}

// Subscribe registers fn to be called after every successful write or
// removal. Notifications are in-process only.
func (a *Adapter) Subscribe(fn func(key string)) (cancel func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextSub
	a.nextSub++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *Adapter) notify(key string) {
	a.mu.Lock()
	fns := make([]func(string), 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}

func (a *Adapter) Close() error {
	return a.sub.Close()
}
