package utils

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/YungFritz/kyys-letters/pkg/data"
)

// SavedSeries is where a published snapshot ended up.
type SavedSeries struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// RemoteItem describes one published snapshot.
type RemoteItem struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (e envelope) err() error {
	if e.OK {
		return nil
	}
	if e.Error == "" {
		return errors.New("remote request failed")
	}
	return errors.New(e.Error)
}

// SaveSeries publishes snap under slug.
func (a *API) SaveSeries(ctx context.Context, slug string, snap data.Snapshot) (SavedSeries, error) {
	body := struct {
		Slug   string        `json:"slug"`
		Data   data.Snapshot `json:"data"`
		Access string        `json:"access"`
	}{slug, snap, "public"}

	var resp struct {
		envelope
		SavedSeries
	}
	if err := a.Post(ctx, "/series/save", body, &resp); err != nil {
		return SavedSeries{}, err
	}
	if err := resp.err(); err != nil {
		return SavedSeries{}, err
	}
	return resp.SavedSeries, nil
}

// ListSeries enumerates the published snapshots.
func (a *API) ListSeries(ctx context.Context) ([]RemoteItem, error) {
	var resp struct {
		envelope
		Items []RemoteItem `json:"items"`
	}
	if err := a.Get(ctx, "/series/list", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ReadSeries fetches the snapshot stored under key. It returns nil when the
// remote has nothing there.
func (a *API) ReadSeries(ctx context.Context, key string) (*data.Snapshot, error) {
	var snap data.Snapshot
	err := a.Get(ctx, "/series/read", url.Values{"key": {key}}, &snap)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// DeleteSeries removes the snapshot published under slug.
func (a *API) DeleteSeries(ctx context.Context, slug string) error {
	var resp envelope
	if err := a.Post(ctx, "/series/delete", map[string]string{"slug": slug}, &resp); err != nil {
		return err
	}
	return resp.err()
}
