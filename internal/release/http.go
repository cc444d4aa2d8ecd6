package release

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Release host reached over HTTP.
//
// The host is expected to expose create-or-update semantics per release
// identifier. Hosts that only support create still work: the publisher
// first queries for an existing record and branches to the update path,
// so the upsert is explicit rather than best-effort.
//
//	GET  {base}/api/releases/{id}           existence probe
//	POST {base}/api/releases                create
//	PUT  {base}/api/releases/{id}           update metadata
//	PUT  {base}/api/releases/{id}/assets/{name}  upload one asset
type HTTPPublisher struct {
	base   string
	token  string
	client *http.Client
}

// Creates an HTTP publisher for the given base URL.
//
// The token, when set, is sent as a bearer credential on every request.
func NewHTTPPublisher(base, token string) *HTTPPublisher {
	return &HTTPPublisher{
		base:   strings.TrimSuffix(base, "/"),
		token:  token,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Publishes the record, creating the hosted release if the identifier is
// new and updating it otherwise, then uploads every asset.
func (p *HTTPPublisher) Publish(ctx context.Context, rec Record) error {
	exists, err := p.exists(ctx, rec.ID)
	if err != nil {
		return err
	}

	if exists {
		err = p.send(ctx, http.MethodPut, p.releaseURL(rec.ID), rec)
	} else {
		err = p.send(ctx, http.MethodPost, p.base+"/api/releases", rec)
	}
	if err != nil {
		return err
	}

	for _, a := range rec.Assets {
		if err := p.uploadAsset(ctx, rec.ID, a); err != nil {
			return err
		}
	}

	slog.Info("release published", "host", "http", "id", rec.ID, "assets", len(rec.Assets), "updated", exists)
	return nil
}

// Probes the host for an existing release with the given identifier.
func (p *HTTPPublisher) exists(ctx context.Context, id string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.releaseURL(id), nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPublish, err)
	}
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPublish, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: release lookup returned status %d", ErrPublish, resp.StatusCode)
	}
}

// Sends the record as JSON with the given method.
func (p *HTTPPublisher) send(ctx context.Context, method, target string, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s returned status %d", ErrPublish, method, target, resp.StatusCode)
	}
	return nil
}

// Uploads one asset's bytes under the release identifier.
func (p *HTTPPublisher) uploadAsset(ctx context.Context, id string, a Asset) error {
	f, err := os.Open(a.Path)
	if err != nil {
		return fmt.Errorf("%w: asset %s: %v", ErrPublish, a.Name, err)
	}
	defer f.Close()

	target := p.releaseURL(id) + "/assets/" + url.PathEscape(a.Name)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, f)
	if err != nil {
		return fmt.Errorf("%w: asset %s: %v", ErrPublish, a.Name, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = a.Size
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: asset %s: %v", ErrPublish, a.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: asset %s upload returned status %d", ErrPublish, a.Name, resp.StatusCode)
	}
	return nil
}

// Returns the URL of one hosted release.
func (p *HTTPPublisher) releaseURL(id string) string {
	return p.base + "/api/releases/" + url.PathEscape(id)
}

// Attaches the bearer token when one is configured.
func (p *HTTPPublisher) authorize(req *http.Request) {
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
}
