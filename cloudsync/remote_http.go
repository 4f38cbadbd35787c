/*
remote_http.go - HTTP implementation of the remote document

PURPOSE:
  Talks to a plain revisioned key-value document service: one document at a
  fixed {collection}/{key} path, schema-identical to AppState.

PROTOCOL:
    PUT  /v1/{collection}/{key}            full-document replace
    GET  /v1/{collection}/{key}?rev=N      long-poll; returns when the
                                           document revision differs from N
  Responses carry the revision in the X-Doc-Revision header. 404 means the
  document does not exist yet; 304 means no change within the poll window.
  Credentials travel as X-Api-Key / X-Project-Id headers; the client treats
  them as opaque.

SUBSCRIPTION:
  Subscribe runs a polling goroutine. Transport errors surface through
  OnError and polling continues after a short backoff - the reconciler's
  status machinery decides what to show, this layer just keeps trying to
  observe.
*/
package cloudsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/thaithanh/rentledger/billing"
)

const (
	revisionHeader  = "X-Doc-Revision"
	apiKeyHeader    = "X-Api-Key"
	projectIDHeader = "X-Project-Id"

	pollBackoff = 3 * time.Second
)

// HTTPDocument implements RemoteDocument against the document service.
type HTTPDocument struct {
	baseURL    string
	collection string
	key        string
	apiKey     string
	projectID  string
	client     *http.Client
}

// NewHTTPDocument builds a client for one document. The http.Client may be
// nil; a client with a sane timeout for replace calls is used (the poll
// request manages its own deadline via context).
func NewHTTPDocument(baseURL, collection, key, apiKey, projectID string, client *http.Client) *HTTPDocument {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPDocument{
		baseURL:    baseURL,
		collection: collection,
		key:        key,
		apiKey:     apiKey,
		projectID:  projectID,
		client:     client,
	}
}

func (d *HTTPDocument) docURL(rev string) string {
	u := fmt.Sprintf("%s/v1/%s/%s", d.baseURL, url.PathEscape(d.collection), url.PathEscape(d.key))
	if rev != "" {
		u += "?rev=" + url.QueryEscape(rev)
	}
	return u
}

func (d *HTTPDocument) authorize(req *http.Request) {
	req.Header.Set(apiKeyHeader, d.apiKey)
	req.Header.Set(projectIDHeader, d.projectID)
}

// Replace overwrites the remote document with the given state.
func (d *HTTPDocument) Replace(ctx context.Context, state billing.AppState) error {
	body, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, d.docURL(""), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	d.authorize(req)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("remote replace: unexpected status %s", resp.Status)
	}
	return nil
}

// Subscribe polls the document and delivers events until cancel is called.
// The first successful poll delivers the initial value (or OnMissing).
func (d *HTTPDocument) Subscribe(ctx context.Context, hooks SubscriptionHooks) (func(), error) {
	pollCtx, cancel := context.WithCancel(ctx)
	go d.pollLoop(pollCtx, hooks)
	return cancel, nil
}

func (d *HTTPDocument) pollLoop(ctx context.Context, hooks SubscriptionHooks) {
	rev := ""
	missingReported := false

	for ctx.Err() == nil {
		state, newRev, status, err := d.poll(ctx, rev)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			if hooks.OnError != nil {
				hooks.OnError(err)
			}
			sleep(ctx, pollBackoff)
		case status == http.StatusNotFound:
			if !missingReported && hooks.OnMissing != nil {
				hooks.OnMissing()
			}
			missingReported = true
			sleep(ctx, pollBackoff)
		case status == http.StatusNotModified:
			// Poll window elapsed with no change.
		default:
			missingReported = false
			rev = newRev
			if hooks.OnSnapshot != nil {
				hooks.OnSnapshot(*state)
			}
		}
	}
}

// poll issues one long-poll request. The server holds the request open until
// the document revision differs from rev or its wait window elapses.
func (d *HTTPDocument) poll(ctx context.Context, rev string) (*billing.AppState, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.docURL(rev), nil)
	if err != nil {
		return nil, "", 0, err
	}
	d.authorize(req)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusNotModified:
		return nil, "", resp.StatusCode, nil
	case http.StatusOK:
		var state billing.AppState
		if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
			return nil, "", 0, fmt.Errorf("decode document: %w", err)
		}
		return &state, resp.Header.Get(revisionHeader), resp.StatusCode, nil
	default:
		return nil, "", 0, fmt.Errorf("remote poll: unexpected status %s", resp.Status)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
