// Copyright 2025 Fathomlight
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fathomlight/docsmith/retry"
)

// ContentFetcher retrieves a document's raw content from its storage
// location when the caller did not supply it inline.
type ContentFetcher interface {
	Fetch(ctx context.Context, location string) (string, error)
}

// HTTPFetcher fetches document content over HTTP(S) with retries.
type HTTPFetcher struct {
	client      *http.Client
	maxAttempts int
	retryDelay  time.Duration
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration, maxAttempts int, retryDelay time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return &HTTPFetcher{
		client:      &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
}

// Fetch downloads the content at location. Transient failures and non-2xx
// responses are retried with backoff; the last error is returned once the
// attempt ceiling is reached.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) (string, error) {
	var content string
	err := retry.Do(ctx, func() error {
		body, err := f.get(ctx, location)
		if err != nil {
			return err
		}
		content = body
		return nil
	}, f.maxAttempts, f.retryDelay)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", location, err)
	}
	return content, nil
}

func (f *HTTPFetcher) get(ctx context.Context, location string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
