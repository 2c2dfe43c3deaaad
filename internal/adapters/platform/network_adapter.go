// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/janderssonse/sysup/internal/domain"
)

const downloadTimeout = 10 * time.Minute

// NetworkAdapter implements the domain NetworkClient port over HTTP.
type NetworkAdapter struct {
	client *http.Client
}

// NewNetworkAdapter creates a new network adapter.
func NewNetworkAdapter() domain.NetworkClient {
	return &NetworkAdapter{
		client: &http.Client{Timeout: downloadTimeout},
	}
}

// DownloadFile downloads a URL to destPath, reporting received and total
// byte counts through onProgress. Total is 0 when the server does not
// send a Content-Length.
func (n *NetworkAdapter) DownloadFile(ctx context.Context, url, destPath string, onProgress func(received, total int64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	out, err := os.Create(filepath.Clean(destPath))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	defer func() {
		_ = out.Close()
	}()

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	reader := resp.Body
	if onProgress != nil {
		reader = &progressReader{inner: resp.Body, total: total, onProgress: onProgress}
	}

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// progressReader reports cumulative byte counts as the body is consumed.
type progressReader struct {
	inner      io.ReadCloser
	received   int64
	total      int64
	onProgress func(received, total int64)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.inner.Read(buf)
	if n > 0 {
		p.received += int64(n)
		p.onProgress(p.received, p.total)
	}

	return n, err
}

func (p *progressReader) Close() error {
	return p.inner.Close()
}
