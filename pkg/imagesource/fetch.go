package imagesource

import (
	"bytes"
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/uitmedia/framefusion/pkg/cache"
	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/observability"
)

// memPrefix marks references registered with AddBytes.
const memPrefix = "mem:"

// AddBytes registers raw image bytes and returns a reference for them. The
// same bytes always yield the same reference. Decoding starts at once.
func (l *Loader) AddBytes(data []byte) string {
	ref := memPrefix + cache.Hash(data)
	l.mu.Lock()
	if _, ok := l.blobs[ref]; !ok {
		l.blobs[ref] = bytes.Clone(data)
	}
	l.mu.Unlock()
	l.start(ref)
	return ref
}

// Fetch returns the encoded bytes behind ref.
func (l *Loader) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, memPrefix) {
		l.mu.RLock()
		data, ok := l.blobs[ref]
		l.mu.RUnlock()
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "unknown in-memory image %s", ref)
		}
		observability.Images().OnFetch(ctx, "upload", len(data), 0, nil)
		return data, nil
	}

	if err := errors.ValidateSourceRef(ref); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		kind string
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(ref, "data:"):
		kind = "data"
		data, err = decodeDataURL(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		kind = "http"
		data, err = l.fetchRemote(ctx, ref)
	default:
		kind = "file"
		data, err = l.readFile(ref)
	}
	observability.Images().OnFetch(ctx, kind, len(data), time.Since(start), err)
	return data, err
}

func (l *Loader) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "image file %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "cannot read %s", path)
	}
	if info.Size() > l.maxBytes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "image file %s exceeds %d bytes", path, l.maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "cannot read %s", path)
	}
	return data, nil
}

// decodeDataURL extracts the payload of a data:image URL, base64 or
// percent-encoded.
func decodeDataURL(ref string) ([]byte, error) {
	meta, payload, _ := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some producers strip the padding.
			if data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
				return nil, errors.Wrap(errors.ErrCodeDecodeFailed, err, "invalid base64 in data URL")
			}
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecodeFailed, err, "invalid data URL payload")
	}
	return []byte(s), nil
}

// fetchRemote reads an http(s) source through the cache, retrying
// transient failures.
func (l *Loader) fetchRemote(ctx context.Context, rawURL string) ([]byte, error) {
	key := cache.SourceKey(rawURL)
	hooks := observability.Images()
	if data, ok, err := l.cache.Get(ctx, key); err == nil && ok {
		hooks.OnCacheHit(ctx, "http")
		l.logger.Debug("source cache hit", "url", short(rawURL))
		return data, nil
	} else if err != nil {
		l.logger.Warn("source cache read failed", "err", err)
	}
	hooks.OnCacheMiss(ctx, "http")

	var data []byte
	err := l.backoff.Do(ctx, func() error {
		var err error
		data, err = l.get(ctx, rawURL)
		return err
	})
	if err != nil {
		switch {
		case stderrors.Is(err, cache.ErrNotFound):
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "image %s not found", short(rawURL))
		case stderrors.Is(err, cache.ErrNetwork):
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "cannot fetch %s", short(rawURL))
		}
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "cannot fetch %s", short(rawURL))
	}

	if err := l.cache.Set(ctx, key, data, l.ttl); err != nil {
		l.logger.Warn("source cache write failed", "err", err)
	}
	return data, nil
}

func (l *Loader) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", cache.ErrNotFound, resp.Status)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, cache.Retryable(fmt.Errorf("%w: %s", cache.ErrNetwork, resp.Status))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", l.maxBytes)
	}
	return data, nil
}
