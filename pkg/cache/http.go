package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL applies when the provider sends neither Cache-Control max-age
// nor a usable Expires header.
const DefaultTTL = 5 * time.Minute

// ResponseToEntry captures resp as a CacheEntry. The body is read fully and
// replaced with a fresh reader so the caller can still decode it.
func ResponseToEntry(resp *http.Response) (*CacheEntry, error) {
	if resp == nil {
		return nil, errors.New("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	now := time.Now()
	entry := &CacheEntry{
		Data:       body,
		ETag:       resp.Header.Get("ETag"),
		Expires:    expiresAt(resp.Header, now),
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		CachedAt:   now,
	}
	if lm, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		entry.LastModified = lm
	}
	return entry, nil
}

func parseExpires(h http.Header) time.Time {
	return expiresAt(h, time.Now())
}

// expiresAt resolves freshness in this order: no-store/no-cache/private
// (expired on arrival), max-age, Expires, DefaultTTL. An Expires in the
// past also means expired on arrival.
func expiresAt(h http.Header, now time.Time) time.Time {
	maxAge, noStore := parseCacheControl(h.Get("Cache-Control"))
	switch {
	case noStore:
		return now
	case maxAge >= 0:
		return now.Add(time.Duration(maxAge) * time.Second)
	}

	exp, err := http.ParseTime(h.Get("Expires"))
	switch {
	case err != nil:
		return now.Add(DefaultTTL)
	case exp.Before(now):
		return now
	default:
		return exp
	}
}

// parseCacheControl returns max-age (-1 when absent or malformed) and
// whether any directive forbids storing the response.
func parseCacheControl(value string) (maxAge int, noStore bool) {
	maxAge = -1
	for _, d := range strings.Split(value, ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		switch {
		case d == "no-store", d == "no-cache", d == "private":
			noStore = true
		case strings.HasPrefix(d, "max-age="):
			if n, err := strconv.Atoi(d[len("max-age="):]); err == nil && n >= 0 {
				maxAge = n
			}
		}
	}
	return maxAge, noStore
}

// ShouldMakeConditionalRequest reports whether entry carries a validator.
func ShouldMakeConditionalRequest(entry *CacheEntry) bool {
	return entry != nil && (entry.ETag != "" || !entry.LastModified.IsZero())
}

// AddConditionalHeaders sets If-None-Match from the ETag, or
// If-Modified-Since when only Last-Modified is known.
func AddConditionalHeaders(req *http.Request, entry *CacheEntry) {
	if req == nil || !ShouldMakeConditionalRequest(entry) {
		return
	}
	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
		return
	}
	req.Header.Set("If-Modified-Since", entry.LastModified.UTC().Format(http.TimeFormat))
}

// EntryToResponse replays entry as a response marked X-Cache: HIT with its
// Age. Every call gets its own body reader.
func EntryToResponse(entry *CacheEntry) *http.Response {
	header := entry.Headers.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("X-Cache", "HIT")
	header.Set("Age", strconv.Itoa(int(entry.Age().Seconds())))

	status := entry.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Data)),
		ContentLength: int64(len(entry.Data)),
	}
}
