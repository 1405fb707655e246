// Package media turns the photo links users send into durable image URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	maxRetries        = 3
	defaultTimeout    = 15 * time.Second
	retryWaitDuration = 2 * time.Second
	maxPageBytes      = 2 << 20
)

// ErrNoImage is returned when a URL neither is nor points to an image
var ErrNoImage = errors.New("no image found")

// Resolver checks photo URLs and follows HTML pages to their preview image
type Resolver struct {
	Client    *http.Client
	Logger    *zap.Logger
	Headers   map[string]string
	RetryWait time.Duration
}

// NewResolver creates a resolver with default settings
func NewResolver(log *zap.Logger) *Resolver {
	return &Resolver{
		Client: &http.Client{
			Timeout: defaultTimeout,
		},
		Logger:    log.Named("media-resolver"),
		Headers:   getDefaultHeaders(),
		RetryWait: retryWaitDuration,
	}
}

// Resolve returns an absolute URL of an image. A direct image URL is
// returned after redirects; for an HTML page the og:image (or twitter:image,
// or link rel=image_src) is used.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid photo url %q", rawURL)
	}

	resp, err := r.fetch(ctx, u.String())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	final := resp.Request.URL
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))

	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return final.String(), nil
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		image, err := previewImage(io.LimitReader(resp.Body, maxPageBytes), final)
		if err != nil {
			return "", err
		}
		r.Logger.Debug("Resolved preview image",
			zap.String("page", final.String()),
			zap.String("image", image))
		return image, nil
	default:
		return "", fmt.Errorf("%w: %s is %q", ErrNoImage, final, mediaType)
	}
}

// previewImage finds the preview image declared by an HTML page
func previewImage(body io.Reader, base *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	selectors := []string{
		`meta[property="og:image:secure_url"]`,
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
		`link[rel="image_src"]`,
	}
	for _, sel := range selectors {
		attr := "content"
		if strings.HasPrefix(sel, "link") {
			attr = "href"
		}
		val, ok := doc.Find(sel).First().Attr(attr)
		val = strings.TrimSpace(val)
		if !ok || val == "" {
			continue
		}
		ref, err := url.Parse(val)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		return abs.String(), nil
	}
	return "", fmt.Errorf("%w: %s has no preview image", ErrNoImage, base)
}

// fetch performs a GET with retry. Server errors and transport failures are
// retried; other non-200 statuses fail at once. The caller closes the body.
func (r *Resolver) fetch(ctx context.Context, target string) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		// Set headers
		for key, value := range r.Headers {
			req.Header.Set(key, value)
		}

		resp, err := r.Client.Do(req)
		switch {
		case err != nil:
			lastErr = err
			r.Logger.Warn("HTTP request failed",
				zap.Error(err),
				zap.String("url", target),
				zap.Int("attempt", attempt))
		case resp.StatusCode == http.StatusOK:
			return resp, nil
		case resp.StatusCode >= http.StatusInternalServerError:
			resp.Body.Close()
			lastErr = fmt.Errorf("status code %d", resp.StatusCode)
			r.Logger.Warn("Non-OK HTTP status",
				zap.Int("status", resp.StatusCode),
				zap.String("url", target),
				zap.Int("attempt", attempt))
		default:
			resp.Body.Close()
			return nil, fmt.Errorf("failed to fetch %s: status code %d", target, resp.StatusCode)
		}

		if attempt == maxRetries {
			break
		}
		select {
		case <-time.After(r.RetryWait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("failed to fetch URL after %d attempts: %w", maxRetries, lastErr)
}

// getDefaultHeaders returns common headers for HTTP requests
func getDefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (compatible; CookNetBot/1.0; +https://github.com/bradykim7/cooknet)",
		"Accept":          "text/html,application/xhtml+xml,image/avif,image/webp,image/*;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"Cache-Control":   "no-cache",
	}
}
