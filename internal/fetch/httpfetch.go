package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ranktracker/internal/domain"
	"ranktracker/internal/proxy"
)

// blockMarkers appear on the interstitial page served instead of results
// when the marketplace suspects automated traffic.
var blockMarkers = []string{
	"api-services-support@amazon.com",
	"Enter the characters you see below",
	"validateCaptcha",
}

// HTTPFetcher fetches search result pages with plain GET requests. No layout
// geometry is available this way, so classification falls back to the
// attribute and badge signals alone.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	proxies *proxy.Manager
}

func NewHTTPFetcher(baseURL string, timeout time.Duration, requestsPerMinute int, pm *proxy.Manager) *HTTPFetcher {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 20
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = func(req *http.Request) (*url.URL, error) {
		if p := pm.GetProxy(); p != "" {
			return url.Parse(p)
		}
		return nil, nil
	}
	return &HTTPFetcher{
		baseURL: baseURL,
		client:  &http.Client{Transport: transport, Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
		proxies: pm,
	}
}

// FetchPage retrieves and extracts one (keyword, page) results page,
// honoring the inter-request rate limit.
func (f *HTTPFetcher) FetchPage(ctx context.Context, keyword string, page int) (domain.PageSnapshot, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return domain.PageSnapshot{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, SearchURL(f.baseURL, keyword, page), nil)
	if err != nil {
		return domain.PageSnapshot{}, err
	}
	req.Header.Set("User-Agent", f.proxies.GetUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja-JP,ja;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.PageSnapshot{}, fmt.Errorf("fetch page %d for %q: %w", page, keyword, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusForbidden {
		return domain.PageSnapshot{}, ErrBotDetected
	}
	if resp.StatusCode != http.StatusOK {
		return domain.PageSnapshot{}, fmt.Errorf("fetch page %d for %q: http status %d", page, keyword, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return domain.PageSnapshot{}, fmt.Errorf("read page %d for %q: %w", page, keyword, err)
	}
	html := string(body)
	if IsBlockPage(html) {
		return domain.PageSnapshot{}, ErrBotDetected
	}
	return Snapshot(html)
}

// IsBlockPage reports whether html is a captcha/block interstitial rather
// than a results page.
func IsBlockPage(html string) bool {
	for _, marker := range blockMarkers {
		if strings.Contains(html, marker) {
			return true
		}
	}
	return false
}
