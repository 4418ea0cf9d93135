package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"ranktracker/internal/domain"
	"ranktracker/internal/extract"
	"ranktracker/internal/proxy"
)

// ErrBotDetected indicates the marketplace answered with a captcha or block
// page instead of search results.
var ErrBotDetected = errors.New("marketplace requested captcha verification")

// stampScript records layout geometry into the DOM before capture: result
// cards get their page coordinates and width, and short elements containing
// a sponsor word get their vertical position for the proximity check.
const stampScript = `(() => {
	const stamp = (el) => {
		const r = el.getBoundingClientRect();
		el.setAttribute('data-rt-x', String(Math.round(r.left + window.scrollX)));
		el.setAttribute('data-rt-y', String(Math.round(r.top + window.scrollY)));
		el.setAttribute('data-rt-w', String(Math.round(r.width)));
	};
	document.querySelectorAll(".s-main-slot div[data-asin], .s-main-slot li[data-asin]").forEach(stamp);
	const all = document.body.getElementsByTagName('*');
	for (const el of all) {
		const t = (el.textContent || '').trim();
		if (t.length > 0 && t.length < 50 && (t.includes('Sponsored') || t.includes('スポンサー'))) {
			stamp(el);
		}
	}
	return true;
})()`

// Browser fetches search result pages through headless Chrome, so ad slots
// render exactly as a shopper would see them and layout geometry is
// available to the classifier.
type Browser struct {
	baseURL string
	timeout time.Duration
	proxies *proxy.Manager
	ctxPool sync.Pool
}

func NewBrowser(baseURL string, timeout time.Duration, pm *proxy.Manager) *Browser {
	b := &Browser{baseURL: baseURL, timeout: timeout, proxies: pm}
	b.ctxPool.New = func() interface{} {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", ""),
			chromedp.Flag("disable-dev-shm-usage", ""),
			chromedp.WindowSize(1920, 1080),
			chromedp.Flag("lang", "ja-JP"),
			chromedp.UserAgent(pm.GetUserAgent()),
		)
		if p := pm.GetProxy(); p != "" {
			opts = append(opts, chromedp.ProxyServer(p))
		}
		allocCtx, _ := chromedp.NewExecAllocator(context.Background(), opts...)
		return allocCtx
	}
	return b
}

// FetchPage renders one (keyword, page) search results page and returns its
// extracted snapshot.
func (b *Browser) FetchPage(ctx context.Context, keyword string, page int) (domain.PageSnapshot, error) {
	allocCtx := b.ctxPool.Get().(context.Context)
	defer b.ctxPool.Put(allocCtx)

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, b.timeout)
	defer cancelTimeout()

	var html string
	var stamped bool
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(SearchURL(b.baseURL, keyword, page)),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.Evaluate(stampScript, &stamped),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return domain.PageSnapshot{}, fmt.Errorf("render page %d for %q: %w", page, keyword, err)
	}
	if IsBlockPage(html) {
		return domain.PageSnapshot{}, ErrBotDetected
	}
	return Snapshot(html)
}

// SearchURL builds the results URL for one keyword and page number.
func SearchURL(baseURL, keyword string, page int) string {
	u := fmt.Sprintf("%ss?k=%s", baseURL, url.QueryEscape(keyword))
	if page > 1 {
		u += fmt.Sprintf("&page=%d", page)
	}
	return u
}

// Snapshot runs extraction over captured page HTML.
func Snapshot(html string) (domain.PageSnapshot, error) {
	items, lastPage, err := extract.ParseResults(html)
	if err != nil {
		return domain.PageSnapshot{}, err
	}
	labels, err := extract.ParseLabels(html)
	if err != nil {
		return domain.PageSnapshot{}, err
	}
	return domain.PageSnapshot{Items: items, Labels: labels, LastPage: lastPage}, nil
}
