package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

type PlaywrightOptions struct {
	Headless  bool
	UserAgent string
}

// PlaywrightBrowser is a Chromium instance driven by playwright-go.
type PlaywrightBrowser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	ua      string
}

func OpenPlaywright(opts PlaywrightOptions) (*PlaywrightBrowser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	return &PlaywrightBrowser{pw: pw, browser: b, ua: opts.UserAgent}, nil
}

func (b *PlaywrightBrowser) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var copts playwright.BrowserNewContextOptions
	if b.ua != "" {
		copts.UserAgent = playwright.String(b.ua)
	}
	bctx, err := b.browser.NewContext(copts)
	if err != nil {
		return nil, fmt.Errorf("new context: %w", err)
	}
	p, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}
	return &pwPage{bctx: bctx, page: p}, nil
}

func (b *PlaywrightBrowser) Close() error {
	var firstErr error
	if err := b.browser.Close(); err != nil {
		firstErr = err
	}
	if err := b.pw.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

type pwPage struct {
	bctx playwright.BrowserContext
	page playwright.Page
}

func (p *pwPage) OnResponse(fn func(Response)) {
	p.page.OnResponse(func(r playwright.Response) {
		fn(Response{
			URL:         r.URL(),
			Status:      r.Status(),
			ContentType: strings.ToLower(r.Headers()["content-type"]),
			Body:        r.Body,
		})
	})
}

func (p *pwPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (p *pwPage) Content() (string, error) {
	return p.page.Content()
}

func (p *pwPage) Screenshot() ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
}

func (p *pwPage) Evaluate(expr string) (any, error) {
	return p.page.Evaluate(expr)
}

func (p *pwPage) ClickIfVisible(selector string, timeout time.Duration) (bool, error) {
	loc := p.page.Locator(selector).First()
	visible, err := loc.IsVisible()
	if err != nil || !visible {
		return false, err
	}
	if err := loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		return false, err
	}
	return true, nil
}

func (p *pwPage) Close() error {
	err := p.page.Close()
	if cerr := p.bctx.Close(); err == nil {
		err = cerr
	}
	return err
}
