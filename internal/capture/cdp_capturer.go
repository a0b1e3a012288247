// File: internal/capture/cdp_capturer.go
package capture

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/page"
)

// CDPCapturer snapshots a DevTools-protocol surface. It pairs with the
// driver's CDP executor and rides the same session-scoped context.
type CDPCapturer struct {
	cdpCtx context.Context
}

// NewCDPCapturer wraps an established chromedp context.
func NewCDPCapturer(cdpCtx context.Context) *CDPCapturer {
	return &CDPCapturer{cdpCtx: cdpCtx}
}

func (c *CDPCapturer) Capture(ctx context.Context) (Shot, error) {
	if err := ctx.Err(); err != nil {
		return Shot{}, err
	}
	buf, err := page.CaptureScreenshot().
		WithFormat(page.CaptureScreenshotFormatPng).
		Do(c.cdpCtx)
	if err != nil {
		return Shot{}, &IOError{Err: err}
	}
	return Shot{PNG: buf, TakenAt: time.Now()}, nil
}
