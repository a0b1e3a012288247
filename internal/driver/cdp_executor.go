// File: internal/driver/cdp_executor.go
package driver

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// CDPExecutor drives a Chromium or Electron surface over the DevTools
// protocol. Installer frontends built on Electron expose this endpoint when
// started with --remote-debugging-port.
//
// Protocol calls ride the session-scoped DevTools context established by
// Attach; the per-call context is still honored for cancellation.
type CDPExecutor struct {
	cdpCtx context.Context
}

// NewCDPExecutor wraps an established chromedp context.
func NewCDPExecutor(cdpCtx context.Context) *CDPExecutor {
	return &CDPExecutor{cdpCtx: cdpCtx}
}

// Attach connects to a running DevTools endpoint and returns the chromedp
// context the executor operates on, plus a cancel releasing the connection.
func Attach(ctx context.Context, devtoolsURL string) (context.Context, context.CancelFunc, error) {
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, devtoolsURL)
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)

	// Establish the connection eagerly so a bad endpoint fails here, not on
	// the first input action mid-session.
	if err := chromedp.Run(taskCtx); err != nil {
		cancelTask()
		cancelAlloc()
		return nil, nil, fmt.Errorf("attach to DevTools endpoint %q: %w", devtoolsURL, err)
	}

	cancel := func() {
		cancelTask()
		cancelAlloc()
	}
	return taskCtx, cancel, nil
}

func (e *CDPExecutor) DispatchMouse(ctx context.Context, ev MouseEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := input.DispatchMouseEvent(cdpMouseType(ev.Type), float64(ev.Coordinate.X), float64(ev.Coordinate.Y))
	if ev.Type != MouseMoved {
		p = p.WithButton(input.MouseButton(ev.Button)).WithClickCount(int64(ev.ClickCount))
	} else if ev.Button != "" {
		// Moves during an active drag must carry the held button.
		p = p.WithButton(input.MouseButton(ev.Button))
	}
	return p.Do(e.cdpCtx)
}

func (e *CDPExecutor) InsertText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return input.InsertText(text).Do(e.cdpCtx)
}

func (e *CDPExecutor) ScreenSize(ctx context.Context) (Geometry, error) {
	if err := ctx.Err(); err != nil {
		return Geometry{}, err
	}
	// Use the modern 7-value return signature and only keep what we need.
	_, _, _, _, cssVisualViewport, _, err := page.GetLayoutMetrics().Do(e.cdpCtx)
	if err != nil {
		return Geometry{}, fmt.Errorf("layout metrics: %w", err)
	}
	return Geometry{
		Width:  int(cssVisualViewport.ClientWidth),
		Height: int(cssVisualViewport.ClientHeight),
	}, nil
}

func cdpMouseType(t MouseEventType) input.MouseType {
	switch t {
	case MousePressed:
		return input.MousePressed
	case MouseReleased:
		return input.MouseReleased
	default:
		return input.MouseMoved
	}
}
