// Package render abstracts the browser rendering capability behind an
// interface so the pipeline stays agnostic to whether a real headless
// browser or a test stub sits behind it.
package render

import "context"

// Renderer executes a page in a rendering environment. CollectLinks serves
// discovery (scroll-triggered loading); RenderedDocument serves extraction
// fallback on pages whose markup only exists after scripts run.
type Renderer interface {
	// CollectLinks navigates to url, simulates incremental scrolling until
	// the document height stabilizes, and returns every product link href
	// found in the final document.
	CollectLinks(ctx context.Context, url string) ([]string, error)

	// RenderedDocument navigates to url and returns the rendered HTML.
	RenderedDocument(ctx context.Context, url string) (string, error)
}
