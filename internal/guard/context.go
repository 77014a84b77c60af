package guard

import "context"

type contextKey struct{}

func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, contextKey{}, v)
}

// ViewerFrom returns the viewer on ctx, or the zero (unauthenticated)
// Viewer when none was attached.
func ViewerFrom(ctx context.Context) Viewer {
	v, _ := ctx.Value(contextKey{}).(Viewer)
	return v
}
