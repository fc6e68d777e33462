package observability

import "context"

type contextKey string

const regionKey contextKey = "region"

// WithRegion attaches the name of the shared region an instrumentation call
// is operating against, so subsequent LogEvent/LogError calls on ctx carry
// it automatically without threading it through every call site.
func WithRegion(ctx context.Context, region string) context.Context {
	if region == "" {
		return ctx
	}
	return context.WithValue(ctx, regionKey, region)
}

// RegionFromContext retrieves the region name set by WithRegion, or "" if
// none was attached.
func RegionFromContext(ctx context.Context) string {
	if v := ctx.Value(regionKey); v != nil {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}
