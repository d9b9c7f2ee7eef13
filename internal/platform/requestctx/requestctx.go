// Package requestctx carries per-request facts that outer middleware needs
// after inner middleware has learned them.
package requestctx

import "context"

type ctxKey struct{}

// Info is created once per request. Fields are filled in as the request
// moves down the chain; it is not safe for use across goroutines.
type Info struct {
	RequestID string
	ActorID   string
}

// Begin attaches a fresh Info for requestID.
func Begin(ctx context.Context, requestID string) (context.Context, *Info) {
	info := &Info{RequestID: requestID}
	return context.WithValue(ctx, ctxKey{}, info), info
}

func From(ctx context.Context) *Info {
	info, _ := ctx.Value(ctxKey{}).(*Info)
	return info
}

func GetRequestID(ctx context.Context) string {
	if info := From(ctx); info != nil {
		return info.RequestID
	}
	return ""
}

// SetActor records the authenticated identity. It is a no-op outside a
// request started with Begin.
func SetActor(ctx context.Context, identityID string) {
	if info := From(ctx); info != nil {
		info.ActorID = identityID
	}
}
