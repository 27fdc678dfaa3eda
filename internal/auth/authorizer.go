package auth

import "context"

// Authorizer is the host's access-control decision function. It is consumed,
// never reimplemented: the query engine asks it per request whether the
// caller may see a type at all and whether it may see a concrete instance.
type Authorizer interface {
	CanViewType(ctx context.Context, objectType string) bool
	CanViewInstance(ctx context.Context, objectType string, id int64) bool
}

// AllowAll grants every check. Useful for embedding hosts that gate access
// upstream and for local development.
type AllowAll struct{}

func (AllowAll) CanViewType(context.Context, string) bool { return true }

func (AllowAll) CanViewInstance(context.Context, string, int64) bool { return true }
