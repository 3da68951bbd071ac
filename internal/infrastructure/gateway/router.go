package gateway

import "context"

// Router picks a provider by message type.
type Router struct {
	byType map[string]Provider
}

func NewRouter(byType map[string]Provider) *Router {
	return &Router{byType: byType}
}

func (r *Router) Send(ctx context.Context, msg Message) Result {
	p, ok := r.byType[msg.MessageType]
	if !ok || p == nil {
		return failed("no provider for message type " + msg.MessageType)
	}
	return p.Send(ctx, msg)
}
