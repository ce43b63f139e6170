package service

import (
	"context"

	"golang.org/x/oauth2"
)

type gatewayTokenSource struct {
	ctx     context.Context
	gateway *RequestGateway
}

// TokenSource adapts the gateway to oauth2.TokenSource. It returns the
// stored credential while it is valid and refreshes through the coordinator
// otherwise, so it shares the single-flight guarantee with Send.
func (g *RequestGateway) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &gatewayTokenSource{ctx: ctx, gateway: g}
}

func (s *gatewayTokenSource) Token() (*oauth2.Token, error) {
	if tok := s.gateway.store.Get(); tok.Valid() {
		return tok, nil
	}
	return s.gateway.Refresh(s.ctx)
}
