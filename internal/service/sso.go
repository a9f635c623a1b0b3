package service

import (
	"context"
	"fmt"

	"github.com/benerin/benerin-api/internal/ports"
)

// BeginSSOLoginResult contains the result of beginning an SSO login flow.
type BeginSSOLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginSSOLogin initiates an SSO authentication flow and returns the provider
// auth URL with state and nonce. Password logins do not go through here.
func (s *AuthService) BeginSSOLogin(ctx context.Context, redirectURL string) (*BeginSSOLoginResult, error) {
	if s.provider == nil {
		return nil, ErrSSONotConfigured
	}
	if redirectURL == "" {
		return nil, fmt.Errorf("%w: redirect URL is required", ErrMissingFields)
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin sso flow: %w", err)
	}

	return &BeginSSOLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteSSOLoginInput groups parameters for completing an SSO login flow.
type CompleteSSOLoginInput struct {
	Code  string
	State string
	Nonce string
	// GuestSessionID names the anonymous analytics session to clear once
	// sign-in has settled.
	GuestSessionID string
}

// CompleteSSOLogin completes an SSO flow by exchanging the code for an
// identity, mapping group claims to a role, and persisting a session.
func (s *AuthService) CompleteSSOLogin(ctx context.Context, input CompleteSSOLoginInput) (*SignInResult, error) {
	if s.provider == nil {
		return nil, ErrSSONotConfigured
	}
	if input.Code == "" {
		return nil, fmt.Errorf("%w: authorization code is required", ErrMissingFields)
	}
	if input.State == "" {
		return nil, fmt.Errorf("%w: state parameter is required", ErrMissingFields)
	}
	if input.Nonce == "" {
		return nil, fmt.Errorf("%w: nonce parameter is required", ErrMissingFields)
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	return s.establishSession(ctx, identity, SignInInput{GuestSessionID: input.GuestSessionID})
}
