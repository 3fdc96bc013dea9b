package provider

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var (
	ErrInvalidProviderToken      = errors.New("invalid provider access token")
	ErrMalformedProviderResponse = errors.New("malformed provider response")
)

// GoogleProfile is the subset of the Google userinfo document used to link or
// create a local account.
type GoogleProfile struct {
	GoogleID string
	Email    string
	FullName string
	Picture  string
}

// GoogleOAuthProvider resolves Google access tokens to user profiles.
type GoogleOAuthProvider struct {
	endpoint string
}

// NewGoogleOAuthProvider creates a provider that talks to the public Google API.
// A non-empty endpoint overrides the API base URL.
func NewGoogleOAuthProvider(endpoint string) *GoogleOAuthProvider {
	return &GoogleOAuthProvider{endpoint: endpoint}
}

// GetUserInfo calls the userinfo endpoint on behalf of accessToken.
func (p *GoogleOAuthProvider) GetUserInfo(ctx context.Context, accessToken string) (*GoogleProfile, error) {
	if accessToken == "" {
		return nil, ErrInvalidProviderToken
	}

	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "Bearer",
		})),
	}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}

	oauth2Service, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google oauth2 service: %w", err)
	}

	userInfo, err := oauth2Service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: status %d", ErrInvalidProviderToken, apiErr.Code)
		}

		return nil, fmt.Errorf("failed to fetch google userinfo: %w", err)
	}

	return parseUserInfo(userInfo)
}

func parseUserInfo(userInfo *googleoauth2.Userinfo) (*GoogleProfile, error) {
	if userInfo == nil {
		return nil, ErrMalformedProviderResponse
	}
	if userInfo.Id == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedProviderResponse)
	}
	if userInfo.Email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrMalformedProviderResponse)
	}

	return &GoogleProfile{
		GoogleID: userInfo.Id,
		Email:    userInfo.Email,
		FullName: userInfo.Name,
		Picture:  userInfo.Picture,
	}, nil
}
