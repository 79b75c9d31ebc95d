// services/auth_service_client.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"funplay-claim-service/logger"
	"funplay-claim-service/utils"

	"go.uber.org/zap"
)

// ErrUnauthenticated - the session token was rejected by the auth provider
var ErrUnauthenticated = errors.New("unauthenticated")

// AuthServiceClient resolves session tokens to users through the hosted auth API.
type AuthServiceClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

type AuthUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	AppMetadata struct {
		Roles []string `json:"roles"`
	} `json:"app_metadata"`
}

func NewAuthServiceClient(baseURL, apiKey string) *AuthServiceClient {
	return &AuthServiceClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  utils.HTTPClient,
	}
}

// ValidateToken calls GET /auth/v1/user with the caller's access token
func (c *AuthServiceClient) ValidateToken(ctx context.Context, accessToken string) (*AuthUser, error) {
	url := fmt.Sprintf("%s/auth/v1/user", c.BaseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if c.APIKey != "" {
		req.Header.Set("apikey", c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthenticated
	case resp.StatusCode != http.StatusOK:
		logger.Warn("auth provider returned unexpected status",
			zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return nil, fmt.Errorf("auth validation failed: %d", resp.StatusCode)
	}

	var out AuthUser
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode auth user: %w", err)
	}
	if out.ID == "" {
		return nil, ErrUnauthenticated
	}
	return &out, nil
}

func (u *AuthUser) HasRole(role string) bool {
	for _, r := range u.AppMetadata.Roles {
		if r == role {
			return true
		}
	}
	return false
}
