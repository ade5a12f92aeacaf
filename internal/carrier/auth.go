package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	tokenPath          = "/oauth/token"
	defaultAuthTimeout = 10 * time.Second
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// AuthProvider exchanges stored client credentials for a short-lived bearer
// token via the carrier's client-credentials grant. Tokens are not cached
// across calls; every reconciliation run acquires its own.
type AuthProvider struct {
	client       *resty.Client
	baseURL      string
	clientID     string
	clientSecret string
}

func NewAuthProvider(baseURL, clientID, clientSecret string) (*AuthProvider, error) {
	client := resty.New()
	client.SetTimeout(defaultAuthTimeout)
	client.SetRetryCount(0)

	return NewAuthProviderWithClient(baseURL, clientID, clientSecret, client)
}

func NewAuthProviderWithClient(baseURL, clientID, clientSecret string, client *resty.Client) (*AuthProvider, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, fmt.Errorf("carrier base URL is required")
	}
	if _, err := url.ParseRequestURI(trimmedURL); err != nil {
		return nil, fmt.Errorf("invalid carrier base URL: %w", err)
	}
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clientSecret) == "" {
		return nil, fmt.Errorf("carrier client credentials are required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultAuthTimeout)
	}
	client.SetRetryCount(0)

	return &AuthProvider{
		client:       client,
		baseURL:      trimmedURL,
		clientID:     clientID,
		clientSecret: clientSecret,
	}, nil
}

// AcquireToken performs the client-credentials exchange and returns the bearer
// token value. A non-success status fails fast with the carrier's status code
// and response body; there is no silent retry.
func (p *AuthProvider) AcquireToken(ctx context.Context) (string, error) {
	if p == nil || p.client == nil {
		return "", fmt.Errorf("auth provider is not initialized")
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     p.clientID,
			"client_secret": p.clientSecret,
		}).
		Post(p.baseURL + tokenPath)
	if err != nil {
		return "", &CarrierError{
			Message: "token exchange request failed",
			Cause:   err,
		}
	}

	statusCode := response.StatusCode()
	body := strings.TrimSpace(response.String())

	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return "", &CarrierError{
			StatusCode: statusCode,
			Message:    carrierErrorMessage("token exchange", statusCode, body),
		}
	}

	var token tokenResponse
	if err := json.Unmarshal(response.Body(), &token); err != nil {
		return "", &CarrierError{
			StatusCode: statusCode,
			Message:    "token exchange returned malformed body",
			Cause:      err,
		}
	}

	if strings.TrimSpace(token.AccessToken) == "" {
		return "", &CarrierError{
			StatusCode: statusCode,
			Message:    "token exchange response is missing access_token",
		}
	}

	return token.AccessToken, nil
}
