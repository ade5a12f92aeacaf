package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Jaewhee/fedex-proxy/internal/domain"
)

const (
	apiVersion     = "2024-01"
	defaultTimeout = 15 * time.Second
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Client executes Admin GraphQL operations against the order backend.
type Client struct {
	client   *resty.Client
	endpoint string
	token    string
}

func NewClient(domainName, accessToken string) (*Client, error) {
	client := resty.New()
	client.SetTimeout(defaultTimeout)
	client.SetRetryCount(0)

	return NewClientWithClient(domainName, accessToken, client)
}

func NewClientWithClient(domainName, accessToken string, client *resty.Client) (*Client, error) {
	endpoint, err := buildEndpoint(domainName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("order backend access token is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultTimeout)
	}
	client.SetRetryCount(0)

	return &Client{
		client:   client,
		endpoint: endpoint,
		token:    accessToken,
	}, nil
}

func buildEndpoint(domainName string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(domainName), "/")
	if trimmed == "" {
		return "", fmt.Errorf("order backend domain is required")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return "", fmt.Errorf("invalid order backend domain: %w", err)
	}
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", trimmed, apiVersion), nil
}

// Execute posts one GraphQL operation and unmarshals the data payload into
// out. Transport errors, non-success statuses, malformed bodies, and
// top-level GraphQL errors all come back as UpstreamError.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any, out any) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("shopify client is not initialized")
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Shopify-Access-Token", c.token).
		SetBody(graphQLRequest{Query: query, Variables: variables}).
		Post(c.endpoint)
	if err != nil {
		return &domain.UpstreamError{
			Message: "order backend request failed",
			Cause:   err,
		}
	}

	statusCode := response.StatusCode()
	body := response.Body()

	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return &domain.UpstreamError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("order backend returned status %d: %s", statusCode, strings.TrimSpace(string(body))),
		}
	}

	var parsed graphQLResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return &domain.UpstreamError{
			StatusCode: statusCode,
			Message:    "order backend returned malformed body",
			Cause:      err,
		}
	}

	if len(parsed.Errors) > 0 {
		messages := make([]string, 0, len(parsed.Errors))
		for _, gqlErr := range parsed.Errors {
			messages = append(messages, gqlErr.Message)
		}
		return &domain.UpstreamError{
			StatusCode: statusCode,
			Message:    "graphql errors: " + strings.Join(messages, "; "),
		}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(parsed.Data, out); err != nil {
		return &domain.UpstreamError{
			StatusCode: statusCode,
			Message:    "order backend data payload has unexpected shape",
			Cause:      err,
		}
	}

	return nil
}
