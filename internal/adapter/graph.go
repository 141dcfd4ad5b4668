package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/h2hsecure/entitymanager/internal/domain"
)

const (
	GraphBaseUrl    = "https://graph.microsoft.com/v1.0"
	ServerUsersUrl  = "%s/users"
	headerRequestID = "client-request-id"
)

type GraphAdapter struct {
	baseURL string
	client  *resty.Client
}

func NewGraphAdapter(ops ...ClientOp) domain.Directory {
	o := newClientOptions(ops)

	baseURL := o.graphURL
	if baseURL == "" {
		baseURL = GraphBaseUrl
	}

	return &GraphAdapter{
		baseURL: baseURL,
		client:  newRestyClient(o),
	}
}

func (a *GraphAdapter) request(ctx context.Context, token domain.Token) *resty.Request {
	requestID := domain.RequestID(ctx)
	log.Debug().Str("request_id", requestID).Msg("graph request")

	return a.client.R().
		SetContext(ctx).
		SetHeader("Authorization", token.Authorization()).
		SetHeader(headerRequestID, requestID)
}

// ListUsers implements domain.Directory. Only the first page is returned.
func (a *GraphAdapter) ListUsers(ctx context.Context, token domain.Token) (json.RawMessage, error) {
	res, err := a.request(ctx, token).
		Get(fmt.Sprintf(ServerUsersUrl, a.baseURL))
	if err != nil {
		return nil, fmt.Errorf("list users request: %w", err)
	}

	return rawBody(res)
}

// AddUser implements domain.Directory.
func (a *GraphAdapter) AddUser(ctx context.Context, token domain.Token, user *domain.UserSpecification) (json.RawMessage, error) {
	body, err := user.MarshalJSON()
	if err != nil {
		return nil, err
	}

	res, err := a.request(ctx, token).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(fmt.Sprintf(ServerUsersUrl, a.baseURL))
	if err != nil {
		return nil, fmt.Errorf("add user request: %w", err)
	}

	if res.IsError() {
		log.Warn().Int("code", res.StatusCode()).Str("user", user.UserPrincipalName).Msg("add user rejected")
	}

	return rawBody(res)
}
