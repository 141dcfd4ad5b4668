package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/microsoft"

	"github.com/h2hsecure/entitymanager/internal/domain"
)

const (
	GraphScope     = "https://graph.microsoft.com/.default"
	ServerTokenUrl = "%s/%s/oauth2/v2.0/token"
)

type EntraAdapter struct {
	authority string
	client    *resty.Client
}

func NewEntraAdapter(ops ...ClientOp) domain.TokenIssuer {
	o := newClientOptions(ops)

	return &EntraAdapter{
		authority: o.authority,
		client:    newRestyClient(o),
	}
}

func (a *EntraAdapter) tokenURL(tenantID string) string {
	if a.authority == "" {
		return microsoft.AzureADEndpoint(tenantID).TokenURL
	}
	return fmt.Sprintf(ServerTokenUrl, a.authority, tenantID)
}

// RequestToken implements domain.TokenIssuer. The body is decoded whatever
// the status code, so an error response yields a token with empty fields.
func (a *EntraAdapter) RequestToken(ctx context.Context, tenantID, clientID, clientSecret string) (domain.Token, error) {
	formData := map[string]string{
		"client_id":     clientID,
		"scope":         GraphScope,
		"client_secret": clientSecret,
		"grant_type":    "client_credentials",
	}

	postUrl := a.tokenURL(tenantID)

	res, err := a.client.R().
		SetContext(ctx).
		SetFormData(formData).
		Post(postUrl)
	if err != nil {
		return domain.Token{}, fmt.Errorf("token request (%s): %w", postUrl, err)
	}

	if res.IsError() {
		log.Warn().Int("code", res.StatusCode()).Str("url", postUrl).Msg("token endpoint returned an error")
	}

	var ret domain.Token
	if err := json.Unmarshal(res.Body(), &ret); err != nil {
		return domain.Token{}, fmt.Errorf("decode token (status %d): %w", res.StatusCode(), err)
	}

	ret.ObtainedAt = time.Now()

	return ret, nil
}
