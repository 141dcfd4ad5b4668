package domain

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Token is the token endpoint response as received.
type Token struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExtExpiresIn int64  `json:"ext_expires_in"`

	ObtainedAt time.Time `json:"-"`
}

// Authorization renders the Authorization header value.
func (t Token) Authorization() string {
	return fmt.Sprintf("%s %s", t.TokenType, t.AccessToken)
}

// Expiry is zero when the response carried no lifetime.
func (t Token) Expiry() time.Time {
	if t.ExpiresIn <= 0 || t.ObtainedAt.IsZero() {
		return time.Time{}
	}
	return t.ObtainedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// Valid reports whether the token still has an access value and has not
// reached its expiry, using the same early-expiry margin as oauth2.
func (t Token) Valid() bool {
	return (&oauth2.Token{
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType,
		Expiry:      t.Expiry(),
	}).Valid()
}
