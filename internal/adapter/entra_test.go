package adapter_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/h2hsecure/entitymanager/internal/adapter"
	. "github.com/onsi/gomega"
)

func newTokenServer(t *testing.T, status int, body string, form *url.Values, path *string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if form != nil {
			*form = r.PostForm
		}
		if path != nil {
			*path = r.URL.Path
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRequestToken(t *testing.T) {
	RegisterTestingT(t)

	var (
		form url.Values
		path string
	)
	srv := newTokenServer(t, http.StatusOK,
		`{"token_type":"Bearer","expires_in":3599,"ext_expires_in":3599,"access_token":"eyJ0eXAi"}`,
		&form, &path)

	a := adapter.NewEntraAdapter(adapter.WithAuthority(srv.URL))
	token, err := a.RequestToken(context.Background(), "tenant-1", "client-1", "secret-1")

	Expect(err).To(BeNil())
	Expect(path).To(Equal("/tenant-1/oauth2/v2.0/token"))
	Expect(form.Get("client_id")).To(Equal("client-1"))
	Expect(form.Get("client_secret")).To(Equal("secret-1"))
	Expect(form.Get("scope")).To(Equal("https://graph.microsoft.com/.default"))
	Expect(form.Get("grant_type")).To(Equal("client_credentials"))

	Expect(token.TokenType).To(Equal("Bearer"))
	Expect(token.AccessToken).To(Equal("eyJ0eXAi"))
	Expect(token.ExpiresIn).To(Equal(int64(3599)))
	Expect(token.ExtExpiresIn).To(Equal(int64(3599)))
	Expect(token.ObtainedAt.IsZero()).To(BeFalse())
	Expect(token.Valid()).To(BeTrue())
}

func TestRequestTokenErrorBody(t *testing.T) {
	RegisterTestingT(t)
	srv := newTokenServer(t, http.StatusUnauthorized,
		`{"error":"invalid_client","error_description":"AADSTS7000215"}`, nil, nil)

	a := adapter.NewEntraAdapter(adapter.WithAuthority(srv.URL))
	token, err := a.RequestToken(context.Background(), "tenant-1", "client-1", "wrong")

	Expect(err).To(BeNil())
	Expect(token.AccessToken).To(BeEmpty())
	Expect(token.TokenType).To(BeEmpty())
	Expect(token.Valid()).To(BeFalse())
}

func TestRequestTokenMalformed(t *testing.T) {
	RegisterTestingT(t)
	srv := newTokenServer(t, http.StatusBadGateway, `<html>bad gateway</html>`, nil, nil)

	a := adapter.NewEntraAdapter(adapter.WithAuthority(srv.URL))
	_, err := a.RequestToken(context.Background(), "tenant-1", "client-1", "secret-1")

	Expect(err).To(HaveOccurred())
	Expect(err.Error()).To(ContainSubstring("decode token"))
}
