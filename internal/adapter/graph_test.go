package adapter_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/h2hsecure/entitymanager/internal/adapter"
	"github.com/h2hsecure/entitymanager/internal/domain"
	. "github.com/onsi/gomega"
)

type capturedRequest struct {
	method    string
	path      string
	auth      string
	requestID string
	body      []byte
}

func newGraphServer(t *testing.T, status int, body string, got *capturedRequest) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*got = capturedRequest{
			method:    r.Method,
			path:      r.URL.Path,
			auth:      r.Header.Get("Authorization"),
			requestID: r.Header.Get("client-request-id"),
			body:      b,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var testToken = domain.Token{TokenType: "Bearer", AccessToken: "abc"}

func TestListUsers(t *testing.T) {
	RegisterTestingT(t)
	var got capturedRequest
	srv := newGraphServer(t, http.StatusOK, `{ "value": [ {"id": "1", "displayName": "Ada"} ] }`, &got)

	g := adapter.NewGraphAdapter(adapter.WithGraphURL(srv.URL))
	users, err := g.ListUsers(context.Background(), testToken)

	Expect(err).To(BeNil())
	Expect(got.method).To(Equal(http.MethodGet))
	Expect(got.path).To(Equal("/users"))
	Expect(got.auth).To(Equal("Bearer abc"))
	Expect(got.requestID).NotTo(BeEmpty())
	Expect(string(users)).To(Equal(`{"value":[{"id":"1","displayName":"Ada"}]}`))
}

func TestListUsersErrorBodyPassesThrough(t *testing.T) {
	RegisterTestingT(t)
	var got capturedRequest
	srv := newGraphServer(t, http.StatusUnauthorized,
		`{"error":{"code":"InvalidAuthenticationToken","message":"Access token is empty."}}`, &got)

	g := adapter.NewGraphAdapter(adapter.WithGraphURL(srv.URL))
	users, err := g.ListUsers(context.Background(), domain.Token{})

	Expect(err).To(BeNil())
	Expect(string(users)).To(ContainSubstring("InvalidAuthenticationToken"))
}

func TestListUsersNotJSON(t *testing.T) {
	RegisterTestingT(t)
	var got capturedRequest
	srv := newGraphServer(t, http.StatusServiceUnavailable, `service unavailable`, &got)

	g := adapter.NewGraphAdapter(adapter.WithGraphURL(srv.URL))
	_, err := g.ListUsers(context.Background(), testToken)

	Expect(err).To(HaveOccurred())
}

func TestAddUser(t *testing.T) {
	RegisterTestingT(t)
	var got capturedRequest
	srv := newGraphServer(t, http.StatusCreated, `{"id":"87d349ed","displayName":"Ada"}`, &got)

	user := domain.NewUserSpecification("contoso", "Ada", "s3cret!", "ada@example.com").
		AddExtensionAttribute("11111111-2222-3333-4444-555555555555", "accountType", "Applicant")

	g := adapter.NewGraphAdapter(adapter.WithGraphURL(srv.URL))
	ctx := domain.WithRequestID(context.Background(), "req-42")
	res, err := g.AddUser(ctx, testToken, user)

	Expect(err).To(BeNil())
	Expect(string(res)).To(Equal(`{"id":"87d349ed","displayName":"Ada"}`))
	Expect(got.method).To(Equal(http.MethodPost))
	Expect(got.path).To(Equal("/users"))
	Expect(got.auth).To(Equal("Bearer abc"))
	Expect(got.requestID).To(Equal("req-42"))

	var sent map[string]any
	Expect(json.Unmarshal(got.body, &sent)).To(Succeed())
	Expect(sent).To(HaveKeyWithValue("userPrincipalName", "ada_example.com#EXT#@contoso.onmicrosoft.com"))
	Expect(sent).To(HaveKeyWithValue("extension_11111111222233334444555555555555_accountType", "Applicant"))
	Expect(sent).To(HaveKeyWithValue("accountEnabled", true))
}
