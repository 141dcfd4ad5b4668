package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const (
	AccountApplicant = "Applicant"
	AccountEntity    = "Entity"

	AttrAccountType       = "accountType"
	AttrMigrationRequired = "migrationRequired"
	AttrEntityName        = "entityName"
	AttrEntityID          = "entityId"
)

type ApplicantInput struct {
	Name     string
	Email    string
	Password string
}

type EntityInput struct {
	Name       string
	Email      string
	EntityName string
	EntityID   string
	Password   string
}

type IService interface {
	Authenticate(context.Context) error
	RequireExtensionAppID() error
	ListUsers(context.Context) (json.RawMessage, error)
	NewApplicant(ApplicantInput) (*UserSpecification, error)
	NewEntity(EntityInput) (*UserSpecification, error)
	AddUser(ctx context.Context, kind string, user *UserSpecification) (json.RawMessage, error)
}

// Service holds the session: credentials loaded at startup and the bearer
// token in use.
type Service struct {
	creds     Credentials
	issuer    TokenIssuer
	directory Directory
	journal   Journal
	token     Token
}

type ServiceOp func(*Service)

func WithJournal(journal Journal) ServiceOp {
	return func(s *Service) {
		s.journal = journal
	}
}

func NewService(creds Credentials, issuer TokenIssuer, directory Directory, ops ...ServiceOp) *Service {
	s := &Service{
		creds:     creds,
		issuer:    issuer,
		directory: directory,
	}

	for _, op := range ops {
		op(s)
	}

	return s
}

// Authenticate implements IService.
func (s *Service) Authenticate(ctx context.Context) error {
	token, err := s.issuer.RequestToken(ctx, s.creds.TenantID, s.creds.ClientID, s.creds.ClientSecret)
	if err != nil {
		return fmt.Errorf("request token: %w", err)
	}

	s.token = token

	log.Debug().
		Str("type", token.TokenType).
		Int64("expires_in", token.ExpiresIn).
		Msg("token obtained")

	return nil
}

// Token returns the token currently held by the session.
func (s *Service) Token() Token {
	return s.token
}

// RequireExtensionAppID implements IService.
func (s *Service) RequireExtensionAppID() error {
	if s.creds.ExtensionAppID == "" {
		return ErrExtensionAppIDNotSet
	}
	return nil
}

// ListUsers implements IService.
func (s *Service) ListUsers(ctx context.Context) (json.RawMessage, error) {
	if err := s.ensureToken(ctx); err != nil {
		return nil, err
	}

	users, err := s.directory.ListUsers(ctx, s.token)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

// NewApplicant implements IService.
func (s *Service) NewApplicant(in ApplicantInput) (*UserSpecification, error) {
	if err := s.RequireExtensionAppID(); err != nil {
		return nil, err
	}

	appID := s.creds.ExtensionAppID
	user := NewUserSpecification(s.creds.TenantName, in.Name, in.Password, in.Email).
		AddExtensionAttribute(appID, AttrAccountType, AccountApplicant).
		AddExtensionAttribute(appID, AttrMigrationRequired, "true")

	return user, nil
}

// NewEntity implements IService.
func (s *Service) NewEntity(in EntityInput) (*UserSpecification, error) {
	if err := s.RequireExtensionAppID(); err != nil {
		return nil, err
	}

	appID := s.creds.ExtensionAppID
	user := NewUserSpecification(s.creds.TenantName, in.Name, in.Password, in.Email).
		AddExtensionAttribute(appID, AttrAccountType, AccountEntity).
		AddExtensionAttribute(appID, AttrMigrationRequired, "true").
		AddExtensionAttribute(appID, AttrEntityName, in.EntityName).
		AddExtensionAttribute(appID, AttrEntityID, in.EntityID)

	return user, nil
}

// AddUser implements IService. kind only labels the journal entry.
func (s *Service) AddUser(ctx context.Context, kind string, user *UserSpecification) (json.RawMessage, error) {
	if err := s.ensureToken(ctx); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	ctx = WithRequestID(ctx, requestID)

	res, err := s.directory.AddUser(ctx, s.token, user)

	var email string
	if len(user.Identities) > 0 {
		email = user.Identities[0].IssuerAssignedID
	}

	entry := JournalEntry{
		ID:                requestID,
		Kind:              kind,
		DisplayName:       user.DisplayName,
		Email:             email,
		UserPrincipalName: user.UserPrincipalName,
		CreatedAt:         time.Now().UTC(),
	}

	// Failed calls are journaled too.
	if err != nil {
		entry.Error = err.Error()
		s.record(ctx, entry)
		return nil, fmt.Errorf("add user: %w", err)
	}

	entry.DirectoryID = gjson.GetBytes(res, "id").String()
	entry.Error = gjson.GetBytes(res, "error.message").String()
	s.record(ctx, entry)

	return res, nil
}

func (s *Service) record(ctx context.Context, entry JournalEntry) {
	if s.journal == nil {
		return
	}

	if err := s.journal.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("user", entry.UserPrincipalName).Msg("journal record")
		return
	}

	log.Info().Str("user", entry.UserPrincipalName).Str("kind", entry.Kind).Msg("recorded")
}

// ensureToken requests a new token once the current one has lapsed.
func (s *Service) ensureToken(ctx context.Context) error {
	if s.token.Valid() {
		return nil
	}

	log.Info().Msg("token expired, requesting a new one")

	return s.Authenticate(ctx)
}

type requestIDKey struct{}

// WithRequestID attaches the client-request-id to send with directory calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id set by WithRequestID, or a fresh one.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
