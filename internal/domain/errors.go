package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrMissingCredential    = errors.New("missing credential")
	ErrExtensionAppIDNotSet = errors.New("EXTENSION_APP_ID not set")
)
