package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	SignInTypeEmail = "emailAddress"
	tenantDomain    = "%s.onmicrosoft.com"
)

type PasswordProfile struct {
	Password                      string `json:"password"`
	ForceChangePasswordNextSignIn bool   `json:"forceChangePasswordNextSignIn"`
}

type Identity struct {
	SignInType       string `json:"signInType"`
	Issuer           string `json:"issuer"`
	IssuerAssignedID string `json:"issuerAssignedId"`
}

// UserSpecification is the Graph user creation payload. Extension attributes
// are kept apart from the fixed fields and merged in when encoding.
type UserSpecification struct {
	AccountEnabled    bool            `json:"accountEnabled"`
	DisplayName       string          `json:"displayName"`
	UserPrincipalName string          `json:"userPrincipalName"`
	PasswordProfile   PasswordProfile `json:"passwordProfile"`
	Identities        []Identity      `json:"identities"`

	extensionNames  []string
	extensionValues map[string]string
}

// NewUserSpecification builds an enabled external account signing in with
// its email address.
func NewUserSpecification(tenantName, displayName, password, email string) *UserSpecification {
	issuer := fmt.Sprintf(tenantDomain, tenantName)

	return &UserSpecification{
		AccountEnabled:    true,
		DisplayName:       displayName,
		UserPrincipalName: strings.Replace(email, "@", "_", 1) + "#EXT#@" + issuer,
		PasswordProfile: PasswordProfile{
			Password:                      password,
			ForceChangePasswordNextSignIn: false,
		},
		Identities: []Identity{
			{
				SignInType:       SignInTypeEmail,
				Issuer:           issuer,
				IssuerAssignedID: email,
			},
		},
	}
}

// ExtensionAttributeName is the directory extension property name for
// attribute registered on the application appID.
func ExtensionAttributeName(appID, attribute string) string {
	return "extension_" + strings.ReplaceAll(appID, "-", "") + "_" + attribute
}

// AddExtensionAttribute sets an extension attribute and returns the receiver
// so calls can be chained. Setting the same attribute again overwrites it.
func (u *UserSpecification) AddExtensionAttribute(appID, attribute, value string) *UserSpecification {
	name := ExtensionAttributeName(appID, attribute)

	if u.extensionValues == nil {
		u.extensionValues = make(map[string]string)
	}
	if _, has := u.extensionValues[name]; !has {
		u.extensionNames = append(u.extensionNames, name)
	}
	u.extensionValues[name] = value

	return u
}

// Extension returns the value of an extension field by its full name.
func (u *UserSpecification) Extension(name string) (string, bool) {
	v, has := u.extensionValues[name]
	return v, has
}

// Extensions returns extension field names in the order they were first set.
func (u *UserSpecification) Extensions() []string {
	return append([]string(nil), u.extensionNames...)
}

// MarshalJSON writes the fixed fields followed by the extension fields as a
// single flat object.
func (u UserSpecification) MarshalJSON() ([]byte, error) {
	type base UserSpecification

	out, err := encode(base(u))
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}

	if len(u.extensionNames) == 0 {
		return out, nil
	}

	var buf bytes.Buffer
	buf.Write(out[:len(out)-1])

	for _, name := range u.extensionNames {
		k, err := encode(name)
		if err != nil {
			return nil, fmt.Errorf("encode extension name: %w", err)
		}
		v, err := encode(u.extensionValues[name])
		if err != nil {
			return nil, fmt.Errorf("encode extension %s: %w", name, err)
		}
		buf.WriteByte(',')
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
