// internal/identity/identity.go
//
// Customer identity types, credential parsing, and error taxonomy.
//
// Context
// -------
// An Identity is the canonical customer reference a request acts on
// behalf of.  It starts life as a bearer credential in the Authorization
// header, is decoded by a Decoder, and is then mapped to its canonical
// company-linked form by an external Mapper.  Decode failures propagate.
// Mapping failures degrade to Anonymous.  See resolver.go for the flow.
//
// Notes
// -----
//   - Identity values are immutable once resolved; Ancestors is copied on
//     construction and never exposed by reference.
//   - Oxford commas, two spaces after periods.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

//
// Identity
//

// Identity is a resolved customer reference.  The zero value is the
// anonymous identity.
type Identity struct {
	// Ref is the canonical identifier returned by the mapping service.
	Ref string
	// Claimed is the email carried by the credential, before mapping.
	Claimed string

	ancestors []string
}

// Anonymous returns the empty identity.
func Anonymous() Identity { return Identity{} }

// New builds an Identity with an optional ancestry, closest first.
func New(ref, claimed string, ancestors ...string) Identity {
	var a []string
	if len(ancestors) > 0 {
		a = make([]string, len(ancestors))
		copy(a, ancestors)
	}
	return Identity{Ref: ref, Claimed: claimed, ancestors: a}
}

// IsAnonymous reports whether no canonical reference was resolved.
func (i Identity) IsAnonymous() bool { return i.Ref == "" }

// Ancestors returns a copy of the identity hierarchy, closest first.
func (i Identity) Ancestors() []string {
	out := make([]string, len(i.ancestors))
	copy(out, i.ancestors)
	return out
}

// Matches reports whether ref names this identity or one of its
// ancestors.  Anonymous matches nothing.
func (i Identity) Matches(ref string) bool {
	if i.IsAnonymous() || ref == "" {
		return false
	}
	if strings.EqualFold(ref, i.Ref) {
		return true
	}
	for _, a := range i.ancestors {
		if strings.EqualFold(ref, a) {
			return true
		}
	}
	return false
}

func (i Identity) String() string {
	if i.IsAnonymous() {
		return "anonymous"
	}
	return i.Ref
}

//
// Collaborators
//

// Decoder turns a bearer token into string claims.
type Decoder interface {
	Decode(token string) (map[string]string, error)
}

// Mapper resolves an email to the canonical email of the identity it
// belongs to (for example, the company account of an employee).
type Mapper interface {
	Resolve(ctx context.Context, email string) (string, error)
}

//
// Errors
//

var (
	// ErrNoMatch means the mapping service answered but had no identity
	// for the given email.
	ErrNoMatch = errors.New("identity: no match")

	// ErrBadResponse means the mapping service answered with a body we
	// could not interpret.
	ErrBadResponse = errors.New("identity: unexpected response shape")
)

// CredentialDecodeError reports a credential that carried the expected
// scheme but could not be decoded.  It is fatal to identity resolution.
type CredentialDecodeError struct {
	Err error
}

func (e *CredentialDecodeError) Error() string {
	return "identity: credential decode: " + e.Err.Error()
}

func (e *CredentialDecodeError) Unwrap() error { return e.Err }

// ExternalLookupError reports a failed identity-mapping call.  Resolvers
// recover from it by falling back to Anonymous.
type ExternalLookupError struct {
	Email  string
	Status int // HTTP status, 0 when the call never completed
	Err    error
}

func (e *ExternalLookupError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("identity: lookup %q: status %d: %v", e.Email, e.Status, e.Err)
	}
	return fmt.Sprintf("identity: lookup %q: %v", e.Email, e.Err)
}

func (e *ExternalLookupError) Unwrap() error { return e.Err }

//
// Credential parsing
//

// ParseCredential splits an Authorization header of the form
// "<scheme> <token>".  ok is false when the header is empty, does not have
// exactly two space-separated parts, or the scheme does not match
// (case-insensitive).
func ParseCredential(header, scheme string) (token string, ok bool) {
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[1] == "" {
		return "", false
	}
	if !strings.EqualFold(parts[0], scheme) {
		return "", false
	}
	return parts[1], true
}
