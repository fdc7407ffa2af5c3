// internal/identity/jwt.go
//
// JWT credential decoder.
//
// Signature verification is delegated entirely to golang-jwt.  This file
// only pins the accepted HMAC methods and flattens the claim set into the
// map[string]string shape the resolver consumes.

package identity

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// JWTDecoder verifies HMAC-signed tokens with a shared secret.
type JWTDecoder struct {
	secret []byte
	opts   []jwt.ParserOption
}

// NewJWTDecoder returns a decoder for the given secret.
func NewJWTDecoder(secret string, opts ...jwt.ParserOption) (*JWTDecoder, error) {
	if secret == "" {
		return nil, errors.New("identity: jwt secret is empty")
	}
	base := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
	}
	return &JWTDecoder{secret: []byte(secret), opts: append(base, opts...)}, nil
}

// Decode verifies token and returns its claims as strings.  Registered time
// claims (exp, nbf, iat) are validated by the parser.
func (d *JWTDecoder) Decode(token string) (map[string]string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return d.secret, nil
	}, d.opts...)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(claims))
	for k, v := range claims {
		switch tv := v.(type) {
		case string:
			out[k] = tv
		case float64:
			out[k] = strconv.FormatFloat(tv, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(tv)
		case nil:
			// skip
		default:
			out[k] = fmt.Sprint(tv)
		}
	}
	return out, nil
}
