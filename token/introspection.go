package token

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Introspection represents the claims the client can read out of a bearer
// token without verifying its signature. The server remains authoritative;
// the client only uses these claims to decide whether a refresh is needed
// and to synthesise a user profile from a cookie-established session.
// The 'active' field indicates the state of the token - if it's false,
// other fields may not be populated.
type Introspection struct {
	Active   bool   `json:"active"`             // True or false - Is the token usable from the client's point of view
	Sub      string `json:"sub,omitempty"`      // Users unique ID
	Email    string `json:"email,omitempty"`    // User email
	Name     string `json:"name,omitempty"`     // Full name claim
	Nickname string `json:"nickname,omitempty"` // Preferred display name claim
	Picture  string `json:"picture,omitempty"`  // Avatar URL claim
	Provider string `json:"provider,omitempty"` // Auth provider tag, if the issuer stamps one
	Exp      *int64 `json:"exp,omitempty"`      // Expiration
	Iat      *int64 `json:"iat,omitempty"`      // Issued at time
}

// IsJWTShaped reports whether raw looks like a JWT: three non-empty
// dot-separated segments. Opaque tokens are not JWT-shaped and are treated
// as non-expiring on the client.
func IsJWTShaped(raw string) bool {
	segments := strings.Split(raw, ".")
	if len(segments) != 3 {
		return false
	}
	for _, s := range segments {
		if s == "" {
			return false
		}
	}
	return true
}

// IsExpired reports whether a token should be considered expired by the
// client. Opaque (non-JWT-shaped) tokens never expire client-side, the
// server decides. A JWT-shaped token that cannot be decoded is treated as
// expired (fail-closed). A decodable JWT without an exp claim does not
// expire.
func IsExpired(raw string) bool {
	if !IsJWTShaped(raw) {
		return false
	}

	claims, err := decodeClaims(raw)
	if err != nil {
		return true
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return false
	}
	return NowTimeFunc().Unix() > int64(exp)
}

// Introspect decodes a token's payload without verifying its signature.
// Returns Active: false (with the decode error) for anything undecodable.
func Introspect(rawToken string) (*Introspection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return &Introspection{Active: false}, errors.New("empty token")
	}
	if !IsJWTShaped(rawToken) {
		return &Introspection{Active: false}, errors.New("token is not JWT-shaped")
	}

	claims, err := decodeClaims(rawToken)
	if err != nil {
		return &Introspection{Active: false}, err
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	nickname, _ := claims["nickname"].(string)
	picture, _ := claims["picture"].(string)
	provider, _ := claims["provider"].(string)

	intro := &Introspection{
		Active:   true,
		Sub:      sub,
		Email:    email,
		Name:     name,
		Nickname: nickname,
		Picture:  picture,
		Provider: provider,
	}

	if iat, ok := claims["iat"].(float64); ok {
		iatInt := int64(iat)
		intro.Iat = &iatInt
	}
	if exp, ok := claims["exp"].(float64); ok {
		expInt := int64(exp)
		intro.Exp = &expInt
		if NowTimeFunc().Unix() > expInt {
			intro.Active = false
		}
	}

	return intro, nil
}

func decodeClaims(rawToken string) (jwtlib.MapClaims, error) {
	unverifiedToken, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, err
	}

	claims, ok := unverifiedToken.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}
	return claims, nil
}
