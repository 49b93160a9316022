package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// TryExtractEmail reads the email claim from the payload segment of a
// three-part token without verifying its signature. Only the payload is
// decoded; the header may be anything. It returns false for anything it
// cannot decode and never panics.
func TryExtractEmail(token string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 || parts[1] == "" {
		return "", false
	}

	payload, ok := decodeSegment(parts[1])
	if !ok {
		return "", false
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", false
	}
	email, ok := claims["email"].(string)
	if !ok {
		return "", false
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", false
	}
	return email, true
}

// decodeSegment accepts base64url with or without padding, then standard
// base64 for issuers that do not use the URL alphabet.
func decodeSegment(seg string) ([]byte, bool) {
	if b, err := segmentParser.DecodeSegment(seg); err == nil {
		return b, true
	}
	if b, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(seg, "=")); err == nil {
		return b, true
	}
	return nil, false
}
