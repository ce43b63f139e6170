package testutil

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// AccessToken builds an unsigned HS256-shaped JWT carrying the claims the
// backend puts in access tokens. The signature segment is junk; the client
// never verifies it.
func AccessToken(sub, role string, exp time.Time) string {
	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	claims := map[string]any{
		"sub":  sub,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  exp.Add(-30 * time.Minute).Unix(),
		"jti":  sub + "-" + exp.Format("150405.000000000"),
	}
	return segment(header) + "." + segment(claims) + ".c2lnbmF0dXJl"
}

func segment(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
