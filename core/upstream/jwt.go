package upstream

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// signedToken builds the short-lived HS256 token the record-type upstreams
// expect: the client id doubles as issuer and acting user.
func signedToken(clientID, secret string) (string, error) {
	claims := jwt.MapClaims{
		"iss":                 clientID,
		"iat":                 time.Now().Unix(),
		"client_id":           clientID,
		"user_id":             clientID,
		"user_representation": clientID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
