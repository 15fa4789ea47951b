package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/tauraamui/xerror"
)

const (
	audience      = "framebridge"
	tokenLifetime = 15 * time.Minute
)

var (
	ErrInvalidClaims = xerror.New("unable to parse claims")
	ErrTokenExpired  = xerror.New("auth token has expired")
)

type customClaims struct {
	UserUUID string `json:"useruuid"`
	jwt.StandardClaims
}

var timeNow = func() time.Time {
	return time.Now()
}

// GenToken signs a HS256 token for the user which expires after fifteen
// minutes.
func GenToken(secret, userUUID string) (string, error) {
	now := timeNow().UTC()
	claims := customClaims{
		UserUUID: userUUID,
		StandardClaims: jwt.StandardClaims{
			Audience:  audience,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tokenLifetime).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken checks the token's signature and expiry and returns the
// user UUID it was issued for.
func ValidateToken(secret, tokenString string) (string, error) {
	parser := jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}
	token, err := parser.ParseWithClaims(
		tokenString,
		&customClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
	)

	if err != nil {
		return "", xerror.Errorf("unable to validate token: %w", err)
	}

	return checkClaims(token.Claims)
}

func checkClaims(claims jwt.Claims) (string, error) {
	cc, ok := claims.(*customClaims)
	if !ok {
		return "", ErrInvalidClaims
	}

	if !cc.VerifyAudience(audience, true) {
		return "", xerror.Errorf("%w: unexpected audience %s", ErrInvalidClaims, cc.Audience)
	}

	if cc.ExpiresAt < timeNow().UTC().Unix() {
		return "", ErrTokenExpired
	}

	return cc.UserUUID, nil
}
