package users

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey    []byte
	tokenLifetime time.Duration
	issuer        string
	audience      jwt.ClaimStrings
	logger        Logger
}

// NewTokenService creates a new TokenService instance. The signing key is
// process-wide configuration: it is injected once at construction and never
// mutated. Rotating it invalidates every previously issued token.
func NewTokenService(signingKey []byte, tokenLifetime time.Duration, issuer string, audience jwt.ClaimStrings, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey:    signingKey,
		tokenLifetime: tokenLifetime,
		issuer:        issuer,
		audience:      audience,
		logger:        logger,
	}
}

// Generate creates a signed token for the given identity. Claims carry the
// identity's id (sub, uid) and username, with expiry at now+lifetime.
func (ts *TokenServiceImpl) Generate(identity Identity) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.tokenLifetime)),
		},
		UID:   identity.ID(),
		Uname: identity.Username(),
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims.
// Failures are classified as expired, bad signature, or malformed; callers
// facing the outside world are expected to collapse all three into a single
// unauthorized outcome.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, errors.Wrap(err, ErrTokenSignature.Category, ErrTokenSignature.Message).
				WithTextCode(ErrTokenSignature.TextCode)
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode claims")
	return nil, errors.New("unable to decode token claims", errors.CategoryAuth).
		WithTextCode(ErrTokenMalformed.TextCode)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return hasTextCode(err, ErrTokenExpired.TextCode)
}

// IsTokenSignatureError will check for signature verification failures
func IsTokenSignatureError(err error) bool {
	return hasTextCode(err, ErrTokenSignature.TextCode)
}

// IsTokenMalformedError will check for unparseable tokens
func IsTokenMalformedError(err error) bool {
	return hasTextCode(err, ErrTokenMalformed.TextCode)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}
