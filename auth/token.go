// Package auth issues and verifies session tokens and stores account credentials.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the minimum accepted length of the HMAC signing secret
const MinSecretLength = 32

// TokenKind classifies a token verification failure
type TokenKind int

const (
	// TokenInvalid covers malformed tokens, bad signatures, wrong algorithms,
	// wrong issuers, bad subjects and tokens that are not valid yet.
	TokenInvalid TokenKind = iota + 1
	// TokenExpired means the signature checked out but exp is in the past.
	TokenExpired
	// TokenUnexpected is any failure that is neither of the above.
	TokenUnexpected
)

// String returns the kind name used in logs and metrics
func (k TokenKind) String() string {
	switch k {
	case TokenInvalid:
		return "invalid"
	case TokenExpired:
		return "expired"
	case TokenUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// TokenError is returned by TokenService.Verify for every rejected token
type TokenError struct {
	Kind TokenKind
	Err  error
}

// Error implements the error interface
func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
	}
	return "token " + e.Kind.String()
}

// Unwrap implements errors.Unwrap
func (e *TokenError) Unwrap() error {
	return e.Err
}

// TokenErrorKind returns the kind of a token error, or 0 if err is not one
func TokenErrorKind(err error) TokenKind {
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.Kind
	}
	return 0
}

// Claims are the registered JWT claims carried by a session token.
// Subject holds the principal id.
type Claims struct {
	jwt.RegisteredClaims
}

// PrincipalID parses the subject claim
func (c *Claims) PrincipalID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenConfig holds the signing settings for a TokenService
type TokenConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// TokenService issues and verifies HS256 session tokens
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption configures a TokenService
type TokenOption func(*TokenService)

// WithClock replaces the wall clock used for iat, exp and expiry checks
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a token service from cfg
func NewTokenService(cfg TokenConfig, opts ...TokenOption) (*TokenService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("token TTL must be positive")
	}

	s := &TokenService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.issuer))
	}
	s.parser = jwt.NewParser(parserOpts...)

	return s, nil
}

// TTL returns the lifetime of issued tokens
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new token for principalID
func (s *TokenService) Issue(principalID uuid.UUID) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   principalID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, claims, nil
}

// Verify checks the signature first, then the claims. Every failure is a *TokenError.
func (s *TokenService) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	if _, err := s.parser.ParseWithClaims(token, claims, s.keyFunc); err != nil {
		return nil, &TokenError{Kind: classifyJWTError(err), Err: err}
	}

	if _, err := claims.PrincipalID(); err != nil {
		return nil, &TokenError{Kind: TokenInvalid, Err: fmt.Errorf("invalid subject: %w", err)}
	}

	return claims, nil
}

func (s *TokenService) keyFunc(*jwt.Token) (interface{}, error) {
	return s.secret, nil
}

// classifyJWTError maps jwt parser errors onto token kinds.
// Expired is checked first since the parser joins it with ErrTokenInvalidClaims.
func classifyJWTError(err error) TokenKind {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return TokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return TokenInvalid
	default:
		return TokenUnexpected
	}
}
