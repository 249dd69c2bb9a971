package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ContextTokenService emite y valida los tokens que identifican un contexto de navegacion.
type ContextTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	store  ContextTokenStore
}

type ContextToken struct {
	Token     string `json:"token"`
	ContextID string `json:"context_id"`
	ExpiresIn int64  `json:"expires_in"`
}

type ContextClaims struct {
	ContextID string `json:"cid"`
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("context token invalid")
	ErrTokenExpired = errors.New("context token expired")
)

func NewContextTokenService(secret string, ttl time.Duration, store ContextTokenStore) *ContextTokenService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if store == nil {
		store = NewMemoryContextTokenStore()
	}
	return &ContextTokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "support-widget",
		store:  store,
	}
}

// Issue crea un contexto nuevo y su token firmado.
func (s *ContextTokenService) Issue() (ContextToken, error) {
	if len(s.secret) == 0 {
		return ContextToken{}, ErrTokenInvalid
	}
	now := time.Now().UTC()
	contextID := uuid.NewString()
	jti := uuid.NewString()
	claims := ContextClaims{
		ContextID: contextID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   contextID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return ContextToken{}, err
	}
	if err := s.store.Store(jti, contextID, s.ttl); err != nil {
		return ContextToken{}, err
	}
	return ContextToken{
		Token:     signed,
		ContextID: contextID,
		ExpiresIn: int64(s.ttl.Seconds()),
	}, nil
}

func (s *ContextTokenService) Parse(token string) (ContextClaims, error) {
	if len(s.secret) == 0 {
		return ContextClaims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(token) == "" {
		return ContextClaims{}, ErrTokenInvalid
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return ContextClaims{}, err
	}
	if !s.isValidClaims(claims) {
		return ContextClaims{}, ErrTokenInvalid
	}
	ok, err := s.store.Exists(claims.ID)
	if err != nil || !ok {
		return ContextClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

// Revoke invalida el token; se usa al cerrar el widget.
func (s *ContextTokenService) Revoke(claims ContextClaims) error {
	if claims.ID == "" {
		return ErrTokenInvalid
	}
	return s.store.Revoke(claims.ID)
}

func (s *ContextTokenService) parseToken(tokenString string) (ContextClaims, error) {
	var claims ContextClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ContextClaims{}, ErrTokenExpired
		}
		return ContextClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

func (s *ContextTokenService) isValidClaims(claims ContextClaims) bool {
	if strings.TrimSpace(claims.ContextID) == "" || claims.ID == "" {
		return false
	}
	if claims.Subject != claims.ContextID {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
