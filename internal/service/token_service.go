package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// TokenConfig defines how operator access tokens are signed.
type TokenConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// IssueTokenRequest describes an operator token to mint.
type IssueTokenRequest struct {
	Subject string          `validate:"required"`
	Name    string          `validate:"omitempty,max=128"`
	Role    models.UserRole `validate:"required,oneof=ADMIN OPERATOR"`
}

// IssuedToken is a signed access token with its expiry.
type IssuedToken struct {
	AccessToken string    `json:"access_token"`
	TokenID     string    `json:"token_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenService issues and validates HS256 operator tokens.
type TokenService struct {
	validator *validator.Validate
	logger    *zap.Logger
	config    TokenConfig
	now       func() time.Time
}

// NewTokenService constructs a TokenService instance.
func NewTokenService(validate *validator.Validate, logger *zap.Logger, config TokenConfig) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	return &TokenService{validator: validate, logger: logger, config: config, now: time.Now}
}

// Issue signs a token for the requested operator.
func (s *TokenService) Issue(req IssueTokenRequest) (*IssuedToken, error) {
	req.Subject = strings.TrimSpace(req.Subject)
	req.Role = models.UserRole(strings.ToUpper(strings.TrimSpace(string(req.Role))))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid token request")
	}
	if s.config.Secret == "" {
		return nil, appErrors.Clone(appErrors.ErrInternal, "token secret is not configured")
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiry)
	tokenID := uuid.NewString()
	claims := &models.JWTClaims{
		Name: req.Name,
		Role: req.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    s.config.Issuer,
			Subject:   req.Subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	s.logger.Info("operator token issued", zap.String("subject", req.Subject), zap.String("role", string(req.Role)), zap.String("jti", tokenID))
	return &IssuedToken{AccessToken: signed, TokenID: tokenID, ExpiresAt: expiresAt}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *TokenService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}
