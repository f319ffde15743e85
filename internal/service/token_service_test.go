package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

func newTestTokenService() *TokenService {
	return NewTokenService(nil, nil, TokenConfig{Secret: "secret", Issuer: "academic-records", Expiry: time.Hour})
}

func TestTokenServiceIssueAndValidate(t *testing.T) {
	svc := newTestTokenService()

	issued, err := svc.Issue(IssueTokenRequest{Subject: " ops ", Name: "Ops", Role: "admin"})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.AccessToken)
	assert.NotEmpty(t, issued.TokenID)

	claims, err := svc.ValidateToken(issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, issued.TokenID, claims.ID)
	assert.Equal(t, "academic-records", claims.Issuer)
}

func TestTokenServiceIssueValidation(t *testing.T) {
	svc := newTestTokenService()

	_, err := svc.Issue(IssueTokenRequest{Subject: "ops", Role: "STUDENT"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.Issue(IssueTokenRequest{Role: models.RoleOperator})
	assert.Error(t, err)
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	svc := newTestTokenService()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	issued, err := svc.Issue(IssueTokenRequest{Subject: "ops", Role: models.RoleAdmin})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(issued.AccessToken)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestTokenServiceRejectsForeignSignature(t *testing.T) {
	svc := newTestTokenService()
	claims := &models.JWTClaims{Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "academic-records",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(forged)
	assert.Error(t, err)

	_, err = svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
