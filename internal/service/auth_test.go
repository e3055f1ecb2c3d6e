package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/nutrikit/mealplan-service/internal/service"
)

func TestValidateTokenValid(t *testing.T) {
	svc := service.NewAuthService("test-secret")
	userID := uuid.New()
	token, err := svc.GenerateToken(userID, "tester")
	assert.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "tester", claims.Username)
}

func TestValidateTokenInvalid(t *testing.T) {
	svc := service.NewAuthService("test-secret")

	claims, err := svc.ValidateToken("invalid.token")
	assert.Error(t, err)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer := service.NewAuthService("secret-a")
	token, err := issuer.GenerateToken(uuid.New(), "tester")
	assert.NoError(t, err)

	verifier := service.NewAuthService("secret-b")
	claims, err := verifier.ValidateToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}
