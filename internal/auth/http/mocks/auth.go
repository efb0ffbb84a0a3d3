// Package mocks provides mock implementations for testing HTTP handlers.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
)

// MockCredentialValidator is a mock implementation of CredentialValidator for testing.
type MockCredentialValidator struct {
	mock.Mock
}

// Validate mocks the Validate method of CredentialValidator.
func (m *MockCredentialValidator) Validate(raw string) (*authDomain.Claims, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Claims), args.Error(1)
}

// MockActorResolver is a mock implementation of ActorResolver for testing.
type MockActorResolver struct {
	mock.Mock
}

// Resolve mocks the Resolve method of ActorResolver.
func (m *MockActorResolver) Resolve(
	ctx context.Context,
	claims *authDomain.Claims,
) (*authDomain.Actor, error) {
	args := m.Called(ctx, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Actor), args.Error(1)
}

// MockTokenSigner is a mock implementation of TokenSigner for testing.
type MockTokenSigner struct {
	mock.Mock
}

// Sign mocks the Sign method of TokenSigner.
func (m *MockTokenSigner) Sign(keyID uuid.UUID, projectID uuid.UUID, ttl time.Duration) (string, error) {
	args := m.Called(keyID, projectID, ttl)
	return args.String(0), args.Error(1)
}

// MockApiKeyUseCase is a mock implementation of ApiKeyUseCase for testing.
type MockApiKeyUseCase struct {
	mock.Mock
}

// Create mocks the Create method of ApiKeyUseCase.
func (m *MockApiKeyUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateApiKeyInput,
) (*authDomain.CreateApiKeyOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.CreateApiKeyOutput), args.Error(1)
}

// Get mocks the Get method of ApiKeyUseCase.
func (m *MockApiKeyUseCase) Get(
	ctx context.Context,
	projectID, keyID uuid.UUID,
) (*authDomain.ApiKey, error) {
	args := m.Called(ctx, projectID, keyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.ApiKey), args.Error(1)
}

// List mocks the List method of ApiKeyUseCase.
func (m *MockApiKeyUseCase) List(
	ctx context.Context,
	projectID uuid.UUID,
	offset, limit int,
) ([]*authDomain.ApiKey, error) {
	args := m.Called(ctx, projectID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.ApiKey), args.Error(1)
}

// Update mocks the Update method of ApiKeyUseCase.
func (m *MockApiKeyUseCase) Update(
	ctx context.Context,
	projectID, keyID uuid.UUID,
	input *authDomain.UpdateApiKeyInput,
) error {
	args := m.Called(ctx, projectID, keyID, input)
	return args.Error(0)
}

// Delete mocks the Delete method of ApiKeyUseCase.
func (m *MockApiKeyUseCase) Delete(ctx context.Context, projectID, keyID uuid.UUID) error {
	args := m.Called(ctx, projectID, keyID)
	return args.Error(0)
}
