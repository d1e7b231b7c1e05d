package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupAuthService(t *testing.T) (
	*AuthServiceImpl,
	*mocks.MockUserRepository,
	*mocks.MockHashService,
	*mocks.MockTokenService,
	*mocks.MockProvisioningService,
) {
	ctrl := gomock.NewController(t)
	userRepo := mocks.NewMockUserRepository(ctrl)
	hashSvc := mocks.NewMockHashService(ctrl)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	provisioning := mocks.NewMockProvisioningService(ctrl)

	svc := NewAuthService(userRepo, hashSvc, tokenSvc, provisioning)
	return svc, userRepo, hashSvc, tokenSvc, provisioning
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, userRepo, hashSvc, _, provisioning := setupAuthService(t)

	ctx := context.Background()
	req := ports.RegisterRequest{
		Email:     "  Ada@Example.com ",
		Password:  "StrongP@ss123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}

	userRepo.EXPECT().GetByEmail(ctx, "ada@example.com").Return(nil, nil)
	hashSvc.EXPECT().Hash(req.Password).Return("$argon2id$hashed", nil)

	want := &ports.ProvisionedAccount{User: &domain.User{ID: uuid.New(), Email: "ada@example.com"}}
	provisioning.EXPECT().Provision(ctx, ports.NewAccount{
		Email:        "ada@example.com",
		PasswordHash: "$argon2id$hashed",
		FirstName:    "Ada",
		LastName:     "Lovelace",
	}).Return(want, nil)

	got, err := svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, userRepo, _, _, _ := setupAuthService(t)

	ctx := context.Background()
	userRepo.EXPECT().GetByEmail(ctx, "ada@example.com").Return(&domain.User{ID: uuid.New()}, nil)

	_, err := svc.Register(ctx, ports.RegisterRequest{Email: "ada@example.com", Password: "x"})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeEmailExists))
}

func TestAuthService_Register_ProvisioningFails(t *testing.T) {
	svc, userRepo, hashSvc, _, provisioning := setupAuthService(t)

	ctx := context.Background()
	userRepo.EXPECT().GetByEmail(ctx, gomock.Any()).Return(nil, nil)
	hashSvc.EXPECT().Hash(gomock.Any()).Return("h", nil)
	provisioning.EXPECT().Provision(ctx, gomock.Any()).
		Return(nil, apperror.Misconfigured("default currency NGN is not in the catalog", nil))

	_, err := svc.Register(ctx, ports.RegisterRequest{Email: "ada@example.com", Password: "x"})
	assert.True(t, apperror.HasCode(err, apperror.CodeMisconfigured))
}

func TestAuthService_Register_HashError(t *testing.T) {
	svc, userRepo, hashSvc, _, _ := setupAuthService(t)

	ctx := context.Background()
	userRepo.EXPECT().GetByEmail(ctx, gomock.Any()).Return(nil, nil)
	hashSvc.EXPECT().Hash(gomock.Any()).Return("", errors.New("rng failure"))

	_, err := svc.Register(ctx, ports.RegisterRequest{Email: "ada@example.com", Password: "x"})
	assert.True(t, apperror.HasCode(err, apperror.CodeInternal))
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, userRepo, hashSvc, tokenSvc, _ := setupAuthService(t)

	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com", PasswordHash: "$argon2id$hash"}
	expiry := time.Now().Add(time.Hour)

	userRepo.EXPECT().GetByEmail(ctx, "ada@example.com").Return(user, nil)
	hashSvc.EXPECT().Verify("secret", user.PasswordHash).Return(true, nil)
	tokenSvc.EXPECT().Generate(user.ID).Return("jwt-token", expiry, nil)

	token, exp, err := svc.Login(ctx, "ADA@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	assert.Equal(t, expiry, exp)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc, userRepo, _, _, _ := setupAuthService(t)

	userRepo.EXPECT().GetByEmail(gomock.Any(), "nobody@example.com").Return(nil, nil)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "secret")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidCreds))
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, userRepo, hashSvc, _, _ := setupAuthService(t)

	user := &domain.User{ID: uuid.New(), PasswordHash: "h"}
	userRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(user, nil)
	hashSvc.EXPECT().Verify("wrong", "h").Return(false, nil)

	_, _, err := svc.Login(context.Background(), "ada@example.com", "wrong")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidCreds))
}

func TestAuthService_Login_RepoError(t *testing.T) {
	svc, userRepo, _, _, _ := setupAuthService(t)

	userRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	_, _, err := svc.Login(context.Background(), "ada@example.com", "x")
	assert.True(t, apperror.HasCode(err, apperror.CodeInternal))
}
