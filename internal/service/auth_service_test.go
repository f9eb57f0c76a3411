package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"carrental/internal/auth"
	"carrental/internal/db"
	"carrental/internal/entities"
	"carrental/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService() (*AuthService, *mockUserRepo, *auth.TokenManager) {
	users := new(mockUserRepo)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := NewAuthService(users, tokens, nopLogger())
	svc.cost = bcrypt.MinCost
	return svc, users, tokens
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	req := &entities.RegisterRequest{
		Email:     "Jane@Example.com",
		Password:  "secret123",
		FirstName: "Jane",
		LastName:  "Doe",
		Phone:     "+15551234567",
	}

	t.Run("creates a customer and returns a token", func(t *testing.T) {
		svc, users, tokens := newAuthService()
		users.On("Create", ctx, mock.MatchedBy(func(u *db.User) bool {
			return u.Email == "jane@example.com" &&
				u.Role == db.RoleCustomer &&
				bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")) == nil
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*db.User).ID = 3
		}).Return(nil).Once()

		resp, err := svc.Register(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, int64(3), resp.User.ID)

		claims, err := tokens.Parse(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(3), claims.UserID)
		assert.Equal(t, db.RoleCustomer, claims.Role)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, users, _ := newAuthService()
		users.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicate).Once()

		_, err := svc.Register(ctx, req)
		requireHTTPError(t, err, http.StatusConflict, "User already exists with this email")
	})

	t.Run("invalid input", func(t *testing.T) {
		svc, users, _ := newAuthService()
		bad := *req
		bad.Email = "not-an-email"

		_, err := svc.Register(ctx, &bad)
		requireHTTPError(t, err, http.StatusBadRequest, "Please provide a valid email address")
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	user := &db.User{ID: 3, Email: "jane@example.com", PasswordHash: hashed(t, "secret123"), Role: db.RoleCustomer}

	t.Run("valid credentials", func(t *testing.T) {
		svc, users, _ := newAuthService()
		users.On("GetByEmail", ctx, "jane@example.com").Return(user, nil).Once()

		resp, err := svc.Login(ctx, &entities.LoginRequest{Email: "JANE@example.com", Password: "secret123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, users, _ := newAuthService()
		users.On("GetByEmail", ctx, "jane@example.com").Return(user, nil).Once()

		_, err := svc.Login(ctx, &entities.LoginRequest{Email: "jane@example.com", Password: "nope"})
		requireHTTPError(t, err, http.StatusUnauthorized, "Invalid credentials")
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, users, _ := newAuthService()
		users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, repository.ErrNotFound).Once()

		_, err := svc.Login(ctx, &entities.LoginRequest{Email: "ghost@example.com", Password: "secret123"})
		requireHTTPError(t, err, http.StatusUnauthorized, "Invalid credentials")
	})
}

func TestAuthService_Profile(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newAuthService()
	users.On("GetByID", ctx, int64(9)).Return(nil, repository.ErrNotFound).Once()

	_, err := svc.Profile(ctx, 9)
	requireHTTPError(t, err, http.StatusNotFound, "User not found")
}

func TestAuthService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newAuthService()
	first := "Janet"
	req := &entities.UpdateProfileRequest{FirstName: &first}
	users.On("UpdateProfile", ctx, int64(3), &first, (*string)(nil), (*string)(nil)).
		Return(&db.User{ID: 3, FirstName: "Janet"}, nil).Once()

	user, err := svc.UpdateProfile(ctx, 3, req)
	require.NoError(t, err)
	assert.Equal(t, "Janet", user.FirstName)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	user := &db.User{ID: 3, PasswordHash: hashed(t, "secret123")}

	t.Run("stores the new hash", func(t *testing.T) {
		svc, users, _ := newAuthService()
		users.On("GetByID", ctx, int64(3)).Return(user, nil).Once()
		users.On("UpdatePassword", ctx, int64(3), mock.MatchedBy(func(h string) bool {
			return bcrypt.CompareHashAndPassword([]byte(h), []byte("newsecret")) == nil
		})).Return(nil).Once()

		err := svc.ChangePassword(ctx, 3, &entities.ChangePasswordRequest{
			CurrentPassword: "secret123",
			NewPassword:     "newsecret",
			ConfirmPassword: "newsecret",
		})
		require.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("wrong current password", func(t *testing.T) {
		svc, users, _ := newAuthService()
		users.On("GetByID", ctx, int64(3)).Return(user, nil).Once()

		err := svc.ChangePassword(ctx, 3, &entities.ChangePasswordRequest{
			CurrentPassword: "wrong",
			NewPassword:     "newsecret",
			ConfirmPassword: "newsecret",
		})
		requireHTTPError(t, err, http.StatusUnauthorized, "Current password is incorrect")
		users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		svc, _, _ := newAuthService()

		err := svc.ChangePassword(ctx, 3, &entities.ChangePasswordRequest{
			CurrentPassword: "secret123",
			NewPassword:     "newsecret",
			ConfirmPassword: "different",
		})
		requireHTTPError(t, err, http.StatusBadRequest, "Password confirmation does not match")
	})
}

func TestAuthService_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newAuthService()
	users.On("Create", ctx, mock.MatchedBy(func(u *db.User) bool {
		return u.Role == db.RoleAdmin && u.Email == "admin@example.com"
	})).Return(nil).Once()

	user, err := svc.CreateAdmin(ctx, "Admin@example.com", "adminpass", "Site", "Admin")
	require.NoError(t, err)
	assert.Equal(t, db.RoleAdmin, user.Role)

	_, err = svc.CreateAdmin(ctx, "", "x", "", "")
	assert.Error(t, err)
}
