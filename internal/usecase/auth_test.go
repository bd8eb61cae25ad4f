package usecase

import (
	"context"
	"errors"
	"testing"

	domainErrors "github.com/sablin/fairmarket/internal/domain/errors"
	"github.com/sablin/fairmarket/internal/domain/model"
	pkgAuth "github.com/sablin/fairmarket/internal/pkg/auth"
	testhelpers "github.com/sablin/fairmarket/internal/test"
)

func TestAuthRegisterDefaultsToCustomerRole(t *testing.T) {
	users := testhelpers.NewUserRepositoryStub()
	uc := NewAuthUseCase(users, testhelpers.HasherStub{}, testhelpers.StrategyStub{})

	usr, token, err := uc.Register(context.Background(), "buyer", "secret", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("expected token")
	}
	if usr.Role != model.RoleCustomer {
		t.Fatalf("expected customer role by default, got %s", usr.Role)
	}
}

func TestAuthRegisterValidation(t *testing.T) {
	users := testhelpers.NewUserRepositoryStub()
	uc := NewAuthUseCase(users, testhelpers.HasherStub{}, testhelpers.StrategyStub{})
	ctx := context.Background()

	if _, _, err := uc.Register(ctx, "  ", "secret", ""); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
		t.Errorf("expected invalid credentials for blank login, got %v", err)
	}
	if _, _, err := uc.Register(ctx, "buyer", "", ""); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
		t.Errorf("expected invalid credentials for empty password, got %v", err)
	}
	if _, _, err := uc.Register(ctx, "buyer", "secret", "root"); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
		t.Errorf("expected invalid credentials for unknown role, got %v", err)
	}
}

func TestAuthRegisterDuplicateLogin(t *testing.T) {
	users := testhelpers.NewUserRepositoryStub()
	uc := NewAuthUseCase(users, testhelpers.HasherStub{}, testhelpers.StrategyStub{})
	ctx := context.Background()

	if _, _, err := uc.Register(ctx, "seller", "secret", model.RoleSeller); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := uc.Register(ctx, "seller", "secret", model.RoleSeller); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists error, got %v", err)
	}
}

func TestAuthAuthenticate(t *testing.T) {
	users := testhelpers.NewUserRepositoryStub()
	uc := NewAuthUseCase(users, testhelpers.HasherStub{}, testhelpers.StrategyStub{
		IssueFn: func(userID int64, role model.Role) (string, error) {
			if role != model.RoleSeller {
				t.Fatalf("expected stored role in token, got %s", role)
			}
			return "signed", nil
		},
	})
	ctx := context.Background()

	if _, _, err := uc.Register(ctx, "seller", "secret", model.RoleSeller); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, token, err := uc.Authenticate(ctx, "seller", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "signed" {
		t.Fatalf("unexpected token %q", token)
	}

	if _, _, err := uc.Authenticate(ctx, "seller", "wrong"); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
		t.Errorf("expected invalid credentials for wrong password, got %v", err)
	}
	if _, _, err := uc.Authenticate(ctx, "ghost", "secret"); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
		t.Errorf("expected invalid credentials for unknown login, got %v", err)
	}
}

func TestAuthRegisterDistinctLogins(t *testing.T) {
	users := testhelpers.NewUserRepositoryStub()
	uc := NewAuthUseCase(users, testhelpers.HasherStub{}, testhelpers.StrategyStub{})
	ctx := context.Background()

	seen := make(map[string]int64)
	for i := 0; i < 20; i++ {
		login := testhelpers.RandomASCIIString(8, 16)
		if _, ok := seen[login]; ok {
			continue
		}
		usr, _, err := uc.Register(ctx, login, "secret", "")
		if err != nil {
			t.Fatalf("unexpected error for login %q: %v", login, err)
		}
		for taken, id := range seen {
			if id == usr.ID {
				t.Fatalf("id %d reused between %q and %q", id, taken, login)
			}
		}
		seen[login] = usr.ID
	}
}

func TestAuthParseTokenRejectsEmpty(t *testing.T) {
	uc := NewAuthUseCase(testhelpers.NewUserRepositoryStub(), testhelpers.HasherStub{}, testhelpers.StrategyStub{})
	if _, _, err := uc.ParseToken(""); !errors.Is(err, pkgAuth.ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}
