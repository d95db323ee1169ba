package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const requestContextKey = "auth_request_context"

// AccountLoader resolves the account behind a token subject.
type AccountLoader interface {
	GetByID(ctx context.Context, scope access.Scope, id string) (*domain.Account, error)
}

// AuthMiddleware validates bearer tokens and loads the caller.
type AuthMiddleware struct {
	tokens   *TokenManager
	accounts AccountLoader
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, accounts AccountLoader) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, accounts: accounts}
}

// Handle enforces authentication for protected routes. Roles and company
// come from the stored account so revocations apply before token expiry.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	account, err := m.accounts.GetByID(c.UserContext(), access.Unscoped(), claims.Subject)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperrors.NewUnauthorized("account not found")
		}
		return apperrors.MapError(err)
	}
	if !account.IsActive {
		return apperrors.NewUnauthorized("account disabled")
	}

	c.Locals(requestContextKey, access.RequestContext{
		AccountID: account.ID,
		Email:     account.Email,
		Name:      account.FullName(),
		TenantID:  account.CompanyID,
		Roles:     account.Roles,
	})
	return c.Next()
}

// RequestContextFrom retrieves the authenticated caller.
func RequestContextFrom(c *fiber.Ctx) (access.RequestContext, bool) {
	rc, ok := c.Locals(requestContextKey).(access.RequestContext)
	return rc, ok
}
