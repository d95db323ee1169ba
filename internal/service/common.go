package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// UploadedFile is a file received from a client, opened lazily.
type UploadedFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// mapNotFound turns a missing row into a NotFound error for resource.
func mapNotFound(err error, resource string) error {
	if repository.IsNotFound(err) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}

// scopeOrForbidden resolves the caller's query scope for kind.
func scopeOrForbidden(rc access.RequestContext, kind access.Resource) (access.Scope, error) {
	scope, ok := access.ScopeFor(rc, kind)
	if !ok {
		if !rc.HasTenant() && access.Decide(rc.Role(), strPtr("-"), kind) == access.TenantScoped {
			return access.Scope{}, apperrors.NewForbidden("caller is not assigned to a company")
		}
		return access.Scope{}, apperrors.NewForbidden("access denied")
	}
	return scope, nil
}

func requireAction(rc access.RequestContext, action access.Action) error {
	if !access.Can(rc, action) {
		return apperrors.NewForbidden("insufficient role")
	}
	return nil
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = dispatcher.Publish(ctx, event)
}

func strPtr(s string) *string { return &s }

// trimmedPtr returns nil for blank input.
func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// monthStart is the first instant of at's calendar month in UTC.
func monthStart(at time.Time) time.Time {
	at = at.UTC()
	return time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
}
