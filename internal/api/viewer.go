package api

import (
	"time"

	"github.com/victornm/standings/internal/domain"
	"github.com/victornm/standings/internal/errors"
)

// Viewer roles set by the gateway in front of the service.
const (
	RoleAdmin    = "admin"
	RoleObserver = "observer"
)

const (
	headerUserID = "X-User-ID"
	headerRole   = "X-Viewer-Role"
)

// newViewer builds the viewer identity resolved upstream. The timestamp override is honoured for admins only.
func newViewer(userID, role, at string, now time.Time) (domain.Viewer, error) {
	v := domain.Viewer{UserID: userID, Timestamp: now}

	switch role {
	case "":
	case RoleAdmin:
		v.IsAdmin = true
	case RoleObserver:
		v.IsObserver = true
	default:
		return domain.Viewer{}, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown viewer role %q", role))
	}

	if at == "" || !v.IsAdmin {
		return v, nil
	}

	ts, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return domain.Viewer{}, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid timestamp %q, want RFC 3339", at),
			errors.WithCause(err))
	}
	v.Timestamp = ts
	return v, nil
}
