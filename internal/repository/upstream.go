package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
	"github.com/UniversalTze/FormBase/pkg/postgrest"
)

type restClient interface {
	Get(ctx context.Context, endpoint string, out interface{}) error
	Post(ctx context.Context, endpoint string, body, out interface{}) error
	Patch(ctx context.Context, endpoint string, body, out interface{}) error
	Delete(ctx context.Context, endpoint string) error
}

// upstreamError maps a store failure onto an application error. The store's
// status and body stay in the message.
func upstreamError(err error, action string) error {
	if err == nil {
		return nil
	}
	var herr *postgrest.HTTPError
	if errors.As(err, &herr) {
		switch herr.Status {
		case http.StatusUnauthorized:
			return appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, http.StatusUnauthorized, "remote store rejected the credentials")
		case http.StatusForbidden:
			return appErrors.Wrap(err, appErrors.ErrForbidden.Code, http.StatusForbidden, "remote store denied access")
		case http.StatusNotFound:
			return appErrors.Wrap(err, appErrors.ErrNotFound.Code, http.StatusNotFound, appErrors.ErrNotFound.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("%s failed: %s", action, herr.Error()))
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, http.StatusGatewayTimeout, fmt.Sprintf("%s timed out", action))
	}
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("%s failed", action))
}

func notFound(what string, id int64) error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %d not found", what, id))
}
