package composables

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nrpti-io/nrpti/pkg/constants"
)

type Params struct {
	IP        string
	UserAgent string
	Request   *http.Request
	Writer    http.ResponseWriter
}

// UseParams returns the request parameters from the context.
// If the parameters are not found, the second return value will be false.
func UseParams(ctx context.Context) (*Params, bool) {
	params, ok := ctx.Value(constants.ParamsKey).(*Params)
	return params, ok
}

// WithParams returns a new context with the request parameters.
func WithParams(ctx context.Context, params *Params) context.Context {
	return context.WithValue(ctx, constants.ParamsKey, params)
}

// WithAuthUser returns a new context carrying the preferred username of the
// authenticated principal. An empty string means anonymous.
func WithAuthUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, constants.AuthUserKey, username)
}

// UseAuthUser returns the preferred username from the context, or the empty
// string when the request is anonymous.
func UseAuthUser(ctx context.Context) string {
	username, _ := ctx.Value(constants.AuthUserKey).(string)
	return username
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the logger from the context.
func UseLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(constants.LoggerKey)
	if logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logger.(*logrus.Entry)
}
