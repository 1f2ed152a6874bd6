package aws

import (
	"context"
	"errors"
	"slices"

	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/stocktake/pkg/resource"
)

// Result is the outcome of a best-effort sub-fetch (bucket size, tags, ...).
// On failure Value already holds the documented default and Err the cause.
type Result[T any] struct {
	Value T
	Err   error
}

func succeeded[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func failed[T any](def T, err error) Result[T] {
	return Result[T]{Value: def, Err: err}
}

// logged returns the value, logging a failed sub-fetch against the record it belongs to.
func (r Result[T]) logged(ctx context.Context, typ resource.Type, id, attribute string) T {
	if r.Err == nil {
		return r.Value
	}
	event := log.Warn().Ctx(ctx).
		Err(r.Err).
		Str("type", typ.String()).
		Str("id", id).
		Str("attribute", attribute)
	if code := errorCode(r.Err); code != "" {
		event = event.Str("code", code)
	}
	event.Msg("sub-fetch failed, using default")
	return r.Value
}

// errorCode returns the AWS API error code of err, if any.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func hasErrorCode(err error, codes ...string) bool {
	code := errorCode(err)
	return code != "" && slices.Contains(codes, code)
}
