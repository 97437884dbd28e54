// Package middleware provides Connect interceptors shared by the services.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// with the router's request id, the peer and the duration. Rejected requests
// (bad input, unknown group, rate limited) log at warn; server faults at error.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()

			resp, err := next(ctx, req)

			attrs := []slog.Attr{
				slog.String("procedure", req.Spec().Procedure),
				slog.String("peer", req.Peer().Addr),
				slog.String("protocol", req.Peer().Protocol),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			if id := chimw.GetReqID(ctx); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}

			if err == nil {
				slog.LogAttrs(ctx, slog.LevelInfo, "RPC ok", attrs...)
				return resp, nil
			}

			var connectErr *connect.Error
			if !errors.As(err, &connectErr) {
				slog.LogAttrs(ctx, slog.LevelError, "RPC error", append(attrs, slog.Any("error", err))...)
				return resp, err
			}
			attrs = append(attrs,
				slog.String("code", connectErr.Code().String()),
				slog.String("error", connectErr.Message()),
			)
			slog.LogAttrs(ctx, errorLevel(connectErr.Code()), "RPC error", attrs...)
			return resp, err
		}
	}
}

func errorLevel(code connect.Code) slog.Level {
	switch code {
	case connect.CodeInvalidArgument, connect.CodeNotFound, connect.CodeResourceExhausted,
		connect.CodeCanceled, connect.CodeDeadlineExceeded:
		return slog.LevelWarn
	}
	return slog.LevelError
}
