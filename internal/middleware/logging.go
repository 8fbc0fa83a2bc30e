package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/auth"
	"github.com/mmynk/groupledger/internal/metrics"
)

// Interceptors returns the server's interceptor chain, outermost first.
// Logging runs outside authentication so rejected calls are logged and
// counted too.
func Interceptors(jwtManager *auth.JWTManager, m *metrics.Metrics) []connect.Interceptor {
	return []connect.Interceptor{
		LoggingInterceptor(m),
		RequireAuth(jwtManager),
	}
}

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// and counts it by procedure and result code. m may be nil.
func LoggingInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			c := &caller{memberID: GetMemberID(ctx)}
			resp, err := next(context.WithValue(ctx, callerKey, c), req)

			memberID := c.memberID
			duration := time.Since(start).Milliseconds()
			if err == nil {
				m.RPCRequest(procedure, "ok")
				slog.Info("RPC ok",
					"procedure", procedure,
					"member_id", memberID,
					"duration_ms", duration,
				)
				return resp, nil
			}

			code := connect.CodeOf(err)
			m.RPCRequest(procedure, code.String())

			var connectErr *connect.Error
			if errors.As(err, &connectErr) && code != connect.CodeInternal && code != connect.CodeUnknown {
				slog.Warn("RPC error",
					"procedure", procedure,
					"code", code,
					"error", connectErr.Message(),
					"member_id", memberID,
					"duration_ms", duration,
				)
			} else {
				slog.Error("RPC error",
					"procedure", procedure,
					"code", code,
					"error", err,
					"member_id", memberID,
					"duration_ms", duration,
				)
			}

			return resp, err
		}
	}
}
