package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/groupledger/internal/auth"
	"github.com/mmynk/groupledger/internal/metrics"
)

type ping struct{}

func echoMember(ctx context.Context, _ connect.AnyRequest) (connect.AnyResponse, error) {
	return connect.NewResponse(&ping{}), errorFor(GetMemberID(ctx))
}

// errorFor lets the test observe the member ID through the returned error.
func errorFor(memberID string) error {
	if memberID == "" {
		return errors.New("no member")
	}
	return nil
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	token, err := jwtManager.Generate("alice", "")
	require.NoError(t, err)

	handler := RequireAuth(jwtManager)(echoMember)

	tests := []struct {
		name     string
		header   string
		wantCode connect.Code
	}{
		{"valid token", "Bearer " + token, 0},
		{"missing header", "", connect.CodeUnauthenticated},
		{"wrong scheme", "Basic " + token, connect.CodeUnauthenticated},
		{"empty bearer", "Bearer ", connect.CodeUnauthenticated},
		{"bad token", "Bearer nope", connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := connect.NewRequest(&ping{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}
			_, err := handler(context.Background(), req)
			if tt.wantCode == 0 {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantCode, connect.CodeOf(err))
		})
	}
}

func TestLoggingInterceptorPassesThrough(t *testing.T) {
	m := metrics.New()
	failing := func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("group not found"))
	}

	_, err := LoggingInterceptor(m)(failing)(context.Background(), connect.NewRequest(&ping{}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = LoggingInterceptor(nil)(echoMember)(WithMemberID(context.Background(), "bob"), connect.NewRequest(&ping{}))
	assert.NoError(t, err)
}

// chain wraps fn the way connect.WithInterceptors does: first is outermost.
func chain(fn connect.UnaryFunc, interceptors []connect.Interceptor) connect.UnaryFunc {
	for i := len(interceptors) - 1; i >= 0; i-- {
		fn = interceptors[i].WrapUnary(fn)
	}
	return fn
}

func TestInterceptorsCountRejectedCalls(t *testing.T) {
	m := metrics.New()
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	token, err := jwtManager.Generate("carol", "")
	require.NoError(t, err)

	var seen string
	handler := chain(func(ctx context.Context, _ connect.AnyRequest) (connect.AnyResponse, error) {
		seen = GetMemberID(ctx)
		return connect.NewResponse(&ping{}), nil
	}, Interceptors(jwtManager, m))

	_, err = handler(context.Background(), connect.NewRequest(&ping{}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	req := connect.NewRequest(&ping{})
	req.Header().Set("Authorization", "Bearer "+token)
	_, err = handler(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "carol", seen)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `code="unauthenticated"`)
	assert.Contains(t, body, `code="ok"`)
}

func TestLoggingInterceptorSeesMemberSetInside(t *testing.T) {
	var c *caller
	inner := func(ctx context.Context, _ connect.AnyRequest) (connect.AnyResponse, error) {
		WithMemberID(ctx, "dave")
		c, _ = ctx.Value(callerKey).(*caller)
		return connect.NewResponse(&ping{}), nil
	}

	_, err := LoggingInterceptor(nil)(inner)(context.Background(), connect.NewRequest(&ping{}))
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "dave", c.memberID)
}
