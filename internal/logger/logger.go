// Package logger configures zerolog and attaches request-scoped loggers to HTTP and
// gRPC calls.
package logger

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Setup returns the process logger. level is a zerolog level name; an unknown or
// empty level means info, or debug when dev is set. dev switches to console output.
func Setup(level string, dev bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
		if dev {
			lvl = zerolog.DebugLevel
		}
	}

	logger := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(lvl).With().Stack().Logger()
	}

	return logger
}

// HTTPRequests returns chi-compatible middleware that stores a request-scoped logger in
// the request context and logs each completed request.
func HTTPRequests(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			l := logger.With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(l.WithContext(r.Context())))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			ev := l.Info()
			if status >= http.StatusInternalServerError {
				ev = l.Error()
			}
			ev.Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(started)).
				Msg("http request")
		})
	}
}

// UnaryRequests returns a gRPC interceptor that logs each unary call.
func UnaryRequests(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		ctx = logger.With().Str("method", info.FullMethod).Logger().WithContext(ctx)

		resp, err := handler(ctx, req)

		if err != nil {
			zerolog.Ctx(ctx).Error().
				Err(err).
				Str("code", status.Code(err).String()).
				Dur("duration", time.Since(started)).
				Msg("rpc call")
			return resp, err
		}
		zerolog.Ctx(ctx).Debug().
			Dur("duration", time.Since(started)).
			Msg("rpc call")
		return resp, nil
	}
}
