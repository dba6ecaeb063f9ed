package omnidesk

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/eldtechnologies/omnidesk/internal/metrics"
)

// BearerToken attaches the session token as a bearer credential. When the
// store holds no token any Authorization header is removed.
func BearerToken(session *SessionStore) RequestStage {
	return func(req *http.Request) (*http.Request, error) {
		if token, ok := session.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		} else {
			req.Header.Del("Authorization")
		}
		return req, nil
	}
}

// LogoutOnUnauthorized clears the whole session on a 401 from any gateway and
// hands the failure on unchanged.
func LogoutOnUnauthorized(session *SessionStore) ResponseStage {
	return func(req *http.Request, resp *http.Response, err error) (*http.Response, error) {
		if err != nil && IsUnauthorized(err) {
			session.Logout()
			metrics.SessionInvalidations.WithLabelValues(requestInfoFrom(req.Context()).gateway).Inc()
		}
		return resp, err
	}
}

// RequestLogger logs every completed call.
func RequestLogger(logger zerolog.Logger) ResponseStage {
	return func(req *http.Request, resp *http.Response, err error) (*http.Response, error) {
		info := requestInfoFrom(req.Context())

		ev := logger.Debug()
		if err != nil {
			ev = logger.Warn().Err(err)
		}
		if resp != nil {
			ev = ev.Int("status", resp.StatusCode)
		}
		ev.Str("gateway", info.gateway).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Dur("latency", time.Since(info.startedAt)).
			Msg("request completed")

		return resp, err
	}
}

// RecordMetrics counts calls per gateway and observes their latency.
func RecordMetrics() ResponseStage {
	return func(req *http.Request, resp *http.Response, err error) (*http.Response, error) {
		info := requestInfoFrom(req.Context())

		status := "error"
		if resp != nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		metrics.ClientRequestsTotal.WithLabelValues(info.gateway, req.Method, status).Inc()
		metrics.ClientRequestDuration.WithLabelValues(info.gateway, req.Method).
			Observe(time.Since(info.startedAt).Seconds())

		return resp, err
	}
}

// RateLimit delays transmission until limiter admits the request or the
// request context ends.
func RateLimit(limiter *rate.Limiter) RequestStage {
	return func(req *http.Request) (*http.Request, error) {
		if err := limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
		return req, nil
	}
}
