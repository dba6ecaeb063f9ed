package omnidesk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every gateway request.
const DefaultTimeout = 30 * time.Second

// RequestStage transforms an outgoing request before it is transmitted.
// Returning an error aborts the call.
type RequestStage func(req *http.Request) (*http.Request, error)

// ResponseStage sees the outcome of a transmitted request after non-2xx
// answers have been turned into *StatusError. It may replace either value.
type ResponseStage func(req *http.Request, resp *http.Response, err error) (*http.Response, error)

// Gateway is one configured request pipeline against a backend base path.
// BearerToken is always the last request stage, so the token is read just
// before transmission, and LogoutOnUnauthorized is always the first
// response stage.
type Gateway struct {
	name           string
	baseURL        string
	httpClient     *http.Client
	session        *SessionStore
	requestStages  []RequestStage
	responseStages []ResponseStage
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithHTTPClient uses a copy of c for transport. Its Timeout is kept if set,
// otherwise DefaultTimeout is applied.
func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *Gateway) {
		cp := *c
		g.httpClient = &cp
	}
}

// WithTimeout sets the fixed per-request timeout.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.httpClient.Timeout = d
	}
}

// WithRequestStage adds stages that run before BearerToken.
func WithRequestStage(stages ...RequestStage) GatewayOption {
	return func(g *Gateway) {
		g.requestStages = append(g.requestStages, stages...)
	}
}

// WithResponseStage appends stages after LogoutOnUnauthorized.
func WithResponseStage(stages ...ResponseStage) GatewayOption {
	return func(g *Gateway) {
		g.responseStages = append(g.responseStages, stages...)
	}
}

// NewGateway creates the default gateway for baseURL.
func NewGateway(baseURL string, session *SessionStore, opts ...GatewayOption) *Gateway {
	if session == nil {
		session = NewSessionStore()
	}

	g := &Gateway{
		name:       "api",
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		session:    session,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.httpClient.Timeout == 0 {
		g.httpClient.Timeout = DefaultTimeout
	}

	g.requestStages = append(g.requestStages, BearerToken(session))
	g.responseStages = append([]ResponseStage{LogoutOnUnauthorized(session)}, g.responseStages...)
	return g
}

// Prefixed returns a gateway variant rooted at prefix. It shares the
// transport, session and stages of g.
func (g *Gateway) Prefixed(name, prefix string) *Gateway {
	v := *g
	v.name = name
	v.baseURL = g.baseURL + "/" + strings.Trim(prefix, "/")
	v.requestStages = append([]RequestStage(nil), g.requestStages...)
	v.responseStages = append([]ResponseStage(nil), g.responseStages...)
	return &v
}

// Name identifies the gateway in logs and metrics.
func (g *Gateway) Name() string { return g.name }

// BaseURL returns the absolute base including the prefix.
func (g *Gateway) BaseURL() string { return g.baseURL }

// Session returns the shared session store.
func (g *Gateway) Session() *SessionStore { return g.session }

// Timeout returns the fixed per-request timeout.
func (g *Gateway) Timeout() time.Duration { return g.httpClient.Timeout }

// Do sends in as JSON (when non-nil) and decodes a 2xx body into out (when non-nil).
func (g *Gateway) Do(ctx context.Context, method, path string, in, out any) error {
	body, err := g.DoRaw(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// DoRaw performs the call and returns the raw 2xx body.
func (g *Gateway) DoRaw(ctx context.Context, method, path string, in any) ([]byte, error) {
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode request: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	ctx = withRequestInfo(ctx, requestInfo{gateway: g.name, startedAt: time.Now()})
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, stage := range g.requestStages {
		if req, err = stage(req); err != nil {
			return nil, err
		}
	}

	resp, err := g.roundTrip(req)

	for _, stage := range g.responseStages {
		resp, err = stage(req, resp, err)
	}
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Body == nil {
		return nil, nil
	}
	return io.ReadAll(resp.Body)
}

// roundTrip transmits req once and buffers the body so response stages can
// inspect it. Status >= 400 becomes a *StatusError alongside the response.
func (g *Gateway) roundTrip(req *http.Request) (*http.Response, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	if resp.StatusCode >= 400 {
		return resp, newStatusError(resp.StatusCode, body)
	}
	return resp, nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

type requestInfoKey struct{}

type requestInfo struct {
	gateway   string
	startedAt time.Time
}

func withRequestInfo(ctx context.Context, info requestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

func requestInfoFrom(ctx context.Context) requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(requestInfo)
	return info
}
