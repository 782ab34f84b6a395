package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// MaxRedirects is the number of redirect hops followed before the last response is
// returned as-is
const MaxRedirects = 5

// ErrNotConfigured is returned when no upstream base URL is configured
var ErrNotConfigured = errors.New("translation backend URL not configured")

// Request describes a call to forward upstream
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Body     Payload
}

// Service forwards requests to the translation backend with the server-held credential
type Service struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewService builds a relay for baseURL (already normalised). timeout 0 keeps the
// transport default of no timeout.
func NewService(baseURL, token string, timeout time.Duration) *Service {
	if baseURL == "" {
		log.Warn().Msg("Relay created without an upstream base URL - requests will fail")
	} else {
		log.Info().Str("base_url", baseURL).Msg("Relay service initialized")
	}

	return &Service{
		client: &http.Client{
			Timeout: timeout,
			// Redirects are followed manually so the body and credential are re-sent
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL: baseURL,
		token:   token,
	}
}

// BaseURL returns the upstream base URL
func (s *Service) BaseURL() string {
	return s.baseURL
}

// Forward sends req upstream, following up to MaxRedirects redirects. A 3xx without a
// Location header, or one beyond the redirect cap, is returned as the final response.
// The caller owns the returned response and must Close or Write it.
func (s *Service) Forward(ctx context.Context, req Request) (*Response, error) {
	if s.baseURL == "" {
		return nil, ErrNotConfigured
	}

	target := s.baseURL + "/" + strings.TrimPrefix(req.Path, "/")
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}

	log.Debug().
		Str("method", req.Method).
		Str("url", target).
		Bool("multipart", req.Body.IsMultipart()).
		Msg("Forwarding request upstream")

	resp, err := s.send(ctx, req.Method, target, req.Body)
	if err != nil {
		return nil, err
	}

	redirects := 0
	for isRedirect(resp.StatusCode) && redirects < MaxRedirects {
		location := resp.Header.Get("Location")
		if location == "" {
			log.Warn().
				Int("status", resp.StatusCode).
				Str("url", target).
				Msg("Upstream redirect without Location header, returning it as-is")
			break
		}

		next, err := s.resolve(location)
		if err != nil {
			discard(resp)
			return nil, err
		}

		redirects++
		log.Debug().
			Int("redirect", redirects).
			Str("location", next).
			Msg("Following upstream redirect")

		discard(resp)
		target = next

		resp, err = s.send(ctx, req.Method, target, req.Body)
		if err != nil {
			return nil, err
		}
	}

	if isRedirect(resp.StatusCode) && redirects >= MaxRedirects {
		log.Warn().
			Int("max_redirects", MaxRedirects).
			Int("status", resp.StatusCode).
			Str("url", target).
			Msg("Redirect limit reached, returning last upstream response")
	}

	log.Info().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Int("redirects", redirects).
		Msg("Upstream response received")

	return newResponse(resp, target, redirects), nil
}

func (s *Service) send(ctx context.Context, method, target string, body Payload) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body.reader())
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}

	if s.token != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.token))
	}
	if len(body.Data) > 0 {
		httpReq.Header.Set("Content-Type", body.ContentType)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach upstream: %w", err)
	}

	return resp, nil
}

// resolve turns a Location header into an absolute URL, resolving relative
// locations against the upstream base URL
func (s *Service) resolve(location string) (string, error) {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid upstream base URL: %w", err)
	}

	ref, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid redirect location %q: %w", location, err)
	}

	return base.ResolveReference(ref).String(), nil
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
