package enrich

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/siteintel/siteintel/pkg/defaults"
	"github.com/siteintel/siteintel/pkg/httpclient"
	"github.com/siteintel/siteintel/pkg/iohelper"
	"github.com/siteintel/siteintel/pkg/jsonutil"
)

// IPAPI looks addresses up in the ipapi.co JSON API.
type IPAPI struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewIPAPI returns an ipapi.co source. An empty baseURL means
// defaults.IPAPIURL, a nil client gets httpclient defaults, and a nil
// limiter disables pacing.
func NewIPAPI(baseURL string, client *http.Client, limiter *rate.Limiter) *IPAPI {
	if baseURL == "" {
		baseURL = defaults.IPAPIURL
	}
	if client == nil {
		client = httpclient.New(httpclient.DefaultConfig())
	}
	return &IPAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		limiter: limiter,
	}
}

// NewLimiter returns the process-wide pacing limiter for ipapi.co.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Name implements Source.
func (s *IPAPI) Name() string { return "ipapi" }

type ipapiResponse struct {
	ASN    string `json:"asn"`
	Org    string `json:"org"`
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Lookup implements Source.
func (s *IPAPI) Lookup(ctx context.Context, ip string) (Result, error) {
	if !ValidIPv4(ip) {
		return Result{}, ErrInvalidAddress
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return Result{}, fmt.Errorf("%w: ipapi: %w", ErrEnrichmentUnavailable, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+ip+"/json/", nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: ipapi: %w", ErrEnrichmentUnavailable, err)
	}
	req.Header.Set("Accept", defaults.ContentTypeJSON)

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: ipapi: %w", ErrEnrichmentUnavailable, err)
	}
	defer iohelper.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: ipapi: status %d", ErrEnrichmentUnavailable, resp.StatusCode)
	}

	body, err := iohelper.ReadBodySmall(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: ipapi: %w", ErrEnrichmentUnavailable, err)
	}

	var data ipapiResponse
	if err := jsonutil.Unmarshal(body, &data); err != nil {
		return Result{}, fmt.Errorf("%w: ipapi: decode: %w", ErrEnrichmentUnavailable, err)
	}
	if data.Error {
		return Result{}, fmt.Errorf("%w: ipapi: %s", ErrEnrichmentUnavailable, data.Reason)
	}
	return Result{ASN: strings.TrimSpace(data.ASN), Org: strings.TrimSpace(data.Org)}, nil
}
