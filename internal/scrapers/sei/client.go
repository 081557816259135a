// client.go contains the http plumbing shared by the login handshake and the page scrapers.

package sei

import (
	"fmt"
	"net/http"
	"net/url"
	"seiassist-backend/internal/components/chrono"
	"seiassist-backend/internal/components/telemetry"
	"seiassist-backend/lib/htmlutil"
	libtelemetry "seiassist-backend/lib/telemetry"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

const DefaultBaseUrl = "https://sei.unirv.edu.br"

const (
	pathLogin    = "/"
	pathLanding  = "/visaoAluno/telaInicialVisaoAluno.xhtml"
	pathSchedule = "/visaoAluno/meusHorariosAluno.xhtml"
	pathGrades   = "/visaoAluno/minhasNotasAlunos.xhtml"
)

const (
	sessionCookie = "JSESSIONID"
	// redirectMarker is only present in pages served to a valid session.
	redirectMarker = "redirect"
)

const (
	report_client_login    = "client.login"
	report_client_fetch    = "client.fetch"
	report_client_schedule = "client.schedule"
	report_client_courses  = "client.courses"
	report_client_grades   = "client.grades"
)

var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:140.0) Gecko/20100101 Firefox/140.0",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "pt-BR,pt;q=0.8,en-US;q=0.5,en;q=0.3",
	"DNT":                       "1",
	"Sec-GPC":                   "1",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "same-origin",
	"Sec-Fetch-User":            "?1",
	"Priority":                  "u=0, i",
}

var (
	tracer = otel.Tracer("scrapers/sei")
	meter  = otel.Meter("scrapers/sei")
)

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// Timeout of a single request, 0 keeps the transport default.
	Timeout time.Duration
	// CloudflareBypass wraps the transport with github.com/DaRealFreak/cloudflare-bp-go.
	CloudflareBypass bool
	// RequestsPerSecond caps the request rate towards the portal, 0 disables the limit.
	RequestsPerSecond float64
	// Dump receives every http exchange with credentials redacted, it is meant for debugging.
	Dump telemetry.Output

	Time  chrono.TimeAPI
	Tel   telemetry.API
	Query htmlutil.Query
}

// Client talks to the portal. It keeps no session state of its own, every call carries the token
// it should act with, so a Client can be shared between goroutines.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	time  chrono.TimeAPI
	tel   telemetry.API
	query htmlutil.Query

	logins  metric.Int64Counter
	fetches metric.Int64Counter
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Time == nil {
		opts.Time = chrono.NewStandardTime()
	}
	if opts.Tel == nil {
		opts.Tel = telemetry.SlogAPI{}
	}
	if opts.Query == nil {
		opts.Query = htmlutil.GoqueryQuery{}
	}

	baseUrl, err := url.Parse(strings.TrimSuffix(opts.BaseUrl, "/"))
	if err != nil {
		return nil, err
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseUrl)
	}

	tel := telemetry.NewScopedAPI("sei_scraper", opts.Tel)

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl.String())
	// the session is passed explicitly on each request, a shared jar would leak it between callers
	httpClient.SetCookieJar(nil)
	httpClient.SetHeaders(browserHeaders)
	httpClient.SetRedirectPolicy(sessionRedirectPolicy(baseUrl.Hostname()))
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	if opts.RequestsPerSecond > 0 {
		// burst >= 1 so requests wait instead of being dropped
		burst := max(int(opts.RequestsPerSecond), 1)
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, opts.Dump)
	libtelemetry.InstrumentResty(httpClient, "scrapers/sei/http")

	logins, err := meter.Int64Counter("sei.logins")
	if err != nil {
		return nil, err
	}
	fetches, err := meter.Int64Counter("sei.page_fetches")
	if err != nil {
		return nil, err
	}

	return &Client{
		BaseUrl: baseUrl,
		Http:    httpClient,
		time:    opts.Time,
		tel:     tel,
		query:   opts.Query,
		logins:  logins,
		fetches: fetches,
	}, nil
}

func (c *Client) url(path string) string {
	return c.BaseUrl.String() + path
}

// sessionRedirectPolicy only follows redirects within the portal and, like a browser would, carries
// a session cookie issued by a redirect response over to the next request.
func sessionRedirectPolicy(hostname string) resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return fmt.Errorf("stopped after %d redirects", len(via))
		}
		if req.URL.Hostname() != hostname {
			return fmt.Errorf("redirect to %s is not allowed", req.URL.Hostname())
		}
		if req.Response == nil {
			return nil
		}
		for _, cookie := range req.Response.Cookies() {
			if cookie.Name == sessionCookie && cookie.Value != "" {
				req.Header.Set("Cookie", sessionCookieHeader(cookie.Value))
			}
		}
		return nil
	})
}

func sessionCookieHeader(token string) string {
	return fmt.Sprintf("%s=%s", sessionCookie, token)
}

// sessionFromResponse finds the session id either in the cookies set by the final response or, when
// it was set by a redirect, in the cookie header of the request that followed.
func sessionFromResponse(res *resty.Response) string {
	for _, cookie := range res.Cookies() {
		if cookie.Name == sessionCookie && cookie.Value != "" {
			return cookie.Value
		}
	}
	if res.RawResponse == nil || res.RawResponse.Request == nil {
		return ""
	}
	cookie, err := res.RawResponse.Request.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
