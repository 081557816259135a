package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"
)

// headers and form fields whose values carry credentials, they are never written to reports
var redactedHeaders = map[string]bool{
	"Cookie":        true,
	"Set-Cookie":    true,
	"Authorization": true,
}

// Output receives a dump of every http exchange, `id` is unique per exchange and can be used as a
// file name.
type Output interface {
	Write(id string, contents string)
}

type instrumentResty struct {
	tel       API
	output    Output
	idcounter *uint64
}

// InstrumentResty reports every request made by the client, failed requests and responses with
// a status code >= 400 include a dump of the exchange with credentials redacted.
//
// `output` can be nil, if it is not, every exchange is also dumped to it.
func InstrumentResty(client *resty.Client, tel API, output Output) {
	var idcounter uint64
	i := instrumentResty{tel: tel, output: output, idcounter: &idcounter}

	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

type reqCtxKeyType int

var reqCtxKey reqCtxKeyType

type reqCtx struct {
	id        uint64
	startTime time.Time
}

func (i instrumentResty) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx := req.Context()

	id := atomic.AddUint64(i.idcounter, 1)
	ctx = context.WithValue(ctx, reqCtxKey, reqCtx{
		id:        id,
		startTime: time.Now(),
	})
	i.tel.ReportDebug(report_resty_request, id, req.Method, req.URL)

	req.SetContext(ctx)
	return nil
}

func (i instrumentResty) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	rc, ok := res.Request.Context().Value(reqCtxKey).(reqCtx)
	if !ok {
		return nil
	}
	duration := time.Since(rc.startTime)

	i.tel.ReportDebug(
		report_resty_response,
		rc.id,
		duration.String(),
		res.Status(),
	)
	if i.output != nil {
		i.output.Write(
			fmt.Sprintf("%03d-%s.txt", rc.id, strings.ToLower(res.Request.Method)),
			formatHttpMessage(res),
		)
	}
	if res.StatusCode() >= 400 {
		i.tel.ReportWarning(
			report_resty_response,
			fmt.Errorf("unexpected status %d", res.StatusCode()),
			formatHttpMessage(res),
		)
	}

	return nil
}

func (i instrumentResty) onError(req *resty.Request, err error) {
	var duration time.Duration
	rc, ok := req.Context().Value(reqCtxKey).(reqCtx)
	if ok {
		duration = time.Since(rc.startTime)
	}

	i.tel.ReportBroken(
		report_resty_response,
		err,
		req.Method,
		req.URL,
		duration,
	)
}

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		for _, v := range headers[k] {
			if redactedHeaders[http.CanonicalHeaderKey(k)] {
				v = "<redacted>"
			}
			lines = append(lines, fmt.Sprintf("%s: %s", k, v))
		}
	}
	return strings.Join(lines, "\n")
}

// redactForm hides every form value whose key looks like it holds a password.
func redactForm(body string) string {
	values, err := url.ParseQuery(body)
	if err != nil || len(values) == 0 {
		return body
	}
	for k := range values {
		lower := strings.ToLower(k)
		if strings.Contains(lower, "senha") || strings.Contains(lower, "password") {
			values.Set(k, "<redacted>")
		}
	}
	return values.Encode()
}

func formatRequestBody(req *resty.Request) string {
	switch body := req.Body.(type) {
	case nil:
		if len(req.FormData) > 0 {
			return redactForm(req.FormData.Encode())
		}
		return "<NO BODY>"
	case string:
		return redactForm(body)
	case []byte:
		return redactForm(string(body))
	default:
		return fmt.Sprintf("<%T>", body)
	}
}

// 1: request method
// 2: request url
// 3: request headers in ("Key: Value" format)
// 4: request body
// 5: response status
// 6: response headers in ("Key: Value" format)
// 7: response body
const messageInfoTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%s

%s

%s`

func formatHttpMessage(res *resty.Response) string {
	var requestHeaders http.Header
	if res.Request.RawRequest != nil {
		requestHeaders = res.Request.RawRequest.Header
	} else {
		requestHeaders = res.Request.Header
	}

	return fmt.Sprintf(
		messageInfoTemplate,

		res.Request.Method, res.Request.URL,
		formatHeaders(requestHeaders),
		formatRequestBody(res.Request),

		res.Status(),
		formatHeaders(res.Header()),
		res.String(),
	)
}
