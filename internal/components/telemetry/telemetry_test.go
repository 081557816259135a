package telemetry

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	scoped := NewScopedAPI("sei_scraper", rec)

	scoped.ReportBroken("client.login", "boom")
	scoped.ReportWarning("client.courses")
	scoped.ReportCount("client.fetch", 3)

	broken := rec.Reports("broken")
	require.Len(t, broken, 1)
	require.Equal(t, "sei_scraper: client.login", broken[0].ID)
	require.Equal(t, []any{"boom"}, broken[0].Params)

	require.True(t, rec.Broken("client.login"))
	require.False(t, rec.Broken("client.courses"))
	require.Len(t, rec.Reports(""), 3)

	require.Panics(t, func() { NewScopedAPI("", rec) })
}

func TestFormatHeadersRedactsCredentials(t *testing.T) {
	headers := http.Header{}
	headers.Set("Cookie", "JSESSIONID=secret")
	headers.Set("Referer", "https://sei.unirv.edu.br/")

	out := formatHeaders(headers)
	require.NotContains(t, out, "secret")
	require.Contains(t, out, "Cookie: <redacted>")
	require.Contains(t, out, "Referer: https://sei.unirv.edu.br/")
}

func TestRedactForm(t *testing.T) {
	body := url.Values{
		"formLogin:username": {"aluno"},
		"formLogin:senha":    {"hunter2"},
	}.Encode()

	out := redactForm(body)
	require.NotContains(t, out, "hunter2")
	require.Contains(t, out, "aluno")
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	rec := &Recorder{}
	client := resty.New().SetBaseURL(server.URL)
	InstrumentResty(client, rec, nil)

	_, err := client.R().Get("/")
	require.NoError(t, err)
	require.Empty(t, rec.Reports("warning"))

	_, err = client.R().
		SetHeader("Cookie", "JSESSIONID=secret").
		Get("/missing")
	require.NoError(t, err)

	warnings := rec.Reports("warning")
	require.Len(t, warnings, 1)
	dump, ok := warnings[0].Params[1].(string)
	require.True(t, ok)
	require.Contains(t, dump, "404")
	require.NotContains(t, dump, "secret")
}

type memoryOutput map[string]string

func (o memoryOutput) Write(id string, contents string) {
	o[id] = contents
}

func TestInstrumentRestyOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>redirect</html>"))
	}))
	defer server.Close()

	output := memoryOutput{}
	client := resty.New().SetBaseURL(server.URL)
	InstrumentResty(client, &Recorder{}, output)

	_, err := client.R().
		SetFormData(map[string]string{"formLogin:username": "aluno", "formLogin:senha": "hunter2"}).
		Post("/index.xhtml")
	require.NoError(t, err)

	require.Len(t, output, 1)
	dump, ok := output["001-post.txt"]
	require.True(t, ok)
	require.Contains(t, dump, "<html>redirect</html>")
	require.Contains(t, dump, "aluno")
	require.NotContains(t, dump, "hunter2")
}
