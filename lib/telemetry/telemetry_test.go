package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestSetupWithoutEndpoints(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestSetupFromEnvWithoutConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	tel, err := SetupFromEnv(context.Background(), "test:telemetry")
	require.NoError(t, err)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestHeaderAttributesSkipsSensitive(t *testing.T) {
	headers := http.Header{}
	headers.Set("Cookie", "JSESSIONID=secret")
	headers.Set("Referer", "https://sei.unirv.edu.br/")
	headers.Add("Accept", "text/html")
	headers.Add("Accept", "*/*")

	var attrs []attribute.KeyValue
	headerAttributes(&attrs, "request", headers)

	keys := map[string]string{}
	for _, a := range attrs {
		keys[string(a.Key)] = a.Value.AsString()
	}
	require.NotContains(t, keys, "request/header: Cookie")
	require.Equal(t, "https://sei.unirv.edu.br/", keys["request/header: Referer"])
	require.Equal(t, "text/html", keys["request/header: Accept (0)"])
	require.Equal(t, "*/*", keys["request/header: Accept (1)"])
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := resty.New()
	InstrumentResty(client, "test")

	res, err := client.R().Get(server.URL)
	require.NoError(t, err)
	require.Equal(t, "ok", res.String())
}
