package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"seiassist-backend/internal/components/telemetry"
	"seiassist-backend/internal/scrapers/sei"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const validToken = "A1B2C3D4E5"

type fakePortal struct {
	tokens []string
}

func (p *fakePortal) check(token string, wrap string) error {
	p.tokens = append(p.tokens, token)
	if token != validToken {
		return fmt.Errorf("Erro ao buscar %s: %w", wrap, sei.ErrInvalidCredentials)
	}
	return nil
}

func (p *fakePortal) Login(ctx context.Context, username, password string) sei.LoginResult {
	switch {
	case username == "aluno" && password == "senha":
		return sei.LoginResult{Success: true, Message: sei.MessageLoginSuccess, Token: validToken}
	case username == "offline":
		err := sei.HTTPStatusError{StatusCode: 503, Status: "503 Service Unavailable"}
		return sei.LoginResult{Message: sei.MessagePortalFailed, Error: err.Error(), Err: err}
	}
	return sei.LoginResult{
		Message: sei.MessageLoginFailed,
		Error:   sei.ErrInvalidCredentials.Error(),
		Err:     sei.ErrInvalidCredentials,
	}
}

func (p *fakePortal) Schedule(ctx context.Context, token string) (sei.Schedule, error) {
	if err := p.check(token, "o cronograma"); err != nil {
		return nil, err
	}
	schedule := sei.NewSchedule()
	schedule[sei.Segunda] = append(schedule[sei.Segunda], sei.ClassPeriod{Start: "19:00", End: "19:50", Name: "Estágio"})
	return schedule, nil
}

func (p *fakePortal) Courses(ctx context.Context, token string) ([]sei.Course, error) {
	if err := p.check(token, "as matérias"); err != nil {
		return nil, err
	}
	return []sei.Course{{Code: "4021 - ECV0012", Name: "Cálculo", Instructors: []string{"Maria"}}}, nil
}

func (p *fakePortal) Grades(ctx context.Context, token string) ([]sei.Grade, error) {
	if token == "broken" {
		return nil, fmt.Errorf("Erro ao buscar as notas: %w", sei.ErrMissingTable)
	}
	if err := p.check(token, "as notas"); err != nil {
		return nil, err
	}
	return []sei.Grade{{Code: "ECV0012", Notas: map[string]int{sei.Av1: 8}}}, nil
}

func newTestRouter(t testing.TB) (*gin.Engine, *fakePortal, *telemetry.Recorder) {
	gin.SetMode(gin.TestMode)
	portal := &fakePortal{}
	rec := &telemetry.Recorder{}
	return NewRouter(portal, Options{Tel: rec}), portal, rec
}

func do(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func decode[T any](t testing.TB, res *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	return out
}

func TestPing(t *testing.T) {
	router, _, _ := newTestRouter(t)
	res := do(router, http.MethodGet, "/ping", "", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "pong", decode[map[string]string](t, res)["message"])
}

func TestLogin(t *testing.T) {
	router, _, rec := newTestRouter(t)

	testCases := []struct {
		name   string
		body   string
		status int
	}{
		{name: "accepted", body: `{"username":"aluno","password":"senha"}`, status: http.StatusOK},
		{name: "rejected", body: `{"username":"aluno","password":"errada"}`, status: http.StatusUnauthorized},
		{name: "portal offline", body: `{"username":"offline","password":"x"}`, status: http.StatusBadGateway},
		{name: "missing password", body: `{"username":"aluno"}`, status: http.StatusBadRequest},
		{name: "invalid json", body: `{`, status: http.StatusBadRequest},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			res := do(router, http.MethodPost, "/login", "", test.body)
			require.Equal(t, test.status, res.Code, res.Body.String())
		})
	}

	res := do(router, http.MethodPost, "/login", "", `{"username":"aluno","password":"senha"}`)
	body := decode[map[string]any](t, res)
	require.Equal(t, true, body["success"])
	require.Equal(t, validToken, body["token"])

	res = do(router, http.MethodPost, "/login", "", `{"username":"aluno","password":"errada"}`)
	body = decode[map[string]any](t, res)
	require.Equal(t, false, body["success"])
	require.Regexp(t, "(?i)invalid", body["error"])

	require.Len(t, rec.Reports("warning"), 1)
}

func TestPagesRequireToken(t *testing.T) {
	router, portal, _ := newTestRouter(t)

	for _, path := range []string{"/cronograma", "/materias", "/notas"} {
		res := do(router, http.MethodGet, path, "", "")
		require.Equal(t, http.StatusUnauthorized, res.Code)

		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Basic "+validToken)
		basic := httptest.NewRecorder()
		router.ServeHTTP(basic, req)
		require.Equal(t, http.StatusUnauthorized, basic.Code)
	}
	require.Empty(t, portal.tokens)
}

func TestPages(t *testing.T) {
	router, portal, _ := newTestRouter(t)

	res := do(router, http.MethodGet, "/cronograma", validToken, "")
	require.Equal(t, http.StatusOK, res.Code)
	schedule := decode[map[string][]sei.ClassPeriod](t, res)
	require.Len(t, schedule, 6)
	require.Equal(t, "Estágio", schedule["Segunda"][0].Name)

	res = do(router, http.MethodGet, "/materias", validToken, "")
	require.Equal(t, http.StatusOK, res.Code)
	courses := decode[[]sei.Course](t, res)
	if diff := cmp.Diff([]sei.Course{{Code: "4021 - ECV0012", Name: "Cálculo", Instructors: []string{"Maria"}}}, courses); diff != "" {
		t.Fatal(diff)
	}

	res = do(router, http.MethodGet, "/notas", validToken, "")
	require.Equal(t, http.StatusOK, res.Code)
	grades := decode[[]sei.Grade](t, res)
	require.Equal(t, map[string]int{sei.Av1: 8}, grades[0].Notas)

	require.Equal(t, []string{validToken, validToken, validToken}, portal.tokens)
}

func TestPagesErrors(t *testing.T) {
	router, _, rec := newTestRouter(t)

	res := do(router, http.MethodGet, "/materias", "expired", "")
	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Equal(t, "Erro ao buscar as matérias: Credenciais invalidas!", decode[map[string]string](t, res)["error"])
	require.Empty(t, rec.Reports("warning"))

	res = do(router, http.MethodGet, "/notas", "broken", "")
	require.Equal(t, http.StatusBadGateway, res.Code)
	require.Contains(t, decode[map[string]string](t, res)["error"], "Erro ao buscar as notas: ")
	require.Len(t, rec.Reports("warning"), 1)
}

func TestCors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(&fakePortal{}, Options{
		AllowOrigins: []string{"https://app.example.com"},
		Tel:          &telemetry.Recorder{},
	})

	req := httptest.NewRequest(http.MethodOptions, "/cronograma", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusNoContent, res.Code)
	require.Equal(t, "https://app.example.com", res.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)
}
