package sei

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"seiassist-backend/lib/htmlutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/net/html"
)

const (
	MessageLoginSuccess = "Login realizado com sucesso"
	MessageLoginFailed  = "Usuário ou senha inválidos"
	MessagePortalFailed = "Falha ao se comunicar com o portal"
)

// fields of the JSF login form, the button fields make the server believe the login button was clicked
const (
	fieldViewState     = "javax.faces.ViewState"
	loginFormId        = "formLogin"
	loginButtonId      = "formLogin:botaoLogin"
	loginUsernameField = "formLogin:username"
	loginPasswordField = "formLogin:senha"
)

var jsessionInPath = regexp.MustCompile(`;jsessionid=[^?]+`)

type loginForm struct {
	Action    string
	ViewState string
}

// parseLoginForm reads the view state the login submission has to carry. The view state is bound
// to the page that emitted it, so it is read from the freshly fetched login page every time.
func parseLoginForm(q htmlutil.Query, doc *html.Node) (loginForm, error) {
	input := q.FindFirst(doc, fmt.Sprintf("input[name='%s']", fieldViewState))
	viewState := q.Attr(input, "value")
	if viewState == "" {
		return loginForm{}, ErrMissingViewState
	}

	action := pathLogin
	form := q.FindFirst(doc, fmt.Sprintf("form[id='%s']", loginFormId))
	if a := q.Attr(form, "action"); a != "" {
		action = jsessionInPath.ReplaceAllString(a, "")
	}

	return loginForm{Action: action, ViewState: viewState}, nil
}

func loginPayload(username, password, viewState string) url.Values {
	return url.Values{
		"javax.faces.partial.ajax":    {"true"},
		"javax.faces.source":          {loginButtonId},
		"javax.faces.partial.execute": {"@all"},
		"javax.faces.partial.render":  {loginFormId},
		loginButtonId:                 {loginButtonId},
		loginFormId:                   {loginFormId},
		loginUsernameField:            {username},
		loginPasswordField:            {password},
		fieldViewState:                {viewState},
	}
}

// resolveAction makes a form action absolute relative to the page it was found on.
func resolveAction(res *resty.Response, action string) (string, error) {
	ref, err := url.Parse(action)
	if err != nil {
		return "", err
	}
	if res.RawResponse == nil || res.RawResponse.Request == nil {
		return ref.String(), nil
	}
	return res.RawResponse.Request.URL.ResolveReference(ref).String(), nil
}

// Login performs the handshake with the portal and returns the session token on success.
//
// It never returns an error: a rejected username/password pair gives a result wrapping
// ErrInvalidCredentials while a portal that does not behave as expected gives a result wrapping
// ErrStructure or an HTTPStatusError.
func (c *Client) Login(ctx context.Context, username, password string) LoginResult {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	result := c.login(ctx, username, password)

	c.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("state", result.State.String())))
	span.SetAttributes(attribute.String("state", result.State.String()))
	if !result.Success {
		span.SetStatus(codes.Error, result.Error)
	}
	return result
}

func (c *Client) login(ctx context.Context, username, password string) LoginResult {
	state := StateUnauthenticated
	fail := func(message string, err error) LoginResult {
		return LoginResult{
			Success: false,
			Message: message,
			Error:   err.Error(),
			State:   state,
			Err:     err,
		}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(pathLogin)
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("login page request: %w", err))
		return fail(MessagePortalFailed, err)
	}
	if !res.IsSuccess() {
		return fail(MessagePortalFailed, HTTPStatusError{StatusCode: res.StatusCode(), Status: res.Status()})
	}

	jsessionid := sessionFromResponse(res)
	if jsessionid == "" {
		c.tel.ReportBroken(report_client_login, ErrMissingSessionCookie)
		return fail(ErrMissingSessionCookie.Error(), ErrMissingSessionCookie)
	}

	doc, err := htmlutil.ParseBytes(res.Body())
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("parse login page: %w", err))
		return fail(MessagePortalFailed, err)
	}

	state = StateAwaitingHandshake

	form, err := parseLoginForm(c.query, doc)
	if err != nil {
		c.tel.ReportBroken(report_client_login, err)
		return fail(err.Error(), err)
	}
	action, err := resolveAction(res, form.Action)
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("%w: form action %q: %v", ErrStructure, form.Action, err))
		return fail(MessagePortalFailed, err)
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetHeader("Cookie", sessionCookieHeader(jsessionid)).
		SetHeader("Referer", c.url(pathLogin)).
		SetHeader("Faces-Request", "partial/ajax").
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetHeader("Accept", "application/xml, text/xml, */*; q=0.01").
		SetFormDataFromValues(loginPayload(username, password, form.ViewState)).
		Post(action)
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("login request: %w", err))
		return fail(MessagePortalFailed, err)
	}
	if !res.IsSuccess() {
		return fail(MessagePortalFailed, HTTPStatusError{StatusCode: res.StatusCode(), Status: res.Status()})
	}

	if !bytes.Contains(res.Body(), []byte(redirectMarker)) {
		state = StateRejected
		c.tel.ReportWarning(report_client_login, "credentials rejected")
		return fail(MessageLoginFailed, ErrInvalidCredentials)
	}

	// the portal may rotate the session id once the user is authenticated
	if rotated := sessionFromResponse(res); rotated != "" {
		jsessionid = rotated
	}

	state = StateAuthenticated
	return LoginResult{
		Success:   true,
		Message:   MessageLoginSuccess,
		Token:     jsessionid,
		ExpiresAt: c.time.Now().Add(SessionValidity),
		State:     state,
	}
}
