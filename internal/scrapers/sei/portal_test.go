package sei

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"seiassist-backend/internal/components/chrono"
	"seiassist-backend/internal/components/telemetry"
	"strings"
	"sync"
	"testing"
	"time"

	_ "embed"

	"github.com/stretchr/testify/require"
)

//go:embed testdata/login.html
var loginPage []byte

//go:embed testdata/schedule.html
var schedulePage []byte

//go:embed testdata/courses.html
var coursesPage []byte

//go:embed testdata/grades.html
var gradesPage []byte

const (
	testUsername  = "20251001"
	testPassword  = "hunter2"
	testViewState = "-4214357212745393826:3187094725473011563"
)

const (
	acceptedLogin = `<?xml version='1.0' encoding='UTF-8'?>
<partial-response id="j_id1"><redirect url="/visaoAluno/telaInicialVisaoAluno.xhtml"></redirect></partial-response>`
	rejectedLogin = `<?xml version='1.0' encoding='UTF-8'?>
<partial-response id="j_id1"><changes><update id="formLogin"><![CDATA[<span>Usuário ou senha inválidos</span>]]></update></changes></partial-response>`
)

// fakePortal imitates the parts of the portal the client talks to.
type fakePortal struct {
	mu sync.Mutex

	session string
	// rotated is the session id issued once the login is accepted, if any
	rotated string

	noCookie      bool
	noViewState   bool
	redirectLogin bool
	// status is written for every request when it is not 0
	status int

	requests []*http.Request
}

func newFakePortal(t testing.TB) (*fakePortal, *httptest.Server) {
	portal := &fakePortal{session: "A1B2C3D4E5"}
	server := httptest.NewServer(portal)
	t.Cleanup(server.Close)
	return portal, server
}

func (p *fakePortal) authenticated() string {
	if p.rotated != "" {
		return p.rotated
	}
	return p.session
}

func (p *fakePortal) lastRequest() *http.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return nil
	}
	return p.requests[len(p.requests)-1]
}

func (p *fakePortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r.ParseForm()
	p.requests = append(p.requests, r)

	if p.status != 0 {
		w.WriteHeader(p.status)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/":
		if !p.noCookie {
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: p.session, Path: "/"})
		}
		if p.redirectLogin {
			http.Redirect(w, r, "/login.xhtml", http.StatusFound)
			return
		}
		p.writeLoginPage(w)
	case r.Method == http.MethodGet && r.URL.Path == "/login.xhtml":
		p.writeLoginPage(w)
	case r.Method == http.MethodPost && r.URL.Path == "/index.xhtml":
		p.handleLogin(w, r)
	default:
		p.handlePage(w, r)
	}
}

func (p *fakePortal) writeLoginPage(w http.ResponseWriter) {
	page := loginPage
	if p.noViewState {
		page = bytes.ReplaceAll(page, []byte("javax.faces.ViewState"), []byte("j_idt12"))
	}
	w.Header().Set("Content-Type", "text/html;charset=UTF-8")
	w.Write(page)
}

func (p *fakePortal) handleLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/xml;charset=UTF-8")

	cookie, err := r.Cookie("JSESSIONID")
	accepted := err == nil &&
		cookie.Value == p.session &&
		r.Header.Get("Faces-Request") == "partial/ajax" &&
		r.PostForm.Get("javax.faces.ViewState") == testViewState &&
		r.PostForm.Get("formLogin:username") == testUsername &&
		r.PostForm.Get("formLogin:senha") == testPassword
	if !accepted {
		w.Write([]byte(rejectedLogin))
		return
	}
	if p.rotated != "" {
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: p.rotated, Path: "/"})
	}
	w.Write([]byte(acceptedLogin))
}

func (p *fakePortal) handlePage(w http.ResponseWriter, r *http.Request) {
	var page []byte
	switch r.URL.Path {
	case pathSchedule:
		page = schedulePage
	case pathLanding:
		page = coursesPage
	case pathGrades:
		page = gradesPage
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html;charset=UTF-8")

	// an unknown session or a missing referer sends the user back to the login page
	cookie, err := r.Cookie("JSESSIONID")
	if err != nil || cookie.Value != p.authenticated() || !strings.HasSuffix(r.Referer(), pathLanding) {
		w.Write(loginPage)
		return
	}
	w.Write(page)
}

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestClient(t testing.TB, baseUrl string) (*Client, *telemetry.Recorder) {
	rec := &telemetry.Recorder{}
	client, err := NewClient(ClientOptions{
		BaseUrl: baseUrl,
		Time:    chrono.FixedTime{At: testNow},
		Tel:     rec,
	})
	require.NoError(t, err)
	return client, rec
}
