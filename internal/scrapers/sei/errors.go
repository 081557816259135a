package sei

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned when the portal does not accept a username/password pair or a
// session token. The portal answers 200 for rejected sessions, so this is detected by the absence of
// the redirect marker in the response body.
var ErrInvalidCredentials = errors.New("Credenciais invalidas!")

// ErrStructure is wrapped by every error caused by the portal not rendering something it is
// expected to render, which usually means the portal changed.
var ErrStructure = errors.New("estrutura inesperada do portal")

var (
	ErrMissingSessionCookie = fmt.Errorf("%w: Não conseguiu achar JSESSIONID", ErrStructure)
	ErrMissingViewState     = fmt.Errorf("%w: Não conseguiu achar javax.faces.ViewState", ErrStructure)
	ErrMissingTable         = fmt.Errorf("%w: tabela não encontrada", ErrStructure)
)

// HTTPStatusError is returned when the portal answers with a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e HTTPStatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("Erro na requisição HTTP: %s", e.Status)
	}
	return fmt.Sprintf("Erro na requisição HTTP: %d", e.StatusCode)
}

// operation wraps the errors of one page-level operation with its user facing prefix.
type operation struct {
	report  string
	subject string
}

var (
	opSchedule = operation{report: report_client_schedule, subject: "o cronograma"}
	opCourses  = operation{report: report_client_courses, subject: "as matérias"}
	opGrades   = operation{report: report_client_grades, subject: "as notas"}
)

func (o operation) wrap(err error) error {
	return fmt.Errorf("Erro ao buscar %s: %w", o.subject, err)
}

// recover turns a panic raised while scraping into an error, it must be deferred directly.
func (o operation) recover(c *Client, err *error) {
	r := recover()
	if r == nil {
		return
	}
	c.tel.ReportBroken(o.report, fmt.Errorf("panic: %v", r))
	*err = fmt.Errorf("Ocorreu um erro desconhecido ao buscar %s: %v", o.subject, r)
}
