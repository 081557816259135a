package sei

import (
	"encoding/json"
	"time"
)

// SessionValidity is how long the portal keeps an idle session alive, measured empirically.
const SessionValidity = 40 * time.Minute

// SessionToken is the JSESSIONID issued by the portal after a successful login.
type SessionToken struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expected validity at `now`.
func (t SessionToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// LoginState is the step the login handshake reached.
type LoginState int

const (
	StateUnauthenticated LoginState = iota
	StateAwaitingHandshake
	StateAuthenticated
	StateRejected
)

func (s LoginState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAwaitingHandshake:
		return "awaiting-handshake"
	case StateAuthenticated:
		return "authenticated"
	case StateRejected:
		return "rejected"
	}
	return "unknown"
}

// LoginResult is the outcome of a login attempt. Login never fails with an error, the cause of an
// unsuccessful attempt is kept in Err so it can be inspected with errors.Is.
type LoginResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
	Error     string    `json:"error,omitempty"`

	State LoginState `json:"-"`
	Err   error      `json:"-"`
}

// MarshalJSON encodes ExpiresAt as milliseconds since the unix epoch.
func (r LoginResult) MarshalJSON() ([]byte, error) {
	type plain LoginResult
	var expiresAt int64
	if !r.ExpiresAt.IsZero() {
		expiresAt = r.ExpiresAt.UnixMilli()
	}
	return json.Marshal(struct {
		plain
		ExpiresAt int64 `json:"expiresAt,omitempty"`
	}{plain(r), expiresAt})
}

// Session returns the session token of a successful login.
func (r LoginResult) Session() (SessionToken, bool) {
	if !r.Success {
		return SessionToken{}, false
	}
	return SessionToken{Value: r.Token, ExpiresAt: r.ExpiresAt}, true
}

// Weekday is one of the six days the schedule page has a column for.
type Weekday string

const (
	Segunda Weekday = "Segunda"
	Terca   Weekday = "Terça"
	Quarta  Weekday = "Quarta"
	Quinta  Weekday = "Quinta"
	Sexta   Weekday = "Sexta"
	Sabado  Weekday = "Sábado"
)

// Weekdays lists the schedule columns from left to right.
var Weekdays = [...]Weekday{Segunda, Terca, Quarta, Quinta, Sexta, Sabado}

// ClassPeriod is a single class in a time slot of the weekly schedule.
type ClassPeriod struct {
	Start      string `json:"horaInicio"`
	End        string `json:"horaFim"`
	Code       string `json:"codigo,omitempty"`
	Name       string `json:"nome"`
	Section    string `json:"turma,omitempty"`
	Instructor string `json:"professor,omitempty"`
	Room       string `json:"sala,omitempty"`
}

// Schedule maps every weekday to its classes in chronological order. All six weekdays are always
// present.
type Schedule map[Weekday][]ClassPeriod

// NewSchedule creates a Schedule with an empty list for every weekday.
func NewSchedule() Schedule {
	s := make(Schedule, len(Weekdays))
	for _, day := range Weekdays {
		s[day] = []ClassPeriod{}
	}
	return s
}

// Course is a course the student is enrolled in during the current period.
type Course struct {
	Code             string   `json:"codigo"`
	Name             string   `json:"nomeDaMateria"`
	Instructors      []string `json:"professor"`
	PeriodStart      string   `json:"periodoEstudoInicio"`
	PeriodEnd        string   `json:"periodoEstudoFim"`
	PracticalSection string   `json:"turmaPratica"`
	TheorySection    string   `json:"turmaTeorica"`
	Attendance       float64  `json:"frequencia"`
	Status           string   `json:"status"`
}

const (
	Av1 = "av1"
	Av2 = "av2"
	Av3 = "av3"
)

// evaluations are the keys of Grade.Notas in the order the portal renders them.
var evaluations = [...]string{Av1, Av2, Av3}

// Grade is a row of the grades report. Notas only holds the evaluations the portal rendered.
type Grade struct {
	Section      string         `json:"turma"`
	Code         string         `json:"codigo"`
	Name         string         `json:"nome"`
	Attendance   string         `json:"frequencia"`
	Notas        map[string]int `json:"notas"`
	FinalAverage string         `json:"mediaFinal"`
	Status       string         `json:"situacao"`
}
