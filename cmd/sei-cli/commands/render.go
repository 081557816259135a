package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"seiassist-backend/internal/scrapers/sei"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func writeJson(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func renderLogin(w io.Writer, result sei.LoginResult) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Sucesso", "Mensagem", "Token", "Expira em"})

	expiresAt := ""
	if !result.ExpiresAt.IsZero() {
		expiresAt = result.ExpiresAt.Format(time.DateTime)
	}
	message := result.Message
	if !result.Success && result.Error != "" {
		message = fmt.Sprintf("%s (%s)", result.Message, result.Error)
	}
	t.AppendRow(table.Row{result.Success, message, result.Token, expiresAt})
	t.Render()
}

func renderSchedule(w io.Writer, schedule sei.Schedule) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Dia", "Horário", "Código", "Disciplina", "Turma", "Professor", "Sala"})
	for _, day := range sei.Weekdays {
		for _, period := range schedule[day] {
			t.AppendRow(table.Row{
				day,
				fmt.Sprintf("%s - %s", period.Start, period.End),
				period.Code,
				period.Name,
				period.Section,
				period.Instructor,
				period.Room,
			})
		}
		if len(schedule[day]) > 0 {
			t.AppendSeparator()
		}
	}
	t.Render()
}

func renderCourses(w io.Writer, courses []sei.Course) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Código", "Matéria", "Professores", "Período", "T. Prática", "T. Teórica", "Freq.", "Status"})
	for _, course := range courses {
		t.AppendRow(table.Row{
			course.Code,
			course.Name,
			strings.Join(course.Instructors, ", "),
			fmt.Sprintf("%s - %s", course.PeriodStart, course.PeriodEnd),
			course.PracticalSection,
			course.TheorySection,
			fmt.Sprintf("%.1f%%", course.Attendance),
			course.Status,
		})
	}
	t.Render()
}

func renderGrades(w io.Writer, grades []sei.Grade) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Turma", "Código", "Disciplina", "Freq.", sei.Av1, sei.Av2, sei.Av3, "Média", "Situação"})
	for _, grade := range grades {
		row := table.Row{grade.Section, grade.Code, grade.Name, grade.Attendance}
		for _, key := range []string{sei.Av1, sei.Av2, sei.Av3} {
			nota, ok := grade.Notas[key]
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, nota)
		}
		row = append(row, grade.FinalAverage, grade.Status)
		t.AppendRow(row)
	}
	t.Render()
}
