package sei

import (
	"context"
	"regexp"
	"seiassist-backend/internal/components/assert"
	"seiassist-backend/lib/htmlutil"
	"strings"

	"golang.org/x/net/html"
)

const scheduleTableSelector = "td[id*='horarioAulaTurnoSemana']"

var scheduleCodeRegex = regexp.MustCompile(`Disciplina: (.+?)` + separator + `(.+)`)

// Schedule fetches the weekly class schedule of the student.
func (c *Client) Schedule(ctx context.Context, token string) (schedule Schedule, err error) {
	defer opSchedule.recover(c, &err)

	page, err := c.fetchPage(ctx, token, pathSchedule)
	if err != nil {
		return nil, opSchedule.wrap(err)
	}
	schedule, err = ParseSchedule(c.query, page.Root)
	if err != nil {
		return nil, opSchedule.wrap(err)
	}
	c.tel.ReportCount(report_client_schedule, int64(schedule.Len()))
	return schedule, nil
}

// Len returns the amount of classes in the schedule.
func (s Schedule) Len() int {
	total := 0
	for _, periods := range s {
		total += len(periods)
	}
	return total
}

// ParseSchedule reads the schedule table of the schedule page. Rows of the table are time slots
// and its columns are the weekdays from monday to saturday.
func ParseSchedule(q htmlutil.Query, doc *html.Node) (Schedule, error) {
	assert.NotNil(q)

	table := q.FindFirst(doc, scheduleTableSelector)
	if table == nil {
		// the table is only left out when the session is not valid anymore
		return nil, ErrInvalidCredentials
	}

	schedule := NewSchedule()
	for _, row := range q.FindAll(table, "tr") {
		for col, cell := range q.FindAll(row, "td") {
			if col >= len(Weekdays) {
				break
			}
			lines := cellLines(q, cell)
			if len(lines) == 0 {
				continue
			}
			day := Weekdays[col]
			schedule[day] = append(schedule[day], parseClassPeriod(lines))
		}
	}
	return schedule, nil
}

func cellLines(q htmlutil.Query, cell *html.Node) []string {
	var lines []string
	for _, span := range q.FindAll(cell, "span") {
		text := q.TextOf(span)
		if text == "" {
			continue
		}
		lines = append(lines, text)
	}
	return lines
}

// afterColon returns the trimmed text following the first colon of a "label: value" line.
func afterColon(line string) string {
	_, value, found := strings.Cut(line, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(value)
}

// parseClassPeriod parses the lines of a non-empty schedule cell.
//
// 0: "<start> à <end>"
// 1: "Disciplina: <code> <name>", or just the name when the cell has exactly two lines
// 2: "Turma: <section>"
// 3: "Professor: <instructor>"
// 4: "Sala: <room>"
func parseClassPeriod(lines []string) ClassPeriod {
	assert.Index(0, len(lines))

	var period ClassPeriod

	start, end, _ := strings.Cut(lines[0], "à")
	period.Start = strings.TrimSpace(start)
	period.End = strings.TrimSpace(end)

	if len(lines) < 2 {
		return period
	}
	if len(lines) == 2 {
		period.Name = lines[1]
		return period
	}

	match := scheduleCodeRegex.FindStringSubmatch(lines[1])
	if match != nil {
		period.Code = match[1]
		period.Name = match[2]
	}
	period.Section = afterColon(lines[2])
	if len(lines) > 3 {
		period.Instructor = afterColon(lines[3])
	}
	if len(lines) > 4 {
		period.Room = afterColon(lines[4])
	}
	return period
}
