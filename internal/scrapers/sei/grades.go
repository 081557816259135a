package sei

import (
	"context"
	"fmt"
	"regexp"
	"seiassist-backend/internal/components/assert"
	"seiassist-backend/lib/htmlutil"

	"golang.org/x/net/html"
)

const (
	gradeColSection = iota
	gradeColCourse
	gradeColAttendance
	gradeColEvaluations
	gradeColFinalAverage
	gradeColStatus
)

var gradeCourseRegex = regexp.MustCompile(`(.+?)` + separator + `(.+)`)

// Grades fetches the grades report of the student.
func (c *Client) Grades(ctx context.Context, token string) (grades []Grade, err error) {
	defer opGrades.recover(c, &err)

	page, err := c.fetchPage(ctx, token, pathGrades)
	if err != nil {
		return nil, opGrades.wrap(err)
	}
	grades, err = ParseGrades(c.query, page.Root)
	if err != nil {
		c.tel.ReportBroken(report_client_grades, err)
		return nil, opGrades.wrap(err)
	}
	c.tel.ReportCount(report_client_grades, int64(len(grades)))
	return grades, nil
}

// ParseGrades reads the rows of the grades table, which is the second tbody of the page.
func ParseGrades(q htmlutil.Query, doc *html.Node) ([]Grade, error) {
	assert.NotNil(q)

	bodies := q.FindAll(doc, "tbody")
	if len(bodies) < 2 {
		return nil, ErrMissingTable
	}

	rows := q.FindAll(bodies[1], "tr")
	grades := make([]Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, parseGrade(q, row))
	}
	return grades, nil
}

func cellText(q htmlutil.Query, row *html.Node, col int) string {
	return q.TextOf(q.FindFirst(row, fmt.Sprintf("td:nth-child(%d) > span", col+1)))
}

func parseGrade(q htmlutil.Query, row *html.Node) Grade {
	grade := Grade{
		Section:      cellText(q, row, gradeColSection),
		Attendance:   cellText(q, row, gradeColAttendance),
		Notas:        parseNotas(q, row),
		FinalAverage: cellText(q, row, gradeColFinalAverage),
		Status:       cellText(q, row, gradeColStatus),
	}
	if match := gradeCourseRegex.FindStringSubmatch(cellText(q, row, gradeColCourse)); match != nil {
		grade.Code = match[1]
		grade.Name = match[2]
	}
	return grade
}

// scoreSelector addresses the score span of the k-th evaluation block, the first span of a block is
// its label.
func scoreSelector(k int) string {
	return fmt.Sprintf("div:nth-child(%d) > span:nth-child(2)", k+1)
}

// parseNotas reads the evaluation blocks of a row, blocks the portal did not render or left empty
// are left out of the result.
func parseNotas(q htmlutil.Query, row *html.Node) map[string]int {
	notas := map[string]int{}

	container := q.FindFirst(row, fmt.Sprintf("td:nth-child(%d) > div", gradeColEvaluations+1))
	if container == nil {
		return notas
	}

	for k, key := range evaluations {
		score := q.FindFirst(container, scoreSelector(k))
		if score == nil || score.FirstChild == nil {
			continue
		}
		notas[key] = leadingInt(q.TextOf(score))
	}
	return notas
}
