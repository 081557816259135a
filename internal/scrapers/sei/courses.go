package sei

import (
	"context"
	"fmt"
	"regexp"
	"seiassist-backend/internal/components/assert"
	"seiassist-backend/lib/htmlutil"
	"strings"

	"golang.org/x/net/html"
)

const (
	courseBlockSelector     = "div.w-100.p-2.border-bottom"
	courseNameSelector      = "div.col-md-12 > span.tituloCampos.fs12[title]"
	coursePracticalSelector = "span.field.control-label.tituloCampos.fs10[title='Turma Prática']"
	courseTheorySelector    = "span.field.control-label.tituloCampos.fs10[title='Turma Teórica']"
	coursePeriodSelector    = "div.col-md-5.text-left > span.field.control-label.tituloCampos.fs10"
	courseStatusSelector    = "div.col-md-3.text-right > span.field.control-label.tituloCampos.fs10.pull-right"
)

var (
	courseCodeRegex       = regexp.MustCompile(`(\d+ - .+?)` + separator + `(.+)`)
	coursePracticalRegex  = regexp.MustCompile(`T. Prática: (.+)`)
	courseTheoryRegex     = regexp.MustCompile(`T. Teórica: (.+)`)
	courseDateRegex       = regexp.MustCompile(`\d{2}/\d{2}/\d{2}`)
	courseAttendanceRegex = regexp.MustCompile(`Freq.: (.*)\(`)
)

// attendanceSelector addresses the attendance of the i-th course, which the portal renders outside
// of the course block.
func attendanceSelector(i int) string {
	return fmt.Sprintf("span[id='form:j_idt699:%d:frequencia']", i)
}

// Courses fetches the courses the student is enrolled in during the current period.
func (c *Client) Courses(ctx context.Context, token string) (courses []Course, err error) {
	defer opCourses.recover(c, &err)

	page, err := c.fetchPage(ctx, token, pathLanding)
	if err != nil {
		return nil, opCourses.wrap(err)
	}
	courses = ParseCourses(c.query, page.Root)
	c.tel.ReportCount(report_client_courses, int64(len(courses)))
	return courses, nil
}

// ParseCourses reads every course block of the landing page in document order.
func ParseCourses(q htmlutil.Query, doc *html.Node) []Course {
	assert.NotNil(q)

	blocks := q.FindAll(doc, courseBlockSelector)
	courses := make([]Course, 0, len(blocks))
	for i, block := range blocks {
		courses = append(courses, parseCourse(q, doc, block, i))
	}
	return courses
}

// submatch returns the first capture group of re in text, or "".
func submatch(re *regexp.Regexp, text string) string {
	match := re.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return match[1]
}

// parseCourse reads the course block found at index i of the page.
func parseCourse(q htmlutil.Query, doc, block *html.Node, i int) Course {
	var course Course

	name := q.FindFirst(block, courseNameSelector)
	if match := courseCodeRegex.FindStringSubmatch(q.TextOf(name)); match != nil {
		course.Code = match[1]
		course.Name = match[2]
	}
	course.Instructors = []string{}
	if title := q.Attr(name, "title"); title != "" {
		course.Instructors = strings.Split(title, ", ")
	}

	course.PracticalSection = submatch(coursePracticalRegex, q.TextOf(q.FindFirst(block, coursePracticalSelector)))
	course.TheorySection = submatch(courseTheoryRegex, q.TextOf(q.FindFirst(block, courseTheorySelector)))

	dates := courseDateRegex.FindAllString(q.TextOf(q.FindFirst(block, coursePeriodSelector)), 2)
	if len(dates) > 0 {
		course.PeriodStart = dates[0]
	}
	if len(dates) > 1 {
		course.PeriodEnd = dates[1]
	}

	attendance := q.TextOf(q.FindFirst(doc, attendanceSelector(i)))
	course.Attendance = leadingFloat(submatch(courseAttendanceRegex, attendance))

	course.Status = q.TextOf(q.FindFirst(block, courseStatusSelector))
	return course
}
