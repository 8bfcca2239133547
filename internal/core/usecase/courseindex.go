package usecase

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

// courseIndex is an immutable snapshot of the three derived lookup
// structures. Read-only during query serving; reingestion builds a fresh
// one and swaps the catalog pointer.
type courseIndex struct {
	byCode       map[string]domain.CourseRecord
	byName       map[string][]domain.CourseRecord
	byInstructor map[string][]domain.CourseRecord

	codes       []string // sorted, for deterministic wildcard scans
	names       []string // sorted, for deterministic fuzzy scans
	instructors []string // sorted
}

func buildCourseIndex(courses []domain.CourseRecord) *courseIndex {
	idx := &courseIndex{
		byCode:       make(map[string]domain.CourseRecord, len(courses)),
		byName:       make(map[string][]domain.CourseRecord),
		byInstructor: make(map[string][]domain.CourseRecord),
	}

	for _, course := range courses {
		code := course.CodeNormalized
		if code == "" {
			code = domain.NormalizeCourseCode(course.Code)
		}
		if code == "" {
			// Unparseable identifier: excluded from the index, not fatal.
			continue
		}
		course.CodeNormalized = code
		idx.byCode[code] = course

		if name := strings.ToLower(strings.TrimSpace(course.Name)); name != "" {
			idx.byName[name] = append(idx.byName[name], course)
		}
		for _, instructor := range strings.Split(course.Instructor, ",") {
			instructor = strings.ToLower(strings.TrimSpace(instructor))
			if instructor != "" {
				idx.byInstructor[instructor] = append(idx.byInstructor[instructor], course)
			}
		}
	}

	idx.codes = sortedKeys(idx.byCode)
	idx.names = sortedSliceKeys(idx.byName)
	idx.instructors = sortedSliceKeys(idx.byInstructor)
	return idx
}

func sortedKeys(m map[string]domain.CourseRecord) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedSliceKeys(m map[string][]domain.CourseRecord) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CourseCatalog serves immutable course index snapshots. Reingestion swaps
// the whole reference atomically so in-flight queries never observe a
// partially built index.
type CourseCatalog struct {
	idx atomic.Pointer[courseIndex]
}

func NewCourseCatalog(courses []domain.CourseRecord) *CourseCatalog {
	c := &CourseCatalog{}
	c.Swap(courses)
	return c
}

// Swap replaces the serving snapshot with an index built from courses.
func (c *CourseCatalog) Swap(courses []domain.CourseRecord) {
	c.idx.Store(buildCourseIndex(courses))
}

func (c *CourseCatalog) snapshot() *courseIndex {
	idx := c.idx.Load()
	if idx == nil {
		return buildCourseIndex(nil)
	}
	return idx
}

// Size reports how many courses the serving snapshot indexes by code.
func (c *CourseCatalog) Size() int {
	return len(c.snapshot().byCode)
}

// CoursesByDepartment lists every course whose normalized code starts with
// the department prefix, sorted by code.
func (c *CourseCatalog) CoursesByDepartment(dept string) []domain.CourseRecord {
	dept = domain.NormalizeCourseCode(dept)
	if dept == "" {
		return nil
	}
	idx := c.snapshot()
	out := make([]domain.CourseRecord, 0)
	for _, code := range idx.codes {
		if strings.HasPrefix(code, dept) {
			out = append(out, idx.byCode[code])
		}
	}
	return out
}

// SearchKeyword lists courses whose name or description contains the
// keyword, case-insensitive, sorted by code.
func (c *CourseCatalog) SearchKeyword(keyword string) []domain.CourseRecord {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil
	}
	idx := c.snapshot()
	out := make([]domain.CourseRecord, 0)
	for _, code := range idx.codes {
		course := idx.byCode[code]
		if strings.Contains(strings.ToLower(course.Name), keyword) ||
			strings.Contains(strings.ToLower(course.Description), keyword) {
			out = append(out, course)
		}
	}
	return out
}
