// Package coursefiles loads scraped course descriptions from a directory
// of JSON files, one course per file. The scraper leaves *_error.txt
// markers next to files it failed on; those are skipped.
package coursefiles

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

type Source struct {
	dir string
}

func New(dir string) *Source {
	return &Source{dir: dir}
}

func (s *Source) LoadCourses(ctx context.Context) ([]domain.CourseRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read course dir %s: %w", s.dir, err)
	}

	var out []domain.CourseRecord
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, ".txt") || !strings.HasSuffix(name, ".json") {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			slog.Warn("course_file_unreadable", "file", name, "error", err)
			continue
		}
		var data map[string]any
		if err := json.Unmarshal(raw, &data); err != nil {
			slog.Warn("course_file_unparseable", "file", name, "error", err)
			continue
		}

		record := recordFromJSON(data)
		record.SourceFile = name
		out = append(out, record)
	}

	slog.Info("course_files_loaded", "dir", s.dir, "count", len(out))
	return out, nil
}

func recordFromJSON(data map[string]any) domain.CourseRecord {
	record := domain.CourseRecord{
		Code:          asString(data["Course Code"]),
		Name:          asString(data["Course Name"]),
		Credits:       asString(data["Credits"]),
		OfferedTo:     asString(data["Course Offered to"]),
		Instructor:    extractInstructor(data),
		Description:   asString(data["Course Description"]),
		Prerequisites: flattenPrerequisites(data["Prerequisites"]),
		Topics:        extractTopics(data["Weekly Lecture Plan"]),
	}
	record.CodeNormalized = domain.NormalizeCourseCode(record.Code)
	record.Text = flattenToText(record, data)
	return record
}

// flattenToText turns the course JSON into one searchable document, so
// semantic retrieval can match on outcomes and topics, not just the name.
func flattenToText(record domain.CourseRecord, data map[string]any) string {
	var lines []string
	lines = append(lines, "Course Code: "+record.Code)
	lines = append(lines, "Course Name: "+record.Name)
	if record.Credits != "" {
		lines = append(lines, "Credits: "+record.Credits)
	}
	if record.OfferedTo != "" {
		lines = append(lines, "Offered to: "+record.OfferedTo)
	}
	if record.Instructor != "" {
		lines = append(lines, "Instructor: "+record.Instructor)
	}
	if record.Description != "" {
		lines = append(lines, "Description: "+record.Description)
	}
	if record.Prerequisites != "" {
		lines = append(lines, "Prerequisites: "+record.Prerequisites)
	}
	if outcomes := flattenKeyed(data["Course Outcomes"]); len(outcomes) > 0 {
		lines = append(lines, "Course Outcomes:")
		lines = append(lines, outcomes...)
	}
	if len(record.Topics) > 0 {
		lines = append(lines, "Topics Covered: "+strings.Join(record.Topics, "; "))
	}
	if assessment := flattenKeyed(data["Assessment Plan"]); len(assessment) > 0 {
		lines = append(lines, "Assessment Plan:")
		lines = append(lines, assessment...)
	}
	if resources := flattenKeyed(data["Resource Material"]); len(resources) > 0 {
		lines = append(lines, "Resource Material:")
		lines = append(lines, resources...)
	}
	return strings.Join(lines, "\n")
}

func extractInstructor(data map[string]any) string {
	for _, key := range []string{"Instructor", "Instructors", "Faculty", "Professor", "Taught By"} {
		if value, ok := data[key]; ok {
			if s := asString(value); s != "" {
				return s
			}
		}
	}
	return ""
}

func flattenPrerequisites(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		var parts []string
		if mandatory := asString(v["Mandatory"]); mandatory != "" {
			parts = append(parts, "Mandatory: "+mandatory)
		}
		if desirable := asString(v["Desirable"]); desirable != "" {
			parts = append(parts, "Desirable: "+desirable)
		}
		return strings.Join(parts, "; ")
	default:
		return asString(value)
	}
}

func extractTopics(value any) []string {
	weeks, ok := value.([]any)
	if !ok {
		return nil
	}
	var topics []string
	for _, week := range weeks {
		entry, ok := week.(map[string]any)
		if !ok {
			continue
		}
		topic := asString(entry["Lecture Topic"])
		if topic == "" {
			topic = asString(entry["Topic"])
		}
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}

func flattenKeyed(value any) []string {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var lines []string
		for _, key := range keys {
			if item := asString(v[key]); item != "" {
				lines = append(lines, "  - "+key+": "+item)
			}
		}
		return lines
	case []any:
		var lines []string
		for _, item := range v {
			if s := asString(item); s != "" {
				lines = append(lines, "  - "+s)
			}
		}
		return lines
	default:
		return nil
	}
}

// asString coerces the loosely-typed scraper output: values arrive as
// strings, numbers, or single-element lists depending on the source page.
func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []any:
		var parts []string
		for _, item := range v {
			if s := asString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var parts []string
		for _, key := range keys {
			if s := asString(v[key]); s != "" {
				parts = append(parts, key+": "+s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
