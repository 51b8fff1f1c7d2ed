// Package config provides configuration models and helpers for catalog
// pipelines.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of
// issues (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"

	"catalogetl/internal/aggregate"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be
	// surfaced to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "reports[1].buckets"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Callers decide whether to treat warnings
// as fatal. Errors here are the fail-fast class: the CLI refuses to process
// a single row while any is present.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateCleaning(p)...)
	issues = append(issues, validateReports(p.Reports)...)
	issues = append(issues, validateStorage(p.Storage)...)
	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	// Unknown kinds are warnings for forward compatibility.
	switch s.Kind {
	case "file", "http":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	if s.Kind == "file" && strings.TrimSpace(s.File.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.file.path",
			Message:  "file source requires a non-empty path",
		})
	}
	if s.Kind == "http" && strings.TrimSpace(s.HTTP.URL) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.http.url",
			Message:  "http source requires a non-empty url",
		})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  "parser.kind must not be empty",
		})
		return issues
	}
	if p.Kind != "csv" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q; ensure a matching implementation exists", p.Kind),
		})
	}
	return issues
}

func validateCleaning(p Pipeline) []Issue {
	var issues []Issue
	c := p.Cleaning

	if strings.TrimSpace(c.IdentityField) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "cleaning.identity_field",
			Message:  "identity_field must not be empty",
		})
	}
	if len(c.Required) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "cleaning.required",
			Message:  "no required fields configured; incomplete rows will never be dropped",
		})
	}

	for i, r := range c.Impute {
		path := fmt.Sprintf("cleaning.impute[%d]", i)
		if strings.TrimSpace(r.Target) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".target",
				Message:  "impute rule requires a target field",
			})
		}
		switch r.Kind {
		case "associate":
			if strings.TrimSpace(r.Companion) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path + ".companion",
					Message:  "associate rule requires a companion field",
				})
			}
			switch r.Match {
			case "", "exact", "token":
			default:
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path + ".match",
					Message:  fmt.Sprintf("unknown match mode %q (want exact or token)", r.Match),
				})
			}
		case "group":
			if strings.TrimSpace(r.GroupBy) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path + ".group_by",
					Message:  "group rule requires a group_by field",
				})
			}
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".kind",
				Message:  fmt.Sprintf("unknown impute kind %q (want associate or group)", r.Kind),
			})
		}
	}

	for i, d := range c.Durations {
		if len(d.Units) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("cleaning.durations[%d].units", i),
				Message:  "duration field requires at least one unit rule",
			})
		}
	}
	return issues
}

func validateReports(specs []aggregate.Spec) []Issue {
	var issues []Issue

	if len(specs) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "reports",
			Message:  "no reports configured; the run will only clean",
		})
		return issues
	}

	seen := map[string]int{}
	for i, s := range specs {
		path := fmt.Sprintf("reports[%d]", i)
		if strings.TrimSpace(s.Name) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  "report requires a name",
			})
		} else if prev, dup := seen[s.Name]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  fmt.Sprintf("duplicate report name %q (also reports[%d])", s.Name, prev),
			})
		} else {
			seen[s.Name] = i
		}

		// Field-existence checks wait for the real batch; everything else
		// about the spec is checked statically here.
		if err := aggregate.CheckSpec(s, nil); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  err.Error(),
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		// Sink disabled.
		return issues
	}
	switch s.Kind {
	case "sqlite", "postgres", "mysql":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage requires a DSN",
		})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "storage requires a destination table",
		})
	}
	return issues
}
