// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

// Package query builds parameterised SQL fragments for the database
// package. Placeholders are always "?"; the caller rebinds them for the
// active driver.
package query

import (
	"strings"
	"time"
)

// WhereBuilder accumulates AND-joined conditions and their arguments.
//
//	wb := query.NewWhereBuilder()
//	wb.AddClause("j.owner_id = ?", ownerID)
//	wb.AddIn("m.status", []string{"running", "stopped"})
//	where, args := wb.BuildWithPrefix()
//	// WHERE j.owner_id = ? AND m.status IN (?, ?)
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// AddClause adds a raw condition with its arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddIn adds "column IN (...)". An empty values slice adds nothing.
func (wb *WhereBuilder) AddIn(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	wb.clauses = append(wb.clauses, column+" IN ("+placeholders+")")
	for _, v := range values {
		wb.args = append(wb.args, v)
	}
	return wb
}

// AddTimeRange bounds column by the non-nil ends; since is inclusive and
// until exclusive.
func (wb *WhereBuilder) AddTimeRange(column string, since, until *time.Time) *WhereBuilder {
	if since != nil {
		wb.AddClause(column+" >= ?", since.UTC())
	}
	if until != nil {
		wb.AddClause(column+" < ?", until.UTC())
	}
	return wb
}

// Build returns the joined conditions, or "1=1" when there are none.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix is Build with a leading "WHERE ".
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	where, args := wb.Build()
	return "WHERE " + where, args
}

// Count returns the number of conditions.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty reports whether no condition was added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
