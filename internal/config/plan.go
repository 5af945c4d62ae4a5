// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	IndexField = "index"
	TableField = "table"
)

var (
	// ErrParsing reports failures that occur while decoding plan files.
	ErrParsing = errors.New("error parsing")
	// ErrInvalidPlan reports a plan that decodes correctly but cannot be executed.
	ErrInvalidPlan = errors.New("invalid rebuild plan")
)

// RebuildJob asks for Index to be recreated and filled with every row of Table.
type RebuildJob struct {
	Index string `yaml:"index"`
	Table string `yaml:"table"`
}

func (j RebuildJob) String() string {
	return j.Table + " -> " + j.Index
}

// RebuildPlan is the ordered list of jobs run by a single rebuild.
type RebuildPlan struct {
	Rebuilds []RebuildJob `yaml:"rebuilds"`
}

// NewRebuildPlan returns a plan with a single job.
func NewRebuildPlan(index, table string) (*RebuildPlan, error) {
	plan := &RebuildPlan{Rebuilds: []RebuildJob{{Index: index, Table: table}}}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// NewRebuildPlanFromPath parses the file at path. Multiple YAML documents are merged into a
// single plan, keeping the order of the jobs.
func NewRebuildPlanFromPath(path string) (*RebuildPlan, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	plan := &RebuildPlan{Rebuilds: make([]RebuildJob, 0)}
	for {
		document := new(RebuildPlan)
		if err := decoder.Decode(document); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w %q: %w", ErrParsing, path, err)
		}
		plan.Rebuilds = append(plan.Rebuilds, document.Rebuilds...)
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	return plan, nil
}

// Validate reports every job missing a field and every index rebuilt more than once.
// Index names must be lowercase.
func (p *RebuildPlan) Validate() error {
	if len(p.Rebuilds) == 0 {
		return fmt.Errorf("%w: no rebuilds listed", ErrInvalidPlan)
	}

	errorsList := make([]string, 0)
	seen := make(map[string]int, len(p.Rebuilds))
	for position, job := range p.Rebuilds {
		missingFields := make([]string, 0)
		if strings.TrimSpace(job.Index) == "" {
			missingFields = append(missingFields, IndexField)
		}
		if strings.TrimSpace(job.Table) == "" {
			missingFields = append(missingFields, TableField)
		}
		if len(missingFields) > 0 {
			errorsList = append(errorsList, fmt.Sprintf("rebuild %d: missing required fields: %s", position, strings.Join(missingFields, ", ")))
			continue
		}

		if job.Index != strings.ToLower(job.Index) {
			errorsList = append(errorsList, fmt.Sprintf("rebuild %d: index %q must be lowercase", position, job.Index))
		}
		if previous, found := seen[job.Index]; found {
			errorsList = append(errorsList, fmt.Sprintf("rebuild %d: index %q already rebuilt by rebuild %d", position, job.Index, previous))
			continue
		}
		seen[job.Index] = position
	}

	if len(errorsList) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, strings.Join(errorsList, "; "))
	}
	return nil
}
