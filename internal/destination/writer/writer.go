// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mia-platform/ingest/internal/destination"
	"github.com/mia-platform/ingest/internal/resource"
)

var _ destination.Writer = &writerDestination{}

type writerDestination struct {
	writer io.Writer

	lock sync.Mutex
}

func NewDestination(w io.Writer) destination.Writer {
	return &writerDestination{
		writer: w,
	}
}

func (d *writerDestination) Rebuild(_ context.Context, index string) error {
	builder := new(strings.Builder)
	builder.WriteString("Rebuild index:\n")
	builder.WriteString("\tIndex: " + index + "\n")
	builder.WriteString("\n")

	d.lock.Lock()
	defer d.lock.Unlock()
	fmt.Fprint(d.writer, builder.String())
	return nil
}

func (d *writerDestination) BulkUpsert(_ context.Context, index string, resources []resource.Resource) error {
	if err := destination.CheckIDs(resources); err != nil {
		return err
	}

	builder := new(strings.Builder)
	for _, res := range resources {
		builder.WriteString("Upsert document:\n")
		builder.WriteString("\tIndex: " + index + "\n")
		builder.WriteString("\tIdentifier: " + res.ID + "\n")
		builder.WriteString("\tDocument: ")

		encoder := json.NewEncoder(builder)
		encoder.SetIndent("\t", "\t")
		if err := encoder.Encode(res); err != nil {
			return err
		}
		builder.WriteString("\n")
	}

	d.lock.Lock()
	defer d.lock.Unlock()
	fmt.Fprint(d.writer, builder.String())
	return nil
}
