package converter

import (
	"context"
	"errors"
	"sort"

	"github.com/ginjaninja78/dian-siigo-converter/internal/header"
	"github.com/ginjaninja78/dian-siigo-converter/internal/ledger"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
)

// Inspection describes how a file would be read, without generating
// entries.
type Inspection struct {
	Source string `json:"source"`

	// HeaderRow is the 1-based row the header was found on.
	HeaderRow int      `json:"header_row"`
	Headers   []string `json:"headers"`

	// Roles lists the resolved roles in a stable order.
	Roles []RoleColumn `json:"roles"`

	DataRows int `json:"data_rows"`
	Invoices int `json:"invoices"`
	Dropped  int `json:"dropped"`

	// Kind is what auto-detection would choose.
	Kind       types.Kind `json:"kind"`
	KindReason string     `json:"kind_reason"`

	Warnings []types.Warning `json:"warnings,omitempty"`

	// Problem is the column- or result-level error that would stop a
	// conversion. Empty when the file converts.
	Problem string `json:"problem,omitempty"`
}

// RoleColumn pairs a role with the column it was mapped to.
type RoleColumn struct {
	Role   header.Role `json:"role"`
	Column string      `json:"column"`
	Index  int         `json:"index"`
}

// Inspect loads the request input and reports the header, role map and
// warnings. Missing-column and empty-result problems are reported in
// Inspection.Problem; unreadable files still return an error.
func (c *Converter) Inspect(ctx context.Context, req Request) (*Inspection, error) {
	table, err := c.load(ctx, req)
	if table == nil {
		return nil, err
	}
	if err != nil && !errors.Is(err, types.ErrMissingColumn) && !errors.Is(err, types.ErrEmptyResult) {
		return nil, err
	}

	in := &Inspection{
		Source:    req.name(),
		HeaderRow: table.HeaderRow + 1,
		Headers:   table.Headers,
		DataRows:  table.DataRows,
		Invoices:  len(table.Records),
		Dropped:   table.Dropped,
		Warnings:  table.Warnings,
	}
	if err != nil {
		in.Problem = err.Error()
	}

	for role, col := range table.Roles {
		in.Roles = append(in.Roles, RoleColumn{Role: role, Column: col.Name, Index: col.Index})
	}
	sort.Slice(in.Roles, func(i, j int) bool {
		if in.Roles[i].Index != in.Roles[j].Index {
			return in.Roles[i].Index < in.Roles[j].Index
		}
		return in.Roles[i].Role < in.Roles[j].Role
	})

	in.Kind, in.KindReason = ledger.DetectKind(in.Source, table.Roles)
	return in, nil
}
