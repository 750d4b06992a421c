// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/FedericoGabusi/smimevault/src/internal/store"
)

// renderRecords renders the store listing as a markdown table.
func renderRecords(records []*store.Record) string {
	if len(records) == 0 {
		return "No certificates in store\n"
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)

	table.Header([]string{"#", "Subject", "Emails", "Valid Until", "Fingerprint", "Key"})

	var rows [][]string
	for i, rec := range records {
		hasKey := ""
		if rec.HasPrivateKey() {
			hasKey = "yes"
		}

		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			rec.Subject,
			joinEmails(rec),
			rec.NotAfter.Format("2006-01-02"),
			rec.Fingerprint,
			hasKey,
		})
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}
