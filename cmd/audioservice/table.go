package main

import (
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/thegray/audioservice/internal/catalog"
)

// renderRecordTable formats catalog records for terminal output. Numeric
// identifier columns align right; the Kind column distinguishes originals
// from derived variants.
func renderRecordTable(records []*catalog.Record) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "User", "Phrase", "Format", "Kind", "Group", "Created", "File"})

	for _, record := range records {
		kind := "variant"
		if record.IsOriginal() {
			kind = "original"
		}
		tw.AppendRow(table.Row{
			record.ID,
			record.UserID,
			record.PhraseID,
			record.Format,
			kind,
			record.GroupID,
			record.CreatedTime().Format(time.RFC3339),
			record.FileName,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// renderStatsTable formats per-format record counts with a grand total.
func renderStatsTable(stats catalog.FormatStats) string {
	formats := make([]string, 0, len(stats))
	for format := range stats {
		formats = append(formats, format)
	}
	sort.Strings(formats)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Format", "Records"})

	total := 0
	for _, format := range formats {
		tw.AppendRow(table.Row{format, stats[format]})
		total += stats[format]
	}
	tw.AppendFooter(table.Row{"total", total})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
