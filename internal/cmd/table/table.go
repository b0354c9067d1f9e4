// Package table converts pallets and run results into rows for table output.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/pallets"
	"github.com/agentstation/promise/pkg/run"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// Headers title-cases snake_case field names: "original_misses" becomes
// "Original Misses".
func Headers(fields ...string) []string {
	caser := cases.Title(language.English)
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = caser.String(strings.ReplaceAll(f, "_", " "))
	}
	return out
}

// SummariesToTableData renders one row per pallet. Pallets that were never
// reconciled show dashes for their counts.
func SummariesToTableData(all []*pallets.Pallet) Data {
	data := Data{
		Headers: Headers("pallet", "items", "hits", "misses", "original_misses", "attempted", "registered", "updated"),
		ColumnAlignment: []Align{
			AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignCenter, AlignLeft,
		},
	}
	for _, p := range all {
		s, err := p.Summary()
		if err != nil {
			data.Rows = append(data.Rows, []string{
				p.Name(), strconv.Itoa(p.Len()), "-", "-", "-", strconv.Itoa(p.AttemptedCount()), "-",
				p.Updated().Format(constants.TimeFormatHuman),
			})
			continue
		}
		data.Rows = append(data.Rows, []string{
			s.Name,
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Hits),
			strconv.Itoa(s.Misses),
			strconv.Itoa(s.OriginalMisses),
			strconv.Itoa(s.Attempted),
			yesNo(s.RegistrationRun),
			s.Updated.Format(constants.TimeFormatHuman),
		})
	}
	return data
}

// ItemsToTableData renders the items of one pallet.
func ItemsToTableData(items []*pallets.Item) Data {
	data := Data{
		Headers:         Headers("isbn", "presence", "origin", "registration_attempted"),
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignCenter},
	}
	for _, item := range items {
		data.Rows = append(data.Rows, []string{
			item.ISBN,
			item.Presence.String(),
			item.Origin.String(),
			yesNo(item.RegistrationAttempted),
		})
	}
	return data
}

// ResultToTableData renders one row per pallet processed by a run.
func ResultToTableData(result *run.Result) Data {
	data := Data{
		Headers: Headers("pallet", "status", "items", "hits", "misses", "original_misses", "registered", "note"),
		ColumnAlignment: []Align{
			AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignLeft,
		},
	}
	for _, pr := range result.Pallets {
		row := []string{pr.Pallet, string(pr.Status), "-", "-", "-", "-", "-", note(pr)}
		if s := pr.Summary; s != nil {
			row[2] = strconv.Itoa(s.Total)
			row[3] = strconv.Itoa(s.Hits)
			row[4] = strconv.Itoa(s.Misses)
			row[5] = strconv.Itoa(s.OriginalMisses)
		}
		if r := pr.Registration; r != nil {
			row[6] = fmt.Sprintf("%d/%d", r.Accepted, len(r.Attempted))
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

func note(pr *run.PalletResult) string {
	switch {
	case pr.Err != nil:
		return pr.Err.Error()
	case pr.Note != "":
		return pr.Note
	case pr.Export != "":
		return "exported " + pr.Export
	case pr.Created:
		return "new pallet"
	}
	return ""
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
