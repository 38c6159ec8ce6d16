package ui

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/tabula/pkg/agent"
	"github.com/jmylchreest/tabula/pkg/domain"
	"github.com/jmylchreest/tabula/pkg/table"
	"github.com/jmylchreest/tabula/pkg/tabula"
)

type rowView struct {
	Cells []string
	Color string
}

type statsView struct {
	Rows     int
	Label    string
	Distinct int
}

type tableView struct {
	Domain       string
	Title        string
	Headers      []string
	Rows         []rowView
	Live         bool
	Insufficient bool
	Warnings     []string
	Legend       []table.Zone
	RawJSON      string
	Stats        *statsView
	Summary      string
	Err          string
}

type agentView struct {
	Question string
	Output   string
	Steps    []agent.Step
	RawJSON  string
	Summary  string
	Err      string
}

type modeView struct {
	Name  string
	Label string
}

type pageView struct {
	Modes      []modeView
	Mode       string
	Credential bool
	Question   string
	Tables     []tableView
	Agent      *agentView
	Err        string
}

// newTableView renders a report for display. Rows are shown in report order.
func newTableView(d *domain.Domain, rep *tabula.Report) tableView {
	cols := d.DisplayColumns()
	v := tableView{
		Domain:       d.Name,
		Title:        d.Title,
		Live:         rep.Live(),
		Insufficient: rep.Insufficient,
		Warnings:     rep.Warnings(),
		Legend:       d.Zones,
	}
	for _, c := range cols {
		v.Headers = append(v.Headers, c.Label)
	}

	rank := d.Rules.RankField
	for _, row := range rep.Rows {
		rv := rowView{Cells: make([]string, len(cols))}
		for i, c := range cols {
			rv.Cells[i] = row.String(c.Field)
		}
		if rank != "" {
			if z, ok := table.ZoneFor(d.Zones, row.Int(rank)); ok {
				rv.Color = z.Color
			}
		}
		v.Rows = append(v.Rows, rv)
	}

	if d.StatsField != "" {
		distinct := make(map[string]bool)
		for _, row := range rep.Rows {
			if s := row.String(d.StatsField); s != "" {
				distinct[s] = true
			}
		}
		label := d.StatsField
		for _, c := range cols {
			if c.Field == d.StatsField {
				label = c.Label
			}
		}
		v.Stats = &statsView{Rows: len(rep.Rows), Label: label, Distinct: len(distinct)}
	}

	v.RawJSON = rawJSON(rep.Rows)
	v.Summary = fmt.Sprintf("%d blocks, %d records, %s tokens, %s",
		rep.Blocks, rep.Records, humanize.Comma(int64(rep.Usage.Total())), rep.Duration.Round(time.Millisecond))
	return v
}

func newAgentView(ans *agent.Answer) *agentView {
	return &agentView{
		Question: ans.Question,
		Output:   ans.Output,
		Steps:    ans.Steps,
		RawJSON:  rawJSON(ans),
		Summary: fmt.Sprintf("%d steps, %s tokens, %s",
			len(ans.Steps), humanize.Comma(int64(ans.Usage.Total())), ans.Duration.Round(time.Millisecond)),
	}
}

func rawJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}
