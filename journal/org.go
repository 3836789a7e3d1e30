package journal

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

var runOrgFuncs = template.FuncMap{
	"join": strings.Join,
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"reason": func(s string) string {
		if s == "" {
			return "-"
		}
		return strings.ReplaceAll(s, "|", "/")
	},
}

type runOrgView struct {
	RunRecord
	Log []Entry
}

// FormatRunOrg renders a run and its trade log as an Org-mode block.
func FormatRunOrg(run RunRecord, entries []Entry) (string, error) {
	t, err := template.New("run").Funcs(runOrgFuncs).Parse(runOrgTemplate)
	if err != nil {
		return "", fmt.Errorf("parse org template: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := t.Execute(buf, runOrgView{RunRecord: run, Log: entries}); err != nil {
		return "", fmt.Errorf("render org: %w", err)
	}
	return buf.String(), nil
}

const runOrgTemplate = `* SIMULATION: {{join .Instruments ", "}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:DAYS:        {{.Days}}
:LOOKAHEAD:   {{.Lookahead}}
:THRESHOLD:   {{printf "%.4f" .Threshold}}
:START_BAL:   {{printf "%.2f" .InitialBalance}}
:END_BAL:     {{printf "%.2f" .FinalBalance}}
:PROFIT:      {{printf "%.2f" .Profit}}
:ENTRIES:     {{.Entries}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Trade Log
| Day | Instrument | Action | Price | Balance | Reason |
|-----+------------+--------+-------+---------+--------|
{{- range .Log }}
| {{.Day}} | {{.Instrument}} | {{.Action}} | {{printf "%.2f" .Price}} | {{printf "%.2f" .Balance}} | {{reason .Reason}} |
{{- end }}
`
