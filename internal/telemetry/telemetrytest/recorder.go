// Package telemetrytest provides a telemetry.API that records reports so
// tests can assert on them.
package telemetrytest

import (
	"fmt"
	"purchase-automation/internal/telemetry"
	"strings"
	"sync"
)

var _ telemetry.API = (*Recorder)(nil)

type Kind int

const (
	Broken Kind = iota
	Warning
	Debug
	Count
)

type Report struct {
	Kind   Kind
	ID     string
	Params []any
	Count  int64
}

// Recorder implements telemetry.API, it is safe for concurrent use.
type Recorder struct {
	mutex   sync.Mutex
	reports []Report
}

func (r *Recorder) add(report Report) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, report)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(Report{Kind: Broken, ID: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(Report{Kind: Warning, ID: id, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add(Report{Kind: Debug, ID: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(Report{Kind: Count, ID: id, Count: count})
}

// Reports returns a copy of every report of the given kind.
func (r *Recorder) Reports(kind Kind) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	out := []Report{}
	for _, report := range r.reports {
		if report.Kind == kind {
			out = append(out, report)
		}
	}
	return out
}

// Has reports whether a report of the given kind has an id containing
// `idPart`.
func (r *Recorder) Has(kind Kind, idPart string) bool {
	for _, report := range r.Reports(kind) {
		if strings.Contains(report.ID, idPart) {
			return true
		}
	}
	return false
}

// Dump renders every report, it is meant for test failure messages.
func (r *Recorder) Dump() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var out strings.Builder
	for _, report := range r.reports {
		fmt.Fprintf(&out, "%d %s %v\n", report.Kind, report.ID, report.Params)
	}
	return out.String()
}
