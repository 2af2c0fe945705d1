// Package diag collects the recoverable conditions met during one document generation.
package diag

import (
	"github.com/sirupsen/logrus"
)

// Warning codes recorded by the generation pipeline.
const (
	CodeUnmeasurable = "unmeasurable-content"
	CodeImageDecode  = "image-decode"
	CodeUnknownUnit  = "unknown-unit"
)

// Warning is a degraded-but-successful outcome worth surfacing to the caller.
type Warning struct {
	Component string `json:"component"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Report is owned by a single generation call and is not safe for concurrent use.
type Report struct {
	log      logrus.FieldLogger
	warnings []Warning
}

// NewReport returns a report that also logs every warning through log.
// A nil logger falls back to the logrus standard logger.
func NewReport(log logrus.FieldLogger) *Report {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Report{log: log}
}

// Warn records a warning and logs it at warn level with the given fields.
func (r *Report) Warn(component, code, msg string, fields logrus.Fields) {
	if r == nil {
		return
	}
	r.warnings = append(r.warnings, Warning{Component: component, Code: code, Message: msg})
	entry := r.log.WithField("component", component).WithField("code", code)
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Warn(msg)
}

// Warnings returns a copy of the recorded warnings in recording order.
func (r *Report) Warnings() []Warning {
	if r == nil {
		return nil
	}
	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Has reports whether a warning with the given code was recorded.
func (r *Report) Has(code string) bool {
	if r == nil {
		return false
	}
	for _, w := range r.warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Logger exposes the logger the report writes to.
func (r *Report) Logger() logrus.FieldLogger {
	if r == nil {
		return logrus.StandardLogger()
	}
	return r.log
}
