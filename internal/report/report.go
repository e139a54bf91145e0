// Package report extracts vulnerability findings and rendered report
// documents from engine report responses.
package report

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/anstrom/scanbridge/internal/errors"
)

// ResultsFilter is the engine filter used when fetching findings: no
// overrides, high/medium/low levels, up to 1000 rows, QoD of at least 70.
const ResultsFilter = "apply_overrides=0 levels=hml rows=1000 min_qod=70"

// Field defaults for findings whose report entry omits them.
const (
	DefaultName = "Unknown"
	DefaultHost = "N/A"
	DefaultPort = "general"
)

// Finding is one vulnerability result from a report.
type Finding struct {
	Name        string   `json:"name"`
	Severity    float64  `json:"severity"`
	QoD         int      `json:"qod"`
	Host        string   `json:"host"`
	Port        string   `json:"port"`
	Created     string   `json:"created"`
	Description string   `json:"description"`
	ThreatLevel *string  `json:"threat_level,omitempty"`
	CVSSBase    *float64 `json:"cvss_base,omitempty"`
}

// SkippedEntry records a result entry that could not be parsed.
type SkippedEntry struct {
	Index  int
	Reason error
}

// ParseFindings parses every result entry below root. Entries are parsed
// independently; an entry with an unparseable severity or QoD is skipped
// and reported, never failing the whole report.
func ParseFindings(root *etree.Element) ([]Finding, []SkippedEntry) {
	findings := []Finding{}
	if root == nil {
		return findings, nil
	}

	var skipped []SkippedEntry
	for i, el := range root.FindElements(".//result") {
		f, err := parseFinding(el)
		if err != nil {
			skipped = append(skipped, SkippedEntry{Index: i, Reason: err})
			continue
		}
		findings = append(findings, f)
	}
	return findings, skipped
}

func parseFinding(el *etree.Element) (Finding, error) {
	f := Finding{
		Name:        textOr(el, "nvt/name", DefaultName),
		Host:        textOr(el, "host", DefaultHost),
		Port:        textOr(el, "port", DefaultPort),
		Created:     textOr(el, "creation_time", ""),
		Description: textOr(el, "description", ""),
	}

	if s, ok := text(el, "severity"); ok {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Finding{}, fmt.Errorf("invalid severity %q: %w", s, err)
		}
		f.Severity = v
	}

	if s, ok := text(el, "qod/value"); ok {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Finding{}, fmt.Errorf("invalid qod %q: %w", s, err)
		}
		f.QoD = int(v)
	}

	if threat := el.FindElement("threat"); threat != nil {
		t := strings.TrimSpace(threat.Text())
		f.ThreatLevel = &t
	}

	// cvss_base is informational; the engine writes "N/A" or nothing for
	// some NVTs.
	if s, ok := text(el, "nvt/cvss_base"); ok {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			f.CVSSBase = &v
		}
	}

	return f, nil
}

// text returns the trimmed text at path, reporting false when the element is
// missing or empty.
func text(el *etree.Element, path string) (string, bool) {
	child := el.FindElement(path)
	if child == nil {
		return "", false
	}
	s := strings.TrimSpace(child.Text())
	return s, s != ""
}

func textOr(el *etree.Element, path, fallback string) string {
	child := el.FindElement(path)
	if child == nil || child.Text() == "" {
		return fallback
	}
	return child.Text()
}

// ExtractDocument decodes the rendered report embedded in a get_reports
// response. The engine places the base64 payload after the report_format
// element inside report.
func ExtractDocument(root *etree.Element) ([]byte, error) {
	if root == nil {
		return nil, errors.NewEngineError(errors.CodeMalformedResponse, "get_reports", "no report in response")
	}

	reportEl := root
	if root.Tag != "report" {
		reportEl = root.FindElement(".//report")
	}
	if reportEl == nil {
		return nil, errors.NewEngineError(errors.CodeMalformedResponse, "get_reports", "no report in response")
	}

	payload := payloadText(reportEl)
	if payload == "" {
		return nil, errors.NewEngineError(errors.CodeEmptyReport, "get_reports",
			"report is empty or the report format is not installed")
	}

	data, err := base64.StdEncoding.DecodeString(stripWhitespace(payload))
	if err != nil {
		return nil, errors.WrapEngineError(errors.CodeDecodeFailed, "get_reports", "failed to decode report payload", err)
	}
	if len(data) == 0 {
		return nil, errors.NewEngineError(errors.CodeEmptyReport, "get_reports", "report payload decoded to nothing")
	}
	return data, nil
}

func payloadText(reportEl *etree.Element) string {
	if rf := reportEl.SelectElement("report_format"); rf != nil {
		if tail := strings.TrimSpace(rf.Tail()); tail != "" {
			return tail
		}
	}
	if content := reportEl.FindElement(".//report_format/content"); content != nil {
		if s := strings.TrimSpace(content.Text()); s != "" {
			return s
		}
	}
	return strings.TrimSpace(reportEl.Text())
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
}
