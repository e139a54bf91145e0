// Package normalize turns heterogeneous engine responses into identifiers,
// task states and report references.
//
// Extraction functions never fail on malformed input: an answer that cannot
// be found is reported as absent through the boolean result.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/gmp"
)

// Status is the canonical task state exposed to callers.
type Status string

const (
	StatusRunning Status = "Running"
	StatusStopped Status = "Stopped"
	StatusDone    Status = "Done"
	StatusError   Status = "Error"
)

// Terminal reports whether no further transitions are expected.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusStopped || s == StatusError
}

var canonicalStatus = map[string]Status{
	"Running":         StatusRunning,
	"Requested":       StatusRunning,
	"Stop Requested":  StatusStopped,
	"Stopped":         StatusStopped,
	"Pause Requested": StatusStopped,
	"Paused":          StatusStopped,
	"Done":            StatusDone,
}

// Canonical maps a raw engine status onto the canonical set. Anything
// unrecognized, including the empty string, counts as Running.
func Canonical(raw string) Status {
	if s, ok := canonicalStatus[strings.TrimSpace(raw)]; ok {
		return s
	}
	return StatusRunning
}

var idPattern = regexp.MustCompile(`id="([^"]+)"`)

// Root resolves a response to its element tree. Unlike the extraction
// functions it explains why no tree is available.
func Root(resp gmp.Response) (*etree.Element, error) {
	switch resp.Kind() {
	case gmp.KindTree:
		return resp.Root(), nil
	case gmp.KindDocument:
		doc := etree.NewDocument()
		if err := doc.ReadFromString(resp.Raw()); err != nil {
			return nil, errors.WrapEngineError(errors.CodeMalformedResponse, "", "response is not well-formed XML", err)
		}
		if doc.Root() == nil {
			return nil, errors.NewEngineError(errors.CodeMalformedResponse, "", "response document has no root element")
		}
		return doc.Root(), nil
	case gmp.KindScalar:
		code, text := resp.Code()
		return nil, errors.NewEngineError(errors.CodeEngineError, "",
			fmt.Sprintf("engine returned status %d %s", code, text)).WithContext("status", code)
	default:
		return nil, errors.NewEngineError(errors.CodeNotFound, "", "engine returned no data")
	}
}

// ID extracts the entity identifier from a creation response.
func ID(resp gmp.Response) (string, bool) {
	if resp.Kind() == gmp.KindDocument {
		if root, err := Root(resp); err == nil {
			return nonEmpty(root.SelectAttrValue("id", ""))
		}
		if m := idPattern.FindStringSubmatch(resp.Raw()); m != nil {
			return m[1], true
		}
		return "", false
	}

	root, err := Root(resp)
	if err != nil {
		return "", false
	}
	return nonEmpty(root.SelectAttrValue("id", ""))
}

// RawStatus extracts the engine's own status string for the task in resp.
func RawStatus(resp gmp.Response) (string, bool) {
	task := taskElement(resp)
	if task == nil {
		return "", false
	}
	status := task.SelectElement("status")
	if status == nil {
		return "", false
	}
	return nonEmpty(strings.TrimSpace(status.Text()))
}

// TaskStatus is the canonical status of the task in resp. Rejected or empty
// responses yield StatusError.
func TaskStatus(resp gmp.Response) Status {
	switch resp.Kind() {
	case gmp.KindScalar, gmp.KindAbsent:
		return StatusError
	}
	raw, _ := RawStatus(resp)
	return Canonical(raw)
}

// ReportID extracts the report reference of the task in resp, preferring any
// report element and falling back to the last finished report.
func ReportID(resp gmp.Response) (string, bool) {
	root, err := Root(resp)
	if err != nil {
		return "", false
	}
	if el := root.FindElement(".//report"); el != nil {
		if id, ok := nonEmpty(el.SelectAttrValue("id", "")); ok {
			return id, true
		}
	}
	if el := root.FindElement(".//last_report/report"); el != nil {
		return nonEmpty(el.SelectAttrValue("id", ""))
	}
	return "", false
}

// Children returns the direct children of the response root named tag,
// e.g. every scanner of a get_scanners reply.
func Children(resp gmp.Response, tag string) []*etree.Element {
	root, err := Root(resp)
	if err != nil {
		return nil
	}
	return root.SelectElements(tag)
}

// ChildText returns the trimmed text of el's first child named tag.
func ChildText(el *etree.Element, tag string) string {
	if el == nil {
		return ""
	}
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

func taskElement(resp gmp.Response) *etree.Element {
	root, err := Root(resp)
	if err != nil {
		return nil
	}
	if root.Tag == "task" {
		return root
	}
	return root.FindElement(".//task")
}

func nonEmpty(s string) (string, bool) {
	return s, s != ""
}
