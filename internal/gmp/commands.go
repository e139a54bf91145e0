package gmp

import "encoding/xml"

type idRef struct {
	ID string `xml:"id,attr"`
}

type authenticateCommand struct {
	XMLName  xml.Name `xml:"authenticate"`
	Username string   `xml:"credentials>username"`
	Password string   `xml:"credentials>password"`
}

type getVersionCommand struct {
	XMLName xml.Name `xml:"get_version"`
}

type getScannersCommand struct {
	XMLName xml.Name `xml:"get_scanners"`
}

type getTargetsCommand struct {
	XMLName xml.Name `xml:"get_targets"`
	Filter  string   `xml:"filter,attr,omitempty"`
}

type createTargetCommand struct {
	XMLName  xml.Name `xml:"create_target"`
	Name     string   `xml:"name"`
	Hosts    string   `xml:"hosts"`
	Comment  string   `xml:"comment,omitempty"`
	PortList idRef    `xml:"port_list"`
}

type createTaskCommand struct {
	XMLName xml.Name `xml:"create_task"`
	Name    string   `xml:"name"`
	Comment string   `xml:"comment,omitempty"`
	Config  idRef    `xml:"config"`
	Target  idRef    `xml:"target"`
	Scanner idRef    `xml:"scanner"`
}

type startTaskCommand struct {
	XMLName xml.Name `xml:"start_task"`
	TaskID  string   `xml:"task_id,attr"`
}

type stopTaskCommand struct {
	XMLName xml.Name `xml:"stop_task"`
	TaskID  string   `xml:"task_id,attr"`
}

type getTasksCommand struct {
	XMLName xml.Name `xml:"get_tasks"`
	TaskID  string   `xml:"task_id,attr"`
	Details string   `xml:"details,attr,omitempty"`
}

type getReportsCommand struct {
	XMLName          xml.Name `xml:"get_reports"`
	ReportID         string   `xml:"report_id,attr"`
	FormatID         string   `xml:"format_id,attr,omitempty"`
	Filter           string   `xml:"filter,attr,omitempty"`
	Details          string   `xml:"details,attr,omitempty"`
	IgnorePagination string   `xml:"ignore_pagination,attr,omitempty"`
}

type getReportFormatsCommand struct {
	XMLName xml.Name `xml:"get_report_formats"`
}

// TargetSpec describes a target to register on the engine.
type TargetSpec struct {
	Name       string
	Hosts      []string
	Comment    string
	PortListID string
}

// TaskSpec describes a scan task to register on the engine.
type TaskSpec struct {
	Name         string
	Comment      string
	ScanConfigID string
	TargetID     string
	ScannerID    string
}

// ReportQuery selects a report and how the engine should render it.
type ReportQuery struct {
	ReportID         string
	FormatID         string
	Filter           string
	Details          bool
	IgnorePagination bool
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return ""
}
