package unstructured

import (
	"fmt"
	"strings"
	"time"
)

// Connector and workflow enums used by the platform API
const (
	SourceTypeS3           = "s3"
	DestinationTypeMongoDB = "mongodb"
	WorkflowTypeCustom     = "custom"
	NodeTypePartition      = "partition"
	NodeTypePrompter       = "prompter"
)

// S3Settings configures the S3 source connector
type S3Settings struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	RemoteURL       string
}

// MongoSettings configures the MongoDB destination connector
type MongoSettings struct {
	URI        string
	Database   string
	Collection string
}

// Settings holds everything the connectors need besides their name
type Settings struct {
	APIKey string
	S3     S3Settings
	Mongo  MongoSettings
}

// ConnectorInfo describes a created source or destination connector
type ConnectorInfo struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Config    map[string]any `json:"config,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
}

// WorkflowNode is one processing step of a custom workflow
type WorkflowNode struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Subtype  string         `json:"subtype"`
	Settings map[string]any `json:"settings,omitempty"`
}

// CronEntry is one schedule entry of a workflow
type CronEntry struct {
	CronExpression string `json:"cron_expression"`
}

// Schedule lists when a workflow runs
type Schedule struct {
	CrontabEntries []CronEntry `json:"crontab_entries"`
}

// WorkflowInfo describes a workflow
type WorkflowInfo struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Status        string         `json:"status"`
	WorkflowType  string         `json:"workflow_type,omitempty"`
	Sources       []string       `json:"sources"`
	Destinations  []string       `json:"destinations"`
	WorkflowNodes []WorkflowNode `json:"workflow_nodes,omitempty"`
	Schedule      *Schedule      `json:"schedule,omitempty"`
	CreatedAt     *time.Time     `json:"created_at,omitempty"`
}

// Crontab returns the schedule's cron expressions
func (w *WorkflowInfo) Crontab() []string {
	if w.Schedule == nil {
		return nil
	}
	out := make([]string, 0, len(w.Schedule.CrontabEntries))
	for _, e := range w.Schedule.CrontabEntries {
		out = append(out, e.CronExpression)
	}
	return out
}

// Summary renders the full workflow description returned by create_workflow
func (w *WorkflowInfo) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Workflow name: %s\n", w.Name)
	fmt.Fprintf(&b, "Workflow id: %s\n", w.ID)
	fmt.Fprintf(&b, "Workflow status: %s\n", w.Status)
	fmt.Fprintf(&b, "Workflow type: %s\n", w.WorkflowType)
	fmt.Fprintf(&b, "Source(s): %s\n", strings.Join(w.Sources, ", "))
	fmt.Fprintf(&b, "Destination(s): %s\n", strings.Join(w.Destinations, ", "))
	fmt.Fprintf(&b, "Schedule(s): %s", strings.Join(w.Crontab(), ", "))
	return b.String()
}

type createConnector struct {
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	Config map[string]any `json:"config"`
}

type createWorkflow struct {
	Name          string         `json:"name"`
	SourceID      string         `json:"source_id"`
	DestinationID string         `json:"destination_id"`
	WorkflowType  string         `json:"workflow_type"`
	WorkflowNodes []WorkflowNode `json:"workflow_nodes"`
}
