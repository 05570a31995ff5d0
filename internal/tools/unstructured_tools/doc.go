// Package unstructured_tools exposes the Unstructured platform workflow as
// MCP tools: connector and workflow management, workflow runs, and reads of
// the S3 source bucket and the analyzed document collection.
//
// get_workflow_details accepts a single workflow ID or an array. Multiple
// IDs are looked up concurrently and returned as a batch result.
package unstructured_tools
