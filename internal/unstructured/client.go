package unstructured

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/teemow/daraja-mcp/internal/httpapi"
	"github.com/teemow/daraja-mcp/internal/instrumentation"
)

// DefaultBaseURL is the Unstructured platform API root
const DefaultBaseURL = "https://platform.unstructuredapp.io/api/v1"

// apiKeyHeader carries the platform API key
const apiKeyHeader = "unstructured-api-key"

const resourceWorkflow = "workflow"

// Client wraps the Unstructured platform workflow API
type Client struct {
	baseURL    string
	settings   func() Settings
	httpClient httpapi.Doer
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for every request
func WithHTTPClient(client httpapi.Doer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient creates a client. settings is called on every request so
// missing values are reported per call.
func NewClient(baseURL string, settings func() Settings, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if settings == nil {
		settings = func() Settings { return Settings{} }
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		settings:   settings,
		httpClient: httpapi.NewHTTPClient(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSource creates an S3 source connector named name
func (c *Client) CreateSource(ctx context.Context, name string) (*ConnectorInfo, error) {
	if err := requireName("connector_name", name); err != nil {
		return nil, err
	}
	s := c.settings()
	if cfgErr := httpapi.NewConfigurationError("unstructured.create_source",
		[2]string{"UNSTRUCTURED_API_KEY", s.APIKey},
		[2]string{"AWS_ACCESS_KEY_ID", s.S3.AccessKeyID},
		[2]string{"AWS_SECRET_ACCESS_KEY", s.S3.SecretAccessKey},
		[2]string{"S3_REMOTE_URL", s.S3.RemoteURL},
	); cfgErr != nil {
		return nil, cfgErr
	}

	config := map[string]any{
		"key":        s.S3.AccessKeyID,
		"secret":     s.S3.SecretAccessKey,
		"remote_url": s.S3.RemoteURL,
		"recursive":  true,
	}
	if s.S3.Endpoint != "" {
		config["endpoint_url"] = s.S3.Endpoint
	}

	var out ConnectorInfo
	err := c.do(ctx, s.APIKey, instrumentation.OperationCreateSource, http.MethodPost, "/sources/",
		createConnector{Name: name, Type: SourceTypeS3, Config: config}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDestination creates a MongoDB destination connector named name
func (c *Client) CreateDestination(ctx context.Context, name string) (*ConnectorInfo, error) {
	if err := requireName("connector_name", name); err != nil {
		return nil, err
	}
	s := c.settings()
	if cfgErr := httpapi.NewConfigurationError("unstructured.create_destination",
		[2]string{"UNSTRUCTURED_API_KEY", s.APIKey},
		[2]string{"MONGODB_URI", s.Mongo.URI},
		[2]string{"DATABASE_NAME", s.Mongo.Database},
		[2]string{"COLLECTION_NAME", s.Mongo.Collection},
	); cfgErr != nil {
		return nil, cfgErr
	}

	var out ConnectorInfo
	err := c.do(ctx, s.APIKey, instrumentation.OperationCreateDestination, http.MethodPost, "/destinations/",
		createConnector{
			Name: name,
			Type: DestinationTypeMongoDB,
			Config: map[string]any{
				"database":   s.Mongo.Database,
				"collection": s.Mongo.Collection,
				"uri":        s.Mongo.URI,
			},
		}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateWorkflow creates a custom partition + NER workflow from sourceID to
// destinationID
func (c *Client) CreateWorkflow(ctx context.Context, name, sourceID, destinationID string) (*WorkflowInfo, error) {
	for _, f := range [][2]string{{"workflow_name", name}, {"source_id", sourceID}, {"destination_id", destinationID}} {
		if err := requireName(f[0], f[1]); err != nil {
			return nil, err
		}
	}
	apiKey, err := c.apiKey("unstructured.create_workflow")
	if err != nil {
		return nil, err
	}

	var out WorkflowInfo
	err = c.do(ctx, apiKey, instrumentation.OperationCreateWorkflow, http.MethodPost, "/workflows/",
		createWorkflow{
			Name:          name,
			SourceID:      sourceID,
			DestinationID: destinationID,
			WorkflowType:  WorkflowTypeCustom,
			WorkflowNodes: DefaultWorkflowNodes(),
		}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RunWorkflow starts a workflow run and returns the raw response body
func (c *Client) RunWorkflow(ctx context.Context, workflowID string) (string, error) {
	if err := requireName("workflow_id", workflowID); err != nil {
		return "", err
	}
	apiKey, err := c.apiKey("unstructured.run_workflow")
	if err != nil {
		return "", err
	}

	resp, err := c.send(ctx, apiKey, &httpapi.Request{
		Operation:    instrumentation.OperationRunWorkflow,
		Method:       http.MethodPost,
		URL:          c.baseURL + "/workflows/" + url.PathEscape(workflowID) + "/run",
		ResourceType: resourceWorkflow,
		ResourceID:   workflowID,
	})
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// GetWorkflow fetches a workflow by ID
func (c *Client) GetWorkflow(ctx context.Context, workflowID string) (*WorkflowInfo, error) {
	if err := requireName("workflow_id", workflowID); err != nil {
		return nil, err
	}
	apiKey, err := c.apiKey("unstructured.get_workflow")
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, apiKey, &httpapi.Request{
		Operation:    instrumentation.OperationGetWorkflow,
		Method:       http.MethodGet,
		URL:          c.baseURL + "/workflows/" + url.PathEscape(workflowID),
		ResourceType: resourceWorkflow,
		ResourceID:   workflowID,
	})
	if err != nil {
		return nil, err
	}

	var out WorkflowInfo
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) apiKey(op string) (string, error) {
	key := c.settings().APIKey
	if cfgErr := httpapi.NewConfigurationError(op, [2]string{"UNSTRUCTURED_API_KEY", key}); cfgErr != nil {
		return "", cfgErr
	}
	return key, nil
}

func (c *Client) do(ctx context.Context, apiKey, operation, method, path string, body, out any) error {
	resp, err := c.send(ctx, apiKey, &httpapi.Request{
		Operation: operation,
		Method:    method,
		URL:       c.baseURL + path,
		Body:      body,
	})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// send stamps the service name and API key onto req
func (c *Client) send(ctx context.Context, apiKey string, req *httpapi.Request) (*httpapi.Response, error) {
	req.Service = instrumentation.ServiceUnstructured
	if req.Header == nil {
		req.Header = http.Header{}
	}
	req.Header.Set(apiKeyHeader, apiKey)
	return httpapi.Send(ctx, c.httpClient, req)
}

func requireName(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &httpapi.ValidationError{Field: field, Message: "is required"}
	}
	return nil
}
