package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/teemow/daraja-mcp/internal/credential"
	"github.com/teemow/daraja-mcp/internal/daraja"
	"github.com/teemow/daraja-mcp/internal/documents"
	"github.com/teemow/daraja-mcp/internal/httpapi"
	"github.com/teemow/daraja-mcp/internal/sourcebucket"
	"github.com/teemow/daraja-mcp/internal/unstructured"
)

// Environment variable names
const (
	EnvFilePath = "ENV_FILE_PATH"

	EnvConsumerKey    = "MPESA_CONSUMER_KEY"
	EnvConsumerSecret = "MPESA_CONSUMER_SECRET"
	EnvBaseURL        = "BASE_URL"

	EnvBusinessShortCode = "BUSINESS_SHORTCODE"
	EnvPasskey           = "PASSKEY"
	EnvCallbackURL       = "CALLBACK_URL"
	EnvAccountReference  = "ACCOUNT_REFERENCE"

	EnvUnstructuredAPIKey = "UNSTRUCTURED_API_KEY"
	EnvUnstructuredAPIURL = "UNSTRUCTURED_API_URL"

	EnvAWSAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvS3Endpoint         = "AWS_S3_ENDPOINT"
	EnvS3RemoteURL        = "S3_REMOTE_URL"
	EnvS3BucketName       = "S3_BUCKET_NAME"

	EnvMongoURI       = "MONGODB_URI"
	EnvDatabaseName   = "DATABASE_NAME"
	EnvCollectionName = "COLLECTION_NAME"

	EnvRenewalMargin = "DARAJA_RENEWAL_MARGIN"
	EnvRenewalFloor  = "DARAJA_RENEWAL_FLOOR"
	EnvHTTPTimeout   = "DARAJA_HTTP_TIMEOUT"
)

// Daraja holds the settings needed before the first token fetch
type Daraja struct {
	ConsumerKey    string
	ConsumerSecret string
	BaseURL        string
}

// Validate reports every missing startup setting at once
func (d Daraja) Validate() error {
	if err := httpapi.NewConfigurationError("config.daraja",
		[2]string{EnvConsumerKey, d.ConsumerKey},
		[2]string{EnvConsumerSecret, d.ConsumerSecret},
		[2]string{EnvBaseURL, d.BaseURL},
	); err != nil {
		return err
	}
	return nil
}

// Env reads settings from the process environment. Per-call settings are
// looked up every time they are needed, so a missing merchant setting only
// fails the tool call that needs it.
type Env struct {
	lookup func(string) string
}

// Load reads envFile into the process environment when it is set, falling
// back to ENV_FILE_PATH. Variables already present in the environment are
// not overridden.
func Load(envFile string) (*Env, error) {
	if envFile == "" {
		envFile = os.Getenv(EnvFilePath)
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}
	return &Env{lookup: os.Getenv}, nil
}

// NewEnv creates an Env backed by lookup, e.g. a map in tests
func NewEnv(lookup func(string) string) *Env {
	return &Env{lookup: lookup}
}

// Lookup returns the raw value of name, or "" when unset
func (e *Env) Lookup(name string) string {
	return e.lookup(name)
}

func (e *Env) get(name string) string {
	return strings.TrimSpace(e.lookup(name))
}

func (e *Env) getOr(name, def string) string {
	if v := e.get(name); v != "" {
		return v
	}
	return def
}

// Daraja returns the consumer credentials and API root
func (e *Env) Daraja() Daraja {
	return Daraja{
		ConsumerKey:    e.get(EnvConsumerKey),
		ConsumerSecret: e.get(EnvConsumerSecret),
		BaseURL:        e.get(EnvBaseURL),
	}
}

// STK returns the merchant settings for STK push
func (e *Env) STK() daraja.STKConfig {
	return daraja.STKConfig{
		BusinessShortCode: e.get(EnvBusinessShortCode),
		Passkey:           e.get(EnvPasskey),
		CallbackURL:       e.get(EnvCallbackURL),
		AccountReference:  e.get(EnvAccountReference),
	}
}

// UnstructuredURL returns the platform API root
func (e *Env) UnstructuredURL() string {
	return e.getOr(EnvUnstructuredAPIURL, unstructured.DefaultBaseURL)
}

// Unstructured returns the connector settings
func (e *Env) Unstructured() unstructured.Settings {
	return unstructured.Settings{
		APIKey: e.get(EnvUnstructuredAPIKey),
		S3: unstructured.S3Settings{
			AccessKeyID:     e.get(EnvAWSAccessKeyID),
			SecretAccessKey: e.get(EnvAWSSecretAccessKey),
			Endpoint:        e.get(EnvS3Endpoint),
			RemoteURL:       e.get(EnvS3RemoteURL),
		},
		Mongo: unstructured.MongoSettings{
			URI:        e.get(EnvMongoURI),
			Database:   e.get(EnvDatabaseName),
			Collection: e.get(EnvCollectionName),
		},
	}
}

// SourceBucket returns the settings for listing the S3 source
func (e *Env) SourceBucket() sourcebucket.Config {
	return sourcebucket.Config{
		AccessKeyID:     e.get(EnvAWSAccessKeyID),
		SecretAccessKey: e.get(EnvAWSSecretAccessKey),
		Endpoint:        e.get(EnvS3Endpoint),
		RemoteURL:       e.get(EnvS3RemoteURL),
		BucketName:      e.get(EnvS3BucketName),
	}
}

// Documents returns where analyzed documents are read from
func (e *Env) Documents() documents.Config {
	return documents.Config{
		URI:        e.get(EnvMongoURI),
		Database:   e.getOr(EnvDatabaseName, documents.DefaultDatabase),
		Collection: e.getOr(EnvCollectionName, documents.DefaultCollection),
	}
}

// Renewal returns the renewal schedule. Unset values keep the credential
// package defaults.
func (e *Env) Renewal() (credential.Config, error) {
	margin, err := e.Duration(EnvRenewalMargin, credential.DefaultMargin)
	if err != nil {
		return credential.Config{}, err
	}
	floor, err := e.Duration(EnvRenewalFloor, credential.DefaultFloor)
	if err != nil {
		return credential.Config{}, err
	}
	return credential.Config{Margin: margin, Floor: floor}, nil
}

// HTTPTimeout returns the per-request timeout for backend calls
func (e *Env) HTTPTimeout() (time.Duration, error) {
	return e.Duration(EnvHTTPTimeout, httpapi.DefaultTimeout)
}

// Duration parses name as a Go duration ("90s", "2m") or a whole number of
// seconds. Unset returns def; zero or negative values are rejected.
func (e *Env) Duration(name string, def time.Duration) (time.Duration, error) {
	raw := e.get(name)
	if raw == "" {
		return def, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		secs, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return 0, &httpapi.ValidationError{Field: name, Message: fmt.Sprintf("%q is not a duration", raw)}
		}
		d = time.Duration(secs) * time.Second
	}
	if d <= 0 {
		return 0, &httpapi.ValidationError{Field: name, Message: "must be positive"}
	}
	return d, nil
}
