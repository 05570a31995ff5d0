package documents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/teemow/daraja-mcp/internal/httpapi"
	"github.com/teemow/daraja-mcp/internal/instrumentation"
)

const (
	// DefaultDatabase and DefaultCollection are where the destination
	// connector writes analyzed documents unless configured otherwise
	DefaultDatabase   = "daraja_mcp"
	DefaultCollection = "analyzed_documents"

	// DefaultLimit caps how many documents one fetch returns
	DefaultLimit = 100

	connectTimeout = 10 * time.Second
)

var (
	connectMongo = func(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
		return mongo.Connect(ctx, opts)
	}
	pingMongo = func(ctx context.Context, cli *mongo.Client) error {
		return cli.Ping(ctx, readpref.Primary())
	}
	disconnectMongo = func(ctx context.Context, cli *mongo.Client) error {
		return cli.Disconnect(ctx)
	}
)

// Config locates the analyzed documents collection
type Config struct {
	URI        string
	Database   string
	Collection string
}

// Cursor is the subset of *mongo.Cursor the store reads from
type Cursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
	Close(ctx context.Context) error
}

var _ Cursor = (*mongo.Cursor)(nil)

// Store reads documents produced by the document pipeline. The client is
// connected on first use and shared until Close.
type Store struct {
	config Config

	// find is replaced in tests
	find func(ctx context.Context, limit int64) (Cursor, error)

	mu     sync.Mutex
	client *mongo.Client
}

// NewStore creates a Store. Nothing is dialled until the first read.
func NewStore(config Config) *Store {
	if config.Database == "" {
		config.Database = DefaultDatabase
	}
	if config.Collection == "" {
		config.Collection = DefaultCollection
	}
	s := &Store{config: config}
	s.find = s.findInCollection
	return s
}

// Texts returns the text field of up to limit analyzed documents in
// insertion order. Documents without text are skipped.
func (s *Store) Texts(ctx context.Context, limit int64) ([]string, error) {
	if cfgErr := httpapi.NewConfigurationError("documents.texts", [2]string{"MONGODB_URI", s.config.URI}); cfgErr != nil {
		return nil, cfgErr
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	ctx, span := instrumentation.StartBackendSpan(ctx, instrumentation.ServiceMongoDB, instrumentation.OperationListDocuments)
	defer span.End()

	cur, err := s.find(ctx, limit)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	texts, err := collectTexts(ctx, cur)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	instrumentation.SetSpanSuccess(span)
	return texts, nil
}

// Close disconnects the shared client if one was opened
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := disconnectMongo(ctx, s.client)
	s.client = nil
	if err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}

func (s *Store) findInCollection(ctx context.Context, limit int64) (Cursor, error) {
	cli, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	col := cli.Database(s.config.Database).Collection(s.config.Collection)
	opts := options.Find().
		SetLimit(limit).
		SetProjection(bson.D{{Key: "text", Value: 1}})

	cur, err := col.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, &httpapi.NetworkError{Op: "documents.find", Err: err}
	}
	return cur, nil
}

func (s *Store) connect(ctx context.Context) (*mongo.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}

	opts := options.Client().
		ApplyURI(s.config.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(connectTimeout)

	cli, err := connectMongo(ctx, opts)
	if err != nil {
		return nil, &httpapi.NetworkError{Op: "documents.connect", Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pingMongo(pingCtx, cli); err != nil {
		_ = disconnectMongo(ctx, cli)
		return nil, &httpapi.NetworkError{Op: "documents.ping", Err: err}
	}

	s.client = cli
	return cli, nil
}

type textDocument struct {
	Text *string `bson:"text"`
}

func collectTexts(ctx context.Context, cur Cursor) (texts []string, err error) {
	defer func() {
		if closeErr := cur.Close(ctx); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close cursor: %w", closeErr)
		}
	}()

	texts = []string{}
	for cur.Next(ctx) {
		var doc textDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode analyzed document: %w", err)
		}
		if doc.Text != nil {
			texts = append(texts, *doc.Text)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, &httpapi.NetworkError{Op: "documents.iterate", Err: err}
	}
	return texts, nil
}
