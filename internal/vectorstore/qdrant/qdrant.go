package qdrant

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"unirag/internal/domain"
)

// Storage talks to Qdrant over gRPC.
// It assumes cosine distance and creates collections on first write, once the
// vector dimension is known.
type Storage struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
	apiKey      string
	timeout     time.Duration
}

type Config struct {
	Host    string
	Port    int
	APIKey  string
	UseTLS  bool
	Timeout time.Duration
}

func NewStorage(cfg Config) (*Storage, error) {
	if cfg.Host == "" {
		return nil, errors.New("qdrant: host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	creds := insecure.NewCredentials()
	if cfg.UseTLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	conn, err := grpc.NewClient(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("qdrant: connect: %w", err)
	}
	return &Storage{
		conn:        conn,
		collections: pb.NewCollectionsClient(conn),
		points:      pb.NewPointsClient(conn),
		apiKey:      cfg.APIKey,
		timeout:     timeout,
	}, nil
}

func (s *Storage) rpcContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.apiKey != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", s.apiKey)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Storage) exists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := s.rpcContext(ctx)
	defer cancel()
	resp, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("qdrant: list collections: %w", err)
	}
	for _, c := range resp.GetCollections() {
		if c.GetName() == name {
			return true, nil
		}
	}
	return false, nil
}

// GetOrCreateCollection verifies the server is reachable and returns a handle.
// The server-side collection is created on the first Add.
func (s *Storage) GetOrCreateCollection(ctx context.Context, name string) (domain.Collection, error) {
	if name == "" {
		return nil, errors.New("qdrant: collection name is required")
	}
	ok, err := s.exists(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Collection{store: s, name: name, created: ok}, nil
}

func (s *Storage) DeleteCollection(ctx context.Context, name string) error {
	ok, err := s.exists(ctx, name)
	if err != nil || !ok {
		return err
	}
	ctx, cancel := s.rpcContext(ctx)
	defer cancel()
	if _, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: name}); err != nil {
		return fmt.Errorf("qdrant: delete collection %s: %w", name, err)
	}
	return nil
}

func (s *Storage) Close() error { return s.conn.Close() }

// Collection is a handle on one Qdrant collection.
type Collection struct {
	store *Storage
	name  string

	mu      sync.Mutex
	created bool
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) ensure(ctx context.Context, dimension int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.created {
		return nil
	}
	ok, err := c.store.exists(ctx, c.name)
	if err != nil {
		return err
	}
	if !ok {
		rctx, cancel := c.store.rpcContext(ctx)
		defer cancel()
		_, err = c.store.collections.Create(rctx, &pb.CreateCollection{
			CollectionName: c.name,
			VectorsConfig: &pb.VectorsConfig{
				Config: &pb.VectorsConfig_Params{
					Params: &pb.VectorParams{
						Size:     uint64(dimension),
						Distance: pb.Distance_Cosine,
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("qdrant: create collection %s: %w", c.name, err)
		}
	}
	c.created = true
	return nil
}

func (c *Collection) isCreated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created
}

func (c *Collection) Add(ctx context.Context, rec domain.Record) error {
	if len(rec.Vector) == 0 {
		return errors.New("qdrant: record vector is empty")
	}
	if err := c.ensure(ctx, len(rec.Vector)); err != nil {
		return err
	}
	wait := true
	rctx, cancel := c.store.rpcContext(ctx)
	defer cancel()
	_, err := c.store.points.Upsert(rctx, &pb.UpsertPoints{
		CollectionName: c.name,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: rec.ID}},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: rec.Vector}},
			},
			Payload: toPayload(rec.Text, rec.Metadata),
		}},
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert: %w", err)
	}
	return nil
}

func (c *Collection) Query(ctx context.Context, vector []float32, k int) ([]domain.Match, error) {
	if k <= 0 || !c.isCreated() {
		return nil, nil
	}
	rctx, cancel := c.store.rpcContext(ctx)
	defer cancel()
	resp, err := c.store.points.Search(rctx, &pb.SearchPoints{
		CollectionName: c.name,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search: %w", err)
	}
	matches := make([]domain.Match, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		text, meta := fromPayload(p.GetPayload())
		matches = append(matches, domain.Match{
			Text:     text,
			Metadata: meta,
			Distance: 1 - float64(p.GetScore()),
		})
	}
	return matches, nil
}

func (c *Collection) Count(ctx context.Context) (int, error) {
	if !c.isCreated() {
		ok, err := c.store.exists(ctx, c.name)
		if err != nil || !ok {
			return 0, err
		}
	}
	exact := true
	rctx, cancel := c.store.rpcContext(ctx)
	defer cancel()
	resp, err := c.store.points.Count(rctx, &pb.CountPoints{CollectionName: c.name, Exact: &exact})
	if err != nil {
		return 0, fmt.Errorf("qdrant: count: %w", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

func toPayload(text string, m domain.ChunkMetadata) map[string]*pb.Value {
	str := func(s string) *pb.Value { return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}} }
	num := func(n int) *pb.Value { return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(n)}} }
	return map[string]*pb.Value{
		"text":        str(text),
		"title":       str(m.Title),
		"filename":    str(m.Filename),
		"page_number": num(m.PageNumber),
		"chunk_index": num(m.ChunkIndex),
		"source_path": str(m.SourcePath),
	}
}

func fromPayload(p map[string]*pb.Value) (string, domain.ChunkMetadata) {
	return p["text"].GetStringValue(), domain.ChunkMetadata{
		Title:      p["title"].GetStringValue(),
		Filename:   p["filename"].GetStringValue(),
		PageNumber: int(p["page_number"].GetIntegerValue()),
		ChunkIndex: int(p["chunk_index"].GetIntegerValue()),
		SourcePath: p["source_path"].GetStringValue(),
	}
}

var (
	_ domain.Storage    = (*Storage)(nil)
	_ domain.Collection = (*Collection)(nil)
)
