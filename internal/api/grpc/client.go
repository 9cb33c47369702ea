package grpcapi

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"social-schema-service/internal/schema"
)

// Result is the decoded answer of a Validate or Insert call.
type Result struct {
	Valid      bool
	ID         string
	Violations []schema.Violation
}

// Client calls a remote SchemaValidator service.
type Client struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

// Dial opens a plaintext connection to addr.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{cc: conn, conn: conn}, nil
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Close closes a connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Validate asks the service to check doc against collection.
func (c *Client) Validate(ctx context.Context, collection string, doc map[string]any) (*Result, error) {
	return c.call(ctx, ValidateMethod, collection, doc)
}

// Insert asks the service to validate and store doc.
func (c *Client) Insert(ctx context.Context, collection string, doc map[string]any) (*Result, error) {
	return c.call(ctx, InsertMethod, collection, doc)
}

func (c *Client) call(ctx context.Context, method, collection string, doc map[string]any) (*Result, error) {
	req, err := structpb.NewStruct(map[string]any{
		"collection": collection,
		"document":   wireValue(doc),
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, out); err != nil {
		return nil, err
	}
	return decodeResult(out), nil
}

func decodeResult(s *structpb.Struct) *Result {
	fields := s.GetFields()
	res := &Result{
		Valid: fields["valid"].GetBoolValue(),
		ID:    fields["id"].GetStringValue(),
	}
	for _, v := range fields["violations"].GetListValue().GetValues() {
		f := v.GetStructValue().GetFields()
		res.Violations = append(res.Violations, schema.Violation{
			Kind:     schema.ViolationKind(f["kind"].GetStringValue()),
			Field:    f["field"].GetStringValue(),
			Expected: f["expected"].GetStringValue(),
			Actual:   f["actual"].GetStringValue(),
		})
	}
	return res
}

// wireValue rewrites BSON driver values into the JSON-like shapes structpb
// accepts: ObjectIDs as hex, dates as RFC 3339 strings.
func wireValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = wireValue(e)
		}
		return out
	case primitive.M:
		return wireValue(map[string]any(x))
	case primitive.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = wireValue(e.Value)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = wireValue(e)
		}
		return out
	case primitive.A:
		return wireValue([]any(x))
	case primitive.ObjectID:
		return x.Hex()
	case primitive.DateTime:
		return x.Time().UTC().Format(time.RFC3339Nano)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case int:
		return int64(x)
	}
	return v
}
