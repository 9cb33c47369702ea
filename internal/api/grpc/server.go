package grpcapi

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"social-schema-service/internal/schema"
	"social-schema-service/internal/service/admission"
	"social-schema-service/internal/store"
)

// Service and method names. Messages are google.protobuf.Struct on both
// sides, so no generated stubs are needed.
const (
	ServiceName    = "socialschema.v1.SchemaValidator"
	ValidateMethod = "/" + ServiceName + "/Validate"
	InsertMethod   = "/" + ServiceName + "/Insert"
)

// SchemaValidatorServer is the server API for the SchemaValidator service.
type SchemaValidatorServer interface {
	// Validate checks {collection, document} and answers {valid, violations}.
	Validate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Insert validates and stores {collection, document} and answers
	// {valid, violations} or {valid, id}.
	Insert(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the SchemaValidator service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchemaValidatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: unaryHandler(ValidateMethod, SchemaValidatorServer.Validate)},
		{MethodName: "Insert", Handler: unaryHandler(InsertMethod, SchemaValidatorServer.Insert)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "socialschema/v1/validator.proto",
}

type unaryMethod func(SchemaValidatorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SchemaValidatorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SchemaValidatorServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Server implements SchemaValidatorServer on top of the admission controller.
type Server struct {
	admission *admission.Controller
}

// Register attaches the SchemaValidator service to g.
func Register(g grpc.ServiceRegistrar, ctrl *admission.Controller) *Server {
	s := &Server{admission: ctrl}
	g.RegisterService(&ServiceDesc, s)
	return s
}

// Validate checks one document without storing it.
func (s *Server) Validate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	collection, doc, err := decodeRequest(req)
	if err != nil {
		return nil, err
	}

	err = s.admission.Check(ctx, collection, doc)
	if violations := schema.Violations(err); violations != nil {
		return encodeResult(false, "", violations)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResult(true, "", nil)
}

// Insert validates one document and stores it when it conforms.
func (s *Server) Insert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	collection, doc, err := decodeRequest(req)
	if err != nil {
		return nil, err
	}

	id, err := s.admission.Write(ctx, collection, doc)
	if violations := schema.Violations(err); violations != nil {
		return encodeResult(false, "", violations)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResult(true, id, nil)
}

func decodeRequest(req *structpb.Struct) (string, map[string]any, error) {
	fields := req.GetFields()
	collection := fields["collection"].GetStringValue()
	if collection == "" {
		return "", nil, status.Error(codes.InvalidArgument, "collection is required")
	}
	docValue, ok := fields["document"]
	if !ok || docValue.GetStructValue() == nil {
		return "", nil, status.Error(codes.InvalidArgument, "document must be an object")
	}
	return collection, schema.Normalize(docValue.GetStructValue().AsMap()), nil
}

func encodeResult(valid bool, id string, violations []schema.Violation) (*structpb.Struct, error) {
	out := map[string]any{"valid": valid}
	if id != "" {
		out["id"] = id
	}
	if len(violations) > 0 {
		list := make([]any, len(violations))
		for i, v := range violations {
			entry := map[string]any{
				"kind":  string(v.Kind),
				"field": v.Field,
			}
			if v.Kind == schema.TypeMismatch {
				entry["expected"] = v.Expected
				entry["actual"] = v.Actual
			}
			list[i] = entry
		}
		out["violations"] = list
	}

	res, err := structpb.NewStruct(out)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return res, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, schema.ErrUnknownCollection):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, store.ErrStoreDisabled):
		return status.Error(codes.Unavailable, err.Error())
	}
	log.Error().Err(err).Msg("SchemaValidator call failed")
	return status.Error(codes.Internal, err.Error())
}
