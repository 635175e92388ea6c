package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"local-marketplace/internal/domain"
	"local-marketplace/internal/store"
)

// CatalogLookupServiceName is the fully qualified gRPC service name.
const CatalogLookupServiceName = "marketplace.v1.CatalogLookup"

const (
	getCityMethod    = "/" + CatalogLookupServiceName + "/GetCity"
	getProductMethod = "/" + CatalogLookupServiceName + "/GetProduct"
)

// CatalogLookupServer resolves storefront documents by slug for internal callers.
// Requests carry the slug; responses carry the document as a Struct.
type CatalogLookupServer interface {
	GetCity(ctx context.Context, slug *wrapperspb.StringValue) (*structpb.Struct, error)
	GetProduct(ctx context.Context, slug *wrapperspb.StringValue) (*structpb.Struct, error)
}

// CatalogLookupServiceDesc describes CatalogLookup using well-known types, so no generated code is needed.
var CatalogLookupServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogLookupServiceName,
	HandlerType: (*CatalogLookupServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCity", Handler: catalogLookupGetCityHandler},
		{MethodName: "GetProduct", Handler: catalogLookupGetProductHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: catalogLookupProtoFile,
}

func catalogLookupGetCityHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogLookupServer).GetCity(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getCityMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogLookupServer).GetCity(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func catalogLookupGetProductHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogLookupServer).GetProduct(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getProductMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogLookupServer).GetProduct(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// CatalogLookupClient calls CatalogLookup over an existing connection.
type CatalogLookupClient struct {
	cc grpc.ClientConnInterface
}

// NewCatalogLookupClient creates a client on cc.
func NewCatalogLookupClient(cc grpc.ClientConnInterface) *CatalogLookupClient {
	return &CatalogLookupClient{cc: cc}
}

func (c *CatalogLookupClient) GetCity(ctx context.Context, slug string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getCityMethod, wrapperspb.String(slug), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogLookupClient) GetProduct(ctx context.Context, slug string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getProductMethod, wrapperspb.String(slug), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GRPCHandler implements CatalogLookupServer on top of the storefront repositories.
type GRPCHandler struct {
	cities   store.Repository[domain.City]
	products store.Repository[domain.Product]
	logger   *zap.Logger
}

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(cities store.Repository[domain.City], products store.Repository[domain.Product], logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{cities: cities, products: products, logger: logger.Named("grpc")}
}

// GetCity returns an active city. Inactive cities are reported as not found, as on the storefront.
func (s *GRPCHandler) GetCity(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	slug, err := lookupSlug(req)
	if err != nil {
		return nil, err
	}
	city, err := s.cities.GetBySlug(ctx, slug)
	if err == nil && !city.IsActive {
		err = store.ErrNotFound
	}
	if err != nil {
		return nil, s.mapStoreError(err, "city", slug)
	}
	return toStruct(city)
}

// GetProduct returns an active product. Inactive products are reported as not found, as on the storefront.
func (s *GRPCHandler) GetProduct(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	slug, err := lookupSlug(req)
	if err != nil {
		return nil, err
	}
	product, err := s.products.GetBySlug(ctx, slug)
	if err == nil && !product.IsActive {
		err = store.ErrNotFound
	}
	if err != nil {
		return nil, s.mapStoreError(err, "product", slug)
	}
	return toStruct(product)
}

func lookupSlug(req *wrapperspb.StringValue) (string, error) {
	slug := domain.NormalizeSlug(req.GetValue())
	if slug == "" {
		return "", status.Error(codes.InvalidArgument, "slug must not be empty")
	}
	if !domain.ValidSlug(slug) {
		return "", status.Errorf(codes.InvalidArgument, "invalid slug %q", slug)
	}
	return slug, nil
}

func (s *GRPCHandler) mapStoreError(err error, resource, slug string) error {
	if errors.Is(err, store.ErrNotFound) {
		return status.Errorf(codes.NotFound, "%s %q not found", resource, slug)
	}
	s.logger.Error("lookup failed", zap.String("resource", resource), zap.String("slug", slug), zap.Error(err))
	return status.Errorf(codes.Internal, "failed to look up %s %q", resource, slug)
}

// toStruct converts a document through its JSON form so field names match the REST API.
func toStruct(doc any) (*structpb.Struct, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode document: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, status.Errorf(codes.Internal, "decode document: %v", err)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "convert document: %v", err)
	}
	return out, nil
}

// UnaryLoggingInterceptor logs every unary call with its code and latency.
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil && status.Code(err) == codes.Internal {
			logger.Error("grpc call failed", append(fields, zap.Error(err))...)
		} else {
			logger.Info("grpc call", fields...)
		}
		return resp, err
	}
}

// NewGRPCServer builds a server with CatalogLookup, health checking and reflection registered.
func NewGRPCServer(handler CatalogLookupServer, logger *zap.Logger) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryLoggingInterceptor(logger.Named("grpc"))))
	s.RegisterService(&CatalogLookupServiceDesc, handler)

	hs := health.NewServer()
	hs.SetServingStatus(CatalogLookupServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	reflection.Register(s)
	return s
}

