package api

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// catalogLookupProtoFile is the descriptor path named in CatalogLookupServiceDesc.Metadata.
const catalogLookupProtoFile = "marketplace/v1/catalog.proto"

// catalogLookupFileDescriptor is the proto3 file declaring CatalogLookup over well-known types.
// Its dependencies are registered by the structpb and wrapperspb imports in grpc_handler.go.
//
//	service CatalogLookup {
//	  rpc GetCity(google.protobuf.StringValue) returns (google.protobuf.Struct);
//	  rpc GetProduct(google.protobuf.StringValue) returns (google.protobuf.Struct);
//	}
func catalogLookupFileDescriptor() *descriptorpb.FileDescriptorProto {
	method := func(name string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(".google.protobuf.StringValue"),
			OutputType: proto.String(".google.protobuf.Struct"),
		}
	}
	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(catalogLookupProtoFile),
		Package:    proto.String("marketplace.v1"),
		Dependency: []string{"google/protobuf/struct.proto", "google/protobuf/wrappers.proto"},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name:   proto.String("CatalogLookup"),
			Method: []*descriptorpb.MethodDescriptorProto{method("GetCity"), method("GetProduct")},
		}},
		Options: &descriptorpb.FileOptions{GoPackage: proto.String("local-marketplace/internal/api")},
		Syntax:  proto.String("proto3"),
	}
}

// registerCatalogLookupDescriptor adds the CatalogLookup file to the global registry so server
// reflection can describe the service. Registering twice is a no-op.
func registerCatalogLookupDescriptor() error {
	if _, err := protoregistry.GlobalFiles.FindFileByPath(catalogLookupProtoFile); err == nil {
		return nil
	}
	fd, err := protodesc.NewFile(catalogLookupFileDescriptor(), protoregistry.GlobalFiles)
	if err != nil {
		return fmt.Errorf("build %s: %w", catalogLookupProtoFile, err)
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		return fmt.Errorf("register %s: %w", catalogLookupProtoFile, err)
	}
	return nil
}

func init() {
	if err := registerCatalogLookupDescriptor(); err != nil {
		panic(err)
	}
}
