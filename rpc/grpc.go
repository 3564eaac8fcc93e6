package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const verifyMethod = "/xdao.verity.v1.Verification/Verify"

// VerificationServer is the server API for the Verification gRPC service.
//
// Messages are JSON documents carried in protobuf well-known wrapper types so
// this package does not require a protoc/codegen toolchain. Request and reply
// shapes are VerifyRequest and VerifyReply.
type VerificationServer interface {
	Verify(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedVerificationServer can be embedded to have forward compatible implementations.
type UnimplementedVerificationServer struct{}

func (UnimplementedVerificationServer) Verify(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Verify not implemented")
}

// RegisterVerificationServer registers the Verification service on a gRPC server.
func RegisterVerificationServer(s grpc.ServiceRegistrar, srv VerificationServer) {
	s.RegisterService(&Verification_ServiceDesc, srv)
}

// VerificationClient is the client API for the Verification gRPC service.
type VerificationClient interface {
	Verify(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type verificationClient struct{ cc grpc.ClientConnInterface }

func NewVerificationClient(cc grpc.ClientConnInterface) VerificationClient {
	return &verificationClient{cc: cc}
}

func (c *verificationClient) Verify(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, verifyMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _Verification_Verify_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VerificationServer).Verify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: verifyMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(VerificationServer).Verify(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Verification_ServiceDesc is the grpc.ServiceDesc for the Verification service.
var Verification_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "xdao.verity.v1.Verification",
	HandlerType: (*VerificationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Verify", Handler: _Verification_Verify_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "verification.proto",
}
