package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/verity/cidutil"
	"xdao.co/verity/internal/logx"
	"xdao.co/verity/verity"
)

// Server exposes deployment verifiers over the Verification gRPC service.
//
// The server plays the calling infrastructure: it supplies the current time
// from Now and derives CallerContext.Authenticated from the request's
// presentation signature, which must be fresh relative to Now.
type Server struct {
	UnimplementedVerificationServer

	// Verifiers maps deployment name to its verifier.
	Verifiers map[string]*verity.Verifier
	// Now defaults to time.Now.
	Now func() time.Time
	// PresentationWindow defaults to DefaultPresentationWindow.
	PresentationWindow time.Duration
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) Verify(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	if s == nil || len(s.Verifiers) == 0 {
		return nil, status.Error(codes.FailedPrecondition, "no deployments configured")
	}

	var req VerifyRequest
	if err := json.Unmarshal(in.GetValue(), &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	v, ok := s.Verifiers[req.Deployment]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown deployment %q", req.Deployment)
	}
	sig, err := verity.ParseSignature(req.Signature)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "signature: %v", err)
	}
	caller, err := verity.ParseIdentity(req.Caller)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "caller: %v", err)
	}

	att := req.Attestation
	now := s.now()
	cc := verity.CallerContext{
		Identity:      caller,
		Authenticated: VerifyPresentation(caller, req.Deployment, att.Digest(), req.PresentedAt, req.Presentation, now, s.PresentationWindow),
		Now:           now.Unix(),
	}
	if !cc.Authenticated && req.Presentation != "" && !PresentationFresh(req.PresentedAt, now, s.PresentationWindow) {
		logx.Warnf("stale presentation deployment=%s caller=%s presented_at=%d now=%d", req.Deployment, caller, req.PresentedAt, now.Unix())
	}
	reply := VerifyReply{AttestationID: cidutil.AttestationID(att)}

	verr := v.Verify(sig, att, cc)
	var e *verity.Error
	switch {
	case verr == nil:
		reply.Accepted = true
		logx.Infof("accept deployment=%s subject=%s id=%s", req.Deployment, att.Subject, reply.AttestationID)
	case errors.As(verr, &e):
		reply.Code = string(e.Code)
		reply.RuleID = e.RuleID
		reply.Stage = e.Stage.String()
		reply.Message = e.Error()
		logx.Infof("reject deployment=%s subject=%s id=%s code=%s rule=%s", req.Deployment, att.Subject, reply.AttestationID, e.Code, e.RuleID)
	default:
		return nil, status.Errorf(codes.Internal, "verify: %v", verr)
	}

	out, err := json.Marshal(reply)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	return wrapperspb.Bytes(out), nil
}

// LoggingInterceptor logs each unary call's method, status code and latency.
func LoggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logx.Debugf("rpc method=%s code=%s took=%s", info.FullMethod, status.Code(err), time.Since(start))
	return resp, err
}
