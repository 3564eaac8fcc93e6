package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls a Verification gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client VerificationClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration
}

func Dial(target string, opts DialOptions) (*Client, error) {
	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return NewClient(cc), nil
}

// NewClient wraps an existing connection.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewVerificationClient(cc)}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Verify sends req and returns the server's outcome. A rejected attestation
// is a reply with Accepted == false, not an error.
func (c *Client) Verify(ctx context.Context, req VerifyRequest) (VerifyReply, error) {
	var reply VerifyReply
	if c == nil || c.client == nil {
		return reply, errors.New("rpc: nil client")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return reply, err
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	out, err := c.client.Verify(ctx, wrapperspb.Bytes(body))
	if err != nil {
		return reply, err
	}
	if err := json.Unmarshal(out.GetValue(), &reply); err != nil {
		return reply, err
	}
	return reply, nil
}
