package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// #region service
const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName    = "cosmicmind.peer.v1.PeerSync"
	exchangeMethod = "/" + ServiceName + "/Exchange"

	// DefaultTimeout bounds a single exchange.
	DefaultTimeout = 5 * time.Second
)

// Handler answers one encoded envelope with an encoded reply, or nil.
type Handler func(ctx context.Context, data []byte) ([]byte, error)

type exchanger interface {
	Exchange(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

type server struct {
	handle Handler
}

func (s *server) Exchange(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	reply, err := s.handle(ctx, in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return wrapperspb.Bytes(reply), nil
}

func exchangeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(exchanger).Exchange(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: exchangeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(exchanger).Exchange(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// serviceDesc describes PeerSync. Envelopes travel as opaque BytesValue
// payloads.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*exchanger)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Exchange", Handler: exchangeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cosmicmind/peer/v1/peer.proto",
}

// Register adds the PeerSync service to s.
func Register(s *grpc.Server, h Handler) {
	s.RegisterService(&serviceDesc, &server{handle: h})
}

// NewServer returns a gRPC server with PeerSync registered.
func NewServer(h Handler, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)
	Register(s, h)
	return s
}

// #endregion service

// #region client
// Client sends envelopes to peers, keeping one connection per address.
type Client struct {
	timeout time.Duration
	opts    []grpc.DialOption

	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

// NewClient creates a client. Extra dial options are appended to the
// insecure transport credentials.
func NewClient(timeout time.Duration, opts ...grpc.DialOption) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		timeout: timeout,
		opts:    append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...),
		conns:   make(map[string]*grpc.ClientConn),
	}
}

func target(addr string) string {
	if strings.Contains(addr, "://") {
		return addr
	}
	return "passthrough:///" + addr
}

func (c *Client) conn(addr string) (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cc, ok := c.conns[addr]; ok {
		return cc, nil
	}
	cc, err := grpc.NewClient(target(addr), c.opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	c.conns[addr] = cc
	return cc, nil
}

// Send delivers data to addr and returns the peer's reply.
func (c *Client) Send(ctx context.Context, addr string, data []byte) ([]byte, error) {
	cc, err := c.conn(addr)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out := new(wrapperspb.BytesValue)
	if err := cc.Invoke(ctx, exchangeMethod, wrapperspb.Bytes(data), out); err != nil {
		return nil, fmt.Errorf("exchange rpc %s: %w", addr, err)
	}
	return out.GetValue(), nil
}

// Close shuts down every connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var first error
	for addr, cc := range c.conns {
		if err := cc.Close(); err != nil && first == nil {
			first = err
		}
		delete(c.conns, addr)
	}
	return first
}

// #endregion client
