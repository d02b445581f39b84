package grpcserver

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "mangashelf.LibraryService"

// LibraryService is the admin surface over the library engine and catalog.
type LibraryService interface {
	Scan(context.Context, *ScanRequest) (*ScanResponse, error)
	Reconcile(context.Context, *ReconcileRequest) (*ReconcileResponse, error)
	Resolve(context.Context, *ResolveRequest) (*ResolveResponse, error)
	ListImages(context.Context, *ListImagesRequest) (*ListImagesResponse, error)
	ListManga(context.Context, *ListMangaRequest) (*ListMangaResponse, error)
	GetManga(context.Context, *GetMangaRequest) (*GetMangaResponse, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LibraryService)(nil),
	Methods: []grpc.MethodDesc{
		unary("Scan", LibraryService.Scan),
		unary("Reconcile", LibraryService.Reconcile),
		unary("Resolve", LibraryService.Resolve),
		unary("ListImages", LibraryService.ListImages),
		unary("ListManga", LibraryService.ListManga),
		unary("GetManga", LibraryService.GetManga),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mangashelf/library",
}

func Register(s grpc.ServiceRegistrar, svc LibraryService) {
	s.RegisterService(&serviceDesc, svc)
}

func unary[Req, Resp any](method string, call func(LibraryService, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LibraryService), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(LibraryService), ctx, req.(*Req))
			})
		},
	}
}

// Client calls LibraryService over a connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Scan(ctx context.Context, in *ScanRequest, opts ...grpc.CallOption) (*ScanResponse, error) {
	return invoke[ScanResponse](ctx, c, "Scan", in, opts)
}

func (c *Client) Reconcile(ctx context.Context, in *ReconcileRequest, opts ...grpc.CallOption) (*ReconcileResponse, error) {
	return invoke[ReconcileResponse](ctx, c, "Reconcile", in, opts)
}

func (c *Client) Resolve(ctx context.Context, in *ResolveRequest, opts ...grpc.CallOption) (*ResolveResponse, error) {
	return invoke[ResolveResponse](ctx, c, "Resolve", in, opts)
}

func (c *Client) ListImages(ctx context.Context, in *ListImagesRequest, opts ...grpc.CallOption) (*ListImagesResponse, error) {
	return invoke[ListImagesResponse](ctx, c, "ListImages", in, opts)
}

func (c *Client) ListManga(ctx context.Context, in *ListMangaRequest, opts ...grpc.CallOption) (*ListMangaResponse, error) {
	return invoke[ListMangaResponse](ctx, c, "ListManga", in, opts)
}

func (c *Client) GetManga(ctx context.Context, in *GetMangaRequest, opts ...grpc.CallOption) (*GetMangaResponse, error) {
	return invoke[GetMangaResponse](ctx, c, "GetManga", in, opts)
}
