package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/debtwise/pkg/api"
)

const (
	// DebtServiceName is the fully-qualified name of the DebtService.
	DebtServiceName = "debtwise.v1.DebtService"

	DebtServiceCreateDebtProcedure = "/debtwise.v1.DebtService/CreateDebt"
	DebtServiceGetDebtProcedure    = "/debtwise.v1.DebtService/GetDebt"
	DebtServiceListDebtsProcedure  = "/debtwise.v1.DebtService/ListDebts"
	DebtServiceUpdateDebtProcedure = "/debtwise.v1.DebtService/UpdateDebt"
	DebtServiceDeleteDebtProcedure = "/debtwise.v1.DebtService/DeleteDebt"
)

// DebtServiceHandler is implemented by the DebtService.
type DebtServiceHandler interface {
	CreateDebt(context.Context, *connect.Request[api.CreateDebtRequest]) (*connect.Response[api.CreateDebtResponse], error)
	GetDebt(context.Context, *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error)
	ListDebts(context.Context, *connect.Request[api.ListDebtsRequest]) (*connect.Response[api.ListDebtsResponse], error)
	UpdateDebt(context.Context, *connect.Request[api.UpdateDebtRequest]) (*connect.Response[api.UpdateDebtResponse], error)
	DeleteDebt(context.Context, *connect.Request[api.DeleteDebtRequest]) (*connect.Response[api.DeleteDebtResponse], error)
}

// NewDebtServiceHandler builds an HTTP handler for svc and returns the path
// to mount it on.
func NewDebtServiceHandler(svc DebtServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	create := connect.NewUnaryHandler(DebtServiceCreateDebtProcedure, svc.CreateDebt, opts...)
	get := connect.NewUnaryHandler(DebtServiceGetDebtProcedure, svc.GetDebt, opts...)
	list := connect.NewUnaryHandler(DebtServiceListDebtsProcedure, svc.ListDebts, opts...)
	update := connect.NewUnaryHandler(DebtServiceUpdateDebtProcedure, svc.UpdateDebt, opts...)
	del := connect.NewUnaryHandler(DebtServiceDeleteDebtProcedure, svc.DeleteDebt, opts...)

	return "/" + DebtServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DebtServiceCreateDebtProcedure:
			create.ServeHTTP(w, r)
		case DebtServiceGetDebtProcedure:
			get.ServeHTTP(w, r)
		case DebtServiceListDebtsProcedure:
			list.ServeHTTP(w, r)
		case DebtServiceUpdateDebtProcedure:
			update.ServeHTTP(w, r)
		case DebtServiceDeleteDebtProcedure:
			del.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedDebtServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedDebtServiceHandler struct{}

func (UnimplementedDebtServiceHandler) CreateDebt(context.Context, *connect.Request[api.CreateDebtRequest]) (*connect.Response[api.CreateDebtResponse], error) {
	return nil, unimplemented(DebtServiceCreateDebtProcedure)
}

func (UnimplementedDebtServiceHandler) GetDebt(context.Context, *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error) {
	return nil, unimplemented(DebtServiceGetDebtProcedure)
}

func (UnimplementedDebtServiceHandler) ListDebts(context.Context, *connect.Request[api.ListDebtsRequest]) (*connect.Response[api.ListDebtsResponse], error) {
	return nil, unimplemented(DebtServiceListDebtsProcedure)
}

func (UnimplementedDebtServiceHandler) UpdateDebt(context.Context, *connect.Request[api.UpdateDebtRequest]) (*connect.Response[api.UpdateDebtResponse], error) {
	return nil, unimplemented(DebtServiceUpdateDebtProcedure)
}

func (UnimplementedDebtServiceHandler) DeleteDebt(context.Context, *connect.Request[api.DeleteDebtRequest]) (*connect.Response[api.DeleteDebtResponse], error) {
	return nil, unimplemented(DebtServiceDeleteDebtProcedure)
}

// DebtServiceClient is a client for the DebtService.
type DebtServiceClient interface {
	CreateDebt(context.Context, *connect.Request[api.CreateDebtRequest]) (*connect.Response[api.CreateDebtResponse], error)
	GetDebt(context.Context, *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error)
	ListDebts(context.Context, *connect.Request[api.ListDebtsRequest]) (*connect.Response[api.ListDebtsResponse], error)
	UpdateDebt(context.Context, *connect.Request[api.UpdateDebtRequest]) (*connect.Response[api.UpdateDebtResponse], error)
	DeleteDebt(context.Context, *connect.Request[api.DeleteDebtRequest]) (*connect.Response[api.DeleteDebtResponse], error)
}

// NewDebtServiceClient constructs a client for the service at baseURL.
func NewDebtServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) DebtServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &debtServiceClient{
		create: connect.NewClient[api.CreateDebtRequest, api.CreateDebtResponse](httpClient, baseURL+DebtServiceCreateDebtProcedure, opts...),
		get:    connect.NewClient[api.GetDebtRequest, api.GetDebtResponse](httpClient, baseURL+DebtServiceGetDebtProcedure, opts...),
		list:   connect.NewClient[api.ListDebtsRequest, api.ListDebtsResponse](httpClient, baseURL+DebtServiceListDebtsProcedure, opts...),
		update: connect.NewClient[api.UpdateDebtRequest, api.UpdateDebtResponse](httpClient, baseURL+DebtServiceUpdateDebtProcedure, opts...),
		del:    connect.NewClient[api.DeleteDebtRequest, api.DeleteDebtResponse](httpClient, baseURL+DebtServiceDeleteDebtProcedure, opts...),
	}
}

type debtServiceClient struct {
	create *connect.Client[api.CreateDebtRequest, api.CreateDebtResponse]
	get    *connect.Client[api.GetDebtRequest, api.GetDebtResponse]
	list   *connect.Client[api.ListDebtsRequest, api.ListDebtsResponse]
	update *connect.Client[api.UpdateDebtRequest, api.UpdateDebtResponse]
	del    *connect.Client[api.DeleteDebtRequest, api.DeleteDebtResponse]
}

func (c *debtServiceClient) CreateDebt(ctx context.Context, req *connect.Request[api.CreateDebtRequest]) (*connect.Response[api.CreateDebtResponse], error) {
	return c.create.CallUnary(ctx, req)
}

func (c *debtServiceClient) GetDebt(ctx context.Context, req *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error) {
	return c.get.CallUnary(ctx, req)
}

func (c *debtServiceClient) ListDebts(ctx context.Context, req *connect.Request[api.ListDebtsRequest]) (*connect.Response[api.ListDebtsResponse], error) {
	return c.list.CallUnary(ctx, req)
}

func (c *debtServiceClient) UpdateDebt(ctx context.Context, req *connect.Request[api.UpdateDebtRequest]) (*connect.Response[api.UpdateDebtResponse], error) {
	return c.update.CallUnary(ctx, req)
}

func (c *debtServiceClient) DeleteDebt(ctx context.Context, req *connect.Request[api.DeleteDebtRequest]) (*connect.Response[api.DeleteDebtResponse], error) {
	return c.del.CallUnary(ctx, req)
}
