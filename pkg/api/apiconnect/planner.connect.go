// Package apiconnect wires the debtwise.v1 services to Connect: procedure
// names, handler interfaces, HTTP handler constructors and typed clients.
// Every constructor installs the JSON codec from package api.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/debtwise/pkg/api"
)

const (
	// PlannerServiceName is the fully-qualified name of the PlannerService.
	PlannerServiceName = "debtwise.v1.PlannerService"

	PlannerServiceSimulateProcedure          = "/debtwise.v1.PlannerService/Simulate"
	PlannerServiceCompareStrategiesProcedure = "/debtwise.v1.PlannerService/CompareStrategies"
	PlannerServiceApplyLumpSumProcedure      = "/debtwise.v1.PlannerService/ApplyLumpSum"
	PlannerServiceListPaymentsProcedure      = "/debtwise.v1.PlannerService/ListPayments"
)

// PlannerServiceHandler is implemented by the PlannerService.
type PlannerServiceHandler interface {
	Simulate(context.Context, *connect.Request[api.SimulateRequest]) (*connect.Response[api.SimulateResponse], error)
	CompareStrategies(context.Context, *connect.Request[api.CompareRequest]) (*connect.Response[api.CompareResponse], error)
	ApplyLumpSum(context.Context, *connect.Request[api.ApplyLumpSumRequest]) (*connect.Response[api.ApplyLumpSumResponse], error)
	ListPayments(context.Context, *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error)
}

// NewPlannerServiceHandler builds an HTTP handler for svc and returns the
// path to mount it on.
func NewPlannerServiceHandler(svc PlannerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	simulate := connect.NewUnaryHandler(PlannerServiceSimulateProcedure, svc.Simulate, opts...)
	compare := connect.NewUnaryHandler(PlannerServiceCompareStrategiesProcedure, svc.CompareStrategies, opts...)
	applyLumpSum := connect.NewUnaryHandler(PlannerServiceApplyLumpSumProcedure, svc.ApplyLumpSum, opts...)
	listPayments := connect.NewUnaryHandler(PlannerServiceListPaymentsProcedure, svc.ListPayments, opts...)

	return "/" + PlannerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PlannerServiceSimulateProcedure:
			simulate.ServeHTTP(w, r)
		case PlannerServiceCompareStrategiesProcedure:
			compare.ServeHTTP(w, r)
		case PlannerServiceApplyLumpSumProcedure:
			applyLumpSum.ServeHTTP(w, r)
		case PlannerServiceListPaymentsProcedure:
			listPayments.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedPlannerServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedPlannerServiceHandler struct{}

func (UnimplementedPlannerServiceHandler) Simulate(context.Context, *connect.Request[api.SimulateRequest]) (*connect.Response[api.SimulateResponse], error) {
	return nil, unimplemented(PlannerServiceSimulateProcedure)
}

func (UnimplementedPlannerServiceHandler) CompareStrategies(context.Context, *connect.Request[api.CompareRequest]) (*connect.Response[api.CompareResponse], error) {
	return nil, unimplemented(PlannerServiceCompareStrategiesProcedure)
}

func (UnimplementedPlannerServiceHandler) ApplyLumpSum(context.Context, *connect.Request[api.ApplyLumpSumRequest]) (*connect.Response[api.ApplyLumpSumResponse], error) {
	return nil, unimplemented(PlannerServiceApplyLumpSumProcedure)
}

func (UnimplementedPlannerServiceHandler) ListPayments(context.Context, *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error) {
	return nil, unimplemented(PlannerServiceListPaymentsProcedure)
}

// PlannerServiceClient is a client for the PlannerService.
type PlannerServiceClient interface {
	Simulate(context.Context, *connect.Request[api.SimulateRequest]) (*connect.Response[api.SimulateResponse], error)
	CompareStrategies(context.Context, *connect.Request[api.CompareRequest]) (*connect.Response[api.CompareResponse], error)
	ApplyLumpSum(context.Context, *connect.Request[api.ApplyLumpSumRequest]) (*connect.Response[api.ApplyLumpSumResponse], error)
	ListPayments(context.Context, *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error)
}

// NewPlannerServiceClient constructs a client for the service at baseURL,
// e.g. http://localhost:8080.
func NewPlannerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PlannerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &plannerServiceClient{
		simulate:     connect.NewClient[api.SimulateRequest, api.SimulateResponse](httpClient, baseURL+PlannerServiceSimulateProcedure, opts...),
		compare:      connect.NewClient[api.CompareRequest, api.CompareResponse](httpClient, baseURL+PlannerServiceCompareStrategiesProcedure, opts...),
		applyLumpSum: connect.NewClient[api.ApplyLumpSumRequest, api.ApplyLumpSumResponse](httpClient, baseURL+PlannerServiceApplyLumpSumProcedure, opts...),
		listPayments: connect.NewClient[api.ListPaymentsRequest, api.ListPaymentsResponse](httpClient, baseURL+PlannerServiceListPaymentsProcedure, opts...),
	}
}

type plannerServiceClient struct {
	simulate     *connect.Client[api.SimulateRequest, api.SimulateResponse]
	compare      *connect.Client[api.CompareRequest, api.CompareResponse]
	applyLumpSum *connect.Client[api.ApplyLumpSumRequest, api.ApplyLumpSumResponse]
	listPayments *connect.Client[api.ListPaymentsRequest, api.ListPaymentsResponse]
}

func (c *plannerServiceClient) Simulate(ctx context.Context, req *connect.Request[api.SimulateRequest]) (*connect.Response[api.SimulateResponse], error) {
	return c.simulate.CallUnary(ctx, req)
}

func (c *plannerServiceClient) CompareStrategies(ctx context.Context, req *connect.Request[api.CompareRequest]) (*connect.Response[api.CompareResponse], error) {
	return c.compare.CallUnary(ctx, req)
}

func (c *plannerServiceClient) ApplyLumpSum(ctx context.Context, req *connect.Request[api.ApplyLumpSumRequest]) (*connect.Response[api.ApplyLumpSumResponse], error) {
	return c.applyLumpSum.CallUnary(ctx, req)
}

func (c *plannerServiceClient) ListPayments(ctx context.Context, req *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error) {
	return c.listPayments.CallUnary(ctx, req)
}
