package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	AuthServiceName    = "susu.v1.AuthService"
	GroupServiceName   = "susu.v1.GroupService"
	PaymentServiceName = "susu.v1.PaymentService"
)

// AuthServiceHandler is implemented by the authentication service.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	GetCurrentUser(context.Context, *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error)
}

// GroupServiceHandler is implemented by the group service.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error)
	RequestToJoin(context.Context, *connect.Request[RequestToJoinRequest]) (*connect.Response[RequestToJoinResponse], error)
	ListJoinRequests(context.Context, *connect.Request[ListJoinRequestsRequest]) (*connect.Response[ListJoinRequestsResponse], error)
	ApproveJoinRequest(context.Context, *connect.Request[ApproveJoinRequestRequest]) (*connect.Response[ApproveJoinRequestResponse], error)
	RejectJoinRequest(context.Context, *connect.Request[RejectJoinRequestRequest]) (*connect.Response[RejectJoinRequestResponse], error)
	GetGroupSummary(context.Context, *connect.Request[GetGroupSummaryRequest]) (*connect.Response[GetGroupSummaryResponse], error)
}

// PaymentServiceHandler is implemented by the payment service.
type PaymentServiceHandler interface {
	InitializePayment(context.Context, *connect.Request[InitializePaymentRequest]) (*connect.Response[InitializePaymentResponse], error)
	VerifyPayment(context.Context, *connect.Request[VerifyPaymentRequest]) (*connect.Response[VerifyPaymentResponse], error)
	ListPayments(context.Context, *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error)
}

// Fully-qualified procedure names, used as HTTP paths and in interceptors.
const (
	AuthServiceRegisterProcedure       = "/susu.v1.AuthService/Register"
	AuthServiceLoginProcedure          = "/susu.v1.AuthService/Login"
	AuthServiceGetCurrentUserProcedure = "/susu.v1.AuthService/GetCurrentUser"

	GroupServiceCreateGroupProcedure        = "/susu.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure           = "/susu.v1.GroupService/GetGroup"
	GroupServiceListGroupsProcedure         = "/susu.v1.GroupService/ListGroups"
	GroupServiceRequestToJoinProcedure      = "/susu.v1.GroupService/RequestToJoin"
	GroupServiceListJoinRequestsProcedure   = "/susu.v1.GroupService/ListJoinRequests"
	GroupServiceApproveJoinRequestProcedure = "/susu.v1.GroupService/ApproveJoinRequest"
	GroupServiceRejectJoinRequestProcedure  = "/susu.v1.GroupService/RejectJoinRequest"
	GroupServiceGetGroupSummaryProcedure    = "/susu.v1.GroupService/GetGroupSummary"

	PaymentServiceInitializePaymentProcedure = "/susu.v1.PaymentService/InitializePayment"
	PaymentServiceVerifyPaymentProcedure     = "/susu.v1.PaymentService/VerifyPayment"
	PaymentServiceListPaymentsProcedure      = "/susu.v1.PaymentService/ListPayments"
)

// route registers one unary method on mux with the JSON codec.
func route[Req, Res any](mux *http.ServeMux, path string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	mux.Handle(path, connect.NewUnaryHandler(path, fn, opts...))
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	route(mux, AuthServiceRegisterProcedure, svc.Register, opts)
	route(mux, AuthServiceLoginProcedure, svc.Login, opts)
	route(mux, AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts)
	return "/" + AuthServiceName + "/", mux
}

// NewGroupServiceHandler builds an HTTP handler from the service implementation.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	route(mux, GroupServiceCreateGroupProcedure, svc.CreateGroup, opts)
	route(mux, GroupServiceGetGroupProcedure, svc.GetGroup, opts)
	route(mux, GroupServiceListGroupsProcedure, svc.ListGroups, opts)
	route(mux, GroupServiceRequestToJoinProcedure, svc.RequestToJoin, opts)
	route(mux, GroupServiceListJoinRequestsProcedure, svc.ListJoinRequests, opts)
	route(mux, GroupServiceApproveJoinRequestProcedure, svc.ApproveJoinRequest, opts)
	route(mux, GroupServiceRejectJoinRequestProcedure, svc.RejectJoinRequest, opts)
	route(mux, GroupServiceGetGroupSummaryProcedure, svc.GetGroupSummary, opts)
	return "/" + GroupServiceName + "/", mux
}

// NewPaymentServiceHandler builds an HTTP handler from the service implementation.
func NewPaymentServiceHandler(svc PaymentServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	route(mux, PaymentServiceInitializePaymentProcedure, svc.InitializePayment, opts)
	route(mux, PaymentServiceVerifyPaymentProcedure, svc.VerifyPayment, opts)
	route(mux, PaymentServiceListPaymentsProcedure, svc.ListPayments, opts)
	return "/" + PaymentServiceName + "/", mux
}

func newClient[Req, Res any](httpClient connect.HTTPClient, baseURL, path string, opts []connect.ClientOption) *connect.Client[Req, Res] {
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return connect.NewClient[Req, Res](httpClient, strings.TrimRight(baseURL, "/")+path, opts...)
}

// AuthServiceClient calls the auth service.
type AuthServiceClient struct {
	register       *connect.Client[RegisterRequest, RegisterResponse]
	login          *connect.Client[LoginRequest, LoginResponse]
	getCurrentUser *connect.Client[GetCurrentUserRequest, GetCurrentUserResponse]
}

// NewAuthServiceClient constructs a client for the auth service at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	return &AuthServiceClient{
		register:       newClient[RegisterRequest, RegisterResponse](httpClient, baseURL, AuthServiceRegisterProcedure, opts),
		login:          newClient[LoginRequest, LoginResponse](httpClient, baseURL, AuthServiceLoginProcedure, opts),
		getCurrentUser: newClient[GetCurrentUserRequest, GetCurrentUserResponse](httpClient, baseURL, AuthServiceGetCurrentUserProcedure, opts),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

// GroupServiceClient calls the group service.
type GroupServiceClient struct {
	createGroup        *connect.Client[CreateGroupRequest, CreateGroupResponse]
	getGroup           *connect.Client[GetGroupRequest, GetGroupResponse]
	listGroups         *connect.Client[ListGroupsRequest, ListGroupsResponse]
	requestToJoin      *connect.Client[RequestToJoinRequest, RequestToJoinResponse]
	listJoinRequests   *connect.Client[ListJoinRequestsRequest, ListJoinRequestsResponse]
	approveJoinRequest *connect.Client[ApproveJoinRequestRequest, ApproveJoinRequestResponse]
	rejectJoinRequest  *connect.Client[RejectJoinRequestRequest, RejectJoinRequestResponse]
	getGroupSummary    *connect.Client[GetGroupSummaryRequest, GetGroupSummaryResponse]
}

// NewGroupServiceClient constructs a client for the group service at baseURL.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	return &GroupServiceClient{
		createGroup:        newClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL, GroupServiceCreateGroupProcedure, opts),
		getGroup:           newClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL, GroupServiceGetGroupProcedure, opts),
		listGroups:         newClient[ListGroupsRequest, ListGroupsResponse](httpClient, baseURL, GroupServiceListGroupsProcedure, opts),
		requestToJoin:      newClient[RequestToJoinRequest, RequestToJoinResponse](httpClient, baseURL, GroupServiceRequestToJoinProcedure, opts),
		listJoinRequests:   newClient[ListJoinRequestsRequest, ListJoinRequestsResponse](httpClient, baseURL, GroupServiceListJoinRequestsProcedure, opts),
		approveJoinRequest: newClient[ApproveJoinRequestRequest, ApproveJoinRequestResponse](httpClient, baseURL, GroupServiceApproveJoinRequestProcedure, opts),
		rejectJoinRequest:  newClient[RejectJoinRequestRequest, RejectJoinRequestResponse](httpClient, baseURL, GroupServiceRejectJoinRequestProcedure, opts),
		getGroupSummary:    newClient[GetGroupSummaryRequest, GetGroupSummaryResponse](httpClient, baseURL, GroupServiceGetGroupSummaryProcedure, opts),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RequestToJoin(ctx context.Context, req *connect.Request[RequestToJoinRequest]) (*connect.Response[RequestToJoinResponse], error) {
	return c.requestToJoin.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListJoinRequests(ctx context.Context, req *connect.Request[ListJoinRequestsRequest]) (*connect.Response[ListJoinRequestsResponse], error) {
	return c.listJoinRequests.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ApproveJoinRequest(ctx context.Context, req *connect.Request[ApproveJoinRequestRequest]) (*connect.Response[ApproveJoinRequestResponse], error) {
	return c.approveJoinRequest.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RejectJoinRequest(ctx context.Context, req *connect.Request[RejectJoinRequestRequest]) (*connect.Response[RejectJoinRequestResponse], error) {
	return c.rejectJoinRequest.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroupSummary(ctx context.Context, req *connect.Request[GetGroupSummaryRequest]) (*connect.Response[GetGroupSummaryResponse], error) {
	return c.getGroupSummary.CallUnary(ctx, req)
}

// PaymentServiceClient calls the payment service.
type PaymentServiceClient struct {
	initializePayment *connect.Client[InitializePaymentRequest, InitializePaymentResponse]
	verifyPayment     *connect.Client[VerifyPaymentRequest, VerifyPaymentResponse]
	listPayments      *connect.Client[ListPaymentsRequest, ListPaymentsResponse]
}

// NewPaymentServiceClient constructs a client for the payment service at baseURL.
func NewPaymentServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PaymentServiceClient {
	return &PaymentServiceClient{
		initializePayment: newClient[InitializePaymentRequest, InitializePaymentResponse](httpClient, baseURL, PaymentServiceInitializePaymentProcedure, opts),
		verifyPayment:     newClient[VerifyPaymentRequest, VerifyPaymentResponse](httpClient, baseURL, PaymentServiceVerifyPaymentProcedure, opts),
		listPayments:      newClient[ListPaymentsRequest, ListPaymentsResponse](httpClient, baseURL, PaymentServiceListPaymentsProcedure, opts),
	}
}

func (c *PaymentServiceClient) InitializePayment(ctx context.Context, req *connect.Request[InitializePaymentRequest]) (*connect.Response[InitializePaymentResponse], error) {
	return c.initializePayment.CallUnary(ctx, req)
}

func (c *PaymentServiceClient) VerifyPayment(ctx context.Context, req *connect.Request[VerifyPaymentRequest]) (*connect.Response[VerifyPaymentResponse], error) {
	return c.verifyPayment.CallUnary(ctx, req)
}

func (c *PaymentServiceClient) ListPayments(ctx context.Context, req *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error) {
	return c.listPayments.CallUnary(ctx, req)
}
