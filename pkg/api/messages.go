package api

import "google.golang.org/protobuf/types/known/timestamppb"

// User is the public view of an account.
type User struct {
	Id          string                 `json:"id"`
	Email       string                 `json:"email"`
	DisplayName string                 `json:"displayName"`
	CreatedAt   *timestamppb.Timestamp `json:"createdAt,omitempty"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Group is the public view of a savings group. Amounts are decimal strings.
type Group struct {
	Id                 string                 `json:"id"`
	Name               string                 `json:"name"`
	CreatedBy          string                 `json:"createdBy"`
	Members            []string               `json:"members"`
	CollectionOrder    []string               `json:"collectionOrder"`
	NextCollector      string                 `json:"nextCollector,omitempty"`
	CurrentRound       int                    `json:"currentRound"`
	Status             string                 `json:"status"`
	ContributionAmount string                 `json:"contributionAmount"`
	MemberLimit        int                    `json:"memberLimit"`
	CycleFrequency     string                 `json:"cycleFrequency"`
	StartDate          *timestamppb.Timestamp `json:"startDate,omitempty"`
	NextDueDate        *timestamppb.Timestamp `json:"nextDueDate,omitempty"`
	CreatedAt          *timestamppb.Timestamp `json:"createdAt,omitempty"`
}

type CreateGroupRequest struct {
	Name               string                 `json:"name"`
	ContributionAmount string                 `json:"contributionAmount"`
	MemberLimit        int                    `json:"memberLimit"`
	CycleFrequency     string                 `json:"cycleFrequency"`
	StartDate          *timestamppb.Timestamp `json:"startDate"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupId string `json:"groupId"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type RequestToJoinRequest struct {
	GroupId string `json:"groupId"`
}

type RequestToJoinResponse struct{}

// JoinRequest is a pending request awaiting the creator's decision.
type JoinRequest struct {
	UserId      string                 `json:"userId"`
	RequestedAt *timestamppb.Timestamp `json:"requestedAt"`
}

type ListJoinRequestsRequest struct {
	GroupId string `json:"groupId"`
}

type ListJoinRequestsResponse struct {
	Requests []*JoinRequest `json:"requests"`
}

type ApproveJoinRequestRequest struct {
	GroupId string `json:"groupId"`
	UserId  string `json:"userId"`
}

type ApproveJoinRequestResponse struct {
	Group *Group `json:"group"`
}

type RejectJoinRequestRequest struct {
	GroupId string `json:"groupId"`
	UserId  string `json:"userId"`
}

type RejectJoinRequestResponse struct{}

// MemberBalance is one member's contribution totals.
type MemberBalance struct {
	MemberId      string `json:"memberId"`
	TotalPaid     string `json:"totalPaid"`
	TotalReceived string `json:"totalReceived"`
	Net           string `json:"net"`
	PaymentsMade  int    `json:"paymentsMade"`
}

type GetGroupSummaryRequest struct {
	GroupId string `json:"groupId"`
}

type GetGroupSummaryResponse struct {
	Balances    []*MemberBalance       `json:"balances"`
	CurrentPool string                 `json:"currentPool"`
	NextDueDate *timestamppb.Timestamp `json:"nextDueDate,omitempty"`
}

// Payment is the public view of a payment record.
type Payment struct {
	Reference        string                 `json:"reference"`
	GroupId          string                 `json:"groupId"`
	Payer            string                 `json:"payer"`
	Recipient        string                 `json:"recipient"`
	Amount           string                 `json:"amount"`
	Round            int                    `json:"round"`
	Status           string                 `json:"status"`
	AuthorizationUrl string                 `json:"authorizationUrl,omitempty"`
	CreatedAt        *timestamppb.Timestamp `json:"createdAt,omitempty"`
	SettledAt        *timestamppb.Timestamp `json:"settledAt,omitempty"`
}

type InitializePaymentRequest struct {
	GroupId string `json:"groupId"`
	Amount  string `json:"amount"`
}

type InitializePaymentResponse struct {
	Payment    *Payment `json:"payment"`
	AccessCode string   `json:"accessCode"`
}

type VerifyPaymentRequest struct {
	Reference string `json:"reference"`
}

type VerifyPaymentResponse struct {
	Payment        *Payment `json:"payment"`
	Group          *Group   `json:"group"`
	Applied        bool     `json:"applied"`
	RoundCompleted bool     `json:"roundCompleted"`
	CycleCompleted bool     `json:"cycleCompleted"`
}

type ListPaymentsRequest struct {
	GroupId string `json:"groupId"`

	// Round filters to one round when non-zero.
	Round int `json:"round,omitempty"`
}

type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}
