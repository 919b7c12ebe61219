package query

import (
	"context"

	"github.com/tair/library-ledger/internal/library/domain"
)

// ListPoliciesQuery represents the query to list inventory policies
type ListPoliciesQuery struct {
	Limit  int
	Offset int
}

// ListPoliciesHandler handles inventory policy listing
type ListPoliciesHandler struct {
	policies domain.InventoryPolicyRepository
}

// NewListPoliciesHandler creates a new list policies handler
func NewListPoliciesHandler(policies domain.InventoryPolicyRepository) *ListPoliciesHandler {
	return &ListPoliciesHandler{policies: policies}
}

// Handle executes the list policies query
func (h *ListPoliciesHandler) Handle(ctx context.Context, q ListPoliciesQuery) ([]domain.InventoryPolicy, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	return h.policies.FindAll(ctx, q.Limit, q.Offset)
}
