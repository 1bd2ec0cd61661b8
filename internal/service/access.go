package service

import (
	"estimato/internal/policy"
	"estimato/internal/repository"
)

// Adapters from storage rows to the policy value types.

func policyDoc(est *repository.Estimation) policy.Document {
	return policy.Document{ID: est.ID, OwnerID: est.OwnerID}
}

func policyGrants(shares []*repository.Share) []policy.Grant {
	grants := make([]policy.Grant, 0, len(shares))
	for _, s := range shares {
		g := policy.Grant{
			Role:  policy.Role(s.Role),
			State: policy.State(s.Status),
		}
		if s.UserID != nil {
			g.UserID = *s.UserID
		}
		if s.Email != nil {
			g.Email = *s.Email
		}
		grants = append(grants, g)
	}
	return grants
}

func policyActor(u *repository.User) policy.Actor {
	if u == nil {
		return policy.Actor{}
	}
	return policy.Actor{ID: u.ID, Email: u.Email}
}
