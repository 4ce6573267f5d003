package services

import (
	"context"

	"github.com/pkg/errors"

	"storekeep/internal/domain"
	"storekeep/internal/repos"
	"storekeep/internal/validate"
)

// AssertOwns resolves the resource's ownership chain and checks that it ends
// at ownerID. It fails with ErrNotFound when id is malformed or the resource
// does not exist, and ErrForbidden when it belongs to someone else. r may be
// bound to an open transaction; the check then sees the transaction's view.
func AssertOwns(ctx context.Context, r *repos.Repos, ownerID string, kind domain.ResourceKind, id string) (domain.Scope, error) {
	if _, ok := validate.ID(id); !ok {
		return domain.Scope{}, errors.Wrapf(domain.ErrNotFound, "%s %q", kind, id)
	}
	sc, err := r.Scopes.Resolve(ctx, kind, id)
	if err != nil {
		return domain.Scope{}, err
	}
	if ownerID == "" || sc.OwnerID != ownerID {
		return domain.Scope{}, errors.Wrapf(domain.ErrForbidden, "%s %s", kind, id)
	}
	return sc, nil
}
