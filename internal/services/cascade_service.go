package services

import (
	"context"

	"storekeep/internal/domain"
	applog "storekeep/internal/log"
	"storekeep/internal/repos"
	"storekeep/internal/storage"
)

// CascadeService deletes a resource together with everything beneath it.
// Rows go in one transaction, bottom-up; the image directory is removed only
// after the commit.
type CascadeService struct {
	Store *repos.Datastore
	Files storage.Storage
}

func NewCascadeService(store *repos.Datastore, files storage.Storage) *CascadeService {
	return &CascadeService{Store: store, Files: files}
}

// CascadeReport counts the rows a cascade removed. CleanupErr is set when the
// rows are gone but the image directory could not be removed.
type CascadeReport struct {
	Stores     int64 `json:"stores"`
	Categories int64 `json:"categories"`
	Products   int64 `json:"products"`
	Sales      int64 `json:"sales"`
	CleanupErr error `json:"-"`
}

func (s *CascadeService) DeleteStore(ctx context.Context, ownerID, storeID string) (*CascadeReport, error) {
	return s.cascade(ctx, ownerID, domain.KindStore, storeID, func(r *repos.Repos, rep *CascadeReport) error {
		return deleteStores(ctx, r, []string{storeID}, rep)
	})
}

func (s *CascadeService) DeleteCategory(ctx context.Context, ownerID, categoryID string) (*CascadeReport, error) {
	return s.cascade(ctx, ownerID, domain.KindCategory, categoryID, func(r *repos.Repos, rep *CascadeReport) error {
		return deleteCategories(ctx, r, []string{categoryID}, rep)
	})
}

func (s *CascadeService) DeleteProduct(ctx context.Context, ownerID, productID string) (*CascadeReport, error) {
	return s.cascade(ctx, ownerID, domain.KindProduct, productID, func(r *repos.Repos, rep *CascadeReport) error {
		return deleteProducts(ctx, r, []string{productID}, rep)
	})
}

// DeleteOwner removes an owner account with all of its stores. It is an
// admin operation, so there is no ownership check.
func (s *CascadeService) DeleteOwner(ctx context.Context, ownerID string) (*CascadeReport, error) {
	rep := &CascadeReport{}
	err := s.Store.InTx(ctx, func(r *repos.Repos) error {
		if _, err := r.Owners.ByID(ctx, ownerID); err != nil {
			return err
		}
		storeIDs, err := r.Stores.IDsByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		if err := deleteStores(ctx, r, storeIDs, rep); err != nil {
			return err
		}
		return r.Owners.Delete(ctx, ownerID)
	})
	if err != nil {
		return nil, err
	}
	s.cleanup(ctx, storage.OwnerDir(ownerID), rep)
	return rep, nil
}

func (s *CascadeService) cascade(ctx context.Context, ownerID string, kind domain.ResourceKind, id string,
	del func(r *repos.Repos, rep *CascadeReport) error) (*CascadeReport, error) {
	rep := &CascadeReport{}
	var sc domain.Scope
	err := s.Store.InTx(ctx, func(r *repos.Repos) error {
		var err error
		if sc, err = AssertOwns(ctx, r, ownerID, kind, id); err != nil {
			return err
		}
		return del(r, rep)
	})
	if err != nil {
		return nil, err
	}
	s.cleanup(ctx, storage.Dir(sc, kind), rep)
	return rep, nil
}

// cleanup runs after commit and cannot undo it, so failures are only logged
// and reported. It is not cut short by a cancelled request.
func (s *CascadeService) cleanup(ctx context.Context, dir string, rep *CascadeReport) {
	if err := s.Files.RemoveAll(context.WithoutCancel(ctx), dir); err != nil {
		rep.CleanupErr = err
		applog.Warn(nil, "cascade.cleanup.fail", err, map[string]any{"dir": dir})
	}
}

func deleteStores(ctx context.Context, r *repos.Repos, ids []string, rep *CascadeReport) error {
	if len(ids) == 0 {
		return nil
	}
	catIDs, err := r.Categories.IDsByStores(ctx, ids)
	if err != nil {
		return err
	}
	if err := deleteCategories(ctx, r, catIDs, rep); err != nil {
		return err
	}
	n, err := r.Stores.DeleteByIDs(ctx, ids)
	rep.Stores += n
	return err
}

func deleteCategories(ctx context.Context, r *repos.Repos, ids []string, rep *CascadeReport) error {
	if len(ids) == 0 {
		return nil
	}
	prodIDs, err := r.Products.IDsByCategories(ctx, ids)
	if err != nil {
		return err
	}
	if err := deleteProducts(ctx, r, prodIDs, rep); err != nil {
		return err
	}
	n, err := r.Categories.DeleteByIDs(ctx, ids)
	rep.Categories += n
	return err
}

func deleteProducts(ctx context.Context, r *repos.Repos, ids []string, rep *CascadeReport) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := r.Sales.DeleteByProducts(ctx, ids)
	rep.Sales += n
	if err != nil {
		return err
	}
	n, err = r.Products.DeleteByIDs(ctx, ids)
	rep.Products += n
	return err
}
