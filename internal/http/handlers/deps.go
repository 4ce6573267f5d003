package handlers

import (
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"storekeep/internal/config"
	"storekeep/internal/repos"
	"storekeep/internal/services"
	"storekeep/internal/storage"
)

const mediaPrefix = "/media"

type Deps struct {
	AuthSvc *services.AuthService

	Auth       *AuthHandler
	Admin      *AdminHandler
	Owner      *OwnerHandler
	Stores     *StoreHandler
	Categories *CategoryHandler
	Products   *ProductHandler
	Sales      *SaleHandler
	Inventory  *InventoryHandler
	Media      *MediaHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	store := repos.NewDatastore(db)

	mediaDir := cfg.MediaDir
	if abs, err := filepath.Abs(mediaDir); err == nil {
		mediaDir = abs
	}
	var files storage.Storage = storage.Noop{}
	if cfg.ImagesEnabled {
		files = storage.NewLocal(mediaDir, mediaPrefix)
	}

	authSvc := services.NewAuthService(store, cfg.JWTSecret, cfg.TokenTTL)
	cascadeSvc := services.NewCascadeService(store, files)
	catalogSvc := services.NewCatalogService(store, files, cfg.ImagesEnabled)
	saleSvc := services.NewSaleService(store)
	invSvc := services.NewInventoryService(store)
	ownerSvc := services.NewOwnerService(store, cascadeSvc)
	adminSvc := services.NewAdminService(store)

	return &Deps{
		AuthSvc:    authSvc,
		Auth:       &AuthHandler{Auth: authSvc},
		Admin:      &AdminHandler{Owners: ownerSvc, Admins: adminSvc, Files: files},
		Owner:      &OwnerHandler{Owners: ownerSvc, Files: files},
		Stores:     &StoreHandler{Catalog: catalogSvc, Cascade: cascadeSvc, Sales: saleSvc, Files: files, MaxImage: cfg.MaxUploadBytes},
		Categories: &CategoryHandler{Catalog: catalogSvc, Cascade: cascadeSvc, Files: files, MaxImage: cfg.MaxUploadBytes},
		Products:   &ProductHandler{Catalog: catalogSvc, Cascade: cascadeSvc, Sales: saleSvc, Files: files, MaxImage: cfg.MaxUploadBytes},
		Sales:      &SaleHandler{Sales: saleSvc},
		Inventory:  &InventoryHandler{Inv: invSvc},
		Media:      &MediaHandler{Root: mediaDir},
	}
}
