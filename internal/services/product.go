package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/startup-vidyapith/apiserver/internal/authz"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/storage"
	"github.com/startup-vidyapith/apiserver/internal/store"
	"github.com/startup-vidyapith/apiserver/types"
)

// ProductInput carries the fields of a product. Image may be a URL, a data
// URL or raw base64.
type ProductInput struct {
	Name        string
	Description string
	Category    string
	Status      string
	URL         string
	Tags        []string
	Image       string
}

// ProductService encapsulates product catalog use-cases.
type ProductService struct {
	repo     ProductRepository
	profiles FounderProfileRepository
	assets   AssetResolver
	log      *logger.Logger
}

func NewProductService(repo ProductRepository, profiles FounderProfileRepository, assets AssetResolver, log *logger.Logger) *ProductService {
	return &ProductService{
		repo:     repo,
		profiles: profiles,
		assets:   assets,
		log:      log.With("service", "ProductService"),
	}
}

func (s *ProductService) List(ctx context.Context, founderID int) ([]types.Product, error) {
	return s.repo.List(ctx, founderID)
}

func (s *ProductService) Get(ctx context.Context, id int) (types.Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Product{}, notFound(err, "product")
	}
	return product, nil
}

// Create adds a product to the actor's founder profile.
func (s *ProductService) Create(ctx context.Context, actor authz.Actor, in ProductInput) (types.Product, error) {
	if !authz.CanManageProfile(actor) {
		return types.Product{}, forbidden("only founders can add products")
	}
	if _, err := s.profiles.Get(ctx, actor.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Product{}, invalid("profile", "create your founder profile before adding products")
		}
		return types.Product{}, err
	}

	product := types.Product{FounderID: actor.UserID}
	if err := s.fill(ctx, &product, in); err != nil {
		return types.Product{}, err
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return types.Product{}, err
	}
	s.log.Info("product created", "product_id", created.ID, "founder_id", actor.UserID)
	return created, nil
}

// Update replaces the fields of a product owned by the actor.
func (s *ProductService) Update(ctx context.Context, actor authz.Actor, id int, in ProductInput) (types.Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Product{}, notFound(err, "product")
	}
	if !authz.Allowed(actor, authz.ActionEdit, authz.Product(product)) {
		return types.Product{}, forbidden("you can only edit your own products")
	}
	if err := s.fill(ctx, &product, in); err != nil {
		return types.Product{}, err
	}
	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return types.Product{}, notFound(err, "product")
	}
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, actor authz.Actor, id int) error {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return notFound(err, "product")
	}
	if !authz.Allowed(actor, authz.ActionDelete, authz.Product(product)) {
		return forbidden("you can only delete your own products")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, "product")
	}
	s.log.Info("product deleted", "product_id", id, "by", actor.UserID)
	return nil
}

func (s *ProductService) fill(ctx context.Context, p *types.Product, in ProductInput) error {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	if p.Name == "" {
		return invalid("name", "product name is required")
	}
	if p.Description == "" {
		return invalid("description", "product description is required")
	}

	category, ok := types.ParseProductCategory(in.Category)
	if !ok {
		return invalid("category", "product category is not supported")
	}
	p.Category = category

	status := types.ProductIdea
	if strings.TrimSpace(in.Status) != "" {
		status, ok = types.ParseProductStatus(in.Status)
		if !ok {
			return invalid("status", "product status is not supported")
		}
	}
	p.Status = status

	p.URL = strings.TrimSpace(in.URL)
	if p.URL != "" && !isWebURL(p.URL) {
		return invalid("url", "url must be an http or https link")
	}
	p.Tags = uniqueLabels(in.Tags)

	image, err := resolveAsset(ctx, s.assets, storage.AssetProductImage, "image", strings.TrimSpace(in.Image))
	if err != nil {
		return err
	}
	p.Image = image
	return nil
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
