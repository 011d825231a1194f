package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/startup-vidyapith/apiserver/internal/store"
	"github.com/startup-vidyapith/apiserver/types"
)

type ProductRepository struct {
	mu       sync.RWMutex
	nextID   int
	products map[int]types.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[int]types.Product)}
}

func cloneProduct(p types.Product) types.Product {
	p.Tags = cloneList(p.Tags)
	return p
}

func (r *ProductRepository) List(_ context.Context, founderID int) ([]types.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Product, 0)
	for _, p := range r.products {
		if founderID > 0 && p.FounderID != founderID {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	slices.SortFunc(out, func(a, b types.Product) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out, nil
}

func (r *ProductRepository) Get(_ context.Context, id int) (types.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return types.Product{}, store.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *ProductRepository) Create(_ context.Context, product types.Product) (types.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	product.ID = r.nextID
	product.CreatedAt = now()
	product.UpdatedAt = product.CreatedAt
	product = cloneProduct(product)
	r.products[product.ID] = product
	return cloneProduct(product), nil
}

func (r *ProductRepository) Update(_ context.Context, product types.Product) (types.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.products[product.ID]
	if !ok {
		return types.Product{}, store.ErrNotFound
	}
	product.FounderID = stored.FounderID
	product.CreatedAt = stored.CreatedAt
	product.UpdatedAt = now()
	product = cloneProduct(product)
	r.products[product.ID] = product
	return cloneProduct(product), nil
}

func (r *ProductRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.products, id)
	return nil
}
