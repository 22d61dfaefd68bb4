package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Product is the backend's product document.
type Product struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
	Color       string   `json:"color"`
}

// Category is the backend's category document.
type Category struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Color       string `json:"color"`
}

// CategoryUpdate carries the editable category fields. All four are required
// by the backend; validation happens before the request is sent.
type CategoryUpdate struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Image       string `json:"image" validate:"required,url"`
	Color       string `json:"color" validate:"required"`
}

// ListProducts fetches the whole product catalog, optionally filtered by
// category slug.
func (c *Client) ListProducts(ctx context.Context, category string) ([]Product, error) {
	path := "/api/products"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var products []Product
	if err := c.getJSON(ctx, path, &products); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, nil
		}
		return nil, err
	}
	return products, nil
}

// GetProduct fetches one product by ID.
func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := c.getJSON(ctx, "/api/products/"+url.PathEscape(id), &p)
	return p, err
}

// ListCategories fetches all categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.getJSON(ctx, "/api/categories", &categories); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, nil
		}
		return nil, err
	}
	return categories, nil
}

// GetCategory fetches one category by ID.
func (c *Client) GetCategory(ctx context.Context, id string) (Category, error) {
	var cat Category
	err := c.getJSON(ctx, "/api/categories/"+url.PathEscape(id), &cat)
	return cat, err
}

// UpdateCategory replaces a category's editable fields and returns the
// updated document.
func (c *Client) UpdateCategory(ctx context.Context, id string, upd CategoryUpdate) (Category, error) {
	var cat Category
	path := fmt.Sprintf("/api/categories/%s", url.PathEscape(id))
	err := c.sendJSON(ctx, http.MethodPut, path, upd, &cat)
	return cat, err
}
