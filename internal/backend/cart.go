package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/BadarHossain1/harris-vale-storefront/internal/cart"
	"github.com/BadarHossain1/harris-vale-storefront/internal/identity"
)

// CartStore adapts the backend's cart endpoints to the reconciliation
// engine's Store interface. Line IDs are the backend's own document IDs and
// are passed through untouched.
type CartStore struct {
	client *Client
}

// NewCartStore wraps a backend client.
func NewCartStore(client *Client) *CartStore {
	return &CartStore{client: client}
}

// FetchLines loads the actor's full cart. Guests are looked up by ID,
// authenticated shoppers by email. A malformed response degrades to an empty
// cart rather than an error so the storefront still renders.
func (s *CartStore) FetchLines(ctx context.Context, actor identity.Actor) ([]cart.Line, error) {
	q := url.Values{}
	q.Set("userId", actor.ID)
	if actor.Email != "" {
		q.Set("userEmail", actor.Email)
	}

	var lines []cart.Line
	if err := s.client.getJSON(ctx, "/api/cart?"+q.Encode(), &lines); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, nil
		}
		return nil, err
	}
	return lines, nil
}

// AddLineRequest is the denormalized add-to-cart payload. The backend stores
// the product fields alongside the line so the cart renders without joins.
type AddLineRequest struct {
	ProductID string    `json:"productId" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Price     float64   `json:"price" validate:"gte=0"`
	Image     string    `json:"image"`
	Size      cart.Size `json:"size" validate:"required,oneof=M L XL XXL"`
	Quantity  int       `json:"quantity" validate:"gte=1"`
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail,omitempty"`
	UserName  string    `json:"userName,omitempty"`
}

// AddLine places a product in the actor's cart.
func (s *CartStore) AddLine(ctx context.Context, actor identity.Actor, req AddLineRequest) error {
	req.UserID = actor.ID
	req.UserEmail = actor.Email
	req.UserName = actor.DisplayName
	return s.client.sendJSON(ctx, http.MethodPost, "/api/cart/add", req, nil)
}

// UpdateQuantity sets the absolute quantity of one line.
func (s *CartStore) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	path := fmt.Sprintf("/api/cart/%s", url.PathEscape(lineID))
	return s.client.sendJSON(ctx, http.MethodPut, path, map[string]int{"quantity": quantity}, nil)
}

// RemoveLine deletes one line.
func (s *CartStore) RemoveLine(ctx context.Context, lineID string) error {
	path := fmt.Sprintf("/api/cart/%s", url.PathEscape(lineID))
	return s.client.sendJSON(ctx, http.MethodDelete, path, nil, nil)
}

// Clear deletes every line belonging to the actor.
func (s *CartStore) Clear(ctx context.Context, actor identity.Actor) error {
	q := url.Values{}
	q.Set("userId", actor.ID)
	if actor.Email != "" {
		q.Set("userEmail", actor.Email)
	}
	return s.client.sendJSON(ctx, http.MethodDelete, "/api/cart/clear?"+q.Encode(), nil, nil)
}
