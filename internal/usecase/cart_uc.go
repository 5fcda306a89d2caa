package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/phenrril/prostore/internal/domain"
)

type CartUC struct {
	Carts    domain.CartRepo
	Products domain.ProductRepo
	Pages    domain.PageInvalidator
}

type CartResult struct {
	Cart    *domain.Cart
	Message string
}

// GetCart resolves the caller's cart. It returns nil without error when there is none.
func (uc *CartUC) GetCart(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	if owner.SessionCartID == "" && owner.UserID == nil {
		return nil, nil
	}
	c, err := uc.Carts.FindByOwner(ctx, owner)
	if isNotFound(err) {
		return nil, nil
	}
	return c, err
}

func (uc *CartUC) AddItem(ctx context.Context, owner domain.CartOwner, productID uuid.UUID) (*CartResult, error) {
	if owner.SessionCartID == "" {
		return nil, domain.ErrNoSessionCart
	}
	p, err := uc.Products.FindByID(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("product")
		}
		return nil, err
	}
	updated := false
	c, err := uc.Carts.Mutate(ctx, owner, func(c *domain.Cart) (*domain.Cart, error) {
		if c == nil {
			c = &domain.Cart{ID: uuid.New(), UserID: owner.UserID, SessionCartID: &owner.SessionCartID}
		}
		items := append([]domain.CartItem(nil), c.Items...)
		if i, line := c.Line(p.ID); line != nil {
			if p.Stock < line.Qty+1 {
				return nil, domain.ErrInsufficientStock
			}
			items[i].Qty = line.Qty + 1
			updated = true
		} else {
			if p.Stock < 1 {
				return nil, domain.ErrInsufficientStock
			}
			items = append(items, lineFor(p))
		}
		c.SetItems(items)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	uc.invalidate(p.Slug)
	msg := fmt.Sprintf("%s added to cart", p.Name)
	if updated {
		msg = fmt.Sprintf("%s updated in cart", p.Name)
	}
	return &CartResult{Cart: c, Message: msg}, nil
}

func (uc *CartUC) RemoveItem(ctx context.Context, owner domain.CartOwner, productID uuid.UUID) (*CartResult, error) {
	if owner.SessionCartID == "" {
		return nil, domain.ErrNoSessionCart
	}
	p, err := uc.Products.FindByID(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("product")
		}
		return nil, err
	}
	removed := false
	c, err := uc.Carts.Mutate(ctx, owner, func(c *domain.Cart) (*domain.Cart, error) {
		if c == nil {
			return nil, domain.NotFound("cart")
		}
		i, line := c.Line(productID)
		if line == nil {
			return nil, domain.NotFound("item")
		}
		items := append([]domain.CartItem(nil), c.Items...)
		if line.Qty <= 1 {
			items = append(items[:i], items[i+1:]...)
			removed = true
		} else {
			items[i].Qty = line.Qty - 1
		}
		c.SetItems(items)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	uc.invalidate(p.Slug)
	msg := fmt.Sprintf("%s updated in cart", p.Name)
	if removed {
		msg = fmt.Sprintf("%s removed from cart", p.Name)
	}
	return &CartResult{Cart: c, Message: msg}, nil
}

func (uc *CartUC) invalidate(slug string) {
	if uc.Pages != nil {
		uc.Pages.InvalidateProduct(slug)
	}
}

func lineFor(p *domain.Product) domain.CartItem {
	img := ""
	if len(p.Images) > 0 {
		img = p.Images[0]
	}
	return domain.CartItem{ProductID: p.ID, Name: p.Name, Slug: p.Slug, Image: img, Price: p.Price, Qty: 1}
}
