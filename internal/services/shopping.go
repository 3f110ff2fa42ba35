package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"notinha/internal/core"
	"notinha/internal/log"
)

// ShoppingService manages the user's shopping list. Quantities are free-form
// text and never validated numerically.
type ShoppingService struct {
	store  ShoppingStore
	logger *log.Logger
	now    func() time.Time
}

func NewShoppingService(store ShoppingStore, logger *log.Logger) *ShoppingService {
	return &ShoppingService{
		store:  store,
		logger: logger.WithComponent(log.ComponentShopping),
		now:    time.Now,
	}
}

// Add creates a new open item. The name is required; an empty quantity
// defaults to "1".
func (s *ShoppingService) Add(ctx context.Context, userID, name, quantity string) (core.ShoppingListItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ShoppingListItem{}, fmt.Errorf("item name is required")
	}
	quantity = strings.TrimSpace(quantity)
	if quantity == "" {
		quantity = "1"
	}

	item := core.ShoppingListItem{
		ID:        uuid.New(),
		Name:      name,
		Quantity:  quantity,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateShoppingItem(ctx, item); err != nil {
		return core.ShoppingListItem{}, err
	}

	s.logger.InfoContext(ctx, "Shopping item added",
		log.FieldProductName, item.Name)
	return item, nil
}

// List returns the user's items, newest first.
func (s *ShoppingService) List(ctx context.Context, userID string) ([]core.ShoppingListItem, error) {
	return s.store.ListShoppingItems(ctx, userID)
}

// SetCompleted toggles an item's done state.
func (s *ShoppingService) SetCompleted(ctx context.Context, id uuid.UUID, completed bool) error {
	return s.store.SetShoppingItemCompleted(ctx, id, completed)
}

// Remove deletes an item from the list.
func (s *ShoppingService) Remove(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteShoppingItem(ctx, id)
}
