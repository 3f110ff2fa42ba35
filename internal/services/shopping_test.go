package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"notinha/internal/core"
)

type fakeShoppingStore struct {
	items []core.ShoppingListItem
}

func (f *fakeShoppingStore) CreateShoppingItem(_ context.Context, item core.ShoppingListItem) error {
	f.items = append(f.items, item)
	return nil
}

func (f *fakeShoppingStore) ListShoppingItems(_ context.Context, userID string) ([]core.ShoppingListItem, error) {
	var out []core.ShoppingListItem
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeShoppingStore) SetShoppingItemCompleted(_ context.Context, id uuid.UUID, completed bool) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Completed = completed
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeShoppingStore) DeleteShoppingItem(_ context.Context, id uuid.UUID) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func TestShoppingAdd(t *testing.T) {
	store := &fakeShoppingStore{}
	svc := NewShoppingService(store, testLogger())

	item, err := svc.Add(context.Background(), "u1", "  Café  ", "")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if item.Name != "Café" {
		t.Errorf("Name = %q, want trimmed %q", item.Name, "Café")
	}
	if item.Quantity != "1" {
		t.Errorf("Quantity = %q, want default %q", item.Quantity, "1")
	}
	if item.Completed {
		t.Error("new item created completed")
	}

	if _, err := svc.Add(context.Background(), "u1", "   ", "2"); err == nil {
		t.Error("Add() accepted an empty name")
	}
}

func TestShoppingFreeFormQuantity(t *testing.T) {
	store := &fakeShoppingStore{}
	svc := NewShoppingService(store, testLogger())

	item, err := svc.Add(context.Background(), "u1", "Banana", "uns 2kg")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if item.Quantity != "uns 2kg" {
		t.Errorf("Quantity = %q, free-form text must pass through", item.Quantity)
	}
}

func TestShoppingCompleteAndRemove(t *testing.T) {
	store := &fakeShoppingStore{}
	svc := NewShoppingService(store, testLogger())

	item, err := svc.Add(context.Background(), "u1", "Pão", "6")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.SetCompleted(context.Background(), item.ID, true); err != nil {
		t.Fatalf("SetCompleted() error = %v", err)
	}
	got, _ := svc.List(context.Background(), "u1")
	if len(got) != 1 || !got[0].Completed {
		t.Errorf("items = %+v, want one completed item", got)
	}

	if err := svc.Remove(context.Background(), item.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	got, _ = svc.List(context.Background(), "u1")
	if len(got) != 0 {
		t.Errorf("items = %+v, want empty list", got)
	}
}
