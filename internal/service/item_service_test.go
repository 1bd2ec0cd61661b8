package service

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestCreateItemsAppendInOrder(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	owner := registerUser(t, services, "Owner", "owner@example.com")
	est := createEstimation(t, services, owner.ID, "Sprint 12")

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		if _, err := services.Item.Create(ctx, owner, est.ID, title, 3, 1); err != nil {
			t.Fatalf("Create(%s) failed: %v", title, err)
		}
	}

	detail, err := services.Estimation.Get(ctx, owner, est.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(detail.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(detail.Items))
	}
	for i, it := range detail.Items {
		if it.Title != titles[i] {
			t.Errorf("item %d = %s, want %s", i, it.Title, titles[i])
		}
		if want := float64(i + 1); it.OrderKey != want {
			t.Errorf("item %d order key = %v, want %v", i, it.OrderKey, want)
		}
	}
}

func TestUpdateItemRecomputesSummary(t *testing.T) {
	services, _, dispatcher := newTestServices(t)
	ctx := context.Background()

	owner := registerUser(t, services, "Owner", "owner@example.com")
	est := createEstimation(t, services, owner.ID, "Sprint 12")

	created, err := services.Item.Create(ctx, owner, est.ID, "Task", 4, 2)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Total != 8 {
		t.Errorf("row total = %d, want 8", created.Total)
	}
	// Quantity scales the row total, never the estimated sum.
	if created.Summary.Sum != 4 {
		t.Errorf("sum = %v, want 4", created.Summary.Sum)
	}

	newValue := 9
	result, err := services.Item.Update(ctx, owner, est.ID, created.Item.ID, ItemUpdate{Value: &newValue})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if result.Item.Value != 9 || result.Total != 18 {
		t.Errorf("updated value/total = %d/%d, want 9/18", result.Item.Value, result.Total)
	}
	if result.Summary.Sum != 9 {
		t.Errorf("sum = %v, want 9", result.Summary.Sum)
	}
	if result.Summary.Total != result.Summary.Sum+result.Summary.Buffer {
		t.Errorf("total %v != sum %v + buffer %v", result.Summary.Total, result.Summary.Sum, result.Summary.Buffer)
	}

	if len(dispatcher.fragments) != 2 {
		t.Fatalf("fragments = %d, want 2 (append then replace)", len(dispatcher.fragments))
	}
	frag, ok := dispatcher.fragments[1].(ItemFragment)
	if !ok {
		t.Fatalf("fragment type = %T", dispatcher.fragments[1])
	}
	if frag.Action != "replace" {
		t.Errorf("fragment action = %s, want replace", frag.Action)
	}
	if frag.Item.ID != created.Item.ID || frag.Item.Value != 9 || frag.Item.Total != 18 {
		t.Errorf("fragment row = %+v", frag.Item)
	}
	if frag.Summary.Sum != 9 {
		t.Errorf("fragment sum = %v, want 9", frag.Summary.Sum)
	}
}

func TestUpdateItemValidation(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	owner := registerUser(t, services, "Owner", "owner@example.com")
	est := createEstimation(t, services, owner.ID, "Sprint 12")
	created, err := services.Item.Create(ctx, owner, est.ID, "Task", 4, 2)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	bad := -1
	zero := 0
	tests := []struct {
		name  string
		patch ItemUpdate
	}{
		{"negative value", ItemUpdate{Value: &bad}},
		{"zero quantity", ItemUpdate{Quantity: &zero}},
		{"negative actual", ItemUpdate{Actual: &bad}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := services.Item.Update(ctx, owner, est.ID, created.Item.ID, tt.patch)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}

	if _, err := services.Item.Create(ctx, owner, est.ID, "Bad", -1, 1); err == nil {
		t.Error("negative value accepted on create")
	}
}

func TestActualLifecycle(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	owner := registerUser(t, services, "Owner", "owner@example.com")
	est := createEstimation(t, services, owner.ID, "Sprint 12")
	created, err := services.Item.Create(ctx, owner, est.ID, "Task", 10, 1)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	actual := 4
	result, err := services.Item.Update(ctx, owner, est.ID, created.Item.ID, ItemUpdate{Actual: &actual})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if result.Summary.ActualSum != 4 {
		t.Errorf("actual sum = %v, want 4", result.Summary.ActualSum)
	}
	if result.Summary.BufferHealth <= 0 {
		t.Errorf("buffer health = %v, want positive", result.Summary.BufferHealth)
	}

	result, err = services.Item.Update(ctx, owner, est.ID, created.Item.ID, ItemUpdate{ClearActual: true})
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if result.Item.Actual != nil {
		t.Error("actual not cleared")
	}
	if result.Summary.ActualSum != 0 {
		t.Errorf("actual sum = %v, want 0 after clear", result.Summary.ActualSum)
	}
}

func TestReorderBetweenNeighbors(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	owner := registerUser(t, services, "Owner", "owner@example.com")
	est := createEstimation(t, services, owner.ID, "Sprint 12")

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		r, err := services.Item.Create(ctx, owner, est.ID, title, 1, 1)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		ids = append(ids, r.Item.ID)
	}

	// Move c between a and b.
	moved, err := services.Item.Reorder(ctx, owner, est.ID, ids[2], &ids[0], &ids[1], nil)
	if err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}
	if moved.OrderKey <= 1 || moved.OrderKey >= 2 {
		t.Errorf("order key = %v, want strictly between 1 and 2", moved.OrderKey)
	}

	detail, _ := services.Estimation.Get(ctx, owner, est.ID)
	gotTitles := []string{detail.Items[0].Title, detail.Items[1].Title, detail.Items[2].Title}
	want := []string{"a", "c", "b"}
	for i := range want {
		if gotTitles[i] != want[i] {
			t.Fatalf("order = %v, want %v", gotTitles, want)
		}
	}

	// Move b to the top.
	moved, err = services.Item.Reorder(ctx, owner, est.ID, ids[1], nil, &ids[0], nil)
	if err != nil {
		t.Fatalf("Reorder to head failed: %v", err)
	}
	if moved.OrderKey <= 0 || moved.OrderKey >= 1 {
		t.Errorf("head order key = %v, want in (0, 1)", moved.OrderKey)
	}

	// Move a to the bottom.
	moved, err = services.Item.Reorder(ctx, owner, est.ID, ids[0], &ids[2], nil, nil)
	if err != nil {
		t.Fatalf("Reorder to tail failed: %v", err)
	}
	if moved.OrderKey <= 2 || math.IsInf(moved.OrderKey, 0) {
		t.Errorf("tail order key = %v, want finite and above 2", moved.OrderKey)
	}
}

func TestReorderWithExplicitKey(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	owner := registerUser(t, services, "Owner", "owner@example.com")
	est := createEstimation(t, services, owner.ID, "Sprint 12")

	created, err := services.Item.Create(ctx, owner, est.ID, "a", 1, 1)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	key := 42.5
	moved, err := services.Item.Reorder(ctx, owner, est.ID, created.Item.ID, nil, nil, &key)
	if err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}
	if moved.OrderKey != 42.5 {
		t.Errorf("order key = %v, want 42.5", moved.OrderKey)
	}

	nan := math.NaN()
	if _, err := services.Item.Reorder(ctx, owner, est.ID, created.Item.ID, nil, nil, &nan); err == nil {
		t.Error("NaN key accepted")
	}
}

func TestDeleteItem(t *testing.T) {
	services, _, dispatcher := newTestServices(t)
	ctx := context.Background()

	owner := registerUser(t, services, "Owner", "owner@example.com")
	est := createEstimation(t, services, owner.ID, "Sprint 12")

	a, err := services.Item.Create(ctx, owner, est.ID, "a", 5, 1)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := services.Item.Create(ctx, owner, est.ID, "b", 7, 1); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	summary, err := services.Item.Delete(ctx, owner, est.ID, a.Item.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if summary.Sum != 7 {
		t.Errorf("sum after delete = %v, want 7", summary.Sum)
	}

	last := dispatcher.fragments[len(dispatcher.fragments)-1]
	if frag, ok := last.(ItemFragment); !ok || frag.Action != "remove" {
		t.Errorf("last fragment = %#v, want a remove for the deleted row", last)
	}

	if _, err := services.Item.Delete(ctx, owner, est.ID, a.Item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete err = %v, want ErrNotFound", err)
	}
}

func TestItemFromAnotherEstimationIsNotFound(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	owner := registerUser(t, services, "Owner", "owner@example.com")
	estA := createEstimation(t, services, owner.ID, "A")
	estB := createEstimation(t, services, owner.ID, "B")

	created, err := services.Item.Create(ctx, owner, estA.ID, "a", 1, 1)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	v := 2
	if _, err := services.Item.Update(ctx, owner, estB.ID, created.Item.ID, ItemUpdate{Value: &v}); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-estimation update err = %v, want ErrNotFound", err)
	}
}
