package node

import "testing"

func TestBoundedQueue_BackpressureAtCapacity(t *testing.T) {
	q := newBoundedQueue(2)

	if !q.TryPush("a") {
		t.Fatalf("first push should succeed")
	}
	if !q.TryPush("b") {
		t.Fatalf("second push should succeed")
	}
	if q.TryPush("c") {
		t.Fatalf("push at capacity should be rejected")
	}
	if !q.AtCapacity() {
		t.Fatalf("queue should report at capacity")
	}

	item, ok := q.Pop()
	if !ok || item != "a" {
		t.Fatalf("expected FIFO pop of 'a', got %v ok=%v", item, ok)
	}
	if !q.TryPush("c") {
		t.Fatalf("push should succeed after room freed")
	}
}

func TestBoundedQueue_PopEmpty(t *testing.T) {
	q := newBoundedQueue(1)
	if _, ok := q.Pop(); ok {
		t.Fatalf("pop on empty queue should report false")
	}
}
