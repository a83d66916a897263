package gocapture

import (
	"sync"
	"testing"

	"go.viam.com/test"
)

func TestSequenceOrder(t *testing.T) {
	seq := newSequence()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 100; i++ {
		i := i
		test.That(t, seq.post(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}), test.ShouldBeTrue)
	}
	test.That(t, seq.postWait(func() {}), test.ShouldBeTrue)

	mu.Lock()
	defer mu.Unlock()
	test.That(t, len(order), test.ShouldEqual, 100)
	for i, got := range order {
		test.That(t, got, test.ShouldEqual, i)
	}
	seq.close()
}

// Tasks posted from within a running task must not block and must run after
// every already queued task.
func TestSequencePostFromTask(t *testing.T) {
	seq := newSequence()

	var order []int
	seq.post(func() {
		order = append(order, 1)
		seq.post(func() {
			order = append(order, 3)
		})
	})
	seq.post(func() {
		order = append(order, 2)
	})
	seq.postWait(func() {})

	test.That(t, order, test.ShouldResemble, []int{1, 2, 3})
	seq.close()
}

func TestSequenceClose(t *testing.T) {
	seq := newSequence()

	ran := false
	test.That(t, seq.post(func() { ran = true }), test.ShouldBeTrue)
	seq.close()
	seq.close()

	// close drains queued tasks before stopping.
	test.That(t, ran, test.ShouldBeTrue)
	test.That(t, seq.post(func() {}), test.ShouldBeFalse)
	test.That(t, seq.postWait(func() {}), test.ShouldBeFalse)
}
