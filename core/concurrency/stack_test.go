package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type intNode struct {
	next atomic.Pointer[intNode]
	val  int
}

func (n *intNode) NextPtr() *atomic.Pointer[intNode] { return &n.next }

func TestStackPushPopLIFO(t *testing.T) {
	var s Stack[intNode, *intNode]
	for i := 1; i <= 3; i++ {
		s.Push(&intNode{val: i})
	}
	for want := 3; want >= 1; want-- {
		n := s.Pop()
		if n == nil || n.val != want {
			t.Fatalf("Pop = %v, want node %d", n, want)
		}
		if n.next.Load() != nil {
			t.Fatal("popped node link not cleared")
		}
	}
	if s.Pop() != nil {
		t.Fatal("Pop on empty stack returned a node")
	}
}

func TestStackPrependVisibleAtomically(t *testing.T) {
	var s Stack[intNode, *intNode]
	s.Push(&intNode{val: 99})

	// Build chain 1 -> 2 -> 3.
	nodes := [3]*intNode{{val: 1}, {val: 2}, {val: 3}}
	nodes[0].next.Store(nodes[1])
	nodes[1].next.Store(nodes[2])
	s.Prepend(nodes[0], nodes[2])

	want := []int{1, 2, 3, 99}
	for _, w := range want {
		n := s.Pop()
		if n == nil || n.val != w {
			t.Fatalf("Pop = %v, want node %d", n, w)
		}
	}
}

func TestStackPopAll(t *testing.T) {
	var s Stack[intNode, *intNode]
	for i := 0; i < 5; i++ {
		s.Push(&intNode{val: i})
	}
	head := s.PopAll()
	if !s.Empty() {
		t.Fatal("stack not empty after PopAll")
	}
	count := 0
	for n := head; n != nil; n = n.next.Load() {
		count++
	}
	if count != 5 {
		t.Fatalf("PopAll chain length = %d, want 5", count)
	}
}

func TestStack_MPMC(t *testing.T) {
	var s Stack[intNode, *intNode]
	producers := 8
	consumers := 8
	itemsPerProducer := 10000
	totalItems := int64(producers * itemsPerProducer)

	var wg sync.WaitGroup
	var sentSum int64
	var receivedSum int64
	var receivedCount int64

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				val := pid*itemsPerProducer + i + 1
				s.Push(&intNode{val: val})
				atomic.AddInt64(&sentSum, int64(val))
			}
		}(p)
	}

	consumerWg := sync.WaitGroup{}
	for c := 0; c < consumers; c++ {
		consumerWg.Add(1)
		go func() {
			defer consumerWg.Done()
			for {
				if n := s.Pop(); n != nil {
					atomic.AddInt64(&receivedSum, int64(n.val))
					if atomic.AddInt64(&receivedCount, 1) == totalItems {
						return
					}
				} else {
					if atomic.LoadInt64(&receivedCount) >= totalItems {
						return
					}
					runtime.Gosched()
				}
			}
		}()
	}

	wg.Wait()

	done := make(chan struct{})
	go func() {
		consumerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if sentSum != receivedSum {
			t.Errorf("Checksum mismatch: sent %d, received %d", sentSum, receivedSum)
		}
	case <-time.After(10 * time.Second):
		t.Errorf("Timeout waiting for consumers. Received %d/%d",
			atomic.LoadInt64(&receivedCount), totalItems)
	}
}
