package list_test

import (
	"testing"

	"relindex/pkg/list"
)

func verifyList(t *testing.T, l *list.List, want []interface{}) {
	t.Helper()
	got := make([]interface{}, 0)
	for cur := l.PeekHead(); cur != nil; cur = cur.GetNext() {
		got = append(got, cur.GetValue())
	}
	if len(got) != len(want) {
		t.Fatalf("lists of unequal size: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lists not equal at %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEmptyList(t *testing.T) {
	l := list.NewList()
	if l.PeekHead() != nil || l.PeekTail() != nil {
		t.Fatal("new list should have nil head and tail")
	}
}

func TestPushHeadAndTail(t *testing.T) {
	l := list.NewList()
	l.PushTail(2)
	l.PushTail(3)
	l.PushHead(1)
	verifyList(t, l, []interface{}{1, 2, 3})
}

func TestFind(t *testing.T) {
	l := list.NewList()
	l.PushTail(1)
	l.PushTail(2)
	l.PushTail(3)
	found := l.Find(func(link *list.Link) bool { return link.GetValue() == 2 })
	if found == nil || found.GetValue() != 2 {
		t.Fatal("expected to find value 2")
	}
	if l.Find(func(link *list.Link) bool { return link.GetValue() == 99 }) != nil {
		t.Fatal("expected not to find value 99")
	}
}

func TestPopSelf(t *testing.T) {
	l := list.NewList()
	l.PushTail(1)
	mid := l.PushTail(2)
	l.PushTail(3)
	mid.PopSelf()
	verifyList(t, l, []interface{}{1, 3})

	// Popping the only remaining link empties the list.
	l2 := list.NewList()
	only := l2.PushTail(42)
	only.PopSelf()
	if l2.PeekHead() != nil || l2.PeekTail() != nil {
		t.Fatal("popping the sole link should empty the list")
	}
}

func TestMap(t *testing.T) {
	l := list.NewList()
	l.PushTail(1)
	l.PushTail(2)
	l.PushTail(3)
	sum := 0
	l.Map(func(link *list.Link) { sum += link.GetValue().(int) })
	if sum != 6 {
		t.Fatalf("expected sum 6, got %d", sum)
	}
}
