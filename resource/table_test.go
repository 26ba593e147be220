package resource

import (
	stderrors "errors"
	"testing"

	"github.com/astcvm/astc-runtime/errors"
)

const (
	typeString TypeID = 1
	typeBuffer TypeID = 2
)

func TestInsertGetRemove(t *testing.T) {
	tbl := NewTable(0)

	h, err := tbl.Insert(typeString, "hello")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if h == 0 {
		t.Fatal("got invalid handle 0")
	}

	v, ok := tbl.Get(h)
	if !ok || v.(string) != "hello" {
		t.Fatalf("get = %v, %v", v, ok)
	}

	if _, ok := tbl.GetTyped(h, typeBuffer); ok {
		t.Error("typed get accepted wrong type")
	}
	if v, ok := tbl.GetTyped(h, typeString); !ok || v.(string) != "hello" {
		t.Error("typed get refused matching type")
	}

	if v, ok := tbl.Remove(h); !ok || v.(string) != "hello" {
		t.Fatalf("remove = %v, %v", v, ok)
	}
	if _, ok := tbl.Get(h); ok {
		t.Error("get succeeded after remove")
	}
	if tbl.Len() != 0 {
		t.Errorf("len = %d, want 0", tbl.Len())
	}
}

func TestZeroHandleAlwaysInvalid(t *testing.T) {
	tbl := NewTable(0)
	if _, ok := tbl.Get(0); ok {
		t.Error("handle 0 resolved")
	}
	if _, ok := tbl.Remove(0); ok {
		t.Error("handle 0 removed")
	}
	if tbl.Borrow(0) {
		t.Error("handle 0 borrowed")
	}
}

func TestSlotReuse(t *testing.T) {
	tbl := NewTable(0)

	h1, _ := tbl.Insert(typeString, "a")
	h2, _ := tbl.Insert(typeString, "b")
	tbl.Remove(h1)

	h3, _ := tbl.Insert(typeBuffer, []byte("c"))
	if h3 != h1 {
		t.Errorf("expected slot reuse, got %d (freed %d)", h3, h1)
	}
	if v, ok := tbl.Get(h2); !ok || v.(string) != "b" {
		t.Error("unrelated handle disturbed by reuse")
	}
}

func TestBorrowPinsHandle(t *testing.T) {
	tbl := NewTable(0)
	h, _ := tbl.Insert(typeString, "pinned")

	if !tbl.Borrow(h) {
		t.Fatal("borrow failed")
	}
	if _, ok := tbl.Remove(h); ok {
		t.Error("removed a borrowed handle")
	}
	if !tbl.ReturnBorrow(h) {
		t.Fatal("return borrow failed")
	}
	if tbl.ReturnBorrow(h) {
		t.Error("returned a borrow twice")
	}
	if _, ok := tbl.Remove(h); !ok {
		t.Error("remove failed after borrow returned")
	}
}

func TestCapacity(t *testing.T) {
	tbl := NewTable(2)

	if _, err := tbl.Insert(typeString, "a"); err != nil {
		t.Fatal(err)
	}
	h, err := tbl.Insert(typeString, "b")
	if err != nil {
		t.Fatal(err)
	}

	_, err = tbl.Insert(typeString, "c")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseBridge, Kind: errors.KindCapacity}) {
		t.Fatalf("error = %v, want capacity error", err)
	}

	tbl.Remove(h)
	if _, err := tbl.Insert(typeString, "c"); err != nil {
		t.Errorf("insert after remove: %v", err)
	}
}

type droppable struct {
	dropped *int
}

func (d droppable) Drop() { *d.dropped++ }

func TestDropperOnRemoveAndClose(t *testing.T) {
	tbl := NewTable(0)
	var drops int

	h, _ := tbl.Insert(typeBuffer, droppable{&drops})
	tbl.Remove(h)
	if drops != 1 {
		t.Fatalf("drops = %d after remove, want 1", drops)
	}

	tbl.Insert(typeBuffer, droppable{&drops})
	tbl.Insert(typeBuffer, droppable{&drops})
	if err := tbl.Close(); err != nil {
		t.Fatal(err)
	}
	if drops != 3 {
		t.Errorf("drops = %d after close, want 3", drops)
	}

	if _, err := tbl.Insert(typeString, "late"); err == nil {
		t.Error("insert accepted after close")
	}
}

func TestEach(t *testing.T) {
	tbl := NewTable(0)
	tbl.Insert(typeString, "a")
	h, _ := tbl.Insert(typeString, "b")
	tbl.Insert(typeString, "c")
	tbl.Remove(h)

	seen := 0
	tbl.Each(func(h Handle, id TypeID, v any) bool {
		seen++
		return true
	})
	if seen != 2 {
		t.Errorf("visited %d live handles, want 2", seen)
	}
}
