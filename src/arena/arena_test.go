package arena

import "testing"

func TestPushPopBalancesRootStack(t *testing.T) {
	c := NewContext(4)
	h1, err := c.Prod(nil, 10)
	if err != nil {
		t.Fatalf("Prod: %v", err)
	}
	_, err = c.Prod(nil, 20)
	if err != nil {
		t.Fatalf("Prod: %v", err)
	}
	if c.RootStackLen() != 2 {
		t.Fatalf("RootStackLen() = %d, want 2", c.RootStackLen())
	}

	popped, err := c.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if popped.Get() != 20 {
		t.Fatalf("popped.Get() = %v, want 20", popped.Get())
	}
	if c.RootStackLen() != 1 {
		t.Fatalf("RootStackLen() = %d, want 1", c.RootStackLen())
	}

	_, err = c.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if c.RootStackLen() != 0 {
		t.Fatalf("RootStackLen() = %d, want 0", c.RootStackLen())
	}
	if h1.Get() != 10 {
		t.Fatalf("h1.Get() = %v, want 10 (value survives after unrooting)", h1.Get())
	}
}

func TestPushFailsWhenStackFull(t *testing.T) {
	c := NewContext(1)
	if _, err := c.Prod(nil, 1); err != nil {
		t.Fatalf("Prod: %v", err)
	}
	if _, err := c.Prod(nil, 2); err != ErrStackOverflow {
		t.Fatalf("err = %v, want ErrStackOverflow", err)
	}
}

func TestPopFailsWhenStackEmpty(t *testing.T) {
	c := NewContext(4)
	if _, err := c.Pop(); err != ErrStackUnderflow {
		t.Fatalf("err = %v, want ErrStackUnderflow", err)
	}
}

func TestMarkSweepKeepsRootedFreesUnrooted(t *testing.T) {
	c := NewContext(4)
	rooted, err := c.Prod(nil, "kept")
	if err != nil {
		t.Fatalf("Prod: %v", err)
	}
	unrooted, err := c.Prod(nil, "discarded")
	if err != nil {
		t.Fatalf("Prod: %v", err)
	}
	if _, err := c.Pop(); err != nil { // unroot "discarded"
		t.Fatalf("Pop: %v", err)
	}
	before := c.RootStackLen()

	c.Mark()
	c.Sweep()

	if c.RootStackLen() != before {
		t.Fatalf("RootStackLen() changed across mark/sweep: got %d, want %d", c.RootStackLen(), before)
	}
	if !rooted.Live() {
		t.Fatal("rooted object was freed by sweep")
	}
	if unrooted.Live() {
		t.Fatal("unrooted object survived sweep")
	}
}

func TestDestroyFreesEverythingRegardlessOfMark(t *testing.T) {
	c := NewContext(4)
	h, err := c.Prod(nil, 1)
	if err != nil {
		t.Fatalf("Prod: %v", err)
	}
	c.Mark()
	c.Destroy()
	if h.Live() {
		t.Fatal("handle still live after Destroy")
	}
	if c.RootStackLen() != 0 {
		t.Fatalf("RootStackLen() = %d, want 0 after Destroy", c.RootStackLen())
	}
}

func TestHandleHashIsStableAndUnique(t *testing.T) {
	c := NewContext(4)
	h1, _ := c.Prod(nil, 1)
	h2, _ := c.Prod(nil, 2)
	if h1.Hash() == h2.Hash() {
		t.Fatalf("two distinct objects share hash %d", h1.Hash())
	}
	first := h1.Hash()
	c.Mark()
	c.Sweep()
	if h1.Hash() != first {
		t.Fatalf("h1.Hash() = %d after mark/sweep, want %d", h1.Hash(), first)
	}
}
