package mow

import (
	"bytes"
	"testing"

	"github.com/RowanDark/internpool/pool"
)

func TestOSStrTransitions(t *testing.T) {
	p := pool.New()
	raw := []byte{0xff, 0xfe, 'a'}
	s := NewOSStr(p, raw)
	if !s.IsInterned() || !bytes.Equal(s.Bytes(), raw) {
		t.Fatalf("unexpected Shared value %q", s.Bytes())
	}

	s.Push([]byte{0x00})
	s.PushString("/tmp")
	if !s.IsMutable() || !s.EqualBytes(append(append([]byte{}, raw...), "\x00/tmp"...)) {
		t.Fatalf("unexpected contents %q", s.Bytes())
	}

	buf := s.Mutdown()
	(*buf)[0] = 'X'
	if s.Bytes()[0] != 'X' {
		t.Fatalf("Mutdown must expose the private buffer")
	}

	s.Truncate(3)
	s.Intern()
	defer s.Release()
	direct := NewIOSStr(p, []byte{'X', 0xfe, 'a'})
	defer direct.Release()
	i, ok := s.TryIOSStr()
	if !ok {
		t.Fatalf("expected IOSStr from Shared value")
	}
	defer i.Release()
	if !i.Equal(direct) {
		t.Fatalf("interned value must match a direct intern")
	}
}

func TestOSStrUsesSeparateRegistry(t *testing.T) {
	var s OSStr
	var x Str
	if osStrPool(s.Pool()) == strPool(x.Pool()) {
		t.Fatalf("text and OS strings must intern into different registries")
	}
}

func TestOSStrSwapAndClone(t *testing.T) {
	p := pool.New()
	s := NewOSStrString(p, "a")
	if _, ok := s.TrySwapMut([]byte("b")); ok || !s.IsInterned() {
		t.Fatalf("strict swap must not touch a Shared value")
	}
	c := s.Clone()
	defer c.Release()
	if _, ok := s.SwapMut(nil); ok || !s.IsEmpty() || !s.IsMutable() {
		t.Fatalf("non-strict swap must end Exclusive")
	}
	old, ok := s.SwapMut([]byte("c"))
	if !ok || len(old) != 0 || s.String() != "c" {
		t.Fatalf("unexpected swap %q %v", old, ok)
	}
	if c.String() != "a" || !c.IsInterned() {
		t.Fatalf("clone must keep the original entry")
	}
	if c.Compare(&s) >= 0 || c.Equal(&s) {
		t.Fatalf("unexpected ordering")
	}
}

func TestOSStrIntoConversions(t *testing.T) {
	p := pool.New()
	s := NewMutOSStr(p, []byte("owned"))
	i := s.IntoIOSStr()
	if !s.IsEmpty() || i.String() != "owned" {
		t.Fatalf("unexpected move %q", i.String())
	}
	back := i.IntoMut()
	if got := back.IntoBytes(); string(got) != "owned" {
		t.Fatalf("unexpected bytes %q", got)
	}
	if p.CollectGarbage() != 1 {
		t.Fatalf("expected the entry released by IntoBytes")
	}
}

func TestOSStrTruncateNegativePanics(t *testing.T) {
	s := MutEmptyOSStr(nil)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	s.Truncate(-1)
}

func TestOSStrTruncatePastEndMakesExclusive(t *testing.T) {
	p := pool.New()
	s := NewOSStr(p, []byte("abc"))
	s.Truncate(10)
	if !s.IsMutable() || s.String() != "abc" {
		t.Fatalf("truncate must promote without shortening, got %q", s.String())
	}
	if p.CollectGarbage() != 1 {
		t.Fatalf("expected the shared entry released")
	}
}

func TestOSStrInternedSourceCannotReachPoolEntry(t *testing.T) {
	p := pool.New()
	s := NewMutOSStr(p, []byte("abc"))
	shared := s.Interned()
	defer shared.Release()
	if !s.IsMutable() || !s.IsEmpty() {
		t.Fatalf("Interned must leave the source empty")
	}

	s.Push([]byte("abc"))
	(*s.Mutdown())[0] = 'z'
	if shared.String() != "abc" {
		t.Fatalf("pool entry was rewritten through the source: %q", shared.String())
	}
	direct := NewIOSStr(p, []byte("abc"))
	defer direct.Release()
	if direct.String() != "abc" || p.Len() != 1 {
		t.Fatalf("fresh intern must reuse the entry, %d entries", p.Len())
	}

	m := shared.Muterned()
	if !m.IsMutable() || m.String() != "abc" || !shared.IsEmpty() {
		t.Fatalf("Muterned must move the value out")
	}
}
