package internpool

import (
	"testing"

	"github.com/RowanDark/internpool/sweep"
)

func TestHelpersShareRegistries(t *testing.T) {
	a := IStr("internpool-helper")
	s := Str("internpool-helper")
	b, ok := s.TryIStr()
	if !ok {
		t.Fatalf("Str must be Shared")
	}
	if !a.Equal(b) {
		t.Fatalf("helpers must intern into the same registry")
	}
	o := IOSStr([]byte("internpool-helper"))
	if o.Handle().Equal(a.Handle()) {
		t.Fatalf("OS strings live in their own registry")
	}
	o.Release()
	a.Release()
	b.Release()
	s.Release()

	CollectGarbage()
	for _, st := range Stats() {
		if st.Name == "str" && st.Live != 0 {
			t.Fatalf("expected empty text registry after collection, got %d", st.Live)
		}
	}
}

func TestInternReturnsCanonicalCopy(t *testing.T) {
	m := MutStr("canon")
	if !m.IsMutable() {
		t.Fatalf("MutStr must be Exclusive")
	}
	if Intern("canon") != "canon" || Intern("") != "" {
		t.Fatalf("unexpected Intern result")
	}
}

func TestSchedulerSweepsDefaults(t *testing.T) {
	v := OSStr([]byte("scheduled"))
	v.Release()
	s := NewScheduler(sweep.Options{})
	if s.SweepNow() < 1 {
		t.Fatalf("expected the released entry to be swept")
	}
	s.Stop()
}
