package ksync

import (
	"testing"
)

func TestRegistry_TracksLiveObjects(t *testing.T) {
	k := NewKernel()

	if n := k.NumObjects(); n != 0 {
		t.Fatalf("fresh kernel has %d objects", n)
	}

	s := NewSemaphore(k, "disk-io", 4)
	l := NewLock(k, "inode")
	cv := NewCond(k, "inode-changed")

	if n := k.NumObjects(); n != 3 {
		t.Fatalf("NumObjects = %d, want 3", n)
	}

	kinds := make(map[string]ObjectKind)
	for _, info := range k.Objects() {
		kinds[info.Name] = info.Kind
	}
	if kinds["disk-io"] != KindSemaphore {
		t.Errorf("disk-io registered as %v", kinds["disk-io"])
	}
	if kinds["inode"] != KindLock {
		t.Errorf("inode registered as %v", kinds["inode"])
	}
	if kinds["inode-changed"] != KindCond {
		t.Errorf("inode-changed registered as %v", kinds["inode-changed"])
	}

	cv.Destroy()
	l.Destroy()
	if n := k.NumObjects(); n != 1 {
		t.Fatalf("NumObjects = %d after two destroys, want 1", n)
	}
	s.Destroy()
	if n := k.NumObjects(); n != 0 {
		t.Fatalf("NumObjects = %d after all destroys, want 0", n)
	}
}

func TestRegistry_DoubleDestroy(t *testing.T) {
	k := NewKernel()
	l := NewLock(k, "once")
	l.Destroy()
	mustPanic(t, "double Destroy", l.Destroy)
}

func TestObjectKind_String(t *testing.T) {
	cases := map[ObjectKind]string{
		KindSemaphore: "semaphore",
		KindLock:      "lock",
		KindCond:      "cond",
		ObjectKind(0): "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}
