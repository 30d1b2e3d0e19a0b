package ksync

// ObjectKind discriminates the primitive types in the registry.
type ObjectKind uint8

const (
	KindSemaphore ObjectKind = iota + 1
	KindLock
	KindCond
)

func (kd ObjectKind) String() string {
	switch kd {
	case KindSemaphore:
		return "semaphore"
	case KindLock:
		return "lock"
	case KindCond:
		return "cond"
	}
	return "unknown"
}

// ObjectInfo describes one live primitive.
type ObjectInfo struct {
	Name    string
	Kind    ObjectKind
	Channel WaitChannel
}

// The registry tracks every live primitive on a kernel so leaked or
// double-destroyed objects surface in diagnostics. It is read and written
// without the interrupt gate; pb.MapOf carries the concurrency, keeping
// inspection possible even while the gate is contended.

func (k *Kernel) register(ch WaitChannel, name string, kind ObjectKind) {
	k.objects.Store(ch, ObjectInfo{Name: name, Kind: kind, Channel: ch})
}

func (k *Kernel) unregister(ch WaitChannel) {
	if _, ok := k.objects.Load(ch); !ok {
		panic("ksync: Destroy of an unknown or already destroyed primitive")
	}
	k.objects.Delete(ch)
}

// Objects returns a snapshot of the live primitives, in no particular
// order.
func (k *Kernel) Objects() []ObjectInfo {
	out := make([]ObjectInfo, 0, k.objects.Size())
	k.objects.Range(func(_ WaitChannel, info ObjectInfo) bool {
		out = append(out, info)
		return true
	})
	return out
}

// NumObjects returns the number of live primitives on the kernel.
func (k *Kernel) NumObjects() int {
	return k.objects.Size()
}
