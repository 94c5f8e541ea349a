package preferences

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/portlet/pkg/adapters/memory"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("prefs-%d", i)
		_ = mgr.Save(ctx, key, map[string][]string{"k": {"v"}})
		_ = mgr.Delete(ctx, key)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
