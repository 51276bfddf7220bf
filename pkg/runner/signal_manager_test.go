package runner

import (
	"context"
	"testing"
	"time"
)

func TestSignalManager_ParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(t.Context())
	sm := NewSignalManager(parent)
	defer sm.Stop()

	cancel()

	select {
	case <-sm.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("signal context not cancelled with parent")
	}
	if sm.Interrupted() {
		t.Error("parent cancellation must not count as an interrupt")
	}
}

func TestSignalManager_Reset(t *testing.T) {
	sm := NewSignalManager(t.Context())
	defer sm.Stop()

	first := sm.Context()
	sm.Reset()

	select {
	case <-first.Done():
	default:
		t.Error("Reset must cancel the previous context")
	}
	if sm.Context().Err() != nil {
		t.Error("Reset must arm a fresh context")
	}
}

func TestSignalManager_Stop(t *testing.T) {
	sm := NewSignalManager(t.Context())
	sm.Stop()
	if sm.Context().Err() == nil {
		t.Error("Stop must cancel the context")
	}
}
