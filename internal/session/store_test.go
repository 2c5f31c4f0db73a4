package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"parla-backend/internal/chat"
)

func TestStore_Lifecycle(t *testing.T) {
	st := NewStore(time.Hour)
	conv := chat.New(chat.Config{Connector: noopConnector{}})

	sess := st.Create(conv)
	if sess.ID == uuid.Nil {
		t.Fatal("Expected a session id")
	}
	if sess.Conversation != conv {
		t.Error("Expected the conversation to be attached")
	}
	if st.Count() != 1 {
		t.Errorf("Expected count 1, got %d", st.Count())
	}

	got, ok := st.Get(sess.ID)
	if !ok || got != sess {
		t.Fatalf("Expected to retrieve the created session, got %v %v", got, ok)
	}
	if !st.Has(sess.ID) {
		t.Error("Expected Has to report the session")
	}

	st.Delete(sess.ID)
	if _, ok := st.Get(sess.ID); ok {
		t.Error("Expected session gone after Delete")
	}
	if st.Has(sess.ID) {
		t.Error("Expected Has false after Delete")
	}
	if st.Count() != 0 {
		t.Errorf("Expected count 0, got %d", st.Count())
	}
}

func TestStore_GetUnknown(t *testing.T) {
	st := NewStore(time.Hour)

	if _, ok := st.Get(uuid.New()); ok {
		t.Error("Expected miss for unknown id")
	}
}

func TestStore_GetRefreshesIdleTimer(t *testing.T) {
	st := NewStore(time.Hour)
	sess := st.Create(chat.New(chat.Config{Connector: noopConnector{}}))

	before := sess.idleSince()
	time.Sleep(10 * time.Millisecond)
	st.Get(sess.ID)

	if !sess.idleSince().After(before) {
		t.Error("Expected Get to refresh the idle timer")
	}
}

type noopConnector struct{}

func (noopConnector) Send(ctx context.Context, emit chat.EmitFunc, text string, conv *chat.Conversation, opts map[string]any) error {
	return nil
}

func (noopConnector) Reset() {}
