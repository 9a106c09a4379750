package session

import (
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"escpos-emulator/internal/escpos"
	"escpos-emulator/internal/model"
)

type recordingObserver struct {
	commands []escpos.CommandRecord
	replies  [][]byte
}

func (r *recordingObserver) OnCommand(sessionID uuid.UUID, record escpos.CommandRecord) {
	r.commands = append(r.commands, record)
}

func (r *recordingObserver) OnReply(sessionID uuid.UUID, reply []byte) {
	r.replies = append(r.replies, reply)
}

func TestRegistryOpenAssignsActiveSession(t *testing.T) {
	registry := NewRegistry(zap.NewNop(), nil)

	sess := registry.Open(model.TransportTCP, nil, escpos.DefaultIdentity(), 0)

	if sess.Meta.Status != model.SessionStatusActive {
		t.Fatalf("expected new session to be active, got %s", sess.Meta.Status)
	}
	if sess.Meta.TransportType != model.TransportTCP {
		t.Fatalf("expected transport type TCP, got %s", sess.Meta.TransportType)
	}
	if got, ok := registry.Get(sess.ID); !ok || got != sess {
		t.Fatal("expected Get to return the session just opened")
	}
}

func TestSessionFeedNotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	registry := NewRegistry(zap.NewNop(), obs)
	sess := registry.Open(model.TransportTCP, nil, escpos.DefaultIdentity(), 0)

	records, _ := sess.Feed([]byte{0x1B, 0x40})

	if len(records) != 1 {
		t.Fatalf("expected one decoded command, got %d", len(records))
	}
	if len(obs.commands) != 1 || obs.commands[0].Mnemonic != "ESC @" {
		t.Fatalf("expected observer to see ESC @, got %+v", obs.commands)
	}
}

func TestSessionFeedStampsTimestamp(t *testing.T) {
	registry := NewRegistry(zap.NewNop(), nil)
	sess := registry.Open(model.TransportTCP, nil, escpos.DefaultIdentity(), 0)

	records, _ := sess.Feed([]byte{0x1B, 0x40})

	if len(records) != 1 || records[0].Timestamp == "" {
		t.Fatalf("expected Feed to stamp a timestamp, got %+v", records)
	}
}

func TestSessionHistoryAccumulates(t *testing.T) {
	registry := NewRegistry(zap.NewNop(), nil)
	sess := registry.Open(model.TransportTCP, nil, escpos.DefaultIdentity(), 0)

	sess.Feed([]byte{0x1B, 0x40})
	sess.Feed([]byte{0x1B, 0x40})

	if len(sess.History()) != 2 {
		t.Fatalf("expected 2 accumulated records, got %d", len(sess.History()))
	}
}

func TestRegistryCloseRemovesSession(t *testing.T) {
	registry := NewRegistry(zap.NewNop(), nil)
	sess := registry.Open(model.TransportTCP, nil, escpos.DefaultIdentity(), 0)

	if err := registry.Close(sess.ID); err != nil {
		t.Fatalf("unexpected error closing session: %v", err)
	}
	if _, ok := registry.Get(sess.ID); ok {
		t.Fatal("expected session to be gone from the registry after Close")
	}
}

func TestRegistryCloseUnknownSessionErrors(t *testing.T) {
	registry := NewRegistry(zap.NewNop(), nil)
	if err := registry.Close(uuid.New()); err == nil {
		t.Fatal("expected error closing a session that was never opened")
	}
}

func TestObserversFanOut(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	fanout := Observers{a, b}

	id := uuid.New()
	fanout.OnCommand(id, escpos.CommandRecord{Mnemonic: "ESC @"})
	fanout.OnReply(id, []byte{0x01})

	if len(a.commands) != 1 || len(b.commands) != 1 {
		t.Fatal("expected both observers to receive OnCommand")
	}
	if len(a.replies) != 1 || len(b.replies) != 1 {
		t.Fatal("expected both observers to receive OnReply")
	}
}
