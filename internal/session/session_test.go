package session

import (
	"testing"
	"time"

	"github.com/quickfixgo/quickfix"
)

type stubHandler struct {
	calls int
}

func (s *stubHandler) HandleAppMessage(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	s.calls++
	return nil
}

func TestBackoff_DoublesUntilCap(t *testing.T) {
	b := Backoff{Base: time.Second, Cap: 8 * time.Second}

	for attempt, wantBase := range map[int]time.Duration{
		0: time.Second,
		1: 2 * time.Second,
		2: 4 * time.Second,
		3: 8 * time.Second,
		4: 8 * time.Second, // capped
	} {
		got := b.Delay(attempt)
		lo := time.Duration(float64(wantBase) * 0.8)
		hi := time.Duration(float64(wantBase) * 1.2)
		if got < lo || got > hi {
			t.Errorf("attempt %d: delay %v outside [%v,%v] for base %v", attempt, got, lo, hi, wantBase)
		}
	}
}

func TestManager_StateTransitionsThroughLifecycle(t *testing.T) {
	h := &stubHandler{}
	var seen []State
	m := NewManager(h, "", "", "", nil)
	m.OnStateChange(func(s State) { seen = append(seen, s) })

	sid := quickfix.SessionID{SenderCompID: "US", TargetCompID: "FXCM"}
	m.OnCreate(sid)
	m.OnLogon(sid)
	m.OnLogout(sid)

	want := []State{StateConnected, StateActive, StateDisconnected}
	if len(seen) != len(want) {
		t.Fatalf("got %v states, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("state[%d] = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestManager_FromAppForwardsToHandler(t *testing.T) {
	h := &stubHandler{}
	m := NewManager(h, "", "", "", nil)
	sid := quickfix.SessionID{}
	m.FromApp(quickfix.NewMessage(), sid)
	if h.calls != 1 {
		t.Errorf("handler called %d times, want 1", h.calls)
	}
}

func TestManager_StampsTargetSubIDOnOutbound(t *testing.T) {
	m := NewManager(nil, "ORDER", "", "", nil)
	msg := quickfix.NewMessage()
	m.ToApp(msg, quickfix.SessionID{})

	got, err := msg.Header.GetString(quickfix.Tag(57))
	if err != nil || got != "ORDER" {
		t.Errorf("TargetSubID = %q, err=%v, want ORDER", got, err)
	}
}

func TestManager_StampsCredentialsOnLogon(t *testing.T) {
	m := NewManager(nil, "", "trader1", "hunter2", nil)
	msg := quickfix.NewMessage()
	msg.Header.SetField(quickfix.Tag(35), quickfix.FIXString("A"))
	m.ToAdmin(msg, quickfix.SessionID{})

	user, err := msg.Body.GetString(quickfix.Tag(553))
	if err != nil || user != "trader1" {
		t.Errorf("Username = %q, err=%v, want trader1", user, err)
	}
	pass, err := msg.Body.GetString(quickfix.Tag(554))
	if err != nil || pass != "hunter2" {
		t.Errorf("Password = %q, err=%v, want hunter2", pass, err)
	}
}

func TestManager_DoesNotStampCredentialsOnNonLogon(t *testing.T) {
	m := NewManager(nil, "", "trader1", "hunter2", nil)
	msg := quickfix.NewMessage()
	msg.Header.SetField(quickfix.Tag(35), quickfix.FIXString("0")) // heartbeat
	m.ToAdmin(msg, quickfix.SessionID{})

	if msg.Body.Has(quickfix.Tag(553)) {
		t.Error("Username should not be stamped on a non-Logon admin message")
	}
}
