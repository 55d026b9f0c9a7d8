package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"imsgd/internal/bus"
	"imsgd/internal/chatdb"
	"imsgd/internal/send"
)

type fakeStore struct {
	convs []chatdb.Conversation
	pages map[int64]*chatdb.MessagePage
}

func (f *fakeStore) ListConversations() ([]chatdb.Conversation, error) {
	return f.convs, nil
}

func (f *fakeStore) GetConversation(id int64) (*chatdb.Conversation, error) {
	for i := range f.convs {
		if f.convs[i].ID == id {
			return &f.convs[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetMessages(convID int64, _ int, _ int64) (*chatdb.MessagePage, error) {
	if p, ok := f.pages[convID]; ok {
		return p, nil
	}
	return &chatdb.MessagePage{}, nil
}

type recordingSender struct {
	handle, chatGUID, text string
}

func (r *recordingSender) SendText(_ context.Context, handle, text string) error {
	r.handle, r.text = handle, text
	return nil
}

func (r *recordingSender) SendGroupText(_ context.Context, chatGUID, text string) error {
	r.chatGUID, r.text = chatGUID, text
	return nil
}

func testText(s string) *string { return &s }

func testStore() *fakeStore {
	return &fakeStore{
		convs: []chatdb.Conversation{
			{
				ID: 1, GUID: "iMessage;-;chat1", DisplayName: "Alice",
				Participants: []chatdb.Participant{{ID: 1, Handle: "+15550000001", Name: "Alice"}},
				LastMessage:  &chatdb.Message{GUID: "m1", Text: testText("hi"), Timestamp: 1700000000000},
			},
			{
				ID: 2, GUID: "iMessage;+;chat2", DisplayName: "Alice and 2 others", IsGroup: true,
				Participants: []chatdb.Participant{
					{Handle: "+15550000001"}, {Handle: "+15550000002"}, {Handle: "+15550000003"},
				},
			},
		},
		pages: map[int64]*chatdb.MessagePage{
			1: {Messages: []chatdb.Message{{GUID: "m1", Text: testText("hi")}}, HasMore: true},
		},
	}
}

func newTestServer(t *testing.T, store Store, sender *recordingSender) *Server {
	t.Helper()
	logger := zap.NewNop()
	b := bus.New()
	hub := NewHub(store, b, logger)
	hub.Run(context.Background())
	t.Cleanup(hub.Stop)

	var snd send.Sender
	if sender != nil {
		snd = sender
	}
	return NewServer(Options{ListenAddr: "127.0.0.1:0", AttachmentRoot: t.TempDir()}, store, hub, snd, nil, logger)
}

func TestListConversations(t *testing.T) {
	srv := newTestServer(t, testStore(), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/conversations", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var convs []chatdb.Conversation
	if err := json.Unmarshal(rec.Body.Bytes(), &convs); err != nil {
		t.Fatal(err)
	}
	if len(convs) != 2 || convs[0].DisplayName != "Alice" {
		t.Errorf("convs = %+v", convs)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	srv := newTestServer(t, testStore(), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/conversations/99", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/conversations/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for non-numeric id", rec.Code)
	}
}

func TestGetMessages(t *testing.T) {
	srv := newTestServer(t, testStore(), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/conversations/1/messages?limit=10&before=1700000001000", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var page chatdb.MessagePage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if len(page.Messages) != 1 || !page.HasMore {
		t.Errorf("page = %+v", page)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/conversations/1/messages?limit=-3", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for bad limit", rec.Code)
	}
}

func TestSendMessageDirect(t *testing.T) {
	sender := &recordingSender{}
	srv := newTestServer(t, testStore(), sender)

	body := strings.NewReader(`{"text":"hello there"}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/conversations/1/messages", body))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if sender.handle != "+15550000001" || sender.text != "hello there" {
		t.Errorf("sender called with handle=%q text=%q", sender.handle, sender.text)
	}
}

func TestSendMessageGroupUsesChatGUID(t *testing.T) {
	sender := &recordingSender{}
	srv := newTestServer(t, testStore(), sender)

	body := strings.NewReader(`{"text":"hi all"}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/conversations/2/messages", body))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if sender.chatGUID != "iMessage;+;chat2" {
		t.Errorf("chatGUID = %q", sender.chatGUID)
	}
}

func TestSendMessageWithoutSender(t *testing.T) {
	srv := newTestServer(t, testStore(), nil)

	body := strings.NewReader(`{"text":"hello"}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/conversations/1/messages", body))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when sending unconfigured", rec.Code)
	}
}

func TestWebSocketSnapshotOnConnectAndChange(t *testing.T) {
	store := testStore()
	logger := zap.NewNop()
	b := bus.New()
	hub := NewHub(store, b, logger)
	hub.Run(context.Background())
	defer hub.Stop()
	srv := NewServer(Options{AttachmentRoot: t.TempDir()}, store, hub, nil, nil, logger)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = conn.Close() }()

	readEnvelope := func() wsEnvelope {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var env wsEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatal(err)
		}
		return env
	}

	// Initial snapshot on connect.
	env := readEnvelope()
	if env.Type != "conversations" {
		t.Errorf("type = %q, want conversations", env.Type)
	}

	// A change event pushes a fresh snapshot.
	b.Publish(bus.Event{Kind: "chatdb.changed", Payload: 1})
	env = readEnvelope()
	if env.Type != "conversations" {
		t.Errorf("type = %q, want conversations", env.Type)
	}
}
