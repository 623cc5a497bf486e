package chat

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happypaws/happypaws/internal/config"
	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/repository"
	"github.com/happypaws/happypaws/internal/service/autopilot"
	"github.com/happypaws/happypaws/internal/service/notification"
	"github.com/happypaws/happypaws/internal/service/settings"
	apperrors "github.com/happypaws/happypaws/pkg/errors"
)

type fakeChatRepo struct {
	chats    map[int64]*model.Chat
	messages map[int64]*model.ChatMessage
	nextChat int64
	nextMsg  int64
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:    make(map[int64]*model.Chat),
		messages: make(map[int64]*model.ChatMessage),
	}
}

func (f *fakeChatRepo) Create(_ context.Context, chat *model.Chat) (int64, error) {
	f.nextChat++
	cp := *chat
	cp.ID = f.nextChat
	f.chats[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeChatRepo) Get(_ context.Context, id int64) (*model.Chat, error) {
	chat, ok := f.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *chat
	return &cp, nil
}

func (f *fakeChatRepo) LatestOpenBySID(_ context.Context, sid string) (*model.Chat, error) {
	var latest *model.Chat
	for _, c := range f.chats {
		if c.SID == sid && c.Status == model.ChatStatusOpen {
			if latest == nil || c.ID > latest.ID {
				latest = c
			}
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeChatRepo) List(_ context.Context) ([]*model.Chat, error) {
	out := make([]*model.Chat, 0, len(f.chats))
	for _, c := range f.chats {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeChatRepo) ListByIP(_ context.Context, ip string, excludeID int64) ([]*model.Chat, error) {
	var out []*model.Chat
	for _, c := range f.chats {
		if c.IP == ip && c.ID != excludeID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) UpdateStatus(_ context.Context, id int64, status model.ChatStatus) error {
	c, ok := f.chats[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = status
	return nil
}

func (f *fakeChatRepo) CloseAll(_ context.Context) error {
	for _, c := range f.chats {
		c.Status = model.ChatStatusClosed
	}
	return nil
}

func (f *fakeChatRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.chats[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.chats, id)
	for mid, m := range f.messages {
		if m.ChatID == id {
			delete(f.messages, mid)
		}
	}
	return nil
}

func (f *fakeChatRepo) AddMessage(_ context.Context, msg *model.ChatMessage) (int64, error) {
	if _, ok := f.chats[msg.ChatID]; !ok {
		return 0, repository.ErrNotFound
	}
	f.nextMsg++
	cp := *msg
	cp.ID = f.nextMsg
	f.messages[cp.ID] = &cp
	f.chats[msg.ChatID].LastActivity = cp.CreatedAt
	return cp.ID, nil
}

func (f *fakeChatRepo) Messages(ctx context.Context, chatID int64) ([]*model.ChatMessage, error) {
	return f.MessagesAfter(ctx, chatID, 0)
}

func (f *fakeChatRepo) MessagesAfter(_ context.Context, chatID, afterID int64) ([]*model.ChatMessage, error) {
	var out []*model.ChatMessage
	for _, m := range f.messages {
		if m.ChatID == chatID && m.ID > afterID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeChatRepo) CountOpen(_ context.Context) (int, error) {
	n := 0
	for _, c := range f.chats {
		if c.Status == model.ChatStatusOpen {
			n++
		}
	}
	return n, nil
}

type fakeSettingRepo struct {
	values map[string]string
}

func (f *fakeSettingRepo) Get(_ context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeSettingRepo) Set(_ context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

type fakeNotifRepo struct {
	created []*model.AdminNotification
	nextID  int64
}

func (f *fakeNotifRepo) Create(_ context.Context, n *model.AdminNotification) error {
	f.nextID++
	n.ID = f.nextID
	cp := *n
	f.created = append(f.created, &cp)
	return nil
}

func (f *fakeNotifRepo) NextUnseen(_ context.Context, limit int) ([]*model.AdminNotification, error) {
	var out []*model.AdminNotification
	for _, n := range f.created {
		if !n.Seen {
			cp := *n
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeNotifRepo) MarkSeen(_ context.Context, ids []int64) error {
	for _, id := range ids {
		for _, n := range f.created {
			if n.ID == id {
				n.Seen = true
			}
		}
	}
	return nil
}

type stubPilot struct {
	reply string
	notes []string
	panic bool
}

func (s *stubPilot) Respond(context.Context, settings.ProviderConfig, string, []autopilot.Message) (string, []string) {
	if s.panic {
		panic("provider blew up")
	}
	return s.reply, s.notes
}

type fixture struct {
	svc    *Service
	repo   *fakeChatRepo
	notifs *fakeNotifRepo
	prefs  *fakeSettingRepo
	pilot  *stubPilot
}

func newFixture(values map[string]string) *fixture {
	if values == nil {
		values = map[string]string{}
	}
	repo := newFakeChatRepo()
	notifs := &fakeNotifRepo{}
	prefs := &fakeSettingRepo{values: values}
	pilot := &stubPilot{}
	notifier := notification.NewService(notifs, repo, nil, nil, nil, config.SMTPConfig{})
	svc := NewService(repo, settings.NewService(prefs), pilot, notifier)
	return &fixture{svc: svc, repo: repo, notifs: notifs, prefs: prefs, pilot: pilot}
}

func TestStartChatCreatesAndNotifies(t *testing.T) {
	fx := newFixture(nil)

	transcript, err := fx.svc.StartChat(context.Background(), "", "198.51.100.7")
	require.NoError(t, err)
	assert.NotZero(t, transcript.ID)
	assert.NotEmpty(t, transcript.SID)
	assert.Equal(t, model.ChatStatusOpen, transcript.Status)
	assert.Empty(t, transcript.Messages)

	require.Len(t, fx.notifs.created, 1)
	assert.Equal(t, model.NotificationNewChat, fx.notifs.created[0].Type)
}

func TestStartChatReusesOpenChatForSID(t *testing.T) {
	fx := newFixture(nil)

	first, err := fx.svc.StartChat(context.Background(), "visitor-1", "")
	require.NoError(t, err)

	_, err = fx.svc.SendMessage(context.Background(), &model.SendMessageRequest{
		ChatID: first.ID, Message: "hello",
	}, false)
	require.NoError(t, err)

	second, err := fx.svc.StartChat(context.Background(), "visitor-1", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.Messages, 1)
	assert.Equal(t, "hello", second.Messages[0].Message)

	// Only the first start notified staff of a new chat; the message
	// itself is notified separately while autopilot is off.
	newChats := 0
	for _, n := range fx.notifs.created {
		if n.Type == model.NotificationNewChat {
			newChats++
		}
	}
	assert.Equal(t, 1, newChats)
}

func TestStartChatAfterCloseOpensNewChat(t *testing.T) {
	fx := newFixture(nil)

	first, err := fx.svc.StartChat(context.Background(), "visitor-1", "")
	require.NoError(t, err)
	require.NoError(t, fx.svc.CloseChat(context.Background(), first.ID))

	second, err := fx.svc.StartChat(context.Background(), "visitor-1", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSendMessageTruncatesLongBody(t *testing.T) {
	fx := newFixture(nil)
	chat, err := fx.svc.StartChat(context.Background(), "", "")
	require.NoError(t, err)

	long := strings.Repeat("a", model.MaxMessageLength+500)
	msg, err := fx.svc.SendMessage(context.Background(), &model.SendMessageRequest{
		ChatID: chat.ID, Message: long,
	}, false)
	require.NoError(t, err)
	assert.Len(t, msg.Message, model.MaxMessageLength)
}

func TestSendMessageTruncatesOnCharactersNotBytes(t *testing.T) {
	fx := newFixture(nil)
	chat, err := fx.svc.StartChat(context.Background(), "", "")
	require.NoError(t, err)

	// 1501 characters but 3001 bytes; under the limit, so it must be
	// stored unchanged.
	under := "a" + strings.Repeat("é", 1500)
	msg, err := fx.svc.SendMessage(context.Background(), &model.SendMessageRequest{
		ChatID: chat.ID, Message: under,
	}, false)
	require.NoError(t, err)
	assert.Equal(t, under, msg.Message)

	over := strings.Repeat("é", model.MaxMessageLength+10)
	msg, err = fx.svc.SendMessage(context.Background(), &model.SendMessageRequest{
		ChatID: chat.ID, Message: over,
	}, false)
	require.NoError(t, err)
	assert.Equal(t, model.MaxMessageLength, utf8.RuneCountInString(msg.Message))
	assert.True(t, utf8.ValidString(msg.Message))
}

func TestSendMessageAdminSenderRequiresAuth(t *testing.T) {
	fx := newFixture(nil)
	chat, err := fx.svc.StartChat(context.Background(), "", "")
	require.NoError(t, err)

	_, err = fx.svc.SendMessage(context.Background(), &model.SendMessageRequest{
		ChatID: chat.ID, Message: "hi", Sender: "admin",
	}, false)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)

	msg, err := fx.svc.SendMessage(context.Background(), &model.SendMessageRequest{
		ChatID: chat.ID, Message: "hi", Sender: "admin",
	}, true)
	require.NoError(t, err)
	assert.Equal(t, model.SenderAdmin, msg.Sender)
}

func TestSendMessageNotifiesWhenAutopilotOff(t *testing.T) {
	fx := newFixture(map[string]string{model.SettingChatAutopilot: "false"})
	chat, err := fx.svc.StartChat(context.Background(), "visitor-9", "")
	require.NoError(t, err)

	long := strings.Repeat("b", 500)
	_, err = fx.svc.SendMessage(context.Background(), &model.SendMessageRequest{
		ChatID: chat.ID, Message: long,
	}, false)
	require.NoError(t, err)

	require.Len(t, fx.notifs.created, 2) // new_chat + new_user_message
	n := fx.notifs.created[1]
	assert.Equal(t, model.NotificationNewUserMessage, n.Type)

	var payload model.NotificationPayload
	require.NoError(t, json.Unmarshal([]byte(n.Payload), &payload))
	assert.Len(t, payload.Excerpt, 180)
	assert.Equal(t, "visitor-9", payload.SID)
}

func TestSendMessageAutopilotReply(t *testing.T) {
	fx := newFixture(map[string]string{model.SettingChatAutopilot: "true"})
	fx.pilot.reply = "We walk dogs every morning!"
	chat, err := fx.svc.StartChat(context.Background(), "", "")
	require.NoError(t, err)

	userMsg, err := fx.svc.SendMessage(context.Background(), &model.SendMessageRequest{
		ChatID: chat.ID, Message: "when do you walk?",
	}, false)
	require.NoError(t, err)

	msgs, _, err := fx.svc.PollMessages(context.Background(), chat.ID, userMsg.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.SenderSystem, msgs[0].Sender)
	assert.Equal(t, "[AI is responding...]", msgs[0].Message)
	assert.Equal(t, model.SenderAdmin, msgs[1].Sender)
	assert.Equal(t, "We walk dogs every morning!", msgs[1].Message)

	// Ids stay strictly increasing so they work as a poll cursor.
	assert.Greater(t, msgs[0].ID, userMsg.ID)
	assert.Greater(t, msgs[1].ID, msgs[0].ID)
}

func TestSendMessageAutopilotAllProvidersFail(t *testing.T) {
	fx := newFixture(map[string]string{model.SettingChatAutopilot: "true"})
	fx.pilot.reply = ""
	fx.pilot.notes = []string{"openai: status 500", "no AI provider configured"}
	chat, err := fx.svc.StartChat(context.Background(), "", "")
	require.NoError(t, err)

	userMsg, err := fx.svc.SendMessage(context.Background(), &model.SendMessageRequest{
		ChatID: chat.ID, Message: "hello?",
	}, false)
	require.NoError(t, err)

	msgs, _, err := fx.svc.PollMessages(context.Background(), chat.ID, userMsg.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4) // typing + 2 diagnostics + fallback

	last := msgs[len(msgs)-1]
	assert.Equal(t, model.SenderAdmin, last.Sender)
	assert.Equal(t, autopilot.FallbackGreeting, last.Message)
	assert.Equal(t, model.SenderSystem, msgs[1].Sender)
	assert.Contains(t, msgs[1].Message, "openai")
}

func TestSendMessageAutopilotPanicStillReplies(t *testing.T) {
	fx := newFixture(map[string]string{model.SettingChatAutopilot: "true"})
	fx.pilot.panic = true
	chat, err := fx.svc.StartChat(context.Background(), "", "")
	require.NoError(t, err)

	userMsg, err := fx.svc.SendMessage(context.Background(), &model.SendMessageRequest{
		ChatID: chat.ID, Message: "anyone there?",
	}, false)
	require.NoError(t, err)

	msgs, _, err := fx.svc.PollMessages(context.Background(), chat.ID, userMsg.ID)
	require.NoError(t, err)
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	assert.Equal(t, model.SenderAdmin, last.Sender)
	assert.Equal(t, autopilot.FallbackTechnicalIssue, last.Message)
}

func TestPollMessagesCursor(t *testing.T) {
	fx := newFixture(nil)
	chat, err := fx.svc.StartChat(context.Background(), "", "")
	require.NoError(t, err)

	var ids []int64
	for _, body := range []string{"one", "two", "three"} {
		msg, err := fx.svc.SendMessage(context.Background(), &model.SendMessageRequest{
			ChatID: chat.ID, Message: body,
		}, false)
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}

	msgs, status, err := fx.svc.PollMessages(context.Background(), chat.ID, ids[0])
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "two", msgs[0].Message)
	assert.Equal(t, "three", msgs[1].Message)
	assert.Equal(t, "open", status)

	msgs, _, err = fx.svc.PollMessages(context.Background(), chat.ID, ids[2])
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStaleChatDisplaysEndedButAcceptsMessages(t *testing.T) {
	fx := newFixture(nil)
	chat, err := fx.svc.StartChat(context.Background(), "", "")
	require.NoError(t, err)

	fx.repo.chats[chat.ID].LastActivity = time.Now().UTC().Add(-2 * time.Hour)

	_, status, err := fx.svc.PollMessages(context.Background(), chat.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "ended", status)

	// Still open underneath: messages are accepted and refresh activity.
	_, err = fx.svc.SendMessage(context.Background(), &model.SendMessageRequest{
		ChatID: chat.ID, Message: "still here",
	}, false)
	require.NoError(t, err)

	_, status, err = fx.svc.PollMessages(context.Background(), chat.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "open", status)

	summaries, err := fx.svc.ListChats(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.False(t, summaries[0].Stale)
}

func TestCloseAndDeleteChat(t *testing.T) {
	fx := newFixture(nil)
	chat, err := fx.svc.StartChat(context.Background(), "", "")
	require.NoError(t, err)

	require.NoError(t, fx.svc.CloseChat(context.Background(), chat.ID))
	transcript, err := fx.svc.Transcript(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ChatStatusClosed, transcript.Status)

	require.NoError(t, fx.svc.DeleteChat(context.Background(), chat.ID))
	_, err = fx.svc.Transcript(context.Background(), chat.ID)
	require.Error(t, err)
}
