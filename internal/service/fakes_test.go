package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
	"github.com/fmaric77/polmatch-sub004/internal/hub"
	"github.com/fmaric77/polmatch-sub004/internal/models"
	"github.com/fmaric77/polmatch-sub004/internal/repository"
)

type fakeConvStore struct {
	mu      sync.Mutex
	byKey   map[string]*models.Conversation
	creates int
}

func newFakeConvStore() *fakeConvStore {
	return &fakeConvStore{byKey: map[string]*models.Conversation{}}
}

func (f *fakeConvStore) GetOrCreateDirect(_ context.Context, conv *models.Conversation) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byKey[conv.Key]; ok {
		cp := *existing
		return &cp, nil
	}
	now := time.Now().UTC()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	cp := *conv
	f.byKey[conv.Key] = &cp
	f.creates++
	out := cp
	return &out, nil
}

func (f *fakeConvStore) Get(_ context.Context, key string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byKey[key]
	if !ok {
		return nil, apperr.NotFound("conversation not found")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeConvStore) ListForUser(_ context.Context, userID string, pc models.ProfileContext) ([]*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Conversation
	for _, c := range f.byKey {
		if pc != "" && c.ProfileContext != pc {
			continue
		}
		for _, p := range c.ParticipantIDs {
			if p == userID {
				cp := *c
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeConvStore) Touch(_ context.Context, key string, at time.Time, preview string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.byKey[key]; ok {
		c.UpdatedAt = at
		c.LastMessagePreview = preview
	}
	return nil
}

type fakeMsgStore struct {
	mu   sync.Mutex
	msgs []*models.Message
}

func newFakeMsgStore() *fakeMsgStore { return &fakeMsgStore{} }

func (f *fakeMsgStore) Insert(_ context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.CreatedAt = time.Now().UTC()
	if !m.ValidMessage() {
		return apperr.BadRequest("message requires sender and content")
	}
	cp := *m
	f.msgs = append(f.msgs, &cp)
	return nil
}

func (f *fakeMsgStore) Get(_ context.Context, id string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("message not found")
}

// List mirrors the store contract: ascending (created_at, id) order with a
// strictly-after cursor, next cursor set when the page is full. The fake's
// cursor is simply the id of the last returned message.
func (f *fakeMsgStore) List(_ context.Context, q repository.MessageQuery) ([]*models.Message, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Message
	for _, m := range f.msgs {
		match := false
		if q.ConversationKey != "" {
			match = m.ConversationKey == q.ConversationKey
		} else {
			match = m.GroupID == q.GroupID && m.ChannelID == q.ChannelID
		}
		if match {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if q.Cursor != "" {
		var after *models.Message
		for _, m := range f.msgs {
			if m.ID == q.Cursor {
				after = m
				break
			}
		}
		if after == nil {
			return nil, "", apperr.BadRequest("malformed cursor")
		}
		kept := out[:0]
		for _, m := range out {
			if m.CreatedAt.After(after.CreatedAt) ||
				(m.CreatedAt.Equal(after.CreatedAt) && m.ID > after.ID) {
				kept = append(kept, m)
			}
		}
		out = kept
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	next := ""
	if int64(len(out)) == limit && len(out) > 0 {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (f *fakeMsgStore) setCreatedAt(id string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ID == id {
			m.CreatedAt = at
			return
		}
	}
}

func (f *fakeMsgStore) SoftDelete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ID == id {
			m.Deleted = true
			return nil
		}
	}
	return apperr.NotFound("message not found")
}

func (f *fakeMsgStore) HardDelete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.msgs {
		if m.ID == id {
			f.msgs = append(f.msgs[:i], f.msgs[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("message not found")
}

func (f *fakeMsgStore) AddReaction(_ context.Context, id, emoji, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ID == id {
			if m.Reactions == nil {
				m.Reactions = map[string][]string{}
			}
			m.Reactions[emoji] = append(m.Reactions[emoji], userID)
			return nil
		}
	}
	return apperr.NotFound("message not found")
}

func (f *fakeMsgStore) SetPinned(_ context.Context, id string, pinned bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ID == id {
			m.Pinned = pinned
			return nil
		}
	}
	return apperr.NotFound("message not found")
}

func (f *fakeMsgStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func (f *fakeMsgStore) stored(id string) *models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ID == id {
			cp := *m
			return &cp
		}
	}
	return nil
}

type fakeGroupStore struct {
	mu     sync.Mutex
	groups map[string]*models.Group
	chans  map[string]*models.Channel
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{groups: map[string]*models.Group{}, chans: map[string]*models.Channel{}}
}

func (f *fakeGroupStore) Create(_ context.Context, g *models.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	ch := &models.Channel{ID: uuid.New().String(), GroupID: g.ID, Name: "general", IsDefault: true, CreatedAt: time.Now().UTC()}
	g.DefaultChannelID = ch.ID
	if g.Members == nil {
		g.Members = []string{g.OwnerID}
	}
	cp := *g
	f.groups[g.ID] = &cp
	f.chans[ch.ID] = ch
	return nil
}

func (f *fakeGroupStore) Get(_ context.Context, id string) (*models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return nil, apperr.NotFound("group not found")
	}
	cp := *g
	cp.Members = append([]string(nil), g.Members...)
	return &cp, nil
}

func (f *fakeGroupStore) ResolveChannel(_ context.Context, groupID, channelID string) (*models.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return nil, apperr.NotFound("group not found")
	}
	if channelID == "" || channelID == "default" {
		channelID = g.DefaultChannelID
	}
	ch, ok := f.chans[channelID]
	if !ok || ch.GroupID != groupID {
		return nil, apperr.NotFound("channel not found")
	}
	cp := *ch
	return &cp, nil
}

func (f *fakeGroupStore) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return false, nil
	}
	for _, m := range g.Members {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGroupStore) AddMember(_ context.Context, groupID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return apperr.NotFound("group not found")
	}
	for _, m := range g.Members {
		if m == userID {
			return nil
		}
	}
	g.Members = append(g.Members, userID)
	return nil
}

func (f *fakeGroupStore) RemoveMember(_ context.Context, groupID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return apperr.NotFound("group not found")
	}
	for i, m := range g.Members {
		if m == userID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeInvStore struct {
	mu         sync.Mutex
	byID       map[string]*models.Invitation
	flipResult *bool // forced MarkResponded result when set
}

func newFakeInvStore() *fakeInvStore { return &fakeInvStore{byID: map[string]*models.Invitation{}} }

func (f *fakeInvStore) Create(_ context.Context, inv *models.Invitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.GroupID == inv.GroupID &&
			existing.InvitedUserID == inv.InvitedUserID &&
			existing.ProfileContext == inv.ProfileContext &&
			existing.Status == models.InvitationPending {
			return apperr.DuplicateInvitation("a pending invitation already exists")
		}
	}
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	inv.Status = models.InvitationPending
	inv.CreatedAt = time.Now().UTC()
	cp := *inv
	f.byID[inv.ID] = &cp
	return nil
}

func (f *fakeInvStore) Get(_ context.Context, id string) (*models.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("invitation not found")
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvStore) ListPending(_ context.Context, userID string, pc models.ProfileContext) ([]*models.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Invitation
	for _, inv := range f.byID {
		if inv.InvitedUserID == userID && inv.ProfileContext == pc && inv.Status == models.InvitationPending {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeInvStore) Summary(_ context.Context, userID string) (map[models.ProfileContext]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[models.ProfileContext]int64{}
	for _, pc := range models.AllContexts() {
		out[pc] = 0
	}
	for _, inv := range f.byID {
		if inv.InvitedUserID == userID && inv.Status == models.InvitationPending {
			out[inv.ProfileContext]++
		}
	}
	return out, nil
}

func (f *fakeInvStore) MarkResponded(_ context.Context, id, userID string, status models.InvitationStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.flipResult != nil {
		if !*f.flipResult {
			// model a concurrent decline winning the conditional update
			if inv, ok := f.byID[id]; ok {
				inv.Status = models.InvitationDeclined
			}
		}
		return *f.flipResult, nil
	}
	inv, ok := f.byID[id]
	if !ok || inv.InvitedUserID != userID || inv.Status != models.InvitationPending {
		return false, nil
	}
	now := time.Now().UTC()
	inv.Status = status
	inv.RespondedAt = &now
	return true, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	frames map[string][]hub.Frame
	online map[string]int
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{frames: map[string][]hub.Frame{}, online: map[string]int{}}
}

func (f *fakeNotifier) PushToUser(userID string, fr hub.Frame) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames[userID] = append(f.frames[userID], fr)
	return f.online[userID]
}

func (f *fakeNotifier) setOnline(userID string, conns int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID] = conns
}

func (f *fakeNotifier) framesFor(userID string) []hub.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]hub.Frame(nil), f.frames[userID]...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePublisher) Publish(_ context.Context, eventType string, _ []string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	return nil
}
