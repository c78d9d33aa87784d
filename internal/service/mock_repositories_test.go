package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/repository"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/storage"
	"gorm.io/gorm"
)

// MockInviteRepository keeps invites in memory and resolves the Group and
// Inviter preloads through the group and user mocks.
type MockInviteRepository struct {
	invites map[uint]*models.Invite
	groups  *MockGroupRepository
	users   *MockUserRepository
	nextID  uint
	// collisions makes the next N inserts fail as a code clash.
	collisions int
}

var _ repository.InviteRepositoryInterface = (*MockInviteRepository)(nil)

func NewMockInviteRepository(groups *MockGroupRepository, users *MockUserRepository) *MockInviteRepository {
	return &MockInviteRepository{
		invites: make(map[uint]*models.Invite),
		groups:  groups,
		users:   users,
		nextID:  1,
	}
}

func (m *MockInviteRepository) hydrate(inv *models.Invite) models.Invite {
	cp := *inv
	cp.Group = models.Group{}
	cp.Inviter = models.User{}
	if g, ok := m.groups.groups[inv.GroupID]; ok {
		cp.Group = *g
	}
	if u, ok := m.users.users[inv.InviterID]; ok {
		cp.Inviter = *u
	}
	return cp
}

func (m *MockInviteRepository) CreatePending(invite *models.Invite, now time.Time) error {
	for _, inv := range m.invites {
		if inv.GroupID == invite.GroupID && inv.Email == invite.Email &&
			inv.Status == models.InvitePending && inv.ExpiresAt.Before(now) {
			inv.Status = models.InviteExpired
		}
	}
	for _, inv := range m.invites {
		if inv.GroupID == invite.GroupID && inv.Email == invite.Email && inv.Status == models.InvitePending {
			return repository.ErrPendingInviteExists
		}
	}
	if m.collisions > 0 {
		m.collisions--
		return gorm.ErrDuplicatedKey
	}
	for _, inv := range m.invites {
		if inv.Code == invite.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	invite.ID = m.nextID
	m.nextID++
	invite.CreatedAt = now
	stored := *invite
	stored.Group, stored.Inviter = models.Group{}, models.User{}
	m.invites[invite.ID] = &stored
	return nil
}

func (m *MockInviteRepository) FindByCode(code string) (*models.Invite, error) {
	for _, inv := range m.invites {
		if inv.Code == code {
			cp := m.hydrate(inv)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockInviteRepository) sorted(keep func(*models.Invite) bool) []models.Invite {
	var out []models.Invite
	for _, inv := range m.invites {
		if keep(inv) {
			out = append(out, m.hydrate(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *MockInviteRepository) ListByGroup(groupID uint, status models.InviteStatus) ([]models.Invite, error) {
	return m.sorted(func(inv *models.Invite) bool {
		return inv.GroupID == groupID && (status == "" || inv.Status == status)
	}), nil
}

func (m *MockInviteRepository) ListRedeemableForEmail(email string, now time.Time) ([]models.Invite, error) {
	return m.sorted(func(inv *models.Invite) bool {
		return inv.Email == email && inv.Redeemable(now)
	}), nil
}

func (m *MockInviteRepository) Accept(invite *models.Invite, userID uint, now time.Time) error {
	stored, ok := m.invites[invite.ID]
	if !ok {
		return repository.ErrInviteNotRedeemable
	}
	if ok, _ := m.groups.IsMember(invite.GroupID, userID); ok {
		return repository.ErrAlreadyMember
	}
	if !stored.Redeemable(now) {
		return repository.ErrInviteNotRedeemable
	}
	if err := m.groups.AddMember(invite.GroupID, userID, models.LevelMember); err != nil {
		return err
	}
	stored.Status = models.InviteAccepted
	stored.RespondedAt = &now
	stored.InviteeID = &userID
	invite.Status, invite.RespondedAt, invite.InviteeID = stored.Status, stored.RespondedAt, stored.InviteeID
	return nil
}

func (m *MockInviteRepository) Decline(inviteID uint, now time.Time) error {
	stored, ok := m.invites[inviteID]
	if !ok || !stored.Redeemable(now) {
		return repository.ErrInviteNotRedeemable
	}
	stored.Status = models.InviteDeclined
	stored.RespondedAt = &now
	return nil
}

func (m *MockInviteRepository) DeletePending(inviteID uint) error {
	stored, ok := m.invites[inviteID]
	if !ok || stored.Status != models.InvitePending {
		return repository.ErrInviteAnswered
	}
	delete(m.invites, inviteID)
	return nil
}

func (m *MockInviteRepository) ExpireStale(now time.Time) (int64, error) {
	var n int64
	for _, inv := range m.invites {
		if inv.Status == models.InvitePending && inv.ExpiresAt.Before(now) {
			inv.Status = models.InviteExpired
			n++
		}
	}
	return n, nil
}

func (m *MockInviteRepository) LinkInvitee(email string, userID uint) error {
	for _, inv := range m.invites {
		if inv.Email == email && inv.Status == models.InvitePending && inv.InviteeID == nil {
			id := userID
			inv.InviteeID = &id
		}
	}
	return nil
}

// MockNotificationRepository keeps notifications in insertion order.
type MockNotificationRepository struct {
	items    []*models.Notification
	settings map[uint]*models.NotificationSettings
	nextID   uint
}

var _ repository.NotificationRepositoryInterface = (*MockNotificationRepository)(nil)

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{settings: make(map[uint]*models.NotificationSettings), nextID: 1}
}

func (m *MockNotificationRepository) Create(n *models.Notification) error {
	n.ID = m.nextID
	m.nextID++
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *MockNotificationRepository) forUser(userID uint) []*models.Notification {
	var out []*models.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (m *MockNotificationRepository) ListForUser(userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	var out []models.Notification
	all := m.forUser(userID)
	for i := len(all) - 1; i >= 0; i-- {
		if unreadOnly && all[i].Read {
			continue
		}
		out = append(out, *all[i])
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockNotificationRepository) CountUnread(userID uint) (int64, error) {
	var n int64
	for _, item := range m.forUser(userID) {
		if !item.Read {
			n++
		}
	}
	return n, nil
}

func (m *MockNotificationRepository) MarkRead(id, userID uint, at time.Time) error {
	for _, item := range m.forUser(userID) {
		if item.ID == id {
			item.Read = true
			item.ReadAt = &at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *MockNotificationRepository) MarkAllRead(userID uint, at time.Time) (int64, error) {
	var n int64
	for _, item := range m.forUser(userID) {
		if !item.Read {
			item.Read = true
			item.ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (m *MockNotificationRepository) Delete(id, userID uint) error {
	for i, item := range m.items {
		if item.ID == id && item.UserID == userID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *MockNotificationRepository) GetSettings(userID uint) (*models.NotificationSettings, error) {
	s, ok := m.settings[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockNotificationRepository) SaveSettings(settings *models.NotificationSettings) error {
	cp := *settings
	m.settings[settings.UserID] = &cp
	return nil
}

// MockEventRepository stores events by id.
type MockEventRepository struct {
	events map[uint]*models.Event
	nextID uint
}

var _ repository.EventRepositoryInterface = (*MockEventRepository)(nil)

func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{events: make(map[uint]*models.Event), nextID: 1}
}

func (m *MockEventRepository) Create(event *models.Event) error {
	event.ID = m.nextID
	m.nextID++
	for i := range event.Participants {
		event.Participants[i].EventID = event.ID
	}
	cp := *event
	cp.Participants = append([]models.EventParticipant(nil), event.Participants...)
	m.events[event.ID] = &cp
	return nil
}

func (m *MockEventRepository) FindByID(id uint) (*models.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	cp.Participants = append([]models.EventParticipant(nil), e.Participants...)
	return &cp, nil
}

func (m *MockEventRepository) ListByGroup(groupID uint, from, to *time.Time) ([]models.Event, error) {
	var out []models.Event
	for _, e := range m.events {
		if e.GroupID != groupID {
			continue
		}
		if from != nil && e.EndsAt.Before(*from) {
			continue
		}
		if to != nil && e.StartsAt.After(*to) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m *MockEventRepository) Update(event *models.Event) error {
	stored, ok := m.events[event.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	participants := stored.Participants
	cp := *event
	cp.Participants = participants
	m.events[event.ID] = &cp
	return nil
}

func (m *MockEventRepository) Delete(id uint) error {
	if _, ok := m.events[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *MockEventRepository) AddParticipants(eventID uint, userIDs []uint) error {
	e, ok := m.events[eventID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, id := range userIDs {
		found := false
		for _, p := range e.Participants {
			if p.UserID == id {
				found = true
				break
			}
		}
		if !found {
			e.Participants = append(e.Participants, models.EventParticipant{EventID: eventID, UserID: id, Status: models.ParticipantPending})
		}
	}
	return nil
}

func (m *MockEventRepository) SetParticipantStatus(eventID, userID uint, status models.ParticipantStatus, at time.Time) error {
	e, ok := m.events[eventID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range e.Participants {
		if e.Participants[i].UserID == userID {
			e.Participants[i].Status = status
			e.Participants[i].RespondedAt = &at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// MockFileRepository keeps file rows, soft-deleted ones included.
type MockFileRepository struct {
	files   map[uint]*models.File
	deleted map[uint]bool
	nextID  uint
	failOn  error
}

var _ repository.FileRepositoryInterface = (*MockFileRepository)(nil)

func NewMockFileRepository() *MockFileRepository {
	return &MockFileRepository{files: make(map[uint]*models.File), deleted: make(map[uint]bool), nextID: 1}
}

func (m *MockFileRepository) Create(file *models.File) error {
	if m.failOn != nil {
		return m.failOn
	}
	file.ID = m.nextID
	m.nextID++
	cp := *file
	m.files[file.ID] = &cp
	return nil
}

func (m *MockFileRepository) FindByID(id uint) (*models.File, error) {
	f, ok := m.files[id]
	if !ok || m.deleted[id] {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *MockFileRepository) ListByGroup(groupID uint, folder string) ([]models.File, error) {
	var out []models.File
	for id, f := range m.files {
		if m.deleted[id] || f.GroupID != groupID || (folder != "" && f.Folder != folder) {
			continue
		}
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MockFileRepository) ListVersions(rootID uint) ([]models.File, error) {
	var out []models.File
	for id, f := range m.files {
		if m.deleted[id] || f.RootID() != rootID {
			continue
		}
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (m *MockFileRepository) MaxVersion(rootID uint) (int, error) {
	latest := 0
	for _, f := range m.files {
		if f.RootID() == rootID && f.Version > latest {
			latest = f.Version
		}
	}
	return latest, nil
}

func (m *MockFileRepository) Update(file *models.File) error {
	if _, ok := m.files[file.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *file
	m.files[file.ID] = &cp
	return nil
}

func (m *MockFileRepository) SoftDelete(id uint) error {
	if _, ok := m.files[id]; !ok || m.deleted[id] {
		return gorm.ErrRecordNotFound
	}
	m.deleted[id] = true
	return nil
}

func (m *MockFileRepository) IncrementDownloads(id uint) error {
	f, ok := m.files[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.Downloads++
	return nil
}

// memoryStore is an ObjectStore backed by a map.
type memoryStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memoryStore) PutObject(_ context.Context, key string, body io.Reader, _ int64, contentType string) (storage.ObjectStat, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return storage.ObjectStat{}, err
	}
	s.objects[key] = b
	s.types[key] = contentType
	return storage.ObjectStat{Size: int64(len(b)), ContentType: contentType}, nil
}

func (s *memoryStore) GetObject(_ context.Context, key string) (io.ReadCloser, storage.ObjectStat, error) {
	b, ok := s.objects[key]
	if !ok {
		return nil, storage.ObjectStat{}, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(b)), storage.ObjectStat{Size: int64(len(b)), ContentType: s.types[key]}, nil
}

func (s *memoryStore) DeleteObject(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *memoryStore) PublicURL(key string) string {
	return "https://files.test/" + strings.TrimLeft(key, "/")
}

// recordingNotifier captures every notification request.
type recordingNotifier struct {
	sent []NotifyInput
}

func (r *recordingNotifier) Notify(input NotifyInput) (*models.Notification, error) {
	r.sent = append(r.sent, input)
	return &models.Notification{UserID: input.UserID, Title: input.Title, Type: input.Type}, nil
}

func (r *recordingNotifier) to(userID uint) []NotifyInput {
	var out []NotifyInput
	for _, n := range r.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}
