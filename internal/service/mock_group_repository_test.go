package service

import (
	"strings"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/repository"
	"gorm.io/gorm"
)

// MockGroupRepository is a mock implementation for tests
// It implements repository.GroupRepositoryInterface.
type MockGroupRepository struct {
	groups  map[uint]*models.Group
	members map[uint]map[uint]*models.GroupMember
	users   *MockUserRepository
	nextID  uint
}

func NewMockGroupRepository(users *MockUserRepository) *MockGroupRepository {
	return &MockGroupRepository{
		groups:  make(map[uint]*models.Group),
		members: make(map[uint]map[uint]*models.GroupMember),
		users:   users,
		nextID:  1,
	}
}

func (m *MockGroupRepository) CreateWithOwner(group *models.Group) error {
	if group.ID == 0 {
		group.ID = m.nextID
		m.nextID++
	}
	m.groups[group.ID] = group
	return m.AddMember(group.ID, group.CreatorID, models.LevelAdmin)
}

func (m *MockGroupRepository) FindByID(id uint) (*models.Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *MockGroupRepository) Update(group *models.Group) error {
	if _, ok := m.groups[group.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *group
	m.groups[group.ID] = &cp
	return nil
}

func (m *MockGroupRepository) SoftDelete(id uint) error {
	delete(m.groups, id)
	return nil
}

func (m *MockGroupRepository) SearchPublic(query string, limit int) ([]models.Group, error) {
	var out []models.Group
	for _, g := range m.groups {
		if !g.IsPublic() || !strings.Contains(strings.ToLower(g.Name), strings.ToLower(query)) {
			continue
		}
		out = append(out, *g)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MockGroupRepository) GetUserGroups(userID uint) ([]models.Group, error) {
	var out []models.Group
	for gid, members := range m.members {
		g, ok := m.groups[gid]
		if !ok {
			continue
		}
		if _, ok := members[userID]; ok {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *MockGroupRepository) AddMember(groupID, userID uint, level models.PermissionLevel) error {
	if _, ok := m.members[groupID]; !ok {
		m.members[groupID] = make(map[uint]*models.GroupMember)
	}
	if _, ok := m.members[groupID][userID]; ok {
		return repository.ErrAlreadyMember
	}
	m.members[groupID][userID] = &models.GroupMember{GroupID: groupID, UserID: userID, Level: level}
	return nil
}

func (m *MockGroupRepository) RemoveMember(groupID, userID uint) error {
	if _, ok := m.members[groupID][userID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.members[groupID], userID)
	return nil
}

func (m *MockGroupRepository) UpdateMemberLevel(groupID, userID uint, level models.PermissionLevel) error {
	member, ok := m.members[groupID][userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	member.Level = level
	return nil
}

func (m *MockGroupRepository) GetMember(groupID, userID uint) (*models.GroupMember, error) {
	member, ok := m.members[groupID][userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *member
	return &cp, nil
}

func (m *MockGroupRepository) GetMembers(groupID uint) ([]models.GroupMember, error) {
	var out []models.GroupMember
	for _, member := range m.members[groupID] {
		cp := *member
		if m.users != nil {
			if u, err := m.users.FindByID(cp.UserID); err == nil {
				cp.User = *u
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

func (m *MockGroupRepository) IsMember(groupID, userID uint) (bool, error) {
	_, ok := m.members[groupID][userID]
	return ok, nil
}

func (m *MockGroupRepository) IsEmailMember(groupID uint, email string) (bool, error) {
	if m.users == nil {
		return false, nil
	}
	u, err := m.users.FindByEmail(email)
	if err != nil {
		return false, nil
	}
	return m.IsMember(groupID, u.ID)
}
