package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/testutil"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	users   *UserRepository
	groups  *GroupRepository
	invites *InviteRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestHelper(t).OpenTestDB(Migrate)
	return &fixture{
		db:      db,
		users:   NewUserRepository(db),
		groups:  NewGroupRepository(db),
		invites: NewInviteRepository(db),
	}
}

func (f *fixture) user(t *testing.T, username, email string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: email, PasswordHash: "x", Active: true, Role: models.PlatformRoleUser}
	if err := f.users.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) group(t *testing.T, creator *models.User) *models.Group {
	t.Helper()
	g := &models.Group{Name: "Engenharia", Privacy: models.PrivacyPrivate, CreatorID: creator.ID}
	if err := f.groups.CreateWithOwner(g); err != nil {
		t.Fatalf("create group: %v", err)
	}
	return g
}

func (f *fixture) pending(t *testing.T, g *models.Group, inviter *models.User, email, code string, expires time.Time, now time.Time) *models.Invite {
	t.Helper()
	inv := &models.Invite{
		GroupID:   g.ID,
		InviterID: inviter.ID,
		Email:     email,
		Code:      code,
		Status:    models.InvitePending,
		ExpiresAt: expires,
	}
	if err := f.invites.CreatePending(inv, now); err != nil {
		t.Fatalf("create invite: %v", err)
	}
	return inv
}

func TestDetectDialect(t *testing.T) {
	tests := []struct {
		dsn      string
		expected string
	}{
		{"postgres://u:p@localhost:5432/db", DialectPostgres},
		{"postgresql://localhost/db", DialectPostgres},
		{"host=localhost user=postgres dbname=x sslmode=disable", DialectPostgres},
		{"file:dev.db", DialectSQLite},
		{"./data/app.db", DialectSQLite},
		{":memory:", DialectSQLite},
	}
	for _, tt := range tests {
		if got := DetectDialect(tt.dsn); got != tt.expected {
			t.Errorf("DetectDialect(%q) = %q, want %q", tt.dsn, got, tt.expected)
		}
	}
}

func TestCreateWithOwnerAddsAdminMembership(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "alice@x.com")
	g := f.group(t, alice)

	m, err := f.groups.GetMember(g.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if m.Level != models.LevelAdmin {
		t.Errorf("creator level = %q, want admin", m.Level)
	}

	groups, err := f.groups.GetUserGroups(alice.ID)
	if err != nil || len(groups) != 1 || groups[0].ID != g.ID {
		t.Errorf("GetUserGroups = %v, %v", groups, err)
	}
}

func TestAddMemberTwiceIsAlreadyMember(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "alice@x.com")
	bob := f.user(t, "bob", "bob@x.com")
	g := f.group(t, alice)

	if err := f.groups.AddMember(g.ID, bob.ID, models.LevelMember); err != nil {
		t.Fatalf("first AddMember: %v", err)
	}
	if err := f.groups.AddMember(g.ID, bob.ID, models.LevelMember); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("second AddMember error = %v, want ErrAlreadyMember", err)
	}

	ok, err := f.groups.IsEmailMember(g.ID, "BOB@X.COM")
	if err != nil || !ok {
		t.Errorf("IsEmailMember should match case-insensitively, got %v, %v", ok, err)
	}
}

func TestMemberLevelAndRemoval(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "alice@x.com")
	bob := f.user(t, "bob", "bob@x.com")
	g := f.group(t, alice)
	_ = f.groups.AddMember(g.ID, bob.ID, models.LevelMember)

	if err := f.groups.UpdateMemberLevel(g.ID, bob.ID, models.LevelModerator); err != nil {
		t.Fatalf("UpdateMemberLevel: %v", err)
	}
	m, _ := f.groups.GetMember(g.ID, bob.ID)
	if m.Level != models.LevelModerator || !m.Capabilities().CanRemove || m.Capabilities().CanConfigure {
		t.Errorf("moderator capabilities wrong: %+v", m.Capabilities())
	}

	if err := f.groups.RemoveMember(g.ID, bob.ID); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if err := f.groups.RemoveMember(g.ID, bob.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("second RemoveMember error = %v, want record not found", err)
	}
	if err := f.groups.UpdateMemberLevel(g.ID, bob.ID, models.LevelAdmin); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("UpdateMemberLevel on non-member error = %v, want record not found", err)
	}
}

func TestCreatePendingRejectsSecondPendingInvite(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "alice@x.com")
	g := f.group(t, alice)
	now := time.Now().UTC()

	f.pending(t, g, alice, "b@x.com", "AAAAAAAAAA", now.Add(time.Hour), now)

	dup := &models.Invite{GroupID: g.ID, InviterID: alice.ID, Email: "b@x.com", Code: "BBBBBBBBBB", ExpiresAt: now.Add(time.Hour)}
	if err := f.invites.CreatePending(dup, now); !errors.Is(err, ErrPendingInviteExists) {
		t.Fatalf("second CreatePending error = %v, want ErrPendingInviteExists", err)
	}

	// Another address in the same group is independent.
	f.pending(t, g, alice, "c@x.com", "CCCCCCCCCC", now.Add(time.Hour), now)
}

func TestCreatePendingReplacesExpiredPending(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "alice@x.com")
	g := f.group(t, alice)
	past := time.Now().UTC().Add(-48 * time.Hour)
	now := time.Now().UTC()

	old := f.pending(t, g, alice, "b@x.com", "OLDOLDOLD1", past.Add(time.Hour), past)
	f.pending(t, g, alice, "b@x.com", "NEWNEWNEW1", now.Add(time.Hour), now)

	reloaded, err := f.invites.FindByCode(old.Code)
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	if reloaded.Status != models.InviteExpired {
		t.Errorf("stale invite status = %q, want expired", reloaded.Status)
	}
}

func TestCreatePendingDuplicateCode(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "alice@x.com")
	g := f.group(t, alice)
	now := time.Now().UTC()

	f.pending(t, g, alice, "b@x.com", "SAMECODE01", now.Add(time.Hour), now)
	clash := &models.Invite{GroupID: g.ID, InviterID: alice.ID, Email: "c@x.com", Code: "SAMECODE01", ExpiresAt: now.Add(time.Hour)}
	if err := f.invites.CreatePending(clash, now); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("code clash error = %v, want gorm.ErrDuplicatedKey", err)
	}
}

func TestAcceptIsAtomicAndSingleUse(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "alice@x.com")
	bob := f.user(t, "bob", "b@x.com")
	g := f.group(t, alice)
	now := time.Now().UTC()
	inv := f.pending(t, g, alice, "b@x.com", "ACCEPT0001", now.Add(time.Hour), now)

	if err := f.invites.Accept(inv, bob.ID, now); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	m, err := f.groups.GetMember(g.ID, bob.ID)
	if err != nil || m.Level != models.LevelMember {
		t.Fatalf("membership after accept = %+v, %v", m, err)
	}
	stored, _ := f.invites.FindByCode(inv.Code)
	if stored.Status != models.InviteAccepted || stored.RespondedAt == nil || stored.InviteeID == nil || *stored.InviteeID != bob.ID {
		t.Errorf("invite after accept = %+v", stored)
	}

	if err := f.invites.Accept(stored, bob.ID, now); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("second Accept error = %v, want ErrAlreadyMember", err)
	}
	members, _ := f.groups.GetMembers(g.ID)
	if len(members) != 2 {
		t.Errorf("member rows = %d, want 2", len(members))
	}
}

func TestAcceptExpiredRollsBackMembership(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "alice@x.com")
	bob := f.user(t, "bob", "b@x.com")
	g := f.group(t, alice)
	created := time.Now().UTC().Add(-2 * time.Hour)
	inv := f.pending(t, g, alice, "b@x.com", "EXPIRED001", created.Add(time.Hour), created)

	err := f.invites.Accept(inv, bob.ID, time.Now().UTC())
	if !errors.Is(err, ErrInviteNotRedeemable) {
		t.Fatalf("Accept expired error = %v, want ErrInviteNotRedeemable", err)
	}
	if ok, _ := f.groups.IsMember(g.ID, bob.ID); ok {
		t.Error("membership must be rolled back when the invite is not redeemable")
	}
}

func TestDeclineAndDeletePending(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "alice@x.com")
	g := f.group(t, alice)
	now := time.Now().UTC()

	declined := f.pending(t, g, alice, "b@x.com", "DECLINE001", now.Add(time.Hour), now)
	if err := f.invites.Decline(declined.ID, now); err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if err := f.invites.Decline(declined.ID, now); !errors.Is(err, ErrInviteNotRedeemable) {
		t.Errorf("second Decline error = %v, want ErrInviteNotRedeemable", err)
	}
	if err := f.invites.DeletePending(declined.ID); !errors.Is(err, ErrInviteAnswered) {
		t.Errorf("DeletePending on declined error = %v, want ErrInviteAnswered", err)
	}

	open := f.pending(t, g, alice, "c@x.com", "CANCEL0001", now.Add(time.Hour), now)
	if err := f.invites.DeletePending(open.ID); err != nil {
		t.Fatalf("DeletePending: %v", err)
	}
	if _, err := f.invites.FindByCode(open.Code); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("deleted invite lookup error = %v, want record not found", err)
	}
}

func TestExpireStale(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "alice@x.com")
	g := f.group(t, alice)
	now := time.Now().UTC()
	past := now.Add(-10 * 24 * time.Hour)

	f.pending(t, g, alice, "old1@x.com", "STALE00001", past.Add(time.Hour), past)
	f.pending(t, g, alice, "old2@x.com", "STALE00002", past.Add(time.Hour), past)
	fresh := f.pending(t, g, alice, "new@x.com", "FRESH00001", now.Add(time.Hour), now)

	n, err := f.invites.ExpireStale(now)
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if n != 2 {
		t.Errorf("ExpireStale flipped %d, want 2", n)
	}
	if n, _ := f.invites.ExpireStale(now); n != 0 {
		t.Errorf("second sweep flipped %d, want 0", n)
	}
	stored, _ := f.invites.FindByCode(fresh.Code)
	if stored.Status != models.InvitePending {
		t.Errorf("fresh invite status = %q, want pending", stored.Status)
	}

	expired, _ := f.invites.ListByGroup(g.ID, models.InviteExpired)
	if len(expired) != 2 {
		t.Errorf("ListByGroup(expired) = %d rows, want 2", len(expired))
	}
}

func TestListRedeemableAndLinkInvitee(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "alice@x.com")
	g := f.group(t, alice)
	now := time.Now().UTC()
	f.pending(t, g, alice, "b@x.com", "LINK000001", now.Add(time.Hour), now)

	bob := f.user(t, "bob", "b@x.com")
	if err := f.invites.LinkInvitee("b@x.com", bob.ID); err != nil {
		t.Fatalf("LinkInvitee: %v", err)
	}
	list, err := f.invites.ListRedeemableForEmail("b@x.com", now)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListRedeemableForEmail = %v, %v", list, err)
	}
	if list[0].InviteeID == nil || *list[0].InviteeID != bob.ID {
		t.Errorf("invitee not linked: %+v", list[0])
	}
	if list[0].Group.Name != "Engenharia" || list[0].Inviter.ID != alice.ID {
		t.Errorf("preloads missing: group=%q inviter=%d", list[0].Group.Name, list[0].Inviter.ID)
	}

	if later, _ := f.invites.ListRedeemableForEmail("b@x.com", now.Add(2*time.Hour)); len(later) != 0 {
		t.Errorf("expired invites listed: %d", len(later))
	}
}

func TestSoftDeletedGroupHidesInviteGroup(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", "alice@x.com")
	g := f.group(t, alice)
	now := time.Now().UTC()
	inv := f.pending(t, g, alice, "b@x.com", "ORPHAN0001", now.Add(time.Hour), now)

	if err := f.groups.SoftDelete(g.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if _, err := f.groups.FindByID(g.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("FindByID after soft delete error = %v", err)
	}
	stored, err := f.invites.FindByCode(inv.Code)
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	if stored.Group.ID != 0 {
		t.Errorf("preloaded group of a deleted group should be empty, got id %d", stored.Group.ID)
	}
}
