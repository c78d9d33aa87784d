package cache

import (
	"testing"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"gorm.io/datatypes"
)

func newTestCache() *NotificationCache {
	return NewNotificationCache(NewLocalCache(time.Minute, time.Minute))
}

func TestSettingsRoundTrip(t *testing.T) {
	nc := newTestCache()
	start, end := 22, 7
	in := &models.NotificationSettings{
		UserID:          3,
		PushEnabled:     true,
		TypeToggles:     datatypes.JSONMap{"event": false},
		QuietStartHour:  &start,
		QuietEndHour:    &end,
		DigestFrequency: models.DigestDaily,
	}
	if err := nc.SetSettings(in); err != nil {
		t.Fatalf("SetSettings: %v", err)
	}

	got, ok := nc.GetSettings(3)
	if !ok {
		t.Fatal("expected cached settings")
	}
	if got.QuietStartHour == nil || *got.QuietStartHour != 22 || *got.QuietEndHour != 7 {
		t.Errorf("quiet hours not preserved: %+v", got)
	}
	if got.TypeEnabled(models.NotificationEvent) {
		t.Error("event toggle should stay disabled after caching")
	}
	if !got.TypeEnabled(models.NotificationInvite) {
		t.Error("missing toggle should be enabled")
	}
	if got.DigestFrequency != models.DigestDaily {
		t.Errorf("digest = %q, want daily", got.DigestFrequency)
	}

	if _, ok := nc.GetSettings(4); ok {
		t.Error("unexpected hit for another user")
	}
}

func TestUnreadCounter(t *testing.T) {
	nc := newTestCache()
	if _, ok := nc.GetUnread(1); ok {
		t.Fatal("empty cache should miss")
	}
	if err := nc.SetUnread(1, 5); err != nil {
		t.Fatalf("SetUnread: %v", err)
	}
	if n, ok := nc.GetUnread(1); !ok || n != 5 {
		t.Errorf("GetUnread = %d, %v; want 5, true", n, ok)
	}
	nc.InvalidateUnread(1)
	if _, ok := nc.GetUnread(1); ok {
		t.Error("counter should be gone after invalidation")
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var nc *NotificationCache
	if err := nc.SetUnread(1, 2); err != nil {
		t.Errorf("SetUnread on nil: %v", err)
	}
	if _, ok := nc.GetUnread(1); ok {
		t.Error("nil cache should never hit")
	}
	if _, ok := nc.GetSettings(1); ok {
		t.Error("nil cache should never hit")
	}
	nc.InvalidateUnread(1)
}
