package cache

import (
	"fmt"
	"strconv"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	log "github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	SettingsTTL    = 10 * time.Minute
	UnreadCountTTL = 1 * time.Minute
)

// NotificationCache holds per-user notification settings and unread counters.
// A nil *NotificationCache is valid and caches nothing.
type NotificationCache struct {
	store Store
}

func NewNotificationCache(store Store) *NotificationCache {
	return &NotificationCache{store: store}
}

func settingsKey(userID uint) string {
	return fmt.Sprintf("notif:settings:%d", userID)
}

func unreadKey(userID uint) string {
	return fmt.Sprintf("notif:unread:%d", userID)
}

func (nc *NotificationCache) GetSettings(userID uint) (*models.NotificationSettings, bool) {
	if nc == nil || nc.store == nil {
		return nil, false
	}
	data, err := nc.store.Get(settingsKey(userID))
	if err != nil || data == nil {
		return nil, false
	}
	var s models.NotificationSettings
	if err := msgpack.Unmarshal(data, &s); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("cache: bad settings entry")
		return nil, false
	}
	return &s, true
}

func (nc *NotificationCache) SetSettings(s *models.NotificationSettings) error {
	if nc == nil || nc.store == nil {
		return nil
	}
	data, err := msgpack.Marshal(s)
	if err != nil {
		return err
	}
	return nc.store.Set(settingsKey(s.UserID), data, SettingsTTL)
}

func (nc *NotificationCache) GetUnread(userID uint) (int64, bool) {
	if nc == nil || nc.store == nil {
		return 0, false
	}
	data, err := nc.store.Get(unreadKey(userID))
	if err != nil || data == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (nc *NotificationCache) SetUnread(userID uint, count int64) error {
	if nc == nil || nc.store == nil {
		return nil
	}
	return nc.store.Set(unreadKey(userID), []byte(strconv.FormatInt(count, 10)), UnreadCountTTL)
}

// InvalidateUnread drops the counter; the next read recounts from the database.
func (nc *NotificationCache) InvalidateUnread(userID uint) {
	if nc == nil || nc.store == nil {
		return
	}
	if err := nc.store.Delete(unreadKey(userID)); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("cache: failed to invalidate unread count")
	}
}
