package waf

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kaczcards/card-show-finder-sub014/internal/models"
)

func setupLogStore(t *testing.T) *LogStore {
	dsn := fmt.Sprintf("file:waf_logs_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.WafLogEntry{}))
	return NewLogStore(db)
}

func logEntryAt(ts time.Time, ip, ruleID string) *models.WafLogEntry {
	return &models.WafLogEntry{
		UUID:           uuid.New().String(),
		Timestamp:      ts.UTC(),
		IPAddress:      ip,
		RuleID:         ruleID,
		AttackCategory: "sql_injection",
		ActionTaken:    "block",
		Headers:        "{}",
		QueryParams:    "{}",
	}
}

func TestLogStore_InsertAndRecent(t *testing.T) {
	store := setupLogStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.Insert(ctx, logEntryAt(now.Add(-2*time.Minute), "10.0.0.1", "sqli-001")))
	require.NoError(t, store.Insert(ctx, logEntryAt(now.Add(-1*time.Minute), "10.0.0.2", "xss-001")))
	require.NoError(t, store.Insert(ctx, logEntryAt(now, "10.0.0.1", "path-001")))

	all, err := store.Recent(ctx, LogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "path-001", all[0].RuleID)
	assert.Equal(t, "sqli-001", all[2].RuleID)

	byIP, err := store.Recent(ctx, LogFilter{IPAddress: "10.0.0.1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, byIP, 1)
	assert.Equal(t, "path-001", byIP[0].RuleID)

	byRule, err := store.Recent(ctx, LogFilter{RuleID: "xss-001"})
	require.NoError(t, err)
	require.Len(t, byRule, 1)
	assert.Equal(t, "10.0.0.2", byRule[0].IPAddress)
}

func TestLogStore_PurgeOlderThan(t *testing.T) {
	store := setupLogStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Insert(ctx, logEntryAt(now.AddDate(0, 0, -45), "10.0.0.1", "sqli-001")))
	require.NoError(t, store.Insert(ctx, logEntryAt(now.AddDate(0, 0, -31), "10.0.0.1", "sqli-002")))
	require.NoError(t, store.Insert(ctx, logEntryAt(now.AddDate(0, 0, -29), "10.0.0.1", "xss-001")))
	require.NoError(t, store.Insert(ctx, logEntryAt(now, "10.0.0.1", "path-001")))

	n, err := store.PurgeOlderThan(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rest, err := store.Recent(ctx, LogFilter{})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "path-001", rest[0].RuleID)
	assert.Equal(t, "xss-001", rest[1].RuleID)

	n, err = store.PurgeOlderThan(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestEngine_PersistsThroughLogStore(t *testing.T) {
	store := setupLogStore(t)
	e := New(WithLogWriter(store))
	cfg, _ := Preset("public")

	req := getRequest(q("<script>alert(1)</script>"))
	req.ID = "req-123"
	require.NotNil(t, e.Protect(context.Background(), req, cfg, ""))

	entries, err := store.Recent(context.Background(), LogFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].RequestID)
	assert.Equal(t, "xss-001", entries[0].RuleID)
	assert.Nil(t, entries[0].UserID)
}
