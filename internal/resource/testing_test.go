package resource

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Category{}, &Resource{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func seedStore(t *testing.T) (*Store, map[string]Category) {
	t.Helper()
	store := NewStore(newTestDB(t))
	ctx := testContext(t)
	require.NoError(t, store.EnsureCategories(ctx, DefaultCategories))

	cats := map[string]Category{}
	for _, c := range DefaultCategories {
		found, err := store.GetCategoryBySlug(ctx, c.Slug)
		require.NoError(t, err)
		require.NotNil(t, found)
		cats[c.Slug] = *found
	}
	return store, cats
}
