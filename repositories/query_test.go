package repositories

import (
	"errors"
	"fmt"
	"testing"

	"wccleanup/models"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkIDs(t *testing.T) {
	ids := []uint64{1, 2, 3, 4, 5}

	chunks := chunkIDs(ids, 2)
	assert.Equal(t, [][]uint64{{1, 2}, {3, 4}, {5}}, chunks)
	assert.Empty(t, chunkIDs(nil, 2))
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, containsPattern("50%_off"))
	assert.Equal(t, `%a\\b%`, containsPattern(`a\b`))
}

func TestRolePatternMatchesSerializedEntry(t *testing.T) {
	assert.Equal(t, `%s:8:"customer";b:1;%`, rolePattern("customer"))
	assert.Equal(t, `%s:12:"shop\_manager";b:1;%`, rolePattern("shop_manager"))
}

func TestOrderStatusConversion(t *testing.T) {
	assert.Equal(t, "wc-pending", storedOrderStatus("pending"))
	assert.Equal(t, "wc-pending", storedOrderStatus("wc-pending"))
	assert.Equal(t, "trash", storedOrderStatus("trash"))
	assert.Equal(t, "auto-draft", storedOrderStatus("auto-draft"))
	assert.Equal(t, "processing", displayOrderStatus("wc-processing"))
}

func TestTablesUsePrefix(t *testing.T) {
	tables := NewTables("shop_")
	assert.Equal(t, "shop_posts", tables.Posts())
	assert.Equal(t, "shop_wc_orders", tables.Orders())
	assert.Equal(t, "shop_capabilities", tables.CapabilitiesKey())
	assert.Equal(t, "wp_users", NewTables("").Users())
}

func TestPageDefaults(t *testing.T) {
	assert.Equal(t, uint(20), Page{}.limit())
	assert.Equal(t, uint(0), Page{Offset: -5}.offset())
	assert.Equal(t, uint(40), Page{Offset: 40, Limit: 20}.offset())
}

func TestIsMissingTable(t *testing.T) {
	missing := fmt.Errorf("query: %w", &mysql.MySQLError{Number: 1146, Message: "Table 'wp.wp_wc_orders' doesn't exist"})
	assert.True(t, isMissingTable(missing))
	assert.False(t, isMissingTable(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isMissingTable(errors.New("boom")))
}

func TestDuplicateValuesQueryGroupsByMetaValue(t *testing.T) {
	repo := NewGormProductRepository(nil, NewTables("wp_"))

	query, args, err := repo.duplicateValues(models.DuplicateKeySKU).ToSQL()
	require.NoError(t, err)

	assert.Contains(t, query, "`wp_postmeta`")
	assert.Contains(t, query, "GROUP BY `dpm`.`meta_value`")
	assert.Contains(t, query, "HAVING")
	assert.Contains(t, args, "_sku")
}

func TestDuplicateTitleQueryExcludesVariations(t *testing.T) {
	repo := NewGormProductRepository(nil, NewTables("wp_"))

	query, args, err := repo.duplicateValues(models.DuplicateKeyTitle).ToSQL()
	require.NoError(t, err)

	assert.Contains(t, query, "GROUP BY `dp`.`post_title`")
	assert.NotContains(t, query, "wp_postmeta")
	assert.Contains(t, args, models.PostTypeProduct)
	assert.NotContains(t, args, models.PostTypeVariation)
}

func TestHPOSFilterUsesStoredStatuses(t *testing.T) {
	repo := NewHPOSOrderRepository(nil, NewTables("wp_"))

	q := repo.filtered(selectFrom("wp_wc_orders"), ListFilter{
		Statuses: []string{"pending", "processing"},
		Dates:    &DateRange{From: "2024-01-01 00:00:00", To: "2024-01-01 23:59:59"},
	})
	query, args, err := q.ToSQL()
	require.NoError(t, err)

	assert.Contains(t, query, "`o`.`date_created_gmt` BETWEEN")
	assert.Contains(t, args, "wc-pending")
	assert.Contains(t, args, "wc-processing")
	assert.Contains(t, args, "2024-01-01 23:59:59")
}

func TestLegacyFilterHidesTrashByDefault(t *testing.T) {
	repo := NewLegacyOrderRepository(nil, NewTables("wp_"))

	query, args, err := repo.filtered(selectFrom("wp_posts"), ListFilter{}).ToSQL()
	require.NoError(t, err)

	assert.Contains(t, query, "NOT IN")
	assert.Contains(t, args, "trash")
	assert.Contains(t, args, "auto-draft")
}
