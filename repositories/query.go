package repositories

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/doug-martin/goqu/v9/exp"
	"gorm.io/gorm"
)

var dialect = goqu.Dialect("mysql")

// inChunkSize caps IN lists so very large selections stay under max_allowed_packet.
const inChunkSize = 1000

type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

func selectFrom(table ...interface{}) *goqu.SelectDataset {
	return dialect.From(table...).Prepared(true)
}

func updateTable(table interface{}) *goqu.UpdateDataset {
	return dialect.Update(table).Prepared(true)
}

func deleteFrom(table interface{}) *goqu.DeleteDataset {
	return dialect.Delete(table).Prepared(true)
}

func insertInto(table interface{}) *goqu.InsertDataset {
	return dialect.Insert(table).Prepared(true)
}

func scanInto(ctx context.Context, db *gorm.DB, q sqlBuilder, dest interface{}) error {
	query, args, err := q.ToSQL()
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Raw(query, args...).Scan(dest).Error
}

func scanIDs(ctx context.Context, db *gorm.DB, q sqlBuilder) ([]uint64, error) {
	ids := make([]uint64, 0)
	if err := scanInto(ctx, db, q, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func scanCount(ctx context.Context, db *gorm.DB, q sqlBuilder) (int64, error) {
	var count int64
	err := scanInto(ctx, db, q, &count)
	return count, err
}

func execute(ctx context.Context, db *gorm.DB, q sqlBuilder) (int64, error) {
	query, args, err := q.ToSQL()
	if err != nil {
		return 0, err
	}
	res := db.WithContext(ctx).Exec(query, args...)
	return res.RowsAffected, res.Error
}

func chunkIDs(ids []uint64, size int) [][]uint64 {
	if size <= 0 {
		size = inChunkSize
	}
	chunks := make([][]uint64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching term anywhere in a column.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func inSubquery(column string, sub *goqu.SelectDataset) exp.Expression {
	return goqu.L("? IN ?", goqu.I(column), sub)
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
