package repositories

import (
	"context"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"gorm.io/gorm"
)

const (
	postStatusTrash = "trash"

	metaTrashStatus = "_wp_trash_meta_status"
	metaTrashTime   = "_wp_trash_meta_time"
)

type postRow struct {
	ID       uint64 `gorm:"column:ID"`
	PostType string `gorm:"column:post_type"`
	Status   string `gorm:"column:post_status"`
	ParentID uint64 `gorm:"column:post_parent"`
}

// postStore holds the wp_posts primitives shared by bookings, products and legacy orders.
type postStore struct {
	tables Tables
}

func (s postStore) get(ctx context.Context, db *gorm.DB, id uint64, postTypes ...string) (postRow, error) {
	q := selectFrom(s.tables.Posts()).
		Select("ID", "post_type", "post_status", "post_parent").
		Where(goqu.C("ID").Eq(id)).
		Limit(1)
	if len(postTypes) > 0 {
		q = q.Where(goqu.C("post_type").In(toInterfaces(postTypes)...))
	}
	var rows []postRow
	if err := scanInto(ctx, db, q, &rows); err != nil {
		return postRow{}, err
	}
	if len(rows) == 0 {
		return postRow{}, ErrNotFound
	}
	return rows[0], nil
}

func (s postStore) childIDs(ctx context.Context, db *gorm.DB, parentID uint64, postType string) ([]uint64, error) {
	return scanIDs(ctx, db, selectFrom(s.tables.Posts()).
		Select("ID").
		Where(goqu.Ex{"post_parent": parentID, "post_type": postType}).
		Order(goqu.C("ID").Asc()))
}

// trash moves a post to the trash the way WordPress does, remembering the previous status.
func (s postStore) trash(ctx context.Context, db *gorm.DB, post postRow) error {
	affected, err := execute(ctx, db, updateTable(s.tables.Posts()).
		Set(goqu.Record{"post_status": postStatusTrash}).
		Where(goqu.C("ID").Eq(post.ID)))
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDeleteRefused
	}
	_, err = execute(ctx, db, insertInto(s.tables.PostMeta()).
		Cols("post_id", "meta_key", "meta_value").
		Vals(
			[]interface{}{post.ID, metaTrashStatus, post.Status},
			[]interface{}{post.ID, metaTrashTime, strconv.FormatInt(time.Now().Unix(), 10)},
		))
	return err
}

// purge removes posts with their meta, comments and term relationships, returning deleted post rows.
func (s postStore) purge(ctx context.Context, db *gorm.DB, ids []uint64) (int64, error) {
	var deleted int64
	for _, chunk := range chunkIDs(ids, inChunkSize) {
		if err := deleteCommentsOn(ctx, db, s.tables, chunk); err != nil {
			return deleted, err
		}
		steps := []sqlBuilder{
			deleteFrom(s.tables.PostMeta()).Where(goqu.C("post_id").In(chunk)),
			deleteFrom(s.tables.TermRelationships()).Where(goqu.C("object_id").In(chunk)),
		}
		for _, step := range steps {
			if _, err := execute(ctx, db, step); err != nil {
				return deleted, err
			}
		}
		n, err := execute(ctx, db, deleteFrom(s.tables.Posts()).Where(goqu.C("ID").In(chunk)))
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, nil
}

// remove trashes a post, or purges it when forced or already trashed.
func (s postStore) remove(ctx context.Context, db *gorm.DB, post postRow, force bool) error {
	if !force && post.Status != postStatusTrash {
		return s.trash(ctx, db, post)
	}
	n, err := s.purge(ctx, db, []uint64{post.ID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDeleteRefused
	}
	return nil
}

// metaJoin joins one postmeta key under alias for use in a LEFT JOIN.
func metaJoin(tables Tables, alias string, postColumn string, key string) (exp.Expression, exp.JoinCondition) {
	return goqu.T(tables.PostMeta()).As(alias), goqu.On(goqu.Ex{
		alias + ".post_id":  goqu.I(postColumn),
		alias + ".meta_key": key,
	})
}

func dateBounds(column string, dates *DateRange) exp.Expression {
	return goqu.I(column).Between(goqu.Range(dates.From, dates.To))
}
