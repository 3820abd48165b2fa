package repositories

import (
	"context"
	"fmt"
	"strconv"

	"wccleanup/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"gorm.io/gorm"
)

// Statuses counted as live authored content.
var liveAuthoredStatuses = []string{"publish", "pending", "draft", "future", "private"}

// Post types removed with their author when content is not reassigned.
var deleteWithUserPostTypes = []string{"post", "page", "attachment", "revision", "nav_menu_item"}

var userSearchMetaKeys = []string{"first_name", "last_name", "nickname", "description"}

type GormUserRepository struct {
	db     *gorm.DB
	tables Tables
	posts  postStore
}

func NewGormUserRepository(db *gorm.DB, tables Tables) *GormUserRepository {
	return &GormUserRepository{db: db, tables: tables, posts: postStore{tables: tables}}
}

func (r *GormUserRepository) baseQuery() *goqu.SelectDataset {
	return selectFrom(goqu.T(r.tables.Users()).As("u")).
		Select(
			goqu.I("u.ID"),
			goqu.I("u.user_login"),
			goqu.I("u.user_email"),
			goqu.I("u.user_nicename"),
			goqu.I("u.display_name"),
			goqu.I("u.user_registered"),
			goqu.COALESCE(goqu.I("um.meta_value"), "").As("capabilities"),
		).
		LeftJoin(goqu.T(r.tables.UserMeta()).As("um"), goqu.On(goqu.Ex{
			"um.user_id":  goqu.I("u.ID"),
			"um.meta_key": r.tables.CapabilitiesKey(),
		}))
}

// rolePattern matches a granted role inside the serialized capabilities map.
func rolePattern(role string) string {
	return containsPattern(fmt.Sprintf(`s:%d:"%s";b:1;`, len(role), role))
}

func (r *GormUserRepository) GetByID(ctx context.Context, tx *gorm.DB, userID uint64) (models.User, error) {
	users, err := r.GetByIDs(ctx, tx, []uint64{userID})
	if err != nil {
		return models.User{}, err
	}
	if len(users) == 0 {
		return models.User{}, ErrNotFound
	}
	return users[0], nil
}

func (r *GormUserRepository) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uint64) ([]models.User, error) {
	db := useTx(r.db, tx)
	users := make([]models.User, 0, len(userIDs))
	for _, chunk := range chunkIDs(userIDs, inChunkSize) {
		var rows []models.User
		if err := scanInto(ctx, db, r.baseQuery().Where(goqu.I("u.ID").In(chunk)), &rows); err != nil {
			return nil, err
		}
		users = append(users, rows...)
	}
	return users, nil
}

func (r *GormUserRepository) ListIDsByRole(ctx context.Context, tx *gorm.DB, role string) ([]uint64, error) {
	q := selectFrom(goqu.T(r.tables.Users()).As("u")).
		Select(goqu.I("u.ID")).
		InnerJoin(goqu.T(r.tables.UserMeta()).As("um"), goqu.On(goqu.Ex{
			"um.user_id":  goqu.I("u.ID"),
			"um.meta_key": r.tables.CapabilitiesKey(),
		})).
		Where(goqu.I("um.meta_value").Like(rolePattern(role))).
		Order(goqu.I("u.ID").Asc())
	return scanIDs(ctx, useTx(r.db, tx), q)
}

func (r *GormUserRepository) ListWithoutRole(ctx context.Context, tx *gorm.DB, role string) ([]models.User, error) {
	q := r.baseQuery().
		Where(goqu.Or(
			goqu.I("um.meta_value").IsNull(),
			goqu.I("um.meta_value").NotLike(rolePattern(role)),
		)).
		Order(goqu.I("u.display_name").Asc(), goqu.I("u.ID").Asc())
	users := make([]models.User, 0)
	err := scanInto(ctx, useTx(r.db, tx), q, &users)
	return users, err
}

func (r *GormUserRepository) searchCondition(search string) exp.Expression {
	pattern := containsPattern(search)
	metaMatches := selectFrom(r.tables.UserMeta()).
		Select("user_id").
		Where(
			goqu.C("meta_key").In(toInterfaces(userSearchMetaKeys)...),
			goqu.C("meta_value").Like(pattern),
		)
	conditions := []exp.Expression{
		goqu.I("u.user_login").Like(pattern),
		goqu.I("u.user_email").Like(pattern),
		goqu.I("u.user_nicename").Like(pattern),
		goqu.I("u.display_name").Like(pattern),
		inSubquery("u.ID", metaMatches),
	}
	if id, err := strconv.ParseUint(search, 10, 64); err == nil {
		conditions = append(conditions, goqu.I("u.ID").Eq(id))
	}
	return goqu.Or(conditions...)
}

func (r *GormUserRepository) Count(ctx context.Context, tx *gorm.DB, search string) (int64, error) {
	q := selectFrom(goqu.T(r.tables.Users()).As("u")).Select(goqu.COUNT(goqu.I("u.ID")))
	if search != "" {
		q = q.Where(r.searchCondition(search))
	}
	return scanCount(ctx, useTx(r.db, tx), q)
}

func (r *GormUserRepository) List(ctx context.Context, tx *gorm.DB, search string, page Page) ([]models.User, error) {
	q := r.baseQuery()
	if search != "" {
		q = q.Where(r.searchCondition(search))
	}
	q = q.Order(goqu.I("u.user_registered").Desc(), goqu.I("u.ID").Desc()).
		Limit(page.limit()).
		Offset(page.offset())
	users := make([]models.User, 0)
	err := scanInto(ctx, useTx(r.db, tx), q, &users)
	return users, err
}

func (r *GormUserRepository) CountPosts(ctx context.Context, tx *gorm.DB, userID uint64) (int64, error) {
	q := selectFrom(r.tables.Posts()).
		Select(goqu.COUNT(goqu.C("ID"))).
		Where(
			goqu.C("post_author").Eq(userID),
			goqu.C("post_status").In(toInterfaces(liveAuthoredStatuses)...),
		)
	return scanCount(ctx, useTx(r.db, tx), q)
}

func (r *GormUserRepository) CountComments(ctx context.Context, tx *gorm.DB, userID uint64) (int64, error) {
	q := selectFrom(r.tables.Comments()).
		Select(goqu.COUNT(goqu.C("comment_ID"))).
		Where(goqu.C("user_id").Eq(userID))
	return scanCount(ctx, useTx(r.db, tx), q)
}

// Delete removes a user the way wp_delete_user does: authored content is reassigned or
// removed, comments are removed or detached, then usermeta and the user row go.
func (r *GormUserRepository) Delete(ctx context.Context, tx *gorm.DB, userID uint64, opts UserDeleteOptions) error {
	db := useTx(r.db, tx)

	exists, err := scanCount(ctx, db, selectFrom(r.tables.Users()).
		Select(goqu.COUNT(goqu.C("ID"))).
		Where(goqu.C("ID").Eq(userID)))
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	if opts.ReassignTo > 0 {
		if _, err := execute(ctx, db, updateTable(r.tables.Posts()).
			Set(goqu.Record{"post_author": opts.ReassignTo}).
			Where(goqu.C("post_author").Eq(userID))); err != nil {
			return err
		}
	} else {
		authored, err := scanIDs(ctx, db, selectFrom(r.tables.Posts()).
			Select("ID").
			Where(
				goqu.C("post_author").Eq(userID),
				goqu.C("post_type").In(toInterfaces(deleteWithUserPostTypes)...),
			))
		if err != nil {
			return err
		}
		if _, err := r.posts.purge(ctx, db, authored); err != nil {
			return err
		}
	}

	if opts.DeleteComments {
		commentIDs := selectFrom(r.tables.Comments()).
			Select("comment_ID").
			Where(goqu.C("user_id").Eq(userID))
		if _, err := execute(ctx, db, deleteFrom(r.tables.CommentMeta()).Where(inSubquery("comment_id", commentIDs))); err != nil {
			return err
		}
		if _, err := execute(ctx, db, deleteFrom(r.tables.Comments()).Where(goqu.C("user_id").Eq(userID))); err != nil {
			return err
		}
	} else {
		if _, err := execute(ctx, db, updateTable(r.tables.Comments()).
			Set(goqu.Record{"user_id": 0}).
			Where(goqu.C("user_id").Eq(userID))); err != nil {
			return err
		}
	}

	if _, err := execute(ctx, db, deleteFrom(r.tables.UserMeta()).Where(goqu.C("user_id").Eq(userID))); err != nil {
		return err
	}
	affected, err := execute(ctx, db, deleteFrom(r.tables.Users()).Where(goqu.C("ID").Eq(userID)))
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDeleteRefused
	}
	return nil
}
