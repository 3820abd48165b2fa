package services

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"wccleanup/models"
	"wccleanup/repositories"

	"gorm.io/gorm"
)

type DeleteUsersInput struct {
	ActorID    uint64
	ActionType string
	UserIDs    []uint64
	Options    DeleteOptions
}

type UserItem struct {
	ID          uint64 `json:"id"`
	Text        string `json:"text"`
	IsAdmin     bool   `json:"is_admin"`
	AdminName   string `json:"admin_name,omitempty"`
	HasOrders   *bool  `json:"has_orders,omitempty"`
	HasPosts    *bool  `json:"has_posts,omitempty"`
	HasComments *bool  `json:"has_comments,omitempty"`
}

type UserService interface {
	DeleteUsers(ctx context.Context, in DeleteUsersInput) (BatchResult, error)
	ListUsers(ctx context.Context, in ListInput) (SelectPage[UserItem], error)
	ListUsersForReassign(ctx context.Context) ([]SelectOption, error)
}

type userService struct {
	txManager   TxManager
	users       repositories.UserRepository
	orders      repositories.OrderStorageBackend
	orderCounts *orderCountCache
	engine      batchEngine
	pageSize    int
}

func NewUserService(txManager TxManager, users repositories.UserRepository, orders repositories.OrderStorageBackend, orderCounts *orderCountCache, settings Settings) UserService {
	return &userService{
		txManager:   txManager,
		users:       users,
		orders:      orders,
		orderCounts: orderCounts,
		engine:      batchEngine{entity: "user", plural: "users", skipNote: "they have orders", batchSize: settings.BatchSize},
		pageSize:    settings.pageSize(),
	}
}

var userFailures = failureMessages{
	notFound: "User #%d not found.",
	refused:  "Failed to delete user #%d.",
	failed:   "Error deleting user #%d: %s",
}

func (s *userService) DeleteUsers(ctx context.Context, in DeleteUsersInput) (BatchResult, error) {
	ids, empty, err := s.resolve(ctx, in)
	if err != nil {
		return BatchResult{}, err
	}
	if empty != "" {
		return emptyResult(empty), nil
	}

	if in.ActorID != 0 && slices.Contains(ids, in.ActorID) {
		return BatchResult{}, newAppError(http.StatusBadRequest, CodeSelfDeletion, "You cannot delete your own user account.", nil)
	}

	ordersTouched := false
	result := s.engine.run(ctx, ids, in.Options.BatchSize, func(ctx context.Context, id uint64) (deleteOutcome, string) {
		outcome, message, touched := s.deleteOne(ctx, id, in.Options)
		ordersTouched = ordersTouched || touched
		return outcome, message
	})
	if ordersTouched {
		s.orderCounts.evict(ctx)
	}
	return result, nil
}

// resolve turns the selector into ids. A non-empty second value is the message for an empty, successful run.
func (s *userService) resolve(ctx context.Context, in DeleteUsersInput) ([]uint64, string, error) {
	switch in.ActionType {
	case ActionDeleteAll:
		ids, err := s.users.ListIDsByRole(ctx, nil, models.RoleCustomer)
		if err != nil {
			return nil, "", internalError("Failed to load users.", err)
		}
		if len(ids) == 0 {
			return nil, "No customer users found to delete.", nil
		}
		return uniqueIDs(ids), "", nil
	case ActionDeleteSelected:
		ids := uniqueIDs(in.UserIDs)
		if len(ids) == 0 {
			return nil, "", noSelection("No users selected for deletion.")
		}
		return ids, "", nil
	case ActionDeleteExcept:
		keep := uniqueIDs(in.UserIDs)
		if len(keep) == 0 {
			return nil, "", noSelection("No users selected to keep.")
		}
		all, err := s.users.ListIDsByRole(ctx, nil, models.RoleCustomer)
		if err != nil {
			return nil, "", internalError("Failed to load users.", err)
		}
		if len(all) == 0 {
			return nil, "No customer users found to delete.", nil
		}
		ids := exceptIDs(uniqueIDs(all), keep)
		if len(ids) == 0 {
			return nil, "No users to delete after filtering.", nil
		}
		return ids, "", nil
	}
	return nil, "", invalidFilter(msgInvalidAction)
}

func (s *userService) deleteOne(ctx context.Context, id uint64, opts DeleteOptions) (deleteOutcome, string, bool) {
	user, err := s.users.GetByID(ctx, nil, id)
	if err != nil {
		return outcomeErrored, userFailures.describe(id, err), false
	}
	if user.IsAdmin() {
		return outcomeErrored, fmt.Sprintf("User #%d is an administrator and cannot be deleted.", id), false
	}

	orderIDs, err := s.orders.IDsByCustomer(ctx, nil, repositories.CustomerRef{UserID: id})
	if err != nil {
		return outcomeErrored, userFailures.describe(id, err), false
	}
	if len(orderIDs) > 0 && !opts.ForceDelete && !opts.DeleteRelated {
		return outcomeSkipped, "", false
	}

	cascade := opts.DeleteRelated && len(orderIDs) > 0
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if cascade {
			if err := deleteOrders(ctx, tx, s.orders, orderIDs); err != nil {
				return err
			}
		}
		return s.users.Delete(ctx, tx, id, repositories.UserDeleteOptions{
			ReassignTo:     opts.ReassignTo,
			DeleteComments: opts.DeleteComments,
		})
	})
	if err != nil {
		return outcomeErrored, userFailures.describe(id, err), false
	}
	return outcomeDeleted, "", cascade
}

// deleteOrders force-deletes linked orders, tolerating ones that are already gone.
func deleteOrders(ctx context.Context, tx *gorm.DB, orders repositories.OrderStorageBackend, orderIDs []uint64) error {
	for _, orderID := range orderIDs {
		if err := orders.Delete(ctx, tx, orderID, true); err != nil && !repositories.IsNotFound(err) {
			return fmt.Errorf("delete order %d: %w", orderID, err)
		}
	}
	return nil
}

func (s *userService) ListUsers(ctx context.Context, in ListInput) (SelectPage[UserItem], error) {
	total, err := s.users.Count(ctx, nil, in.Search)
	if err != nil {
		return SelectPage[UserItem]{}, internalError("Failed to count users.", err)
	}
	users, err := s.users.List(ctx, nil, in.Search, pageWindow(in.Page, s.pageSize))
	if err != nil {
		return SelectPage[UserItem]{}, internalError("Failed to load users.", err)
	}

	items := make([]UserItem, 0, len(users))
	for _, user := range users {
		item := UserItem{
			ID:      user.ID,
			IsAdmin: user.IsAdmin(),
		}
		name := user.Label()
		if item.IsAdmin {
			item.AdminName = name
		}
		item.Text = fmt.Sprintf("%s (#%d - %s)%s", name, user.ID, user.UserEmail, adminSuffix(item.IsAdmin, name))

		if in.IncludeData {
			if err := s.fillActivity(ctx, &item); err != nil {
				return SelectPage[UserItem]{}, internalError("Failed to load user activity.", err)
			}
		}
		items = append(items, item)
	}
	return newSelectPage(items, in.Page, s.pageSize, total), nil
}

func (s *userService) fillActivity(ctx context.Context, item *UserItem) error {
	orderIDs, err := s.orders.IDsByCustomer(ctx, nil, repositories.CustomerRef{UserID: item.ID})
	if err != nil {
		return err
	}
	posts, err := s.users.CountPosts(ctx, nil, item.ID)
	if err != nil {
		return err
	}
	comments, err := s.users.CountComments(ctx, nil, item.ID)
	if err != nil {
		return err
	}
	hasOrders, hasPosts, hasComments := len(orderIDs) > 0, posts > 0, comments > 0
	item.HasOrders, item.HasPosts, item.HasComments = &hasOrders, &hasPosts, &hasComments
	return nil
}

func (s *userService) ListUsersForReassign(ctx context.Context) ([]SelectOption, error) {
	users, err := s.users.ListWithoutRole(ctx, nil, models.RoleCustomer)
	if err != nil {
		return nil, internalError("Failed to load users.", err)
	}
	options := make([]SelectOption, 0, len(users))
	for _, user := range users {
		options = append(options, SelectOption{ID: user.ID, Text: fmt.Sprintf("%s (%s)", user.DisplayName, user.UserLogin)})
	}
	return options, nil
}
