package services

import (
	"context"
	"fmt"

	"wccleanup/models"
	"wccleanup/repositories"

	"gorm.io/gorm"
)

type DeleteCustomersInput struct {
	ActorID     uint64
	ActionType  string
	CustomerIDs []uint64
	Options     DeleteOptions
}

type CustomerItem struct {
	ID         uint64 `json:"id"`
	Text       string `json:"text"`
	IsAdmin    bool   `json:"is_admin"`
	AdminName  string `json:"admin_name,omitempty"`
	HasOrders  *bool  `json:"has_orders,omitempty"`
	OrderCount *int   `json:"order_count,omitempty"`
}

type CustomerService interface {
	DeleteCustomers(ctx context.Context, in DeleteCustomersInput) (BatchResult, error)
	ListCustomers(ctx context.Context, in ListInput) (SelectPage[CustomerItem], error)
}

type customerService struct {
	txManager   TxManager
	customers   repositories.CustomerRepository
	users       repositories.UserRepository
	orders      repositories.OrderStorageBackend
	orderCounts *orderCountCache
	engine      batchEngine
	pageSize    int
}

func NewCustomerService(txManager TxManager, customers repositories.CustomerRepository, users repositories.UserRepository, orders repositories.OrderStorageBackend, orderCounts *orderCountCache, settings Settings) CustomerService {
	return &customerService{
		txManager:   txManager,
		customers:   customers,
		users:       users,
		orders:      orders,
		orderCounts: orderCounts,
		engine:      batchEngine{entity: "customer", plural: "customers", skipNote: "they have orders", batchSize: settings.BatchSize},
		pageSize:    settings.pageSize(),
	}
}

var customerFailures = failureMessages{
	notFound: "Customer #%d not found.",
	refused:  "Failed to delete customer #%d.",
	failed:   "Error deleting customer #%d: %s",
}

func customerRef(c models.Customer) repositories.CustomerRef {
	return repositories.CustomerRef{UserID: c.UserID, Email: c.Email}
}

func (s *customerService) DeleteCustomers(ctx context.Context, in DeleteCustomersInput) (BatchResult, error) {
	ids, empty, err := s.resolve(ctx, in)
	if err != nil {
		return BatchResult{}, err
	}
	if empty != "" {
		return emptyResult(empty), nil
	}

	ordersTouched := false
	result := s.engine.run(ctx, ids, in.Options.BatchSize, func(ctx context.Context, id uint64) (deleteOutcome, string) {
		outcome, message, touched := s.deleteOne(ctx, id, in.ActorID, in.Options)
		ordersTouched = ordersTouched || touched
		return outcome, message
	})
	if ordersTouched {
		s.orderCounts.evict(ctx)
	}
	return result, nil
}

func (s *customerService) resolve(ctx context.Context, in DeleteCustomersInput) ([]uint64, string, error) {
	switch in.ActionType {
	case ActionDeleteAll:
		ids, err := s.customers.ListAllIDs(ctx, nil)
		if err != nil {
			return nil, "", internalError("Failed to load customers.", err)
		}
		if len(ids) == 0 {
			return nil, "No customers found to delete.", nil
		}
		return uniqueIDs(ids), "", nil
	case ActionDeleteSelected:
		ids := uniqueIDs(in.CustomerIDs)
		if len(ids) == 0 {
			return nil, "", noSelection("No customers selected for deletion.")
		}
		return ids, "", nil
	case ActionDeleteExcept:
		keep := uniqueIDs(in.CustomerIDs)
		if len(keep) == 0 {
			return nil, "", noSelection("No customers selected to keep.")
		}
		all, err := s.customers.ListAllIDs(ctx, nil)
		if err != nil {
			return nil, "", internalError("Failed to load customers.", err)
		}
		if len(all) == 0 {
			return nil, "No customers found to delete.", nil
		}
		ids := exceptIDs(uniqueIDs(all), keep)
		if len(ids) == 0 {
			return nil, "No customers to delete after filtering.", nil
		}
		return ids, "", nil
	}
	return nil, "", invalidFilter(msgInvalidAction)
}

func (s *customerService) deleteOne(ctx context.Context, id uint64, actorID uint64, opts DeleteOptions) (deleteOutcome, string, bool) {
	customer, err := s.customers.GetByID(ctx, nil, id)
	if err != nil {
		return outcomeErrored, customerFailures.describe(id, err), false
	}
	if customer.IsAdmin() {
		return outcomeErrored, fmt.Sprintf("Customer #%d is linked to an administrator account and cannot be deleted.", id), false
	}
	if actorID != 0 && customer.UserID == actorID {
		return outcomeErrored, fmt.Sprintf("Customer #%d is linked to your own account and cannot be deleted.", id), false
	}

	orderIDs, err := s.orders.IDsByCustomer(ctx, nil, customerRef(customer))
	if err != nil {
		return outcomeErrored, customerFailures.describe(id, err), false
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
		if err := s.customers.Delete(ctx, tx, id); err != nil {
			return err
		}
		if customer.UserID == 0 {
			return nil
		}
		err := s.users.Delete(ctx, tx, customer.UserID, repositories.UserDeleteOptions{DeleteComments: true})
		if repositories.IsNotFound(err) {
			return nil
		}
		return err
	})
	if err != nil {
		return outcomeErrored, customerFailures.describe(id, err), false
	}
	return outcomeDeleted, "", cascade
}

func (s *customerService) ListCustomers(ctx context.Context, in ListInput) (SelectPage[CustomerItem], error) {
	total, err := s.customers.Count(ctx, nil, in.Search)
	if err != nil {
		return SelectPage[CustomerItem]{}, internalError("Failed to count customers.", err)
	}
	customers, err := s.customers.List(ctx, nil, in.Search, pageWindow(in.Page, s.pageSize))
	if err != nil {
		return SelectPage[CustomerItem]{}, internalError("Failed to load customers.", err)
	}

	items := make([]CustomerItem, 0, len(customers))
	for _, customer := range customers {
		item := CustomerItem{ID: customer.CustomerID, IsAdmin: customer.IsAdmin()}
		if item.IsAdmin {
			item.AdminName = customer.AccountName
			if item.AdminName == "" {
				item.AdminName = customer.Label()
			}
		}
		item.Text = fmt.Sprintf("%s (#%d - %s)%s", customer.Label(), customer.CustomerID, customer.Email, adminSuffix(item.IsAdmin, item.AdminName))

		if in.IncludeData {
			orderIDs, err := s.orders.IDsByCustomer(ctx, nil, customerRef(customer))
			if err != nil {
				return SelectPage[CustomerItem]{}, internalError("Failed to load customer orders.", err)
			}
			count := len(orderIDs)
			hasOrders := count > 0
			item.HasOrders, item.OrderCount = &hasOrders, &count
		}
		items = append(items, item)
	}
	return newSelectPage(items, in.Page, s.pageSize, total), nil
}
