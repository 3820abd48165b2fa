package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"wccleanup/models"
)

type customerFixture struct {
	customers *fakeCustomerRepo
	users     *fakeUserRepo
	orders    *fakeOrderBackend
	svc       CustomerService
}

func newCustomerFixture() customerFixture {
	f := customerFixture{
		customers: newFakeCustomerRepo(),
		users:     newFakeUserRepo(),
		orders:    newFakeOrderBackend(),
	}
	f.svc = NewCustomerService(fakeTxManager{}, f.customers, f.users, f.orders, newOrderCountCache(newFakeCountCache(), 0), Settings{})
	return f
}

func TestDeleteCustomersRemovesLinkedAccount(t *testing.T) {
	f := newCustomerFixture()
	f.users.add(20, "jane", models.RoleCustomer)
	f.customers.customers[1] = models.Customer{CustomerID: 1, UserID: 20, Email: "jane@example.com", Capabilities: roleCaps(models.RoleCustomer)}
	f.customers.customers[2] = models.Customer{CustomerID: 2, Email: "guest@example.com"}

	result, err := f.svc.DeleteCustomers(context.Background(), DeleteCustomersInput{ActionType: ActionDeleteAll})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Deleted != 2 {
		t.Fatalf("expected both customers deleted, got %+v", result)
	}
	if !reflect.DeepEqual(f.users.deleted, []uint64{20}) || !f.users.deleteOpts[0].DeleteComments {
		t.Fatalf("expected linked user removed with comments, got %v %+v", f.users.deleted, f.users.deleteOpts)
	}
}

func TestDeleteCustomersSkipsGuestWithOrders(t *testing.T) {
	f := newCustomerFixture()
	f.customers.customers[2] = models.Customer{CustomerID: 2, Email: "guest@example.com"}
	f.orders.orders[70] = fakeOrder{status: "completed", email: "guest@example.com"}

	result, err := f.svc.DeleteCustomers(context.Background(), DeleteCustomersInput{ActionType: ActionDeleteSelected, CustomerIDs: []uint64{2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result.Skipped, []uint64{2}) || result.Success {
		t.Fatalf("expected guest skipped, got %+v", result)
	}

	result, err = f.svc.DeleteCustomers(context.Background(), DeleteCustomersInput{
		ActionType:  ActionDeleteSelected,
		CustomerIDs: []uint64{2},
		Options:     DeleteOptions{DeleteRelated: true},
	})
	if err != nil || result.Deleted != 1 {
		t.Fatalf("expected cascade delete, got %+v %v", result, err)
	}
	if !reflect.DeepEqual(f.orders.deleted, []uint64{70}) {
		t.Fatalf("expected guest order removed by email, got %v", f.orders.deleted)
	}
}

func TestDeleteCustomersProtectsAdminAndActor(t *testing.T) {
	f := newCustomerFixture()
	f.customers.customers[1] = models.Customer{CustomerID: 1, UserID: 10, Capabilities: roleCaps(models.RoleAdministrator)}
	f.customers.customers[2] = models.Customer{CustomerID: 2, UserID: 11, Capabilities: roleCaps(models.RoleCustomer)}

	result, err := f.svc.DeleteCustomers(context.Background(), DeleteCustomersInput{
		ActorID:     11,
		ActionType:  ActionDeleteSelected,
		CustomerIDs: []uint64{1, 2},
		Options:     DeleteOptions{ForceDelete: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"Customer #1 is linked to an administrator account and cannot be deleted.",
		"Customer #2 is linked to your own account and cannot be deleted.",
	}
	if !reflect.DeepEqual(result.Errors, want) {
		t.Fatalf("expected %v, got %v", want, result.Errors)
	}
	if len(f.customers.deleted) != 0 {
		t.Fatalf("protected customers must remain")
	}
}

func TestDeleteCustomersExceptSelection(t *testing.T) {
	f := newCustomerFixture()
	f.customers.customers[1] = models.Customer{CustomerID: 1}
	f.customers.customers[2] = models.Customer{CustomerID: 2}

	result, err := f.svc.DeleteCustomers(context.Background(), DeleteCustomersInput{ActionType: ActionDeleteExcept, CustomerIDs: []uint64{1, 2}})
	if err != nil || result.Message != "No customers to delete after filtering." {
		t.Fatalf("expected empty run, got %+v %v", result, err)
	}

	_, err = f.svc.DeleteCustomers(context.Background(), DeleteCustomersInput{ActionType: ActionDeleteSelected})
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != CodeNoSelection {
		t.Fatalf("expected no selection error, got %v", err)
	}
}

func TestListCustomersIncludesOrderCounts(t *testing.T) {
	f := newCustomerFixture()
	f.customers.customers[1] = models.Customer{CustomerID: 1, UserID: 5, FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"}
	f.customers.customers[2] = models.Customer{CustomerID: 2, UserID: 6, Username: "root", Email: "root@example.com", Capabilities: roleCaps(models.RoleAdministrator), AccountName: "Site Owner"}
	f.orders.orders[1] = fakeOrder{customerID: 5}
	f.orders.orders[2] = fakeOrder{customerID: 5}

	page, err := f.svc.ListCustomers(context.Background(), ListInput{Page: 1, IncludeData: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ann, root := page.Results[0], page.Results[1]
	if ann.Text != "Ann Lee (#1 - ann@example.com)" || *ann.OrderCount != 2 || !*ann.HasOrders {
		t.Fatalf("unexpected customer item %+v", ann)
	}
	if root.Text != "root (#2 - root@example.com) [Admin: Site Owner]" || *root.HasOrders {
		t.Fatalf("unexpected admin customer item %+v", root)
	}
}
