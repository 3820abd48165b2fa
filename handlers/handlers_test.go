package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"wccleanup/middleware"
	"wccleanup/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuth accepts token "good" for user 1 and "staff" for user 2, nonce "n-ok", and denies user 2.
type fakeAuth struct{}

func (fakeAuth) Authenticate(token string) (uint64, error) {
	switch token {
	case "good":
		return 1, nil
	case "staff":
		return 2, nil
	}
	return 0, &services.AppError{HTTPCode: http.StatusUnauthorized, Code: services.CodeSecurityCheckFailed, Message: "Invalid or missing access token."}
}

func (fakeAuth) IssueNonce(userID uint64) services.NonceOutput {
	return services.NonceOutput{Nonce: "n-ok", Action: "wc-data-cleanup-nonce"}
}

func (fakeAuth) VerifyNonce(_ uint64, nonce string) error {
	if nonce == "n-ok" {
		return nil
	}
	return &services.AppError{HTTPCode: http.StatusForbidden, Code: services.CodeSecurityCheckFailed, Message: "Security check failed."}
}

func (fakeAuth) Authorize(_ context.Context, userID uint64) (services.Actor, error) {
	if userID == 1 {
		return services.Actor{UserID: 1}, nil
	}
	return services.Actor{}, &services.AppError{HTTPCode: http.StatusForbidden, Code: services.CodePermissionDenied, Message: "You do not have permission to perform this action."}
}

type fakeUserService struct {
	services.UserService
	calls  int
	input  services.DeleteUsersInput
	result services.BatchResult
	err    error
}

func (f *fakeUserService) DeleteUsers(_ context.Context, in services.DeleteUsersInput) (services.BatchResult, error) {
	f.calls++
	f.input = in
	return f.result, f.err
}

type fakeOrderService struct {
	services.OrderService
	input     services.DeleteOrdersInput
	listInput  services.ListInput
	countInput services.FilterInput
	force      bool
}

func (f *fakeOrderService) DeleteOrders(_ context.Context, in services.DeleteOrdersInput) (services.BatchResult, error) {
	f.input = in
	return services.BatchResult{Success: true, Deleted: 2, Count: 2, Total: 2}, nil
}

func (f *fakeOrderService) ListOrders(_ context.Context, in services.ListInput) (services.SelectPage[services.OrderItem], error) {
	f.listInput = in
	return services.SelectPage[services.OrderItem]{Results: []services.OrderItem{{ID: 5, Text: "#5 - Guest"}}, TotalCount: 1}, nil
}

func (f *fakeOrderService) CountOrders(_ context.Context, in services.FilterInput) (int64, error) {
	f.countInput = in
	return 12, nil
}

func (f *fakeOrderService) ListOrderStatuses(_ context.Context, force bool) ([]services.StatusOption, error) {
	f.force = force
	return []services.StatusOption{{ID: "pending", Text: "Pending payment", Count: 3}}, nil
}

type fakeProductService struct {
	services.ProductService
	err error
}

func (f *fakeProductService) UpdateSKU(_ context.Context, _ uint64, sku string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return strings.TrimSpace(sku), nil
}

type testEnv struct {
	router   *gin.Engine
	users    *fakeUserService
	orders   *fakeOrderService
	products *fakeProductService
}

func newTestEnv() testEnv {
	env := testEnv{
		users:    &fakeUserService{result: services.BatchResult{Success: true, Deleted: 1, Count: 1, Total: 1}},
		orders:   &fakeOrderService{},
		products: &fakeProductService{},
	}
	SetServices(&services.Container{
		Auth:     fakeAuth{},
		Users:    env.users,
		Orders:   env.orders,
		Products: env.products,
	})
	env.router = gin.New()
	RegisterRoutes(env.router, fakeAuth{})
	return env
}

func (env testEnv) do(method, target, token string, body string, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) (bool, map[string]any) {
	t.Helper()
	var body struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Success, body.Data
}

func TestHealthCheckIsOpen(t *testing.T) {
	env := newTestEnv()
	rec := env.do(http.MethodGet, "/api/health", "", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	ok, data := decode(t, rec)
	assert.True(t, ok)
	assert.Equal(t, "wccleanup", data["service"])
}

func TestCleanupRequiresTokenNonceAndCapability(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/api/cleanup/delete_users?nonce=n-ok", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/cleanup/delete_users?nonce=stale", "good", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	_, data := decode(t, rec)
	assert.Equal(t, "Security check failed.", data["message"])

	rec = env.do(http.MethodPost, "/api/cleanup/delete_users?nonce=n-ok", "staff", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	_, data = decode(t, rec)
	assert.Equal(t, services.CodePermissionDenied, data["code"])

	assert.Zero(t, env.users.calls, "no operation may run before all checks pass")
}

func TestDeleteUsersBindsFormOptions(t *testing.T) {
	env := newTestEnv()
	form := url.Values{}
	form.Set("action_type", "delete_selected")
	form.Add("user_ids[]", "7")
	form.Add("user_ids[]", "8")
	form.Set("options[delete_orders]", "1")
	form.Set("options[reassign_posts]", "3")
	form.Set("nonce", "n-ok")

	rec := env.do(http.MethodPost, "/api/cleanup/delete_users", "good", form.Encode(), "application/x-www-form-urlencoded")

	require.Equal(t, http.StatusOK, rec.Code)
	in := env.users.input
	assert.Equal(t, uint64(1), in.ActorID)
	assert.Equal(t, []uint64{7, 8}, in.UserIDs)
	assert.True(t, in.Options.DeleteRelated)
	assert.False(t, in.Options.ForceDelete)
	assert.True(t, in.Options.DeleteComments, "delete_comments defaults to true")
	assert.Equal(t, uint64(3), in.Options.ReassignTo)
}

func TestDeleteUsersReportsNothingDeletedAsFailure(t *testing.T) {
	env := newTestEnv()
	env.users.result = services.BatchResult{Total: 1, Skipped: []uint64{7}, Message: "Successfully deleted 0 users."}

	rec := env.do(http.MethodPost, "/api/cleanup/delete_users?nonce=n-ok", "good", `{"action_type":"delete_selected","user_ids":[7]}`, "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	ok, data := decode(t, rec)
	assert.False(t, ok)
	assert.Equal(t, []any{float64(7)}, data["skipped"])
}

func TestServiceErrorsUseTheirStatusAndCode(t *testing.T) {
	env := newTestEnv()
	env.users.err = &services.AppError{HTTPCode: http.StatusBadRequest, Code: services.CodeSelfDeletion, Message: "You cannot delete your own user account."}

	rec := env.do(http.MethodPost, "/api/cleanup/delete_users", "good", `{"action_type":"delete_selected","user_ids":[1]}`, "application/json")
	// nonce missing: the service must not be reached
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/cleanup/delete_users", strings.NewReader(`{"action_type":"delete_selected","user_ids":[1]}`))
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set(middleware.NonceHeader, "n-ok")
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ok, data := decode(t, rec)
	assert.False(t, ok)
	assert.Equal(t, services.CodeSelfDeletion, data["code"])
	assert.Equal(t, "You cannot delete your own user account.", data["message"])
}

func TestDeleteOrdersDefaultsToForce(t *testing.T) {
	env := newTestEnv()
	body := `{"action_type":"delete_by_status","order_status":"wc-pending,processing"}`

	rec := env.do(http.MethodPost, "/api/cleanup/delete_orders?nonce=n-ok", "good", body, "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.orders.input.Options.ForceDelete)
	assert.Equal(t, "wc-pending,processing", env.orders.input.Filter.Status)
	ok, data := decode(t, rec)
	assert.True(t, ok)
	assert.Equal(t, float64(2), data["deleted"])
}

func TestListOrdersQuery(t *testing.T) {
	env := newTestEnv()
	rec := env.do(http.MethodGet, "/api/cleanup/list_orders?nonce=n-ok&search=jane&page=2&status=completed&include_details=0", "good", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	in := env.orders.listInput
	assert.Equal(t, "jane", in.Search)
	assert.Equal(t, 2, in.Page)
	assert.Equal(t, "completed", in.Filter.Status)
	assert.False(t, in.IncludeData)
	_, data := decode(t, rec)
	assert.Equal(t, float64(1), data["total_count"])
	assert.Contains(t, data, "pagination")
}

func TestCountOrders(t *testing.T) {
	env := newTestEnv()
	rec := env.do(http.MethodGet, "/api/cleanup/count_orders?nonce=n-ok&status=wc-pending&date_from=2024-01-01&date_to=2024-01-31", "good", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "wc-pending", env.orders.countInput.Status)
	assert.Equal(t, "2024-01-01", env.orders.countInput.DateFrom)
	_, data := decode(t, rec)
	assert.Equal(t, float64(12), data["total_count"])
}

func TestListOrderStatusesForceRefresh(t *testing.T) {
	env := newTestEnv()
	rec := env.do(http.MethodGet, "/api/cleanup/list_order_statuses?nonce=n-ok&force_refresh=true", "good", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.orders.force)
}

func TestUpdateProductSKUConflict(t *testing.T) {
	env := newTestEnv()
	env.products.err = &services.AppError{HTTPCode: http.StatusConflict, Code: services.CodeInvalidFilter, Message: "SKU already exists for another product"}

	rec := env.do(http.MethodPost, "/api/cleanup/update_product_sku?nonce=n-ok", "good", `{"product_id":4,"sku":"ABC123"}`, "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/cleanup/update_product_sku?nonce=n-ok", "good", `{"sku":"ABC123"}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, data := decode(t, rec)
	assert.Equal(t, "Invalid product ID", data["message"])
}

func TestUpdateProductSKUEchoesStoredValue(t *testing.T) {
	env := newTestEnv()
	rec := env.do(http.MethodPost, "/api/cleanup/update_product_sku?nonce=n-ok", "good", `{"product_id":4,"sku":"  ABC123 "}`, "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	_, data := decode(t, rec)
	assert.Equal(t, "ABC123", data["sku"])
	assert.Equal(t, float64(4), data["product_id"])
}

func TestUnknownOperation(t *testing.T) {
	env := newTestEnv()
	rec := env.do(http.MethodGet, "/api/cleanup/drop_everything?nonce=n-ok", "good", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIssueNonceNeedsTokenButNoNonce(t *testing.T) {
	env := newTestEnv()
	rec := env.do(http.MethodGet, "/api/nonce", "good", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	_, data := decode(t, rec)
	assert.Equal(t, "n-ok", data["nonce"])

	rec = env.do(http.MethodGet, "/api/nonce", "staff", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
