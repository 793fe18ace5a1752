package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tally/internal/config"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/notify"
	"tally/internal/testutil"
	"tally/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
	config.Set(&config.Config{
		Env:              "test",
		JWTSecret:        "router-test-secret",
		JWTExpirationDur: time.Hour,
	})
}

// outbox captures emails instead of delivering them.
type outbox struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (o *outbox) Notify(_ context.Context, msg notify.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
}

func (o *outbox) ofKind(kind notify.Kind) []notify.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []notify.Message
	for _, m := range o.msgs {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// testApp holds the full application stack backed by an in-memory database.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Outbox *outbox
}

func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	box := &outbox{}
	return &testApp{
		DB:     db,
		Router: New(ctx, NewServices(db, box, "http://tally.test")),
		Outbox: box,
	}
}

func (app *testApp) request(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response: %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// registerUser signs up a user and returns their access token.
func (app *testApp) registerUser(t *testing.T, email string) string {
	t.Helper()
	rec := app.request(t, "POST", "/api/v1/auth/register", "",
		`{"email":"`+email+`","password":"password123","first_name":"Test","last_name":"User"}`)
	expectStatus(t, rec, http.StatusCreated)
	token, _ := parseJSON(t, rec)["access_token"].(string)
	if token == "" {
		t.Fatal("expected access_token in register response")
	}
	return token
}

func (app *testApp) createCategory(t *testing.T, token, name, kind string) string {
	t.Helper()
	rec := app.request(t, "POST", "/api/v1/categories", token, `{"name":"`+name+`","type":"`+kind+`"}`)
	expectStatus(t, rec, http.StatusCreated)
	return parseJSON(t, rec)["category"].(map[string]interface{})["id"].(string)
}

func (app *testApp) createBudget(t *testing.T, token, categoryID, month, amount string) string {
	t.Helper()
	rec := app.request(t, "POST", "/api/v1/budgets", token,
		`{"category_id":"`+categoryID+`","month":"`+month+`","amount":`+amount+`}`)
	expectStatus(t, rec, http.StatusCreated)
	return parseJSON(t, rec)["budget"].(map[string]interface{})["id"].(string)
}

func (app *testApp) proposeUpdate(t *testing.T, token, budgetID, amount string) string {
	t.Helper()
	rec := app.request(t, "PUT", "/api/v1/budgets/"+budgetID, token, `{"amount":`+amount+`}`)
	expectStatus(t, rec, http.StatusAccepted)
	pendingToken, _ := parseJSON(t, rec)["token"].(string)
	if len(pendingToken) != 64 {
		t.Fatalf("expected a 64 character token, got %q", pendingToken)
	}
	return pendingToken
}

func (app *testApp) budgetAmount(t *testing.T, budgetID string) decimal.Decimal {
	t.Helper()
	var budget models.Budget
	if err := app.DB.First(&budget, "id = ?", budgetID).Error; err != nil {
		t.Fatalf("failed to load budget: %v", err)
	}
	return budget.Amount
}

func currentMonth() string {
	return time.Now().UTC().Format("2006-01")
}

func TestHealth(t *testing.T) {
	app := setupApp(t)

	rec := app.request(t, "GET", "/api/health", "", "")

	expectStatus(t, rec, http.StatusOK)
	if parseJSON(t, rec)["status"] != "ok" {
		t.Error("expected status ok")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t)

	for _, path := range []string{"/api/v1/profile", "/api/v1/budgets", "/api/v1/budgets/summary?month=2025-04"} {
		rec := app.request(t, "GET", path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestBudgetUpdateFlow_Confirm(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "confirm@example.com")
	categoryID := app.createCategory(t, token, "Food", "expense")
	budgetID := app.createBudget(t, token, categoryID, currentMonth(), "1000")

	pendingToken := app.proposeUpdate(t, token, budgetID, "1200")

	if got := app.budgetAmount(t, budgetID); !got.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("budget changed before confirmation: %s", got)
	}

	emails := app.Outbox.ofKind(notify.KindBudgetConfirmation)
	if len(emails) != 1 {
		t.Fatalf("expected 1 confirmation email, got %d", len(emails))
	}
	if emails[0].To != "confirm@example.com" {
		t.Errorf("unexpected recipient %s", emails[0].To)
	}
	if !strings.Contains(emails[0].Body, "http://tally.test/api/v1/budget-updates/confirm/"+pendingToken) {
		t.Error("expected confirm link in email body")
	}

	rec := app.request(t, "GET", "/api/v1/budget-updates/confirm/"+pendingToken, "", "")
	expectStatus(t, rec, http.StatusOK)
	if status := parseJSON(t, rec)["status"]; status != "confirmed" {
		t.Fatalf("expected confirmed, got %v", status)
	}
	if got := app.budgetAmount(t, budgetID); !got.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("expected budget 1200 after confirmation, got %s", got)
	}

	rec = app.request(t, "GET", "/api/v1/budget-updates/confirm/"+pendingToken, "", "")
	expectStatus(t, rec, http.StatusOK)
	if status := parseJSON(t, rec)["status"]; status != "already_confirmed" {
		t.Errorf("expected already_confirmed, got %v", status)
	}

	var audits int64
	app.DB.Model(&models.AuditLog{}).Where("resource_id = ?", budgetID).Count(&audits)
	if audits == 0 {
		t.Error("expected audit entries for the budget")
	}
}

func TestBudgetUpdateFlow_Reject(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "reject@example.com")
	categoryID := app.createCategory(t, token, "Rent", "expense")
	budgetID := app.createBudget(t, token, categoryID, currentMonth(), "500")

	pendingToken := app.proposeUpdate(t, token, budgetID, "900")

	rec := app.request(t, "GET", "/api/v1/budget-updates/reject/"+pendingToken, "", "")
	expectStatus(t, rec, http.StatusOK)
	if status := parseJSON(t, rec)["status"]; status != "rejected" {
		t.Fatalf("expected rejected, got %v", status)
	}
	if got := app.budgetAmount(t, budgetID); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected budget unchanged, got %s", got)
	}

	rec = app.request(t, "GET", "/api/v1/budget-updates/confirm/"+pendingToken, "", "")
	expectStatus(t, rec, http.StatusNotFound)
	if code := errorCode(t, rec); code != "PENDING_UPDATE_NOT_FOUND" {
		t.Errorf("expected PENDING_UPDATE_NOT_FOUND, got %s", code)
	}
}

func TestBudgetUpdateFlow_Expired(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "expired@example.com")
	categoryID := app.createCategory(t, token, "Travel", "expense")
	budgetID := app.createBudget(t, token, categoryID, currentMonth(), "300")

	pendingToken := app.proposeUpdate(t, token, budgetID, "450")

	stale := time.Now().UTC().Add(-31 * time.Minute)
	if err := app.DB.Model(&models.PendingBudgetUpdate{}).
		Where("token = ?", pendingToken).
		Update("created_at", stale).Error; err != nil {
		t.Fatalf("failed to age pending update: %v", err)
	}

	rec := app.request(t, "GET", "/api/v1/budget-updates/confirm/"+pendingToken, "", "")
	expectStatus(t, rec, http.StatusBadRequest)
	if code := errorCode(t, rec); code != "PENDING_UPDATE_EXPIRED" {
		t.Errorf("expected PENDING_UPDATE_EXPIRED, got %s", code)
	}
	if got := app.budgetAmount(t, budgetID); !got.Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected budget unchanged, got %s", got)
	}

	var remaining int64
	app.DB.Model(&models.PendingBudgetUpdate{}).Where("token = ?", pendingToken).Count(&remaining)
	if remaining != 0 {
		t.Error("expected expired pending update to be deleted")
	}
}

func TestBudgetUpdateFlow_ConfirmInvalidatesOtherProposals(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "siblings@example.com")
	categoryID := app.createCategory(t, token, "Fun", "expense")
	budgetID := app.createBudget(t, token, categoryID, currentMonth(), "100")

	first := app.proposeUpdate(t, token, budgetID, "150")
	second := app.proposeUpdate(t, token, budgetID, "175")

	rec := app.request(t, "GET", "/api/v1/budget-updates/confirm/"+second, "", "")
	expectStatus(t, rec, http.StatusOK)

	rec = app.request(t, "GET", "/api/v1/budget-updates/confirm/"+first, "", "")
	expectStatus(t, rec, http.StatusNotFound)
	if got := app.budgetAmount(t, budgetID); !got.Equal(decimal.NewFromInt(175)) {
		t.Errorf("expected budget 175, got %s", got)
	}
}

func TestBudgetUpdateFlow_OtherUsersBudget(t *testing.T) {
	app := setupApp(t)
	owner := app.registerUser(t, "owner@example.com")
	intruder := app.registerUser(t, "intruder@example.com")
	categoryID := app.createCategory(t, owner, "Food", "expense")
	budgetID := app.createBudget(t, owner, categoryID, currentMonth(), "100")

	rec := app.request(t, "PUT", "/api/v1/budgets/"+budgetID, intruder, `{"amount":999}`)

	expectStatus(t, rec, http.StatusNotFound)
	if len(app.Outbox.ofKind(notify.KindBudgetConfirmation)) != 0 {
		t.Error("expected no confirmation email")
	}
}

func TestSpendingFlow_SummaryAndAlerts(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "spender@example.com")
	categoryID := app.createCategory(t, token, "Groceries", "expense")
	month := currentMonth()
	app.createBudget(t, token, categoryID, month, "100")

	rec := app.request(t, "POST", "/api/v1/expenses", token,
		`{"category_id":"`+categoryID+`","title":"Market","amount":85}`)
	expectStatus(t, rec, http.StatusCreated)

	if len(app.Outbox.ofKind(notify.KindBudgetNearLimit)) != 1 {
		t.Errorf("expected one near-limit alert, got %d", len(app.Outbox.ofKind(notify.KindBudgetNearLimit)))
	}

	rec = app.request(t, "GET", "/api/v1/budgets/summary?month="+month, token, "")
	expectStatus(t, rec, http.StatusOK)
	var rows []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("failed to parse summary: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 summary row, got %d", len(rows))
	}
	if rows[0]["status"] != "near_limit" {
		t.Errorf("expected near_limit, got %v", rows[0]["status"])
	}

	rec = app.request(t, "GET", "/api/v1/expenses/monthly-summary", token, "")
	expectStatus(t, rec, http.StatusOK)
	var trend []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &trend); err != nil {
		t.Fatalf("failed to parse trend: %v", err)
	}
	if len(trend) != 6 {
		t.Errorf("expected 6 trend points, got %d", len(trend))
	}

	rec = app.request(t, "GET", "/api/v1/budgets/summary/export?month="+month, token, "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "budget-summary-"+month+".xlsx") {
		t.Errorf("unexpected Content-Disposition %q", rec.Header().Get("Content-Disposition"))
	}
}
