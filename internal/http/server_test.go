package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"debtplan/internal/core"
	"debtplan/internal/services"
	"debtplan/internal/simulation"
	"debtplan/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := services.NewPlanService(storage.NewMemoryStore(), nil, simulation.Options{})
	return NewServer(":0", svc)
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for path, want := range map[string]string{"/healthz": "ok", "/readyz": "ready"} {
		rr := doRequest(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK || rr.Body.String() != want {
			t.Errorf("%s = %d %q, want 200 %q", path, rr.Code, rr.Body.String(), want)
		}
	}
}

func TestDebtCRUD(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodPost, "/api/debts",
		`{"creditor":"Visa","balance":"500.00","apr":19.99,"minimumPayment":"25.00"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	var created core.Debt
	decodeBody(t, rr, &created)
	if created.ID == 0 || created.Position != 1 {
		t.Fatalf("created debt = %+v", created)
	}
	if created.Balance.Cents != 50000 {
		t.Errorf("created balance = %d, want 50000", created.Balance.Cents)
	}

	rr = doRequest(t, srv, http.MethodPut, fmt.Sprintf("/api/debts/%d", created.ID),
		`{"creditor":"Visa Platinum","balance":"500.00","apr":19.99,"minimumPayment":"25.00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rr.Code, rr.Body.String())
	}
	var updated core.Debt
	decodeBody(t, rr, &updated)
	if updated.Creditor != "Visa Platinum" || updated.Position != 1 {
		t.Errorf("updated debt = %+v", updated)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/debts", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var listed []core.Debt
	decodeBody(t, rr, &listed)
	if len(listed) != 1 {
		t.Fatalf("listed %d debts, want 1", len(listed))
	}

	rr = doRequest(t, srv, http.MethodDelete, fmt.Sprintf("/api/debts/%d", created.ID), "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodDelete, fmt.Sprintf("/api/debts/%d", created.ID), "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rr.Code)
	}
}

func TestCreateDebtValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"creditor":`},
		{"empty creditor", `{"creditor":"  ","balance":"500.00","apr":10,"minimumPayment":"25.00"}`},
		{"zero balance", `{"creditor":"Visa","balance":"0","apr":10,"minimumPayment":"25.00"}`},
		{"negative apr", `{"creditor":"Visa","balance":"500.00","apr":-1,"minimumPayment":"25.00"}`},
		{"zero minimum", `{"creditor":"Visa","balance":"500.00","apr":10,"minimumPayment":"0"}`},
		{"bad priority", `{"creditor":"Visa","balance":"500.00","apr":10,"minimumPayment":"25.00","customPriority":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, srv, http.MethodPost, "/api/debts", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body %s", rr.Code, rr.Body.String())
			}
			var resp struct {
				Error string `json:"error"`
			}
			decodeBody(t, rr, &resp)
			if resp.Error == "" {
				t.Error("error message missing")
			}
		})
	}
}

func createTestDebt(t *testing.T, srv *Server, creditor, balance string) core.Debt {
	t.Helper()
	body := fmt.Sprintf(`{"creditor":%q,"balance":%q,"apr":10.0,"minimumPayment":"25.00"}`, creditor, balance)
	rr := doRequest(t, srv, http.MethodPost, "/api/debts", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create %s status = %d, body %s", creditor, rr.Code, rr.Body.String())
	}
	var d core.Debt
	decodeBody(t, rr, &d)
	return d
}

func TestReorderDebts(t *testing.T) {
	srv := newTestServer(t)
	a := createTestDebt(t, srv, "A", "100.00")
	b := createTestDebt(t, srv, "B", "200.00")
	c := createTestDebt(t, srv, "C", "300.00")

	rr := doRequest(t, srv, http.MethodPost, "/api/debts/reorder",
		fmt.Sprintf(`{"idsInOrder":[%d,%d]}`, c.ID, a.ID))
	if rr.Code != http.StatusOK {
		t.Fatalf("reorder status = %d, body %s", rr.Code, rr.Body.String())
	}
	var debts []core.Debt
	decodeBody(t, rr, &debts)
	wantOrder := []int64{c.ID, a.ID, b.ID}
	for i, want := range wantOrder {
		if debts[i].ID != want {
			t.Errorf("debts[%d].ID = %d, want %d", i, debts[i].ID, want)
		}
		if debts[i].Position != i+1 {
			t.Errorf("debts[%d].Position = %d, want %d", i, debts[i].Position, i+1)
		}
	}

	rr = doRequest(t, srv, http.MethodPost, "/api/debts/reorder", `{"idsInOrder":[999]}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("reorder unknown id status = %d, want 400", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodPost, "/api/debts/reorder", `{"idsInOrder":[]}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("reorder empty status = %d, want 400", rr.Code)
	}
}

func TestSettingsPartialUpdate(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/settings", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get settings status = %d", rr.Code)
	}
	var initial core.Settings
	decodeBody(t, rr, &initial)
	if initial.Strategy != core.StrategyAvalanche || !initial.MonthlyBudget.IsZero() {
		t.Fatalf("default settings = %+v", initial)
	}

	// Only the budget; date and strategy keep their values.
	rr = doRequest(t, srv, http.MethodPut, "/api/settings", `{"monthlyBudget":"450.00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("put settings status = %d, body %s", rr.Code, rr.Body.String())
	}
	var updated core.Settings
	decodeBody(t, rr, &updated)
	if updated.MonthlyBudget.Cents != 45000 {
		t.Errorf("budget = %d, want 45000", updated.MonthlyBudget.Cents)
	}
	if updated.Strategy != initial.Strategy || updated.BalanceDate.ISO() != initial.BalanceDate.ISO() {
		t.Errorf("partial update touched other fields: %+v", updated)
	}

	rr = doRequest(t, srv, http.MethodPut, "/api/settings", `{"strategy":"steamroller"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad strategy status = %d, want 400", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodPut, "/api/settings", `{"monthlyBudget":"-1.00"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("negative budget status = %d, want 400", rr.Code)
	}
}

func TestScheduleOverrideLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodPut, "/api/schedule-overrides/3", `{"additionalAmount":"25.00"}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("put override status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/schedule-overrides", "")
	var overrides []core.ScheduleOverride
	decodeBody(t, rr, &overrides)
	if len(overrides) != 1 || overrides[0].MonthIndex != 3 || overrides[0].AdditionalAmount.Cents != 2500 {
		t.Fatalf("overrides = %+v", overrides)
	}

	// Zero amount removes the override.
	rr = doRequest(t, srv, http.MethodPut, "/api/schedule-overrides/3", `{"additionalAmount":"0"}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("zero put status = %d", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodGet, "/api/schedule-overrides", "")
	decodeBody(t, rr, &overrides)
	if len(overrides) != 0 {
		t.Errorf("overrides after zero = %+v", overrides)
	}

	rr = doRequest(t, srv, http.MethodPut, "/api/schedule-overrides/0", `{"additionalAmount":"25.00"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("month 0 status = %d, want 400", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodPut, "/api/schedule-overrides/3", `{"additionalAmount":"-5.00"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("negative amount status = %d, want 400", rr.Code)
	}
}

func TestPaymentOverridesBulk(t *testing.T) {
	srv := newTestServer(t)
	d := createTestDebt(t, srv, "Visa", "500.00")

	body := fmt.Sprintf(`{"monthIndex":2,"overrides":[{"debtId":%d,"amount":"50.00","note":"bonus"}]}`, d.ID)
	rr := doRequest(t, srv, http.MethodPut, "/api/payment-overrides/bulk", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("bulk put status = %d, body %s", rr.Code, rr.Body.String())
	}
	var stored []core.PaymentOverride
	decodeBody(t, rr, &stored)
	if len(stored) != 1 || stored[0].MonthIndex != 2 || stored[0].Note != "bonus" {
		t.Fatalf("stored = %+v", stored)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/payment-overrides?monthIndex=2", "")
	decodeBody(t, rr, &stored)
	if len(stored) != 1 {
		t.Fatalf("month filter = %+v", stored)
	}
	rr = doRequest(t, srv, http.MethodGet, "/api/payment-overrides?monthIndex=9", "")
	decodeBody(t, rr, &stored)
	if len(stored) != 0 {
		t.Errorf("empty month = %+v", stored)
	}

	rr = doRequest(t, srv, http.MethodPut, "/api/payment-overrides/bulk",
		`{"monthIndex":2,"overrides":[{"debtId":999,"amount":"50.00"}]}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown debt status = %d, want 404", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodPut, "/api/payment-overrides/bulk",
		fmt.Sprintf(`{"monthIndex":0,"overrides":[{"debtId":%d,"amount":"50.00"}]}`, d.ID))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("month 0 status = %d, want 400", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodDelete, fmt.Sprintf("/api/payment-overrides/2/%d", d.ID), "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodGet, "/api/payment-overrides", "")
	decodeBody(t, rr, &stored)
	if len(stored) != 0 {
		t.Errorf("after delete = %+v", stored)
	}
}

func TestSimulationEndpoint(t *testing.T) {
	srv := newTestServer(t)
	createTestDebt(t, srv, "Visa", "100.00")
	rr := doRequest(t, srv, http.MethodPut, "/api/settings",
		`{"balanceDate":"2024-01-15","monthlyBudget":"200.00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("settings status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/simulation", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("simulation status = %d, body %s", rr.Code, rr.Body.String())
	}
	var result simulation.Result
	decodeBody(t, rr, &result)
	if result.Totals.TotalMonths != 1 || len(result.Months) != 1 {
		t.Errorf("result totals = %+v months = %d", result.Totals, len(result.Months))
	}
	if result.Months[0].MonthLabel != "Jan 2024" {
		t.Errorf("month label = %q, want Jan 2024", result.Months[0].MonthLabel)
	}
}

func TestSimulationBudgetTooLow(t *testing.T) {
	srv := newTestServer(t)
	createTestDebt(t, srv, "Visa", "100.00")
	doRequest(t, srv, http.MethodPut, "/api/settings",
		`{"balanceDate":"2024-01-15","monthlyBudget":"10.00"}`)

	rr := doRequest(t, srv, http.MethodGet, "/api/simulation", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("simulation status = %d, want 400, body %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rr, &resp)
	if !strings.Contains(resp.Error, "minimum payments") {
		t.Errorf("error = %q, want mention of minimum payments", resp.Error)
	}
}

func TestSimulationCacheInvalidatedByMutation(t *testing.T) {
	srv := newTestServer(t)
	createTestDebt(t, srv, "Visa", "100.00")
	doRequest(t, srv, http.MethodPut, "/api/settings",
		`{"balanceDate":"2024-01-15","monthlyBudget":"200.00"}`)

	rr := doRequest(t, srv, http.MethodGet, "/api/simulation", "")
	var first simulation.Result
	decodeBody(t, rr, &first)
	if len(first.Debts) != 1 {
		t.Fatalf("first run debts = %d, want 1", len(first.Debts))
	}

	// Cached: a second read without writes returns the same payload.
	rr = doRequest(t, srv, http.MethodGet, "/api/simulation", "")
	var second simulation.Result
	decodeBody(t, rr, &second)
	if len(second.Debts) != 1 {
		t.Fatalf("cached run debts = %d, want 1", len(second.Debts))
	}

	// A write invalidates; the next read sees the new debt.
	createTestDebt(t, srv, "Car loan", "300.00")
	rr = doRequest(t, srv, http.MethodGet, "/api/simulation", "")
	var third simulation.Result
	decodeBody(t, rr, &third)
	if len(third.Debts) != 2 {
		t.Errorf("post-mutation run debts = %d, want 2", len(third.Debts))
	}
}

func TestUnknownDebtUpdate(t *testing.T) {
	srv := newTestServer(t)
	rr := doRequest(t, srv, http.MethodPut, "/api/debts/42",
		`{"creditor":"Visa","balance":"500.00","apr":10,"minimumPayment":"25.00"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("update unknown debt status = %d, want 404", rr.Code)
	}
}
