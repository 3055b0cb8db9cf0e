package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"paydesk/internal/app/server"
	"paydesk/internal/domain/auth"
	"paydesk/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

const journeySecret = "test-secret"

func journeyConfig(t *testing.T, dbURL string) config.Config {
	t.Helper()
	return config.Config{
		DatabaseURL:         dbURL,
		JWTSecret:           journeySecret,
		Environment:         "test",
		OrgCode:             "ACME",
		HourlyRate:          125,
		StreakBonusAmount:   500,
		StreakThresholdDays: 28,
		StreakWindowDays:    28,
		EligibleRoles:       []string{"employee", "manager", "ceo"},
		PayslipDir:          t.TempDir(),
		EmailFrom:           "no-reply@test.local",
		RunMigrations:       true,
		MigrationsDir:       "../../../../migrations",
		MaxBodyBytes:        1048576,
	}
}

func mintToken(t *testing.T, employeeID int64, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(journeySecret, auth.Claims{EmployeeID: employeeID, Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

// journeyMonday returns a Monday unlikely to collide with earlier test runs
// against the same database.
func journeyMonday() time.Time {
	base := time.Date(2030, time.January, 7, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, 7*int(time.Now().UnixNano()%100000))
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s response: %v", method, url, err)
	}
	return resp.StatusCode, env
}

func TestWeeklyPayrollJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	app, err := server.New(context.Background(), journeyConfig(t, dbURL))
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := mintToken(t, 1, auth.RoleAdmin)
	ceoToken := mintToken(t, 2, auth.RoleCEO)

	email := fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano())
	status, env := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/employees", adminToken, map[string]any{
		"fullName":  "Journey Worker",
		"email":     email,
		"role":      auth.RoleEmployee,
		"startDate": "2025-01-06",
	})
	if status != http.StatusCreated {
		t.Fatalf("create employee: status %d", status)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode employee id: %v", err)
	}
	workerToken := mintToken(t, created.ID, auth.RoleEmployee)

	monday := journeyMonday()
	weekEnd := monday.AddDate(0, 0, 6)

	// 28 qualifying days ending on the Sunday satisfy the streak bonus.
	// In-week billable time totals exactly 48 hours.
	inWeekSeconds := []int64{25000, 25000, 25000, 25000, 25000, 25000, 22800}
	for i := 0; i < 28; i++ {
		day := weekEnd.AddDate(0, 0, -i)
		seconds := int64(28800)
		if offset := int(day.Sub(monday).Hours() / 24); offset >= 0 && offset < 7 {
			seconds = inWeekSeconds[offset]
		}
		status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/timeledger/summaries", adminToken, map[string]any{
			"employeeId":      created.ID,
			"workDate":        day.Format("2006-01-02"),
			"billableSeconds": seconds,
			"meetsMinimum":    true,
		})
		if status != http.StatusCreated {
			t.Fatalf("record summary for %s: status %d", day.Format("2006-01-02"), status)
		}
	}

	status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/penalties", adminToken, map[string]any{
		"employeeId": created.ID,
		"amount":     200,
		"reason":     "late filing",
	})
	if status != http.StatusCreated {
		t.Fatalf("create penalty: status %d", status)
	}

	runBody := map[string]any{"weekStart": monday.Format("2006-01-02")}
	status, env = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/payroll/run", adminToken, runBody)
	if status != http.StatusOK {
		t.Fatalf("run payroll: status %d", status)
	}
	var run struct {
		Processed int `json:"processed"`
	}
	if err := json.Unmarshal(env.Data, &run); err != nil {
		t.Fatalf("decode run result: %v", err)
	}
	if run.Processed < 1 {
		t.Fatalf("expected at least one processed record, got %d", run.Processed)
	}

	status, env = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/payroll/run", adminToken, runBody)
	if status != http.StatusConflict {
		t.Fatalf("duplicate run: status %d, want 409", status)
	}
	if env.Error == nil || env.Error.Code != "duplicate_run" {
		t.Fatalf("duplicate run: error %+v, want duplicate_run", env.Error)
	}

	status, env = doJSON(t, client, http.MethodGet,
		fmt.Sprintf("%s/api/v1/payroll/weeks?weekStart=%s", ts.URL, monday.Format("2006-01-02")), adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list weeks: status %d", status)
	}
	var weeks []struct {
		ID          int64   `json:"id"`
		EmployeeID  int64   `json:"employeeId"`
		FinalAmount float64 `json:"finalAmount"`
		Status      string  `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &weeks); err != nil {
		t.Fatalf("decode weeks: %v", err)
	}
	var weekID int64
	for _, wk := range weeks {
		if wk.EmployeeID == created.ID {
			weekID = wk.ID
			if wk.FinalAmount != 6300 {
				t.Errorf("final amount = %v, want 6300", wk.FinalAmount)
			}
			if wk.Status != "pending" {
				t.Errorf("status = %q, want pending", wk.Status)
			}
		}
	}
	if weekID == 0 {
		t.Fatal("expected a computed week for the new employee")
	}

	weekURL := fmt.Sprintf("%s/api/v1/payroll/weeks/%d", ts.URL, weekID)

	// An admin cannot approve; approval is the CEO's call.
	status, _ = doJSON(t, client, http.MethodPost, weekURL+"/approve", adminToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("admin approve: status %d, want 403", status)
	}

	status, env = doJSON(t, client, http.MethodPost, weekURL+"/approve", ceoToken, nil)
	if status != http.StatusOK {
		t.Fatalf("approve: status %d", status)
	}
	var transition struct {
		Transitioned bool `json:"transitioned"`
	}
	if err := json.Unmarshal(env.Data, &transition); err != nil {
		t.Fatalf("decode approve result: %v", err)
	}
	if !transition.Transitioned {
		t.Fatal("expected approve to transition")
	}

	// Repeating an approval is a quiet no-op.
	status, env = doJSON(t, client, http.MethodPost, weekURL+"/approve", ceoToken, nil)
	if status != http.StatusOK {
		t.Fatalf("repeat approve: status %d", status)
	}
	if err := json.Unmarshal(env.Data, &transition); err != nil {
		t.Fatalf("decode repeat approve result: %v", err)
	}
	if transition.Transitioned {
		t.Fatal("expected repeat approve to be a no-op")
	}

	status, _ = doJSON(t, client, http.MethodPost, weekURL+"/process", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("process: status %d", status)
	}

	status, _ = doJSON(t, client, http.MethodPost, weekURL+"/pay", adminToken, map[string]any{
		"paymentReference": "BANK-REF-42",
	})
	if status != http.StatusOK {
		t.Fatalf("mark paid: status %d", status)
	}

	status, env = doJSON(t, client, http.MethodPost, weekURL+"/payslip", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("generate payslip: status %d", status)
	}
	var slip struct {
		DocumentReference string `json:"documentReference"`
	}
	if err := json.Unmarshal(env.Data, &slip); err != nil {
		t.Fatalf("decode payslip result: %v", err)
	}
	if slip.DocumentReference == "" {
		t.Fatal("expected a document reference")
	}

	// Regenerating returns the same stored document.
	status, env = doJSON(t, client, http.MethodPost, weekURL+"/payslip", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("regenerate payslip: status %d", status)
	}
	var again struct {
		DocumentReference string `json:"documentReference"`
	}
	if err := json.Unmarshal(env.Data, &again); err != nil {
		t.Fatalf("decode regenerated payslip result: %v", err)
	}
	if again.DocumentReference != slip.DocumentReference {
		t.Fatalf("document reference changed on regeneration: %q vs %q", slip.DocumentReference, again.DocumentReference)
	}

	req, err := http.NewRequest(http.MethodGet, weekURL+"/payslip", nil)
	if err != nil {
		t.Fatalf("build download request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+workerToken)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("download payslip: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download payslip: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q, want application/pdf", ct)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read payslip body: %v", err)
	}
	if !strings.HasPrefix(string(content), "%PDF") {
		t.Error("expected PDF content")
	}
}

func TestEmployeeCannotViewAnotherWeek(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	app, err := server.New(context.Background(), journeyConfig(t, dbURL))
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := mintToken(t, 1, auth.RoleAdmin)

	email := fmt.Sprintf("solo-%d@example.com", time.Now().UnixNano())
	status, env := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/employees", adminToken, map[string]any{
		"fullName":  "Solo Worker",
		"email":     email,
		"role":      auth.RoleEmployee,
		"startDate": "2025-01-06",
	})
	if status != http.StatusCreated {
		t.Fatalf("create employee: status %d", status)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode employee id: %v", err)
	}

	monday := journeyMonday().AddDate(0, 0, 7)
	status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/timeledger/summaries", adminToken, map[string]any{
		"employeeId":      created.ID,
		"workDate":        monday.Format("2006-01-02"),
		"billableSeconds": 28800,
		"meetsMinimum":    true,
	})
	if status != http.StatusCreated {
		t.Fatalf("record summary: status %d", status)
	}

	status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/payroll/run", adminToken, map[string]any{
		"weekStart": monday.Format("2006-01-02"),
	})
	if status != http.StatusOK {
		t.Fatalf("run payroll: status %d", status)
	}

	status, env = doJSON(t, client, http.MethodGet,
		fmt.Sprintf("%s/api/v1/payroll/weeks?weekStart=%s", ts.URL, monday.Format("2006-01-02")), adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list weeks: status %d", status)
	}
	var weeks []struct {
		ID         int64 `json:"id"`
		EmployeeID int64 `json:"employeeId"`
	}
	if err := json.Unmarshal(env.Data, &weeks); err != nil {
		t.Fatalf("decode weeks: %v", err)
	}
	var weekID int64
	for _, wk := range weeks {
		if wk.EmployeeID == created.ID {
			weekID = wk.ID
		}
	}
	if weekID == 0 {
		t.Fatal("expected a computed week")
	}

	strangerToken := mintToken(t, created.ID+100000, auth.RoleEmployee)
	status, _ = doJSON(t, client, http.MethodGet, fmt.Sprintf("%s/api/v1/payroll/weeks/%d", ts.URL, weekID), strangerToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("stranger view: status %d, want 403", status)
	}
}
