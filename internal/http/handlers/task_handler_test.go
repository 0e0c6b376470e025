package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskboard/internal/domain"
	approuter "taskboard/internal/http"
	"taskboard/internal/http/dto"
	"taskboard/internal/http/handlers"
	"taskboard/internal/service"
	"taskboard/internal/store/memory"
	"taskboard/internal/validation"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
)

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

type appOptions struct {
	maxBodyBytes     int64
	enableReset      bool
	withoutValidator bool
}

func newApp(t *testing.T, opts appOptions) (http.Handler, *clockwork.FakeClock) {
	t.Helper()

	clock := clockwork.NewFakeClockAt(testNow)
	calendar := domain.NewCalendar(clock, time.UTC)
	logger := log.New(io.Discard)

	store := memory.New(calendar)
	svc, err := service.New(store, calendar, logger)
	if err != nil {
		t.Fatalf("service.New err=%v", err)
	}

	var validator handlers.RequestValidator
	if !opts.withoutValidator {
		v, err := validation.New()
		if err != nil {
			t.Fatalf("validation.New err=%v", err)
		}
		validator = v
	}

	h := handlers.New(svc, handlers.Options{
		Validator:    validator,
		Calendar:     calendar,
		Logger:       logger,
		MaxBodyBytes: opts.maxBodyBytes,
	})
	health := handlers.NewHealth("test", calendar.Now)

	return approuter.New(h, health, approuter.Options{
		Logger:      logger,
		EnableReset: opts.enableReset,
	}), clock
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body err=%v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)
	return rr
}

func doRaw(t *testing.T, h http.Handler, method, path string, raw string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) dto.Envelope {
	t.Helper()

	var env dto.Envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope err=%v body=%s", err, rr.Body.String())
	}
	return env
}

func decodeTask(t *testing.T, rr *httptest.ResponseRecorder) dto.TaskResponse {
	t.Helper()

	env := decodeEnvelope(t, rr)
	if !env.Success {
		t.Fatalf("success=false, want true error=%+v", env.Error)
	}

	var out dto.TaskResponse
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode task err=%v", err)
	}
	return out
}

func taskBody(title, dueDate string, priority int) map[string]any {
	return map[string]any{
		"title":       title,
		"description": "Milk and eggs",
		"dueDate":     dueDate,
		"priority":    priority,
	}
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code, message string) dto.Envelope {
	t.Helper()

	if rr.Code != status {
		t.Fatalf("status=%d, want %d body=%s", rr.Code, status, rr.Body.String())
	}
	env := decodeEnvelope(t, rr)
	if env.Success {
		t.Fatalf("success=true, want false")
	}
	if env.Error == nil {
		t.Fatalf("error=nil, want envelope error")
	}
	if env.Error.Code != code {
		t.Fatalf("code=%q, want %q", env.Error.Code, code)
	}
	if message != "" && env.Error.Message != message {
		t.Fatalf("message=%q, want %q", env.Error.Message, message)
	}
	if env.Timestamp.IsZero() {
		t.Fatalf("timestamp is zero")
	}
	return env
}

func TestPOST_Task_Created(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	rr := doJSON(t, app, http.MethodPost, approuter.TaskPath, taskBody("Buy groceries", "2026-03-12", 1))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d, want %d body=%s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	out := decodeTask(t, rr)
	if out.ID == "" {
		t.Fatalf("id is empty")
	}
	if out.Title != "Buy groceries" {
		t.Fatalf("title=%q, want %q", out.Title, "Buy groceries")
	}
	if out.DueDate != "2026-03-12" {
		t.Fatalf("dueDate=%q, want %q", out.DueDate, "2026-03-12")
	}
	if out.Priority != int(domain.PriorityMedium) {
		t.Fatalf("priority=%d, want %d", out.Priority, int(domain.PriorityMedium))
	}
	if out.Status != int(domain.StatusPending) {
		t.Fatalf("status=%d, want %d", out.Status, domain.StatusPending)
	}
	if !out.CreatedAt.Equal(testNow) {
		t.Fatalf("createdAt=%v, want %v", out.CreatedAt, testNow)
	}
}

func TestPOST_Task_DueToday_Pending(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	rr := doJSON(t, app, http.MethodPost, approuter.TaskPath, taskBody("Today task", "2026-03-10", 0))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d, want %d body=%s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if out := decodeTask(t, rr); out.Status != int(domain.StatusPending) {
		t.Fatalf("status=%d, want %d", out.Status, domain.StatusPending)
	}
}

func TestPOST_Task_AcceptsTimestampDueDate(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	rr := doJSON(t, app, http.MethodPost, approuter.TaskPath, taskBody("Timestamped", "2026-03-15T18:30:00Z", 2))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d, want %d body=%s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if out := decodeTask(t, rr); out.DueDate != "2026-03-15" {
		t.Fatalf("dueDate=%q, want %q", out.DueDate, "2026-03-15")
	}
}

func TestPOST_Task_NullDescription(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	rr := doRaw(t, app, http.MethodPost, approuter.TaskPath,
		`{"title":"No description","description":null,"dueDate":"2026-03-11","priority":0}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d, want %d body=%s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if out := decodeTask(t, rr); out.Description != "" {
		t.Fatalf("description=%q, want empty", out.Description)
	}
}

func TestPOST_Task_IntegralFloatPriority(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	rr := doRaw(t, app, http.MethodPost, approuter.TaskPath,
		`{"title":"Float priority","dueDate":"2026-03-11","priority":1.0}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d, want %d body=%s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if out := decodeTask(t, rr); out.Priority != int(domain.PriorityMedium) {
		t.Fatalf("priority=%d, want %d", out.Priority, int(domain.PriorityMedium))
	}
}

func TestPOST_Task_FractionalPriorityWithoutSchema_400(t *testing.T) {
	app, _ := newApp(t, appOptions{withoutValidator: true})

	rr := doRaw(t, app, http.MethodPost, approuter.TaskPath,
		`{"title":"Half priority","dueDate":"2026-03-11","priority":1.5}`)

	expectError(t, rr, http.StatusBadRequest, dto.CodeBusinessRule, service.ErrInvalidPriority.Rule)
}

func TestPOST_Task_InvalidJSON_400(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	rr := doRaw(t, app, http.MethodPost, approuter.TaskPath, "{bad json}")

	expectError(t, rr, http.StatusBadRequest, dto.CodeValidation, "Invalid JSON body")
}

func TestPOST_Task_TrailingData_400(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	rr := doRaw(t, app, http.MethodPost, approuter.TaskPath,
		`{"title":"Trailing","dueDate":"2026-03-11","priority":0} {}`)

	expectError(t, rr, http.StatusBadRequest, dto.CodeValidation, "Invalid JSON body")
}

func TestPOST_Task_SchemaViolations_400(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		field   string
		message string
	}{
		{"short title", `{"title":"ab","dueDate":"2026-03-11","priority":0}`, "title", service.ErrTitleTooShort.Rule},
		{"missing title", `{"dueDate":"2026-03-11","priority":0}`, "title", service.ErrTitleRequired.Rule},
		{"title not string", `{"title":42,"dueDate":"2026-03-11","priority":0}`, "title", ""},
		{"long description", `{"title":"Valid","description":"` + strings.Repeat("d", 501) + `","dueDate":"2026-03-11","priority":0}`, "description", service.ErrDescriptionTooLong.Rule},
		{"missing due date", `{"title":"Valid","priority":0}`, "dueDate", ""},
		{"priority out of range", `{"title":"Valid","dueDate":"2026-03-11","priority":5}`, "priority", service.ErrInvalidPriority.Rule},
		{"priority fraction", `{"title":"Valid","dueDate":"2026-03-11","priority":1.5}`, "priority", service.ErrInvalidPriority.Rule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newApp(t, appOptions{})

			rr := doRaw(t, app, http.MethodPost, approuter.TaskPath, tt.body)
			env := expectError(t, rr, http.StatusBadRequest, dto.CodeValidation, "Validation failed")

			var details []validation.FieldError
			if err := json.Unmarshal(env.Error.Details, &details); err != nil {
				t.Fatalf("decode details err=%v", err)
			}
			found := false
			for _, d := range details {
				if d.Field == tt.field && (tt.message == "" || d.Message == tt.message) {
					found = true
				}
			}
			if !found {
				t.Fatalf("details=%+v, want an entry for %q message %q", details, tt.field, tt.message)
			}
		})
	}
}

func TestPOST_Task_InvalidDate_400(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	rr := doJSON(t, app, http.MethodPost, approuter.TaskPath, taskBody("Bad date", "not-a-date", 0))

	expectError(t, rr, http.StatusBadRequest, dto.CodeValidation, "Validation failed")
}

func TestPOST_Task_BusinessRules_400(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		rule string
	}{
		{"only spaces", taskBody("   ", "2026-03-11", 0), service.ErrTitleOnlySpaces.Rule},
		{"too short after trim", taskBody("a  ", "2026-03-11", 0), service.ErrTitleTooShort.Rule},
		{"due yesterday", taskBody("Late task", "2026-03-09", 0), service.ErrDueDateInPast.Rule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newApp(t, appOptions{})

			rr := doJSON(t, app, http.MethodPost, approuter.TaskPath, tt.body)
			expectError(t, rr, http.StatusBadRequest, dto.CodeBusinessRule, tt.rule)
		})
	}
}

func TestPOST_Task_DuplicateTitle_400(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	first := doJSON(t, app, http.MethodPost, approuter.TaskPath, taskBody("Buy milk", "2026-03-11", 0))
	if first.Code != http.StatusCreated {
		t.Fatalf("first status=%d body=%s", first.Code, first.Body.String())
	}

	second := doJSON(t, app, http.MethodPost, approuter.TaskPath, taskBody("BUY MILK", "2026-03-12", 1))
	expectError(t, second, http.StatusBadRequest, dto.CodeBusinessRule, service.ErrDuplicateTitle.Rule)
}

func TestPOST_Task_DuplicateTitle_ExactMatchOnly(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	for _, title := range []string{"Pay rent", " Pay rent", "Straße", "STRASSE"} {
		rr := doJSON(t, app, http.MethodPost, approuter.TaskPath, taskBody(title, "2026-03-11", 0))
		if rr.Code != http.StatusCreated {
			t.Fatalf("create %q status=%d, want %d body=%s", title, rr.Code, http.StatusCreated, rr.Body.String())
		}
		if out := decodeTask(t, rr); out.Title != title {
			t.Fatalf("title=%q, want %q", out.Title, title)
		}
	}
}

func TestPOST_Task_BodyTooLarge_413(t *testing.T) {
	app, _ := newApp(t, appOptions{maxBodyBytes: 64})

	rr := doJSON(t, app, http.MethodPost, approuter.TaskPath, taskBody(strings.Repeat("x", 80), "2026-03-11", 0))

	expectError(t, rr, http.StatusRequestEntityTooLarge, dto.CodeValidation, "")
}

func TestGET_TaskByID_OK(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	create := doJSON(t, app, http.MethodPost, approuter.TaskPath, taskBody("T1 task", "2026-03-11", 0))
	if create.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", create.Code, create.Body.String())
	}
	created := decodeTask(t, create)

	rr := doJSON(t, app, http.MethodGet, approuter.TaskPath+"/"+created.ID, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	out := decodeTask(t, rr)
	if out.ID != created.ID {
		t.Fatalf("id=%q, want %q", out.ID, created.ID)
	}
	if out.Title != created.Title {
		t.Fatalf("title=%q, want %q", out.Title, created.Title)
	}
}

func TestGET_TaskByID_NotFound_404(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	rr := doJSON(t, app, http.MethodGet, approuter.TaskPath+"/5b0cf4bc-6f0e-4a8b-9b6e-0d6a3c1f2e11", nil)

	expectError(t, rr, http.StatusNotFound, dto.CodeNotFound, service.ErrNotFound.Error())
}

func TestGET_TaskByID_InvalidID_400(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	rr := doJSON(t, app, http.MethodGet, approuter.TaskPath+"/0", nil)

	expectError(t, rr, http.StatusBadRequest, dto.CodeValidation, service.ErrInvalidID.Error())
}

func TestGET_Tasks_Empty(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	rr := doJSON(t, app, http.MethodGet, approuter.TaskPath, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}

	env := decodeEnvelope(t, rr)
	if string(env.Data) != "[]" {
		t.Fatalf("data=%s, want []", env.Data)
	}
}

func TestGET_Tasks_ListInCreationOrder(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	titles := []string{"Alpha", "Bravo", "Charlie"}
	for _, title := range titles {
		rr := doJSON(t, app, http.MethodPost, approuter.TaskPath, taskBody(title, "2026-03-11", 0))
		if rr.Code != http.StatusCreated {
			t.Fatalf("create %q status=%d body=%s", title, rr.Code, rr.Body.String())
		}
	}

	rr := doJSON(t, app, http.MethodGet, approuter.TaskPath, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var out []dto.TaskResponse
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &out); err != nil {
		t.Fatalf("decode err=%v", err)
	}
	if len(out) != len(titles) {
		t.Fatalf("len=%d, want %d", len(out), len(titles))
	}
	for i, title := range titles {
		if out[i].Title != title {
			t.Fatalf("out[%d].title=%q, want %q", i, out[i].Title, title)
		}
	}
}

func TestGET_Tasks_FlipsOverdue(t *testing.T) {
	app, clock := newApp(t, appOptions{})

	create := doJSON(t, app, http.MethodPost, approuter.TaskPath, taskBody("Pay rent", "2026-03-10", 2))
	if create.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", create.Code, create.Body.String())
	}
	created := decodeTask(t, create)

	clock.Advance(48 * time.Hour)

	rr := doJSON(t, app, http.MethodGet, approuter.TaskPath, nil)
	var out []dto.TaskResponse
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &out); err != nil {
		t.Fatalf("decode err=%v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len=%d, want 1", len(out))
	}
	if out[0].Status != int(domain.StatusOverdue) {
		t.Fatalf("status=%d, want %d", out[0].Status, domain.StatusOverdue)
	}

	get := doJSON(t, app, http.MethodGet, approuter.TaskPath+"/"+created.ID, nil)
	if got := decodeTask(t, get); got.Status != int(domain.StatusOverdue) {
		t.Fatalf("get status=%d, want %d", got.Status, domain.StatusOverdue)
	}
}

func TestDELETE_Tasks(t *testing.T) {
	app, _ := newApp(t, appOptions{enableReset: true})

	_ = doJSON(t, app, http.MethodPost, approuter.TaskPath, taskBody("Gone soon", "2026-03-11", 0))

	rr := doJSON(t, app, http.MethodDelete, approuter.TaskPath, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status=%d, want %d body=%s", rr.Code, http.StatusNoContent, rr.Body.String())
	}

	list := doJSON(t, app, http.MethodGet, approuter.TaskPath, nil)
	if data := string(decodeEnvelope(t, list).Data); data != "[]" {
		t.Fatalf("data=%s, want []", data)
	}

	again := doJSON(t, app, http.MethodPost, approuter.TaskPath, taskBody("Gone soon", "2026-03-11", 0))
	if again.Code != http.StatusCreated {
		t.Fatalf("recreate status=%d, want %d body=%s", again.Code, http.StatusCreated, again.Body.String())
	}
}

func TestDELETE_Tasks_DisabledByDefault(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	rr := doJSON(t, app, http.MethodDelete, approuter.TaskPath, nil)

	expectError(t, rr, http.StatusNotFound, dto.CodeNotFound, "")
}

func TestGET_Health(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	rr := doJSON(t, app, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", rr.Code, http.StatusOK)
	}

	var out dto.HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode err=%v", err)
	}
	if out.Status != "healthy" {
		t.Fatalf("status=%q, want %q", out.Status, "healthy")
	}
	if out.Environment != "test" {
		t.Fatalf("environment=%q, want %q", out.Environment, "test")
	}
	if !out.Timestamp.Equal(testNow) {
		t.Fatalf("timestamp=%v, want %v", out.Timestamp, testNow)
	}
}

func TestUnknownRoute_404Envelope(t *testing.T) {
	app, _ := newApp(t, appOptions{})

	rr := doJSON(t, app, http.MethodGet, "/api/v1/nope", nil)

	expectError(t, rr, http.StatusNotFound, dto.CodeNotFound, "Route GET /api/v1/nope not found")
}
