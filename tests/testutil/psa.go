package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// RecordedRequest stores information about a request made to the mock PSA.
type RecordedRequest struct {
	Method  string
	Path    string
	Query   url.Values
	Headers http.Header
}

// MockResponse is a canned non-2xx response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// PSAServer is an in-process PSA REST API. Collections are served with the
// remote pagination contract: page and pageSize query parameters, a short
// page marking the end.
type PSAServer struct {
	Server *httptest.Server

	mu          sync.Mutex
	requests    []RecordedRequest
	collections map[string][]any
	audits      map[string][]any
	failures    map[string][]MockResponse
	authError   bool
}

// NewPSAServer starts a mock PSA server that is closed when the test ends.
func NewPSAServer(t *testing.T) *PSAServer {
	t.Helper()

	m := &PSAServer{
		collections: make(map[string][]any),
		audits:      make(map[string][]any),
		failures:    make(map[string][]MockResponse),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handleRequest))
	t.Cleanup(m.Server.Close)
	return m
}

// URL returns the base URL to configure the client with.
func (m *PSAServer) URL() string {
	return m.Server.URL
}

// SetCollection replaces the records served at path, e.g. "/service/tickets".
func (m *PSAServer) SetCollection(path string, records ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[path] = records
}

// SetAuditTrail replaces the audit events served for one record id.
func (m *PSAServer) SetAuditTrail(id int64, events ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[strconv.FormatInt(id, 10)] = events
}

// FailNext queues a failure for the next n requests to path.
func (m *PSAServer) FailNext(path string, n int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.failures[path] = append(m.failures[path], resp)
	}
}

// SetAuthError makes every request fail with 401 while enabled.
func (m *PSAServer) SetAuthError(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authError = enabled
}

// Requests returns all recorded requests.
func (m *PSAServer) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestsFor returns the recorded requests to path.
func (m *PSAServer) RequestsFor(path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range m.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Reset clears recorded requests and queued failures.
func (m *PSAServer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.failures = make(map[string][]MockResponse)
	m.authError = false
}

func (m *PSAServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.Query(),
		Headers: r.Header.Clone(),
	})

	if m.authError {
		m.mu.Unlock()
		writeError(w, MockResponse{StatusCode: http.StatusUnauthorized, Body: `{"code":"Unauthorized"}`})
		return
	}

	if queued := m.failures[r.URL.Path]; len(queued) > 0 {
		m.failures[r.URL.Path] = queued[1:]
		m.mu.Unlock()
		writeError(w, queued[0])
		return
	}

	var records []any
	var found bool
	if r.URL.Path == "/system/audittrail" {
		records, found = m.audits[r.URL.Query().Get("id")], true
	} else {
		records, found = m.collections[r.URL.Path]
	}
	m.mu.Unlock()

	if !found {
		writeError(w, MockResponse{StatusCode: http.StatusNotFound, Body: `{"code":"NotFound"}`})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(paginate(records, r.URL.Query()))
}

// paginate slices records by the 1-based page and pageSize parameters.
func paginate(records []any, q url.Values) []any {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(q.Get("pageSize"))
	if err != nil || size < 1 {
		size = 25
	}

	start := (page - 1) * size
	if start >= len(records) {
		return []any{}
	}
	end := start + size
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

func writeError(w http.ResponseWriter, resp MockResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}

// Ref builds a nested {"id": id, "name": name} reference.
func Ref(id int64, name string) map[string]any {
	return map[string]any{"id": id, "name": name}
}

// MemberRecord builds a remote member.
func MemberRecord(id int64, identifier string) map[string]any {
	return map[string]any{
		"id":           id,
		"identifier":   identifier,
		"firstName":    strings.ToUpper(identifier[:1]) + identifier[1:],
		"lastName":     "Engineer",
		"primaryEmail": identifier + "@example.com",
		"inactiveFlag": false,
	}
}

// BoardRecord builds a remote board.
func BoardRecord(id int64, name string) map[string]any {
	return map[string]any{"id": id, "name": name}
}

// TicketRecord builds a remote service ticket owned by owner and assigned to
// resources.
func TicketRecord(id, boardID int64, owner string, resources ...string) map[string]any {
	return map[string]any{
		"id":          id,
		"summary":     "Ticket " + strconv.FormatInt(id, 10),
		"board":       Ref(boardID, "Board "+strconv.FormatInt(boardID, 10)),
		"status":      map[string]any{"name": "New"},
		"owner":       map[string]any{"identifier": owner},
		"company":     map[string]any{"name": "Acme"},
		"priority":    map[string]any{"name": "Medium"},
		"resources":   strings.Join(resources, ","),
		"closedFlag":  false,
		"actualHours": 1.5,
		"_info": map[string]any{
			"dateEntered": "2024-01-02T03:04:05Z",
			"lastUpdated": "2024-01-03T03:04:05Z",
		},
	}
}

// TimeEntryRecord builds a remote time entry charged to a service ticket.
// A ticketID of zero charges the entry to nothing.
func TimeEntryRecord(id, memberID, ticketID int64) map[string]any {
	rec := map[string]any{
		"id":             id,
		"member":         map[string]any{"id": memberID},
		"actualHours":    2.0,
		"billableOption": "Billable",
		"notes":          "work",
		"timeStart":      "2024-01-02T09:00:00Z",
		"timeEnd":        "2024-01-02T11:00:00Z",
	}
	if ticketID != 0 {
		rec["chargeToId"] = ticketID
		rec["chargeToType"] = "ServiceTicket"
	} else {
		rec["chargeToType"] = "Activity"
	}
	return rec
}

// ProjectRecord builds a remote project managed by manager.
func ProjectRecord(id int64, name, status, manager string) map[string]any {
	return map[string]any{
		"id":              id,
		"name":            name,
		"status":          map[string]any{"name": status},
		"company":         map[string]any{"name": "Acme"},
		"manager":         map[string]any{"identifier": manager, "name": manager},
		"board":           map[string]any{"name": "Projects"},
		"percentComplete": 50.0,
		"closedFlag":      status == "Closed",
	}
}

// ProjectTicketRecord builds a remote project ticket.
func ProjectTicketRecord(id, projectID int64) map[string]any {
	return map[string]any{
		"id":        id,
		"summary":   "Project ticket " + strconv.FormatInt(id, 10),
		"project":   Ref(projectID, "Project "+strconv.FormatInt(projectID, 10)),
		"phase":     Ref(1, "Build"),
		"status":    map[string]any{"name": "Open"},
		"resources": "",
	}
}

// StatusAuditRecord builds a project status-change audit event.
func StatusAuditRecord(from, to, by, at string) map[string]any {
	return map[string]any{
		"text":         `Status changed from "` + from + `" to "` + to + `"`,
		"enteredDate":  at,
		"enteredBy":    by,
		"auditType":    "Project",
		"auditSubType": "Status",
		"oldValue":     from,
		"newValue":     to,
	}
}
