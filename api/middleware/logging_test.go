package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLogger implements the Logger interface for testing
type MockLogger struct {
	mu   sync.Mutex
	logs []LogEntry
}

type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

func (m *MockLogger) add(level, msg string, fields map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, LogEntry{Level: level, Message: msg, Fields: fields})
}

func (m *MockLogger) Debug(msg string, fields map[string]interface{}) { m.add("DEBUG", msg, fields) }
func (m *MockLogger) Info(msg string, fields map[string]interface{})  { m.add("INFO", msg, fields) }
func (m *MockLogger) Warn(msg string, fields map[string]interface{})  { m.add("WARN", msg, fields) }
func (m *MockLogger) Error(msg string, fields map[string]interface{}) { m.add("ERROR", msg, fields) }

type observedRequest struct {
	method string
	route  string
	status int
}

type mockObserver struct {
	requests []observedRequest
}

func (m *mockObserver) ObserveRequest(method, route string, status int, duration time.Duration) {
	m.requests = append(m.requests, observedRequest{method: method, route: route, status: status})
}

func TestRequestLoggingMiddleware_LogsRequestMethodAndPath(t *testing.T) {
	logger := &MockLogger{}
	middleware := RequestLoggingMiddleware(logger)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest("POST", "/articles?x=1", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	// Request started and request completed
	require.Len(t, logger.logs, 2)

	startLog := logger.logs[0]
	assert.Equal(t, "INFO", startLog.Level)
	assert.Equal(t, "Request started", startLog.Message)
	assert.Equal(t, "POST", startLog.Fields["method"])
	assert.Equal(t, "/articles", startLog.Fields["path"])
	assert.NotEmpty(t, startLog.Fields["request_id"])

	completeLog := logger.logs[1]
	assert.Equal(t, "INFO", completeLog.Level)
	assert.Equal(t, "Request completed", completeLog.Message)
	assert.Equal(t, http.StatusAccepted, completeLog.Fields["status"])
}

func TestRequestLoggingMiddleware_LogsResponseStatusCode(t *testing.T) {
	tests := []struct {
		name           string
		responseStatus int
		expectedLogs   int
		expectError    bool
	}{
		{"200 OK", http.StatusOK, 2, false},
		{"404 Not Found", http.StatusNotFound, 2, false},
		{"500 Internal Server Error", http.StatusInternalServerError, 3, true},
		{"503 Service Unavailable", http.StatusServiceUnavailable, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &MockLogger{}
			middleware := RequestLoggingMiddleware(logger)

			handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.responseStatus)
			}))

			req := httptest.NewRequest("GET", "/articles", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			require.Len(t, logger.logs, tt.expectedLogs)
			assert.Equal(t, tt.responseStatus, logger.logs[1].Fields["status"])

			if tt.expectError {
				errorLog := logger.logs[2]
				assert.Equal(t, "ERROR", errorLog.Level)
				assert.Contains(t, errorLog.Message, "server error")
			}
		})
	}
}

func TestRequestLoggingMiddleware_LogsRequestDuration(t *testing.T) {
	logger := &MockLogger{}
	middleware := RequestLoggingMiddleware(logger)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/articles", nil))

	completeLog := logger.logs[1]
	assert.NotNil(t, completeLog.Fields["duration"])
	durationMs := completeLog.Fields["duration_ms"].(int64)
	assert.GreaterOrEqual(t, durationMs, int64(50))
}

func TestRequestLoggingMiddleware_IncludesRequestID(t *testing.T) {
	logger := &MockLogger{}
	middleware := RequestLoggingMiddleware(logger)

	var fromContext string
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		fromContext = GetRequestID(r)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/articles", nil))

	requestID1 := logger.logs[0].Fields["request_id"].(string)
	requestID2 := logger.logs[1].Fields["request_id"].(string)

	assert.Len(t, requestID1, 36)
	assert.Equal(t, requestID1, requestID2)
	assert.Equal(t, requestID1, fromContext)
	assert.Equal(t, requestID1, rec.Header().Get(RequestIDHeader))
}

func TestRequestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	logger := &MockLogger{}
	handler := RequestLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/articles", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "upstream-id", logger.logs[0].Fields["request_id"])
}

func TestRequestObservingMiddleware_ReportsRoutePattern(t *testing.T) {
	logger := &MockLogger{}
	observer := &mockObserver{}

	router := chi.NewRouter()
	router.Use(RequestObservingMiddleware(logger, observer))
	router.Get("/articles/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/articles/abc", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nowhere", nil))

	require.Len(t, observer.requests, 2)
	assert.Equal(t, observedRequest{method: "GET", route: "/articles/{id}", status: http.StatusNotFound}, observer.requests[0])
	assert.Equal(t, "unmatched", observer.requests[1].route)
}

func TestResponseWriter_CapturesStatusCode(t *testing.T) {
	rw := &responseWriter{
		ResponseWriter: httptest.NewRecorder(),
		statusCode:     http.StatusOK,
	}

	rw.WriteHeader(http.StatusCreated)
	assert.Equal(t, http.StatusCreated, rw.statusCode)
	assert.True(t, rw.written)

	// Subsequent calls should not change status
	rw.WriteHeader(http.StatusBadRequest)
	assert.Equal(t, http.StatusCreated, rw.statusCode)
}

func TestResponseWriter_DefaultsTo200(t *testing.T) {
	rw := &responseWriter{
		ResponseWriter: httptest.NewRecorder(),
		statusCode:     http.StatusOK,
	}

	rw.Write([]byte("test"))
	assert.Equal(t, http.StatusOK, rw.statusCode)
	assert.True(t, rw.written)
}

func TestGetRequestID_FallsBackToHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/articles", nil)
	req.Header.Set(RequestIDHeader, "test-request-id")

	assert.Equal(t, "test-request-id", GetRequestID(req))
}
