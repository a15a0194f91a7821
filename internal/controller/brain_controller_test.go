package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"ai-masterbrain-be/internal/dto"
	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/pkg/serverutils"
	"ai-masterbrain-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBrainService struct {
	mock.Mock
}

func (m *mockBrainService) Query(ctx context.Context, userId uuid.UUID, req *dto.OrchestrateQueryRequest) (*dto.OrchestrateQueryResponse, error) {
	args := m.Called(ctx, userId, req)
	res, _ := args.Get(0).(*dto.OrchestrateQueryResponse)
	return res, args.Error(1)
}

func (m *mockBrainService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateMasterSessionRequest) (*dto.CreateMasterSessionResponse, error) {
	args := m.Called(ctx, userId, req)
	res, _ := args.Get(0).(*dto.CreateMasterSessionResponse)
	return res, args.Error(1)
}

func (m *mockBrainService) GetSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionStateResponse, error) {
	args := m.Called(ctx, userId, sessionId)
	res, _ := args.Get(0).(*dto.SessionStateResponse)
	return res, args.Error(1)
}

func (m *mockBrainService) EndSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.EndMasterSessionRequest) error {
	return m.Called(ctx, userId, sessionId, req).Error(0)
}

func (m *mockBrainService) ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.MasterSessionDTO, error) {
	args := m.Called(ctx, userId)
	res, _ := args.Get(0).([]*dto.MasterSessionDTO)
	return res, args.Error(1)
}

func newTestApp(svc *mockBrainService, userId uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(logger.NewNopLogger()))
	auth := func(c *fiber.Ctx) error {
		c.Locals("user_id", userId)
		return c.Next()
	}
	NewBrainController(svc).RegisterRoutes(app.Group("/api"), auth)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestQueryEndpoint(t *testing.T) {
	svc := &mockBrainService{}
	userId := uuid.New()
	app := newTestApp(svc, userId)

	svc.On("Query", mock.Anything, userId, mock.MatchedBy(func(r *dto.OrchestrateQueryRequest) bool {
		return r.Query == "how do goroutines work?"
	})).Return(&dto.OrchestrateQueryResponse{Response: "via the scheduler"}, nil).Once()

	status, body := do(t, app, "POST", "/api/brain/master/query", map[string]interface{}{"query": "how do goroutines work?"})
	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "via the scheduler", data["response"])
	svc.AssertExpectations(t)
}

func TestQueryEndpointRejectsInvalidBodies(t *testing.T) {
	svc := &mockBrainService{}
	app := newTestApp(svc, uuid.New())

	status, _ := do(t, app, "POST", "/api/brain/master/query", map[string]interface{}{"query": ""})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, "POST", "/api/brain/master/query", map[string]interface{}{
		"query":   "q",
		"options": map[string]interface{}{"max_domains": 0},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	svc.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueryEndpointMapsSynthesisFailure(t *testing.T) {
	svc := &mockBrainService{}
	app := newTestApp(svc, uuid.New())
	svc.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(nil, apperror.Synthesis("empty completion", nil))

	status, body := do(t, app, "POST", "/api/brain/master/query", map[string]interface{}{"query": "q"})
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "SYNTHESIS", body["kind"])
}

func TestSessionEndpoints(t *testing.T) {
	svc := &mockBrainService{}
	userId := uuid.New()
	app := newTestApp(svc, userId)
	sessionId := uuid.New()

	svc.On("CreateSession", mock.Anything, userId, mock.Anything).Return(&dto.CreateMasterSessionResponse{Id: sessionId}, nil)
	svc.On("GetSession", mock.Anything, userId, sessionId).Return(&dto.SessionStateResponse{}, nil)
	svc.On("GetSession", mock.Anything, userId, mock.Anything).Return(nil, apperror.NotFound("session not found"))
	svc.On("EndSession", mock.Anything, userId, sessionId, mock.Anything).Return(apperror.Conflict("session already ended"))
	svc.On("ListSessions", mock.Anything, userId).Return([]*dto.MasterSessionDTO{{Id: sessionId}}, nil)

	status, _ := do(t, app, "POST", "/api/brain/master/session", map[string]interface{}{"name": "Research"})
	assert.Equal(t, fiber.StatusCreated, status)

	status, _ = do(t, app, "GET", "/api/brain/master/session/"+sessionId.String(), nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = do(t, app, "GET", "/api/brain/master/session/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = do(t, app, "GET", "/api/brain/master/session/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, "POST", "/api/brain/master/session/"+sessionId.String()+"/end", map[string]interface{}{"rating": 4})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = do(t, app, "POST", "/api/brain/master/session/"+sessionId.String()+"/end", map[string]interface{}{"rating": 9})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := do(t, app, "GET", "/api/brain/master/sessions", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)
}
