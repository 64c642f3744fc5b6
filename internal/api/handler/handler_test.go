package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
	"github.com/saturnino-fabrica-de-software/facesim/internal/service"
	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

// MockService implements every interface the handlers depend on.
type MockService struct {
	mock.Mock
}

func (m *MockService) Compare(ctx context.Context, a, b similarity.Embedding) (*domain.CompareOutcome, error) {
	args := m.Called(ctx, a, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CompareOutcome), args.Error(1)
}

func (m *MockService) Verify(ctx context.Context, probe, reference similarity.Embedding, threshold *float64) (*domain.VerifyOutcome, error) {
	args := m.Called(ctx, probe, reference, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerifyOutcome), args.Error(1)
}

func (m *MockService) VerifyIdentity(ctx context.Context, label string, probe similarity.Embedding, threshold *float64) (*domain.VerifyOutcome, error) {
	args := m.Called(ctx, label, probe, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerifyOutcome), args.Error(1)
}

func (m *MockService) Identify(ctx context.Context, in service.IdentifyInput) (*domain.IdentifyOutcome, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IdentifyOutcome), args.Error(1)
}

func (m *MockService) Search(ctx context.Context, probe similarity.Embedding, threshold *float64, maxResults int) (*domain.SearchResult, error) {
	args := m.Called(ctx, probe, threshold, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SearchResult), args.Error(1)
}

func (m *MockService) Enroll(ctx context.Context, in service.EnrollInput) ([]domain.Enrollment, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Enrollment), args.Error(1)
}

func (m *MockService) ListIdentities(ctx context.Context) ([]domain.Identity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Identity), args.Error(1)
}

func (m *MockService) GetIdentity(ctx context.Context, label string) ([]domain.Enrollment, error) {
	args := m.Called(ctx, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Enrollment), args.Error(1)
}

func (m *MockService) DeleteIdentity(ctx context.Context, label string) (int, error) {
	args := m.Called(ctx, label)
	return args.Int(0), args.Error(1)
}

func (m *MockService) DeleteEnrollment(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockService) RecentEvents(ctx context.Context, limit int) ([]domain.RecognitionEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecognitionEvent), args.Error(1)
}

func (m *MockService) IdentityHistory(ctx context.Context, label string, limit int) ([]domain.RecognitionEvent, error) {
	args := m.Called(ctx, label, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecognitionEvent), args.Error(1)
}

func (m *MockService) Stats(ctx context.Context, since time.Time) (*domain.RecognitionStats, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecognitionStats), args.Error(1)
}

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestApp mounts every handler on an app that renders AppErrors the
// way the production error handler does.
func createTestApp(svc *MockService) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *domain.AppError
			if errors.As(err, &appErr) {
				return c.Status(appErr.StatusCode).JSON(fiber.Map{
					"error": fiber.Map{"code": appErr.Code, "message": appErr.Message},
				})
			}
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).SendString(fiberErr.Message)
			}
			return c.Status(500).SendString(err.Error())
		},
	})

	recognition := NewRecognitionHandler(svc, testLogger())
	identities := NewIdentityHandler(svc, testLogger())
	analytics := NewAnalyticsHandler(svc, testLogger())
	analytics.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }

	app.Post("/compare", recognition.Compare)
	app.Post("/verify", recognition.Verify)
	app.Post("/identify", recognition.Identify)
	app.Post("/search", recognition.Search)
	app.Post("/identities", identities.Enroll)
	app.Get("/identities", identities.List)
	app.Get("/identities/:label", identities.Get)
	app.Delete("/identities/:label", identities.Delete)
	app.Post("/identities/:label/verify", recognition.VerifyIdentity)
	app.Get("/identities/:label/events", analytics.History)
	app.Delete("/enrollments/:id", identities.DeleteEnrollment)
	app.Get("/analytics/events", analytics.Events)
	app.Get("/analytics/stats", analytics.Stats)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, out
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Error.Code
}

func ptr(f float64) *float64 {
	return &f
}
