package server

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamoski/relaydeck/internal/config"
	"github.com/mamoski/relaydeck/internal/models"
	"github.com/mamoski/relaydeck/internal/service"
)

type stubRelay struct {
	payloads []service.RelayPayload
}

func (s *stubRelay) Send(ctx context.Context, payload service.RelayPayload) error {
	s.payloads = append(s.payloads, payload)
	return nil
}

type stubStore struct {
	records []*models.UploadRecord
}

func (s *stubStore) Insert(ctx context.Context, record *models.UploadRecord) error {
	s.records = append(s.records, record)
	return nil
}

func (s *stubStore) ListRecent(ctx context.Context, ownerUserID string, limit int) ([]models.UploadRecord, error) {
	return nil, nil
}

func (s *stubStore) EnqueueOutbox(ctx context.Context, record *models.UploadRecord, cause error) error {
	return nil
}

func newUploadTestServer(t *testing.T, maxUploadMB int) (*gin.Engine, *stubRelay, *stubStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	relay := &stubRelay{}
	store := &stubStore{}
	srv := &Server{
		Config: &config.Config{
			Server: config.ServerConfig{MaxUploadMB: maxUploadMB},
		},
		Logger: zap.NewNop(),
		Submit: service.NewSubmitService(relay, store, zap.NewNop()),
	}

	router := gin.New()
	router.POST("/uploads", func(c *gin.Context) {
		c.Set(identityKey, service.Identity{UserID: "user-1", Email: "op@mamoski.example"})
		srv.handleSubmitUpload(c)
	})
	return router, relay, store
}

func buildUploadRequest(t *testing.T, asset []byte, platforms string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "clip.mp4")
	if err != nil {
		t.Fatalf("failed to build form file: %v", err)
	}
	if _, err := part.Write(asset); err != nil {
		t.Fatalf("failed to write asset: %v", err)
	}
	if platforms != "" {
		if err := writer.WriteField("platforms", platforms); err != nil {
			t.Fatalf("failed to write platforms field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/uploads", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestSubmitUploadRelaysAndRecords(t *testing.T) {
	router, relay, store := newUploadTestServer(t, 16)

	req := buildUploadRequest(t, []byte("tiny clip"), `[{"platform_id":"instagram","post_type":"Story"}]`)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(relay.payloads) != 1 {
		t.Fatalf("expected one relay call, got %d", len(relay.payloads))
	}
	if len(store.records) != 1 {
		t.Fatalf("expected one stored record, got %d", len(store.records))
	}
	record := store.records[0]
	if len(record.Platforms) != 1 || record.Platforms[0] != "instagram" {
		t.Fatalf("unexpected record platforms %v", record.Platforms)
	}
}

func TestSubmitUploadRejectsOversizedAsset(t *testing.T) {
	router, relay, _ := newUploadTestServer(t, 1)

	req := buildUploadRequest(t, make([]byte, 2<<20), `[{"platform_id":"instagram"}]`)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for an oversized asset, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(relay.payloads) != 0 {
		t.Fatalf("relay must not be called for a rejected asset")
	}
}

func TestSubmitUploadWithoutPlatformsIsRejected(t *testing.T) {
	router, relay, _ := newUploadTestServer(t, 16)

	req := buildUploadRequest(t, []byte("tiny clip"), "")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without platform selections, got %d", resp.Code)
	}
	if len(relay.payloads) != 0 {
		t.Fatalf("relay must not be called for an invalid draft")
	}
}
