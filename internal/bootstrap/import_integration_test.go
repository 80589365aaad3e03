package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/mohammadpnp/catalog-import/internal/bootstrap"
	"github.com/mohammadpnp/catalog-import/internal/config"
)

type jobEnvelope struct {
	Data struct {
		JobID         string `json:"job_id"`
		Status        string `json:"status"`
		ProcessedRows int64  `json:"processed_rows"`
		InsertedRows  int64  `json:"inserted_rows"`
		UpdatedRows   int64  `json:"updated_rows"`
		SkippedRows   int64  `json:"skipped_rows"`
	} `json:"data"`
}

func newTestApp(t *testing.T) (*bootstrap.App, http.Handler) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	cfg := &config.Config{
		DatabaseURL:            dsn,
		AutoMigrate:            true,
		MaxUploadMB:            1,
		ImportWorkers:          2,
		ImportWorkerEnabled:    true,
		ImportBatchSize:        2,
		ImportPollInterval:     20 * time.Millisecond,
		ImportCancelCheckEvery: 100,
		ProgressBackend:        config.ProgressBackendMemory,
		ProgressBuffer:         16,
		WebhookTimeout:         time.Second,
	}

	app, err := bootstrap.NewApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if err := app.DB.Exec("TRUNCATE webhook_deliveries, webhooks, import_jobs, products RESTART IDENTITY CASCADE").Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.Start(ctx)
	t.Cleanup(func() {
		cancel()
		app.Close()
	})

	return app, bootstrap.NewHTTPServer(app)
}

func upload(t *testing.T, server http.Handler, content string) string {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "products.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte(content))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var env jobEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return env.Data.JobID
}

func waitForTerminal(t *testing.T, server http.Handler, jobID string) jobEnvelope {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for {
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+jobID, nil))

		var env jobEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode status response: %v", err)
		}
		switch env.Data.Status {
		case "completed", "failed", "cancelled":
			return env
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s still %s", jobID, env.Data.Status)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestImportEndToEndIntegration(t *testing.T) {
	_, server := newTestApp(t)

	csv := "sku,name,price,active\n" +
		"A-1,Widget,9.99,true\n" +
		"a-1,Widget v2,10.00,true\n" +
		"B-2,Gadget,,false\n" +
		",missing sku,1,true\n"

	first := waitForTerminal(t, server, upload(t, server, csv))
	if first.Data.Status != "completed" {
		t.Fatalf("expected completed, got %s", first.Data.Status)
	}
	if first.Data.ProcessedRows != 4 || first.Data.SkippedRows != 1 {
		t.Fatalf("unexpected first run %+v", first.Data)
	}

	secondID := upload(t, server, csv)
	second := waitForTerminal(t, server, secondID)
	if second.Data.Status != "completed" || second.Data.InsertedRows != 0 {
		t.Fatalf("expected re-import to only update, got %+v", second.Data)
	}
	if second.Data.UpdatedRows != first.Data.InsertedRows+first.Data.UpdatedRows {
		t.Fatalf("expected every row of the first run to be updated, got %+v vs %+v", second.Data, first.Data)
	}

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+secondID+"/cancel", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a finished job, got %d", rec.Code)
	}
}
