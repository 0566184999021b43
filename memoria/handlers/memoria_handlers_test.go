package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-cow/memoria/models"
)

func TestMemoryStatsHandler(t *testing.T) {
	handler := MemoryStatsHandler(func() (int, int) { return 32, 20 })

	recorder := httptest.NewRecorder()
	handler(recorder, httptest.NewRequest(http.MethodGet, "/memoria/frames", nil))

	var response FramesResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Expected JSON body, got: %v", err)
	}
	if response.Total != 32 || response.Free != 20 || response.PageSize != models.PGSIZE {
		t.Errorf("Unexpected response %+v", response)
	}
}

func TestDumpMemoryHandler(t *testing.T) {
	var requested uint32
	handler := DumpMemoryHandler(func(envID uint32) (string, error) {
		requested = envID
		if envID != 4097 {
			return "", ErrUnknownEnv
		}
		return "dump_files/00001001.dmp", nil
	})

	recorder := httptest.NewRecorder()
	handler(recorder, httptest.NewRequest(http.MethodPost, "/memoria/dump", strings.NewReader(`{"env_id": 4097}`)))
	if recorder.Code != http.StatusOK || requested != 4097 {
		t.Fatalf("Expected 200 for env 4097, got %d (requested %d)", recorder.Code, requested)
	}
	var response DumpResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.File != "dump_files/00001001.dmp" {
		t.Errorf("Expected dump file, got %q", response.File)
	}

	recorder = httptest.NewRecorder()
	handler(recorder, httptest.NewRequest(http.MethodPost, "/memoria/dump", strings.NewReader(`{"env_id": 1}`)))
	if recorder.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown env, got %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	handler(recorder, httptest.NewRequest(http.MethodPost, "/memoria/dump", strings.NewReader(`{`)))
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid body, got %d", recorder.Code)
	}
}

func TestDumpMemoryHandler_InternalError(t *testing.T) {
	handler := DumpMemoryHandler(func(uint32) (string, error) { return "", errors.New("disco lleno") })

	recorder := httptest.NewRecorder()
	handler(recorder, httptest.NewRequest(http.MethodPost, "/memoria/dump", strings.NewReader(`{"env_id": 4097}`)))
	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", recorder.Code)
	}
}
