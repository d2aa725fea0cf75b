package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/foodatlas/internal/model"
	"github.com/hitoshi/foodatlas/internal/province"
)

// --- モック定義 ---

// mockProvinceService はProvinceServiceInterfaceのモック実装。
type mockProvinceService struct {
	listFn        func(ctx context.Context, regionCode string) ([]*model.Province, error)
	createFn      func(ctx context.Context, input province.Input) (*model.Province, error)
	updateFn      func(ctx context.Context, code string, input province.Input) (*model.Province, error)
	deleteFn      func(ctx context.Context, code string) error
	uploadImageFn func(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

func (m *mockProvinceService) List(ctx context.Context, regionCode string) ([]*model.Province, error) {
	if m.listFn != nil {
		return m.listFn(ctx, regionCode)
	}
	return nil, nil
}

func (m *mockProvinceService) Create(ctx context.Context, input province.Input) (*model.Province, error) {
	if m.createFn != nil {
		return m.createFn(ctx, input)
	}
	return nil, nil
}

func (m *mockProvinceService) Update(ctx context.Context, code string, input province.Input) (*model.Province, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, code, input)
	}
	return nil, nil
}

func (m *mockProvinceService) Delete(ctx context.Context, code string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, code)
	}
	return nil
}

func (m *mockProvinceService) UploadImage(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if m.uploadImageFn != nil {
		return m.uploadImageFn(ctx, filename, contentType, data)
	}
	return "", nil
}

// --- GET /api/provinces テスト ---

func TestProvinceHandler_ListProvinces_RegionFilter(t *testing.T) {
	var gotRegionCode string
	svc := &mockProvinceService{
		listFn: func(ctx context.Context, regionCode string) ([]*model.Province, error) {
			gotRegionCode = regionCode
			return []*model.Province{
				{Code: "HG", Name: "Ha Giang", RegionCode: "NW", CreatedAt: time.Now(), UpdatedAt: time.Now()},
			}, nil
		},
	}
	h := NewProvinceHandler(svc, 5<<20)

	req := httptest.NewRequest(http.MethodGet, "/api/provinces?regionCode=NW", nil)
	w := httptest.NewRecorder()

	h.ListProvinces(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotRegionCode != "NW" {
		t.Errorf("regionCode = %q, want %q", gotRegionCode, "NW")
	}
}

// --- POST /api/provinces テスト ---

func TestProvinceHandler_CreateProvince_Success(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := &mockProvinceService{
		createFn: func(ctx context.Context, input province.Input) (*model.Province, error) {
			if input.RegionCode != "NW" {
				t.Errorf("input.RegionCode = %q, want %q", input.RegionCode, "NW")
			}
			return &model.Province{
				Code:       input.Code,
				Name:       input.Name,
				RegionCode: input.RegionCode,
				ImageURL:   "https://cdn.example.com/hg.jpg",
				ImageURLs:  []string{"https://cdn.example.com/hg.jpg"},
				CreatedAt:  now,
				UpdatedAt:  now,
			}, nil
		},
	}
	h := NewProvinceHandler(svc, 5<<20)

	body := `{"code":"HG","name":"Ha Giang","regionCode":"NW","imageUrl":"https://cdn.example.com/hg.jpg"}`
	req := httptest.NewRequest(http.MethodPost, "/api/provinces", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.CreateProvince(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp provinceResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ImageURL != "https://cdn.example.com/hg.jpg" {
		t.Errorf("imageUrl = %q, want primary image", resp.ImageURL)
	}
	if resp.CreatedAt != "2024-05-01T12:00:00Z" {
		t.Errorf("createdAt = %q, want RFC3339", resp.CreatedAt)
	}
}

func TestProvinceHandler_CreateProvince_MissingRegion(t *testing.T) {
	svc := &mockProvinceService{
		createFn: func(ctx context.Context, input province.Input) (*model.Province, error) {
			return nil, model.NewMissingRegionError(input.RegionCode)
		},
	}
	h := NewProvinceHandler(svc, 5<<20)

	body := `{"code":"HG","name":"Ha Giang","regionCode":"ZZ"}`
	req := httptest.NewRequest(http.MethodPost, "/api/provinces", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.CreateProvince(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	resp := parseErrorResponse(t, w)
	if resp["error"] != "region ZZ does not exist" {
		t.Errorf("error = %q, want %q", resp["error"], "region ZZ does not exist")
	}
}

// --- PUT /api/provinces/{code} テスト ---

func TestProvinceHandler_UpdateProvince_PathCodeWins(t *testing.T) {
	var gotCode string
	svc := &mockProvinceService{
		updateFn: func(ctx context.Context, code string, input province.Input) (*model.Province, error) {
			gotCode = code
			return &model.Province{Code: code, Name: input.Name, RegionCode: input.RegionCode}, nil
		},
	}
	h := NewProvinceHandler(svc, 5<<20)

	// ボディのcodeと異なるパスコードを指定
	body := `{"code":"OTHER","name":"Ha Giang","regionCode":"NW"}`
	req := httptest.NewRequest(http.MethodPut, "/api/provinces/HG", bytes.NewBufferString(body))
	req = withChiURLParam(req, "code", "HG")
	w := httptest.NewRecorder()

	h.UpdateProvince(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotCode != "HG" {
		t.Errorf("code = %q, want path param %q", gotCode, "HG")
	}
}

func TestProvinceHandler_UpdateProvince_NotFound(t *testing.T) {
	svc := &mockProvinceService{
		updateFn: func(ctx context.Context, code string, input province.Input) (*model.Province, error) {
			return nil, model.NewNotFoundError("province", code)
		},
	}
	h := NewProvinceHandler(svc, 5<<20)

	req := httptest.NewRequest(http.MethodPut, "/api/provinces/ZZ", bytes.NewBufferString(`{"regionCode":"NW"}`))
	req = withChiURLParam(req, "code", "ZZ")
	w := httptest.NewRecorder()

	h.UpdateProvince(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- DELETE /api/provinces/{code} テスト ---

func TestProvinceHandler_DeleteProvince_Success(t *testing.T) {
	svc := &mockProvinceService{
		deleteFn: func(ctx context.Context, code string) error {
			if code != "HG" {
				t.Errorf("code = %q, want %q", code, "HG")
			}
			return nil
		},
	}
	h := NewProvinceHandler(svc, 5<<20)

	req := httptest.NewRequest(http.MethodDelete, "/api/provinces/HG", nil)
	req = withChiURLParam(req, "code", "HG")
	w := httptest.NewRecorder()

	h.DeleteProvince(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

// --- POST /api/provinces/upload-image テスト ---

// buildMultipartUpload はfileフィールドを持つmultipartリクエストボディを生成するヘルパー。
func buildMultipartUpload(t *testing.T, fieldName, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestProvinceHandler_UploadImage_Success(t *testing.T) {
	svc := &mockProvinceService{
		uploadImageFn: func(ctx context.Context, filename, contentType string, data []byte) (string, error) {
			if filename != "photo.jpg" {
				t.Errorf("filename = %q, want %q", filename, "photo.jpg")
			}
			if string(data) != "fake-image-bytes" {
				t.Errorf("data = %q, want file content", string(data))
			}
			return "https://cdn.example.com/provinces/photo.jpg", nil
		},
	}
	h := NewProvinceHandler(svc, 5<<20)

	body, contentType := buildMultipartUpload(t, "file", "photo.jpg", []byte("fake-image-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/provinces/upload-image", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.UploadImage(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp uploadImageResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.URL != "https://cdn.example.com/provinces/photo.jpg" {
		t.Errorf("url = %q, want delivery URL", resp.URL)
	}
}

func TestProvinceHandler_UploadImage_MissingFileField(t *testing.T) {
	h := NewProvinceHandler(&mockProvinceService{}, 5<<20)

	body, contentType := buildMultipartUpload(t, "attachment", "photo.jpg", []byte("bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/provinces/upload-image", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.UploadImage(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestProvinceHandler_UploadImage_UpstreamFailure(t *testing.T) {
	svc := &mockProvinceService{
		uploadImageFn: func(ctx context.Context, filename, contentType string, data []byte) (string, error) {
			return "", model.NewUpstreamFailureError("image upload")
		},
	}
	h := NewProvinceHandler(svc, 5<<20)

	body, contentType := buildMultipartUpload(t, "file", "photo.jpg", []byte("bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/provinces/upload-image", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.UploadImage(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
}
