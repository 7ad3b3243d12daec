package jsonapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artpar/unitwizard/pkg/jsonapi"
)

func TestNewError(t *testing.T) {
	e := jsonapi.NewError(422, "UW-ERR-STD-001", "No standards").
		Detailf("no standard unit for %s", "[mass]").
		Pointer("/input").
		Meta("kind", "no_standards").
		Build()

	if e.StatusCode() != 422 {
		t.Errorf("StatusCode() = %d, want 422", e.StatusCode())
	}
	if e.Detail != "no standard unit for [mass]" {
		t.Errorf("Detail = %q", e.Detail)
	}
	if e.Source == nil || e.Source.Pointer != "/input" {
		t.Errorf("Source = %+v, want pointer /input", e.Source)
	}
	if e.Meta["kind"] != "no_standards" {
		t.Errorf("Meta = %v", e.Meta)
	}
}

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		err    jsonapi.Error
		status int
		code   string
	}{
		{jsonapi.ErrBadRequest("bad json"), 400, "bad_request"},
		{jsonapi.ErrNotFound("form"), 404, "not_found"},
		{jsonapi.ErrValidationRequired("input"), 422, "validation_error"},
		{jsonapi.ErrInternal(""), 500, "internal_error"},
	}
	for _, tt := range tests {
		if tt.err.StatusCode() != tt.status {
			t.Errorf("%s: StatusCode() = %d, want %d", tt.code, tt.err.StatusCode(), tt.status)
		}
		if tt.err.Code != tt.code {
			t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
		}
		if tt.err.Detail == "" {
			t.Errorf("%s: empty detail", tt.code)
		}
	}
}

func TestWriteResource(t *testing.T) {
	rec := httptest.NewRecorder()
	r := jsonapi.NewResource("quantities", "q1").
		Attr("result", "50 angstrom").
		Attr("skipped", nil).
		Meta("path", "parse").
		Build()

	jsonapi.WriteResource(rec, http.StatusOK, r)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != jsonapi.ContentType {
		t.Errorf("Content-Type = %s, want %s", ct, jsonapi.ContentType)
	}

	var doc struct {
		Data    jsonapi.Resource `json:"data"`
		JSONAPI jsonapi.JSONAPI  `json:"jsonapi"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Data.Attributes["result"] != "50 angstrom" {
		t.Errorf("result = %v", doc.Data.Attributes["result"])
	}
	if _, ok := doc.Data.Attributes["skipped"]; ok {
		t.Error("nil attribute should be skipped")
	}
	if doc.JSONAPI.Version != jsonapi.Version {
		t.Errorf("jsonapi.version = %s, want %s", doc.JSONAPI.Version, jsonapi.Version)
	}
}

func TestWriteCollection_Empty(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonapi.WriteCollection(rec, http.StatusOK, nil, nil)

	var doc map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(doc["data"]) != "[]" {
		t.Errorf("data = %s, want []", doc["data"])
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonapi.WriteError(rec, jsonapi.ErrValidationRequired("input"), jsonapi.ErrBadRequest("x"))

	if rec.Code != 422 {
		t.Errorf("status = %d, want 422 from first error", rec.Code)
	}
	var doc jsonapi.Document
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Errors) != 2 {
		t.Errorf("len(errors) = %d, want 2", len(doc.Errors))
	}

	rec = httptest.NewRecorder()
	jsonapi.WriteError(rec)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("empty WriteError status = %d, want 500", rec.Code)
	}
}
