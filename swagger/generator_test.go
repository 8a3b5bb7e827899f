package swagger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/spec"
	"github.com/platform-smith-labs/japi-errors/core"
	"github.com/platform-smith-labs/japi-errors/handler"
	"github.com/platform-smith-labs/japi-errors/middleware/typed"
	"github.com/swaggo/swag"
)

type orderParams struct {
	ID     int      `param:"id" validate:"required"`
	Expand []string `query:"expand"`
}

type orderItem struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

type createOrderBody struct {
	Customer string      `json:"customer" validate:"required,email"`
	Items    []orderItem `json:"items" validate:"min=1,dive"`
	Note     string      `json:"note,omitempty" validate:"max=200"`
}

type orderResponse struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}

type importRow struct {
	SKU string `csv:"sku"`
}

func testRegistry() *handler.Registry {
	reg := handler.NewRegistry()

	handler.MakeHandler(reg, handler.RouteInfo{Method: "GET", Path: "/orders/{id}", Tags: []string{"orders"}},
		func(ctx handler.HandlerContext[orderParams, struct{}], w http.ResponseWriter, r *http.Request) (orderResponse, error) {
			return orderResponse{}, nil
		},
		typed.ResponseJSON, typed.ParseParams)

	handler.MakeHandler(reg, handler.RouteInfo{Method: "POST", Path: "/orders", Summary: "Place an order"},
		func(ctx handler.HandlerContext[struct{}, createOrderBody], w http.ResponseWriter, r *http.Request) (orderResponse, error) {
			return orderResponse{}, nil
		},
		typed.ResponseJSON, typed.ParseBody)

	handler.MakeHandler(reg, handler.RouteInfo{Method: "POST", Path: "/orders/import"},
		func(ctx handler.HandlerContext[struct{}, []importRow], w http.ResponseWriter, r *http.Request) ([]orderResponse, error) {
			return nil, nil
		},
		typed.ResponseJSON, typed.ParseCSV)

	handler.MakeHandler(reg, handler.RouteInfo{Method: "GET", Path: "/health"},
		func(ctx handler.HandlerContext[struct{}, struct{}], w http.ResponseWriter, r *http.Request) (map[string]string, error) {
			return nil, nil
		},
		typed.ResponseJSON)

	return reg
}

func findParam(op *spec.Operation, in, name string) *spec.Parameter {
	for i := range op.Parameters {
		if op.Parameters[i].In == in && op.Parameters[i].Name == name {
			return &op.Parameters[i]
		}
	}
	return nil
}

// TestGenerateSpec_Parameters verifies param and query fields become parameters
func TestGenerateSpec_Parameters(t *testing.T) {
	doc := GenerateSpec(testRegistry())

	op := doc.Paths.Paths["/orders/{id}"].Get
	if op == nil {
		t.Fatal("Expected GET operation for /orders/{id}")
	}

	id := findParam(op, "path", "id")
	if id == nil {
		t.Fatal("Expected path parameter id")
	}
	if !id.Required || id.Type != "integer" {
		t.Errorf("Expected required integer id, got required=%v type=%s", id.Required, id.Type)
	}

	expand := findParam(op, "query", "expand")
	if expand == nil {
		t.Fatal("Expected query parameter expand")
	}
	if expand.Type != "array" || expand.CollectionFormat != "multi" || expand.Items == nil || expand.Items.Type != "string" {
		t.Errorf("Expected multi string array, got %+v", expand.SimpleSchema)
	}
	if expand.Required {
		t.Error("Expected optional query parameter")
	}
}

// TestGenerateSpec_ErrorResponses verifies translator responses are documented
func TestGenerateSpec_ErrorResponses(t *testing.T) {
	doc := GenerateSpec(testRegistry())

	t.Run("parameter route", func(t *testing.T) {
		responses := doc.Paths.Paths["/orders/{id}"].Get.Responses.StatusCodeResponses

		badRequest, ok := responses[http.StatusBadRequest]
		if !ok {
			t.Fatal("Expected 400 response")
		}
		if !strings.Contains(badRequest.Description, core.TypeMismatchMessage) {
			t.Errorf("Expected type mismatch in 400 description, got %q", badRequest.Description)
		}
		if !strings.Contains(badRequest.Description, core.MissingParameterMessage) {
			t.Errorf("Expected missing parameter in 400 description, got %q", badRequest.Description)
		}
		if badRequest.Schema == nil || !badRequest.Schema.Type.Contains("string") {
			t.Error("Expected plain-text string schema for 400")
		}
		if _, ok := responses[http.StatusNotFound]; !ok {
			t.Error("Expected 404 response for route with path parameter")
		}
		if _, ok := responses[http.StatusOK]; !ok {
			t.Error("Expected 200 success response")
		}
	})

	t.Run("body route", func(t *testing.T) {
		op := doc.Paths.Paths["/orders"].Post
		responses := op.Responses.StatusCodeResponses

		if !strings.Contains(responses[http.StatusBadRequest].Description, core.JSONTypeMismatchMessage) {
			t.Errorf("Expected malformed body in 400 description, got %q", responses[http.StatusBadRequest].Description)
		}
		if _, ok := responses[http.StatusNotFound]; ok {
			t.Error("Expected no 404 response for route without path parameters")
		}
		if _, ok := responses[http.StatusCreated]; !ok {
			t.Error("Expected 201 success response for POST")
		}
	})

	t.Run("produces text/plain", func(t *testing.T) {
		op := doc.Paths.Paths["/health"].Get
		found := false
		for _, p := range op.Produces {
			if p == core.ContentTypeText {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected %q in produces, got %v", core.ContentTypeText, op.Produces)
		}
	})
}

// TestGenerateSpec_Schemas verifies body and response definitions
func TestGenerateSpec_Schemas(t *testing.T) {
	doc := GenerateSpec(testRegistry())
	op := doc.Paths.Paths["/orders"].Post

	if op.Summary != "Place an order" {
		t.Errorf("Expected custom summary, got %q", op.Summary)
	}

	body := findParam(op, "body", "body")
	if body == nil || body.Schema == nil {
		t.Fatal("Expected body parameter with schema")
	}
	if got := body.Schema.Ref.String(); got != "#/definitions/createOrderBody" {
		t.Errorf("Expected body ref to createOrderBody, got %q", got)
	}

	def, ok := doc.Definitions["createOrderBody"]
	if !ok {
		t.Fatal("Expected createOrderBody definition")
	}
	if want := []string{"customer", "items"}; len(def.Required) != 2 || def.Required[0] != want[0] || def.Required[1] != want[1] {
		t.Errorf("Expected required %v, got %v", want, def.Required)
	}
	if def.Properties["customer"].Format != "email" {
		t.Errorf("Expected email format on customer, got %q", def.Properties["customer"].Format)
	}
	if items := def.Properties["items"]; items.MinItems == nil || *items.MinItems != 1 {
		t.Error("Expected minItems 1 on items")
	}
	if note := def.Properties["note"]; note.MaxLength == nil || *note.MaxLength != 200 {
		t.Error("Expected maxLength 200 on note")
	}
	if _, ok := doc.Definitions["orderItem"]; !ok {
		t.Error("Expected nested orderItem definition")
	}
	if _, ok := doc.Definitions[apiErrorDefinition]; !ok {
		t.Error("Expected APIError definition for 500 responses")
	}
}

// TestGenerateSpec_Upload verifies multipart routes document the file field
func TestGenerateSpec_Upload(t *testing.T) {
	doc := GenerateSpec(testRegistry())
	op := doc.Paths.Paths["/orders/import"].Post

	file := findParam(op, "formData", "file")
	if file == nil || file.Type != "file" || !file.Required {
		t.Fatalf("Expected required file parameter, got %+v", file)
	}
	if len(op.Consumes) != 1 || op.Consumes[0] != "multipart/form-data" {
		t.Errorf("Expected multipart consumes, got %v", op.Consumes)
	}

	success := op.Responses.StatusCodeResponses[http.StatusCreated]
	if success.Schema == nil || !success.Schema.Type.Contains("array") {
		t.Error("Expected array schema for slice response")
	}
}

// TestGenerateJSON verifies the document is valid JSON
func TestGenerateJSON(t *testing.T) {
	data, err := GenerateJSON(testRegistry())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var doc spec.Swagger
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Expected valid swagger JSON: %v", err)
	}
	if doc.Swagger != "2.0" {
		t.Errorf("Expected swagger 2.0, got %q", doc.Swagger)
	}
	if len(doc.Paths.Paths) != 4 {
		t.Errorf("Expected 4 paths, got %d", len(doc.Paths.Paths))
	}
}

// TestSetupSwaggerUIWithPath verifies the JSON endpoint and swag registration
func TestSetupSwaggerUIWithPath(t *testing.T) {
	reg := testRegistry()
	r := chi.NewRouter()
	SetupSwaggerUIWithPath(r, "/docs/", reg)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/docs/swagger.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"/orders/{id}"`) {
		t.Error("Expected /orders/{id} in swagger.json")
	}

	doc, err := swag.ReadDoc(instanceName("/docs"))
	if err != nil {
		t.Fatalf("Expected registered swag document: %v", err)
	}
	if !strings.Contains(doc, `"/orders/{id}"`) {
		t.Error("Expected swag document to serve the registry routes")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/docs/swagger/doc.json", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"/orders/import"`) {
		t.Errorf("Expected UI doc.json to serve the document, got %d", rec.Code)
	}

	// Mounting again replaces the served document instead of panicking
	SetupSwaggerUIWithPath(chi.NewRouter(), "/docs", handler.NewRegistry())
	doc, _ = swag.ReadDoc(instanceName("/docs"))
	if strings.Contains(doc, "/orders") {
		t.Error("Expected remounted document to reflect the new registry")
	}
}
