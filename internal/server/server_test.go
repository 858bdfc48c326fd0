package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/dian-siigo-converter/internal/config"
	"github.com/ginjaninja78/dian-siigo-converter/internal/converter"
	"github.com/ginjaninja78/dian-siigo-converter/internal/logger"
	"github.com/ginjaninja78/dian-siigo-converter/internal/siigowriter"
)

const receivedCSV = "Tipo de documento;NIT Emisor;Nombre Emisor;IVA;Total\n" +
	"Factura electrónica;900123456;ACME;19.000,00;119.000,00\n" +
	"Nota crédito;900123456;ACME;1.900,00;11.900,00\n"

func newTestServer(t *testing.T, cfg *config.MainConfig) *Server {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	conv, err := converter.New(cfg, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return New(conv, cfg, logger.Nop())
}

func upload(t *testing.T, target, name string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if name != "" {
		fw, err := mw.CreateFormFile("file", name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(newTestServer(t, nil), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"status":"ok"}` {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestConvertJSON(t *testing.T) {
	rec := serve(newTestServer(t, nil), upload(t, "/v1/convert", "recibidos.csv", []byte(receivedCSV)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp ConvertResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Kind != "compras" || resp.Stats.Dropped != 1 || len(resp.Entries) != 2 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Entries[0].Debito != "100.000,00" || resp.Entries[1].ValorBase != "100.000,00" {
		t.Errorf("entries = %+v", resp.Entries)
	}
	if resp.TotalDebit != "119.000,00" {
		t.Errorf("TotalDebit = %q", resp.TotalDebit)
	}
}

func TestConvertXLSXAttachment(t *testing.T) {
	rec := serve(newTestServer(t, nil), upload(t, "/v1/convert?kind=ventas&format=xlsx", "export.csv", []byte(receivedCSV)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Ventas_Siigo_") || !strings.Contains(cd, ".xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(siigowriter.SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Errorf("got %d rows, want header + 3 sales rows", len(rows))
	}
}

func TestConvertCSVAttachment(t *testing.T) {
	rec := serve(newTestServer(t, nil), upload(t, "/v1/convert?format=csv", "recibidos.csv", []byte(receivedCSV)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "windows-1252") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "CUENTA;CC;OBSERVACIONES") {
		t.Errorf("body = %q", rec.Body)
	}
}

func TestConvertErrors(t *testing.T) {
	small := config.Default()
	small.Server.MaxUploadMB = 1

	tests := []struct {
		name    string
		cfg     *config.MainConfig
		target  string
		file    string
		content []byte
		status  int
		code    string
	}{
		{"missing total", nil, "/v1/convert", "a.csv", []byte("NIT Emisor;Nombre Emisor\n900123456;ACME\n"), http.StatusUnprocessableEntity, "missing_column"},
		{"only notes", nil, "/v1/convert", "a.csv", []byte("Tipo de documento;Total\nNota crédito;100\n"), http.StatusUnprocessableEntity, "empty_result"},
		{"unsupported file", nil, "/v1/convert", "a.pdf", []byte("%PDF"), http.StatusBadRequest, "unsupported_format"},
		{"unsupported format", nil, "/v1/convert?format=xml", "a.csv", []byte(receivedCSV), http.StatusBadRequest, "unsupported_format"},
		{"bad kind", nil, "/v1/convert?kind=gastos", "a.csv", []byte(receivedCSV), http.StatusBadRequest, "bad_request"},
		{"no file field", nil, "/v1/convert", "", nil, http.StatusBadRequest, "file_access"},
		{"too large", small, "/v1/convert", "a.csv", bytes.Repeat([]byte("x"), 2<<20), http.StatusRequestEntityTooLarge, "too_large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestServer(t, tt.cfg), upload(t, tt.target, tt.file, tt.content))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.status, rec.Body)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Code != tt.code || resp.Error == "" {
				t.Errorf("response = %+v, want code %s", resp, tt.code)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	rec := serve(newTestServer(t, nil), upload(t, "/v1/inspect", "recibidos.csv", []byte(receivedCSV)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var in converter.Inspection
	if err := json.Unmarshal(rec.Body.Bytes(), &in); err != nil {
		t.Fatal(err)
	}
	if in.HeaderRow != 1 || in.Invoices != 1 || in.Dropped != 1 || len(in.Headers) != 5 {
		t.Errorf("inspection = %+v", in)
	}
}

func TestErrorsAreLoggedWithRequestID(t *testing.T) {
	cfg := config.Default()
	conv, err := converter.New(cfg, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer
	s := New(conv, cfg, zerolog.New(&logs))

	rec := serve(s, upload(t, "/v1/convert?kind=mensual", "recibidos.csv", []byte(receivedCSV)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var errorLine map[string]any
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not JSON: %q", line)
		}
		if entry["message"] == "request error" {
			errorLine = entry
		}
	}
	if errorLine == nil {
		t.Fatalf("no error line logged:\n%s", logs.String())
	}
	if errorLine["level"] != "error" || errorLine["request_id"] == "" || errorLine["request_id"] == nil {
		t.Errorf("error line = %v", errorLine)
	}
	if errorLine["status"] != float64(http.StatusBadRequest) {
		t.Errorf("status field = %v", errorLine["status"])
	}
}
