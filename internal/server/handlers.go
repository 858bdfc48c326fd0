package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/ginjaninja78/dian-siigo-converter/internal/amount"
	"github.com/ginjaninja78/dian-siigo-converter/internal/converter"
	"github.com/ginjaninja78/dian-siigo-converter/internal/siigowriter"
	"github.com/ginjaninja78/dian-siigo-converter/internal/types"
	"github.com/ginjaninja78/dian-siigo-converter/internal/validation"
)

// errTooLarge marks uploads over the configured size.
var errTooLarge = errors.New("upload exceeds the size limit")

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error    string          `json:"error"`
	Code     string          `json:"code"`
	Warnings []types.Warning `json:"warnings,omitempty"`
}

// EntryResponse is a ledger row with amounts rendered as peso text.
type EntryResponse struct {
	Cuenta        string `json:"cuenta"`
	CC            string `json:"cc,omitempty"`
	Observaciones string `json:"observaciones"`
	Debito        string `json:"debito,omitempty"`
	Credito       string `json:"credito,omitempty"`
	ValorBase     string `json:"valor_base,omitempty"`
	Tercero       string `json:"tercero"`
	H             *int   `json:"h,omitempty"`
}

// ConvertResponse is the JSON body of a successful conversion.
type ConvertResponse struct {
	RunID       string                       `json:"run_id"`
	Source      string                       `json:"source"`
	Kind        types.Kind                   `json:"kind"`
	KindReason  string                       `json:"kind_reason"`
	Stats       converter.Stats              `json:"stats"`
	TotalDebit  string                       `json:"total_debit"`
	TotalCredit string                       `json:"total_credit"`
	Entries     []EntryResponse              `json:"entries"`
	Warnings    []types.Warning              `json:"warnings,omitempty"`
	Validation  *validation.ValidationResult `json:"validation,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConvert converts an uploaded export.
//
// Query parameters:
//   - kind: auto (default), compras or ventas
//   - format: json (default), xlsx or csv
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	kind, err := types.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest, nil)
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	switch format {
	case "":
		format = "json"
	case "json", "xlsx", "csv":
	default:
		s.respondError(w, r, fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, format), http.StatusBadRequest, nil)
		return
	}

	file, fh, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err), nil)
		return
	}
	defer file.Close()

	result, err := s.conv.Run(r.Context(), converter.Request{Name: fh.Filename, Reader: file, Kind: kind})
	if err != nil {
		s.respondError(w, r, err, statusFor(err), result.Warnings)
		return
	}

	if format == "json" {
		writeJSON(w, http.StatusOK, convertResponse(result))
		return
	}

	opts := siigowriter.OptionsFromConfig(s.cfg)
	opts.Format = format
	var buf bytes.Buffer
	if err := siigowriter.Write(&buf, result.Entries, opts); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError, result.Warnings)
		return
	}

	contentType := "text/csv; charset=windows-1252"
	if format == "xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	} else if strings.EqualFold(opts.CSVEncoding, "utf-8") {
		contentType = "text/csv; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.conv.OutputFileName(result, format)))
	w.Header().Set("X-Run-ID", result.RunID)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleInspect reports how an uploaded export would be read.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	file, fh, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err), nil)
		return
	}
	defer file.Close()

	in, err := s.conv.Inspect(r.Context(), converter.Request{Name: fh.Filename, Reader: file})
	if err != nil {
		s.respondError(w, r, err, statusFor(err), nil)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// readUpload returns the multipart "file" field, bounded by the configured
// upload size.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	maxSize := s.cfg.Server.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, fmt.Errorf("%w: limit is %d MB", errTooLarge, s.cfg.Server.MaxUploadMB)
		}
		return nil, nil, &types.FileAccessError{Op: "parse", Path: "upload", Err: err}
	}

	file, fh, err := r.FormFile("file")
	if err != nil {
		return nil, nil, &types.FileAccessError{Op: "read field \"file\" of", Path: "upload", Err: err}
	}
	return file, fh, nil
}

// =============================================================================
// RESPONSES
// =============================================================================

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, types.ErrMissingColumn),
		errors.Is(err, types.ErrEmptyResult),
		errors.Is(err, validation.ErrInvalidEntries):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrFileAccess),
		errors.Is(err, types.ErrUnsupportedFormat),
		errors.Is(err, types.ErrNoHeader):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// errorCode is the machine-readable name of err.
func errorCode(err error) string {
	switch {
	case errors.Is(err, errTooLarge):
		return "too_large"
	case errors.Is(err, types.ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, types.ErrEmptyResult):
		return "empty_result"
	case errors.Is(err, validation.ErrInvalidEntries):
		return "invalid_entries"
	case errors.Is(err, types.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, types.ErrFileAccess), errors.Is(err, types.ErrNoHeader):
		return "file_access"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "bad_request"
}

// respondError logs err with the request id and writes it as JSON.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int, warnings []types.Warning) {
	code := errorCode(err)
	if status >= http.StatusInternalServerError && code == "bad_request" {
		code = "internal"
	}

	s.requestLog(r).Error().
		Err(err).
		Str("path", r.URL.Path).
		Int("status", status).
		Str("code", code).
		Msg("request error")

	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code, Warnings: warnings})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func convertResponse(result *converter.Result) ConvertResponse {
	resp := ConvertResponse{
		RunID:       result.RunID,
		Source:      result.Source,
		Kind:        result.Kind,
		KindReason:  result.KindReason,
		Stats:       result.Stats,
		TotalDebit:  amount.FormatPesos(result.Stats.TotalDebit),
		TotalCredit: amount.FormatPesos(result.Stats.TotalCredit),
		Entries:     make([]EntryResponse, len(result.Entries)),
		Warnings:    result.Warnings,
		Validation:  result.Validation,
	}
	for i, e := range result.Entries {
		resp.Entries[i] = EntryResponse{
			Cuenta:        e.Account,
			CC:            e.CostCenter,
			Observaciones: e.Memo,
			Debito:        pesos(e.Debit),
			Credito:       pesos(e.Credit),
			ValorBase:     pesos(e.VATBase),
			Tercero:       e.ThirdParty,
			H:             e.Flag,
		}
	}
	return resp
}

func pesos(p *int64) string {
	if p == nil {
		return ""
	}
	return amount.FormatPesos(*p)
}
