package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/matzehuels/flowplan/pkg/errors"
	"github.com/matzehuels/flowplan/pkg/retry"
)

// MaxBodyBytes bounds request bodies read by DecodeJSON.
const MaxBodyBytes = 8 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

// DecodeJSON decodes the body of r into v. Bodies over limit bytes and
// malformed JSON yield INVALID_FORMAT errors.
func DecodeJSON(r *http.Request, v any, limit int64) error {
	body := http.MaxBytesReader(nil, r.Body, limit)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", limit)
		}
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body")
	}
	return nil
}

// WriteJSON answers with v encoded as JSON.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError answers with the status matching err's code.
func WriteError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	WriteJSON(w, errors.HTTPStatus(err), ErrorBody{Code: string(code), Message: errors.UserMessage(err)})
}

// DoJSON sends in as a JSON body (nil for none) and decodes a 2xx answer
// into out (nil to discard it). Error responses are turned back into coded
// errors.
func DoJSON(ctx context.Context, client *http.Client, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return retry.Transient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		err := responseError(resp)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.Transient(err)
		}
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func responseError(resp *http.Response) error {
	var eb ErrorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &eb) == nil && eb.Code != "" {
		return errors.New(errors.Code(eb.Code), "%s", eb.Message)
	}
	return errors.New(errors.ErrCodeInternal, "%s: %s", resp.Status, bytes.TrimSpace(data))
}
