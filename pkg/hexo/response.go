package hexo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Response is the envelope produced by every API call.
//
// Result holds the decoded JSON body. Numbers decode as json.Number so
// integer ids survive an Update round trip unchanged. When the body is not JSON (for example
// a binary file download) Result holds the raw bytes instead; an empty body
// leaves Result nil.
type Response struct {
	Result     interface{}
	Body       []byte
	StatusCode int
	URL        string
	Method     string
	Headers    http.Header
}

// NewResponse builds an envelope and decodes body.
func NewResponse(method, url string, statusCode int, headers http.Header, body []byte) *Response {
	resp := &Response{
		Body:       body,
		StatusCode: statusCode,
		URL:        url,
		Method:     strings.ToUpper(method),
		Headers:    headers,
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return resp
	}

	result, err := decodeJSON(body)
	if err != nil {
		resp.Result = body

		return resp
	}

	resp.Result = result

	return resp
}

func decodeJSON(body []byte) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var result interface{}

	err := decoder.Decode(&result)
	if err != nil {
		return nil, err
	}

	if decoder.More() {
		return nil, ErrTrailingData
	}

	return result, nil
}

// Object returns Result as a JSON object.
func (r *Response) Object() (map[string]interface{}, bool) {
	if r == nil {
		return nil, false
	}

	obj, ok := r.Result.(map[string]interface{})

	return obj, ok
}

// Success reports a 2xx or 3xx status.
func (r *Response) Success() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusBadRequest
}

// String renders the status line followed by the result for diagnostics.
func (r *Response) String() string {
	var result interface{} = r.Result
	if raw, ok := r.Result.([]byte); ok {
		result = string(raw)
	}

	return fmt.Sprintf("%d %-6s %s\n%v", r.StatusCode, r.Method, r.URL, result)
}
