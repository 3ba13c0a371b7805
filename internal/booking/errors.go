package booking

import (
	"encoding/json"
	"strings"
)

// extractor is one strategy for pulling a human-readable message out of a
// provider error body. Strategies are tried in order; the first hit wins.
type extractor func(body []byte) (string, bool)

var providerErrorExtractors = []extractor{
	messageField,
	errorField,
	errorsField,
}

func messageField(body []byte) (string, bool) {
	var v struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return "", false
	}
	if strings.TrimSpace(v.Message) == "" {
		return "", false
	}
	return v.Message, true
}

func errorField(body []byte) (string, bool) {
	var v struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return "", false
	}
	if strings.TrimSpace(v.Error) == "" {
		return "", false
	}
	return v.Error, true
}

func errorsField(body []byte) (string, bool) {
	var v struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return "", false
	}
	s := strings.TrimSpace(string(v.Errors))
	if s == "" || s == "null" {
		return "", false
	}
	return s, true
}

// ExtractProviderMessage maps a heterogeneous provider error body to a
// best-effort message, falling back to the raw response text.
func ExtractProviderMessage(body []byte) string {
	for _, extract := range providerErrorExtractors {
		if msg, ok := extract(body); ok {
			return msg
		}
	}
	if raw := strings.TrimSpace(string(body)); raw != "" {
		return raw
	}
	return "unknown provider error"
}
