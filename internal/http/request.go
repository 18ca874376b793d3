package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"horas/internal/core"
)

// maxBodySize caps JSON request bodies at 1 MiB.
const maxBodySize = 1 << 20

// decodeJSON reads and unmarshals the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return fmt.Errorf("empty body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// pathID parses the {id} path segment as a positive integer.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id '%s'", raw)
	}
	return id, nil
}

// queryInt64 parses an optional integer query parameter. Absent or blank
// returns (nil, nil).
func queryInt64(r *http.Request, key string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s '%s'", key, raw)
	}
	return &v, nil
}

// hoursValue accepts hours as a JSON number or as a string with either a
// comma or dot decimal separator.
type hoursValue struct {
	set   bool
	value float64
}

func (h *hoursValue) UnmarshalJSON(b []byte) error {
	h.set = true
	s := strings.TrimSpace(string(b))
	if len(s) >= 2 && s[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		v, err := core.ParseHours(raw)
		if err != nil {
			return err
		}
		h.value = v
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v <= 0 || v > 24 {
		return core.ErrInvalidHours
	}
	h.value = v
	return nil
}

// optionalID distinguishes an absent field from an explicit null, which the
// activity patch needs to tell "leave the package" from "clear the package".
type optionalID struct {
	set   bool
	value *int64
}

func (o *optionalID) UnmarshalJSON(b []byte) error {
	o.set = true
	if strings.TrimSpace(string(b)) == "null" {
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.value = &v
	return nil
}
