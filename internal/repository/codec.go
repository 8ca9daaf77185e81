package repository

import (
	"encoding/json"
	"strconv"
	"time"

	"dispatch-service/internal/model"
)

// The row store holds text cells only. Numbers go through strconv, booleans
// are the literal strings "true"/"false", timestamps are RFC 3339, and list
// fields are JSON arrays serialized into a single cell.

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func formatInt(n int) string {
	return strconv.Itoa(n)
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func parseBool(s string) bool {
	return s == "true"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func parseTimePtr(s string) *time.Time {
	t := parseTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}

func encodeList(v interface{}) string {
	switch list := v.(type) {
	case []string:
		if len(list) == 0 {
			return ""
		}
	case []model.MaterialItem:
		if len(list) == 0 {
			return ""
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func decodeStringList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func decodeMaterials(s string) []model.MaterialItem {
	if s == "" {
		return nil
	}
	var out []model.MaterialItem
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func encodeGPS(g *model.GPSLocation) string {
	if g == nil {
		return ""
	}
	b, err := json.Marshal(g)
	if err != nil {
		return ""
	}
	return string(b)
}

func decodeGPS(s string) *model.GPSLocation {
	if s == "" {
		return nil
	}
	var g model.GPSLocation
	if err := json.Unmarshal([]byte(s), &g); err != nil {
		return nil
	}
	return &g
}
