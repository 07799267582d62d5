package gdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// ValueCount is one entry of a value histogram.
type ValueCount struct {
	Value string
	Count int
}

// Histogram is an ordered value histogram. It serializes as a JSON object
// whose key order is the histogram order.
type Histogram []ValueCount

// TopN builds a histogram from counts ordered by count descending, then by
// value ascending, truncated to n entries.
func TopN(counts map[string]int, n int) Histogram {
	h := make(Histogram, 0, len(counts))
	for v, c := range counts {
		h = append(h, ValueCount{Value: v, Count: c})
	}
	sort.Slice(h, func(i, j int) bool {
		if h[i].Count != h[j].Count {
			return h[i].Count > h[j].Count
		}
		return h[i].Value < h[j].Value
	})
	if n >= 0 && len(h) > n {
		h = h[:n]
	}
	return h
}

// MarshalJSON implements json.Marshaler.
func (h Histogram) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, vc := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(vc.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", vc.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving key order.
func (h *Histogram) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*h = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("histogram: expected object, got %v", tok)
	}
	out := Histogram{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("histogram: expected string key, got %v", keyTok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("histogram: value for %q: %w", key, err)
		}
		out = append(out, ValueCount{Value: key, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*h = out
	return nil
}
