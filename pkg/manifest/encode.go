package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/save"
)

// Encode writes m to w. The default is indented JSON; pass
// save.WithFormat(save.FormatYAML) for YAML.
func Encode(w io.Writer, m *Manifest, opts ...save.Option) error {
	return save.Write(m, append(opts, save.WithWriter(w))...)
}

// Decode reads a JSON manifest.
func Decode(r io.Reader) (*Manifest, error) {
	return decode(r, "manifest")
}

func decode(r io.Reader, name string) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, errors.WrapParse("json", name, err)
	}
	return &m, nil
}

// Load reads the manifest stored at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("manifest", path)
		}
		return nil, errors.WrapIO("read", path, err)
	}
	defer f.Close()

	return decode(f, path)
}

// decodeObject calls fn for every member of a JSON object in document order.
func decodeObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
