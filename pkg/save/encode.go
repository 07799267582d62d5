package save

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/geomanifest/pkg/constants"
	"github.com/agentstation/geomanifest/pkg/errors"
)

// Marshal encodes v in the configured format. JSON keeps non-ASCII text
// and HTML characters unescaped and ends with a newline. YAML is derived
// from the JSON encoding so both formats share key names and order.
func Marshal(v any, opts ...Option) ([]byte, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", o.indent)
	if err := enc.Encode(v); err != nil {
		return nil, errors.WrapParse("json", o.path, err)
	}
	if o.format == FormatJSON {
		return buf.Bytes(), nil
	}

	out, err := yaml.JSONToYAML(buf.Bytes())
	if err != nil {
		return nil, errors.WrapParse("yaml", o.path, err)
	}
	return out, nil
}

// Write encodes v and writes it to the configured writer, or to the
// configured path when no writer is set.
func Write(v any, opts ...Option) error {
	o, err := newOptions(opts)
	if err != nil {
		return err
	}
	data, err := Marshal(v, opts...)
	if err != nil {
		return err
	}

	switch {
	case o.writer != nil:
		if _, err := o.writer.Write(data); err != nil {
			return errors.WrapIO("write", o.path, err)
		}
		return nil
	case o.path != "":
		if err := os.WriteFile(o.path, data, constants.FilePermissions); err != nil {
			return errors.WrapIO("write", o.path, err)
		}
		return nil
	}
	return errors.NewValidationError("destination", nil, "either a writer or a path is required")
}
