package gdb_test

import (
	"context"
	"errors"

	"github.com/agentstation/geomanifest/pkg/gdb"
)

type fakeLayer struct {
	info    gdb.LayerInfo
	records []gdb.Record
	err     error
}

func (l *fakeLayer) Info() gdb.LayerInfo { return l.info }

func (l *fakeLayer) Records(ctx context.Context, fn func(gdb.Record) error) error {
	if l.err != nil {
		return l.err
	}
	for _, r := range l.records {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

type fakeReader struct {
	names    []string
	layers   map[string]*fakeLayer
	openErrs map[string]error
	listErr  error
	closed   bool
}

func newFakeReader() *fakeReader {
	return &fakeReader{layers: map[string]*fakeLayer{}, openErrs: map[string]error{}}
}

func (r *fakeReader) add(l *fakeLayer) *fakeReader {
	r.names = append(r.names, l.info.Name)
	r.layers[l.info.Name] = l
	return r
}

func (r *fakeReader) broken(name string, err error) *fakeReader {
	r.names = append(r.names, name)
	r.openErrs[name] = err
	return r
}

func (r *fakeReader) Layers(context.Context) ([]string, error) {
	return r.names, r.listErr
}

func (r *fakeReader) Layer(_ context.Context, name string) (gdb.LayerSource, error) {
	if err, ok := r.openErrs[name]; ok {
		return nil, err
	}
	l, ok := r.layers[name]
	if !ok {
		return nil, errors.New("no such layer")
	}
	return l, nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) opener() gdb.Opener {
	return func(context.Context, string) (gdb.Reader, error) { return r, nil }
}
