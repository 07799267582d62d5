package gdb

import (
	"context"
	"strings"

	"github.com/agentstation/geomanifest/pkg/errors"
)

// profileAttachments reads every row of an attachment table. A table that
// cannot be read yields zero records.
func (p *Profiler) profileAttachments(ctx context.Context, r Reader, name string) (AttachmentTable, LayerResult) {
	table := AttachmentTable{
		TableName:   name,
		ParentLayer: p.convention.ParentLayer(name),
		Attachments: []AttachmentRecord{},
	}
	profile := LayerProfile{LayerID: name, Fields: []FieldProfile{}, IsAttachmentTable: true}

	fail := func(stage string, err error) (AttachmentTable, LayerResult) {
		table.Attachments = []AttachmentRecord{}
		table.TotalAttachments = 0
		return table, LayerResult{Profile: profile, Err: errors.NewProfileError(name, stage, err)}
	}

	src, err := r.Layer(ctx, name)
	if err != nil {
		return fail("open", err)
	}
	err = src.Records(ctx, func(rec Record) error {
		table.Attachments = append(table.Attachments, attachmentFromRecord(len(table.Attachments), rec))
		return nil
	})
	if err != nil {
		return fail("attachments", err)
	}

	table.TotalAttachments = len(table.Attachments)
	profile.FeatureCount = table.TotalAttachments
	return table, LayerResult{Profile: profile}
}

func attachmentFromRecord(index int, rec Record) AttachmentRecord {
	att := AttachmentRecord{
		Index:       index,
		Name:        stringField(rec, "ATT_NAME"),
		ContentType: stringField(rec, "CONTENT_TYPE"),
		RelGlobalID: stringField(rec, "REL_GLOBALID"),
	}
	if v := field(rec, "DATA_SIZE"); v != nil {
		if f, ok := toFloat(v); ok {
			att.DataSize = int64(f)
		}
	}
	switch data := field(rec, "DATA").(type) {
	case nil:
	case []byte:
		att.HasData = len(data) > 0
	case string:
		att.HasData = data != ""
	default:
		att.HasData = true
	}
	return att
}

// field looks a column up by its upper-case name, then its lower-case name.
func field(rec Record, upper string) any {
	if v, ok := rec[upper]; ok && v != nil {
		return v
	}
	return rec[strings.ToLower(upper)]
}

func stringField(rec Record, upper string) string {
	v := field(rec, upper)
	if v == nil {
		return ""
	}
	return strings.TrimSpace(toKey(v))
}
