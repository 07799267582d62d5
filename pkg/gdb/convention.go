package gdb

import (
	"strings"

	"github.com/agentstation/geomanifest/pkg/constants"
)

// AttachmentConvention decides which tables hold attachments and which
// layer they belong to.
type AttachmentConvention interface {
	IsAttachmentTable(name string) bool
	ParentLayer(name string) string
}

// SuffixConvention marks attachment tables by a fixed name suffix.
type SuffixConvention struct {
	Suffix string
}

// DefaultConvention is the "<layer>__ATTACH" naming scheme.
var DefaultConvention AttachmentConvention = SuffixConvention{Suffix: constants.AttachmentSuffix}

// IsAttachmentTable implements AttachmentConvention.
func (c SuffixConvention) IsAttachmentTable(name string) bool {
	return c.Suffix != "" && strings.HasSuffix(name, c.Suffix) && len(name) > len(c.Suffix)
}

// ParentLayer implements AttachmentConvention.
func (c SuffixConvention) ParentLayer(name string) string {
	return strings.TrimSuffix(name, c.Suffix)
}
