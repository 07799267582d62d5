package aprx

import (
	"strings"

	"github.com/agentstation/geomanifest/internal/matcher"
	"github.com/agentstation/geomanifest/pkg/constants"
	"github.com/agentstation/geomanifest/pkg/vocab"
)

// Options configures archive parsing.
type Options struct {
	// MaxMemberBytes skips members whose uncompressed size exceeds it.
	MaxMemberBytes int64
	// SkipNames lists glob patterns over member basenames, compared
	// case-insensitively, that never describe a layer.
	SkipNames []string
	// Vocabulary supplies the units pattern.
	Vocabulary *vocab.Vocabulary

	skipped *matcher.Table
}

// Option configures Parse.
type Option func(*Options)

// DefaultSkipNames are the project-level documents that are large and hold no layers.
var DefaultSkipNames = []string{"gisproject.json", "index.json"}

func defaults() *Options {
	return &Options{
		MaxMemberBytes: constants.MaxLayerJSONBytes,
		SkipNames:      DefaultSkipNames,
	}
}

// WithMaxMemberBytes sets the per-member size limit. Non-positive values
// disable the limit.
func WithMaxMemberBytes(n int64) Option {
	return func(o *Options) {
		o.MaxMemberBytes = n
	}
}

// WithSkipNames replaces the skipped basename patterns.
func WithSkipNames(names ...string) Option {
	return func(o *Options) {
		o.SkipNames = names
	}
}

// WithVocabulary sets the curated tables used for unit extraction.
func WithVocabulary(v *vocab.Vocabulary) Option {
	return func(o *Options) {
		o.Vocabulary = v
	}
}

func (o *Options) compile() error {
	rules := make([]matcher.Rule, len(o.SkipNames))
	for i, name := range o.SkipNames {
		rules[i] = matcher.Rule{Pattern: name, Label: name}
	}
	table, err := matcher.Compile(matcher.Glob, rules)
	if err != nil {
		return err
	}
	o.skipped = table
	return nil
}

func (o *Options) skip(member string) bool {
	base := member
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return o.skipped.Index(base) >= 0
}

func (o *Options) tooLarge(size uint64) bool {
	return o.MaxMemberBytes > 0 && size > uint64(o.MaxMemberBytes)
}
