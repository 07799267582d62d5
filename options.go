package geomanifest

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/geomanifest/internal/gpkg"
	"github.com/agentstation/geomanifest/pkg/constants"
	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/gdb"
	"github.com/agentstation/geomanifest/pkg/vocab"
)

// Option is a function that configures a Client.
type Option func(*config) error

// config holds the settings of a Client.
type config struct {
	projectsDir         string
	largeLayerThreshold int
	topValuesLimit      int
	maxLayerJSONBytes   int64
	opener              gdb.Opener
	convention          gdb.AttachmentConvention
	vocabulary          *vocab.Vocabulary
	clock               func() time.Time
	logger              *zerolog.Logger
	provenance          bool
}

func defaultConfig() *config {
	return &config{
		projectsDir:         constants.DefaultProjectsDir,
		largeLayerThreshold: constants.LargeLayerThreshold,
		topValuesLimit:      constants.TopValuesLimit,
		maxLayerJSONBytes:   constants.MaxLayerJSONBytes,
		opener:              gpkg.Open,
		convention:          gdb.DefaultConvention,
		vocabulary:          vocab.Default(),
		clock:               time.Now,
		provenance:          true,
	}
}

// WithProjectsDir sets the store root where projects are persisted.
func WithProjectsDir(dir string) Option {
	return func(c *config) error {
		if dir == "" {
			return errors.NewValidationError("projects_dir", dir, "cannot be empty")
		}
		c.projectsDir = dir
		return nil
	}
}

// WithLargeLayerThreshold sets the feature count above which attribute
// statistics are skipped.
func WithLargeLayerThreshold(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return errors.NewValidationError("large_layer_threshold", n, "must not be negative")
		}
		c.largeLayerThreshold = n
		return nil
	}
}

// WithTopValuesLimit sets the number of most frequent values kept per field.
func WithTopValuesLimit(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return errors.NewValidationError("top_values_limit", n, "must be positive")
		}
		c.topValuesLimit = n
		return nil
	}
}

// WithMaxLayerJSONBytes caps the size of archive members decoded as layer
// documents. Zero or less disables the cap.
func WithMaxLayerJSONBytes(n int64) Option {
	return func(c *config) error {
		c.maxLayerJSONBytes = n
		return nil
	}
}

// WithReaderOpener replaces the feature database driver. The default opens
// GeoPackage files.
func WithReaderOpener(open gdb.Opener) Option {
	return func(c *config) error {
		if open == nil {
			return errors.NewValidationError("opener", nil, "opener cannot be nil")
		}
		c.opener = open
		return nil
	}
}

// WithAttachmentConvention replaces the attachment-table naming scheme.
func WithAttachmentConvention(conv gdb.AttachmentConvention) Option {
	return func(c *config) error {
		if conv == nil {
			return errors.NewValidationError("attachment_convention", nil, "convention cannot be nil")
		}
		c.convention = conv
		return nil
	}
}

// WithVocabulary replaces the built-in domain vocabulary.
func WithVocabulary(v *vocab.Vocabulary) Option {
	return func(c *config) error {
		if v == nil {
			return errors.NewValidationError("vocabulary", nil, "vocabulary cannot be nil")
		}
		c.vocabulary = v
		return nil
	}
}

// WithClock sets the time source stamped into manifests.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "clock cannot be nil")
		}
		c.clock = now
		return nil
	}
}

// WithLogger sets the logger used when the ingestion context carries none.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithProvenance controls whether display-name candidates are recorded and
// persisted next to the manifest.
func WithProvenance(enabled bool) Option {
	return func(c *config) error {
		c.provenance = enabled
		return nil
	}
}
