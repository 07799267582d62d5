// Package constants provides shared constants used throughout the geomanifest codebase.
// This includes profiling limits, versions, file names, and file permissions
// that should be consistent across the application.
package constants

// Version constants stamped into every manifest
const (
	// ManifestVersion is the schema version of the manifest document
	ManifestVersion = "1.0"

	// PipelineVersion is the version of the ingestion pipeline
	PipelineVersion = "0.1"

	// Generator identifies the producer in generated manifests
	Generator = "gis-ingestion-pipeline v" + PipelineVersion
)

// Profiling limits
const (
	// LargeLayerThreshold is the feature count above which field statistics are skipped
	LargeLayerThreshold = 10_000

	// TopValuesLimit is the number of most frequent values kept for categorical fields
	TopValuesLimit = 20

	// MaxLayerJSONBytes caps the size of a single archive member decoded as CIM JSON
	MaxLayerJSONBytes = 2 << 20

	// StatsPrecision is the number of decimal places kept for mean and standard deviation
	StatsPrecision = 6

	// ExtentPrecision is the number of decimal places kept for WGS84 extents
	ExtentPrecision = 6
)

// Attachment convention
const (
	// AttachmentSuffix marks attachment tables by name
	AttachmentSuffix = "__ATTACH"

	// AttachmentLinkField is the column linking attachments to parent features
	AttachmentLinkField = "REL_GLOBALID"
)

// Project store file names
const (
	// ManifestFile is the per-project manifest file name
	ManifestFile = "manifest.json"

	// MappingFile is the per-project debug mapping file name
	MappingFile = "layer_mapping.json"

	// ProfilesDir holds one full profile per layer
	ProfilesDir = "layer_profiles"

	// UnpackedArchiveDir holds the archive's JSON members for debugging
	UnpackedArchiveDir = "aprx_unpacked"

	// ProvenanceFile records every display-name candidate of a project
	ProvenanceFile = "provenance.yaml"

	// RegistryFile is the projects registry at the store root
	RegistryFile = "_index.json"

	// DefaultProjectsDir is used when no projects directory is configured
	DefaultProjectsDir = "./projects"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)
