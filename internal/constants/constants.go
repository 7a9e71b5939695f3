package constants

// EdmPrefix qualifies primitive type names in metadata
const EdmPrefix = "Edm."

// Facet attribute keywords that mean "unbounded"
const (
	MaxLengthMax  = "max"
	ScaleVariable = "variable" // v4
	ScaleFloating = "floating" // v4.01
)

// HTTP methods used by operations
const (
	GET  = "GET"
	POST = "POST"
)

// OData v2 verbose JSON
const (
	VerboseEnvelope = "d"
	VerboseResults  = "results"
	VerboseMetadata = "__metadata"
	VerboseDeferred = "__deferred"
)

// ContentTypeODataJSON is the v2 verbose JSON media type
const ContentTypeODataJSON = "application/json;odata=verbose"

// Default values
const (
	DefaultTraceDirPrefix = "odata-edm-trace"
	DefaultMaxPayloadSize = 5 * 1024 * 1024 // 5MB
)
