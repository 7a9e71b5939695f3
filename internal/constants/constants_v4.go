package constants

// OData v4 XML namespaces
const (
	EdmNamespaceV4  = "http://docs.oasis-open.org/odata/ns/edm"
	EdmxNamespaceV4 = "http://docs.oasis-open.org/odata/ns/edmx"
)

// OData v4 content types
const (
	ContentTypeODataJSONV4     = "application/json;odata.metadata=minimal"
	ContentTypeODataJSONIEEEV4 = "application/json;odata.metadata=minimal;IEEE754Compatible=true"
)

// OData v4 annotations
const (
	ODataContext = "@odata.context"
	ODataType    = "@odata.type"
)

// AnnotationPrefix starts control information and instance annotations
const AnnotationPrefix = "@"

// IsODataV4Namespace checks if the namespace is OData v4
func IsODataV4Namespace(namespace string) bool {
	return namespace == EdmNamespaceV4 || namespace == EdmxNamespaceV4
}

// GetODataVersion determines the OData version from the namespace
func GetODataVersion(namespace string) string {
	if IsODataV4Namespace(namespace) {
		return "4.0"
	}
	return "2.0"
}
