package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmcp/odata-edm/internal/edm"
)

const v2Metadata = `<?xml version="1.0" encoding="utf-8"?>
<edmx:Edmx Version="1.0" xmlns:edmx="http://schemas.microsoft.com/ado/2007/06/edmx"
    xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata">
  <edmx:DataServices m:DataServiceVersion="2.0">
    <Schema Namespace="SALES" xmlns="http://schemas.microsoft.com/ado/2008/09/edm">
      <EntityType Name="Order">
        <Key><PropertyRef Name="OrderID"/></Key>
        <Property Name="OrderID" Type="Edm.Int32" Nullable="false"/>
        <Property Name="Customer" Type="Edm.String" MaxLength="10"/>
        <Property Name="Note" Type="Edm.String" MaxLength="Max" Unicode="false"/>
        <Property Name="Amount" Type="Edm.Decimal" Precision="13" Scale="3"/>
        <Property Name="CreatedAt" Type="Edm.DateTime" Precision="0"/>
        <Property Name="Duration" Type="Edm.Time"/>
        <Property Name="Address" Type="SALES.Address"/>
      </EntityType>
      <ComplexType Name="Address">
        <Property Name="City" Type="Edm.String" MaxLength="40"/>
      </ComplexType>
      <EntityContainer Name="SALES_Entities" m:IsDefaultEntityContainer="true">
        <FunctionImport Name="Release" ReturnType="SALES.Order" m:HttpMethod="POST">
          <Parameter Name="OrderID" Type="Edm.Int32" Mode="In" Nullable="false"/>
          <Parameter Name="Reason" Type="Edm.String" Mode="In" MaxLength="60"/>
        </FunctionImport>
        <FunctionImport Name="Ping"/>
      </EntityContainer>
    </Schema>
  </edmx:DataServices>
</edmx:Edmx>`

const v4Metadata = `<?xml version="1.0" encoding="utf-8"?>
<edmx:Edmx Version="4.0" xmlns:edmx="http://docs.oasis-open.org/odata/ns/edmx">
  <edmx:DataServices>
    <Schema Namespace="Demo.Model" Alias="D" xmlns="http://docs.oasis-open.org/odata/ns/edm">
      <TypeDefinition Name="Code" UnderlyingType="Edm.String" MaxLength="4"/>
      <EntityType Name="Entity" Abstract="true">
        <Key><PropertyRef Name="ID"/></Key>
        <Property Name="ID" Type="Edm.Guid" Nullable="false"/>
      </EntityType>
      <EntityType Name="Product" BaseType="D.Entity">
        <Property Name="Price" Type="Edm.Decimal" Precision="10" Scale="variable"/>
        <Property Name="Code" Type="D.Code"/>
        <Property Name="Tags" Type="Collection(Edm.String)" MaxLength="20"/>
        <Property Name="Location" Type="Edm.GeographyPoint" DefaultValue="geography'SRID=4326;Point(0 0)'"/>
        <Property Name="Rating" Type="Edm.Byte" Nullable="true"/>
      </EntityType>
      <Function Name="ByCode">
        <Parameter Name="code" Type="D.Code" Nullable="false"/>
        <ReturnType Type="Demo.Model.Product"/>
      </Function>
      <Action Name="Discount" IsBound="true">
        <Parameter Name="bindingParameter" Type="Demo.Model.Product"/>
        <Parameter Name="percent" Type="Edm.Decimal" Precision="5" Scale="2"/>
      </Action>
      <EntityContainer Name="Container">
        <EntitySet Name="Products" EntityType="Demo.Model.Product"/>
      </EntityContainer>
    </Schema>
  </edmx:DataServices>
</edmx:Edmx>`

func TestParseMetadataV2(t *testing.T) {
	md, err := ParseMetadata([]byte(v2Metadata))
	require.NoError(t, err)
	assert.False(t, md.IsV4())
	assert.Equal(t, "SALES", md.SchemaNamespace)

	order, ok := md.Type("SALES.Order")
	require.True(t, ok)
	assert.Equal(t, []string{"OrderID"}, order.KeyProperties)

	tests := []struct {
		name      string
		kind      edm.Kind
		primitive bool
		facets    edm.Facets
	}{
		{"OrderID", edm.Int32, true, edm.NoFacets().WithNullable(false)},
		{"Customer", edm.String, true, edm.NoFacets().WithMaxLength(10)},
		{"Note", edm.String, true, edm.NoFacets().WithUnicode(false)},
		{"Amount", edm.Decimal, true, edm.NoFacets().WithPrecision(13).WithScale(3)},
		{"CreatedAt", edm.DateTime, true, edm.NoFacets().WithPrecision(0)},
		{"Duration", edm.Duration, true, edm.NoFacets()},
		{"Address", 0, false, edm.NoFacets()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := md.Property(order, tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.primitive, p.Primitive)
			if tt.primitive {
				assert.Equal(t, tt.kind, p.Kind)
			}
			assert.Equal(t, tt.facets, p.Facets)
		})
	}

	id, _ := md.Property(order, "OrderID")
	assert.True(t, id.IsKey)

	address, ok := md.Type("Address")
	require.True(t, ok)
	assert.True(t, address.IsComplex)

	release := md.Operations["Release"]
	require.NotNil(t, release)
	assert.Equal(t, "POST", release.HTTPMethod)
	require.Len(t, release.Parameters, 2)
	assert.Equal(t, edm.NoFacets().WithMaxLength(60), release.Parameters[1].Facets)
	assert.Equal(t, "GET", md.Operations["Ping"].HTTPMethod)
}

func TestParseMetadataV4(t *testing.T) {
	require.True(t, IsODataV4([]byte(v4Metadata)))

	md, err := ParseMetadata([]byte(v4Metadata))
	require.NoError(t, err)
	assert.True(t, md.IsV4())

	product, ok := md.Type("Product")
	require.True(t, ok)
	assert.Equal(t, "Demo.Model.Entity", product.BaseType)

	props := md.Properties(product)
	require.Len(t, props, 6)
	assert.Equal(t, "ID", props[0].Name, "inherited properties come first")
	assert.True(t, props[0].IsKey)

	price, _ := md.Property(product, "Price")
	assert.Equal(t, edm.NoFacets().WithPrecision(10), price.Facets, "variable scale is unbounded")

	code, _ := md.Property(product, "Code")
	assert.Equal(t, "D.Code", code.Type)
	assert.Equal(t, edm.String, code.Kind)
	assert.Equal(t, edm.NoFacets().WithMaxLength(4), code.Facets)

	tags, _ := md.Property(product, "Tags")
	assert.True(t, tags.Collection)
	assert.Equal(t, edm.String, tags.Kind)

	location, _ := md.Property(product, "Location")
	assert.Equal(t, edm.GeographyPoint, location.Kind)
	assert.NotEmpty(t, location.DefaultValue)
	c, ok := location.Codec()
	require.True(t, ok)
	assert.True(t, c.Validate(&location.DefaultValue, location.Facets))

	byCode := md.Operations["ByCode"]
	require.NotNil(t, byCode)
	assert.Equal(t, "GET", byCode.HTTPMethod)
	assert.Equal(t, edm.NoFacets().WithNullable(false).WithMaxLength(4), byCode.Parameters[0].Facets)

	discount := md.Operations["Discount"]
	require.NotNil(t, discount)
	assert.True(t, discount.IsAction)
	require.Len(t, discount.Parameters, 1, "binding parameter is skipped")
	assert.Equal(t, "percent", discount.Parameters[0].Name)

	summary := md.Summarize()
	assert.Equal(t, 2, summary.EntityTypes)
	assert.Equal(t, 2, summary.Operations)
}

func TestParseFacetsErrors(t *testing.T) {
	tests := []struct {
		name  string
		attrs facetAttrs
	}{
		{"nullable", facetAttrs{nullable: "maybe"}},
		{"max length", facetAttrs{maxLength: "ten"}},
		{"negative precision", facetAttrs{precision: "-1"}},
		{"scale", facetAttrs{scale: "1.5"}},
		{"unicode", facetAttrs{unicode: "yes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFacets(tt.attrs)
			assert.Error(t, err)
		})
	}
}

func TestParseMetadataInvalid(t *testing.T) {
	_, err := ParseMetadata([]byte("not xml"))
	assert.Error(t, err)

	_, err = ParseMetadata([]byte(`<Edmx Version="1.0"><DataServices/></Edmx>`))
	assert.Error(t, err)

	bad := `<Edmx Version="4.0"><DataServices><Schema Namespace="N">
<EntityType Name="E"><Property Name="P" Type="Edm.String" MaxLength="huge"/></EntityType>
</Schema></DataServices></Edmx>`
	_, err = ParseMetadata([]byte(bad))
	assert.ErrorContains(t, err, "entity type E")
}
