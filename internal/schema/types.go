package schema

// DataType is a column type from the supported catalog.
type DataType string

const (
	TypeBigInt     DataType = "BIGINT"
	TypeInt        DataType = "INT"
	TypeMediumInt  DataType = "MEDIUMINT"
	TypeSmallInt   DataType = "SMALLINT"
	TypeTinyInt    DataType = "TINYINT"
	TypeDouble     DataType = "DOUBLE"
	TypeDecimal    DataType = "DECIMAL"
	TypeFloat      DataType = "FLOAT"
	TypeBit        DataType = "BIT"
	TypeDate       DataType = "DATE"
	TypeTime       DataType = "TIME"
	TypeDateTime   DataType = "DATETIME"
	TypeTimestamp  DataType = "TIMESTAMP"
	TypeYear       DataType = "YEAR"
	TypeLongText   DataType = "LONGTEXT"
	TypeMediumText DataType = "MEDIUMTEXT"
	TypeText       DataType = "TEXT"
	TypeTinyText   DataType = "TINYTEXT"
	TypeVarchar    DataType = "VARCHAR"
	TypeChar       DataType = "CHAR"
	TypeEnum       DataType = "ENUM"
	TypeSet        DataType = "SET"
	TypeJSON       DataType = "JSON"
	TypeLongBlob   DataType = "LONGBLOB"
	TypeMediumBlob DataType = "MEDIUMBLOB"
	TypeBlob       DataType = "BLOB"
	TypeTinyBlob   DataType = "TINYBLOB"
	TypeUUID       DataType = "UUID"
	TypeVarBinary  DataType = "VARBINARY"
	TypeBinary     DataType = "BINARY"
	TypePolygon    DataType = "POLYGON"
	TypeLineString DataType = "LINESTRING"
	TypePoint      DataType = "POINT"
	TypeGeometry   DataType = "GEOMETRY"

	// TypeInteger is not offered in the catalog but still takes a length.
	TypeInteger DataType = "INTEGER"
)

// TypeInfo describes a catalog entry for the editor's type picker.
type TypeInfo struct {
	Name        DataType `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	HasLength   bool     `json:"hasLength"`
	HasValues   bool     `json:"hasValues"`
}

// Catalog is the closed, ordered list of supported types. The order is the
// display order of the type picker and has no effect on generated SQL.
var Catalog = []TypeInfo{
	// Numeric types
	{Name: TypeBigInt, Description: "64-bit integer", Category: "Numeric"},
	{Name: TypeInt, Description: "32-bit integer", Category: "Numeric"},
	{Name: TypeMediumInt, Description: "24-bit integer", Category: "Numeric"},
	{Name: TypeSmallInt, Description: "16-bit integer", Category: "Numeric"},
	{Name: TypeTinyInt, Description: "8-bit integer", Category: "Numeric"},
	{Name: TypeDouble, Description: "64-bit floating point", Category: "Numeric"},
	{Name: TypeDecimal, Description: "Fixed-point decimal", Category: "Numeric"},
	{Name: TypeFloat, Description: "32-bit floating point", Category: "Numeric"},
	{Name: TypeBit, Description: "Bit field", Category: "Numeric"},

	// Date/Time types
	{Name: TypeDate, Description: "Date only", Category: "Date/Time"},
	{Name: TypeTime, Description: "Time only", Category: "Date/Time"},
	{Name: TypeDateTime, Description: "Date and time", Category: "Date/Time"},
	{Name: TypeTimestamp, Description: "Timestamp (UTC stored)", Category: "Date/Time"},
	{Name: TypeYear, Description: "Year", Category: "Date/Time"},

	// String types
	{Name: TypeLongText, Description: "Text up to 4 GB", Category: "String"},
	{Name: TypeMediumText, Description: "Text up to 16 MB", Category: "String"},
	{Name: TypeText, Description: "Text up to 64 KB", Category: "String"},
	{Name: TypeTinyText, Description: "Text up to 255 bytes", Category: "String"},
	{Name: TypeVarchar, Description: "Variable length (limited)", Category: "String"},
	{Name: TypeChar, Description: "Fixed length", Category: "String"},

	// Enumerated types
	{Name: TypeEnum, Description: "One value from a list", Category: "Enumerated"},
	{Name: TypeSet, Description: "Any values from a list", Category: "Enumerated"},

	// JSON
	{Name: TypeJSON, Description: "JSON document", Category: "JSON"},

	// Binary large objects
	{Name: TypeLongBlob, Description: "Binary up to 4 GB", Category: "Blob"},
	{Name: TypeMediumBlob, Description: "Binary up to 16 MB", Category: "Blob"},
	{Name: TypeBlob, Description: "Binary up to 64 KB", Category: "Blob"},
	{Name: TypeTinyBlob, Description: "Binary up to 255 bytes", Category: "Blob"},

	// UUID
	{Name: TypeUUID, Description: "UUID", Category: "UUID"},

	// Binary
	{Name: TypeVarBinary, Description: "Variable length binary", Category: "Binary"},
	{Name: TypeBinary, Description: "Fixed length binary", Category: "Binary"},

	// Spatial
	{Name: TypePolygon, Description: "Polygon", Category: "Geometry"},
	{Name: TypeLineString, Description: "Line string", Category: "Geometry"},
	{Name: TypePoint, Description: "Point", Category: "Geometry"},
	{Name: TypeGeometry, Description: "Any geometry", Category: "Geometry"},
}

// lengthTypes is the closed set of types rendered with a "(length)" suffix.
var lengthTypes = map[DataType]bool{
	TypeVarchar:   true,
	TypeChar:      true,
	TypeVarBinary: true,
	TypeBinary:    true,
	TypeTinyInt:   true,
	TypeSmallInt:  true,
	TypeMediumInt: true,
	TypeInt:       true,
	TypeInteger:   true,
	TypeBigInt:    true,
}

// catalogMap is built from Catalog for O(1) lookup
var catalogMap = buildCatalogMap()

func buildCatalogMap() map[DataType]bool {
	m := make(map[DataType]bool, len(Catalog))
	for i := range Catalog {
		Catalog[i].HasLength = lengthTypes[Catalog[i].Name]
		Catalog[i].HasValues = Catalog[i].Name.IsEnumerated()
		m[Catalog[i].Name] = true
	}
	return m
}

// IsKnown reports whether t is part of the catalog.
func (t DataType) IsKnown() bool {
	return catalogMap[t]
}

// IsEnumerated reports whether t renders a value list (ENUM or SET).
func (t DataType) IsEnumerated() bool {
	return t == TypeEnum || t == TypeSet
}

// HasLength reports whether t renders a length suffix.
func (t DataType) HasLength() bool {
	return lengthTypes[t]
}
