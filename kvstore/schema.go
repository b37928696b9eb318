package kvstore

import "github.com/apache/arrow-go/v18/arrow"

// Column names of every record produced by this package.
const (
	BucketColumn = "bucket"
	KeyColumn    = "key"
	ValueColumn  = "value"
)

// StringSchema returns the (bucket: utf8, key: utf8, value: utf8) schema used by
// backends whose identifiers and values are all strings.
func StringSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: BucketColumn, Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: KeyColumn, Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: ValueColumn, Type: arrow.BinaryTypes.String, Nullable: false},
	}, nil)
}
