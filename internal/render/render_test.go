package render

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebogdum/kvtable/kvstore"
)

func testRecord(t *testing.T, mem memory.Allocator, keys, values []string) arrow.Record {
	t.Helper()

	build := func(vals []string) arrow.Array {
		b := array.NewStringBuilder(mem)
		defer b.Release()
		b.AppendValues(vals, nil)
		return b.NewArray()
	}

	barr := kvstore.RepeatString(mem, "/data/b1", len(keys))
	defer barr.Release()
	karr := build(keys)
	defer karr.Release()
	varr := build(values)
	defer varr.Release()

	rec, err := kvstore.Assemble(kvstore.StringSchema(), barr, karr, varr)
	require.NoError(t, err)
	return rec
}

func TestTable(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := testRecord(t, mem, []string{"k1", "longer-key"}, []string{"v1", "line\nbreak"})
	defer rec.Release()

	var buf bytes.Buffer
	require.NoError(t, Record(&buf, rec, FormatTable))

	want := "bucket    key         value\n" +
		"/data/b1  k1          v1\n" +
		"/data/b1  longer-key  \"line\\nbreak\"\n" +
		"(2 rows)\n"
	assert.Equal(t, want, buf.String())
}

func TestTableEmpty(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := testRecord(t, mem, nil, nil)
	defer rec.Release()

	var buf bytes.Buffer
	require.NoError(t, Table(&buf, rec))
	assert.Equal(t, "bucket  key  value\n(0 rows)\n", buf.String())
}

func TestJSON(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := testRecord(t, mem, []string{"k1", "k2"}, []string{"v1", "héllo"})
	defer rec.Release()

	var buf bytes.Buffer
	require.NoError(t, Record(&buf, rec, FormatJSON))
	assert.Equal(t,
		`{"bucket":"/data/b1","key":"k1","value":"v1"}`+"\n"+
			`{"bucket":"/data/b1","key":"k2","value":"héllo"}`+"\n",
		buf.String())
}

func TestRecordUnknownFormat(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := testRecord(t, mem, []string{"k"}, []string{"v"})
	defer rec.Release()

	assert.EqualError(t, Record(&bytes.Buffer{}, rec, "csv"), `unknown output format "csv"`)
}

func TestNames(t *testing.T) {
	tests := []struct {
		name   string
		names  []string
		format string
		want   string
	}{
		{name: "table", names: []string{"a", "b\tc"}, format: FormatTable, want: "a\n\"b\\tc\"\n"},
		{name: "json", names: []string{"a", "b"}, format: FormatJSON, want: `["a","b"]` + "\n"},
		{name: "json empty", names: nil, format: FormatJSON, want: "[]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Names(&buf, tt.names, tt.format))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
