package export

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/runnerr0/tabsnap/internal/history"
)

func historySchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "url", Type: arrow.BinaryTypes.String},
		{Name: "title", Type: arrow.BinaryTypes.String},
		{Name: "visit_count", Type: arrow.PrimitiveTypes.Int32},
		{Name: "last_visit_time", Type: arrow.FixedWidthTypes.Timestamp_ms},
	}, nil)
}

// RenderHistoryParquet encodes deduplicated history as a single-row-group
// Parquet file.
func RenderHistoryParquet(entries []history.Entry) ([]byte, error) {
	schema := historySchema()
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	for _, e := range entries {
		builder.Field(0).(*array.StringBuilder).Append(e.URL)
		builder.Field(1).(*array.StringBuilder).Append(e.Title)
		builder.Field(2).(*array.Int32Builder).Append(int32(e.Count))
		builder.Field(3).(*array.TimestampBuilder).Append(arrow.Timestamp(e.LastVisitTime.UnixMilli()))
	}

	record := builder.NewRecord()
	defer record.Release()

	var buf bytes.Buffer
	writer, err := pqarrow.NewFileWriter(schema, &buf, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	if err := writer.Write(record); err != nil {
		writer.Close()
		return nil, fmt.Errorf("write parquet record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
