// Package rows turns raw result rows into query items.
//
// A data source returns RawRows: the worksheet name, the column names in
// result order, and one slice of driver values per row. The Materializer
// binds each shape field to a column once per call, then either fills typed
// items through the shape's accessors or wraps the raw values as Row values
// whose cells convert on demand.
//
// Explicitly mapped fields whose column is absent from the result are not an
// error: a warning naming the column, the field and the worksheet is sent to
// the Warner and the field keeps its zero value. Cells that cannot be coerced
// to the declared kind fail with *ConversionError.
package rows
