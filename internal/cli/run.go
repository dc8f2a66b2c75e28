package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/sheetq/internal/engine"
	"github.com/roach88/sheetq/internal/ir"
	"github.com/roach88/sheetq/internal/pipeline"
	"github.com/roach88/sheetq/internal/queryir"
	"github.com/roach88/sheetq/internal/querysql"
)

// QueryOptions holds flags shared by the sql and run commands.
type QueryOptions struct {
	*RootOptions
	Worksheet string // overrides the document's worksheet

	// IDGenerator allows overriding the query id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator engine.QueryIDGenerator
}

// StatementOutput is the JSON form of a generated statement.
type StatementOutput struct {
	SQL    string        `json:"sql"`
	Params []ParamOutput `json:"params"`
}

// ParamOutput is one positional parameter.
type ParamOutput struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// RunOutput is the JSON form of a query result.
type RunOutput struct {
	StatementOutput
	Items  []any `json:"items,omitempty"`
	Scalar any   `json:"scalar,omitempty"`
	Count  int   `json:"count"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql <query.yaml>",
		Short: "Print the SQL generated for a query document",
		Long: `Translate a query document into SQL without running it.

Prints the statement and its positional parameters in their canonical
text form. Use "-" to read the document from stdin.

Examples:
  sheetq sql --db book.db query.yaml
  echo 'where: {field: EmployeeCount, op: "=", value: 25}' | sheetq sql --db book.db -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Worksheet, "worksheet", "w", "", "worksheet to query (overrides the document)")

	return cmd
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <query.yaml>",
		Short: "Run a query document against the workbook",
		Long: `Run a query document and print its result.

Items print one per line: values in canonical text form, typed items and
rows as JSON. A scalar result (Count, Sum, First, ...) prints on its own.
Use --verbose to log the SQL and every parameter to stderr.

Exit codes:
  0 - Query succeeded
  1 - Query failed (unknown worksheet or column, conversion error, ...)
  2 - Command error (missing database, bad config or query document)

Examples:
  sheetq run --db book.db query.yaml
  sheetq run --db book.db --config sheetq.cue --format json query.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Worksheet, "worksheet", "w", "", "worksheet to query (overrides the document)")

	return cmd
}

// session is everything a query command needs.
type session struct {
	engine    *engine.Engine
	desc      queryir.Descriptor
	cfg       engine.Config
	formatter *OutputFormatter
	close     func() error
}

func newSession(opts *QueryOptions, path string, cmd *cobra.Command) (*session, error) {
	formatter := newFormatter(cmd, opts.RootOptions)

	desc, err := loadQuery(path, cmd.InOrStdin())
	if err != nil {
		reportJSON(formatter, loadErrorCode(err, ErrCodeQueryDoc), err, nil)
		return nil, err
	}
	if opts.Worksheet != "" {
		desc.Source = opts.Worksheet
		desc.SheetIndex = nil
	}

	cfg, err := loadEngineConfig(opts.RootOptions)
	if err != nil {
		reportJSON(formatter, loadErrorCode(err, ErrCodeConfig), err, nil)
		return nil, err
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		reportJSON(formatter, loadErrorCode(err, ErrCodeGeneric), err, nil)
		return nil, err
	}

	ids := opts.IDGenerator
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	return &session{
		engine:    engine.New(st, engine.WithLogger(logger), engine.WithIDGenerator(ids)),
		desc:      desc,
		cfg:       cfg,
		formatter: formatter,
		close:     st.Close,
	}, nil
}

// fail reports a query failure and converts it to an exit error.
func (s *session) fail(err error) error {
	if s.formatter.Format == "json" {
		code := string(engine.CodeOf(err))
		if code == "" {
			code = ErrCodeGeneric
		}
		message := err.Error()
		var qe *engine.QueryError
		if errors.As(err, &qe) {
			message = qe.Err.Error()
		}
		_ = json.NewEncoder(s.formatter.Writer).Encode(CLIResponse{
			Status:  "error",
			Error:   &CLIError{Code: code, Message: message},
			QueryID: queryID(err),
		})
	}
	return WrapExitError(ExitFailure, "query failed", err)
}

func runSQL(opts *QueryOptions, path string, cmd *cobra.Command) error {
	s, err := newSession(opts, path, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	stmt, err := s.engine.Translate(cmd.Context(), s.desc, s.cfg)
	if err != nil {
		return s.fail(err)
	}

	out := statementOutput(stmt)
	if opts.Format == "json" {
		return s.formatter.Success(out)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, out.SQL)
	writeParams(w, out.Params)
	return nil
}

func runQuery(opts *QueryOptions, path string, cmd *cobra.Command) error {
	s, err := newSession(opts, path, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	stmt, err := s.engine.Translate(cmd.Context(), s.desc, s.cfg)
	if err != nil {
		return s.fail(err)
	}
	out := RunOutput{StatementOutput: statementOutput(stmt)}

	res, err := s.engine.Execute(cmd.Context(), s.desc, s.cfg)
	if err != nil {
		return s.fail(err)
	}

	if opts.Format == "json" {
		if res.IsScalar {
			out.Scalar = res.Scalar
			out.Count = 1
		} else {
			out.Items = res.Items
			out.Count = len(res.Items)
		}
		return s.formatter.Success(out)
	}

	return writeResult(cmd.OutOrStdout(), res)
}

func statementOutput(stmt *querysql.Statement) StatementOutput {
	out := StatementOutput{SQL: stmt.Text, Params: make([]ParamOutput, len(stmt.Params))}
	for i, p := range stmt.Params {
		out.Params[i] = ParamOutput{Kind: p.Kind.String(), Value: p.Text()}
	}
	return out
}

func writeParams(w io.Writer, params []ParamOutput) {
	for i, p := range params {
		fmt.Fprintf(w, "-- $%d %s: %s\n", i, p.Kind, p.Value)
	}
}

func writeResult(w io.Writer, res pipeline.Result) error {
	if res.IsScalar {
		text, err := formatItem(res.Scalar)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, text)
		return nil
	}
	for _, item := range res.Items {
		text, err := formatItem(item)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, text)
	}
	return nil
}

// formatItem renders values in canonical text and everything else as JSON.
// A missing item (FirstOrDefault on nothing) renders as "null".
func formatItem(item any) (string, error) {
	switch v := item.(type) {
	case nil, ir.Null:
		return "null", nil
	case ir.Object:
		data, err := json.Marshal(v)
		return string(data), err
	case ir.Value:
		return ir.Format(v), nil
	default:
		data, err := json.Marshal(v)
		return string(data), err
	}
}

func queryID(err error) string {
	var qe *engine.QueryError
	if errors.As(err, &qe) {
		return qe.QueryID
	}
	return ""
}
