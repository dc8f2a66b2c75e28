package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/sheetq/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Name string // worksheet name; defaults to the file name
}

// ImportedSheet describes one imported CSV file.
type ImportedSheet struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file.csv>...",
		Short: "Import CSV files as worksheets",
		Long: `Import CSV files into the workbook database.

Each file becomes one worksheet named after the file (without extension).
The first row holds the column names. Importing a worksheet that already
exists replaces its rows and keeps its position in the workbook.

Examples:
  sheetq import --db book.db Sheet1.csv Other.csv
  sheetq import --db book.db --name Companies data/companies.csv`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "worksheet name (only with a single file)")

	return cmd
}

func runImport(opts *ImportOptions, paths []string, cmd *cobra.Command) error {
	if opts.Name != "" && len(paths) > 1 {
		return NewExitError(ExitCommandError, "--name can only be used with a single file")
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	formatter := newFormatter(cmd, opts.RootOptions)

	imported := make([]ImportedSheet, 0, len(paths))
	for _, path := range paths {
		name, err := st.ImportCSVFile(cmd.Context(), path, opts.Name)
		if err != nil {
			reportJSON(formatter, ErrCodeImport, err, map[string]string{"path": path})
			return WrapExitError(ExitFailure, "import failed", err)
		}
		logger.Debug("imported worksheet", "name", name, "path", path)
		imported = append(imported, ImportedSheet{Name: name, Path: path})
	}

	if opts.Format == "json" {
		return formatter.Success(imported)
	}
	for _, s := range imported {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s <- %s\n", s.Name, filepath.Base(s.Path))
	}
	return nil
}

// SheetInfo is the JSON form of a workbook catalog entry.
type SheetInfo struct {
	Position int      `json:"position"`
	Name     string   `json:"name"`
	Source   string   `json:"source,omitempty"`
	Columns  []string `json:"columns"`
	Rows     int      `json:"rows"`
}

// NewSheetsCommand creates the sheets command.
func NewSheetsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "List the worksheets of the workbook",
		Long: `List worksheets in workbook order with their columns and row counts.

The position is the index used by sheet_index in query documents.

Example:
  sheetq sheets --db book.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSheets(rootOpts, cmd)
		},
	}
}

func runSheets(opts *RootOptions, cmd *cobra.Command) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.Describe(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read workbook", err)
	}

	sheets := make([]SheetInfo, len(infos))
	for i, info := range infos {
		sheets[i] = sheetInfo(info)
	}

	if opts.Format == "json" {
		return newFormatter(cmd, opts).Success(sheets)
	}

	w := cmd.OutOrStdout()
	if len(sheets) == 0 {
		fmt.Fprintln(w, "No worksheets.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tROWS\tCOLUMNS")
	for _, s := range sheets {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", s.Position, s.Name, s.Rows, strings.Join(s.Columns, ", "))
	}
	return tw.Flush()
}

func sheetInfo(info store.WorksheetInfo) SheetInfo {
	return SheetInfo{
		Position: info.Position,
		Name:     info.Name,
		Source:   info.Source,
		Columns:  info.Columns,
		Rows:     info.Rows,
	}
}

// NewDropCommand creates the drop command.
func NewDropCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <worksheet>",
		Short: "Remove a worksheet from the workbook",
		Long: `Remove a worksheet and its rows. Worksheet names match case-insensitively.

Example:
  sheetq drop --db book.db Other`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrop(rootOpts, args[0], cmd)
		},
	}
}

func runDrop(opts *RootOptions, name string, cmd *cobra.Command) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	formatter := newFormatter(cmd, opts)
	if err := st.DropWorksheet(cmd.Context(), name); err != nil {
		reportJSON(formatter, ErrCodeNoWorksheet, err, nil)
		return WrapExitError(ExitFailure, "drop failed", err)
	}
	newLogger(cmd.ErrOrStderr(), opts.Verbose).Debug("dropped worksheet", "name", name)

	if opts.Format == "json" {
		return formatter.Success(map[string]string{"dropped": name})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ dropped %s\n", name)
	return nil
}
