package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"redline/internal/clock"
	"redline/internal/diff"
	"redline/internal/docx"
	"redline/internal/editor"
	"redline/internal/extract"
	"redline/internal/gitutil"
	"redline/internal/textconv"
	"redline/pkg/docmodel"
	"redline/pkg/manifest"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagRead     bool
	flagDiff     bool
	flagTextconv bool
	flagCreate   bool
	flagGitSetup bool

	flagOutput  string
	flagAuthor  string
	flagJSON    bool
	flagDryRun  bool
	flagVerbose bool
)

// rootCmd is the whole CLI surface: the default mode applies an edit
// manifest, the mode flags switch to the read-only surfaces.
var rootCmd = &cobra.Command{
	Use:   "redline [flags] <input.docx> [manifest.json]",
	Short: "Read, edit, and diff Word documents through the review layer",
	Long: `redline edits .docx files with tracked changes and anchored comments,
driven by a JSON or YAML manifest. It can also read the review layer as
structured output, diff two documents semantically, and act as a git
textconv driver so .docx files diff as plain text.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		if err := checkModes(); err != nil {
			return err
		}
		switch {
		case flagRead:
			return runRead(args)
		case flagDiff:
			return runDiff(args)
		case flagTextconv:
			return runTextconv(args)
		case flagCreate:
			return runCreate(args)
		case flagGitSetup:
			return runGitSetup(cmd)
		default:
			return runEdit(args)
		}
	},
}

// errEntriesFailed signals a partial manifest failure after the outcome has
// already been reported; Execute turns it into the exit code without
// printing a second error line.
var errEntriesFailed = errors.New("some manifest entries failed")

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errEntriesFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&flagRead, "read", false, "print the document's text and review layer")
	rootCmd.Flags().BoolVar(&flagDiff, "diff", false, "compare two documents: old.docx new.docx")
	rootCmd.Flags().BoolVar(&flagTextconv, "textconv", false, "emit the plain-text projection for git diff drivers")
	rootCmd.Flags().BoolVar(&flagCreate, "create", false, "create a new empty document")
	rootCmd.Flags().BoolVar(&flagGitSetup, "git-setup", false, "register the docx diff driver in the local git config")

	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output path (edit and create modes)")
	rootCmd.Flags().StringVar(&flagAuthor, "author", "", "author for tracked changes and comments")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "emit structured JSON instead of text")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "report what would change without writing")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

func setupLogging() {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func checkModes() error {
	n := 0
	for _, f := range []bool{flagRead, flagDiff, flagTextconv, flagCreate, flagGitSetup} {
		if f {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("--read, --diff, --textconv, --create and --git-setup are mutually exclusive")
	}
	return nil
}

// stdinRedirected reports whether stdin is a pipe or file rather than a
// terminal; only then is the manifest read from it.
func stdinRedirected() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice == 0
}

func openDocument(path string) (*docmodel.Document, error) {
	store, err := docx.Open(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	doc, err := extract.Extract(store)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return doc, nil
}

func emitJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runEdit(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("edit mode needs an input document: redline <input.docx> [manifest.json]")
	}
	input := args[0]

	var m *manifest.Manifest
	var err error
	switch {
	case len(args) >= 2:
		m, err = manifest.Load(args[1])
	case stdinRedirected():
		m, err = manifest.Read(os.Stdin)
	default:
		return fmt.Errorf("no manifest: pass a manifest file or pipe one on stdin")
	}
	if err != nil {
		return err
	}

	store, err := docx.Open(input)
	if err != nil {
		return err
	}
	defer store.Close()

	outcome, err := editor.Apply(store, m, editor.Options{
		Author: flagAuthor,
		DryRun: flagDryRun,
		Clock:  clock.Real{},
		Logger: slog.Default(),
	})
	if err != nil {
		return err
	}

	outPath := flagOutput
	if outPath == "" {
		outPath = input
	}
	if !flagDryRun {
		if err := store.Save(outPath); err != nil {
			return err
		}
		outcome.Output = outPath
	}

	if flagJSON {
		if err := emitJSON(outcome); err != nil {
			return err
		}
	} else {
		printOutcome(outcome, flagDryRun)
	}
	if !outcome.Success {
		return errEntriesFailed
	}
	return nil
}

// readOutput is the --read JSON shape.
type readOutput struct {
	File           string                  `json:"file"`
	Paragraphs     []docmodel.Paragraph    `json:"paragraphs"`
	Comments       []docmodel.Comment      `json:"comments"`
	Tables         []docmodel.Table        `json:"tables,omitempty"`
	Images         []docmodel.Image        `json:"images,omitempty"`
	HeadersFooters []docmodel.HeaderFooter `json:"headers_footers,omitempty"`
	Metadata       docmodel.Metadata       `json:"metadata"`
	Summary        docmodel.Summary        `json:"summary"`
}

func newReadOutput(doc *docmodel.Document) readOutput {
	return readOutput{
		File:           doc.File,
		Paragraphs:     doc.Paragraphs,
		Comments:       doc.Comments,
		Tables:         doc.Tables,
		Images:         doc.Images,
		HeadersFooters: doc.HeadersFooters,
		Metadata:       doc.Metadata,
		Summary:        doc.Summarize(),
	}
}

func runRead(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("read mode takes exactly one document: redline --read <file.docx>")
	}
	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}
	if flagJSON {
		return emitJSON(newReadOutput(doc))
	}
	printDocument(doc)
	return nil
}

func runDiff(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("diff mode takes two documents: redline --diff <old.docx> <new.docx>")
	}
	oldDoc, err := openDocument(args[0])
	if err != nil {
		return err
	}
	newDoc, err := openDocument(args[1])
	if err != nil {
		return err
	}
	report := diff.Compare(oldDoc, newDoc)
	if flagJSON {
		return emitJSON(report)
	}
	printReport(report)
	return nil
}

func runTextconv(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("textconv mode takes exactly one document: redline --textconv <file.docx>")
	}
	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}
	return textconv.Write(os.Stdout, doc)
}

func runCreate(args []string) error {
	path := flagOutput
	if len(args) >= 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("create mode needs a path: redline --create <new.docx> [manifest.json]")
	}
	if err := docx.CreateEmpty(path); err != nil {
		return err
	}
	fmt.Println("Created", path)
	if len(args) >= 2 {
		// A manifest alongside the path seeds the new document through the
		// normal edit path.
		return runEdit([]string{path, args[1]})
	}
	return nil
}

func runGitSetup(cmd *cobra.Command) error {
	binary := "redline"
	if exe, err := os.Executable(); err == nil {
		binary = exe
	}
	if err := gitutil.Setup(cmd.Context(), binary); err != nil {
		return err
	}
	fmt.Println("Configured git diff driver for .docx files.")
	fmt.Println("Run `git diff` as usual; .docx changes now show as text.")
	return nil
}
