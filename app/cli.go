// Package app wires the engine to its orchestrating surfaces: the cobra CLI,
// the bubbletea TUI, and the platform default-application opener.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"docsearch/config"
	"docsearch/observe"
	"docsearch/ocr"
	"docsearch/search"
)

var version = "1.0.0"

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// buildStack assembles sink, config store, OCR environment, registry, and
// engine. A broken config store is downgraded to in-memory-only operation.
func buildStack(verbose bool) (*search.Engine, *ocr.Environment, observe.Sink) {
	sink := observe.Discard()
	if verbose {
		sink = observe.NewWriterSink(os.Stderr)
	}

	var store ocr.Store
	if s, err := config.NewStore("", sink); err != nil {
		sink.Warnf("config: store unavailable: %v (settings will not persist)", err)
	} else {
		store = s
	}

	env := ocr.NewEnvironment(store, sink)
	registry := search.NewRegistry(env, sink)
	return search.NewEngine(registry, sink), env, sink
}

func newRootCmd() *cobra.Command {
	var (
		root          string
		caseSensitive bool
		useOCR        bool
		plain         bool
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:   "docsearch <term>",
		Short: "Search for a term inside documents under a directory",
		Long: "docsearch recursively scans a directory for supported documents\n" +
			"(txt, docx, pdf, xlsx, xls, html, htm, php), extracts their text, and\n" +
			"reports every file containing the term with an occurrence count.\n" +
			"PDFs can optionally go through OCR for scanned pages.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, _ := buildStack(verbose)

			req := search.Request{
				Root:          root,
				Term:          args[0],
				CaseSensitive: caseSensitive,
				UseOCR:        useOCR,
			}
			if err := search.Validate(req); err != nil {
				return err
			}

			if plain || verbose {
				return runPlain(engine, req)
			}
			return runTUI(engine, req)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "directory to search")
	cmd.Flags().BoolVarP(&caseSensitive, "case-sensitive", "c", false, "match case exactly")
	cmd.Flags().BoolVar(&useOCR, "ocr", false, "apply OCR to PDFs (scanned documents; much slower)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print results without the interactive UI")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print diagnostic trace lines (implies --plain)")

	cmd.AddCommand(newOCRCmd(), newFormatsCmd(), newVersionCmd())
	return cmd
}

// newFormatsCmd lists the supported extensions and their support level in
// this build.
func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the supported document formats",
		Run: func(cmd *cobra.Command, args []string) {
			registry := search.NewRegistry(nil, observe.Discard())

			exts := make([]string, 0, len(search.SupportedExtensions))
			for ext := range search.SupportedExtensions {
				exts = append(exts, ext)
			}
			sort.Strings(exts)

			for _, ext := range exts {
				level := "full"
				if registry.Capability(ext) == search.CapabilityDegraded {
					level = "degraded"
				}
				fmt.Printf("%-6s %s\n", ext, level)
			}
		},
	}
}

// runPlain executes the search on the current goroutine, printing progress
// to stderr and the result table to stdout. Ctrl-C cancels the run and keeps
// the partial results.
func runPlain(engine *search.Engine, req search.Request) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine.OnProgress = func(percent float64, name string) {
		fmt.Fprintf(os.Stderr, "\rSearching... %3.0f%% %-40.40s", percent, name)
	}

	results, err := engine.Search(ctx, req)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	if ctx.Err() != nil {
		fmt.Println(warningStyle.Render("Search cancelled - showing partial results"))
	}
	if len(results) == 0 {
		fmt.Println("No documents found containing " + fmt.Sprintf("%q", req.Term))
		return nil
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("%d document(s) found", len(results))))
	fmt.Println(separatorStyle.Render(separatorLine()))
	for _, r := range results {
		fmt.Printf("%-30s %-6s %4d  %s\n", r.Name, r.Ext, r.Occurrences, r.Path)
	}
	return nil
}

// separatorLine builds a divider sized to the terminal.
func separatorLine() string {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	if width > 120 {
		width = 120
	}
	return strings.Repeat("━", width)
}

func newOCRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocr",
		Short: "Inspect and configure the OCR environment",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the resolved OCR tool paths",
			Run: func(cmd *cobra.Command, args []string) {
				_, env, _ := buildStack(false)
				recognizer, rasterizer := env.Resolve()
				fmt.Printf("Recognition engine: %s\n", orUnset(recognizer))
				fmt.Printf("Rasterizer tools:   %s\n", orUnset(rasterizer))
			},
		},
		&cobra.Command{
			Use:   "set-recognizer <path>",
			Short: "Set the OCR recognition engine executable (tesseract)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, env, _ := buildStack(false)
				if !env.SetRecognizer(args[0]) {
					return fmt.Errorf("path does not exist: %s", args[0])
				}
				fmt.Println(successStyle.Render("Recognition engine path saved"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-rasterizer <dir>",
			Short: "Set the PDF rasterizer tool directory (poppler bin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, env, _ := buildStack(false)
				if !env.SetRasterizer(args[0]) {
					return fmt.Errorf("directory does not exist: %s", args[0])
				}
				fmt.Println(successStyle.Render("Rasterizer directory saved"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "verify",
			Short: "Check that the OCR tools can actually be invoked",
			Run: func(cmd *cobra.Command, args []string) {
				_, env, _ := buildStack(false)
				ok, message := env.Verify(cmd.Context())
				if ok {
					fmt.Println(successStyle.Render("OCR ready: " + message))
					return
				}
				fmt.Println(warningStyle.Render("OCR unavailable: " + message))
			},
		},
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(successStyle.Render("docsearch v" + version))
		},
	}
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
