package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"slices"

	"github.com/ohler55/ojg/jp"
	"github.com/spf13/cobra"

	"github.com/roach88/modellist/internal/value"
	"github.com/roach88/modellist/pkg/modellist"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	Deep bool
	Path string // JSONPath selecting the objects to convert
}

// ConvertResult is the outcome of converting one document.
type ConvertResult struct {
	Objects  int             `json:"objects"`
	Lists    []string        `json:"lists"`
	Document json.RawMessage `json:"document"`
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert <document>",
		Short: "Wrap the sequences of a JSON or YAML document in lists",
		Long: `Convert every sequence of a document into a bindable list and print
the paths that were converted along with the document in canonical JSON.

Only the root object's own properties are converted unless --deep is set.
With --path, conversion starts at every object the JSONPath selects.

Examples:
  modellist convert ./cart.json
  modellist convert ./cart.yaml --deep
  modellist convert ./cart.yaml --path '$.orders[*]'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Deep, "deep", false, "convert nested objects too")
	cmd.Flags().StringVar(&opts.Path, "path", "", "JSONPath of the objects to convert")

	return cmd
}

func runConvert(opts *ConvertOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read document", err)
	}
	doc, err := value.DecodeObject(data, value.FormatFor(path))
	if err != nil {
		_ = formatter.Error(ErrCodeDecode, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to decode document", err)
	}

	objects := 1
	if opts.Path != "" {
		objects, err = modellist.ConvertPath(doc, opts.Path, opts.Deep)
		if err != nil {
			_ = formatter.Error(ErrCodeInvalid, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid path", err)
		}
	} else {
		modellist.Convert(doc, opts.Deep)
	}
	formatter.VerboseLog("converted %d object(s) in %s", objects, path)

	canonical, err := value.MarshalCanonical(doc)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode document", err)
	}
	result := ConvertResult{
		Objects:  objects,
		Lists:    ListPaths(doc),
		Document: canonical,
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "converted %d object(s), %d list(s)\n", result.Objects, len(result.Lists))
	for _, p := range result.Lists {
		fmt.Fprintf(w, "  %s\n", p)
	}
	fmt.Fprintln(w, string(canonical))
	return nil
}

// ListPaths returns the JSONPath of every list reachable from root, sorted.
func ListPaths(root map[string]any) []string {
	w := pathWalker{seen: make(map[uintptr]bool)}
	w.object(jp.R(), root)
	slices.Sort(w.paths)
	return w.paths
}

type pathWalker struct {
	seen  map[uintptr]bool
	paths []string
}

func (w *pathWalker) object(at jp.Expr, obj map[string]any) {
	p := reflect.ValueOf(obj).Pointer()
	if w.seen[p] {
		return
	}
	w.seen[p] = true

	for k, v := range obj {
		w.value(slices.Clone(at).C(k), v)
	}
}

func (w *pathWalker) value(at jp.Expr, v any) {
	switch val := v.(type) {
	case *modellist.List[any]:
		w.paths = append(w.paths, at.String())
		w.elements(at, val.Snapshot())
	case []any:
		w.elements(at, val)
	case map[string]any:
		w.object(at, val)
	}
}

func (w *pathWalker) elements(at jp.Expr, items []any) {
	for i, item := range items {
		w.value(slices.Clone(at).N(i), item)
	}
}
