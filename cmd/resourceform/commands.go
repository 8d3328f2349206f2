package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-resourceform/internal/openapi/loader"
	"github.com/goliatone/go-resourceform/internal/openapi/parser"
	"github.com/goliatone/go-resourceform/pkg/api"
	"github.com/goliatone/go-resourceform/pkg/config"
	"github.com/goliatone/go-resourceform/pkg/controller"
	"github.com/goliatone/go-resourceform/pkg/logging"
	"github.com/goliatone/go-resourceform/pkg/params"
	pkgopenapi "github.com/goliatone/go-resourceform/pkg/openapi"
	"github.com/goliatone/go-resourceform/pkg/renderers/tui"
	"github.com/goliatone/go-resourceform/pkg/validation"
)

func newLogger(flags *globalFlags, out io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(flags.logLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{
		Level:  level,
		Format: logging.Format(flags.logFormat),
		Output: out,
	}), nil
}

type runFlags struct {
	config  string
	id      string
	params  []string
	output  string
	confirm bool
}

func newRunCmd(global *globalFlags) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Prompt for a resource and submit it",
		Long: `Run loads the form definition, fetches the record when --id is set
(edit mode) and prompts for every field. The saved record is printed on
success.`,
		Example: `  resourceform run --config posts.yaml
  resourceform run --config posts.yaml --id 7 --output pretty`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return run(cmd.Context(), flags, log, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&flags.config, "config", "c", "resourceform.yaml", "form definition file")
	cmd.Flags().StringVar(&flags.id, "id", "", "record identifier; selects edit mode")
	cmd.Flags().StringArrayVarP(&flags.params, "param", "p", nil, "extra identity parameter as key=value (repeatable)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", string(tui.OutputFormatJSON), "output format (json, pretty, form)")
	cmd.Flags().BoolVar(&flags.confirm, "confirm", true, "ask before submitting")
	return cmd
}

func run(ctx context.Context, flags *runFlags, log *slog.Logger, out io.Writer) error {
	file, err := config.Load(flags.config)
	if err != nil {
		return err
	}
	extra, err := parseParams(flags.params)
	if err != nil {
		return err
	}
	file.Params = mergeParams(file.Params, extra, flags.id)

	setup, err := file.Build(ctx, config.WithLogger(log))
	if err != nil {
		return err
	}
	defer setup.Close()

	var saved map[string]any
	setup.Config.OnResponse = func(res controller.StagedResponse) {
		if record, ok := res.Data.(map[string]any); ok && res.Stage != api.StageShow {
			saved = record
		}
	}

	opts := []tui.Option{tui.WithSkipFields(params.IDKey), tui.WithOutput(os.Stderr)}
	if flags.confirm {
		opts = append(opts, tui.WithConfirm("Submit?"))
	}
	if setup.Visibility != nil {
		opts = append(opts, tui.WithVisibility(setup.Visibility, nil))
	}
	renderer := tui.New(setup.Form, opts...)
	ctrl, err := controller.New(setup.Config, renderer, append(setup.Options, controller.WithNotifier(renderer))...)
	if err != nil {
		return err
	}
	defer ctrl.Unmount()

	if err := ctrl.Mount(ctx); err != nil {
		return err
	}
	labels := ctrl.Labels()
	renderer.Notify(controller.NoticeInfo, labels.Title)

	for {
		if err := renderer.Prompt(ctx); err != nil {
			return err
		}
		err := ctrl.Submit(ctx)
		if errors.Is(err, validation.ErrInvalid) {
			continue
		}
		if errors.Is(err, controller.ErrIneligibleSubmit) || errors.Is(err, tui.ErrDeclined) {
			return nil
		}
		if err != nil {
			return err
		}
		break
	}

	if saved == nil {
		return nil
	}
	data, err := tui.Encode(saved, tui.OutputFormat(flags.output))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check form definition files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				if _, err := config.Load(path); err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d definitions invalid", failed, len(args))
			}
			return nil
		},
	}
}

func newOperationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "operations <openapi file or URL>",
		Short: "List the resources and stages an OpenAPI document exposes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := loadOperations(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOperations(cmd.OutOrStdout(), ops)
		},
	}
}

func loadOperations(ctx context.Context, location string) (map[string]pkgopenapi.Operation, error) {
	src, err := pkgopenapi.SourceFor(location)
	if err != nil {
		return nil, err
	}
	doc, err := loader.New(pkgopenapi.NewLoaderOptions(pkgopenapi.WithHTTPFallback(0))).Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return parser.New(pkgopenapi.NewParserOptions()).Operations(ctx, doc)
}

func writeOperations(w io.Writer, ops map[string]pkgopenapi.Operation) error {
	grouped := pkgopenapi.ResourceOperations(ops)
	for _, resource := range pkgopenapi.Resources(ops) {
		for _, stage := range api.Stages() {
			op, ok := grouped[resource][stage]
			if !ok {
				continue
			}
			if _, err := fmt.Fprintf(w, "%-20s %-7s %-6s %s\n", resource, stage, op.Method, op.Path); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseParams reads key=value pairs. Integer values are kept as numbers.
func parseParams(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param %q, want key=value", pair)
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			out[key] = n
			continue
		}
		out[key] = value
	}
	return out, nil
}

// mergeParams layers command line parameters over the file ones. An explicit
// id wins over both.
func mergeParams(base, extra map[string]any, id string) map[string]any {
	out := params.Clone(base)
	if out == nil {
		out = map[string]any{}
	}
	for key, value := range extra {
		out[key] = value
	}
	if id != "" {
		out[params.IDKey] = id
	}
	return params.Compact(out)
}
