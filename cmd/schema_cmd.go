// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xataio/ftsearch/cmd/config"
	"github.com/xataio/ftsearch/pkg/entity"
	"github.com/xataio/ftsearch/pkg/index"
	"github.com/xataio/ftsearch/pkg/schema"
)

// parent command for schema subcommands
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect and deploy the search index of schema definition files",
}

var errNoSchemaFile = errors.New("a schema definition file is required: use --file or FTSEARCH_SCHEMA_FILE")

var schemaInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Compiles a schema definition file and outputs its index schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := schemaFile(cmd)
		if err != nil {
			return err
		}
		s, err := loadSchema(file)
		if err != nil {
			return err
		}
		return print(cmd, newSchemaInspection(file, s))
	},
	Example: `
	ftsearch schema inspect -f movie.yaml
	ftsearch schema inspect -f movie.yaml --json
	`,
}

var schemaDeployCmd = &cobra.Command{
	Use:    "deploy",
	Short:  "Creates or updates the search index of schema definition files when the index schema changed",
	PreRun: redisFlagBinding,
	RunE:   withSignalWatcher(deploySchemas),
	Example: `
	ftsearch schema deploy -f movie.yaml -f person.yaml --redis-url redis://localhost:6379/0
	ftsearch schema deploy -c ftsearch.yaml
	`,
}

var schemaDropCmd = &cobra.Command{
	Use:    "drop",
	Short:  "Drops the search index of schema definition files. Indexed documents are kept",
	PreRun: redisFlagBinding,
	RunE:   withSignalWatcher(dropSchemas),
	Example: `
	ftsearch schema drop -f movie.yaml
	`,
}

type namedSchema struct {
	file   string
	schema *schema.Schema[*entity.Entity]
}

func deploySchemas(ctx context.Context, cmd *cobra.Command) error {
	return forEachSchema(ctx, cmd, "deploy", func(ctx context.Context, d *index.Deployer, s namedSchema) (string, error) {
		created, err := d.Deploy(ctx, s.schema)
		if err != nil {
			return "", err
		}
		if created {
			return "created", nil
		}
		return "up to date", nil
	})
}

func dropSchemas(ctx context.Context, cmd *cobra.Command) error {
	return forEachSchema(ctx, cmd, "drop", func(ctx context.Context, d *index.Deployer, s namedSchema) (string, error) {
		if err := d.Drop(ctx, s.schema); err != nil {
			return "", err
		}
		return "dropped", nil
	})
}

// forEachSchema loads every schema file before connecting, then runs fn
// concurrently for all of them. The first error cancels the others.
func forEachSchema(ctx context.Context, cmd *cobra.Command, action string, fn func(context.Context, *index.Deployer, namedSchema) (string, error)) error {
	files, err := schemaFiles(cmd)
	if err != nil {
		return err
	}
	schemas := make([]namedSchema, 0, len(files))
	for _, file := range files {
		s, err := loadSchema(file)
		if err != nil {
			return err
		}
		schemas = append(schemas, namedSchema{file: file, schema: s})
	}

	indexes := make([]string, 0, len(schemas))
	for _, s := range schemas {
		indexes = append(indexes, s.schema.IndexName())
	}

	executor, closeExecutor, err := newExecutor(ctx, "schema_"+action, indexes...)
	if err != nil {
		return err
	}
	defer closeExecutor()

	deployer := index.New(executor, index.WithLogger(newLogger()))

	sp, _ := pterm.DefaultSpinner.WithText(fmt.Sprintf("running %s for %d schemas...", action, len(schemas))).Start()

	report := make(deployReport, len(schemas))
	eg, ctx := errgroup.WithContext(ctx)
	for i, s := range schemas {
		eg.Go(func() error {
			status, err := fn(ctx, deployer, s)
			if err != nil {
				return fmt.Errorf("%s %s: %w", action, s.file, err)
			}
			report[i] = deployStatus{
				File:   s.file,
				Index:  s.schema.IndexName(),
				Hash:   s.schema.IndexHash(),
				Status: status,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		sp.Fail(err.Error())
		return err
	}
	sp.Success(fmt.Sprintf("%s completed for %d schemas", action, len(schemas)))

	return print(cmd, report)
}

func schemaFiles(cmd *cobra.Command) ([]string, error) {
	var files []string
	if f := cmd.Flags().Lookup("file"); f != nil && f.Changed {
		files, _ = cmd.Flags().GetStringSlice("file")
	} else {
		files = config.SchemaFiles()
	}
	if len(files) == 0 {
		return nil, errNoSchemaFile
	}
	return files, nil
}

func schemaFile(cmd *cobra.Command) (string, error) {
	if f := cmd.Flags().Lookup("file"); f != nil && f.Changed {
		return f.Value.String(), nil
	}
	files := config.SchemaFiles()
	if len(files) == 0 {
		return "", errNoSchemaFile
	}
	return files[0], nil
}

func loadSchema(file string) (*schema.Schema[*entity.Entity], error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	def, err := schema.ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	s, err := schema.New(entity.New, def.Fields, def.Options...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return s, nil
}

type deployStatus struct {
	File   string `json:"file"`
	Index  string `json:"index"`
	Hash   string `json:"hash"`
	Status string `json:"status"`
}

type deployReport []deployStatus

func (r deployReport) PrettyPrint() (string, error) {
	data := pterm.TableData{{"File", "Index", "Hash", "Status"}}
	for _, s := range r {
		data = append(data, []string{s.File, s.Index, s.Hash, s.Status})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

type schemaInspection struct {
	File          string            `json:"file"`
	IndexName     string            `json:"index_name"`
	IndexHashName string            `json:"index_hash_name"`
	IndexHash     string            `json:"index_hash"`
	Prefix        string            `json:"prefix"`
	DataStructure string            `json:"data_structure"`
	StopWords     string            `json:"stop_words_mode"`
	CustomWords   []string          `json:"stop_words,omitempty"`
	Fields        []fieldInspection `json:"fields"`
	CreateCommand []string          `json:"create_command"`
}

type fieldInspection struct {
	Path     string `json:"path"`
	Type     string `json:"type"`
	Indexed  bool   `json:"indexed"`
	Sortable bool   `json:"sortable"`
}

func newSchemaInspection(file string, s *schema.Schema[*entity.Entity]) *schemaInspection {
	i := &schemaInspection{
		File:          file,
		IndexName:     s.IndexName(),
		IndexHashName: s.IndexHashName(),
		IndexHash:     s.IndexHash(),
		Prefix:        s.Prefix(),
		DataStructure: string(s.DataStructure()),
		StopWords:     string(s.UseStopWords()),
		CreateCommand: index.CreateArgs(s),
		Fields:        []fieldInspection{},
	}
	if s.UseStopWords() == schema.StopWordsCustom {
		i.CustomWords = s.StopWords()
	}
	var walk func(fields []schema.ResolvedField)
	walk = func(fields []schema.ResolvedField) {
		for _, f := range fields {
			i.Fields = append(i.Fields, fieldInspection{
				Path:     f.Path,
				Type:     string(f.Type.Type),
				Indexed:  f.Indexed,
				Sortable: f.Sortable,
			})
			walk(f.Fields)
		}
	}
	walk(s.Fields())
	return i
}

func (i *schemaInspection) PrettyPrint() (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("index:          %s\n", i.IndexName))
	b.WriteString(fmt.Sprintf("index hash:     %s (%s)\n", i.IndexHash, i.IndexHashName))
	b.WriteString(fmt.Sprintf("key prefix:     %s:\n", i.Prefix))
	b.WriteString(fmt.Sprintf("data structure: %s\n", i.DataStructure))
	b.WriteString(fmt.Sprintf("stop words:     %s", i.StopWords))
	if len(i.CustomWords) > 0 {
		b.WriteString(" [" + strings.Join(i.CustomWords, ", ") + "]")
	}
	b.WriteString("\n\n")

	data := pterm.TableData{{"Field", "Type", "Indexed", "Sortable"}}
	for _, f := range i.Fields {
		data = append(data, []string{f.Path, f.Type, strconv.FormatBool(f.Indexed), strconv.FormatBool(f.Sortable)})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return "", err
	}
	b.WriteString(table)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(i.CreateCommand, " "))
	return b.String(), nil
}
