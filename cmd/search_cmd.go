// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xataio/ftsearch/internal/json"
	"github.com/xataio/ftsearch/pkg/client"
	"github.com/xataio/ftsearch/pkg/entity"
)

var searchCmd = &cobra.Command{
	Use:    "search",
	Short:  "Searches the index of a schema definition file",
	PreRun: redisFlagBinding,
	RunE:   withProfiling(withSignalWatcher(runSearch)),
	Example: `
	ftsearch search -f movie.yaml
	ftsearch search -f movie.yaml --where genres=sci\ fi --where year>=1980 --sort-by year:desc --limit 5
	ftsearch search -f movie.yaml --where 'title~alien' --template '{{ .ID }}: {{ .Data.title | upper }}'
	ftsearch search -f movie.yaml --where released=true --count
	ftsearch search -f movie.yaml --where 'meta.director=Ridley Scott' --dry-run
	`,
}

func runSearch(ctx context.Context, cmd *cobra.Command) error {
	file, err := schemaFile(cmd)
	if err != nil {
		return err
	}
	s, err := loadSchema(file)
	if err != nil {
		return err
	}

	wheres, _ := cmd.Flags().GetStringArray("where")
	srch, err := buildSearch(s, wheres)
	if err != nil {
		return err
	}

	opts, err := searchRunOptions(cmd)
	if err != nil {
		return err
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		args, err := client.Command(srch, opts...)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), quoteCommand(args))
		return err
	}

	executor, closeExecutor, err := newExecutor(ctx, "search", s.IndexName())
	if err != nil {
		return err
	}
	defer closeExecutor()

	c := client.New(executor, client.WithLogger(newLogger()))

	if countOnly, _ := cmd.Flags().GetBool("count"); countOnly {
		count, err := client.Count(ctx, c, srch)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), count)
		return err
	}

	res, err := client.RunWithCount(ctx, c, srch, opts...)
	if err != nil {
		return err
	}

	output, err := newSearchOutput(res)
	if err != nil {
		return err
	}

	if tmpl, _ := cmd.Flags().GetString("template"); tmpl != "" {
		return renderTemplate(cmd.OutOrStdout(), tmpl, output.Entities)
	}
	return print(cmd, output)
}

func searchRunOptions(cmd *cobra.Command) ([]client.RunOption, error) {
	offset, _ := cmd.Flags().GetInt("offset")
	limit, _ := cmd.Flags().GetInt("limit")
	opts := []client.RunOption{client.WithLimit(offset, limit)}

	sortBy, _ := cmd.Flags().GetString("sort-by")
	if sortBy != "" {
		field, order, err := parseSortBy(sortBy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithSortBy(field, order))
	}
	return opts, nil
}

// parseSortBy parses <field>[:asc|:desc].
func parseSortBy(value string) (string, client.SortOrder, error) {
	field, order, found := strings.Cut(value, ":")
	if !found {
		return field, client.SortAsc, nil
	}
	switch o := client.SortOrder(strings.ToUpper(order)); o {
	case client.SortAsc, client.SortDesc:
		return field, o, nil
	default:
		return "", "", fmt.Errorf("%w: %q", client.ErrInvalidSortOrder, order)
	}
}

type searchOutput struct {
	Count    int64          `json:"count"`
	Entities []entityOutput `json:"entities"`
}

type entityOutput struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

func newSearchOutput(res *client.Result[*entity.Entity]) (*searchOutput, error) {
	out := &searchOutput{
		Count:    res.Count,
		Entities: make([]entityOutput, 0, len(res.Entities)),
	}
	for _, e := range res.Entities {
		doc, err := e.Data.JSON()
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", e.ID, err)
		}
		data := map[string]any{}
		if err := json.Unmarshal(doc, &data); err != nil {
			return nil, fmt.Errorf("entity %s: %w", e.ID, err)
		}
		out.Entities = append(out.Entities, entityOutput{ID: e.ID.String(), Data: data})
	}
	return out, nil
}

func (o *searchOutput) PrettyPrint() (string, error) {
	data := pterm.TableData{{"ID", "Data"}}
	for _, e := range o.Entities {
		doc, err := json.Marshal(e.Data)
		if err != nil {
			return "", err
		}
		data = append(data, []string{e.ID, string(doc)})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\n%d of %d matching entities", table, len(o.Entities), o.Count), nil
}

// renderTemplate renders the template once per entity, each on its own
// line.
func renderTemplate(w io.Writer, text string, entities []entityOutput) error {
	tmpl, err := template.New("entity").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}
	var buf bytes.Buffer
	for _, e := range entities {
		if err := tmpl.Execute(&buf, e); err != nil {
			return fmt.Errorf("rendering entity %s: %w", e.ID, err)
		}
		buf.WriteByte('\n')
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// quoteCommand renders the command so that it can be pasted in redis-cli.
func quoteCommand(args []string) string {
	quoted := make([]string, 0, len(args))
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'\\") {
			a = strconv.Quote(a)
		}
		quoted = append(quoted, a)
	}
	return strings.Join(quoted, " ")
}
