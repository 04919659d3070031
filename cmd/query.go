package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cottand/jet/frontend/ilerr"
	"github.com/cottand/jet/internal/declfile"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var QueryCmd = &cobra.Command{
	Use:   "query subtype|common|intersect TYPE...",
	Short: "Answer a question about types",
	Example: `  jet query subtype "List<Int>" "List<out Number>"
  jet query common Int Double
  jet query --decls shapes.yaml intersect Named Sized`,
	RunE:         runQuery,
	Args:         cobra.MinimumNArgs(2),
	SilenceUsage: true,
}

var (
	queryOutput *outputFlags
	queryDecls  *string
)

func init() {
	queryOutput = registerOutputFlags(QueryCmd)
	queryDecls = QueryCmd.Flags().StringP("decls", "f", "", "declaration file whose classes are in scope; its queries are ignored")
}

func runQuery(cmd *cobra.Command, args []string) error {
	p, err := queryOutput.printer(cmd)
	if err != nil {
		return err
	}
	f := &declfile.File{Name: "<args>"}
	if *queryDecls != "" {
		target, err := filepath.Abs(*queryDecls)
		if err != nil {
			return fmt.Errorf("could not get absolute path of declarations: %w", err)
		}
		if f, err = declfile.Load(os.DirFS(filepath.Dir(target)), filepath.Base(target)); err != nil {
			return err
		}
		f.Name = *queryDecls
	}

	q, err := queryOf(args[0], args[1:])
	if err != nil {
		return err
	}
	f.Queries = []declfile.Query{q}
	m, err := declfile.Declare(f)
	if err != nil {
		return fmt.Errorf("could not declare %s: %w", f.Name, err)
	}
	outcome := m.Check()[0]
	for _, diagnostic := range outcome.Diagnostics {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), ilerr.FormatWithCode(diagnostic))
	}
	p.println("%s", p.paint(green, outcome.Answer))
	if len(outcome.Diagnostics) > 0 {
		return fmt.Errorf("%d types did not resolve", len(outcome.Diagnostics))
	}
	return nil
}

func queryOf(kind string, types []string) (declfile.Query, error) {
	texts := lo.Map(types, func(t string, i int) declfile.Text {
		return declfile.Text{Value: t, Column: 1}
	})
	var q declfile.Query
	switch kind {
	case "subtype":
		if len(texts) != 2 {
			return q, fmt.Errorf("subtype takes two types, got %d", len(texts))
		}
		q.Subtype = texts
	case "common":
		q.Common = texts
	case "intersect":
		q.Intersect = texts
	default:
		return q, fmt.Errorf("unknown query %q: expected subtype, common or intersect", kind)
	}
	return q, nil
}
