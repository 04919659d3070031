package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cottand/jet/internal/declfile"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:   "check file.yaml...",
	Short: "Evaluate the queries of declaration files",
	Long: `Declares the classes, functions and variables of each file and evaluates
its queries, printing those whose expectations are not met. Fails if any
query fails or if a declaration does not resolve.`,
	RunE:         runCheck,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var (
	checkOutput  *outputFlags
	checkVerbose *bool
)

func init() {
	checkOutput = registerOutputFlags(CheckCmd)
	checkVerbose = CheckCmd.Flags().BoolP("verbose", "v", false, "also print the queries that pass")
}

func runCheck(cmd *cobra.Command, args []string) error {
	p, err := checkOutput.printer(cmd)
	if err != nil {
		return err
	}
	failed := 0
	for _, arg := range args {
		target, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("could not get absolute path of target: %w", err)
		}
		n, err := checkFile(p, os.DirFS(filepath.Dir(target)), filepath.Base(target), arg, *checkVerbose)
		if err != nil {
			return err
		}
		failed += n
	}
	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}

// checkFile prints what fails in the file at path, which is called name in
// positions, and returns how many checks failed
func checkFile(p *printer, fsys fs.FS, path, name string, verbose bool) (int, error) {
	f, err := declfile.Load(fsys, path)
	if err != nil {
		return 0, err
	}
	f.Name = name
	m, err := declfile.Declare(f)
	if err != nil {
		return 0, fmt.Errorf("could not declare %s: %w", name, err)
	}

	declared := m.Trace.Diagnostics().Errors()
	for _, e := range declared {
		p.println("%s", p.paint(red, m.Format(e)))
	}
	failed := len(declared)
	for _, outcome := range m.Check() {
		header := fmt.Sprintf("%s:%d: %s = %s", name, outcome.Query.Line(), outcome.Question, outcome.Answer)
		if outcome.Passed() {
			if verbose {
				p.println("%s %s", p.paint(green, "PASS"), header)
			}
			continue
		}
		failed++
		p.println("%s %s", p.paint(red, "FAIL"), header)
		for _, mismatch := range outcome.Mismatches {
			p.println("    %s", mismatch)
		}
		for _, diagnostic := range outcome.Diagnostics {
			p.println("    %s", p.paint(faint, m.Format(diagnostic)))
		}
	}
	return failed, nil
}
