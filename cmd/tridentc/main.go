// Command tridentc compiles a serialized Trident AST to linked Triton
// assembly. It has no front end of its own: modules arrive already
// parsed and type-checked, as a JSON document on stdin or --input.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/config"
	"github.com/tridentlang/trident/pkg/trident"
)

var (
	inputPath  string
	outputPath string
	target     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "tridentc",
	Short: "Compile a serialized Trident AST to linked Triton assembly",
	Long: `tridentc reads one or more Trident modules as JSON, builds each
function to TIR, optimizes, lowers to the target instruction set, and
links the result into a single assembly program.

Input is a JSON array of modules, read from --input or stdin. Exactly
one module must carry "IsEntry": true.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the JSON module array (default: stdin)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "path to write linked assembly (default: stdout)")
	rootCmd.Flags().StringVarP(&target, "target", "t", "", "lowering target (default: the compiler's built-in default)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level phase logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	modules, err := readModules(inputPath)
	if err != nil {
		return fatal("reading input: %v", err)
	}

	cfg := config.Default()
	if target != "" {
		cfg.Target = target
	}

	linked, diags := trident.Compile(cfg, modules)
	for _, d := range diags {
		logrus.WithField("code", d.Code).Error(d.Message)
	}
	if diags.HasErrors() {
		return fatal("compilation failed with %d diagnostic(s)", len(diags))
	}

	return writeOutput(outputPath, linked)
}

func readModules(path string) ([]*ast.Module, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var modules []*ast.Module
	if err := json.Unmarshal(raw, &modules); err != nil {
		return nil, fmt.Errorf("decoding module array: %w", err)
	}
	return modules, nil
}

func writeOutput(path, text string) error {
	if path == "" {
		_, err := fmt.Fprintln(os.Stdout, text)
		return err
	}
	return os.WriteFile(path, []byte(text+"\n"), 0o644)
}

func fatal(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	logrus.Error(err)
	return err
}
