// compile-check validates a compiler document from a file or stdin and prints
// the panels, or the validated document as JSON or YAML.
//
// Exit codes: 0 valid, 1 parse error, 2 schema error, 3 usage or I/O error.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"

	"identity-compiler/internal/compiler"
)

const (
	exitOK          = 0
	exitParseError  = 1
	exitSchemaError = 2
	exitUsage       = 3
)

const panelsText = `== Identity Delta ==
Market expects:
{{- range .Outputs.IdentityDelta.MarketExpectations}}
  - {{.}}
{{- end}}
You currently signal:
{{- range .Outputs.IdentityDelta.CurrentSignals}}
  - {{.}}
{{- end}}
Top 3 non-obvious gaps (blocking credibility):
{{- range $i, $gap := .Outputs.IdentityDelta.TopNonObviousGaps}}
  {{add1 $i}}. {{$gap}}
{{- end}}

== Proof-of-Work Questline (24 weeks) ==
{{- range .Outputs.Questline}}
Week {{.Week}}: {{.Mission}}
{{- if expanded .}}
    Deliverable: {{.Deliverable}}
    Evidence: {{.Evidence}}
    Timebox: {{.TimeboxHours}} hours
{{- end}}
{{- end}}

== Signal Portfolio ==
{{- range .Outputs.SignalPortfolio.HighSignalArtifacts}}
{{.Name}}
    Why it counts: {{.WhyItCounts}}
    Acceptance criteria: {{if .AcceptanceCriteria}}{{join "; " .AcceptanceCriteria}}{{else}}(none){{end}}
    Evidence link: {{.LinkPlaceholder}}
{{- end}}

== Readiness Gate ==
{{- with .Outputs.ReadinessGate}}
Signal Credibility Score: {{.SignalCredibilityScore}} / 100
{{verdictLabel .Verdict}}
Reasons:
{{- range .Reasons}}
  - {{.}}
{{- end}}
Minimum to reach APPLY NOW:
{{- range .MinimumToReach70}}
  - {{.}}
{{- end}}
{{- end}}
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("compile-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "Path to the compiler output (default: stdin)")
	format := fs.String("format", "text", "Output format: text, json or yaml")
	verdict := fs.String("verdict", "", "Only print the normalized form of this verdict")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if isFlagSet(fs, "verdict") {
		fmt.Fprintln(stdout, compiler.NormalizeVerdict(*verdict))
		return exitOK
	}

	raw, err := readInput(*file, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading input: %v\n", err)
		return exitUsage
	}

	resp, err := compiler.CompileText(string(raw))
	if err != nil {
		return reportError(stderr, err)
	}

	if err := write(stdout, *format, resp); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	return exitOK
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func reportError(stderr io.Writer, err error) int {
	var (
		parseErr  *compiler.ParseError
		schemaErr *compiler.SchemaError
	)
	switch {
	case errors.As(err, &parseErr):
		fmt.Fprintln(stderr, "Failed to parse/validate JSON. Ensure you pasted valid JSON.")
		fmt.Fprintln(stderr, parseErr.Message)
		return exitParseError
	case errors.As(err, &schemaErr):
		fmt.Fprintln(stderr, "JSON parsed, but schema validation failed. Your pasted output is missing required fields.")
		for _, msg := range schemaErr.Messages() {
			fmt.Fprintf(stderr, "  %s\n", msg)
		}
		return exitSchemaError
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
}

func write(w io.Writer, format string, resp *compiler.CompilerResponse) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		funcs := sprig.TxtFuncMap()
		funcs["verdictLabel"] = compiler.VerdictLabel
		funcs["expanded"] = compiler.ExpandedWeek
		tmpl, err := template.New("panels").Funcs(funcs).Parse(panelsText)
		if err != nil {
			return err
		}
		return tmpl.Execute(w, resp)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
