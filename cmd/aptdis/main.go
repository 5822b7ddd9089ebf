package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/zboralski/apt-dumper/apt"
	"github.com/zboralski/apt-dumper/apt/callgraph"
	"github.com/zboralski/apt-dumper/apt/callgraph/render"
	"github.com/zboralski/apt-dumper/apt/config"
	"github.com/zboralski/apt-dumper/apt/decompile"
	"github.com/zboralski/apt-dumper/apt/disasm"
	"github.com/zboralski/apt-dumper/apt/listing"
)

var stderr = termenv.NewOutput(os.Stderr)

func printDiag(d apt.Diagnostic) {
	kind := stderr.String("[" + d.Kind + "]").Foreground(stderr.Color("3"))
	if d.Func != "" {
		fmt.Fprintf(os.Stderr, "diag %s %s #%d: %s\n", kind, d.Func, d.Index, d.Msg)
	} else {
		fmt.Fprintf(os.Stderr, "diag %s #%d: %s\n", kind, d.Index, d.Msg)
	}
}

func printDiags(ds []apt.Diagnostic) {
	for _, d := range ds {
		printDiag(d)
	}
}

func fatal(code int, format string, args ...any) {
	msg := stderr.String("error:").Foreground(stderr.Color("1"))
	fmt.Fprintf(os.Stderr, "%s %s\n", msg, fmt.Sprintf(format, args...))
	os.Exit(code)
}

func writeOutput(path string, data []byte) {
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write %s: %v\n", path, err)
		return
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%s)\n", path, humanize.Bytes(uint64(len(data))))
}

// graphviz renders a .dot file to SVG and PNG next to it.
func graphviz(dotFile string) {
	dotPath, err := exec.LookPath("dot")
	if err != nil {
		fatal(1, "graphviz not found")
	}
	base := strings.TrimSuffix(dotFile, ".dot")
	for _, ext := range []string{"svg", "png"} {
		outFile := base + "." + ext
		args := []string{"-T" + ext, "-o", outFile, dotFile}
		if ext == "png" {
			args = []string{"-T" + ext, "-Gdpi=200", "-o", outFile, dotFile}
		}
		cmd := exec.Command(dotPath, args...)
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			fatal(1, "dot -T%s failed: %v", ext, err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", outFile)
	}
}

func main() {
	disasmFlag := flag.Bool("disasm", false, "write the instruction listing instead of decompiling")
	callgraphFlag := flag.Bool("callgraph", false, "write the callgraph as DOT")
	cfgFlag := flag.Bool("controlflow", false, "write the control flow graph as DOT")
	svgFlag := flag.Bool("svg", false, "render DOT output with graphviz")
	convertFlag := flag.Bool("convert", false, "convert between YAML and CBOR listings")
	modeName := flag.String("mode", "", "decode mode: strict, besteffort (overrides config)")
	workers := flag.Int("workers", 0, "actions decompiled concurrently (overrides config)")
	configPath := flag.String("config", "", "config file (default: nearest "+config.FileName+")")
	verbosity := flag.Int("v", -1, "log verbosity (overrides config)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: aptdis [flags] <listing.yaml|listing.aptc>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.FindAndLoad(filepath.Dir(path))
	}
	if err != nil {
		fatal(2, "%v", err)
	}
	if *modeName != "" {
		if _, ok := apt.ParseMode(*modeName); !ok {
			fatal(2, "unknown mode %q (use strict or besteffort)", *modeName)
		}
		cfg.Decompile.Mode = *modeName
	}
	if *workers > 0 {
		cfg.Decompile.Workers = *workers
	}
	if *verbosity >= 0 {
		cfg.Log.Verbosity = *verbosity
	}
	var logFile *string
	if cfg.Log.File != "" {
		logFile = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity, logFile)

	opt := cfg.Options()
	res, err := listing.DecodeFileOpt(path, opt)
	if err != nil {
		fatal(1, "%v", err)
	}
	printDiags(res.Diags)
	script := res.Value

	base := strings.TrimSuffix(path, filepath.Ext(path))
	title := filepath.Base(path)
	if script.Filename != "" {
		title = script.Filename
	}

	switch {
	case *convertFlag:
		var data []byte
		var out string
		if listing.FormatFor(path) == listing.FormatCBOR {
			data, err = listing.EncodeYAML(script)
			out = base + ".yaml"
		} else {
			data, err = listing.EncodeCBOR(script, cfg.Listing.Encoding)
			out = base + ".aptc"
		}
		if err != nil {
			fatal(1, "%v", err)
		}
		writeOutput(out, data)

	case *callgraphFlag:
		dotFile := base + ".dot"
		writeOutput(dotFile, []byte(render.DOT(callgraph.Build(script), title)))
		if *svgFlag {
			graphviz(dotFile)
		}

	case *cfgFlag:
		dotFile := base + ".cfg.dot"
		writeOutput(dotFile, []byte(render.DOTCFG(callgraph.BuildCFG(script), title)))
		if *svgFlag {
			graphviz(dotFile)
		}

	case *disasmFlag:
		dis, err := disasm.DisasmScriptOpt(script, opt)
		printDiags(dis.Diags)
		if err != nil {
			fatal(1, "%v", err)
		}
		fmt.Print(dis.Value)
		writeOutput(base+".dis", []byte(dis.Value))

	default:
		d := decompile.New(script.Global, opt)
		actions, err := d.Script(context.Background(), script)
		printDiags(actions.Diags)
		if err != nil {
			fatal(1, "%v", err)
		}
		src := decompile.Source(actions.Value)
		fmt.Print(src)
		writeOutput(base+".as", []byte(src))
	}
}
