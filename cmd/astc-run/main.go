package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	astcruntime "github.com/astcvm/astc-runtime"
	"github.com/astcvm/astc-runtime/config"
	"github.com/astcvm/astc-runtime/runtime"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to TOML config file")
		modules     = flag.String("modules", "", "Modules to load (name=path,name2=path2)")
		autoload    = flag.Bool("autoload", false, "Load the platform module set from the module directory")
		stdlib      = flag.String("stdlib", "", "Register the stdlib interface set under this module name")
		callName    = flag.String("call", "", "Bridge interface to call")
		callArgs    = flag.String("args", "", "Call arguments (tag:value,... e.g. i32:15,i32:27)")
		execFile    = flag.String("exec", "", "Bytecode file to execute")
		execNames   = flag.String("names", "", "Interface name table for call instructions (comma-separated)")
		list        = flag.Bool("list", false, "List loaded modules and registered interfaces, then exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if err := run(*configFile, *modules, *stdlib, *callName, *callArgs, *execFile, *execNames, *autoload, *list, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, modulesStr, stdlib, callName, callArgs, execFile, execNames string, autoload, list, interactive bool) error {
	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return err
		}
	}

	ctx := context.Background()
	rt, err := runtime.New(ctx, cfg, runtime.Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	if stdlib != "" {
		if err := rt.Bridge().RegisterStdlib(stdlib); err != nil {
			return err
		}
	}

	if autoload {
		n := rt.AutoLoad()
		fmt.Printf("Loaded %d platform modules\n", n)
	}

	if modulesStr != "" {
		paths, err := parseModules(modulesStr)
		if err != nil {
			return err
		}
		order, err := rt.LoadModules(paths)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded: %s\n", strings.Join(order, ", "))
	}

	if interactive {
		return runInteractive(rt)
	}

	if list {
		printState(rt)
		return nil
	}

	if callName != "" {
		args, err := parseArgs(callArgs)
		if err != nil {
			return err
		}
		var result astcruntime.TaggedValue
		if err := rt.Call(callName, args, &result); err != nil {
			return err
		}
		fmt.Println(result.String())
		return nil
	}

	if execFile != "" {
		buf, err := os.ReadFile(execFile)
		if err != nil {
			return err
		}
		var names []string
		if execNames != "" {
			names = strings.Split(execNames, ",")
		}
		v, sig, err := rt.Execute(buf, names)
		if err != nil {
			return err
		}
		fmt.Printf("signal=%s instructions=%d calls=%d depth=%d\n",
			sig, v.InstCount, v.CallCount, v.Depth())
		if top, err := v.Pop(); err == nil {
			fmt.Printf("stack top: %d\n", int32(top))
		}
		return nil
	}

	printState(rt)
	return nil
}

func printState(rt *runtime.Runtime) {
	mods := rt.Registry().Modules()
	fmt.Printf("Modules (%d):\n", len(mods))
	for _, m := range mods {
		fmt.Printf("  %-20s %s  %s/%s  %d exports  [%s]\n",
			m.Name, m.Path,
			m.File.Header.Arch, m.File.Header.Type,
			len(m.File.Exports), m.State)
	}

	names := rt.Bridge().Interfaces()
	fmt.Printf("Interfaces (%d):\n", len(names))
	for _, name := range names {
		if in, ok := rt.Bridge().Lookup(name); ok {
			fmt.Printf("  %-20s %s\n", name, in.Signature.String())
		}
	}
}

func parseModules(s string) (map[string]string, error) {
	paths := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		name, path, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("bad module spec %q, want name=path", pair)
		}
		paths[name] = path
	}
	return paths, nil
}

// parseArgs decodes tag:value argument lists like "i32:15,f64:2.5,str:hi".
func parseArgs(s string) ([]astcruntime.TaggedValue, error) {
	if s == "" {
		return nil, nil
	}
	var out []astcruntime.TaggedValue
	for _, part := range strings.Split(s, ",") {
		tag, value, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("bad argument %q, want tag:value", part)
		}
		v, err := parseArg(tag, value)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseArg(tag, value string) (astcruntime.TaggedValue, error) {
	switch tag {
	case "i32":
		n, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return astcruntime.Void(), err
		}
		return astcruntime.Int32(int32(n)), nil
	case "i64":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return astcruntime.Void(), err
		}
		return astcruntime.Int64(n), nil
	case "f32":
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return astcruntime.Void(), err
		}
		return astcruntime.Float32(float32(f)), nil
	case "f64":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return astcruntime.Void(), err
		}
		return astcruntime.Float64(f), nil
	case "ptr":
		h, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return astcruntime.Void(), err
		}
		return astcruntime.Pointer(astcruntime.Handle(h)), nil
	case "str", "string":
		return astcruntime.String(value), nil
	default:
		return astcruntime.Void(), fmt.Errorf("unknown tag %q", tag)
	}
}
