package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/davkit/propstore/internal/logger"
	"github.com/davkit/propstore/pkg/config"
	"github.com/davkit/propstore/pkg/props"
	"github.com/davkit/propstore/pkg/registry"
	"github.com/davkit/propstore/pkg/snapshot"
	"github.com/davkit/propstore/pkg/store/properties"
)

const usageText = `PropStore - resource property store CLI

Usage:
  propstore [flags] <command> [args]

Commands:
  get <path> [name ...]        Print the owner's properties at a path
  set <path> <name=value> ...  Insert or update properties at a path
  del <path> <name> ...        Delete named properties at a path
  resolve <path> [name ...]    Print the merged published + owner view
  list [path]                  List the owner's records, optionally at one path
  move <source> <destination>  Move the owner's records to a new path
  rmpath <path>                Remove every record the owner holds at a path
  dump                         Write a snapshot of the store to the snapshot sink
  restore <archive>            Apply a snapshot archive to the store
  snapshots                    List archives on the snapshot sink
  check                        Health-check every configured store
  init                         Write a default config file

Property names use the "{namespace}localname" form, e.g. "{DAV:}displayname".
Values passed to set are stored as strings; a value starting with '<' is
stored as an XML fragment and must be well-formed.

Flags:
`

// commandEnv carries everything a command needs after startup wiring.
type commandEnv struct {
	cfg       *config.Config
	reg       *registry.Registry
	store     properties.Store
	storeName string
	owner     string
	cache     props.CacheMetrics
	replace   bool
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: search standard locations)")
	storeName := flag.String("store", "", "Store to operate on (default: first configured store)")
	owner := flag.String("owner", "admin", "Acting owner for property operations")
	logLevel := flag.String("log-level", "", "Override configured log level (DEBUG, INFO, WARN, ERROR)")
	replace := flag.Bool("replace", false, "restore: overwrite records that already exist")
	force := flag.Bool("force", false, "init: overwrite an existing config file")

	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usageText)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)
	args := flag.Args()[1:]

	// init runs before config load; it creates the file the other
	// commands read.
	if command == "init" {
		runInit(*configPath, *force)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Configure logger
	logger.SetLevel(cfg.Logging.Level)
	if *logLevel != "" {
		logger.SetLevel(*logLevel)
	}
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to open log output: %v", err)
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel the context on interrupt so long operations (dump,
	// restore) stop at the next batch boundary instead of mid-write.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Interrupt received, canceling...")
		cancel()
	}()

	metricsResult := config.InitializeMetrics(cfg)
	if metricsResult.Server != nil {
		go func() {
			if err := metricsResult.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
		logger.Info("Metrics server listening on port %d", metricsResult.Server.Port())
	}

	reg, err := config.InitializeRegistry(ctx, cfg, metricsResult.Store)
	if err != nil {
		log.Fatalf("Failed to initialize stores: %v", err)
	}

	name, store, err := selectStore(reg, *storeName)
	if err != nil {
		_ = reg.CloseAll()
		log.Fatalf("Failed to select store: %v", err)
	}
	logger.Debug("Using store %q as %q", name, *owner)

	cmdErr := runCommand(ctx, command, args, commandEnv{
		cfg:       cfg,
		reg:       reg,
		store:     store,
		storeName: name,
		owner:     *owner,
		cache:     metricsResult.Cache,
		replace:   *replace,
	})

	if err := reg.CloseAll(); err != nil {
		logger.Error("Error closing stores: %v", err)
	}

	if cmdErr != nil {
		logger.Error("Command %q failed: %v", command, cmdErr)
		os.Exit(1)
	}
}

// selectStore resolves the -store flag against the registry; an empty
// name means the first configured store.
func selectStore(reg *registry.Registry, name string) (string, properties.Store, error) {
	if name == "" {
		return reg.DefaultStore()
	}
	store, err := reg.GetStore(name)
	if err != nil {
		return "", nil, err
	}
	return name, store, nil
}

func runCommand(ctx context.Context, command string, args []string, env commandEnv) error {
	switch command {
	case "get":
		return runGet(ctx, env, args)
	case "set":
		return runSet(ctx, env, args)
	case "del":
		return runDel(ctx, env, args)
	case "resolve":
		return runResolve(ctx, env, args)
	case "list":
		return runList(ctx, env, args)
	case "move":
		return runMove(ctx, env, args)
	case "rmpath":
		return runRemovePath(ctx, env, args)
	case "dump":
		return runDump(ctx, env)
	case "restore":
		return runRestore(ctx, env, args)
	case "snapshots":
		return runSnapshots(ctx, env)
	case "check":
		return runCheck(ctx, env)
	default:
		return fmt.Errorf("unknown command %q (run without arguments for usage)", command)
	}
}

func runInit(configPath string, force bool) {
	var (
		path string
		err  error
	)
	if configPath != "" {
		path = configPath
		err = config.InitConfigToPath(configPath, force)
	} else {
		path, err = config.InitConfig(force)
	}
	if err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	fmt.Printf("Config file written to %s\n", path)
}

func runGet(ctx context.Context, env commandEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: get <path> [name ...]")
	}

	session, err := props.NewSession(env.store, env.owner, env.cache)
	if err != nil {
		return err
	}

	result, err := session.LookupOwner(ctx, args[0], args[1:])
	if err != nil {
		return err
	}

	printProperties(result)
	return nil
}

func runSet(ctx context.Context, env commandEnv, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set <path> <name=value> ...")
	}

	changes := make(map[string]*props.Value, len(args)-1)
	for _, arg := range args[1:] {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("argument %q is not of the form name=value", arg)
		}
		value := parseValue(raw)
		changes[name] = &value
	}

	session, err := props.NewSession(env.store, env.owner, env.cache)
	if err != nil {
		return err
	}

	if err := session.ApplyChanges(ctx, args[0], changes); err != nil {
		return err
	}

	logger.Info("Applied %d change(s) at %s", len(changes), args[0])
	return nil
}

func runDel(ctx context.Context, env commandEnv, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: del <path> <name> ...")
	}

	// A nil value deletes the property
	changes := make(map[string]*props.Value, len(args)-1)
	for _, name := range args[1:] {
		changes[name] = nil
	}

	session, err := props.NewSession(env.store, env.owner, env.cache)
	if err != nil {
		return err
	}

	if err := session.ApplyChanges(ctx, args[0], changes); err != nil {
		return err
	}

	logger.Info("Deleted %d name(s) at %s", len(changes), args[0])
	return nil
}

func runResolve(ctx context.Context, env commandEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: resolve <path> [name ...]")
	}
	path := args[0]

	// Requested names pass through the ignore/re-inclusion policy the
	// same way a server request would.
	names := args[1:]
	if len(names) > 0 {
		names = props.FilterRequested(path, names)
		if len(names) == 0 {
			fmt.Println("(all requested names are computed elsewhere)")
			return nil
		}
	}

	session, err := props.NewSession(env.store, env.owner, env.cache)
	if err != nil {
		return err
	}

	result, err := session.Resolve(ctx, path, names)
	if err != nil {
		return err
	}

	printProperties(result)
	return nil
}

func runList(ctx context.Context, env commandEnv, args []string) error {
	var (
		records []properties.Record
		err     error
	)

	switch len(args) {
	case 0:
		records, err = env.store.FetchOwner(ctx, env.owner)
	case 1:
		records, err = env.store.FetchPath(ctx, env.owner, props.PathKey(args[0]), nil)
	default:
		return fmt.Errorf("usage: list [path]")
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("(no records)")
		return nil
	}
	for _, record := range records {
		fmt.Printf("%s\t%s\t%s\t%d bytes\n",
			record.Path, record.Name, props.Kind(record.Kind), len(record.Value))
	}
	return nil
}

func runMove(ctx context.Context, env commandEnv, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: move <source> <destination>")
	}

	session, err := props.NewSession(env.store, env.owner, env.cache)
	if err != nil {
		return err
	}

	if err := session.MovePath(ctx, args[0], args[1]); err != nil {
		return err
	}

	logger.Info("Moved properties from %s to %s", args[0], args[1])
	return nil
}

func runRemovePath(ctx context.Context, env commandEnv, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: rmpath <path>")
	}

	session, err := props.NewSession(env.store, env.owner, env.cache)
	if err != nil {
		return err
	}

	if err := session.DeletePath(ctx, args[0]); err != nil {
		return err
	}

	logger.Info("Removed all properties at %s", args[0])
	return nil
}

func runDump(ctx context.Context, env commandEnv) error {
	sink, err := config.CreateSnapshotSink(ctx, &env.cfg.Snapshot)
	if err != nil {
		return err
	}

	logger.Info("Dumping store %q...", env.storeName)
	result, err := snapshot.Dump(ctx, env.store, env.storeName, sink)
	if err != nil {
		return err
	}

	fmt.Printf("Snapshot %s written: %d record(s)\n", result.Name, result.Records)
	return nil
}

func runRestore(ctx context.Context, env commandEnv, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: restore <archive>")
	}

	sink, err := config.CreateSnapshotSink(ctx, &env.cfg.Snapshot)
	if err != nil {
		return err
	}

	logger.Info("Restoring archive %q into store %q...", args[0], env.storeName)
	result, err := snapshot.Restore(ctx, env.store, sink, args[0], snapshot.RestoreOptions{
		Replace: env.replace,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Restored snapshot %s (store %q, created %s)\n",
		result.Info.ID, result.Info.Store, result.Info.Created.Format(time.RFC3339))
	fmt.Printf("  inserted: %d\n", result.Inserted)
	fmt.Printf("  replaced: %d\n", result.Replaced)
	fmt.Printf("  skipped:  %d\n", result.Skipped)
	return nil
}

func runSnapshots(ctx context.Context, env commandEnv) error {
	sink, err := config.CreateSnapshotSink(ctx, &env.cfg.Snapshot)
	if err != nil {
		return err
	}

	names, err := sink.List(ctx)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Println("(no snapshots)")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runCheck(ctx context.Context, env commandEnv) error {
	results := env.reg.CheckAll(ctx)
	names := env.reg.ListStores()

	failed := 0
	for _, name := range names {
		if err := results[name]; err != nil {
			fmt.Printf("%s: UNHEALTHY: %v\n", name, err)
			failed++
		} else {
			fmt.Printf("%s: ok\n", name)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d store(s) unhealthy", failed, len(names))
	}
	return nil
}

// parseValue decides how a raw CLI string is stored: values that look
// like markup become XML fragments, everything else a plain string.
func parseValue(raw string) props.Value {
	if strings.HasPrefix(strings.TrimSpace(raw), "<") {
		return props.XMLValue(raw)
	}
	return props.StringValue(raw)
}

func printProperties(result []props.Property) {
	if len(result) == 0 {
		fmt.Println("(no properties)")
		return
	}
	for _, prop := range result {
		fmt.Printf("%s\t%s\t%s\n", prop.Name, prop.Value.Kind(), prop.Value.String())
	}
}
