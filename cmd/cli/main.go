package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dd0wney/cluso-kv/pkg/logging"
	"github.com/dd0wney/cluso-kv/pkg/lsm"
)

type CLI struct {
	engine  *lsm.Engine
	scanner *bufio.Scanner
	out     *bufio.Writer
}

func main() {
	configPath := flag.String("config", "", "Optional YAML config file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error); silent when empty")
	flag.Parse()

	opts := lsm.DefaultOptions()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(2)
		}
		opts = loaded
	}
	if *logLevel != "" {
		opts.Logger = logging.NewJSONLogger(os.Stderr, logging.ParseLevel(*logLevel))
	}

	engine, err := lsm.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create engine: %v\n", err)
		os.Exit(2)
	}

	printBanner()
	fmt.Println("Type HELP for available commands, EXIT to quit")
	fmt.Println()

	cli := &CLI{
		engine:  engine,
		scanner: bufio.NewScanner(os.Stdin),
		out:     bufio.NewWriter(os.Stdout),
	}
	cli.run()
}

func printBanner() {
	fmt.Println(`╔══════════════════════════════════════╗
║   cluso-kv — LSM storage engine CLI  ║
╚══════════════════════════════════════╝`)
}

func (cli *CLI) run() {
	for {
		fmt.Print("kv> ")

		if !cli.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(cli.scanner.Text())
		if input == "" {
			continue
		}

		verb := strings.ToUpper(strings.Fields(input)[0])
		if verb == "EXIT" || verb == "QUIT" {
			fmt.Println("Goodbye!")
			break
		}

		cli.executeCommand(input)
		cli.out.Flush()
		fmt.Println()
	}
}

func (cli *CLI) executeCommand(input string) {
	cmd, err := ParseCommand(input)
	if err != nil {
		fmt.Fprintf(cli.out, "error: %v\n", err)
		return
	}

	switch cmd.Verb {
	case VerbPut:
		cli.handlePut(cmd)
	case VerbGet:
		cli.handleGet(cmd)
	case VerbDelete:
		cli.handleDelete(cmd)
	case VerbCompact:
		cli.handleCompact(cmd)
	case VerbStats:
		cli.handleStats()
	case VerbClear:
		cli.handleClear()
	case VerbHelp:
		cli.handleHelp()
	}
}

func (cli *CLI) handlePut(cmd *Command) {
	res, err := cli.engine.Put([]byte(cmd.Key), cmd.Value)
	if err != nil {
		fmt.Fprintf(cli.out, "error: %v\n", err)
		return
	}

	fmt.Fprintf(cli.out, "OK (%s, %s, %v)\n", res.Op, res.Complexity, res.Elapsed)
	if res.Flushed {
		fmt.Fprintf(cli.out, "  flushed memtable -> L0 table %d (%d records)\n",
			res.Flush.TableID, res.Flush.Records)
	}
	for _, c := range res.Compactions {
		fmt.Fprintf(cli.out, "  compacted L%d -> L%d (%d records out, %d duplicates removed)\n",
			c.SourceLevel, c.TargetLevel, c.OutputRecords, c.DuplicatesRemoved)
	}
}

func (cli *CLI) handleGet(cmd *Command) {
	res, err := cli.engine.Get([]byte(cmd.Key))
	if err != nil {
		fmt.Fprintf(cli.out, "error: %v\n", err)
		return
	}

	if res.Found {
		fmt.Fprintf(cli.out, "found: %s (%v)\n", res.Value, res.Elapsed)
	} else if res.Tombstone {
		fmt.Fprintf(cli.out, "not found (deleted) (%v)\n", res.Elapsed)
	} else {
		fmt.Fprintf(cli.out, "not found (%v)\n", res.Elapsed)
	}

	fmt.Fprintln(cli.out, "search path:")
	for _, step := range res.Path {
		fmt.Fprintf(cli.out, "  %s\n", formatStep(step))
	}
}

func (cli *CLI) handleDelete(cmd *Command) {
	res, err := cli.engine.Delete([]byte(cmd.Key))
	if err != nil {
		fmt.Fprintf(cli.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(cli.out, "OK (tombstone written, %v)\n", res.Elapsed)
	if res.Flushed {
		fmt.Fprintf(cli.out, "  flushed memtable -> L0 table %d\n", res.Flush.TableID)
	}
}

func (cli *CLI) handleCompact(cmd *Command) {
	record, err := cli.engine.Compact(cmd.Level, cmd.Level+1)
	if err != nil {
		fmt.Fprintf(cli.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(cli.out, "compacted L%d -> L%d in %v\n", record.SourceLevel, record.TargetLevel, record.Duration)
	fmt.Fprintf(cli.out, "  sources: %d, overlaps: %d, output records: %d\n",
		record.SourceTables, record.OverlapTables, record.OutputRecords)
	fmt.Fprintf(cli.out, "  duplicates removed: %d, tombstones dropped: %d\n",
		record.DuplicatesRemoved, record.TombstonesDropped)
	fmt.Fprintf(cli.out, "  bytes in: %d, bytes out: %d\n", record.InputBytes, record.OutputBytes)
}

func (cli *CLI) handleStats() {
	s := cli.engine.Stats()

	fmt.Fprintf(cli.out, "engine %s (up %v)\n", s.EngineID, s.Uptime)
	fmt.Fprintf(cli.out, "ops: %d puts, %d gets (%d hits / %d misses), %d deletes, %d flushes\n",
		s.Puts, s.Gets, s.Hits, s.Misses, s.Deletes, s.Flushes)
	fmt.Fprintf(cli.out, "memtable: %d records, height %d, ~%d bytes\n",
		s.Memtable.Records, s.Memtable.Height, s.Memtable.Bytes)

	if len(s.Levels) == 0 {
		fmt.Fprintln(cli.out, "levels: none")
	}
	for _, l := range s.Levels {
		fmt.Fprintf(cli.out, "L%d: %d tables, %d records, ~%d bytes\n",
			l.Level, l.Tables, l.Records, l.Bytes)
	}

	fmt.Fprintf(cli.out, "compactions: %d, duplicates removed: %d, tombstones dropped: %d\n",
		s.Compactions, s.DuplicatesRemoved, s.TombstonesDropped)
	fmt.Fprintf(cli.out, "write amplification: %.3f\n", s.WriteAmplification)
	fmt.Fprintf(cli.out, "bloom: %d checks, %d saved (%.1f%%), fill %.3f\n",
		s.BloomChecks, s.BloomSaved, s.BloomSavedRatio*100, s.BloomFillRatio)
	fmt.Fprintf(cli.out, "block cache: %d hits, %d misses (%.1f%% hit rate)\n",
		s.CacheHits, s.CacheMisses, s.CacheHitRate*100)
}

func (cli *CLI) handleClear() {
	if err := cli.engine.Clear(); err != nil {
		fmt.Fprintf(cli.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(cli.out, "engine cleared")
}

func (cli *CLI) handleHelp() {
	fmt.Fprint(cli.out, `commands:
  PUT key value...   insert or update a key; JSON literals are stored compacted
  GET key            point lookup, prints the search path
  DELETE key         write a tombstone
  COMPACT level      merge level N into level N+1
  STATS              print the statistics snapshot
  CLEAR              reset the engine
  HELP               this summary
  EXIT               quit
`)
}

func formatStep(step lsm.SearchStep) string {
	where := "memtable"
	if step.Level != lsm.MemtableLevel {
		where = fmt.Sprintf("L%d table %d", step.Level, step.TableID)
	}

	switch {
	case step.Tombstone:
		return where + ": tombstone"
	case step.Found:
		return where + ": hit"
	case step.BloomSaved:
		return where + ": miss (bloom saved)"
	default:
		return where + ": miss"
	}
}
