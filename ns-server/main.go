package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"NS/benchmark"
	"NS/configs"
	"NS/node"
	"NS/script"
	"NS/sim"
)

var (
	lvl         string
	dropRate    float64
	delayRate   float64
	failureRate float64
	recRate     float64
	seed        int64
	scriptPath  string
	interactive bool
	props       string
	prog        string
	store       string
	useWAL      bool
	dataDir     string
	debug       bool
	bench       bool
	benchNodes  int
	benchTicks  int
	benchCmds   int
	benchKeys   int
	benchSkew   float64
	genPath     string
)

func usage() {
	flag.PrintDefaults()
}

func init() {
	flag.StringVar(&lvl, "lvl", configs.Nothing, "the failure level (nothing, drop, delay, crash, or everything)")
	flag.Float64Var(&dropRate, "drop", 0, "the per-packet drop probability")
	flag.Float64Var(&delayRate, "delay", 0, "the per-packet delay probability")
	flag.Float64Var(&failureRate, "cf", 0, "the per-node per-tick crash probability")
	flag.Float64Var(&recRate, "rf", 0, "the per-node per-tick recovery probability")
	flag.Int64Var(&seed, "seed", 1, "the RNG seed, ignored under the everything level")
	flag.StringVar(&scriptPath, "script", "", "the command script to run")
	flag.BoolVar(&interactive, "i", false, "read events from an interactive prompt")
	flag.StringVar(&props, "props", "", "a .properties file with run parameters")
	flag.StringVar(&prog, "node", "ping", "the node program to boot (ping or kv)")
	flag.StringVar(&store, "store", configs.MemoryStorage, "the kv node backend (memory, sql, or mongo)")
	flag.BoolVar(&useWAL, "wal", false, "write redo logs for the memory backend")
	flag.StringVar(&dataDir, "dir", "./data", "the durable storage directory")
	flag.BoolVar(&debug, "debug", false, "log debug info")
	flag.BoolVar(&bench, "bench", false, "run generated traffic instead of a script")
	flag.IntVar(&benchNodes, "bench_nodes", 4, "the number of nodes a traffic run boots")
	flag.IntVar(&benchTicks, "bench_ticks", 100, "the number of ticks a traffic run lasts")
	flag.IntVar(&benchCmds, "bench_cmds", 4, "the commands issued per tick in a traffic run")
	flag.IntVar(&benchKeys, "bench_keys", 1000, "the key space of a traffic run")
	flag.Float64Var(&benchSkew, "bench_skew", 0.9, "the Zipfian skew of a traffic run")
	flag.StringVar(&genPath, "gen", "", "write the generated traffic as a script file and exit")

	flag.Usage = usage
}

func main() {
	flag.Parse()
	if props != "" {
		configs.LoadProperties(props)
	}
	// flags set on the command line win over the properties file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lvl":
			parsed := configs.ParseLvl(lvl)
			if parsed < 0 {
				log.Fatalf("unknown failure level %q", lvl)
			}
			configs.FailureLvl = parsed
		case "drop":
			configs.DropRate = dropRate
		case "delay":
			configs.DelayRate = delayRate
		case "cf":
			configs.FailureRate = failureRate
		case "rf":
			configs.RecoveryRate = recRate
		case "seed":
			configs.RandomSeed = seed
		case "script":
			configs.ScriptLocation = scriptPath
		case "i":
			configs.Interactive = interactive
		case "store":
			configs.StorageType = store
		case "wal":
			configs.UseWAL = useWAL
		case "dir":
			configs.StorageDir = dataDir
		}
	})
	configs.ShowDebugInfo = debug
	configs.ShowWarnings = debug
	configs.ShowTestInfo = debug

	if genPath != "" {
		gen := benchmark.NewTrafficGen(prog, benchNodes, benchKeys, benchSkew, configs.RandomSeed)
		f, err := os.Create(genPath)
		configs.CheckError(err)
		configs.CheckError(gen.WriteScript(f, benchTicks, benchCmds))
		configs.CheckError(f.Close())
		return
	}

	var factory node.Factory
	switch prog {
	case "ping":
		factory = node.NewPingFactory()
	case "kv":
		factory = node.NewKvFactory(configs.StorageType)
	default:
		log.Fatalf("unknown node program %q", prog)
	}

	// the storage workspace belongs to this run alone.
	if configs.UseWAL {
		configs.CheckError(os.RemoveAll(configs.StorageDir))
	}

	var src sim.Source
	switch {
	case bench:
		gen := benchmark.NewTrafficGen(prog, benchNodes, benchKeys, benchSkew, configs.RandomSeed)
		src = script.NewEventSource(gen.Script(benchTicks, benchCmds))
	case configs.Interactive:
		src = nil // built below, sharing the input reader with the controller
	default:
		if configs.ScriptLocation == "" {
			log.Fatal("need -script, -i, or -bench")
		}
		fileSrc, err := script.NewFileSource(configs.ScriptLocation)
		if err != nil {
			log.Fatalf("bad script: %v", err)
		}
		src = fileSrc
	}

	in := sim.NewLineReader(os.Stdin)
	chaos := sim.NewFailureController(configs.FailureLvl, configs.RandomSeed, in, os.Stdout)
	s := sim.NewSimulator(factory, chaos, os.Stdout)
	if src == nil {
		src = script.NewPromptSource(in, os.Stdout)
	}

	begin := time.Now()
	code := s.Run(src)
	s.Stats().Log()
	fmt.Printf("simulated %d ticks in %v\n", s.Now(), time.Since(begin))
	os.Exit(code)
}
