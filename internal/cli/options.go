// internal/cli/options.go
package cli

import (
	"errors"
	"fmt"
	"io"

	flags "github.com/jessevdk/go-flags"

	"kgraph/internal/config"
	"kgraph/internal/version"
)

// Command names.
const (
	CmdBuild = "build"
	CmdMerge = "merge"
	CmdServe = "serve"
)

// Global options apply to every command.
type Global struct {
	LogLevel  string `long:"log-level" default:"info" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"log level"`
	LogFormat string `long:"log-format" default:"text" choice:"text" choice:"json" description:"log format"`
	Version   bool   `short:"v" long:"version" description:"print version and exit"`
}

// GraphOptions overlay the YAML configuration. A flag given on the command
// line wins over the file; an absent flag keeps the file's (or the
// default) value.
type GraphOptions struct {
	Config string `short:"c" long:"config" value-name:"FILE" description:"YAML configuration file"`

	K                     int     `short:"k" long:"kmer" value-name:"K" description:"k-mer length; nodes are (k-1)-mers [31]"`
	ChunkSize             int     `long:"chunk-size" value-name:"N" description:"chunk size in chunk-unit [1000]"`
	ChunkUnit             string  `long:"chunk-unit" choice:"sequences" choice:"bytes" description:"chunk size unit [sequences]"`
	FalsePositiveRate     float64 `long:"fp-rate" value-name:"P" description:"per-chunk filter false-positive rate [0.001]"`
	ExpectedDistinctKmers int     `long:"expected-kmers" value-name:"N" description:"distinct k-mers per chunk used to size filters [1000000]"`
	Canonicalize          bool    `long:"canonical" description:"merge each k-mer with its reverse complement"`
	Promotion             string  `long:"promotion" choice:"second-sighting" choice:"first-sighting" description:"when a k-mer becomes an edge [second-sighting]"`
	TrackProvenance       bool    `long:"provenance" description:"record source labels on nodes and edges"`
	Workers               int     `short:"j" long:"workers" value-name:"N" description:"worker goroutines (0 = all CPUs) [0]"`
	FailurePolicy         string  `long:"failure-policy" choice:"fail-fast" choice:"best-effort" description:"what a failed chunk does to the run [fail-fast]"`
	Reduce                string  `long:"reduce" choice:"tree" choice:"sequential" description:"merge strategy [tree]"`
	MinMultiplicity       uint64  `long:"min-multiplicity" value-name:"N" description:"drop edges seen fewer than N times after merging [0]"`
	KeepFilter            bool    `long:"keep-filter" description:"keep the union of chunk filters for k-mer queries"`

	set map[string]bool
}

// OutputOptions choose where and how a graph is written.
type OutputOptions struct {
	Format string `short:"f" long:"format" choice:"tsv" choice:"json" choice:"jsonl" choice:"gfa" choice:"msgpack" description:"output format (default: from --output extension, else tsv)"`
	Output string `short:"o" long:"output" default:"-" value-name:"FILE" description:"output file ('-' = stdout)"`
	Store  string `long:"store" value-name:"FILE" description:"also save the graph into a bbolt store"`
}

// BuildOptions are the flags of "kgraph build".
type BuildOptions struct {
	GraphOptions  `group:"Graph construction"`
	OutputOptions `group:"Output"`

	Label   string `long:"label" default:"file" choice:"file" choice:"record" description:"provenance label: file base name or record ID"`
	Window  int    `long:"window" value-name:"N" description:"split records longer than N bases into windows overlapping by k-1 (0 = off)"`
	Report  string `long:"report" value-name:"FILE" description:"write the run report as JSON"`
	Metrics string `long:"metrics-file" value-name:"FILE" description:"write the run's Prometheus metrics in text exposition format"`

	Args struct {
		Inputs []string `positional-arg-name:"FILE" required:"1" description:"FASTA/FASTQ files, globs, directories or '-'"`
	} `positional-args:"yes"`
}

// MergeOptions are the flags of "kgraph merge".
type MergeOptions struct {
	OutputOptions `group:"Output"`

	InputFormat     string `long:"input-format" choice:"json" choice:"msgpack" description:"format of the input graphs (default: from extension, else json)"`
	Reduce          string `long:"reduce" default:"tree" choice:"tree" choice:"sequential" description:"merge strategy"`
	Workers         int    `short:"j" long:"workers" value-name:"N" description:"merge goroutines (0 = all CPUs)"`
	MinMultiplicity uint64 `long:"min-multiplicity" value-name:"N" description:"drop edges seen fewer than N times after merging"`

	Args struct {
		Graphs []string `positional-arg-name:"GRAPH" required:"1" description:"serialized graphs"`
	} `positional-args:"yes"`
}

// ServeOptions are the flags of "kgraph serve".
type ServeOptions struct {
	Store  string `long:"store" required:"yes" value-name:"FILE" description:"bbolt store written by build or merge"`
	Listen string `short:"l" long:"listen" default:"127.0.0.1:8080" value-name:"ADDR" description:"listen address"`
}

// Invocation is a parsed command line.
type Invocation struct {
	Command string // empty only with --version
	Global  Global
	Build   BuildOptions
	Merge   MergeOptions
	Serve   ServeOptions

	parser *flags.Parser
}

func newParser(inv *Invocation) *flags.Parser {
	p := flags.NewNamedParser("kgraph", flags.HelpFlag|flags.PassDoubleDash)
	p.LongDescription = fmt.Sprintf("kgraph %s: chunked, Bloom-filtered de Bruijn graph construction", version.Version)
	p.SubcommandsOptional = true
	if _, err := p.AddGroup("Global options", "", &inv.Global); err != nil {
		panic(err)
	}
	add := func(name, short, long string, data any) {
		if _, err := p.AddCommand(name, short, long, data); err != nil {
			panic(err)
		}
	}
	add(CmdBuild, "Build a graph from sequence files",
		"Read FASTA/FASTQ inputs, build chunk-local graphs in parallel and merge them.", &inv.Build)
	add(CmdMerge, "Merge serialized graphs",
		"Merge graphs written by build (json or msgpack) with the same algebra as chunk merging.", &inv.Merge)
	add(CmdServe, "Serve a stored graph over HTTP",
		"Answer node, successor and k-mer queries from a bbolt store.", &inv.Serve)
	return p
}

// Parse parses argv. Help requests come back as an error for which IsHelp
// is true; its message is the help text.
func Parse(argv []string) (*Invocation, error) {
	inv := &Invocation{}
	p := newParser(inv)
	inv.parser = p
	rest, err := p.ParseArgs(argv)
	if err != nil {
		return inv, err
	}
	if len(rest) > 0 {
		return inv, fmt.Errorf("unexpected arguments: %v", rest)
	}
	if inv.Global.Version {
		return inv, nil
	}
	if p.Active == nil {
		return inv, errors.New("a command is required: build, merge or serve")
	}
	inv.Command = p.Active.Name
	switch inv.Command {
	case CmdBuild:
		inv.Build.GraphOptions.set = setOptions(p.Active.Group)
		if inv.Build.Window < 0 {
			return inv, errors.New("--window must be >= 0")
		}
	case CmdMerge:
		if inv.Merge.Workers < 0 {
			return inv, errors.New("--workers must be >= 0")
		}
	}
	return inv, nil
}

// setOptions collects the long names of options given explicitly.
func setOptions(g *flags.Group) map[string]bool {
	set := map[string]bool{}
	var walk func(*flags.Group)
	walk = func(g *flags.Group) {
		for _, o := range g.Options() {
			if o.IsSet() && !o.IsSetDefault() {
				set[o.LongName] = true
			}
		}
		for _, sub := range g.Groups() {
			walk(sub)
		}
	}
	walk(g)
	return set
}

// WriteHelp prints usage for the active command, or the whole program.
func (inv *Invocation) WriteHelp(w io.Writer) {
	if inv.parser != nil {
		inv.parser.WriteHelp(w)
	}
}

// IsHelp reports whether err is a help request.
func IsHelp(err error) bool {
	var fe *flags.Error
	return errors.As(err, &fe) && fe.Type == flags.ErrHelp
}

// Resolve loads --config (or the defaults) and applies explicit flags on
// top. The result is validated.
func (o *GraphOptions) Resolve() (config.Config, error) {
	cfg := config.Default()
	if o.Config != "" {
		var err error
		if cfg, err = config.Load(o.Config); err != nil {
			return cfg, err
		}
	}
	if o.set["kmer"] {
		cfg.K = o.K
	}
	if o.set["chunk-size"] {
		cfg.ChunkSize = o.ChunkSize
	}
	if o.set["chunk-unit"] {
		cfg.ChunkUnit = o.ChunkUnit
	}
	if o.set["fp-rate"] {
		cfg.FalsePositiveRate = o.FalsePositiveRate
	}
	if o.set["expected-kmers"] {
		cfg.ExpectedDistinctKmers = o.ExpectedDistinctKmers
	}
	if o.set["canonical"] {
		cfg.Canonicalize = true
	}
	if o.set["promotion"] {
		cfg.Promotion = o.Promotion
	}
	if o.set["provenance"] {
		cfg.TrackProvenance = true
	}
	if o.set["workers"] {
		cfg.Workers = o.Workers
	}
	if o.set["failure-policy"] {
		cfg.FailurePolicy = o.FailurePolicy
	}
	if o.set["reduce"] {
		cfg.Reduce = o.Reduce
	}
	if o.set["min-multiplicity"] {
		cfg.MinMultiplicity = o.MinMultiplicity
	}
	if o.set["keep-filter"] {
		cfg.KeepFilter = true
	}
	return cfg, cfg.Validate()
}
