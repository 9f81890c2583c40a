// Package app provides the unirag server application and its maintenance
// commands.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kart-io/unirag/cmd/unirag/app/options"
	"github.com/kart-io/unirag/internal/model"
	"github.com/kart-io/unirag/internal/unirag"
	"github.com/kart-io/unirag/internal/unirag/biz"
	"github.com/kart-io/unirag/internal/unirag/filter"
	"github.com/kart-io/unirag/pkg/errors"
	"github.com/kart-io/unirag/pkg/infra/app"
	"github.com/kart-io/unirag/pkg/validator"
)

const (
	// commandDesc is the description of the command.
	commandDesc = `University RAG Service

Answers natural-language questions about universities of Kazakhstan using
retrieval-augmented generation over a university catalog.

This server provides:
  - Semantic search over the catalog with city, category and ENT score filters
  - Answers generated by an LLM (Gemini, OpenAI, Ollama or the offline provider)
  - A query cache (memory, Redis or Badger)
  - Vector storage in Milvus, PostgreSQL/pgvector or in memory`

	smokeQuestion = "IT университет в Алматы"
	smokeTopK     = 3
)

var (
	title   = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed, color.Bold)
	faint   = color.New(color.Faint)
)

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	askOpts := &askFlags{}
	application := app.NewApp(
		app.WithName(unirag.Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
		app.WithCommand(app.Command{
			Use:   "index",
			Short: "Rebuild the vector index from the catalog",
			Long:  "Prepares every catalog record, replaces the vector collection and runs a smoke search.",
			Args:  cobra.NoArgs,
			Run:   index(opts),
		}),
		app.WithCommand(app.Command{
			Use:   "ask QUESTION",
			Short: "Answer a single question and exit",
			Args:  cobra.MinimumNArgs(1),
			Run:   ask(opts, askOpts),
			Flags: askOpts.AddFlags,
		}),
	)

	return application
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		// Load the configuration options
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := setupSignalContext()

		// Build the server using the configuration
		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		// Run the server with signal context for graceful shutdown
		return server.Run(ctx)
	}
}

// index rebuilds the collection and checks it with a smoke search.
func index(opts *options.ServerOptions) func(args []string) error {
	return func([]string) error {
		components, ctx, err := buildComponents(opts)
		if err != nil {
			return err
		}
		defer components.Close()

		out := color.Output
		title.Fprintf(out, "Indexing %d universities into %s\n",
			len(components.Catalog.Universities()), components.Index.BackendName())

		if err := components.Rebuild(ctx); err != nil {
			failure.Fprintf(out, "✗ index rebuild failed: %v\n", err)
			return err
		}
		n, err := components.Index.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count indexed chunks: %w", err)
		}
		success.Fprintf(out, "✓ %d chunks indexed\n", n)

		outcome := components.Index.Search(ctx, smokeQuestion, smokeTopK, nil)
		if outcome.Err != nil {
			failure.Fprintf(out, "✗ smoke search failed: %v\n", outcome.Err)
			return outcome.Err
		}
		title.Fprintf(out, "\nSmoke search %q (%s)\n", smokeQuestion, outcome.Status)
		for i, hit := range outcome.Hits {
			fmt.Fprintf(out, "  %d. %s (%s)  ", i+1, hit.Metadata.Name, hit.Metadata.City)
			faint.Fprintf(out, "relevance %.3f\n", biz.Relevance(hit.Distance))
		}
		return nil
	}
}

// askFlags 是 ask 命令的过滤条件。
type askFlags struct {
	city     string
	category string
	minScore int
	maxScore int
}

func (f *askFlags) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.city, "city", "", "Only universities in this city.")
	fs.StringVar(&f.category, "category", "", "Only universities of this category.")
	fs.IntVar(&f.minScore, "min-score", 0, "Keep universities whose minimum ENT score does not exceed this.")
	fs.IntVar(&f.maxScore, "max-score", 0, "Keep universities whose maximum ENT score is at least this.")
}

// filters 经宽松解析得到过滤条件，未设置时为 nil。
func (f *askFlags) filters() *model.Filters {
	return filter.ParseFilters(map[string]any{
		filter.FieldCity:     f.city,
		filter.FieldCategory: f.category,
		"min_score":          f.minScore,
		"max_score":          f.maxScore,
	})
}

// newAskRequest builds and validates the request the way POST /query does.
func newAskRequest(args []string, f *askFlags) (*model.QueryRequest, error) {
	req := &model.QueryRequest{
		Question: strings.TrimSpace(strings.Join(args, " ")),
		Filters:  f.filters(),
	}
	if verr := validator.StructWithLang(req, validator.LangRU); verr != nil {
		return nil, errors.ErrRAGInvalidRequest.WithCause(verr)
	}
	return req, nil
}

// ask answers one question through the full pipeline.
func ask(opts *options.ServerOptions, f *askFlags) func(args []string) error {
	return func(args []string) error {
		req, err := newAskRequest(args, f)
		if err != nil {
			return err
		}

		components, ctx, err := buildComponents(opts)
		if err != nil {
			return err
		}
		defer components.Close()

		printAnswer(color.Output, components.Pipeline.Process(ctx, req))
		return nil
	}
}

func printAnswer(w io.Writer, resp *model.QueryResponse) {
	fmt.Fprintln(w, resp.Answer)

	if len(resp.Sources) > 0 {
		title.Fprintln(w, "\nИсточники:")
		for _, s := range resp.Sources {
			fmt.Fprintf(w, "  • %s, %s (%s)  ", s.Name, s.City, s.Category)
			faint.Fprintf(w, "ЕНТ %s, relevance %.3f\n", s.EntScoreRange, s.RelevanceScore)
		}
	}

	meta := fmt.Sprintf("\n%.2fs", resp.ProcessingTime)
	if resp.Cached {
		meta += ", cached"
	}
	if resp.TokensUsed != nil {
		meta += fmt.Sprintf(", %d tokens", *resp.TokensUsed)
	}
	faint.Fprintln(w, meta)
}

// buildComponents initializes the logger and the pipeline without the HTTP
// server.
func buildComponents(opts *options.ServerOptions) (*unirag.Components, context.Context, error) {
	cfg, err := opts.Config()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.InitLogger(); err != nil {
		return nil, nil, err
	}

	ctx := setupSignalContext()
	components, err := cfg.Build(ctx)
	if err != nil {
		return nil, nil, err
	}
	return components, ctx, nil
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
