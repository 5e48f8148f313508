package agent

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/0muji4/declnav/internal/navigation"
	"github.com/0muji4/declnav/internal/symbol"
	"github.com/0muji4/declnav/internal/workspace"

	"google.golang.org/genai"
)

// ProviderName identifies the agent in the registry.
const ProviderName = "llm"

const defaultSystemPrompt = `You locate the declaration of a Go identifier.
Use find-symbol to look up candidate declarations by name and read-file to inspect source.
When you are done, answer with one location per line in the form path:line:column,
paths relative to the project root, lines and columns starting at 1.
Answer NONE if the identifier has no declaration in the project.`

var _ navigation.Provider = (*Agent)(nil)

// generator is the part of the Gemini client the agent uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures an Agent.
type Options struct {
	Model         string
	MaxIterations int
	SystemPrompt  string
	Logger        *slog.Logger
}

// Agent asks an LLM where an identifier is declared. It is the last resort
// in the provider chain: slow, and only as good as the model's answer.
type Agent struct {
	models   generator
	reader   *workspace.FSReader
	resolver symbol.Resolver
	opts     Options
	logger   *slog.Logger

	// rateLimitWait is the delay before retrying a 429, multiplied by the attempt.
	rateLimitWait time.Duration
}

// New connects to the Gemini API.
func New(ctx context.Context, apiKey string, reader *workspace.FSReader, resolver symbol.Resolver, opts Options) (*Agent, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newAgent(client.Models, reader, resolver, opts), nil
}

func newAgent(models generator, reader *workspace.FSReader, resolver symbol.Resolver, opts Options) *Agent {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}
	if opts.MaxIterations < 1 {
		opts.MaxIterations = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Agent{
		models:        models,
		reader:        reader,
		resolver:      resolver,
		opts:          opts,
		logger:        logger,
		rateLimitWait: 30 * time.Second,
	}
}

func (a *Agent) Name() string { return ProviderName }

func (a *Agent) Resolve(ctx context.Context, doc navigation.Document, offset int) ([]navigation.Target, error) {
	fset := token.NewFileSet()
	f, _ := parser.ParseFile(fset, doc.Path(), doc.Content(), parser.SkipObjectResolution)
	if f == nil {
		return nil, nil
	}
	ident := symbol.IdentAt(fset, f, offset)
	if ident == nil || ident.Name == "_" {
		return nil, nil
	}

	pos := fset.Position(ident.Pos())
	file := workspace.NewFile(doc.Path(), doc.Content())
	query := fmt.Sprintf("Where is %q declared? It is used at %s:%d:%d:\n%s",
		ident.Name, a.reader.Rel(doc.Path()), pos.Line, pos.Column, file.Line(pos.Line))

	answer, err := a.run(ctx, query)
	if err != nil {
		return nil, err
	}
	return a.targets(ident.Name, answer), nil
}

func tools() []*genai.Tool {
	return []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        "find-symbol",
					Description: "Finds package-level declarations (functions, methods, types, variables, constants) by name and returns their path:line:column.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"name": {
								Type:        genai.TypeString,
								Description: "The symbol name, e.g. NewClient",
							},
						},
						Required: []string{"name"},
					},
				},
				{
					Name:        "read-file",
					Description: "Reads a source file. Use it to check the code around a candidate location.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"file_path": {
								Type:        genai.TypeString,
								Description: "Path relative to the project root",
							},
						},
						Required: []string{"file_path"},
					},
				},
			},
		},
	}
}

// run executes the ReAct loop and returns the model's final text. It
// returns "" when the loop runs out of iterations.
func (a *Agent) run(ctx context.Context, query string) (string, error) {
	history := []*genai.Content{genai.NewContentFromText(query, "user")}
	config := &genai.GenerateContentConfig{
		Tools: tools(),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(a.opts.SystemPrompt)},
		},
	}

	maxIterations := a.opts.MaxIterations
	for i := 0; i < maxIterations; i++ {
		a.logger.Debug("thinking", "iteration", i+1, "max", maxIterations)

		resp, err := a.generate(ctx, history, config)
		if err != nil {
			return "", err
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			return resp.Text(), nil
		}
		history = append(history, resp.Candidates[0].Content)

		var parts []*genai.Part
		for _, call := range calls {
			result, err := a.execute(ctx, call)
			if err != nil {
				result = fmt.Sprintf("Error: %v", err)
			}
			parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, map[string]any{"result": result}))
		}
		history = append(history, &genai.Content{Role: "tool", Parts: parts})

		// ループ終盤で最終回答を促す
		if i == maxIterations-2 {
			history = append(history, genai.NewContentFromText(
				"You have one call left. Answer now with the locations found so far, or NONE.",
				"user",
			))
		}
	}

	a.logger.Warn("agent loop limit exceeded", "max", maxIterations)
	return "", nil
}

// generate calls the model, retrying rate-limited requests twice. A request
// that is still rate limited makes the agent unavailable rather than faulty.
func (a *Agent) generate(ctx context.Context, history []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	for retry := 0; ; retry++ {
		resp, err := a.models.GenerateContent(ctx, a.opts.Model, history, config)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !strings.Contains(err.Error(), "429") {
			return nil, fmt.Errorf("agent: generate content: %w", err)
		}
		if retry == 2 {
			return nil, fmt.Errorf("%w: agent: rate limited: %w", navigation.ErrAnalysisUnavailable, err)
		}

		wait := a.rateLimitWait * time.Duration(retry+1)
		a.logger.Info("rate limited", "wait", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (a *Agent) execute(ctx context.Context, call *genai.FunctionCall) (string, error) {
	switch call.Name {
	case "find-symbol":
		name, _ := call.Args["name"].(string)
		a.logger.Debug("tool", "name", call.Name, "symbol", name)
		return a.findSymbol(ctx, name)

	case "read-file":
		path, _ := call.Args["file_path"].(string)
		a.logger.Debug("tool", "name", call.Name, "path", path)
		return a.reader.ReadFile(path)
	}
	return "", fmt.Errorf("unknown tool %q", call.Name)
}

func (a *Agent) findSymbol(ctx context.Context, name string) (string, error) {
	locations, err := a.resolver.FindSymbol(ctx, name)
	if err != nil {
		return "", fmt.Errorf("agent: find symbol %q: %w", name, err)
	}
	if len(locations) == 0 {
		return fmt.Sprintf("Symbol %q not found.", name), nil
	}

	var result []string
	for _, loc := range locations {
		result = append(result, fmt.Sprintf("%s:%d:%d (%s)", a.reader.Rel(loc.FilePath), loc.Line, loc.Character, loc.Kind))
	}
	return fmt.Sprintf("Found symbol %q at:\n%s", name, strings.Join(result, "\n")), nil
}

var locationPattern = regexp.MustCompile("([^\\s:`]+\\.go):(\\d+):(\\d+)")

// targets extracts the locations named in answer. Locations outside the
// project or past the end of their file are dropped.
func (a *Agent) targets(name, answer string) []navigation.Target {
	var locations []symbol.SymbolLocation
	seen := make(map[string]bool)
	for _, m := range locationPattern.FindAllStringSubmatch(answer, -1) {
		line, _ := strconv.Atoi(m[2])
		column, _ := strconv.Atoi(m[3])

		file, err := a.reader.Open(m[1])
		if err != nil {
			a.logger.Debug("dropping answer", "location", m[0], "error", err)
			continue
		}
		if _, err := file.Offset(line, column); err != nil {
			a.logger.Debug("dropping answer", "location", m[0], "error", err)
			continue
		}

		key := fmt.Sprintf("%s:%d:%d", file.Path(), line, column)
		if seen[key] {
			continue
		}
		seen[key] = true
		locations = append(locations, symbol.SymbolLocation{
			Name:      name,
			FilePath:  file.Path(),
			Line:      line,
			Character: column,
		})
	}
	return symbol.Targets(a.reader.Root(), a.Name(), locations)
}
