// Command coach runs the discovery coaching service: an interactive session
// that drafts and critiques SAFe planning artifacts with retrieval-augmented
// LLM turns.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"discoverycoach/pkg/coach"
	"discoverycoach/pkg/config"
	"discoverycoach/pkg/contextmgr"
	"discoverycoach/pkg/knowledge"
	"discoverycoach/pkg/llm"
	"discoverycoach/pkg/llm/factory"
	"discoverycoach/pkg/llm/middleware"
	"discoverycoach/pkg/logx"
	"discoverycoach/pkg/persistence"
	"discoverycoach/pkg/prompts"
)

// session is the caller-owned conversational state the engine itself never
// keeps: transcript, focus, and the active artifacts.
type session struct {
	id               string
	focus            coach.ArtifactFocus
	activeInitiative string
	activeEpic       string
	activeFeature    string
	lastDraft        string
	history          *contextmgr.ContextManager
}

type app struct {
	cfg       config.Config
	engine    *coach.Engine
	artifacts *persistence.Store
	logger    *logx.Logger
	sess      *session
}

func main() {
	var configPath string
	var metricsAddr string
	flag.StringVar(&configPath, "config", "coach.yaml", "path to YAML config file")
	flag.StringVar(&metricsAddr, "metrics", "", "address for the Prometheus /metrics endpoint (e.g. :9090)")
	flag.Parse()

	logger := logx.NewLogger("coach")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("config: %v", err)
		os.Exit(1)
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *logx.Logger) error {
	kb, err := knowledge.Open(cfg.KnowledgeDB)
	if err != nil {
		return err
	}
	defer func() { _ = kb.Close() }()

	if info, err := os.Stat(cfg.KnowledgeDir); err == nil && info.IsDir() {
		if _, err := kb.IndexDirectory(cfg.KnowledgeDir); err != nil {
			return err
		}
	} else {
		logger.Warn("knowledge directory %s not found, retrieval will be empty", cfg.KnowledgeDir)
	}

	artifacts, err := persistence.Open(cfg.ArtifactDB)
	if err != nil {
		return err
	}
	defer func() { _ = artifacts.Close() }()

	library, err := prompts.Load()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	clients := factory.New(factory.Config{
		OllamaBaseURL:   cfg.OllamaBaseURL,
		AnthropicAPIKey: os.Getenv(config.EnvAnthropicKey),
		OpenAIAPIKey:    os.Getenv(config.EnvOpenAIKey),
		Middleware: []llm.Middleware{
			middleware.Logging(logx.NewLogger("llm")),
			middleware.Metrics(middleware.NewPrometheusRecorder(registry), nil),
			middleware.Retry(middleware.DefaultRetryConfig),
		},
	})

	engine := coach.New(clients, kb, library,
		coach.WithSectionRules(cfg.SectionRules()),
		coach.WithTimeouts(cfg.EngineTimeouts()),
		coach.WithObserver(coach.MultiObserver{
			coach.NewLogObserver("engine"),
			coach.NewPrometheusObserver(registry),
		}),
	)

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, registry, logger)
	}

	a := &app{
		cfg:       cfg,
		engine:    engine,
		artifacts: artifacts,
		logger:    logger,
		sess: &session{
			id:      persistence.GenerateSessionID(),
			focus:   coach.FocusEpic,
			history: contextmgr.New(),
		},
	}
	return a.repl(ctx)
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *logx.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logger.Info("metrics listening on %s", addr)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Warn("metrics server stopped: %v", err)
	}
}

func (a *app) repl(ctx context.Context) error {
	fmt.Printf("discovery coach - provider %s, model %s, focus %s\n",
		a.cfg.Provider, a.cfg.Model, a.sess.focus)
	fmt.Println(`type a message, or /help for commands`)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := a.command(line); quit {
				return nil
			}
			continue
		}

		a.turn(ctx, line)
	}
}

func (a *app) turn(ctx context.Context, message string) {
	result, err := a.engine.RunTurn(ctx, coach.TurnRequest{
		Message:          message,
		Focus:            a.sess.focus,
		ActiveInitiative: a.sess.activeInitiative,
		ActiveEpic:       a.sess.activeEpic,
		ActiveFeature:    a.sess.activeFeature,
		History:          a.sess.history.Messages(),
		Provider:         a.cfg.Provider,
		Model:            a.cfg.Model,
		Temperature:      float32(a.cfg.Temperature),
	})
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	switch result.Disposition {
	case coach.DispositionError:
		fmt.Printf("generation failed after %d retries: %s\n", result.RetryCount, result.ErrorMessage)
		return
	case coach.DispositionClarify:
		fmt.Println(result.Response)
		fmt.Printf("(could you clarify? concerns: %s)\n", strings.Join(result.Issues, "; "))
	default:
		fmt.Println(result.Response)
		if len(result.Issues) > 0 {
			fmt.Printf("(note: %s)\n", strings.Join(result.Issues, "; "))
		}
		if result.Intent == coach.IntentDraft {
			a.sess.lastDraft = result.Response
		}
	}

	a.sess.history.AddUser(message)
	a.sess.history.AddAssistant(result.Response)
	a.sess.history.CompactIfNeeded()
	a.saveSession()
}

func (a *app) saveSession() {
	err := a.artifacts.SaveSession(&persistence.Session{
		ID:               a.sess.id,
		Focus:            a.sess.focus,
		ActiveInitiative: a.sess.activeInitiative,
		ActiveEpic:       a.sess.activeEpic,
		ActiveFeature:    a.sess.activeFeature,
		History:          a.sess.history.Messages(),
	})
	if err != nil {
		a.logger.Warn("failed to save session: %v", err)
	}
}

// setArtifact stores an active artifact text. An @path argument loads the
// artifact from a file instead.
func (a *app) setArtifact(slot *string, arg string) {
	if !strings.HasPrefix(arg, "@") {
		*slot = arg
		return
	}
	data, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	*slot = strings.TrimSpace(string(data))
}

// saveDraft persists the most recent accepted draft as a template for the
// session's current artifact focus.
func (a *app) saveDraft(name string) {
	if a.sess.lastDraft == "" {
		fmt.Println("no accepted draft to save yet")
		return
	}
	if name == "" {
		fmt.Println("usage: /save <name>")
		return
	}

	var id int64
	var err error
	switch a.sess.focus {
	case coach.FocusStrategicInitiative:
		id, err = a.artifacts.SaveStrategicInitiativeTemplate(&persistence.StrategicInitiativeTemplate{
			Name: name, Content: a.sess.lastDraft,
		})
	case coach.FocusEpic:
		id, err = a.artifacts.SaveEpicTemplate(&persistence.EpicTemplate{
			Name: name, Content: a.sess.lastDraft,
		})
	case coach.FocusFeature:
		id, err = a.artifacts.SaveFeatureTemplate(&persistence.FeatureTemplate{
			Name: name, Content: a.sess.lastDraft,
		})
	case coach.FocusStory:
		id, err = a.artifacts.SaveStoryTemplate(&persistence.StoryTemplate{
			Name: name, Content: a.sess.lastDraft,
		})
	default:
		fmt.Printf("focus %s has no template table\n", a.sess.focus)
		return
	}
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("saved %s template %q (id %d)\n", a.sess.focus, name, id)
}

// command handles a slash command line. Returns true when the REPL should exit.
func (a *app) command(line string) bool {
	fields := strings.Fields(line)
	cmd := fields[0]
	arg := strings.TrimSpace(strings.TrimPrefix(line, cmd))

	switch cmd {
	case "/quit", "/exit":
		a.saveSession()
		return true

	case "/help":
		fmt.Println(`commands:
  /focus <strategic-initiative|epic|feature|story|pi-objective>
  /initiative <text>   set the active strategic initiative ("" clears, @path loads a file)
  /epic <text>         set the active epic
  /feature <text>      set the active feature
  /save <name>         save the last accepted draft as a template for the current focus
  /new                 start a fresh session
  /sessions            list saved sessions
  /resume <id>         resume a saved session
  /export-epics        print all epic templates as JSON
  /status              show session state
  /quit                save and exit`)

	case "/focus":
		focus := coach.ArtifactFocus(arg)
		if !coach.ValidFocus(focus) {
			fmt.Printf("unknown focus %q\n", arg)
			break
		}
		a.sess.focus = focus
		fmt.Printf("focus set to %s\n", focus)

	case "/initiative":
		a.setArtifact(&a.sess.activeInitiative, arg)
	case "/epic":
		a.setArtifact(&a.sess.activeEpic, arg)
	case "/feature":
		a.setArtifact(&a.sess.activeFeature, arg)

	case "/save":
		a.saveDraft(arg)

	case "/new":
		a.sess = &session{
			id:      persistence.GenerateSessionID(),
			focus:   a.sess.focus,
			history: contextmgr.New(),
		}
		fmt.Printf("new session %s\n", a.sess.id)

	case "/sessions":
		sessions, err := a.artifacts.ListSessions(20)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		for _, s := range sessions {
			fmt.Printf("%s  %-20s  updated %s\n", s.ID, s.Focus, s.UpdatedAt.Format(time.RFC3339))
		}

	case "/resume":
		saved, err := a.artifacts.LoadSession(arg)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		if saved == nil {
			fmt.Printf("no session %q\n", arg)
			break
		}
		history := contextmgr.New()
		history.Restore(saved.History)
		a.sess = &session{
			id:               saved.ID,
			focus:            saved.Focus,
			activeInitiative: saved.ActiveInitiative,
			activeEpic:       saved.ActiveEpic,
			activeFeature:    saved.ActiveFeature,
			history:          history,
		}
		fmt.Printf("resumed %s (%s)\n", saved.ID, history.Summary())

	case "/export-epics":
		epics, err := a.artifacts.ExportAllEpicTemplates()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		data, err := json.MarshalIndent(epics, "", "  ")
		if err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		fmt.Println(string(data))

	case "/status":
		fmt.Printf("session %s\nfocus: %s\n%s\n", a.sess.id, a.sess.focus, a.sess.history.Summary())
		if a.sess.activeInitiative != "" {
			fmt.Printf("active initiative: %s\n", a.sess.activeInitiative)
		}
		if a.sess.activeEpic != "" {
			fmt.Printf("active epic: %s\n", a.sess.activeEpic)
		}
		if a.sess.activeFeature != "" {
			fmt.Printf("active feature: %s\n", a.sess.activeFeature)
		}

	default:
		fmt.Printf("unknown command %s (try /help)\n", cmd)
	}
	return false
}
