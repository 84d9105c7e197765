// Command tutor runs one interactive voice quiz session from a local
// question bank. Speech backends are optional: without them the session runs
// entirely on the console.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RaghavAtRuntime/local-llm-tutor/internal/config"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/eval"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/explain"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/feedback"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/health"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/observe"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/quiz"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/resilience"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/session"
	"github.com/RaghavAtRuntime/local-llm-tutor/internal/store"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/llm/anyllm"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/similarity"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/similarity/lexical"
	ollamasim "github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/similarity/ollama"
	sttport "github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/stt"
	sttconsole "github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/stt/console"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/stt/whisper"
	ttsport "github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/tts"
	ttsconsole "github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/tts/console"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/tts/coqui"
	vadport "github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/vad"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/vad/energy"
	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/types"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	questionsPath := flag.String("questions", "questions.json", "path to the question bank JSON file")
	modeFlag := flag.String("mode", "", "quiz mode override (sequential|random|difficulty)")
	difficultyFlag := flag.String("difficulty", "", "difficulty filter override (easy|medium|hard)")
	textOnly := flag.Bool("text-only", false, "type answers on the console instead of speaking")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	cfg, err := loadConfig(*configPath, flagWasSet("config"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "tutor: %v\n", err)
		return 1
	}

	// Flag overrides layer on top of the file, then the combined result is
	// validated once more.
	if *modeFlag != "" {
		cfg.Quiz.Mode = quiz.Mode(*modeFlag)
	}
	if *difficultyFlag != "" {
		cfg.Quiz.DifficultyFilter = types.Difficulty(*difficultyFlag)
	}
	if *textOnly {
		cfg.STT.Backend = "console"
		cfg.TTS.Backend = "console"
	}
	if *verbose {
		cfg.LogLevel = config.LogDebug
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "tutor: %v\n", err)
		return 1
	}

	slog.SetDefault(newLogger(cfg.LogLevel))
	slog.Info("tutor starting",
		"config", *configPath,
		"questions", *questionsPath,
		"mode", cfg.Quiz.Mode,
		"stt", cfg.STT.Backend,
		"tts", cfg.TTS.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Question bank ─────────────────────────────────────────────────────────
	bank, err := quiz.LoadBank(*questionsPath)
	if err != nil {
		slog.Error("failed to load question bank", "path", *questionsPath, "err", err)
		return 1
	}
	var seqOpts []quiz.SequencerOption
	if cfg.Quiz.DifficultyFilter != "" {
		seqOpts = append(seqOpts, quiz.WithDifficultyFilter(cfg.Quiz.DifficultyFilter))
	}
	seq, err := quiz.NewSequencer(bank, cfg.Quiz.Mode, seqOpts...)
	if err != nil {
		slog.Error("failed to build question sequence", "err", err)
		return 1
	}

	// ── Evaluation ────────────────────────────────────────────────────────────
	scorer := buildScorer(cfg)
	engine, err := eval.NewEngine(scorer,
		cfg.Evaluation.SemanticThresholdCorrect,
		cfg.Evaluation.SemanticThresholdPartial,
		eval.WithConceptPromotion(cfg.Evaluation.ConceptPromotionEnabled()),
		eval.WithSimilarityTimeout(cfg.Evaluation.SimilarityTimeoutDuration()),
	)
	if err != nil {
		slog.Error("failed to build evaluation engine", "err", err)
		return 1
	}

	// ── Feedback ──────────────────────────────────────────────────────────────
	fb := feedback.New(buildExplainer(cfg))

	// ── Speech ────────────────────────────────────────────────────────────────
	sp := buildSpeech(cfg)
	defer sp.close()

	// ── Persistence ───────────────────────────────────────────────────────────
	probes := health.New()
	var rec store.Recorder = store.NopRecorder{}
	if !cfg.Store.Disabled {
		st, err := store.Open(ctx, cfg.Store.Path)
		if err != nil {
			slog.Warn("session store unavailable, history disabled", "path", cfg.Store.Path, "err", err)
		} else {
			defer st.Close()
			rec = st
			probes.Register("store", st.Ping)
		}
	}

	// ── Diagnostics endpoint ──────────────────────────────────────────────────
	if cfg.TTS.Backend == "coqui" {
		probes.Register("tts", urlCheck(cfg.TTS.BaseURL))
	}
	if cfg.Similarity.Backend == "ollama" {
		probes.Register("similarity", urlCheck(similarityBaseURL(cfg)))
	}
	if cfg.MetricsAddr != "" {
		stopDiag, err := startDiagnostics(ctx, cfg.MetricsAddr, probes)
		if err != nil {
			slog.Error("failed to start diagnostics endpoint", "addr", cfg.MetricsAddr, "err", err)
			return 1
		}
		defer stopDiag()
	}

	// ── Session ───────────────────────────────────────────────────────────────
	orchOpts := []session.Option{session.WithRecorder(rec)}
	if sp.vad != nil {
		orchOpts = append(orchOpts, session.WithBargeIn(sp.vad))
	}
	if cfg.Quiz.TimeLimit > 0 {
		orchOpts = append(orchOpts, session.WithTimeLimit(cfg.Quiz.TimeLimitDuration()))
	}
	orch, err := session.New(seq, engine, fb, sp.stt, sp.tts, orchOpts...)
	if err != nil {
		slog.Error("failed to build session", "err", err)
		return 1
	}

	snap, err := orch.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("session error", "err", err)
		return 1
	}
	printSummary(snap)
	return 0
}

// loadConfig reads the config file. A missing file is only fatal when the
// path was given explicitly; otherwise the defaults apply.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// speech bundles the built speech providers and anything that needs closing.
type speech struct {
	stt     sttport.Provider
	tts     ttsport.Provider
	vad     vadport.Listener
	closers []func() error
}

func (s *speech) close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			slog.Warn("audio close error", "err", err)
		}
	}
}

// buildSpeech constructs the STT/TTS/barge-in providers per config. A speech
// backend that cannot be brought up at startup demotes to the console
// equivalent instead of failing the session; mid-session failures are handled
// by the resilience failovers.
func buildSpeech(cfg *config.Config) *speech {
	sp := &speech{
		stt: sttconsole.New(os.Stdin, os.Stdout),
		tts: ttsconsole.New(os.Stdout, "Tutor"),
	}

	var source *pipeSource
	if cfg.Audio.InputPipe != "" && (cfg.STT.Backend == "whisper" || cfg.TTS.Backend == "coqui") {
		src, err := openPipeSource(cfg.Audio.InputPipe, cfg.Audio.SampleRate)
		if err != nil {
			slog.Warn("audio input unavailable, voice capture disabled", "err", err)
		} else {
			source = src
			sp.closers = append(sp.closers, src.Close)
		}
	}

	if cfg.STT.Backend == "whisper" && source != nil {
		w, err := whisper.New(cfg.STT.ModelPath, source,
			whisper.WithLanguage(cfg.STT.Language),
			whisper.WithRMSThreshold(cfg.Audio.EnergyThreshold),
			whisper.WithSilenceThreshold(time.Duration(cfg.Audio.Silence*float64(time.Second))),
		)
		if err != nil {
			slog.Warn("whisper unavailable, switching to typed input", "model", cfg.STT.ModelPath, "err", err)
		} else {
			sp.stt = resilience.NewSTTFailover(w, sttconsole.New(os.Stdin, os.Stdout), "whisper")
			sp.closers = append(sp.closers, w.Close)
		}
	}

	if cfg.TTS.Backend == "coqui" {
		sink, err := openPipeSink(cfg.Audio.OutputPipe)
		if err != nil {
			slog.Warn("audio output unavailable, switching to console output", "err", err)
		} else {
			var opts []coqui.Option
			if cfg.TTS.Voice != "" {
				opts = append(opts, coqui.WithSpeaker(cfg.TTS.Voice))
			}
			c := coqui.New(cfg.TTS.BaseURL, sink, opts...)
			sp.tts = resilience.NewTTSFailover(c, ttsconsole.New(os.Stdout, "Tutor"), "coqui")
			sp.closers = append(sp.closers, sink.Close)

			// Barge-in only makes sense when prompts are audible.
			if source != nil {
				l, err := energy.New(source, energy.WithThreshold(cfg.Audio.EnergyThreshold))
				if err != nil {
					slog.Warn("barge-in listener unavailable", "err", err)
				} else {
					sp.vad = l
				}
			}
		}
	}

	return sp
}

// buildScorer returns the configured similarity backend, degrading to
// lexical matching when the embeddings backend cannot be constructed.
func buildScorer(cfg *config.Config) similarity.Scorer {
	if cfg.Similarity.Backend == "ollama" {
		s, err := ollamasim.New(cfg.Similarity.BaseURL, cfg.Similarity.Model)
		if err == nil {
			return s
		}
		slog.Warn("embeddings scorer unavailable, using lexical matching", "err", err)
	}
	return lexical.New()
}

// buildExplainer wires the optional LLM capability. Any construction failure
// downgrades to template-only feedback.
func buildExplainer(cfg *config.Config) *explain.Generator {
	if !cfg.LLM.Enabled {
		return explain.New(nil, false)
	}
	var opts []anyllmlib.Option
	if cfg.LLM.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(cfg.LLM.APIKey))
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(cfg.LLM.BaseURL))
	}
	p, err := anyllm.New(cfg.LLM.Provider, cfg.LLM.Model, opts...)
	if err != nil {
		slog.Warn("llm backend unavailable, explanations use templates",
			"provider", cfg.LLM.Provider, "err", err)
		return explain.New(nil, false)
	}
	return explain.New(p, true)
}

func similarityBaseURL(cfg *config.Config) string {
	if cfg.Similarity.BaseURL != "" {
		return cfg.Similarity.BaseURL
	}
	return ollamasim.DefaultBaseURL
}

// ── Diagnostics ───────────────────────────────────────────────────────────────

// startDiagnostics serves Prometheus metrics and health probes on addr.
func startDiagnostics(ctx context.Context, addr string, probes *health.Handler) (stop func(), err error) {
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	probes.Routes(mux)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("diagnostics server error", "err", err)
		}
	}()
	slog.Info("diagnostics listening", "addr", addr)

	return func() {
		sdCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sdCtx); err != nil {
			slog.Warn("diagnostics shutdown error", "err", err)
		}
		if err := otelShutdown(sdCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}, nil
}

// urlCheck probes that an HTTP backend answers at all; any response counts.
func urlCheck(rawURL string) health.CheckFunc {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		return resp.Body.Close()
	}
}

// ── Output ────────────────────────────────────────────────────────────────────

func printSummary(snap session.Snapshot) {
	fmt.Println()
	fmt.Println("Session summary")
	fmt.Printf("  Correct:   %d\n", snap.Correct)
	fmt.Printf("  Partial:   %d\n", snap.Partial)
	fmt.Printf("  Incorrect: %d\n", snap.Incorrect)
	fmt.Printf("  Skipped:   %d\n", snap.Skipped)
	if snap.Attempted > 0 {
		fmt.Printf("  Accuracy:  %.0f%% (average score %.2f)\n", snap.Accuracy*100, snap.AvgScore)
	}
	if snap.TotalElapsed > 0 {
		fmt.Printf("  Time:      %s total, %s per question\n",
			snap.TotalElapsed.Round(time.Second), snap.AvgElapsed.Round(time.Second))
	}
}

// ── Logger ────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
