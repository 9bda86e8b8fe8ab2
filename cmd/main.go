package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lingoblitz/internal/app"
	"lingoblitz/internal/cli/scheme/colours"
	"lingoblitz/internal/config"
	"lingoblitz/internal/llm"
	"lingoblitz/internal/server"
	"lingoblitz/internal/speech"
	"lingoblitz/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "lingoblitz",
		Short: "⚡ Bite-sized reading practice in the language you are learning",
		Long: `
┌─────────────────────────────────────┐
│  ⚡ Welcome to LingoBlitz! 🌍      │
│  Short articles at your level       │
│  Tap words, take a quiz, repeat     │
└─────────────────────────────────────┘
		`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
		Run: func(cmd *cobra.Command, args []string) {
			showWelcome()
		},
	}
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("db", "", "Path of the settings database")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))

	blitzCmd := &cobra.Command{
		Use:   "blitz",
		Short: "📰 Start reading",
		Long:  "Pick a topic, read and listen to a short article, then quiz yourself",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBlitz(ctx)
		},
	}
	blitzCmd.Flags().StringP("backend", "b", "", "Where articles come from: http, openai or mock")
	_ = viper.BindPFlag("api.backend", blitzCmd.Flags().Lookup("backend"))

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "🛰️ Run the generation API",
		Long:  "Serve article generation, translation and quizzes over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, _ := cmd.Flags().GetString("backend")
			return runServe(ctx, llm.Backend(backend))
		},
	}
	serveCmd.Flags().StringP("backend", "b", string(llm.BackendOpenAI), "Generation backend: openai or mock")
	serveCmd.Flags().String("addr", "", "Listen address")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	voicesCmd := &cobra.Command{
		Use:   "voices [language]",
		Short: "🎤 List speech voices",
		Long:  "List the voices the speech engine offers, best first for a language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listVoices(ctx, args)
		},
	}

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "⚙️ Show or reset your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			reset, _ := cmd.Flags().GetBool("reset")
			return showSettings(ctx, reset)
		},
	}
	settingsCmd.Flags().Bool("reset", false, "Forget the saved profile and onboard again")

	themeCmd := &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "🎨 Show or set the colour theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(store.Light), string(store.Dark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return theme(ctx, args)
		},
	}

	rootCmd.AddCommand(blitzCmd, serveCmd, voicesCmd, settingsCmd, themeCmd)

	if err := rootCmd.Execute(); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}

func showWelcome() {
	fmt.Println()
	colours.Title.Println("⚡ Welcome to LingoBlitz! ⚡")
	fmt.Println()
	colours.Info.Println("📚 Available commands:")
	fmt.Println("  • lingoblitz blitz     - Start reading")
	fmt.Println("  • lingoblitz serve     - Run the generation API")
	fmt.Println("  • lingoblitz voices    - List speech voices")
	fmt.Println("  • lingoblitz settings  - Show or reset your profile")
	fmt.Println("  • lingoblitz theme     - Switch between light and dark")
	fmt.Println()
	colours.Prompt.Println("✨ ¿Listo? Prêt? Bereit? ✨")
}

func setupLogging() {
	level, err := logrus.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	// The terminal belongs to the app; logs go to stderr.
	logrus.SetOutput(os.Stderr)
}

func openStore() (*store.Store, error) {
	return store.Open(viper.GetString("store.path"))
}

// newEngine creates the configured speech engine. Narration is optional, so
// a missing engine degrades to a silent one.
func newEngine() speech.Engine {
	engine, err := speech.NewEngine(speech.ConfigFromViper())
	if err == nil {
		return engine
	}
	logrus.WithError(err).Warn("no speech engine available, narration is disabled")
	return speech.NewMockEngine()
}

func runBlitz(ctx context.Context) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := llm.NewService(llm.Backend(viper.GetString("api.backend")), llm.ConfigFromViper())
	if err != nil {
		return err
	}

	a := app.New(app.Deps{
		Service: svc,
		Store:   st,
		Engine:  newEngine(),
		In:      os.Stdin,
		Out:     os.Stdout,
		Log:     logrus.NewEntry(logrus.StandardLogger()),
	}, app.OptionsFromViper())
	defer a.Close()

	// Reading stdin cannot be interrupted, so leave from here on a signal.
	go func() {
		<-ctx.Done()
		a.Close()
		fmt.Println("\n" + colours.Warning.Sprint("👋 ¡Hasta luego! See you next blitz."))
		os.Exit(0)
	}()

	return a.Run(ctx)
}

func runServe(ctx context.Context, backend llm.Backend) error {
	if backend == llm.BackendHTTP {
		return errors.New("serve needs a generation backend: openai or mock")
	}
	cfg := llm.ConfigFromViper()
	base, err := llm.NewBackend(backend, cfg)
	if err != nil {
		return err
	}

	srv := server.New(llm.WithRetry(base, cfg.Retry), server.ConfigFromViper(), logrus.NewEntry(logrus.StandardLogger()))
	return srv.ListenAndServe(ctx)
}

func listVoices(ctx context.Context, args []string) error {
	engine := newEngine()
	wait, poll := viper.GetDuration("tts.voice_wait"), viper.GetDuration("tts.voice_poll")

	var voices []speech.Voice
	if len(args) == 1 {
		lang, ok := config.ParseLanguage(args[0])
		if !ok {
			return fmt.Errorf("unknown language %q", args[0])
		}
		voices = speech.VoicesForLanguage(ctx, engine, lang, wait, poll)
	} else {
		voices = speech.WaitForVoices(ctx, engine, wait, poll)
	}

	if len(voices) == 0 {
		colours.Warning.Println("🔍 No voices found.")
		return nil
	}
	colours.Title.Println("🎤 Voices")
	for i, v := range voices {
		kind := "network"
		if v.Local {
			kind = "local"
		}
		fmt.Printf("  %d. %s ", i+1, v.DisplayName())
		colours.Muted.Printf("[%s]\n", kind)
	}
	return nil
}

func showSettings(ctx context.Context, reset bool) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if reset {
		if err := st.Delete(ctx, store.SettingsKey); err != nil {
			return err
		}
		colours.Success.Println("✅ Profile cleared. Run 'lingoblitz blitz' to set it up again.")
		return nil
	}

	settings, err := st.LoadSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		colours.Warning.Println("No profile yet. Run 'lingoblitz blitz' to create one.")
		return nil
	}
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func theme(ctx context.Context, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 0 {
		t, err := st.Theme(ctx)
		if err != nil {
			return err
		}
		fmt.Println(t)
		return nil
	}

	t := store.Theme(strings.ToLower(args[0]))
	if t != store.Light && t != store.Dark {
		return fmt.Errorf("unknown theme %q", args[0])
	}
	if err := st.SetTheme(ctx, t); err != nil {
		return err
	}
	colours.Success.Printf("✅ Theme set to %s\n", t)
	return nil
}

// Configuration management with Viper
func init() {
	config.SetDefaults()

	viper.SetConfigName("lingoblitz")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.lingoblitz")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("LINGOBLITZ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("openai.api_key", "LINGOBLITZ_OPENAI_API_KEY", "OPENAI_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			logrus.WithError(err).Warn("could not read config file")
		}
	}
}
