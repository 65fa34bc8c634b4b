package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/automation"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/i18n"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/logx"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/ocr"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/screen"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/template"
	"github.com/vntimejsc-code/RetroAuto-v2-sub001/pkg/utils"
)

var (
	flagFlow     string
	flagFromStep int
	flagActivate string
	flagLogFile  string
	flagNoHotkey bool
	flagLazy     bool
	flagOCRCmd   []string
	flagDebug    bool
)

func main() {
	// Optional environment overrides (RETROAUTO_LANG etc.).
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "retroauto",
		Short:         "Run scripted desktop automation flows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "debug logging")
	root.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "also write logs to this file (JSON)")

	runCmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Execute a script's main flow",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	runCmd.Flags().StringVar(&flagFlow, "flow", "", "flow to run instead of the script's main flow")
	runCmd.Flags().IntVar(&flagFromStep, "from-step", 0, "start index within the flow")
	runCmd.Flags().StringVar(&flagActivate, "activate", "", "focus this application before running")
	runCmd.Flags().BoolVar(&flagNoHotkey, "no-hotkey", false, "do not arm the Esc stop hotkey")
	runCmd.Flags().BoolVar(&flagLazy, "lazy-templates", false, "decode templates on first use instead of preloading")
	runCmd.Flags().StringSliceVar(&flagOCRCmd, "ocr-cmd", nil, "external text recognizer argv (e.g. tesseract,stdin,stdout)")

	validateCmd := &cobra.Command{
		Use:   "validate <script>",
		Short: "Check a script for dangling references and unloadable templates",
		Args:  cobra.ExactArgs(1),
		RunE:  validateScript,
	}

	flowsCmd := &cobra.Command{
		Use:   "flows <script>",
		Short: "List a script's flows",
		Args:  cobra.ExactArgs(1),
		RunE:  listFlows,
	}

	root.AddCommand(runCmd, validateCmd, flowsCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging() (func(), error) {
	if flagDebug {
		logx.SetDebug()
	}
	return logx.Setup(flagLogFile)
}

func runScript(cmd *cobra.Command, args []string) error {
	closeLog, err := setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	// Two runtimes injecting input concurrently fight over the pointer.
	dataDir := utils.GetAppDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err == nil {
		lock := flock.New(filepath.Join(dataDir, "retroauto.lock"))
		ok, lockErr := lock.TryLock()
		if lockErr == nil && !ok {
			return fmt.Errorf("%s", i18n.T("another_instance"))
		}
		if lockErr == nil {
			defer lock.Unlock()
		}
	}

	script, err := model.LoadScript(args[0])
	if err != nil {
		return err
	}
	fmt.Printf(i18n.T("script_loaded"), script.Name, len(script.Flows), len(script.Assets), len(script.Interrupts))

	if issues := script.Validate(); len(issues) > 0 {
		fmt.Printf(i18n.T("validate_issues"), len(issues))
		for _, issue := range issues {
			fmt.Println("  " + issue)
		}
	}

	var store template.Store
	if flagLazy {
		lazy := template.NewLazyStore(0, slog.Default())
		lazy.Register(script.Assets...)
		store = lazy
	} else {
		eager := template.NewEagerStore(slog.Default())
		if errs := eager.Preload(script.Assets); len(errs) > 0 {
			fmt.Printf(i18n.T("preload_errors"), len(errs))
			for _, e := range errs {
				fmt.Println("  " + e)
			}
		}
		store = eager
	}

	ctx := automation.NewRunContext(script, store,
		screen.NewRobotgoCapturer(), automation.NewRobotgoInput(), slog.Default())
	if len(flagOCRCmd) > 0 {
		ctx.OCR = ocr.NewCommandReader(flagOCRCmd...)
	}

	runner := automation.NewRunner(ctx, automation.Callbacks{
		OnStep: func(flow string, index int, action *model.Action) {
			fmt.Printf(i18n.T("step_progress"), flow, index, action.Kind)
		},
		OnNotify: func(title, message string) {
			fmt.Printf(i18n.T("notify"), title, message)
		},
	})

	manager := automation.NewInterruptManager(ctx)
	manager.SetRunner(runner)
	manager.StartWatching()
	defer manager.StopWatching()

	if !flagNoHotkey {
		fmt.Print(i18n.T("stop_hotkey_armed"))
		disarm := automation.ArmStopHotkey(ctx, slog.Default())
		defer disarm()
	}

	if flagActivate != "" {
		if err := automation.ActivateProcess(flagActivate); err != nil {
			fmt.Printf(i18n.T("activate_failed"), flagActivate, err)
		}
	}

	flow := flagFlow
	if flow == "" {
		flow = script.MainFlow
	}
	fmt.Printf(i18n.T("running_flow"), flow)

	if runner.RunFlowFrom(flow, flagFromStep) {
		fmt.Print(i18n.T("run_success"))
		return nil
	}
	fmt.Print(i18n.T("run_failed"))
	return fmt.Errorf("flow %q failed", flow)
}

func validateScript(cmd *cobra.Command, args []string) error {
	closeLog, err := setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	script, err := model.LoadScript(args[0])
	if err != nil {
		return err
	}

	issues := script.Validate()
	store := template.NewEagerStore(slog.Default())
	issues = append(issues, store.Preload(script.Assets)...)

	if len(issues) == 0 {
		fmt.Print(i18n.T("validate_ok"))
		return nil
	}
	fmt.Printf(i18n.T("validate_issues"), len(issues))
	for _, issue := range issues {
		fmt.Println("  " + issue)
	}
	return fmt.Errorf("%d issue(s)", len(issues))
}

func listFlows(cmd *cobra.Command, args []string) error {
	script, err := model.LoadScript(args[0])
	if err != nil {
		return err
	}
	for i := range script.Flows {
		f := &script.Flows[i]
		suffix := ""
		if f.Name == script.MainFlow {
			suffix = i18n.T("main_flow_suffix")
		}
		if f.IsGraph() {
			fmt.Printf(i18n.T("flow_entry_graph"), f.Name+suffix, len(f.Nodes))
		} else {
			fmt.Printf(i18n.T("flow_entry"), f.Name+suffix, len(f.Actions))
		}
	}
	return nil
}
