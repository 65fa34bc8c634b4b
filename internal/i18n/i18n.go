// Package i18n provides a minimal message catalog for CLI-facing strings.
package i18n

import (
	"os"
	"strings"
	"sync"
)

var (
	mu   sync.RWMutex
	lang = "en"
)

func init() {
	if v := os.Getenv("RETROAUTO_LANG"); v != "" {
		SetLanguage(v)
	}
}

// SetLanguage switches the active catalog. Unknown languages fall back to
// English.
func SetLanguage(l string) {
	l = strings.ToLower(strings.TrimSpace(l))
	if strings.HasPrefix(l, "zh") {
		l = "zh"
	} else {
		l = "en"
	}
	mu.Lock()
	lang = l
	mu.Unlock()
}

// T returns the message for key in the active language. Missing keys return
// the key itself so a gap never hides output.
func T(key string) string {
	mu.RLock()
	l := lang
	mu.RUnlock()
	if l == "zh" {
		if msg, ok := zh[key]; ok {
			return msg
		}
	}
	if msg, ok := en[key]; ok {
		return msg
	}
	return key
}

var en = map[string]string{
	"script_loaded":     "Loaded script %q (%d flows, %d assets, %d interrupts)\n",
	"running_flow":      "Running flow %q\n",
	"run_success":       "Run finished successfully\n",
	"run_failed":        "Run failed\n",
	"validate_ok":       "Script is valid\n",
	"validate_issues":   "Found %d issue(s):\n",
	"preload_errors":    "%d asset(s) failed to load:\n",
	"another_instance":  "another instance is already running",
	"stop_hotkey_armed": "Press Esc to stop the run\n",
	"activate_failed":   "Could not focus %q: %v\n",
	"flow_entry":        "  %s (%d steps)\n",
	"flow_entry_graph":  "  %s (graph, %d nodes)\n",
	"main_flow_suffix":  " [main]",
	"notify":            "[notify] %s: %s\n",
	"step_progress":     "[%s:%d] %s\n",
}

var zh = map[string]string{
	"script_loaded":     "已加载脚本 %q（%d 个流程，%d 个素材，%d 个中断规则）\n",
	"running_flow":      "正在运行流程 %q\n",
	"run_success":       "运行成功完成\n",
	"run_failed":        "运行失败\n",
	"validate_ok":       "脚本校验通过\n",
	"validate_issues":   "发现 %d 个问题：\n",
	"preload_errors":    "%d 个素材加载失败：\n",
	"another_instance":  "另一个实例正在运行",
	"stop_hotkey_armed": "按 Esc 停止运行\n",
	"activate_failed":   "无法激活 %q：%v\n",
	"flow_entry":        "  %s（%d 步）\n",
	"flow_entry_graph":  "  %s（图模式，%d 个节点）\n",
	"main_flow_suffix":  " [主流程]",
	"notify":            "[通知] %s：%s\n",
	"step_progress":     "[%s:%d] %s\n",
}
