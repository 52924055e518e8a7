package version

import (
	"fmt"
	"runtime/debug"
)

// Заполняются через -ldflags при релизной сборке.
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// Info описывает сборку сервиса.
type Info struct {
	Version string
	Commit  string
	Date    string
}

// Current возвращает информацию о сборке: значения из -ldflags, а при их
// отсутствии vcs-данные из встроенного build info (go install, go run).
func Current() Info {
	info := Info{Version: version, Commit: commit, Date: date}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = setting.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = setting.Value
				}
			}
		}
	}

	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return info
}

// String форматирует информацию о сборке для логов и health-ответов.
func String() string {
	info := Current()
	return fmt.Sprintf("version=%s commit=%s date=%s", info.Version, info.Commit, info.Date)
}
