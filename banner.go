package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/nashir/pushgate/fields"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

const header = `
                      _                  _
    _ __  _   _  ___ | |__    __ _  __ _| |_  ___
   | '_ \| | | |/ __|| '_ \  / _` + "`" + ` |/ _` + "`" + ` | __|/ _ \
   | |_) | |_| |\__ \| | | || (_| | (_| | |_|  __/
   | .__/ \__,_||___/|_| |_| \__, |\__,_|\__|\___|
   |_|                       |___/
`

func printBanner(cfg fields.Config) {
	providerNames := make([]string, 0, len(cfg.SupportedProviders()))
	for _, kind := range cfg.SupportedProviders() {
		providerNames = append(providerNames, string(kind))
	}

	goVersion := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok {
		goVersion = info.GoVersion
	}

	fmt.Print(header, "\n")
	fmt.Printf("version: %s, go: %s\nweb-host: %s, web-port: %d\nproviders: [%s]\n\n",
		Version, goVersion, cfg.Host, cfg.Port, strings.Join(providerNames, ", "))
}
