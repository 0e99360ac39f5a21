// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/arvobill/installer/internal/config"
)

var summaryStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("10")).
	Padding(1, 2)

func printSummary(action string, cfg config.InstallConfig) {
	scheme := "http"
	if cfg.Features.SSL {
		scheme = "https"
	}

	lines := []string{
		fmt.Sprintf("ArvoBill %s complete", action),
		"",
		fmt.Sprintf("Location:  %s", cfg.App.InstallDir),
		fmt.Sprintf("URL:       %s://%s", scheme, cfg.App.Domain),
	}
	if cfg.Generated.DatabaseService != "" {
		lines = append(lines, fmt.Sprintf("Database:  %s (%s)", cfg.Database.Name, cfg.Generated.DatabaseService))
	} else if action == "install" {
		lines = append(lines, fmt.Sprintf("Database:  %s", cfg.Database.Name))
	}
	if cfg.Generated.PHPVersion != "" {
		lines = append(lines, fmt.Sprintf("PHP:       %s", cfg.Generated.PHPVersion))
	}
	if action == "install" && !cfg.Features.SSL {
		lines = append(lines,
			"",
			"No web server configuration was written.",
			"Point your web server at "+cfg.App.InstallDir+"/public manually.")
	}

	fmt.Println(summaryStyle.Render(strings.Join(lines, "\n")))
}
