// Package report produces the human-facing output of an install: the
// README dropped next to the generated files and the terminal summary.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/forgeup/forgeup/internal/config"
	"github.com/forgeup/forgeup/internal/orchestrate"
)

const readmeTemplate = `# Gitea deployment

Managed by forgeup. Generated files in this directory are rewritten on
every install run; manual edits will be lost.

## Access

- Web UI: https://{{ .ServerName }}{{ if ne .HTTPPort 443 }}:{{ .HTTPPort }}{{ end }}/
- SSH clone: ssh://git@{{ .ServerName }}:{{ .SSHPort }}/<owner>/<repo>.git

The TLS certificate is self-signed; browsers and git clients will warn
until it is trusted or replaced with a CA-issued one in ./certs/.

## Database

- Engine: PostgreSQL (service "db")
- Database/User: gitea
- Password: {{ .DBPassword }}

## Maintenance

Run these from {{ .InstallDir }}:

` + "```" + `sh
{{ .ComposeCmd }} -f docker-compose.yml ps        # service status
{{ .ComposeCmd }} -f docker-compose.yml logs -f   # follow logs
{{ .ComposeCmd }} -f docker-compose.yml pull      # fetch newer images
{{ .ComposeCmd }} -f docker-compose.yml up -d     # apply updates
` + "```" + `

To remove the deployment:

` + "```" + `sh
forgeup uninstall -i {{ .InstallDir }}        # keep data volumes
forgeup uninstall -i {{ .InstallDir }} -r     # delete everything
` + "```" + `
`

var readmeTmpl = template.Must(template.New("README.md").Parse(readmeTemplate))

// RenderReadme renders the README for the install directory.
func RenderReadme(cfg *config.Install, composeArgv []string) ([]byte, error) {
	buf := new(bytes.Buffer)
	err := readmeTmpl.Execute(buf, map[string]interface{}{
		"ServerName": cfg.ServerName(),
		"HTTPPort":   cfg.HTTPPort,
		"SSHPort":    cfg.SSHPort,
		"DBPassword": cfg.DBPassword,
		"InstallDir": cfg.InstallDir,
		"ComposeCmd": strings.Join(composeArgv, " "),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering README: %w", err)
	}
	return buf.Bytes(), nil
}

var summaryBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 2)

// PrintSummary prints the final terminal summary after a successful
// install.
func PrintSummary(cfg *config.Install) {
	url := fmt.Sprintf("https://%s", cfg.ServerName())
	if cfg.HTTPPort != 443 {
		url = fmt.Sprintf("%s:%d", url, cfg.HTTPPort)
	}

	lines := []string{
		color.GreenString("Gitea is up"),
		"",
		"Web UI:  " + url,
		fmt.Sprintf("SSH:     ssh://git@%s:%d", cfg.ServerName(), cfg.SSHPort),
		"Details: " + cfg.InstallDir + "/README.md",
	}
	fmt.Println(summaryBox.Render(strings.Join(lines, "\n")))
}

// PrintAccess prints the deployment's access URLs. Empty entries are
// skipped, so a partially readable manifest still prints what it can.
func PrintAccess(webURL, sshURL string) {
	if webURL == "" && sshURL == "" {
		return
	}
	fmt.Println()
	if webURL != "" {
		fmt.Println("Web UI:  " + webURL)
	}
	if sshURL != "" {
		fmt.Println("SSH:     " + sshURL)
	}
}

// PrintStatus prints one line per deployment container.
func PrintStatus(states []orchestrate.ContainerState) {
	if len(states) == 0 {
		color.Yellow("No deployment containers found")
		return
	}
	for _, st := range states {
		marker := color.RedString("✗")
		if st.Running {
			marker = color.GreenString("✓")
		}
		fmt.Printf("%s %-24s %-24s %s\n", marker, st.Name, st.Image, st.State)
	}
}
