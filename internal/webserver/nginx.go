// Package webserver renders the reverse-proxy site configuration and the
// self-signed certificate pair it terminates TLS with.
package webserver

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/forgeup/forgeup/internal/config"
)

// The proxy forwards to the gitea service on the compose network; 3000 is
// Gitea's internal HTTP port.
const siteTemplate = `server {
    listen 80;
    server_name {{ .ServerName }};
    return 301 https://$host:{{ .HTTPPort }}$request_uri;
}

server {
    listen 443 ssl;
    server_name {{ .ServerName }};

    ssl_certificate /etc/nginx/certs/gitea.crt;
    ssl_certificate_key /etc/nginx/certs/gitea.key;

    client_max_body_size 512m;

    location / {
        proxy_pass http://gitea:3000;
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto https;
    }
}
`

var siteTmpl = template.Must(template.New("gitea.conf").Parse(siteTemplate))

// RenderSiteConfig renders the nginx server block for the deployment.
func RenderSiteConfig(cfg *config.Install) ([]byte, error) {
	buf := new(bytes.Buffer)
	err := siteTmpl.Execute(buf, map[string]interface{}{
		"ServerName": cfg.ServerName(),
		"HTTPPort":   cfg.HTTPPort,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering nginx site config: %w", err)
	}
	return buf.Bytes(), nil
}
