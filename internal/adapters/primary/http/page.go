package http

import (
	"html/template"
	"net/http"
	"path"
	"strings"

	"github.com/sydologie/diapoai/internal/adapters/secondary/export"
	"github.com/sydologie/diapoai/internal/adapters/secondary/preview"
	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/services"
)

var previewPage = template.Must(template.New("preview").Parse(previewPageHTML))

type previewPageData struct {
	Title       string
	Stylesheets []string
	Scripts     []string
}

// handlePreviewPage serves the page the slide engine runs in. The slides
// arrive over the websocket.
func (s *Server) handlePreviewPage(w http.ResponseWriter, r *http.Request) {
	data := previewPageData{Title: services.DefaultDeckTitle}
	if deck := s.currentDeck(); deck != nil && deck.SlideCount() > 0 {
		data.Title = deck.Slides[0].DisplayTitle()
	}
	for _, u := range s.engineAssetURLs() {
		switch path.Ext(u) {
		case ".css":
			data.Stylesheets = append(data.Stylesheets, u)
		case ".js":
			data.Scripts = append(data.Scripts, u)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := previewPage.Execute(w, data); err != nil {
		s.logger.Error("Failed to render preview page: %v", err)
	}
}

// engineAssetURLs points at the local cache for every file it holds and at
// the CDN for the others
func (s *Server) engineAssetURLs() []string {
	s.mu.RLock()
	assets, base := s.assets, s.assetBase
	s.mu.RUnlock()

	remote := preview.AssetURLs(base)
	urls := make([]string, 0, len(preview.EngineAssets))
	for i, name := range preview.EngineAssets {
		if assets != nil {
			if _, ok := assets.Lookup(name); ok {
				urls = append(urls, "/assets/"+name)
				continue
			}
		}
		urls = append(urls, remote[i])
	}
	return urls
}

// handleThemeStylesheet serves the stylesheet of the current palette
func (s *Server) handleThemeStylesheet(w http.ResponseWriter, r *http.Request) {
	theme := entities.DefaultColorTheme()
	if deck := s.currentDeck(); deck != nil {
		theme = deck.Theme
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(export.GenerateStylesheet(theme)))
}

// handleAsset serves a cached engine file
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	assets := s.assets
	s.mu.RUnlock()

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if assets == nil || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}
	asset, ok := assets.Lookup(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if asset.ContentType != "" {
		w.Header().Set("Content-Type", asset.ContentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(asset.Body)
}

const previewPageHTML = `<!DOCTYPE html>
<html lang="fr">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
{{- range .Stylesheets}}
  <link rel="stylesheet" href="{{.}}">
{{- end}}
  <link id="diapoai-theme" rel="stylesheet" href="/theme.css">
</head>
<body>
  <div class="reveal">
    <div class="slides"></div>
  </div>
{{- range .Scripts}}
  <script src="{{.}}"></script>
{{- end}}
  <script>
    (function () {
      var root = document.querySelector(".reveal");
      var slides = root.querySelector(".slides");
      var presenter = new URLSearchParams(location.search).get("mode") === "presenter";
      var deck = null;
      var socket = null;

      function destroy() {
        if (deck) {
          deck.destroy();
          deck = null;
        }
      }

      function init(data) {
        destroy();
        slides.innerHTML = data.html;
        var config = data.config || {};
        config.plugins = typeof RevealNotes !== "undefined" ? [RevealNotes] : [];
        deck = new Reveal(root, config);
        deck.initialize().then(function () {
          if (!presenter) return;
          deck.on("slidechanged", function (ev) {
            socket.send(JSON.stringify({type: "slide.changed", data: {h: ev.indexh, v: ev.indexv}}));
          });
        });
      }

      function handle(ev) {
        var data = ev.data || {};
        switch (ev.type) {
        case "engine.init":
          init(data);
          break;
        case "engine.patch":
          if (!deck) break;
          slides.innerHTML = data.html;
          deck.sync();
          break;
        case "engine.sync":
          if (!deck) break;
          deck.layout();
          if (data.reset) deck.slide(0);
          break;
        case "engine.destroy":
          destroy();
          slides.innerHTML = "";
          break;
        case "slide.changed":
          if (deck && !presenter) deck.slide(data.h || 0, data.v || 0);
          break;
        case "deck.updated":
          document.getElementById("diapoai-theme").href = "/theme.css?v=" + Date.now();
          break;
        }
      }

      function connect() {
        var scheme = location.protocol === "https:" ? "wss://" : "ws://";
        socket = new WebSocket(scheme + location.host + "/ws" + location.search);
        socket.onmessage = function (msg) { handle(JSON.parse(msg.data)); };
        socket.onclose = function () { setTimeout(connect, 1000); };
      }

      connect();
    })();
  </script>
</body>
</html>
`
