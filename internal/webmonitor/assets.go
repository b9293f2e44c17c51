package webmonitor

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

//go:embed assets
var embeddedAssets embed.FS

// assetHandler serves files from an override directory when present and
// falls back to the embedded copies.
type assetHandler struct {
	overrideDir string
	embedded    http.Handler
}

func newAssetHandler(overrideDir string) *assetHandler {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		panic(err)
	}
	return &assetHandler{
		overrideDir: overrideDir,
		embedded:    http.FileServer(http.FS(sub)),
	}
}

func (h *assetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.overrideDir != "" {
		overridePath := filepath.Join(h.overrideDir, filepath.Base(r.URL.Path))
		if fileExists(overridePath) {
			http.ServeFile(w, r, overridePath)
			return
		}
	}
	h.embedded.ServeHTTP(w, r)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
