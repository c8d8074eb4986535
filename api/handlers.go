// Package api serves single-entry previews over HTTP.
package api

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Balrog57/xml2png/layer"
	"github.com/Balrog57/xml2png/renderer"
	"github.com/Balrog57/xml2png/template"
)

// SkippedHeader lists skipped layers as "index:reason" pairs.
const SkippedHeader = "X-Skipped-Layers"

// Server holds what the handlers share: the renderer, the template used when
// a request does not post one, and the optional catalog.
type Server struct {
	renderer renderer.Renderer
	template *template.Template
	entries  []layer.Entry
	byKey    map[string]int
	// backgroundDir 每次请求时重新扫描，新放入的图片无需重启即可看到
	backgroundDir string
}

// New creates a server. tpl may be nil (empty default session) and entries
// may be empty when no catalog was loaded.
func New(r renderer.Renderer, tpl *template.Template, entries []layer.Entry) *Server {
	if tpl == nil {
		tpl = template.Default()
	}
	s := &Server{
		renderer: r,
		template: tpl,
		entries:  entries,
		byKey:    make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if _, dup := s.byKey[e.Key]; !dup {
			s.byKey[e.Key] = i
		}
	}
	return s
}

// WithBackgrounds sets the background asset directory listed by
// GET /api/backgrounds.
func (s *Server) WithBackgrounds(dir string) *Server {
	s.backgroundDir = dir
	return s
}

type renderRequest struct {
	// Entry 直接给出条目数据；Key 从已加载的目录中查找。都为空时使用示例条目。
	Entry    *layer.Entry `json:"entry"`
	Key      string       `json:"key"`
	Template string       `json:"template"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "entries": len(s.entries)})
}

func (s *Server) defaultTemplate(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.template.Format(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (s *Server) listEntries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": len(s.entries), "entries": s.entries})
}

func (s *Server) listBackgrounds(c *gin.Context) {
	list, err := layer.Backgrounds(s.backgroundDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "backgrounds": list})
}

func (s *Server) render(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tpl := s.template
	if strings.TrimSpace(req.Template) != "" {
		parsed, err := template.ParseString(req.Template)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tpl = parsed
	}

	entry := req.Entry
	if entry == nil && req.Key != "" {
		i, ok := s.byKey[req.Key]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "条目不存在: " + req.Key})
			return
		}
		e := s.entries[i]
		entry = &e
	}

	opts := renderer.Options{Size: tpl.Size()}
	if req.Width != 0 || req.Height != 0 {
		opts.Size = &image.Point{X: req.Width, Y: req.Height}
	}

	res, err := s.renderer.Composite(entry, tpl.Layers, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, renderer.ErrInvalidSize) || errors.Is(err, layer.ErrNoLayers) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, res.Canvas); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(res.Skips) > 0 {
		c.Header(SkippedHeader, formatSkips(res.Skips))
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func formatSkips(skips []renderer.Skip) string {
	parts := make([]string, 0, len(skips))
	for _, s := range skips {
		parts = append(parts, strconv.Itoa(s.Layer)+":"+s.Reason.String())
	}
	return strings.Join(parts, ",")
}
