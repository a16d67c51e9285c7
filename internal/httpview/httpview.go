// Package httpview implements the read-only HTTP view of §6, built on
// gin (grounded on guiperry-HASHER's go.mod, the only example repo
// carrying an HTTP framework dependency).
package httpview

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orca-st/sensact/internal/cache"
	"github.com/orca-st/sensact/internal/clock"
	"github.com/orca-st/sensact/internal/device"
	"github.com/orca-st/sensact/internal/processor"
)

// DeviceEntry pairs one device's identity/state with its sample cache.
type DeviceEntry struct {
	Name   string
	Engine *device.Engine
	Cache  *cache.Device
}

// ProcessorEntry pairs one processor's configured name with its
// implementation.
type ProcessorEntry struct {
	Name      string
	Processor processor.Processor
}

// Server is the HTTP view: a read-only window onto the live device
// caches and processor outputs.
type Server struct {
	engine     *gin.Engine
	devices    []DeviceEntry
	processors []ProcessorEntry
	clock      *clock.Clock
	css        string
}

// New constructs a Server over the given devices/processors, rendering
// `/`'s embedded CSS from css if non-empty.
func New(devices []DeviceEntry, processors []ProcessorEntry, clk *clock.Clock, css string) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{devices: devices, processors: processors, clock: clk, css: css}
	r := gin.New()
	r.Use(corsMiddleware())
	r.GET("/", s.handleIndex)
	r.GET("/favicon.ico", s.handleFavicon)
	r.GET("/devices/:sel", s.handleDevice)
	r.GET("/processors/:sel", s.handleProcessor)
	r.NoRoute(func(c *gin.Context) { c.Status(http.StatusNotFound) })
	s.engine = r
	return s
}

// Handler returns the http.Handler serving this view.
func (s *Server) Handler() http.Handler { return s.engine }

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Next()
	}
}

func (s *Server) handleFavicon(c *gin.Context) {
	c.Header("Content-Type", "image/x-icon")
	c.Status(http.StatusOK)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, renderIndex(s.devices, s.processors, s.css))
}

// findDevice resolves sel as an index, device id, or device name, per
// §6's `{index|id|name}` selector.
func (s *Server) findDevice(sel string) (*DeviceEntry, bool) {
	if idx, err := strconv.Atoi(sel); err == nil {
		if idx >= 0 && idx < len(s.devices) {
			return &s.devices[idx], true
		}
		return nil, false
	}
	for i := range s.devices {
		if s.devices[i].Engine.ID() == sel || s.devices[i].Name == sel {
			return &s.devices[i], true
		}
	}
	return nil, false
}

func (s *Server) findProcessor(sel string) (*ProcessorEntry, bool) {
	if idx, err := strconv.Atoi(sel); err == nil {
		if idx >= 0 && idx < len(s.processors) {
			return &s.processors[idx], true
		}
		return nil, false
	}
	for i := range s.processors {
		if s.processors[i].Name == sel {
			return &s.processors[i], true
		}
	}
	return nil, false
}

// quantityPoint is one entry of a device's `data` map in the JSON view.
type quantityPoint struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

func (s *Server) handleDevice(c *gin.Context) {
	entry, ok := s.findDevice(c.Param("sel"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	data := make(map[string]quantityPoint)
	for _, q := range entry.Cache.Quantities() {
		ring := entry.Cache.Ring(q)
		if ring == nil {
			continue
		}
		v, ok := ring.Back()
		if !ok {
			continue
		}
		data[q.Name()] = quantityPoint{Time: v.Stamp, Value: v.Value}
	}
	now := 0.0
	if s.clock != nil {
		now = s.clock.Now()
	}
	c.IndentedJSON(http.StatusOK, gin.H{
		"name":      entry.Name,
		"id":        entry.Engine.ID(),
		"connected": entry.Engine.Connected(),
		"time":      now,
		"data":      data,
	})
}

func (s *Server) handleProcessor(c *gin.Context) {
	entry, ok := s.findProcessor(c.Param("sel"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.IndentedJSON(http.StatusOK, entry.Processor.Snapshot())
}

func renderIndex(devices []DeviceEntry, processors []ProcessorEntry, css string) string {
	html := "<!DOCTYPE html><html><head><title>sensact</title><style>" + css + "</style></head><body>"
	html += "<h1>Devices</h1><ul>"
	for i, d := range devices {
		html += fmt.Sprintf(`<li><a href="/devices/%d">%s</a> (%s)</li>`, i, d.Name, d.Engine.State())
	}
	html += "</ul><h1>Processors</h1><ul>"
	for i, p := range processors {
		html += fmt.Sprintf(`<li><a href="/processors/%d">%s</a></li>`, i, p.Name)
	}
	html += "</ul></body></html>"
	return html
}
