// Package api exposes the HTTP and WebSocket API of the printer daemon.
package api

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereceipt/thermal-driver/internal/command"
	"github.com/thereceipt/thermal-driver/internal/printer"
	"github.com/thereceipt/thermal-driver/internal/renderer"
	"github.com/thereceipt/thermal-driver/pkg/thermal"
)

// Server is the API server.
type Server struct {
	router   *gin.Engine
	manager  *printer.Manager
	pool     *printer.ConnectionPool
	queue    *printer.PrintQueue
	renderer *renderer.Renderer
	executor *command.Executor
	upgrader websocket.Upgrader
}

// NewServer creates a new API server.
func NewServer(manager *printer.Manager, pool *printer.ConnectionPool, queue *printer.PrintQueue, r *renderer.Renderer) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.Default()
	router.Use(corsMiddleware())

	server := &Server{
		router:   router,
		manager:  manager,
		pool:     pool,
		queue:    queue,
		renderer: r,
		executor: command.NewExecutor(manager, pool, queue, r),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	server.setupRoutes()
	queue.OnJobUpdate(server.broadcastJobUpdate)

	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/printers", s.handleGetPrinters)
	s.router.POST("/printer/:id/name", s.handleSetPrinterName)
	s.router.POST("/printer/:id/calibration", s.handleSetCalibration)

	s.router.POST("/print/:id/text", s.handlePrintText)
	s.router.POST("/print/:id/barcode", s.handlePrintBarcode)
	s.router.POST("/print/:id/qr", s.handlePrintQR)
	s.router.POST("/print/:id/image", s.handlePrintImage)
	s.router.POST("/print/:id/test-page", s.handlePrintTestPage)

	s.router.GET("/jobs", s.handleGetJobs)
	s.router.GET("/job/:id", s.handleGetJob)

	// Command endpoint for the CLI
	s.router.POST("/command", s.handleCommand)

	// WebSocket
	s.router.GET("/ws", s.handleWebSocket)

	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

// Run starts the server on the given port.
func (s *Server) Run(port string) error {
	return s.router.Run(":" + port)
}

func (s *Server) handleGetPrinters(c *gin.Context) {
	printers := s.manager.GetAllPrinters()

	list := make([]gin.H, 0, len(printers))
	for _, p := range printers {
		list = append(list, gin.H{
			"id":          p.ID,
			"device":      p.Device,
			"description": p.Description,
			"name":        p.Name,
			"connected":   s.pool.IsConnected(p.ID),
		})
	}

	c.JSON(200, gin.H{"printers": list})
}

func (s *Server) handleSetPrinterName(c *gin.Context) {
	printerID := c.Param("id")

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "name is required"})
		return
	}

	if !s.manager.SetPrinterName(printerID, req.Name) {
		c.JSON(404, gin.H{"error": "printer not found"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}

func (s *Server) handleSetCalibration(c *gin.Context) {
	printerID := c.Param("id")

	var req struct {
		Baud            int `json:"baud" binding:"required"`
		FirmwareVersion int `json:"firmware_version" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "baud and firmware_version are required"})
		return
	}

	if !s.manager.Calibrate(printerID, req.Baud, req.FirmwareVersion) {
		c.JSON(404, gin.H{"error": "printer not found"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}

func (s *Server) handlePrintText(c *gin.Context) {
	printerID := c.Param("id")

	var req struct {
		Text string `json:"text" binding:"required"`
		// Rendered text goes through the rasterizer instead of the
		// device font.
		Rendered  bool    `json:"rendered"`
		Size      float64 `json:"size"`
		Align     string  `json:"align"`
		FeedAfter int     `json:"feed_after"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "text is required"})
		return
	}

	feed := req.FeedAfter
	if feed == 0 {
		feed = 2
	}

	var job *printer.PrintJob
	if req.Rendered {
		bm, err := s.renderer.RenderText(req.Text, req.Size, req.Align)
		if err != nil {
			c.JSON(500, gin.H{"error": fmt.Sprintf("failed to render text: %v", err)})
			return
		}
		job = &printer.PrintJob{
			PrinterID: printerID,
			Kind:      printer.JobBitmap,
			Width:     bm.Width,
			Height:    bm.Height,
			Bits:      bm.Bits,
			FeedAfter: feed,
		}
	} else {
		text := strings.ReplaceAll(req.Text, "\r\n", "\n")
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		job = &printer.PrintJob{
			PrinterID: printerID,
			Kind:      printer.JobText,
			Text:      text,
			FeedAfter: feed,
		}
	}

	s.enqueue(c, job)
}

var symbologies = map[string]thermal.Barcode{
	"upca":    thermal.UPCA,
	"upce":    thermal.UPCE,
	"ean13":   thermal.EAN13,
	"ean8":    thermal.EAN8,
	"code39":  thermal.Code39,
	"itf":     thermal.ITF,
	"codabar": thermal.Codabar,
	"code93":  thermal.Code93,
	"code128": thermal.Code128,
}

func (s *Server) handlePrintBarcode(c *gin.Context) {
	printerID := c.Param("id")

	var req struct {
		Value     string `json:"value" binding:"required"`
		Symbology string `json:"symbology"`
		// Rendered barcodes are rasterized host-side; the default uses
		// the device's native barcode command.
		Rendered bool   `json:"rendered"`
		Format   string `json:"format"`
		Height   int    `json:"height"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "value is required"})
		return
	}

	if req.Rendered {
		bm, err := s.renderer.RenderBarcode(req.Value, req.Format, req.Height)
		if err != nil {
			c.JSON(500, gin.H{"error": fmt.Sprintf("failed to render barcode: %v", err)})
			return
		}
		s.enqueue(c, &printer.PrintJob{
			PrinterID: printerID,
			Kind:      printer.JobBitmap,
			Width:     bm.Width,
			Height:    bm.Height,
			Bits:      bm.Bits,
			FeedAfter: 2,
		})
		return
	}

	sym := thermal.Code128
	if req.Symbology != "" {
		var ok bool
		sym, ok = symbologies[strings.ToLower(req.Symbology)]
		if !ok {
			c.JSON(400, gin.H{"error": fmt.Sprintf("unknown symbology: %s", req.Symbology)})
			return
		}
	}

	s.enqueue(c, &printer.PrintJob{
		PrinterID: printerID,
		Kind:      printer.JobBarcode,
		Text:      req.Value,
		Symbology: sym,
		FeedAfter: 2,
	})
}

func (s *Server) handlePrintQR(c *gin.Context) {
	printerID := c.Param("id")

	var req struct {
		Value string `json:"value" binding:"required"`
		Size  int    `json:"size"`
		Level string `json:"level"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "value is required"})
		return
	}

	bm, err := s.renderer.RenderQRCode(req.Value, req.Size, req.Level)
	if err != nil {
		c.JSON(500, gin.H{"error": fmt.Sprintf("failed to render QR code: %v", err)})
		return
	}

	s.enqueue(c, &printer.PrintJob{
		PrinterID: printerID,
		Kind:      printer.JobBitmap,
		Width:     bm.Width,
		Height:    bm.Height,
		Bits:      bm.Bits,
		FeedAfter: 2,
	})
}

func (s *Server) handlePrintImage(c *gin.Context) {
	printerID := c.Param("id")

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(400, gin.H{"error": "image file is required"})
		return
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("failed to decode image: %v", err)})
		return
	}

	bm := renderer.ToBitmap(img, s.renderer.Width())

	s.enqueue(c, &printer.PrintJob{
		PrinterID: printerID,
		Kind:      printer.JobBitmap,
		Width:     bm.Width,
		Height:    bm.Height,
		Bits:      bm.Bits,
		FeedAfter: 2,
	})
}

func (s *Server) handlePrintTestPage(c *gin.Context) {
	s.enqueue(c, &printer.PrintJob{
		PrinterID: c.Param("id"),
		Kind:      printer.JobTestPage,
	})
}

func (s *Server) enqueue(c *gin.Context, job *printer.PrintJob) {
	if s.manager.GetPrinter(job.PrinterID) == nil {
		c.JSON(404, gin.H{"error": "printer not found"})
		return
	}

	jobID := s.queue.Enqueue(job)
	c.JSON(200, gin.H{"success": true, "job_id": jobID})
}

func (s *Server) handleGetJobs(c *gin.Context) {
	jobs := s.queue.GetAllJobs()

	list := make([]gin.H, 0, len(jobs))
	for _, j := range jobs {
		list = append(list, jobJSON(j))
	}

	c.JSON(200, gin.H{"jobs": list})
}

func (s *Server) handleGetJob(c *gin.Context) {
	job := s.queue.GetJob(c.Param("id"))
	if job == nil {
		c.JSON(404, gin.H{"error": "job not found"})
		return
	}

	c.JSON(200, jobJSON(job))
}

func (s *Server) handleCommand(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "command is required"})
		return
	}

	result := s.executor.Execute(req.Command)
	c.JSON(200, result)
}

func jobJSON(j *printer.PrintJob) gin.H {
	h := gin.H{
		"id":         j.ID,
		"printer_id": j.PrinterID,
		"kind":       string(j.Kind),
		"status":     j.Status,
		"retries":    j.Retries,
		"created_at": j.CreatedAt,
	}
	if j.Error != nil {
		h["error"] = j.Error.Error()
	}
	return h
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
