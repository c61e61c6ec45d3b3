package api

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereceipt/thermal-driver/internal/printer"
)

// WebSocket message types
const (
	EventCommand        = "command"
	EventJobUpdate      = "job_update"
	EventPrinterAdded   = "printer_added"
	EventPrinterRemoved = "printer_removed"
	EventResponse       = "response"
	EventError          = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
	mu     sync.Mutex
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		fmt.Printf("WebSocket upgrade failed: %v\n", err)
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, 256),
		server: s,
	}

	fmt.Println("📡 WebSocket client connected")

	// Start goroutines
	go client.readPump()
	go client.writePump()
}

func (c *WSClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		c.mu.Lock()
		err := c.conn.WriteJSON(msg)
		c.mu.Unlock()

		if err != nil {
			fmt.Printf("WebSocket write error: %v\n", err)
			return
		}
	}
}

func (c *WSClient) handleMessage(msg *WSMessage) {
	switch msg.Event {
	case EventCommand:
		c.handleCommandEvent(msg.Data)
	default:
		c.sendError(fmt.Sprintf("unknown event: %s", msg.Event))
	}
}

// handleCommandEvent runs a command line through the shared executor, so
// WebSocket clients get the same surface as the CLI and the TUI console.
func (c *WSClient) handleCommandEvent(data map[string]interface{}) {
	cmdStr, ok := data["command"].(string)
	if !ok || cmdStr == "" {
		c.sendError("command is required")
		return
	}

	result := c.server.executor.Execute(cmdStr)

	resp := map[string]interface{}{
		"success": result.Success,
	}
	if result.Message != "" {
		resp["message"] = result.Message
	}
	if result.Data != nil {
		resp["data"] = result.Data
	}
	if result.Error != "" {
		resp["error"] = result.Error
	}

	c.sendResponse(resp)
}

func (c *WSClient) sendResponse(data map[string]interface{}) {
	c.send <- WSMessage{
		Event: EventResponse,
		Data:  data,
	}
}

// Client tracking for broadcasts
var (
	clients   = make(map[*WSClient]bool)
	clientsMu sync.RWMutex
)

func addClient(client *WSClient) {
	clientsMu.Lock()
	clients[client] = true
	clientsMu.Unlock()
}

func removeClient(client *WSClient) {
	clientsMu.Lock()
	delete(clients, client)
	clientsMu.Unlock()
}

func (c *WSClient) readPump() {
	defer func() {
		removeClient(c)
		c.conn.Close()
		fmt.Println("📡 WebSocket client disconnected")
	}()

	addClient(c)

	for {
		var msg WSMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("WebSocket error: %v\n", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

func (c *WSClient) sendError(message string) {
	c.send <- WSMessage{
		Event: EventError,
		Data: map[string]interface{}{
			"error": message,
		},
	}
}

func broadcast(message WSMessage) {
	clientsMu.RLock()
	defer clientsMu.RUnlock()

	for client := range clients {
		select {
		case client.send <- message:
		default:
			// Client send buffer full, skip
		}
	}
}

// broadcastJobUpdate pushes job status transitions to all connected clients.
func (s *Server) broadcastJobUpdate(job *printer.PrintJob) {
	data := map[string]interface{}{
		"id":         job.ID,
		"printer_id": job.PrinterID,
		"kind":       string(job.Kind),
		"status":     job.Status,
		"retries":    job.Retries,
	}
	if job.Error != nil {
		data["error"] = job.Error.Error()
	}

	broadcast(WSMessage{Event: EventJobUpdate, Data: data})
}

// BroadcastPrinterAdded broadcasts a printer added event to all connected clients
func (s *Server) BroadcastPrinterAdded(p *printer.Printer) {
	broadcast(WSMessage{
		Event: EventPrinterAdded,
		Data: map[string]interface{}{
			"id":          p.ID,
			"device":      p.Device,
			"description": p.Description,
			"name":        p.Name,
		},
	})

	fmt.Printf("📡 Broadcast: Printer added - %s\n", p.Description)
}

// BroadcastPrinterRemoved broadcasts a printer removed event to all connected clients
func (s *Server) BroadcastPrinterRemoved(printerID string) {
	broadcast(WSMessage{
		Event: EventPrinterRemoved,
		Data: map[string]interface{}{
			"id": printerID,
		},
	})

	fmt.Printf("📡 Broadcast: Printer removed - %s\n", printerID)
}
