package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thereceipt/thermal-driver/internal/printer"
	"github.com/thereceipt/thermal-driver/internal/renderer"
	"github.com/thereceipt/thermal-driver/pkg/thermal"
)

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

func (e *Executor) handlePrint(args []string) *Result {
	if len(args) < 2 {
		return fail("usage: print <printer-id> <text|barcode|qr|image|test-page> ...")
	}

	printerID := args[0]
	if e.manager.GetPrinter(printerID) == nil {
		return fail(fmt.Sprintf("printer not found: %s", printerID))
	}

	var job *printer.PrintJob

	switch args[1] {
	case "text":
		if len(args) < 3 {
			return fail("usage: print <printer-id> text <value>")
		}
		job = &printer.PrintJob{
			PrinterID: printerID,
			Kind:      printer.JobText,
			Text:      normalizeLineEndings(strings.Join(args[2:], " ")) + "\n",
			FeedAfter: 2,
		}

	case "barcode":
		if len(args) < 3 {
			return fail("usage: print <printer-id> barcode <value> [symbology]")
		}
		sym := thermal.Code128
		if len(args) >= 4 {
			s, ok := symbologies[strings.ToLower(args[3])]
			if !ok {
				return fail(fmt.Sprintf("unknown symbology: %s", args[3]))
			}
			sym = s
		}
		job = &printer.PrintJob{
			PrinterID: printerID,
			Kind:      printer.JobBarcode,
			Text:      args[2],
			Symbology: sym,
			FeedAfter: 2,
		}

	case "qr":
		if len(args) < 3 {
			return fail("usage: print <printer-id> qr <value>")
		}
		bm, err := e.renderer.RenderQRCode(args[2], 0, "M")
		if err != nil {
			return fail(fmt.Sprintf("failed to render QR code: %v", err))
		}
		job = bitmapJob(printerID, bm.Width, bm.Height, bm.Bits)

	case "image":
		if len(args) < 3 {
			return fail("usage: print <printer-id> image <path>")
		}
		img, err := loadAndConvert(e, args[2])
		if err != nil {
			return fail(err.Error())
		}
		job = bitmapJob(printerID, img.Width, img.Height, img.Bits)

	case "test-page":
		job = &printer.PrintJob{
			PrinterID: printerID,
			Kind:      printer.JobTestPage,
		}

	default:
		return fail(fmt.Sprintf("unknown print kind: %s", args[1]))
	}

	jobID := e.queue.Enqueue(job)

	return &Result{
		Success: true,
		Message: "print job queued",
		Data:    map[string]interface{}{"job_id": jobID},
	}
}

func (e *Executor) handlePrinter(args []string) *Result {
	if len(args) == 0 {
		return fail("usage: printer <list|rename|calibrate|add> ...")
	}

	switch args[0] {
	case "list":
		printers := e.manager.GetAllPrinters()
		list := make([]map[string]interface{}, 0, len(printers))
		for _, p := range printers {
			list = append(list, map[string]interface{}{
				"id":          p.ID,
				"device":      p.Device,
				"description": p.Description,
				"name":        p.Name,
				"connected":   e.pool.IsConnected(p.ID),
			})
		}
		return &Result{
			Success: true,
			Data:    map[string]interface{}{"printers": list},
		}

	case "rename":
		if len(args) < 3 {
			return fail("usage: printer rename <id> <name>")
		}
		name := strings.Join(args[2:], " ")
		if !e.manager.SetPrinterName(args[1], name) {
			return fail(fmt.Sprintf("printer not found: %s", args[1]))
		}
		return &Result{Success: true, Message: fmt.Sprintf("printer renamed to %q", name)}

	case "calibrate":
		if len(args) < 4 {
			return fail("usage: printer calibrate <id> <baud> <firmware-version>")
		}
		baud, err := strconv.Atoi(args[2])
		if err != nil || baud <= 0 {
			return fail(fmt.Sprintf("invalid baud rate: %s", args[2]))
		}
		fw, err := strconv.Atoi(args[3])
		if err != nil || fw <= 0 {
			return fail(fmt.Sprintf("invalid firmware version: %s", args[3]))
		}
		if !e.manager.Calibrate(args[1], baud, fw) {
			return fail(fmt.Sprintf("printer not found: %s", args[1]))
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("calibration stored: %d baud, firmware %d (applies on next connect)", baud, fw),
		}

	case "add":
		if len(args) < 2 {
			return fail("usage: printer add <device>")
		}
		p := e.manager.AddDevice(args[1])
		return &Result{
			Success: true,
			Message: "printer added",
			Data:    map[string]interface{}{"id": p.ID},
		}

	default:
		return fail(fmt.Sprintf("unknown printer subcommand: %s", args[0]))
	}
}

func (e *Executor) handleJob(args []string) *Result {
	if len(args) == 0 {
		return fail("usage: job <list|status|clear> ...")
	}

	switch args[0] {
	case "list":
		jobs := e.queue.GetAllJobs()
		list := make([]map[string]interface{}, 0, len(jobs))
		for _, j := range jobs {
			list = append(list, jobSummary(j))
		}
		return &Result{
			Success: true,
			Data:    map[string]interface{}{"jobs": list},
		}

	case "status":
		if len(args) < 2 {
			return fail("usage: job status <id>")
		}
		job := e.queue.GetJob(args[1])
		if job == nil {
			return fail(fmt.Sprintf("job not found: %s", args[1]))
		}
		return &Result{
			Success: true,
			Data:    jobSummary(job),
		}

	case "clear":
		e.queue.ClearCompleted()
		return &Result{Success: true, Message: "completed jobs cleared"}

	default:
		return fail(fmt.Sprintf("unknown job subcommand: %s", args[0]))
	}
}

func (e *Executor) handleDetect(args []string) *Result {
	printers, err := e.manager.DetectPrinters()
	if err != nil {
		return fail(fmt.Sprintf("detection failed: %v", err))
	}
	return &Result{
		Success: true,
		Message: fmt.Sprintf("found %d printer(s)", len(printers)),
	}
}

func (e *Executor) handleHelp(args []string) *Result {
	return &Result{
		Success: true,
		Message: strings.TrimSpace(`
Commands:
  print <printer-id> text <value>                 print text in the device font
  print <printer-id> barcode <value> [symbology]  print a device-native barcode
  print <printer-id> qr <value>                   render and print a QR code
  print <printer-id> image <path>                 render and print an image file
  print <printer-id> test-page                    print the device test page
  printer list                                    list detected printers
  printer rename <id> <name>                      set a custom printer name
  printer calibrate <id> <baud> <firmware>        store serial calibration
  printer add <device>                            register a device path manually
  job list                                        list print jobs
  job status <id>                                 show one job
  job clear                                       drop completed jobs
  detect                                          rescan serial ports
`),
	}
}

func loadAndConvert(e *Executor, path string) (*renderer.Bitmap, error) {
	img, err := renderer.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return renderer.ToBitmap(img, e.renderer.Width()), nil
}

func bitmapJob(printerID string, w, h int, bits []byte) *printer.PrintJob {
	return &printer.PrintJob{
		PrinterID: printerID,
		Kind:      printer.JobBitmap,
		Width:     w,
		Height:    h,
		Bits:      bits,
		FeedAfter: 2,
	}
}

func jobSummary(j *printer.PrintJob) map[string]interface{} {
	s := map[string]interface{}{
		"id":         j.ID,
		"printer_id": j.PrinterID,
		"kind":       string(j.Kind),
		"status":     j.Status,
		"retries":    j.Retries,
		"created_at": j.CreatedAt,
	}
	if j.Error != nil {
		s["error"] = j.Error.Error()
	}
	return s
}

// normalizeLineEndings folds CRLF and lone CR to LF; the driver drops CR
// bytes anyway, this just keeps the column accounting exact.
func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func fail(msg string) *Result {
	return &Result{Success: false, Error: msg}
}
