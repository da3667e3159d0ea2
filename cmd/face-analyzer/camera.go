package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/menta2k/face-analyzer/pkg/capture"
	"github.com/menta2k/face-analyzer/pkg/hub"
	"github.com/menta2k/face-analyzer/pkg/opencv"
	"github.com/menta2k/face-analyzer/pkg/session"
	"github.com/menta2k/face-analyzer/pkg/stats"
	"github.com/menta2k/face-analyzer/pkg/store"
)

var (
	cameraDevice   int
	cameraDir      string
	cameraLoop     bool
	cameraServe    string
	cameraDuration time.Duration
	cameraSave     bool
	cameraCSV      string
)

var cameraCmd = &cobra.Command{
	Use:   "camera",
	Short: "Analyze a live camera feed or a directory of frames",
	Long: `Reads frames from a camera device (or replays a directory of images),
analyzes every Nth frame and accumulates the records in a session. With --serve
the annotated frames are streamed to websocket viewers at /ws.`,
	Args: cobra.NoArgs,
	RunE: runCamera,
}

func init() {
	cameraCmd.Flags().IntVar(&cameraDevice, "device", -1, "camera device index (default from config)")
	cameraCmd.Flags().StringVar(&cameraDir, "dir", "", "replay images from this directory instead of a camera")
	cameraCmd.Flags().BoolVar(&cameraLoop, "loop", false, "restart the directory replay when it ends")
	cameraCmd.Flags().StringVar(&cameraServe, "serve", "", "stream annotated frames over websocket on this address, e.g. :8090 (default from config)")
	cameraCmd.Flags().DurationVar(&cameraDuration, "duration", 0, "stop after this long (0 runs until interrupted)")
	cameraCmd.Flags().BoolVar(&cameraSave, "save", false, "persist records to the database")
	cameraCmd.Flags().StringVar(&cameraCSV, "csv", "", "write the session records to this CSV file")
	rootCmd.AddCommand(cameraCmd)
}

func frameOpener() capture.Opener {
	if cameraDir != "" {
		return func() (capture.Source, error) {
			return capture.NewDirSource(cameraDir, cameraLoop)
		}
	}
	device := cameraDevice
	if device < 0 {
		device = cfg.Camera.Device
	}
	return opencv.CameraOpener(device)
}

func runCamera(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if cameraDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cameraDuration)
		defer cancel()
	}

	save := cameraSave || cfg.Storage.AutoSave
	comp, err := buildComponents(ctx, cfg, log, save)
	if err != nil {
		return err
	}
	defer comp.Close()

	sess := session.New()
	cam := session.NewCamera(frameOpener(), comp.pipeline, sess, session.CameraConfig{
		ProcessEveryNth: cfg.Camera.ProcessEveryNth,
		RefreshEvery:    cfg.Camera.RefreshEvery,
		FrameInterval:   cfg.FrameInterval(),
	}, log)

	if err := cam.Start(ctx); err != nil {
		return err
	}
	defer cam.Stop()

	addr := cameraServe
	if addr == "" {
		addr = cfg.Camera.ListenAddr
	}

	if addr != "" {
		if err := serveUpdates(ctx, addr, cam); err != nil {
			return err
		}
	} else {
		printUpdates(cmd, cam)
	}
	cam.Wait()

	records := sess.Records()
	summary := stats.Summarize(records)
	fmt.Fprintf(cmd.OutOrStdout(), "Processed %d frames, %d faces recorded.\n", cam.Processed(), summary.Total)

	if save && len(records) > 0 {
		if err := comp.db.InsertRecords(context.WithoutCancel(ctx), records); err != nil {
			return fmt.Errorf("failed to save records: %w", err)
		}
		log.Info("records saved", "count", len(records), "database", cfg.Storage.DatabasePath)
	}
	if cameraCSV != "" {
		if err := store.WriteCSVFile(cameraCSV, records); err != nil {
			return err
		}
		log.Info("records exported", "count", len(records), "path", cameraCSV)
	}

	return cam.Err()
}

// printUpdates reports progress until the final update arrives
func printUpdates(cmd *cobra.Command, cam *session.Camera) {
	out := cmd.OutOrStdout()
	for u := range cam.Updates() {
		fmt.Fprintf(out, "frames=%d faces_in_frame=%d total_faces=%d\n", u.Processed, len(u.Records), u.Total)
		if u.Final {
			return
		}
	}
}

// serveUpdates streams updates to websocket viewers until the final update
func serveUpdates(ctx context.Context, addr string, cam *session.Camera) error {
	h := hub.New(log)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go h.Run(hubCtx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving live view", "addr", addr, "path", "/ws")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		h.Forward(context.Background(), cam.Updates())
	}()

	var serveErr error
	select {
	case <-forwarded:
	case serveErr = <-errCh:
		cam.Stop()
		<-forwarded
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", "error", err)
	}
	if serveErr != nil {
		return fmt.Errorf("live view server failed: %w", serveErr)
	}
	return nil
}
