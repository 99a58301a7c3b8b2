package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func init() {
	// stream follows the SSE endpoint and prints each notification payload.
	streamCmd := &cobra.Command{
		Use:   "stream",
		Short: "Follow the notification stream (SSE)",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient(apiFlag, userFlag).R().
				SetDoNotParseResponse(true).
				Get("/notifications/stream")
			if err != nil {
				return err
			}
			body := resp.RawBody()
			defer body.Close()
			if err := checkStatus(resp); err != nil {
				return err
			}

			scanner := bufio.NewScanner(body)
			for scanner.Scan() {
				line := scanner.Text()
				if data, ok := strings.CutPrefix(line, "data: "); ok {
					_, _ = fmt.Fprintln(os.Stdout, data)
				}
			}
			return scanner.Err()
		},
	}
	rootCmd.AddCommand(streamCmd)

	// watch does the same over the websocket endpoint.
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the notification stream (websocket)",
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL := strings.Replace(apiFlag, "http", "ws", 1) + "/ws"
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				return fmt.Errorf("dial %s: %w", wsURL, err)
			}
			defer conn.Close()

			done := make(chan error, 1)
			go func() {
				for {
					_, msg, err := conn.ReadMessage()
					if err != nil {
						done <- err
						return
					}
					_, _ = fmt.Fprintln(os.Stdout, string(msg))
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-done:
				return err
			case <-quit:
				return nil
			}
		},
	}
	rootCmd.AddCommand(watchCmd)
}
