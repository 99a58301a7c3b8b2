package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	remindersCmd := &cobra.Command{Use: "reminders", Short: "Reminder operations"}

	// create
	var message, at string
	var noteID int64
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a reminder",
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("--at must be RFC3339 (e.g. 2026-09-01T15:04:05Z): %w", err)
			}
			payload := map[string]interface{}{
				"message":       message,
				"reminder_time": due.UTC().Format(time.RFC3339),
			}
			if noteID > 0 {
				payload["note_id"] = noteID
			}
			resp, err := newClient(apiFlag, userFlag).R().
				SetBody(payload).
				Post("/api/reminders")
			if err != nil {
				return err
			}
			if err := checkStatus(resp); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, resp.String())
			return nil
		},
	}
	createCmd.Flags().StringVarP(&message, "message", "m", "", "Reminder message (required)")
	createCmd.Flags().StringVarP(&at, "at", "t", "", "Due time, RFC3339 (required)")
	createCmd.Flags().Int64VarP(&noteID, "note", "n", 0, "Attach to note id")
	_ = createCmd.MarkFlagRequired("message")
	_ = createCmd.MarkFlagRequired("at")
	remindersCmd.AddCommand(createCmd)

	// list
	var search, orderBy string
	var listNoteID int64
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := newClient(apiFlag, userFlag).R()
			if search != "" {
				req.SetQueryParam("search", search)
			}
			if orderBy != "" {
				req.SetQueryParam("order_by", orderBy)
			}
			if listNoteID > 0 {
				req.SetQueryParam("note_id", fmt.Sprintf("%d", listNoteID))
			}
			resp, err := req.Get("/api/reminders")
			if err != nil {
				return err
			}
			if err := checkStatus(resp); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, resp.String())
			return nil
		},
	}
	listCmd.Flags().StringVarP(&search, "search", "s", "", "Substring filter on message")
	listCmd.Flags().StringVarP(&orderBy, "order-by", "o", "", "created_at or reminder_time")
	listCmd.Flags().Int64VarP(&listNoteID, "note", "n", 0, "Filter by note id")
	remindersCmd.AddCommand(listCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get REMINDER_ID",
		Short: "Get a reminder by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient(apiFlag, userFlag).R().
				Get(fmt.Sprintf("/api/reminders/%s", args[0]))
			if err != nil {
				return err
			}
			if err := checkStatus(resp); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, resp.String())
			return nil
		},
	}
	remindersCmd.AddCommand(getCmd)

	// ack
	ackCmd := &cobra.Command{
		Use:   "ack REMINDER_ID",
		Short: "Acknowledge a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient(apiFlag, userFlag).R().
				Post(fmt.Sprintf("/api/reminders/%s/acknowledge", args[0]))
			if err != nil {
				return err
			}
			if err := checkStatus(resp); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, resp.String())
			return nil
		},
	}
	remindersCmd.AddCommand(ackCmd)

	// delete
	deleteCmd := &cobra.Command{
		Use:   "delete REMINDER_ID",
		Short: "Delete a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient(apiFlag, userFlag).R().
				Delete(fmt.Sprintf("/api/reminders/%s", args[0]))
			if err != nil {
				return err
			}
			if err := checkStatus(resp); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "deleted")
			return nil
		},
	}
	remindersCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(remindersCmd)
}
