package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const requestTimeout = 10 * time.Second

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Shorten a long URL",
	Long: `Creates a short link for the given URL.

Example:
  shortlink create --url "https://example.com/some/long/path" --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		longURL, _ := cmd.Flags().GetString("url")
		if longURL == "" {
			return fmt.Errorf("the --url flag is required")
		}
		if !strings.HasPrefix(longURL, "http://") && !strings.HasPrefix(longURL, "https://") {
			return fmt.Errorf("url must start with http:// or https://")
		}

		body := map[string]any{"url": longURL}
		if cmd.Flags().Changed("limit") {
			limit, _ := cmd.Flags().GetInt("limit")
			body["clickLimit"] = limit
		}

		return doRequest(http.MethodPost, "/shorten", body)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your links",
	RunE: func(cmd *cobra.Command, args []string) error {
		if userID == "" {
			return fmt.Errorf("the --user flag is required")
		}
		return doRequest(http.MethodGet, "/user/links", nil)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <code>",
	Short: "Delete one of your links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if userID == "" {
			return fmt.Errorf("the --user flag is required")
		}
		return doRequest(http.MethodDelete, "/"+args[0], nil)
	},
}

var limitCmd = &cobra.Command{
	Use:   "limit <code>",
	Short: "Change a link's click limit",
	Long: `Sets a new click limit on one of your links.
Use --unlimited to lift the quota entirely.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if userID == "" {
			return fmt.Errorf("the --user flag is required")
		}

		unlimited, _ := cmd.Flags().GetBool("unlimited")
		body := map[string]any{"newLimit": nil}
		if !unlimited {
			if !cmd.Flags().Changed("limit") {
				return fmt.Errorf("pass --limit N or --unlimited")
			}
			limit, _ := cmd.Flags().GetInt("limit")
			body["newLimit"] = limit
		}

		return doRequest(http.MethodPut, "/"+args[0]+"/limit", body)
	},
}

func init() {
	createCmd.Flags().String("url", "", "long URL to shorten")
	createCmd.Flags().Int("limit", 0, "optional click limit (unlimited when omitted)")
	limitCmd.Flags().Int("limit", 0, "new click limit")
	limitCmd.Flags().Bool("unlimited", false, "remove the click limit")
}

// doRequest calls the server and pretty-prints the JSON response.
func doRequest(method, path string, body any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, strings.TrimSuffix(serverURL, "/")+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		fmt.Println(pretty.String())
	} else {
		fmt.Println(string(raw))
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
