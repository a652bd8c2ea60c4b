package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/restaurant-ops/internal/client"
	"github.com/example/restaurant-ops/internal/config"
	"github.com/example/restaurant-ops/internal/logging"
)

// apiClient builds a client from --api-url, falling back to API_URL.
func apiClient(cmd *cobra.Command) (*client.Client, error) {
	url, _ := cmd.Flags().GetString("api-url")
	if url == "" {
		cfg, err := config.FromEnv()
		if err != nil {
			return nil, err
		}
		url = cfg.APIURL
	}
	return client.New(url, logging.New("warn", "text")), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
