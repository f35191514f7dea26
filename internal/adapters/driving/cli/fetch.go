package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var (
	fetchDepth    int
	fetchParallel int
	fetchShow     bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <path>",
	Short: "Fetch a remote resource and everything it references",
	Long: `Fetches the resource at the given repository path, follows document
references discovered in its body up to the depth bound, and reports
the outcome per resource. Partial failure is normal: unreachable
references are listed, not fatal.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().IntVar(&fetchDepth, "depth", 0, "recursion depth (default from configuration)")
	fetchCmd.Flags().IntVar(&fetchParallel, "parallel", 0, "concurrent fetches (default from configuration)")
	fetchCmd.Flags().BoolVar(&fetchShow, "show", false, "print the root resource body")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.cfg.Validate(); err != nil {
		return err
	}

	rootURI := args[0]
	result, err := eng.dispatcher.MultiFetch(cmd.Context(), rootURI, fetchDepth, fetchParallel)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", rootURI, err)
	}

	uris := make([]string, 0, len(result.Resources))
	for uri := range result.Resources {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	for _, uri := range uris {
		resource := result.Resources[uri]
		cmd.Printf("fetched %s (%d bytes, %d reference(s))\n",
			uri, len(resource.Body), len(resource.DiscoveredLinks))
	}

	failed := make([]string, 0, len(result.Errors))
	for uri := range result.Errors {
		failed = append(failed, uri)
	}
	sort.Strings(failed)
	for _, uri := range failed {
		cmd.Printf("failed  %s: %v\n", uri, result.Errors[uri])
	}

	if fetchShow {
		if resource, ok := result.Resources[rootURI]; ok {
			cmd.Println()
			cmd.Print(string(resource.Body))
		}
	}

	if _, ok := result.Resources[rootURI]; !ok {
		return fmt.Errorf("fetch %s: %w", rootURI, result.Errors[rootURI])
	}
	return nil
}
