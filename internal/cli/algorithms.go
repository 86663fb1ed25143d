package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/signbench/internal/entropy"
	"github.com/wesleyorama2/signbench/internal/output"
	"github.com/wesleyorama2/signbench/internal/signer"
	"github.com/wesleyorama2/signbench/internal/workload"
)

func newAlgorithmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List the supported operations, keys, curves and digests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printAlgorithms(cmd.OutOrStdout())
			return nil
		},
	}
}

func printAlgorithms(w io.Writer) {
	printList(w, "Operations", workload.OpTypes())
	printList(w, "Key types", signer.KeyKinds())
	printList(w, "Curves", signer.Curves())
	printList(w, "Digests", signer.Digests())
	printList(w, "Entropy sources", entropy.Kinds())
	printList(w, "Output formats", output.Formats())
	fmt.Fprintf(w, "RSA key sizes: %d to %d bits (default %d)\n", signer.MinRSABits, signer.MaxRSABits, signer.DefaultRSABits)
}

func printList[T ~string](w io.Writer, label string, items []T) {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = string(item)
	}
	fmt.Fprintf(w, "%s: %s\n", label, strings.Join(names, ", "))
}
