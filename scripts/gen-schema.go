//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/ormasoftchile/kprep/pkg/bank"
)

func main() {
	data, err := bank.GenerateJSONSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("schemas/bank-v1.json", data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote schemas/bank-v1.json")
}
